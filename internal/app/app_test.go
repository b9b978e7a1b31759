package app

import (
	"context"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-adr/medistream/internal/credential"
	"github.com/devel-adr/medistream/internal/events"
	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/notify"
	"github.com/devel-adr/medistream/internal/store"
	appsync "github.com/devel-adr/medistream/internal/sync"
	"github.com/devel-adr/medistream/internal/ui/command"
	"github.com/devel-adr/medistream/internal/ui/dataset"
	"github.com/devel-adr/medistream/internal/ui/recordform"
	settingsview "github.com/devel-adr/medistream/internal/ui/settings"
	"github.com/devel-adr/medistream/tests/testutil"
)

type fakeTone struct {
	played []string
	busy   bool
}

func (f *fakeTone) Play(name string, volume float64) bool {
	if f.busy {
		return false
	}
	f.played = append(f.played, name)
	return true
}

type memSecrets map[string]string

func (s memSecrets) Get(key string) (string, error) {
	v, ok := s[key]
	if !ok {
		return "", credential.ErrNotFound
	}
	return v, nil
}

func (s memSecrets) Set(key, value string) error { s[key] = value; return nil }
func (s memSecrets) Delete(key string) error     { delete(s, key); return nil }

type harness struct {
	store *store.SQLiteStore
	tone  *fakeTone
	model Model
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	ctx := context.Background()

	s := testutil.NewTestStore(t)
	bus := events.New(nil)
	p := appsync.New(bus, nil)
	RegisterDatasets(p, s, model.PollConfig{
		Medications: time.Minute, UnmetNeeds: time.Minute, Tactics: time.Minute,
	})

	settings, err := notify.LoadSettings(ctx, s, nil)
	require.NoError(t, err)

	tone := &fakeTone{}
	n := notify.New(nil, notify.WithHistory(s), notify.WithSettings(settings))

	m := New(Deps{
		Datasets: s,
		Prefs:    s,
		Poller:   p,
		Notifier: n,
		Settings: settings,
		Tone:     tone,
		Secrets:  memSecrets{},
	})
	h := &harness{store: s, tone: tone, model: m}
	h.send(t, tea.WindowSizeMsg{Width: 140, Height: 40})
	return h
}

// send delivers msg and returns the follow-up command.
func (h *harness) send(t *testing.T, msg tea.Msg) tea.Cmd {
	t.Helper()
	next, cmd := h.model.Update(msg)
	m, ok := next.(Model)
	require.True(t, ok)
	h.model = m
	return cmd
}

func key(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestViewFrame(t *testing.T) {
	h := newHarness(t)

	view := h.model.View()
	assert.Contains(t, view, "Medistream")
	assert.Contains(t, view, "DrugDealer")
	assert.Contains(t, view, "Notifications")
	assert.Contains(t, view, "Workflows")
}

func TestSyncResultRoutesToDatasetView(t *testing.T) {
	h := newHarness(t)

	h.send(t, appsync.SyncResultMsg{
		Kind: model.KindUnmetNeeds,
		Snapshot: model.DatasetSnapshot{
			Kind:      model.KindUnmetNeeds,
			Records:   []model.Record{model.UnmetNeed{ID: 2, Lab: "Pfizer"}, model.UnmetNeed{ID: 1, Lab: "Roche"}},
			FetchedAt: time.Now(),
		},
	})

	assert.Len(t, h.model.datasets[PanelUnmetNeeds].Visible(), 2)
	assert.Empty(t, h.model.datasets[PanelMedications].Visible())
}

func TestTabCyclesPanelsAndMarksNotificationsRead(t *testing.T) {
	h := newHarness(t)

	h.send(t, notify.NotificationMsg{Record: model.NotificationRecord{ID: "x", Kind: model.KindTactics}})
	assert.Equal(t, 1, h.model.notifyView.Unread())
	assert.Contains(t, h.model.View(), "1 new")

	for i := 0; i < int(PanelNotifications); i++ {
		h.send(t, tea.KeyMsg{Type: tea.KeyTab})
	}
	assert.Equal(t, PanelNotifications, h.model.activePanel)
	assert.Zero(t, h.model.notifyView.Unread())

	h.send(t, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, PanelTactics, h.model.activePanel)

	h.send(t, tea.KeyMsg{Type: tea.KeyShiftTab})
	h.send(t, tea.KeyMsg{Type: tea.KeyShiftTab})
	h.send(t, tea.KeyMsg{Type: tea.KeyShiftTab})
	assert.Equal(t, PanelConnections, h.model.activePanel)
}

func TestConnectionsPanelCapturesKeysWhileEditing(t *testing.T) {
	h := newHarness(t)

	h.send(t, tea.KeyMsg{Type: tea.KeyShiftTab})
	require.Equal(t, PanelConnections, h.model.activePanel)
	assert.Contains(t, h.model.View(), "Backend DSN")

	h.send(t, key("e"))
	require.True(t, h.model.connView.Editing())
	assert.True(t, h.model.capturingInput())

	// q is typed into the form instead of quitting.
	h.send(t, key("q"))
	assert.True(t, h.model.connView.Editing())
	assert.Equal(t, PanelConnections, h.model.activePanel)
}

func TestSearchCapturesGlobalKeys(t *testing.T) {
	h := newHarness(t)

	h.send(t, key("/"))
	h.send(t, key("q"))
	h.send(t, key("?"))
	assert.Equal(t, "q?", h.model.datasets[PanelMedications].Criteria().Query)
	assert.Equal(t, ViewPanels, h.model.currentView)

	h.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, h.model.datasets[PanelMedications].Searching())
	cmd := h.send(t, key("q"))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.QuitMsg{}, cmd())
}

func TestHelpToggle(t *testing.T) {
	h := newHarness(t)

	h.send(t, key("?"))
	assert.Equal(t, ViewHelp, h.model.currentView)
	assert.Contains(t, h.model.View(), "Keyboard Shortcuts")

	h.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, ViewPanels, h.model.currentView)
}

func TestFormLifecycle(t *testing.T) {
	h := newHarness(t)

	h.send(t, dataset.EditRequestMsg{Kind: model.KindMedications})
	assert.Equal(t, ViewForm, h.model.currentView)
	assert.Equal(t, recordform.ModeCreate, h.model.formView.Mode())

	h.send(t, recordform.CancelMsg{})
	assert.Equal(t, ViewPanels, h.model.currentView)
}

func TestSaveAndDeleteRecord(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	cmd := h.send(t, recordform.SubmitMsg{Record: model.Medication{Lab: "Roche", Drug: "Tecentriq"}})
	require.NotNil(t, cmd)
	saved, ok := cmd().(recordSavedMsg)
	require.True(t, ok)
	require.NoError(t, saved.err)

	meds, err := h.store.ListMedications(ctx)
	require.NoError(t, err)
	require.Len(t, meds, 1)

	h.send(t, saved)
	assert.Contains(t, h.model.keyHints(), "row saved")

	require.NoError(t, h.store.SetFavorite(ctx, model.KindMedications, meds[0].ID, true))

	cmd = h.send(t, recordform.DeleteConfirmedMsg{Record: meds[0]})
	require.NotNil(t, cmd)
	deleted, ok := cmd().(recordDeletedMsg)
	require.True(t, ok)
	require.NoError(t, deleted.err)

	meds, err = h.store.ListMedications(ctx)
	require.NoError(t, err)
	assert.Empty(t, meds)

	favs, err := h.store.GetFavorites(ctx, model.KindMedications)
	require.NoError(t, err)
	assert.Empty(t, favs)
}

func TestSaveRecordErrorShowsInStatusBar(t *testing.T) {
	h := newHarness(t)

	cmd := h.send(t, recordform.SubmitMsg{Record: model.Medication{ID: 99, Lab: "Roche"}})
	require.NotNil(t, cmd)
	msg := cmd()
	h.send(t, msg)

	assert.ErrorIs(t, msg.(recordSavedMsg).err, store.ErrNotFound)
	assert.Contains(t, h.model.keyHints(), "not saved")
}

func TestSettingsSaveAndTestTone(t *testing.T) {
	h := newHarness(t)

	cmd := h.send(t, settingsview.SaveMsg{Settings: model.NotificationSettings{
		Enabled: true, Volume: 0, Tone: model.ToneChime,
	}})
	require.NotNil(t, cmd)
	saved, ok := cmd().(settingsSavedMsg)
	require.True(t, ok)
	require.NoError(t, saved.err)

	// A zero volume always wins over enabled.
	assert.False(t, saved.settings.Enabled)
	assert.Equal(t, model.ToneChime, saved.settings.Tone)

	h.send(t, saved)
	assert.Equal(t, model.ToneChime, h.model.deps.Settings.Current().Tone)

	h.send(t, settingsview.TestToneMsg{Tone: model.ToneChime, Volume: 0.5})
	assert.Equal(t, []string{model.ToneChime}, h.tone.played)

	h.tone.busy = true
	h.send(t, settingsview.TestToneMsg{Tone: model.ToneChime, Volume: 0.5})
	assert.Len(t, h.tone.played, 1)
}

func TestClearNotifications(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	require.NoError(t, h.store.SaveNotification(ctx, model.NotificationRecord{
		ID: "a", Kind: model.KindMedications, Title: "New medications", Message: "1 new medication added to DrugDealer",
		CreatedAt: time.Now(), Count: 5, Delta: 1,
	}))
	require.NoError(t, h.model.deps.Notifier.LoadHistory(ctx))

	cmd := h.model.clearNotifications()
	h.send(t, cmd())

	recs, err := h.store.RecentNotifications(ctx, 0)
	require.NoError(t, err)
	assert.Empty(t, recs)
	assert.Empty(t, h.model.deps.Notifier.Records())
}

func TestSyncStatusSummary(t *testing.T) {
	h := newHarness(t)
	assert.Equal(t, "live", h.model.syncStatus())
}

func TestDetailShowsRelatedRows(t *testing.T) {
	h := newHarness(t)
	needID := int64(7)

	h.send(t, appsync.SyncResultMsg{
		Kind: model.KindUnmetNeeds,
		Snapshot: model.DatasetSnapshot{
			Kind:      model.KindUnmetNeeds,
			Records:   []model.Record{model.UnmetNeed{ID: needID, Lab: "Roche", Need: "Earlier diagnosis"}},
			FetchedAt: time.Now(),
		},
	})
	tactic := model.PharmaTactic{ID: 1, UnmetNeedID: &needID, Lab: "Roche", Tactic: "Screening program"}
	h.send(t, appsync.SyncResultMsg{
		Kind: model.KindTactics,
		Snapshot: model.DatasetSnapshot{
			Kind:      model.KindTactics,
			Records:   []model.Record{tactic},
			FetchedAt: time.Now(),
		},
	})

	h.send(t, dataset.DetailRequestMsg{Record: tactic})
	assert.Equal(t, ViewDetail, h.model.currentView)
	view := h.model.View()
	assert.Contains(t, view, "Related (1)")
	assert.Contains(t, view, "Earlier diagnosis")

	cmd := h.send(t, tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	h.send(t, cmd())
	assert.Equal(t, ViewPanels, h.model.currentView)
}

func TestCommandPalettePanelsMatchTabs(t *testing.T) {
	assert.Len(t, command.Panels, int(panelCount))
}

func TestCommandPalette(t *testing.T) {
	h := newHarness(t)

	h.send(t, key(":"))
	require.Equal(t, ViewCommand, h.model.currentView)
	assert.True(t, h.model.capturingInput())

	h.send(t, command.CommandMsg{Command: command.Command{Verb: command.VerbGoto, Panel: int(PanelWorkflows)}})
	assert.Equal(t, ViewPanels, h.model.currentView)
	assert.Equal(t, PanelWorkflows, h.model.activePanel)

	cmd := h.send(t, command.CommandMsg{Command: command.Command{Verb: command.VerbVolume, Volume: 0.3}})
	require.NotNil(t, cmd)
	assert.Equal(t, "volume 30%", h.model.keyHints())
	h.send(t, cmd())
	assert.InDelta(t, 0.3, h.model.deps.Settings.Current().Volume, 1e-9)

	cmd = h.send(t, command.CommandMsg{Command: command.Command{Verb: command.VerbMute}})
	h.send(t, cmd())
	assert.False(t, h.model.deps.Settings.Current().Enabled)

	h.send(t, key(":"))
	h.send(t, command.CancelMsg{})
	assert.Equal(t, ViewPanels, h.model.currentView)
}

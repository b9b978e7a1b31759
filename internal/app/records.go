package app

import (
	"context"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/store"
)

// writeTimeout bounds every write issued from the UI.
const writeTimeout = 15 * time.Second

// recordSavedMsg is sent after a row is inserted or updated.
type recordSavedMsg struct {
	kind model.DatasetKind
	err  error
}

// recordDeletedMsg is sent after a row is deleted.
type recordDeletedMsg struct {
	kind model.DatasetKind
	err  error
}

// notificationsClearedMsg is sent after the history was emptied.
type notificationsClearedMsg struct{ err error }

// settingsSavedMsg carries the settings in effect after a save attempt.
type settingsSavedMsg struct {
	settings model.NotificationSettings
	err      error
}

// saveRecord inserts or updates rec in the dataset store.
func (m *Model) saveRecord(rec model.Record) tea.Cmd {
	ds, log := m.deps.Datasets, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		saved, err := store.SaveRecord(ctx, ds, rec)
		if err != nil {
			log.Warn("saving record failed", zap.String("kind", string(rec.Kind())), zap.Error(err))
			return recordSavedMsg{kind: rec.Kind(), err: err}
		}
		log.Info("record saved",
			zap.String("kind", string(saved.Kind())),
			zap.Int64("id", saved.RecordID()),
		)
		return recordSavedMsg{kind: saved.Kind()}
	}
}

// deleteRecord removes rec and its favourite mark.
func (m *Model) deleteRecord(rec model.Record) tea.Cmd {
	ds, prefs, log := m.deps.Datasets, m.deps.Prefs, m.log
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
		defer cancel()

		kind, id := rec.Kind(), rec.RecordID()
		if err := store.DeleteRecord(ctx, ds, kind, id); err != nil {
			log.Warn("deleting record failed", zap.String("kind", string(kind)), zap.Int64("id", id), zap.Error(err))
			return recordDeletedMsg{kind: kind, err: err}
		}
		if err := prefs.SetFavorite(ctx, kind, id, false); err != nil {
			log.Debug("clearing favourite of deleted record", zap.Error(err))
		}
		log.Info("record deleted", zap.String("kind", string(kind)), zap.Int64("id", id))
		return recordDeletedMsg{kind: kind}
	}
}

// afterWrite reports a write in the status bar and re-polls the dataset
// so the table reflects it without waiting for the next tick.
func (m *Model) afterWrite(kind model.DatasetKind, err error, verb string) tea.Cmd {
	if err != nil {
		m.flash = kind.Label() + ": not " + verb + ": " + err.Error()
		return nil
	}
	m.flash = kind.Label() + ": row " + verb
	return m.deps.Poller.Refresh(kind)
}

// clearNotifications empties the list and the persisted history.
func (m *Model) clearNotifications() tea.Cmd {
	n := m.deps.Notifier
	return func() tea.Msg {
		if n == nil {
			return notificationsClearedMsg{}
		}
		return notificationsClearedMsg{err: n.Clear(context.Background())}
	}
}

// saveSettings applies and persists next.
func (m *Model) saveSettings(next model.NotificationSettings) tea.Cmd {
	sm := m.deps.Settings
	return func() tea.Msg {
		if sm == nil {
			return settingsSavedMsg{settings: next}
		}
		err := sm.Replace(context.Background(), next)
		return settingsSavedMsg{settings: sm.Current(), err: err}
	}
}

// playTestTone plays a tone regardless of the enabled setting and
// returns the line to show under the settings.
func (m *Model) playTestTone(name string, volume float64) string {
	if m.deps.Tone == nil {
		return "no audio output available"
	}
	if !m.deps.Tone.Play(name, volume) {
		return "a tone is already playing, try again in a few seconds"
	}
	return "playing " + name
}

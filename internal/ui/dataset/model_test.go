package dataset

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-adr/medistream/internal/keys"
	"github.com/devel-adr/medistream/internal/model"
	appsync "github.com/devel-adr/medistream/internal/sync"
	"github.com/devel-adr/medistream/tests/testutil"
)

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func snapshot() model.DatasetSnapshot {
	return model.DatasetSnapshot{
		Kind: model.KindMedications,
		Records: []model.Record{
			model.Medication{ID: 4, Lab: "Roche", Drug: "Tecentriq", TherapeuticArea: "Oncology"},
			model.Medication{ID: 3, Lab: "Pfizer", Drug: "Paxlovid", TherapeuticArea: "Infectious"},
			model.Medication{ID: 2, Lab: "Pfizer", Drug: "Ibrance", TherapeuticArea: "Oncology"},
			model.Medication{ID: 1, Lab: "Novartis", Drug: "Kisqali", TherapeuticArea: "Oncology"},
		},
	}
}

func newTestModel(t *testing.T) Model {
	t.Helper()
	m := New(model.KindMedications, testutil.NewTestStore(t), keys.DefaultKeyMap(), 120, 30)
	m.SetSnapshot(snapshot())
	return m
}

func visibleIDs(m Model) []int64 {
	var out []int64
	for _, r := range m.Visible() {
		out = append(out, r.RecordID())
	}
	return out
}

func TestSetSnapshotShowsNewestFirst(t *testing.T) {
	m := newTestModel(t)
	assert.Equal(t, []int64{4, 3, 2, 1}, visibleIDs(m))

	rec, ok := m.SelectedRecord()
	require.True(t, ok)
	assert.Equal(t, int64(4), rec.RecordID())
}

func TestSearchFiltersOnEveryKeystroke(t *testing.T) {
	m := newTestModel(t)

	m, _ = m.Update(runes("/"))
	require.True(t, m.Searching())

	for _, r := range "ibr" {
		m, _ = m.Update(runes(string(r)))
	}
	assert.Equal(t, []int64{2}, visibleIDs(m))

	m, _ = m.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.False(t, m.Searching())
	assert.Equal(t, "", m.Criteria().Query)
	assert.Len(t, m.Visible(), 4)
}

func TestFilterCascade(t *testing.T) {
	m := newTestModel(t)

	// Laboratories are offered alphabetically: Novartis, Pfizer, Roche.
	m, _ = m.Update(runes("1"))
	m, _ = m.Update(runes("1"))
	assert.Equal(t, "Pfizer", m.Criteria().Laboratory)
	assert.Equal(t, []int64{3, 2}, visibleIDs(m))

	m, _ = m.Update(runes("2"))
	assert.Equal(t, "Ibrance", m.Criteria().DrugName)
	assert.Equal(t, []int64{2}, visibleIDs(m))

	// Moving to Roche drops the Pfizer drug selection.
	m, _ = m.Update(runes("1"))
	assert.Equal(t, "Roche", m.Criteria().Laboratory)
	assert.Empty(t, m.Criteria().DrugName)
	assert.Equal(t, []int64{4}, visibleIDs(m))

	m, _ = m.Update(runes("0"))
	assert.False(t, m.Criteria().Active())
	assert.Len(t, m.Visible(), 4)
}

func TestSortToggleCyclesAscDescOff(t *testing.T) {
	m := newTestModel(t)

	m, _ = m.Update(runes("s"))
	assert.Equal(t, model.ColumnID, m.SortSpec().Column)
	assert.Equal(t, []int64{1, 2, 3, 4}, visibleIDs(m))

	m, _ = m.Update(runes("s"))
	assert.True(t, m.SortSpec().Desc)
	assert.Equal(t, []int64{4, 3, 2, 1}, visibleIDs(m))

	m, _ = m.Update(runes("s"))
	assert.Empty(t, m.SortSpec().Column)

	// Next column is the laboratory.
	m, _ = m.Update(runes("]"))
	m, _ = m.Update(runes("s"))
	assert.Equal(t, model.ColumnLaboratory, m.SortSpec().Column)
	assert.Equal(t, []int64{1, 3, 2, 4}, visibleIDs(m))
}

func TestFavoriteTogglePersistsAndFilters(t *testing.T) {
	s := testutil.NewTestStore(t)
	m := New(model.KindMedications, s, keys.DefaultKeyMap(), 120, 30)
	m.SetSnapshot(snapshot())

	m, cmd := m.Update(runes("f"))
	require.NotNil(t, cmd)
	saved, ok := cmd().(FavoriteSavedMsg)
	require.True(t, ok)
	require.NoError(t, saved.Err)
	assert.True(t, saved.Favorite)

	favs, err := s.GetFavorites(context.Background(), model.KindMedications)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{4: true}, favs)

	m, _ = m.Update(runes("F"))
	assert.Equal(t, []int64{4}, visibleIDs(m))

	// A fresh view restores the favourites from the store.
	fresh := New(model.KindMedications, s, keys.DefaultKeyMap(), 120, 30)
	fresh.SetSnapshot(snapshot())
	fresh, _ = fresh.Update(fresh.Init()())
	fresh, _ = fresh.Update(runes("F"))
	assert.Equal(t, []int64{4}, visibleIDs(fresh))
}

func TestFavoriteSaveFailureReverts(t *testing.T) {
	m := newTestModel(t)

	m, _ = m.Update(runes("f"))
	m, _ = m.Update(FavoriteSavedMsg{
		Kind: model.KindMedications, ID: 4, Favorite: true, Err: errors.New("disk full"),
	})

	m, _ = m.Update(runes("F"))
	assert.Empty(t, m.Visible())
	assert.Contains(t, m.View(), "disk full")
}

func TestActionKeysEmitRequests(t *testing.T) {
	m := newTestModel(t)

	_, cmd := m.Update(runes("r"))
	require.NotNil(t, cmd)
	assert.Equal(t, RefreshRequestMsg{Kind: model.KindMedications}, cmd())

	_, cmd = m.Update(runes("n"))
	require.NotNil(t, cmd)
	assert.Equal(t, EditRequestMsg{Kind: model.KindMedications}, cmd())

	_, cmd = m.Update(runes("e"))
	require.NotNil(t, cmd)
	edit, ok := cmd().(EditRequestMsg)
	require.True(t, ok)
	assert.Equal(t, int64(4), edit.Record.RecordID())

	_, cmd = m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	detail, ok := cmd().(DetailRequestMsg)
	require.True(t, ok)
	assert.Equal(t, int64(4), detail.Record.RecordID())

	_, cmd = m.Update(runes("d"))
	require.NotNil(t, cmd)
	del, ok := cmd().(DeleteRequestMsg)
	require.True(t, ok)
	assert.Equal(t, int64(4), del.Record.RecordID())
}

func TestStaleIndicator(t *testing.T) {
	m := newTestModel(t)
	m.SetStatus(appsync.SyncStatus{
		Kind:  model.KindMedications,
		State: appsync.SyncError,
		Error: errors.New("fetching DrugDealer: connection refused"),
	})

	view := m.View()
	assert.Contains(t, view, "stale")
	assert.Contains(t, view, "connection refused")
}

func TestNextOption(t *testing.T) {
	opts := []string{"a", "b"}
	assert.Equal(t, "a", nextOption(opts, ""))
	assert.Equal(t, "b", nextOption(opts, "A"))
	assert.Equal(t, "", nextOption(opts, "b"))
	assert.Equal(t, "a", nextOption(opts, "gone"))
	assert.Equal(t, "", nextOption(nil, "a"))
}

func TestRelativeTime(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	assert.Equal(t, "", relativeTime(time.Time{}, now))
	assert.Equal(t, "just now", relativeTime(now.Add(-10*time.Second), now))
	assert.Equal(t, "5m ago", relativeTime(now.Add(-5*time.Minute), now))
	assert.Equal(t, "2h ago", relativeTime(now.Add(-2*time.Hour), now))
	assert.Equal(t, "3d ago", relativeTime(now.Add(-72*time.Hour), now))
}

package notifications

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-adr/medistream/internal/keys"
	"github.com/devel-adr/medistream/internal/model"
)

func record(id string, kind model.DatasetKind, at time.Time) model.NotificationRecord {
	return model.NotificationRecord{
		ID:        id,
		Kind:      kind,
		Title:     "New unmet needs",
		Message:   "2 new unmet need analyses available",
		Details:   model.NotificationDetails{Laboratory: "Pfizer", DrugName: "Ibrance", UserEmail: "unknown user"},
		CreatedAt: at,
		Count:     14,
		Delta:     2,
	}
}

func TestUnreadBadgeCounter(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)

	m.Push(model.NotificationRecord{})
	m.Push(model.NotificationRecord{})
	assert.Equal(t, 2, m.Unread())

	m.MarkRead()
	assert.Zero(t, m.Unread())
}

func TestViewListsRecords(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := New(keys.DefaultKeyMap(), 100, 20)
	m.now = func() time.Time { return now }
	m.SetRecords([]model.NotificationRecord{
		record("a", model.KindUnmetNeeds, now.Add(-2*time.Minute)),
	})

	view := m.View()
	assert.Contains(t, view, "Notifications (1/20)")
	assert.Contains(t, view, "2 new unmet need analyses available")
	assert.Contains(t, view, "lab: Pfizer")
	assert.Contains(t, view, "2m ago")
}

func TestEmptyView(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	assert.Contains(t, m.View(), "No notifications yet")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	assert.Nil(t, cmd)
}

func TestClearRequest(t *testing.T) {
	m := New(keys.DefaultKeyMap(), 80, 20)
	m.SetRecords([]model.NotificationRecord{record("a", model.KindTactics, time.Now())})

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("c")})
	require.NotNil(t, cmd)
	assert.Equal(t, ClearRequestMsg{}, cmd())
}

func TestCursorScrolls(t *testing.T) {
	now := time.Now()
	var recs []model.NotificationRecord
	for i := 0; i < 10; i++ {
		recs = append(recs, record(string(rune('a'+i)), model.KindMedications, now))
	}

	// Height 8 fits three two-line entries.
	m := New(keys.DefaultKeyMap(), 80, 8)
	m.SetRecords(recs)

	down := tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("j")}
	for i := 0; i < 5; i++ {
		m, _ = m.Update(down)
	}
	assert.Equal(t, 5, m.cursor)
	assert.Equal(t, 3, m.offset)

	m.SetRecords(recs[:2])
	assert.Equal(t, 1, m.cursor)
	assert.Equal(t, 1, m.offset)
}

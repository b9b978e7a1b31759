package workflows

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-adr/medistream/internal/keys"
	"github.com/devel-adr/medistream/internal/workflow"
)

func ptr(t time.Time) *time.Time { return &t }

func TestViewShowsLatestStatusAndError(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m := New(keys.DefaultKeyMap(), true, 100, 30)
	m.now = func() time.Time { return now }

	m.SetSnapshots([]workflow.Snapshot{
		{
			WorkflowID: "42",
			Name:       "Ingest DrugDealer",
			UpdatedAt:  now,
			Executions: []workflow.ClassifiedExecution{
				{
					Execution: workflow.Execution{
						ID: "900", Mode: "trigger",
						StartedAt: ptr(now.Add(-90 * time.Second)),
						StoppedAt: ptr(now.Add(-30 * time.Second)),
						Finished:  true,
					},
					Status: workflow.StatusSuccess,
				},
			},
		},
		{WorkflowID: "43", Error: "relay unreachable"},
	})

	view := m.View()
	assert.Contains(t, view, "Ingest DrugDealer")
	assert.Contains(t, view, "success")
	assert.Contains(t, view, "1m0s")
	assert.Contains(t, view, "workflow 43")
	assert.Contains(t, view, "relay unreachable")
}

func TestDisabledPanel(t *testing.T) {
	m := New(keys.DefaultKeyMap(), false, 100, 30)
	assert.Contains(t, m.View(), "No workflows configured")

	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	assert.Nil(t, cmd)
}

func TestRefreshKey(t *testing.T) {
	m := New(keys.DefaultKeyMap(), true, 100, 30)
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("r")})
	require.NotNil(t, cmd)
	assert.Equal(t, RefreshRequestMsg{}, cmd())
}

func TestDuration(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	running := workflow.ClassifiedExecution{Execution: workflow.Execution{StartedAt: ptr(now.Add(-5 * time.Second))}}
	assert.Equal(t, "5s", duration(running, now))
	assert.Equal(t, "", duration(workflow.ClassifiedExecution{}, now))
}

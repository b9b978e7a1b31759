package recordform

import (
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/devel-adr/medistream/internal/model"
)

func TestEditRoundTripKeepsKeyAndCreatedAt(t *testing.T) {
	created := time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC)
	due := time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)
	need := int64(7)

	tests := []struct {
		name string
		rec  model.Record
	}{
		{
			name: "medication",
			rec: model.Medication{
				ID: 3, Lab: "Roche", Drug: "Tecentriq", ActiveIngredient: "atezolizumab",
				TherapeuticArea: "Oncology", Indication: "NSCLC", Phase: model.PhaseApproved,
				Nation: "CH", Status: "marketed", Notes: "first line", CreatedAt: created,
			},
		},
		{
			name: "unmet need",
			rec: model.UnmetNeed{
				ID: 5, Lab: "Pfizer", Drug: "Ibrance", TherapeuticArea: "Oncology",
				Need: "resistance", Population: "HR+ breast", Evidence: "trial", Score: 8,
				CreatedAt: created,
			},
		},
		{
			name: "tactic",
			rec: model.PharmaTactic{
				ID: 9, UnmetNeedID: &need, Lab: "Pfizer", Drug: "Ibrance", Tactic: "KOL meeting",
				Owner: "ana", Status: model.TacticStatusInProgress, DueDate: &due, CreatedAt: created,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fb := &formBindings{}
			fb.load(tt.rec)

			got, err := fb.record(tt.rec.Kind(), tt.rec)
			require.NoError(t, err)
			assert.Equal(t, tt.rec, got)
		})
	}
}

func TestCreateProducesZeroID(t *testing.T) {
	fb := &formBindings{lab: " Novartis ", drug: "Kisqali", score: "4"}

	got, err := fb.record(model.KindUnmetNeeds, nil)
	require.NoError(t, err)

	need, ok := got.(model.UnmetNeed)
	require.True(t, ok)
	assert.Zero(t, need.ID)
	assert.Equal(t, "Novartis", need.Lab)
	assert.Equal(t, 4, need.Score)
}

func TestRecordRejectsBadInput(t *testing.T) {
	_, err := (&formBindings{lab: "x", score: "11"}).record(model.KindUnmetNeeds, nil)
	assert.Error(t, err)

	_, err = (&formBindings{tactic: "x", dueDate: "30/06/2024"}).record(model.KindTactics, nil)
	assert.Error(t, err)

	_, err = (&formBindings{tactic: "x", unmetNeedRef: "abc"}).record(model.KindTactics, nil)
	assert.Error(t, err)
}

func TestValidators(t *testing.T) {
	assert.NoError(t, validateScore(""))
	assert.NoError(t, validateScore("10"))
	assert.Error(t, validateScore("-1"))
	assert.Error(t, validateScore("7.5"))

	assert.NoError(t, validateOptionalDate(""))
	assert.NoError(t, validateOptionalDate("2024-12-31"))
	assert.Error(t, validateOptionalDate("tomorrow"))

	assert.NoError(t, validateOptionalID(" "))
	assert.Error(t, validateOptionalID("0"))

	assert.Error(t, validateRequired("Tactic")("  "))

	fb := &formBindings{}
	check := requireLabel(fb)
	assert.Error(t, check(""))
	assert.NoError(t, check("Ibrance"))
	fb.lab = "Pfizer"
	assert.NoError(t, check(""))
}

func TestStartModes(t *testing.T) {
	m := New(100, 40)
	assert.Equal(t, ModeIdle, m.Mode())
	assert.Empty(t, m.View())

	m.StartCreate(model.KindTactics)
	assert.Equal(t, ModeCreate, m.Mode())
	assert.Equal(t, model.TacticStatusPlanned, m.fb.status)
	assert.Contains(t, m.View(), "New Pharma Tactics row")

	rec := model.Medication{ID: 3, Lab: "Roche", Drug: "Tecentriq"}
	m.StartEdit(rec)
	assert.Equal(t, ModeEdit, m.Mode())
	assert.Equal(t, "Roche", m.fb.lab)

	m.StartDelete(rec)
	assert.Equal(t, ModeDelete, m.Mode())
	assert.Contains(t, m.View(), "Delete row")
}

func TestDeleteConfirmation(t *testing.T) {
	rec := model.Medication{ID: 3, Lab: "Roche"}

	m := New(100, 40)
	m.StartDelete(rec)
	m.fb.confirm = true
	m, cmd := m.finish()
	require.NotNil(t, cmd)
	assert.Equal(t, DeleteConfirmedMsg{Record: rec}, cmd())
	assert.Equal(t, ModeIdle, m.Mode())

	m.StartDelete(rec)
	m, cmd = m.finish()
	require.NotNil(t, cmd)
	assert.Equal(t, CancelMsg{}, cmd())
}

func TestAbortCancels(t *testing.T) {
	m := New(100, 40)
	m.StartCreate(model.KindMedications)

	m, cmd := m.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.Equal(t, ModeIdle, m.Mode())
	assert.Equal(t, CancelMsg{}, cmd())
}

func TestDescribe(t *testing.T) {
	assert.Equal(t, "DrugDealer #3 Roche Tecentriq",
		describe(model.Medication{ID: 3, Lab: "Roche", Drug: "Tecentriq"}))
	assert.Equal(t, "Pharma Tactics #2 KOL meeting",
		describe(model.PharmaTactic{ID: 2, Tactic: "KOL meeting"}))
}

package model

import (
	"strconv"
	"time"
)

// Development phase values used by the DrugDealer dataset.
const (
	PhasePreclinical = "preclinical"
	PhaseI           = "phase_1"
	PhaseII          = "phase_2"
	PhaseIII         = "phase_3"
	PhaseApproved    = "approved"
)

// Medication is one row of the DrugDealer dataset.
type Medication struct {
	ID               int64     `json:"id_drugdealer" db:"id_drugdealer"`
	Lab              string    `json:"laboratory" db:"laboratory"`
	Drug             string    `json:"drug_name" db:"drug_name"`
	ActiveIngredient string    `json:"active_ingredient" db:"active_ingredient"`
	TherapeuticArea  string    `json:"therapeutic_area" db:"therapeutic_area"`
	Indication       string    `json:"indication" db:"indication"`
	Phase            string    `json:"phase" db:"phase"`
	Nation           string    `json:"nation" db:"nation"`
	Status           string    `json:"status" db:"status"`
	Notes            string    `json:"notes" db:"notes"`
	CreatedAt        time.Time `json:"created_at" db:"created_at"`
}

var medicationColumns = []Column{
	{Key: ColumnID, Title: "ID"},
	{Key: ColumnLaboratory, Title: "Laboratory"},
	{Key: ColumnDrugName, Title: "Drug"},
	{Key: "active_ingredient", Title: "Active ingredient"},
	{Key: ColumnTherapeuticArea, Title: "Therapeutic area"},
	{Key: "indication", Title: "Indication"},
	{Key: "phase", Title: "Phase"},
	{Key: "nation", Title: "Nation"},
	{Key: "status", Title: "Status"},
	{Key: ColumnCreatedAt, Title: "Created"},
}

func (m Medication) RecordID() int64 { return m.ID }
func (m Medication) Kind() DatasetKind { return KindMedications }
func (m Medication) Laboratory() string { return m.Lab }
func (m Medication) DrugName() string { return m.Drug }
func (m Medication) Columns() []Column { return medicationColumns }

// Field returns the string value of the named column.
func (m Medication) Field(key string) string {
	switch key {
	case ColumnID:
		return strconv.FormatInt(m.ID, 10)
	case ColumnLaboratory:
		return m.Lab
	case ColumnDrugName:
		return m.Drug
	case "active_ingredient":
		return m.ActiveIngredient
	case ColumnTherapeuticArea:
		return m.TherapeuticArea
	case "indication":
		return m.Indication
	case "phase":
		return m.Phase
	case "nation":
		return m.Nation
	case "status":
		return m.Status
	case "notes":
		return m.Notes
	case ColumnCreatedAt:
		return formatTime(m.CreatedAt)
	}
	return ""
}

// formatTime renders a timestamp so that lexical order matches time order.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

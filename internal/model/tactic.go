package model

import (
	"strconv"
	"time"
)

// Tactic status constants.
const (
	TacticStatusPlanned    = "planned"
	TacticStatusInProgress = "in_progress"
	TacticStatusDone       = "done"
)

// PharmaTactic is a follow-up action derived from an unmet need.
type PharmaTactic struct {
	ID          int64      `json:"id_tactic" db:"id_tactic"`
	UnmetNeedID *int64     `json:"id_unmet_need,omitempty" db:"id_unmet_need"`
	Lab         string     `json:"laboratory" db:"laboratory"`
	Drug        string     `json:"drug_name" db:"drug_name"`
	Tactic      string     `json:"tactic" db:"tactic"`
	Owner       string     `json:"owner" db:"owner"`
	Status      string     `json:"status" db:"status"`
	DueDate     *time.Time `json:"due_date,omitempty" db:"due_date"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

var tacticColumns = []Column{
	{Key: ColumnID, Title: "ID"},
	{Key: ColumnLaboratory, Title: "Laboratory"},
	{Key: ColumnDrugName, Title: "Drug"},
	{Key: "tactic", Title: "Tactic"},
	{Key: "owner", Title: "Owner"},
	{Key: "status", Title: "Status"},
	{Key: "due_date", Title: "Due"},
	{Key: ColumnCreatedAt, Title: "Created"},
}

func (p PharmaTactic) RecordID() int64 { return p.ID }
func (p PharmaTactic) Kind() DatasetKind { return KindTactics }
func (p PharmaTactic) Laboratory() string { return p.Lab }
func (p PharmaTactic) DrugName() string { return p.Drug }
func (p PharmaTactic) Columns() []Column { return tacticColumns }

// Field returns the string value of the named column.
func (p PharmaTactic) Field(key string) string {
	switch key {
	case ColumnID:
		return strconv.FormatInt(p.ID, 10)
	case ColumnLaboratory:
		return p.Lab
	case ColumnDrugName:
		return p.Drug
	case "tactic":
		return p.Tactic
	case "owner":
		return p.Owner
	case "status":
		return p.Status
	case "due_date":
		if p.DueDate == nil {
			return ""
		}
		return p.DueDate.Format("2006-01-02")
	case "id_unmet_need":
		if p.UnmetNeedID == nil {
			return ""
		}
		return strconv.FormatInt(*p.UnmetNeedID, 10)
	case ColumnCreatedAt:
		return formatTime(p.CreatedAt)
	}
	return ""
}

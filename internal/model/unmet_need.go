package model

import (
	"strconv"
	"time"
)

// UnmetNeed is one row of the Unmet Needs dataset: an analysis of a gap
// in current therapy for a given drug and laboratory.
type UnmetNeed struct {
	ID              int64     `json:"id_unmet_need" db:"id_unmet_need"`
	Lab             string    `json:"laboratory" db:"laboratory"`
	Drug            string    `json:"drug_name" db:"drug_name"`
	TherapeuticArea string    `json:"therapeutic_area" db:"therapeutic_area"`
	Need            string    `json:"unmet_need" db:"unmet_need"`
	Population      string    `json:"population" db:"population"`
	Evidence        string    `json:"evidence" db:"evidence"`
	Score           int       `json:"score" db:"score"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}

var unmetNeedColumns = []Column{
	{Key: ColumnID, Title: "ID"},
	{Key: ColumnLaboratory, Title: "Laboratory"},
	{Key: ColumnDrugName, Title: "Drug"},
	{Key: ColumnTherapeuticArea, Title: "Therapeutic area"},
	{Key: "unmet_need", Title: "Unmet need"},
	{Key: "population", Title: "Population"},
	{Key: "score", Title: "Score"},
	{Key: ColumnCreatedAt, Title: "Created"},
}

func (u UnmetNeed) RecordID() int64 { return u.ID }
func (u UnmetNeed) Kind() DatasetKind { return KindUnmetNeeds }
func (u UnmetNeed) Laboratory() string { return u.Lab }
func (u UnmetNeed) DrugName() string { return u.Drug }
func (u UnmetNeed) Columns() []Column { return unmetNeedColumns }

// Field returns the string value of the named column.
func (u UnmetNeed) Field(key string) string {
	switch key {
	case ColumnID:
		return strconv.FormatInt(u.ID, 10)
	case ColumnLaboratory:
		return u.Lab
	case ColumnDrugName:
		return u.Drug
	case ColumnTherapeuticArea:
		return u.TherapeuticArea
	case "unmet_need":
		return u.Need
	case "population":
		return u.Population
	case "evidence":
		return u.Evidence
	case "score":
		return strconv.Itoa(u.Score)
	case ColumnCreatedAt:
		return formatTime(u.CreatedAt)
	}
	return ""
}

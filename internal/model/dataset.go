package model

import "time"

// DatasetKind identifies one of the three backend datasets.
type DatasetKind string

const (
	KindMedications DatasetKind = "medications"
	KindUnmetNeeds  DatasetKind = "unmet_needs"
	KindTactics     DatasetKind = "tactics"
)

// Kinds returns every dataset kind in display order.
func Kinds() []DatasetKind {
	return []DatasetKind{KindMedications, KindUnmetNeeds, KindTactics}
}

// Valid reports whether k is one of the known dataset kinds.
func (k DatasetKind) Valid() bool {
	switch k {
	case KindMedications, KindUnmetNeeds, KindTactics:
		return true
	}
	return false
}

// Label returns the human-readable dataset name.
func (k DatasetKind) Label() string {
	switch k {
	case KindMedications:
		return "DrugDealer"
	case KindUnmetNeeds:
		return "Unmet Needs"
	case KindTactics:
		return "Pharma Tactics"
	default:
		return string(k)
	}
}

// Columns lists the columns of the kind's records in display order.
func (k DatasetKind) Columns() []Column {
	switch k {
	case KindMedications:
		return medicationColumns
	case KindUnmetNeeds:
		return unmetNeedColumns
	case KindTactics:
		return tacticColumns
	}
	return nil
}

// Column describes a displayable, sortable attribute of a record.
type Column struct {
	// Key is the stable identifier passed to Record.Field.
	Key string

	// Title is the header shown in the UI.
	Title string
}

// Common column keys shared by all datasets.
const (
	ColumnID              = "id"
	ColumnLaboratory      = "laboratory"
	ColumnDrugName        = "drug_name"
	ColumnTherapeuticArea = "therapeutic_area"
	ColumnCreatedAt       = "created_at"
)

// Record is the dataset-agnostic view of a row used by the pollers,
// the notification pipeline and the filter engine.
type Record interface {
	RecordID() int64
	Kind() DatasetKind
	Laboratory() string
	DrugName() string

	// Field returns the string value of the column with the given key,
	// or "" when the record has no such column.
	Field(key string) string

	// Columns lists the columns of the record's dataset in display order.
	Columns() []Column
}

// DatasetSnapshot is the full set of rows of one dataset as last fetched.
// It is replaced wholesale on every successful poll.
type DatasetSnapshot struct {
	Kind      DatasetKind
	Records   []Record
	FetchedAt time.Time
}

// Count returns the number of rows in the snapshot.
func (s DatasetSnapshot) Count() int {
	return len(s.Records)
}

// Latest returns the most recently created row, which is the first row
// because datasets are fetched newest-first.
func (s DatasetSnapshot) Latest() Record {
	if len(s.Records) == 0 {
		return nil
	}
	return s.Records[0]
}

// ChangeEvent is emitted by a poller when a dataset grew between two polls.
// Delta is always positive.
type ChangeEvent struct {
	Kind     DatasetKind
	NewCount int
	Delta    int
	Latest   Record
	At       time.Time
}

package store

import (
	"context"
	"fmt"

	"github.com/devel-adr/medistream/internal/model"
)

// ListRecords loads a whole dataset through ds and returns it as
// dataset-agnostic records, preserving the newest-first order.
func ListRecords(
	ctx context.Context,
	ds DatasetStore,
	kind model.DatasetKind,
) ([]model.Record, error) {
	switch kind {
	case model.KindMedications:
		rows, err := ds.ListMedications(ctx)
		return toRecords(rows), err
	case model.KindUnmetNeeds:
		rows, err := ds.ListUnmetNeeds(ctx)
		return toRecords(rows), err
	case model.KindTactics:
		rows, err := ds.ListTactics(ctx)
		return toRecords(rows), err
	default:
		return nil, fmt.Errorf("unknown dataset kind %q", kind)
	}
}

// DeleteRecord removes a row of any dataset by key.
func DeleteRecord(
	ctx context.Context,
	ds DatasetStore,
	kind model.DatasetKind,
	id int64,
) error {
	switch kind {
	case model.KindMedications:
		return ds.DeleteMedication(ctx, id)
	case model.KindUnmetNeeds:
		return ds.DeleteUnmetNeed(ctx, id)
	case model.KindTactics:
		return ds.DeleteTactic(ctx, id)
	default:
		return fmt.Errorf("unknown dataset kind %q", kind)
	}
}

// SaveRecord inserts r when its ID is zero and updates it otherwise.
// It returns the stored record, carrying the generated ID on insert.
func SaveRecord(
	ctx context.Context,
	ds DatasetStore,
	r model.Record,
) (model.Record, error) {
	switch v := r.(type) {
	case model.Medication:
		if v.ID == 0 {
			err := ds.CreateMedication(ctx, &v)
			return v, err
		}
		return v, ds.UpdateMedication(ctx, v)
	case model.UnmetNeed:
		if v.ID == 0 {
			err := ds.CreateUnmetNeed(ctx, &v)
			return v, err
		}
		return v, ds.UpdateUnmetNeed(ctx, v)
	case model.PharmaTactic:
		if v.ID == 0 {
			err := ds.CreateTactic(ctx, &v)
			return v, err
		}
		return v, ds.UpdateTactic(ctx, v)
	default:
		return nil, fmt.Errorf("unsupported record type %T", r)
	}
}

func toRecords[T model.Record](rows []T) []model.Record {
	if rows == nil {
		return nil
	}
	records := make([]model.Record, len(rows))
	for i, r := range rows {
		records[i] = r
	}
	return records
}

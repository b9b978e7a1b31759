package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/store"
)

var _ store.DatasetStore = (*DatasetRepo)(nil)

// DatasetRepo reads and writes the three hosted dataset tables.
type DatasetRepo struct {
	db *DB
}

// NewDatasetRepo creates a repository over db.
func NewDatasetRepo(db *DB) *DatasetRepo { return &DatasetRepo{db: db} }

const (
	qListMedications = `
SELECT id_drugdealer,
       COALESCE(laboratory, '')        AS laboratory,
       COALESCE(drug_name, '')         AS drug_name,
       COALESCE(active_ingredient, '') AS active_ingredient,
       COALESCE(therapeutic_area, '')  AS therapeutic_area,
       COALESCE(indication, '')        AS indication,
       COALESCE(phase, '')             AS phase,
       COALESCE(nation, '')            AS nation,
       COALESCE(status, '')            AS status,
       COALESCE(notes, '')             AS notes,
       created_at
FROM drug_dealer
ORDER BY id_drugdealer DESC;
`

	qInsertMedication = `
INSERT INTO drug_dealer (laboratory, drug_name, active_ingredient, therapeutic_area,
                         indication, phase, nation, status, notes)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id_drugdealer, created_at;
`

	qUpdateMedication = `
UPDATE drug_dealer
SET laboratory = $2, drug_name = $3, active_ingredient = $4, therapeutic_area = $5,
    indication = $6, phase = $7, nation = $8, status = $9, notes = $10
WHERE id_drugdealer = $1;
`

	qDeleteMedication = `DELETE FROM drug_dealer WHERE id_drugdealer = $1;`

	qListUnmetNeeds = `
SELECT id_unmet_need,
       COALESCE(laboratory, '')       AS laboratory,
       COALESCE(drug_name, '')        AS drug_name,
       COALESCE(therapeutic_area, '') AS therapeutic_area,
       COALESCE(unmet_need, '')       AS unmet_need,
       COALESCE(population, '')       AS population,
       COALESCE(evidence, '')         AS evidence,
       COALESCE(score, 0)             AS score,
       created_at
FROM unmet_needs
ORDER BY id_unmet_need DESC;
`

	qInsertUnmetNeed = `
INSERT INTO unmet_needs (laboratory, drug_name, therapeutic_area, unmet_need,
                         population, evidence, score)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id_unmet_need, created_at;
`

	qUpdateUnmetNeed = `
UPDATE unmet_needs
SET laboratory = $2, drug_name = $3, therapeutic_area = $4, unmet_need = $5,
    population = $6, evidence = $7, score = $8
WHERE id_unmet_need = $1;
`

	qDeleteUnmetNeed = `DELETE FROM unmet_needs WHERE id_unmet_need = $1;`

	qListTactics = `
SELECT id_tactic,
       id_unmet_need,
       COALESCE(laboratory, '') AS laboratory,
       COALESCE(drug_name, '')  AS drug_name,
       COALESCE(tactic, '')     AS tactic,
       COALESCE(owner, '')      AS owner,
       COALESCE(status, '')     AS status,
       due_date,
       created_at
FROM pharma_tactics
ORDER BY id_tactic DESC;
`

	qInsertTactic = `
INSERT INTO pharma_tactics (id_unmet_need, laboratory, drug_name, tactic, owner, status, due_date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id_tactic, created_at;
`

	qUpdateTactic = `
UPDATE pharma_tactics
SET id_unmet_need = $2, laboratory = $3, drug_name = $4, tactic = $5,
    owner = $6, status = $7, due_date = $8
WHERE id_tactic = $1;
`

	qDeleteTactic = `DELETE FROM pharma_tactics WHERE id_tactic = $1;`
)

func (r *DatasetRepo) ListMedications(ctx context.Context) ([]model.Medication, error) {
	return listRows[model.Medication](ctx, r.db, qListMedications, "medications")
}

func (r *DatasetRepo) CreateMedication(ctx context.Context, m *model.Medication) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qInsertMedication,
		m.Lab, m.Drug, m.ActiveIngredient, m.TherapeuticArea,
		m.Indication, m.Phase, m.Nation, m.Status, m.Notes)
	if err := row.Scan(&m.ID, &m.CreatedAt); err != nil {
		return fmt.Errorf("insert medication: %w", err)
	}
	return nil
}

func (r *DatasetRepo) UpdateMedication(ctx context.Context, m model.Medication) error {
	return r.exec(ctx, "update medication", m.ID, qUpdateMedication,
		m.ID, m.Lab, m.Drug, m.ActiveIngredient, m.TherapeuticArea,
		m.Indication, m.Phase, m.Nation, m.Status, m.Notes)
}

func (r *DatasetRepo) DeleteMedication(ctx context.Context, id int64) error {
	return r.exec(ctx, "delete medication", id, qDeleteMedication, id)
}

func (r *DatasetRepo) ListUnmetNeeds(ctx context.Context) ([]model.UnmetNeed, error) {
	return listRows[model.UnmetNeed](ctx, r.db, qListUnmetNeeds, "unmet needs")
}

func (r *DatasetRepo) CreateUnmetNeed(ctx context.Context, u *model.UnmetNeed) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qInsertUnmetNeed,
		u.Lab, u.Drug, u.TherapeuticArea, u.Need, u.Population, u.Evidence, u.Score)
	if err := row.Scan(&u.ID, &u.CreatedAt); err != nil {
		return fmt.Errorf("insert unmet need: %w", err)
	}
	return nil
}

func (r *DatasetRepo) UpdateUnmetNeed(ctx context.Context, u model.UnmetNeed) error {
	return r.exec(ctx, "update unmet need", u.ID, qUpdateUnmetNeed,
		u.ID, u.Lab, u.Drug, u.TherapeuticArea, u.Need, u.Population, u.Evidence, u.Score)
}

func (r *DatasetRepo) DeleteUnmetNeed(ctx context.Context, id int64) error {
	return r.exec(ctx, "delete unmet need", id, qDeleteUnmetNeed, id)
}

func (r *DatasetRepo) ListTactics(ctx context.Context) ([]model.PharmaTactic, error) {
	return listRows[model.PharmaTactic](ctx, r.db, qListTactics, "tactics")
}

func (r *DatasetRepo) CreateTactic(ctx context.Context, t *model.PharmaTactic) error {
	if t.Status == "" {
		t.Status = model.TacticStatusPlanned
	}

	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	row := r.db.Pool.QueryRow(ctx, qInsertTactic,
		t.UnmetNeedID, t.Lab, t.Drug, t.Tactic, t.Owner, t.Status, t.DueDate)
	if err := row.Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("insert tactic: %w", err)
	}
	return nil
}

func (r *DatasetRepo) UpdateTactic(ctx context.Context, t model.PharmaTactic) error {
	return r.exec(ctx, "update tactic", t.ID, qUpdateTactic,
		t.ID, t.UnmetNeedID, t.Lab, t.Drug, t.Tactic, t.Owner, t.Status, t.DueDate)
}

func (r *DatasetRepo) DeleteTactic(ctx context.Context, id int64) error {
	return r.exec(ctx, "delete tactic", id, qDeleteTactic, id)
}

func (r *DatasetRepo) exec(ctx context.Context, op string, id int64, q string, args ...any) error {
	ctx, cancel := r.db.withTimeout(ctx)
	defer cancel()

	cmd, err := r.db.Pool.Exec(ctx, q, args...)
	if err != nil {
		return fmt.Errorf("%s %d: %w", op, id, err)
	}
	return affected(cmd, op, id)
}

func affected(cmd pgconn.CommandTag, op string, id int64) error {
	if cmd.RowsAffected() == 0 {
		return fmt.Errorf("%s %d: %w", op, id, store.ErrNotFound)
	}
	return nil
}

// listRows runs a select-all query and maps columns onto T by their db tags.
func listRows[T any](ctx context.Context, db *DB, q, what string) ([]T, error) {
	ctx, cancel := db.withTimeout(ctx)
	defer cancel()

	rows, err := db.Pool.Query(ctx, q)
	if err != nil {
		return nil, fmt.Errorf("query %s: %w", what, err)
	}

	out, err := pgx.CollectRows(rows, pgx.RowToStructByName[T])
	if err != nil {
		return nil, fmt.Errorf("collect %s: %w", what, err)
	}
	return out, nil
}

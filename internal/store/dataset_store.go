package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/devel-adr/medistream/internal/model"
)

// ListMedications returns every DrugDealer row, newest first.
func (s *SQLiteStore) ListMedications(ctx context.Context) ([]model.Medication, error) {
	var meds []model.Medication
	err := s.db.SelectContext(ctx, &meds,
		"SELECT * FROM drug_dealer ORDER BY id_drugdealer DESC")
	if err != nil {
		return nil, fmt.Errorf("querying medications: %w", err)
	}
	return meds, nil
}

// CreateMedication inserts m and sets its ID and CreatedAt.
func (s *SQLiteStore) CreateMedication(ctx context.Context, m *model.Medication) error {
	if err := requireLabel("medication", m.Lab, m.Drug); err != nil {
		return err
	}
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO drug_dealer (
			laboratory, drug_name, active_ingredient, therapeutic_area,
			indication, phase, nation, status, notes, created_at
		) VALUES (
			:laboratory, :drug_name, :active_ingredient, :therapeutic_area,
			:indication, :phase, :nation, :status, :notes, :created_at
		)`, m)
	if err != nil {
		return fmt.Errorf("creating medication: %w", err)
	}

	m.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading medication id: %w", err)
	}
	return nil
}

// UpdateMedication overwrites the row with m.ID.
func (s *SQLiteStore) UpdateMedication(ctx context.Context, m model.Medication) error {
	if err := requireLabel("medication", m.Lab, m.Drug); err != nil {
		return err
	}

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE drug_dealer SET
			laboratory = :laboratory, drug_name = :drug_name,
			active_ingredient = :active_ingredient, therapeutic_area = :therapeutic_area,
			indication = :indication, phase = :phase, nation = :nation,
			status = :status, notes = :notes
		WHERE id_drugdealer = :id_drugdealer`, m)
	if err != nil {
		return fmt.Errorf("updating medication %d: %w", m.ID, err)
	}
	return expectOneRow(res, "medication", m.ID)
}

// DeleteMedication removes the row with the given id.
func (s *SQLiteStore) DeleteMedication(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM drug_dealer WHERE id_drugdealer = ?", id)
	if err != nil {
		return fmt.Errorf("deleting medication %d: %w", id, err)
	}
	return expectOneRow(res, "medication", id)
}

// ListUnmetNeeds returns every unmet-need row, newest first.
func (s *SQLiteStore) ListUnmetNeeds(ctx context.Context) ([]model.UnmetNeed, error) {
	var needs []model.UnmetNeed
	err := s.db.SelectContext(ctx, &needs,
		"SELECT * FROM unmet_needs ORDER BY id_unmet_need DESC")
	if err != nil {
		return nil, fmt.Errorf("querying unmet needs: %w", err)
	}
	return needs, nil
}

// CreateUnmetNeed inserts u and sets its ID and CreatedAt.
func (s *SQLiteStore) CreateUnmetNeed(ctx context.Context, u *model.UnmetNeed) error {
	if err := requireLabel("unmet need", u.Lab, u.Drug); err != nil {
		return err
	}
	if u.Score < 0 || u.Score > 10 {
		return fmt.Errorf("unmet need score must be between 0 and 10, got %d", u.Score)
	}
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO unmet_needs (
			laboratory, drug_name, therapeutic_area, unmet_need,
			population, evidence, score, created_at
		) VALUES (
			:laboratory, :drug_name, :therapeutic_area, :unmet_need,
			:population, :evidence, :score, :created_at
		)`, u)
	if err != nil {
		return fmt.Errorf("creating unmet need: %w", err)
	}

	u.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading unmet need id: %w", err)
	}
	return nil
}

// UpdateUnmetNeed overwrites the row with u.ID.
func (s *SQLiteStore) UpdateUnmetNeed(ctx context.Context, u model.UnmetNeed) error {
	if err := requireLabel("unmet need", u.Lab, u.Drug); err != nil {
		return err
	}

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE unmet_needs SET
			laboratory = :laboratory, drug_name = :drug_name,
			therapeutic_area = :therapeutic_area, unmet_need = :unmet_need,
			population = :population, evidence = :evidence, score = :score
		WHERE id_unmet_need = :id_unmet_need`, u)
	if err != nil {
		return fmt.Errorf("updating unmet need %d: %w", u.ID, err)
	}
	return expectOneRow(res, "unmet need", u.ID)
}

// DeleteUnmetNeed removes the row with the given id. Tactics that
// referenced it keep existing with a NULL reference.
func (s *SQLiteStore) DeleteUnmetNeed(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM unmet_needs WHERE id_unmet_need = ?", id)
	if err != nil {
		return fmt.Errorf("deleting unmet need %d: %w", id, err)
	}
	return expectOneRow(res, "unmet need", id)
}

// ListTactics returns every pharma-tactic row, newest first.
func (s *SQLiteStore) ListTactics(ctx context.Context) ([]model.PharmaTactic, error) {
	var tactics []model.PharmaTactic
	err := s.db.SelectContext(ctx, &tactics,
		"SELECT * FROM pharma_tactics ORDER BY id_tactic DESC")
	if err != nil {
		return nil, fmt.Errorf("querying tactics: %w", err)
	}
	return tactics, nil
}

// CreateTactic inserts t and sets its ID and CreatedAt.
func (s *SQLiteStore) CreateTactic(ctx context.Context, t *model.PharmaTactic) error {
	if strings.TrimSpace(t.Tactic) == "" {
		return fmt.Errorf("tactic text must not be empty")
	}
	if t.Status == "" {
		t.Status = model.TacticStatusPlanned
	}
	if t.CreatedAt.IsZero() {
		t.CreatedAt = time.Now().UTC()
	}

	res, err := s.db.NamedExecContext(ctx, `
		INSERT INTO pharma_tactics (
			id_unmet_need, laboratory, drug_name, tactic,
			owner, status, due_date, created_at
		) VALUES (
			:id_unmet_need, :laboratory, :drug_name, :tactic,
			:owner, :status, :due_date, :created_at
		)`, t)
	if err != nil {
		return fmt.Errorf("creating tactic: %w", err)
	}

	t.ID, err = res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading tactic id: %w", err)
	}
	return nil
}

// UpdateTactic overwrites the row with t.ID.
func (s *SQLiteStore) UpdateTactic(ctx context.Context, t model.PharmaTactic) error {
	if strings.TrimSpace(t.Tactic) == "" {
		return fmt.Errorf("tactic text must not be empty")
	}

	res, err := s.db.NamedExecContext(ctx, `
		UPDATE pharma_tactics SET
			id_unmet_need = :id_unmet_need, laboratory = :laboratory,
			drug_name = :drug_name, tactic = :tactic, owner = :owner,
			status = :status, due_date = :due_date
		WHERE id_tactic = :id_tactic`, t)
	if err != nil {
		return fmt.Errorf("updating tactic %d: %w", t.ID, err)
	}
	return expectOneRow(res, "tactic", t.ID)
}

// DeleteTactic removes the row with the given id.
func (s *SQLiteStore) DeleteTactic(ctx context.Context, id int64) error {
	res, err := s.db.ExecContext(ctx, "DELETE FROM pharma_tactics WHERE id_tactic = ?", id)
	if err != nil {
		return fmt.Errorf("deleting tactic %d: %w", id, err)
	}
	return expectOneRow(res, "tactic", id)
}

// requireLabel rejects rows that could never be told apart in the UI.
func requireLabel(what, lab, drug string) error {
	if strings.TrimSpace(lab) == "" && strings.TrimSpace(drug) == "" {
		return fmt.Errorf("%s needs a laboratory or a drug name", what)
	}
	return nil
}

// expectOneRow maps a zero-row update or delete to ErrNotFound.
func expectOneRow(res sql.Result, what string, id int64) error {
	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("reading affected rows: %w", err)
	}
	if rows == 0 {
		return fmt.Errorf("%s %d: %w", what, id, ErrNotFound)
	}
	return nil
}

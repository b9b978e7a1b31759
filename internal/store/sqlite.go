package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "modernc.org/sqlite"

	"github.com/devel-adr/medistream/internal/model"
)

// SQLiteStore implements Store using a local SQLite database.
type SQLiteStore struct {
	db *sqlx.DB
}

var _ Store = (*SQLiteStore)(nil)

// NewSQLiteStore opens (or creates) a SQLite database at dbPath,
// enables WAL mode, and runs any pending schema migrations.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := sqlx.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("opening sqlite db: %w", err)
	}

	// A single connection keeps ":memory:" databases shared and
	// serializes writers from the pollers and the UI.
	db.SetMaxOpenConns(1)

	// Enable WAL mode for better concurrent read performance.
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling WAL mode: %w", err)
	}

	// Enable foreign keys.
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &SQLiteStore{db: db}
	if err := s.runMigrations(); err != nil {
		db.Close()
		return nil, fmt.Errorf("running migrations: %w", err)
	}

	return s, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// runMigrations checks the current schema version and applies any
// outstanding migrations in order.
func (s *SQLiteStore) runMigrations() error {
	currentVersion := 0

	// Check if schema_version table exists.
	var tableCount int
	err := s.db.Get(
		&tableCount,
		"SELECT COUNT(*) FROM sqlite_master WHERE type='table' AND name='schema_version'",
	)
	if err != nil {
		return fmt.Errorf("checking schema_version table: %w", err)
	}

	if tableCount > 0 {
		err = s.db.Get(&currentVersion, "SELECT COALESCE(MAX(version), 0) FROM schema_version")
		if err != nil {
			return fmt.Errorf("reading schema version: %w", err)
		}
	}

	for _, m := range migrations {
		if m.version <= currentVersion {
			continue
		}
		if _, err := s.db.Exec(m.sql); err != nil {
			return fmt.Errorf("applying migration v%d: %w", m.version, err)
		}
	}

	return nil
}

// GetPreference returns the stored value for key.
func (s *SQLiteStore) GetPreference(ctx context.Context, key string) (string, error) {
	var value string
	err := s.db.GetContext(ctx, &value, "SELECT value FROM preferences WHERE key = ?", key)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("getting preference %q: %w", key, err)
	}
	return value, nil
}

// SetPreference inserts or replaces the value for key.
func (s *SQLiteStore) SetPreference(ctx context.Context, key, value string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO preferences (key, value, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("setting preference %q: %w", key, err)
	}
	return nil
}

// GetFavorites returns the set of favourite record ids of a dataset.
func (s *SQLiteStore) GetFavorites(
	ctx context.Context,
	kind model.DatasetKind,
) (map[int64]bool, error) {
	var ids []int64
	err := s.db.SelectContext(ctx, &ids,
		"SELECT record_id FROM favorites WHERE kind = ? ORDER BY record_id", string(kind),
	)
	if err != nil {
		return nil, fmt.Errorf("querying %s favorites: %w", kind, err)
	}

	favs := make(map[int64]bool, len(ids))
	for _, id := range ids {
		favs[id] = true
	}
	return favs, nil
}

// SetFavorite adds or removes a record from its dataset's favourite set.
func (s *SQLiteStore) SetFavorite(
	ctx context.Context,
	kind model.DatasetKind,
	id int64,
	favorite bool,
) error {
	var err error
	if favorite {
		_, err = s.db.ExecContext(ctx,
			"INSERT OR IGNORE INTO favorites (kind, record_id, created_at) VALUES (?, ?, ?)",
			string(kind), id, time.Now().UTC(),
		)
	} else {
		_, err = s.db.ExecContext(ctx,
			"DELETE FROM favorites WHERE kind = ? AND record_id = ?",
			string(kind), id,
		)
	}
	if err != nil {
		return fmt.Errorf("setting favorite %s/%d: %w", kind, id, err)
	}
	return nil
}

// SaveNotification inserts a notification record. Saving the same id
// twice is a no-op.
func (s *SQLiteStore) SaveNotification(
	ctx context.Context,
	n model.NotificationRecord,
) error {
	details, err := json.Marshal(n.Details)
	if err != nil {
		return fmt.Errorf("marshaling notification details: %w", err)
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT OR IGNORE INTO notifications (
			id, kind, title, message, details, count, delta, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		n.ID, string(n.Kind), n.Title, n.Message, string(details),
		n.Count, n.Delta, n.CreatedAt.UTC(),
	)
	if err != nil {
		return fmt.Errorf("saving notification %s: %w", n.ID, err)
	}
	return nil
}

// RecentNotifications returns up to limit notifications, newest first.
func (s *SQLiteStore) RecentNotifications(
	ctx context.Context,
	limit int,
) ([]model.NotificationRecord, error) {
	if limit <= 0 {
		limit = model.MaxNotifications
	}

	rows, err := s.db.QueryxContext(ctx, `
		SELECT id, kind, title, message, details, count, delta, created_at
		FROM notifications
		ORDER BY created_at DESC
		LIMIT ?`, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("querying notifications: %w", err)
	}
	defer rows.Close()

	var records []model.NotificationRecord
	for rows.Next() {
		n, err := scanNotification(rows)
		if err != nil {
			return nil, err
		}
		records = append(records, n)
	}

	return records, rows.Err()
}

// ClearNotifications deletes the whole notification history.
func (s *SQLiteStore) ClearNotifications(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, "DELETE FROM notifications"); err != nil {
		return fmt.Errorf("clearing notifications: %w", err)
	}
	return nil
}

// scanNotification scans a notification row from a sqlx.Rows result set.
func scanNotification(rows *sqlx.Rows) (model.NotificationRecord, error) {
	var (
		n         model.NotificationRecord
		kind      string
		details   string
		createdAt time.Time
	)

	err := rows.Scan(
		&n.ID, &kind, &n.Title, &n.Message, &details,
		&n.Count, &n.Delta, &createdAt,
	)
	if err != nil {
		return model.NotificationRecord{}, fmt.Errorf("scanning notification row: %w", err)
	}

	n.Kind = model.DatasetKind(kind)
	n.CreatedAt = createdAt

	if details != "" {
		if err := json.Unmarshal([]byte(details), &n.Details); err != nil {
			return model.NotificationRecord{}, fmt.Errorf("unmarshaling notification details: %w", err)
		}
	}

	return n, nil
}

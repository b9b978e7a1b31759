package store

import (
	"context"
	"errors"

	"github.com/devel-adr/medistream/internal/model"
)

// ErrNotFound is returned when a keyed lookup, update or delete matches
// no row.
var ErrNotFound = errors.New("not found")

// DatasetStore is the request/response surface of the relational backend
// holding the three datasets. List methods return every row ordered by
// the dataset key, newest first.
type DatasetStore interface {
	ListMedications(ctx context.Context) ([]model.Medication, error)
	CreateMedication(ctx context.Context, m *model.Medication) error
	UpdateMedication(ctx context.Context, m model.Medication) error
	DeleteMedication(ctx context.Context, id int64) error

	ListUnmetNeeds(ctx context.Context) ([]model.UnmetNeed, error)
	CreateUnmetNeed(ctx context.Context, u *model.UnmetNeed) error
	UpdateUnmetNeed(ctx context.Context, u model.UnmetNeed) error
	DeleteUnmetNeed(ctx context.Context, id int64) error

	ListTactics(ctx context.Context) ([]model.PharmaTactic, error)
	CreateTactic(ctx context.Context, t *model.PharmaTactic) error
	UpdateTactic(ctx context.Context, t model.PharmaTactic) error
	DeleteTactic(ctx context.Context, id int64) error
}

// PreferenceStore persists small local key/value settings and the
// per-dataset favourite sets.
type PreferenceStore interface {
	// GetPreference returns ErrNotFound when key was never set.
	GetPreference(ctx context.Context, key string) (string, error)
	SetPreference(ctx context.Context, key, value string) error

	GetFavorites(ctx context.Context, kind model.DatasetKind) (map[int64]bool, error)
	SetFavorite(ctx context.Context, kind model.DatasetKind, id int64, favorite bool) error
}

// NotificationStore keeps the history of raised notifications.
type NotificationStore interface {
	SaveNotification(ctx context.Context, n model.NotificationRecord) error
	RecentNotifications(ctx context.Context, limit int) ([]model.NotificationRecord, error)
	ClearNotifications(ctx context.Context) error
}

// Store is everything the local SQLite database provides.
type Store interface {
	DatasetStore
	PreferenceStore
	NotificationStore
}

package postgres

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/model"
)

// Listener turns Postgres NOTIFY messages into poll triggers. The payload
// of each notification names the dataset kind that changed; an empty or
// unknown payload triggers every kind.
type Listener struct {
	db      *DB
	channel string
	log     *zap.Logger
	onKind  func(model.DatasetKind)

	retryDelay time.Duration
}

// NewListener creates a Listener on channel that calls onKind per notification.
func NewListener(
	db *DB,
	channel string,
	log *zap.Logger,
	onKind func(model.DatasetKind),
) *Listener {
	return &Listener{
		db:         db,
		channel:    channel,
		log:        log,
		onKind:     onKind,
		retryDelay: 5 * time.Second,
	}
}

// Run listens until ctx is cancelled, reconnecting after errors.
func (l *Listener) Run(ctx context.Context) {
	for {
		err := l.listen(ctx)
		if ctx.Err() != nil {
			return
		}
		l.log.Warn("listen loop failed", zap.String("channel", l.channel), zap.Error(err))

		select {
		case <-ctx.Done():
			return
		case <-time.After(l.retryDelay):
		}
	}
}

func (l *Listener) listen(ctx context.Context) error {
	conn, err := l.db.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire conn: %w", err)
	}
	defer conn.Release()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		return fmt.Errorf("listen %s: %w", l.channel, err)
	}
	l.log.Info("listening for dataset changes", zap.String("channel", l.channel))

	for {
		n, err := conn.Conn().WaitForNotification(ctx)
		if err != nil {
			if errors.Is(err, context.Canceled) {
				return err
			}
			return fmt.Errorf("wait for notification: %w", err)
		}
		l.dispatch(n.Payload)
	}
}

func (l *Listener) dispatch(payload string) {
	kind := model.DatasetKind(payload)
	if kind.Valid() {
		l.log.Debug("dataset notify", zap.String("kind", string(kind)))
		l.onKind(kind)
		return
	}
	for _, k := range model.Kinds() {
		l.onKind(k)
	}
}

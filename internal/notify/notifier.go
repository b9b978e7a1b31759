// Package notify turns dataset change events into user-visible
// notifications: a bounded history list, a desktop banner and a tone.
package notify

import (
	"context"
	"fmt"
	gosync "sync"
	"sync/atomic"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/events"
	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/obs"
	"github.com/devel-adr/medistream/internal/store"
)

// UnknownUser is shown in place of the user's email when none is configured.
const UnknownUser = "unknown user"

const (
	kindCooldown    = 3 * time.Second
	duplicateWindow = 5 * time.Second
	releaseDelay    = 500 * time.Millisecond
	processedTTL    = 30 * time.Second
	historyTimeout  = 2 * time.Second
)

// Result is the outcome of handling one change event.
type Result string

const (
	ResultAppended  Result = "appended"
	ResultBusy      Result = "busy"
	ResultCooldown  Result = "cooldown"
	ResultDuplicate Result = "duplicate"
)

// NotificationMsg is a tea.Msg sent when a notification was appended.
type NotificationMsg struct {
	Record model.NotificationRecord
}

// SettingsSource returns the current sound settings.
type SettingsSource interface {
	Current() model.NotificationSettings
}

// Notifier is the single consumer of change events.
type Notifier struct {
	log       *zap.Logger
	history   store.NotificationStore
	desktop   Desktop
	tone      TonePlayer
	settings  SettingsSource
	userEmail string

	now       func() time.Time
	afterFunc func(time.Duration, func())

	processing atomic.Bool

	mu          gosync.Mutex
	lastEmitted map[model.DatasetKind]time.Time
	processed   map[string]time.Time
	records     []model.NotificationRecord
	updates     chan NotificationMsg

	done      chan struct{}
	closeOnce gosync.Once
}

// Option configures a Notifier.
type Option func(*Notifier)

// WithHistory persists appended notifications to s.
func WithHistory(s store.NotificationStore) Option {
	return func(n *Notifier) { n.history = s }
}

// WithDesktop shows a desktop banner for each notification.
func WithDesktop(d Desktop) Option {
	return func(n *Notifier) { n.desktop = d }
}

// WithTone plays the configured tone for each notification.
func WithTone(t TonePlayer) Option {
	return func(n *Notifier) { n.tone = t }
}

// WithSettings sets where the sound settings are read from.
func WithSettings(s SettingsSource) Option {
	return func(n *Notifier) { n.settings = s }
}

// WithUserEmail sets the email recorded in notification details.
func WithUserEmail(email string) Option {
	return func(n *Notifier) { n.userEmail = email }
}

// WithClock replaces time.Now and time.AfterFunc, for tests.
func WithClock(now func() time.Time, afterFunc func(time.Duration, func())) Option {
	return func(n *Notifier) {
		n.now = now
		if afterFunc != nil {
			n.afterFunc = afterFunc
		}
	}
}

// New creates a Notifier. Without a desktop, tone player or settings the
// corresponding side effect is skipped.
func New(log *zap.Logger, opts ...Option) *Notifier {
	if log == nil {
		log = zap.NewNop()
	}
	n := &Notifier{
		log: log,
		now: time.Now,
		afterFunc: func(d time.Duration, f func()) {
			time.AfterFunc(d, f)
		},
		lastEmitted: make(map[model.DatasetKind]time.Time),
		processed:   make(map[string]time.Time),
		updates:     make(chan NotificationMsg, 16),
		done:        make(chan struct{}),
	}
	for _, opt := range opts {
		opt(n)
	}
	return n
}

// Attach subscribes the notifier to bus and returns the unsubscribe func.
func (n *Notifier) Attach(bus *events.Bus) func() {
	return bus.Subscribe(func(ev model.ChangeEvent) { n.Handle(ev) })
}

// Handle processes one change event. Events arriving while another is in
// flight, within the per-kind cooldown, or duplicating a recent record
// are dropped for good.
func (n *Notifier) Handle(ev model.ChangeEvent) Result {
	if !n.processing.CompareAndSwap(false, true) {
		n.drop(ev, ResultBusy)
		return ResultBusy
	}

	now := n.now()

	n.mu.Lock()
	if last, ok := n.lastEmitted[ev.Kind]; ok && now.Sub(last) < kindCooldown {
		n.mu.Unlock()
		n.processing.Store(false)
		n.drop(ev, ResultCooldown)
		return ResultCooldown
	}
	n.lastEmitted[ev.Kind] = now

	id := fmt.Sprintf("%s-%d-%d-%d", ev.Kind, ev.NewCount, ev.Delta, now.UnixMilli())
	n.trackProcessed(id, now)

	rec := n.buildRecord(id, ev, now)
	if n.isDuplicate(rec, now) {
		n.mu.Unlock()
		n.afterFunc(releaseDelay, func() { n.processing.Store(false) })
		n.drop(ev, ResultDuplicate)
		return ResultDuplicate
	}

	n.records = append([]model.NotificationRecord{rec}, n.records...)
	if len(n.records) > model.MaxNotifications {
		n.records = n.records[:model.MaxNotifications]
	}
	n.mu.Unlock()

	obs.Notifications.WithLabelValues(string(ResultAppended)).Inc()
	n.log.Info("notification",
		zap.String("id", rec.ID),
		zap.String("kind", string(rec.Kind)),
		zap.Int("count", rec.Count),
		zap.Int("delta", rec.Delta),
	)

	n.persist(rec)
	n.showDesktop(rec)
	n.playTone()

	select {
	case n.updates <- NotificationMsg{Record: rec}:
	default:
	}

	n.afterFunc(releaseDelay, func() { n.processing.Store(false) })
	return ResultAppended
}

func (n *Notifier) drop(ev model.ChangeEvent, reason Result) {
	obs.Notifications.WithLabelValues(string(reason)).Inc()
	n.log.Debug("change event dropped",
		zap.String("kind", string(ev.Kind)),
		zap.Int("count", ev.NewCount),
		zap.Int("delta", ev.Delta),
		zap.String("reason", string(reason)),
	)
}

// trackProcessed records id for diagnostics and forgets ids older than
// processedTTL. Callers hold mu.
func (n *Notifier) trackProcessed(id string, now time.Time) {
	for k, at := range n.processed {
		if now.Sub(at) >= processedTTL {
			delete(n.processed, k)
		}
	}
	n.processed[id] = now
}

// isDuplicate scans records of the last duplicateWindow for one with the
// same kind, count and delta. Callers hold mu.
func (n *Notifier) isDuplicate(rec model.NotificationRecord, now time.Time) bool {
	for _, r := range n.records {
		if now.Sub(r.CreatedAt) > duplicateWindow {
			break
		}
		if r.Kind == rec.Kind && r.Count == rec.Count && r.Delta == rec.Delta {
			return true
		}
	}
	return false
}

func (n *Notifier) buildRecord(id string, ev model.ChangeEvent, now time.Time) model.NotificationRecord {
	title, message := render(ev.Kind, ev.Delta)

	details := model.NotificationDetails{UserEmail: n.userEmail}
	if details.UserEmail == "" {
		details.UserEmail = UnknownUser
	}
	if ev.Latest != nil {
		details.Laboratory = ev.Latest.Laboratory()
		if ev.Kind != model.KindMedications {
			details.DrugName = ev.Latest.DrugName()
		}
	}

	return model.NotificationRecord{
		ID:        id,
		Kind:      ev.Kind,
		Title:     title,
		Message:   message,
		Details:   details,
		CreatedAt: now,
		Count:     ev.NewCount,
		Delta:     ev.Delta,
	}
}

// render returns the title and message for delta new rows of kind.
func render(kind model.DatasetKind, delta int) (string, string) {
	switch kind {
	case model.KindMedications:
		return "New medications",
			fmt.Sprintf("%d new %s added to DrugDealer", delta, plural(delta, "medication", "medications"))
	case model.KindUnmetNeeds:
		return "New unmet needs",
			fmt.Sprintf("%d new unmet need %s available", delta, plural(delta, "analysis", "analyses"))
	case model.KindTactics:
		return "New pharma tactics",
			fmt.Sprintf("%d new pharma %s registered", delta, plural(delta, "tactic", "tactics"))
	default:
		return "New records", fmt.Sprintf("%d new records in %s", delta, kind)
	}
}

func plural(n int, one, many string) string {
	if n == 1 {
		return one
	}
	return many
}

func (n *Notifier) persist(rec model.NotificationRecord) {
	if n.history == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), historyTimeout)
	defer cancel()
	if err := n.history.SaveNotification(ctx, rec); err != nil {
		n.log.Warn("saving notification history", zap.String("id", rec.ID), zap.Error(err))
	}
}

// showDesktop shows a banner when permission is granted, asks first when
// it is undecided, and does nothing when it was denied.
func (n *Notifier) showDesktop(rec model.NotificationRecord) {
	if n.desktop == nil {
		return
	}

	perm := n.desktop.Permission()
	if perm == PermissionDefault {
		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		var err error
		perm, err = n.desktop.RequestPermission(ctx)
		if err != nil {
			n.log.Debug("notification permission request failed", zap.Error(err))
			return
		}
	}
	if perm != PermissionGranted {
		return
	}

	if err := n.desktop.Show(rec.Title, rec.Message); err != nil {
		n.log.Debug("desktop notification failed", zap.Error(err))
	}
}

func (n *Notifier) playTone() {
	if n.tone == nil || n.settings == nil {
		return
	}
	s := n.settings.Current()
	if !s.Audible() {
		return
	}
	n.tone.Play(s.Tone, s.Volume)
}

// Records returns the notification list, most recent first.
func (n *Notifier) Records() []model.NotificationRecord {
	n.mu.Lock()
	defer n.mu.Unlock()

	out := make([]model.NotificationRecord, len(n.records))
	copy(out, n.records)
	return out
}

// Processed returns the number of ids in the diagnostic processed set.
func (n *Notifier) Processed() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return len(n.processed)
}

// Clear empties the list and the persisted history.
func (n *Notifier) Clear(ctx context.Context) error {
	n.mu.Lock()
	n.records = nil
	n.mu.Unlock()

	if n.history == nil {
		return nil
	}
	if err := n.history.ClearNotifications(ctx); err != nil {
		return fmt.Errorf("clearing notification history: %w", err)
	}
	return nil
}

// LoadHistory restores the most recent persisted notifications.
func (n *Notifier) LoadHistory(ctx context.Context) error {
	if n.history == nil {
		return nil
	}
	recs, err := n.history.RecentNotifications(ctx, model.MaxNotifications)
	if err != nil {
		return fmt.Errorf("loading notification history: %w", err)
	}

	n.mu.Lock()
	n.records = recs
	n.mu.Unlock()
	return nil
}

// Close releases pending WaitForNotification commands. It is safe to
// call more than once.
func (n *Notifier) Close() {
	n.closeOnce.Do(func() { close(n.done) })
}

// WaitForNotification returns a tea.Cmd that waits for the next appended
// notification.
func (n *Notifier) WaitForNotification() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-n.updates:
			return msg
		case <-n.done:
			return nil
		}
	}
}

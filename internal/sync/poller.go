package sync

import (
	"context"
	"fmt"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/events"
	"github.com/devel-adr/medistream/internal/model"
	"github.com/devel-adr/medistream/internal/obs"
)

// SyncState represents the current state of a dataset poll.
type SyncState int

const (
	SyncIdle SyncState = iota
	SyncRunning
	SyncError
)

// SyncStatus holds the poll state for a single dataset.
type SyncStatus struct {
	Kind     model.DatasetKind
	State    SyncState
	LastSync time.Time
	Count    int
	Error    error
}

// Stale reports whether the last poll failed, so the view on screen may
// be out of date.
func (s SyncStatus) Stale() bool {
	return s.State == SyncError
}

// SyncResultMsg is a tea.Msg sent when a poll completes.
type SyncResultMsg struct {
	Kind     model.DatasetKind
	Snapshot model.DatasetSnapshot
	Error    error

	// Event is set when this poll emitted a change event.
	Event *model.ChangeEvent
}

// FetchFunc loads the whole dataset, newest first.
type FetchFunc func(ctx context.Context) ([]model.Record, error)

// defaultFetchTimeout is the maximum time allowed for a single fetch.
const defaultFetchTimeout = 30 * time.Second

// datasetEntry holds a registered dataset and its loop state. tracker and
// snapshot are only touched by the dataset's own loop, or under mu.
type datasetEntry struct {
	kind      model.DatasetKind
	fetch     FetchFunc
	interval  time.Duration
	triggerCh chan struct{}
	tracker   growthTracker
	snapshot  model.DatasetSnapshot
}

// Poller orchestrates background polling of the registered datasets and
// publishes a change event whenever one of them grows.
type Poller struct {
	pub          events.Publisher
	log          *zap.Logger
	now          func() time.Time
	cooldown     time.Duration
	fetchTimeout time.Duration

	entries  []*datasetEntry
	byKind   map[model.DatasetKind]*datasetEntry
	statuses map[model.DatasetKind]*SyncStatus
	resultCh chan SyncResultMsg
	stopCh   chan struct{}
	wg       gosync.WaitGroup
	mu       gosync.Mutex
	running  bool
}

// Option configures a Poller.
type Option func(*Poller)

// WithCooldown overrides the per-dataset emission cooldown.
func WithCooldown(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.cooldown = d
		}
	}
}

// WithFetchTimeout overrides the per-fetch timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(p *Poller) {
		if d > 0 {
			p.fetchTimeout = d
		}
	}
}

// WithClock replaces time.Now, for tests.
func WithClock(now func() time.Time) Option {
	return func(p *Poller) { p.now = now }
}

// New creates a Poller that publishes change events to pub.
func New(pub events.Publisher, log *zap.Logger, opts ...Option) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	p := &Poller{
		pub:          pub,
		log:          log,
		now:          time.Now,
		cooldown:     DefaultCooldown,
		fetchTimeout: defaultFetchTimeout,
		byKind:       make(map[model.DatasetKind]*datasetEntry),
		statuses:     make(map[model.DatasetKind]*SyncStatus),
		resultCh:     make(chan SyncResultMsg, 16),
		stopCh:       make(chan struct{}),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// RegisterDataset adds a dataset with its fetch function and interval.
// Registering the same kind twice replaces the fetch function. A dataset
// registered after Start gets its loop immediately.
func (p *Poller) RegisterDataset(kind model.DatasetKind, fetch FetchFunc, interval time.Duration) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if interval <= 0 {
		interval = 30 * time.Second
	}

	if e, ok := p.byKind[kind]; ok {
		e.fetch = fetch
		e.interval = interval
		return
	}

	e := &datasetEntry{
		kind:      kind,
		fetch:     fetch,
		interval:  interval,
		triggerCh: make(chan struct{}, 1),
		tracker:   growthTracker{cooldown: p.cooldown},
		snapshot:  model.DatasetSnapshot{Kind: kind},
	}
	p.entries = append(p.entries, e)
	p.byKind[kind] = e
	p.statuses[kind] = &SyncStatus{Kind: kind, State: SyncIdle}

	if p.running {
		p.wg.Add(1)
		go p.pollDataset(e)
	}
}

// Start launches one polling goroutine per dataset and returns a tea.Cmd
// that waits for the first result. Each loop fetches immediately, then on
// every tick of its interval.
func (p *Poller) Start() tea.Cmd {
	p.mu.Lock()
	if p.running {
		p.mu.Unlock()
		return nil
	}
	p.running = true
	entries := make([]*datasetEntry, len(p.entries))
	copy(entries, p.entries)
	p.mu.Unlock()

	for _, e := range entries {
		p.wg.Add(1)
		go p.pollDataset(e)
	}

	return p.waitForResult()
}

// Stop halts every polling goroutine and waits for in-flight fetches to
// return. It is safe to call more than once.
func (p *Poller) Stop() {
	p.mu.Lock()
	if !p.running {
		p.mu.Unlock()
		return
	}
	p.running = false
	close(p.stopCh)
	p.mu.Unlock()

	p.wg.Wait()
}

// Refresh triggers an immediate poll of one dataset. A trigger that
// arrives while one is already pending is merged into it.
func (p *Poller) Refresh(kind model.DatasetKind) tea.Cmd {
	p.mu.Lock()
	e, ok := p.byKind[kind]
	p.mu.Unlock()

	if ok {
		select {
		case e.triggerCh <- struct{}{}:
		default:
		}
	}
	return nil
}

// RefreshAll triggers an immediate poll of every dataset.
func (p *Poller) RefreshAll() tea.Cmd {
	for _, kind := range p.Kinds() {
		p.Refresh(kind)
	}
	return nil
}

// Kinds returns the registered datasets in registration order.
func (p *Poller) Kinds() []model.DatasetKind {
	p.mu.Lock()
	defer p.mu.Unlock()

	kinds := make([]model.DatasetKind, 0, len(p.entries))
	for _, e := range p.entries {
		kinds = append(kinds, e.kind)
	}
	return kinds
}

// Status returns the poll status of one dataset.
func (p *Poller) Status(kind model.DatasetKind) (SyncStatus, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()

	s, ok := p.statuses[kind]
	if !ok {
		return SyncStatus{}, false
	}
	return *s, true
}

// GetStatuses returns the poll status of every dataset in registration order.
func (p *Poller) GetStatuses() []SyncStatus {
	p.mu.Lock()
	defer p.mu.Unlock()

	statuses := make([]SyncStatus, 0, len(p.entries))
	for _, e := range p.entries {
		statuses = append(statuses, *p.statuses[e.kind])
	}
	return statuses
}

// Snapshot returns the last good snapshot of one dataset.
func (p *Poller) Snapshot(kind model.DatasetKind) model.DatasetSnapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	if e, ok := p.byKind[kind]; ok {
		return e.snapshot
	}
	return model.DatasetSnapshot{Kind: kind}
}

// pollDataset runs the polling loop for a single dataset. Fetches of one
// dataset never overlap because they all run on this goroutine.
func (p *Poller) pollDataset(e *datasetEntry) {
	defer p.wg.Done()

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	p.fetchOnce(e)

	for {
		select {
		case <-p.stopCh:
			return
		case <-ticker.C:
			p.fetchOnce(e)
		case <-e.triggerCh:
			p.fetchOnce(e)
		}
	}
}

// fetchOnce performs a single fetch, runs growth detection, and sends a
// SyncResultMsg on the result channel.
func (p *Poller) fetchOnce(e *datasetEntry) {
	kind := e.kind
	p.setStatus(kind, SyncRunning, nil, 0)

	ctx, cancel := context.WithTimeout(context.Background(), p.fetchTimeout)
	defer cancel()
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	start := time.Now()
	records, err := e.fetch(ctx)
	obs.PollDuration.WithLabelValues(string(kind)).Observe(time.Since(start).Seconds())

	if err != nil {
		obs.PollsTotal.WithLabelValues(string(kind), "error").Inc()
		p.log.Warn("poll failed", zap.String("kind", string(kind)), zap.Error(err))

		err = fmt.Errorf("fetching %s: %w", kind.Label(), err)
		p.setStatus(kind, SyncError, err, 0)
		p.sendResult(SyncResultMsg{Kind: kind, Snapshot: p.Snapshot(kind), Error: err})
		return
	}
	obs.PollsTotal.WithLabelValues(string(kind), "ok").Inc()

	now := p.now()
	snap := model.DatasetSnapshot{Kind: kind, Records: records, FetchedAt: now}

	p.mu.Lock()
	e.snapshot = snap
	p.mu.Unlock()
	obs.DatasetRows.WithLabelValues(string(kind)).Set(float64(snap.Count()))

	dec, delta := e.tracker.observe(snap.Count(), now)
	if dec != decisionNone {
		obs.ChangeEvents.WithLabelValues(string(kind), dec.String()).Inc()
	}

	var ev *model.ChangeEvent
	switch dec {
	case decisionEmit:
		ev = &model.ChangeEvent{
			Kind:     kind,
			NewCount: snap.Count(),
			Delta:    delta,
			Latest:   snap.Latest(),
			At:       now,
		}
		p.log.Info("dataset grew",
			zap.String("kind", string(kind)),
			zap.Int("count", ev.NewCount),
			zap.Int("delta", delta),
		)
		if p.pub != nil {
			p.pub.Publish(*ev)
		}
	case decisionCooldown:
		p.log.Debug("growth within cooldown, not emitted",
			zap.String("kind", string(kind)),
			zap.Int("count", snap.Count()),
			zap.Int("delta", delta),
		)
	}

	p.setStatus(kind, SyncIdle, nil, snap.Count())
	p.sendResult(SyncResultMsg{Kind: kind, Snapshot: snap, Event: ev})
}

// setStatus updates the poll status for a dataset.
func (p *Poller) setStatus(kind model.DatasetKind, state SyncState, err error, count int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	status, ok := p.statuses[kind]
	if !ok {
		return
	}

	status.State = state
	if state == SyncRunning {
		return
	}
	status.Error = err
	if state == SyncIdle && err == nil {
		status.LastSync = p.now()
		status.Count = count
	}
}

// sendResult sends a SyncResultMsg on the result channel without blocking.
func (p *Poller) sendResult(msg SyncResultMsg) {
	select {
	case p.resultCh <- msg:
	default:
		// Drop if channel is full to avoid blocking the poller
	}
}

// waitForResult returns a tea.Cmd that waits for the next result from
// the result channel.
func (p *Poller) waitForResult() tea.Cmd {
	return func() tea.Msg {
		select {
		case result := <-p.resultCh:
			return result
		case <-p.stopCh:
			return nil
		}
	}
}

// WaitForNextResult returns a tea.Cmd that waits for the next poll result.
// Call it after handling a SyncResultMsg to keep listening.
func (p *Poller) WaitForNextResult() tea.Cmd {
	return p.waitForResult()
}

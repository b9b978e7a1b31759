package workflow

import (
	"context"
	gosync "sync"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"go.uber.org/zap"

	"github.com/devel-adr/medistream/internal/obs"
)

// ClassifiedExecution pairs an execution with its derived status.
type ClassifiedExecution struct {
	Execution
	Status Status
}

// Snapshot is the last known state of one workflow.
type Snapshot struct {
	WorkflowID string
	Name       string
	Executions []ClassifiedExecution
	UpdatedAt  time.Time
	// Error is the message of the last failed refresh, empty after a
	// success. Executions keep the last good values.
	Error string
}

// Latest returns the most recent execution, if any.
func (s Snapshot) Latest() (ClassifiedExecution, bool) {
	if len(s.Executions) == 0 {
		return ClassifiedExecution{}, false
	}
	return s.Executions[0], true
}

// StatusMsg is a tea.Msg sent after every refresh round.
type StatusMsg struct {
	Snapshots []Snapshot
}

// Lister is the part of Client the poller needs.
type Lister interface {
	ListExecutions(ctx context.Context, workflowID string, limit int) ([]Execution, error)
	GetWorkflow(ctx context.Context, workflowID string) (Workflow, error)
}

// Poller refreshes the executions of a fixed set of workflows.
type Poller struct {
	client   Lister
	ids      []string
	limit    int
	interval time.Duration
	log      *zap.Logger
	now      func() time.Time

	mu        gosync.Mutex
	snapshots map[string]*Snapshot

	triggerCh chan struct{}
	updates   chan StatusMsg
	done      chan struct{}
	doneOnce  gosync.Once
}

// NewPoller creates a poller for ids. A non-positive interval means 10s.
func NewPoller(client Lister, ids []string, limit int, interval time.Duration, log *zap.Logger) *Poller {
	if log == nil {
		log = zap.NewNop()
	}
	if interval <= 0 {
		interval = 10 * time.Second
	}
	p := &Poller{
		client:    client,
		ids:       ids,
		limit:     limit,
		interval:  interval,
		log:       log,
		now:       time.Now,
		snapshots: make(map[string]*Snapshot, len(ids)),
		triggerCh: make(chan struct{}, 1),
		updates:   make(chan StatusMsg, 4),
		done:      make(chan struct{}),
	}
	for _, id := range ids {
		p.snapshots[id] = &Snapshot{WorkflowID: id}
	}
	return p
}

// Run refreshes immediately, then every interval, until ctx is done.
// Pending WaitForUpdate commands return nil once Run has returned.
func (p *Poller) Run(ctx context.Context) error {
	defer p.doneOnce.Do(func() { close(p.done) })

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.tick(ctx)

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			p.tick(ctx)
		case <-p.triggerCh:
			p.tick(ctx)
		}
	}
}

// Refresh asks the loop for an immediate round.
func (p *Poller) Refresh() tea.Cmd {
	select {
	case p.triggerCh <- struct{}{}:
	default:
	}
	return nil
}

func (p *Poller) tick(ctx context.Context) {
	for _, id := range p.ids {
		p.refreshOne(ctx, id)
	}

	select {
	case p.updates <- StatusMsg{Snapshots: p.Snapshots()}:
	default:
	}
}

func (p *Poller) refreshOne(ctx context.Context, id string) {
	ctx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	execs, err := p.client.ListExecutions(ctx, id, p.limit)
	now := p.now()

	p.mu.Lock()
	snap := p.snapshots[id]
	needName := snap.Name == ""
	p.mu.Unlock()

	if err != nil {
		obs.WorkflowPolls.WithLabelValues("error").Inc()
		p.log.Warn("workflow poll failed", zap.String("workflow", id), zap.Error(err))

		p.mu.Lock()
		snap.Error = err.Error()
		p.mu.Unlock()
		return
	}
	obs.WorkflowPolls.WithLabelValues("ok").Inc()

	classified := make([]ClassifiedExecution, len(execs))
	for i, e := range execs {
		classified[i] = ClassifiedExecution{Execution: e, Status: Classify(e, now)}
	}

	var name string
	if needName {
		if wf, err := p.client.GetWorkflow(ctx, id); err == nil {
			name = wf.Name
		} else {
			p.log.Debug("workflow name lookup failed", zap.String("workflow", id), zap.Error(err))
		}
	}

	p.mu.Lock()
	snap.Executions = classified
	snap.UpdatedAt = now
	snap.Error = ""
	if name != "" {
		snap.Name = name
	}
	p.mu.Unlock()
}

// Snapshots returns the state of every workflow in configured order.
func (p *Poller) Snapshots() []Snapshot {
	p.mu.Lock()
	defer p.mu.Unlock()

	out := make([]Snapshot, 0, len(p.ids))
	for _, id := range p.ids {
		s := *p.snapshots[id]
		s.Executions = append([]ClassifiedExecution(nil), s.Executions...)
		out = append(out, s)
	}
	return out
}

// WaitForUpdate returns a tea.Cmd that waits for the next refresh round.
func (p *Poller) WaitForUpdate() tea.Cmd {
	return func() tea.Msg {
		select {
		case msg := <-p.updates:
			return msg
		case <-p.done:
			return nil
		}
	}
}

package sync

import "time"

// DefaultCooldown is the minimum gap between two change events emitted
// by the same poller.
const DefaultCooldown = 5 * time.Second

// decision is the outcome of observing one successful fetch.
type decision int

const (
	decisionInit decision = iota
	decisionNone
	decisionEmit
	decisionCooldown
)

func (d decision) String() string {
	switch d {
	case decisionInit:
		return "init"
	case decisionEmit:
		return "emitted"
	case decisionCooldown:
		return "cooldown"
	default:
		return "none"
	}
}

// growthTracker holds the count history of one dataset. It is owned by
// that dataset's poll loop and never shared.
type growthTracker struct {
	initialized   bool
	previousCount int
	lastEmit      time.Time
	cooldown      time.Duration
}

// observe records newCount from a successful fetch at now. The first
// observation only initializes. Later ones report growth over a non-empty
// previous count, unless the last emission is younger than the cooldown.
// previousCount always advances, whatever the outcome.
func (g *growthTracker) observe(newCount int, now time.Time) (decision, int) {
	if !g.initialized {
		g.initialized = true
		g.previousCount = newCount
		return decisionInit, 0
	}

	prev := g.previousCount
	g.previousCount = newCount

	if prev <= 0 || newCount <= prev {
		return decisionNone, 0
	}

	delta := newCount - prev
	if !g.lastEmit.IsZero() && now.Sub(g.lastEmit) < g.cooldown {
		return decisionCooldown, delta
	}

	g.lastEmit = now
	return decisionEmit, delta
}

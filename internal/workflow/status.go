package workflow

import (
	"strings"
	"time"
)

// Status is the derived state of an execution.
type Status string

const (
	StatusRunning  Status = "running"
	StatusSuccess  Status = "success"
	StatusError    Status = "error"
	StatusWaiting  Status = "waiting"
	StatusCanceled Status = "canceled"
	StatusNew      Status = "new"
)

// ManualRecencyWindow is how long a stopped but unfinished manual
// execution is still reported as running. This is an approximation: a
// truly canceled manual run reads as running for up to this long.
const ManualRecencyWindow = 5 * time.Minute

// Classify derives the status of e at now. An explicit upstream status
// wins; otherwise the status is inferred from the timestamps. An
// unfinished, unstopped execution is running whatever StartedAt holds.
func Classify(e Execution, now time.Time) Status {
	if s, ok := explicitStatus(e.Status); ok {
		return s
	}

	switch {
	case e.WaitTill != nil:
		return StatusWaiting
	case e.Finished:
		return StatusSuccess
	case e.StoppedAt == nil:
		// Nothing known beyond the id: queued, not yet picked up.
		if e.Mode == "" && e.StartedAt == nil {
			return StatusNew
		}
		return StatusRunning
	case e.Mode == "manual":
		if now.Sub(*e.StoppedAt) < ManualRecencyWindow {
			return StatusRunning
		}
		return StatusCanceled
	default:
		return StatusError
	}
}

func explicitStatus(raw string) (Status, bool) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "running":
		return StatusRunning, true
	case "success":
		return StatusSuccess, true
	case "error", "crashed", "failed":
		return StatusError, true
	case "waiting":
		return StatusWaiting, true
	case "canceled", "cancelled":
		return StatusCanceled, true
	case "new":
		return StatusNew, true
	default:
		return "", false
	}
}

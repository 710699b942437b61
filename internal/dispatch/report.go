package dispatch

import (
	"time"

	"schedconvert/internal/batch"
)

// Status describes what happened to a batch during a run.
type Status string

const (
	StatusSpawned    Status = "spawned"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
	StatusExited     Status = "exited"
	StatusExitFailed Status = "exit_failed"
)

// Outcome is the per-batch result of a run.
type Outcome struct {
	Batch    batch.Batch
	PID      int
	TempDir  string
	Status   Status
	Err      error
	ExitCode *int
}

// Report summarises a dispatch run.
type Report struct {
	RunID      string
	Directory  string
	OutputDir  string
	NumImages  int
	Batches    []batch.Batch
	Outcomes   []Outcome
	Waited     bool
	StartedAt  time.Time
	FinishedAt time.Time
}

// Count returns how many outcomes have the given status.
func (r *Report) Count(status Status) int {
	if r == nil {
		return 0
	}
	n := 0
	for _, o := range r.Outcomes {
		if o.Status == status {
			n++
		}
	}
	return n
}

// Launched returns the number of workers that were started, whatever their
// later exit status.
func (r *Report) Launched() int {
	return r.Count(StatusSpawned) + r.Count(StatusExited) + r.Count(StatusExitFailed)
}

// Duration returns how long the run took.
func (r *Report) Duration() time.Duration {
	if r == nil || r.FinishedAt.IsZero() {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

package ledger

import "time"

// Status describes what happened to one batch.
type Status string

const (
	StatusSpawned    Status = "spawned"
	StatusSkipped    Status = "skipped"
	StatusFailed     Status = "failed"
	StatusExited     Status = "exited"
	StatusExitFailed Status = "exit_failed"
)

// Run is one dispatch pass.
type Run struct {
	ID         string     `json:"id"`
	Directory  string     `json:"directory"`
	Worker     string     `json:"worker"`
	BatchCount int        `json:"batch_count"`
	NumImages  int        `json:"num_images"`
	Partition  string     `json:"partition"`
	Waited     bool       `json:"waited"`
	StartedAt  time.Time  `json:"started_at"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Error      string     `json:"error,omitempty"`
}

// BatchRecord is one batch within a run.
type BatchRecord struct {
	RunID    string `json:"run_id"`
	Index    int    `json:"index"`
	Start    int    `json:"start"`
	End      int    `json:"end"`
	TempDir  string `json:"temp_dir,omitempty"`
	PID      int    `json:"pid,omitempty"`
	Status   Status `json:"status"`
	ExitCode *int   `json:"exit_code,omitempty"`
	Error    string `json:"error,omitempty"`
}

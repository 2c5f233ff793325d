package store

import "time"

// RunStatus represents the lifecycle state of a recorded run
type RunStatus string

const (
	RunStatusRunning   RunStatus = "running"
	RunStatusCompleted RunStatus = "completed"
	RunStatusFailed    RunStatus = "failed"
)

// Run is one recorded dispatch of an external command.
type Run struct {
	ID          string     `json:"id"`
	Kind        string     `json:"kind"`
	Argv        []string   `json:"argv"`
	Workdir     string     `json:"workdir"`
	Env         string     `json:"env"` // conda environment name
	Status      RunStatus  `json:"status"`
	ExitCode    int        `json:"exit_code"`
	Error       string     `json:"error,omitempty"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	DurationMS  int64      `json:"duration_ms"`
}

// Store persists run history.
type Store interface {
	RecordStart(run *Run) error
	RecordResult(id string, status RunStatus, exitCode int, errMsg string, completedAt time.Time) error
	GetRun(id string) (*Run, error)
	ListRuns(limit int) ([]*Run, error)
	Close() error
}

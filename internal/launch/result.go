package launch

import "time"

// Result is the immutable outcome of one dispatch. Set once when the
// child exits, never updated.
type Result struct {
	RunID string `json:"run_id"`
	Kind  string `json:"kind"`
	PID   int    `json:"pid"`

	StartTime time.Time     `json:"start_time"`
	EndTime   time.Time     `json:"end_time"`
	Duration  time.Duration `json:"duration"`

	// ExitCode is the child's exit code, propagated verbatim. A child
	// killed by a signal reports 128+signal, as a shell would.
	ExitCode int `json:"exit_code"`
}

func newResult(runID, kind string, pid, exitCode int, start, end time.Time) *Result {
	return &Result{
		RunID:     runID,
		Kind:      kind,
		PID:       pid,
		ExitCode:  exitCode,
		StartTime: start,
		EndTime:   end,
		Duration:  end.Sub(start),
	}
}

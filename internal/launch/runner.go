package launch

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/navlab-tools/habctl/pkg/logging"
)

// Runner dispatches exactly one external process per call and waits
// for it synchronously. The child's failure is never intercepted or
// classified; its exit code is the only thing reported back.
type Runner struct {
	// Bin is the interpreter or binary the spec's argv is handed to,
	// normally the activated environment's python.
	Bin string

	// Environ is the child's environment. Nil inherits the parent's.
	Environ []string

	Log *logging.Logger

	// OnStart is called after the child starts, before waiting.
	OnStart func(runID string, pid int, argv []string)
}

// Run builds the spec's argv and executes it. Interrupt signals are
// forwarded to the child's process group so the workload dies with
// the launcher, not orphaned behind it.
func (r *Runner) Run(ctx context.Context, spec Spec) (*Result, error) {
	runID := uuid.New().String()
	args := spec.BuildArgs()
	start := time.Now()

	cmd := exec.CommandContext(ctx, r.Bin, args...)

	// Child becomes its own process group leader so signals can be
	// delivered to the whole tree.
	cmd.SysProcAttr = &syscall.SysProcAttr{
		Setpgid: true,
		Pgid:    0,
	}

	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	if r.Environ != nil {
		cmd.Env = r.Environ
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("failed to start %s: %w", r.Bin, err)
	}

	pid := cmd.Process.Pid
	if r.Log != nil {
		r.Log.Info("dispatched", map[string]interface{}{
			"run_id": runID,
			"kind":   spec.Kind(),
			"pid":    pid,
			"argv":   append([]string{r.Bin}, args...),
		})
	}
	if r.OnStart != nil {
		r.OnStart(runID, pid, append([]string{r.Bin}, args...))
	}

	stop := forwardSignals(pid)
	err := cmd.Wait()
	stop()

	end := time.Now()

	exitCode := 0
	if err != nil {
		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return nil, fmt.Errorf("waiting for %s: %w", r.Bin, err)
		}
		exitCode = exitErr.ExitCode()
		// Signal deaths report 128+signal, the shell convention, so a
		// SIGINT'd child yields 130 and a SIGKILL'd one 137 instead of -1.
		if ws, ok := exitErr.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
			exitCode = 128 + int(ws.Signal())
		}
	}

	return newResult(runID, spec.Kind(), pid, exitCode, start, end), nil
}

// forwardSignals relays SIGINT/SIGTERM to the child's process group
// until the returned stop function is called.
func forwardSignals(pid int) func() {
	sigCh := make(chan os.Signal, 1)
	done := make(chan struct{})
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		for {
			select {
			case sig := <-sigCh:
				if s, ok := sig.(syscall.Signal); ok {
					syscall.Kill(-pid, s)
				}
			case <-done:
				return
			}
		}
	}()

	return func() {
		signal.Stop(sigCh)
		close(done)
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/navlab-tools/habctl/internal/conda"
	"github.com/navlab-tools/habctl/internal/launch"
	"github.com/navlab-tools/habctl/internal/metrics"
	"github.com/navlab-tools/habctl/internal/status"
	"github.com/navlab-tools/habctl/internal/store"
	"github.com/navlab-tools/habctl/pkg/logging"
)

// dispatch is the single path every run takes: activate, enter the
// project root, exec exactly one external command, propagate its exit
// code. History and metrics are recorded best-effort and never block
// or fail the run itself.
func dispatch(spec launch.Spec) error {
	base := newRunLogger()
	defer base.Close()
	log := base.WithField("kind", spec.Kind())

	s := currentSettings()

	env, err := conda.Activate(conda.Options{
		Root:    s.CondaRoot,
		Name:    s.CondaEnv,
		EnvFile: s.EnvFile,
	})
	if err != nil {
		return err
	}
	if err := conda.EnterProject(s.ProjectRoot); err != nil {
		return err
	}

	fmt.Printf("Activated conda environment: %s\n", env.Name)
	fmt.Printf("PYTHONPATH=%s\n", env.Pythonpath())

	history := openHistory(s, log)
	if history != nil {
		defer history.Close()
	}

	collector := metrics.New()
	tracker := status.NewTracker()

	if statusAddr != "" {
		srv := status.NewServer(statusAddr, tracker, collector.Registry(), log)
		srv.Start()
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			srv.Shutdown(ctx)
		}()
	}

	var startedID string
	runner := &launch.Runner{
		Bin:     env.Python(),
		Environ: env.Environ(),
		Log:     log,
		OnStart: func(runID string, pid int, argv []string) {
			startedID = runID
			tracker.SetRunning(runID, spec.Kind(), pid, argv)
			if history == nil {
				return
			}
			err := history.RecordStart(&store.Run{
				ID:        runID,
				Kind:      spec.Kind(),
				Argv:      argv,
				Workdir:   s.ProjectRoot,
				Env:       s.CondaEnv,
				StartedAt: time.Now(),
			})
			if err != nil {
				log.Warn("failed to record run start", map[string]interface{}{"error": err.Error()})
			}
		},
	}

	res, err := runner.Run(context.Background(), spec)
	if err != nil {
		recordAborted(history, startedID, err, log)
		log.Error("run aborted", map[string]interface{}{"error": err.Error()})
		return err
	}

	tracker.SetDone(res.ExitCode)
	collector.ObserveRun(res.Kind, res.ExitCode, res.Duration)

	runStatus := store.RunStatusCompleted
	if res.ExitCode != 0 {
		runStatus = store.RunStatusFailed
	}
	if history != nil {
		if err := history.RecordResult(res.RunID, runStatus, res.ExitCode, "", res.EndTime); err != nil {
			log.Warn("failed to record run result", map[string]interface{}{"error": err.Error()})
		}
	}
	if s.MetricsDir != "" {
		if err := collector.WriteTextfile(s.MetricsDir); err != nil {
			log.Warn("failed to write metrics textfile", map[string]interface{}{"error": err.Error()})
		}
	}

	log.Info("run finished", map[string]interface{}{
		"run_id":   res.RunID,
		"kind":     res.Kind,
		"exit":     res.ExitCode,
		"duration": res.Duration.Round(time.Millisecond).String(),
	})

	if res.ExitCode != 0 {
		if history != nil {
			history.Close()
		}
		os.Exit(res.ExitCode)
	}
	return nil
}

// recordAborted finalizes the history row for a run that started but
// never produced a result, so it does not linger as running.
func recordAborted(history store.Store, runID string, cause error, log *logging.Logger) {
	if history == nil || runID == "" {
		return
	}
	if err := history.RecordResult(runID, store.RunStatusFailed, 1, cause.Error(), time.Now()); err != nil {
		log.Warn("failed to finalize aborted run", map[string]interface{}{"error": err.Error()})
	}
}

func openHistory(s settings, log *logging.Logger) store.Store {
	if s.StorePath == "" {
		return nil
	}
	if err := os.MkdirAll(filepath.Dir(s.StorePath), 0755); err != nil {
		log.Warn("run history disabled", map[string]interface{}{"error": err.Error()})
		return nil
	}
	history, err := store.NewSQLiteStore(s.StorePath)
	if err != nil {
		log.Warn("run history disabled", map[string]interface{}{"error": err.Error()})
		return nil
	}
	return history
}

package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestObserveRunAndTextfile(t *testing.T) {
	c := New()
	c.ObserveRun("eval", 0, 90*time.Second)
	c.ObserveRun("dataset-generate", 1, 5*time.Second)

	dir := t.TempDir()
	if err := c.WriteTextfile(dir); err != nil {
		t.Fatalf("WriteTextfile failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "habctl.prom"))
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	out := string(data)

	if !strings.Contains(out, `habctl_runs_total{kind="eval",status="completed"} 1`) {
		t.Errorf("Expected completed eval counter in output:\n%s", out)
	}
	if !strings.Contains(out, `habctl_runs_total{kind="dataset-generate",status="failed"} 1`) {
		t.Errorf("Expected failed dataset counter in output:\n%s", out)
	}
	if !strings.Contains(out, "habctl_last_run_exit_code 1") {
		t.Errorf("Expected last exit code gauge in output:\n%s", out)
	}
	if !strings.Contains(out, "habctl_run_duration_seconds") {
		t.Errorf("Expected duration histogram in output:\n%s", out)
	}
}

func TestWriteTextfile_Overwrites(t *testing.T) {
	c := New()
	dir := t.TempDir()

	c.ObserveRun("eval", 0, time.Second)
	if err := c.WriteTextfile(dir); err != nil {
		t.Fatalf("First write failed: %v", err)
	}

	c.ObserveRun("eval", 0, time.Second)
	if err := c.WriteTextfile(dir); err != nil {
		t.Fatalf("Second write failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "habctl.prom"))
	if err != nil {
		t.Fatalf("Failed to read textfile: %v", err)
	}
	if !strings.Contains(string(data), `habctl_runs_total{kind="eval",status="completed"} 2`) {
		t.Errorf("Expected updated counter after rewrite:\n%s", string(data))
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("Expected only the final textfile, found %d entries", len(entries))
	}
}

package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(WARN, false)
	log.SetOutput(&buf)

	log.Debug("below threshold")
	log.Info("below threshold")
	log.Warn("surfaced warning")
	log.Error("surfaced error")

	out := buf.String()
	if strings.Contains(out, "below threshold") {
		t.Errorf("Expected debug/info to be filtered at WARN, got:\n%s", out)
	}
	if !strings.Contains(out, "WARN: surfaced warning") {
		t.Errorf("Expected warning in output:\n%s", out)
	}
	if !strings.Contains(out, "ERROR: surfaced error") {
		t.Errorf("Expected error in output:\n%s", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(INFO, true)
	log.SetOutput(&buf)

	log.Info("dispatched", map[string]interface{}{"pid": 42})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not valid JSON: %v\n%s", err, buf.String())
	}
	if entry.Level != "INFO" || entry.Message != "dispatched" {
		t.Errorf("Unexpected entry: %+v", entry)
	}
	if entry.Fields["pid"] != float64(42) {
		t.Errorf("Expected pid field, got %v", entry.Fields)
	}
}

func TestWithField_AttachedToEveryEntry(t *testing.T) {
	var buf bytes.Buffer
	log := NewLogger(INFO, true)
	log.SetOutput(&buf)

	log.WithField("run_id", "run-1").Info("run finished", map[string]interface{}{"exit": 7})

	var entry LogEntry
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("Output is not valid JSON: %v", err)
	}
	if entry.Fields["run_id"] != "run-1" {
		t.Errorf("Expected attached run_id field, got %v", entry.Fields)
	}
	if entry.Fields["exit"] != float64(7) {
		t.Errorf("Expected per-call field preserved, got %v", entry.Fields)
	}
}

func TestParseLevel(t *testing.T) {
	cases := map[string]Level{
		"debug":   DEBUG,
		"INFO":    INFO,
		"warning": WARN,
		"error":   ERROR,
		"bogus":   INFO,
	}
	for in, want := range cases {
		if got := ParseLevel(in); got != want {
			t.Errorf("ParseLevel(%q) = %v, want %v", in, got, want)
		}
	}
}

func TestFileLoggerAppendsToLogFile(t *testing.T) {
	dir := t.TempDir()

	log, err := newFileLoggerAt(dir, "habctl", INFO, false)
	if err != nil {
		t.Fatalf("Failed to create file logger: %v", err)
	}
	log.Info("run finished", map[string]interface{}{"exit": 0})
	if err := log.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	data, err := os.ReadFile(filepath.Join(dir, "habctl.log"))
	if err != nil {
		t.Fatalf("Log file not written: %v", err)
	}
	if !strings.Contains(string(data), "run finished") {
		t.Errorf("Expected entry in log file, got:\n%s", string(data))
	}
}

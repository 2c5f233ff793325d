package status

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/navlab-tools/habctl/internal/metrics"
)

func testServer(t *testing.T) (*Server, *Tracker) {
	t.Helper()
	tracker := NewTracker()
	collector := metrics.New()
	return NewServer("127.0.0.1:0", tracker, collector.Registry(), nil), tracker
}

func TestHealthz(t *testing.T) {
	srv, _ := testServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/healthz", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"ok"`)
}

func TestRunEndpoint_NoActiveRun(t *testing.T) {
	srv, _ := testServer(t)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/run", nil))

	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRunEndpoint_ActiveRun(t *testing.T) {
	srv, tracker := testServer(t)
	tracker.SetRunning("run-42", "eval", 1234, []string{"python", "run.py", "--run-type", "eval"})

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/api/v1/run", nil))

	require.Equal(t, http.StatusOK, rec.Code)

	var got RunStatus
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, "run-42", got.RunID)
	assert.Equal(t, "eval", got.Kind)
	assert.Equal(t, 1234, got.PID)
	assert.Equal(t, "running", got.State)

	tracker.SetDone(3)
	assert.Equal(t, "failed", tracker.Current().State)
}

func TestMetricsEndpoint(t *testing.T) {
	tracker := NewTracker()
	collector := metrics.New()
	collector.ObserveRun("train", 0, 60)
	srv := NewServer("127.0.0.1:0", tracker, collector.Registry(), nil)

	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "habctl_runs_total")
}

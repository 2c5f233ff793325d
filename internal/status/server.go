// Package status serves a small HTTP surface while a long training or
// generation run is in flight: liveness, the current run, and metrics.
package status

import (
	"context"
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/navlab-tools/habctl/pkg/logging"
)

// RunStatus is the currently executing dispatch.
type RunStatus struct {
	RunID     string    `json:"run_id"`
	Kind      string    `json:"kind"`
	Argv      []string  `json:"argv"`
	PID       int       `json:"pid"`
	State     string    `json:"state"`
	StartedAt time.Time `json:"started_at"`
}

// Tracker holds the current run for the server to report.
type Tracker struct {
	mu      sync.RWMutex
	current *RunStatus
}

// NewTracker creates an empty tracker.
func NewTracker() *Tracker {
	return &Tracker{}
}

// SetRunning records the active run.
func (t *Tracker) SetRunning(runID, kind string, pid int, argv []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.current = &RunStatus{
		RunID:     runID,
		Kind:      kind,
		Argv:      argv,
		PID:       pid,
		State:     "running",
		StartedAt: time.Now(),
	}
}

// SetDone marks the active run finished.
func (t *Tracker) SetDone(exitCode int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.current == nil {
		return
	}
	if exitCode == 0 {
		t.current.State = "completed"
	} else {
		t.current.State = "failed"
	}
}

// Current returns a copy of the active run, or nil.
func (t *Tracker) Current() *RunStatus {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if t.current == nil {
		return nil
	}
	cp := *t.current
	return &cp
}

// Server is the in-run status HTTP server.
type Server struct {
	srv *http.Server
	log *logging.Logger
}

// NewServer builds the server with all routes registered.
func NewServer(addr string, tracker *Tracker, registry *prometheus.Registry, log *logging.Logger) *Server {
	r := mux.NewRouter()
	r.HandleFunc("/healthz", handleHealth).Methods("GET")
	r.HandleFunc("/api/v1/run", handleRun(tracker)).Methods("GET")
	r.Handle("/metrics", promhttp.HandlerFor(registry, promhttp.HandlerOpts{})).Methods("GET")

	return &Server{
		srv: &http.Server{
			Addr:         addr,
			Handler:      r,
			ReadTimeout:  10 * time.Second,
			WriteTimeout: 10 * time.Second,
		},
		log: log,
	}
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.srv.Handler
}

// Start serves in the background. The run itself must not block on
// the status surface.
func (s *Server) Start() {
	go func() {
		if err := s.srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			if s.log != nil {
				s.log.Warn("status server stopped", map[string]interface{}{"error": err.Error()})
			}
		}
	}()
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown(ctx context.Context) error {
	return s.srv.Shutdown(ctx)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func handleRun(tracker *Tracker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		current := tracker.Current()
		if current == nil {
			w.WriteHeader(http.StatusNotFound)
			json.NewEncoder(w).Encode(map[string]string{"error": "no active run"})
			return
		}
		json.NewEncoder(w).Encode(current)
	}
}

// Package metrics exposes launch outcomes to Prometheus, both over
// the optional status server and as a node_exporter textfile.
package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/common/expfmt"
)

// Collector owns the habctl metric registry.
type Collector struct {
	registry *prometheus.Registry

	runsTotal    *prometheus.CounterVec
	runDuration  *prometheus.HistogramVec
	lastExitCode prometheus.Gauge
}

// New creates a collector with all run metrics registered.
func New() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
		runsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "habctl_runs_total",
			Help: "Total dispatched runs by kind and status",
		}, []string{"kind", "status"}),
		runDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "habctl_run_duration_seconds",
			Help:    "Wall-clock duration of dispatched runs",
			Buckets: prometheus.ExponentialBuckets(1, 4, 10),
		}, []string{"kind"}),
		lastExitCode: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "habctl_last_run_exit_code",
			Help: "Exit code of the most recent run",
		}),
	}

	registry.MustRegister(c.runsTotal, c.runDuration, c.lastExitCode)
	return c
}

// ObserveRun records one completed dispatch.
func (c *Collector) ObserveRun(kind string, exitCode int, duration time.Duration) {
	status := "completed"
	if exitCode != 0 {
		status = "failed"
	}
	c.runsTotal.WithLabelValues(kind, status).Inc()
	c.runDuration.WithLabelValues(kind).Observe(duration.Seconds())
	c.lastExitCode.Set(float64(exitCode))
}

// Registry returns the gatherer backing the /metrics endpoint.
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the current metric state in text exposition
// format to <dir>/habctl.prom for node_exporter's textfile collector.
// The write is staged through a temp file so the collector never sees
// a partial scrape.
func (c *Collector) WriteTextfile(dir string) error {
	families, err := c.registry.Gather()
	if err != nil {
		return fmt.Errorf("failed to gather metrics: %w", err)
	}

	tmp, err := os.CreateTemp(dir, "habctl.prom.*")
	if err != nil {
		return fmt.Errorf("failed to create metrics file: %w", err)
	}
	defer os.Remove(tmp.Name())

	encoder := expfmt.NewEncoder(tmp, expfmt.NewFormat(expfmt.TypeTextPlain))
	for _, mf := range families {
		if err := encoder.Encode(mf); err != nil {
			tmp.Close()
			return fmt.Errorf("failed to encode metrics: %w", err)
		}
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	return os.Rename(tmp.Name(), filepath.Join(dir, "habctl.prom"))
}

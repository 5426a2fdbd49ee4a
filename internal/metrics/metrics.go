// Package metrics records fetch activity for a grid using Prometheus
// collectors registered on a private registry.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Fetch outcomes
const (
	OutcomeSuccess = "success"
	OutcomeError   = "error"
	OutcomeStale   = "stale"
)

// Collector holds the grid's fetch metrics. A nil *Collector is valid and
// records nothing.
type Collector struct {
	registry *prometheus.Registry

	fetches      *prometheus.CounterVec
	fetchLatency *prometheus.HistogramVec
	rowsLoaded   prometheus.Counter
	editsCleared prometheus.Counter
}

// NewCollector creates a collector whose metrics carry the grid label
func NewCollector(grid string) *Collector {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	labels := prometheus.Labels{"grid": grid}

	return &Collector{
		registry: reg,
		fetches: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name:        "lazygrid_fetches_total",
				Help:        "Fetch requests by strategy and outcome",
				ConstLabels: labels,
			},
			[]string{"strategy", "outcome"},
		),
		fetchLatency: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:        "lazygrid_fetch_duration_seconds",
				Help:        "Fetch latency distribution",
				ConstLabels: labels,
				Buckets:     prometheus.ExponentialBuckets(0.005, 2, 12),
			},
			[]string{"strategy"},
		),
		rowsLoaded: factory.NewCounter(prometheus.CounterOpts{
			Name:        "lazygrid_rows_loaded_total",
			Help:        "Rows merged into the window",
			ConstLabels: labels,
		}),
		editsCleared: factory.NewCounter(prometheus.CounterOpts{
			Name:        "lazygrid_edits_reconciled_total",
			Help:        "Local edits dropped because the source caught up",
			ConstLabels: labels,
		}),
	}
}

// Registry exposes the collector's registry for scraping or inspection
func (c *Collector) Registry() *prometheus.Registry {
	if c == nil {
		return nil
	}
	return c.registry
}

// ObserveFetch records one completed fetch
func (c *Collector) ObserveFetch(strategy, outcome string, d time.Duration) {
	if c == nil {
		return
	}
	c.fetches.WithLabelValues(strategy, outcome).Inc()
	if outcome != OutcomeStale {
		c.fetchLatency.WithLabelValues(strategy).Observe(d.Seconds())
	}
}

// AddRows counts rows merged into the window
func (c *Collector) AddRows(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.rowsLoaded.Add(float64(n))
}

// AddReconciled counts edits dropped by reconciliation
func (c *Collector) AddReconciled(n int) {
	if c == nil || n <= 0 {
		return
	}
	c.editsCleared.Add(float64(n))
}

package metrics

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func counterValue(t *testing.T, c *Collector, name string, labels map[string]string) float64 {
	t.Helper()
	families, err := c.Registry().Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
	scan:
		for _, m := range mf.GetMetric() {
			got := make(map[string]string)
			for _, lp := range m.GetLabel() {
				got[lp.GetName()] = lp.GetValue()
			}
			for k, v := range labels {
				if got[k] != v {
					continue scan
				}
			}
			return m.GetCounter().GetValue()
		}
	}
	return 0
}

func TestObserveFetch(t *testing.T) {
	c := NewCollector("employees")

	c.ObserveFetch("virtualized", OutcomeSuccess, 20*time.Millisecond)
	c.ObserveFetch("virtualized", OutcomeSuccess, 30*time.Millisecond)
	c.ObserveFetch("virtualized", OutcomeStale, 0)
	c.ObserveFetch("paginated", OutcomeError, time.Second)

	assert.Equal(t, 2.0, counterValue(t, c, "lazygrid_fetches_total",
		map[string]string{"grid": "employees", "strategy": "virtualized", "outcome": OutcomeSuccess}))
	assert.Equal(t, 1.0, counterValue(t, c, "lazygrid_fetches_total",
		map[string]string{"strategy": "virtualized", "outcome": OutcomeStale}))
	assert.Equal(t, 1.0, counterValue(t, c, "lazygrid_fetches_total",
		map[string]string{"strategy": "paginated", "outcome": OutcomeError}))

	families, err := c.Registry().Gather()
	require.NoError(t, err)
	var samples uint64
	for _, mf := range families {
		if mf.GetName() == "lazygrid_fetch_duration_seconds" {
			for _, m := range mf.GetMetric() {
				samples += m.GetHistogram().GetSampleCount()
			}
		}
	}
	assert.Equal(t, uint64(3), samples, "stale fetches are not timed")
}

func TestRowAndEditCounters(t *testing.T) {
	c := NewCollector("g")
	c.AddRows(10)
	c.AddRows(0)
	c.AddReconciled(2)

	assert.Equal(t, 10.0, counterValue(t, c, "lazygrid_rows_loaded_total", nil))
	assert.Equal(t, 2.0, counterValue(t, c, "lazygrid_edits_reconciled_total", nil))
}

func TestNilCollectorIsSafe(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.ObserveFetch("virtualized", OutcomeSuccess, time.Millisecond)
		c.AddRows(3)
		c.AddReconciled(1)
	})
	assert.Nil(t, c.Registry())
}

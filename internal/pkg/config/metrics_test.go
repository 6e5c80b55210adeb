package config

import (
	"strings"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewConfigMetrics_Names(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewConfigMetrics(reg, "poller")
	m.RecordFallback("metrics_port")
	m.Loaded(true)

	families, err := reg.Gather()
	require.NoError(t, err)

	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.ElementsMatch(t, []string{
		"poller_config_load_timestamp",
		"poller_config_fallbacks_total",
		"poller_config_fallback_active",
	}, names)
}

func TestNewConfigMetrics_SeparateRegistries(t *testing.T) {
	// Same component twice must not collide when the registries differ.
	a := NewConfigMetrics(prometheus.NewRegistry(), "worker")
	b := NewConfigMetrics(prometheus.NewRegistry(), "worker")

	a.RecordFallback("health_port")

	assert.Equal(t, 1.0, testutil.ToFloat64(a.FallbacksTotal.WithLabelValues("health_port")))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.FallbacksTotal.WithLabelValues("health_port")))
}

func TestNewConfigMetrics_DuplicatePanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewConfigMetrics(reg, "worker")

	assert.Panics(t, func() { NewConfigMetrics(reg, "worker") })
}

func TestRecordFallback_PerField(t *testing.T) {
	m := NewConfigMetrics(prometheus.NewRegistry(), "worker")

	m.RecordFallback("shutdown_timeout")
	m.RecordFallback("shutdown_timeout")
	m.RecordFallback("ports")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("shutdown_timeout")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("ports")))
}

func TestLoaded(t *testing.T) {
	m := NewConfigMetrics(prometheus.NewRegistry(), "worker")

	m.Loaded(true)
	assert.Equal(t, 1.0, testutil.ToFloat64(m.FallbackActive))
	assert.Positive(t, testutil.ToFloat64(m.LoadTimestamp))

	// A later clean load clears the flag.
	m.Loaded(false)
	assert.Equal(t, 0.0, testutil.ToFloat64(m.FallbackActive))
}

func TestConfigMetrics_Exposition(t *testing.T) {
	m := NewConfigMetrics(prometheus.NewRegistry(), "worker")
	m.RecordFallback("metrics_port")

	expected := `
# HELP worker_config_fallbacks_total Settings that were rejected and replaced by their default
# TYPE worker_config_fallbacks_total counter
worker_config_fallbacks_total{field="metrics_port"} 1
`
	assert.NoError(t, testutil.CollectAndCompare(m.FallbacksTotal, strings.NewReader(expected)))
}

func TestConfigMetrics_ConcurrentFallbacks(t *testing.T) {
	m := NewConfigMetrics(prometheus.NewRegistry(), "worker")

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			m.RecordFallback("health_port")
		}()
	}
	wg.Wait()

	assert.Equal(t, 50.0, testutil.ToFloat64(m.FallbacksTotal.WithLabelValues("health_port")))
}

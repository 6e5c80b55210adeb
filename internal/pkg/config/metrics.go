package config

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ConfigMetrics reports how a component's environment settings were resolved.
//
// For a component named "worker" it registers:
//   - worker_config_load_timestamp
//   - worker_config_fallbacks_total{field}
//   - worker_config_fallback_active
type ConfigMetrics struct {
	// LoadTimestamp is the Unix time of the last completed load.
	LoadTimestamp prometheus.Gauge

	// FallbacksTotal counts settings replaced by their default, by field.
	FallbacksTotal *prometheus.CounterVec

	// FallbackActive is 1 while the current configuration holds any default
	// that replaced a rejected value.
	FallbackActive prometheus.Gauge
}

// NewConfigMetrics registers the metrics for component with reg.
// Passing prometheus.DefaultRegisterer exposes them on /metrics; tests pass
// a fresh prometheus.NewRegistry().
func NewConfigMetrics(reg prometheus.Registerer, component string) *ConfigMetrics {
	factory := promauto.With(reg)
	return &ConfigMetrics{
		LoadTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: component,
			Subsystem: "config",
			Name:      "load_timestamp",
			Help:      "Unix timestamp of the last configuration load",
		}),
		FallbacksTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: component,
			Subsystem: "config",
			Name:      "fallbacks_total",
			Help:      "Settings that were rejected and replaced by their default",
		}, []string{"field"}),
		FallbackActive: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: component,
			Subsystem: "config",
			Name:      "fallback_active",
			Help:      "1 if the loaded configuration contains a fallback, 0 otherwise",
		}),
	}
}

// RecordFallback counts one rejected setting.
func (m *ConfigMetrics) RecordFallback(field string) {
	m.FallbacksTotal.WithLabelValues(field).Inc()
}

// Loaded marks the end of a load. fallbackApplied reports whether any
// RecordFallback happened during it.
func (m *ConfigMetrics) Loaded(fallbackApplied bool) {
	m.LoadTimestamp.SetToCurrentTime()
	if fallbackApplied {
		m.FallbackActive.Set(1)
	} else {
		m.FallbackActive.Set(0)
	}
}

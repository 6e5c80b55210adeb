package worker

import (
	"hackerfeed/internal/pkg/config"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// WorkerMetrics provides Prometheus metrics for the poller process.
// It embeds the standard ConfigMetrics for configuration monitoring and adds
// metrics describing poll cycle outcomes.
//
// Embedded metrics (from ConfigMetrics):
//   - worker_config_load_timestamp: Unix timestamp of last configuration load
//   - worker_config_fallbacks_total: Total fallback operations by field
//   - worker_config_fallback_active: 1 if any fallback active, 0 otherwise
//
// Poll metrics:
//   - worker_poll_cycles_total: Total poll cycles by terminal state
//   - worker_poll_cycle_duration_seconds: Duration histogram of poll cycles
//   - worker_poll_new_stories_total: Total stories first seen by the poller
//   - worker_poll_last_success_timestamp: Unix timestamp of last successful cycle
//   - worker_poll_next_delay_seconds: Delay scheduled after the latest cycle
//
// Example usage:
//
//	metrics := NewWorkerMetrics(prometheus.DefaultRegisterer)
//	metrics.RecordCycle("completed", time.Since(start).Seconds())
//	metrics.RecordNewStories(3)
//	metrics.RecordLastSuccess()
type WorkerMetrics struct {
	*config.ConfigMetrics

	// PollCyclesTotal counts finished poll cycles.
	// Labels: state (completed, no_new, fetch_failed, parse_failed, canceled)
	PollCyclesTotal *prometheus.CounterVec

	// PollCycleDurationSeconds measures wall time spent in one cycle.
	PollCycleDurationSeconds prometheus.Histogram

	// PollNewStoriesTotal counts stories that were not in history when fetched.
	PollNewStoriesTotal prometheus.Counter

	// PollLastSuccessTimestamp records the Unix timestamp of the last cycle
	// that parsed the listing.
	PollLastSuccessTimestamp prometheus.Gauge

	// PollNextDelaySeconds holds the wait scheduled after the latest cycle.
	PollNextDelaySeconds prometheus.Gauge
}

// NewWorkerMetrics registers every worker metric with reg. Registering twice
// with the same registry panics.
func NewWorkerMetrics(reg prometheus.Registerer) *WorkerMetrics {
	factory := promauto.With(reg)
	return &WorkerMetrics{
		ConfigMetrics: config.NewConfigMetrics(reg, "worker"),

		PollCyclesTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "worker_poll_cycles_total",
			Help: "Total number of poll cycles by terminal state",
		}, []string{"state"}),

		PollCycleDurationSeconds: factory.NewHistogram(prometheus.HistogramOpts{
			Name:    "worker_poll_cycle_duration_seconds",
			Help:    "Duration of poll cycles in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60},
		}),

		PollNewStoriesTotal: factory.NewCounter(prometheus.CounterOpts{
			Name: "worker_poll_new_stories_total",
			Help: "Total number of stories first seen by the poller",
		}),

		PollLastSuccessTimestamp: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_poll_last_success_timestamp",
			Help: "Unix timestamp of the last successful poll cycle",
		}),

		PollNextDelaySeconds: factory.NewGauge(prometheus.GaugeOpts{
			Name: "worker_poll_next_delay_seconds",
			Help: "Delay in seconds scheduled after the latest poll cycle",
		}),
	}
}

// RecordCycle increments the cycle counter for state and observes its duration.
//
// Parameters:
//   - state: Terminal state of the cycle (e.g. "completed", "fetch_failed")
//   - seconds: Cycle duration in seconds
func (m *WorkerMetrics) RecordCycle(state string, seconds float64) {
	m.PollCyclesTotal.WithLabelValues(state).Inc()
	m.PollCycleDurationSeconds.Observe(seconds)
}

// RecordNewStories adds count to the new story counter. Non-positive counts are ignored.
func (m *WorkerMetrics) RecordNewStories(count int) {
	if count <= 0 {
		return
	}
	m.PollNewStoriesTotal.Add(float64(count))
}

// RecordNextDelay sets the scheduled delay gauge.
func (m *WorkerMetrics) RecordNextDelay(seconds float64) {
	m.PollNextDelaySeconds.Set(seconds)
}

// RecordLastSuccess records the current time as the last successful cycle.
func (m *WorkerMetrics) RecordLastSuccess() {
	m.PollLastSuccessTimestamp.SetToCurrentTime()
}

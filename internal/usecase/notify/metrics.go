package notify

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// outcome is the fate of one batch on one channel.
type outcome string

const (
	outcomeSent        outcome = "sent"
	outcomeFailed      outcome = "failed"
	outcomeCircuitOpen outcome = "circuit_open"
	outcomePoolFull    outcome = "pool_full"
	outcomeShutdown    outcome = "shutdown"
)

var (
	batchesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_batches_total",
			Help: "Notification batches handed to a channel, by outcome",
		},
		[]string{"channel", "outcome"},
	)

	sendDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "notify_send_duration_seconds",
			Help:    "Time spent delivering one batch to one channel",
			Buckets: []float64{0.05, 0.25, 1, 5, 15, 60},
		},
		[]string{"channel"},
	)

	storiesDelivered = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_stories_delivered_total",
			Help: "Stories delivered in successfully sent batches",
		},
		[]string{"channel"},
	)

	breakerOpened = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "notify_circuit_open_events_total",
			Help: "Times a channel's circuit breaker opened",
		},
		[]string{"channel"},
	)

	inflight = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notify_inflight_deliveries",
		Help: "Channel deliveries currently running or waiting for a worker slot",
	})

	channelsEnabled = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "notify_channels_enabled",
		Help: "Notification channels enabled in configuration",
	})
)

// recordSend records a batch that reached the channel's transport.
// Only sent batches count their stories.
func recordSend(channel string, err error, took time.Duration, stories int) {
	sendDuration.WithLabelValues(channel).Observe(took.Seconds())
	if err != nil {
		batchesTotal.WithLabelValues(channel, string(outcomeFailed)).Inc()
		return
	}
	batchesTotal.WithLabelValues(channel, string(outcomeSent)).Inc()
	storiesDelivered.WithLabelValues(channel).Add(float64(stories))
}

// recordDropped records a batch that never reached the transport.
func recordDropped(channel string, why outcome) {
	batchesTotal.WithLabelValues(channel, string(why)).Inc()
}

func recordBreakerOpened(channel string) {
	breakerOpened.WithLabelValues(channel).Inc()
}

// trackInflight counts one delivery goroutine until the returned func runs.
func trackInflight() (done func()) {
	inflight.Inc()
	return inflight.Dec
}

func setChannelsEnabled(n int) {
	channelsEnabled.Set(float64(n))
}

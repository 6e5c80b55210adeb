// Package metrics provides centralized Prometheus metrics for the application.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// HTTP metrics track requests served by the ops endpoints
var (
	// HTTPRequestsTotal counts total HTTP requests by method, path, and status
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "path", "status"},
	)

	// HTTPRequestDuration measures HTTP request duration in seconds
	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "path", "status"},
	)
)

// Business metrics track the listing pipeline
var (
	// ListingFetchDuration measures the time to download the listing page
	ListingFetchDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hackerfeed_listing_fetch_duration_seconds",
			Help:    "Time taken to fetch the listing page",
			Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 4, 8, 16},
		},
	)

	// ListingFetchFailuresTotal counts failed fetches by failure kind
	ListingFetchFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackerfeed_listing_fetch_failures_total",
			Help: "Total number of listing fetch failures",
		},
		[]string{"kind"}, // timeout, transport, http_status, circuit_open
	)

	// ListingParseFailuresTotal counts listing pages that yielded no stories
	ListingParseFailuresTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackerfeed_listing_parse_failures_total",
			Help: "Total number of listing parse failures",
		},
		[]string{"kind"}, // encoding, markup, empty
	)

	// StoriesExtractedTotal counts story links extracted from the listing
	StoriesExtractedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hackerfeed_stories_extracted_total",
			Help: "Total number of story links extracted from the listing",
		},
	)

	// StoriesNewTotal counts stories not seen before
	StoriesNewTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hackerfeed_stories_new_total",
			Help: "Total number of previously unseen stories",
		},
	)

	// StoriesMatchedTotal counts new stories accepted by the filter
	StoriesMatchedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hackerfeed_stories_matched_total",
			Help: "Total number of new stories matching the keyword or domain filter",
		},
	)

	// ArchiveWritesTotal counts archive appends by result
	ArchiveWritesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackerfeed_archive_writes_total",
			Help: "Total number of archive append operations",
		},
		[]string{"result"}, // success, failure
	)

	// ArchiveLinesTotal counts lines appended to archives
	ArchiveLinesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hackerfeed_archive_lines_total",
			Help: "Total number of lines appended to archive files",
		},
	)

	// HistorySize tracks the number of URLs in the in-memory history
	HistorySize = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "hackerfeed_history_size",
			Help: "Number of story URLs in the seen history",
		},
	)

	// StateSavesTotal counts history saves by result
	StateSavesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hackerfeed_state_saves_total",
			Help: "Total number of history state file saves",
		},
		[]string{"result"}, // success, failure
	)
)

// RecordHTTPRequest records an HTTP request with its metadata
func RecordHTTPRequest(method, path, status string, duration time.Duration) {
	HTTPRequestsTotal.WithLabelValues(method, path, status).Inc()
	HTTPRequestDuration.WithLabelValues(method, path, status).Observe(duration.Seconds())
}

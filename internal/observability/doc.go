// Package observability provides the logging, metrics, and tracing used by the poller.
//
// Subpackages:
//   - logging: Structured logging utilities with slog
//   - metrics: Prometheus metrics for poll cycles and stories
//   - tracing: OpenTelemetry tracer and HTTP middleware
//
// Example usage:
//
//	import (
//	    "hackerfeed/internal/observability/logging"
//	    "hackerfeed/internal/observability/metrics"
//	)
//
//	func main() {
//	    logger := logging.New()
//	    logger.Info("application started")
//
//	    metrics.RecordStories(30, 4, 1)
//	}
package observability

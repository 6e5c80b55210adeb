// Package logging provides structured logging utilities with context propagation.
//
// This package wraps the standard library's log/slog package with helper functions
// for common logging patterns used throughout the application.
//
// Key features:
//   - JSON and text output formats (LOG_FORMAT=text)
//   - Configurable log levels (LOG_LEVEL)
//   - Per poll cycle identifiers and trace IDs
//   - Context-aware logging
//
// Example usage:
//
//	import "hackerfeed/internal/observability/logging"
//
//	func main() {
//	    logger := logging.New()
//	    logger.Info("application started", slog.String("version", "1.0"))
//	}
//
//	func runCycle(ctx context.Context, base *slog.Logger) {
//	    ctx = logging.WithCycleID(ctx, base, logging.NewCycleID())
//	    logging.FromContext(ctx).Info("fetching listing")
//	}
package logging

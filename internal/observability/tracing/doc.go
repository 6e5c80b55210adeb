// Package tracing provides OpenTelemetry tracing integration.
//
// Spans are opened around each poll cycle, each listing fetch, and each
// request to the ops endpoints. Trace IDs are attached to log records and
// returned to HTTP clients in the X-Trace-Id header so the two can be
// correlated.
//
// Example usage:
//
//	import "hackerfeed/internal/observability/tracing"
//
//	func main() {
//	    shutdown := tracing.InitProvider(1.0)
//	    defer func() { _ = shutdown(context.Background()) }()
//	}
//
//	func fetch(ctx context.Context) {
//	    ctx, span := tracing.GetTracer().Start(ctx, "listing.fetch")
//	    defer span.End()
//	    // ...
//	}
package tracing

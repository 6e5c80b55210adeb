package tracing

import (
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/trace"
)

// TracerName is the instrumentation scope of every span the poller creates.
const TracerName = "hackerfeed"

// GetTracer returns the tracer of the current global provider. It is looked
// up on every call so that a provider installed after package init (by
// InitProvider or a test) is always honoured.
//
//	ctx, span := tracing.GetTracer().Start(ctx, "poll.cycle")
//	defer span.End()
func GetTracer() trace.Tracer {
	return otel.Tracer(TracerName)
}

// Package logging provides structured logging utilities using the standard library's log/slog package.
// It offers helper functions for creating loggers with consistent configuration and context propagation.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	envconfig "hackerfeed/pkg/config"

	"github.com/google/uuid"
)

// CycleIDKey is the log attribute naming the poll cycle a record belongs to.
const CycleIDKey = "cycle_id"

// TraceIDKey is the log attribute holding the OpenTelemetry trace ID.
const TraceIDKey = "trace_id"

// ParseLevel maps a LOG_LEVEL value to a slog level.
// Unknown or empty values yield info.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// New creates the process logger. LOG_FORMAT=text selects the text handler,
// anything else JSON.
func New() *slog.Logger {
	if strings.EqualFold(envconfig.GetEnvString("LOG_FORMAT", "json"), "text") {
		return NewTextLogger()
	}
	return NewLogger()
}

// NewLogger creates a new structured logger with JSON output.
// The log level can be controlled via the LOG_LEVEL environment variable.
// Supported levels: debug, info, warn, error
// Default level: info
func NewLogger() *slog.Logger {
	return newJSONLogger(os.Stdout, ParseLevel(envconfig.GetEnvString("LOG_LEVEL", "info")))
}

// NewTextLogger creates a new structured logger with human-readable text output.
// This is useful for local development and debugging.
func NewTextLogger() *slog.Logger {
	logLevel := ParseLevel(envconfig.GetEnvString("LOG_LEVEL", "info"))

	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level:     logLevel,
		AddSource: logLevel <= slog.LevelDebug,
	})

	return slog.New(handler)
}

func newJSONLogger(w io.Writer, level slog.Level) *slog.Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: level,
		// Source locations are only worth their size while debugging
		AddSource: level <= slog.LevelDebug,
	})
	return slog.New(handler)
}

// NewCycleID returns a fresh identifier for one poll cycle.
func NewCycleID() string {
	return uuid.NewString()
}

// WithCycleID returns a context carrying a logger tagged with cycleID.
// The logger is derived from the one already in ctx, or from base when ctx has none.
func WithCycleID(ctx context.Context, base *slog.Logger, cycleID string) context.Context {
	logger, ok := ctx.Value(loggerContextKey).(*slog.Logger)
	if !ok {
		logger = base
	}
	if logger == nil {
		logger = slog.Default()
	}
	return WithLogger(ctx, logger.With(slog.String(CycleIDKey, cycleID)))
}

// WithTraceID tags the context logger with traceID so log records can be
// matched to spans. An empty traceID (no sampled span) leaves ctx unchanged.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return WithLogger(ctx, FromContext(ctx).With(slog.String(TraceIDKey, traceID)))
}

// FromContext retrieves the logger from the context, or returns the default logger if not found.
// This enables passing loggers through the application via context.
func FromContext(ctx context.Context) *slog.Logger {
	if logger, ok := ctx.Value(loggerContextKey).(*slog.Logger); ok {
		return logger
	}
	return slog.Default()
}

// WithLogger adds a logger to the context.
func WithLogger(ctx context.Context, logger *slog.Logger) context.Context {
	return context.WithValue(ctx, loggerContextKey, logger)
}

type contextKey string

const loggerContextKey contextKey = "logger"

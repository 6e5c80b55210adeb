package worker

import (
	"errors"
	"fmt"
	"log/slog"
	"time"

	"hackerfeed/internal/pkg/config"
)

// WorkerConfig holds the process-level settings of the poller: ops ports,
// notification concurrency, shutdown budget and trace sampling.
//
// Feed behaviour (interval, keywords, notifiers) lives in the YAML file
// loaded by internal/config. These values come from the environment so they
// can differ per deployment without touching the file.
//
// Example usage:
//
//	cfg, _ := LoadConfigFromEnv(logger, metrics)
//	healthServer := NewHealthServer(fmt.Sprintf(":%d", cfg.HealthPort), logger)
type WorkerConfig struct {
	// HealthPort serves /health, /health/ready and /health/poll.
	// Range: 1024-65535. Default: 9091
	HealthPort int

	// MetricsPort serves /metrics and /health/channels.
	// Range: 1024-65535. Default: 9090
	MetricsPort int

	// NotifyMaxConcurrent bounds concurrent channel deliveries.
	// Range: 1-50. Default: 10
	NotifyMaxConcurrent int

	// ShutdownTimeout bounds the wait for in-flight notifications on exit.
	// Range: 1s-5m. Default: 30s
	ShutdownTimeout time.Duration

	// TraceSampleRatio is the fraction of poll cycles that are traced.
	// Range: 0-1. Default: 1
	TraceSampleRatio float64
}

// DefaultConfig returns a WorkerConfig with default values.
func DefaultConfig() WorkerConfig {
	return WorkerConfig{
		HealthPort:          9091,
		MetricsPort:         9090,
		NotifyMaxConcurrent: 10,
		ShutdownTimeout:     30 * time.Second,
		TraceSampleRatio:    1.0,
	}
}

func validatePort(v int) error {
	return config.ValidateIntRange(v, 1024, 65535)
}

func validateNotifyMaxConcurrent(v int) error {
	return config.ValidateIntRange(v, 1, 50)
}

func validateShutdownTimeout(d time.Duration) error {
	return config.ValidateDuration(d, time.Second, 5*time.Minute)
}

func validateSampleRatio(v float64) error {
	return config.ValidateFloatRange(v, 0, 1)
}

// Validate checks every field and returns all violations joined together.
func (c *WorkerConfig) Validate() error {
	var errs []error

	if err := validatePort(c.HealthPort); err != nil {
		errs = append(errs, fmt.Errorf("health port: %w", err))
	}
	if err := validatePort(c.MetricsPort); err != nil {
		errs = append(errs, fmt.Errorf("metrics port: %w", err))
	}
	if c.HealthPort == c.MetricsPort {
		errs = append(errs, fmt.Errorf("health port and metrics port must differ, both are %d", c.HealthPort))
	}
	if err := validateNotifyMaxConcurrent(c.NotifyMaxConcurrent); err != nil {
		errs = append(errs, fmt.Errorf("notify max concurrent: %w", err))
	}
	if err := validateShutdownTimeout(c.ShutdownTimeout); err != nil {
		errs = append(errs, fmt.Errorf("shutdown timeout: %w", err))
	}
	if err := validateSampleRatio(c.TraceSampleRatio); err != nil {
		errs = append(errs, fmt.Errorf("trace sample ratio: %w", err))
	}

	if len(errs) > 0 {
		return fmt.Errorf("validation failed: %w", errors.Join(errs...))
	}
	return nil
}

// LoadConfigFromEnv loads worker configuration from environment variables
// with validation and automatic fallback to default values on failure.
//
// This function implements the fail-open strategy:
//  1. Start with DefaultConfig() as base
//  2. Load and validate each field from its environment variable
//  3. On failure keep the default, log a warning and count it in metrics
//  4. Never return error - always return a valid configuration
//
// Environment variables:
//   - WORKER_HEALTH_PORT: Integer 1024-65535 (default: 9091)
//   - METRICS_PORT: Integer 1024-65535 (default: 9090)
//   - NOTIFY_MAX_CONCURRENT: Integer 1-50 (default: 10)
//   - SHUTDOWN_TIMEOUT: Duration 1s-5m (default: 30s)
//   - TRACE_SAMPLE_RATIO: Number 0-1 (default: 1)
func LoadConfigFromEnv(logger *slog.Logger, metrics *WorkerMetrics) (*WorkerConfig, error) {
	cfg := DefaultConfig()
	fallbackApplied := false

	record := func(field, metricField string, result config.ConfigLoadResult) {
		if !result.FallbackApplied {
			return
		}
		fallbackApplied = true
		metrics.RecordFallback(metricField)
		for _, warning := range result.Warnings {
			logger.Warn("configuration fallback applied",
				slog.String("field", field),
				slog.String("warning", warning))
		}
	}

	result := config.LoadEnvInt("WORKER_HEALTH_PORT", cfg.HealthPort, validatePort)
	cfg.HealthPort = result.Value.(int)
	record("HealthPort", "health_port", result)

	result = config.LoadEnvInt("METRICS_PORT", cfg.MetricsPort, validatePort)
	cfg.MetricsPort = result.Value.(int)
	record("MetricsPort", "metrics_port", result)

	result = config.LoadEnvInt("NOTIFY_MAX_CONCURRENT", cfg.NotifyMaxConcurrent, validateNotifyMaxConcurrent)
	cfg.NotifyMaxConcurrent = result.Value.(int)
	record("NotifyMaxConcurrent", "notify_max_concurrent", result)

	result = config.LoadEnvDuration("SHUTDOWN_TIMEOUT", cfg.ShutdownTimeout, validateShutdownTimeout)
	cfg.ShutdownTimeout = result.Value.(time.Duration)
	record("ShutdownTimeout", "shutdown_timeout", result)

	result = config.LoadEnvFloat("TRACE_SAMPLE_RATIO", cfg.TraceSampleRatio, validateSampleRatio)
	cfg.TraceSampleRatio = result.Value.(float64)
	record("TraceSampleRatio", "trace_sample_ratio", result)

	// Ports are checked individually above; a collision falls back to both defaults.
	if cfg.HealthPort == cfg.MetricsPort {
		fallbackApplied = true
		metrics.RecordFallback("ports")
		logger.Warn("configuration fallback applied",
			slog.String("field", "HealthPort/MetricsPort"),
			slog.String("warning", fmt.Sprintf("health and metrics ports both %d, falling back to defaults", cfg.HealthPort)))
		def := DefaultConfig()
		cfg.HealthPort, cfg.MetricsPort = def.HealthPort, def.MetricsPort
	}

	metrics.Loaded(fallbackApplied)

	return &cfg, nil
}

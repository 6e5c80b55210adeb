// Package config provides fail-open loaders and validators for settings read
// from environment variables.
//
// A loader never fails: an unset variable yields the default silently, and an
// unparsable or invalid value yields the default plus a warning that the
// caller logs and counts in ConfigMetrics.
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"
)

// ConfigLoadResult represents the result of loading a configuration value.
//
// Fields:
//   - Value: The loaded configuration value (may be fallback if validation failed)
//   - Warnings: List of warning messages (one per fallback applied)
//   - FallbackApplied: True if the default value was used due to validation failure
//
// Example:
//
//	result := LoadEnvDuration("SHUTDOWN_TIMEOUT", 30*time.Second, ValidatePositiveDuration)
//	if result.FallbackApplied {
//	    for _, warning := range result.Warnings {
//	        logger.Warn("configuration fallback applied", slog.String("warning", warning))
//	    }
//	}
//	timeout := result.Value.(time.Duration)
type ConfigLoadResult struct {
	Value           interface{}
	Warnings        []string
	FallbackApplied bool
}

// loadEnv implements the shared read, parse, validate, fall back sequence.
// kind names the expected format in parse warnings.
func loadEnv[T any](envKey string, defaultValue T, kind string, parse func(string) (T, error), validator func(T) error) ConfigLoadResult {
	valueStr := os.Getenv(envKey)
	if valueStr == "" {
		return ConfigLoadResult{Value: defaultValue}
	}

	fallback := func(reason string) ConfigLoadResult {
		return ConfigLoadResult{
			Value: defaultValue,
			Warnings: []string{fmt.Sprintf("Invalid %s='%s': %s, falling back to default '%v'",
				envKey, valueStr, reason, defaultValue)},
			FallbackApplied: true,
		}
	}

	parsed, err := parse(valueStr)
	if err != nil {
		return fallback("invalid " + kind + " format")
	}

	if validator != nil {
		if err := validator(parsed); err != nil {
			return fallback(err.Error())
		}
	}

	return ConfigLoadResult{Value: parsed}
}

// LoadEnvDuration loads a Go duration string ("30s", "5m") from envKey.
//
// Warning formats:
//   - Parse error: "Invalid {envKey}='{value}': invalid duration format, falling back to default '{default}'"
//   - Validation error: "Invalid {envKey}='{value}': {error}, falling back to default '{default}'"
func LoadEnvDuration(envKey string, defaultValue time.Duration, validator func(time.Duration) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, "duration", time.ParseDuration, validator)
}

// LoadEnvInt loads a base-10 integer from envKey.
//
// Example:
//
//	result := LoadEnvInt("METRICS_PORT", 9090, func(v int) error {
//	    return ValidateIntRange(v, 1024, 65535)
//	})
//	port := result.Value.(int)
func LoadEnvInt(envKey string, defaultValue int, validator func(int) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, "integer", strconv.Atoi, validator)
}

// LoadEnvFloat loads a decimal number from envKey.
func LoadEnvFloat(envKey string, defaultValue float64, validator func(float64) error) ConfigLoadResult {
	return loadEnv(envKey, defaultValue, "number", func(s string) (float64, error) {
		return strconv.ParseFloat(s, 64)
	}, validator)
}

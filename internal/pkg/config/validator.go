package config

import (
	"cmp"
	"fmt"
	"math"
	"time"

	"github.com/robfig/cron/v3"
)

// standardParser accepts the 5-field "minute hour day month weekday" format.
var standardParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// ValidateCronSchedule validates a 5-field cron expression with the
// robfig/cron/v3 parser.
//
// Example:
//
//	err := ValidateCronSchedule("*/5 * * * *")  // every five minutes
//	err = ValidateCronSchedule("0 8-18 * * 1-5") // hourly during weekday office hours
func ValidateCronSchedule(schedule string) error {
	if schedule == "" {
		return fmt.Errorf("invalid cron schedule: cannot be empty")
	}
	if _, err := standardParser.Parse(schedule); err != nil {
		return fmt.Errorf("invalid cron schedule '%s': %w", schedule, err)
	}
	return nil
}

// ValidateTimezone checks that timezone is an IANA name time.LoadLocation can
// resolve ("UTC", "Europe/Berlin"). A container without tzdata rejects
// every name except "UTC".
func ValidateTimezone(timezone string) error {
	if timezone == "" {
		return fmt.Errorf("invalid timezone: cannot be empty")
	}
	if _, err := time.LoadLocation(timezone); err != nil {
		return fmt.Errorf("invalid timezone '%s': %w", timezone, err)
	}
	return nil
}

func validateRange[T cmp.Ordered](what string, value, min, max T) error {
	if min > max {
		return fmt.Errorf("invalid range: min (%v) cannot be greater than max (%v)", min, max)
	}
	if value < min {
		return fmt.Errorf("%s %v is below minimum %v", what, value, min)
	}
	if value > max {
		return fmt.Errorf("%s %v exceeds maximum %v", what, value, max)
	}
	return nil
}

// ValidateDuration validates that duration lies within [min, max].
//
// Example:
//
//	err := ValidateDuration(10*time.Second, time.Second, 2*time.Minute)
func ValidateDuration(duration, min, max time.Duration) error {
	return validateRange("duration", duration, min, max)
}

// ValidateIntRange validates that value lies within [min, max].
func ValidateIntRange(value, min, max int) error {
	return validateRange("value", value, min, max)
}

// ValidateFloatRange validates that value lies within [min, max].
// NaN is always rejected.
func ValidateFloatRange(value, min, max float64) error {
	if math.IsNaN(value) {
		return fmt.Errorf("value is not a number")
	}
	return validateRange("value", value, min, max)
}

// ValidatePositiveDuration validates that a duration is strictly positive.
// Zero usually means "disabled" or "infinite", which callers never want for
// timeouts and backoffs.
func ValidatePositiveDuration(duration time.Duration) error {
	if duration <= 0 {
		return fmt.Errorf("duration must be positive, got %v", duration)
	}
	return nil
}

package fetcher

import (
	"errors"
	"fmt"
	"time"
)

const (
	minBodySize = 1 << 10
	maxBodySize = 100 << 20
)

// ListingConfig controls the single GET issued per poll cycle.
type ListingConfig struct {
	// URL is the listing page. Absolute http or https only.
	URL string

	UserAgent string

	// Timeout bounds one request including the body read, so a stalled
	// server cannot hold up the poll loop.
	Timeout time.Duration

	// MaxBodySize caps the bytes read from the response. A larger page is a
	// transport failure rather than a truncated parse.
	MaxBodySize int64

	// MaxRedirects is how many redirects are followed before giving up.
	MaxRedirects int

	// BreakerCooldown is how long the circuit breaker stays open after a run
	// of failures. Keep it at or below the poll retry backoff.
	BreakerCooldown time.Duration
}

// DefaultConfig fetches Hacker News "newest" with a 10s timeout and a 5MB body cap.
func DefaultConfig() ListingConfig {
	return ListingConfig{
		URL:             "https://news.ycombinator.com/newest",
		UserAgent:       "hackerfeed/1.0",
		Timeout:         10 * time.Second,
		MaxBodySize:     5 << 20,
		MaxRedirects:    5,
		BreakerCooldown: 30 * time.Second,
	}
}

// Validate reports every invalid field at once.
func (c *ListingConfig) Validate() error {
	var errs []error
	if err := validateURL(c.URL); err != nil {
		errs = append(errs, err)
	}
	if c.Timeout <= 0 {
		errs = append(errs, fmt.Errorf("timeout must be positive, got %v", c.Timeout))
	}
	if c.MaxBodySize < minBodySize || c.MaxBodySize > maxBodySize {
		errs = append(errs, fmt.Errorf("max body size must be within [%d, %d] bytes, got %d",
			minBodySize, maxBodySize, c.MaxBodySize))
	}
	if c.MaxRedirects < 0 || c.MaxRedirects > 10 {
		errs = append(errs, fmt.Errorf("max redirects must be within [0, 10], got %d", c.MaxRedirects))
	}
	if c.BreakerCooldown <= 0 {
		errs = append(errs, fmt.Errorf("breaker cooldown must be positive, got %v", c.BreakerCooldown))
	}
	return errors.Join(errs...)
}

// Package circuitbreaker guards calls to the listing page and to notification
// transports. It wraps github.com/sony/gobreaker and trips on a run of
// consecutive failures.
package circuitbreaker

import (
	"errors"
	"log/slog"
	"time"

	"github.com/sony/gobreaker"
)

// Config describes one breaker.
type Config struct {
	// Name identifies the breaker in logs and health output.
	Name string

	// Failures is the number of consecutive failures that opens the breaker.
	Failures uint32

	// Cooldown is how long the breaker stays open before a single probe
	// call is let through.
	Cooldown time.Duration

	// Window clears the counters periodically while closed.
	// Zero keeps them until the state changes.
	Window time.Duration

	// OnStateChange, if set, runs after every transition.
	OnStateChange func(name string, from, to gobreaker.State)
}

// ListingFetchConfig is used for the listing page fetch. The cooldown must
// not exceed the poll loop's retry backoff, so that every retry after the
// breaker opens is let through as the half-open probe.
func ListingFetchConfig(cooldown time.Duration) Config {
	return Config{
		Name:     "listing-fetch",
		Failures: 5,
		Cooldown: cooldown,
	}
}

// NotifyChannelConfig is used for each notification channel.
func NotifyChannelConfig(channel string) Config {
	return Config{
		Name:     "notify-" + channel,
		Failures: 5,
		Cooldown: 5 * time.Minute,
	}
}

// Breaker is a consecutive-failure circuit breaker.
type Breaker struct {
	cb  *gobreaker.CircuitBreaker
	cfg Config
}

// New returns a closed breaker. A zero Failures is treated as 1.
func New(cfg Config) *Breaker {
	threshold := max(cfg.Failures, 1)
	cfg.Failures = threshold

	settings := gobreaker.Settings{
		Name:        cfg.Name,
		MaxRequests: 1,
		Interval:    cfg.Window,
		Timeout:     cfg.Cooldown,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			slog.Warn("circuit breaker state changed",
				slog.String("circuit", name),
				slog.String("from", from.String()),
				slog.String("to", to.String()))
			if cfg.OnStateChange != nil {
				cfg.OnStateChange(name, from, to)
			}
		},
	}

	return &Breaker{cb: gobreaker.NewCircuitBreaker(settings), cfg: cfg}
}

// Do runs fn through the breaker. While the breaker is open, fn is not
// called and the returned error satisfies IsRejected.
func (b *Breaker) Do(fn func() error) error {
	_, err := b.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return err
}

// Call is Do for functions that return a value.
func Call[T any](b *Breaker, fn func() (T, error)) (T, error) {
	var out T
	err := b.Do(func() error {
		v, err := fn()
		out = v
		return err
	})
	return out, err
}

func (b *Breaker) Name() string { return b.cfg.Name }

func (b *Breaker) State() gobreaker.State { return b.cb.State() }

func (b *Breaker) IsOpen() bool { return b.cb.State() == gobreaker.StateOpen }

// Threshold returns the consecutive-failure count that opens the breaker.
func (b *Breaker) Threshold() uint32 { return b.cfg.Failures }

// Cooldown returns how long the breaker stays open.
func (b *Breaker) Cooldown() time.Duration { return b.cfg.Cooldown }

// IsRejected reports whether err came from the breaker refusing a call,
// as opposed to an error returned by the guarded function.
func IsRejected(err error) bool {
	return errors.Is(err, gobreaker.ErrOpenState) || errors.Is(err, gobreaker.ErrTooManyRequests)
}

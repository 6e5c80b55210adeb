package notifier

import (
	"context"
	"sync"
	"time"

	"golang.org/x/time/rate"
)

// RateLimiter paces requests to one webhook endpoint.
//
// It combines a token bucket with a hold: after the endpoint answers 429,
// HoldFor stops every caller until the server's retry_after has passed,
// not only the request that was rejected.
type RateLimiter struct {
	bucket *rate.Limiter

	mu        sync.Mutex
	heldUntil time.Time
}

// NewRateLimiter allows perSecond requests on average with bursts of burst.
func NewRateLimiter(perSecond float64, burst int) *RateLimiter {
	return &RateLimiter{bucket: rate.NewLimiter(rate.Limit(perSecond), burst)}
}

// Wait blocks until any hold has expired and a token is available.
func (r *RateLimiter) Wait(ctx context.Context) error {
	if d := r.remainingHold(); d > 0 {
		timer := time.NewTimer(d)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		}
	}
	return r.bucket.Wait(ctx)
}

// HoldFor blocks Wait for d from now. It never shortens an existing hold.
func (r *RateLimiter) HoldFor(d time.Duration) {
	until := time.Now().Add(d)
	r.mu.Lock()
	defer r.mu.Unlock()
	if until.After(r.heldUntil) {
		r.heldUntil = until
	}
}

func (r *RateLimiter) remainingHold() time.Duration {
	r.mu.Lock()
	defer r.mu.Unlock()
	return time.Until(r.heldUntil)
}

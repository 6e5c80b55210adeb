package notifier

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRateLimiter_BurstIsImmediate(t *testing.T) {
	limiter := NewRateLimiter(1, 3)

	start := time.Now()
	for i := 0; i < 3; i++ {
		require.NoError(t, limiter.Wait(context.Background()))
	}
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiter_BlocksWhenEmpty(t *testing.T) {
	limiter := NewRateLimiter(1, 1)
	require.NoError(t, limiter.Wait(context.Background()))

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	assert.Error(t, limiter.Wait(ctx), "second token is a second away")
}

func TestRateLimiter_Refills(t *testing.T) {
	limiter := NewRateLimiter(20, 1)
	require.NoError(t, limiter.Wait(context.Background()))

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	elapsed := time.Since(start)

	assert.GreaterOrEqual(t, elapsed, 30*time.Millisecond)
	assert.Less(t, elapsed, 500*time.Millisecond)
}

func TestRateLimiter_HoldFor(t *testing.T) {
	limiter := NewRateLimiter(1000, 10)
	limiter.HoldFor(80 * time.Millisecond)

	start := time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	assert.GreaterOrEqual(t, time.Since(start), 70*time.Millisecond)

	// Expired hold no longer delays.
	start = time.Now()
	require.NoError(t, limiter.Wait(context.Background()))
	assert.Less(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiter_HoldNeverShrinks(t *testing.T) {
	limiter := NewRateLimiter(1000, 10)
	limiter.HoldFor(time.Hour)
	limiter.HoldFor(time.Millisecond)

	assert.Greater(t, limiter.remainingHold(), 59*time.Minute)
}

func TestRateLimiter_HoldAppliesToEveryCaller(t *testing.T) {
	limiter := NewRateLimiter(1000, 10)
	limiter.HoldFor(60 * time.Millisecond)

	start := time.Now()
	var wg sync.WaitGroup
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, limiter.Wait(context.Background()))
		}()
	}
	wg.Wait()

	assert.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestRateLimiter_CanceledDuringHold(t *testing.T) {
	limiter := NewRateLimiter(1000, 10)
	limiter.HoldFor(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	assert.ErrorIs(t, limiter.Wait(ctx), context.Canceled)
}

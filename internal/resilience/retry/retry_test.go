package retry

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"syscall"
	"testing"
	"time"

	"hackerfeed/internal/observability/logging"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fastConfig(attempts int) Config {
	return Config{
		MaxAttempts:  attempts,
		InitialDelay: time.Millisecond,
		MaxDelay:     4 * time.Millisecond,
		Multiplier:   2,
	}
}

// failing returns fn that fails with errs in order, then succeeds.
func failing(calls *int, errs ...error) func() error {
	return func() error {
		*calls++
		if *calls <= len(errs) {
			return errs[*calls-1]
		}
		return nil
	}
}

var errServer = &HTTPError{StatusCode: 503, Message: "unavailable"}

func TestWithBackoff(t *testing.T) {
	tests := []struct {
		name      string
		attempts  int
		errs      []error
		wantCalls int
		wantErr   error
	}{
		{name: "first call succeeds", attempts: 3, wantCalls: 1},
		{name: "succeeds on last attempt", attempts: 3, errs: []error{errServer, errServer}, wantCalls: 3},
		{name: "gives up after max attempts", attempts: 3, errs: []error{errServer, errServer, errServer}, wantCalls: 3, wantErr: errServer},
		{name: "client error is final", attempts: 3, errs: []error{&HTTPError{StatusCode: 400}}, wantCalls: 1},
		{name: "zero attempts still calls once", attempts: 0, errs: []error{errServer}, wantCalls: 1, wantErr: errServer},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			calls := 0
			err := WithBackoff(context.Background(), fastConfig(tt.attempts), failing(&calls, tt.errs...))

			assert.Equal(t, tt.wantCalls, calls)
			switch {
			case tt.wantErr != nil:
				require.Error(t, err)
				assert.ErrorIs(t, err, tt.wantErr)
				assert.Contains(t, err.Error(), "max retry attempts")
			case tt.wantCalls == 1 && len(tt.errs) > 0:
				require.Error(t, err)
				assert.NotContains(t, err.Error(), "max retry attempts")
			default:
				assert.NoError(t, err)
			}
		})
	}
}

func TestWithBackoff_ContextCanceledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cfg := Config{MaxAttempts: 5, InitialDelay: time.Hour, MaxDelay: time.Hour, Multiplier: 1}

	calls := 0
	done := make(chan error, 1)
	go func() {
		done <- WithBackoff(ctx, cfg, failing(&calls, errServer, errServer))
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
		assert.Contains(t, err.Error(), "retry aborted after 1 attempts")
	case <-time.After(2 * time.Second):
		t.Fatal("WithBackoff did not return after cancel")
	}
	assert.Equal(t, 1, calls)
}

func TestWithBackoff_LogsThroughContextLogger(t *testing.T) {
	var buf bytes.Buffer
	ctx := logging.WithCycleID(context.Background(), slog.New(slog.NewJSONHandler(&buf, nil)), "batch-7")

	calls := 0
	require.NoError(t, WithBackoff(ctx, fastConfig(2), failing(&calls, errServer)))

	assert.Contains(t, buf.String(), "operation failed, retrying")
	assert.Contains(t, buf.String(), `"cycle_id":"batch-7"`)
	assert.Contains(t, buf.String(), "operation succeeded after retry")
}

func TestConfig_Backoff(t *testing.T) {
	cfg := Config{InitialDelay: 100 * time.Millisecond, MaxDelay: time.Second, Multiplier: 3}

	assert.Equal(t, 100*time.Millisecond, cfg.backoff(1))
	assert.Equal(t, 300*time.Millisecond, cfg.backoff(2))
	assert.Equal(t, 900*time.Millisecond, cfg.backoff(3))
	assert.Equal(t, time.Second, cfg.backoff(4))
	assert.Equal(t, time.Second, cfg.backoff(40))
}

func TestWebhookConfig(t *testing.T) {
	cfg := WebhookConfig()

	assert.Equal(t, 3, cfg.MaxAttempts)
	assert.Equal(t, 500*time.Millisecond, cfg.InitialDelay)
	assert.Equal(t, 5*time.Second, cfg.MaxDelay)
	assert.LessOrEqual(t, cfg.JitterFraction, 1.0)
}

type timeoutErr struct{}

func (timeoutErr) Error() string   { return "i/o timeout" }
func (timeoutErr) Timeout() bool   { return true }
func (timeoutErr) Temporary() bool { return true }

var _ net.Error = timeoutErr{}

func TestIsRetryable(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want bool
	}{
		{name: "nil", err: nil, want: false},
		{name: "canceled", err: context.Canceled, want: false},
		{name: "deadline", err: fmt.Errorf("post: %w", context.DeadlineExceeded), want: false},
		{name: "network timeout", err: &net.OpError{Op: "dial", Err: timeoutErr{}}, want: true},
		{name: "connection refused", err: fmt.Errorf("dial: %w", syscall.ECONNREFUSED), want: true},
		{name: "connection reset", err: syscall.ECONNRESET, want: true},
		{name: "truncated body", err: io.ErrUnexpectedEOF, want: true},
		{name: "500", err: &HTTPError{StatusCode: 500}, want: true},
		{name: "wrapped 502", err: fmt.Errorf("discord: %w", &HTTPError{StatusCode: 502}), want: true},
		{name: "429", err: &HTTPError{StatusCode: 429}, want: true},
		{name: "408", err: &HTTPError{StatusCode: 408}, want: true},
		{name: "404", err: &HTTPError{StatusCode: 404}, want: false},
		{name: "plain error", err: errors.New("invalid payload"), want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, IsRetryable(tt.err))
		})
	}
}

func TestIsTimeout(t *testing.T) {
	assert.False(t, IsTimeout(nil))
	assert.True(t, IsTimeout(context.DeadlineExceeded))
	assert.True(t, IsTimeout(fmt.Errorf("get: %w", timeoutErr{})))
	assert.False(t, IsTimeout(context.Canceled))
	assert.False(t, IsTimeout(&HTTPError{StatusCode: 504}))
}

func TestHTTPError_Error(t *testing.T) {
	assert.Equal(t, "HTTP 503: unavailable", errServer.Error())
}

func TestJitter(t *testing.T) {
	base := 100 * time.Millisecond

	assert.Equal(t, base, jitter(base, 0))
	assert.Equal(t, time.Duration(0), jitter(0, 0.5))

	for i := 0; i < 100; i++ {
		got := jitter(base, 0.2)
		assert.GreaterOrEqual(t, got, base)
		assert.LessOrEqual(t, got, base+20*time.Millisecond)
	}

	// fractions above 1 are clamped
	for i := 0; i < 100; i++ {
		assert.LessOrEqual(t, jitter(base, 5), 2*base)
	}
}

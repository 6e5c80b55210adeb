package notify

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"hackerfeed/internal/domain/entity"
	"hackerfeed/internal/observability/logging"
	"hackerfeed/internal/resilience/circuitbreaker"

	"github.com/google/uuid"
)

const (
	workerPoolTimeout   = 5 * time.Second  // Timeout for acquiring worker slot
	notificationTimeout = 60 * time.Second // Timeout for delivering one batch to one channel
)

// Service dispatches notification batches to multiple channels.
type Service interface {
	// Dispatch hands msgs to every enabled channel and returns immediately.
	//
	// Delivery happens in background goroutines. Failures are logged and
	// recorded in metrics but never returned; the error result is reserved
	// for a service that has already been shut down.
	//
	// Parameters:
	//   - ctx: Carries the cycle logger; its cancellation does not abort delivery
	//   - msgs: Batch for one poll cycle (an empty batch is a no-op)
	Dispatch(ctx context.Context, msgs []entity.NotificationMessage) error

	// GetChannelHealth returns the health status of all notification channels.
	GetChannelHealth() []ChannelHealthStatus

	// Shutdown stops accepting batches and waits for in-flight deliveries
	// to complete or for ctx to expire, whichever comes first.
	Shutdown(ctx context.Context) error
}

// ChannelHealthStatus represents the health status of a notification channel.
type ChannelHealthStatus struct {
	Name               string     // Channel name (e.g., "desktop", "discord")
	Enabled            bool       // Whether the channel is enabled
	CircuitBreakerOpen bool       // Whether the circuit breaker is currently open
	DisabledUntil      *time.Time // When the breaker will admit a trial batch (nil if closed)
}

// service is the concrete implementation of Service interface.
type service struct {
	channels   []Channel
	workerPool chan struct{}                      // Semaphore for limiting concurrent deliveries
	breakers   map[string]*circuitbreaker.Breaker // Per-channel breaker, immutable after construction

	mu            sync.Mutex
	disabledUntil map[string]time.Time
	closed        bool

	wg             sync.WaitGroup
	shutdownCtx    context.Context
	shutdownCancel context.CancelFunc
	now            func() time.Time
}

// NewService creates a new notification service with the given channels.
//
// Parameters:
//   - channels: Notification channels (desktop, Discord, Slack)
//   - maxConcurrent: Maximum concurrent channel deliveries (values below 1 are treated as 1)
func NewService(channels []Channel, maxConcurrent int) Service {
	return newService(channels, maxConcurrent, circuitbreaker.NotifyChannelConfig)
}

func newService(channels []Channel, maxConcurrent int, breakerConfig func(string) circuitbreaker.Config) *service {
	if maxConcurrent < 1 {
		maxConcurrent = 1
	}
	shutdownCtx, shutdownCancel := context.WithCancel(context.Background())

	svc := &service{
		channels:       channels,
		workerPool:     make(chan struct{}, maxConcurrent),
		breakers:       make(map[string]*circuitbreaker.Breaker, len(channels)),
		disabledUntil:  make(map[string]time.Time),
		shutdownCtx:    shutdownCtx,
		shutdownCancel: shutdownCancel,
		now:            time.Now,
	}

	enabled := 0
	for _, ch := range channels {
		svc.breakers[ch.Name()] = circuitbreaker.New(breakerConfig(ch.Name()))
		if ch.IsEnabled() {
			enabled++
		}
	}
	setChannelsEnabled(enabled)

	return svc
}

// Dispatch implements Service.Dispatch.
func (s *service) Dispatch(ctx context.Context, msgs []entity.NotificationMessage) error {
	logger := logging.FromContext(ctx)
	if len(msgs) == 0 {
		return nil
	}

	s.mu.Lock()
	closed := s.closed
	if !closed {
		// Add under the lock so Shutdown cannot start waiting between the
		// closed check and the goroutine launch.
		for _, ch := range s.channels {
			if ch.IsEnabled() {
				s.wg.Add(1)
			}
		}
	}
	s.mu.Unlock()

	if closed {
		for _, ch := range s.channels {
			if ch.IsEnabled() {
				recordDropped(ch.Name(), outcomeShutdown)
			}
		}
		return fmt.Errorf("dispatch after shutdown: %w", ErrNotificationDropped)
	}

	requestID := uuid.New().String()
	logger = logger.With(slog.String("request_id", requestID))

	enabled := 0
	for _, ch := range s.channels {
		if !ch.IsEnabled() {
			continue
		}
		enabled++
		go s.notifyChannel(logger, ch, msgs)
	}

	if enabled == 0 {
		logger.Debug("no notification channels enabled", slog.Int("messages", len(msgs)))
		return nil
	}

	logger.Info("dispatching notifications",
		slog.Int("messages", len(msgs)),
		slog.Int("enabled_channels", enabled))
	return nil
}

// notifyChannel delivers msgs to a single channel in a goroutine.
func (s *service) notifyChannel(logger *slog.Logger, channel Channel, msgs []entity.NotificationMessage) {
	defer s.wg.Done()

	defer trackInflight()()

	name := channel.Name()
	logger = logger.With(slog.String("channel", name))

	defer func() {
		if r := recover(); r != nil {
			logger.Error("panic in notification channel",
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())))
		}
	}()

	select {
	case s.workerPool <- struct{}{}:
		defer func() { <-s.workerPool }()
	case <-time.After(workerPoolTimeout):
		logger.Warn("notification dropped: worker pool full")
		recordDropped(name, outcomePoolFull)
		return
	case <-s.shutdownCtx.Done():
		recordDropped(name, outcomeShutdown)
		return
	}

	ctx, cancel := context.WithTimeout(s.shutdownCtx, notificationTimeout)
	defer cancel()
	ctx = logging.WithLogger(ctx, logger)

	breaker := s.breakers[name]
	wasOpen := breaker.IsOpen()

	start := s.now()

	err := breaker.Do(func() error {
		return channel.Send(ctx, msgs)
	})
	duration := s.now().Sub(start)

	if circuitbreaker.IsRejected(err) {
		logger.Warn("channel temporarily disabled due to circuit breaker",
			slog.Int("messages", len(msgs)))
		recordDropped(name, outcomeCircuitOpen)
		return
	}

	if !wasOpen && breaker.IsOpen() {
		until := s.now().Add(breaker.Cooldown())
		s.mu.Lock()
		s.disabledUntil[name] = until
		s.mu.Unlock()
		logger.Error("circuit breaker opened for channel",
			slog.Uint64("consecutive_failures", uint64(breaker.Threshold())),
			slog.Time("disabled_until", until))
		recordBreakerOpened(name)
	}

	recordSend(name, err, duration, len(msgs))
	if err != nil {
		logger.Warn("channel notification failed",
			slog.Int("messages", len(msgs)),
			slog.Duration("send_duration", duration),
			slog.Any("error", err))
		return
	}

	logger.Info("channel notification sent successfully",
		slog.Int("messages", len(msgs)),
		slog.Duration("send_duration", duration))
}

// GetChannelHealth implements Service.GetChannelHealth.
func (s *service) GetChannelHealth() []ChannelHealthStatus {
	statuses := make([]ChannelHealthStatus, 0, len(s.channels))

	s.mu.Lock()
	defer s.mu.Unlock()

	for _, ch := range s.channels {
		status := ChannelHealthStatus{
			Name:    ch.Name(),
			Enabled: ch.IsEnabled(),
		}
		if s.breakers[ch.Name()].IsOpen() {
			status.CircuitBreakerOpen = true
			if until, ok := s.disabledUntil[ch.Name()]; ok {
				status.DisabledUntil = &until
			}
		}
		statuses = append(statuses, status)
	}

	return statuses
}

// Shutdown implements Service.Shutdown.
func (s *service) Shutdown(ctx context.Context) error {
	slog.Info("shutting down notification service")

	s.mu.Lock()
	s.closed = true
	s.mu.Unlock()

	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		s.shutdownCancel()
		slog.Info("notification service shutdown complete")
		return nil
	case <-ctx.Done():
		// Abort deliveries still in flight.
		s.shutdownCancel()
		slog.Warn("notification service shutdown timeout")
		return ctx.Err()
	}
}

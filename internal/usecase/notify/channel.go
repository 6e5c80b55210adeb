// Package notify dispatches the notification batch of each poll cycle to every
// enabled delivery channel (desktop, Discord, Slack).
//
// Dispatch never blocks the poll loop: each channel receives the batch in its
// own goroutine, guarded by a worker-pool semaphore and a per-channel circuit
// breaker. Failures are logged and counted, never returned to the caller.
package notify

import (
	"context"

	"hackerfeed/internal/domain/entity"
	"hackerfeed/internal/infra/notifier"
)

// Channel represents a notification delivery channel.
// Each channel implementation handles its own rate limiting, retries, and
// transport lifecycle.
//
// Thread Safety:
//   - All methods must be safe for concurrent use by multiple goroutines
type Channel interface {
	// Name returns the channel identifier used in logs, metric labels and
	// the health endpoint (lowercase, e.g. "desktop").
	Name() string

	// IsEnabled returns true if this channel is enabled via configuration.
	// Disabled channels are skipped during dispatch.
	IsEnabled() bool

	// Send delivers one batch of messages.
	//
	// Returns:
	//   - ErrChannelDisabled: If called on a disabled channel
	//   - ErrEmptyBatch: If msgs is empty
	//   - Delivery errors from the underlying notifier
	Send(ctx context.Context, msgs []entity.NotificationMessage) error
}

// notifierChannel adapts an infra notifier to the Channel interface.
// Disabled channels hold notifier.Discard so Send never dereferences nil.
type notifierChannel struct {
	name     string
	notifier notifier.Notifier
	enabled  bool
}

func newNotifierChannel(name string, enabled bool, build func() notifier.Notifier) *notifierChannel {
	n := notifier.Discard
	if enabled {
		n = build()
	}
	return &notifierChannel{name: name, notifier: n, enabled: enabled}
}

func (c *notifierChannel) Name() string {
	return c.name
}

func (c *notifierChannel) IsEnabled() bool {
	return c.enabled
}

func (c *notifierChannel) Send(ctx context.Context, msgs []entity.NotificationMessage) error {
	if !c.enabled {
		return ErrChannelDisabled
	}
	if len(msgs) == 0 {
		return ErrEmptyBatch
	}
	return c.notifier.Notify(ctx, msgs)
}

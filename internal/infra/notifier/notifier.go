// Package notifier delivers batches of new-story notifications to the desktop
// notification daemon and to chat webhooks.
//
// Every implementation accepts the whole batch produced by one poll cycle.
// Delivery failures are reported to the caller but never retried across
// cycles: a story that failed to notify has already been recorded as seen.
package notifier

import (
	"context"

	"hackerfeed/internal/domain/entity"
)

// Notifier sends a batch of story notifications.
type Notifier interface {
	// Notify delivers msgs. An empty batch is a no-op.
	//
	// Implementations apply their own rate limiting and retries, respect
	// ctx cancellation, and wrap failures with entity.ErrNotify.
	Notify(ctx context.Context, msgs []entity.NotificationMessage) error
}

// Func adapts an ordinary function to Notifier.
type Func func(ctx context.Context, msgs []entity.NotificationMessage) error

func (f Func) Notify(ctx context.Context, msgs []entity.NotificationMessage) error {
	return f(ctx, msgs)
}

// Discard accepts every batch and sends nothing. Disabled channels hold it.
var Discard Notifier = Func(func(context.Context, []entity.NotificationMessage) error {
	return nil
})

package notify

import "errors"

var (
	// ErrChannelDisabled is returned by Send on a channel turned off in configuration.
	ErrChannelDisabled = errors.New("channel is disabled")

	// ErrEmptyBatch is returned by Send when there is nothing to deliver.
	ErrEmptyBatch = errors.New("empty notification batch")

	// ErrNotificationDropped is returned by Dispatch once Shutdown has begun.
	ErrNotificationDropped = errors.New("notification dropped")
)

package notify

import "hackerfeed/internal/infra/notifier"

// NewDesktopChannel creates the "desktop" channel, which shows each story
// through the freedesktop notification daemon on the session bus.
func NewDesktopChannel(config notifier.DesktopConfig) Channel {
	return newNotifierChannel("desktop", config.Enabled, func() notifier.Notifier {
		return notifier.NewDesktopNotifier(config)
	})
}

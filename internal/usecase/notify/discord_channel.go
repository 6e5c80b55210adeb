package notify

import "hackerfeed/internal/infra/notifier"

// NewDiscordChannel creates the "discord" channel backed by a Discord webhook.
// A disabled configuration yields a channel that is skipped by Dispatch.
func NewDiscordChannel(config notifier.DiscordConfig) Channel {
	return newNotifierChannel("discord", config.Enabled, func() notifier.Notifier {
		return notifier.NewDiscordNotifier(config)
	})
}

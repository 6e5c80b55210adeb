package notify

import "hackerfeed/internal/infra/notifier"

// NewSlackChannel creates the "slack" channel backed by a Slack Incoming Webhook.
func NewSlackChannel(config notifier.SlackConfig) Channel {
	return newNotifierChannel("slack", config.Enabled, func() notifier.Notifier {
		return notifier.NewSlackNotifier(config)
	})
}

package notify

import (
	"context"
	"testing"

	"hackerfeed/internal/domain/entity"
	"hackerfeed/internal/infra/notifier"

	"github.com/stretchr/testify/assert"
)

func TestChannelConstructors(t *testing.T) {
	tests := []struct {
		name    string
		channel Channel
		want    string
		enabled bool
	}{
		{"desktop enabled", NewDesktopChannel(notifier.DesktopConfig{Enabled: true}), "desktop", true},
		{"discord disabled", NewDiscordChannel(notifier.DiscordConfig{}), "discord", false},
		{"slack enabled", NewSlackChannel(notifier.SlackConfig{Enabled: true, WebhookURL: "https://hooks.slack.com/services/x"}), "slack", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.channel.Name())
			assert.Equal(t, tt.enabled, tt.channel.IsEnabled())
		})
	}
}

func TestNotifierChannel_Send(t *testing.T) {
	msgs := []entity.NotificationMessage{
		entity.NewNotificationMessage(entity.StoryLink{Title: "t", URL: "https://example.com"}),
	}

	t.Run("disabled channel", func(t *testing.T) {
		ch := NewDiscordChannel(notifier.DiscordConfig{Enabled: false})
		assert.ErrorIs(t, ch.Send(context.Background(), msgs), ErrChannelDisabled)
	})

	t.Run("empty batch", func(t *testing.T) {
		ch := newNotifierChannel("noop", true, func() notifier.Notifier { return notifier.Discard })
		assert.ErrorIs(t, ch.Send(context.Background(), nil), ErrEmptyBatch)
	})

	t.Run("delegates to notifier", func(t *testing.T) {
		ch := newNotifierChannel("noop", true, func() notifier.Notifier { return notifier.Discard })
		assert.NoError(t, ch.Send(context.Background(), msgs))
	})
}

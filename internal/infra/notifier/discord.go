package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"hackerfeed/internal/domain/entity"

	"github.com/google/uuid"
)

// DiscordConfig contains configuration for Discord webhook notifications.
type DiscordConfig struct {
	// Enabled indicates whether Discord notifications are enabled
	Enabled bool

	// WebhookURL is the Discord webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Discord API calls
	Timeout time.Duration
}

// DiscordNotifier posts story batches to a Discord channel via webhook.
type DiscordNotifier struct {
	config  DiscordConfig
	webhook *webhookClient
	now     func() time.Time
}

// NewDiscordNotifier creates a new DiscordNotifier with the specified configuration.
//
// The notifier is initialized with:
//   - HTTP client with configured timeout
//   - Rate limiter set to 0.5 requests/second with burst of 3
//     (Discord Webhook limit: 30 requests per minute = 0.5 req/s)
func NewDiscordNotifier(config DiscordConfig) *DiscordNotifier {
	return &DiscordNotifier{
		config:  config,
		webhook: newWebhookClient("Discord", config.WebhookURL, config.Timeout, NewRateLimiter(0.5, 3)),
		now:     time.Now,
	}
}

// DiscordWebhookPayload represents the JSON payload sent to Discord webhook.
type DiscordWebhookPayload struct {
	Content string         `json:"content,omitempty"`
	Embeds  []DiscordEmbed `json:"embeds"`
}

// DiscordEmbed represents a Discord embed message.
type DiscordEmbed struct {
	Title       string             `json:"title"`
	Description string             `json:"description,omitempty"`
	URL         string             `json:"url"`
	Color       int                `json:"color"`
	Footer      DiscordEmbedFooter `json:"footer"`
	Timestamp   string             `json:"timestamp"`
}

// DiscordEmbedFooter represents the footer of a Discord embed.
type DiscordEmbedFooter struct {
	Text string `json:"text"`
}

const (
	// Discord limits
	maxTitleLength      = 256
	maxEmbedsPerMessage = 10
	discordFooterText   = "Hacker News"

	// Hacker News orange (#FF6600)
	discordEmbedColor = 16737792
)

// buildPayloads groups msgs into webhook payloads of at most ten embeds each,
// one embed per story.
func (d *DiscordNotifier) buildPayloads(msgs []entity.NotificationMessage) []DiscordWebhookPayload {
	timestamp := d.now().UTC().Format(time.RFC3339)

	var payloads []DiscordWebhookPayload
	for _, group := range chunk(msgs, maxEmbedsPerMessage) {
		embeds := make([]DiscordEmbed, 0, len(group))
		for _, msg := range group {
			embeds = append(embeds, DiscordEmbed{
				Title:     truncate(msg.StoryTitle, maxTitleLength, truncationSuffix),
				URL:       msg.URL,
				Color:     discordEmbedColor,
				Footer:    DiscordEmbedFooter{Text: discordFooterText},
				Timestamp: timestamp,
			})
		}
		payloads = append(payloads, DiscordWebhookPayload{
			Content: entity.NotificationTitle,
			Embeds:  embeds,
		})
	}
	return payloads
}

// Notify posts msgs to the Discord webhook.
//
// Each payload carries up to ten stories. Payloads are sent in order and the
// first payload that fails after all retries aborts the rest of the batch.
//
// Returns:
//   - error: Wraps entity.ErrNotify when any payload could not be delivered
func (d *DiscordNotifier) Notify(ctx context.Context, msgs []entity.NotificationMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	payloads := d.buildPayloads(msgs)
	slog.Info("starting Discord notification",
		slog.String("request_id", requestID),
		slog.Int("stories", len(msgs)),
		slog.Int("payloads", len(payloads)))

	for i, payload := range payloads {
		if err := d.webhook.post(ctx, payload); err != nil {
			slog.Error("Discord notification failed",
				slog.String("request_id", requestID),
				slog.Int("payload", i+1),
				slog.Any("error", err))
			return fmt.Errorf("%w: discord payload %d/%d: %w", entity.ErrNotify, i+1, len(payloads), err)
		}
	}

	slog.Info("Discord notification successful",
		slog.String("request_id", requestID),
		slog.Int("stories", len(msgs)))
	return nil
}

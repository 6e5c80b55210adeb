package notifier

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"hackerfeed/internal/domain/entity"

	"github.com/google/uuid"
)

// SlackConfig contains configuration for Slack webhook notifications.
type SlackConfig struct {
	// Enabled indicates whether Slack notifications are enabled
	Enabled bool

	// WebhookURL is the Slack Incoming Webhook URL (includes authentication token)
	WebhookURL string

	// Timeout is the HTTP request timeout for Slack API calls
	Timeout time.Duration
}

// SlackNotifier posts story batches to Slack via Incoming Webhook.
type SlackNotifier struct {
	config  SlackConfig
	webhook *webhookClient
}

// NewSlackNotifier creates a new SlackNotifier with the specified configuration.
//
// The notifier is initialized with:
//   - HTTP client with configured timeout
//   - Rate limiter set to 1 request/second with burst of 1
//     (Slack Webhook limit: 1 message per second)
func NewSlackNotifier(config SlackConfig) *SlackNotifier {
	return &SlackNotifier{
		config:  config,
		webhook: newWebhookClient("Slack", config.WebhookURL, config.Timeout, NewRateLimiter(1.0, 1)),
	}
}

// SlackWebhookPayload represents the JSON payload sent to Slack webhook using Block Kit.
type SlackWebhookPayload struct {
	Text   string       `json:"text"`   // Fallback text (required)
	Blocks []SlackBlock `json:"blocks"` // Rich formatting blocks
}

// SlackBlock represents a Slack Block Kit block.
type SlackBlock struct {
	Type string           `json:"type"`           // "header", "section", "divider"
	Text *SlackTextObject `json:"text,omitempty"` // Text content
}

// SlackTextObject represents a text object in Slack Block Kit.
type SlackTextObject struct {
	Type string `json:"type"` // "mrkdwn" or "plain_text"
	Text string `json:"text"` // Actual text content
}

const (
	// Slack allows 50 blocks per message; one header plus one section per story.
	maxStoriesPerSlackMessage = 40
	maxSectionTextLength      = 3000
)

var slackEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;")

// buildPayloads groups msgs into Block Kit payloads.
//
// Each payload has a plain-text header followed by one mrkdwn section per
// story in the form <url|title>.
func (s *SlackNotifier) buildPayloads(msgs []entity.NotificationMessage) []SlackWebhookPayload {
	var payloads []SlackWebhookPayload
	for _, group := range chunk(msgs, maxStoriesPerSlackMessage) {
		blocks := make([]SlackBlock, 0, len(group)+1)
		blocks = append(blocks, SlackBlock{
			Type: "header",
			Text: &SlackTextObject{Type: "plain_text", Text: entity.NotificationTitle},
		})
		for _, msg := range group {
			text := fmt.Sprintf("<%s|%s>", msg.URL, slackEscaper.Replace(msg.StoryTitle))
			blocks = append(blocks, SlackBlock{
				Type: "section",
				Text: &SlackTextObject{Type: "mrkdwn", Text: truncate(text, maxSectionTextLength, truncationSuffix)},
			})
		}

		payloads = append(payloads, SlackWebhookPayload{
			Text:   fmt.Sprintf("%s %d new stories", entity.NotificationTitle, len(group)),
			Blocks: blocks,
		})
	}
	return payloads
}

// Notify posts msgs to the Slack webhook.
//
// Payloads are sent in order and the first payload that fails after all
// retries aborts the rest of the batch.
func (s *SlackNotifier) Notify(ctx context.Context, msgs []entity.NotificationMessage) error {
	if len(msgs) == 0 {
		return nil
	}

	requestID := uuid.New().String()
	ctx = context.WithValue(ctx, requestIDKey, requestID)

	payloads := s.buildPayloads(msgs)
	slog.Info("starting Slack notification",
		slog.String("request_id", requestID),
		slog.Int("stories", len(msgs)),
		slog.Int("payloads", len(payloads)))

	for i, payload := range payloads {
		if err := s.webhook.post(ctx, payload); err != nil {
			slog.Error("Slack notification failed",
				slog.String("request_id", requestID),
				slog.Int("payload", i+1),
				slog.Any("error", err))
			return fmt.Errorf("%w: slack payload %d/%d: %w", entity.ErrNotify, i+1, len(payloads), err)
		}
	}

	slog.Info("Slack notification successful",
		slog.String("request_id", requestID),
		slog.Int("stories", len(msgs)))
	return nil
}

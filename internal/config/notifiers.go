package config

import (
	"fmt"
	"net/url"
	"strings"
)

// ValidateDiscordWebhookURL checks that raw is an https Discord webhook endpoint.
func ValidateDiscordWebhookURL(raw string) error {
	return validateWebhookURL(raw, "discord.com", "/api/webhooks/")
}

// ValidateSlackWebhookURL checks that raw is an https Slack incoming webhook endpoint.
func ValidateSlackWebhookURL(raw string) error {
	return validateWebhookURL(raw, "hooks.slack.com", "/services/")
}

func validateWebhookURL(raw, host, pathPrefix string) error {
	if raw == "" {
		return fmt.Errorf("webhook URL is empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid webhook URL format: %w", err)
	}
	if u.Scheme != "https" {
		return fmt.Errorf("webhook URL must use HTTPS")
	}
	if u.Host != host {
		return fmt.Errorf("invalid webhook host %q (want %s)", u.Host, host)
	}
	if !strings.HasPrefix(u.Path, pathPrefix) {
		return fmt.Errorf("invalid webhook path %q (want prefix %s)", u.Path, pathPrefix)
	}
	return nil
}

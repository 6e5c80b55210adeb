// Package config loads the feed watcher configuration from a YAML file.
package config

import (
	"errors"
	"fmt"
	"net/url"
	"os"
	"time"

	pkgconfig "hackerfeed/internal/pkg/config"
	"hackerfeed/internal/usecase/filter"
	envconfig "hackerfeed/pkg/config"

	"gopkg.in/yaml.v3"
)

const (
	// ConfigPathEnv names the environment variable holding the config file path.
	ConfigPathEnv = "HACKERFEED_CONFIG"
	// DefaultConfigPath is used when ConfigPathEnv is unset.
	DefaultConfigPath = "config.yaml"

	// DefaultListingURL is the page polled for new stories.
	DefaultListingURL = "https://news.ycombinator.com/newest"
	// DefaultUserAgent identifies the poller to the listing site.
	DefaultUserAgent = "hackerfeed/1.0"
	// DefaultAppName is the application name shown by desktop notifications.
	DefaultAppName = "Hacker News feed"
	// DefaultExpireMS is how long a desktop notification stays visible.
	DefaultExpireMS = 3000
)

// FeedConfig is the parsed content of the YAML configuration file.
type FeedConfig struct {
	// Interval is the number of seconds between successful polls. Required, >= 1.
	Interval int `yaml:"interval"`
	// Keywords is a comma-separated list matched against story titles.
	Keywords string `yaml:"keywords"`
	// Domains is a comma-separated list matched against story URLs.
	Domains string `yaml:"domains"`

	// Schedule is an optional 5-field cron expression that replaces Interval.
	Schedule string `yaml:"schedule"`
	// Timezone is the IANA zone used for archive dates and the cron schedule.
	// Empty means the local zone.
	Timezone string `yaml:"timezone"`

	ListingURL   string        `yaml:"listing_url"`
	Selector     string        `yaml:"selector"`
	StatePath    string        `yaml:"state_path"`
	ArchiveDir   string        `yaml:"archive_dir"`
	FetchTimeout time.Duration `yaml:"fetch_timeout"`
	RetryBackoff time.Duration `yaml:"retry_backoff"`
	UserAgent    string        `yaml:"user_agent"`

	Notifiers NotifiersConfig `yaml:"notifiers"`
}

// NotifiersConfig groups the per-channel settings.
type NotifiersConfig struct {
	Desktop DesktopConfig `yaml:"desktop"`
	Discord WebhookConfig `yaml:"discord"`
	Slack   WebhookConfig `yaml:"slack"`
}

// DesktopConfig configures freedesktop notifications over the session bus.
type DesktopConfig struct {
	Enabled  bool   `yaml:"enabled"`
	AppName  string `yaml:"app_name"`
	ExpireMS int    `yaml:"expire_ms"`
}

// WebhookConfig configures a webhook based channel.
type WebhookConfig struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
}

// DefaultFeedConfig returns the configuration used for keys absent from the file.
// Interval has no default and must always be set.
func DefaultFeedConfig() FeedConfig {
	return FeedConfig{
		ListingURL:   DefaultListingURL,
		StatePath:    "state",
		ArchiveDir:   ".",
		FetchTimeout: 10 * time.Second,
		RetryBackoff: 30 * time.Second,
		UserAgent:    DefaultUserAgent,
		Notifiers: NotifiersConfig{
			Desktop: DesktopConfig{
				Enabled:  true,
				AppName:  DefaultAppName,
				ExpireMS: DefaultExpireMS,
			},
		},
	}
}

// ConfigPath returns the config file path from HACKERFEED_CONFIG or the default.
func ConfigPath() string {
	return envconfig.GetEnvString(ConfigPathEnv, DefaultConfigPath)
}

// LoadFeedConfig loads and validates the configuration file at path.
// Webhook URLs may be overridden by DISCORD_WEBHOOK_URL and SLACK_WEBHOOK_URL.
// The path parameter is expected to come from a trusted source (environment or default).
func LoadFeedConfig(path string) (*FeedConfig, error) {
	// #nosec G304 -- path is provided by the operator, not user input
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	return ParseFeedConfig(data)
}

// ParseFeedConfig decodes YAML data on top of DefaultFeedConfig and validates it.
func ParseFeedConfig(data []byte) (*FeedConfig, error) {
	cfg := DefaultFeedConfig()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	cfg.Notifiers.Discord.WebhookURL = envconfig.GetEnvString("DISCORD_WEBHOOK_URL", cfg.Notifiers.Discord.WebhookURL)
	cfg.Notifiers.Slack.WebhookURL = envconfig.GetEnvString("SLACK_WEBHOOK_URL", cfg.Notifiers.Slack.WebhookURL)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return &cfg, nil
}

// Validate checks every field and reports all problems at once.
func (c *FeedConfig) Validate() error {
	var errs []error

	if c.Interval < 1 {
		errs = append(errs, errors.New("interval is required and must be at least 1 second"))
	}
	if c.Schedule != "" {
		if err := pkgconfig.ValidateCronSchedule(c.Schedule); err != nil {
			errs = append(errs, fmt.Errorf("schedule: %w", err))
		}
	}
	if c.Timezone != "" {
		if err := pkgconfig.ValidateTimezone(c.Timezone); err != nil {
			errs = append(errs, fmt.Errorf("timezone: %w", err))
		}
	}
	if err := validateListingURL(c.ListingURL); err != nil {
		errs = append(errs, fmt.Errorf("listing_url: %w", err))
	}
	if err := pkgconfig.ValidateDuration(c.FetchTimeout, time.Second, 2*time.Minute); err != nil {
		errs = append(errs, fmt.Errorf("fetch_timeout: %w", err))
	}
	if err := pkgconfig.ValidatePositiveDuration(c.RetryBackoff); err != nil {
		errs = append(errs, fmt.Errorf("retry_backoff: %w", err))
	}
	if c.StatePath == "" {
		errs = append(errs, errors.New("state_path must not be empty"))
	}
	if c.Notifiers.Desktop.ExpireMS < -1 {
		errs = append(errs, errors.New("notifiers.desktop.expire_ms must be -1 (server default) or greater"))
	}

	return errors.Join(errs...)
}

func validateListingURL(raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return err
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("unsupported scheme %q (only http/https allowed)", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("host is required")
	}
	return nil
}

// Filter builds the immutable filter configuration from the keyword and domain lists.
func (c *FeedConfig) Filter() filter.Config {
	return filter.NewConfig(c.Keywords, c.Domains)
}

// PollInterval returns Interval as a duration.
func (c *FeedConfig) PollInterval() time.Duration {
	return time.Duration(c.Interval) * time.Second
}

// Location returns the configured time zone, or time.Local when unset.
func (c *FeedConfig) Location() *time.Location {
	if c.Timezone == "" {
		return time.Local
	}
	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		// Validate rejects unknown zones
		return time.Local
	}
	return loc
}

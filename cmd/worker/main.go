package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"hackerfeed/internal/config"
	"hackerfeed/internal/infra/archive"
	"hackerfeed/internal/infra/fetcher"
	"hackerfeed/internal/infra/notifier"
	"hackerfeed/internal/infra/scraper"
	"hackerfeed/internal/infra/state"
	workerPkg "hackerfeed/internal/infra/worker"
	"hackerfeed/internal/observability/logging"
	"hackerfeed/internal/observability/tracing"
	"hackerfeed/internal/usecase/notify"
	"hackerfeed/internal/usecase/poll"
)

// maxConsecutiveFailures is the number of failed cycles after which
// /health/poll reports unhealthy.
const maxConsecutiveFailures = 5

func main() {
	logger := initLogger()
	if err := run(logger); err != nil {
		logger.Error("worker exited with error", slog.Any("error", err))
		os.Exit(1)
	}
}

// initLogger initializes the process logger from LOG_LEVEL and LOG_FORMAT.
func initLogger() *slog.Logger {
	logger := logging.New()
	slog.SetDefault(logger)
	return logger
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	feedConfig, err := config.LoadFeedConfig(config.ConfigPath())
	if err != nil {
		return fmt.Errorf("load feed configuration: %w", err)
	}

	// Load worker configuration (fail-open strategy)
	workerMetrics := workerPkg.NewWorkerMetrics(prometheus.DefaultRegisterer)
	workerConfig, err := workerPkg.LoadConfigFromEnv(logger, workerMetrics)
	if err != nil {
		return fmt.Errorf("load worker configuration: %w", err)
	}
	logger.Info("worker configuration loaded",
		slog.Int("interval", feedConfig.Interval),
		slog.String("schedule", feedConfig.Schedule),
		slog.String("timezone", feedConfig.Location().String()),
		slog.Int("notify_max_concurrent", workerConfig.NotifyMaxConcurrent),
		slog.Duration("shutdown_timeout", workerConfig.ShutdownTimeout),
		slog.Int("health_port", workerConfig.HealthPort),
		slog.Int("metrics_port", workerConfig.MetricsPort))

	shutdownTracing := tracing.InitProvider(workerConfig.TraceSampleRatio)
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := shutdownTracing(flushCtx); err != nil {
			logger.Error("failed to shut down tracer provider", slog.Any("error", err))
		}
	}()

	channels := buildChannels(logger, feedConfig.Notifiers)
	notifyService := notify.NewService(channels, workerConfig.NotifyMaxConcurrent)
	logger.Info("notification service initialized",
		slog.Int("channels", len(channels)),
		slog.Int("max_concurrent", workerConfig.NotifyMaxConcurrent))

	pollService, err := setupPollService(logger, feedConfig, notifyService, workerMetrics)
	if err != nil {
		return err
	}
	pollService.LoadHistory()

	healthAddr := fmt.Sprintf(":%d", workerConfig.HealthPort)
	healthServer := workerPkg.NewHealthServer(healthAddr, logger)
	healthServer.RegisterStatus("/health/poll", func() (any, bool) {
		st := pollService.Status()
		return newPollStatusResponse(st), st.Healthy(maxConsecutiveFailures)
	})

	g, gctx := errgroup.WithContext(ctx)
	g.Go(superviseOps(gctx, logger, "health", healthServer.Start))
	g.Go(superviseOps(gctx, logger, "metrics", func(ctx context.Context) error {
		return startMetricsServer(ctx, logger, workerConfig.MetricsPort, notifyService)
	}))
	g.Go(func() error {
		return pollService.Run(gctx)
	})

	healthServer.SetReady(true)
	logger.Info("worker started", slog.String("url", feedConfig.ListingURL))

	runErr := g.Wait()

	healthServer.SetReady(false)
	logger.Info("worker shutting down")

	// The poll loop has returned, so history is no longer being mutated.
	_ = pollService.SaveHistory()

	drainCtx, cancel := context.WithTimeout(context.Background(), workerConfig.ShutdownTimeout)
	defer cancel()
	if err := notifyService.Shutdown(drainCtx); err != nil {
		logger.Warn("notification drain did not finish", slog.Any("error", err))
	}

	logger.Info("worker stopped")
	return runErr
}

// superviseOps runs an ops server for the errgroup. A server that fails to
// bind or stops with an error is logged; the poll loop keeps running and only
// the signal context ends it.
func superviseOps(ctx context.Context, logger *slog.Logger, name string, serve func(context.Context) error) func() error {
	return func() error {
		if err := serve(ctx); err != nil {
			logger.Error("ops server stopped, polling continues",
				slog.String("server", name),
				slog.Any("error", err))
		}
		return nil
	}
}

// setupPollService creates the poll service with its fetch, parse, state and archive dependencies.
func setupPollService(logger *slog.Logger, cfg *config.FeedConfig, dispatcher poll.Dispatcher,
	workerMetrics *workerPkg.WorkerMetrics) (*poll.Service, error) {
	listingConfig := fetcher.DefaultConfig()
	listingConfig.URL = cfg.ListingURL
	listingConfig.UserAgent = cfg.UserAgent
	listingConfig.Timeout = cfg.FetchTimeout
	listingConfig.BreakerCooldown = cfg.RetryBackoff

	pageFetcher, err := fetcher.NewPageFetcher(listingConfig)
	if err != nil {
		return nil, fmt.Errorf("create listing fetcher: %w", err)
	}

	extractor, err := scraper.NewLinkExtractor(cfg.Selector, logger)
	if err != nil {
		return nil, fmt.Errorf("create link extractor: %w", err)
	}

	historyStore := state.NewHistoryStore(cfg.StatePath)
	archiveWriter := archive.NewWriter(cfg.ArchiveDir)
	logger.Info("poll storage configured",
		slog.String("state_path", historyStore.Path()),
		slog.String("archive_dir", cfg.ArchiveDir))

	pollConfig := poll.Config{
		Interval:     cfg.PollInterval(),
		Schedule:     cfg.Schedule,
		Location:     cfg.Location(),
		RetryBackoff: cfg.RetryBackoff,
		Filter:       cfg.Filter(),
	}

	return poll.NewService(
		pageFetcher,
		extractor,
		historyStore,
		archiveWriter,
		dispatcher,
		pollConfig,
		poll.WithLogger(logger),
		poll.WithCycleHook(recordCycle(workerMetrics)),
	)
}

// recordCycle feeds every cycle result into the worker metrics.
func recordCycle(m *workerPkg.WorkerMetrics) func(poll.CycleResult) {
	return func(r poll.CycleResult) {
		m.RecordCycle(string(r.State), r.Duration.Seconds())
		m.RecordNewStories(r.New)
		m.RecordNextDelay(r.Delay.Seconds())
		if r.State.Succeeded() {
			m.RecordLastSuccess()
		}
	}
}

// buildChannels creates every notification channel. Channels that are
// disabled, or whose webhook URL fails validation, are kept but report
// disabled so that /health/channels lists them.
func buildChannels(logger *slog.Logger, cfg config.NotifiersConfig) []notify.Channel {
	desktopConfig := notifier.DesktopConfig{
		Enabled:  cfg.Desktop.Enabled,
		AppName:  cfg.Desktop.AppName,
		ExpireMS: int32(cfg.Desktop.ExpireMS),
	}
	discordConfig := loadDiscordConfig(logger, cfg.Discord)
	slackConfig := loadSlackConfig(logger, cfg.Slack)

	channels := []notify.Channel{
		notify.NewDesktopChannel(desktopConfig),
		notify.NewDiscordChannel(discordConfig),
		notify.NewSlackChannel(slackConfig),
	}
	for _, ch := range channels {
		if ch.IsEnabled() {
			logger.Info("notification channel initialized",
				slog.String("channel", ch.Name()),
				slog.String("status", "enabled"))
		} else {
			logger.Info("notification channel disabled", slog.String("channel", ch.Name()))
		}
	}
	return channels
}

// loadDiscordConfig converts the discord section of the config file into
// notifier settings. An invalid webhook URL disables the channel.
func loadDiscordConfig(logger *slog.Logger, cfg config.WebhookConfig) notifier.DiscordConfig {
	if !cfg.Enabled {
		return notifier.DiscordConfig{Enabled: false}
	}
	if err := config.ValidateDiscordWebhookURL(cfg.WebhookURL); err != nil {
		logger.Warn("invalid Discord webhook URL, disabling notifications", slog.Any("error", err))
		return notifier.DiscordConfig{Enabled: false}
	}
	return notifier.DiscordConfig{
		Enabled:    true,
		WebhookURL: cfg.WebhookURL,
		Timeout:    30 * time.Second,
	}
}

// loadSlackConfig converts the slack section of the config file into
// notifier settings. An invalid webhook URL disables the channel.
func loadSlackConfig(logger *slog.Logger, cfg config.WebhookConfig) notifier.SlackConfig {
	if !cfg.Enabled {
		return notifier.SlackConfig{Enabled: false}
	}
	if err := config.ValidateSlackWebhookURL(cfg.WebhookURL); err != nil {
		logger.Warn("invalid Slack webhook URL, disabling notifications", slog.Any("error", err))
		return notifier.SlackConfig{Enabled: false}
	}
	return notifier.SlackConfig{
		Enabled:    true,
		WebhookURL: cfg.WebhookURL,
		Timeout:    30 * time.Second,
	}
}

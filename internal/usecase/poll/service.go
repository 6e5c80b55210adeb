// Package poll drives the fetch, extract, diff, notify and archive cycle
// against the listing page.
//
// A Service owns the in-memory History for its whole lifetime. RunCycle
// executes exactly one cycle and reports the terminal state together with
// the delay until the next one; Run repeats cycles on a timer until its
// context is canceled.
package poll

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"hackerfeed/internal/domain/entity"
	"hackerfeed/internal/observability/logging"
	"hackerfeed/internal/observability/metrics"
	"hackerfeed/internal/observability/tracing"
	"hackerfeed/internal/usecase/filter"

	"github.com/robfig/cron/v3"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// DefaultRetryBackoff is the fixed delay after a failed fetch or parse.
const DefaultRetryBackoff = 30 * time.Second

// Fetcher retrieves the raw listing page.
type Fetcher interface {
	Fetch(ctx context.Context) ([]byte, error)
	// URL is the page address, used as the base for resolving story links.
	URL() string
}

// Extractor turns a listing page into story links in document order.
type Extractor interface {
	ExtractLinks(body []byte, baseURL string) ([]entity.StoryLink, error)
}

// HistoryStore loads and saves the seen-URL set.
type HistoryStore interface {
	Load() (entity.History, error)
	Save(h entity.History) error
}

// Archiver appends story lines to the dated archive.
type Archiver interface {
	Append(date time.Time, entries []entity.ArchiveEntry) error
}

// Dispatcher hands a notification batch to the delivery channels without waiting.
type Dispatcher interface {
	Dispatch(ctx context.Context, msgs []entity.NotificationMessage) error
}

// Config controls scheduling and filtering.
type Config struct {
	// Interval between successful cycles. Ignored when Schedule is set.
	Interval time.Duration

	// Schedule is an optional 5-field cron expression.
	Schedule string

	// Location is used for cron evaluation and archive dates. Defaults to time.Local.
	Location *time.Location

	// RetryBackoff is the delay after a failed fetch or parse. Defaults to 30s.
	RetryBackoff time.Duration

	Filter filter.Config
}

// Service runs poll cycles.
type Service struct {
	fetcher    Fetcher
	extractor  Extractor
	store      HistoryStore
	archive    Archiver
	dispatcher Dispatcher

	cfg      Config
	schedule cron.Schedule
	logger   *slog.Logger
	now      func() time.Time

	// history is touched only by the goroutine running cycles.
	history entity.History

	onCycle []func(CycleResult)

	statusMu sync.RWMutex
	status   Status
}

// Option customizes a Service.
type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithLogger sets the base logger for cycle logs.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithCycleHook registers fn to be called with every cycle result.
// Hooks run on the polling goroutine and must not block.
func WithCycleHook(fn func(CycleResult)) Option {
	return func(s *Service) { s.onCycle = append(s.onCycle, fn) }
}

// NewService wires the cycle dependencies.
//
// Returns an error when the schedule cannot be parsed or when neither an
// interval nor a schedule is configured.
func NewService(fetcher Fetcher, extractor Extractor, store HistoryStore, archive Archiver,
	dispatcher Dispatcher, cfg Config, opts ...Option) (*Service, error) {
	if cfg.Location == nil {
		cfg.Location = time.Local
	}
	if cfg.RetryBackoff <= 0 {
		cfg.RetryBackoff = DefaultRetryBackoff
	}

	var schedule cron.Schedule
	switch {
	case cfg.Schedule != "":
		parsed, err := cron.ParseStandard(cfg.Schedule)
		if err != nil {
			return nil, fmt.Errorf("parse schedule %q: %w", cfg.Schedule, err)
		}
		schedule = parsed
	case cfg.Interval <= 0:
		return nil, &entity.ValidationError{Field: "interval", Message: "must be positive when no schedule is set"}
	}

	s := &Service{
		fetcher:    fetcher,
		extractor:  extractor,
		store:      store,
		archive:    archive,
		dispatcher: dispatcher,
		cfg:        cfg,
		schedule:   schedule,
		logger:     slog.Default(),
		now:        time.Now,
		history:    entity.NewHistory(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// LoadHistory replaces the in-memory history with the persisted one.
// A load failure leaves an empty history and is logged as a warning.
func (s *Service) LoadHistory() {
	h, err := s.store.Load()
	if err != nil {
		s.logger.Warn("starting with empty history", slog.Any("error", err))
	}
	if h == nil {
		h = entity.NewHistory()
	}
	s.history = h
	metrics.SetHistorySize(h.Len())
	s.updateStatus(func(st *Status) { st.HistorySize = h.Len() })
	s.logger.Info("history loaded", slog.Int("urls", h.Len()))
}

// SaveHistory persists the in-memory history. It must not run concurrently with Run.
func (s *Service) SaveHistory() error {
	err := s.store.Save(s.history)
	metrics.RecordStateSave(err)
	if err != nil {
		s.logger.Error("failed to save history", slog.Any("error", err))
		return err
	}
	s.logger.Info("history saved", slog.Int("urls", s.history.Len()))
	return nil
}

// History returns a copy of the in-memory history.
func (s *Service) History() entity.History {
	return s.history.Clone()
}

// Run executes a cycle immediately, then keeps scheduling cycles until ctx is
// canceled. Exactly one cycle is in flight at any time.
func (s *Service) Run(ctx context.Context) error {
	s.logger.Info("poll loop started",
		slog.String("url", s.fetcher.URL()),
		slog.Duration("interval", s.cfg.Interval),
		slog.String("schedule", s.cfg.Schedule))

	timer := time.NewTimer(0)
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			s.logger.Info("poll loop stopped")
			return nil
		case <-timer.C:
		}

		result := s.RunCycle(ctx)
		if result.State == StateCanceled {
			s.logger.Info("poll loop stopped")
			return nil
		}
		timer.Reset(result.Delay)
	}
}

// RunCycle executes one fetch, extract, diff, notify and archive pass.
//
// Fetch and parse failures end the cycle with the retry backoff as delay and
// leave history and archive untouched. Archive and dispatch failures are
// logged and do not change the terminal state.
func (s *Service) RunCycle(ctx context.Context) (result CycleResult) {
	start := s.now()
	result = CycleResult{CycleID: logging.NewCycleID(), StartedAt: start}

	ctx = logging.WithCycleID(ctx, s.logger, result.CycleID)
	ctx, span := tracing.GetTracer().Start(ctx, "poll.cycle",
		trace.WithAttributes(attribute.String("cycle.id", result.CycleID)))
	ctx = logging.WithTraceID(ctx, tracing.TraceID(ctx))
	logger := logging.FromContext(ctx)

	defer func() {
		result.Duration = s.now().Sub(start)
		span.SetAttributes(
			attribute.String("cycle.state", string(result.State)),
			attribute.Int("stories.extracted", result.Extracted),
			attribute.Int("stories.new", result.New),
			attribute.Int("stories.matched", result.Matched),
		)
		if result.Err != nil {
			span.RecordError(result.Err)
			span.SetStatus(codes.Error, result.Err.Error())
		}
		span.End()
		s.finish(result)
	}()

	body, err := s.fetcher.Fetch(ctx)
	if err != nil {
		if ctx.Err() != nil {
			result.State, result.Err = StateCanceled, err
			return result
		}
		kind := kindOrDefault(err, entity.KindTransport)
		metrics.RecordListingFetchFailure(string(kind))
		logger.Warn("fetch failed, backing off",
			slog.String("kind", string(kind)),
			slog.Duration("retry_in", s.cfg.RetryBackoff),
			slog.Any("error", err))
		result.State, result.Delay, result.Err = StateFetchFailed, s.cfg.RetryBackoff, err
		return result
	}
	metrics.RecordListingFetch(s.now().Sub(start))

	links, err := s.extractor.ExtractLinks(body, s.fetcher.URL())
	if err != nil {
		kind := kindOrDefault(err, entity.KindMarkup)
		metrics.RecordListingParseFailure(string(kind))
		logger.Warn("parse failed, backing off",
			slog.String("kind", string(kind)),
			slog.Duration("retry_in", s.cfg.RetryBackoff),
			slog.Any("error", err))
		result.State, result.Delay, result.Err = StateParseFailed, s.cfg.RetryBackoff, err
		return result
	}
	result.Extracted = len(links)

	fresh := s.history.Diff(links)
	result.New = len(fresh)
	if len(fresh) == 0 {
		metrics.RecordStories(result.Extracted, 0, 0)
		logger.Debug("no new stories", slog.Int("extracted", result.Extracted))
		result.State, result.Delay = StateNoNew, s.nextDelay()
		return result
	}

	date := start.In(s.cfg.Location)
	entries := make([]entity.ArchiveEntry, 0, len(fresh))
	var msgs []entity.NotificationMessage
	for _, link := range fresh {
		s.history.Add(link.URL)
		entries = append(entries, entity.NewArchiveEntry(date, link))
		if filter.IsInteresting(link.Title, link.URL, s.cfg.Filter) {
			msgs = append(msgs, entity.NewNotificationMessage(link))
		}
	}
	result.Matched = len(msgs)
	metrics.SetHistorySize(s.history.Len())
	metrics.RecordStories(result.Extracted, result.New, result.Matched)

	if err := s.archive.Append(date, entries); err != nil {
		logger.Error("archive append failed", slog.Int("lines", len(entries)), slog.Any("error", err))
		metrics.RecordArchiveWrite(len(entries), err)
	} else {
		logger.Debug("archive appended", slog.Int("lines", len(entries)))
		metrics.RecordArchiveWrite(len(entries), nil)
	}

	if len(msgs) > 0 {
		if err := s.dispatcher.Dispatch(ctx, msgs); err != nil {
			logger.Error("notification dispatch failed", slog.Int("messages", len(msgs)), slog.Any("error", err))
		}
	}

	logger.Info("cycle completed",
		slog.Int("extracted", result.Extracted),
		slog.Int("new", result.New),
		slog.Int("matched", result.Matched),
		slog.Int("history", s.history.Len()))

	result.State, result.Delay = StateCompleted, s.nextDelay()
	return result
}

// nextDelay is measured from the end of the cycle: the full interval, or the
// time until the schedule next fires when one is configured.
func (s *Service) nextDelay() time.Duration {
	if s.schedule == nil {
		return s.cfg.Interval
	}
	now := s.now().In(s.cfg.Location)
	return s.schedule.Next(now).Sub(now)
}

func (s *Service) finish(result CycleResult) {
	s.updateStatus(func(st *Status) {
		st.LastCycle = &result
		st.HistorySize = s.history.Len()
		if result.State.Succeeded() {
			t := result.StartedAt
			st.LastSuccess = &t
			st.ConsecutiveFailures = 0
		} else if result.State != StateCanceled {
			st.ConsecutiveFailures++
		}
		if result.State != StateCanceled {
			next := s.now().Add(result.Delay)
			st.NextRun = &next
		}
	})

	for _, fn := range s.onCycle {
		fn(result)
	}
}

func kindOrDefault(err error, fallback entity.FailureKind) entity.FailureKind {
	if kind := entity.FailureKindOf(err); kind != "" {
		return kind
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return entity.KindTimeout
	}
	return fallback
}

package fetcher

import (
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"hackerfeed/internal/domain/entity"
	"hackerfeed/internal/observability/tracing"
	"hackerfeed/internal/resilience/circuitbreaker"
	"hackerfeed/internal/resilience/retry"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

// PageFetcher performs the single GET of the listing page each cycle.
//
// Every call is bounded by the configured timeout and runs through a circuit
// breaker. The breaker cools down within one retry backoff, so while the site
// is failing each poll retry still issues exactly one request. Failures are always returned as *entity.FetchError with a Kind
// naming what went wrong.
//
// Thread safety: PageFetcher is safe for concurrent use.
type PageFetcher struct {
	client         *http.Client
	circuitBreaker *circuitbreaker.Breaker
	config         ListingConfig
}

// NewPageFetcher creates a fetcher for cfg. The HTTP client follows at most
// cfg.MaxRedirects redirects and only to http/https targets.
func NewPageFetcher(cfg ListingConfig) (*PageFetcher, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("listing fetch config: %w", err)
	}

	client := &http.Client{
		Transport: &http.Transport{
			Proxy:               http.ProxyFromEnvironment,
			MaxIdleConns:        10,
			MaxIdleConnsPerHost: 2,
			IdleConnTimeout:     90 * time.Second,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12, // Enforce TLS 1.2+
			},
		},
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			if len(via) >= cfg.MaxRedirects {
				return fmt.Errorf("%w: %d redirects", ErrTooManyRedirects, len(via))
			}
			return validateURL(req.URL.String())
		},
	}

	return &PageFetcher{
		client:         client,
		circuitBreaker: circuitbreaker.New(circuitbreaker.ListingFetchConfig(cfg.BreakerCooldown)),
		config:         cfg,
	}, nil
}

// URL returns the listing URL; it doubles as the base for resolving story links.
func (f *PageFetcher) URL() string {
	return f.config.URL
}

// Fetch downloads the listing page and returns its body.
func (f *PageFetcher) Fetch(ctx context.Context) ([]byte, error) {
	ctx, span := tracing.GetTracer().Start(ctx, "listing.fetch")
	defer span.End()
	span.SetAttributes(attribute.String("http.url", f.config.URL))

	body, err := circuitbreaker.Call(f.circuitBreaker, func() ([]byte, error) {
		return f.doFetch(ctx)
	})
	if err != nil {
		if circuitbreaker.IsRejected(err) {
			slog.Warn("listing fetch circuit breaker open, request rejected",
				slog.String("service", f.circuitBreaker.Name()),
				slog.String("url", f.config.URL),
				slog.String("state", f.circuitBreaker.State().String()))
			err = &entity.FetchError{Kind: entity.KindCircuitOpen, URL: f.config.URL, Err: err}
		}
		span.RecordError(err)
		span.SetStatus(codes.Error, string(entity.FailureKindOf(err)))
		return nil, err
	}

	span.SetAttributes(attribute.Int("http.response_size", len(body)))
	return body, nil
}

// doFetch performs the request without the circuit breaker.
func (f *PageFetcher) doFetch(ctx context.Context) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, f.config.Timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(reqCtx, http.MethodGet, f.config.URL, nil)
	if err != nil {
		return nil, f.fail(entity.KindTransport, fmt.Errorf("create request: %w", err))
	}
	req.Header.Set("User-Agent", f.config.UserAgent)
	req.Header.Set("Accept", "text/html")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, f.classify(reqCtx, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		// Drain a little so the connection can be reused
		_, _ = io.CopyN(io.Discard, resp.Body, 4096)
		return nil, &entity.FetchError{
			Kind:       entity.KindHTTPStatus,
			URL:        f.config.URL,
			StatusCode: resp.StatusCode,
			Err: &retry.HTTPError{
				StatusCode: resp.StatusCode,
				Message:    fmt.Sprintf("unexpected status: %s", resp.Status),
			},
		}
	}

	// Read one extra byte to detect bodies over the limit
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.config.MaxBodySize+1))
	if err != nil {
		return nil, f.classify(reqCtx, fmt.Errorf("read body: %w", err))
	}
	if int64(len(body)) > f.config.MaxBodySize {
		return nil, f.fail(entity.KindTransport, fmt.Errorf("response body exceeds %d bytes", f.config.MaxBodySize))
	}

	return body, nil
}

func (f *PageFetcher) classify(reqCtx context.Context, err error) error {
	if errors.Is(reqCtx.Err(), context.DeadlineExceeded) || retry.IsTimeout(err) {
		return f.fail(entity.KindTimeout, fmt.Errorf("request exceeded %v: %w", f.config.Timeout, err))
	}
	return f.fail(entity.KindTransport, err)
}

func (f *PageFetcher) fail(kind entity.FailureKind, err error) error {
	return &entity.FetchError{Kind: kind, URL: f.config.URL, Err: err}
}

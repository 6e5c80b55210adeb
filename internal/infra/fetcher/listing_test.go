package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"hackerfeed/internal/domain/entity"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestFetcher(t *testing.T, url string, mutate func(*ListingConfig)) *PageFetcher {
	t.Helper()
	cfg := DefaultConfig()
	cfg.URL = url
	cfg.Timeout = 2 * time.Second
	if mutate != nil {
		mutate(&cfg)
	}
	f, err := NewPageFetcher(cfg)
	require.NoError(t, err)
	return f
}

func requireFetchKind(t *testing.T, err error, want entity.FailureKind) *entity.FetchError {
	t.Helper()
	require.Error(t, err)
	var fetchErr *entity.FetchError
	require.True(t, errors.As(err, &fetchErr), "expected *entity.FetchError, got %T: %v", err, err)
	assert.Equal(t, want, fetchErr.Kind)
	return fetchErr
}

func TestPageFetcher_Fetch_Success(t *testing.T) {
	var gotUA string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte("<html><body>listing</body></html>"))
	}))
	defer server.Close()

	f := newTestFetcher(t, server.URL+"/newest", func(c *ListingConfig) { c.UserAgent = "test-agent/2" })

	body, err := f.Fetch(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "<html><body>listing</body></html>", string(body))
	assert.Equal(t, "test-agent/2", gotUA)
	assert.Equal(t, server.URL+"/newest", f.URL())
}

func TestPageFetcher_Fetch_Non2xx(t *testing.T) {
	tests := []struct {
		name   string
		status int
	}{
		{name: "server error", status: http.StatusServiceUnavailable},
		{name: "not found", status: http.StatusNotFound},
		{name: "forbidden", status: http.StatusForbidden},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer server.Close()

			_, err := newTestFetcher(t, server.URL, nil).Fetch(context.Background())

			fetchErr := requireFetchKind(t, err, entity.KindHTTPStatus)
			assert.Equal(t, tt.status, fetchErr.StatusCode)
		})
	}
}

func TestPageFetcher_Fetch_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	f := newTestFetcher(t, server.URL, func(c *ListingConfig) { c.Timeout = 50 * time.Millisecond })

	_, err := f.Fetch(context.Background())

	requireFetchKind(t, err, entity.KindTimeout)
}

func TestPageFetcher_Fetch_TransportError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close()

	_, err := newTestFetcher(t, url, nil).Fetch(context.Background())

	requireFetchKind(t, err, entity.KindTransport)
}

func TestPageFetcher_Fetch_BodyTooLarge(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer server.Close()

	f := newTestFetcher(t, server.URL, func(c *ListingConfig) { c.MaxBodySize = 1024 })

	_, err := f.Fetch(context.Background())

	requireFetchKind(t, err, entity.KindTransport)
}

func TestPageFetcher_Fetch_TooManyRedirects(t *testing.T) {
	var server *httptest.Server
	server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Redirect(w, r, server.URL+"/again", http.StatusFound)
	}))
	defer server.Close()

	f := newTestFetcher(t, server.URL, func(c *ListingConfig) { c.MaxRedirects = 2 })

	_, err := f.Fetch(context.Background())

	requireFetchKind(t, err, entity.KindTransport)
	assert.True(t, errors.Is(err, ErrTooManyRedirects))
}

func TestPageFetcher_Fetch_CircuitOpens(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer server.Close()

	f := newTestFetcher(t, server.URL, func(c *ListingConfig) { c.BreakerCooldown = time.Minute })

	for i := 0; i < 5; i++ {
		_, err := f.Fetch(context.Background())
		requireFetchKind(t, err, entity.KindHTTPStatus)
	}

	_, err := f.Fetch(context.Background())

	requireFetchKind(t, err, entity.KindCircuitOpen)
	assert.Equal(t, int32(5), calls.Load(), "open circuit must not reach the server")
}

func TestPageFetcher_Fetch_EveryBackoffRetryReachesServer(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	const backoff = 30 * time.Millisecond
	f := newTestFetcher(t, server.URL, func(c *ListingConfig) { c.BreakerCooldown = backoff })

	for i := 0; i < 8; i++ {
		if i > 0 {
			time.Sleep(backoff + 10*time.Millisecond)
		}
		_, err := f.Fetch(context.Background())
		requireFetchKind(t, err, entity.KindHTTPStatus)
	}

	assert.Equal(t, int32(8), calls.Load())
}

func TestNewPageFetcher_InvalidConfig(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*ListingConfig)
	}{
		{name: "relative url", mutate: func(c *ListingConfig) { c.URL = "/newest" }},
		{name: "ftp scheme", mutate: func(c *ListingConfig) { c.URL = "ftp://news.ycombinator.com/newest" }},
		{name: "zero timeout", mutate: func(c *ListingConfig) { c.Timeout = 0 }},
		{name: "tiny body limit", mutate: func(c *ListingConfig) { c.MaxBodySize = 10 }},
		{name: "too many redirects", mutate: func(c *ListingConfig) { c.MaxRedirects = 50 }},
		{name: "zero breaker cooldown", mutate: func(c *ListingConfig) { c.BreakerCooldown = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)

			_, err := NewPageFetcher(cfg)
			assert.Error(t, err)
		})
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "https://news.ycombinator.com/newest", cfg.URL)
	assert.Equal(t, 10*time.Second, cfg.Timeout)
	assert.NoError(t, cfg.Validate())
}

func TestListingConfig_Validate_ReportsEveryField(t *testing.T) {
	cfg := ListingConfig{URL: "mailto:x", Timeout: 0, MaxBodySize: 1, MaxRedirects: -1}

	err := cfg.Validate()

	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalidURL)
	for _, want := range []string{"timeout", "max body size", "max redirects", "breaker cooldown"} {
		assert.Contains(t, err.Error(), want)
	}
}

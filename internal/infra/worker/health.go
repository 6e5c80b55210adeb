package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"sync/atomic"
	"time"
)

// HealthServer answers the worker's health probes.
//
//   - GET /health        liveness, always 200
//   - GET /health/ready  200 once SetReady(true) was called, 503 otherwise
//
// Additional status endpoints are added with RegisterStatus before Start.
type HealthServer struct {
	addr   string
	logger *slog.Logger
	ready  atomic.Bool

	mu       sync.Mutex
	statuses map[string]StatusFunc
}

// StatusFunc returns a JSON-encodable snapshot and whether it is healthy.
type StatusFunc func() (snapshot any, healthy bool)

type healthResponse struct {
	Status string `json:"status"`
}

// NewHealthServer returns a server for addr that reports not ready.
func NewHealthServer(addr string, logger *slog.Logger) *HealthServer {
	return &HealthServer{addr: addr, logger: logger}
}

// Start listens on the configured address and serves until ctx is done.
// It returns nil after a graceful shutdown.
func (h *HealthServer) Start(ctx context.Context) error {
	ln, err := net.Listen("tcp", h.addr)
	if err != nil {
		return fmt.Errorf("listen %s: %w", h.addr, err)
	}
	return h.serve(ctx, ln)
}

func (h *HealthServer) serve(ctx context.Context, ln net.Listener) error {
	srv := &http.Server{
		Handler:      h.Handler(),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 5 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		h.logger.Info("health server starting", slog.String("addr", ln.Addr().String()))
		errCh <- srv.Serve(ln)
	}()

	select {
	case err := <-errCh:
		h.logger.Error("health server failed", slog.Any("error", err))
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("health server shutdown: %w", err)
	}
	if err := <-errCh; err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	h.logger.Info("health server stopped")
	return nil
}

// RegisterStatus serves fn at path. The body is the snapshot in both cases;
// the status code is 200 when fn reports healthy and 503 otherwise.
func (h *HealthServer) RegisterStatus(path string, fn StatusFunc) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.statuses == nil {
		h.statuses = make(map[string]StatusFunc)
	}
	h.statuses[path] = fn
}

// Handler returns the mux serving every health endpoint.
func (h *HealthServer) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		h.writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
	})
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		if h.ready.Load() {
			h.writeJSON(w, r, http.StatusOK, healthResponse{Status: "ok"})
			return
		}
		h.writeJSON(w, r, http.StatusServiceUnavailable, healthResponse{Status: "not ready"})
	})

	h.mu.Lock()
	for path, fn := range h.statuses {
		mux.HandleFunc(path, func(w http.ResponseWriter, r *http.Request) {
			snapshot, healthy := fn()
			code := http.StatusOK
			if !healthy {
				code = http.StatusServiceUnavailable
			}
			h.writeJSON(w, r, code, snapshot)
		})
	}
	h.mu.Unlock()

	return mux
}

// SetReady flips the answer of /health/ready.
func (h *HealthServer) SetReady(ready bool) {
	h.ready.Store(ready)
	h.logger.Info("health server readiness changed", slog.Bool("ready", ready))
}

func (h *HealthServer) writeJSON(w http.ResponseWriter, r *http.Request, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		h.logger.Error("failed to encode health response",
			slog.String("path", r.URL.Path),
			slog.Any("error", err))
	}
}

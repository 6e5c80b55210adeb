package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"hackerfeed/internal/observability/metrics"
	"hackerfeed/internal/observability/tracing"
	"hackerfeed/internal/usecase/notify"
	"hackerfeed/internal/usecase/poll"

	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// HealthResponse represents a simple health check response.
type HealthResponse struct {
	Status string `json:"status"`
}

// ChannelHealthResponse represents the health status of all notification channels.
type ChannelHealthResponse struct {
	Healthy  bool            `json:"healthy"`
	Channels []ChannelStatus `json:"channels"`
}

// ChannelStatus represents the status of a single notification channel.
type ChannelStatus struct {
	Name               string     `json:"name"`
	Enabled            bool       `json:"enabled"`
	CircuitBreakerOpen bool       `json:"circuit_breaker_open"`
	DisabledUntil      *time.Time `json:"disabled_until,omitempty"`
}

// PollStatusResponse is the body of /health/poll.
type PollStatusResponse struct {
	LastCycle           *CycleStatus `json:"last_cycle,omitempty"`
	LastSuccess         *time.Time   `json:"last_success,omitempty"`
	NextRun             *time.Time   `json:"next_run,omitempty"`
	ConsecutiveFailures int          `json:"consecutive_failures"`
	HistorySize         int          `json:"history_size"`
}

// CycleStatus summarizes one finished poll cycle.
type CycleStatus struct {
	CycleID    string    `json:"cycle_id"`
	State      string    `json:"state"`
	StartedAt  time.Time `json:"started_at"`
	DurationMS int64     `json:"duration_ms"`
	Extracted  int       `json:"extracted"`
	New        int       `json:"new"`
	Matched    int       `json:"matched"`
	Error      string    `json:"error,omitempty"`
}

func newPollStatusResponse(st poll.Status) PollStatusResponse {
	resp := PollStatusResponse{
		LastSuccess:         st.LastSuccess,
		NextRun:             st.NextRun,
		ConsecutiveFailures: st.ConsecutiveFailures,
		HistorySize:         st.HistorySize,
	}
	if c := st.LastCycle; c != nil {
		resp.LastCycle = &CycleStatus{
			CycleID:    c.CycleID,
			State:      string(c.State),
			StartedAt:  c.StartedAt,
			DurationMS: c.Duration.Milliseconds(),
			Extracted:  c.Extracted,
			New:        c.New,
			Matched:    c.Matched,
		}
		if c.Err != nil {
			resp.LastCycle.Error = c.Err.Error()
		}
	}
	return resp
}

// newMetricsHandler builds the mux served on the metrics port:
//
//	/metrics          Prometheus exposition
//	/health           liveness, always 200
//	/health/channels  per-channel breaker state, 503 while an enabled channel is open
//
// Every request is traced and counted in http_requests_total.
func newMetricsHandler(notifyService notify.Service) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, HealthResponse{Status: "healthy"})
	})
	mux.HandleFunc("/health/channels", func(w http.ResponseWriter, r *http.Request) {
		if notifyService == nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"error": "notification service not initialized",
			})
			return
		}
		resp := newChannelHealthResponse(notifyService.GetChannelHealth())
		code := http.StatusOK
		if !resp.Healthy {
			code = http.StatusServiceUnavailable
		}
		writeJSON(w, code, resp)
	})

	return tracing.Middleware(metrics.Middleware(mux))
}

// newChannelHealthResponse is unhealthy when any enabled channel has an
// open breaker. Disabled channels are listed but never count against it.
func newChannelHealthResponse(statuses []notify.ChannelHealthStatus) ChannelHealthResponse {
	resp := ChannelHealthResponse{Healthy: true, Channels: make([]ChannelStatus, 0, len(statuses))}
	for _, st := range statuses {
		resp.Channels = append(resp.Channels, ChannelStatus{
			Name:               st.Name,
			Enabled:            st.Enabled,
			CircuitBreakerOpen: st.CircuitBreakerOpen,
			DisabledUntil:      st.DisabledUntil,
		})
		if st.Enabled && st.CircuitBreakerOpen {
			resp.Healthy = false
		}
	}
	return resp
}

// startMetricsServer serves newMetricsHandler on port until ctx is done,
// then shuts down within five seconds. A clean shutdown returns nil.
func startMetricsServer(ctx context.Context, logger *slog.Logger, port int, notifyService notify.Service) error {
	server := &http.Server{
		Addr:         fmt.Sprintf(":%d", port),
		Handler:      newMetricsHandler(notifyService),
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("metrics server starting", slog.Int("port", port))
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("metrics server: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Warn("metrics server shutdown incomplete", slog.Any("error", err))
		return nil
	}
	logger.Info("metrics server stopped")
	return nil
}

func writeJSON(w http.ResponseWriter, code int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(body)
}

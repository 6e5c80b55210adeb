package metrics

import (
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestMiddleware(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/health/ready", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	})
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})
	handler := Middleware(mux)

	tests := []struct {
		name       string
		path       string
		wantPath   string
		wantStatus string
	}{
		{name: "implicit 200", path: "/health", wantPath: "/health", wantStatus: "200"},
		{name: "explicit status", path: "/health/ready", wantPath: "/health/ready", wantStatus: "503"},
		{name: "unknown path collapsed", path: "/wp-admin/x", wantPath: "unmatched", wantStatus: "404"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			counter := HTTPRequestsTotal.WithLabelValues(http.MethodGet, tt.wantPath, tt.wantStatus)
			before := testutil.ToFloat64(counter)

			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, tt.path, nil))

			assert.Equal(t, tt.wantStatus, strconv.Itoa(rec.Code))
			assert.Equal(t, before+1, testutil.ToFloat64(counter))
		})
	}
}

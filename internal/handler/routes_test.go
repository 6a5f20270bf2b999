package handler

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/labstack/echo/v4"

	"fetch-relay-go/internal/config"
	"fetch-relay-go/internal/metrics"
)

// newTestEcho builds an Echo instance wired the way main does, with the
// plain-text error handler and registered routes.
func newTestEcho(t *testing.T, cfg *config.Config, fetch *FetchHandler) *echo.Echo {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))

	e := echo.New()
	e.HTTPErrorHandler = NewHTTPErrorHandler(logger)
	RegisterRoutes(e, fetch, NewHealthHandler("test"), cfg, metrics.New())
	return e
}

func TestRegisterRoutes_Wiring(t *testing.T) {
	var originRequests atomic.Int64
	origin := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		originRequests.Add(1)
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("hello"))
	}))
	defer origin.Close()

	cfg := &config.Config{}
	fetch := newFetchHandler(t, config.ModeStream, nil)
	e := newTestEcho(t, cfg, fetch)

	fetchTarget := "/fetch?url=" + url.QueryEscape(origin.URL)

	tests := []struct {
		name        string
		method      string
		path        string
		wantStatus  int
		wantBody    string
		wantOutcall bool
	}{
		{"GET /health", http.MethodGet, "/health", http.StatusOK, "ok\n", false},
		{"GET /fetch", http.MethodGet, fetchTarget, http.StatusOK, "hello", true},
		{"GET unknown path", http.MethodGet, "/unknown", http.StatusNotFound, "not found\n", false},
		{"GET root", http.MethodGet, "/", http.StatusNotFound, "not found\n", false},
		{"POST /fetch folds to 404", http.MethodPost, fetchTarget, http.StatusNotFound, "not found\n", false},
		{"DELETE /health folds to 404", http.MethodDelete, "/health", http.StatusNotFound, "not found\n", false},
		{"GET /metrics disabled", http.MethodGet, "/metrics", http.StatusNotFound, "not found\n", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			before := originRequests.Load()

			req := httptest.NewRequest(tt.method, tt.path, http.NoBody)
			rec := httptest.NewRecorder()
			e.ServeHTTP(rec, req)

			if rec.Code != tt.wantStatus {
				t.Errorf("status = %d, want %d", rec.Code, tt.wantStatus)
			}
			if got := rec.Body.String(); got != tt.wantBody {
				t.Errorf("body = %q, want %q", got, tt.wantBody)
			}

			madeCall := originRequests.Load() > before
			if madeCall != tt.wantOutcall {
				t.Errorf("origin call made = %v, want %v", madeCall, tt.wantOutcall)
			}
		})
	}
}

func TestRegisterRoutes_MetricsEnabled(t *testing.T) {
	cfg := &config.Config{
		Metrics: config.MetricsConfig{Enabled: true, Path: "/metrics"},
	}
	fetch := newFetchHandler(t, config.ModeStream, nil)
	e := newTestEcho(t, cfg, fetch)

	req := httptest.NewRequest(http.MethodGet, "/metrics", http.NoBody)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "go_goroutines") {
		t.Error("metrics exposition should include go collector series")
	}
}

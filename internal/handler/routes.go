package handler

import (
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"fetch-relay-go/internal/config"
	"fetch-relay-go/internal/metrics"
)

// RegisterRoutes wires all route handlers onto the Echo instance.
// The public surface is exactly /health and /fetch; the metrics endpoint is
// registered only when enabled so everything else stays a 404.
func RegisterRoutes(e *echo.Echo, fetch *FetchHandler, health *HealthHandler, cfg *config.Config, m *metrics.Metrics) {
	e.GET("/health", health.Health)
	e.GET("/fetch", fetch.Handle)

	if cfg.Metrics.Enabled {
		e.GET(cfg.Metrics.Path, echo.WrapHandler(
			promhttp.HandlerFor(m.Registry, promhttp.HandlerOpts{}),
		))
	}
}

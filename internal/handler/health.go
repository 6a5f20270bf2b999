package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
)

// Version is a string type for dependency injection of the build version.
type Version string

// HealthHandler serves the liveness endpoint.
type HealthHandler struct {
	version Version
}

// NewHealthHandler creates a HealthHandler.
func NewHealthHandler(v Version) *HealthHandler {
	return &HealthHandler{version: v}
}

// Health returns the fixed liveness body. Constrained clients compare the
// body byte-for-byte, so it is always exactly "ok\n" regardless of query
// parameters; the build version travels in a header instead.
func (h *HealthHandler) Health(c echo.Context) error {
	c.Response().Header().Set("X-Relay-Version", string(h.version))
	return c.String(http.StatusOK, "ok\n")
}

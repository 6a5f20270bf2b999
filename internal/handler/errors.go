package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
)

// NewHTTPErrorHandler returns an Echo error handler that renders framework
// errors as short plain-text bodies. Constrained clients cannot parse JSON
// error envelopes, and the wire contract routes everything outside /health
// and /fetch to 404 — including method mismatches, which Echo would
// otherwise report as 405.
func NewHTTPErrorHandler(logger *slog.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code := http.StatusInternalServerError
		var he *echo.HTTPError
		if errors.As(err, &he) {
			code = he.Code
		}
		if code == http.StatusMethodNotAllowed {
			code = http.StatusNotFound
		}

		var body string
		switch code {
		case http.StatusNotFound:
			body = "not found\n"
		default:
			body = strings.ToLower(http.StatusText(code)) + "\n"
			logger.Error("request failed",
				"err", err,
				"status", code,
				"path", c.Request().URL.Path,
			)
		}

		if serr := c.String(code, body); serr != nil {
			logger.Error("writing error response", "err", serr)
		}
	}
}

package handler

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
)

func TestHealth_FixedBody(t *testing.T) {
	h := NewHealthHandler("1.2.3")
	e := echo.New()

	// Query parameters must not change the body; constrained clients
	// compare it byte-for-byte.
	for _, target := range []string{"/health", "/health?probe=1&url=x"} {
		req := httptest.NewRequest(http.MethodGet, target, http.NoBody)
		rec := httptest.NewRecorder()
		c := e.NewContext(req, rec)

		if err := h.Health(c); err != nil {
			t.Fatalf("Health() error = %v", err)
		}
		if rec.Code != http.StatusOK {
			t.Errorf("%s: status = %d, want 200", target, rec.Code)
		}
		if got := rec.Body.String(); got != "ok\n" {
			t.Errorf("%s: body = %q, want %q", target, got, "ok\n")
		}
		if v := rec.Header().Get("X-Relay-Version"); v != "1.2.3" {
			t.Errorf("%s: X-Relay-Version = %q, want %q", target, v, "1.2.3")
		}
	}
}

package handler

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"fetch-relay-go/internal/config"
	"fetch-relay-go/internal/metrics"
	"fetch-relay-go/internal/model"
	"fetch-relay-go/internal/service"
)

// truncationMarker is appended to a streamed body when the byte cap was
// reached before the origin's stream ended, so a capped response is
// distinguishable from a natural end-of-document.
const truncationMarker = "\n\n[proxy] truncated\n"

// controlBytes matches control characters that would corrupt a plain-text
// response if an origin error message were echoed verbatim.
var controlBytes = regexp.MustCompile(`[[:cntrl:]]+`)

// FetchHandler performs the bounded forward fetch for /fetch requests.
type FetchHandler struct {
	service *service.RelayService
	logger  *slog.Logger
	metrics *metrics.Metrics
}

// NewFetchHandler creates a FetchHandler. The metrics parameter is optional;
// pass nil to disable relay metrics recording.
func NewFetchHandler(svc *service.RelayService, logger *slog.Logger, m *metrics.Metrics) *FetchHandler {
	return &FetchHandler{
		service: svc,
		logger:  logger.With("component", "fetch_handler"),
		metrics: m,
	}
}

// Handle validates the url and max parameters, fetches the target origin,
// and relays the body back to the caller. Parameter errors fail fast with
// 400 before any outbound I/O; any origin failure maps to 502.
func (h *FetchHandler) Handle(c echo.Context) error {
	query := c.Request().URL.Query()

	target, err := h.service.ValidateTarget(query.Get("url"))
	if err != nil {
		return c.String(http.StatusBadRequest, err.Error()+"\n")
	}
	capBytes := h.service.EffectiveCap(query.Get("max"))

	result, err := h.service.Fetch(c.Request().Context(), target)
	if err != nil {
		return h.mapFetchError(c, target, err)
	}
	defer func() { _ = result.Body.Close() }()

	if h.service.Mode() == config.ModeBuffer {
		return h.relayBuffered(c, target, result)
	}
	return h.relayStreamed(c, target, result, capBytes)
}

// relayStreamed sends a 200 immediately and copies the origin body to the
// caller in fixed-size chunks until origin EOF or the byte cap. The response
// carries no Content-Length; Transfer-Encoding: identity plus Connection:
// close makes net/http skip chunked encoding and close the connection at
// EOF, which is the only framing a minimal client stack can rely on.
func (h *FetchHandler) relayStreamed(c echo.Context, target *url.URL, result *model.FetchResult, capBytes int64) error {
	res := c.Response()
	res.Header().Set(echo.HeaderContentType, result.ContentType())
	res.Header().Set("X-Upstream-Status", strconv.Itoa(result.StatusCode))
	res.Header().Set("Connection", "close")
	res.Header().Set("Transfer-Encoding", "identity")
	res.WriteHeader(http.StatusOK)

	buf := make([]byte, h.service.ChunkBytes())
	var written int64
	for written < capBytes {
		n := int64(len(buf))
		if remaining := capBytes - written; remaining < n {
			n = remaining
		}

		rn, rerr := result.Body.Read(buf[:n])
		if rn > 0 {
			if _, werr := res.Write(buf[:rn]); werr != nil {
				// Caller socket is gone; the upstream body is released by
				// the deferred close and there is nothing left to send.
				h.logger.Warn("relay write failed",
					"err", werr,
					"host", target.Host,
					"bytes_written", written,
				)
				return nil
			}
			res.Flush()
			written += int64(rn)
			if h.metrics != nil {
				h.metrics.RelayBytesTotal.Add(float64(rn))
			}
		}
		if rerr != nil {
			if rerr != io.EOF {
				// Origin died mid-stream. The 200 is already on the wire,
				// so the caller simply sees an early EOF.
				h.logger.Warn("origin read failed mid-relay",
					"err", rerr,
					"host", target.Host,
					"bytes_written", written,
				)
			}
			return nil
		}
	}

	// Cap reached. Probe one byte so a body of exactly cap bytes is not
	// marked as truncated.
	var probe [1]byte
	if rn, _ := result.Body.Read(probe[:]); rn > 0 {
		if h.metrics != nil {
			h.metrics.RelayTruncationsTotal.Inc()
		}
		h.logger.Info("relay truncated at cap",
			"host", target.Host,
			"cap", capBytes,
		)
		if _, err := res.Write([]byte(truncationMarker)); err == nil {
			res.Flush()
		}
	}
	return nil
}

// relayBuffered reads the whole origin body (bounded by the cap ceiling),
// then replies with the origin's true status and an accurate Content-Length.
func (h *FetchHandler) relayBuffered(c echo.Context, target *url.URL, result *model.FetchResult) error {
	body, err := io.ReadAll(io.LimitReader(result.Body, service.CapCeiling))
	if err != nil {
		return h.mapFetchError(c, target, err)
	}
	if h.metrics != nil {
		h.metrics.RelayBytesTotal.Add(float64(len(body)))
	}

	res := c.Response()
	res.Header().Set("Content-Length", strconv.Itoa(len(body)))
	res.Header().Set("Connection", "close")
	return c.Blob(result.StatusCode, result.ContentType(), body)
}

// mapFetchError reports an origin failure as 502 with a short plain-text
// cause. Raw error text is sanitized so control bytes or invalid UTF-8 from
// the network layer can never corrupt the response framing.
func (h *FetchHandler) mapFetchError(c echo.Context, target *url.URL, err error) error {
	h.logger.Error("fetch error",
		"err", err,
		"host", target.Host,
	)

	var cause string
	var dnsErr *net.DNSError
	var urlErr *url.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		cause = "origin timed out"
	case errors.As(err, &dnsErr):
		cause = "origin host unreachable"
	case errors.As(err, &urlErr):
		cause = sanitizeCause(urlErr.Err.Error())
	default:
		cause = sanitizeCause(err.Error())
	}

	return c.String(http.StatusBadGateway, "fetch error: "+cause+"\n")
}

// sanitizeCause strips control bytes and repairs invalid UTF-8 so the cause
// string is always safe to embed in a plain-text body.
func sanitizeCause(s string) string {
	s = controlBytes.ReplaceAllString(s, " ")
	s = strings.ToValidUTF8(s, "�")
	if s == "" {
		return "origin request failed"
	}
	return s
}

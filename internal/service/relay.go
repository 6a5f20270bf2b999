// Package service implements the core relay logic: target validation,
// byte-cap resolution, and the orchestrated origin fetch.
package service

import (
	"context"
	"errors"
	"log/slog"
	"net/url"
	"strconv"

	"fetch-relay-go/internal/client"
	"fetch-relay-go/internal/config"
	"fetch-relay-go/internal/model"
)

// Validation errors reported to the caller as 400 before any outbound I/O.
var (
	ErrMissingURL        = errors.New("missing url")
	ErrUnsupportedScheme = errors.New("unsupported scheme (only http/https)")
)

// Byte-cap clamp bounds for caller-supplied max values. The ceiling also
// bounds buffer-mode relays, which otherwise have no per-request cap.
const (
	CapFloor   = 1024
	CapCeiling = 10 * 1024 * 1024
)

// RelayService validates fetch parameters and performs origin fetches.
type RelayService struct {
	client *client.OriginClient
	cfg    *config.Config
	logger *slog.Logger
}

// NewRelayService creates a RelayService.
func NewRelayService(c *client.OriginClient, cfg *config.Config, logger *slog.Logger) *RelayService {
	return &RelayService{
		client: c,
		cfg:    cfg,
		logger: logger.With("component", "relay_service"),
	}
}

// ValidateTarget checks the caller-supplied url parameter and returns the
// parsed target. It never performs network I/O: a missing/empty value yields
// ErrMissingURL and any scheme other than http or https yields
// ErrUnsupportedScheme.
func (s *RelayService) ValidateTarget(raw string) (*url.URL, error) {
	if raw == "" {
		return nil, ErrMissingURL
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, ErrUnsupportedScheme
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, ErrUnsupportedScheme
	}
	return u, nil
}

// EffectiveCap resolves the caller-supplied max parameter into the body cap
// for this request. Valid values are clamped into [CapFloor, CapCeiling];
// absent or malformed values silently fall back to the configured default.
func (s *RelayService) EffectiveCap(raw string) int64 {
	if raw == "" {
		return s.cfg.Relay.DefaultMaxBytes
	}
	n, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || n < 0 {
		return s.cfg.Relay.DefaultMaxBytes
	}
	return clampCap(n)
}

func clampCap(n int64) int64 {
	if n < CapFloor {
		return CapFloor
	}
	if n > CapCeiling {
		return CapCeiling
	}
	return n
}

// Fetch performs the outbound GET for a validated target. The caller is
// responsible for closing the result body.
func (s *RelayService) Fetch(ctx context.Context, target *url.URL) (*model.FetchResult, error) {
	s.logger.Debug("fetching origin",
		"host", target.Host,
		"scheme", target.Scheme,
	)
	return s.client.Fetch(ctx, target.String())
}

// Mode reports the configured relay mode (stream or buffer).
func (s *RelayService) Mode() string {
	return s.cfg.Relay.Mode
}

// ChunkBytes reports the configured streaming chunk size.
func (s *RelayService) ChunkBytes() int {
	return s.cfg.Relay.ChunkBytes
}

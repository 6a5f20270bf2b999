// Package client provides the outbound HTTP client for origin fetches.
package client

import (
	"context"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"time"

	"fetch-relay-go/internal/config"
	"fetch-relay-go/internal/metrics"
	"fetch-relay-go/internal/model"
)

// OriginClient performs GET fetches against caller-chosen http/https origins.
type OriginClient struct {
	httpClient *http.Client
	userAgent  string
	logger     *slog.Logger
	metrics    *metrics.Metrics
}

// NewOriginClient creates an OriginClient with connection pooling and a
// request-level timeout. The timeout covers the whole fetch, including body
// reads, so a stalled origin cannot pin a relay forever.
// The metrics parameter is optional; pass nil to disable origin metrics recording.
func NewOriginClient(cfg *config.Config, logger *slog.Logger, m *metrics.Metrics) *OriginClient {
	transport := &http.Transport{
		MaxIdleConns:        cfg.Origin.IdleConnections,
		MaxIdleConnsPerHost: cfg.Origin.IdleConnections,
		IdleConnTimeout:     90 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   15 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}

	return &OriginClient{
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   time.Duration(cfg.Origin.TimeoutSeconds) * time.Second,
		},
		userAgent: cfg.Origin.UserAgent,
		logger:    logger.With("component", "origin_client"),
		metrics:   m,
	}
}

// Fetch issues a GET to the target URL and returns the unread response.
// The caller is responsible for closing the result body; it is closed on
// every relay exit path. Any network, DNS, TLS, timeout, or protocol
// failure comes back as a single wrapped error.
//
// The provided context controls the lifetime of the fetch: when it is
// canceled (e.g. the caller disconnects), the origin request is canceled too.
func (c *OriginClient) Fetch(ctx context.Context, target string) (*model.FetchResult, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, http.NoBody)
	if err != nil {
		return nil, fmt.Errorf("build origin request: %w", err)
	}
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "*/*")

	c.logger.Debug("origin fetch",
		"host", req.URL.Host,
		"scheme", req.URL.Scheme,
	)

	start := time.Now()
	resp, err := c.httpClient.Do(req) //nolint:bodyclose // body ownership transfers to caller via FetchResult
	duration := time.Since(start).Seconds()

	scheme := metrics.NormalizeScheme(req.URL.Scheme)

	if err != nil {
		if c.metrics != nil {
			c.metrics.UpstreamDuration.WithLabelValues(scheme).Observe(duration)
		}
		return nil, fmt.Errorf("origin fetch: %w", err)
	}

	if c.metrics != nil {
		status := strconv.Itoa(resp.StatusCode)
		c.metrics.UpstreamDuration.WithLabelValues(scheme).Observe(duration)
		c.metrics.UpstreamResponses.WithLabelValues(scheme, status).Inc()
	}

	return &model.FetchResult{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       resp.Body,
	}, nil
}

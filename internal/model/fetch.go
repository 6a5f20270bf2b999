// Package model defines shared types for the relay.
package model

import (
	"io"
	"net/http"
)

// FetchResult represents a successful origin fetch whose body has not
// been read yet. The body stream is of unknown total length; the relay
// may truncate it, so no component assumes the final size in advance.
type FetchResult struct {
	StatusCode int
	Header     http.Header
	Body       io.ReadCloser
}

// ContentType returns the origin's Content-Type, falling back to
// application/octet-stream when the origin did not send one.
func (r *FetchResult) ContentType() string {
	if ct := r.Header.Get("Content-Type"); ct != "" {
		return ct
	}
	return "application/octet-stream"
}

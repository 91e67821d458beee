package rest

import (
	"net/http"
	"time"
)

// HTTPDoer is a minimal interface for HTTP clients.
// One doer is shared by every fetch of a run; its owner closes it.
type HTTPDoer interface {
	Do(*http.Request) (*http.Response, error)
}

// DefaultTimeout bounds a single request, not a whole collection.
const DefaultTimeout = 30 * time.Second

// HTTPClientOption configures an *http.Client
type HTTPClientOption func(*http.Client)

// WithTimeout sets the per-request timeout
func WithTimeout(d time.Duration) HTTPClientOption {
	return func(c *http.Client) {
		c.Timeout = d
	}
}

// WithTransport swaps the round tripper
func WithTransport(rt http.RoundTripper) HTTPClientOption {
	return func(c *http.Client) {
		c.Transport = rt
	}
}

// NewHTTPClient returns a client suitable for sharing across goroutines.
func NewHTTPClient(options ...HTTPClientOption) *http.Client {
	client := &http.Client{Timeout: DefaultTimeout}
	for _, option := range options {
		option(client)
	}
	return client
}

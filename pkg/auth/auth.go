// Package auth attaches credentials to outgoing YouTube Data API requests.
//
// The Data API takes a plain key as the "key" query parameter; an OAuth
// access token goes in the Authorization header instead.
package auth

import (
	"fmt"
	"net/http"

	"github.com/saturnines/nexus-smapi/pkg/youtube"
)

// ErrMissingCredentials is returned when a handler has nothing to send.
var ErrMissingCredentials = fmt.Errorf("missing credentials")

// Handler decorates one request with credentials. It is called on every
// attempt, so it must not consume anything from req.
type Handler interface {
	ApplyAuth(req *http.Request) error
}

// APIKeyAuth sends a Data API key.
type APIKeyAuth struct {
	Header     string // set the key in this header too, e.g. X-Goog-Api-Key
	QueryParam string
	Key        string
}

// NewAPIKeyAuth returns a key handler. With no header and no query param
// the key goes in youtube.APIKeyParam.
func NewAPIKeyAuth(header, queryParam, key string) *APIKeyAuth {
	if header == "" && queryParam == "" {
		queryParam = youtube.APIKeyParam
	}
	return &APIKeyAuth{
		Header:     header,
		QueryParam: queryParam,
		Key:        key,
	}
}

// ApplyAuth sets the key, keeping any query parameters already on req.
func (a *APIKeyAuth) ApplyAuth(req *http.Request) error {
	if a.Key == "" {
		return fmt.Errorf("%w: api key is empty", ErrMissingCredentials)
	}

	if a.Header != "" {
		req.Header.Set(a.Header, a.Key)
	}
	if a.QueryParam != "" {
		query := req.URL.Query()
		query.Set(a.QueryParam, a.Key)
		req.URL.RawQuery = query.Encode()
	}
	return nil
}

// String names where the key goes, never the key.
func (a *APIKeyAuth) String() string {
	switch {
	case a.Header != "" && a.QueryParam != "":
		return fmt.Sprintf("APIKeyAuth(header: %s, query: %s)", a.Header, a.QueryParam)
	case a.Header != "":
		return fmt.Sprintf("APIKeyAuth(header: %s)", a.Header)
	default:
		return fmt.Sprintf("APIKeyAuth(query: %s)", a.QueryParam)
	}
}

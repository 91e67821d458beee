// pkg/transport/rest/builder.go
package rest

import (
	"context"
	"net/http"
	"os"
	"regexp"
	"strings"

	"github.com/saturnines/nexus-smapi/pkg/auth"
)

// templatePattern matches {{VARIABLE_NAME}} placeholders.
var templatePattern = regexp.MustCompile(`\{\{([^}]+)\}\}`)

// Spec describes one GET against a REST resource.
//
// Spec is a value: Clone and With never touch the receiver's maps, so a
// shared template can be handed to many goroutines and each derives its
// own copy before adding an identifier or a page token.
type Spec struct {
	Endpoint string
	Params   map[string]string
	Headers  map[string]string
	Auth     auth.Handler
}

// NewSpec constructs a Spec holding its own copy of params.
func NewSpec(endpoint string, params map[string]string, authHandler auth.Handler) Spec {
	return Spec{
		Endpoint: endpoint,
		Params:   copyMap(params),
		Auth:     authHandler,
	}
}

// Clone returns a deep copy of the spec's maps. The auth handler is shared.
func (s Spec) Clone() Spec {
	return Spec{
		Endpoint: s.Endpoint,
		Params:   copyMap(s.Params),
		Headers:  copyMap(s.Headers),
		Auth:     s.Auth,
	}
}

// With returns a copy with one query parameter set.
func (s Spec) With(key, value string) Spec {
	c := s.Clone()
	c.Params[key] = value
	return c
}

// Param returns a query parameter value.
func (s Spec) Param(key string) string {
	return s.Params[key]
}

// Build creates the GET request for this spec.
func (s Spec) Build(ctx context.Context) (*http.Request, error) {
	url := substituteTemplateVariables(s.Endpoint)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	for k, v := range s.Headers {
		req.Header.Set(k, substituteTemplateVariables(v))
	}
	if req.Header.Get("Accept") == "" {
		req.Header.Set("Accept", "application/json")
	}

	if len(s.Params) > 0 {
		q := req.URL.Query()
		for k, v := range s.Params {
			q.Set(k, substituteTemplateVariables(v))
		}
		req.URL.RawQuery = q.Encode()
	}

	if s.Auth != nil {
		if err := s.Auth.ApplyAuth(req); err != nil {
			return nil, err
		}
	}

	return req, nil
}

// substituteTemplateVariables replaces {{VAR_NAME}} with environment variable values.
// Unset variables are left as-is.
func substituteTemplateVariables(text string) string {
	if !strings.Contains(text, "{{") {
		return text
	}
	return templatePattern.ReplaceAllStringFunc(text, func(match string) string {
		varName := strings.TrimSpace(match[2 : len(match)-2])
		if value := os.Getenv(varName); value != "" {
			return value
		}
		return match
	})
}

func copyMap(in map[string]string) map[string]string {
	out := make(map[string]string, len(in))
	for k, v := range in {
		out[k] = v
	}
	return out
}

package core

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/saturnines/nexus-smapi/pkg/errors"
	"github.com/saturnines/nexus-smapi/pkg/transport/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// pagedServer serves bodies keyed by the pageToken query value ("" for the
// first page) and records the tokens it was asked for.
func pagedServer(t *testing.T, pages map[string]string) (*httptest.Server, func() []string) {
	t.Helper()
	var mu sync.Mutex
	var tokens []string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token := r.URL.Query().Get("pageToken")
		mu.Lock()
		tokens = append(tokens, token)
		mu.Unlock()

		body, ok := pages[token]
		if !ok {
			w.WriteHeader(http.StatusBadRequest)
			return
		}
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)

	return srv, func() []string {
		mu.Lock()
		defer mu.Unlock()
		return append([]string(nil), tokens...)
	}
}

func itemsBody(token string, ids ...string) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprintf(`{"id":%q}`, id)
	}
	if token == "" {
		return fmt.Sprintf(`{"items":[%s]}`, strings.Join(parts, ","))
	}
	return fmt.Sprintf(`{"items":[%s],"nextPageToken":%q}`, strings.Join(parts, ","), token)
}

func ids(records []map[string]interface{}) []string {
	out := make([]string, len(records))
	for i, r := range records {
		out[i] = ExtractString(r, "id")
	}
	return out
}

func TestCollectPages(t *testing.T) {
	tests := []struct {
		name       string
		pages      map[string]string
		wantIDs    []string
		wantTokens []string
	}{
		{
			name:       "EmptyFirstPage",
			pages:      map[string]string{"": `{"items":[]}`},
			wantIDs:    []string{},
			wantTokens: []string{""},
		},
		{
			name:       "OnePage",
			pages:      map[string]string{"": itemsBody("", "a", "b")},
			wantIDs:    []string{"a", "b"},
			wantTokens: []string{""},
		},
		{
			name: "ThreePages",
			pages: map[string]string{
				"":   itemsBody("p2", "a", "b"),
				"p2": itemsBody("p3", "c"),
				"p3": itemsBody("", "d", "e"),
			},
			wantIDs:    []string{"a", "b", "c", "d", "e"},
			wantTokens: []string{"", "p2", "p3"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv, tokens := pagedServer(t, tt.pages)
			c := NewCollector(quietFetcher(srv.Client()))

			records, err := c.Collect(context.Background(), rest.NewSpec(srv.URL, nil, nil), DefaultRetryPolicy())

			require.NoError(t, err)
			require.NotNil(t, records)
			assert.Equal(t, tt.wantIDs, ids(records))
			assert.Equal(t, tt.wantTokens, tokens())
		})
	}
}

func TestCollectDoesNotMutateSpec(t *testing.T) {
	srv, _ := pagedServer(t, map[string]string{
		"":   itemsBody("p2", "a"),
		"p2": itemsBody("", "b"),
	})
	spec := rest.NewSpec(srv.URL, map[string]string{"part": "snippet"}, nil)

	_, err := NewCollector(quietFetcher(srv.Client())).Collect(context.Background(), spec, DefaultRetryPolicy())

	require.NoError(t, err)
	assert.Equal(t, map[string]string{"part": "snippet"}, spec.Params)
}

func TestCollectCustomTokenParam(t *testing.T) {
	var seen []string
	client := doerFunc(func(req *http.Request) (*http.Response, error) {
		cursor := req.URL.Query().Get("cursor")
		seen = append(seen, cursor)
		if cursor == "" {
			return jsonResponse(200, "OK", `{"items":[{"id":"1"}],"nextPageToken":"c2"}`), nil
		}
		return jsonResponse(200, "OK", `{"items":[{"id":"2"}]}`), nil
	})

	c := NewCollector(quietFetcher(client), WithTokenParam("cursor"))
	records, err := c.Collect(context.Background(), rest.NewSpec("http://example.test", nil, nil), DefaultRetryPolicy())

	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, ids(records))
	assert.Equal(t, []string{"", "c2"}, seen)
}

func TestCollectStopsOnHaltedPage(t *testing.T) {
	client := doerFunc(func(req *http.Request) (*http.Response, error) {
		if req.URL.Query().Get("pageToken") == "" {
			return jsonResponse(200, "OK", `{"items":[{"id":"1"}],"nextPageToken":"p2"}`), nil
		}
		return jsonResponse(403, "Quota exceeded", `{}`), nil
	})

	records, err := NewCollector(quietFetcher(client)).Collect(context.Background(), rest.NewSpec("http://example.test", nil, nil), DefaultRetryPolicy())

	require.NoError(t, err)
	assert.Equal(t, []string{"1"}, ids(records))
}

func TestCollectPropagatesTerminalFailure(t *testing.T) {
	srv, tokens := pagedServer(t, map[string]string{
		"": itemsBody("missing", "a"),
	})

	records, err := NewCollector(quietFetcher(srv.Client())).Collect(context.Background(), rest.NewSpec(srv.URL, nil, nil), RetryPolicy{MaxAttempts: 2})

	require.Error(t, err)
	assert.Nil(t, records)
	assert.True(t, errors.Is(err, errors.ErrRetriesExhausted))
	// one first page, then two attempts at the failing page
	assert.Equal(t, []string{"", "missing", "missing"}, tokens())
}

func TestCollectRepeatedToken(t *testing.T) {
	srv, _ := pagedServer(t, map[string]string{
		"":     itemsBody("loop", "a"),
		"loop": itemsBody("loop", "b"),
	})

	_, err := NewCollector(quietFetcher(srv.Client())).Collect(context.Background(), rest.NewSpec(srv.URL, nil, nil), DefaultRetryPolicy())

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrPagination))
}

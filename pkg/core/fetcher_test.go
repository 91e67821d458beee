package core

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/saturnines/nexus-smapi/pkg/errors"
	"github.com/saturnines/nexus-smapi/pkg/transport/rest"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// doerFunc adapts a function to rest.HTTPDoer.
type doerFunc func(*http.Request) (*http.Response, error)

func (f doerFunc) Do(req *http.Request) (*http.Response, error) { return f(req) }

func jsonResponse(status int, reason, body string) *http.Response {
	return &http.Response{
		StatusCode: status,
		Status:     fmt.Sprintf("%d %s", status, reason),
		Header:     http.Header{"Content-Type": []string{"application/json"}},
		Body:       io.NopCloser(strings.NewReader(body)),
	}
}

func noWait(context.Context, time.Duration) error { return nil }

func quietFetcher(client rest.HTTPDoer, opts ...FetcherOption) *Fetcher {
	return NewFetcher(client, append([]FetcherOption{WithWaitFunc(noWait)}, opts...)...)
}

func TestFetchSuccess(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "golang", r.URL.Query().Get("q"))
		fmt.Fprint(w, `{"items":[{"id":"a"},{"id":"b"}],"nextPageToken":"T2"}`)
	}))
	defer srv.Close()

	f := quietFetcher(srv.Client())
	page, err := f.Fetch(context.Background(), rest.NewSpec(srv.URL, map[string]string{"q": "golang"}, nil), DefaultRetryPolicy())

	require.NoError(t, err)
	assert.Len(t, page.Items, 2)
	assert.Equal(t, "b", page.Items[1]["id"])
	assert.Equal(t, "T2", page.NextToken)
	assert.Equal(t, 0, page.Retries)
	assert.False(t, page.Halted())
}

func TestFetchRetriesThenSucceeds(t *testing.T) {
	tests := []struct {
		name     string
		failures int
		max      int
	}{
		{"NoFailures", 0, 3},
		{"OneFailure", 1, 3},
		{"TwoFailures", 2, 3},
		{"FourFailuresOfFive", 4, 5},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if int(atomic.AddInt32(&calls, 1)) <= tt.failures {
					w.WriteHeader(http.StatusInternalServerError)
					return
				}
				fmt.Fprint(w, `{"items":[{"id":"x"}]}`)
			}))
			defer srv.Close()

			page, err := quietFetcher(srv.Client()).Fetch(context.Background(), rest.NewSpec(srv.URL, nil, nil), RetryPolicy{MaxAttempts: tt.max})

			require.NoError(t, err)
			assert.Equal(t, tt.failures, page.Retries)
			assert.Equal(t, int32(tt.failures+1), atomic.LoadInt32(&calls))
			assert.Len(t, page.Items, 1)
		})
	}
}

func TestFetchExhaustion(t *testing.T) {
	for _, max := range []int{1, 3, 5} {
		t.Run(fmt.Sprintf("MaxAttempts%d", max), func(t *testing.T) {
			var calls int32
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&calls, 1)
				w.WriteHeader(http.StatusServiceUnavailable)
				fmt.Fprint(w, `{"error":{"message":"backend down"}}`)
			}))
			defer srv.Close()

			_, err := quietFetcher(srv.Client()).Fetch(context.Background(), rest.NewSpec(srv.URL, nil, nil), RetryPolicy{MaxAttempts: max})

			require.Error(t, err)
			assert.True(t, errors.Is(err, errors.ErrRetriesExhausted))
			assert.Equal(t, int32(max), atomic.LoadInt32(&calls))

			var fetchErr *errors.FetchError
			require.True(t, errors.As(err, &fetchErr))
			assert.Equal(t, max, fetchErr.Attempts)
			assert.Equal(t, srv.URL, fetchErr.Endpoint)

			var httpErr *errors.HTTPError
			require.True(t, errors.As(err, &httpErr))
			assert.Equal(t, http.StatusServiceUnavailable, httpErr.StatusCode)
			assert.Equal(t, "backend down", httpErr.Message)
		})
	}
}

func TestFetchZeroAttempts(t *testing.T) {
	var calls int32
	client := doerFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		return jsonResponse(200, "OK", `{}`), nil
	})

	_, err := quietFetcher(client).Fetch(context.Background(), rest.NewSpec("http://example.test", nil, nil), RetryPolicy{})

	assert.True(t, errors.Is(err, errors.ErrRetriesExhausted))
	assert.Zero(t, atomic.LoadInt32(&calls))
}

func TestFetchWaitsBetweenAttemptsOnly(t *testing.T) {
	var waits []time.Duration
	wait := func(_ context.Context, d time.Duration) error {
		waits = append(waits, d)
		return nil
	}
	client := doerFunc(func(*http.Request) (*http.Response, error) {
		return nil, fmt.Errorf("connection refused")
	})

	f := NewFetcher(client, WithWaitFunc(wait))
	_, err := f.Fetch(context.Background(), rest.NewSpec("http://example.test", nil, nil), RetryPolicy{MaxAttempts: 3, Delay: 250 * time.Millisecond})

	require.Error(t, err)
	assert.True(t, errors.Is(err, errors.ErrHTTPRequest))
	assert.Equal(t, []time.Duration{250 * time.Millisecond, 250 * time.Millisecond}, waits)
}

func TestFetchSentinels(t *testing.T) {
	tests := []struct {
		name   string
		resp   func() *http.Response
		want   Halt
		failed bool
	}{
		{
			name: "QuotaReasonPhrase",
			resp: func() *http.Response { return jsonResponse(403, "Quota exceeded", `{}`) },
			want: HaltQuota,
		},
		{
			name: "QuotaReasonInBody",
			resp: func() *http.Response {
				return jsonResponse(403, "Forbidden", `{"error":{"code":403,"errors":[{"reason":"quotaExceeded"}],"message":"The request cannot be completed because you have exceeded your quota."}}`)
			},
			want: HaltQuota,
		},
		{
			name: "DisabledComments",
			resp: func() *http.Response {
				return jsonResponse(403, "Forbidden", `{"error":{"code":403,"message":"The video identified by the videoId parameter has disabled comments."}}`)
			},
			want: HaltDisabled,
		},
		{
			name: "DisabledReasonOnly",
			resp: func() *http.Response {
				return jsonResponse(403, "Forbidden", `{"error":{"errors":[{"reason":"commentsDisabled"}]}}`)
			},
			want: HaltDisabled,
		},
		{
			name:   "PlainForbidden",
			resp:   func() *http.Response { return jsonResponse(403, "Forbidden", `{"error":{"message":"forbidden"}}`) },
			failed: true,
		},
		{
			name:   "NotFound",
			resp:   func() *http.Response { return jsonResponse(404, "Not Found", `not json`) },
			failed: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var calls int32
			client := doerFunc(func(*http.Request) (*http.Response, error) {
				atomic.AddInt32(&calls, 1)
				return tt.resp(), nil
			})

			page, err := quietFetcher(client).Fetch(context.Background(), rest.NewSpec("http://example.test", nil, nil), RetryPolicy{MaxAttempts: 2})

			if tt.failed {
				require.Error(t, err)
				assert.True(t, errors.Is(err, errors.ErrRetriesExhausted))
				assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, page.Halt)
			assert.Empty(t, page.Items)
			assert.Empty(t, page.NextToken)
			assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
		})
	}
}

func TestFetchInvalidJSONIsFailedAttempt(t *testing.T) {
	var calls int32
	client := doerFunc(func(*http.Request) (*http.Response, error) {
		if atomic.AddInt32(&calls, 1) == 1 {
			return jsonResponse(200, "OK", `{"items":[`), nil
		}
		return jsonResponse(200, "OK", `{"items":[{"id":"ok"}]}`), nil
	})

	page, err := quietFetcher(client).Fetch(context.Background(), rest.NewSpec("http://example.test", nil, nil), RetryPolicy{MaxAttempts: 2})

	require.NoError(t, err)
	assert.Equal(t, 1, page.Retries)
	assert.Equal(t, "ok", page.Items[0]["id"])
}

func TestFetchSendsSameRequestEachAttempt(t *testing.T) {
	var seen []string
	client := doerFunc(func(req *http.Request) (*http.Response, error) {
		seen = append(seen, req.URL.RawQuery)
		if len(seen) < 3 {
			return jsonResponse(500, "Internal Server Error", `{}`), nil
		}
		return jsonResponse(200, "OK", `{}`), nil
	})

	spec := rest.NewSpec("http://example.test/videos", map[string]string{"id": "abc", "part": "statistics"}, nil)
	_, err := quietFetcher(client).Fetch(context.Background(), spec, RetryPolicy{MaxAttempts: 3})

	require.NoError(t, err)
	require.Len(t, seen, 3)
	assert.Equal(t, seen[0], seen[1])
	assert.Equal(t, seen[0], seen[2])
}

func TestFetchContextCancelledDuringWait(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var calls int32
	client := doerFunc(func(*http.Request) (*http.Response, error) {
		atomic.AddInt32(&calls, 1)
		cancel()
		return jsonResponse(500, "Internal Server Error", `{}`), nil
	})

	start := time.Now()
	_, err := NewFetcher(client).Fetch(ctx, rest.NewSpec("http://example.test", nil, nil), RetryPolicy{MaxAttempts: 5, Delay: time.Hour})

	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestSleepContext(t *testing.T) {
	require.NoError(t, sleepContext(context.Background(), 0))
	require.NoError(t, sleepContext(context.Background(), time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, sleepContext(ctx, time.Hour), context.Canceled)
}

package core

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/saturnines/nexus-smapi/pkg/errors"
	"github.com/saturnines/nexus-smapi/pkg/transport/rest"
)

// Halt names a non-error reason a page came back empty.
type Halt int

const (
	HaltNone     Halt = iota
	HaltQuota         // the API quota is exhausted
	HaltDisabled      // the target item disallows the sub-resource, e.g. comments off
)

func (h Halt) String() string {
	switch h {
	case HaltQuota:
		return "quota_exceeded"
	case HaltDisabled:
		return "disabled"
	default:
		return "none"
	}
}

// Page is one fetched page. An empty NextToken ends pagination; a halted
// page never carries items or a token.
type Page struct {
	Items     []map[string]interface{}
	NextToken string
	Retries   int // failed attempts before this page succeeded
	Halt      Halt
}

// Halted reports whether the page is a sentinel stop.
func (p Page) Halted() bool {
	return p.Halt != HaltNone
}

// Fetcher issues single-page GETs with retries.
// It is safe for concurrent use when its HTTPDoer is.
type Fetcher struct {
	client    rest.HTTPDoer
	extractor *Extractor
	logger    *slog.Logger
	wait      WaitFunc
}

// FetcherOption configures a Fetcher
type FetcherOption func(*Fetcher)

// WithExtractor replaces the default items/token extractor
func WithExtractor(e *Extractor) FetcherOption {
	return func(f *Fetcher) {
		f.extractor = e
	}
}

// WithLogger sets the logger for per-attempt diagnostics
func WithLogger(l *slog.Logger) FetcherOption {
	return func(f *Fetcher) {
		f.logger = l
	}
}

// WithWaitFunc overrides how the fetcher pauses between attempts
func WithWaitFunc(w WaitFunc) FetcherOption {
	return func(f *Fetcher) {
		f.wait = w
	}
}

// NewFetcher creates a Fetcher over a caller-owned HTTP client.
func NewFetcher(client rest.HTTPDoer, options ...FetcherOption) *Fetcher {
	f := &Fetcher{
		client:    client,
		extractor: NewExtractor(),
		wait:      sleepContext,
	}
	for _, option := range options {
		option(f)
	}
	if f.logger == nil {
		f.logger = slog.Default()
	}
	return f
}

// Fetch retrieves one page.
//
// Transport errors, non-200 statuses and undecodable 200 bodies are failed
// attempts. After a failed attempt the fetcher waits policy.Delay and sends
// the same request again, up to policy.MaxAttempts attempts in total; then
// it returns an *errors.FetchError. A 403 for an exhausted quota or a
// disabled sub-resource returns a halted empty Page and no error.
// Cancelling ctx stops retrying and returns ctx.Err().
func (f *Fetcher) Fetch(ctx context.Context, spec rest.Spec, policy RetryPolicy) (Page, error) {
	var lastErr error
	attempt := 0

	for attempt < policy.MaxAttempts {
		if err := ctx.Err(); err != nil {
			return Page{}, err
		}

		req, err := spec.Build(ctx)
		if err != nil {
			return Page{}, errors.WrapError(err, errors.ErrHTTPRequest, "build request")
		}

		page, err := f.do(req, spec)
		if err == nil {
			page.Retries = attempt
			return page, nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Page{}, ctxErr
		}

		attempt++
		lastErr = err
		f.logger.Debug("fetch attempt failed",
			"endpoint", spec.Endpoint,
			"params", spec.Params,
			"attempt", attempt,
			"max_attempts", policy.MaxAttempts,
			"retry_in", policy.Delay,
			"error", err,
		)

		if attempt < policy.MaxAttempts {
			if err := f.wait(ctx, policy.Delay); err != nil {
				return Page{}, err
			}
		}
	}

	return Page{}, &errors.FetchError{
		Endpoint: spec.Endpoint,
		Attempts: attempt,
		Err:      lastErr,
	}
}

// do sends one request and classifies the response.
func (f *Fetcher) do(req *http.Request, spec rest.Spec) (Page, error) {
	resp, err := f.client.Do(req)
	if err != nil {
		return Page{}, errors.WrapError(err, errors.ErrHTTPRequest, "send request")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return Page{}, errors.WrapError(err, errors.ErrHTTPResponse, "read response body")
	}

	switch resp.StatusCode {
	case http.StatusOK:
		items, token, err := f.extractor.Decode(body)
		if err != nil {
			return Page{}, err
		}
		return Page{Items: items, NextToken: token}, nil

	case http.StatusForbidden:
		switch halt := f.extractor.Halt(resp, body); halt {
		case HaltQuota:
			f.logger.Warn("API quota exceeded", "endpoint", spec.Endpoint)
			return Page{Halt: halt}, nil
		case HaltDisabled:
			f.logger.Debug("sub-resource disabled", "endpoint", spec.Endpoint, "params", spec.Params)
			return Page{Halt: halt}, nil
		}
	}

	return Page{}, &errors.HTTPError{
		StatusCode: resp.StatusCode,
		Status:     resp.Status,
		Message:    f.extractor.Message(body),
	}
}

// String is used in log output.
func (p Page) String() string {
	return fmt.Sprintf("Page(items=%d, next=%q, halt=%s)", len(p.Items), p.NextToken, p.Halt)
}

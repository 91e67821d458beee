package core

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/saturnines/nexus-smapi/pkg/errors"
	"github.com/saturnines/nexus-smapi/pkg/pagination"
	"github.com/saturnines/nexus-smapi/pkg/transport/rest"
)

// Collector exhausts every page of one resource.
type Collector struct {
	fetcher    *Fetcher
	tokenParam string
	logger     *slog.Logger
}

// CollectorOption configures a Collector
type CollectorOption func(*Collector)

// WithTokenParam sets the query parameter that carries the page token
func WithTokenParam(param string) CollectorOption {
	return func(c *Collector) {
		c.tokenParam = param
	}
}

// WithCollectorLogger sets the collector's logger
func WithCollectorLogger(l *slog.Logger) CollectorOption {
	return func(c *Collector) {
		c.logger = l
	}
}

// NewCollector wraps a Fetcher.
func NewCollector(fetcher *Fetcher, options ...CollectorOption) *Collector {
	c := &Collector{
		fetcher:    fetcher,
		tokenParam: pagination.DefaultTokenParam,
	}
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Collect fetches pages until one comes back without a continuation token
// and returns every item in page order. An empty first page gives an empty,
// non-nil slice. A page fetch failure ends the collection with that error.
func (c *Collector) Collect(ctx context.Context, spec rest.Spec, policy RetryPolicy) ([]map[string]interface{}, error) {
	pager := pagination.NewTokenPager(spec, c.tokenParam)
	all := make([]map[string]interface{}, 0)
	seen := make(map[string]struct{})

	for {
		next, ok := pager.Next()
		if !ok {
			break
		}

		page, err := c.fetcher.Fetch(ctx, next, policy)
		if err != nil {
			return nil, err
		}
		all = append(all, page.Items...)

		if page.NextToken != "" {
			if _, dup := seen[page.NextToken]; dup {
				return nil, errors.WrapError(
					fmt.Errorf("continuation token %q repeated", page.NextToken),
					errors.ErrPagination,
					"collect "+spec.Endpoint,
				)
			}
			seen[page.NextToken] = struct{}{}
		}
		pager.Update(page.NextToken)
	}

	c.logger.Debug("collection complete",
		"endpoint", spec.Endpoint,
		"pages", pager.Pages(),
		"items", len(all),
	)
	return all, nil
}

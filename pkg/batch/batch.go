// Package batch fans a per-identifier collection out across many
// identifiers, either one at a time or concurrently behind an admission
// gate with staggered launches.
package batch

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"
)

// DefaultConcurrency caps in-flight collections when Options leaves it unset.
const DefaultConcurrency = 5

// CollectFunc collects every record for one identifier.
type CollectFunc func(ctx context.Context, id string) ([]map[string]interface{}, error)

// Options controls one Run.
type Options struct {
	Concurrency int           // in-flight cap in concurrent mode; <= 0 means DefaultConcurrency
	Stagger     time.Duration // pause between successive launches in concurrent mode
	Sequential  bool          // run one identifier at a time, in input order
	FailFast    bool          // first failure aborts the run; identifiers not yet started are skipped
	Logger      *slog.Logger
}

func (o Options) concurrency() int {
	if o.Concurrency <= 0 {
		return DefaultConcurrency
	}
	return o.Concurrency
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// Run collects every identifier in ids.
//
// For a Single identifier the collection runs directly and its error is
// returned as is. For Many, each identifier's failure is recorded on its
// Result and the run carries on, unless FailFast is set: then the first
// failure is returned, wrapped with its identifier, and identifiers that
// had not started keep ErrNotStarted. Collections already in flight are
// not cancelled; they run on ctx and finish on their own.
//
// The returned Results is non-nil whenever ids is Many, even on error.
func Run(ctx context.Context, ids IDs, collect CollectFunc, opts Options) (*Results, error) {
	if ids.IsSingle() {
		results := newResults(ids.values)
		records, err := collect(ctx, ids.values[0])
		if err != nil {
			return nil, err
		}
		results.set(0, records, nil)
		return results, nil
	}

	if opts.Sequential {
		return runSequential(ctx, ids.values, collect, opts)
	}
	return runConcurrent(ctx, ids.values, collect, opts)
}

func runSequential(ctx context.Context, ids []string, collect CollectFunc, opts Options) (*Results, error) {
	log := opts.logger()
	results := newResults(ids)

	for i, id := range ids {
		if err := ctx.Err(); err != nil {
			return results, err
		}

		records, err := collect(ctx, id)
		results.set(i, records, err)
		if err == nil {
			continue
		}

		log.Debug("no result for identifier", "id", id, "error", err)
		if opts.FailFast {
			return results, wrapItemError(id, err)
		}
	}

	return results, nil
}

func runConcurrent(ctx context.Context, ids []string, collect CollectFunc, opts Options) (*Results, error) {
	log := opts.logger()
	results := newResults(ids)

	// launchCtx gates launching and admission only. The first fail-fast
	// error cancels it so queued identifiers never start; collections
	// already admitted keep running on ctx.
	launchCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var g errgroup.Group
	gate := semaphore.NewWeighted(int64(opts.concurrency()))

	var stagger *rate.Limiter
	if opts.Stagger > 0 {
		stagger = rate.NewLimiter(rate.Every(opts.Stagger), 1)
	}

	for i, id := range ids {
		if stagger != nil {
			if err := stagger.Wait(launchCtx); err != nil {
				break
			}
		}
		if err := gate.Acquire(launchCtx, 1); err != nil {
			break
		}
		// Acquire can succeed on an already-cancelled context.
		if launchCtx.Err() != nil {
			gate.Release(1)
			break
		}

		i, id := i, id
		g.Go(func() error {
			defer gate.Release(1)

			records, err := collect(ctx, id)
			results.set(i, records, err)
			if err == nil {
				return nil
			}

			log.Debug("no result for identifier", "id", id, "error", err)
			if opts.FailFast {
				// cancel before the deferred release so the next waiter sees it
				cancel()
				return wrapItemError(id, err)
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return results, err
	}
	if err := ctx.Err(); err != nil {
		return results, err
	}
	return results, nil
}

func wrapItemError(id string, err error) error {
	return fmt.Errorf("identifier %s: %w", id, err)
}

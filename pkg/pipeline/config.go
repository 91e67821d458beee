package pipeline

import (
	"log/slog"

	"github.com/saturnines/nexus-smapi/pkg/auth"
	"github.com/saturnines/nexus-smapi/pkg/batch"
	"github.com/saturnines/nexus-smapi/pkg/config"
	"github.com/saturnines/nexus-smapi/pkg/core"
	"github.com/saturnines/nexus-smapi/pkg/errors"
	"github.com/saturnines/nexus-smapi/pkg/transport/rest"
	"github.com/saturnines/nexus-smapi/pkg/youtube"
)

// FromConfig builds a Composer from a loaded pipeline config. The client is
// shared by every stage and stays owned by the caller.
func FromConfig(cfg *config.Pipeline, client rest.HTTPDoer, logger *slog.Logger) (*Composer, error) {
	if logger == nil {
		logger = slog.Default()
	}

	handler, err := auth.CreateHandler(cfg.Auth)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrAuthentication, "failed to create auth handler")
	}

	fetcher := core.NewFetcher(client, core.WithLogger(logger))
	collector := core.NewCollector(fetcher,
		core.WithTokenParam(youtube.PageTokenParam),
		core.WithCollectorLogger(logger),
	)

	return NewComposer(collector, Config{
		Search:   specFor(cfg.Resources.Search, handler),
		Detail:   specFor(cfg.Resources.Videos, handler),
		Comments: specFor(cfg.Resources.CommentThreads, handler),
		Retry: core.RetryPolicy{
			MaxAttempts: cfg.Retry.Attempts(),
			Delay:       cfg.Retry.RetryDelay(),
		},
		Batch: batch.Options{
			Concurrency: cfg.Batch.Concurrency,
			Stagger:     cfg.Batch.StaggerDelay(),
			Sequential:  cfg.Batch.Sequential,
			Logger:      logger,
		},
		MinComments: cfg.MinComments,
	}, WithLogger(logger)), nil
}

func specFor(r config.Resource, handler auth.Handler) rest.Spec {
	spec := rest.NewSpec(r.Endpoint, r.Params, handler)
	spec.Headers = make(map[string]string, len(r.Headers))
	for k, v := range r.Headers {
		spec.Headers[k] = v
	}
	return spec
}

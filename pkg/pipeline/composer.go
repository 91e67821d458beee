// Package pipeline chains search, detail lookup and comment collection into
// one run and joins the three result sets per video.
package pipeline

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
	"github.com/saturnines/nexus-smapi/pkg/batch"
	"github.com/saturnines/nexus-smapi/pkg/core"
	"github.com/saturnines/nexus-smapi/pkg/errors"
	"github.com/saturnines/nexus-smapi/pkg/transform"
	"github.com/saturnines/nexus-smapi/pkg/transport/rest"
	"github.com/saturnines/nexus-smapi/pkg/youtube"
)

// Stage names one step of a run.
type Stage string

const (
	StageSearch   Stage = "search"
	StageDetail   Stage = "detail"
	StageFilter   Stage = "filter"
	StageComments Stage = "comments"
	StageJoin     Stage = "join"
)

// Config holds the request templates and policies for one Composer.
// The specs are templates: every call derives its own copy.
type Config struct {
	Search      rest.Spec
	Detail      rest.Spec
	Comments    rest.Spec
	Retry       core.RetryPolicy
	Batch       batch.Options
	MinComments int
}

// Composer runs SEARCH, DETAIL, FILTER, COMMENTS and JOIN in that order.
// Each stage needs the previous stage's complete output.
type Composer struct {
	collector *core.Collector
	cfg       Config
	logger    *slog.Logger
	newRunID  func() uuid.UUID
}

// Option configures a Composer
type Option func(*Composer)

// WithLogger sets the logger for stage summaries
func WithLogger(l *slog.Logger) Option {
	return func(c *Composer) {
		c.logger = l
	}
}

// NewComposer builds a Composer around a shared collector.
func NewComposer(collector *core.Collector, cfg Config, options ...Option) *Composer {
	c := &Composer{
		collector: collector,
		cfg:       cfg,
		newRunID:  uuid.New,
	}
	for _, option := range options {
		option(c)
	}
	if c.logger == nil {
		c.logger = slog.Default()
	}
	return c
}

// Run executes one pipeline run for query.
//
// A failure in SEARCH or DETAIL aborts the run with an *errors.StageError.
// A failed comment collection only degrades that video's record to
// CommentsAbsent. The returned records follow search order.
func (c *Composer) Run(ctx context.Context, query string) (*Result, error) {
	runID := c.newRunID()
	log := c.logger.With("run_id", runID.String())

	hits, ids, err := c.search(ctx, query)
	if err != nil {
		log.Error("run aborted", "stage", StageSearch, "error", err)
		return nil, &errors.StageError{Stage: string(StageSearch), Err: err}
	}
	log.Info("stage complete", "stage", StageSearch, "hits", len(hits), "ids", len(ids))

	details, err := c.detail(ctx, ids)
	if err != nil {
		log.Error("run aborted", "stage", StageDetail, "error", err)
		return nil, &errors.StageError{Stage: string(StageDetail), Err: err}
	}
	log.Info("stage complete", "stage", StageDetail, "details", len(details))

	kept := c.filter(log, ids, details)
	log.Info("stage complete", "stage", StageFilter, "kept", len(kept), "dropped", len(ids)-len(kept))

	comments, err := c.CommentThreads(ctx, batch.Many(kept...))
	if err != nil {
		log.Error("run aborted", "stage", StageComments, "error", err)
		return nil, &errors.StageError{Stage: string(StageComments), Err: err}
	}
	log.Info("stage complete", "stage", StageComments, "ids", comments.Len(), "failed", len(comments.Failed()))

	result := newResult(runID, query)
	for _, id := range kept {
		result.add(join(id, hits[id], details[id], comments))
	}
	log.Info("stage complete", "stage", StageJoin, "records", result.Len())

	return result, nil
}

// search collects every hit for query and returns the first hit per video
// along with the video ids in first-seen order.
func (c *Composer) search(ctx context.Context, query string) (map[string]map[string]interface{}, []string, error) {
	spec := c.cfg.Search.With(youtube.QueryParam, query)
	records, err := c.collector.Collect(ctx, spec, c.cfg.Retry)
	if err != nil {
		return nil, nil, err
	}

	hits := make(map[string]map[string]interface{}, len(records))
	var order []string
	for _, record := range records {
		id := core.ExtractString(record, youtube.SearchIDPath)
		if id == "" {
			// channel or playlist hits carry no video id
			continue
		}
		if _, dup := hits[id]; dup {
			continue
		}
		hits[id] = record
		order = append(order, id)
	}
	return hits, batch.Many(order...).Values(), nil
}

// Videos looks up the detail record of every id. A Single id gets its
// collection error back as is; for Many the first failure aborts the
// lookup and ids not yet started are skipped. Statistics counters on every
// returned record are normalized to int.
func (c *Composer) Videos(ctx context.Context, ids batch.IDs) (*batch.Results, error) {
	opts := c.batchOptions()
	opts.FailFast = true

	return batch.Run(ctx, ids, func(ctx context.Context, id string) ([]map[string]interface{}, error) {
		records, err := c.collector.Collect(ctx, c.cfg.Detail.With(youtube.VideoIDParam, id), c.cfg.Retry)
		if err != nil {
			return nil, err
		}
		for _, record := range records {
			normalizeStatistics(c.logger, id, record)
		}
		return records, nil
	}, opts)
}

// CommentThreads collects the comment threads of every id. A Single id gets
// its collection error back as is; for Many each failure is recorded on its
// Result and the rest carry on.
func (c *Composer) CommentThreads(ctx context.Context, ids batch.IDs) (*batch.Results, error) {
	opts := c.batchOptions()
	opts.FailFast = false

	return batch.Run(ctx, ids, func(ctx context.Context, id string) ([]map[string]interface{}, error) {
		return c.collector.Collect(ctx, c.cfg.Comments.With(youtube.ThreadIDParam, id), c.cfg.Retry)
	}, opts)
}

// detail keeps the first detail item per id.
func (c *Composer) detail(ctx context.Context, ids []string) (map[string]map[string]interface{}, error) {
	results, err := c.Videos(ctx, batch.Many(ids...))
	if err != nil {
		return nil, err
	}

	details := make(map[string]map[string]interface{}, results.Len())
	for _, r := range results.All() {
		if len(r.Records) == 0 {
			continue
		}
		details[r.ID] = r.Records[0]
	}
	return details, nil
}

// filter keeps ids whose comment count reaches the configured minimum.
func (c *Composer) filter(log *slog.Logger, ids []string, details map[string]map[string]interface{}) []string {
	kept := make([]string, 0, len(ids))
	for _, id := range ids {
		detail, ok := details[id]
		if !ok {
			log.Debug("no detail for video", "id", id)
			continue
		}
		if commentCount(detail) >= c.cfg.MinComments {
			kept = append(kept, id)
		}
	}
	return kept
}

func (c *Composer) batchOptions() batch.Options {
	opts := c.cfg.Batch
	if opts.Logger == nil {
		opts.Logger = c.logger
	}
	return opts
}

func join(id string, hit, detail map[string]interface{}, comments *batch.Results) Joined {
	j := Joined{ID: id, Search: hit, Detail: detail}

	r, ok := comments.Get(id)
	switch {
	case !ok:
		j.CommentState = CommentsAbsent
	case !r.Started(), !r.OK():
		j.CommentState = CommentsAbsent
		j.CommentsErr = r.Err
	case len(r.Records) == 0:
		j.CommentState = CommentsEmpty
	default:
		j.CommentState = CommentsFetched
		j.Comments = r.Records
	}
	return j
}

// normalizeStatistics coerces the known counters to int. Missing and
// unparsable counters become 0.
func normalizeStatistics(log *slog.Logger, id string, detail map[string]interface{}) {
	stats, ok := detail[youtube.StatisticsKey].(map[string]interface{})
	if !ok {
		return
	}
	toInt := transform.DefaultRegistry.MustCreate("int", nil)
	for _, field := range youtube.StatisticsFields {
		n, err := toInt.Transform(stats[field])
		if err != nil {
			log.Debug("unparsable statistic", "id", id, "field", field, "value", stats[field])
			n = 0
		}
		stats[field] = n
	}
}

// commentCount treats a missing or unparsable count as 0.
func commentCount(detail map[string]interface{}) int {
	v, _ := core.ExtractField(detail, youtube.CommentCountPath)
	n, err := transform.DefaultRegistry.MustCreate("int", nil).Transform(v)
	if err != nil {
		return 0
	}
	return n.(int)
}

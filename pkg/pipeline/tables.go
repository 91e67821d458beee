package pipeline

import (
	"github.com/saturnines/nexus-smapi/pkg/transform"
	"github.com/saturnines/nexus-smapi/pkg/youtube"
)

// TableOptions selects how records become tables.
type TableOptions struct {
	DefaultColumns bool // use the fixed column list per kind instead of the observed keys
	ShortenColumns bool // keep only the last segment of every key
}

// Tables flattens the run into one table per resource kind, in
// youtube.Kinds order. Replies nested in comment threads are moved into
// their own table. Kinds with no rows still get a table.
func (r *Result) Tables(opts TableOptions) []transform.Table {
	topics := transform.NewChainTransform(
		transform.DefaultRegistry.MustCreate("last_segment", nil),
		transform.DefaultRegistry.MustCreate("join", map[string]interface{}{"delimiter": "|"}),
	)

	rows := make(map[youtube.Kind][]map[string]interface{})
	for _, j := range r.Records {
		if j.Search != nil {
			rows[youtube.KindSearch] = append(rows[youtube.KindSearch], transform.Flatten(j.Search))
		}

		if j.Detail != nil {
			flat := transform.Flatten(j.Detail)
			if v, ok := flat[youtube.TopicsPath]; ok {
				if joined, err := topics.Transform(v); err == nil {
					flat[youtube.TopicsPath] = joined
				}
			}
			rows[youtube.KindVideos] = append(rows[youtube.KindVideos], flat)
		}

		for _, thread := range j.Comments {
			flat := transform.Flatten(thread)
			if replies, ok := flat[youtube.RepliesPath].([]interface{}); ok {
				delete(flat, youtube.RepliesPath)
				for _, reply := range replies {
					if m, ok := reply.(map[string]interface{}); ok {
						rows[youtube.KindReplies] = append(rows[youtube.KindReplies], transform.Flatten(m))
					}
				}
			}
			rows[youtube.KindCommentThreads] = append(rows[youtube.KindCommentThreads], flat)
		}
	}

	tables := make([]transform.Table, 0, len(youtube.Kinds()))
	for _, kind := range youtube.Kinds() {
		kindRows := rows[kind]
		if opts.ShortenColumns {
			for i, row := range kindRows {
				kindRows[i] = transform.ShortenKeys(row)
			}
		}

		var schema transform.Schema
		if opts.DefaultColumns {
			schema = youtube.DefaultColumns(kind, opts.ShortenColumns)
		} else {
			schema = transform.DeriveSchema(kindRows)
		}
		tables = append(tables, transform.Project(string(kind), kindRows, schema))
	}
	return tables
}

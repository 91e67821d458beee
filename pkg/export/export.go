// Package export writes flattened tables to files or a database.
package export

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
	"github.com/saturnines/nexus-smapi/pkg/errors"
	"github.com/saturnines/nexus-smapi/pkg/transform"
)

// Sink persists the tables of one run.
type Sink interface {
	Write(ctx context.Context, runID uuid.UUID, tables []transform.Table) error
	Close() error
}

// Options is shared by every sink.
type Options struct {
	Dir         string // output directory for file sinks
	Force       bool   // write empty tables instead of skipping them
	StripCommas bool   // drop literal commas from CSV cells
	Logger      *slog.Logger
}

func (o Options) logger() *slog.Logger {
	if o.Logger == nil {
		return slog.Default()
	}
	return o.Logger
}

// skip reports whether t should not be written, warning when it is skipped.
func (o Options) skip(t transform.Table) bool {
	if !t.Empty() || o.Force {
		return false
	}
	o.logger().Warn("no data available", "kind", t.Name)
	return true
}

// create opens dir/name for writing, creating dir if needed.
func (o Options) create(name string) (*os.File, error) {
	dir := o.Dir
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, errors.WrapError(err, errors.ErrExport, "create output directory")
	}
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrExport, "create "+name)
	}
	return f, nil
}

var toString = transform.DefaultRegistry.MustCreate("string", nil)

// cellText renders one cell for text sinks. Arrays are joined with "|"
// and nil is empty.
func cellText(v interface{}) string {
	s, _ := toString.Transform(v)
	return s.(string)
}

// NewSink builds the sink for one configured format. sqlitePath is only
// read for "sqlite".
func NewSink(format string, opts Options, sqlitePath string) (Sink, error) {
	switch format {
	case "json":
		return NewJSONSink(opts), nil
	case "csv":
		return NewCSVSink(opts), nil
	case "sqlite":
		return OpenSQLite(sqlitePath, opts)
	default:
		return nil, errors.WrapError(
			fmt.Errorf("unsupported export format: %s", format),
			errors.ErrConfiguration,
			"create sink",
		)
	}
}

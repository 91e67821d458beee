package export

import (
	"bufio"
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/saturnines/nexus-smapi/pkg/errors"
	"github.com/saturnines/nexus-smapi/pkg/transform"
)

// CSVSink writes <kind>.csv per table. The header is the column list and
// every field is quoted, with embedded quotes doubled.
type CSVSink struct {
	opts Options
}

// NewCSVSink creates a CSVSink
func NewCSVSink(opts Options) *CSVSink {
	return &CSVSink{opts: opts}
}

func (s *CSVSink) Write(ctx context.Context, runID uuid.UUID, tables []transform.Table) error {
	for _, t := range tables {
		if err := ctx.Err(); err != nil {
			return err
		}
		if s.opts.skip(t) {
			continue
		}
		if err := s.writeTable(t); err != nil {
			return err
		}
		s.opts.logger().Debug("table written",
			"format", "csv",
			"kind", t.Name,
			"rows", t.Len(),
			"run_id", runID.String(),
		)
	}
	return nil
}

// stripCommas renders every cell as text first so commas inside joined
// arrays go too.
var stripCommas = transform.NewChainTransform(toString, &transform.StripCommasTransform{})

func (s *CSVSink) writeTable(t transform.Table) error {
	if s.opts.StripCommas {
		stripped, err := t.Map(stripCommas)
		if err != nil {
			return errors.WrapError(err, errors.ErrExport, "strip commas from "+t.Name)
		}
		t = stripped
	}

	f, err := s.opts.create(t.Name + ".csv")
	if err != nil {
		return err
	}
	w := bufio.NewWriter(f)

	header := make([]string, len(t.Columns))
	copy(header, t.Columns)
	writeRecord(w, header)

	fields := make([]string, len(t.Columns))
	for _, cells := range t.Rows {
		for i, v := range cells {
			fields[i] = cellText(v)
		}
		writeRecord(w, fields)
	}

	if err := w.Flush(); err != nil {
		f.Close()
		return errors.WrapError(err, errors.ErrExport, "write "+t.Name)
	}
	return f.Close()
}

// Close is a no-op; every file is closed after its table.
func (s *CSVSink) Close() error {
	return nil
}

// writeRecord writes one line with every field quoted. Write errors are
// sticky on bufio.Writer and surface at Flush.
func writeRecord(w *bufio.Writer, fields []string) {
	for i, field := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(field, `"`, `""`))
		w.WriteByte('"')
	}
	w.WriteByte('\n')
}

var _ Sink = (*CSVSink)(nil)

package export

import (
	"bytes"
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/saturnines/nexus-smapi/pkg/errors"
	"github.com/saturnines/nexus-smapi/pkg/transform"
)

// JSONSink writes <kind>.json per table: an array of objects whose keys
// follow the table's column order.
type JSONSink struct {
	opts Options
}

// NewJSONSink creates a JSONSink
func NewJSONSink(opts Options) *JSONSink {
	return &JSONSink{opts: opts}
}

func (s *JSONSink) Write(ctx context.Context, runID uuid.UUID, tables []transform.Table) error {
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
			"format", "json",
			"kind", t.Name,
			"rows", t.Len(),
			"run_id", runID.String(),
		)
	}
	return nil
}

func (s *JSONSink) writeTable(t transform.Table) error {
	rows := make([]orderedRow, len(t.Rows))
	for i, cells := range t.Rows {
		rows[i] = orderedRow{columns: t.Columns, cells: cells}
	}

	data, err := json.MarshalIndent(rows, "", "  ")
	if err != nil {
		return errors.WrapError(err, errors.ErrExport, "encode "+t.Name)
	}

	f, err := s.opts.create(t.Name + ".json")
	if err != nil {
		return err
	}
	if _, err := f.Write(append(data, '\n')); err != nil {
		f.Close()
		return errors.WrapError(err, errors.ErrExport, "write "+t.Name)
	}
	return f.Close()
}

// Close is a no-op; every file is closed after its table.
func (s *JSONSink) Close() error {
	return nil
}

// orderedRow marshals as an object with keys in column order.
type orderedRow struct {
	columns transform.Schema
	cells   []interface{}
}

func (r orderedRow) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, col := range r.columns {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(col)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(r.cells[i])
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

var _ Sink = (*JSONSink)(nil)

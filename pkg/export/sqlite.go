package export

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"
	"github.com/saturnines/nexus-smapi/pkg/errors"
	"github.com/saturnines/nexus-smapi/pkg/transform"

	_ "modernc.org/sqlite"
)

// runIDColumn tags every stored row with the run that produced it.
const runIDColumn = "run_id"

// SQLiteSink appends tables to a SQLite database, one SQL table per
// resource kind. Columns are TEXT and are added as new keys show up, so
// runs with different schemas can share a database.
type SQLiteSink struct {
	db   *sql.DB
	opts Options
}

// OpenSQLite opens (or creates) the database at path.
func OpenSQLite(path string, opts Options) (*SQLiteSink, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return nil, errors.WrapError(err, errors.ErrExport, "create database directory")
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.WrapError(err, errors.ErrExport, "open database")
	}
	db.SetMaxOpenConns(1) // SQLite: single writer
	return &SQLiteSink{db: db, opts: opts}, nil
}

func (s *SQLiteSink) Write(ctx context.Context, runID uuid.UUID, tables []transform.Table) error {
	for _, t := range tables {
		if s.opts.skip(t) {
			continue
		}
		if err := s.writeTable(ctx, runID, t); err != nil {
			return errors.WrapError(err, errors.ErrExport, "store "+t.Name)
		}
		s.opts.logger().Debug("table written",
			"format", "sqlite",
			"kind", t.Name,
			"rows", t.Len(),
			"run_id", runID.String(),
		)
	}
	return nil
}

func (s *SQLiteSink) writeTable(ctx context.Context, runID uuid.UUID, t transform.Table) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	if err := ensureTable(ctx, tx, t); err != nil {
		return err
	}

	if len(t.Rows) > 0 {
		cols := make([]string, 0, len(t.Columns)+1)
		marks := make([]string, 0, len(t.Columns)+1)
		cols = append(cols, quoteIdent(runIDColumn))
		marks = append(marks, "?")
		for _, c := range t.Columns {
			cols = append(cols, quoteIdent(c))
			marks = append(marks, "?")
		}

		stmt, err := tx.PrepareContext(ctx, fmt.Sprintf(
			"INSERT INTO %s (%s) VALUES (%s)",
			quoteIdent(t.Name), strings.Join(cols, ", "), strings.Join(marks, ", "),
		))
		if err != nil {
			return err
		}
		defer stmt.Close()

		args := make([]interface{}, len(cols))
		for _, cells := range t.Rows {
			args[0] = runID.String()
			for i, v := range cells {
				if v == nil {
					args[i+1] = nil
					continue
				}
				args[i+1] = cellText(v)
			}
			if _, err := stmt.ExecContext(ctx, args...); err != nil {
				return err
			}
		}
	}

	return tx.Commit()
}

// ensureTable creates the table, then adds any columns it lacks.
func ensureTable(ctx context.Context, tx *sql.Tx, t transform.Table) error {
	name := quoteIdent(t.Name)
	if _, err := tx.ExecContext(ctx, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s TEXT NOT NULL)", name, quoteIdent(runIDColumn),
	)); err != nil {
		return err
	}

	existing, err := tableColumns(ctx, tx, t.Name)
	if err != nil {
		return err
	}
	for _, c := range t.Columns {
		if _, ok := existing[c]; ok {
			continue
		}
		if _, err := tx.ExecContext(ctx, fmt.Sprintf(
			"ALTER TABLE %s ADD COLUMN %s TEXT", name, quoteIdent(c),
		)); err != nil {
			return err
		}
		existing[c] = struct{}{}
	}
	return nil
}

func tableColumns(ctx context.Context, tx *sql.Tx, table string) (map[string]struct{}, error) {
	rows, err := tx.QueryContext(ctx, fmt.Sprintf("PRAGMA table_info(%s)", quoteIdent(table)))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	cols := make(map[string]struct{})
	for rows.Next() {
		var (
			cid       int
			name      string
			colType   string
			notNull   int
			dfltValue sql.NullString
			pk        int
		)
		if err := rows.Scan(&cid, &name, &colType, &notNull, &dfltValue, &pk); err != nil {
			return nil, err
		}
		cols[name] = struct{}{}
	}
	return cols, rows.Err()
}

// Close closes the database.
func (s *SQLiteSink) Close() error {
	return s.db.Close()
}

func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

var _ Sink = (*SQLiteSink)(nil)

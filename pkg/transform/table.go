package transform

// Schema is an ordered list of column names.
type Schema []string

// DeriveSchema returns the union of keys across rows in first-seen order.
// Keys new to the schema within one row are taken in sorted order.
func DeriveSchema(rows []map[string]interface{}) Schema {
	seen := make(map[string]struct{})
	schema := Schema{}
	for _, row := range rows {
		for _, k := range sortedKeys(row) {
			if _, ok := seen[k]; ok {
				continue
			}
			seen[k] = struct{}{}
			schema = append(schema, k)
		}
	}
	return schema
}

// Table is one resource kind's rows projected onto a schema.
type Table struct {
	Name    string
	Columns Schema
	Rows    [][]interface{}
}

// Project lays rows out in schema order. Columns a row lacks are nil and
// keys outside the schema are dropped, so every row has exactly
// len(schema) cells.
func Project(name string, rows []map[string]interface{}, schema Schema) Table {
	t := Table{
		Name:    name,
		Columns: append(Schema(nil), schema...),
		Rows:    make([][]interface{}, 0, len(rows)),
	}
	for _, row := range rows {
		cells := make([]interface{}, len(schema))
		for i, col := range schema {
			cells[i] = row[col]
		}
		t.Rows = append(t.Rows, cells)
	}
	return t
}

// Len returns the number of rows.
func (t Table) Len() int {
	return len(t.Rows)
}

// Empty reports whether the table has no rows.
func (t Table) Empty() bool {
	return len(t.Rows) == 0
}

// Records returns each row as a column-keyed map, nil cells included.
func (t Table) Records() []map[string]interface{} {
	out := make([]map[string]interface{}, len(t.Rows))
	for i, cells := range t.Rows {
		m := make(map[string]interface{}, len(t.Columns))
		for j, col := range t.Columns {
			m[col] = cells[j]
		}
		out[i] = m
	}
	return out
}

// Map applies fn to every non-nil cell and returns a new table.
func (t Table) Map(fn Transformer) (Table, error) {
	out := Table{Name: t.Name, Columns: t.Columns, Rows: make([][]interface{}, len(t.Rows))}
	for i, cells := range t.Rows {
		mapped := make([]interface{}, len(cells))
		for j, v := range cells {
			if v == nil {
				continue
			}
			nv, err := fn.Transform(v)
			if err != nil {
				return Table{}, err
			}
			mapped[j] = nv
		}
		out.Rows[i] = mapped
	}
	return out, nil
}

package domain

// Row is an insertion-ordered mapping from column name to cell value.
// Setting an existing column overwrites the value in place, keeping
// the column's original position, which is what makes the keep-last
// duplicate-parameter policy fall out of plain row construction.
type Row struct {
	cols   []string
	values map[string]string
}

// NewRow returns an empty row.
func NewRow() *Row {
	return &Row{values: make(map[string]string)}
}

// Set stores value under col, appending the column on first use.
func (r *Row) Set(col, value string) {
	if _, ok := r.values[col]; !ok {
		r.cols = append(r.cols, col)
	}
	r.values[col] = value
}

// Get returns the cell value for col and whether the column exists.
func (r *Row) Get(col string) (string, bool) {
	v, ok := r.values[col]
	return v, ok
}

// Columns returns the row's column names in insertion order.
func (r *Row) Columns() []string {
	out := make([]string, len(r.cols))
	copy(out, r.cols)
	return out
}

// Len returns the number of columns in the row.
func (r *Row) Len() int { return len(r.cols) }

// ExportTable is the projector's output: ordered rows whose key sets
// may differ. The column set is not fixed in advance; serializers call
// Columns for the union and Records for gap-filled cells.
type ExportTable struct {
	rows []*Row
}

// NewExportTable returns an empty table.
func NewExportTable() *ExportTable {
	return &ExportTable{}
}

// Append adds a row to the end of the table. Nil rows are ignored.
func (t *ExportTable) Append(r *Row) {
	if r == nil {
		return
	}
	t.rows = append(t.rows, r)
}

// Rows returns the table's rows in order.
func (t *ExportTable) Rows() []*Row { return t.rows }

// RowCount returns the number of rows.
func (t *ExportTable) RowCount() int { return len(t.rows) }

// Columns computes the union of all row columns in first-seen order
// across rows, the order the serialized sheet will use.
func (t *ExportTable) Columns() []string {
	seen := make(map[string]struct{})
	var cols []string
	for _, row := range t.rows {
		for _, c := range row.cols {
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			cols = append(cols, c)
		}
	}
	return cols
}

// ColumnCount returns the size of the column union.
func (t *ExportTable) ColumnCount() int { return len(t.Columns()) }

// Records materializes the table against the column union: one string
// slice per row, aligned to Columns, with "" where a row lacks a
// column. The result feeds the spreadsheet and CSV writers directly.
func (t *ExportTable) Records() [][]string {
	cols := t.Columns()
	records := make([][]string, 0, len(t.rows))
	for _, row := range t.rows {
		cells := make([]string, len(cols))
		for i, c := range cols {
			cells[i] = row.values[c]
		}
		records = append(records, cells)
	}
	return records
}

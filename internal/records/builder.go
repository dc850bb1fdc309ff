package records

// Builder accumulates raw rows and infers column types on Build.
//
// A column becomes numeric when it holds at least one non-null cell and every
// non-null cell is a number or parses as one; its text cells are converted.
// Any other column is text. Forced types override inference.
type Builder struct {
	kind   Kind
	names  []string
	forced map[string]ColumnType
	rows   [][]Value
}

// NewBuilder starts a table of the given kind with the given column names.
func NewBuilder(kind Kind, columns ...string) *Builder {
	return &Builder{kind: kind, names: columns, forced: map[string]ColumnType{}}
}

// Force pins the type of a column regardless of its content. Cells of a
// column forced to number that do not parse become null.
func (b *Builder) Force(column string, ct ColumnType) *Builder {
	b.forced[column] = ct
	return b
}

// Row appends one row. Cells are converted with ValueOf; short rows are
// padded with nulls and surplus cells are dropped.
func (b *Builder) Row(cells ...any) *Builder {
	row := make([]Value, len(b.names))
	for i := range row {
		if i < len(cells) {
			row[i] = ValueOf(cells[i])
		}
	}
	b.rows = append(b.rows, row)
	return b
}

// Strings appends one row of raw text cells.
func (b *Builder) Strings(cells []string) *Builder {
	row := make([]Value, len(b.names))
	for i := range row {
		if i < len(cells) {
			row[i] = ParseCell(cells[i])
		}
	}
	b.rows = append(b.rows, row)
	return b
}

// Build infers column types and returns the finished table.
func (b *Builder) Build() *Table {
	cols := make([]Column, len(b.names))
	for i, name := range b.names {
		ct, forced := b.forced[name]
		if !forced {
			ct = b.infer(i)
		}
		cols[i] = Column{Name: name, Type: ct}
		if ct == ColumnNumber {
			for _, r := range b.rows {
				if r[i].IsNumber() || r[i].IsNull() {
					continue
				}
				if d := r[i].Decimal(); d.Valid {
					r[i] = Number(d.Decimal)
				} else {
					r[i] = Null()
				}
			}
		}
	}
	t := &Table{Kind: b.kind, Columns: cols, Rows: b.rows}
	if t.Rows == nil {
		t.Rows = [][]Value{}
	}
	t.buildIndex()
	return t
}

func (b *Builder) infer(col int) ColumnType {
	seen := false
	for _, r := range b.rows {
		v := r[col]
		if v.IsNull() {
			continue
		}
		seen = true
		if !v.Decimal().Valid {
			return ColumnText
		}
	}
	if !seen {
		return ColumnText
	}
	return ColumnNumber
}

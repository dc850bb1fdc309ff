package records

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
)

// ColumnType is the inferred type of a whole column.
type ColumnType string

const (
	ColumnText   ColumnType = "text"
	ColumnNumber ColumnType = "number"
)

// Column describes one table column.
type Column struct {
	Name string     `json:"name"`
	Type ColumnType `json:"type"`
}

// Table is an immutable, column-typed snapshot of one record kind.
//
// Tables are never mutated after construction; every transformation
// (dropping columns, scaling amounts) returns a new Table, so a published
// table can be shared by concurrent readers without locking.
type Table struct {
	Kind     Kind
	Columns  []Column
	Rows     [][]Value
	Source   string
	LoadedAt time.Time

	index map[string]int
}

// NewTable assembles a table from already-typed columns and rows. Every row
// must have exactly len(cols) cells.
func NewTable(kind Kind, cols []Column, rows [][]Value) (*Table, error) {
	for i, r := range rows {
		if len(r) != len(cols) {
			return nil, fmt.Errorf("row %d has %d cells, want %d", i, len(r), len(cols))
		}
	}
	t := &Table{Kind: kind, Columns: cols, Rows: rows}
	t.buildIndex()
	return t, nil
}

func (t *Table) buildIndex() {
	t.index = make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		if _, dup := t.index[c.Name]; !dup {
			t.index[c.Name] = i
		}
	}
}

// Len returns the number of rows. A nil table has zero rows.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Empty reports whether t is nil or has no rows.
func (t *Table) Empty() bool { return t.Len() == 0 }

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	if t == nil {
		return -1
	}
	if t.index != nil {
		if i, ok := t.index[name]; ok {
			return i
		}
		return -1
	}
	for i, c := range t.Columns {
		if c.Name == name {
			return i
		}
	}
	return -1
}

// Has reports whether every named column exists.
func (t *Table) Has(names ...string) bool {
	for _, n := range names {
		if t.Index(n) < 0 {
			return false
		}
	}
	return true
}

// ColumnNames returns the column names in table order.
func (t *Table) ColumnNames() []string {
	if t == nil {
		return nil
	}
	names := make([]string, len(t.Columns))
	for i, c := range t.Columns {
		names[i] = c.Name
	}
	return names
}

// Value returns the cell at (row, column name); missing columns read as null.
func (t *Table) Value(row int, col string) Value {
	i := t.Index(col)
	if i < 0 {
		return Null()
	}
	return t.Rows[row][i]
}

// Get returns the cell at (row, column index).
func (t *Table) Get(row, col int) Value {
	if col < 0 {
		return Null()
	}
	return t.Rows[row][col]
}

// ColumnsOfType returns the names of columns of the given type, in order.
func (t *Table) ColumnsOfType(ct ColumnType) []string {
	if t == nil {
		return nil
	}
	var out []string
	for _, c := range t.Columns {
		if c.Type == ct {
			out = append(out, c.Name)
		}
	}
	return out
}

// NullCounts returns the number of null cells per column.
func (t *Table) NullCounts() map[string]int {
	out := make(map[string]int, len(t.Columns))
	for i, c := range t.Columns {
		n := 0
		for _, r := range t.Rows {
			if r[i].IsNull() {
				n++
			}
		}
		out[c.Name] = n
	}
	return out
}

// cellOverhead approximates the in-memory size of one Value.
const cellOverhead = 48

// MemoryBytes is a rough estimate of the memory held by the table's cells.
func (t *Table) MemoryBytes() int64 {
	if t == nil {
		return 0
	}
	var n int64
	for _, r := range t.Rows {
		for _, v := range r {
			n += cellOverhead + int64(len(v.text))
		}
	}
	for _, c := range t.Columns {
		n += int64(len(c.Name)) + 16
	}
	return n
}

// Records returns up to limit rows as column-name keyed maps, preserving
// cell values. A negative limit returns every row.
func (t *Table) Records(limit int) []map[string]Value {
	n := t.Len()
	if limit >= 0 && limit < n {
		n = limit
	}
	out := make([]map[string]Value, n)
	for i := 0; i < n; i++ {
		m := make(map[string]Value, len(t.Columns))
		for j, c := range t.Columns {
			m[c.Name] = t.Rows[i][j]
		}
		out[i] = m
	}
	return out
}

// ── Transformations ──────────────────────────────────────────────────────────

// WithoutColumns returns a copy of t lacking the named columns. Names that do
// not exist are ignored.
func (t *Table) WithoutColumns(names ...string) *Table {
	drop := make(map[int]bool)
	for _, n := range names {
		if i := t.Index(n); i >= 0 {
			drop[i] = true
		}
	}
	if len(drop) == 0 {
		return t
	}
	cols := make([]Column, 0, len(t.Columns)-len(drop))
	for i, c := range t.Columns {
		if !drop[i] {
			cols = append(cols, c)
		}
	}
	rows := make([][]Value, len(t.Rows))
	for ri, r := range t.Rows {
		nr := make([]Value, 0, len(cols))
		for i, v := range r {
			if !drop[i] {
				nr = append(nr, v)
			}
		}
		rows[ri] = nr
	}
	return t.derive(cols, rows)
}

// WithoutEmptyRows returns a copy of t lacking rows whose every cell is null.
func (t *Table) WithoutEmptyRows() *Table {
	rows := make([][]Value, 0, len(t.Rows))
	for _, r := range t.Rows {
		for _, v := range r {
			if !v.IsNull() {
				rows = append(rows, r)
				break
			}
		}
	}
	if len(rows) == len(t.Rows) {
		return t
	}
	return t.derive(t.Columns, rows)
}

// Scaled returns a copy of t in which every numeric cell of the named columns
// is divided by factor. Non-numeric cells are left as they are.
func (t *Table) Scaled(factor decimal.Decimal, names ...string) *Table {
	var idx []int
	for _, n := range names {
		if i := t.Index(n); i >= 0 {
			idx = append(idx, i)
		}
	}
	if len(idx) == 0 || factor.IsZero() {
		return t
	}
	rows := make([][]Value, len(t.Rows))
	for ri, r := range t.Rows {
		nr := make([]Value, len(r))
		copy(nr, r)
		for _, i := range idx {
			if d := nr[i].Decimal(); d.Valid {
				nr[i] = Number(d.Decimal.Div(factor))
			}
		}
		rows[ri] = nr
	}
	return t.derive(t.Columns, rows)
}

// Stamped returns a shallow copy of t carrying the given source and load time.
func (t *Table) Stamped(source string, at time.Time) *Table {
	c := t.derive(t.Columns, t.Rows)
	c.Source = source
	c.LoadedAt = at
	return c
}

func (t *Table) derive(cols []Column, rows [][]Value) *Table {
	c := &Table{Kind: t.Kind, Columns: cols, Rows: rows, Source: t.Source, LoadedAt: t.LoadedAt}
	c.buildIndex()
	return c
}

// ── Serialization ────────────────────────────────────────────────────────────

type tableJSON struct {
	Kind     string    `json:"kind"`
	Columns  []Column  `json:"columns"`
	Rows     [][]Value `json:"rows"`
	Source   string    `json:"source,omitempty"`
	LoadedAt time.Time `json:"loaded_at"`
}

// MarshalJSON encodes t in its row form, which is also the form tables are
// cached in.
func (t *Table) MarshalJSON() ([]byte, error) {
	return json.Marshal(tableJSON{
		Kind:     t.Kind.ID(),
		Columns:  t.Columns,
		Rows:     t.Rows,
		Source:   t.Source,
		LoadedAt: t.LoadedAt,
	})
}

func (t *Table) UnmarshalJSON(b []byte) error {
	var raw tableJSON
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	kind, err := ParseKind(raw.Kind)
	if err != nil {
		return err
	}
	tbl, err := NewTable(kind, raw.Columns, raw.Rows)
	if err != nil {
		return err
	}
	tbl.Source = raw.Source
	tbl.LoadedAt = raw.LoadedAt
	*t = *tbl
	return nil
}

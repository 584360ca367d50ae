package table

import (
	"strconv"
	"strings"

	"github.com/dgallion1/fundgest/internal/errs"
)

// Cell is a nullable table cell. Spreadsheet exports mix blanks, numbers and
// text; everything is kept as text and blanks are null.
type Cell struct {
	Text  string
	Valid bool
}

// String returns a non-null cell.
func String(s string) Cell { return Cell{Text: s, Valid: true} }

// Null returns a null cell.
func Null() Cell { return Cell{} }

// CellOf maps blank spreadsheet cells to null.
func CellOf(s string) Cell {
	if strings.TrimSpace(s) == "" {
		return Null()
	}
	return String(s)
}

// Table is an ordered grid with named columns. Rows may be ragged; missing
// trailing cells read as null.
type Table struct {
	Columns []string
	Rows    [][]Cell
}

// New builds a table from raw string rows. The first row is NOT treated as
// a header: generated column names are used ("0", "1", ...), matching how
// headerless spreadsheet exports arrive before section extraction.
func New(rows [][]string) *Table {
	width := 0
	for _, r := range rows {
		if len(r) > width {
			width = len(r)
		}
	}
	t := &Table{Columns: make([]string, width)}
	for i := range t.Columns {
		t.Columns[i] = strconv.Itoa(i)
	}
	for _, r := range rows {
		row := make([]Cell, width)
		for j, s := range r {
			row[j] = CellOf(s)
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

// WithHeader builds a table whose first raw row becomes the column names.
func WithHeader(rows [][]string) *Table {
	if len(rows) == 0 {
		return &Table{}
	}
	t := New(rows[1:])
	cols := make([]string, max(len(rows[0]), len(t.Columns)))
	for i := range cols {
		if i < len(rows[0]) {
			cols[i] = strings.TrimSpace(rows[0][i])
		}
	}
	t.Columns = cols
	for i, r := range t.Rows {
		t.Rows[i] = pad(r, len(cols))
	}
	return t
}

// Len returns the number of rows. A nil table is empty.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.Rows)
}

// Cell returns row i, column j, or a null cell when the row is short.
func (t *Table) Cell(i, j int) Cell {
	if i < 0 || i >= len(t.Rows) || j < 0 || j >= len(t.Rows[i]) {
		return Null()
	}
	return t.Rows[i][j]
}

// Index returns the position of the named column, or -1.
func (t *Table) Index(name string) int {
	for i, c := range t.Columns {
		if c == name {
			return i
		}
	}
	return -1
}

// Has reports whether the named column exists.
func (t *Table) Has(name string) bool { return t.Index(name) >= 0 }

// Column returns a copy of the named column's cells.
func (t *Table) Column(name string) ([]Cell, bool) {
	j := t.Index(name)
	if j < 0 {
		return nil, false
	}
	out := make([]Cell, len(t.Rows))
	for i := range t.Rows {
		out[i] = t.Cell(i, j)
	}
	return out, true
}

// AddColumn appends a column filled by fn(rowIndex). An existing column of
// the same name is overwritten.
func (t *Table) AddColumn(name string, fn func(i int) Cell) {
	j := t.Index(name)
	if j < 0 {
		t.Columns = append(t.Columns, name)
		j = len(t.Columns) - 1
	}
	for i := range t.Rows {
		t.Rows[i] = pad(t.Rows[i], len(t.Columns))
		t.Rows[i][j] = fn(i)
	}
}

// Rename renames column from → to. It reports whether from existed.
func (t *Table) Rename(from, to string) bool {
	j := t.Index(from)
	if j < 0 {
		return false
	}
	t.Columns[j] = to
	return true
}

// Select returns a new table holding only the named columns that exist, in
// the given order.
func (t *Table) Select(names ...string) *Table {
	var idx []int
	out := &Table{}
	for _, n := range names {
		if j := t.Index(n); j >= 0 {
			idx = append(idx, j)
			out.Columns = append(out.Columns, n)
		}
	}
	for i := range t.Rows {
		row := make([]Cell, len(idx))
		for k, j := range idx {
			row[k] = t.Cell(i, j)
		}
		out.Rows = append(out.Rows, row)
	}
	return out
}

// Filter returns the rows for which keep returns true.
func (t *Table) Filter(keep func(row []Cell) bool) *Table {
	out := &Table{Columns: append([]string(nil), t.Columns...)}
	for _, r := range t.Rows {
		r = pad(r, len(t.Columns))
		if keep(r) {
			out.Rows = append(out.Rows, r)
		}
	}
	return out
}

// DropUnnamed removes columns whose header is blank.
func (t *Table) DropUnnamed() *Table {
	var keep []string
	for _, c := range t.Columns {
		if strings.TrimSpace(c) != "" {
			keep = append(keep, c)
		}
	}
	return t.Select(keep...)
}

// Strings renders the table as raw rows, header first. Null cells render as
// empty strings.
func (t *Table) Strings() [][]string {
	out := [][]string{append([]string(nil), t.Columns...)}
	for i := range t.Rows {
		row := make([]string, len(t.Columns))
		for j := range t.Columns {
			row[j] = t.Cell(i, j).Text
		}
		out = append(out, row)
	}
	return out
}

// Concat stacks tables, aligning on column name. Columns appear in first-seen
// order; cells missing from a source table are null.
func Concat(tables ...*Table) *Table {
	out := &Table{}
	seen := map[string]int{}
	for _, t := range tables {
		for _, c := range t.Columns {
			if _, ok := seen[c]; !ok {
				seen[c] = len(out.Columns)
				out.Columns = append(out.Columns, c)
			}
		}
	}
	for _, t := range tables {
		for i := range t.Rows {
			row := make([]Cell, len(out.Columns))
			for j, c := range t.Columns {
				row[seen[c]] = t.Cell(i, j)
			}
			out.Rows = append(out.Rows, row)
		}
	}
	return out
}

// ColumnRef addresses a column by name or by ordinal. Build one with ByName
// or ByIndex.
type ColumnRef struct {
	name    string
	index   int
	byIndex bool
	set     bool
}

// ByName addresses a column by its header.
func ByName(name string) ColumnRef { return ColumnRef{name: name, set: true} }

// ByIndex addresses a column by its zero-based position.
func ByIndex(i int) ColumnRef { return ColumnRef{index: i, byIndex: true, set: true} }

// IsZero reports whether the ref was left unset.
func (c ColumnRef) IsZero() bool { return !c.set }

func (c ColumnRef) String() string {
	if c.byIndex {
		return "#" + strconv.Itoa(c.index)
	}
	return c.name
}

// Resolve returns the column position the ref points at.
func (c ColumnRef) Resolve(t *Table) (int, error) {
	if c.byIndex {
		if c.index < 0 || c.index >= len(t.Columns) {
			return 0, &errs.RangeError{What: "column", Index: c.index, Len: len(t.Columns)}
		}
		return c.index, nil
	}
	j := t.Index(c.name)
	if j < 0 {
		return 0, &errs.NotFoundError{What: "column", Label: c.name}
	}
	return j, nil
}

func pad(r []Cell, n int) []Cell {
	for len(r) < n {
		r = append(r, Null())
	}
	return r
}

package table

import (
	"fmt"
	"strings"

	"github.com/dgallion1/fundgest/internal/errs"
)

// Mode selects how a boundary label is compared against a cell.
type Mode int

const (
	// Exact compares the trimmed cell with the label.
	Exact Mode = iota
	// Contains is a literal substring match on the trimmed cell.
	Contains
)

func (m Mode) String() string {
	if m == Contains {
		return "contains"
	}
	return "exact"
}

// Label is a boundary label: literal text, match mode and the zero-based
// occurrence to anchor on.
type Label struct {
	Text string
	Mode Mode
	Nth  int
}

// Match reports whether the cell matches the label text. Null cells never
// match.
func (l Label) Match(c Cell) bool {
	return matchText(l.Text, l.Mode, c)
}

func matchText(text string, mode Mode, c Cell) bool {
	if !c.Valid {
		return false
	}
	v := strings.TrimSpace(c.Text)
	if mode == Contains {
		return strings.Contains(v, text)
	}
	return v == text
}

type endKind int

const (
	endNone endKind = iota
	endLabel
	endRows
)

// End bounds a section. The zero value takes every remaining row.
type End struct {
	kind  endKind
	texts []string
	mode  Mode
	nth   int
	rows  int
}

// EndAt ends the section strictly before the row matching l.
func EndAt(l Label) End {
	return End{kind: endLabel, texts: []string{l.Text}, mode: l.Mode, nth: l.Nth}
}

// EndAny ends the section before the nth row matching any of texts.
func EndAny(mode Mode, nth int, texts ...string) End {
	return End{kind: endLabel, texts: texts, mode: mode, nth: nth}
}

// EndRows keeps at most n data rows.
func EndRows(n int) End { return End{kind: endRows, rows: n} }

func (e End) match(c Cell) bool {
	for _, t := range e.texts {
		if matchText(t, e.mode, c) {
			return true
		}
	}
	return false
}

func (e End) String() string {
	switch e.kind {
	case endLabel:
		return strings.Join(e.texts, "|")
	case endRows:
		return fmt.Sprintf("%d rows", e.rows)
	}
	return "none"
}

// SectionQuery describes one labelled sub-table.
type SectionQuery struct {
	Column    ColumnRef
	EndColumn ColumnRef // defaults to Column
	Start     Label
	Shift     int
	End       End
}

// Section slices a labelled sub-table out of t. The row at the located start
// plus Shift becomes the header; the rows after it, up to but excluding the
// end boundary, become the data.
func (t *Table) Section(q SectionQuery) (*Table, error) {
	if q.Column.IsZero() {
		return nil, &errs.ValidationError{Field: "section column", Reason: "not set"}
	}
	if q.Start.Text == "" {
		return nil, &errs.ValidationError{Field: "start label", Reason: "empty"}
	}
	if q.Start.Nth < 0 {
		return nil, &errs.ValidationError{Field: "start occurrence", Reason: "negative"}
	}
	col, err := q.Column.Resolve(t)
	if err != nil {
		return nil, err
	}
	endCol := col
	if !q.EndColumn.IsZero() {
		if endCol, err = q.EndColumn.Resolve(t); err != nil {
			return nil, err
		}
	}

	start, err := t.find(col, 0, q.Start.Nth, q.Start.Match)
	if err != nil {
		return nil, &errs.NotFoundError{What: "start label", Label: q.Start.Text, Where: "column " + q.Column.String()}
	}
	cursor := start + q.Shift
	if cursor < 0 || cursor >= len(t.Rows) {
		return nil, &errs.RangeError{What: "shifted start row", Index: cursor, Len: len(t.Rows)}
	}

	stop := len(t.Rows)
	switch q.End.kind {
	case endRows:
		if q.End.rows < 0 || cursor+1+q.End.rows > len(t.Rows) {
			return nil, &errs.RangeError{What: "end row count", Index: q.End.rows, Len: len(t.Rows) - cursor - 1}
		}
		stop = cursor + 1 + q.End.rows
	case endLabel:
		if stop, err = t.find(endCol, cursor+1, q.End.nth, q.End.match); err != nil {
			where := "column " + q.Column.String()
			if !q.EndColumn.IsZero() {
				where = "column " + q.EndColumn.String()
			}
			return nil, &errs.NotFoundError{What: "end label", Label: q.End.String(), Where: where}
		}
	}

	out := &Table{Columns: make([]string, len(t.Columns))}
	for j := range t.Columns {
		out.Columns[j] = strings.TrimSpace(t.Cell(cursor, j).Text)
	}
	for i := cursor + 1; i < stop; i++ {
		out.Rows = append(out.Rows, pad(append([]Cell(nil), t.Rows[i]...), len(out.Columns)))
	}
	return out, nil
}

// find returns the row of the nth match in column col at or after from.
func (t *Table) find(col, from, nth int, match func(Cell) bool) (int, error) {
	seen := 0
	for i := from; i < len(t.Rows); i++ {
		if !match(t.Cell(i, col)) {
			continue
		}
		if seen == nth {
			return i, nil
		}
		seen++
	}
	return 0, &errs.NotFoundError{}
}

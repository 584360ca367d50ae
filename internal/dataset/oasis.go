package dataset

import (
	"fmt"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/table"
)

const (
	DefaultOASISAnchor = "Org ID"

	colOrgName     = "Organization Name"
	colDesignation = "OASIS RSO Designation"
	colOrgType     = "Org Type"
	colBlueHeart   = "Blue Heart"
	colActive      = "Active"
	colYear        = "Year"
	colYearRank    = "Year Rank"

	activeOrgType = "Registered Student Organizations"
)

// DefaultOASISDesignations are older names of the designation column.
var DefaultOASISDesignations = []string{"LEAD Center Advisor", "Org Category"}

var (
	categoryRe     = regexp.MustCompile(`(?:LEAD|OASIS) Center Category: (.*)`)
	yearRe         = regexp.MustCompile(`\d{4}-\d{4}`)
	academicYearRe = regexp.MustCompile(`^\d{4}-\d{4}$`)
)

// OASIS reduces an organization registry export to id, name, designation,
// blue-heart and active flags, tagged with the academic year.
type OASIS struct {
	Anchor       string
	Designations []string
}

func NewOASIS() *OASIS {
	return &OASIS{Anchor: DefaultOASISAnchor, Designations: DefaultOASISDesignations}
}

func (*OASIS) Name() string { return "OASIS" }
func (*OASIS) Kind() Kind   { return KindTable }

func (o *OASIS) Process(ex Extractor, in Input) (Output, error) {
	if in.Table == nil {
		return Output{}, &errs.ValidationError{Field: "input", Reason: "OASIS needs a table"}
	}
	out := Output{Name: "OASIS"}

	t, err := ex.Section(in.Table, table.SectionQuery{
		Column: table.ByIndex(0),
		Start:  table.Label{Text: o.Anchor, Mode: table.Exact},
	})
	if err != nil {
		return Output{}, err
	}

	year := in.Year
	if year == "" {
		year = yearRe.FindString(in.Name)
	}
	if year == "" {
		out.warn("academic year not given and not found in file name")
	}
	t.AddColumn(colYear, func(int) table.Cell { return table.CellOf(year) })

	if !t.Has(colOrgName) {
		return Output{}, &errs.NotFoundError{What: "column", Label: colOrgName, Where: in.Name}
	}
	source := ""
	for _, c := range append([]string{colDesignation}, o.Designations...) {
		if t.Has(c) {
			source = c
			break
		}
	}
	if source == "" {
		return Output{}, &errs.NotFoundError{
			What:  "column",
			Label: fmt.Sprintf("%s or %v", colDesignation, o.Designations),
			Where: in.Name,
		}
	}

	raw, _ := t.Column(source)
	t.AddColumn(colDesignation, func(i int) table.Cell {
		if m := categoryRe.FindStringSubmatch(raw[i].Text); m != nil {
			return table.CellOf(m[1])
		}
		return table.Null()
	})

	orgType, ok := t.Column(colOrgType)
	if !ok {
		out.warn(fmt.Sprintf("column %q missing; every organization marked inactive", colOrgType))
	}
	t.AddColumn(colActive, func(i int) table.Cell {
		return table.String(strconv.FormatBool(ok && strings.TrimSpace(orgType[i].Text) == activeOrgType))
	})

	names, _ := t.Column(colOrgName)
	t.AddColumn(colBlueHeart, func(i int) table.Cell {
		return table.String(strconv.FormatBool(strings.Contains(names[i].Text, "💙")))
	})

	out.Table = t.Select(o.Schema()...)
	if in.Existing != nil {
		if out.Table, err = MergeOASIS(in.Existing, out.Table); err != nil {
			return Output{}, err
		}
	}
	return out, nil
}

// Schema lists the leading columns of every OASIS output.
func (o *OASIS) Schema() []string {
	return []string{o.Anchor, colOrgName, colDesignation, colBlueHeart, colActive, colYear}
}

// MergeOASIS stacks a fresh OASIS output on an earlier cleaned one. Academic
// years are re-ranked by their ending year into a Year Rank column, and rows
// are ordered by rank, then organization name. Columns only one side has
// are kept with nulls on the other.
func MergeOASIS(existing, fresh *table.Table) (*table.Table, error) {
	for _, c := range fresh.Columns {
		if !existing.Has(c) {
			return nil, &errs.NotFoundError{What: "column", Label: c, Where: "existing OASIS output"}
		}
	}
	merged := table.Concat(fresh, existing)
	years, ok := merged.Column(colYear)
	if !ok {
		return nil, &errs.NotFoundError{What: "column", Label: colYear, Where: "OASIS output"}
	}

	ends := make(map[string]int)
	for _, y := range years {
		text := strings.TrimSpace(y.Text)
		if _, seen := ends[text]; seen {
			continue
		}
		end, ok := yearEnd(text)
		if !ok {
			return nil, &errs.ValidationError{Field: colYear, Reason: fmt.Sprintf("%q is not an academic year like 2024-2025", text)}
		}
		ends[text] = end
	}
	order := make([]string, 0, len(ends))
	for y := range ends {
		order = append(order, y)
	}
	sort.Slice(order, func(i, j int) bool {
		if ends[order[i]] != ends[order[j]] {
			return ends[order[i]] < ends[order[j]]
		}
		return order[i] < order[j]
	})
	rank := make(map[string]int, len(order))
	for i, y := range order {
		rank[y] = i
	}

	if merged.Has(colYearRank) {
		merged = merged.Select(withoutColumn(merged.Columns, colYearRank)...)
	}
	merged.AddColumn(colYearRank, func(i int) table.Cell {
		return table.String(strconv.Itoa(rank[strings.TrimSpace(years[i].Text)]))
	})

	name, year := merged.Index(colOrgName), merged.Index(colYear)
	rowRank := func(i int) int { return rank[strings.TrimSpace(merged.Cell(i, year).Text)] }
	sort.SliceStable(merged.Rows, func(i, j int) bool {
		ri, rj := rowRank(i), rowRank(j)
		if ri != rj {
			return ri < rj
		}
		return merged.Cell(i, name).Text < merged.Cell(j, name).Text
	})
	return merged, nil
}

// yearEnd returns 2025 for "2024-2025".
func yearEnd(year string) (int, bool) {
	if !academicYearRe.MatchString(year) {
		return 0, false
	}
	end, err := strconv.Atoi(year[5:])
	return end, err == nil
}

func withoutColumn(cols []string, drop string) []string {
	out := make([]string, 0, len(cols))
	for _, c := range cols {
		if c != drop {
			out = append(out, c)
		}
	}
	return out
}

package dataset

import (
	"fmt"

	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/table"
)

// ABSA labels whose block carries its own header row under the label.
var DefaultABSAHeader = []string{
	"ASUC Chartered Programs and Commissions",
	"Publications (PUB) Registered Student Organizations",
	"Student Activity Groups (SAG)",
	"Student-Initiated Service Group (SISG)",
}

// ABSA labels whose label row doubles as the header row.
var DefaultABSANoHeader = []string{
	"Office of the President",
	"Office of the Executive Vice President",
	"Office of External Affairs Vice President",
	"Office of the Academic Affairs Vice President",
	"Student Advocate's Office",
	"Senate",
	"Appointed Officials",
	"Operations",
	"Elections",
	"External Expenditures",
}

const (
	DefaultABSAEnd  = "SUBTOTAL"
	colOrgCategory  = "Org Category"
	colOrganization = "Organization"
)

// ABSA stacks the budget blocks of an allocation sheet into one table with
// an "Org Category" column.
type ABSA struct {
	Header   []string
	NoHeader []string
	End      string
}

// NewABSA returns the processor with the default block labels.
func NewABSA() *ABSA {
	return &ABSA{Header: DefaultABSAHeader, NoHeader: DefaultABSANoHeader, End: DefaultABSAEnd}
}

func (*ABSA) Name() string { return "ABSA" }
func (*ABSA) Kind() Kind   { return KindTable }

func (a *ABSA) Process(ex Extractor, in Input) (Output, error) {
	if in.Table == nil {
		return Output{}, &errs.ValidationError{Field: "input", Reason: "ABSA needs a table"}
	}
	out := Output{Name: "ABSA"}
	var parts []*table.Table

	block := func(label string, shift int) *table.Table {
		sub, err := ex.Section(in.Table, table.SectionQuery{
			Column: table.ByIndex(0),
			Start:  table.Label{Text: label, Mode: table.Exact},
			Shift:  shift,
			End:    table.EndAt(table.Label{Text: a.End, Mode: table.Contains}),
		})
		if err != nil {
			if errs.IsNotFound(err) || errs.IsRange(err) {
				out.Skipped = append(out.Skipped, label)
				return nil
			}
			out.warn(fmt.Sprintf("block %q: %v", label, err))
			return nil
		}
		if sub.Len() == 0 {
			out.warn(fmt.Sprintf("no data found for block %q", label))
			return nil
		}
		sub = sub.DropUnnamed()
		sub.AddColumn(colOrgCategory, func(int) table.Cell { return table.String(label) })
		return sub
	}

	for _, label := range a.Header {
		if sub := block(label, 1); sub != nil {
			parts = append(parts, sub)
		}
	}
	for _, label := range a.NoHeader {
		sub := block(label, 0)
		if sub == nil {
			continue
		}
		if !sub.Rename(label, colOrganization) {
			out.warn(fmt.Sprintf("column %q not found in block header %v", label, sub.Columns))
		}
		parts = append(parts, sub)
	}

	if len(parts) == 0 {
		return Output{}, &errs.NotFoundError{What: "ABSA block", Label: "any", Where: in.Name}
	}
	out.Table = table.Concat(parts...)
	return out, nil
}

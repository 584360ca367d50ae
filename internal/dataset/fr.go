package dataset

import (
	"strings"

	"github.com/dgallion1/fundgest/internal/dates"
	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/table"
)

const (
	DefaultFRAnchor = "Appx"

	colAmountRequested = "Amount Requested"
	colAmountApproved  = "Amount Approved"
	colAmountAllowed   = "Amount Allowed"
	colCommitteeStatus = "Committee Status"
)

// frColumns is the output order of a reshaped FR sheet.
var frColumns = []string{
	"Appx", "Org Name", "Request Type", "Org Type",
	colAmountRequested, colAmountAllowed, "Funding Source",
	"Primary Contact", "Email Address",
}

// appendixLabels are the row labels an FR appendix uses: A-Z, AA-AZ, BA-BZ.
var appendixLabels = func() map[string]bool {
	m := make(map[string]bool, 78)
	for c := 'A'; c <= 'Z'; c++ {
		m[string(c)] = true
		m["A"+string(c)] = true
		m["B"+string(c)] = true
	}
	return m
}()

// FR cleans a finance resolution sheet: the table under the appendix header,
// limited to lettered rows, with requested and allowed amounts side by side.
type FR struct {
	Anchor string
}

func NewFR() *FR { return &FR{Anchor: DefaultFRAnchor} }

func (*FR) Name() string { return "FR" }
func (*FR) Kind() Kind   { return KindTable }

func (f *FR) Process(ex Extractor, in Input) (Output, error) {
	if in.Table == nil {
		return Output{}, &errs.ValidationError{Field: "input", Reason: "FR needs a table"}
	}
	out := Output{}

	token, when, ok := dates.Token(in.Text)
	if !ok {
		token, when, ok = dates.Token(dates.RowsText(in.Table, 2))
	}
	out.Date, out.Name = dates.TableSentinel, "FR_clean_"+dates.TableSentinel
	if ok {
		out.Date = when.Format(dates.ISOLayout)
		// Numeric tokens name the output as written; spelled-out months use ISO.
		label := out.Date
		if strings.ContainsAny(token, "/-") {
			label = token
		}
		out.Name = "FR_clean_" + safeName(label)
	} else {
		out.warn("no meeting date in FR text or sheet; output is undated")
	}

	sub, err := ex.Section(in.Table, table.SectionQuery{
		Column: table.ByIndex(0),
		Start:  table.Label{Text: f.Anchor, Mode: table.Contains},
	})
	if err != nil {
		return Output{}, err
	}
	sub = sub.Filter(func(row []table.Cell) bool {
		return len(row) > 0 && appendixLabels[strings.TrimSpace(row[0].Text)]
	})
	out.Table = reshapeFR(sub)
	return out, nil
}

// reshapeFR merges the request and decision halves of the sheet. Sheets that
// already carry both the requested amount and the committee status, or that
// lack either half, are returned as found.
func reshapeFR(t *table.Table) *table.Table {
	if t.Has(colAmountRequested) && t.Has(colCommitteeStatus) {
		return t
	}
	var requested, decided bool
	for _, c := range t.Columns {
		requested = requested || strings.Contains(c, "Requested")
		decided = decided || strings.Contains(c, "Approved") || strings.Contains(c, "Committee")
	}
	if !requested || !decided {
		return t
	}
	t.Rename(colAmountApproved, colAmountAllowed)
	return t.Select(frColumns...)
}

func safeName(s string) string {
	return strings.NewReplacer("/", "-", `\`, "-", ":", "-").Replace(s)
}

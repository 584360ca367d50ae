package dataset

import (
	"path/filepath"
	"sort"
	"strings"

	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/extract"
	"github.com/dgallion1/fundgest/internal/table"
)

const (
	SourceFROnly  = "FR Only"
	SourceAgenda  = "Agenda Only"
	SourceBoth    = "Both (Agenda Priority)"
	colOrgTypeFY  = "Org Type (year)"
	colSource     = "Source"
	colFROrgName  = "Org Name"
	colFRAmount   = "Amount"
	colFRDate     = "Date"
	colFRReqType  = "Request Type"
	otherPriority = 999
)

var requestTypePriority = map[string]int{
	"Contingency":       1,
	"Finance Rule":      2,
	"Space Reservation": 3,
	"Sponsorship":       4,
}

// ReconcileSummary counts how rows were matched.
type ReconcileSummary struct {
	Both       int `json:"both"`
	FROnly     int `json:"fr_only"`
	AgendaOnly int `json:"agenda_only"`
	Total      int `json:"total"`
}

type side struct {
	t                             *table.Table
	name, reqType, amount, status int
	requested, orgType, date      int
}

func columns(t *table.Table, names ...[]string) []int {
	idx := make([]int, len(names))
	for i, alts := range names {
		idx[i] = -1
		for _, n := range alts {
			if j := t.Index(n); j >= 0 {
				idx[i] = j
				break
			}
		}
	}
	return idx
}

func newSide(t *table.Table) side {
	c := columns(t,
		[]string{colFROrgName, extract.ColEntity},
		[]string{colFRReqType},
		[]string{colFRAmount, colAmountAllowed},
		[]string{colCommitteeStatus, extract.ColDecision},
		[]string{colAmountRequested},
		[]string{colOrgTypeFY},
		[]string{colFRDate},
	)
	return side{t: t, name: c[0], reqType: c[1], amount: c[2], status: c[3], requested: c[4], orgType: c[5], date: c[6]}
}

func (s side) cell(i, j int) table.Cell {
	if j < 0 {
		return table.Null()
	}
	return s.t.Cell(i, j)
}

func (s side) org(i int) string { return strings.TrimSpace(s.t.Cell(i, s.name).Text) }

// Reconcile outer-joins FR output with agenda output on organization name.
// Agenda values for amount, status, request type and date win when present.
// Amounts are zeroed unless the final status mentions approval. Rows are
// ordered by request type priority, then name.
func Reconcile(fr, agenda *table.Table) (*table.Table, ReconcileSummary, error) {
	var sum ReconcileSummary
	if fr.Len() == 0 && agenda.Len() == 0 {
		return &table.Table{}, sum, nil
	}
	if fr.Len() == 0 {
		sum.AgendaOnly, sum.Total = agenda.Len(), agenda.Len()
		return agenda.Select(agenda.Columns...), sum, nil
	}
	if agenda.Len() == 0 {
		sum.FROnly, sum.Total = fr.Len(), fr.Len()
		return fr.Select(fr.Columns...), sum, nil
	}

	f, a := newSide(fr), newSide(agenda)
	if f.name < 0 {
		return nil, sum, &errs.NotFoundError{What: "column", Label: colFROrgName, Where: "FR output"}
	}
	if a.name < 0 {
		return nil, sum, &errs.NotFoundError{What: "column", Label: colFROrgName, Where: "agenda output"}
	}

	cols := []string{colFROrgName, colFRReqType}
	if f.requested >= 0 {
		cols = append(cols, colAmountRequested)
	}
	cols = append(cols, colFRAmount, colCommitteeStatus, colSource)
	if f.orgType >= 0 {
		cols = append(cols, colOrgTypeFY)
	}
	cols = append(cols, colFRDate)
	out := &table.Table{Columns: cols}

	emit := func(fi, ai int) {
		var org string
		reqType, amount, status, date := table.Null(), table.Null(), table.Null(), table.Null()
		requested, orgType := table.Null(), table.Null()
		source := SourceBoth
		if fi >= 0 {
			org = f.org(fi)
			reqType, amount, status = f.cell(fi, f.reqType), f.cell(fi, f.amount), f.cell(fi, f.status)
			requested, orgType = f.cell(fi, f.requested), f.cell(fi, f.orgType)
		}
		if ai >= 0 {
			org = a.org(ai)
			reqType = first(a.cell(ai, a.reqType), reqType)
			amount = first(a.cell(ai, a.amount), amount)
			status = first(a.cell(ai, a.status), status)
			date = a.cell(ai, a.date)
		}
		switch {
		case ai < 0:
			source = SourceFROnly
			sum.FROnly++
		case fi < 0:
			source = SourceAgenda
			sum.AgendaOnly++
		default:
			sum.Both++
		}
		if !strings.Contains(strings.ToLower(status.Text), "approved") {
			amount = table.String("0")
		}

		row := []table.Cell{table.String(org), reqType}
		if f.requested >= 0 {
			row = append(row, requested)
		}
		row = append(row, amount, table.String(status.Text), table.String(source))
		if f.orgType >= 0 {
			row = append(row, orgType)
		}
		row = append(row, date)
		out.Rows = append(out.Rows, row)
	}

	byName := make(map[string][]int)
	for i := range agenda.Rows {
		byName[a.org(i)] = append(byName[a.org(i)], i)
	}
	matched := make(map[int]bool)
	for i := range fr.Rows {
		hits := byName[f.org(i)]
		if len(hits) == 0 {
			emit(i, -1)
			continue
		}
		for _, j := range hits {
			matched[j] = true
			emit(i, j)
		}
	}
	for j := range agenda.Rows {
		if !matched[j] {
			emit(-1, j)
		}
	}

	sort.SliceStable(out.Rows, func(i, j int) bool {
		pi, pj := priority(out.Rows[i][1].Text), priority(out.Rows[j][1].Text)
		if pi != pj {
			return pi < pj
		}
		return out.Rows[i][0].Text < out.Rows[j][0].Text
	})
	sum.Total = len(out.Rows)
	return out, sum, nil
}

func first(a, b table.Cell) table.Cell {
	if a.Valid {
		return a
	}
	return b
}

func priority(reqType string) int {
	if p, ok := requestTypePriority[strings.TrimSpace(reqType)]; ok {
		return p
	}
	return otherPriority
}

// ReconciledName derives the output name from the FR file it was built
// from: "Cleaned" becomes "Finalized", FR_clean_ becomes FR_final_, and
// any other name gets " Finalized" appended.
func ReconciledName(frFile string) string {
	name := strings.TrimSpace(strings.TrimSuffix(frFile, filepath.Ext(frFile)))
	switch {
	case name == "":
		return "Reconciled"
	case strings.Contains(name, "Cleaned"):
		return strings.Replace(name, "Cleaned", "Finalized", 1)
	case strings.Contains(name, "_clean_"):
		return strings.Replace(name, "_clean_", "_final_", 1)
	case strings.HasSuffix(name, "_clean"):
		return strings.TrimSuffix(name, "_clean") + "_final"
	}
	return name + " Finalized"
}

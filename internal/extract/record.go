package extract

import (
	"strings"

	"github.com/dgallion1/fundgest/internal/table"
)

// Output columns of a text extraction.
const (
	ColEntity      = "Entity Name"
	ColRequestType = "Request Type"
	ColDecision    = "Decision"
	ColAmount      = "Amount"
	ColDate        = "Date"
)

// Columns is the schema of Table.
var Columns = []string{ColEntity, ColRequestType, ColDecision, ColAmount, ColDate}

// Record is one organization's outcome in one section.
type Record struct {
	Entity      string   `json:"entity"`
	RequestType string   `json:"request_type"`
	Decision    Decision `json:"decision"`
	Amount      Amount   `json:"-"`
	Date        string   `json:"date"`
}

// Records classifies every entity of a segmentation.
func Records(seg Segmentation, requestType, date string) []Record {
	out := make([]Record, 0, len(seg.Entities))
	for _, e := range seg.Entities {
		d, amt := Classify(strings.Join(e.Lines, " "))
		out = append(out, Record{
			Entity:      e.Name,
			RequestType: requestType,
			Decision:    d,
			Amount:      amt,
			Date:        date,
		})
	}
	return out
}

// Table renders records with the Columns schema.
func Table(records []Record) *table.Table {
	t := &table.Table{Columns: append([]string(nil), Columns...)}
	for _, r := range records {
		amount := table.Null()
		if r.Amount.Valid() {
			amount = table.String(r.Amount.String())
		}
		t.Rows = append(t.Rows, []table.Cell{
			table.String(r.Entity),
			table.String(r.RequestType),
			table.String(r.Decision.String()),
			amount,
			table.String(r.Date),
		})
	}
	return t
}

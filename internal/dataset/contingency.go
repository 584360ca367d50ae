package dataset

import (
	"fmt"
	"strings"

	"github.com/dgallion1/fundgest/internal/chunker"
	"github.com/dgallion1/fundgest/internal/dates"
	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/extract"
)

// Agenda headings that open a section of funding requests, in document order.
var DefaultAgendaStarts = []string{"Contingency", "Finance Rule", "Rule Waiver", "Space Reservation"}

// Agenda headings that close the last request section.
var DefaultAgendaTerminators = []string{"Sponsorship", "Adjournment", "ABSA", "ABSA Appeals"}

// Contingency reads finance committee minutes and records each
// organization's decision per request section.
type Contingency struct {
	cfg chunker.Config
}

// NewContingency builds the processor over a section config.
func NewContingency(cfg chunker.Config) *Contingency { return &Contingency{cfg: cfg} }

// DefaultContingency uses the standard agenda headings.
func DefaultContingency() (*Contingency, error) {
	cfg, err := chunker.NewConfig(DefaultAgendaStarts, DefaultAgendaTerminators)
	if err != nil {
		return nil, err
	}
	return NewContingency(cfg), nil
}

func (*Contingency) Name() string { return "Contingency" }
func (*Contingency) Kind() Kind   { return KindText }

// Schema is the record table layout.
func (*Contingency) Schema() []string { return extract.Columns }

// Config returns the section config.
func (c *Contingency) Config() chunker.Config { return c.cfg }

func (c *Contingency) Process(ex Extractor, in Input) (Output, error) {
	out := Output{Name: "Agenda"}
	if d, ok := dates.FromName(in.Name); ok {
		out.Name = d.Format(dates.ISOLayout) + " Agenda"
	}
	lower := strings.ToLower(in.Name)
	if in.Name != "" && !strings.Contains(lower, "ficomm") && !strings.Contains(lower, "finance committee") {
		out.warn(fmt.Sprintf("file name %q does not look like finance committee minutes", in.Name))
	}

	date, err := dates.FromText(in.Text, dates.TextLayout)
	if err != nil {
		out.warn(fmt.Sprintf("meeting date not found, using %s", date))
	}
	out.Date = date

	res := ex.Chunks(in.Text, c.cfg)
	for _, s := range res.Skipped {
		out.Skipped = append(out.Skipped, s.Start)
	}
	if len(res.Chunks) == 0 {
		return Output{}, &errs.NotFoundError{What: "agenda section", Label: strings.Join(c.cfg.Starts(), "|"), Where: in.Name}
	}

	for _, ch := range res.Chunks {
		seg := extract.Segment(ch.Text)
		for _, l := range seg.Dropped {
			out.warn(fmt.Sprintf("%s: line before any organization dropped: %q", ch.Start, l))
		}
		for _, r := range extract.Records(seg, ch.Start, date) {
			if !extract.ValidateRecord(&r) {
				out.warn(fmt.Sprintf("%s: record for %q failed validation", ch.Start, r.Entity))
			}
			out.Records = append(out.Records, r)
		}
	}
	out.Table = extract.Table(out.Records)
	return out, nil
}

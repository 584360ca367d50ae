package dataset

import (
	"log/slog"

	"github.com/dgallion1/fundgest/internal/chunker"
	"github.com/dgallion1/fundgest/internal/config"
)

// NewDefault returns a registry holding the four built-in datasets, with any
// section overrides from the sections file applied.
func NewDefault(log *slog.Logger, sec config.Sections, opts ...Option) (*Registry, error) {
	absa := NewABSA()
	if o := sec.ABSA; o != nil {
		if len(o.Header) > 0 {
			absa.Header = o.Header
		}
		if len(o.NoHeader) > 0 {
			absa.NoHeader = o.NoHeader
		}
		if o.End != "" {
			absa.End = o.End
		}
	}

	fr := NewFR()
	if o := sec.FR; o != nil && o.Anchor != "" {
		fr.Anchor = o.Anchor
	}

	oasis := NewOASIS()
	if o := sec.OASIS; o != nil {
		if o.Anchor != "" {
			oasis.Anchor = o.Anchor
		}
		if len(o.Designations) > 0 {
			oasis.Designations = o.Designations
		}
	}

	starts, trailing, prefix := DefaultAgendaStarts, DefaultAgendaTerminators, chunker.DefaultEndPrefix
	if o := sec.Agenda; o != nil {
		starts = o.Starts
		if o.Terminators != nil {
			trailing = o.Terminators
		}
		if o.EndPrefix != "" {
			prefix = o.EndPrefix
		}
	}
	cfg, err := chunker.NewConfigWithPrefix(starts, trailing, prefix)
	if err != nil {
		return nil, err
	}

	r := NewRegistry(log, opts...)
	for _, p := range []Processor{absa, fr, oasis, NewContingency(cfg)} {
		if err := r.Register(p); err != nil {
			return nil, err
		}
	}
	return r, nil
}

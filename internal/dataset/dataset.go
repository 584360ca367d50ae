// Package dataset turns one exported document into normalized tables, one
// processor per dataset type.
package dataset

import (
	"github.com/dgallion1/fundgest/internal/chunker"
	"github.com/dgallion1/fundgest/internal/extract"
	"github.com/dgallion1/fundgest/internal/table"
)

// Kind says which input a processor reads.
type Kind string

const (
	KindTable Kind = "table"
	KindText  Kind = "text"
)

// Input is one source document.
type Input struct {
	Name  string       // source file name
	Table *table.Table // raw rows for tabular datasets, no header promoted
	Text  string       // minutes text, or the companion text of an FR sheet
	Year  string       // academic year for registry exports, e.g. "2024-2025"

	// Existing is an earlier cleaned output the new one extends. Only OASIS
	// reads it.
	Existing *table.Table
}

// Output is one normalized table produced from an Input.
type Output struct {
	Dataset  string           `json:"dataset"`
	Name     string           `json:"name"`
	Date     string           `json:"date,omitempty"`
	Table    *table.Table     `json:"-"`
	Records  []extract.Record `json:"-"`
	Skipped  []string         `json:"skipped,omitempty"`
	Warnings []string         `json:"warnings,omitempty"`
}

func (o *Output) warn(msg string) { o.Warnings = append(o.Warnings, msg) }

// Extractor is the pair of boundary extractors every processor slices its
// input with.
type Extractor interface {
	Section(t *table.Table, q table.SectionQuery) (*table.Table, error)
	Chunks(doc string, cfg chunker.Config) chunker.Result
}

// Shared is the Extractor backed by table.Section and chunker.Extract.
type Shared struct{}

func (Shared) Section(t *table.Table, q table.SectionQuery) (*table.Table, error) {
	return t.Section(q)
}

func (Shared) Chunks(doc string, cfg chunker.Config) chunker.Result {
	return chunker.Extract(doc, cfg)
}

// Processor converts one dataset type.
type Processor interface {
	Name() string
	Kind() Kind
	Process(ex Extractor, in Input) (Output, error)
}

// Schemer is implemented by processors whose outputs always lead with a
// fixed set of columns. The registry rejects outputs that do not.
type Schemer interface {
	Schema() []string
}

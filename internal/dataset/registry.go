package dataset

import (
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"

	"github.com/dgallion1/fundgest/internal/errs"
)

// Registry maps dataset names to processors. It is built once at startup.
type Registry struct {
	log   *slog.Logger
	ex    Extractor
	procs map[string]Processor
}

// Option configures a Registry.
type Option func(*Registry)

// WithExtractor replaces the shared extractor, e.g. with a recording fake.
func WithExtractor(ex Extractor) Option {
	return func(r *Registry) { r.ex = ex }
}

func NewRegistry(log *slog.Logger, opts ...Option) *Registry {
	r := &Registry{
		log:   log,
		ex:    Shared{},
		procs: make(map[string]Processor),
	}
	for _, o := range opts {
		o(r)
	}
	return r
}

func key(name string) string { return strings.ToLower(strings.TrimSpace(name)) }

// Register adds a processor. Names are case-insensitive and unique.
func (r *Registry) Register(p Processor) error {
	k := key(p.Name())
	if k == "" {
		return &errs.ValidationError{Field: "dataset name", Reason: "empty"}
	}
	if _, dup := r.procs[k]; dup {
		return &errs.ValidationError{Field: "dataset name", Reason: fmt.Sprintf("%q registered twice", p.Name())}
	}
	r.procs[k] = p
	return nil
}

// Lookup finds a processor by name.
func (r *Registry) Lookup(name string) (Processor, bool) {
	p, ok := r.procs[key(name)]
	return p, ok
}

// Processors returns every processor sorted by name.
func (r *Registry) Processors() []Processor {
	out := make([]Processor, 0, len(r.procs))
	for _, p := range r.procs {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name() < out[j].Name() })
	return out
}

// ProcessOne runs the named processor over a single input.
func (r *Registry) ProcessOne(name string, in Input) (Output, error) {
	p, ok := r.Lookup(name)
	if !ok {
		return Output{}, &errs.NotFoundError{What: "dataset", Label: name}
	}
	log := r.log.With("dataset", p.Name(), "input", in.Name)

	out, err := p.Process(r.ex, in)
	if err != nil {
		log.Error("processing failed", "error", err)
		return Output{}, fmt.Errorf("%s %s: %w", p.Name(), in.Name, err)
	}
	if err := checkSchema(p, out); err != nil {
		log.Error("output failed schema check", "error", err)
		return Output{}, fmt.Errorf("%s %s: %w", p.Name(), in.Name, err)
	}
	out.Dataset = p.Name()
	for _, s := range out.Skipped {
		log.Warn("section skipped", "section", s)
	}
	for _, w := range out.Warnings {
		log.Warn(w)
	}
	log.Info("processed", "output", out.Name, "rows", out.Table.Len(), "skipped", len(out.Skipped))
	return out, nil
}

// ProcessAll runs the named processor over each input in order. Failed
// inputs are reported in the joined error; the rest still produce output.
func (r *Registry) ProcessAll(name string, ins []Input) ([]Output, error) {
	if _, ok := r.Lookup(name); !ok {
		return nil, &errs.NotFoundError{What: "dataset", Label: name}
	}
	var (
		outs []Output
		errL []error
	)
	for _, in := range ins {
		out, err := r.ProcessOne(name, in)
		if err != nil {
			errL = append(errL, err)
			continue
		}
		outs = append(outs, out)
	}
	return outs, errors.Join(errL...)
}

func checkSchema(p Processor, out Output) error {
	s, ok := p.(Schemer)
	if !ok || out.Table == nil {
		return nil
	}
	want, got := s.Schema(), out.Table.Columns
	for i, c := range want {
		if i >= len(got) || got[i] != c {
			return &errs.ValidationError{Field: "output columns", Reason: fmt.Sprintf("want %v first, got %v", want, got)}
		}
	}
	return nil
}

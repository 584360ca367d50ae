package chunker

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dgallion1/fundgest/internal/errs"
)

// DefaultEndPrefix is the numbering marker that precedes agenda headings,
// e.g. the "4 " in "4 Sponsorship".
const DefaultEndPrefix = `\d+\s`

// Section is one start keyword and the keywords that terminate it.
type Section struct {
	Start string
	Ends  []string
}

type compiled struct {
	Section
	pattern *regexp.Regexp // start keyword through nearest end
	present *regexp.Regexp // start keyword behind a numbering marker
}

// Config is an ordered set of sections. It is immutable once built; build it
// once per dataset type with NewConfig.
type Config struct {
	sections  []compiled
	endPrefix string
}

// NewConfig builds a config from ordered start keywords. Each start ends at
// itself, at every later start, or at any of the trailing terminators, so
// an earlier section never swallows a later one.
func NewConfig(starts, trailing []string) (Config, error) {
	return NewConfigWithPrefix(starts, trailing, DefaultEndPrefix)
}

// NewConfigWithPrefix is NewConfig with a custom end prefix pattern.
func NewConfigWithPrefix(starts, trailing []string, endPrefix string) (Config, error) {
	if len(starts) == 0 {
		return Config{}, &errs.ValidationError{Field: "starts", Reason: "empty"}
	}
	if _, err := regexp.Compile(endPrefix); err != nil {
		return Config{}, &errs.ValidationError{Field: "end prefix", Reason: err.Error()}
	}
	seen := make(map[string]bool, len(starts))
	for _, s := range starts {
		if strings.TrimSpace(s) == "" {
			return Config{}, &errs.ValidationError{Field: "starts", Reason: "empty keyword"}
		}
		if seen[s] {
			return Config{}, &errs.ValidationError{Field: "starts", Reason: fmt.Sprintf("duplicate %q", s)}
		}
		seen[s] = true
	}
	for _, e := range trailing {
		if strings.TrimSpace(e) == "" {
			return Config{}, &errs.ValidationError{Field: "ends", Reason: "empty keyword"}
		}
	}

	cfg := Config{endPrefix: endPrefix}
	for i, s := range starts {
		ends := append([]string{}, starts[i:]...)
		for _, e := range trailing {
			if !seen[e] {
				ends = append(ends, e)
			}
		}
		re, err := BuildPattern([]string{s}, ends, endPrefix)
		if err != nil {
			return Config{}, err
		}
		cfg.sections = append(cfg.sections, compiled{
			Section: Section{Start: s, Ends: ends},
			pattern: re,
			present: regexp.MustCompile(endPrefix + regexp.QuoteMeta(s)),
		})
	}
	return cfg, nil
}

// Sections returns the configured sections in order.
func (c Config) Sections() []Section {
	out := make([]Section, len(c.sections))
	for i, s := range c.sections {
		out[i] = Section{Start: s.Start, Ends: append([]string(nil), s.Ends...)}
	}
	return out
}

// Starts returns the start keywords in order.
func (c Config) Starts() []string {
	out := make([]string, len(c.sections))
	for i, s := range c.sections {
		out[i] = s.Start
	}
	return out
}

// EndPrefix returns the prefix pattern placed before every end keyword.
func (c Config) EndPrefix() string { return c.endPrefix }

// BuildPattern compiles a lazy match from any start keyword to the nearest
// following end keyword. Each end keyword is preceded by endPrefix so that
// the numbering in front of the next heading is consumed with it. Group 1 is
// the chunk body with both keywords excluded.
func BuildPattern(starts, ends []string, endPrefix string) (*regexp.Regexp, error) {
	if len(starts) == 0 {
		return nil, &errs.ValidationError{Field: "starts", Reason: "empty"}
	}
	if len(ends) == 0 {
		return nil, &errs.ValidationError{Field: "ends", Reason: "empty"}
	}
	var b strings.Builder
	b.WriteString("(?:")
	for i, s := range starts {
		if s == "" {
			return nil, &errs.ValidationError{Field: "starts", Reason: "empty keyword"}
		}
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(regexp.QuoteMeta(s))
	}
	b.WriteString(`)\s*?([\s\S]*?)(?:`)
	for i, e := range ends {
		if e == "" {
			return nil, &errs.ValidationError{Field: "ends", Reason: "empty keyword"}
		}
		if i > 0 {
			b.WriteByte('|')
		}
		b.WriteString(endPrefix)
		b.WriteString(regexp.QuoteMeta(e))
	}
	b.WriteByte(')')
	re, err := regexp.Compile(b.String())
	if err != nil {
		return nil, &errs.ValidationError{Field: "pattern", Reason: err.Error()}
	}
	return re, nil
}

// Chunk is the text of one section.
type Chunk struct {
	Start string // start keyword; becomes the record's request type
	Text  string // lines after the heading line, up to the end boundary
	Index int    // position among the chunks found in the document
}

// Skip names a configured section that produced no chunk.
type Skip struct {
	Start string
	Err   error
}

// Result holds the chunks found in one document.
type Result struct {
	Chunks  []Chunk
	Skipped []Skip
}

var (
	listMarkerRe = regexp.MustCompile(`(\d+)\.(\s)`)
	parenDollar  = regexp.MustCompile(`\(\$?\d+,?\d*\.?\d*\)`)
)

// Normalize drops the period from numbered list markers ("1. " becomes
// "1 ") and leaves decimals such as "$43.72" alone.
func Normalize(doc string) string {
	doc = strings.ReplaceAll(doc, "\r\n", "\n")
	return listMarkerRe.ReplaceAllString(doc, "${1}${2}")
}

// Clean strips parenthesized dollar figures such as "($1,200)" from a body.
func Clean(body string) string {
	return parenDollar.ReplaceAllString(body, "")
}

// Extract walks every configured start in order and returns the chunk for
// each one present in doc. A start is present when it appears behind a
// numbering marker; absent starts, and starts with no end boundary after
// them, are reported in Skipped.
func Extract(doc string, cfg Config) Result {
	doc = Normalize(doc)
	var res Result
	for _, s := range cfg.sections {
		loc := s.present.FindStringIndex(doc)
		if loc == nil {
			res.Skipped = append(res.Skipped, Skip{
				Start: s.Start,
				Err:   &errs.NotFoundError{What: "start keyword", Label: s.Start},
			})
			continue
		}
		// Anchor on the numbered heading, not on an earlier mention in prose.
		from := loc[1] - len(s.Start)
		m := s.pattern.FindStringSubmatch(doc[from:])
		if m == nil {
			res.Skipped = append(res.Skipped, Skip{
				Start: s.Start,
				Err:   &errs.NotFoundError{What: "end keyword", Label: strings.Join(s.Ends, "|"), Where: s.Start},
			})
			continue
		}
		res.Chunks = append(res.Chunks, Chunk{
			Start: s.Start,
			Text:  afterHeading(Clean(m[1])),
			Index: len(res.Chunks),
		})
	}
	return res
}

// afterHeading drops the rest of the heading line, e.g. the " Funding" of
// "2 Contingency Funding".
func afterHeading(body string) string {
	i := strings.IndexByte(body, '\n')
	if i < 0 {
		return ""
	}
	return body[i+1:]
}

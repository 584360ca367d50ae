package extract

import (
	"regexp"
	"strings"
)

// ValidateRecord reports whether a record is fit to publish: it has a name
// and a request type, and its amount agrees with its decision.
func ValidateRecord(r *Record) bool {
	if r == nil {
		return false
	}
	name := strings.TrimSpace(r.Entity)
	if name == "" || len(name) > 300 {
		return false
	}
	if strings.TrimSpace(r.RequestType) == "" {
		return false
	}
	if _, ok := decisionLabels[r.Decision]; !ok {
		return false
	}
	switch r.Decision {
	case Approved, PartiallyApproved:
		return r.Amount.Valid() && !r.Amount.Value.Decimal.IsNegative()
	case Tabled, DeniedOrTabledIndefinitely:
		return r.Amount.Valid() && r.Amount.Value.Decimal.IsZero()
	default:
		return !r.Amount.Valid()
	}
}

var (
	slugStrip = regexp.MustCompile(`[^a-z0-9-]`)
	slugDash  = regexp.MustCompile(`-+`)
)

// Slugify converts a string to a URL/path-safe slug.
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = slugStrip.ReplaceAllString(s, "-")
	s = slugDash.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if len(s) > 50 {
		s = s[:50]
	}
	return s
}

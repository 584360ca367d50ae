package extract

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// Decision is the committee outcome for one organization.
type Decision int

const (
	Unparseable Decision = iota
	Approved
	PartiallyApproved
	ApprovedNoAmount
	Tabled
	DeniedOrTabledIndefinitely
	NoRecord
)

var decisionLabels = map[Decision]string{
	Approved:                   "Approved",
	PartiallyApproved:          "Partially Approved",
	ApprovedNoAmount:           "Approved but dollar amount not listed",
	Tabled:                     "Tabled",
	DeniedOrTabledIndefinitely: "Denied or Tabled Indefinitely",
	NoRecord:                   "No record on input doc",
	Unparseable:                "ERROR could not find conclusive motion",
}

// Decisions lists every decision in display order.
var Decisions = []Decision{
	Approved, PartiallyApproved, ApprovedNoAmount, Tabled,
	DeniedOrTabledIndefinitely, NoRecord, Unparseable,
}

func (d Decision) String() string {
	if s, ok := decisionLabels[d]; ok {
		return s
	}
	return fmt.Sprintf("Decision(%d)", int(d))
}

// MarshalText renders the decision label.
func (d Decision) MarshalText() ([]byte, error) { return []byte(d.String()), nil }

// UnmarshalText accepts a decision label.
func (d *Decision) UnmarshalText(b []byte) error {
	v, ok := ParseDecision(string(b))
	if !ok {
		return fmt.Errorf("unknown decision %q", string(b))
	}
	*d = v
	return nil
}

// ParseDecision maps a label back to its decision. The historical spelling
// "Indefinetly" is accepted.
func ParseDecision(s string) (Decision, bool) {
	s = strings.TrimSpace(s)
	if strings.EqualFold(s, "Denied or Tabled Indefinetly") {
		return DeniedOrTabledIndefinitely, true
	}
	for d, label := range decisionLabels {
		if strings.EqualFold(s, label) {
			return d, true
		}
	}
	return Unparseable, false
}

// Amount is a nullable dollar figure. Raw keeps the token as written.
type Amount struct {
	Value decimal.NullDecimal
	Raw   string
}

// NullAmount is the absent amount.
var NullAmount = Amount{}

// ZeroAmount is the amount recorded for tabled and denied requests.
var ZeroAmount = Amount{Value: decimal.NullDecimal{Decimal: decimal.Zero, Valid: true}, Raw: "0"}

// ParseAmount parses a dollar token such as "1,250.50".
func ParseAmount(raw string) (Amount, error) {
	v, err := decimal.NewFromString(strings.ReplaceAll(strings.TrimPrefix(strings.TrimSpace(raw), "$"), ",", ""))
	if err != nil {
		return NullAmount, err
	}
	return Amount{Value: decimal.NullDecimal{Decimal: v, Valid: true}, Raw: raw}, nil
}

// Valid reports whether the amount is present.
func (a Amount) Valid() bool { return a.Value.Valid }

// String renders the amount with thousands separators removed and the
// written precision kept. The null amount renders empty.
func (a Amount) String() string {
	if !a.Value.Valid {
		return ""
	}
	if a.Raw != "" {
		return strings.ReplaceAll(strings.TrimPrefix(a.Raw, "$"), ",", "")
	}
	return a.Value.Decimal.String()
}

// Equal compares values; the raw token is ignored.
func (a Amount) Equal(b Amount) bool {
	if a.Value.Valid != b.Value.Valid {
		return false
	}
	return !a.Value.Valid || a.Value.Decimal.Equal(b.Value.Decimal)
}

// amountToken takes every comma group, so a malformed "1,2500" keeps its
// magnitude.
const amountToken = `\$?(\d+(?:,\d+)*(?:\.\d+)?)`

var (
	deniedRe   = regexp.MustCompile(`(?i)tabled?\s+indefin(?:itely|etely|etly)|deny|denied`)
	tabledRe   = regexp.MustCompile(`(?i)tabled?\s+(?:until|for|to)`)
	approveRe  = regexp.MustCompile(`(?i)approve`)
	partialRe  = regexp.MustCompile(`(?i)partially\s+approved?\s+(?:for\s+)?` + amountToken)
	approvalRe = regexp.MustCompile(`(?i)approved?\s+(?:for\s+)?` + amountToken)
)

// Classify resolves an organization's joined motion text to a decision and
// amount. The first matching rule wins, so denial and tabling language
// outrank approval when a block mixes them. Only the first dollar figure in
// the matched phrase is used.
func Classify(text string) (Decision, Amount) {
	switch {
	case deniedRe.MatchString(text):
		return DeniedOrTabledIndefinitely, ZeroAmount
	case tabledRe.MatchString(text):
		return Tabled, ZeroAmount
	case approveRe.MatchString(text):
		if m := partialRe.FindStringSubmatch(text); m != nil {
			if a, err := ParseAmount(m[1]); err == nil {
				return PartiallyApproved, a
			}
		}
		if m := approvalRe.FindStringSubmatch(text); m != nil {
			if a, err := ParseAmount(m[1]); err == nil {
				return Approved, a
			}
		}
		return ApprovedNoAmount, NullAmount
	case strings.TrimSpace(text) == "":
		return NoRecord, NullAmount
	}
	return Unparseable, NullAmount
}

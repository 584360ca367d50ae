// Package dates finds the meeting date in minutes and spreadsheet exports.
package dates

import (
	"errors"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/dgallion1/fundgest/internal/errs"
	"github.com/dgallion1/fundgest/internal/table"
)

const (
	// TextSentinel is returned for free text with no date token.
	TextSentinel = "00/00/0000"
	// TableSentinel is returned for tables with no date token.
	TableSentinel = "undated"

	// TextLayout renders agenda dates.
	TextLayout = "01/02/2006"
	// ISOLayout renders dates that end up in file names.
	ISOLayout = "2006-01-02"
)

// ErrNoDate is wrapped in the ParseError returned when no token is found.
var ErrNoDate = errors.New("no date token")

var months = map[string]time.Month{
	"jan": time.January, "feb": time.February, "mar": time.March,
	"apr": time.April, "may": time.May, "jun": time.June,
	"jul": time.July, "aug": time.August, "sep": time.September,
	"oct": time.October, "nov": time.November, "dec": time.December,
}

// One alternation keeps the search in document order across all shapes.
var tokenRe = regexp.MustCompile(`(?i)` +
	`\b(jan(?:uary)?|feb(?:ruary)?|mar(?:ch)?|apr(?:il)?|may|june?|july?|aug(?:ust)?|sep(?:t(?:ember)?)?|oct(?:ober)?|nov(?:ember)?|dec(?:ember)?)\.?\s+(\d{1,2})(?:st|nd|rd|th)?,\s*(\d{4})\b` +
	`|\b(\d{1,2})/(\d{1,2})/(\d{4})\b` +
	`|\b(\d{4})-(\d{2})-(\d{2})\b`)

// Find returns the first parseable date token in text.
func Find(text string) (time.Time, bool) {
	_, t, ok := Token(text)
	return t, ok
}

// Token returns the first parseable date token in text as written, along
// with its value.
func Token(text string) (string, time.Time, bool) {
	for _, m := range tokenRe.FindAllStringSubmatch(text, -1) {
		var y, mo, d int
		switch {
		case m[1] != "":
			mo = int(months[strings.ToLower(m[1][:3])])
			d, _ = strconv.Atoi(m[2])
			y, _ = strconv.Atoi(m[3])
		case m[4] != "":
			mo, _ = strconv.Atoi(m[4])
			d, _ = strconv.Atoi(m[5])
			y, _ = strconv.Atoi(m[6])
		default:
			y, _ = strconv.Atoi(m[7])
			mo, _ = strconv.Atoi(m[8])
			d, _ = strconv.Atoi(m[9])
		}
		if t, ok := valid(y, mo, d); ok {
			return m[0], t, true
		}
	}
	return "", time.Time{}, false
}

func valid(y, mo, d int) (time.Time, bool) {
	if mo < 1 || mo > 12 || d < 1 {
		return time.Time{}, false
	}
	t := time.Date(y, time.Month(mo), d, 0, 0, 0, 0, time.UTC)
	if t.Day() != d || int(t.Month()) != mo {
		return time.Time{}, false
	}
	return t, true
}

// FromText renders the first date in text with layout. When none is found
// it returns TextSentinel and a *errs.ParseError the caller should log; the
// returned string is always usable.
func FromText(text, layout string) (string, error) {
	if t, ok := Find(text); ok {
		return t.Format(layout), nil
	}
	return TextSentinel, &errs.ParseError{Input: snippet(text), Err: ErrNoDate}
}

// FromRows searches the first n rows of t, header included, and renders the
// first date with layout. Misses return TableSentinel and a soft error.
func FromRows(t *table.Table, n int, layout string) (string, error) {
	text := RowsText(t, n)
	if d, ok := Find(text); ok {
		return d.Format(layout), nil
	}
	return TableSentinel, &errs.ParseError{Input: snippet(text), Err: ErrNoDate}
}

// RowsText joins the header and the non-null cells of the first n rows of t
// into one searchable line.
func RowsText(t *table.Table, n int) string {
	var b strings.Builder
	b.WriteString(strings.Join(t.Columns, " "))
	for i := 0; i < n && i < t.Len(); i++ {
		for _, c := range t.Rows[i] {
			if c.Valid {
				b.WriteByte(' ')
				b.WriteString(c.Text)
			}
		}
	}
	return b.String()
}

// FromName pulls an ISO date out of a file name such as
// "2025-03-03 minutes.txt".
func FromName(name string) (time.Time, bool) {
	m := isoRe.FindStringSubmatch(name)
	if m == nil {
		return time.Time{}, false
	}
	y, _ := strconv.Atoi(m[1])
	mo, _ := strconv.Atoi(m[2])
	d, _ := strconv.Atoi(m[3])
	return valid(y, mo, d)
}

var isoRe = regexp.MustCompile(`(\d{4})-(\d{2})-(\d{2})`)

func snippet(s string) string {
	s = strings.TrimSpace(s)
	if len(s) > 40 {
		return s[:40] + "..."
	}
	return s
}

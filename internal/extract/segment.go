package extract

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
)

// Entity is one organization inside a chunk and the motion lines recorded
// under it.
type Entity struct {
	Name  string
	Lines []string
}

// Segmentation is the ordered result of Segment.
type Segmentation struct {
	Entities []Entity
	// Dropped holds narrative lines seen before any organization.
	Dropped []string
}

var markerRe = regexp.MustCompile(`^\s*\d+\s+`)

// reserved verbs open narrative lines, never names.
var reserved = []string{"Motion", "Seconded"}

// Segment groups a chunk's lines under the organization they follow.
//
// Only numbered lines take part. A numbered line is an organization name
// when it does not start with a reserved verb and is made only of name
// characters; any other numbered line is a motion line of the current
// organization. Unnumbered lines are commentary and are ignored. A repeated
// name opens a new entity called "<name> (k)".
func Segment(text string) Segmentation {
	var lines []string
	for _, raw := range strings.Split(text, "\n") {
		raw = strings.TrimRightFunc(raw, unicode.IsSpace)
		l, numbered := stripMarkers(raw)
		l = strings.TrimSpace(l)
		if l == "" || !numbered {
			continue
		}
		lines = append(lines, l)
	}

	names := make(map[string]bool)
	for _, l := range lines {
		if isName(l) {
			names[l] = true
		}
	}

	var seg Segmentation
	index := make(map[string]int) // display name -> position in Entities
	repeats := make(map[string]int)
	cur := -1
	for _, l := range lines {
		if names[l] {
			name := CleanName(l)
			display := name
			if _, ok := index[display]; ok {
				for {
					repeats[name]++
					display = fmt.Sprintf("%s (%d)", name, repeats[name])
					if _, taken := index[display]; !taken {
						break
					}
				}
			}
			index[display] = len(seg.Entities)
			seg.Entities = append(seg.Entities, Entity{Name: display})
			cur = index[display]
			continue
		}
		if cur < 0 {
			seg.Dropped = append(seg.Dropped, l)
			continue
		}
		seg.Entities[cur].Lines = append(seg.Entities[cur].Lines, l)
	}
	return seg
}

// stripMarkers removes the leading numbering marker. Further markers are
// removed only when a reserved verb follows them, so nested motions such as
// "2   3 Motion" collapse to "Motion" while "1 100 Black Men" keeps its
// name.
func stripMarkers(s string) (string, bool) {
	loc := markerRe.FindStringIndex(s)
	if loc == nil {
		return s, false
	}
	s = s[loc[1]:]
	for {
		loc = markerRe.FindStringIndex(s)
		if loc == nil || !reservedPrefix(s[loc[1]:]) {
			return s, true
		}
		s = s[loc[1]:]
	}
}

func reservedPrefix(s string) bool {
	for _, r := range reserved {
		if strings.HasPrefix(s, r) {
			return true
		}
	}
	return false
}

func isName(s string) bool {
	if reservedPrefix(s) {
		return false
	}
	for _, r := range s {
		if !nameRune(r) {
			return false
		}
	}
	return true
}

func nameRune(r rune) bool {
	if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.IsSpace(r) {
		return true
	}
	return strings.ContainsRune(`-_*&%$+#@!(),'’"[].`, r)
}

var trailingComma = regexp.MustCompile(`,\s*$`)

// CleanName trims an organization name and drops asterisks and trailing
// commas.
func CleanName(s string) string {
	s = strings.ReplaceAll(s, "*", "")
	s = trailingComma.ReplaceAllString(s, "")
	return strings.TrimSpace(s)
}

package label

import (
	"regexp"
	"strings"
)

var exhibitPattern = regexp.MustCompile(`(?i)^exhibit\s+([a-z]{1,2})(-[0-9]+)?\b`)

// Exhibit is a parsed "EXHIBIT X" marker
type Exhibit struct {
	Letter string // Upper-cased, including any "-n" suffix
	Title  string
}

// ParseExhibit extracts a leading exhibit marker such as "EXHIBIT C-1 Franchise Agreement".
// Two-letter designations must repeat the same letter ("AA").
func ParseExhibit(text string) (Exhibit, bool) {
	s := Normalize(text)
	m := exhibitPattern.FindStringSubmatchIndex(s)
	if m == nil {
		return Exhibit{}, false
	}

	letter := strings.ToUpper(s[m[2]:m[3]])
	if len(letter) == 2 && letter[0] != letter[1] {
		return Exhibit{}, false
	}
	if m[4] >= 0 {
		letter += s[m[4]:m[5]]
	}

	return Exhibit{
		Letter: letter,
		Title:  strings.Trim(s[m[1]:], separators),
	}, true
}

// Package label parses FDD header labels: "Item 7", "ITEM XII:", a bare
// leading number, and lettered exhibit markers.
package label

import (
	"regexp"
	"strconv"
	"strings"
)

const separators = " \t:.-–—"

var (
	itemLabelPattern = regexp.MustCompile(`(?i)^item\s*[:.\-\x{2013}\x{2014}]?\s*([0-9]{1,3}|[ivxlc]+)\b`)
	bareItemPattern  = regexp.MustCompile(`(?i)^item\s*[:.]?$`)
	leadingNumber    = regexp.MustCompile(`(?i)^([0-9]{1,3}|[ivxlc]+)\b`)
)

// Label is a parsed "Item N" prefix
type Label struct {
	Number int    // Parsed value; may be outside 1..23
	Raw    string // The matched label text, e.g. "ITEM 5"
	Rest   string // Remaining heading text with separators trimmed
}

// Parse extracts a leading "Item N" label from text.
// N may be Arabic or Roman; the label must start the text.
func Parse(text string) (Label, bool) {
	s := Normalize(text)
	m := itemLabelPattern.FindStringSubmatchIndex(s)
	if m == nil {
		return Label{}, false
	}

	n, ok := parseNumber(s[m[2]:m[3]])
	if !ok {
		return Label{}, false
	}

	return Label{
		Number: n,
		Raw:    s[m[0]:m[1]],
		Rest:   strings.Trim(s[m[1]:], separators),
	}, true
}

// ItemNumber returns the item number named by a leading label, if any
func ItemNumber(text string) (int, bool) {
	l, ok := Parse(text)
	if !ok {
		return 0, false
	}
	return l.Number, true
}

// StripLabel returns the heading text without its "Item N" label.
// Text without a label is returned normalized but otherwise unchanged.
func StripLabel(text string) string {
	if l, ok := Parse(text); ok {
		return l.Rest
	}
	return Normalize(text)
}

// IsBareItemWord reports whether text is only the word "Item"
func IsBareItemWord(text string) bool {
	return bareItemPattern.MatchString(Normalize(text))
}

// LeadingNumber parses a number at the start of text, as found in the node
// that follows a split "Item" header. It returns the number and any trailing
// title text.
func LeadingNumber(text string) (int, string, bool) {
	s := Normalize(text)
	m := leadingNumber.FindStringSubmatchIndex(s)
	if m == nil {
		return 0, "", false
	}
	n, ok := parseNumber(s[m[2]:m[3]])
	if !ok {
		return 0, "", false
	}
	return n, strings.Trim(s[m[1]:], separators), true
}

func parseNumber(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	return ParseRoman(s)
}

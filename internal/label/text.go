package label

import (
	"sort"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// stopwords carry no section identity and would otherwise make any short
// fragment a token subset of most titles.
var stopwords = map[string]bool{
	"a": true, "an": true, "and": true, "any": true, "the": true,
	"of": true, "on": true, "to": true, "in": true, "or": true, "for": true,
}

// Normalize applies NFKC, strips control characters and collapses whitespace
func Normalize(text string) string {
	return strings.Join(strings.Fields(clean(text)), " ")
}

// NormalizeBlock is Normalize for multi-line text: whitespace is collapsed
// within each line, blank lines are dropped and line breaks are kept.
func NormalizeBlock(text string) string {
	lines := strings.Split(clean(text), "\n")
	out := lines[:0]
	for _, line := range lines {
		if l := strings.Join(strings.Fields(line), " "); l != "" {
			out = append(out, l)
		}
	}
	return strings.Join(out, "\n")
}

func clean(text string) string {
	normed := norm.NFKC.String(text)
	normed = strings.ReplaceAll(normed, "\r\n", "\n")
	return strings.Map(func(r rune) rune {
		switch {
		case r == '\r':
			return '\n'
		case unicode.IsControl(r) && r != '\n' && r != '\t':
			return -1
		}
		return r
	}, normed)
}

// Tokens returns the lower-cased word tokens of text with punctuation and
// stopwords removed. Apostrophes are dropped so "Franchisee's" and
// "Franchisees" compare equal.
func Tokens(text string) []string {
	lowered := strings.ToLower(Normalize(text))
	cleaned := strings.Map(func(r rune) rune {
		switch {
		case r == '\'' || r == '’':
			return -1
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			return r
		default:
			return ' '
		}
	}, lowered)

	var out []string
	for _, tok := range strings.Fields(cleaned) {
		if !stopwords[tok] {
			out = append(out, tok)
		}
	}
	return out
}

// TokenSet returns the sorted distinct tokens of text
func TokenSet(text string) []string {
	seen := make(map[string]bool)
	var out []string
	for _, tok := range Tokens(text) {
		if !seen[tok] {
			seen[tok] = true
			out = append(out, tok)
		}
	}
	sort.Strings(out)
	return out
}

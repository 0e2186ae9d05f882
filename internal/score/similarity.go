package score

import (
	"strings"
	"unicode/utf8"

	"github.com/agnivade/levenshtein"

	"github.com/ppiankov/fddmap/internal/label"
)

// Similarity compares two texts on a 0-100 scale
type Similarity interface {
	Name() string
	Compare(a, b string) float64
}

// TokenSet is order- and duplication-insensitive fuzzy similarity.
// When one token set contains the other the score is 100.
type TokenSet struct{}

// NewTokenSet creates the default similarity strategy
func NewTokenSet() *TokenSet {
	return &TokenSet{}
}

// Name returns the strategy name
func (TokenSet) Name() string {
	return "token_set"
}

// Compare returns the token-set ratio of a and b
func (TokenSet) Compare(a, b string) float64 {
	ta, tb := label.TokenSet(a), label.TokenSet(b)
	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	inter, diffA, diffB := partition(ta, tb)
	if len(inter) > 0 && (len(diffA) == 0 || len(diffB) == 0) {
		return 100
	}

	t0 := strings.Join(inter, " ")
	t1 := strings.TrimSpace(t0 + " " + strings.Join(diffA, " "))
	t2 := strings.TrimSpace(t0 + " " + strings.Join(diffB, " "))

	best := ratio(t1, t2)
	if t0 != "" {
		if r := ratio(t0, t1); r > best {
			best = r
		}
		if r := ratio(t0, t2); r > best {
			best = r
		}
	}
	return best
}

// partition splits two sorted token sets into their intersection and differences
func partition(a, b []string) (inter, onlyA, onlyB []string) {
	i, j := 0, 0
	for i < len(a) && j < len(b) {
		switch {
		case a[i] == b[j]:
			inter = append(inter, a[i])
			i++
			j++
		case a[i] < b[j]:
			onlyA = append(onlyA, a[i])
			i++
		default:
			onlyB = append(onlyB, b[j])
			j++
		}
	}
	onlyA = append(onlyA, a[i:]...)
	onlyB = append(onlyB, b[j:]...)
	return inter, onlyA, onlyB
}

// ratio is the normalized edit-distance similarity of two strings
func ratio(a, b string) float64 {
	la, lb := utf8.RuneCountInString(a), utf8.RuneCountInString(b)
	maxLen := la
	if lb > maxLen {
		maxLen = lb
	}
	if maxLen == 0 {
		return 0
	}
	d := levenshtein.ComputeDistance(a, b)
	return 100 * (1 - float64(d)/float64(maxLen))
}

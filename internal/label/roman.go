package label

import "strings"

var romanValues = map[byte]int{
	'i': 1, 'v': 5, 'x': 10, 'l': 50, 'c': 100, 'd': 500, 'm': 1000,
}

// ParseRoman converts a Roman numeral (any case) to its value.
// Only canonical forms are accepted: "IIII" and "VX" are rejected.
func ParseRoman(s string) (int, bool) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return 0, false
	}

	total := 0
	for i := 0; i < len(s); i++ {
		v, ok := romanValues[s[i]]
		if !ok {
			return 0, false
		}
		if i+1 < len(s) {
			if next := romanValues[s[i+1]]; next > v {
				total -= v
				continue
			}
		}
		total += v
	}

	if total <= 0 || FormatRoman(total) != s {
		return 0, false
	}
	return total, true
}

// FormatRoman renders n (1..3999) as a lower-case Roman numeral
func FormatRoman(n int) string {
	if n <= 0 || n >= 4000 {
		return ""
	}
	values := []int{1000, 900, 500, 400, 100, 90, 50, 40, 10, 9, 5, 4, 1}
	symbols := []string{"m", "cm", "d", "cd", "c", "xc", "l", "xl", "x", "ix", "v", "iv", "i"}

	var b strings.Builder
	for i, v := range values {
		for n >= v {
			b.WriteString(symbols[i])
			n -= v
		}
	}
	return b.String()
}

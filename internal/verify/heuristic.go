package verify

import (
	"math"
	"strings"

	"github.com/ppiankov/fddmap/internal/label"
	"github.com/ppiankov/fddmap/internal/model"
)

const (
	// SourceHeuristic marks verdicts produced without a backend
	SourceHeuristic = "heuristic"

	heuristicCoverage   = 0.8
	heuristicConfidence = 80.0
)

// Heuristic judges a header against a page excerpt without a backend.
// The header is confirmed when it appears literally in the excerpt or when
// at least 80% of its tokens do.
func Heuristic(header, excerpt, reason string) *model.VerificationVerdict {
	v := &model.VerificationVerdict{
		Source: SourceHeuristic,
		Reason: reason,
	}

	h := strings.ToLower(label.Normalize(header))
	e := strings.ToLower(label.Normalize(excerpt))
	if h != "" && strings.Contains(e, h) {
		v.Verified = true
		v.Confidence = heuristicConfidence
		v.Rationale = "header text appears verbatim in page excerpt"
		return v
	}

	coverage := tokenCoverage(header, excerpt)
	if coverage >= heuristicCoverage {
		v.Verified = true
		v.Confidence = heuristicConfidence
		v.Rationale = "most header tokens appear in page excerpt"
		return v
	}

	v.Confidence = math.Round(coverage * 100)
	v.Rationale = "header text not found in page excerpt"
	return v
}

// tokenCoverage is the share of header tokens present in the excerpt
func tokenCoverage(header, excerpt string) float64 {
	tokens := label.TokenSet(header)
	if len(tokens) == 0 {
		return 0
	}
	present := make(map[string]bool)
	for _, tok := range label.Tokens(excerpt) {
		present[tok] = true
	}
	hits := 0
	for _, tok := range tokens {
		if present[tok] {
			hits++
		}
	}
	return float64(hits) / float64(len(tokens))
}

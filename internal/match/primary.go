// Package match assigns scored candidates to the 23 canonical items, recovers
// missed items by page-window search, and infers section boundaries.
package match

import (
	"math"

	"github.com/ppiankov/fddmap/internal/canon"
	"github.com/ppiankov/fddmap/internal/model"
	"github.com/ppiankov/fddmap/internal/score"
)

// Matcher performs threshold-gated greedy assignment of candidates to items
type Matcher struct {
	scorer    *score.Scorer
	threshold float64
	epsilon   float64
}

// NewMatcher creates a primary matcher
func NewMatcher(scorer *score.Scorer, threshold, epsilon float64) *Matcher {
	return &Matcher{
		scorer:    scorer,
		threshold: threshold,
		epsilon:   epsilon,
	}
}

// Assignment is the matcher's output: matches keyed by item number and the
// set of node ordinals they occupy.
type Assignment struct {
	Matches map[int]model.SectionMatch
	Claimed map[int]bool
}

// Match assigns at most one candidate to each item and each node to at most
// one item. The item with the strongest remaining candidate is assigned first.
func (m *Matcher) Match(candidates []model.Candidate) Assignment {
	byItem := make(map[int][]model.ScoredCandidate)
	for _, c := range candidates {
		for _, sc := range m.scorer.ScoreAll(c) {
			if sc.FinalScore >= m.threshold {
				byItem[sc.ItemNumber] = append(byItem[sc.ItemNumber], sc)
			}
		}
	}

	out := Assignment{
		Matches: make(map[int]model.SectionMatch),
		Claimed: make(map[int]bool),
	}

	for {
		bestItem := 0
		var best model.ScoredCandidate
		for item := 1; item <= canon.ItemCount; item++ {
			if _, done := out.Matches[item]; done {
				continue
			}
			sc, ok := m.bestUnclaimed(byItem[item], out.Claimed)
			if !ok {
				continue
			}
			if bestItem == 0 || better(sc, best, m.epsilon) {
				bestItem, best = item, sc
			}
		}
		if bestItem == 0 {
			return out
		}

		out.Matches[bestItem] = newMatch(best, model.MethodPrimary, score.Confidence(best.FinalScore))
		claim(out.Claimed, best.Candidate)
	}
}

func (m *Matcher) bestUnclaimed(scored []model.ScoredCandidate, claimed map[int]bool) (model.ScoredCandidate, bool) {
	var best model.ScoredCandidate
	found := false
	for _, sc := range scored {
		if isClaimed(claimed, sc.Candidate) {
			continue
		}
		if !found || better(sc, best, m.epsilon) {
			best, found = sc, true
		}
	}
	return best, found
}

// better reports whether a beats b. Final scores closer than epsilon are
// treated as tied and the higher full-text score wins; remaining ties go to
// the earlier node.
func better(a, b model.ScoredCandidate, epsilon float64) bool {
	if math.Abs(a.FinalScore-b.FinalScore) < epsilon {
		if a.FullScore != b.FullScore {
			return a.FullScore > b.FullScore
		}
		return a.Node.OrdinalIndex < b.Node.OrdinalIndex
	}
	return a.FinalScore > b.FinalScore
}

func isClaimed(claimed map[int]bool, c model.Candidate) bool {
	for _, idx := range c.Ordinals() {
		if claimed[idx] {
			return true
		}
	}
	return false
}

func claim(claimed map[int]bool, c model.Candidate) {
	for _, idx := range c.Ordinals() {
		claimed[idx] = true
	}
}

func newMatch(sc model.ScoredCandidate, method model.MatchMethod, confidence float64) model.SectionMatch {
	return model.SectionMatch{
		ItemNumber:     sc.ItemNumber,
		Title:          canon.Title(sc.ItemNumber),
		MatchedText:    sc.Node.Text,
		StartNodeIndex: sc.Node.OrdinalIndex,
		EndNodeIndex:   -1,
		StartPage:      sc.Node.PageNumber,
		Confidence:     confidence,
		Method:         method,
		Score:          sc.Breakdown(),
	}
}

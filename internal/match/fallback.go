package match

import (
	"strings"

	"github.com/ppiankov/fddmap/internal/canon"
	"github.com/ppiankov/fddmap/internal/model"
	"github.com/ppiankov/fddmap/internal/score"
)

// FallbackResolver searches the page window between matched neighbours for
// items the primary matcher could not place.
type FallbackResolver struct {
	scorer           *score.Scorer
	threshold        float64
	primaryThreshold float64
	epsilon          float64
	skipPages        map[int]bool
}

// NewFallbackResolver creates a resolver. Accepted matches get a confidence
// capped just below primaryThreshold.
func NewFallbackResolver(scorer *score.Scorer, threshold, primaryThreshold, epsilon float64, skipPages map[int]bool) *FallbackResolver {
	return &FallbackResolver{
		scorer:           scorer,
		threshold:        threshold,
		primaryThreshold: primaryThreshold,
		epsilon:          epsilon,
		skipPages:        skipPages,
	}
}

// Resolve fills unmatched items in ascending order, updating the assignment
// in place so later items see earlier fallback matches as neighbours.
// Returns the number of items recovered.
func (f *FallbackResolver) Resolve(nodes []model.LayoutNode, a Assignment) int {
	if len(nodes) == 0 {
		return 0
	}
	lastPage := nodes[len(nodes)-1].PageNumber
	pos := model.Positions(nodes)
	recovered := 0

	for item := 1; item <= canon.ItemCount; item++ {
		if _, ok := a.Matches[item]; ok {
			continue
		}

		// Window bounds are positions in nodes, not ordinals
		lowIdx, lowPage := -1, 1
		if lower, ok := nearest(a.Matches, item, -1); ok {
			lowIdx, lowPage = position(pos, lower.StartNodeIndex, -1), lower.StartPage
		}
		highIdx, highPage := len(nodes), lastPage
		if higher, ok := nearest(a.Matches, item, +1); ok {
			highIdx, highPage = position(pos, higher.StartNodeIndex, len(nodes)), higher.StartPage
		}

		best, ok := f.search(nodes, item, a.Claimed, lowIdx, highIdx, lowPage, highPage)
		if !ok {
			continue
		}

		a.Matches[item] = newMatch(best, model.MethodFallback, f.confidence(best.FinalScore))
		claim(a.Claimed, best.Candidate)
		recovered++
	}

	return recovered
}

func (f *FallbackResolver) search(nodes []model.LayoutNode, item int, claimed map[int]bool, lowIdx, highIdx, lowPage, highPage int) (model.ScoredCandidate, bool) {
	var best model.ScoredCandidate
	found := false

	for i := lowIdx + 1; i < highIdx && i < len(nodes); i++ {
		n := nodes[i]
		if n.PageNumber < lowPage || n.PageNumber > highPage {
			continue
		}
		if claimed[n.OrdinalIndex] || f.skipPages[n.PageNumber] || strings.TrimSpace(n.Text) == "" {
			continue
		}

		sc, ok := f.scorer.ScoreFor(model.Candidate{Node: n}, item)
		if !ok || sc.FinalScore < f.threshold {
			continue
		}
		if !found || better(sc, best, f.epsilon) {
			best, found = sc, true
		}
	}

	return best, found
}

// confidence keeps fallback matches between the two thresholds
func (f *FallbackResolver) confidence(final float64) float64 {
	ceiling := f.primaryThreshold - 1
	if ceiling < f.threshold {
		ceiling = f.threshold
	}
	c := score.Confidence(final)
	if c > ceiling {
		return ceiling
	}
	return c
}

func position(pos map[int]int, ordinal, missing int) int {
	if p, ok := pos[ordinal]; ok {
		return p
	}
	return missing
}

// nearest finds the closest matched item below (dir=-1) or above (dir=+1) item
func nearest(matches map[int]model.SectionMatch, item, dir int) (model.SectionMatch, bool) {
	for i := item + dir; i >= 1 && i <= canon.ItemCount; i += dir {
		if m, ok := matches[i]; ok {
			return m, true
		}
	}
	return model.SectionMatch{}, false
}

package extract

import (
	"strings"

	"github.com/ppiankov/fddmap/internal/label"
	"github.com/ppiankov/fddmap/internal/model"
)

const (
	exhibitHeadingConfidence = 95
	exhibitBodyConfidence    = 75
	// Body-text exhibit markers longer than this are cross-references, not headers
	exhibitBodyMaxWords = 12
)

// DetectExhibits finds lettered exhibit headers after node index `after`.
// Only the first occurrence of each letter is kept. End fields are left for
// the boundary resolver.
func DetectExhibits(nodes []model.LayoutNode, after int, skipPages map[int]bool) []model.ExhibitMatch {
	seen := make(map[string]bool)
	var out []model.ExhibitMatch

	for _, n := range nodes {
		if n.OrdinalIndex <= after || skipPages[n.PageNumber] {
			continue
		}
		ex, ok := label.ParseExhibit(n.Text)
		if !ok || seen[ex.Letter] {
			continue
		}

		heading := n.Kind == model.KindSectionHeading || n.Kind == model.KindTitle
		if !heading && len(strings.Fields(n.Text)) > exhibitBodyMaxWords {
			continue
		}

		seen[ex.Letter] = true
		m := model.ExhibitMatch{
			Letter:         ex.Letter,
			Title:          ex.Title,
			MatchedText:    label.Normalize(n.Text),
			StartNodeIndex: n.OrdinalIndex,
			EndNodeIndex:   -1,
			StartPage:      n.PageNumber,
			Confidence:     exhibitHeadingConfidence,
			Method:         model.MethodPrimary,
		}
		if !heading {
			m.Confidence = exhibitBodyConfidence
			m.Method = model.MethodFallback
		}
		out = append(out, m)
	}

	return out
}

package extract

import (
	"github.com/ppiankov/fddmap/internal/model"
)

// Filter selects nodes that may be section headers
type Filter struct {
	includeTitles bool
	skipPages     map[int]bool
}

// NewFilter creates a candidate filter. Nodes on skipPages (table-of-contents
// pages) are never candidates.
func NewFilter(includeTitles bool, skipPages map[int]bool) *Filter {
	return &Filter{
		includeTitles: includeTitles,
		skipPages:     skipPages,
	}
}

// Candidates returns heading nodes in document order, keeping their original
// ordinal indexes.
func (f *Filter) Candidates(nodes []model.LayoutNode) []model.Candidate {
	var out []model.Candidate
	for _, n := range nodes {
		if f.skipPages[n.PageNumber] {
			continue
		}
		if n.Kind == model.KindSectionHeading || (f.includeTitles && n.Kind == model.KindTitle) {
			out = append(out, model.Candidate{Node: n})
		}
	}
	return out
}

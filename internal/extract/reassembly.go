package extract

import (
	"fmt"
	"strings"

	"github.com/ppiankov/fddmap/internal/label"
	"github.com/ppiankov/fddmap/internal/model"
)

// lookahead is how many following nodes may hold the number and title of a
// split "Item" header.
const lookahead = 2

// Reassemble adds merged candidates for headers that the layout service split
// across nodes, e.g. "Item" / "12: Territory". For each bare "Item" candidate
// it appends a number-only merge ("Item 12") and, when title text follows, a
// number-and-title merge ("Item 12: Territory"). The split candidates are kept.
// Returns the extended candidate list and the number of merges added.
func Reassemble(nodes []model.LayoutNode, candidates []model.Candidate) ([]model.Candidate, int) {
	out := make([]model.Candidate, 0, len(candidates))
	merged := 0
	pos := model.Positions(nodes)

	for _, c := range candidates {
		out = append(out, c)
		if !label.IsBareItemWord(c.Node.Text) {
			continue
		}
		idx, ok := pos[c.Node.OrdinalIndex]
		if !ok {
			continue
		}
		extra := mergeSplitHeader(nodes, idx, c.Node)
		out = append(out, extra...)
		merged += len(extra)
	}

	return out, merged
}

// mergeSplitHeader builds the merges for the bare "Item" node at position idx
func mergeSplitHeader(nodes []model.LayoutNode, idx int, itemNode model.LayoutNode) []model.Candidate {
	next, ok := followingNode(nodes, idx, 1)
	if !ok {
		return nil
	}
	number, title, ok := label.LeadingNumber(next.Text)
	if !ok {
		return nil
	}

	ordinals := []int{itemNode.OrdinalIndex, next.OrdinalIndex}
	box := unionBox(itemNode, next)

	out := []model.Candidate{
		mergedCandidate(itemNode, fmt.Sprintf("Item %d", number), box, ordinals),
	}

	if title == "" {
		// Title may sit in the node after the number
		if third, ok := followingNode(nodes, idx, 2); ok && isTitleText(third.Text) {
			title = label.Normalize(third.Text)
			ordinals = append(ordinals, third.OrdinalIndex)
			box = unionBox(model.LayoutNode{BBox: box, PageNumber: itemNode.PageNumber}, third)
		}
	}
	if title != "" {
		out = append(out, mergedCandidate(itemNode, fmt.Sprintf("Item %d: %s", number, title), box, ordinals))
	}

	return out
}

// followingNode returns the node `offset` positions after position idx,
// within the lookahead window.
func followingNode(nodes []model.LayoutNode, idx, offset int) (model.LayoutNode, bool) {
	if offset > lookahead {
		return model.LayoutNode{}, false
	}
	pos := idx + offset
	if idx < 0 || pos >= len(nodes) {
		return model.LayoutNode{}, false
	}
	return nodes[pos], true
}

func isTitleText(text string) bool {
	s := strings.TrimSpace(text)
	if s == "" || label.IsBareItemWord(s) {
		return false
	}
	_, isLabel := label.ItemNumber(s)
	return !isLabel
}

func unionBox(a, b model.LayoutNode) model.BBox {
	if a.PageNumber != b.PageNumber {
		return a.BBox
	}
	return a.BBox.Union(b.BBox)
}

func mergedCandidate(itemNode model.LayoutNode, text string, box model.BBox, ordinals []int) model.Candidate {
	node := itemNode
	node.Text = text
	node.BBox = box
	from := make([]int, len(ordinals))
	copy(from, ordinals)
	return model.Candidate{Node: node, MergedFrom: from}
}

package match

import (
	"sort"

	"github.com/ppiankov/fddmap/internal/canon"
	"github.com/ppiankov/fddmap/internal/model"
)

// Sections expands an assignment into exactly 23 entries ordered by item
// number, with placeholders for unresolved items.
func Sections(a Assignment) []model.SectionMatch {
	out := make([]model.SectionMatch, 0, canon.ItemCount)
	for item := 1; item <= canon.ItemCount; item++ {
		if m, ok := a.Matches[item]; ok {
			out = append(out, m)
			continue
		}
		out = append(out, model.Placeholder(item, canon.Title(item)))
	}
	return out
}

type span struct {
	pos       int
	startNode int
	startPage int
	endNode   int
	endPage   int
}

// resolveSpans sets each span's end to the node just before the next span in
// document order. A successor on the same page keeps the end page on the
// start page. The final span runs to the last node of the document.
func resolveSpans(spans []span, nodes []model.LayoutNode) {
	if len(spans) == 0 || len(nodes) == 0 {
		return
	}
	sort.SliceStable(spans, func(i, j int) bool { return spans[i].startNode < spans[j].startNode })
	pos := model.Positions(nodes)
	last := nodes[len(nodes)-1]

	for k := range spans {
		if k == len(spans)-1 {
			spans[k].endNode = last.OrdinalIndex
			spans[k].endPage = last.PageNumber
			break
		}
		next := spans[k+1]
		spans[k].endNode = next.startNode - 1
		if p, ok := pos[next.startNode]; ok && p > 0 {
			spans[k].endNode = nodes[p-1].OrdinalIndex
		}
		if next.startPage == spans[k].startPage {
			spans[k].endPage = spans[k].startPage
		} else {
			spans[k].endPage = next.startPage - 1
		}
	}
}

// ResolveBoundaries fills end node and end page of every resolved section.
// Placeholders are left untouched. Only end fields are written.
func ResolveBoundaries(sections []model.SectionMatch, nodes []model.LayoutNode) {
	var spans []span
	for i, s := range sections {
		if s.IsResolved() {
			spans = append(spans, span{pos: i, startNode: s.StartNodeIndex, startPage: s.StartPage})
		}
	}
	resolveSpans(spans, nodes)
	for _, sp := range spans {
		sections[sp.pos].EndNodeIndex = sp.endNode
		sections[sp.pos].EndPage = sp.endPage
	}
}

// ResolveExhibitBoundaries applies the same end inference among exhibits
func ResolveExhibitBoundaries(exhibits []model.ExhibitMatch, nodes []model.LayoutNode) {
	spans := make([]span, 0, len(exhibits))
	for i, e := range exhibits {
		spans = append(spans, span{pos: i, startNode: e.StartNodeIndex, startPage: e.StartPage})
	}
	resolveSpans(spans, nodes)
	for _, sp := range spans {
		exhibits[sp.pos].EndNodeIndex = sp.endNode
		exhibits[sp.pos].EndPage = sp.endPage
	}
}

// Ordered returns the sections in document order. Placeholders follow their
// nearest lower resolved neighbour.
func Ordered(sections []model.SectionMatch) []model.SectionMatch {
	type keyed struct {
		m    model.SectionMatch
		node int
		tie  int
	}
	items := make([]keyed, 0, len(sections))
	anchor := -1
	for _, s := range sections {
		if s.IsResolved() {
			anchor = s.StartNodeIndex
			items = append(items, keyed{m: s, node: s.StartNodeIndex})
			continue
		}
		items = append(items, keyed{m: s, node: anchor, tie: s.ItemNumber})
	}
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].node != items[j].node {
			return items[i].node < items[j].node
		}
		return items[i].tie < items[j].tie
	})

	out := make([]model.SectionMatch, len(items))
	for i, k := range items {
		out[i] = k.m
	}
	return out
}

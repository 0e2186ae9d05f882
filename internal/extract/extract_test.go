package extract

import (
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/fddmap/internal/canon"
	"github.com/ppiankov/fddmap/internal/layout"
	"github.com/ppiankov/fddmap/internal/model"
)

func seq(nodes ...model.LayoutNode) []model.LayoutNode {
	for i := range nodes {
		nodes[i].OrdinalIndex = i
		if nodes[i].PageNumber == 0 {
			nodes[i].PageNumber = 1
		}
	}
	return nodes
}

func node(kind model.NodeKind, text string, page int) model.LayoutNode {
	return model.LayoutNode{Kind: kind, Text: text, PageNumber: page}
}

func TestFilter_Candidates(t *testing.T) {
	nodes := seq(
		node(model.KindTitle, "Franchise Disclosure Document", 1),
		node(model.KindSectionHeading, "Item 1 The Franchisor", 2),
		node(model.KindBody, "We are a corporation.", 2),
		node(model.KindSectionHeading, "Item 2 Business Experience", 3),
	)

	got := NewFilter(true, nil).Candidates(nodes)
	require.Len(t, got, 3)
	assert.Equal(t, 0, got[0].Node.OrdinalIndex)
	assert.Equal(t, 3, got[2].Node.OrdinalIndex)

	got = NewFilter(false, nil).Candidates(nodes)
	require.Len(t, got, 2)
	assert.Equal(t, "Item 1 The Franchisor", got[0].Node.Text)

	got = NewFilter(true, map[int]bool{2: true}).Candidates(nodes)
	require.Len(t, got, 2)
	assert.Equal(t, 3, got[1].Node.OrdinalIndex)
}

func TestFilter_ExactKindOnly(t *testing.T) {
	nodes := seq(node("Section-header", "Item 3 Litigation", 1))
	assert.Empty(t, NewFilter(true, nil).Candidates(nodes))
}

func TestReassemble_NumberAndTitleInOneNode(t *testing.T) {
	nodes := seq(
		model.LayoutNode{Kind: model.KindSectionHeading, Text: "Item", PageNumber: 4, BBox: model.BBox{Left: 200, Width: 40, PageWidth: 600}},
		model.LayoutNode{Kind: model.KindSectionHeading, Text: "12: Territory", PageNumber: 4, BBox: model.BBox{Left: 245, Width: 120, PageWidth: 600}},
		node(model.KindBody, "You will receive a protected area.", 4),
	)
	cands := NewFilter(true, nil).Candidates(nodes)

	out, merged := Reassemble(nodes, cands)
	assert.Equal(t, 2, merged)
	require.Len(t, out, 4)

	texts := []string{out[0].Node.Text, out[1].Node.Text, out[2].Node.Text, out[3].Node.Text}
	assert.Equal(t, []string{"Item", "Item 12", "Item 12: Territory", "12: Territory"}, texts)

	full := out[2]
	assert.Equal(t, 0, full.Node.OrdinalIndex)
	assert.Equal(t, 4, full.Node.PageNumber)
	assert.Equal(t, []int{0, 1}, full.MergedFrom)
	assert.Equal(t, []int{0, 1}, full.Ordinals())
	assert.Equal(t, 200.0, full.Node.BBox.Left)
	assert.Equal(t, 165.0, full.Node.BBox.Width)
}

func TestReassemble_TitleInThirdNode(t *testing.T) {
	nodes := seq(
		node(model.KindSectionHeading, "ITEM", 7),
		node(model.KindSectionHeading, "XII", 7),
		node(model.KindSectionHeading, "TERRITORY", 7),
	)
	out, merged := Reassemble(nodes, NewFilter(true, nil).Candidates(nodes))

	assert.Equal(t, 2, merged)
	var titles []string
	for _, c := range out {
		if len(c.MergedFrom) > 0 {
			titles = append(titles, c.Node.Text)
		}
	}
	assert.Equal(t, []string{"Item 12", "Item 12: TERRITORY"}, titles)
	assert.Equal(t, []int{0, 1, 2}, out[2].MergedFrom)
}

func TestReassemble_SparseOrdinals(t *testing.T) {
	nodes := []model.LayoutNode{
		{Kind: model.KindBody, Text: "Preamble", PageNumber: 6, OrdinalIndex: 700},
		{Kind: model.KindSectionHeading, Text: "Item", PageNumber: 7, OrdinalIndex: 710},
		{Kind: model.KindSectionHeading, Text: "12", PageNumber: 7, OrdinalIndex: 720},
		{Kind: model.KindSectionHeading, Text: "Territory", PageNumber: 7, OrdinalIndex: 730},
	}
	out, merged := Reassemble(nodes, NewFilter(true, nil).Candidates(nodes))

	require.Equal(t, 2, merged)
	assert.Equal(t, "Item 12", out[1].Node.Text)
	assert.Equal(t, 710, out[1].Node.OrdinalIndex)
	assert.Equal(t, []int{710, 720}, out[1].MergedFrom)
	assert.Equal(t, "Item 12: Territory", out[2].Node.Text)
	assert.Equal(t, []int{710, 720, 730}, out[2].MergedFrom)
}

func TestReassemble_NoNumberFollows(t *testing.T) {
	nodes := seq(
		node(model.KindSectionHeading, "Item", 1),
		node(model.KindBody, "Territory", 1),
	)
	out, merged := Reassemble(nodes, NewFilter(true, nil).Candidates(nodes))
	assert.Equal(t, 0, merged)
	assert.Len(t, out, 1)

	// Bare word at the end of the document
	nodes = seq(node(model.KindSectionHeading, "Item", 1))
	_, merged = Reassemble(nodes, NewFilter(true, nil).Candidates(nodes))
	assert.Equal(t, 0, merged)
}

func TestDetectTOCPages(t *testing.T) {
	var nodes []model.LayoutNode
	nodes = append(nodes, node(model.KindTitle, "TABLE OF CONTENTS", 2))
	for i := 1; i <= 12; i++ {
		nodes = append(nodes, node(model.KindBody, fmt.Sprintf("Item %d ........ %d", i, i+3), 3))
	}
	nodes = append(nodes, node(model.KindSectionHeading, "Item 1 The Franchisor", 4))
	nodes = append(nodes, node(model.KindBody, "Item 13\nItem 14\nItem 15\nItem 16\nItem 17\nItem 18\nItem 19\nItem 20\nItem 21\nItem 22\nItem 23", 5))
	nodes = seq(nodes...)

	toc := DetectTOCPages(nodes, 10)
	assert.Equal(t, []int{2, 3, 5}, SortedPages(toc))
	assert.False(t, toc[4])
}

func TestDetectTOCPages_MultiLineBlockAfterNormalize(t *testing.T) {
	var lines []string
	for _, item := range canon.Items() {
		lines = append(lines, fmt.Sprintf("Item %d   %s ....  %d", item.Number, item.Title, item.Number+2))
	}
	raw := []model.LayoutNode{
		{Kind: model.KindBody, Text: strings.Join(lines, "\r\n"), PageNumber: 1},
		{Kind: model.KindSectionHeading, Text: "Item 1 The Franchisor", PageNumber: 2},
	}

	doc, err := layout.Normalize("toc", "", raw)
	require.NoError(t, err)

	toc := DetectTOCPages(doc.Nodes, 10)
	assert.Equal(t, []int{1}, SortedPages(toc))
}

func TestDetectExhibits(t *testing.T) {
	nodes := seq(
		node(model.KindSectionHeading, "EXHIBIT A in the TOC", 2),
		node(model.KindSectionHeading, "Item 23 Receipts", 40),
		node(model.KindSectionHeading, "EXHIBIT A", 41),
		node(model.KindBody, "Financial statements are attached as Exhibit B to this disclosure document for your review and records.", 41),
		node(model.KindBody, "EXHIBIT B Franchise Agreement", 45),
		node(model.KindSectionHeading, "EXHIBIT A", 50),
		node(model.KindTitle, "Exhibit C-1: State Addenda", 60),
	)

	got := DetectExhibits(nodes, 1, map[int]bool{2: true})
	require.Len(t, got, 3)

	assert.Equal(t, "A", got[0].Letter)
	assert.Equal(t, 2, got[0].StartNodeIndex)
	assert.Equal(t, 41, got[0].StartPage)
	assert.Equal(t, 95.0, got[0].Confidence)
	assert.Equal(t, model.MethodPrimary, got[0].Method)

	assert.Equal(t, "B", got[1].Letter)
	assert.Equal(t, "Franchise Agreement", got[1].Title)
	assert.Equal(t, 75.0, got[1].Confidence)
	assert.Equal(t, model.MethodFallback, got[1].Method)

	assert.Equal(t, "C-1", got[2].Letter)
	assert.Equal(t, "State Addenda", got[2].Title)
}

package match

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/fddmap/internal/canon"
	"github.com/ppiankov/fddmap/internal/model"
)

// sequence returns count nodes with ordinals 0..count-1; the last one sits
// on lastPage
func sequence(count, lastPage int) []model.LayoutNode {
	nodes := make([]model.LayoutNode, count)
	for i := range nodes {
		nodes[i] = model.LayoutNode{OrdinalIndex: i, PageNumber: 1}
	}
	nodes[count-1].PageNumber = lastPage
	return nodes
}

func TestResolveBoundaries_SparseOrdinals(t *testing.T) {
	var nodes []model.LayoutNode
	for i := 0; i < 6; i++ {
		nodes = append(nodes, model.LayoutNode{OrdinalIndex: 100 + 10*i, PageNumber: 1 + i})
	}
	sections := []model.SectionMatch{
		{ItemNumber: 1, StartNodeIndex: 100, StartPage: 1},
		{ItemNumber: 2, StartNodeIndex: 130, StartPage: 4},
	}
	ResolveBoundaries(sections, nodes)

	assert.Equal(t, 120, sections[0].EndNodeIndex, "ends at the node before item 2")
	assert.Equal(t, 3, sections[0].EndPage)
	assert.Equal(t, 150, sections[1].EndNodeIndex)
	assert.Equal(t, 6, sections[1].EndPage)
}

func TestResolveBoundaries_Properties(t *testing.T) {
	nodes := fddNodes(nil)
	sections := run(nodes)
	last := nodes[len(nodes)-1]

	for i, s := range sections {
		assert.LessOrEqual(t, s.StartPage, s.EndPage, "item %d", s.ItemNumber)
		assert.LessOrEqual(t, s.StartNodeIndex, s.EndNodeIndex, "item %d", s.ItemNumber)
		if i+1 < len(sections) {
			next := sections[i+1]
			assert.Equal(t, next.StartNodeIndex-1, s.EndNodeIndex)
			assert.Equal(t, next.StartPage-1, s.EndPage)
		}
	}

	final := sections[canon.ItemCount-1]
	assert.Equal(t, last.OrdinalIndex, final.EndNodeIndex)
	assert.Equal(t, last.PageNumber, final.EndPage)
}

func TestResolveBoundaries_SamePageSuccessor(t *testing.T) {
	sections := []model.SectionMatch{
		{ItemNumber: 1, StartNodeIndex: 0, StartPage: 3, EndNodeIndex: -1},
		{ItemNumber: 2, StartNodeIndex: 4, StartPage: 3, EndNodeIndex: -1},
		model.Placeholder(3, "Litigation"),
		{ItemNumber: 4, StartNodeIndex: 9, StartPage: 6, EndNodeIndex: -1},
	}
	ResolveBoundaries(sections, sequence(21, 8))

	assert.Equal(t, 3, sections[0].EndNodeIndex)
	assert.Equal(t, 3, sections[0].EndPage)
	assert.Equal(t, 8, sections[1].EndNodeIndex)
	assert.Equal(t, 5, sections[1].EndPage)

	assert.Equal(t, -1, sections[2].EndNodeIndex)
	assert.Equal(t, 0, sections[2].EndPage)

	assert.Equal(t, 20, sections[3].EndNodeIndex)
	assert.Equal(t, 8, sections[3].EndPage)
}

func TestResolveBoundaries_OnlyEndFieldsChange(t *testing.T) {
	sections := []model.SectionMatch{
		{ItemNumber: 1, StartNodeIndex: 2, StartPage: 1, Confidence: 88, Method: model.MethodPrimary, MatchedText: "Item 1"},
	}
	before := sections[0]
	ResolveBoundaries(sections, sequence(10, 4))

	after := sections[0]
	after.EndNodeIndex, after.EndPage = before.EndNodeIndex, before.EndPage
	assert.Equal(t, before, after)
}

func TestResolveExhibitBoundaries(t *testing.T) {
	exhibits := []model.ExhibitMatch{
		{Letter: "A", StartNodeIndex: 50, StartPage: 41},
		{Letter: "B", StartNodeIndex: 60, StartPage: 45},
	}
	ResolveExhibitBoundaries(exhibits, sequence(100, 70))

	assert.Equal(t, 59, exhibits[0].EndNodeIndex)
	assert.Equal(t, 44, exhibits[0].EndPage)
	assert.Equal(t, 99, exhibits[1].EndNodeIndex)
	assert.Equal(t, 70, exhibits[1].EndPage)

	ResolveExhibitBoundaries(nil, nil)
}

func TestSectionsAndOrdered(t *testing.T) {
	a := Assignment{Matches: map[int]model.SectionMatch{
		2: {ItemNumber: 2, StartNodeIndex: 10, StartPage: 2},
		1: {ItemNumber: 1, StartNodeIndex: 30, StartPage: 5},
	}}

	sections := Sections(a)
	require.Len(t, sections, canon.ItemCount)
	assert.Equal(t, model.MethodUnresolved, sections[2].Method)
	assert.Equal(t, "Litigation", sections[2].Title)

	ordered := Ordered(sections)
	require.Len(t, ordered, canon.ItemCount)
	assert.Equal(t, 2, ordered[0].ItemNumber)
	// Placeholders 3..23 follow item 2, their nearest lower resolved neighbour
	assert.Equal(t, 3, ordered[1].ItemNumber)
	assert.Equal(t, 23, ordered[len(ordered)-2].ItemNumber)
	assert.Equal(t, 1, ordered[len(ordered)-1].ItemNumber)
}

package model

import "strings"

// NodeKind is the layout classification produced by the upstream layout service
type NodeKind string

const (
	KindSectionHeading NodeKind = "section_heading" // Exact tag used for section headers
	KindTitle          NodeKind = "title"           // Document/page titles
	KindBody           NodeKind = "body"            // Running text
	KindTable          NodeKind = "table"
	KindListItem       NodeKind = "list_item"
	KindPageHeader     NodeKind = "page_header"
	KindPageFooter     NodeKind = "page_footer"
	KindOther          NodeKind = "other"
)

// BBox is the horizontal geometry of a node on its page
type BBox struct {
	Left      float64 `json:"left"`
	Width     float64 `json:"width"`
	PageWidth float64 `json:"page_width"`
}

// Center returns the horizontal center of the box
func (b BBox) Center() float64 {
	return b.Left + b.Width/2
}

// Union returns the smallest box covering both boxes on the same page
func (b BBox) Union(o BBox) BBox {
	if b.Width == 0 && b.Left == 0 {
		return o
	}
	if o.Width == 0 && o.Left == 0 {
		return b
	}
	left := b.Left
	if o.Left < left {
		left = o.Left
	}
	right := b.Left + b.Width
	if r := o.Left + o.Width; r > right {
		right = r
	}
	pw := b.PageWidth
	if pw == 0 {
		pw = o.PageWidth
	}
	return BBox{Left: left, Width: right - left, PageWidth: pw}
}

// LayoutNode is one element of the flat, page-ordered layout sequence
type LayoutNode struct {
	Kind         NodeKind `json:"kind"`
	Text         string   `json:"text"`
	PageNumber   int      `json:"page_number"`   // 1-based
	OrdinalIndex int      `json:"ordinal_index"` // Position in the document sequence
	BBox         BBox     `json:"bbox"`
}

// Positions maps each node's ordinal index to its index in nodes
func Positions(nodes []LayoutNode) map[int]int {
	pos := make(map[int]int, len(nodes))
	for i, n := range nodes {
		pos[n.OrdinalIndex] = i
	}
	return pos
}

// Document is the normalized input for a single engine run
type Document struct {
	ID          string       `json:"id"`
	Source      string       `json:"source,omitempty"`
	Fingerprint string       `json:"fingerprint"`
	Nodes       []LayoutNode `json:"nodes"`
}

// PageCount returns the highest page number in the document
func (d *Document) PageCount() int {
	max := 0
	for _, n := range d.Nodes {
		if n.PageNumber > max {
			max = n.PageNumber
		}
	}
	return max
}

// PageText joins the text of every node on the given page
func (d *Document) PageText(page int) string {
	var parts []string
	for _, n := range d.Nodes {
		if n.PageNumber == page && strings.TrimSpace(n.Text) != "" {
			parts = append(parts, n.Text)
		}
	}
	return strings.Join(parts, "\n")
}

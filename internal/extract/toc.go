package extract

import (
	"sort"
	"strings"

	"github.com/ppiankov/fddmap/internal/canon"
	"github.com/ppiankov/fddmap/internal/label"
	"github.com/ppiankov/fddmap/internal/model"
)

// DetectTOCPages returns the pages that look like a table of contents: pages
// listing at least minLabels distinct item labels, or headed "Table of Contents".
func DetectTOCPages(nodes []model.LayoutNode, minLabels int) map[int]bool {
	labels := make(map[int]map[int]bool)
	toc := make(map[int]bool)

	for _, n := range nodes {
		text := strings.ToLower(label.Normalize(n.Text))
		if strings.HasPrefix(text, "table of contents") {
			toc[n.PageNumber] = true
		}
		for _, line := range strings.Split(n.Text, "\n") {
			if num, ok := label.ItemNumber(line); ok && canon.Valid(num) {
				if labels[n.PageNumber] == nil {
					labels[n.PageNumber] = make(map[int]bool)
				}
				labels[n.PageNumber][num] = true
			}
		}
	}

	for page, set := range labels {
		if len(set) >= minLabels {
			toc[page] = true
		}
	}
	return toc
}

// SortedPages returns the keys of a page set in ascending order
func SortedPages(pages map[int]bool) []int {
	out := make([]int, 0, len(pages))
	for p, ok := range pages {
		if ok {
			out = append(out, p)
		}
	}
	sort.Ints(out)
	return out
}

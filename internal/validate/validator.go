// Package validate checks resolved sections for structural consistency.
// Findings are diagnostics only; nothing here modifies or rejects a result.
package validate

import (
	"fmt"
	"sort"

	"github.com/ppiankov/fddmap/internal/canon"
	"github.com/ppiankov/fddmap/internal/model"
)

// Validator runs the structural checks
type Validator struct{}

// NewValidator creates a structural validator
func NewValidator() *Validator {
	return &Validator{}
}

// Validate returns every structural finding for the given sections
func (v *Validator) Validate(sections []model.SectionMatch) []model.Finding {
	var findings []model.Finding

	if len(sections) != canon.ItemCount {
		findings = append(findings, model.Finding{
			Kind:    model.FindingCount,
			Message: fmt.Sprintf("expected %d sections, got %d", canon.ItemCount, len(sections)),
		})
	}

	findings = append(findings, checkNumbers(sections)...)

	resolved := make([]model.SectionMatch, 0, len(sections))
	for _, s := range sections {
		if s.IsResolved() && canon.Valid(s.ItemNumber) {
			resolved = append(resolved, s)
		}
	}
	sort.SliceStable(resolved, func(i, j int) bool { return resolved[i].ItemNumber < resolved[j].ItemNumber })

	for _, s := range resolved {
		if s.EndPage > 0 && s.StartPage > s.EndPage {
			findings = append(findings, model.Finding{
				Kind:    model.FindingPageRange,
				Items:   []int{s.ItemNumber},
				Message: fmt.Sprintf("item %d starts on page %d after its end page %d", s.ItemNumber, s.StartPage, s.EndPage),
			})
		}
	}

	for i := 1; i < len(resolved); i++ {
		prev, cur := resolved[i-1], resolved[i]
		pair := []int{prev.ItemNumber, cur.ItemNumber}

		if cur.StartNodeIndex <= prev.StartNodeIndex {
			findings = append(findings, model.Finding{
				Kind:    model.FindingOrder,
				Items:   pair,
				Message: fmt.Sprintf("item %d starts at node %d, before item %d at node %d", cur.ItemNumber, cur.StartNodeIndex, prev.ItemNumber, prev.StartNodeIndex),
			})
		}

		switch {
		case cur.StartPage == prev.StartPage:
			findings = append(findings, model.Finding{
				Kind:    model.FindingOverlap,
				Items:   pair,
				Message: fmt.Sprintf("items %d and %d share start page %d", prev.ItemNumber, cur.ItemNumber, cur.StartPage),
			})
		case prev.EndPage > 0 && cur.StartPage < prev.EndPage:
			findings = append(findings, model.Finding{
				Kind:    model.FindingOverlap,
				Items:   pair,
				Message: fmt.Sprintf("item %d starts on page %d before item %d ends on page %d", cur.ItemNumber, cur.StartPage, prev.ItemNumber, prev.EndPage),
			})
		}
	}

	return findings
}

func checkNumbers(sections []model.SectionMatch) []model.Finding {
	var findings []model.Finding
	seen := make(map[int]int)

	for _, s := range sections {
		if !canon.Valid(s.ItemNumber) {
			findings = append(findings, model.Finding{
				Kind:    model.FindingOutOfRange,
				Items:   []int{s.ItemNumber},
				Message: fmt.Sprintf("item number %d is outside 1..%d", s.ItemNumber, canon.ItemCount),
			})
			continue
		}
		seen[s.ItemNumber]++
	}

	dups := make([]int, 0)
	for item, n := range seen {
		if n > 1 {
			dups = append(dups, item)
		}
	}
	sort.Ints(dups)
	for _, item := range dups {
		findings = append(findings, model.Finding{
			Kind:    model.FindingDuplicate,
			Items:   []int{item},
			Message: fmt.Sprintf("item %d appears %d times", item, seen[item]),
		})
	}

	return findings
}

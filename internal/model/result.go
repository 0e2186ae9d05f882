package model

import "time"

// Result is the complete output of one engine run
type Result struct {
	DocumentID   string             `json:"document_id"`
	Source       string             `json:"source,omitempty"`
	ProcessedAt  time.Time          `json:"processed_at"`
	Sections     []SectionMatch     `json:"sections"` // Exactly 23, ordered by item number
	Exhibits     []ExhibitMatch     `json:"exhibits"`
	Findings     []Finding          `json:"findings,omitempty"`
	Verification VerificationReport `json:"verification"`
	Stats        Stats              `json:"stats"`
}

// Section returns the entry for the given item number
func (r *Result) Section(item int) (SectionMatch, bool) {
	for _, s := range r.Sections {
		if s.ItemNumber == item {
			return s, true
		}
	}
	return SectionMatch{}, false
}

// FindingKind classifies a structural diagnostic
type FindingKind string

const (
	FindingCount      FindingKind = "count"
	FindingDuplicate  FindingKind = "duplicate"
	FindingOutOfRange FindingKind = "out_of_range"
	FindingOrder      FindingKind = "order"
	FindingPageRange  FindingKind = "page_range"
	FindingOverlap    FindingKind = "overlap"
)

// Finding is a non-fatal structural diagnostic
type Finding struct {
	Kind    FindingKind `json:"kind"`
	Items   []int       `json:"items,omitempty"`
	Message string      `json:"message"`
}

// VerificationReport summarizes the verifier's work for one document
type VerificationReport struct {
	Enabled    bool     `json:"enabled"`
	Provider   string   `json:"provider,omitempty"`
	Degraded   bool     `json:"degraded"`
	Checked    int      `json:"checked"`
	Verified   int      `json:"verified"`
	Calls      int      `json:"calls"`
	CacheHits  int      `json:"cache_hits"`
	OverBudget int      `json:"over_budget"`
	Heuristic  int      `json:"heuristic"`
	Warnings   []string `json:"warnings,omitempty"`
}

// Stats counts what each stage produced
type Stats struct {
	Nodes      int           `json:"nodes"`
	Pages      int           `json:"pages"`
	Candidates int           `json:"candidates"`
	Merged     int           `json:"merged"`
	TOCPages   []int         `json:"toc_pages,omitempty"`
	Primary    int           `json:"primary"`
	Fallback   int           `json:"fallback"`
	Verified   int           `json:"verified"`
	Unresolved int           `json:"unresolved"`
	Duration   time.Duration `json:"duration_ns"`
}

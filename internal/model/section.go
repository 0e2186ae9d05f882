package model

// MatchMethod records how a section entry was resolved
type MatchMethod string

const (
	MethodPrimary          MatchMethod = "primary"
	MethodFallback         MatchMethod = "fallback"
	MethodVerified         MatchMethod = "verified"
	MethodUnresolved       MatchMethod = "unresolved"
	MethodUnresolvedBudget MatchMethod = "unresolved-budget"
)

// Candidate is a node (or reassembled run of nodes) that may be a section header
type Candidate struct {
	Node       LayoutNode `json:"node"`
	MergedFrom []int      `json:"merged_from,omitempty"` // Ordinal indexes of the nodes a merged header was built from
}

// Ordinals returns every node index the candidate occupies
func (c Candidate) Ordinals() []int {
	if len(c.MergedFrom) > 0 {
		return c.MergedFrom
	}
	return []int{c.Node.OrdinalIndex}
}

// ScoredCandidate is a candidate scored against one canonical item
type ScoredCandidate struct {
	Candidate
	ItemNumber     int     `json:"item_number"`
	FullScore      float64 `json:"full_score"`
	LabelScore     float64 `json:"label_score"`
	KeywordScore   float64 `json:"keyword_score"`
	AlignmentScore float64 `json:"alignment_score"`
	FinalScore     float64 `json:"final_score"`
}

// Breakdown returns the score components kept on a section match
func (s ScoredCandidate) Breakdown() *ScoreBreakdown {
	return &ScoreBreakdown{
		Full:      s.FullScore,
		Label:     s.LabelScore,
		Keyword:   s.KeywordScore,
		Alignment: s.AlignmentScore,
		Final:     s.FinalScore,
	}
}

// ScoreBreakdown is the transparent scoring record of a match
type ScoreBreakdown struct {
	Full      float64 `json:"full"`
	Label     float64 `json:"label"`
	Keyword   float64 `json:"keyword"`
	Alignment float64 `json:"alignment"`
	Final     float64 `json:"final"`
}

// SectionMatch is the resolved location of one of the 23 Items
type SectionMatch struct {
	ItemNumber     int                  `json:"item_number"`
	Title          string               `json:"title"`
	MatchedText    string               `json:"matched_text,omitempty"`
	StartNodeIndex int                  `json:"start_node_index"`
	EndNodeIndex   int                  `json:"end_node_index"`
	StartPage      int                  `json:"start_page"`
	EndPage        int                  `json:"end_page"`
	Confidence     float64              `json:"confidence"`
	Method         MatchMethod          `json:"method"`
	Score          *ScoreBreakdown      `json:"score,omitempty"`
	Verdict        *VerificationVerdict `json:"verdict,omitempty"`
}

// IsResolved reports whether the entry has a location in the document
func (m SectionMatch) IsResolved() bool {
	return m.StartNodeIndex >= 0 && m.StartPage > 0
}

// Placeholder returns the entry for an item that could not be located
func Placeholder(item int, title string) SectionMatch {
	return SectionMatch{
		ItemNumber:     item,
		Title:          title,
		StartNodeIndex: -1,
		EndNodeIndex:   -1,
		Method:         MethodUnresolved,
	}
}

// ExhibitMatch is the resolved location of a lettered exhibit
type ExhibitMatch struct {
	Letter         string      `json:"letter"`
	Title          string      `json:"title,omitempty"`
	MatchedText    string      `json:"matched_text"`
	StartNodeIndex int         `json:"start_node_index"`
	EndNodeIndex   int         `json:"end_node_index"`
	StartPage      int         `json:"start_page"`
	EndPage        int         `json:"end_page"`
	Confidence     float64     `json:"confidence"`
	Method         MatchMethod `json:"method"`
}

// VerificationVerdict is the outcome of checking a low-confidence match
type VerificationVerdict struct {
	Verified     bool    `json:"verified"`
	Confidence   float64 `json:"confidence"` // 0-100
	Rationale    string  `json:"rationale,omitempty"`
	ResolvedPage *int    `json:"resolved_page,omitempty"` // 1-based
	Source       string  `json:"source"`                  // Provider name, "heuristic" or "cache"
	Reason       string  `json:"reason,omitempty"`        // Why a degraded path was taken
}

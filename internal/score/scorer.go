package score

import (
	"context"
	"math"

	"github.com/ppiankov/fddmap/internal/canon"
	"github.com/ppiankov/fddmap/internal/label"
	"github.com/ppiankov/fddmap/internal/model"
)

// Formula documents how the final score is composed
const Formula = "final = full*w_full + label*w_label + keyword*w_keyword + alignment"

// Weights are the tier weights and the alignment bonus cap
type Weights struct {
	Full         float64
	Label        float64
	Keyword      float64
	AlignmentCap float64
}

// WeightsFromConfig extracts scoring weights from the matching config
func WeightsFromConfig(cfg model.MatchingConfig) Weights {
	return Weights{
		Full:         cfg.FullWeight,
		Label:        cfg.LabelWeight,
		Keyword:      cfg.KeywordWeight,
		AlignmentCap: cfg.AlignmentCap,
	}
}

// Scorer computes multi-tier scores of candidates against canonical items
type Scorer struct {
	similarity Similarity
	keywords   Similarity
	weights    Weights
	items      []canon.Item
}

// NewScorer creates a scorer. A nil similarity selects TokenSet.
func NewScorer(similarity Similarity, weights Weights) *Scorer {
	if similarity == nil {
		similarity = NewTokenSet()
	}
	return &Scorer{
		similarity: similarity,
		keywords:   NewTokenSet(),
		weights:    weights,
		items:      canon.Items(),
	}
}

// Strategy returns the name of the full-text similarity strategy
func (s *Scorer) Strategy() string {
	return s.similarity.Name()
}

// Prepare warms strategies that need the document's texts ahead of scoring
func (s *Scorer) Prepare(ctx context.Context, texts []string) error {
	if p, ok := s.similarity.(Preparer); ok {
		return p.Prepare(ctx, texts)
	}
	return nil
}

// Score computes every tier for one candidate against one item
func (s *Scorer) Score(c model.Candidate, item canon.Item) model.ScoredCandidate {
	text := c.Node.Text

	full := s.similarity.Compare(text, item.Title)

	labelScore := 0.0
	if n, ok := label.ItemNumber(text); ok && n == item.Number {
		labelScore = 100
	}

	keyword := 0.0
	if stripped := label.StripLabel(text); stripped != "" {
		for _, kw := range item.Keywords {
			if v := s.keywords.Compare(stripped, kw); v > keyword {
				keyword = v
			}
		}
	}

	align := Alignment(c.Node.BBox, s.weights.AlignmentCap)

	return model.ScoredCandidate{
		Candidate:      c,
		ItemNumber:     item.Number,
		FullScore:      full,
		LabelScore:     labelScore,
		KeywordScore:   keyword,
		AlignmentScore: align,
		FinalScore:     full*s.weights.Full + labelScore*s.weights.Label + keyword*s.weights.Keyword + align,
	}
}

// ScoreAll scores a candidate against every item it may belong to. A
// candidate whose text opens with an in-range "Item N" label is scored
// against item N only.
func (s *Scorer) ScoreAll(c model.Candidate) []model.ScoredCandidate {
	if n, ok := label.ItemNumber(c.Node.Text); ok && canon.Valid(n) {
		return []model.ScoredCandidate{s.Score(c, s.items[n-1])}
	}

	out := make([]model.ScoredCandidate, 0, len(s.items))
	for _, item := range s.items {
		out = append(out, s.Score(c, item))
	}
	return out
}

// ScoreFor scores a candidate against a single item, returning false when an
// explicit label on the candidate names a different item.
func (s *Scorer) ScoreFor(c model.Candidate, item int) (model.ScoredCandidate, bool) {
	if n, ok := label.ItemNumber(c.Node.Text); ok && canon.Valid(n) && n != item {
		return model.ScoredCandidate{}, false
	}
	ci, ok := canon.Lookup(item)
	if !ok {
		return model.ScoredCandidate{}, false
	}
	return s.Score(c, ci), true
}

// Alignment rewards horizontally centered boxes: capScore at dead center,
// falling linearly to 0 at either page edge. Boxes without a page width get 0.
func Alignment(b model.BBox, capScore float64) float64 {
	if b.PageWidth <= 0 {
		return 0
	}
	half := b.PageWidth / 2
	v := 1 - math.Abs(b.Center()-half)/half
	if v < 0 {
		v = 0
	}
	return v * capScore
}

// Confidence maps a final score to the 0-100 confidence scale
func Confidence(final float64) float64 {
	if final > 100 {
		return 100
	}
	if final < 0 {
		return 0
	}
	return final
}

package verify

import (
	"math"

	"github.com/ppiankov/fddmap/internal/llm"
	"github.com/ppiankov/fddmap/internal/model"
)

// Normalize converts a raw backend verdict to the 0-100 confidence scale
// and a 1-based resolved page. Backends are asked for 0-100; only values
// strictly between 0 and 1 are read as fractions, so 0 and 1 stay on the
// percent scale. A resolved page of 0 is read as 0-based. Pages beyond
// pageCount (when known) are discarded.
func Normalize(raw llm.Verdict, source string, pageCount int) *model.VerificationVerdict {
	conf := raw.Confidence
	if conf > 0 && conf < 1 {
		conf *= 100
	}
	conf = math.Max(0, math.Min(100, conf))

	v := &model.VerificationVerdict{
		Verified:   raw.Verified,
		Confidence: conf,
		Rationale:  raw.Rationale,
		Source:     source,
	}

	if raw.ResolvedPage != nil {
		page := *raw.ResolvedPage
		if page == 0 {
			page = 1
		}
		if page >= 1 && (pageCount == 0 || page <= pageCount) {
			v.ResolvedPage = &page
		}
	}

	return v
}

// Apply folds a verdict into a section entry. Only confidence, method and
// verdict change; page and node fields are never touched.
func Apply(m *model.SectionMatch, v *model.VerificationVerdict) {
	m.Verdict = v
	if v.Verified {
		m.Method = model.MethodVerified
		m.Confidence = v.Confidence
		return
	}
	if v.Confidence < m.Confidence {
		m.Confidence = v.Confidence
	}
}

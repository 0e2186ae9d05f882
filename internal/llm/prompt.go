package llm

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/ppiankov/fddmap/internal/util"
)

// BuildPrompt constructs the default verification prompt for one page
func BuildPrompt(req VerifyRequest) string {
	var b strings.Builder

	fmt.Fprintf(&b, `A Franchise Disclosure Document has 23 numbered Items. An automated matcher believes
the following headings on page %d open the listed Items, but its confidence is low.

For each candidate decide whether the heading text really starts that Item on this page.
If the Item clearly starts on a different page you can see referenced, give that page as resolved_page.

Candidates:
`, req.Page)

	for _, c := range req.Candidates {
		fmt.Fprintf(&b, "- item_number: %d, canonical title: %q, matched heading: %q\n", c.ItemNumber, c.Title, c.Header)
	}

	fmt.Fprintf(&b, `
Page %d text:
"""
%s
"""

Respond with a JSON object of the form:
{"verdicts": [{"item_number": <int>, "verified": <bool>, "confidence": <0-100>, "rationale": "<one sentence>", "resolved_page": <int or null>}]}
Include one verdict per candidate.`, req.Page, req.Excerpt)

	return b.String()
}

// ParseVerdicts decodes a backend reply. Both {"verdicts": [...]} and a bare
// array are accepted; markdown code fences are stripped first.
func ParseVerdicts(text string) ([]Verdict, error) {
	raw := util.StripCodeFences(text)
	if raw == "" {
		return nil, fmt.Errorf("empty verification response")
	}

	if strings.HasPrefix(raw, "[") {
		var list []Verdict
		if err := json.Unmarshal([]byte(raw), &list); err != nil {
			return nil, fmt.Errorf("parse verdict list: %w", err)
		}
		return list, nil
	}

	var wrapped struct {
		Verdicts []Verdict `json:"verdicts"`
	}
	if err := json.Unmarshal([]byte(raw), &wrapped); err != nil {
		return nil, fmt.Errorf("parse verdicts: %w", err)
	}
	if wrapped.Verdicts == nil {
		return nil, fmt.Errorf("parse verdicts: missing \"verdicts\" field")
	}
	return wrapped.Verdicts, nil
}

// resolveModel picks the request model, then the configured one, then a default
func resolveModel(reqModel, configModel, fallback string) string {
	if reqModel != "" {
		return reqModel
	}
	if configModel != "" {
		return configModel
	}
	return fallback
}

func resolveMaxTokens(reqTokens, configTokens int) int {
	if reqTokens > 0 {
		return reqTokens
	}
	if configTokens > 0 {
		return configTokens
	}
	return 800
}

func promptFor(req VerifyRequest) string {
	if req.Prompt != "" {
		return req.Prompt
	}
	return BuildPrompt(req)
}

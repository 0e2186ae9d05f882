package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ppiankov/fddmap/internal/canon"
	"github.com/ppiankov/fddmap/internal/llm"
	"github.com/ppiankov/fddmap/internal/model"
)

var (
	centered = model.BBox{Left: 150, Width: 300, PageWidth: 600}
	bodyBox  = model.BBox{Left: 72, Width: 468, PageWidth: 600}
)

func itemPage(item int) int {
	return 1 + (item-1)*39/22
}

// fddNodes builds a clean 23-item layout with one centered heading and one
// body paragraph per item. A nil override drops the item's heading.
func fddNodes(overrides map[int]*model.LayoutNode) []model.LayoutNode {
	var nodes []model.LayoutNode
	for _, item := range canon.Items() {
		page := itemPage(item.Number)
		h := model.LayoutNode{
			Kind:       model.KindSectionHeading,
			Text:       fmt.Sprintf("Item %d %s", item.Number, item.Title),
			PageNumber: page,
			BBox:       centered,
		}
		if o, ok := overrides[item.Number]; ok {
			if o != nil {
				h = *o
				h.PageNumber = page
				nodes = append(nodes, h)
			}
		} else {
			nodes = append(nodes, h)
		}
		nodes = append(nodes, model.LayoutNode{
			Kind:       model.KindBody,
			Text:       fmt.Sprintf("Body text for section %d.", item.Number),
			PageNumber: page,
			BBox:       bodyBox,
		})
	}
	return nodes
}

func newTestPipeline(t *testing.T, mutate func(*model.Config), opts Options) *Pipeline {
	t.Helper()
	cfg := model.DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	require.NoError(t, cfg.Validate())
	p, err := NewPipeline(cfg, opts)
	require.NoError(t, err)
	return p
}

func TestResolve_CleanDocument(t *testing.T) {
	p := newTestPipeline(t, nil, Options{})

	res, err := p.ResolveNodes(context.Background(), "clean", fddNodes(nil))
	require.NoError(t, err)
	require.Len(t, res.Sections, canon.ItemCount)

	prev := 0
	for i, s := range res.Sections {
		assert.Equal(t, i+1, s.ItemNumber)
		assert.Equal(t, model.MethodPrimary, s.Method, "item %d", s.ItemNumber)
		assert.GreaterOrEqual(t, s.Confidence, 90.0)
		assert.Greater(t, s.StartPage, prev)
		assert.LessOrEqual(t, s.StartPage, s.EndPage)
		prev = s.StartPage
	}
	assert.Empty(t, res.Findings)
	assert.Equal(t, 23, res.Stats.Primary)
	assert.Equal(t, 0, res.Stats.Unresolved)
	assert.Equal(t, 40, res.Stats.Pages)
	assert.False(t, res.Verification.Enabled)

	last := res.Sections[canon.ItemCount-1]
	assert.Equal(t, res.Stats.Nodes-1, last.EndNodeIndex)
	assert.Equal(t, 40, last.EndPage)
}

func TestResolve_MissingHeadingUsesFallback(t *testing.T) {
	p := newTestPipeline(t, nil, Options{})
	nodes := fddNodes(map[int]*model.LayoutNode{
		5: {Kind: model.KindBody, Text: "INITIAL FEES", BBox: bodyBox},
	})

	res, err := p.ResolveNodes(context.Background(), "missing-5", nodes)
	require.NoError(t, err)

	item4, item5, item6 := res.Sections[3], res.Sections[4], res.Sections[5]
	assert.Equal(t, model.MethodFallback, item5.Method)
	assert.GreaterOrEqual(t, item5.Confidence, 50.0)
	assert.Less(t, item5.Confidence, 60.0)
	assert.GreaterOrEqual(t, item5.StartPage, item4.StartPage)
	assert.LessOrEqual(t, item5.StartPage, item6.StartPage)
	assert.Equal(t, 1, res.Stats.Fallback)
}

func TestResolve_SplitHeaderIsReassembled(t *testing.T) {
	p := newTestPipeline(t, nil, Options{})
	var nodes []model.LayoutNode
	for _, n := range fddNodes(map[int]*model.LayoutNode{12: nil}) {
		if n.Text == "Body text for section 12." {
			nodes = append(nodes,
				model.LayoutNode{Kind: model.KindSectionHeading, Text: "Item", PageNumber: n.PageNumber, BBox: model.BBox{Left: 230, Width: 50, PageWidth: 600}},
				model.LayoutNode{Kind: model.KindSectionHeading, Text: "12: Territory", PageNumber: n.PageNumber, BBox: model.BBox{Left: 285, Width: 90, PageWidth: 600}},
			)
		}
		nodes = append(nodes, n)
	}

	res, err := p.ResolveNodes(context.Background(), "split", nodes)
	require.NoError(t, err)

	item12 := res.Sections[11]
	assert.Equal(t, model.MethodPrimary, item12.Method)
	assert.Equal(t, "Item 12: Territory", item12.MatchedText)
	assert.Equal(t, 2, res.Stats.Merged)
}

func TestResolve_EmptyInput(t *testing.T) {
	p := newTestPipeline(t, nil, Options{})

	_, err := p.ResolveNodes(context.Background(), "empty", nil)
	require.Error(t, err)
	assert.True(t, errors.Is(err, model.ErrEmptyInput))

	var ee *model.ExtractionError
	require.True(t, errors.As(err, &ee))
	assert.Equal(t, model.CodeEmptyInput, ee.Code)

	_, err = p.Resolve(context.Background(), &model.Document{ID: "x"})
	assert.True(t, errors.Is(err, model.ErrEmptyInput))
}

func TestResolve_SharedStartPageIsReported(t *testing.T) {
	p := newTestPipeline(t, nil, Options{})
	nodes := fddNodes(nil)
	for i := range nodes {
		if strings.HasPrefix(nodes[i].Text, "Item 7 ") || nodes[i].Text == "Body text for section 7." {
			nodes[i].PageNumber = itemPage(6)
		}
	}

	res, err := p.ResolveNodes(context.Background(), "shared", nodes)
	require.NoError(t, err)
	require.Len(t, res.Sections, canon.ItemCount)
	assert.Equal(t, res.Sections[5].StartPage, res.Sections[6].StartPage)

	var overlap bool
	for _, f := range res.Findings {
		if f.Kind == model.FindingOverlap {
			overlap = true
		}
	}
	assert.True(t, overlap, "findings: %+v", res.Findings)
}

func TestResolve_KeepsCallerOrdinals(t *testing.T) {
	p := newTestPipeline(t, nil, Options{})
	nodes := fddNodes(map[int]*model.LayoutNode{
		5: {Kind: model.KindBody, Text: "INITIAL FEES", BBox: bodyBox},
	})
	for i := range nodes {
		nodes[i].OrdinalIndex = 1000 + 2*i
	}
	last := nodes[len(nodes)-1]

	res, err := p.ResolveNodes(context.Background(), "ordinals", nodes)
	require.NoError(t, err)

	first := res.Sections[0]
	assert.Equal(t, 1000, first.StartNodeIndex)
	assert.Equal(t, model.MethodFallback, res.Sections[4].Method)
	for i, s := range res.Sections {
		require.True(t, s.IsResolved(), "item %d", s.ItemNumber)
		if i+1 < len(res.Sections) {
			assert.Equal(t, res.Sections[i+1].StartNodeIndex-2, s.EndNodeIndex, "item %d", s.ItemNumber)
		}
	}
	assert.Equal(t, last.OrdinalIndex, res.Sections[canon.ItemCount-1].EndNodeIndex)
}

func TestResolve_RejectsDuplicateOrdinals(t *testing.T) {
	p := newTestPipeline(t, nil, Options{})
	nodes := fddNodes(nil)
	for i := range nodes {
		nodes[i].OrdinalIndex = 1 + i
	}
	nodes[3].OrdinalIndex = nodes[2].OrdinalIndex

	_, err := p.ResolveNodes(context.Background(), "dup", nodes)
	assert.True(t, errors.Is(err, model.ErrMalformedInput), "got %v", err)
}

func TestResolve_SkipsTableOfContents(t *testing.T) {
	p := newTestPipeline(t, nil, Options{})

	var nodes []model.LayoutNode
	nodes = append(nodes, model.LayoutNode{Kind: model.KindTitle, Text: "TABLE OF CONTENTS", PageNumber: 1, BBox: centered})
	for _, item := range canon.Items() {
		nodes = append(nodes, model.LayoutNode{
			Kind:       model.KindSectionHeading,
			Text:       fmt.Sprintf("Item %d %s", item.Number, item.Title),
			PageNumber: 1,
			BBox:       bodyBox,
		})
	}
	for _, n := range fddNodes(nil) {
		n.PageNumber++
		nodes = append(nodes, n)
	}

	res, err := p.ResolveNodes(context.Background(), "toc", nodes)
	require.NoError(t, err)
	assert.Equal(t, []int{1}, res.Stats.TOCPages)
	for _, s := range res.Sections {
		assert.Greater(t, s.StartPage, 1, "item %d matched on the contents page", s.ItemNumber)
		assert.Equal(t, model.MethodPrimary, s.Method)
	}
}

func TestResolve_Exhibits(t *testing.T) {
	p := newTestPipeline(t, nil, Options{})
	nodes := fddNodes(nil)
	nodes = append(nodes,
		model.LayoutNode{Kind: model.KindSectionHeading, Text: "EXHIBIT A LIST OF OUTLETS", PageNumber: 41, BBox: centered},
		model.LayoutNode{Kind: model.KindBody, Text: "Outlet list follows.", PageNumber: 41, BBox: bodyBox},
		model.LayoutNode{Kind: model.KindBody, Text: "See Exhibit A for outlets.", PageNumber: 42, BBox: bodyBox},
		model.LayoutNode{Kind: model.KindSectionHeading, Text: "EXHIBIT B FRANCHISE AGREEMENT", PageNumber: 43, BBox: centered},
		model.LayoutNode{Kind: model.KindBody, Text: "This agreement is made...", PageNumber: 44, BBox: bodyBox},
	)

	res, err := p.ResolveNodes(context.Background(), "exhibits", nodes)
	require.NoError(t, err)
	require.Len(t, res.Exhibits, 2)

	a, b := res.Exhibits[0], res.Exhibits[1]
	assert.Equal(t, "A", a.Letter)
	assert.Equal(t, 41, a.StartPage)
	assert.Equal(t, 42, a.EndPage)
	assert.Equal(t, 95.0, a.Confidence)
	assert.Equal(t, "B", b.Letter)
	assert.Equal(t, 44, b.EndPage)

	assert.Equal(t, 44, res.Sections[canon.ItemCount-1].EndPage)
	for _, s := range res.Sections {
		assert.Equal(t, model.MethodPrimary, s.Method, "item %d", s.ItemNumber)
	}
}

// stubProvider confirms every candidate
type stubProvider struct {
	calls int
}

func (s *stubProvider) Name() string                         { return "stub" }
func (s *stubProvider) IsAvailable(ctx context.Context) bool { return true }
func (s *stubProvider) Verify(ctx context.Context, req llm.VerifyRequest) (*llm.VerifyResponse, error) {
	s.calls++
	resp := &llm.VerifyResponse{}
	for _, c := range req.Candidates {
		resp.Verdicts = append(resp.Verdicts, llm.Verdict{ItemNumber: c.ItemNumber, Verified: true, Confidence: 0.85})
	}
	return resp, nil
}

func TestResolve_VerifiesLowConfidenceEntries(t *testing.T) {
	provider := &stubProvider{}
	p := newTestPipeline(t, func(cfg *model.Config) {
		cfg.Verify.Enabled = true
	}, Options{Provider: provider})
	nodes := fddNodes(map[int]*model.LayoutNode{
		5: {Kind: model.KindBody, Text: "INITIAL FEES", BBox: bodyBox},
	})

	res, err := p.ResolveNodes(context.Background(), "verify", nodes)
	require.NoError(t, err)

	item5 := res.Sections[4]
	assert.Equal(t, model.MethodVerified, item5.Method)
	assert.Equal(t, 85.0, item5.Confidence)
	require.NotNil(t, item5.Verdict)
	assert.Equal(t, "stub", item5.Verdict.Source)

	assert.Equal(t, 1, provider.calls)
	assert.True(t, res.Verification.Enabled)
	assert.Equal(t, "stub", res.Verification.Provider)
	assert.Equal(t, 1, res.Verification.Checked)
	assert.Equal(t, 1, res.Stats.Verified)

	// Same document again: verdict comes from the session cache
	res, err = p.ResolveNodes(context.Background(), "verify", nodes)
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls)
	assert.Equal(t, 1, res.Verification.CacheHits)
}

func TestResolve_VerifierDegradedWithoutCredential(t *testing.T) {
	p := newTestPipeline(t, func(cfg *model.Config) {
		cfg.Verify.Enabled = true
		cfg.LLM.Provider = "openai"
	}, Options{})
	require.NotNil(t, p.Session())
	assert.True(t, p.Session().Degraded())

	nodes := fddNodes(map[int]*model.LayoutNode{
		5: {Kind: model.KindBody, Text: "INITIAL FEES", BBox: bodyBox},
	})
	res, err := p.ResolveNodes(context.Background(), "degraded", nodes)
	require.NoError(t, err)
	assert.True(t, res.Verification.Degraded)
	assert.Equal(t, model.MethodVerified, res.Sections[4].Method)
	assert.Equal(t, "heuristic", res.Sections[4].Verdict.Source)
}

func TestProcessFile(t *testing.T) {
	type record struct {
		Type string  `json:"type"`
		Text string  `json:"text"`
		Page int     `json:"page_idx"`
		BBox []int   `json:"bbox"`
		PW   float64 `json:"page_width"`
	}
	var records []record
	for _, n := range fddNodes(nil) {
		kind := "Text"
		if n.Kind == model.KindSectionHeading {
			kind = "Section-header"
		}
		x0 := int(n.BBox.Left)
		records = append(records, record{Type: kind, Text: n.Text, Page: n.PageNumber - 1, BBox: []int{x0, 0, x0 + int(n.BBox.Width), 20}, PW: 600})
	}
	data, err := json.Marshal(map[string]interface{}{"blocks": records})
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "acme.json")
	require.NoError(t, os.WriteFile(path, data, 0o644))

	p := newTestPipeline(t, nil, Options{})
	res, err := p.ProcessFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "acme", res.DocumentID)
	assert.Equal(t, path, res.Source)
	assert.Equal(t, 23, res.Stats.Primary)
	assert.Equal(t, 1, res.Sections[0].StartPage)

	_, err = p.ProcessFile(context.Background(), filepath.Join(t.TempDir(), "nope.json"))
	assert.Error(t, err)
}

func TestNewPipeline_EmbeddingWithoutKeyFallsBack(t *testing.T) {
	p := newTestPipeline(t, func(cfg *model.Config) {
		cfg.Matching.Strategy = "embedding"
	}, Options{})
	assert.Equal(t, "token_set", p.scorer.Strategy())
}

func TestNewPipeline_UnknownProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Verify.Enabled = true
	cfg.LLM.Provider = "mystery"
	_, err := NewPipeline(cfg, Options{})
	assert.Error(t, err)
}

func TestRenderer(t *testing.T) {
	p := newTestPipeline(t, nil, Options{})
	res, err := p.ResolveNodes(context.Background(), "render", fddNodes(map[int]*model.LayoutNode{9: nil}))
	require.NoError(t, err)

	r := NewRenderer(true)

	var md bytes.Buffer
	require.NoError(t, r.WriteMarkdown(&md, res))
	assert.Contains(t, md.String(), "# Section map: render")
	assert.Contains(t, md.String(), "| 5 | Initial Fees |")
	assert.Contains(t, md.String(), "| 9 | Franchisee's Obligations | - | 0 | unresolved |")

	var js bytes.Buffer
	require.NoError(t, r.WriteJSON(&js, res))
	var decoded struct {
		DocumentID string `json:"document_id"`
		Sections   []struct {
			ItemNumber int    `json:"item_number"`
			Method     string `json:"method"`
		} `json:"sections"`
	}
	require.NoError(t, json.Unmarshal(js.Bytes(), &decoded))
	assert.Equal(t, "render", decoded.DocumentID)
	assert.Len(t, decoded.Sections, canon.ItemCount)
	assert.Equal(t, "unresolved", decoded.Sections[8].Method)

	var summary bytes.Buffer
	r.RenderSummary(&summary, res)
	assert.Contains(t, summary.String(), "22/23 items located")

	out := filepath.Join(t.TempDir(), "nested", "render.md")
	require.NoError(t, r.RenderMarkdown(res, out))
	_, err = os.Stat(out)
	assert.NoError(t, err)
}

func TestDocumentOrder(t *testing.T) {
	sections := []model.SectionMatch{
		{ItemNumber: 1, StartNodeIndex: 0, StartPage: 1, Method: model.MethodPrimary},
		{ItemNumber: 2, StartNodeIndex: 9, StartPage: 3, Method: model.MethodPrimary},
		{ItemNumber: 3, StartNodeIndex: 4, StartPage: 2, Method: model.MethodPrimary},
	}
	assert.Equal(t, "1, 3, 2", documentOrder(sections))

	sections[1].StartNodeIndex, sections[2].StartNodeIndex = 4, 9
	assert.Equal(t, "", documentOrder(sections))
}

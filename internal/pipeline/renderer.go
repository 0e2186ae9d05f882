package pipeline

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ppiankov/fddmap/internal/canon"
	"github.com/ppiankov/fddmap/internal/match"
	"github.com/ppiankov/fddmap/internal/model"
)

// Renderer writes results as JSON, Markdown or a short text summary
type Renderer struct {
	pretty bool
}

// NewRenderer creates a new renderer
func NewRenderer(pretty bool) *Renderer {
	return &Renderer{pretty: pretty}
}

// WriteJSON encodes the result to w
func (r *Renderer) WriteJSON(w io.Writer, res *model.Result) error {
	enc := json.NewEncoder(w)
	if r.pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(res)
}

// RenderJSON writes the result to a JSON file
func (r *Renderer) RenderJSON(res *model.Result, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteJSON(w, res) })
}

// WriteMarkdown writes a section table, exhibits and findings
func (r *Renderer) WriteMarkdown(w io.Writer, res *model.Result) error {
	var b strings.Builder

	fmt.Fprintf(&b, "# Section map: %s\n\n", res.DocumentID)
	if res.Source != "" {
		fmt.Fprintf(&b, "Source: `%s`  \n", res.Source)
	}
	fmt.Fprintf(&b, "Processed: %s  \n", res.ProcessedAt.Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(&b, "Pages: %d, nodes: %d, candidates: %d\n\n", res.Stats.Pages, res.Stats.Nodes, res.Stats.Candidates)

	b.WriteString("| Item | Title | Pages | Confidence | Method | Matched text |\n")
	b.WriteString("|---:|---|---|---:|---|---|\n")
	for _, s := range res.Sections {
		pages := "-"
		if s.IsResolved() {
			pages = fmt.Sprintf("%d-%d", s.StartPage, s.EndPage)
		}
		fmt.Fprintf(&b, "| %d | %s | %s | %.0f | %s | %s |\n",
			s.ItemNumber, canon.Title(s.ItemNumber), pages, s.Confidence, s.Method, escapeCell(s.MatchedText))
	}

	if order := documentOrder(res.Sections); order != "" {
		fmt.Fprintf(&b, "\nItems appear out of sequence. Document order: %s\n", order)
	}

	if len(res.Exhibits) > 0 {
		b.WriteString("\n## Exhibits\n\n")
		b.WriteString("| Exhibit | Title | Pages | Confidence |\n")
		b.WriteString("|---|---|---|---:|\n")
		for _, e := range res.Exhibits {
			fmt.Fprintf(&b, "| %s | %s | %d-%d | %.0f |\n", e.Letter, escapeCell(e.Title), e.StartPage, e.EndPage, e.Confidence)
		}
	}

	if len(res.Findings) > 0 {
		b.WriteString("\n## Findings\n\n")
		for _, f := range res.Findings {
			fmt.Fprintf(&b, "- **%s**: %s\n", f.Kind, f.Message)
		}
	}

	if v := res.Verification; v.Enabled {
		b.WriteString("\n## Verification\n\n")
		fmt.Fprintf(&b, "Provider: %s", v.Provider)
		if v.Degraded {
			b.WriteString(" (degraded)")
		}
		fmt.Fprintf(&b, "  \nChecked %d, verified %d, calls %d, cache hits %d, over budget %d\n",
			v.Checked, v.Verified, v.Calls, v.CacheHits, v.OverBudget)
		for _, warn := range v.Warnings {
			fmt.Fprintf(&b, "- %s\n", warn)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// RenderMarkdown writes the Markdown report to a file
func (r *Renderer) RenderMarkdown(res *model.Result, path string) error {
	return writeFile(path, func(w io.Writer) error { return r.WriteMarkdown(w, res) })
}

// RenderSummary prints a one-screen summary
func (r *Renderer) RenderSummary(w io.Writer, res *model.Result) {
	resolved := canon.ItemCount - res.Stats.Unresolved
	fmt.Fprintf(w, "\n%s: %d/%d items located (primary %d, fallback %d, verified %d)\n",
		res.DocumentID, resolved, canon.ItemCount, res.Stats.Primary, res.Stats.Fallback, res.Stats.Verified)
	if len(res.Exhibits) > 0 {
		fmt.Fprintf(w, "  exhibits: %d\n", len(res.Exhibits))
	}
	if len(res.Stats.TOCPages) > 0 {
		fmt.Fprintf(w, "  table of contents pages skipped: %v\n", res.Stats.TOCPages)
	}
	for _, f := range res.Findings {
		fmt.Fprintf(w, "  ⚠ %s: %s\n", f.Kind, f.Message)
	}
	for _, warn := range res.Verification.Warnings {
		fmt.Fprintf(w, "  ⚠ verifier: %s\n", warn)
	}
}

// documentOrder lists resolved items in the order they occur in the document,
// or returns "" when that order matches item numbering.
func documentOrder(sections []model.SectionMatch) string {
	var nums []string
	prev, sequential := 0, true
	for _, s := range match.Ordered(sections) {
		if !s.IsResolved() {
			continue
		}
		if s.ItemNumber < prev {
			sequential = false
		}
		prev = s.ItemNumber
		nums = append(nums, fmt.Sprint(s.ItemNumber))
	}
	if sequential {
		return ""
	}
	return strings.Join(nums, ", ")
}

func escapeCell(s string) string {
	s = strings.ReplaceAll(s, "|", "\\|")
	return strings.ReplaceAll(s, "\n", " ")
}

func writeFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create output dir: %w", err)
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

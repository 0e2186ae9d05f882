package layout

import (
	"bytes"
	"strconv"
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/ppiankov/fddmap/internal/model"
)

// HTMLLoader reads HTML layout exports. Pages are elements carrying a
// data-page attribute; inside them headings, paragraphs, list items and
// tables become nodes. A data-kind attribute overrides the tag mapping and
// data-left, data-width and data-page-width carry geometry.
type HTMLLoader struct{}

// NewHTMLLoader creates a new HTML loader
func NewHTMLLoader() *HTMLLoader {
	return &HTMLLoader{}
}

// Name returns the loader name
func (l *HTMLLoader) Name() string {
	return "html"
}

// CanHandle accepts .html files and anything that starts with a tag
func (l *HTMLLoader) CanHandle(path string, data []byte) bool {
	if hasExt(path, ".html", ".htm") {
		return true
	}
	return sniff(data) == '<'
}

var tagKinds = map[atom.Atom]model.NodeKind{
	atom.H1:         model.KindTitle,
	atom.H2:         model.KindSectionHeading,
	atom.H3:         model.KindSectionHeading,
	atom.H4:         model.KindSectionHeading,
	atom.H5:         model.KindSectionHeading,
	atom.H6:         model.KindSectionHeading,
	atom.P:          model.KindBody,
	atom.Li:         model.KindListItem,
	atom.Table:      model.KindTable,
	atom.Header:     model.KindPageHeader,
	atom.Footer:     model.KindPageFooter,
	atom.Blockquote: model.KindBody,
}

// Load walks the tree in document order
func (l *HTMLLoader) Load(data []byte) ([]model.LayoutNode, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, model.NewExtractionError(model.CodeMalformedInput, "parse layout HTML", err)
	}

	var nodes []model.LayoutNode
	var walk func(n *html.Node, page int, pageWidth float64)
	walk = func(n *html.Node, page int, pageWidth float64) {
		if n.Type == html.ElementNode {
			if p, ok := intAttr(n, "data-page"); ok {
				page = p
			}
			if pw, ok := floatAttr(n, "data-page-width"); ok {
				pageWidth = pw
			}

			kind, isNode := elementKind(n)
			if isNode {
				text := extractText(n)
				if text != "" {
					node := model.LayoutNode{
						Kind:         kind,
						Text:         text,
						PageNumber:   page,
						OrdinalIndex: len(nodes),
						BBox:         model.BBox{PageWidth: pageWidth},
					}
					node.BBox.Left, _ = floatAttr(n, "data-left")
					node.BBox.Width, _ = floatAttr(n, "data-width")
					nodes = append(nodes, node)
				}
				return
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c, page, pageWidth)
		}
	}
	walk(doc, 1, 0)

	if len(nodes) == 0 {
		return nil, model.ErrEmptyInput
	}
	return nodes, nil
}

// elementKind reports whether the element is a layout node and its kind
func elementKind(n *html.Node) (model.NodeKind, bool) {
	if k := getAttribute(n, "data-kind"); k != "" {
		return NormalizeKind(k), true
	}
	kind, ok := tagKinds[n.DataAtom]
	return kind, ok
}

// extractText joins the text content of a subtree
func extractText(n *html.Node) string {
	if n.Type == html.TextNode {
		// Source line wrapping is not a line break; <br> is
		return strings.Join(strings.Fields(n.Data), " ")
	}
	if n.Type == html.ElementNode && n.DataAtom == atom.Br {
		return "\n"
	}

	var parts []string
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if t := extractText(c); t != "" {
			parts = append(parts, t)
		}
	}
	return strings.Join(parts, " ")
}

func getAttribute(n *html.Node, key string) string {
	for _, attr := range n.Attr {
		if attr.Key == key {
			return attr.Val
		}
	}
	return ""
}

func intAttr(n *html.Node, key string) (int, bool) {
	v := getAttribute(n, key)
	if v == "" {
		return 0, false
	}
	i, err := strconv.Atoi(strings.TrimSpace(v))
	return i, err == nil
}

func floatAttr(n *html.Node, key string) (float64, bool) {
	v := getAttribute(n, key)
	if v == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
	return f, err == nil
}

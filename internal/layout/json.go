package layout

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/ppiankov/fddmap/internal/model"
)

// JSONLoader reads loosely-shaped layout records: a bare array, or an object
// holding the array under "nodes", "elements" or "blocks".
type JSONLoader struct{}

// NewJSONLoader creates a new JSON loader
func NewJSONLoader() *JSONLoader {
	return &JSONLoader{}
}

// Name returns the loader name
func (l *JSONLoader) Name() string {
	return "json"
}

// CanHandle accepts .json files and anything that starts like JSON
func (l *JSONLoader) CanHandle(path string, data []byte) bool {
	if hasExt(path, ".json") {
		return true
	}
	c := sniff(data)
	return c == '[' || c == '{'
}

var recordListKeys = []string{"nodes", "elements", "blocks"}

// Load decodes every record into a layout node
func (l *JSONLoader) Load(data []byte) ([]model.LayoutNode, error) {
	var root interface{}
	if err := json.Unmarshal(data, &root); err != nil {
		return nil, model.NewExtractionError(model.CodeMalformedInput, "decode layout JSON", err)
	}

	var records []interface{}
	switch v := root.(type) {
	case []interface{}:
		records = v
	case map[string]interface{}:
		for _, key := range recordListKeys {
			if list, ok := v[key].([]interface{}); ok {
				records = list
				break
			}
		}
		if records == nil {
			return nil, model.NewExtractionError(model.CodeMalformedInput,
				"layout object has no nodes, elements or blocks array", nil)
		}
	default:
		return nil, model.NewExtractionError(model.CodeMalformedInput, "layout JSON must be an array or object", nil)
	}

	if len(records) == 0 {
		return nil, model.ErrEmptyInput
	}

	nodes := make([]model.LayoutNode, 0, len(records))
	for i, r := range records {
		rec, ok := r.(map[string]interface{})
		if !ok {
			return nil, model.NewExtractionError(model.CodeMalformedInput,
				fmt.Sprintf("record %d is not an object", i), nil)
		}
		node, err := nodeFromRecord(rec)
		if err != nil {
			return nil, model.NewExtractionError(model.CodeMalformedInput,
				fmt.Sprintf("record %d", i), err)
		}
		node.OrdinalIndex = i
		nodes = append(nodes, node)
	}
	return nodes, nil
}

func nodeFromRecord(rec map[string]interface{}) (model.LayoutNode, error) {
	var node model.LayoutNode

	kind, _ := firstString(rec, "type", "kind", "category", "label")
	node.Kind = NormalizeKind(kind)

	node.Text, _ = firstString(rec, "text", "content")

	page, err := recordPage(rec)
	if err != nil {
		return node, err
	}
	node.PageNumber = page

	node.BBox = recordBBox(rec)
	return node, nil
}

// recordPage resolves the 1-based page from the known field spellings
func recordPage(rec map[string]interface{}) (int, error) {
	if n, ok := firstNumber(rec, "page", "page_number", "page_no"); ok {
		return int(n), nil
	}
	if n, ok := firstNumber(rec, "page_idx", "page_index"); ok {
		return int(n) + 1, nil
	}
	if meta, ok := rec["metadata"].(map[string]interface{}); ok {
		if n, ok := firstNumber(meta, "page_number", "page"); ok {
			return int(n), nil
		}
	}
	return 0, fmt.Errorf("missing page number")
}

// recordBBox reads [x0,y0,x1,y1] or {left|x, width} boxes
func recordBBox(rec map[string]interface{}) model.BBox {
	var box model.BBox

	raw, ok := rec["bbox"]
	if !ok {
		raw = rec["box"]
	}
	switch v := raw.(type) {
	case []interface{}:
		if len(v) == 4 {
			x0, _ := toNumber(v[0])
			x1, _ := toNumber(v[2])
			box.Left = math.Min(x0, x1)
			box.Width = math.Abs(x1 - x0)
		}
	case map[string]interface{}:
		if left, ok := firstNumber(v, "left", "x", "x0"); ok {
			box.Left = left
		}
		if w, ok := firstNumber(v, "width", "w"); ok {
			box.Width = w
		} else if x1, ok := firstNumber(v, "x1", "right"); ok {
			box.Width = x1 - box.Left
		}
		if pw, ok := firstNumber(v, "page_width"); ok {
			box.PageWidth = pw
		}
	}

	if pw, ok := firstNumber(rec, "page_width"); ok {
		box.PageWidth = pw
	}
	if box.PageWidth == 0 {
		if meta, ok := rec["metadata"].(map[string]interface{}); ok {
			if pw, ok := firstNumber(meta, "page_width"); ok {
				box.PageWidth = pw
			}
		}
	}
	if box.PageWidth == 0 {
		if size, ok := rec["page_size"].(map[string]interface{}); ok {
			if pw, ok := firstNumber(size, "width"); ok {
				box.PageWidth = pw
			}
		}
	}
	return box
}

var kindSynonyms = map[string]model.NodeKind{
	"section_heading": model.KindSectionHeading,
	"section-header":  model.KindSectionHeading,
	"section_header":  model.KindSectionHeading,
	"sectionheader":   model.KindSectionHeading,
	"heading":         model.KindSectionHeading,
	"title":           model.KindTitle,
	"text":            model.KindBody,
	"body":            model.KindBody,
	"paragraph":       model.KindBody,
	"narrativetext":   model.KindBody,
	"table":           model.KindTable,
	"list_item":       model.KindListItem,
	"list-item":       model.KindListItem,
	"listitem":        model.KindListItem,
	"page_header":     model.KindPageHeader,
	"page-header":     model.KindPageHeader,
	"page_footer":     model.KindPageFooter,
	"page-footer":     model.KindPageFooter,
	"footer":          model.KindPageFooter,
}

// NormalizeKind maps the kind spellings of common layout services onto NodeKind
func NormalizeKind(kind string) model.NodeKind {
	k := strings.ToLower(strings.TrimSpace(kind))
	if nk, ok := kindSynonyms[k]; ok {
		return nk
	}
	return model.KindOther
}

func firstString(rec map[string]interface{}, keys ...string) (string, bool) {
	for _, k := range keys {
		if s, ok := rec[k].(string); ok {
			return s, true
		}
	}
	return "", false
}

func firstNumber(rec map[string]interface{}, keys ...string) (float64, bool) {
	for _, k := range keys {
		if v, ok := rec[k]; ok {
			if n, ok := toNumber(v); ok {
				return n, true
			}
		}
	}
	return 0, false
}

func toNumber(v interface{}) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(n), 64)
		return f, err == nil
	}
	return 0, false
}

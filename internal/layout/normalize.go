package layout

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/ppiankov/fddmap/internal/label"
	"github.com/ppiankov/fddmap/internal/model"
)

// Normalize builds a document from decoded nodes. Text is normalized with
// line breaks kept, and nodes are ordered by page, then ordinal. Caller
// ordinals are preserved and must be unique, non-negative and agree with page
// order. A sequence that carries no ordinals (all zero) is numbered by
// position after ordering by page. An empty id gets a random one.
func Normalize(id, source string, nodes []model.LayoutNode) (*model.Document, error) {
	if len(nodes) == 0 {
		return nil, model.ErrEmptyInput
	}

	out := make([]model.LayoutNode, len(nodes))
	copy(out, nodes)

	numbered := false
	for i := range out {
		if out[i].PageNumber < 1 {
			return nil, malformed("node %d has page %d", i, out[i].PageNumber)
		}
		if out[i].OrdinalIndex < 0 {
			return nil, malformed("node %d has ordinal %d", i, out[i].OrdinalIndex)
		}
		if out[i].OrdinalIndex != 0 {
			numbered = true
		}
		out[i].Text = label.NormalizeBlock(out[i].Text)
		if out[i].Kind == "" {
			out[i].Kind = model.KindOther
		}
	}

	if !numbered {
		sort.SliceStable(out, func(i, j int) bool {
			return out[i].PageNumber < out[j].PageNumber
		})
		for i := range out {
			out[i].OrdinalIndex = i
		}
	} else if err := orderByOrdinal(out); err != nil {
		return nil, err
	}

	if id == "" {
		id = uuid.NewString()
	}

	return &model.Document{
		ID:          id,
		Source:      source,
		Fingerprint: Fingerprint(out),
		Nodes:       out,
	}, nil
}

// orderByOrdinal sorts nodes by page, then ordinal, and rejects duplicate
// ordinals or ordinals that run against page order
func orderByOrdinal(nodes []model.LayoutNode) error {
	sort.SliceStable(nodes, func(i, j int) bool {
		if nodes[i].PageNumber != nodes[j].PageNumber {
			return nodes[i].PageNumber < nodes[j].PageNumber
		}
		return nodes[i].OrdinalIndex < nodes[j].OrdinalIndex
	})
	for i := 1; i < len(nodes); i++ {
		prev, cur := nodes[i-1], nodes[i]
		switch {
		case cur.OrdinalIndex == prev.OrdinalIndex:
			return malformed("duplicate ordinal %d", cur.OrdinalIndex)
		case cur.OrdinalIndex < prev.OrdinalIndex:
			return malformed("ordinal %d on page %d precedes ordinal %d on page %d",
				cur.OrdinalIndex, cur.PageNumber, prev.OrdinalIndex, prev.PageNumber)
		}
	}
	return nil
}

func malformed(format string, args ...interface{}) error {
	return model.NewExtractionError(model.CodeMalformedInput, fmt.Sprintf(format, args...), nil)
}

// Fingerprint hashes the page and text of every node in order
func Fingerprint(nodes []model.LayoutNode) string {
	h := sha256.New()
	var b strings.Builder
	for _, n := range nodes {
		b.Reset()
		fmt.Fprintf(&b, "%d\x1f%s\n", n.PageNumber, n.Text)
		_, _ = h.Write([]byte(b.String()))
	}
	return hex.EncodeToString(h.Sum(nil))
}

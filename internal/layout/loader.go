// Package layout turns layout-analysis exports into normalized documents.
package layout

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/fddmap/internal/model"
)

// Loader decodes one export format into layout nodes
type Loader interface {
	// Name returns the loader name
	Name() string

	// CanHandle checks if this loader understands the file
	CanHandle(path string, data []byte) bool

	// Load decodes the raw export
	Load(data []byte) ([]model.LayoutNode, error)
}

// Registry picks a loader for a file
type Registry struct {
	loaders []Loader
}

// NewRegistry creates a registry with the built-in JSON and HTML loaders
func NewRegistry() *Registry {
	r := &Registry{}
	r.Register(NewJSONLoader())
	r.Register(NewHTMLLoader())
	return r
}

// Register registers a new loader. Later registrations are tried last.
func (r *Registry) Register(l Loader) {
	r.loaders = append(r.loaders, l)
}

// Find returns the first loader that can handle the file
func (r *Registry) Find(path string, data []byte) (Loader, error) {
	for _, l := range r.loaders {
		if l.CanHandle(path, data) {
			return l, nil
		}
	}
	return nil, model.NewExtractionError(model.CodeUnsupportedFormat,
		fmt.Sprintf("no loader for %s", filepath.Base(path)), nil)
}

// Extensions lists the file extensions the built-in loaders accept
func Extensions() []string {
	return []string{".json", ".html", ".htm"}
}

// LoadFile reads, decodes and normalizes a layout file
func (r *Registry) LoadFile(path string) (*model.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.NewExtractionError(model.CodeReadFailed, "read layout file", err)
	}
	return r.LoadBytes(path, data)
}

// LoadBytes decodes and normalizes an in-memory export. name is used for
// format detection and as the document source.
func (r *Registry) LoadBytes(name string, data []byte) (*model.Document, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, model.ErrEmptyInput
	}

	l, err := r.Find(name, data)
	if err != nil {
		return nil, err
	}

	nodes, err := l.Load(data)
	if err != nil {
		return nil, err
	}

	// Exports carry no ordinals of their own; records are numbered in page order
	sort.SliceStable(nodes, func(i, j int) bool {
		return nodes[i].PageNumber < nodes[j].PageNumber
	})
	for i := range nodes {
		nodes[i].OrdinalIndex = i
	}

	id := strings.TrimSuffix(filepath.Base(name), filepath.Ext(name))
	return Normalize(id, name, nodes)
}

func hasExt(path string, exts ...string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

// sniff returns the first non-space byte of data
func sniff(data []byte) byte {
	trimmed := bytes.TrimLeft(data, " \t\r\n\ufeff")
	if len(trimmed) == 0 {
		return 0
	}
	return trimmed[0]
}

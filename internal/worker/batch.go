package worker

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ppiankov/fddmap/internal/model"
)

// Processor maps one layout file to a section map
type Processor interface {
	ProcessFile(ctx context.Context, path string) (*model.Result, error)
}

// DocumentJob represents one file in a batch
type DocumentJob struct {
	Index     int
	Path      string
	Processor Processor
}

// Execute executes the document job
func (j *DocumentJob) Execute(ctx context.Context) Result {
	result, err := j.Processor.ProcessFile(ctx, j.Path)
	return &DocumentResult{
		Index:  j.Index,
		Path:   j.Path,
		Result: result,
		Error:  err,
	}
}

// DocumentResult represents the outcome of one document job
type DocumentResult struct {
	Index  int
	Path   string
	Result *model.Result
	Error  error
}

// GetError returns the error from the document result
func (r *DocumentResult) GetError() error {
	return r.Error
}

// BatchProcessor processes multiple documents concurrently
type BatchProcessor struct {
	processor   Processor
	concurrency int
}

// NewBatchProcessor creates a new batch processor
func NewBatchProcessor(processor Processor, concurrency int) *BatchProcessor {
	return &BatchProcessor{
		processor:   processor,
		concurrency: concurrency,
	}
}

// ProcessPaths processes the files concurrently and returns results in input order
func (b *BatchProcessor) ProcessPaths(ctx context.Context, paths []string) []*DocumentResult {
	if len(paths) == 0 {
		return []*DocumentResult{}
	}

	pool := NewPoolWithContext(ctx, b.concurrency)
	pool.Start()

	for i, path := range paths {
		pool.Submit(&DocumentJob{
			Index:     i,
			Path:      path,
			Processor: b.processor,
		})
	}

	results := pool.Wait()

	docResults := make([]*DocumentResult, 0, len(paths))
	done := make(map[int]bool, len(results))
	for _, result := range results {
		r := result.(*DocumentResult)
		done[r.Index] = true
		docResults = append(docResults, r)
	}

	// Jobs dropped or left queued on cancellation still get a result
	for i, path := range paths {
		if !done[i] {
			docResults = append(docResults, &DocumentResult{Index: i, Path: path, Error: notRun(ctx)})
		}
	}
	sort.Slice(docResults, func(i, j int) bool {
		return docResults[i].Index < docResults[j].Index
	})

	return docResults
}

func notRun(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("not processed: %w", err)
	}
	return errors.New("not processed")
}

// ReadPathsFromFile reads document paths from a file (one per line).
// Relative paths are resolved against the list file's directory.
func ReadPathsFromFile(filePath string) ([]string, error) {
	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	base := filepath.Dir(filePath)
	var paths []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		// Skip empty lines and comments
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if !filepath.IsAbs(line) {
			line = filepath.Join(base, line)
		}

		if !seen[line] {
			seen[line] = true
			paths = append(paths, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan file: %w", err)
	}

	return paths, nil
}

// ExpandInputs turns files and directories into a sorted, deduplicated list
// of files whose extension is in exts. Directories are scanned one level deep.
func ExpandInputs(inputs []string, exts []string) ([]string, error) {
	allowed := make(map[string]bool, len(exts))
	for _, ext := range exts {
		allowed[strings.ToLower(ext)] = true
	}

	seen := make(map[string]bool)
	var out []string
	add := func(p string) {
		if !seen[p] {
			seen[p] = true
			out = append(out, p)
		}
	}

	for _, in := range inputs {
		info, err := os.Stat(in)
		if err != nil {
			return nil, fmt.Errorf("stat %s: %w", in, err)
		}
		if !info.IsDir() {
			add(in)
			continue
		}

		entries, err := os.ReadDir(in)
		if err != nil {
			return nil, fmt.Errorf("read dir %s: %w", in, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || !allowed[strings.ToLower(filepath.Ext(e.Name()))] {
				continue
			}
			found = append(found, filepath.Join(in, e.Name()))
		}
		sort.Strings(found)
		for _, p := range found {
			add(p)
		}
	}

	return out, nil
}

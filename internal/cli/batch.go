package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/fddmap/internal/cache"
	"github.com/ppiankov/fddmap/internal/canon"
	"github.com/ppiankov/fddmap/internal/layout"
	"github.com/ppiankov/fddmap/internal/logging"
	"github.com/ppiankov/fddmap/internal/metrics"
	"github.com/ppiankov/fddmap/internal/model"
	"github.com/ppiankov/fddmap/internal/pipeline"
	"github.com/ppiankov/fddmap/internal/worker"
)

var (
	batchFlags   engineFlags
	concurrency  int
	outputDir    string
	listFile     string
	metricsFile  string
	batchTimeout time.Duration
)

// batchCmd represents the batch command
var batchCmd = &cobra.Command{
	Use:   "batch [files or directories...]",
	Short: "Resolve many layout exports in parallel",
	Long: `Batch processes layout exports concurrently:
- Inputs are files, directories (scanned one level deep) or a --list file
- Documents are processed by a fixed worker pool
- All documents share one verification budget and verdict cache
- A JSON and a Markdown section map is written per document

Example:
  fddmap batch ./exports
  fddmap batch --list fdds.txt --concurrency 8 --output-dir ./maps
  fddmap batch ./exports --verify --max-calls 50 --metrics-file fddmap.prom`,
	RunE: runBatch,
}

func init() {
	rootCmd.AddCommand(batchCmd)

	batchCmd.Flags().IntVar(&concurrency, "concurrency", runtime.NumCPU(), "number of concurrent workers")
	batchCmd.Flags().StringVar(&outputDir, "output-dir", "./fddmap-reports", "output directory for section maps")
	batchCmd.Flags().StringVar(&listFile, "list", "", "file listing layout exports, one per line")
	batchCmd.Flags().StringVar(&metricsFile, "metrics-file", "", "write Prometheus metrics in textfile format when done")
	batchCmd.Flags().DurationVar(&batchTimeout, "timeout", 10*time.Minute, "total timeout for batch processing")
	batchFlags.register(batchCmd)
}

func runBatch(cmd *cobra.Command, args []string) error {
	if len(args) == 0 && listFile == "" {
		return fmt.Errorf("no inputs: pass files, directories or --list")
	}

	ctx, cancel := context.WithTimeout(cmd.Context(), batchTimeout)
	defer cancel()

	cfg, err := engineConfig(cmd, &batchFlags)
	if err != nil {
		return err
	}
	if cmd.Flags().Changed("concurrency") {
		cfg.Concurrency.Workers = concurrency
	}

	paths, err := collectInputs(args, listFile)
	if err != nil {
		return err
	}

	stderr := cmd.ErrOrStderr()
	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Documents:    %d\n", len(paths))
	fmt.Fprintf(stderr, "  Workers:      %d\n", cfg.Concurrency.Workers)
	fmt.Fprintf(stderr, "  Output dir:   %s\n", outputDir)
	if cfg.Verify.Enabled {
		fmt.Fprintf(stderr, "  Verifier:     %s (budget %d calls)\n", providerLabel(cfg), cfg.Verify.MaxCalls)
	}
	fmt.Fprintf(stderr, "\n")

	if err := os.MkdirAll(outputDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, pipeline.Options{Logger: appLogger})
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	processor := worker.NewBatchProcessor(p, cfg.Concurrency.Workers)
	results := processor.ProcessPaths(ctx, paths)

	renderer := pipeline.NewRenderer(cfg.Output.Pretty)
	slugs := outputSlugs(results)
	success, failure := 0, 0
	for _, r := range results {
		if r.Error != nil {
			failure++
			fmt.Fprintf(stderr, "✗ %s: %v\n", r.Path, r.Error)
			continue
		}
		if err := writeOutputs(renderer, r.Result, outputDir, slugs[r.Index]); err != nil {
			failure++
			fmt.Fprintf(stderr, "✗ %s: %v\n", r.Path, err)
			continue
		}
		success++
		fmt.Fprintf(stderr, "✓ %s -> %s (%d/%d items, %d findings)\n",
			r.Path, slugs[r.Index], canon.ItemCount-r.Result.Stats.Unresolved, canon.ItemCount, len(r.Result.Findings))
	}

	if s := p.Session(); s != nil {
		appLogger.Info("verification session finished",
			logging.String("provider", s.ProviderName()),
			logging.Int("calls", s.Calls()),
		)
	}

	if metricsFile != "" {
		if err := metrics.WriteTextfile(metricsFile); err != nil {
			return err
		}
	}

	fmt.Fprintf(stderr, "\n")
	fmt.Fprintf(stderr, "  Total:     %d documents\n", len(results))
	fmt.Fprintf(stderr, "  Success:   %d\n", success)
	fmt.Fprintf(stderr, "  Failures:  %d\n", failure)
	fmt.Fprintf(stderr, "  Output:    %s\n", outputDir)
	fmt.Fprintf(stderr, "\n")

	return nil
}

// collectInputs returns list entries followed by expanded arguments, each
// path once
func collectInputs(args []string, list string) ([]string, error) {
	var paths []string
	seen := make(map[string]bool)
	add := func(ps []string) {
		for _, p := range ps {
			if key := filepath.Clean(p); !seen[key] {
				seen[key] = true
				paths = append(paths, p)
			}
		}
	}
	if list != "" {
		listed, err := worker.ReadPathsFromFile(list)
		if err != nil {
			return nil, fmt.Errorf("read list: %w", err)
		}
		add(listed)
	}
	if len(args) > 0 {
		expanded, err := worker.ExpandInputs(args, layout.Extensions())
		if err != nil {
			return nil, err
		}
		add(expanded)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no layout exports found")
	}
	return paths, nil
}

// outputSlugs names the outputs of every successful document. IDs come from
// file basenames, so a/fdd.json and b/fdd.json, or x.json and x.html, share
// one; later documents then get a suffix derived from their path.
func outputSlugs(results []*worker.DocumentResult) map[int]string {
	slugs := make(map[int]string, len(results))
	used := make(map[string]bool, len(results))
	for _, r := range results {
		if r.Error != nil || r.Result == nil {
			continue
		}
		slug := sanitizeFilename(r.Result.DocumentID)
		// Output directories may be case-insensitive
		if used[strings.ToLower(slug)] {
			slug = slug + "-" + cache.HashText(r.Path)[:8]
		}
		used[strings.ToLower(slug)] = true
		slugs[r.Index] = slug
	}
	return slugs
}

// writeOutputs writes <slug>.sections.json and <slug>.sections.md into dir
func writeOutputs(renderer *pipeline.Renderer, res *model.Result, dir, slug string) error {
	if err := renderer.RenderJSON(res, filepath.Join(dir, slug+".sections.json")); err != nil {
		return fmt.Errorf("write JSON: %w", err)
	}
	if err := renderer.RenderMarkdown(res, filepath.Join(dir, slug+".sections.md")); err != nil {
		return fmt.Errorf("write Markdown: %w", err)
	}
	return nil
}

func providerLabel(cfg *model.Config) string {
	if cfg.LLM.Provider == "" {
		return "heuristic"
	}
	if cfg.LLM.Model == "" {
		return cfg.LLM.Provider
	}
	return cfg.LLM.Provider + "/" + cfg.LLM.Model
}

var filenameReplacer = strings.NewReplacer(
	"/", "_",
	"\\", "_",
	":", "_",
	"*", "_",
	"?", "_",
	"\"", "_",
	"<", "_",
	">", "_",
	"|", "_",
	" ", "-",
)

// sanitizeFilename sanitizes a string for use as a filename
func sanitizeFilename(s string) string {
	s = filenameReplacer.Replace(strings.TrimSpace(s))
	if s == "" || s == "." || s == ".." {
		s = "document"
	}
	if len(s) > 100 {
		s = s[:100]
	}
	return s
}

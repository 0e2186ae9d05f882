package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/ppiankov/fddmap/internal/logging"
	"github.com/ppiankov/fddmap/internal/pipeline"
)

var (
	mapFlags   engineFlags
	outJSON    string
	outMD      string
	mapTimeout time.Duration
)

// mapCmd resolves a single layout export
var mapCmd = &cobra.Command{
	Use:   "map <layout-file>",
	Short: "Resolve the 23 Items of one layout export",
	Long: `Map reads one layout export (JSON records or annotated HTML) and:
- Filters heading candidates and reassembles split headers
- Scores candidates against the 23 canonical Item titles
- Assigns matches greedily, then recovers missed Items from page windows
- Infers section and exhibit boundaries
- Reports structural findings
- Optionally verifies low-confidence matches

Without --json or --md the JSON result is written to stdout.

Example:
  fddmap map acme-fdd.json
  fddmap map acme-fdd.json --json acme.sections.json --md acme.sections.md
  fddmap map acme-fdd.html --verify --llm-provider anthropic`,
	Args: cobra.ExactArgs(1),
	RunE: runMap,
}

func init() {
	rootCmd.AddCommand(mapCmd)

	mapCmd.Flags().StringVar(&outJSON, "json", "", "output JSON path")
	mapCmd.Flags().StringVar(&outMD, "md", "", "output Markdown path (optional)")
	mapCmd.Flags().DurationVar(&mapTimeout, "timeout", 2*time.Minute, "overall timeout")
	mapFlags.register(mapCmd)
}

func runMap(cmd *cobra.Command, args []string) error {
	path := args[0]
	ctx, cancel := context.WithTimeout(cmd.Context(), mapTimeout)
	defer cancel()

	cfg, err := engineConfig(cmd, &mapFlags)
	if err != nil {
		return err
	}

	p, err := pipeline.NewPipeline(cfg, pipeline.Options{Logger: appLogger})
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}

	result, err := p.ProcessFile(ctx, path)
	if err != nil {
		return fmt.Errorf("map %s: %w", path, err)
	}

	appLogger.Info("document mapped",
		logging.String("path", path),
		logging.Int("primary", result.Stats.Primary),
		logging.Int("fallback", result.Stats.Fallback),
		logging.Int("unresolved", result.Stats.Unresolved),
	)

	renderer := pipeline.NewRenderer(cfg.Output.Pretty)
	if outJSON == "" && outMD == "" {
		if err := renderer.WriteJSON(cmd.OutOrStdout(), result); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if outJSON != "" {
		if err := renderer.RenderJSON(result, outJSON); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}
	if outMD != "" {
		if err := renderer.RenderMarkdown(result, outMD); err != nil {
			return fmt.Errorf("render failed: %w", err)
		}
	}

	if cfg.Output.Verbose {
		renderer.RenderSummary(os.Stderr, result)
	}
	return nil
}

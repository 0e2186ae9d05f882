package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/cobra"

	"github.com/ppiankov/fddmap/internal/layout"
	"github.com/ppiankov/fddmap/internal/logging"
	"github.com/ppiankov/fddmap/internal/pipeline"
)

var (
	watchFlags  engineFlags
	watchOutDir string
	watchSettle time.Duration
)

// watchCmd maps layout exports as they land in a directory
var watchCmd = &cobra.Command{
	Use:   "watch <dir>",
	Short: "Map layout exports as they appear in a directory",
	Long: `Watch monitors a directory and maps every layout export that is created
or rewritten there. A file is processed once it has been quiet for the
settle interval, so exports written in several chunks are read whole.

Example:
  fddmap watch ./incoming --output-dir ./maps
  fddmap watch ./incoming --verify --settle 2s`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	watchCmd.Flags().StringVar(&watchOutDir, "output-dir", "./fddmap-reports", "output directory for section maps")
	watchCmd.Flags().DurationVar(&watchSettle, "settle", 500*time.Millisecond, "quiet period before a changed file is processed")
	watchFlags.register(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	dir := args[0]

	cfg, err := engineConfig(cmd, &watchFlags)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(watchOutDir, 0o755); err != nil {
		return fmt.Errorf("create output directory: %w", err)
	}

	p, err := pipeline.NewPipeline(cfg, pipeline.Options{Logger: appLogger})
	if err != nil {
		return fmt.Errorf("create pipeline: %w", err)
	}
	renderer := pipeline.NewRenderer(cfg.Output.Pretty)
	logger := appLogger.Named("watch")

	fmt.Fprintf(cmd.ErrOrStderr(), "Watching %s (output: %s)\n", dir, watchOutDir)

	return watchDir(cmd.Context(), dir, watchSettle, logger, func(ctx context.Context, path string) {
		res, err := p.ProcessFile(ctx, path)
		if err != nil {
			logger.Warn("map failed", logging.String("path", path), logging.Err(err))
			return
		}
		if err := writeOutputs(renderer, res, watchOutDir, sanitizeFilename(res.DocumentID)); err != nil {
			logger.Warn("write failed", logging.String("path", path), logging.Err(err))
			return
		}
		logger.Info("document mapped",
			logging.String("path", path),
			logging.Int("unresolved", res.Stats.Unresolved),
			logging.Int("findings", len(res.Findings)),
		)
	})
}

// watchDir calls handle for every layout file in dir that is created or
// written, once no further events for it arrive within settle. It returns
// when ctx is cancelled.
func watchDir(ctx context.Context, dir string, settle time.Duration, logger logging.Logger, handle func(context.Context, string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer func() { _ = w.Close() }()

	if err := w.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	exts := layout.Extensions()
	pending := make(map[string]time.Time)

	tick := settle / 2
	if tick <= 0 {
		tick = 10 * time.Millisecond
	}
	ticker := time.NewTicker(tick)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if !ev.Has(fsnotify.Create) && !ev.Has(fsnotify.Write) {
				continue
			}
			if !hasLayoutExt(ev.Name, exts) {
				continue
			}
			pending[ev.Name] = time.Now()

		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Warn("watch error", logging.Err(err))

		case now := <-ticker.C:
			for path, last := range pending {
				if now.Sub(last) < settle {
					continue
				}
				delete(pending, path)
				if info, err := os.Stat(path); err != nil || info.IsDir() {
					continue
				}
				handle(ctx, path)
			}
		}
	}
}

func hasLayoutExt(path string, exts []string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range exts {
		if ext == e {
			return true
		}
	}
	return false
}

package pipeline

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/ppiankov/fddmap/internal/cache"
	"github.com/ppiankov/fddmap/internal/extract"
	"github.com/ppiankov/fddmap/internal/layout"
	"github.com/ppiankov/fddmap/internal/llm"
	"github.com/ppiankov/fddmap/internal/logging"
	"github.com/ppiankov/fddmap/internal/match"
	"github.com/ppiankov/fddmap/internal/metrics"
	"github.com/ppiankov/fddmap/internal/model"
	"github.com/ppiankov/fddmap/internal/score"
	"github.com/ppiankov/fddmap/internal/validate"
	"github.com/ppiankov/fddmap/internal/verify"
	"github.com/ppiankov/fddmap/internal/worker"
)

// Options injects collaborators; zero values are built from configuration
type Options struct {
	Logger     logging.Logger
	Registry   *layout.Registry
	Similarity score.Similarity
	Provider   llm.Provider
	Session    *verify.Session
}

// Pipeline orchestrates the section resolution stages for one document at a time.
// A Pipeline is safe for concurrent use; the verification session it holds is
// shared by every document it processes.
type Pipeline struct {
	config    *model.Config
	logger    logging.Logger
	registry  *layout.Registry
	scorer    *score.Scorer
	validator *validate.Validator
	session   *verify.Session
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(cfg *model.Config, opts Options) (*Pipeline, error) {
	logger := opts.Logger
	if logger == nil {
		logger = logging.Default()
	}
	logger = logger.Named("pipeline")

	registry := opts.Registry
	if registry == nil {
		registry = layout.NewRegistry()
	}

	sim := opts.Similarity
	if sim == nil {
		var err error
		sim, err = newSimilarity(cfg, logger)
		if err != nil {
			return nil, err
		}
	}

	session := opts.Session
	if session == nil && cfg.Verify.Enabled {
		var err error
		session, err = NewSession(cfg, opts.Provider, logger)
		if err != nil {
			return nil, err
		}
	}

	return &Pipeline{
		config:    cfg,
		logger:    logger,
		registry:  registry,
		scorer:    score.NewScorer(sim, score.WeightsFromConfig(cfg.Matching)),
		validator: validate.NewValidator(),
		session:   session,
	}, nil
}

// NewSession builds the verification session for a run. When provider is nil
// one is created from the LLM configuration; a missing credential yields a
// session in degraded heuristic mode.
func NewSession(cfg *model.Config, provider llm.Provider, logger logging.Logger) (*verify.Session, error) {
	if provider == nil {
		p, err := llm.NewProvider(llm.ConfigFromModel(cfg.LLM))
		if err != nil {
			return nil, fmt.Errorf("create verification provider: %w", err)
		}
		provider = p
	}
	if provider == nil {
		logger.Warn("no verification backend credential, verifier runs in heuristic mode",
			logging.String("provider", cfg.LLM.Provider))
	}

	dir := ""
	if cfg.Cache.Enabled {
		dir = cfg.Cache.Dir
	}

	return verify.NewSession(
		provider,
		cache.New(dir, cfg.Cache.TTL),
		worker.NewLimiter(cfg.Verify.RequestsPerSecond, cfg.Verify.Burst),
		verify.OptionsFromConfig(cfg),
		logger,
	), nil
}

func newSimilarity(cfg *model.Config, logger logging.Logger) (score.Similarity, error) {
	if cfg.Matching.Strategy != "embedding" {
		return score.NewTokenSet(), nil
	}

	provider := strings.ToLower(cfg.LLM.Provider)
	if provider != "" && provider != "openai" {
		return nil, fmt.Errorf("embedding strategy requires the openai provider, got %q", cfg.LLM.Provider)
	}
	embedder, err := score.NewOpenAIEmbedder(cfg.LLM.APIKey, cfg.LLM.BaseURL, cfg.Matching.EmbeddingModel)
	if err != nil {
		logger.Warn("embedding strategy unavailable, using token_set", logging.Err(err))
		return score.NewTokenSet(), nil
	}
	return score.NewEmbedding(embedder), nil
}

// Session returns the verification session, or nil when verification is off
func (p *Pipeline) Session() *verify.Session {
	return p.session
}

// ProcessFile loads a layout file and resolves its sections
func (p *Pipeline) ProcessFile(ctx context.Context, path string) (*model.Result, error) {
	start := time.Now()
	doc, err := p.registry.LoadFile(path)
	if err != nil {
		metrics.ObserveDocument(err, time.Since(start))
		return nil, err
	}
	return p.Resolve(ctx, doc)
}

// ResolveNodes normalizes an in-memory node sequence and resolves it
func (p *Pipeline) ResolveNodes(ctx context.Context, id string, nodes []model.LayoutNode) (*model.Result, error) {
	doc, err := layout.Normalize(id, "", nodes)
	if err != nil {
		metrics.ObserveDocument(err, 0)
		return nil, err
	}
	return p.Resolve(ctx, doc)
}

// Resolve runs every stage over a normalized document. Only empty or
// malformed input is returned as an error; everything else is reported in
// the result.
func (p *Pipeline) Resolve(ctx context.Context, doc *model.Document) (*model.Result, error) {
	start := time.Now()
	if doc == nil || len(doc.Nodes) == 0 {
		metrics.ObserveDocument(model.ErrEmptyInput, time.Since(start))
		return nil, model.ErrEmptyInput
	}

	cfg := p.config.Matching
	nodes := doc.Nodes
	logger := p.logger.With(logging.String("document", doc.ID))

	// 1. Table-of-contents pages never yield matches
	var toc map[int]bool
	if cfg.SkipTOC {
		toc = extract.DetectTOCPages(nodes, cfg.TOCMinLabels)
	}

	// 2. Candidates and split-header reassembly
	candidates := extract.NewFilter(cfg.IncludeTitles, toc).Candidates(nodes)
	candidates, merged := extract.Reassemble(nodes, candidates)

	// 3. Warm the similarity strategy
	if err := p.scorer.Prepare(ctx, prepareTexts(nodes, candidates)); err != nil {
		logger.Warn("similarity preparation failed, falling back to token_set for unseen texts",
			logging.String("strategy", p.scorer.Strategy()), logging.Err(err))
	}

	// 4. Primary greedy assignment
	assignment := match.NewMatcher(p.scorer, cfg.PrimaryThreshold, cfg.TieEpsilon).Match(candidates)
	primary := len(assignment.Matches)

	// 5. Page-window fallback for the rest
	recovered := match.NewFallbackResolver(p.scorer, cfg.FallbackThreshold, cfg.PrimaryThreshold, cfg.TieEpsilon, toc).
		Resolve(nodes, assignment)

	// 6. Boundaries
	sections := match.Sections(assignment)
	match.ResolveBoundaries(sections, nodes)

	var exhibits []model.ExhibitMatch
	if cfg.Exhibits {
		after := -1
		if s23 := sections[len(sections)-1]; s23.IsResolved() {
			after = s23.StartNodeIndex
		}
		exhibits = extract.DetectExhibits(nodes, after, toc)
		match.ResolveExhibitBoundaries(exhibits, nodes)
	}

	// 7. Structural validation
	findings := p.validator.Validate(sections)

	// 8. Optional escalation of low-confidence entries
	var report model.VerificationReport
	if p.session != nil {
		report = p.session.Verify(ctx, doc, sections)
	}

	result := &model.Result{
		DocumentID:   doc.ID,
		Source:       doc.Source,
		ProcessedAt:  time.Now().UTC(),
		Sections:     sections,
		Exhibits:     exhibits,
		Findings:     findings,
		Verification: report,
		Stats: model.Stats{
			Nodes:      len(nodes),
			Pages:      doc.PageCount(),
			Candidates: len(candidates),
			Merged:     merged,
			TOCPages:   extract.SortedPages(toc),
			Primary:    primary,
			Fallback:   recovered,
		},
	}
	for _, s := range sections {
		switch {
		case s.Method == model.MethodVerified:
			result.Stats.Verified++
		case !s.IsResolved():
			result.Stats.Unresolved++
		}
	}
	result.Stats.Duration = time.Since(start)

	logger.Debug("document resolved",
		logging.Int("nodes", result.Stats.Nodes),
		logging.Int("candidates", result.Stats.Candidates),
		logging.Int("merged", merged),
		logging.Int("toc_pages", len(result.Stats.TOCPages)),
		logging.Int("primary", primary),
		logging.Int("fallback", recovered),
		logging.Int("unresolved", result.Stats.Unresolved),
		logging.Int("findings", len(findings)),
		logging.Duration("elapsed", result.Stats.Duration),
	)

	metrics.ObserveResult(result)
	metrics.ObserveDocument(nil, result.Stats.Duration)
	return result, nil
}

// prepareTexts lists every distinct text the scorer may be asked to compare
func prepareTexts(nodes []model.LayoutNode, candidates []model.Candidate) []string {
	seen := make(map[string]bool)
	var out []string
	add := func(s string) {
		if s != "" && !seen[s] {
			seen[s] = true
			out = append(out, s)
		}
	}
	for _, c := range candidates {
		add(c.Node.Text)
	}
	for _, n := range nodes {
		add(n.Text)
	}
	return out
}

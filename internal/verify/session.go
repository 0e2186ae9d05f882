// Package verify escalates low-confidence section matches to a
// natural-language backend, one request per page, under a call budget.
package verify

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/ppiankov/fddmap/internal/cache"
	"github.com/ppiankov/fddmap/internal/llm"
	"github.com/ppiankov/fddmap/internal/logging"
	"github.com/ppiankov/fddmap/internal/metrics"
	"github.com/ppiankov/fddmap/internal/model"
	"github.com/ppiankov/fddmap/internal/util"
	"github.com/ppiankov/fddmap/internal/worker"
)

const (
	reasonNoBackend = "no verification backend configured"
	reasonBudget    = "verification call budget exhausted"
	reasonMissing   = "item missing from backend response"
)

var errBudget = errors.New(reasonBudget)

// Options tunes a verification session
type Options struct {
	Floor        float64
	MaxCalls     int
	ExcerptChars int
	Timeout      time.Duration
	CacheTTL     time.Duration
	Model        string
	MaxTokens    int
}

// OptionsFromConfig builds session options from configuration
func OptionsFromConfig(cfg *model.Config) Options {
	return Options{
		Floor:        cfg.Verify.ConfidenceFloor,
		MaxCalls:     cfg.Verify.MaxCalls,
		ExcerptChars: cfg.Verify.ExcerptChars,
		Timeout:      cfg.Verify.Timeout,
		CacheTTL:     cfg.Cache.TTL,
		Model:        cfg.LLM.Model,
		MaxTokens:    cfg.LLM.MaxTokens,
	}
}

// Session holds verifier state for one batch run: the verdict cache and the
// call budget. It is safe for concurrent use by several documents.
type Session struct {
	provider llm.Provider
	cache    cache.Cache
	limiter  *worker.Limiter
	opts     Options
	logger   logging.Logger
	group    singleflight.Group

	mu    sync.Mutex
	calls int
}

// NewSession creates a verification session. A nil provider runs the
// session in degraded mode where every verdict comes from Heuristic.
func NewSession(provider llm.Provider, c cache.Cache, limiter *worker.Limiter, opts Options, logger logging.Logger) *Session {
	if c == nil {
		c = cache.NewMemoryCache(opts.CacheTTL, 10*time.Minute)
	}
	if limiter == nil {
		limiter = worker.NewLimiter(0, 1)
	}
	if logger == nil {
		logger = logging.NewNopLogger()
	}
	return &Session{
		provider: provider,
		cache:    c,
		limiter:  limiter,
		opts:     opts,
		logger:   logger.Named("verify"),
	}
}

// Degraded reports whether the session runs without a backend
func (s *Session) Degraded() bool {
	return s.provider == nil
}

// ProviderName returns the backend name, or "heuristic" in degraded mode
func (s *Session) ProviderName() string {
	if s.provider == nil {
		return SourceHeuristic
	}
	return s.provider.Name()
}

// Calls returns the number of backend calls issued so far
func (s *Session) Calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.calls
}

func (s *Session) reserve() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.calls >= s.opts.MaxCalls {
		return false
	}
	s.calls++
	return true
}

// Verify checks every resolved entry below the confidence floor and folds the
// verdicts into sections in place. Backend failures never surface as errors;
// they degrade the affected page to Heuristic and are listed as warnings.
func (s *Session) Verify(ctx context.Context, doc *model.Document, sections []model.SectionMatch) model.VerificationReport {
	report := model.VerificationReport{
		Enabled:  true,
		Provider: s.ProviderName(),
		Degraded: s.Degraded(),
	}

	byPage := make(map[int][]int)
	for i, m := range sections {
		if m.IsResolved() && m.Confidence < s.opts.Floor {
			byPage[m.StartPage] = append(byPage[m.StartPage], i)
		}
	}
	pages := make([]int, 0, len(byPage))
	for p := range byPage {
		pages = append(pages, p)
	}
	sort.Ints(pages)

	for _, page := range pages {
		s.verifyPage(ctx, doc, page, byPage[page], sections, &report)
	}

	if len(pages) > 0 {
		s.logger.Debug("verification finished",
			logging.String("document", doc.ID),
			logging.Int("pages", len(pages)),
			logging.Int("checked", report.Checked),
			logging.Int("verified", report.Verified),
			logging.Int("calls", report.Calls),
		)
	}
	return report
}

func (s *Session) verifyPage(ctx context.Context, doc *model.Document, page int, idx []int, sections []model.SectionMatch, report *model.VerificationReport) {
	excerpt := util.Truncate(doc.PageText(page), s.opts.ExcerptChars)

	apply := func(i int, v *model.VerificationVerdict) {
		Apply(&sections[i], v)
		report.Checked++
		if v.Verified {
			report.Verified++
		}
		if v.Source == SourceHeuristic {
			report.Heuristic++
		}
	}

	var pending []int
	for _, i := range idx {
		if v, ok := s.cached(doc, page, sections[i]); ok {
			report.CacheHits++
			metrics.VerifierCacheHit()
			apply(i, v)
			continue
		}
		pending = append(pending, i)
	}
	if len(pending) == 0 {
		return
	}

	if s.provider == nil {
		for _, i := range pending {
			apply(i, Heuristic(sections[i].MatchedText, excerpt, reasonNoBackend))
		}
		return
	}

	req := llm.VerifyRequest{
		Page:      page,
		Excerpt:   excerpt,
		Model:     s.opts.Model,
		MaxTokens: s.opts.MaxTokens,
	}
	keys := make([]string, 0, len(pending))
	for _, i := range pending {
		m := sections[i]
		req.Candidates = append(req.Candidates, llm.Candidate{
			ItemNumber: m.ItemNumber,
			Title:      m.Title,
			Header:     m.MatchedText,
		})
		keys = append(keys, cache.VerdictKey(doc.Fingerprint, m.ItemNumber, page, m.MatchedText))
	}

	out, err, shared := s.group.Do(strings.Join(keys, ","), func() (interface{}, error) {
		if !s.reserve() {
			return nil, errBudget
		}
		resp, err := s.call(ctx, req)
		metrics.ObserveVerifierCall(s.provider.Name(), err)
		return resp, err
	})

	if errors.Is(err, errBudget) {
		for _, i := range pending {
			sections[i].Method = model.MethodUnresolvedBudget
			sections[i].Verdict = &model.VerificationVerdict{Source: s.provider.Name(), Reason: reasonBudget}
			report.OverBudget++
			metrics.VerifierBudgetExhausted()
		}
		return
	}
	if !shared {
		report.Calls++
	}

	if err != nil {
		warning := fmt.Sprintf("page %d: %v", page, err)
		report.Warnings = append(report.Warnings, warning)
		s.logger.Warn("verification backend failed, using heuristic",
			logging.String("document", doc.ID),
			logging.Int("page", page),
			logging.Err(err),
		)
		for _, i := range pending {
			apply(i, Heuristic(sections[i].MatchedText, excerpt, err.Error()))
		}
		return
	}

	resp := out.(*llm.VerifyResponse)
	verdicts := make(map[int]llm.Verdict, len(resp.Verdicts))
	for _, v := range resp.Verdicts {
		if _, dup := verdicts[v.ItemNumber]; !dup {
			verdicts[v.ItemNumber] = v
		}
	}

	pageCount := doc.PageCount()
	for n, i := range pending {
		raw, ok := verdicts[sections[i].ItemNumber]
		if !ok {
			report.Warnings = append(report.Warnings, fmt.Sprintf("page %d: item %d %s", page, sections[i].ItemNumber, reasonMissing))
			apply(i, Heuristic(sections[i].MatchedText, excerpt, reasonMissing))
			continue
		}
		v := Normalize(raw, s.provider.Name(), pageCount)
		s.store(keys[n], v)
		apply(i, v)
	}
}

func (s *Session) call(ctx context.Context, req llm.VerifyRequest) (*llm.VerifyResponse, error) {
	if s.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.Timeout)
		defer cancel()
	}
	waited, err := s.limiter.Wait(ctx, s.provider.Name())
	metrics.ObserveRateWait(s.provider.Name(), waited)
	if err != nil {
		return nil, fmt.Errorf("rate limit: %w", err)
	}
	resp, err := s.provider.Verify(ctx, req)
	if err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errors.New("empty verification response")
	}
	return resp, nil
}

func (s *Session) cached(doc *model.Document, page int, m model.SectionMatch) (*model.VerificationVerdict, bool) {
	return s.cache.Get(cache.VerdictKey(doc.Fingerprint, m.ItemNumber, page, m.MatchedText))
}

func (s *Session) store(key string, v *model.VerificationVerdict) {
	if err := s.cache.Put(key, v, s.opts.CacheTTL); err != nil {
		s.logger.Debug("verdict cache write failed", logging.String("key", key), logging.Err(err))
	}
}

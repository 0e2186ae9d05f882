package cli

import (
	"github.com/spf13/cobra"

	"github.com/ppiankov/fddmap/internal/model"
)

// engineFlags are shared by every command that runs the pipeline. They only
// override the loaded configuration when set explicitly.
type engineFlags struct {
	verify      bool
	llmProvider string
	llmModel    string
	maxCalls    int
	floor       float64
	strategy    string
	noCache     bool
	noExhibits  bool
}

func (f *engineFlags) register(cmd *cobra.Command) {
	fs := cmd.Flags()
	fs.BoolVar(&f.verify, "verify", false, "verify low-confidence matches with a language-model backend")
	fs.StringVar(&f.llmProvider, "llm-provider", "", "verification backend (openai, anthropic, ollama, gemini)")
	fs.StringVar(&f.llmModel, "llm-model", "", "verification model name")
	fs.IntVar(&f.maxCalls, "max-calls", 0, "maximum backend calls per run")
	fs.Float64Var(&f.floor, "confidence-floor", 0, "verify matches below this confidence")
	fs.StringVar(&f.strategy, "strategy", "", "full-text similarity (token_set, embedding)")
	fs.BoolVar(&f.noCache, "no-cache", false, "keep verdicts in memory only")
	fs.BoolVar(&f.noExhibits, "no-exhibits", false, "skip exhibit detection")
}

func (f *engineFlags) apply(cmd *cobra.Command, cfg *model.Config) error {
	fs := cmd.Flags()
	if fs.Changed("verify") {
		cfg.Verify.Enabled = f.verify
	}
	if fs.Changed("llm-provider") {
		cfg.LLM.Provider = f.llmProvider
		cfg.LLM.APIKey = ""
	}
	if fs.Changed("llm-model") {
		cfg.LLM.Model = f.llmModel
	}
	if fs.Changed("max-calls") {
		cfg.Verify.MaxCalls = f.maxCalls
	}
	if fs.Changed("confidence-floor") {
		cfg.Verify.ConfidenceFloor = f.floor
	}
	if fs.Changed("strategy") {
		cfg.Matching.Strategy = f.strategy
	}
	if f.noCache {
		cfg.Cache.Enabled = false
	}
	if f.noExhibits {
		cfg.Matching.Exhibits = false
	}
	applyCredentials(cfg)
	return cfg.Validate()
}

// engineConfig returns a copy of the loaded configuration with flags applied
func engineConfig(cmd *cobra.Command, f *engineFlags) (*model.Config, error) {
	base := appConfig
	if base == nil {
		base = model.DefaultConfig()
	}
	cfg := *base
	if err := f.apply(cmd, &cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

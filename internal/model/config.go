package model

import (
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// Config is the complete engine configuration
type Config struct {
	Matching    MatchingConfig    `yaml:"matching" mapstructure:"matching"`
	Verify      VerifyConfig      `yaml:"verify" mapstructure:"verify"`
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Output      OutputConfig      `yaml:"output" mapstructure:"output"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// MatchingConfig holds scoring weights and acceptance thresholds
type MatchingConfig struct {
	PrimaryThreshold  float64 `yaml:"primary_threshold" mapstructure:"primary_threshold" validate:"gte=0,lte=100"`
	FallbackThreshold float64 `yaml:"fallback_threshold" mapstructure:"fallback_threshold" validate:"gte=0,lte=100,ltefield=PrimaryThreshold"`
	TieEpsilon        float64 `yaml:"tie_epsilon" mapstructure:"tie_epsilon" validate:"gte=0"`
	FullWeight        float64 `yaml:"full_weight" mapstructure:"full_weight" validate:"gte=0"`
	LabelWeight       float64 `yaml:"label_weight" mapstructure:"label_weight" validate:"gte=0"`
	KeywordWeight     float64 `yaml:"keyword_weight" mapstructure:"keyword_weight" validate:"gte=0"`
	AlignmentCap      float64 `yaml:"alignment_cap" mapstructure:"alignment_cap" validate:"gte=0"`
	IncludeTitles     bool    `yaml:"include_titles" mapstructure:"include_titles"`
	SkipTOC           bool    `yaml:"skip_toc" mapstructure:"skip_toc"`
	TOCMinLabels      int     `yaml:"toc_min_labels" mapstructure:"toc_min_labels" validate:"gte=1"`
	Exhibits          bool    `yaml:"exhibits" mapstructure:"exhibits"`
	Strategy          string  `yaml:"strategy" mapstructure:"strategy" validate:"oneof=token_set embedding"`
	EmbeddingModel    string  `yaml:"embedding_model,omitempty" mapstructure:"embedding_model"`
}

// VerifyConfig controls the confidence-gated verifier
type VerifyConfig struct {
	Enabled           bool          `yaml:"enabled" mapstructure:"enabled"`
	ConfidenceFloor   float64       `yaml:"confidence_floor" mapstructure:"confidence_floor" validate:"gte=0,lte=100"`
	MaxCalls          int           `yaml:"max_calls" mapstructure:"max_calls" validate:"gte=0"`
	ExcerptChars      int           `yaml:"excerpt_chars" mapstructure:"excerpt_chars" validate:"gte=100"`
	RequestsPerSecond float64       `yaml:"requests_per_second" mapstructure:"requests_per_second" validate:"gt=0"`
	Burst             int           `yaml:"burst" mapstructure:"burst" validate:"gte=1"`
	Timeout           time.Duration `yaml:"timeout" mapstructure:"timeout"`
}

// LLMConfig holds verification backend settings
type LLMConfig struct {
	Provider   string `yaml:"provider" mapstructure:"provider" validate:"omitempty,oneof=openai anthropic claude ollama gemini"`
	Model      string `yaml:"model" mapstructure:"model"`
	APIKey     string `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL    string `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout    int    `yaml:"timeout" mapstructure:"timeout" validate:"gte=0"` // seconds
	MaxTokens  int    `yaml:"max_tokens" mapstructure:"max_tokens" validate:"gte=0"`
	HTTPProxy  string `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy string `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy    string `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// CacheConfig controls the verdict cache
type CacheConfig struct {
	Enabled bool          `yaml:"enabled" mapstructure:"enabled"`
	Dir     string        `yaml:"dir,omitempty" mapstructure:"dir"` // Empty keeps verdicts in memory only
	TTL     time.Duration `yaml:"ttl" mapstructure:"ttl"`
}

// ConcurrencyConfig controls batch processing
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers" validate:"gte=1"`
}

// OutputConfig controls rendering
type OutputConfig struct {
	Verbose bool `yaml:"verbose" mapstructure:"verbose"`
	Pretty  bool `yaml:"pretty" mapstructure:"pretty"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level" validate:"oneof=debug info warn error"`
	Format string `yaml:"format" mapstructure:"format" validate:"oneof=json console"`
}

// DefaultConfig returns the tuned defaults
func DefaultConfig() *Config {
	return &Config{
		Matching: MatchingConfig{
			PrimaryThreshold:  60,
			FallbackThreshold: 50,
			TieEpsilon:        0.5,
			FullWeight:        0.5,
			LabelWeight:       0.3,
			KeywordWeight:     0.2,
			AlignmentCap:      5,
			IncludeTitles:     true,
			SkipTOC:           true,
			TOCMinLabels:      10,
			Exhibits:          true,
			Strategy:          "token_set",
		},
		Verify: VerifyConfig{
			Enabled:           false,
			ConfidenceFloor:   70,
			MaxCalls:          20,
			ExcerptChars:      2000,
			RequestsPerSecond: 2,
			Burst:             2,
			Timeout:           30 * time.Second,
		},
		LLM: LLMConfig{
			Timeout:   30,
			MaxTokens: 800,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     24 * time.Hour,
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Output: OutputConfig{
			Pretty: true,
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "console",
		},
	}
}

// Validate checks field ranges and cross-field constraints
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}
	return nil
}

package llm

import (
	"context"
)

// Provider is a natural-language backend that can confirm whether candidate
// header texts really open the FDD items they were matched to.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Verify judges every candidate of one page in a single request
	Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Candidate is one low-confidence match to be checked
type Candidate struct {
	ItemNumber int    `json:"item_number"`
	Title      string `json:"title"`  // Canonical item title
	Header     string `json:"header"` // Text that was matched
}

// VerifyRequest groups the candidates found on one page
type VerifyRequest struct {
	Page       int
	Excerpt    string // Page text, already truncated by the caller
	Candidates []Candidate

	// Prompt overrides the default prompt when set
	Prompt string

	// Model is the specific model to use (provider-specific)
	Model string

	// MaxTokens limits the response length
	MaxTokens int
}

// Verdict is the backend's judgement on one candidate, as returned.
// Confidence may be on a 0-1 or 0-100 scale and ResolvedPage may be 0-based;
// callers normalize.
type Verdict struct {
	ItemNumber   int     `json:"item_number"`
	Verified     bool    `json:"verified"`
	Confidence   float64 `json:"confidence"`
	Rationale    string  `json:"rationale,omitempty"`
	ResolvedPage *int    `json:"resolved_page,omitempty"`
}

// VerifyResponse contains the backend's verdicts
type VerifyResponse struct {
	Verdicts []Verdict

	// Model is the model that generated the response
	Model string

	// TokensUsed tracks token consumption
	TokensUsed int
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "openai", "anthropic", "ollama", "gemini", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for OpenAI/Anthropic/Gemini
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	// MaxTokens for response generation
	MaxTokens int

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:  "", // Disabled by default
		Timeout:   30,
		MaxTokens: 800,
	}
}

const systemPrompt = "You check section headings of Franchise Disclosure Documents. Answer only with JSON."

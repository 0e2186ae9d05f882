package llm

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/ppiankov/fddmap/internal/util"
)

// OllamaProvider implements the Provider interface for Ollama local models
type OllamaProvider struct {
	baseURL    string
	httpClient *http.Client
	config     Config
}

// Ollama API structures
type ollamaRequest struct {
	Model   string        `json:"model"`
	Prompt  string        `json:"prompt"`
	Stream  bool          `json:"stream"`
	System  string        `json:"system,omitempty"`
	Format  string        `json:"format,omitempty"`
	Options ollamaOptions `json:"options,omitempty"`
}

type ollamaOptions struct {
	Temperature float64 `json:"temperature"`
	NumPredict  int     `json:"num_predict,omitempty"` // Max tokens
}

type ollamaResponse struct {
	Model     string `json:"model"`
	CreatedAt string `json:"created_at"`
	Response  string `json:"response"`
	Done      bool   `json:"done"`

	// Token counts (only present when done=true)
	PromptEvalCount int `json:"prompt_eval_count,omitempty"`
	EvalCount       int `json:"eval_count,omitempty"`
}

type ollamaTags struct {
	Models []struct {
		Name string `json:"name"`
	} `json:"models"`
}

type ollamaError struct {
	Error string `json:"error"`
}

// NewOllamaProvider creates a new Ollama provider
func NewOllamaProvider(config Config) (*OllamaProvider, error) {
	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}

	timeout := config.Timeout
	if timeout == 0 {
		timeout = 60 // Ollama can be slower for local models
	}

	return &OllamaProvider{
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		httpClient: util.NewHTTPClient(timeout, config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		config:     config,
	}, nil
}

// Name returns the provider name
func (p *OllamaProvider) Name() string {
	return "ollama"
}

// IsAvailable reports whether the Ollama server answers and, when a model
// is configured, whether that model has been pulled
func (p *OllamaProvider) IsAvailable(ctx context.Context) bool {
	var tags ollamaTags
	err := jsonCall{
		client:       p.httpClient,
		method:       http.MethodGet,
		url:          p.baseURL + "/api/tags",
		errorMessage: ollamaErrorMessage,
	}.do(ctx, &tags)
	if err != nil {
		return false
	}
	if p.config.Model == "" {
		return true
	}
	for _, m := range tags.Models {
		if m.Name == p.config.Model || strings.TrimSuffix(m.Name, ":latest") == p.config.Model {
			return true
		}
	}
	return false
}

// Verify asks a local model to judge the page's candidates
func (p *OllamaProvider) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	model := resolveModel(req.Model, p.config.Model, "")
	if model == "" {
		return nil, fmt.Errorf("ollama model must be specified (e.g., llama3.1:8b, mistral)")
	}

	prompt := promptFor(req)
	apiReq := ollamaRequest{
		Model:  model,
		Prompt: prompt,
		Stream: false,
		System: systemPrompt,
		Format: "json",
		Options: ollamaOptions{
			NumPredict: resolveMaxTokens(req.MaxTokens, p.config.MaxTokens),
		},
	}

	var resp *ollamaResponse
	err := withRetry(ctx, func() error {
		var callErr error
		resp, callErr = p.makeRequest(ctx, apiReq)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("ollama API error: %w", err)
	}

	verdicts, err := ParseVerdicts(resp.Response)
	if err != nil {
		return nil, err
	}

	// Some models report zero counts
	tokensUsed := resp.PromptEvalCount + resp.EvalCount
	if tokensUsed == 0 {
		tokensUsed = (len(prompt) + len(resp.Response)) / 4
	}

	return &VerifyResponse{
		Verdicts:   verdicts,
		Model:      resp.Model,
		TokensUsed: tokensUsed,
	}, nil
}

func (p *OllamaProvider) makeRequest(ctx context.Context, apiReq ollamaRequest) (*ollamaResponse, error) {
	var resp ollamaResponse
	err := jsonCall{
		client:       p.httpClient,
		method:       http.MethodPost,
		url:          p.baseURL + "/api/generate",
		body:         apiReq,
		errorMessage: ollamaErrorMessage,
	}.do(ctx, &resp)
	if err != nil {
		return nil, err
	}
	return &resp, nil
}

func ollamaErrorMessage(body []byte) string {
	var apiErr ollamaError
	if json.Unmarshal(body, &apiErr) == nil {
		return apiErr.Error
	}
	return ""
}

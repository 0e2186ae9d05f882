package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider implements the Provider interface for Google Gemini models
type GeminiProvider struct {
	config Config
	// generate runs one request against the named model; replaced in tests
	generate func(ctx context.Context, call geminiCall) (*genai.GenerateContentResponse, error)
}

// geminiCall is the per-request model setup sent to Gemini
type geminiCall struct {
	Model     string
	System    string
	Prompt    string
	MaxTokens int32
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(config Config) (*GeminiProvider, error) {
	if config.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}
	p := &GeminiProvider{config: config}
	p.generate = p.generateContent
	return p, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

func (p *GeminiProvider) newClient(ctx context.Context) (*genai.Client, error) {
	opts := []option.ClientOption{option.WithAPIKey(p.config.APIKey)}
	if p.config.BaseURL != "" {
		opts = append(opts, option.WithEndpoint(p.config.BaseURL))
	}
	return genai.NewClient(ctx, opts...)
}

// IsAvailable checks if the provider is properly configured
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	cl, err := p.newClient(ctx)
	if err != nil {
		return false
	}
	defer func() { _ = cl.Close() }()

	_, err = cl.GenerativeModel(p.model("")).Info(ctx)
	return err == nil
}

func (p *GeminiProvider) generateContent(ctx context.Context, call geminiCall) (*genai.GenerateContentResponse, error) {
	cl, err := p.newClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("gemini client: %w", err)
	}
	defer func() { _ = cl.Close() }()

	m := cl.GenerativeModel(call.Model)
	maxTokens := call.MaxTokens
	m.GenerationConfig = genai.GenerationConfig{
		Temperature:      ptrFloat32(0),
		MaxOutputTokens:  &maxTokens,
		ResponseMIMEType: "application/json",
	}
	m.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(call.System)}}
	return m.GenerateContent(ctx, genai.Text(call.Prompt))
}

// Verify asks Gemini to judge the page's candidates with a JSON response type
func (p *GeminiProvider) Verify(ctx context.Context, req VerifyRequest) (*VerifyResponse, error) {
	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name := p.model(req.Model)
	call := geminiCall{
		Model:     name,
		System:    systemPrompt,
		Prompt:    promptFor(req),
		MaxTokens: int32(resolveMaxTokens(req.MaxTokens, p.config.MaxTokens)),
	}

	var resp *genai.GenerateContentResponse
	err := withRetry(ctx, func() error {
		var callErr error
		resp, callErr = p.generate(ctx, call)
		return callErr
	})
	if err != nil {
		return nil, fmt.Errorf("gemini API error: %w", err)
	}

	text := firstText(resp)
	if text == "" {
		return nil, fmt.Errorf("no content in Gemini response")
	}

	verdicts, err := ParseVerdicts(text)
	if err != nil {
		return nil, err
	}

	tokens := 0
	if resp.UsageMetadata != nil {
		tokens = int(resp.UsageMetadata.TotalTokenCount)
	}

	return &VerifyResponse{
		Verdicts:   verdicts,
		Model:      name,
		TokensUsed: tokens,
	}, nil
}

func (p *GeminiProvider) model(reqModel string) string {
	return resolveModel(reqModel, p.config.Model, "gemini-1.5-flash")
}

func firstText(resp *genai.GenerateContentResponse) string {
	if resp == nil {
		return ""
	}
	for _, c := range resp.Candidates {
		if c == nil || c.Content == nil {
			continue
		}
		for _, part := range c.Content.Parts {
			if t, ok := part.(genai.Text); ok {
				return string(t)
			}
		}
	}
	return ""
}

func ptrFloat32(v float32) *float32 { return &v }

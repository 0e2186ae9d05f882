package llm

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/google/generative-ai-go/genai"
)

func geminiReply(text string, tokens int32) *genai.GenerateContentResponse {
	return &genai.GenerateContentResponse{
		Candidates: []*genai.Candidate{
			{Content: &genai.Content{Parts: []genai.Part{genai.Text(text)}}},
		},
		UsageMetadata: &genai.UsageMetadata{TotalTokenCount: tokens},
	}
}

func TestGeminiProvider_Verify_Success(t *testing.T) {
	provider, err := NewGeminiProvider(Config{APIKey: "test-key", MaxTokens: 300, Timeout: 5})
	if err != nil {
		t.Fatalf("Failed to create provider: %v", err)
	}

	var got geminiCall
	provider.generate = func(ctx context.Context, call geminiCall) (*genai.GenerateContentResponse, error) {
		got = call
		return geminiReply(`{"verdicts":[{"item_number":5,"verified":true,"confidence":88}]}`, 64), nil
	}

	resp, err := provider.Verify(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}

	if got.Model != "gemini-1.5-flash" {
		t.Errorf("Expected default model gemini-1.5-flash, got %s", got.Model)
	}
	if got.MaxTokens != 300 {
		t.Errorf("Expected 300 max tokens, got %d", got.MaxTokens)
	}
	if got.System != systemPrompt {
		t.Errorf("Unexpected system instruction: %q", got.System)
	}
	if !strings.Contains(got.Prompt, "ITEM 5 INITIAL FEES") {
		t.Errorf("Prompt does not carry the excerpt: %q", got.Prompt)
	}

	if len(resp.Verdicts) != 1 {
		t.Fatalf("Expected 1 verdict, got %d", len(resp.Verdicts))
	}
	if v := resp.Verdicts[0]; v.ItemNumber != 5 || !v.Verified || v.Confidence != 88 {
		t.Errorf("Unexpected verdict: %+v", v)
	}
	if resp.TokensUsed != 64 {
		t.Errorf("Expected 64 tokens, got %d", resp.TokensUsed)
	}
	if resp.Model != "gemini-1.5-flash" {
		t.Errorf("Expected model gemini-1.5-flash, got %s", resp.Model)
	}
}

func TestGeminiProvider_Verify_RequestModelOverrides(t *testing.T) {
	provider, _ := NewGeminiProvider(Config{APIKey: "test-key", Model: "gemini-1.5-pro"})

	var model string
	provider.generate = func(ctx context.Context, call geminiCall) (*genai.GenerateContentResponse, error) {
		model = call.Model
		return geminiReply(`[{"item_number":5,"verified":true,"confidence":90}]`, 0), nil
	}

	req := sampleRequest()
	req.Model = "gemini-2.0-flash"
	resp, err := provider.Verify(context.Background(), req)
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if model != "gemini-2.0-flash" || resp.Model != "gemini-2.0-flash" {
		t.Errorf("Expected request model to win, sent %s and reported %s", model, resp.Model)
	}
}

func TestGeminiProvider_Verify_RetriesTransientErrors(t *testing.T) {
	noSleep(t)

	provider, _ := NewGeminiProvider(Config{APIKey: "test-key", Timeout: 5})
	calls := 0
	provider.generate = func(ctx context.Context, call geminiCall) (*genai.GenerateContentResponse, error) {
		calls++
		if calls < 3 {
			return nil, errors.New("rpc error: connection reset by peer")
		}
		return geminiReply(`[{"item_number":5,"verified":false,"confidence":30}]`, 10), nil
	}

	resp, err := provider.Verify(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Verify failed: %v", err)
	}
	if calls != 3 {
		t.Errorf("Expected 3 calls, got %d", calls)
	}
	if len(resp.Verdicts) != 1 || resp.Verdicts[0].Verified {
		t.Errorf("Unexpected verdicts: %+v", resp.Verdicts)
	}
}

func TestGeminiProvider_Verify_PermanentError(t *testing.T) {
	provider, _ := NewGeminiProvider(Config{APIKey: "test-key", Timeout: 5})
	calls := 0
	provider.generate = func(ctx context.Context, call geminiCall) (*genai.GenerateContentResponse, error) {
		calls++
		return nil, errors.New("googleapi: Error 400: API key not valid")
	}

	_, err := provider.Verify(context.Background(), sampleRequest())
	if err == nil {
		t.Fatal("Expected error, got nil")
	}
	if !strings.Contains(err.Error(), "gemini API error") {
		t.Errorf("Expected wrapped gemini API error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected a single call, got %d", calls)
	}
}

func TestGeminiProvider_Verify_EmptyCandidates(t *testing.T) {
	provider, _ := NewGeminiProvider(Config{APIKey: "test-key", Timeout: 5})
	provider.generate = func(ctx context.Context, call geminiCall) (*genai.GenerateContentResponse, error) {
		return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{nil, {}}}, nil
	}

	_, err := provider.Verify(context.Background(), sampleRequest())
	if err == nil || !strings.Contains(err.Error(), "no content") {
		t.Errorf("Expected no content error, got %v", err)
	}
}

func TestNewGeminiProvider_MissingKey(t *testing.T) {
	if _, err := NewGeminiProvider(Config{}); err == nil {
		t.Error("Expected error for missing API key")
	}
}

package llm

import (
	"fmt"
	"strings"

	"github.com/ppiankov/fddmap/internal/model"
)

// NewProvider creates a new LLM provider based on configuration.
// A nil provider with a nil error means verification runs without a backend.
func NewProvider(config Config) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "openai":
		if config.APIKey == "" {
			return nil, nil
		}
		return NewOpenAIProvider(config)

	case "anthropic", "claude":
		if config.APIKey == "" {
			return nil, nil
		}
		return NewAnthropicProvider(config)

	case "gemini":
		if config.APIKey == "" {
			return nil, nil
		}
		return NewGeminiProvider(config)

	case "ollama":
		return NewOllamaProvider(config)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: openai, anthropic, gemini, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.LLMConfig to llm.Config
func ConfigFromModel(modelConfig model.LLMConfig) Config {
	return Config{
		Provider:   modelConfig.Provider,
		Model:      modelConfig.Model,
		APIKey:     modelConfig.APIKey,
		BaseURL:    modelConfig.BaseURL,
		Timeout:    modelConfig.Timeout,
		MaxTokens:  modelConfig.MaxTokens,
		HTTPProxy:  modelConfig.HTTPProxy,
		HTTPSProxy: modelConfig.HTTPSProxy,
		NoProxy:    modelConfig.NoProxy,
	}
}

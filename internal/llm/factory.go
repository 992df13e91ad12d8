package llm

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/ppiankov/donotmiss/internal/model"
)

// NewProvider creates a new LLM provider based on configuration.
// A nil provider with a nil error means the AI path is disabled.
func NewProvider(config Config, logger *zap.Logger) (Provider, error) {
	provider := strings.ToLower(config.Provider)

	switch provider {
	case "groq":
		if config.APIKey == "" {
			return nil, nil
		}
		return NewGroqProvider(config, logger)

	case "openai":
		if config.APIKey == "" {
			return nil, nil
		}
		return NewOpenAIProvider(config, logger)

	case "anthropic", "claude":
		if config.APIKey == "" {
			return nil, nil
		}
		return NewAnthropicProvider(config, logger)

	case "ollama":
		return NewOllamaProvider(config, logger)

	case "", "none":
		// No provider configured - return nil (LLM disabled)
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown LLM provider: %s (supported: groq, openai, anthropic, ollama)", config.Provider)
	}
}

// ConfigFromModel converts model.Config to llm.Config
func ConfigFromModel(cfg model.Config) Config {
	return Config{
		Provider:          cfg.LLM.Provider,
		Model:             cfg.LLM.Model,
		APIKey:            cfg.LLM.APIKey,
		BaseURL:           cfg.LLM.BaseURL,
		Timeout:           cfg.LLM.Timeout,
		MaxTokens:         cfg.LLM.MaxTokens,
		Temperature:       cfg.LLM.Temperature,
		RequestsPerMinute: cfg.LLM.RequestsPerMinute,
		HTTPProxy:         cfg.HTTP.HTTPProxy,
		HTTPSProxy:        cfg.HTTP.HTTPSProxy,
		NoProxy:           cfg.HTTP.NoProxy,
	}
}

package llm

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ppiankov/donotmiss/internal/model"
	"github.com/ppiankov/donotmiss/internal/util"
)

// GroqBaseURL is Groq's OpenAI-compatible endpoint
const GroqBaseURL = "https://api.groq.com/openai/v1"

const defaultGroqModel = "llama-3.3-70b-versatile"

// OpenAIProvider implements the Provider interface for OpenAI-compatible
// chat completion APIs (OpenAI itself and Groq)
type OpenAIProvider struct {
	name    string
	client  *openai.Client
	config  Config
	limiter *rate.Limiter
	logger  *zap.Logger
}

// NewOpenAIProvider creates a provider for OpenAI or any OpenAI-compatible endpoint
func NewOpenAIProvider(config Config, logger *zap.Logger) (*OpenAIProvider, error) {
	name := strings.ToLower(config.Provider)
	if name == "" {
		name = "openai"
	}

	if config.APIKey == "" {
		return nil, fmt.Errorf("%s API key is required", name)
	}

	clientConfig := openai.DefaultConfig(config.APIKey)
	switch {
	case config.BaseURL != "":
		clientConfig.BaseURL = config.BaseURL
	case name == "groq":
		clientConfig.BaseURL = GroqBaseURL
	}
	clientConfig.HTTPClient = &http.Client{
		Transport: &http.Transport{
			Proxy: util.NewProxyFunc(config.HTTPProxy, config.HTTPSProxy, config.NoProxy),
		},
	}

	return &OpenAIProvider{
		name:    name,
		client:  openai.NewClientWithConfig(clientConfig),
		config:  config,
		limiter: newLimiter(config.RequestsPerMinute),
		logger:  orNop(logger),
	}, nil
}

// NewGroqProvider creates a provider for Groq's hosted models
func NewGroqProvider(config Config, logger *zap.Logger) (*OpenAIProvider, error) {
	config.Provider = "groq"
	return NewOpenAIProvider(config, logger)
}

// Name returns the provider name
func (p *OpenAIProvider) Name() string {
	return p.name
}

// IsAvailable checks if the provider is properly configured
func (p *OpenAIProvider) IsAvailable(ctx context.Context) bool {
	// Simple check: try to list models (lightweight API call)
	_, err := p.client.ListModels(ctx)
	if err != nil {
		p.logger.Warn("provider availability check failed", zap.String("provider", p.name), zap.Error(err))
		return false
	}
	return true
}

// ExtractTasks asks the chat completion API for task candidates
func (p *OpenAIProvider) ExtractTasks(ctx context.Context, ec model.ExtractionContext) ([]model.RawCandidate, error) {
	if err := waitLimiter(ctx, p.limiter); err != nil {
		return nil, fmt.Errorf("%w: rate limit wait: %v", ErrUnavailable, err)
	}

	ctxWithTimeout, cancel := context.WithTimeout(ctx, p.config.timeout(30*time.Second))
	defer cancel()

	chatReq := openai.ChatCompletionRequest{
		Model: p.model(),
		Messages: []openai.ChatCompletionMessage{
			{
				Role:    openai.ChatMessageRoleSystem,
				Content: SystemPrompt,
			},
			{
				Role:    openai.ChatMessageRoleUser,
				Content: BuildPrompt(ec.Text),
			},
		},
		MaxTokens:   p.config.maxTokens(),
		Temperature: p.config.temperature(),
	}

	resp, err := p.client.CreateChatCompletion(ctxWithTimeout, chatReq)
	if err != nil {
		return nil, fmt.Errorf("%w: %s API error: %v", ErrUnavailable, p.name, err)
	}

	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("%w: no choices from %s", ErrMalformedResponse, p.name)
	}

	p.logger.Debug("chat completion finished",
		zap.String("provider", p.name),
		zap.String("model", resp.Model),
		zap.Int("tokens", resp.Usage.TotalTokens))

	return ParseCandidates(resp.Choices[0].Message.Content)
}

func (p *OpenAIProvider) model() string {
	if p.config.Model != "" {
		return p.config.Model
	}
	if p.name == "groq" {
		return defaultGroqModel
	}
	return openai.GPT4oMini
}

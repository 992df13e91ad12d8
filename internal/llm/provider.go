package llm

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/ppiankov/donotmiss/internal/model"
)

var (
	// ErrUnavailable means the provider could not be reached or refused the request
	ErrUnavailable = errors.New("ai provider unavailable")

	// ErrMalformedResponse means the provider answered with something other than a JSON array
	ErrMalformedResponse = errors.New("malformed ai response")
)

// Provider defines the interface for AI task extraction backends
type Provider interface {
	// Name returns the provider name
	Name() string

	// ExtractTasks asks the model for task candidates found in the context's text.
	// Errors wrap ErrUnavailable or ErrMalformedResponse.
	ExtractTasks(ctx context.Context, ec model.ExtractionContext) ([]model.RawCandidate, error)

	// IsAvailable checks if the provider is properly configured and accessible
	IsAvailable(ctx context.Context) bool
}

// Config holds LLM provider configuration
type Config struct {
	// Provider name: "groq", "openai", "anthropic", "ollama", ""
	Provider string

	// Model name (provider-specific)
	Model string

	// APIKey for Groq/OpenAI/Anthropic
	APIKey string

	// BaseURL for custom endpoints (e.g., Ollama, OpenAI-compatible gateways)
	BaseURL string

	// Timeout for API requests
	Timeout int // seconds

	MaxTokens   int
	Temperature float32

	// RequestsPerMinute throttles outgoing calls; zero disables throttling
	RequestsPerMinute float64

	// Proxy settings
	HTTPProxy  string
	HTTPSProxy string
	NoProxy    string
}

// DefaultConfig returns sensible defaults
func DefaultConfig() Config {
	return Config{
		Provider:    "", // Disabled by default
		Timeout:     30,
		MaxTokens:   defaultMaxTokens,
		Temperature: defaultTemperature,
	}
}

const (
	defaultMaxTokens   = 500
	defaultTemperature = 0.3
)

func (c Config) timeout(fallback time.Duration) time.Duration {
	if c.Timeout <= 0 {
		return fallback
	}
	return time.Duration(c.Timeout) * time.Second
}

func (c Config) maxTokens() int {
	if c.MaxTokens <= 0 {
		return defaultMaxTokens
	}
	return c.MaxTokens
}

func (c Config) temperature() float32 {
	if c.Temperature <= 0 {
		return defaultTemperature
	}
	return c.Temperature
}

// newLimiter returns nil when throttling is disabled
func newLimiter(requestsPerMinute float64) *rate.Limiter {
	if requestsPerMinute <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Limit(requestsPerMinute/60), 1)
}

func waitLimiter(ctx context.Context, limiter *rate.Limiter) error {
	if limiter == nil {
		return nil
	}
	return limiter.Wait(ctx)
}

func orNop(logger *zap.Logger) *zap.Logger {
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}

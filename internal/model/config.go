package model

// Config is the complete donotmiss configuration
type Config struct {
	LLM         LLMConfig         `yaml:"llm" mapstructure:"llm"`
	Extraction  ExtractionConfig  `yaml:"extraction" mapstructure:"extraction"`
	Cache       CacheConfig       `yaml:"cache" mapstructure:"cache"`
	HTTP        HTTPConfig        `yaml:"http" mapstructure:"http"`
	Server      ServerConfig      `yaml:"server" mapstructure:"server"`
	Publish     PublishConfig     `yaml:"publish" mapstructure:"publish"`
	Concurrency ConcurrencyConfig `yaml:"concurrency" mapstructure:"concurrency"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// LLMConfig selects and tunes the AI extraction provider
type LLMConfig struct {
	Provider          string  `yaml:"provider" mapstructure:"provider"` // groq, openai, anthropic, ollama, "" (disabled)
	Model             string  `yaml:"model" mapstructure:"model"`
	APIKey            string  `yaml:"api_key,omitempty" mapstructure:"api_key"`
	BaseURL           string  `yaml:"base_url,omitempty" mapstructure:"base_url"`
	Timeout           int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	MaxTokens         int     `yaml:"max_tokens" mapstructure:"max_tokens"`
	Temperature       float32 `yaml:"temperature" mapstructure:"temperature"`
	RequestsPerMinute float64 `yaml:"requests_per_minute" mapstructure:"requests_per_minute"`
}

// ExtractionConfig bounds what one extraction call may return
type ExtractionConfig struct {
	MinTextLength int  `yaml:"min_text_length" mapstructure:"min_text_length"`
	MaxCandidates int  `yaml:"max_candidates" mapstructure:"max_candidates"`
	CapAIOutput   bool `yaml:"cap_ai_output" mapstructure:"cap_ai_output"`
}

// CacheConfig controls caching of AI responses
type CacheConfig struct {
	Enabled bool   `yaml:"enabled" mapstructure:"enabled"`
	TTL     int    `yaml:"ttl" mapstructure:"ttl"` // seconds
	Dir     string `yaml:"dir,omitempty" mapstructure:"dir"`
}

// HTTPConfig controls page fetching for the scan command
type HTTPConfig struct {
	Timeout        int     `yaml:"timeout" mapstructure:"timeout"` // seconds
	UserAgent      string  `yaml:"user_agent" mapstructure:"user_agent"`
	MaxBodyBytes   int64   `yaml:"max_body_bytes" mapstructure:"max_body_bytes"`
	RespectRobots  bool    `yaml:"respect_robots" mapstructure:"respect_robots"`
	RequestsPerSec float64 `yaml:"requests_per_sec" mapstructure:"requests_per_sec"`
	HTTPProxy      string  `yaml:"http_proxy,omitempty" mapstructure:"http_proxy"`
	HTTPSProxy     string  `yaml:"https_proxy,omitempty" mapstructure:"https_proxy"`
	NoProxy        string  `yaml:"no_proxy,omitempty" mapstructure:"no_proxy"`
}

// ServerConfig controls the HTTP API
type ServerConfig struct {
	Addr string `yaml:"addr" mapstructure:"addr"`
}

// PublishConfig controls hand-off of detected tasks over NATS
type PublishConfig struct {
	NatsURL   string `yaml:"nats_url,omitempty" mapstructure:"nats_url"`
	NatsToken string `yaml:"nats_token,omitempty" mapstructure:"nats_token"`
	Subject   string `yaml:"subject" mapstructure:"subject"`
}

// ConcurrencyConfig controls the batch worker pool
type ConcurrencyConfig struct {
	Workers int `yaml:"workers" mapstructure:"workers"`
}

// LogConfig controls structured logging
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"` // json, console
}

// DefaultConfig returns the built-in defaults.
// The AI path defaults to Groq's OpenAI-compatible endpoint; it stays
// disabled until an API key is supplied.
func DefaultConfig() *Config {
	return &Config{
		LLM: LLMConfig{
			Provider:          "groq",
			Model:             "llama-3.3-70b-versatile",
			Timeout:           30,
			MaxTokens:         500,
			Temperature:       0.3,
			RequestsPerMinute: 30,
		},
		Extraction: ExtractionConfig{
			MinTextLength: 50,
			MaxCandidates: 5,
			CapAIOutput:   true,
		},
		Cache: CacheConfig{
			Enabled: true,
			TTL:     3600,
		},
		HTTP: HTTPConfig{
			Timeout:        30,
			UserAgent:      "DoNotMiss/0.1 (+https://github.com/ppiankov/donotmiss)",
			MaxBodyBytes:   2_000_000,
			RespectRobots:  true,
			RequestsPerSec: 1,
		},
		Server: ServerConfig{
			Addr: ":5000",
		},
		Publish: PublishConfig{
			Subject: "donotmiss.tasks.detected",
		},
		Concurrency: ConcurrencyConfig{
			Workers: 4,
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
	}
}

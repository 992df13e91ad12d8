package cli

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/ppiankov/donotmiss/internal/llm"
	"github.com/ppiankov/donotmiss/internal/logging"
	"github.com/ppiankov/donotmiss/internal/model"
)

// provider name -> environment variable holding its API key
var providerKeyEnv = map[string]string{
	"groq":      "GROQ_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"anthropic": "ANTHROPIC_API_KEY",
	"claude":    "ANTHROPIC_API_KEY",
}

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage DoNotMiss configuration",
	Long: `Manage DoNotMiss configuration files and settings.

Configuration hierarchy (highest to lowest priority):
1. CLI flags
2. Environment variables (DONOTMISS_*)
3. Config file (~/.donotmiss/config.yaml)
4. Defaults`,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show current configuration",
	Long:  `Display the effective configuration after defaults, config file, environment variables and flags are merged. Secrets are masked.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}

		if configFile := viper.ConfigFileUsed(); configFile != "" {
			fmt.Fprintf(os.Stderr, "Configuration file: %s\n\n", configFile)
		} else {
			fmt.Fprintf(os.Stderr, "No configuration file found (using defaults)\n\n")
		}

		yamlData, err := yaml.Marshal(maskSecrets(*cfg))
		if err != nil {
			return fmt.Errorf("error marshaling config: %w", err)
		}

		fmt.Println(string(yamlData))
		fmt.Println("Configuration hierarchy (highest to lowest priority):")
		fmt.Println("  1. CLI flags")
		fmt.Println("  2. Environment variables (DONOTMISS_*, GROQ_API_KEY, OPENAI_API_KEY, ANTHROPIC_API_KEY, OLLAMA_BASE_URL)")
		fmt.Println("  3. Config file (~/.donotmiss/config.yaml)")
		fmt.Println("  4. Defaults")
		fmt.Println()

		return nil
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize default configuration file",
	Long:  `Create a default configuration file at ~/.donotmiss/config.yaml.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("error finding home directory: %w", err)
		}

		configPath := filepath.Join(home, ".donotmiss", "config.yaml")
		if err := writeDefaultConfig(configPath); err != nil {
			return err
		}

		fmt.Printf("✓ Created default configuration: %s\n", configPath)
		fmt.Printf("\nTo view the configuration:\n")
		fmt.Printf("  donotmiss config show\n")
		fmt.Printf("\nTo enable AI detection, export a provider key:\n")
		fmt.Printf("  export GROQ_API_KEY=gsk_...\n\n")

		return nil
	},
}

var configCheckCmd = &cobra.Command{
	Use:   "check",
	Short: "Validate configuration and probe the AI provider",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		if err := validateConfig(cfg); err != nil {
			return err
		}
		fmt.Println("✓ Configuration is valid")

		logger, err := logging.New(cfg.Log.Level, cfg.Log.Format)
		if err != nil {
			return err
		}

		provider, err := llm.NewProvider(llm.ConfigFromModel(*cfg), logger)
		if err != nil {
			return err
		}
		if provider == nil {
			fmt.Println("- AI provider disabled (no provider or API key); keyword fallback only")
			return nil
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 10*time.Second)
		defer cancel()

		if !provider.IsAvailable(ctx) {
			return fmt.Errorf("AI provider %s is not reachable", provider.Name())
		}
		fmt.Printf("✓ AI provider %s is reachable\n", provider.Name())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configCheckCmd)
}

// loadConfig merges defaults, config file and environment into a Config
func loadConfig() (*model.Config, error) {
	return loadConfigFrom(viper.GetViper(), os.Getenv)
}

func loadConfigFrom(v *viper.Viper, getenv func(string) string) (*model.Config, error) {
	cfg := model.DefaultConfig()
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	applyProviderEnv(cfg, getenv)
	return cfg, nil
}

// applyProviderEnv fills the API key and Ollama URL from the providers'
// conventional environment variables when the config leaves them empty
func applyProviderEnv(cfg *model.Config, getenv func(string) string) {
	provider := strings.ToLower(cfg.LLM.Provider)

	if cfg.LLM.APIKey == "" {
		if name, ok := providerKeyEnv[provider]; ok {
			cfg.LLM.APIKey = getenv(name)
		}
	}
	if provider == "ollama" && cfg.LLM.BaseURL == "" {
		cfg.LLM.BaseURL = getenv("OLLAMA_BASE_URL")
	}
}

func validateConfig(cfg *model.Config) error {
	switch strings.ToLower(cfg.LLM.Provider) {
	case "", "none", "groq", "openai", "anthropic", "claude", "ollama":
	default:
		return fmt.Errorf("llm.provider: unknown provider %q", cfg.LLM.Provider)
	}
	if strings.EqualFold(cfg.LLM.Provider, "ollama") && cfg.LLM.Model == "" {
		return fmt.Errorf("llm.model: required for ollama")
	}
	if cfg.Extraction.MinTextLength <= 0 {
		return fmt.Errorf("extraction.min_text_length: must be positive")
	}
	if cfg.Extraction.MaxCandidates <= 0 {
		return fmt.Errorf("extraction.max_candidates: must be positive")
	}
	if cfg.Concurrency.Workers <= 0 {
		return fmt.Errorf("concurrency.workers: must be positive")
	}
	if _, err := logging.ParseLevel(cfg.Log.Level); err != nil {
		return fmt.Errorf("log.level: %w", err)
	}
	switch cfg.Log.Format {
	case "json", "console":
	default:
		return fmt.Errorf("log.format: must be json or console")
	}
	return nil
}

func maskSecrets(cfg model.Config) model.Config {
	if cfg.LLM.APIKey != "" {
		cfg.LLM.APIKey = "********"
	}
	if cfg.Publish.NatsToken != "" {
		cfg.Publish.NatsToken = "********"
	}
	return cfg
}

func writeDefaultConfig(configPath string) (err error) {
	if _, statErr := os.Stat(configPath); statErr == nil {
		return fmt.Errorf("config file already exists: %s\nUse 'donotmiss config show' to view it, or delete it first to recreate", configPath)
	}

	if err := os.MkdirAll(filepath.Dir(configPath), 0o755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	yamlData, err := yaml.Marshal(model.DefaultConfig())
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	header := "# DoNotMiss Configuration File\n" +
		"#\n" +
		"# Configuration hierarchy (highest to lowest priority):\n" +
		"#   1. CLI flags\n" +
		"#   2. Environment variables (DONOTMISS_*)\n" +
		"#   3. This config file\n" +
		"#   4. Built-in defaults\n" +
		"#\n" +
		"# API keys are best kept in the environment:\n" +
		"#   export GROQ_API_KEY=gsk_...\n" +
		"#   export OPENAI_API_KEY=sk-...\n" +
		"#   export ANTHROPIC_API_KEY=sk-ant-...\n" +
		"#   export OLLAMA_BASE_URL=http://localhost:11434\n\n"

	if err := os.WriteFile(configPath, append([]byte(header), yamlData...), 0o600); err != nil {
		return fmt.Errorf("error writing config: %w", err)
	}
	return nil
}

// registerDefaults declares every mapstructure key of model.Config with its
// default value so environment variables bind even without a config file
func registerDefaults(v *viper.Viper) {
	var walk func(prefix string, val reflect.Value)
	walk = func(prefix string, val reflect.Value) {
		typ := val.Type()
		for i := 0; i < typ.NumField(); i++ {
			field := typ.Field(i)
			key := field.Tag.Get("mapstructure")
			if key == "" {
				continue
			}
			if prefix != "" {
				key = prefix + "." + key
			}
			if field.Type.Kind() == reflect.Struct {
				walk(key, val.Field(i))
				continue
			}
			v.SetDefault(key, val.Field(i).Interface())
		}
	}
	walk("", reflect.ValueOf(*model.DefaultConfig()))
}

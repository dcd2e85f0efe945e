package config

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

const (
	DefaultBaseURL      = "https://api.openai.com/v1/"
	DefaultModel        = "gpt-4o"
	DefaultSystemPrompt = "You are a helpful assistant."
	DefaultTemperature  = 0.7
	DefaultMaxTokens    = 150

	// APIKeyEnv is the environment variable holding the credential.
	APIKeyEnv = "CHATGPT_API_TOKEN"
)

// ErrMissingAPIKey is returned by Validate when no credential is configured.
var ErrMissingAPIKey = errors.New(APIKeyEnv + " environment variable or --api-key argument must be provided")

// Config holds all runtime configuration for the client.
type Config struct {
	APIKey  string
	BaseURL string

	Model        string
	SystemPrompt string
	Temperature  float64
	MaxTokens    int64

	// Timeout bounds one REPL turn. Zero means no deadline.
	Timeout time.Duration
	Verbose bool
}

// DefaultConfig returns a baseline configuration without side effects.
func DefaultConfig() Config {
	return Config{
		BaseURL:      DefaultBaseURL,
		Model:        DefaultModel,
		SystemPrompt: DefaultSystemPrompt,
		Temperature:  DefaultTemperature,
		MaxTokens:    DefaultMaxTokens,
	}
}

// Normalize sanitizes configuration values and applies defaults.
func Normalize(cfg Config) Config {
	cfg.APIKey = strings.TrimSpace(cfg.APIKey)
	cfg.BaseURL = strings.TrimSpace(cfg.BaseURL)
	cfg.Model = strings.TrimSpace(cfg.Model)
	cfg.SystemPrompt = strings.TrimSpace(cfg.SystemPrompt)

	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.SystemPrompt == "" {
		cfg.SystemPrompt = DefaultSystemPrompt
	}
	return cfg
}

// Validate reports configuration that cannot produce a working client.
func Validate(cfg Config) error {
	if strings.TrimSpace(cfg.APIKey) == "" {
		return ErrMissingAPIKey
	}
	if cfg.Temperature < 0 || cfg.Temperature > 2 {
		return fmt.Errorf("temperature must be within [0, 2], got %v", cfg.Temperature)
	}
	if cfg.MaxTokens <= 0 {
		return fmt.Errorf("max tokens must be positive, got %d", cfg.MaxTokens)
	}
	if cfg.Timeout < 0 {
		return fmt.Errorf("timeout must not be negative, got %s", cfg.Timeout)
	}
	return nil
}

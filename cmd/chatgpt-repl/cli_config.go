package main

import (
	"flag"
	"fmt"
	"io"
	"strings"

	configpkg "github.com/minhyannv/chatgpt-repl/pkg/config"
)

const usageHeader = `Usage: chatgpt-repl [--api-key YOUR_API_KEY] [--help] [options]

Interactive chat with an OpenAI-compatible chat-completion API.
The API key is read from ` + configpkg.APIKeyEnv + ` unless --api-key is given.

Options:
`

// parseCLIConfig layers defaults, the optional YAML file, environment and
// flags, in that order. It returns flag.ErrHelp after printing usage.
func parseCLIConfig(args []string, getenv func(string) string, usageOut io.Writer) (configpkg.Config, error) {
	defaults := configpkg.DefaultConfig()

	fs := flag.NewFlagSet("chatgpt-repl", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	fs.Usage = func() {
		_, _ = fmt.Fprint(usageOut, usageHeader)
		fs.SetOutput(usageOut)
		fs.PrintDefaults()
		fs.SetOutput(io.Discard)
	}

	apiKey := fs.String("api-key", "", "API key (overrides "+configpkg.APIKeyEnv+")")
	configFile := fs.String("config", "", "Path to a YAML config file")
	model := fs.String("model", defaults.Model, "Model identifier")
	baseURL := fs.String("base-url", defaults.BaseURL, "API base URL")
	system := fs.String("system", defaults.SystemPrompt, "System prompt that seeds the conversation")
	temperature := fs.Float64("temperature", defaults.Temperature, "Sampling temperature")
	maxTokens := fs.Int64("max-tokens", defaults.MaxTokens, "Maximum output tokens per reply")
	timeout := fs.Duration("timeout", defaults.Timeout, "Per-turn deadline, e.g. 60s (0 disables)")
	verbose := fs.Bool("verbose", defaults.Verbose, "Verbose debug logging to stderr")
	if err := fs.Parse(args); err != nil {
		return configpkg.Config{}, err
	}
	if fs.NArg() > 0 {
		return configpkg.Config{}, fmt.Errorf("unexpected arguments: %s", strings.Join(fs.Args(), " "))
	}

	cfg := defaults
	if path := strings.TrimSpace(*configFile); path != "" {
		loaded, err := configpkg.LoadFile(path, cfg)
		if err != nil {
			return configpkg.Config{}, err
		}
		cfg = loaded
	}

	if v := strings.TrimSpace(getenv(configpkg.APIKeyEnv)); v != "" {
		cfg.APIKey = v
	}
	if v := strings.TrimSpace(getenv("OPENAI_BASE_URL")); v != "" {
		cfg.BaseURL = v
	}
	if v := strings.TrimSpace(getenv("OPENAI_MODEL")); v != "" {
		cfg.Model = v
	}

	fs.Visit(func(f *flag.Flag) {
		switch f.Name {
		case "api-key":
			if v := strings.TrimSpace(*apiKey); v != "" {
				cfg.APIKey = v
			}
		case "model":
			cfg.Model = *model
		case "base-url":
			cfg.BaseURL = *baseURL
		case "system":
			cfg.SystemPrompt = *system
		case "temperature":
			cfg.Temperature = *temperature
		case "max-tokens":
			cfg.MaxTokens = *maxTokens
		case "timeout":
			cfg.Timeout = *timeout
		case "verbose":
			cfg.Verbose = *verbose
		}
	})

	cfg = configpkg.Normalize(cfg)
	if err := configpkg.Validate(cfg); err != nil {
		return configpkg.Config{}, err
	}
	return cfg, nil
}

package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// fileConfig mirrors the optional YAML config file.
// Pointer fields distinguish "absent" from zero values.
type fileConfig struct {
	BaseURL      *string  `yaml:"base_url"`
	Model        *string  `yaml:"model"`
	SystemPrompt *string  `yaml:"system_prompt"`
	Temperature  *float64 `yaml:"temperature"`
	MaxTokens    *int64   `yaml:"max_tokens"`
	Timeout      *string  `yaml:"timeout"`
	Verbose      *bool    `yaml:"verbose"`
}

// LoadFile overlays the YAML file at path onto cfg.
// The credential is deliberately not read from files.
func LoadFile(path string, cfg Config) (Config, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	var fc fileConfig
	dec := yaml.NewDecoder(bytes.NewReader(content))
	dec.KnownFields(true)
	if err := dec.Decode(&fc); err != nil && !errors.Is(err, io.EOF) {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}

	if fc.BaseURL != nil {
		cfg.BaseURL = *fc.BaseURL
	}
	if fc.Model != nil {
		cfg.Model = *fc.Model
	}
	if fc.SystemPrompt != nil {
		cfg.SystemPrompt = *fc.SystemPrompt
	}
	if fc.Temperature != nil {
		cfg.Temperature = *fc.Temperature
	}
	if fc.MaxTokens != nil {
		cfg.MaxTokens = *fc.MaxTokens
	}
	if fc.Timeout != nil {
		d, err := time.ParseDuration(strings.TrimSpace(*fc.Timeout))
		if err != nil {
			return cfg, fmt.Errorf("parse config %s: timeout: %w", path, err)
		}
		cfg.Timeout = d
	}
	if fc.Verbose != nil {
		cfg.Verbose = *fc.Verbose
	}
	return cfg, nil
}

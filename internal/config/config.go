// Package config loads and validates the reckoning.yaml project file.
package config

import (
	"fmt"
	"os"
	"strings"

	"gopkg.in/yaml.v3"
)

const (
	DefaultMinRuleConfidence   = 0.7
	DefaultAIFallbackTimeoutMS = 10000
	DefaultModel               = "gemini-2.0-flash"
	DefaultAPIKeyEnv           = "GEMINI_API_KEY"
)

type ProjectConfig struct {
	Project    string           `yaml:"project"`
	Version    int              `yaml:"version"`
	Database   DatabaseConfig   `yaml:"database"`
	Classifier ClassifierConfig `yaml:"classifier"`
}

type DatabaseConfig struct {
	Driver string `yaml:"driver"`
	DSN    string `yaml:"dsn"`
}

type ClassifierConfig struct {
	MinRuleConfidence   float64 `yaml:"min_rule_confidence"`
	EnableAIFallback    *bool   `yaml:"enable_ai_fallback"`
	AIFallbackTimeoutMS int     `yaml:"ai_fallback_timeout_ms"`
	Model               string  `yaml:"model"`
	APIKeyEnv           string  `yaml:"api_key_env"`
}

// FallbackEnabled defaults to true when the key is absent from the file.
func (c ClassifierConfig) FallbackEnabled() bool {
	if c.EnableAIFallback == nil {
		return true
	}
	return *c.EnableAIFallback
}

func LoadProjectConfig(path string) (*ProjectConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	var cfg ProjectConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	applyDefaults(&cfg)
	if err := validateProjectConfig(&cfg); err != nil {
		return nil, fmt.Errorf("loading project config: %w", err)
	}

	return &cfg, nil
}

func applyDefaults(cfg *ProjectConfig) {
	if cfg.Classifier.MinRuleConfidence == 0 {
		cfg.Classifier.MinRuleConfidence = DefaultMinRuleConfidence
	}
	if cfg.Classifier.AIFallbackTimeoutMS == 0 {
		cfg.Classifier.AIFallbackTimeoutMS = DefaultAIFallbackTimeoutMS
	}
	if strings.TrimSpace(cfg.Classifier.Model) == "" {
		cfg.Classifier.Model = DefaultModel
	}
	if strings.TrimSpace(cfg.Classifier.APIKeyEnv) == "" {
		cfg.Classifier.APIKeyEnv = DefaultAPIKeyEnv
	}
}

func validateProjectConfig(cfg *ProjectConfig) error {
	if strings.TrimSpace(cfg.Project) == "" {
		return fmt.Errorf("project name is required")
	}
	if cfg.Version != 1 {
		return fmt.Errorf("unsupported version: %d", cfg.Version)
	}
	switch cfg.Database.Driver {
	case "sqlite", "postgres":
	case "":
		return fmt.Errorf("database driver is required")
	default:
		return fmt.Errorf("unsupported database driver: %s", cfg.Database.Driver)
	}
	if strings.TrimSpace(cfg.Database.DSN) == "" {
		return fmt.Errorf("database dsn is required")
	}
	if cfg.Classifier.MinRuleConfidence < 0 || cfg.Classifier.MinRuleConfidence > 1 {
		return fmt.Errorf("classifier min_rule_confidence must be between 0 and 1: %v", cfg.Classifier.MinRuleConfidence)
	}
	if cfg.Classifier.AIFallbackTimeoutMS < 0 {
		return fmt.Errorf("classifier ai_fallback_timeout_ms must not be negative: %d", cfg.Classifier.AIFallbackTimeoutMS)
	}
	return nil
}

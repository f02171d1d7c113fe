// Package config loads agrovision settings from a YAML file.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/codeGROOVE-dev/agrovision/pkg/constants"
)

// Providers.
const (
	ProviderAuto   = ""
	ProviderGemini = "gemini"
	ProviderOpenAI = "openai"
)

// Cache modes.
const (
	CacheDisk   = "disk"
	CacheMemory = "memory"
	CacheSQLite = "sqlite"
	CacheNone   = "none"
)

// Config holds all agrovision configuration.
type Config struct {
	Listen     string           `yaml:"listen"`
	Language   string           `yaml:"language"`
	Provider   string           `yaml:"provider"`
	Gemini     GeminiConfig     `yaml:"gemini"`
	OpenAI     OpenAIConfig     `yaml:"openai"`
	Cache      CacheConfig      `yaml:"cache"`
	Classifier ClassifierConfig `yaml:"classifier"`
	History    HistoryConfig    `yaml:"history"`
}

// GeminiConfig selects the Gemini API key or Vertex AI project.
type GeminiConfig struct {
	APIKey     string `yaml:"api_key"`
	Model      string `yaml:"model"`
	GCPProject string `yaml:"gcp_project"`
	BaseURL    string `yaml:"base_url"`
}

// OpenAIConfig describes an OpenAI-compatible chat completions endpoint.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	BaseURL string `yaml:"base_url"`
	Model   string `yaml:"model"`
}

// CacheConfig controls where translated results are kept.
type CacheConfig struct {
	Mode       string        `yaml:"mode"`
	Dir        string        `yaml:"dir"`
	SQLitePath string        `yaml:"sqlite_path"`
	TTL        time.Duration `yaml:"ttl"`
}

// ClassifierConfig points at the prediction service.
type ClassifierConfig struct {
	URL string `yaml:"url"`
}

// HistoryConfig points at the scan history backend.
type HistoryConfig struct {
	URL    string `yaml:"url"`
	UserID string `yaml:"user_id"`
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	return &Config{
		Listen:   ":8080",
		Language: "en",
		Cache: CacheConfig{
			Mode: CacheDisk,
			TTL:  constants.ResultTTL,
		},
		History: HistoryConfig{
			UserID: constants.DefaultUserID,
		},
	}
}

// Load reads a YAML config file and expands environment variables.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := Default()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks the enumerated fields.
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderAuto, ProviderGemini, ProviderOpenAI:
	default:
		return fmt.Errorf("unknown provider %q", c.Provider)
	}
	switch c.Cache.Mode {
	case CacheDisk, CacheMemory, CacheNone:
	case CacheSQLite:
		if c.Cache.SQLitePath == "" {
			return fmt.Errorf("cache mode %q needs sqlite_path", c.Cache.Mode)
		}
	default:
		return fmt.Errorf("unknown cache mode %q", c.Cache.Mode)
	}
	if c.Cache.TTL <= 0 {
		return fmt.Errorf("cache ttl must be positive, got %v", c.Cache.TTL)
	}
	return nil
}

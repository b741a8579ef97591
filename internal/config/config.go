// Package config handles configuration loading and validation for tasknest.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/kirstym/tasknest/pkg/timefmt"
)

// Config holds the application configuration.
type Config struct {
	Addr         string       `yaml:"addr"`
	DBPath       string       `yaml:"db_path"`
	SnapshotPath string       `yaml:"snapshot_path"`
	TimeFormat   string       `yaml:"time_format"`
	OpenAI       OpenAIConfig `yaml:"openai"`
	Resend       ResendConfig `yaml:"resend"`
}

// OpenAIConfig configures the task-parse completion backend.
type OpenAIConfig struct {
	APIKey  string `yaml:"api_key"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
}

// ResendConfig configures the reminder email sender.
type ResendConfig struct {
	APIKey string `yaml:"api_key"`
	From   string `yaml:"from"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Addr:       ":8080",
		DBPath:     "tasknest.db",
		TimeFormat: string(timefmt.Default),
	}
}

// Load reads configuration from the given path. If configPath is empty or
// doesn't exist, returns defaults. API keys left empty in the file are
// filled from OPENAI_API_KEY and RESEND_API_KEY.
func Load(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	if configPath != "" {
		if _, err := os.Stat(configPath); err == nil {
			data, err := os.ReadFile(configPath)
			if err != nil {
				return nil, fmt.Errorf("read config file: %w", err)
			}

			if err := yaml.Unmarshal(data, &cfg); err != nil {
				return nil, fmt.Errorf("parse config file: %w", err)
			}
		}
	}

	cfg.applyDefaults()

	if cfg.OpenAI.APIKey == "" {
		cfg.OpenAI.APIKey = os.Getenv("OPENAI_API_KEY")
	}
	if cfg.Resend.APIKey == "" {
		cfg.Resend.APIKey = os.Getenv("RESEND_API_KEY")
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return &cfg, nil
}

// applyDefaults sets default values for any unset configuration options.
func (c *Config) applyDefaults() {
	defaults := DefaultConfig()
	if c.Addr == "" {
		c.Addr = defaults.Addr
	}
	if c.DBPath == "" {
		c.DBPath = defaults.DBPath
	}
	if c.TimeFormat == "" {
		c.TimeFormat = defaults.TimeFormat
	}
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if !timefmt.Clock(c.TimeFormat).Valid() {
		return fmt.Errorf("time_format must be %q or %q, got %q", timefmt.Clock12, timefmt.Clock24, c.TimeFormat)
	}
	return nil
}

// Clock returns the configured 12h/24h display preference.
func (c *Config) Clock() timefmt.Clock {
	return timefmt.Clock(c.TimeFormat)
}

// Package config handles application configuration from environment variables
package config

import (
	"errors"
	"fmt"

	"github.com/caarlos0/env/v11"
	"github.com/rs/zerolog"
)

// Config holds all process-level configuration
type Config struct {
	Port     string `env:"PORT" envDefault:"8000"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// LocalFilesDir is the root that local file paths are joined to
	LocalFilesDir       string `env:"LOCAL_FILES_DIR"`
	RenderLocalMarkdown bool   `env:"RENDER_LOCAL_MARKDOWN" envDefault:"false"`

	// ConfigFilePath locates the site YAML, on disk or inside ConfigFileProject
	ConfigFilePath    string `env:"CONFIG_FILE_PATH,required,notEmpty"`
	ConfigFileProject string `env:"CONFIG_FILE_GITHUB_PROJECT"`

	GitHub GitHubConfig
}

// GitHubConfig holds contents API settings
type GitHubConfig struct {
	AccessToken string `env:"GITHUB_ACCESS_TOKEN"`
	APIURL      string `env:"GITHUB_API_URL" envDefault:"https://api.github.com"`
}

// Load reads configuration from environment variables
func Load() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse environment: %w", err)
	}
	return cfg, nil
}

// RemoteConfig returns true if the site config is fetched from GitHub
func (c *Config) RemoteConfig() bool {
	return c.ConfigFileProject != ""
}

// Level returns the parsed log level
func (c *Config) Level() (zerolog.Level, error) {
	return zerolog.ParseLevel(c.LogLevel)
}

// Validate ensures the configuration is usable
func (c *Config) Validate() error {
	if c.ConfigFilePath == "" {
		return errors.New("CONFIG_FILE_PATH must be set")
	}
	if c.RemoteConfig() && c.GitHub.AccessToken == "" {
		return errors.New("GITHUB_ACCESS_TOKEN is required when CONFIG_FILE_GITHUB_PROJECT is set")
	}
	if _, err := c.Level(); err != nil {
		return fmt.Errorf("invalid LOG_LEVEL %q: %w", c.LogLevel, err)
	}
	return nil
}

// Package config loads the application configuration from YAML, with
// sensible defaults for a local Ollama setup.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config is the application configuration.
type Config struct {
	MenuPath   string           `yaml:"menu_path"`
	Provider   ProviderConfig   `yaml:"provider"`
	Generation GenerationConfig `yaml:"generation"`
	Server     ServerConfig     `yaml:"server"`
}

// ProviderConfig selects the LLM backend.
type ProviderConfig struct {
	Type    string `yaml:"type"`
	Model   string `yaml:"model"`
	BaseURL string `yaml:"base_url"`
	APIKey  string `yaml:"api_key"`
}

// GenerationConfig carries the generation parameters. Guard enables the
// screening pass that refuses off-topic requests before they reach the
// waiter.
type GenerationConfig struct {
	MaxTokens   int     `yaml:"max_tokens"`
	Temperature float64 `yaml:"temperature"`
	Guard       bool    `yaml:"guard"`
}

// ServerConfig configures the HTTP chat server.
type ServerConfig struct {
	Port        int `yaml:"port"`
	MetricsPort int `yaml:"metrics_port"`
}

// Default returns the baseline configuration.
func Default() Config {
	return Config{
		MenuPath: "menu.json",
		Provider: ProviderConfig{Type: "ollama"},
		Generation: GenerationConfig{
			MaxTokens:   1024,
			Temperature: 0.8,
		},
		Server: ServerConfig{
			Port:        8080,
			MetricsPort: 9090,
		},
	}
}

// Load reads a YAML configuration file over the defaults. A missing path
// returns the defaults unchanged.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

package config

import (
	"os"
	"path/filepath"

	"github.com/goccy/go-yaml"
)

const (
	defaultAgentURL = "http://localhost:8080"
	envVarAgentURL  = "POSGUARD_AGENT_URL"
	configFileName  = ".posguard/posctl.yaml"
)

// Config holds the posctl configuration
type Config struct {
	AgentURL string `yaml:"agent"`
}

// Load loads configuration from file and environment
func Load() (*Config, error) {
	cfg := &Config{}

	// Try to load from config file
	if err := loadFromFile(cfg); err != nil {
		// Ignore file not found errors, use defaults
	}

	return cfg, nil
}

// GetAgentURL returns the agent URL with priority: env var > config file > default
func (c *Config) GetAgentURL() string {
	if url := os.Getenv(envVarAgentURL); url != "" {
		return url
	}

	if c.AgentURL != "" {
		return c.AgentURL
	}

	return defaultAgentURL
}

// loadFromFile loads configuration from ~/.posguard/posctl.yaml
func loadFromFile(cfg *Config) error {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return err
	}

	configPath := filepath.Join(homeDir, configFileName)
	data, err := os.ReadFile(configPath)
	if err != nil {
		return err
	}

	return yaml.Unmarshal(data, cfg)
}

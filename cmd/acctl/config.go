package main

import (
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// cliConfig is the YAML file layout. Every field falls back to an ACCTL_*
// environment variable, then to a default; flags win over both.
type cliConfig struct {
	Backend backendConfig `yaml:"backend"`
	Metrics metricsConfig `yaml:"metrics"`
	Audit   auditConfig   `yaml:"audit"`
}

type backendConfig struct {
	BaseURL        string `yaml:"base_url"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
	UserAgent      string `yaml:"user_agent"`
}

type metricsConfig struct {
	Enabled bool `yaml:"enabled"`
}

type auditConfig struct {
	Enabled bool   `yaml:"enabled"`
	Log     string `yaml:"log"`
}

// loadCLIConfig reads the YAML file at path. An empty path falls back to the
// ACCTL_CONFIG environment variable; when neither is set, defaults apply.
func loadCLIConfig(path string) (*cliConfig, error) {
	cfg := &cliConfig{}

	if path == "" {
		path = os.Getenv("ACCTL_CONFIG")
	}
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, err
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, err
		}
	}

	if cfg.Backend.BaseURL == "" {
		cfg.Backend.BaseURL = os.Getenv("ACCTL_BASE_URL")
	}
	if cfg.Backend.UserAgent == "" {
		cfg.Backend.UserAgent = os.Getenv("ACCTL_USER_AGENT")
	}

	return cfg, nil
}

func (c *cliConfig) timeout() time.Duration {
	if c.Backend.TimeoutSeconds <= 0 {
		return 15 * time.Second
	}
	return time.Duration(c.Backend.TimeoutSeconds) * time.Second
}

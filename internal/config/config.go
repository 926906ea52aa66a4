// Package config loads the repoprune job configuration and the retention
// rules file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// StoreConfig describes how to reach the artifact repository.
type StoreConfig struct {
	Endpoint  string        `yaml:"endpoint"`
	TokenFile string        `yaml:"token_file"`
	Timeout   time.Duration `yaml:"timeout"`
}

// Config is the job-level configuration. Retention rules live in a separate
// line-oriented file named by Rules.
type Config struct {
	Store          StoreConfig `yaml:"store"`
	Journal        string      `yaml:"journal"`
	Rules          string      `yaml:"rules"`
	Schedule       string      `yaml:"schedule"`
	MetricsAddress string      `yaml:"metrics_address"`
	DryRun         bool        `yaml:"dry_run"`
}

// Dir returns the repoprune config directory, creating it if needed.
// Defaults to ~/.repoprune.
func Dir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get user home directory: %w", err)
	}
	dir := filepath.Join(home, ".repoprune")
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create repoprune directory: %w", err)
	}
	return dir, nil
}

// Load reads, defaults and validates the YAML config at path. A missing or
// unreadable config file is a fatal job-level error.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %q: %w", path, err)
	}

	applyDefaults(&cfg)
	if err := validate(&cfg); err != nil {
		return nil, fmt.Errorf("invalid config %q: %w", path, err)
	}
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Store.Timeout == 0 {
		cfg.Store.Timeout = 30 * time.Second
	}
	dir, err := Dir()
	if err != nil {
		return
	}
	if cfg.Journal == "" {
		cfg.Journal = filepath.Join(dir, "journal.db")
	}
	if cfg.Rules == "" {
		cfg.Rules = filepath.Join(dir, "rules.conf")
	}
}

func validate(cfg *Config) error {
	if cfg.Store.Endpoint == "" {
		return fmt.Errorf("store.endpoint is required")
	}
	if !strings.HasPrefix(cfg.Store.Endpoint, "http://") && !strings.HasPrefix(cfg.Store.Endpoint, "https://") {
		return fmt.Errorf("store.endpoint must be an http(s) URL, got %q", cfg.Store.Endpoint)
	}
	if cfg.Store.Timeout < 0 {
		return fmt.Errorf("store.timeout must not be negative")
	}

	// Expand ~ in file paths up front so the rest of the program never
	// sees unexpanded paths.
	for _, p := range []*string{&cfg.Store.TokenFile, &cfg.Journal, &cfg.Rules} {
		expanded, err := expandHome(*p)
		if err != nil {
			return err
		}
		*p = expanded
	}
	return nil
}

func expandHome(path string) (string, error) {
	if path == "" || !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to expand %q: %w", path, err)
	}
	return filepath.Join(home, path[2:]), nil
}

// Token reads the bearer token named by store.token_file. An empty
// token_file means anonymous access and returns an empty token.
func (c *Config) Token() (string, error) {
	if c.Store.TokenFile == "" {
		return "", nil
	}
	data, err := os.ReadFile(c.Store.TokenFile)
	if err != nil {
		return "", fmt.Errorf("failed to read token file %q: %w", c.Store.TokenFile, err)
	}
	return strings.TrimSpace(string(data)), nil
}

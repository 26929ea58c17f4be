package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config is the top-level configuration
type Config struct {
	Upstream UpstreamConfig `yaml:"upstream"`
	Cache    CacheConfig    `yaml:"cache"`
}

// UpstreamConfig identifies the release-hosting API and project to query
type UpstreamConfig struct {
	APIBase string `yaml:"api_base"`
	Owner   string `yaml:"owner"`
	Repo    string `yaml:"repo"`
}

// CacheConfig holds listing-cache settings
type CacheConfig struct {
	DBPath string `yaml:"db_path"`
}

// DefaultConfig returns a config with sensible defaults
func DefaultConfig() *Config {
	cfg := &Config{
		Upstream: UpstreamConfig{
			APIBase: "https://api.github.com",
			Owner:   "astral-sh",
			Repo:    "python-build-standalone",
		},
	}
	if cacheDir, err := os.UserCacheDir(); err == nil {
		cfg.Cache.DBPath = filepath.Join(cacheDir, "pybootstrap", "pybootstrap.db")
	}
	return cfg
}

// Load reads a config file from the given path
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// FindConfigFile searches for a config file in standard locations
func FindConfigFile() (string, error) {
	searchPaths := []string{
		"pybootstrap.yaml",
		"/etc/pybootstrap/pybootstrap.yaml",
	}

	if home, err := os.UserHomeDir(); err == nil {
		searchPaths = append(searchPaths,
			filepath.Join(home, ".config", "pybootstrap", "pybootstrap.yaml"),
		)
	}

	for _, path := range searchPaths {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	return "", fmt.Errorf("no config file found (searched: %v)", searchPaths)
}

// Package config provides configuration loading and structs for the grokiwiki server.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config holds all configuration for the application.
type Config struct {
	Debug  bool         `yaml:"debug"`
	Server ServerConfig `yaml:"server"`
	Index  IndexConfig  `yaml:"index"`
	Search SearchConfig `yaml:"search"`
	Fetch  FetchConfig  `yaml:"fetch"`
	LLM    LLMConfig    `yaml:"llm"`
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host string `yaml:"host"`
	Port int    `yaml:"port"`
}

// IndexConfig selects and locates the slug index backing store. Persisted is
// the single mode-selection signal: false keeps the corpus in memory (built
// from LinksDir at startup, development), true opens the prebuilt artifact
// (production). The choice is read once at startup and fixed for the process.
type IndexConfig struct {
	Persisted      bool   `yaml:"persisted"`
	Backend        string `yaml:"backend"` // "sqlite" (default) or "bleve"
	DatabasePath   string `yaml:"database_path"`
	BleveIndexPath string `yaml:"bleve_index_path"`
	LinksDir       string `yaml:"links_dir"`
}

// SearchConfig holds suggestion settings.
type SearchConfig struct {
	DefaultLimit int `yaml:"default_limit"`
	MaxLimit     int `yaml:"max_limit"`
}

// FetchConfig holds article fetcher settings.
type FetchConfig struct {
	WikipediaAPIBase string `yaml:"wikipedia_api_base"`
	GrokipediaBase   string `yaml:"grokipedia_base"`
	SitemapIndexURL  string `yaml:"sitemap_index_url"`
	FirecrawlAPIURL  string `yaml:"firecrawl_api_url"`
	FirecrawlAPIKey  string `yaml:"firecrawl_api_key"`
	UserAgent        string `yaml:"user_agent"`
	TimeoutSeconds   int    `yaml:"timeout_seconds"`
}

// LLMConfig holds OpenRouter settings for the comparison service.
type LLMConfig struct {
	APIURL         string `yaml:"api_url"`
	APIKey         string `yaml:"api_key"`
	Model          string `yaml:"model"`
	Referer        string `yaml:"referer"`
	AppTitle       string `yaml:"app_title"`
	TimeoutSeconds int    `yaml:"timeout_seconds"`
}

// Load reads and parses the config file at path, applies defaults, expands
// paths, and applies environment overrides. Returns an error if the file
// cannot be read or parsed.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}

	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}

	ApplyDefaults(&cfg)
	applyEnv(&cfg)

	configDir := filepath.Dir(path)
	cfg.Index.DatabasePath = expandPath(cfg.Index.DatabasePath, configDir)
	cfg.Index.BleveIndexPath = expandPath(cfg.Index.BleveIndexPath, configDir)
	cfg.Index.LinksDir = expandPath(cfg.Index.LinksDir, configDir)

	return &cfg, nil
}

// applyEnv layers environment overrides on top of the file config. The
// persisted-mode flag honors the hosting platform's environment marker, so a
// production deployment flips to the prebuilt database without a config edit.
func applyEnv(cfg *Config) {
	if envBool("GROKIWIKI_PERSISTED_INDEX") || os.Getenv("RAILWAY_ENVIRONMENT") != "" {
		cfg.Index.Persisted = true
	}
	if v := os.Getenv("SLUG_DB_PATH"); v != "" {
		cfg.Index.DatabasePath = v
	}
	if v := os.Getenv("OPENROUTER_API_KEY"); v != "" {
		cfg.LLM.APIKey = v
	}
	if v := os.Getenv("FIRECRAWL_API_KEY"); v != "" {
		cfg.Fetch.FirecrawlAPIKey = v
	}
}

func envBool(name string) bool {
	switch strings.ToLower(os.Getenv(name)) {
	case "1", "true", "yes":
		return true
	}
	return false
}

// expandPath converts a path to absolute. Paths starting with "./" are
// relative to configDir; other relative paths are relative to the home
// directory.
func expandPath(path string, configDir string) string {
	if path == "" || filepath.IsAbs(path) {
		return path
	}
	if strings.HasPrefix(path, "./") || path == "." {
		return filepath.Join(configDir, path)
	}
	if home, err := os.UserHomeDir(); err == nil {
		return filepath.Join(home, path)
	}
	return path
}

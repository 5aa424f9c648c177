package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func clearEnv(t *testing.T) {
	t.Helper()
	for _, name := range []string{"GROKIWIKI_PERSISTED_INDEX", "RAILWAY_ENVIRONMENT", "SLUG_DB_PATH", "OPENROUTER_API_KEY", "FIRECRAWL_API_KEY"} {
		t.Setenv(name, "")
		os.Unsetenv(name)
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, "debug: true\n")

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Debug {
		t.Error("Debug not read from file")
	}
	if cfg.Server.Host != "localhost" || cfg.Server.Port != 8080 {
		t.Errorf("server defaults = %s:%d, want localhost:8080", cfg.Server.Host, cfg.Server.Port)
	}
	if cfg.Index.Persisted {
		t.Error("Persisted defaults to true, want false")
	}
	if cfg.Index.Backend != "sqlite" {
		t.Errorf("Backend default = %q, want sqlite", cfg.Index.Backend)
	}
	if cfg.Search.DefaultLimit != 8 || cfg.Search.MaxLimit != 50 {
		t.Errorf("search defaults = %d/%d, want 8/50", cfg.Search.DefaultLimit, cfg.Search.MaxLimit)
	}
	if cfg.LLM.Model != "x-ai/grok-4-fast" {
		t.Errorf("LLM model default = %q", cfg.LLM.Model)
	}
	if cfg.Fetch.SitemapIndexURL != "https://grokipedia.com/sitemap.xml" {
		t.Errorf("sitemap default = %q", cfg.Fetch.SitemapIndexURL)
	}
}

func TestLoadFileValues(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
server:
  host: 0.0.0.0
  port: 9090
index:
  persisted: true
  backend: bleve
  database_path: /tmp/slugs.db
search:
  default_limit: 5
  max_limit: 20
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Server.Host != "0.0.0.0" || cfg.Server.Port != 9090 {
		t.Errorf("server = %s:%d", cfg.Server.Host, cfg.Server.Port)
	}
	if !cfg.Index.Persisted || cfg.Index.Backend != "bleve" {
		t.Errorf("index = %+v", cfg.Index)
	}
	if cfg.Index.DatabasePath != "/tmp/slugs.db" {
		t.Errorf("DatabasePath = %q", cfg.Index.DatabasePath)
	}
	if cfg.Search.DefaultLimit != 5 || cfg.Search.MaxLimit != 20 {
		t.Errorf("search = %+v", cfg.Search)
	}
}

func TestLoadEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv("GROKIWIKI_PERSISTED_INDEX", "true")
	t.Setenv("SLUG_DB_PATH", "/data/prod-slugs.db")
	t.Setenv("OPENROUTER_API_KEY", "sk-test")
	t.Setenv("FIRECRAWL_API_KEY", "fc-test")

	cfg, err := Load(writeConfig(t, "debug: false\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Index.Persisted {
		t.Error("GROKIWIKI_PERSISTED_INDEX did not enable persisted mode")
	}
	if cfg.Index.DatabasePath != "/data/prod-slugs.db" {
		t.Errorf("DatabasePath = %q, want env override", cfg.Index.DatabasePath)
	}
	if cfg.LLM.APIKey != "sk-test" {
		t.Errorf("LLM.APIKey = %q, want env override", cfg.LLM.APIKey)
	}
	if cfg.Fetch.FirecrawlAPIKey != "fc-test" {
		t.Errorf("FirecrawlAPIKey = %q, want env override", cfg.Fetch.FirecrawlAPIKey)
	}
}

func TestLoadRailwayEnvironmentImpliesPersisted(t *testing.T) {
	clearEnv(t)
	t.Setenv("RAILWAY_ENVIRONMENT", "production")

	cfg, err := Load(writeConfig(t, "debug: false\n"))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Index.Persisted {
		t.Error("RAILWAY_ENVIRONMENT did not enable persisted mode")
	}
}

func TestLoadRelativePathsExpand(t *testing.T) {
	clearEnv(t)
	path := writeConfig(t, `
index:
  database_path: ./data/slugs.db
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	want := filepath.Join(filepath.Dir(path), "data", "slugs.db")
	if cfg.Index.DatabasePath != want {
		t.Errorf("DatabasePath = %q, want %q", cfg.Index.DatabasePath, want)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.yaml")); err == nil {
		t.Fatal("expected error for missing config file")
	}
}

func TestLoadMalformedYAML(t *testing.T) {
	if _, err := Load(writeConfig(t, "server: [not a mapping\n")); err == nil {
		t.Fatal("expected error for malformed yaml")
	}
}

func TestEnvBool(t *testing.T) {
	tests := []struct {
		value string
		want  bool
	}{
		{"1", true},
		{"true", true},
		{"TRUE", true},
		{"yes", true},
		{"0", false},
		{"false", false},
		{"", false},
		{"banana", false},
	}
	for _, tt := range tests {
		t.Setenv("GROKIWIKI_TEST_BOOL", tt.value)
		if got := envBool("GROKIWIKI_TEST_BOOL"); got != tt.want {
			t.Errorf("envBool(%q) = %t, want %t", tt.value, got, tt.want)
		}
	}
}

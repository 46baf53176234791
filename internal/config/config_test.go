package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := Validate(DefaultConfig()); err != nil {
		t.Fatalf("default config should validate, got %v", err)
	}
}

func TestDefaultConfigDisablesTLSVerification(t *testing.T) {
	if !DefaultConfig().Fetcher.TLSInsecure {
		t.Error("expected tls_insecure to default to true")
	}
}

func TestValidateRejects(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
		want   string
	}{
		{"fetcher type", func(c *Config) { c.Fetcher.Type = "selenium" }, "fetcher.type"},
		{"negative retries", func(c *Config) { c.Fetcher.MaxRetries = -1 }, "fetcher.max_retries must be >= 0"},
		{"zero timeout", func(c *Config) { c.Fetcher.Timeout = 0 }, "fetcher.timeout"},
		{"source", func(c *Config) { c.Search.Source = "bing" }, "search.source"},
		{"pages", func(c *Config) { c.Search.MaxPages = 0 }, "search.max_pages"},
		{"storage", func(c *Config) { c.Storage.Type = "csv" }, "storage.type"},
		{"mongo uri", func(c *Config) { c.Storage.Type = "mongo" }, "storage.mongo_uri"},
		{"overlap", func(c *Config) { c.Matcher.MinOverlap = 1.5 }, "matcher.min_overlap"},
		{"provider", func(c *Config) { c.AI.Enabled = true; c.AI.Provider = "claude" }, "ai.provider"},
		{"rule type", func(c *Config) {
			c.Detail.DateRules = append(c.Detail.DateRules, ParseRule{Name: "x", Type: "jsonpath", Selector: "$"})
		}, "rule \"x\""},
		{"rule pattern", func(c *Config) {
			c.Detail.JournalistRules = []ParseRule{{Name: "bad", Type: "regex", Pattern: "("}}
		}, "invalid pattern"},
		{"log level", func(c *Config) { c.Logging.Level = "trace" }, "logging.level"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			err := Validate(cfg)
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("expected error containing %q, got %q", tt.want, err.Error())
			}
		})
	}
}

func TestLoadFromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "newshound.yaml")
	content := `
fetcher:
  type: rod
  timeout: 15s
  max_retries: 5
search:
  max_pages: 2
keywords:
  defaults: ["태양광"]
storage:
  path: ` + filepath.Join(dir, "news.db") + `
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Fetcher.Type != "rod" {
		t.Errorf("expected fetcher.type rod, got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.Timeout != 15*time.Second {
		t.Errorf("expected 15s timeout, got %v", cfg.Fetcher.Timeout)
	}
	if cfg.Fetcher.MaxRetries != 5 {
		t.Errorf("expected 5 retries, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Search.MaxPages != 2 {
		t.Errorf("expected 2 pages, got %d", cfg.Search.MaxPages)
	}
	if len(cfg.Keywords.Defaults) != 1 || cfg.Keywords.Defaults[0] != "태양광" {
		t.Errorf("unexpected keywords: %v", cfg.Keywords.Defaults)
	}
	// Untouched sections keep their defaults.
	if cfg.Search.Selectors.Item != ".news_area" {
		t.Errorf("expected default item selector, got %q", cfg.Search.Selectors.Item)
	}
	if len(cfg.Detail.DateRules) == 0 {
		t.Error("expected default date rules to survive loading")
	}
}

func TestLoadMissingExplicitFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "absent.yaml")); err == nil {
		t.Error("expected error for missing explicit config file")
	}
}

func TestEnvOverride(t *testing.T) {
	t.Setenv("NEWSHOUND_FETCHER_MAX_RETRIES", "7")
	path := filepath.Join(t.TempDir(), "empty.yaml")
	if err := os.WriteFile(path, []byte("{}\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Fetcher.MaxRetries != 7 {
		t.Errorf("expected env override to 7, got %d", cfg.Fetcher.MaxRetries)
	}
}

func TestProviderKeyFallback(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "sk-test")
	path := filepath.Join(t.TempDir(), "ai.yaml")
	if err := os.WriteFile(path, []byte("ai:\n  provider: openai\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.AI.APIKey != "sk-test" {
		t.Errorf("expected key from OPENAI_API_KEY, got %q", cfg.AI.APIKey)
	}
}

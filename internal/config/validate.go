package config

import (
	"fmt"
	"net/url"
	"regexp"
)

// Validate checks the configuration for invalid values.
func Validate(cfg *Config) error {
	switch cfg.Fetcher.Type {
	case "http", "rod", "playwright":
	default:
		return fmt.Errorf("fetcher.type must be 'http', 'rod' or 'playwright', got %q", cfg.Fetcher.Type)
	}
	if cfg.Fetcher.Timeout <= 0 {
		return fmt.Errorf("fetcher.timeout must be > 0")
	}
	if cfg.Fetcher.MaxRetries < 0 {
		return fmt.Errorf("fetcher.max_retries must be >= 0, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.MaxRetries > 10 {
		return fmt.Errorf("fetcher.max_retries must be <= 10, got %d", cfg.Fetcher.MaxRetries)
	}
	if cfg.Fetcher.RetryBaseDelay < 0 {
		return fmt.Errorf("fetcher.retry_base_delay must be >= 0")
	}
	if cfg.Fetcher.MaxBodySize <= 0 {
		return fmt.Errorf("fetcher.max_body_size must be > 0")
	}
	if cfg.Fetcher.MaxRedirects < 0 {
		return fmt.Errorf("fetcher.max_redirects must be >= 0")
	}

	switch cfg.Search.Source {
	case "naver", "googlenews":
	default:
		return fmt.Errorf("search.source must be 'naver' or 'googlenews', got %q", cfg.Search.Source)
	}
	if err := ValidateURL(cfg.Search.Endpoint); err != nil {
		return fmt.Errorf("search.endpoint: %w", err)
	}
	if cfg.Search.MaxPages < 1 {
		return fmt.Errorf("search.max_pages must be >= 1, got %d", cfg.Search.MaxPages)
	}
	if cfg.Search.PageSize < 1 {
		return fmt.Errorf("search.page_size must be >= 1, got %d", cfg.Search.PageSize)
	}
	if cfg.Search.Selectors.Item == "" || cfg.Search.Selectors.Title == "" {
		return fmt.Errorf("search.selectors.item and search.selectors.title are required")
	}

	for _, group := range [][]ParseRule{cfg.Detail.DateRules, cfg.Detail.JournalistRules} {
		for _, rule := range group {
			if err := validateRule(rule); err != nil {
				return err
			}
		}
	}

	if cfg.AI.Enabled {
		switch cfg.AI.Provider {
		case "openai", "gemini", "ollama":
		default:
			return fmt.Errorf("ai.provider must be 'openai', 'gemini' or 'ollama', got %q", cfg.AI.Provider)
		}
		if cfg.AI.Model == "" {
			return fmt.Errorf("ai.model is required when ai.enabled is true")
		}
		if cfg.AI.Temperature < 0 {
			return fmt.Errorf("ai.temperature must be >= 0, got %v", cfg.AI.Temperature)
		}
	}

	switch cfg.Storage.Type {
	case "sqlite":
		if cfg.Storage.Path == "" {
			return fmt.Errorf("storage.path is required for sqlite")
		}
	case "mongo":
		if cfg.Storage.MongoURI == "" {
			return fmt.Errorf("storage.mongo_uri is required for mongo")
		}
	default:
		return fmt.Errorf("storage.type %q is not supported (valid: sqlite, mongo)", cfg.Storage.Type)
	}

	if cfg.Matcher.MinOverlap <= 0 || cfg.Matcher.MinOverlap > 1 {
		return fmt.Errorf("matcher.min_overlap must be in (0, 1], got %v", cfg.Matcher.MinOverlap)
	}

	validLogLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLogLevels[cfg.Logging.Level] {
		return fmt.Errorf("logging.level must be debug/info/warn/error, got %q", cfg.Logging.Level)
	}
	if cfg.Logging.Format != "text" && cfg.Logging.Format != "json" {
		return fmt.Errorf("logging.format must be 'text' or 'json', got %q", cfg.Logging.Format)
	}

	return nil
}

func validateRule(rule ParseRule) error {
	switch rule.Type {
	case "", "css", "xpath", "meta", "jsonld":
		if rule.Selector == "" {
			return fmt.Errorf("rule %q: selector is required for type %q", rule.Name, rule.Type)
		}
	case "regex":
		if _, err := regexp.Compile(rule.Pattern); err != nil {
			return fmt.Errorf("rule %q: invalid pattern: %w", rule.Name, err)
		}
	default:
		return fmt.Errorf("rule %q: type must be css, xpath, meta, jsonld or regex, got %q", rule.Name, rule.Type)
	}
	return nil
}

// ValidateURL checks if a URL string is an absolute http(s) URL.
func ValidateURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("URL scheme must be http or https, got %q", u.Scheme)
	}
	if u.Host == "" {
		return fmt.Errorf("URL must have a host")
	}
	return nil
}

package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Load reads configuration from .env, file, environment, and defaults.
// Priority (highest to lowest): env vars > config file > defaults.
// CLI flags are applied on top by the caller.
func Load(configPath string) (*Config, error) {
	// A missing .env is the normal case outside development.
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("failed to load .env: %w", err)
	}

	cfg := DefaultConfig()

	v := viper.New()
	v.SetConfigType("yaml")

	setDefaults(v, cfg)

	v.SetEnvPrefix("NEWSHOUND")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.SetConfigName("newshound")
		v.AddConfigPath(".")
		v.AddConfigPath("./configs")
		home, err := os.UserHomeDir()
		if err == nil {
			v.AddConfigPath(filepath.Join(home, ".newshound"))
		}
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) || configPath != "" {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	applyProviderKeys(cfg)

	return cfg, nil
}

// applyProviderKeys falls back to the provider's conventional environment
// variable when no key was configured explicitly.
func applyProviderKeys(cfg *Config) {
	if cfg.AI.APIKey != "" {
		return
	}
	switch cfg.AI.Provider {
	case "openai":
		cfg.AI.APIKey = os.Getenv("OPENAI_API_KEY")
	case "gemini":
		cfg.AI.APIKey = os.Getenv("GEMINI_API_KEY")
		if cfg.AI.APIKey == "" {
			cfg.AI.APIKey = os.Getenv("GOOGLE_API_KEY")
		}
	}
}

// setDefaults registers default values in viper so that env overrides work
// for keys absent from the config file.
func setDefaults(v *viper.Viper, cfg *Config) {
	v.SetDefault("fetcher.type", cfg.Fetcher.Type)
	v.SetDefault("fetcher.timeout", cfg.Fetcher.Timeout)
	v.SetDefault("fetcher.max_retries", cfg.Fetcher.MaxRetries)
	v.SetDefault("fetcher.retry_base_delay", cfg.Fetcher.RetryBaseDelay)
	v.SetDefault("fetcher.retry_max_delay", cfg.Fetcher.RetryMaxDelay)
	v.SetDefault("fetcher.tls_insecure", cfg.Fetcher.TLSInsecure)
	v.SetDefault("fetcher.user_agents", cfg.Fetcher.UserAgents)
	v.SetDefault("fetcher.accept_language", cfg.Fetcher.AcceptLanguage)
	v.SetDefault("fetcher.follow_redirects", cfg.Fetcher.FollowRedirects)
	v.SetDefault("fetcher.max_redirects", cfg.Fetcher.MaxRedirects)
	v.SetDefault("fetcher.max_body_size", cfg.Fetcher.MaxBodySize)
	v.SetDefault("fetcher.idle_conn_timeout", cfg.Fetcher.IdleConnTimeout)
	v.SetDefault("fetcher.max_idle_conns", cfg.Fetcher.MaxIdleConns)
	v.SetDefault("fetcher.headless", cfg.Fetcher.Headless)
	v.SetDefault("fetcher.stealth", cfg.Fetcher.Stealth)
	v.SetDefault("fetcher.wait_selector", cfg.Fetcher.WaitSelector)
	v.SetDefault("fetcher.wait_timeout", cfg.Fetcher.WaitTimeout)

	v.SetDefault("search.source", cfg.Search.Source)
	v.SetDefault("search.endpoint", cfg.Search.Endpoint)
	v.SetDefault("search.sort", cfg.Search.Sort)
	v.SetDefault("search.max_pages", cfg.Search.MaxPages)
	v.SetDefault("search.page_size", cfg.Search.PageSize)
	v.SetDefault("search.delay", cfg.Search.Delay)
	v.SetDefault("search.selectors.item", cfg.Search.Selectors.Item)
	v.SetDefault("search.selectors.title", cfg.Search.Selectors.Title)
	v.SetDefault("search.selectors.outlet", cfg.Search.Selectors.Outlet)
	v.SetDefault("search.selectors.date", cfg.Search.Selectors.Date)

	v.SetDefault("detail.enabled", cfg.Detail.Enabled)
	v.SetDefault("detail.max_content_runes", cfg.Detail.MaxContentRunes)

	v.SetDefault("ai.enabled", cfg.AI.Enabled)
	v.SetDefault("ai.provider", cfg.AI.Provider)
	v.SetDefault("ai.model", cfg.AI.Model)
	v.SetDefault("ai.endpoint", cfg.AI.Endpoint)
	v.SetDefault("ai.api_key", cfg.AI.APIKey)
	v.SetDefault("ai.temperature", cfg.AI.Temperature)
	v.SetDefault("ai.max_tokens", cfg.AI.MaxTokens)
	v.SetDefault("ai.timeout", cfg.AI.Timeout)

	v.SetDefault("storage.type", cfg.Storage.Type)
	v.SetDefault("storage.path", cfg.Storage.Path)
	v.SetDefault("storage.mongo_uri", cfg.Storage.MongoURI)
	v.SetDefault("storage.mongo_database", cfg.Storage.MongoDatabase)
	v.SetDefault("storage.timeout", cfg.Storage.Timeout)

	v.SetDefault("keywords.defaults", cfg.Keywords.Defaults)

	v.SetDefault("matcher.min_overlap", cfg.Matcher.MinOverlap)
	v.SetDefault("matcher.domain_keywords", cfg.Matcher.DomainKeywords)

	v.SetDefault("verify.fixtures_path", cfg.Verify.FixturesPath)
	v.SetDefault("verify.check_live", cfg.Verify.CheckLive)

	v.SetDefault("logging.level", cfg.Logging.Level)
	v.SetDefault("logging.format", cfg.Logging.Format)
}

package config

import (
	"time"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Config is the root configuration for NewsHound.
type Config struct {
	Fetcher  FetcherConfig  `mapstructure:"fetcher"  yaml:"fetcher"`
	Search   SearchConfig   `mapstructure:"search"   yaml:"search"`
	Detail   DetailConfig   `mapstructure:"detail"   yaml:"detail"`
	AI       AIConfig       `mapstructure:"ai"       yaml:"ai"`
	Storage  StorageConfig  `mapstructure:"storage"  yaml:"storage"`
	Keywords KeywordsConfig `mapstructure:"keywords" yaml:"keywords"`
	Matcher  MatcherConfig  `mapstructure:"matcher"  yaml:"matcher"`
	Verify   VerifyConfig   `mapstructure:"verify"   yaml:"verify"`
	Logging  LoggingConfig  `mapstructure:"logging"  yaml:"logging"`
}

// FetcherConfig controls how markup is retrieved.
type FetcherConfig struct {
	// Type selects the backend: http, rod or playwright.
	Type string `mapstructure:"type" yaml:"type"`

	Timeout        time.Duration `mapstructure:"timeout"          yaml:"timeout"`
	MaxRetries     int           `mapstructure:"max_retries"      yaml:"max_retries"`
	RetryBaseDelay time.Duration `mapstructure:"retry_base_delay" yaml:"retry_base_delay"`
	RetryMaxDelay  time.Duration `mapstructure:"retry_max_delay"  yaml:"retry_max_delay"`

	// TLSInsecure disables certificate verification. It defaults to true:
	// several Korean outlets serve broken chains and the scraper only reads
	// public pages.
	TLSInsecure bool `mapstructure:"tls_insecure" yaml:"tls_insecure"`

	UserAgents      []string      `mapstructure:"user_agents"       yaml:"user_agents"`
	AcceptLanguage  string        `mapstructure:"accept_language"   yaml:"accept_language"`
	FollowRedirects bool          `mapstructure:"follow_redirects"  yaml:"follow_redirects"`
	MaxRedirects    int           `mapstructure:"max_redirects"     yaml:"max_redirects"`
	MaxBodySize     int64         `mapstructure:"max_body_size"     yaml:"max_body_size"`
	IdleConnTimeout time.Duration `mapstructure:"idle_conn_timeout" yaml:"idle_conn_timeout"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"    yaml:"max_idle_conns"`

	// Browser backends only.
	Headless     bool          `mapstructure:"headless"      yaml:"headless"`
	Stealth      bool          `mapstructure:"stealth"       yaml:"stealth"`
	WaitSelector string        `mapstructure:"wait_selector" yaml:"wait_selector"`
	WaitTimeout  time.Duration `mapstructure:"wait_timeout"  yaml:"wait_timeout"`
}

// SearchConfig controls the news-search listing source.
type SearchConfig struct {
	// Source selects the listing provider: naver or googlenews.
	Source    string           `mapstructure:"source"    yaml:"source"`
	Endpoint  string           `mapstructure:"endpoint"  yaml:"endpoint"`
	Sort      string           `mapstructure:"sort"      yaml:"sort"`
	MaxPages  int              `mapstructure:"max_pages" yaml:"max_pages"`
	PageSize  int              `mapstructure:"page_size" yaml:"page_size"`
	Delay     time.Duration    `mapstructure:"delay"     yaml:"delay"`
	Selectors ListingSelectors `mapstructure:"selectors" yaml:"selectors"`
}

// ListingSelectors are the CSS selectors used on a listing page.
type ListingSelectors struct {
	Item   string `mapstructure:"item"   yaml:"item"`
	Title  string `mapstructure:"title"  yaml:"title"`
	Outlet string `mapstructure:"outlet" yaml:"outlet"`
	Date   string `mapstructure:"date"   yaml:"date"`
}

// DetailConfig controls article detail extraction.
type DetailConfig struct {
	Enabled          bool        `mapstructure:"enabled"            yaml:"enabled"`
	DateRules        []ParseRule `mapstructure:"date_rules"         yaml:"date_rules"`
	JournalistRules  []ParseRule `mapstructure:"journalist_rules"   yaml:"journalist_rules"`
	ContentSelectors []string    `mapstructure:"content_selectors"  yaml:"content_selectors"`
	NoisePhrases     []string    `mapstructure:"noise_phrases"      yaml:"noise_phrases"`
	MaxContentRunes  int         `mapstructure:"max_content_runes"  yaml:"max_content_runes"`
}

// ParseRule defines a single extraction rule.
type ParseRule struct {
	Name      string `mapstructure:"name"      yaml:"name"`
	Selector  string `mapstructure:"selector"  yaml:"selector"`
	Type      string `mapstructure:"type"      yaml:"type"` // css, xpath, meta, jsonld, regex
	Attribute string `mapstructure:"attribute" yaml:"attribute"`
	Pattern   string `mapstructure:"pattern"   yaml:"pattern"`
}

// AIConfig controls LLM integration.
type AIConfig struct {
	Enabled     bool          `mapstructure:"enabled"     yaml:"enabled"`
	Provider    string        `mapstructure:"provider"    yaml:"provider"` // openai, gemini, ollama
	Model       string        `mapstructure:"model"       yaml:"model"`
	Endpoint    string        `mapstructure:"endpoint"    yaml:"endpoint"`
	APIKey      string        `mapstructure:"api_key"     yaml:"api_key"`
	Temperature float64       `mapstructure:"temperature" yaml:"temperature"`
	MaxTokens   int           `mapstructure:"max_tokens"  yaml:"max_tokens"`
	Timeout     time.Duration `mapstructure:"timeout"     yaml:"timeout"`
}

// StorageConfig controls persistence.
type StorageConfig struct {
	Type          string        `mapstructure:"type"           yaml:"type"` // sqlite, mongo
	Path          string        `mapstructure:"path"           yaml:"path"`
	MongoURI      string        `mapstructure:"mongo_uri"      yaml:"mongo_uri"`
	MongoDatabase string        `mapstructure:"mongo_database" yaml:"mongo_database"`
	Timeout       time.Duration `mapstructure:"timeout"        yaml:"timeout"`
}

// KeywordsConfig holds the keywords that are always searched.
type KeywordsConfig struct {
	Defaults []string `mapstructure:"defaults" yaml:"defaults"`
}

// MatcherConfig controls fuzzy title matching.
type MatcherConfig struct {
	MinOverlap     float64  `mapstructure:"min_overlap"     yaml:"min_overlap"`
	DomainKeywords []string `mapstructure:"domain_keywords" yaml:"domain_keywords"`
}

// VerifyConfig controls fixture-based discoverability checks.
type VerifyConfig struct {
	FixturesPath string `mapstructure:"fixtures_path" yaml:"fixtures_path"`
	CheckLive    bool   `mapstructure:"check_live"    yaml:"check_live"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	Level  string `mapstructure:"level"  yaml:"level"`
	Format string `mapstructure:"format" yaml:"format"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() *Config {
	return &Config{
		Fetcher: FetcherConfig{
			Type:           "http",
			Timeout:        10 * time.Second,
			MaxRetries:     3,
			RetryBaseDelay: 1 * time.Second,
			RetryMaxDelay:  30 * time.Second,
			TLSInsecure:    true,
			UserAgents: []string{
				"Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
				"Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36",
			},
			AcceptLanguage:  "ko-KR,ko;q=0.9,en-US;q=0.8,en;q=0.7",
			FollowRedirects: true,
			MaxRedirects:    10,
			MaxBodySize:     10 * 1024 * 1024, // 10MB
			IdleConnTimeout: 90 * time.Second,
			MaxIdleConns:    20,
			Headless:        true,
			Stealth:         true,
			WaitTimeout:     10 * time.Second,
		},
		Search: SearchConfig{
			Source:   "naver",
			Endpoint: "https://search.naver.com/search.naver",
			Sort:     "1",
			MaxPages: 3,
			PageSize: 10,
			Delay:    500 * time.Millisecond,
			Selectors: ListingSelectors{
				Item:   ".news_area",
				Title:  ".news_tit",
				Outlet: ".info.press",
				Date:   "span.info",
			},
		},
		Detail: DetailConfig{
			Enabled: true,
			DateRules: []ParseRule{
				{Name: "published_time", Type: "meta", Selector: "article:published_time"},
				{Name: "ld_date", Type: "jsonld", Selector: "datePublished"},
				{Name: "naver_date", Type: "css", Selector: "span.media_end_head_info_datestamp_time", Attribute: "data-date-time"},
				{Name: "date_input", Type: "css", Selector: ".date_input, .article_date, .info_date, .byline_date", Attribute: "text"},
				{Name: "time_element", Type: "css", Selector: "time[datetime]", Attribute: "datetime"},
				{Name: "date_xpath", Type: "xpath", Selector: "//*[contains(@class,'date')]"},
				{Name: "date_text", Type: "regex", Pattern: `(?:입력|등록)\s*:?\s*(\d{4}[.\-/]\s*\d{1,2}[.\-/]\s*\d{1,2})`},
			},
			JournalistRules: []ParseRule{
				{Name: "author_meta", Type: "meta", Selector: "author"},
				{Name: "dable_author", Type: "meta", Selector: "dable:author"},
				{Name: "ld_author", Type: "jsonld", Selector: "author.name"},
				{Name: "naver_byline", Type: "css", Selector: ".media_end_head_journalist_name, .byline_s", Attribute: "text"},
				{Name: "byline", Type: "css", Selector: ".byline, .journalist, .reporter, .writer", Attribute: "text"},
				{Name: "byline_xpath", Type: "xpath", Selector: "//*[contains(@class,'author')]"},
			},
			ContentSelectors: []string{
				"#dic_area", "article", ".article-content", ".article_body",
				"#article-body", ".content", ".post-content",
			},
			NoisePhrases: []string{
				"Share this article", "Follow us on", "Related articles",
				"Advertisement", "Comments",
			},
			MaxContentRunes: 4000,
		},
		AI: AIConfig{
			Enabled:     false,
			Provider:    "openai",
			Model:       "gpt-4o-mini",
			Temperature: 0.3,
			MaxTokens:   600,
			Timeout:     30 * time.Second,
		},
		Storage: StorageConfig{
			Type:          "sqlite",
			Path:          "./newshound.db",
			MongoDatabase: "newshound",
			Timeout:       10 * time.Second,
		},
		Keywords: KeywordsConfig{
			Defaults: []string{"해상풍력", "재생에너지", "데이터센터", "전력망"},
		},
		Matcher: MatcherConfig{
			MinOverlap: 0.6,
			DomainKeywords: []string{
				"energy", "offshore wind", "wind", "solar", "hydrogen",
				"data center", "grid", "renewable", "nuclear",
				"해상풍력", "풍력", "태양광", "에너지", "재생에너지",
				"데이터센터", "수소", "전력", "원전", "송전", "발전",
			},
		},
		Verify: VerifyConfig{
			FixturesPath: "./configs/fixtures.yaml",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

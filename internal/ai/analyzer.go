package ai

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// MaxTemperature caps the sampling temperature so classifications stay
// repeatable.
const MaxTemperature = 0.5

const maxExcerptRunes = 1500

// Analyzer classifies an article. Implementations never fail: problems
// are reported through Analysis.Failed.
type Analyzer interface {
	Analyze(ctx context.Context, title, content string) types.Analysis
}

// New returns the analyzer configured by cfg. When AI is disabled it
// returns Disabled.
func New(ctx context.Context, cfg config.AIConfig, logger *slog.Logger) (Analyzer, error) {
	if !cfg.Enabled {
		return Disabled{}, nil
	}
	gen, err := NewGenerator(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	return NewLLMAnalyzer(gen, cfg, logger), nil
}

// Disabled is the analyzer used when ai.enabled is false. It makes no
// network calls.
type Disabled struct{}

func (Disabled) Analyze(context.Context, string, string) types.Analysis {
	return types.Analysis{Category: types.CategoryUnknown}
}

// Placeholder is the analysis recorded when classification failed.
func Placeholder() types.Analysis {
	return types.Analysis{
		Category: types.CategoryUnknown,
		Synopsis: "Error",
		Failed:   true,
	}
}

// LLMAnalyzer classifies titles with a Generator.
type LLMAnalyzer struct {
	gen     Generator
	opts    GenerateOptions
	timeout time.Duration
	logger  *slog.Logger
}

// NewLLMAnalyzer creates an LLMAnalyzer. The configured temperature is
// clamped to [0, MaxTemperature].
func NewLLMAnalyzer(gen Generator, cfg config.AIConfig, logger *slog.Logger) *LLMAnalyzer {
	return &LLMAnalyzer{
		gen: gen,
		opts: GenerateOptions{
			Temperature: min(max(cfg.Temperature, 0), MaxTemperature),
			MaxTokens:   cfg.MaxTokens,
		},
		timeout: cfg.Timeout,
		logger:  logger.With("component", "analyzer", "provider", gen.Name()),
	}
}

// Analyze sends title, and an excerpt of content when present, to the
// generator and parses the reply. Generator errors, timeouts and
// unparseable replies all yield Placeholder.
func (a *LLMAnalyzer) Analyze(ctx context.Context, title, content string) types.Analysis {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	reply, err := a.gen.Generate(ctx, BuildPrompt(title, content), a.opts)
	if err != nil {
		a.logger.Warn("analysis failed", "title", title, "error", err)
		return Placeholder()
	}

	analysis, err := ParseReply(reply)
	if err != nil {
		a.logger.Warn("unparseable analysis reply", "title", title, "error", err)
		return Placeholder()
	}
	if analysis.Category == types.CategoryUnknown {
		a.logger.Debug("category outside the allowed set", "title", title)
	}
	a.logger.Debug("title analyzed", "title", title, "category", analysis.Category, "duration", time.Since(start))
	return analysis
}

// BuildPrompt renders the classification prompt.
func BuildPrompt(title, content string) string {
	names := make([]string, len(types.Categories))
	for i, c := range types.Categories {
		names[i] = string(c)
	}

	var b strings.Builder
	b.WriteString("You are an analyst covering the Korean renewable energy market.\n")
	b.WriteString("Classify the news article below into exactly one of these categories: ")
	b.WriteString(strings.Join(names, ", "))
	b.WriteString(".\n\n")
	b.WriteString("- CIP: news about Copenhagen Infrastructure Partners or its projects\n")
	b.WriteString("- GovtPolicy: central government policy, regulation or auctions\n")
	b.WriteString("- LocalGovtPolicy: provincial or municipal policy and permits\n")
	b.WriteString("- Stakeholders: fishermen, residents, unions, NGOs and other affected parties\n")
	b.WriteString("- REIndustry: renewable energy companies, supply chain and market news\n\n")
	b.WriteString("Answer with exactly these four lines and nothing else:\n")
	b.WriteString("Category: <one category name>\n")
	b.WriteString("English Title: <the title translated into English>\n")
	b.WriteString("Synopsis: <two or three sentences in English>\n")
	b.WriteString("Stakeholders: <comma separated organizations or groups mentioned>\n\n")
	fmt.Fprintf(&b, "Title: %s\n", title)
	if content = strings.TrimSpace(content); content != "" {
		fmt.Fprintf(&b, "Article excerpt: %s\n", truncate(content, maxExcerptRunes))
	}
	return b.String()
}

func truncate(s string, limit int) string {
	if utf8.RuneCountInString(s) <= limit {
		return s
	}
	return string([]rune(s)[:limit])
}

package parser

import (
	"log/slog"
	"regexp"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/PuerkitoBio/goquery"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// DetailExtractor pulls publication date, journalist and body text out of
// an article page using ordered rule lists.
type DetailExtractor struct {
	cfg    config.DetailConfig
	eval   *RuleEvaluator
	logger *slog.Logger

	// Now supplies the fallback date. It defaults to time.Now.
	Now func() time.Time
}

// NewDetailExtractor creates a DetailExtractor from detail settings.
func NewDetailExtractor(cfg config.DetailConfig, logger *slog.Logger) *DetailExtractor {
	return &DetailExtractor{
		cfg:    cfg,
		eval:   NewRuleEvaluator(logger),
		logger: logger.With("component", "detail_extractor"),
		Now:    time.Now,
	}
}

// Extract never fails: missing values fall back to defaults. A page with no
// recognizable date gets today's date with DateEstimated set.
func (de *DetailExtractor) Extract(page *Page) types.ArticleDetail {
	detail := types.ArticleDetail{Journalist: types.NotAvailable}

	if date, rule, ok := de.date(page); ok {
		detail.PublishedDate = date
		de.logger.Debug("date extracted", "url", page.URL, "rule", rule, "date", date)
	} else {
		detail.PublishedDate = de.Now().Format(types.DateLayout)
		detail.DateEstimated = true
		de.logger.Debug("no date found, using today", "url", page.URL)
	}

	if name, ok := de.journalist(page); ok {
		detail.Journalist = name
	}

	detail.Content = de.content(page)
	return detail
}

// Default returns the detail used when the article page could not be
// fetched at all.
func (de *DetailExtractor) Default() types.ArticleDetail {
	return types.ArticleDetail{
		Journalist:    types.NotAvailable,
		PublishedDate: de.Now().Format(types.DateLayout),
		DateEstimated: true,
	}
}

func (de *DetailExtractor) date(page *Page) (string, string, bool) {
	for _, rule := range de.cfg.DateRules {
		for _, v := range de.eval.Values(page, rule) {
			if d, ok := NormalizeDate(v); ok {
				return d, rule.Name, true
			}
		}
	}
	return "", "", false
}

func (de *DetailExtractor) journalist(page *Page) (string, bool) {
	for _, rule := range de.cfg.JournalistRules {
		for _, v := range de.eval.Values(page, rule) {
			if name, ok := CleanJournalist(v); ok {
				return name, true
			}
		}
	}
	return "", false
}

var (
	emailPattern    = regexp.MustCompile(`[\w.+-]+@[\w-]+(?:\.[\w-]+)+`)
	reporterPattern = regexp.MustCompile(`^(.*?)\s*(?:선임기자|객원기자|특파원|기자)`)
	datelinePattern = regexp.MustCompile(`^[(\[][^)\]]*[)\]]\s*`)
)

const maxJournalistRunes = 40

// CleanJournalist reduces a byline to a name: e-mail addresses, a leading
// dateline such as "(서울=연합뉴스)", a leading "By" and everything from
// "기자" on are removed. Values that are empty or too long to be a name are
// rejected.
func CleanJournalist(raw string) (string, bool) {
	s := emailPattern.ReplaceAllString(raw, " ")
	s = CollapseSpace(s)
	if m := reporterPattern.FindStringSubmatch(s); m != nil {
		s = m[1]
	}
	s = datelinePattern.ReplaceAllString(s, "")
	s = strings.TrimPrefix(s, "By ")
	s = strings.TrimPrefix(s, "by ")
	s = strings.Trim(CollapseSpace(s), "|·,/()[] ")
	if s == "" || utf8.RuneCountInString(s) > maxJournalistRunes {
		return "", false
	}
	return s, true
}

func (de *DetailExtractor) content(page *Page) string {
	if len(de.cfg.ContentSelectors) == 0 {
		return ""
	}
	doc, err := page.Document()
	if err != nil {
		return ""
	}

	for _, sel := range de.cfg.ContentSelectors {
		node := doc.Find(sel).First()
		if node.Length() == 0 {
			continue
		}
		text := CleanContent(node, de.cfg.NoisePhrases)
		if text == "" {
			continue
		}
		return truncateRunes(text, de.cfg.MaxContentRunes)
	}
	return ""
}

// CleanContent returns the readable text of sel without scripts, styles
// and the given boilerplate phrases.
func CleanContent(sel *goquery.Selection, noise []string) string {
	sel = sel.Clone()
	sel.Find("script, style, noscript, iframe, figure figcaption, .ad, .advertisement").Remove()

	text := sel.Text()
	for _, phrase := range noise {
		text = strings.ReplaceAll(text, phrase, " ")
	}
	return CollapseSpace(text)
}

func truncateRunes(s string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(s) <= limit {
		return s
	}
	r := []rune(s)
	return string(r[:limit])
}

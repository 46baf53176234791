package pipeline

import (
	"html"
	"net/url"
	"regexp"
	"strings"

	"github.com/IshaanNene/NewsHound/internal/types"
)

// textFields returns pointers to the free-text fields of rec.
func textFields(rec *types.ArticleRecord) []*string {
	return []*string{
		&rec.Title, &rec.URL, &rec.Source, &rec.Keyword, &rec.Journalist,
		&rec.PubDate, &rec.EnglishTitle, &rec.Synopsis, &rec.Stakeholders, &rec.Content,
	}
}

// TrimMiddleware trims whitespace from all string fields.
type TrimMiddleware struct{}

func (m *TrimMiddleware) Name() string { return "trim" }

func (m *TrimMiddleware) Process(rec *types.ArticleRecord) (*types.ArticleRecord, error) {
	for _, f := range textFields(rec) {
		*f = strings.TrimSpace(*f)
	}
	return rec, nil
}

// HTMLSanitizeMiddleware strips tags and entities that leak into titles
// and model output.
type HTMLSanitizeMiddleware struct {
	stripRe *regexp.Regexp
}

func NewHTMLSanitizeMiddleware() *HTMLSanitizeMiddleware {
	return &HTMLSanitizeMiddleware{
		stripRe: regexp.MustCompile(`<[^>]*>`),
	}
}

func (m *HTMLSanitizeMiddleware) Name() string { return "html_sanitize" }

func (m *HTMLSanitizeMiddleware) Process(rec *types.ArticleRecord) (*types.ArticleRecord, error) {
	for _, f := range []*string{&rec.Title, &rec.EnglishTitle, &rec.Synopsis, &rec.Stakeholders} {
		if *f == "" {
			continue
		}
		cleaned := m.stripRe.ReplaceAllString(*f, "")
		cleaned = html.UnescapeString(cleaned)
		*f = strings.Join(strings.Fields(cleaned), " ")
	}
	return rec, nil
}

// RequiredFieldsMiddleware drops records without a title or URL.
type RequiredFieldsMiddleware struct{}

func (m *RequiredFieldsMiddleware) Name() string { return "required_fields" }

func (m *RequiredFieldsMiddleware) Process(rec *types.ArticleRecord) (*types.ArticleRecord, error) {
	if rec.Title == "" || rec.URL == "" {
		return nil, nil
	}
	return rec, nil
}

// CanonicalURLMiddleware rewrites the URL to its canonical form and drops
// records whose URL is not an absolute http(s) link.
type CanonicalURLMiddleware struct{}

func (m *CanonicalURLMiddleware) Name() string { return "canonical_url" }

func (m *CanonicalURLMiddleware) Process(rec *types.ArticleRecord) (*types.ArticleRecord, error) {
	u, err := url.Parse(rec.URL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, nil
	}
	rec.URL = CanonicalizeURL(rec.URL)
	return rec, nil
}

// DefaultValueMiddleware fills empty best-effort fields.
type DefaultValueMiddleware struct {
	Source     string
	Journalist string
}

func (m *DefaultValueMiddleware) Name() string { return "default_values" }

func (m *DefaultValueMiddleware) Process(rec *types.ArticleRecord) (*types.ArticleRecord, error) {
	if rec.Source == "" {
		rec.Source = m.Source
	}
	if rec.Journalist == "" {
		rec.Journalist = m.Journalist
	}
	if rec.Category == "" {
		rec.Category = types.CategoryUnknown
	}
	return rec, nil
}

package types

import (
	"strings"
	"time"
	"unicode"
)

// DateLayout is the canonical calendar date format used across records.
const DateLayout = "2006-01-02"

// NotAvailable marks a best-effort field that could not be extracted.
const NotAvailable = "N/A"

// ArticleStub is a candidate article taken from a search listing page.
// Stubs only live for the duration of a single scrape pass.
type ArticleStub struct {
	Title     string
	URL       string
	OutletRaw string
	DateRaw   string
	Keyword   string
}

// ArticleDetail holds metadata extracted from an article's own page.
type ArticleDetail struct {
	// Journalist is NotAvailable when no rule matched.
	Journalist string

	// PublishedDate is in DateLayout form.
	PublishedDate string

	// DateEstimated is true when PublishedDate fell back to the current
	// date. Date filters must treat such records as low confidence.
	DateEstimated bool

	// Content is the cleaned article body, possibly truncated.
	Content string
}

// Category is the closed set of business categories an analysis may assign.
type Category string

const (
	CategoryCIP             Category = "CIP"
	CategoryGovtPolicy      Category = "GovtPolicy"
	CategoryLocalGovtPolicy Category = "LocalGovtPolicy"
	CategoryStakeholders    Category = "Stakeholders"
	CategoryREIndustry      Category = "REIndustry"
	CategoryUnknown         Category = "Unknown"
)

// Categories lists the allowed categories in prompt order.
var Categories = []Category{
	CategoryCIP,
	CategoryGovtPolicy,
	CategoryLocalGovtPolicy,
	CategoryStakeholders,
	CategoryREIndustry,
}

// ParseCategory maps free text onto a Category. Matching ignores case,
// spacing and punctuation, so "Govt Policy" and "govt_policy" both resolve
// to CategoryGovtPolicy. Anything outside the set becomes CategoryUnknown.
func ParseCategory(s string) Category {
	key := categoryKey(s)
	if key == "" {
		return CategoryUnknown
	}
	for _, c := range Categories {
		if categoryKey(string(c)) == key {
			return c
		}
	}
	return CategoryUnknown
}

func categoryKey(s string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Analysis is the structured result of classifying an article title.
type Analysis struct {
	Category     Category
	EnglishTitle string
	Synopsis     string
	Stakeholders string

	// Failed is set when the analysis is a placeholder produced after the
	// generator errored or replied with something unparseable.
	Failed bool
}

// ArticleRecord is the persisted form of an article.
// Title and URL are mandatory; every other field is best effort.
type ArticleRecord struct {
	ID            int64     `json:"id,omitempty"             bson:"-"`
	Title         string    `json:"title"                    bson:"title"`
	URL           string    `json:"url"                      bson:"url"`
	Source        string    `json:"source,omitempty"         bson:"source,omitempty"`
	Keyword       string    `json:"keyword,omitempty"        bson:"keyword,omitempty"`
	Journalist    string    `json:"journalist,omitempty"     bson:"journalist,omitempty"`
	PubDate       string    `json:"pub_date,omitempty"       bson:"pub_date,omitempty"`
	DateEstimated bool      `json:"date_estimated,omitempty" bson:"date_estimated"`
	Category      Category  `json:"category,omitempty"       bson:"category,omitempty"`
	EnglishTitle  string    `json:"english_title,omitempty"  bson:"english_title,omitempty"`
	Synopsis      string    `json:"synopsis,omitempty"       bson:"synopsis,omitempty"`
	Stakeholders  string    `json:"stakeholders,omitempty"   bson:"stakeholders,omitempty"`
	Content       string    `json:"content,omitempty"        bson:"content,omitempty"`
	CreatedAt     time.Time `json:"created_at"               bson:"created_at"`
}

// NewRecord merges a listing stub, its detail and its analysis.
// detail and analysis may be nil when those stages were skipped.
func NewRecord(stub ArticleStub, detail *ArticleDetail, analysis *Analysis) *ArticleRecord {
	rec := &ArticleRecord{
		Title:   stub.Title,
		URL:     stub.URL,
		Source:  stub.OutletRaw,
		Keyword: stub.Keyword,
	}
	if detail != nil {
		rec.Journalist = detail.Journalist
		rec.PubDate = detail.PublishedDate
		rec.DateEstimated = detail.DateEstimated
		rec.Content = detail.Content
	}
	if analysis != nil {
		rec.Category = analysis.Category
		rec.EnglishTitle = analysis.EnglishTitle
		rec.Synopsis = analysis.Synopsis
		rec.Stakeholders = analysis.Stakeholders
	}
	return rec
}

package parser

import (
	"iter"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/publicsuffix"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// ListingParser turns a search results page into article stubs.
type ListingParser struct {
	sel    config.ListingSelectors
	logger *slog.Logger
}

// NewListingParser creates a parser for the given listing selectors.
func NewListingParser(sel config.ListingSelectors, logger *slog.Logger) *ListingParser {
	return &ListingParser{
		sel:    sel,
		logger: logger.With("component", "listing_parser"),
	}
}

// Parse returns the stubs on page. The sequence is lazy: the markup is
// only parsed once iteration starts. It can be ranged over once; later
// iterations yield nothing.
//
// Entries without a title or link are skipped. Relative links are resolved
// against page.URL.
func (lp *ListingParser) Parse(page *Page, keyword string) iter.Seq[types.ArticleStub] {
	var used atomic.Bool
	return func(yield func(types.ArticleStub) bool) {
		if used.Swap(true) {
			return
		}

		doc, err := page.Document()
		if err != nil {
			lp.logger.Warn("listing markup unreadable", "url", page.URL, "keyword", keyword, "error", err)
			return
		}
		base, _ := url.Parse(page.URL)

		items := doc.Find(lp.sel.Item)
		for i := range items.Length() {
			stub, ok := lp.stub(items.Eq(i), base, keyword)
			if !ok {
				continue
			}
			if !yield(stub) {
				return
			}
		}
	}
}

func (lp *ListingParser) stub(item *goquery.Selection, base *url.URL, keyword string) (types.ArticleStub, bool) {
	titleSel := item.Find(lp.sel.Title).First()
	title := CollapseSpace(titleSel.AttrOr("title", ""))
	if title == "" {
		title = CollapseSpace(titleSel.Text())
	}
	if title == "" {
		return types.ArticleStub{}, false
	}

	href, ok := titleSel.Attr("href")
	if !ok {
		href, ok = titleSel.Find("a[href]").First().Attr("href")
	}
	if !ok {
		return types.ArticleStub{}, false
	}
	link, err := ResolveURL(base, href)
	if err != nil {
		lp.logger.Debug("skipping unresolvable link", "href", href, "error", err)
		return types.ArticleStub{}, false
	}

	outlet := ""
	if lp.sel.Outlet != "" {
		outlet = cleanOutlet(item.Find(lp.sel.Outlet).First().Text())
	}
	if outlet == "" {
		outlet = OutletFromURL(link)
	}

	dateRaw := ""
	if lp.sel.Date != "" {
		item.Find(lp.sel.Date).EachWithBreak(func(_ int, s *goquery.Selection) bool {
			text := CollapseSpace(s.Text())
			if looksLikeDate(text) {
				dateRaw = text
				return false
			}
			return true
		})
	}

	return types.ArticleStub{
		Title:     title,
		URL:       link,
		OutletRaw: outlet,
		DateRaw:   dateRaw,
		Keyword:   keyword,
	}, true
}

// ResolveURL makes href absolute against base and keeps only http(s) links.
func ResolveURL(base *url.URL, href string) (string, error) {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") || strings.HasPrefix(href, "javascript:") {
		return "", types.ErrInvalidURL
	}
	ref, err := url.Parse(href)
	if err != nil {
		return "", err
	}
	resolved := ref
	if base != nil {
		resolved = base.ResolveReference(ref)
	}
	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return "", types.ErrInvalidURL
	}
	resolved.Fragment = ""
	return resolved.String(), nil
}

// OutletFromURL derives a display name from the registrable domain of
// rawURL: "https://www.example.co.kr/a" gives "Example". It returns "?"
// when the host cannot be determined.
func OutletFromURL(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "?"
	}
	host := strings.ToLower(u.Hostname())

	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		domain = host
	}
	label, _, _ := strings.Cut(domain, ".")
	if label == "" {
		return "?"
	}

	r := []rune(label)
	r[0] = unicode.ToUpper(r[0])
	return string(r)
}

// cleanOutlet drops Naver's badge text that shares the outlet element.
func cleanOutlet(s string) string {
	s = CollapseSpace(s)
	for _, badge := range []string{"언론사 선정", "언론사선정"} {
		s = strings.TrimSpace(strings.TrimSuffix(s, badge))
	}
	return s
}

// CollapseSpace trims s and folds every run of whitespace into one space.
func CollapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

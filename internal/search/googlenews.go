package search

import (
	"bytes"
	"iter"
	"log/slog"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"github.com/mmcdole/gofeed"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/parser"
	"github.com/IshaanNene/NewsHound/internal/types"
)

const defaultGoogleNewsEndpoint = "https://news.google.com/rss/search"

var kst = time.FixedZone("KST", 9*60*60)

// GoogleNews reads the Google News RSS search feed for Korea. The feed
// has a single page.
type GoogleNews struct {
	endpoint string
	logger   *slog.Logger
}

// NewGoogleNews creates a GoogleNews source. search.endpoint is only used
// when it points at something other than the Naver default.
func NewGoogleNews(cfg config.SearchConfig, logger *slog.Logger) *GoogleNews {
	endpoint := cfg.Endpoint
	if endpoint == "" || endpoint == defaultNaverEndpoint {
		endpoint = defaultGoogleNewsEndpoint
	}
	return &GoogleNews{
		endpoint: endpoint,
		logger:   logger.With("component", "googlenews"),
	}
}

func (g *GoogleNews) Name() string { return "googlenews" }

func (g *GoogleNews) PageURL(keyword string, from, to time.Time, page int) (string, error) {
	if keyword == "" {
		return "", types.ErrEmptyKeyword
	}
	if page > 0 {
		return "", ErrNoMorePages
	}
	u, err := url.Parse(g.endpoint)
	if err != nil {
		return "", err
	}

	// before: is exclusive in Google's query syntax.
	query := keyword +
		" after:" + from.Format(types.DateLayout) +
		" before:" + to.AddDate(0, 0, 1).Format(types.DateLayout)

	q := u.Query()
	q.Set("q", query)
	q.Set("hl", "ko")
	q.Set("gl", "KR")
	q.Set("ceid", "KR:ko")
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (g *GoogleNews) Parse(resp *types.Response, keyword string) iter.Seq[types.ArticleStub] {
	var used atomic.Bool
	return func(yield func(types.ArticleStub) bool) {
		if used.Swap(true) {
			return
		}
		feed, err := gofeed.NewParser().Parse(bytes.NewReader(resp.Body))
		if err != nil {
			g.logger.Warn("feed unreadable", "url", resp.URL, "keyword", keyword, "error", err)
			return
		}

		for _, item := range feed.Items {
			stub, ok := feedStub(item, keyword)
			if !ok {
				continue
			}
			if !yield(stub) {
				return
			}
		}
	}
}

func feedStub(item *gofeed.Item, keyword string) (types.ArticleStub, bool) {
	title := parser.CollapseSpace(item.Title)
	link := strings.TrimSpace(item.Link)
	if title == "" || link == "" {
		return types.ArticleStub{}, false
	}

	// Google appends " - Outlet" to every headline.
	outlet := ""
	if i := strings.LastIndex(title, " - "); i > 0 {
		title, outlet = strings.TrimSpace(title[:i]), strings.TrimSpace(title[i+3:])
	}
	if outlet == "" {
		outlet = parser.OutletFromURL(link)
	}

	dateRaw := ""
	if item.PublishedParsed != nil {
		dateRaw = item.PublishedParsed.In(kst).Format(types.DateLayout)
	}

	return types.ArticleStub{
		Title:     title,
		URL:       link,
		OutletRaw: outlet,
		DateRaw:   dateRaw,
		Keyword:   keyword,
	}, true
}

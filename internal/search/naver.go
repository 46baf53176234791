package search

import (
	"iter"
	"log/slog"
	"net/url"
	"strconv"
	"time"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/parser"
	"github.com/IshaanNene/NewsHound/internal/types"
)

const defaultNaverEndpoint = "https://search.naver.com/search.naver"

// Naver queries Naver news search sorted by date.
type Naver struct {
	endpoint string
	sort     string
	pageSize int
	listing  *parser.ListingParser
}

// NewNaver creates a Naver source.
func NewNaver(cfg config.SearchConfig, logger *slog.Logger) *Naver {
	n := &Naver{
		endpoint: cfg.Endpoint,
		sort:     cfg.Sort,
		pageSize: cfg.PageSize,
		listing:  parser.NewListingParser(cfg.Selectors, logger),
	}
	if n.endpoint == "" {
		n.endpoint = defaultNaverEndpoint
	}
	if n.sort == "" {
		n.sort = "1"
	}
	if n.pageSize <= 0 {
		n.pageSize = 10
	}
	return n
}

func (n *Naver) Name() string { return "naver" }

func (n *Naver) PageURL(keyword string, from, to time.Time, page int) (string, error) {
	if keyword == "" {
		return "", types.ErrEmptyKeyword
	}
	u, err := url.Parse(n.endpoint)
	if err != nil {
		return "", err
	}

	q := u.Query()
	q.Set("where", "news")
	q.Set("query", keyword)
	q.Set("sort", n.sort)
	q.Set("ds", from.Format("2006.01.02"))
	q.Set("de", to.Format("2006.01.02"))
	q.Set("nso", "so:dd,p:from"+from.Format("20060102")+"to"+to.Format("20060102"))
	q.Set("start", strconv.Itoa(1+n.pageSize*page))
	u.RawQuery = q.Encode()
	return u.String(), nil
}

func (n *Naver) Parse(resp *types.Response, keyword string) iter.Seq[types.ArticleStub] {
	base := resp.FinalURL
	if base == "" {
		base = resp.URL
	}
	return n.listing.Parse(parser.NewPage(base, resp.Body), keyword)
}

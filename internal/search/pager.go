package search

import (
	"context"
	"errors"
	"iter"
	"log/slog"
	"time"

	"github.com/IshaanNene/NewsHound/internal/types"
)

// Fetcher retrieves a listing page.
type Fetcher interface {
	Fetch(ctx context.Context, rawURL string) (*types.Response, error)
}

// Page is one fetched listing page. Err is set when the page could not be
// built or fetched; Stubs is nil in that case.
type Page struct {
	Index int
	URL   string
	Stubs iter.Seq[types.ArticleStub]
	Err   error
}

// Pager walks the result pages of a Source for one keyword.
type Pager struct {
	src      Source
	fetcher  Fetcher
	maxPages int
	delay    time.Duration
	logger   *slog.Logger
}

// NewPager creates a Pager that visits at most maxPages pages and waits
// delay between consecutive pages.
func NewPager(src Source, f Fetcher, maxPages int, delay time.Duration, logger *slog.Logger) *Pager {
	if maxPages <= 0 {
		maxPages = 1
	}
	return &Pager{
		src:      src,
		fetcher:  f,
		maxPages: maxPages,
		delay:    delay,
		logger:   logger.With("component", "pager", "source", src.Name()),
	}
}

// Pages yields the listing pages for keyword between from and to. Paging
// stops after a page that produced no stubs, when the source has no more
// pages, after maxPages, or when ctx is done. A page that fails to fetch is
// yielded with Err set and paging continues.
func (p *Pager) Pages(ctx context.Context, keyword string, from, to time.Time) iter.Seq[Page] {
	return func(yield func(Page) bool) {
		for i := range p.maxPages {
			if i > 0 && p.delay > 0 {
				if err := sleepContext(ctx, p.delay); err != nil {
					return
				}
			}
			if ctx.Err() != nil {
				return
			}

			pageURL, err := p.src.PageURL(keyword, from, to, i)
			if errors.Is(err, ErrNoMorePages) {
				return
			}
			if err != nil {
				yield(Page{Index: i, Err: err})
				return
			}

			resp, err := p.fetcher.Fetch(ctx, pageURL)
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				p.logger.Warn("listing page failed", "keyword", keyword, "page", i, "url", pageURL, "error", err)
				if !yield(Page{Index: i, URL: pageURL, Err: err}) {
					return
				}
				continue
			}

			seen := 0
			stubs := func(yieldStub func(types.ArticleStub) bool) {
				for stub := range p.src.Parse(resp, keyword) {
					seen++
					if !yieldStub(stub) {
						return
					}
				}
			}
			if !yield(Page{Index: i, URL: pageURL, Stubs: stubs}) {
				return
			}
			if seen == 0 {
				p.logger.Debug("empty listing page, stopping", "keyword", keyword, "page", i)
				return
			}
		}
	}
}

// Collect gathers every stub for keyword, skipping failed pages.
func (p *Pager) Collect(ctx context.Context, keyword string, from, to time.Time) []types.ArticleStub {
	var out []types.ArticleStub
	for page := range p.Pages(ctx, keyword, from, to) {
		if page.Err != nil {
			continue
		}
		for stub := range page.Stubs {
			out = append(out, stub)
		}
	}
	return out
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

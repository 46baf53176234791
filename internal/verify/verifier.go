package verify

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/matcher"
	"github.com/IshaanNene/NewsHound/internal/search"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// Match pairs a fixture title with the scraped stub that matched it.
type Match struct {
	Title string
	Known KnownArticle
	Stub  types.ArticleStub
}

// Report is the outcome of verifying one date.
type Report struct {
	Date     string
	Keywords []string
	Scraped  int
	Total    int
	Found    int
	Coverage float64
	Matches  []Match
	Missing  []string
}

// Verifier scrapes listing pages and checks them against fixtures.
type Verifier struct {
	pager     *search.Pager
	fetcher   search.Fetcher
	matcher   *matcher.Matcher
	defaults  []string
	checkLive bool
	logger    *slog.Logger
}

// NewVerifier creates a Verifier using the configured matcher, search
// paging and verify.check_live setting. defaults are the keywords used for
// dates whose fixtures name none.
func NewVerifier(cfg *config.Config, src search.Source, f search.Fetcher, defaults []string, logger *slog.Logger) *Verifier {
	return &Verifier{
		pager:     search.NewPager(src, f, cfg.Search.MaxPages, cfg.Search.Delay, logger),
		fetcher:   f,
		matcher:   matcher.FromConfig(cfg.Matcher),
		defaults:  defaults,
		checkLive: cfg.Verify.CheckLive,
		logger:    logger.With("component", "verifier"),
	}
}

// Verify scrapes the listings of date for the fixture keywords and matches
// every known title against every scraped title. Fetch failures only lower
// coverage; an error is returned for an invalid date or when ctx is done.
func (v *Verifier) Verify(ctx context.Context, date string, df DateFixtures) (Report, error) {
	day, err := time.Parse(types.DateLayout, date)
	if err != nil {
		return Report{}, fmt.Errorf("verify date %q: %w", date, err)
	}
	keywords := df.Keywords
	if len(keywords) == 0 {
		keywords = v.defaults
	}
	log := v.logger.With("date", date)

	var scraped []types.ArticleStub
	seen := make(map[string]struct{})
	for _, kw := range keywords {
		for _, stub := range v.pager.Collect(ctx, kw, day, day) {
			if _, dup := seen[stub.URL]; dup {
				continue
			}
			seen[stub.URL] = struct{}{}
			scraped = append(scraped, stub)
		}
		if err := ctx.Err(); err != nil {
			return Report{}, fmt.Errorf("verify %s: %w", date, err)
		}
	}

	report := Report{Date: date, Keywords: keywords, Scraped: len(scraped), Total: len(df.Articles)}
	live := make(map[string]bool)
	for _, title := range df.Titles() {
		stub, ok := v.find(ctx, title, scraped, live)
		if !ok {
			report.Missing = append(report.Missing, title)
			log.Debug("known article not found", "title", title)
			continue
		}
		report.Matches = append(report.Matches, Match{Title: title, Known: df.Articles[title], Stub: stub})
	}
	if err := ctx.Err(); err != nil {
		return Report{}, fmt.Errorf("verify %s: %w", date, err)
	}

	report.Found = len(report.Matches)
	report.Coverage = matcher.Coverage(report.Found, report.Total)
	log.Info("verification finished",
		"scraped", report.Scraped, "found", report.Found, "total", report.Total,
		"coverage", fmt.Sprintf("%.1f%%", report.Coverage))
	return report, nil
}

// find returns the first scraped stub matching title. With check_live the
// stub's URL must also be fetchable; results are cached per URL.
func (v *Verifier) find(ctx context.Context, title string, scraped []types.ArticleStub, live map[string]bool) (types.ArticleStub, bool) {
	for _, stub := range scraped {
		if !v.matcher.TitlesMatch(stub.Title, title) {
			continue
		}
		if !v.checkLive {
			return stub, true
		}
		ok, checked := live[stub.URL]
		if !checked {
			_, err := v.fetcher.Fetch(ctx, stub.URL)
			ok = err == nil
			live[stub.URL] = ok
			if err != nil {
				v.logger.Warn("matched article not reachable", "url", stub.URL, "error", err)
			}
		}
		if ok {
			return stub, true
		}
	}
	return types.ArticleStub{}, false
}

// VerifyAll verifies every fixture date in ascending order. It stops at
// the first error.
func (v *Verifier) VerifyAll(ctx context.Context, fx *Fixtures) ([]Report, error) {
	var reports []Report
	for _, date := range fx.Dates() {
		df, err := fx.Lookup(date)
		if err != nil {
			v.logger.Warn("skipping date without articles", "date", date)
			continue
		}
		report, err := v.Verify(ctx, date, df)
		if err != nil {
			return reports, err
		}
		reports = append(reports, report)
	}
	if len(reports) == 0 {
		return nil, types.ErrNoFixtures
	}
	return reports, nil
}

// Summary folds reports into overall totals.
func Summary(reports []Report) (found, total int, coverage float64) {
	for _, r := range reports {
		found += r.Found
		total += r.Total
	}
	return found, total, matcher.Coverage(found, total)
}

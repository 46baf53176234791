package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/IshaanNene/NewsHound/internal/ai"
	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/fetcher"
	"github.com/IshaanNene/NewsHound/internal/observability"
	"github.com/IshaanNene/NewsHound/internal/parser"
	"github.com/IshaanNene/NewsHound/internal/search"
	"github.com/IshaanNene/NewsHound/internal/storage"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// RunOptions selects what a scrape run covers.
type RunOptions struct {
	Keywords []string
	From     time.Time
	To       time.Time

	// MaxPages overrides search.max_pages when positive.
	MaxPages int

	WithDetail   bool
	WithAnalysis bool
}

// Stage names reported through Progress.
const (
	StagePage     = "page"
	StageSaved    = "saved"
	StageSkipped  = "skipped"
	StageFailed   = "failed"
	StageDone     = "done"
	StageDupe     = "duplicate"
	StageListFail = "page_failed"
)

// Event describes one step of a run.
type Event struct {
	Stage    string
	Keyword  string
	Page     int
	URL      string
	Title    string
	Counters observability.Counters
}

// Report summarizes a finished run.
type Report struct {
	RunID    string
	Started  time.Time
	Finished time.Time
	Keywords []string
	observability.Counters
}

// Duration returns how long the run took.
func (r Report) Duration() time.Duration { return r.Finished.Sub(r.Started) }

// Deps are the collaborators of a Runner.
type Deps struct {
	Fetcher  fetcher.Fetcher
	Source   search.Source
	Analyzer ai.Analyzer
	Store    storage.ArticleStore
}

// Runner executes keyword scrape runs: listing pages, optional article
// detail, analysis, record middleware and storage, one article at a time.
type Runner struct {
	deps     Deps
	detail   *DetailFetcher
	chain    *Pipeline
	maxPages int
	delay    time.Duration
	logger   *slog.Logger

	// Progress, when set, is called after every page and article.
	Progress func(Event)

	// Now supplies the current time. It defaults to time.Now.
	Now func() time.Time
}

// NewRunner creates a Runner. A nil Analyzer is replaced with ai.Disabled.
func NewRunner(cfg *config.Config, deps Deps, logger *slog.Logger) *Runner {
	if deps.Analyzer == nil {
		deps.Analyzer = ai.Disabled{}
	}
	r := &Runner{
		deps:     deps,
		detail:   NewDetailFetcher(deps.Fetcher, cfg.Detail, logger),
		chain:    Default(logger),
		maxPages: cfg.Search.MaxPages,
		delay:    cfg.Search.Delay,
		logger:   logger.With("component", "runner"),
		Now:      time.Now,
	}
	r.detail.Extractor().Now = func() time.Time { return r.Now() }
	return r
}

// Run scrapes every keyword in opts. Failures of single pages or articles
// are counted and logged; Run only returns an error when ctx is done, in
// which case the partial report is returned with it.
func (r *Runner) Run(ctx context.Context, opts RunOptions) (Report, error) {
	if opts.To.IsZero() {
		opts.To = r.Now()
	}
	if opts.From.IsZero() {
		opts.From = opts.To
	}
	if opts.From.After(opts.To) {
		opts.From, opts.To = opts.To, opts.From
	}
	maxPages := r.maxPages
	if opts.MaxPages > 0 {
		maxPages = opts.MaxPages
	}

	run := &runState{
		Runner:  r,
		opts:    opts,
		id:      uuid.NewString(),
		metrics: observability.NewMetrics(),
		dedup:   NewDeduplicator(64),
	}
	run.logger = r.logger.With("run_id", run.id)
	if !opts.WithAnalysis {
		run.analyzer = ai.Disabled{}
	} else {
		run.analyzer = r.deps.Analyzer
	}

	report := Report{RunID: run.id, Started: r.Now(), Keywords: opts.Keywords}
	run.logger.Info("run started",
		"keywords", len(opts.Keywords),
		"from", opts.From.Format(types.DateLayout),
		"to", opts.To.Format(types.DateLayout),
		"source", r.deps.Source.Name(),
		"detail", opts.WithDetail,
		"analysis", opts.WithAnalysis,
	)

	pager := search.NewPager(r.deps.Source, r.deps.Fetcher, maxPages, r.delay, r.logger)
	var runErr error
	for _, kw := range opts.Keywords {
		if err := run.keyword(ctx, pager, kw); err != nil {
			runErr = err
			break
		}
	}
	if runErr == nil {
		runErr = ctx.Err()
	}

	report.Finished = r.Now()
	report.Counters = run.metrics.Snapshot()
	run.emit(Event{Stage: StageDone})

	if runErr != nil {
		run.logger.Warn("run interrupted", "counters", report.Counters, "error", runErr)
		return report, fmt.Errorf("run %s: %w", run.id, runErr)
	}
	run.logger.Info("run finished", "counters", report.Counters, "duration", report.Duration())
	return report, nil
}

// runState carries per-run bookkeeping.
type runState struct {
	*Runner
	opts     RunOptions
	id       string
	metrics  *observability.Metrics
	dedup    *Deduplicator
	analyzer ai.Analyzer
	logger   *slog.Logger
}

func (s *runState) emit(ev Event) {
	if s.Progress == nil {
		return
	}
	ev.Counters = s.metrics.Snapshot()
	s.Progress(ev)
}

func (s *runState) keyword(ctx context.Context, pager *search.Pager, kw string) error {
	log := s.logger.With("keyword", kw)

	for page := range pager.Pages(ctx, kw, s.opts.From, s.opts.To) {
		if page.Err != nil {
			s.metrics.Failure(page.Err)
			s.emit(Event{Stage: StageListFail, Keyword: kw, Page: page.Index, URL: page.URL})
			continue
		}

		s.metrics.Pages.Add(1)
		log.Debug("listing page", "page", page.Index, "url", page.URL)
		s.emit(Event{Stage: StagePage, Keyword: kw, Page: page.Index, URL: page.URL})

		for stub := range page.Stubs {
			if err := ctx.Err(); err != nil {
				return err
			}
			s.article(ctx, log, page.Index, stub)
		}
	}
	return ctx.Err()
}

func (s *runState) article(ctx context.Context, log *slog.Logger, pageIdx int, stub types.ArticleStub) {
	s.metrics.Processed.Add(1)
	log = log.With("url", stub.URL)
	ev := Event{Keyword: stub.Keyword, Page: pageIdx, URL: stub.URL, Title: stub.Title}

	if !s.dedup.MarkSeen(stub.URL) {
		s.metrics.Duplicates.Add(1)
		log.Debug("duplicate within run")
		ev.Stage = StageDupe
		s.emit(ev)
		return
	}

	detail := s.listingDetail(stub)
	if s.opts.WithDetail {
		var err error
		detail, err = s.detail.fetchDetail(ctx, stub.URL)
		if err != nil {
			s.metrics.Failure(err)
		}
	}

	analysis := s.analyzer.Analyze(ctx, stub.Title, detail.Content)
	if analysis.Failed {
		s.metrics.AnalysisFailures.Add(1)
	}

	rec, err := s.chain.Process(types.NewRecord(stub, &detail, &analysis))
	if err != nil {
		s.metrics.ParseFailures.Add(1)
		log.Warn("record rejected", "error", err)
		ev.Stage = StageFailed
		s.emit(ev)
		return
	}
	if rec == nil {
		s.metrics.Skipped.Add(1)
		ev.Stage = StageSkipped
		s.emit(ev)
		return
	}

	if rec.DateEstimated && !s.inRange(rec.PubDate) {
		log.Warn("estimated date outside requested range",
			"date", rec.PubDate, "date_estimated", true,
			"from", s.opts.From.Format(types.DateLayout), "to", s.opts.To.Format(types.DateLayout))
	}

	inserted, err := s.deps.Store.Save(ctx, rec)
	switch {
	case err != nil:
		s.metrics.Failure(err)
		log.Warn("save failed", "error", err)
		ev.Stage = StageFailed
	case inserted:
		s.metrics.Saved.Add(1)
		log.Debug("article saved", "category", rec.Category, "date", rec.PubDate)
		ev.Stage = StageSaved
	default:
		s.metrics.Duplicates.Add(1)
		log.Debug("article already stored")
		ev.Stage = StageDupe
	}
	s.emit(ev)
}

// listingDetail builds the detail that is available without visiting the
// article: the listing date if it can be read, else today as an estimate.
func (s *runState) listingDetail(stub types.ArticleStub) types.ArticleDetail {
	now := s.Now()
	if d, ok := parser.ParseListingDate(stub.DateRaw, now); ok {
		return types.ArticleDetail{Journalist: types.NotAvailable, PublishedDate: d}
	}
	return types.ArticleDetail{
		Journalist:    types.NotAvailable,
		PublishedDate: now.Format(types.DateLayout),
		DateEstimated: true,
	}
}

func (s *runState) inRange(date string) bool {
	from := s.opts.From.Format(types.DateLayout)
	to := s.opts.To.Format(types.DateLayout)
	return date >= from && date <= to
}

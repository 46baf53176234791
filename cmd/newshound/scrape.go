package main

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsHound/internal/ai"
	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/fetcher"
	"github.com/IshaanNene/NewsHound/internal/pipeline"
	"github.com/IshaanNene/NewsHound/internal/search"
	"github.com/IshaanNene/NewsHound/internal/storage"
)

var (
	scrapeKeywords []string
	scrapeFrom     string
	scrapeTo       string
	scrapePages    int
	scrapeDetail   bool
	scrapeAnalyze  bool
	scrapeFetcher  string
	scrapeSource   string
)

// scrapeCmd creates the "scrape" subcommand.
func scrapeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "scrape",
		Short: "Scrape news search results into the store",
		Long: `Scrape the news search listing for every keyword between --from and --to.

Without --keyword the configured default keywords plus the stored keywords
are used. Articles already in the store are skipped.`,
		Args: cobra.NoArgs,
		RunE: runScrape,
	}

	cmd.Flags().StringArrayVarP(&scrapeKeywords, "keyword", "k", nil, "keyword to search (repeatable)")
	cmd.Flags().StringVar(&scrapeFrom, "from", "", "first publication date, YYYY-MM-DD (default: --to)")
	cmd.Flags().StringVar(&scrapeTo, "to", "", "last publication date, YYYY-MM-DD (default: today)")
	cmd.Flags().IntVar(&scrapePages, "pages", 0, "listing pages per keyword (0 = search.max_pages)")
	cmd.Flags().BoolVar(&scrapeDetail, "detail", false, "fetch article pages for date, journalist and body (default: detail.enabled)")
	cmd.Flags().BoolVar(&scrapeAnalyze, "analyze", false, "classify and translate titles with the LLM (default: ai.enabled)")
	cmd.Flags().StringVar(&scrapeFetcher, "fetcher", "", "fetcher backend: http, rod, playwright")
	cmd.Flags().StringVar(&scrapeSource, "source", "", "search source: naver, googlenews")

	return cmd
}

// runScrape executes the scrape command.
func runScrape(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	cfg, logger, err := loadConfig(func(cfg *config.Config) {
		if scrapeFetcher != "" {
			cfg.Fetcher.Type = strings.ToLower(scrapeFetcher)
		}
		if scrapeSource != "" {
			cfg.Search.Source = strings.ToLower(scrapeSource)
		}
		if flags.Changed("detail") {
			cfg.Detail.Enabled = scrapeDetail
		}
		if flags.Changed("analyze") {
			cfg.AI.Enabled = scrapeAnalyze
		}
	})
	if err != nil {
		return err
	}

	from, err := parseDate("from", scrapeFrom)
	if err != nil {
		return err
	}
	to, err := parseDate("to", scrapeTo)
	if err != nil {
		return err
	}

	store, err := openStore(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()

	keywords := scrapeKeywords
	if len(keywords) == 0 {
		keywords, err = storage.EffectiveKeywords(ctx, store, cfg.Keywords.Defaults)
		if err != nil {
			return fmt.Errorf("load keywords: %w", err)
		}
	}
	if len(keywords) == 0 {
		return fmt.Errorf("no keywords: pass --keyword or add some with 'newshound keywords add'")
	}

	f, err := fetcher.New(cfg, logger)
	if err != nil {
		return err
	}
	defer f.Close()

	src, err := search.New(cfg.Search, logger)
	if err != nil {
		return err
	}

	analyzer, err := ai.New(ctx, cfg.AI, logger)
	if err != nil {
		return fmt.Errorf("create analyzer: %w", err)
	}

	runner := pipeline.NewRunner(cfg, pipeline.Deps{
		Fetcher:  f,
		Source:   src,
		Analyzer: analyzer,
		Store:    store,
	}, logger)
	runner.Progress = func(ev pipeline.Event) {
		switch ev.Stage {
		case pipeline.StagePage:
			fmt.Fprintf(cmd.ErrOrStderr(), "[%s] page %d\n", ev.Keyword, ev.Page+1)
		case pipeline.StageSaved:
			fmt.Fprintf(cmd.ErrOrStderr(), "  + %s\n", ev.Title)
		}
	}

	report, runErr := runner.Run(ctx, pipeline.RunOptions{
		Keywords:     keywords,
		From:         from,
		To:           to,
		MaxPages:     scrapePages,
		WithDetail:   cfg.Detail.Enabled,
		WithAnalysis: cfg.AI.Enabled,
	})

	out := cmd.OutOrStdout()
	status := "✅ Scrape complete"
	if runErr != nil {
		status = "⚠️  Scrape interrupted"
	}
	fmt.Fprintf(out, "\n%s in %s (run %s)\n", status, report.Duration().Round(time.Millisecond), report.RunID)
	fmt.Fprintf(out, "   Keywords:  %s\n", strings.Join(report.Keywords, ", "))
	fmt.Fprintf(out, "   Pages:     %d\n", report.Pages)
	fmt.Fprintf(out, "   Articles:  %d processed, %d saved, %d duplicates, %d skipped\n",
		report.Processed, report.Saved, report.Duplicates, report.Skipped)
	fmt.Fprintf(out, "   Failures:  %d fetch, %d parse, %d analysis, %d store\n",
		report.FetchFailures, report.ParseFailures, report.AnalysisFailures, report.StoreFailures)

	return runErr
}

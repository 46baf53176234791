package main

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/fetcher"
	"github.com/IshaanNene/NewsHound/internal/search"
	"github.com/IshaanNene/NewsHound/internal/verify"
)

var (
	verifyDate      string
	verifyFixtures  string
	verifyCheckLive bool
)

// verifyCmd creates the "verify" subcommand.
func verifyCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check that known articles can be rediscovered",
		Long: `Scrape the listings of each fixture date and match the known article
titles against the scraped ones. Reports coverage per date.`,
		Args: cobra.NoArgs,
		RunE: runVerify,
	}

	cmd.Flags().StringVar(&verifyDate, "date", "", "verify only this fixture date (YYYY-MM-DD)")
	cmd.Flags().StringVar(&verifyFixtures, "fixtures", "", "fixtures file (default: verify.fixtures_path)")
	cmd.Flags().BoolVar(&verifyCheckLive, "check-live", false, "also require matched article URLs to load (default: verify.check_live)")

	return cmd
}

// runVerify executes the verify command.
func runVerify(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	flags := cmd.Flags()

	cfg, logger, err := loadConfig(func(cfg *config.Config) {
		if verifyFixtures != "" {
			cfg.Verify.FixturesPath = verifyFixtures
		}
		if flags.Changed("check-live") {
			cfg.Verify.CheckLive = verifyCheckLive
		}
	})
	if err != nil {
		return err
	}
	if _, err := parseDate("date", verifyDate); err != nil {
		return err
	}

	fx, err := verify.LoadFixtures(cfg.Verify.FixturesPath)
	if err != nil {
		return err
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
	v := verify.NewVerifier(cfg, src, f, cfg.Keywords.Defaults, logger)

	var reports []verify.Report
	if verifyDate != "" {
		df, err := fx.Lookup(verifyDate)
		if err != nil {
			return err
		}
		report, err := v.Verify(ctx, verifyDate, df)
		if err != nil {
			return err
		}
		reports = append(reports, report)
	} else {
		reports, err = v.VerifyAll(ctx, fx)
		if err != nil {
			return err
		}
	}

	out := cmd.OutOrStdout()
	for _, r := range reports {
		printVerifyReport(out, r)
	}
	found, total, coverage := verify.Summary(reports)
	fmt.Fprintf(out, "\nOverall coverage: %d/%d (%.1f%%)\n", found, total, coverage)
	return nil
}

func printVerifyReport(w io.Writer, r verify.Report) {
	fmt.Fprintf(w, "\n📅 %s  %d/%d found (%.1f%%), %d scraped\n", r.Date, r.Found, r.Total, r.Coverage, r.Scraped)
	for _, m := range r.Matches {
		fmt.Fprintf(w, "  ✓ %s\n      %s | %s\n", m.Title, m.Stub.OutletRaw, m.Stub.URL)
	}
	for _, title := range r.Missing {
		fmt.Fprintf(w, "  ✗ %s\n", title)
	}
}

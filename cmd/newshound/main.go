package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/storage"
	"github.com/IshaanNene/NewsHound/internal/types"
)

var (
	cfgFile string
	verbose bool
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "newshound",
		Short: "NewsHound: Korean energy news monitor",
		Long: `NewsHound scrapes Korean news search results for a set of keywords,
optionally reads each article page for its date and journalist, classifies
and translates titles with an LLM and keeps the results in a local store.

The verify command checks that known articles of a given date can still be
found by a scrape pass.`,
		SilenceUsage: true,
	}

	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(scrapeCmd())
	rootCmd.AddCommand(verifyCmd())
	rootCmd.AddCommand(keywordsCmd())
	rootCmd.AddCommand(articlesCmd())
	rootCmd.AddCommand(statsCmd())
	rootCmd.AddCommand(categoriesCmd())
	rootCmd.AddCommand(deleteCmd())
	rootCmd.AddCommand(configCmd())
	rootCmd.AddCommand(versionCmd())

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	err := rootCmd.ExecuteContext(ctx)
	stop()
	if err != nil {
		os.Exit(1)
	}
}

// versionCmd creates the "version" subcommand.
func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Printf("NewsHound %s\n", config.Version)
		},
	}
}

// configCmd creates the "config" subcommand for inspecting configuration.
func configCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration as YAML",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if cfg.AI.APIKey != "" {
				cfg.AI.APIKey = "********"
			}
			enc := yaml.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent(2)
			if err := enc.Encode(cfg); err != nil {
				return fmt.Errorf("encode config: %w", err)
			}
			return enc.Close()
		},
	}
}

// loadConfig loads the configuration, applies flag overrides, validates
// the result and builds the logger it asks for.
func loadConfig(overrides ...func(*config.Config)) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, nil, fmt.Errorf("load config: %w", err)
	}
	for _, apply := range overrides {
		apply(cfg)
	}
	if err := config.Validate(cfg); err != nil {
		return nil, nil, fmt.Errorf("invalid config: %w", err)
	}
	return cfg, setupLogger(cfg.Logging), nil
}

// setupLogger creates a structured logger on stderr.
func setupLogger(lc config.LoggingConfig) *slog.Logger {
	level := slog.LevelInfo
	switch strings.ToLower(lc.Level) {
	case "debug":
		level = slog.LevelDebug
	case "warn", "warning":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	}
	if verbose {
		level = slog.LevelDebug
	}

	opts := &slog.HandlerOptions{
		Level: level,
	}

	var handler slog.Handler
	if strings.EqualFold(lc.Format, "json") {
		handler = slog.NewJSONHandler(os.Stderr, opts)
	} else {
		handler = slog.NewTextHandler(os.Stderr, opts)
	}
	return slog.New(handler)
}

// openStore opens the configured article store.
func openStore(ctx context.Context, cfg *config.Config, logger *slog.Logger) (storage.ArticleStore, error) {
	store, err := storage.New(ctx, cfg.Storage, logger)
	if err != nil {
		return nil, fmt.Errorf("open %s store: %w", cfg.Storage.Type, err)
	}
	return store, nil
}

// parseDate parses a YYYY-MM-DD flag value in local time. An empty value
// yields the zero time.
func parseDate(flag, value string) (time.Time, error) {
	if value == "" {
		return time.Time{}, nil
	}
	t, err := time.ParseInLocation(types.DateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("--%s: expected YYYY-MM-DD, got %q", flag, value)
	}
	return t, nil
}

package main

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/IshaanNene/NewsHound/internal/pipeline"
	"github.com/IshaanNene/NewsHound/internal/storage"
	"github.com/IshaanNene/NewsHound/internal/types"
)

var (
	articlesDate     string
	articlesFrom     string
	articlesTo       string
	articlesQuery    string
	articlesCategory string
	articlesKeyword  string
	articlesLimit    int

	statsFrom string
	statsTo   string
)

// withStore loads the config, opens the store and hands it to fn.
func withStore(cmd *cobra.Command, fn func(store storage.ArticleStore) error) error {
	cfg, logger, err := loadConfig()
	if err != nil {
		return err
	}
	store, err := openStore(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer store.Close()
	return fn(store)
}

// keywordsCmd creates the "keywords" subcommand group.
func keywordsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "keywords",
		Short: "Manage stored search keywords",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the keywords a scrape uses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, logger, err := loadConfig()
			if err != nil {
				return err
			}
			store, err := openStore(cmd.Context(), cfg, logger)
			if err != nil {
				return err
			}
			defer store.Close()

			stored, err := store.ListKeywords(cmd.Context())
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			for _, kw := range cfg.Keywords.Defaults {
				fmt.Fprintf(out, "%s\t(default)\n", kw)
			}
			for _, kw := range stored {
				if !slices.Contains(cfg.Keywords.Defaults, kw) {
					fmt.Fprintln(out, kw)
				}
			}
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "add <keyword>...",
		Short: "Store keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store storage.ArticleStore) error {
				for _, kw := range args {
					added, err := store.AddKeyword(cmd.Context(), kw)
					if err != nil {
						return fmt.Errorf("add %q: %w", kw, err)
					}
					if added {
						fmt.Fprintf(cmd.OutOrStdout(), "added %s\n", kw)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s already stored\n", kw)
					}
				}
				return nil
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "remove <keyword>...",
		Short: "Remove stored keywords",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store storage.ArticleStore) error {
				for _, kw := range args {
					removed, err := store.RemoveKeyword(cmd.Context(), kw)
					if err != nil {
						return fmt.Errorf("remove %q: %w", kw, err)
					}
					if removed {
						fmt.Fprintf(cmd.OutOrStdout(), "removed %s\n", kw)
					} else {
						fmt.Fprintf(cmd.OutOrStdout(), "%s not stored\n", kw)
					}
				}
				return nil
			})
		},
	})

	return cmd
}

// articlesCmd creates the "articles" subcommand.
func articlesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "articles",
		Short: "List stored articles",
		Args:  cobra.NoArgs,
		RunE:  runArticles,
	}

	cmd.Flags().StringVar(&articlesDate, "date", "", "publication date, YYYY-MM-DD")
	cmd.Flags().StringVar(&articlesFrom, "from", "", "first publication date, YYYY-MM-DD")
	cmd.Flags().StringVar(&articlesTo, "to", "", "last publication date, YYYY-MM-DD")
	cmd.Flags().StringVarP(&articlesQuery, "query", "q", "", "text in title, english title or content")
	cmd.Flags().StringVar(&articlesCategory, "category", "", "category, e.g. GovtPolicy")
	cmd.Flags().StringVarP(&articlesKeyword, "keyword", "k", "", "search keyword that found the article")
	cmd.Flags().IntVarP(&articlesLimit, "limit", "n", 50, "maximum rows (0 = all)")
	cmd.MarkFlagsMutuallyExclusive("date", "from")
	cmd.MarkFlagsMutuallyExclusive("date", "to")

	return cmd
}

// runArticles executes the articles command.
func runArticles(cmd *cobra.Command, args []string) error {
	for flag, value := range map[string]string{"date": articlesDate, "from": articlesFrom, "to": articlesTo} {
		if _, err := parseDate(flag, value); err != nil {
			return err
		}
	}

	f := storage.Filter{
		From:    articlesFrom,
		To:      articlesTo,
		Query:   articlesQuery,
		Keyword: articlesKeyword,
		Limit:   articlesLimit,
	}
	if articlesDate != "" {
		f.From, f.To = articlesDate, articlesDate
	}
	if articlesCategory != "" {
		f.Category = string(types.ParseCategory(articlesCategory))
	}

	return withStore(cmd, func(store storage.ArticleStore) error {
		recs, err := store.Search(cmd.Context(), f)
		if err != nil {
			return err
		}
		if len(recs) == 0 {
			fmt.Fprintln(cmd.OutOrStdout(), "No articles found.")
			return nil
		}

		rows := make([][]string, 0, len(recs))
		for _, r := range recs {
			date := r.PubDate
			if r.DateEstimated {
				date += "*"
			}
			title := r.Title
			if r.EnglishTitle != "" {
				title += " / " + r.EnglishTitle
			}
			rows = append(rows, []string{date, string(r.Category), r.Source, r.Journalist, title})
		}
		t := table{
			headers:   []string{"Date", "Category", "Source", "Journalist", "Title"},
			maxWidths: []int{0, 16, 16, 12, 80},
		}
		t.render(cmd.OutOrStdout(), rows)
		fmt.Fprintf(cmd.OutOrStdout(), "\n%d article(s). * = estimated date\n", len(recs))
		return nil
	})
}

// statsCmd creates the "stats" subcommand.
func statsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show store statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for flag, value := range map[string]string{"from": statsFrom, "to": statsTo} {
				if _, err := parseDate(flag, value); err != nil {
					return err
				}
			}
			return withStore(cmd, func(store storage.ArticleStore) error {
				st, err := store.Stats(cmd.Context(), statsFrom, statsTo)
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Store:             %s\n", store.Name())
				fmt.Fprintf(out, "Articles:          %d\n", st.Total)
				fmt.Fprintf(out, "Estimated dates:   %d\n", st.Estimated)
				fmt.Fprintf(out, "Sources:           %d\n", st.Sources)
				fmt.Fprintf(out, "Date range:        %s .. %s\n", orDash(st.Earliest), orDash(st.Latest))
				fmt.Fprintf(out, "Categories:        %d\n", st.Categories)

				names := make([]string, 0, len(st.ByCategory))
				for name := range st.ByCategory {
					names = append(names, name)
				}
				slices.Sort(names)
				rows := make([][]string, 0, len(names))
				for _, name := range names {
					rows = append(rows, []string{name, strconv.Itoa(st.ByCategory[name])})
				}
				if len(rows) > 0 {
					fmt.Fprintln(out)
					table{headers: []string{"Category", "Articles"}}.render(out, rows)
				}
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&statsFrom, "from", "", "first publication date, YYYY-MM-DD")
	cmd.Flags().StringVar(&statsTo, "to", "", "last publication date, YYYY-MM-DD")
	return cmd
}

// categoriesCmd creates the "categories" subcommand.
func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the categories in use",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store storage.ArticleStore) error {
				cats, err := store.Categories(cmd.Context())
				if err != nil {
					return err
				}
				for _, c := range cats {
					fmt.Fprintln(cmd.OutOrStdout(), c)
				}
				return nil
			})
		},
	}
}

// deleteCmd creates the "delete" subcommand.
func deleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <url>",
		Short: "Delete a stored article by URL",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return withStore(cmd, func(store storage.ArticleStore) error {
				deleted, err := store.Delete(cmd.Context(), pipeline.CanonicalizeURL(args[0]))
				if err != nil {
					return err
				}
				if !deleted {
					return fmt.Errorf("no article with URL %s", args[0])
				}
				fmt.Fprintf(cmd.OutOrStdout(), "deleted %s\n", args[0])
				return nil
			})
		},
	}
}

func orDash(s string) string {
	if s == "" {
		return "-"
	}
	return s
}

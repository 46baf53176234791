package storage

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// ArticleStore is the interface for all storage backends.
type ArticleStore interface {
	KeywordStore

	// Save inserts rec unless an article with the same URL exists. The first
	// write wins: a duplicate returns false with a nil error.
	Save(ctx context.Context, rec *types.ArticleRecord) (bool, error)

	// QueryByDate returns the articles published on date (YYYY-MM-DD),
	// newest insertion first.
	QueryByDate(ctx context.Context, date string) ([]types.ArticleRecord, error)

	// Search returns the articles matching f.
	Search(ctx context.Context, f Filter) ([]types.ArticleRecord, error)

	// Stats summarizes the articles published in [from, to]. Empty bounds
	// are open; with both empty every article counts, undated ones included.
	Stats(ctx context.Context, from, to string) (Stats, error)

	// Categories returns the distinct non-empty categories in use.
	Categories(ctx context.Context) ([]string, error)

	// Delete removes the article with the given URL and reports whether one
	// existed.
	Delete(ctx context.Context, url string) (bool, error)

	// Close releases the underlying connection.
	Close() error

	// Name returns the storage backend identifier.
	Name() string
}

// KeywordStore manages user keywords.
type KeywordStore interface {
	// ListKeywords returns stored keywords in insertion order.
	ListKeywords(ctx context.Context) ([]string, error)

	// AddKeyword stores kw. Adding an existing keyword returns false.
	AddKeyword(ctx context.Context, kw string) (bool, error)

	// RemoveKeyword deletes kw. Removing an absent keyword returns false.
	RemoveKeyword(ctx context.Context, kw string) (bool, error)
}

// Filter narrows Search results. Zero values mean "any".
type Filter struct {
	From     string // inclusive, YYYY-MM-DD
	To       string // inclusive, YYYY-MM-DD
	Query    string // substring of title, english title or content
	Category string
	Keyword  string
	Limit    int
}

// Stats summarizes the stored articles.
type Stats struct {
	Total      int
	Categories int
	Sources    int
	Earliest   string
	Latest     string
	Estimated  int
	ByCategory map[string]int
}

// New opens the backend selected by cfg.Type.
func New(ctx context.Context, cfg config.StorageConfig, logger *slog.Logger) (ArticleStore, error) {
	switch cfg.Type {
	case "sqlite", "":
		return NewSQLiteStore(ctx, cfg.Path, logger)
	case "mongo":
		return NewMongoStore(ctx, cfg, logger)
	default:
		return nil, fmt.Errorf("storage type %q: %w", cfg.Type, types.ErrUnknownBackend)
	}
}

// EffectiveKeywords returns defaults followed by stored keywords, without
// duplicates. The comparison ignores case and surrounding space.
func EffectiveKeywords(ctx context.Context, store KeywordStore, defaults []string) ([]string, error) {
	stored, err := store.ListKeywords(ctx)
	if err != nil {
		return nil, err
	}

	seen := make(map[string]struct{}, len(defaults)+len(stored))
	out := make([]string, 0, len(defaults)+len(stored))
	for _, kw := range append(append([]string(nil), defaults...), stored...) {
		kw = strings.TrimSpace(kw)
		key := strings.ToLower(kw)
		if kw == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, kw)
	}
	return out, nil
}

func validateRecord(rec *types.ArticleRecord) error {
	if rec == nil || strings.TrimSpace(rec.Title) == "" {
		return types.ErrEmptyTitle
	}
	if strings.TrimSpace(rec.URL) == "" {
		return types.ErrInvalidURL
	}
	return nil
}

func normalizeKeyword(kw string) (string, error) {
	kw = strings.TrimSpace(kw)
	if kw == "" {
		return "", types.ErrEmptyKeyword
	}
	return kw, nil
}

// Package search builds news-search listing URLs and turns listing
// responses into article stubs.
package search

import (
	"errors"
	"fmt"
	"iter"
	"log/slog"
	"time"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// ErrNoMorePages is returned by PageURL when the source has no page with
// the requested index.
var ErrNoMorePages = errors.New("no more pages")

// Source is a news search provider.
type Source interface {
	Name() string

	// PageURL returns the listing URL for keyword restricted to articles
	// published between from and to (inclusive). page counts from 0.
	PageURL(keyword string, from, to time.Time, page int) (string, error)

	// Parse yields the stubs found in a listing response.
	Parse(resp *types.Response, keyword string) iter.Seq[types.ArticleStub]
}

// New returns the source selected by cfg.Source.
func New(cfg config.SearchConfig, logger *slog.Logger) (Source, error) {
	switch cfg.Source {
	case "naver", "":
		return NewNaver(cfg, logger), nil
	case "googlenews":
		return NewGoogleNews(cfg, logger), nil
	default:
		return nil, fmt.Errorf("search source %q: %w", cfg.Source, types.ErrUnknownBackend)
	}
}

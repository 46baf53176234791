package pipeline

import (
	"context"
	"log/slog"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/fetcher"
	"github.com/IshaanNene/NewsHound/internal/parser"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// DetailFetcher loads an article page and extracts its metadata.
type DetailFetcher struct {
	fetcher   fetcher.Fetcher
	extractor *parser.DetailExtractor
	logger    *slog.Logger
}

// NewDetailFetcher creates a DetailFetcher.
func NewDetailFetcher(f fetcher.Fetcher, cfg config.DetailConfig, logger *slog.Logger) *DetailFetcher {
	return &DetailFetcher{
		fetcher:   f,
		extractor: parser.NewDetailExtractor(cfg, logger),
		logger:    logger.With("component", "detail_fetcher"),
	}
}

// Extractor exposes the underlying extractor, mainly so callers can pin
// its clock.
func (d *DetailFetcher) Extractor() *parser.DetailExtractor { return d.extractor }

// FetchDetail never fails. When the page cannot be fetched the default
// detail (journalist "N/A", today's date marked as estimated) is returned.
func (d *DetailFetcher) FetchDetail(ctx context.Context, articleURL string) types.ArticleDetail {
	detail, _ := d.fetchDetail(ctx, articleURL)
	return detail
}

// fetchDetail is FetchDetail that also reports the fetch error, if any.
func (d *DetailFetcher) fetchDetail(ctx context.Context, articleURL string) (types.ArticleDetail, error) {
	resp, err := d.fetcher.Fetch(ctx, articleURL)
	if err != nil {
		d.logger.Warn("article page unavailable, using defaults", "url", articleURL, "error", err)
		return d.extractor.Default(), err
	}

	base := resp.FinalURL
	if base == "" {
		base = articleURL
	}
	return d.extractor.Extract(parser.NewPage(base, resp.Body)), nil
}

package fetcher

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// Fetcher is the interface for all markup fetcher implementations.
type Fetcher interface {
	// Fetch retrieves the markup at rawURL.
	Fetch(ctx context.Context, rawURL string) (*types.Response, error)

	// Close releases any resources held by the fetcher.
	Close() error

	// Type returns the fetcher type identifier.
	Type() string
}

// New builds the fetcher selected by cfg.Fetcher.Type, wrapped with retry
// and per-attempt timeouts. The caller owns the result and must Close it.
func New(cfg *config.Config, logger *slog.Logger) (Fetcher, error) {
	var (
		base Fetcher
		err  error
	)
	switch cfg.Fetcher.Type {
	case "http", "":
		base, err = NewHTTPFetcher(cfg, logger)
	case "rod":
		base, err = NewBrowserFetcher(cfg, logger)
	case "playwright":
		base, err = NewPlaywrightFetcher(cfg, logger)
	default:
		return nil, fmt.Errorf("fetcher %q: %w", cfg.Fetcher.Type, types.ErrUnknownBackend)
	}
	if err != nil {
		return nil, fmt.Errorf("create %s fetcher: %w", cfg.Fetcher.Type, err)
	}
	return NewRetrying(base, RetryPolicyFromConfig(&cfg.Fetcher), logger), nil
}

package fetcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/playwright-community/playwright-go"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// PlaywrightFetcher implements Fetcher with a headless Chromium driven by
// playwright-go. The driver and browser are expected to be installed
// already; the fetcher never downloads them.
type PlaywrightFetcher struct {
	pw      *playwright.Playwright
	browser playwright.Browser
	bctx    playwright.BrowserContext
	page    playwright.Page
	cfg     *config.FetcherConfig
	logger  *slog.Logger

	mu     sync.Mutex
	closed bool
}

// NewPlaywrightFetcher starts the playwright driver and a browser context.
// Partially acquired resources are released when any step fails.
func NewPlaywrightFetcher(cfg *config.Config, logger *slog.Logger) (_ *PlaywrightFetcher, err error) {
	pf := &PlaywrightFetcher{
		cfg:    &cfg.Fetcher,
		logger: logger.With("component", "playwright_fetcher"),
	}
	defer func() {
		if err != nil {
			_ = pf.Close()
		}
	}()

	pf.pw, err = playwright.Run()
	if err != nil {
		return nil, fmt.Errorf("start playwright: %w", err)
	}

	pf.browser, err = pf.pw.Chromium.Launch(playwright.BrowserTypeLaunchOptions{
		Headless: playwright.Bool(cfg.Fetcher.Headless),
		Args:     []string{"--disable-blink-features=AutomationControlled", "--no-sandbox"},
	})
	if err != nil {
		return nil, fmt.Errorf("launch chromium: %w", err)
	}

	ctxOpts := playwright.BrowserNewContextOptions{
		IgnoreHttpsErrors: playwright.Bool(cfg.Fetcher.TLSInsecure),
		Locale:            playwright.String("ko-KR"),
	}
	if len(cfg.Fetcher.UserAgents) > 0 {
		ctxOpts.UserAgent = playwright.String(cfg.Fetcher.UserAgents[0])
	}
	pf.bctx, err = pf.browser.NewContext(ctxOpts)
	if err != nil {
		return nil, fmt.Errorf("new browser context: %w", err)
	}

	pf.page, err = pf.bctx.NewPage()
	if err != nil {
		return nil, fmt.Errorf("new page: %w", err)
	}

	pf.logger.Info("playwright fetcher ready", "headless", cfg.Fetcher.Headless)
	return pf, nil
}

// Fetch navigates to rawURL and returns the rendered markup.
func (pf *PlaywrightFetcher) Fetch(ctx context.Context, rawURL string) (*types.Response, error) {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return nil, &types.FetchError{URL: rawURL, Err: errors.New("playwright fetcher closed")}
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	timeout := pf.cfg.Timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	start := time.Now()
	resp, err := pf.page.Goto(rawURL, playwright.PageGotoOptions{
		Timeout:   playwright.Float(float64(timeout.Milliseconds())),
		WaitUntil: playwright.WaitUntilStateDomcontentloaded,
	})
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err, Retryable: ctx.Err() == nil}
	}

	status := 200
	if resp != nil {
		status = resp.Status()
		if !resp.Ok() {
			return nil, &types.FetchError{
				URL:        rawURL,
				StatusCode: status,
				Err:        fmt.Errorf("HTTP %d", status),
				Retryable:  status >= 500 || status == 429,
			}
		}
	}

	if sel := pf.cfg.WaitSelector; sel != "" {
		err := pf.page.Locator(sel).First().WaitFor(playwright.LocatorWaitForOptions{
			Timeout: playwright.Float(float64(pf.cfg.WaitTimeout.Milliseconds())),
		})
		if err != nil {
			pf.logger.Warn("wait selector timeout", "url", rawURL, "selector", sel, "error", err)
		}
	}

	html, err := pf.page.Content()
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, StatusCode: status, Err: err, Retryable: true}
	}

	duration := time.Since(start)
	pf.logger.Debug("playwright fetch complete",
		"url", rawURL,
		"status", status,
		"size", len(html),
		"duration", duration,
	)

	return types.NewBrowserResponse(rawURL, status, []byte(html), pf.page.URL(), duration), nil
}

// Close releases the page, context, browser and driver in reverse order of
// acquisition. It is safe to call more than once.
func (pf *PlaywrightFetcher) Close() error {
	pf.mu.Lock()
	defer pf.mu.Unlock()

	if pf.closed {
		return nil
	}
	pf.closed = true

	var errs []error
	if pf.page != nil {
		errs = append(errs, pf.page.Close())
	}
	if pf.bctx != nil {
		errs = append(errs, pf.bctx.Close())
	}
	if pf.browser != nil {
		errs = append(errs, pf.browser.Close())
	}
	if pf.pw != nil {
		errs = append(errs, pf.pw.Stop())
	}
	return errors.Join(errs...)
}

// Type returns the fetcher type identifier.
func (pf *PlaywrightFetcher) Type() string {
	return "playwright"
}

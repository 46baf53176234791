package fetcher

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// BrowserFetcher implements Fetcher using a headless Chromium driven by Rod.
// One browser process lives for the lifetime of the fetcher; Close must be
// called on every exit path to reap it.
type BrowserFetcher struct {
	launcher *launcher.Launcher
	browser  *rod.Browser
	cfg      *config.FetcherConfig
	logger   *slog.Logger

	mu     sync.Mutex
	page   *rod.Page
	uaIdx  int
	closed bool
}

// NewBrowserFetcher launches Chromium and connects to it.
func NewBrowserFetcher(cfg *config.Config, logger *slog.Logger) (*BrowserFetcher, error) {
	bf := &BrowserFetcher{
		cfg:    &cfg.Fetcher,
		logger: logger.With("component", "rod_fetcher"),
	}

	bf.launcher = launcher.New().
		Headless(cfg.Fetcher.Headless).
		Set("disable-gpu").
		Set("disable-dev-shm-usage").
		Set("no-sandbox").
		Set("disable-setuid-sandbox").
		Set("disable-blink-features", "AutomationControlled").
		Set("lang", "ko-KR")

	launchURL, err := bf.launcher.Launch()
	if err != nil {
		return nil, fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(launchURL)
	if err := browser.Connect(); err != nil {
		bf.launcher.Kill()
		return nil, fmt.Errorf("connect browser: %w", err)
	}
	if cfg.Fetcher.TLSInsecure {
		if err := browser.IgnoreCertErrors(true); err != nil {
			bf.logger.Warn("failed to disable certificate checks", "error", err)
		}
	}
	bf.browser = browser

	bf.logger.Info("browser fetcher ready",
		"headless", cfg.Fetcher.Headless,
		"stealth", cfg.Fetcher.Stealth,
	)

	return bf, nil
}

// Fetch navigates to rawURL and returns the rendered page content.
func (bf *BrowserFetcher) Fetch(ctx context.Context, rawURL string) (*types.Response, error) {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	if bf.closed {
		return nil, &types.FetchError{URL: rawURL, Err: fmt.Errorf("browser fetcher closed")}
	}

	start := time.Now()

	page, err := bf.getPage()
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err, Retryable: true}
	}

	timeout := bf.cfg.Timeout
	p := page.Context(ctx).Timeout(timeout)

	if err := p.Navigate(rawURL); err != nil {
		bf.resetPage()
		return nil, &types.FetchError{URL: rawURL, Err: err, Retryable: ctx.Err() == nil}
	}

	if err := p.WaitLoad(); err != nil {
		bf.logger.Warn("page load timeout, continuing", "url", rawURL, "error", err)
	}

	if sel := bf.cfg.WaitSelector; sel != "" {
		el, err := page.Context(ctx).Timeout(bf.cfg.WaitTimeout).Element(sel)
		if err == nil {
			err = el.WaitVisible()
		}
		if err != nil {
			bf.logger.Warn("wait selector timeout", "url", rawURL, "selector", sel, "error", err)
		}
	}

	html, err := page.HTML()
	if err != nil {
		bf.resetPage()
		return nil, &types.FetchError{URL: rawURL, Err: err, Retryable: true}
	}

	finalURL := rawURL
	if info, err := page.Info(); err == nil && info != nil {
		finalURL = info.URL
	}

	duration := time.Since(start)

	bf.logger.Debug("browser fetch complete",
		"url", rawURL,
		"final_url", finalURL,
		"size", len(html),
		"duration", duration,
	)

	// Rod does not surface the document status code without request hijacking.
	return types.NewBrowserResponse(rawURL, 200, []byte(html), finalURL, duration), nil
}

// getPage returns the single working page, creating it on first use.
func (bf *BrowserFetcher) getPage() (*rod.Page, error) {
	if bf.page != nil {
		return bf.page, nil
	}

	var (
		page *rod.Page
		err  error
	)
	if bf.cfg.Stealth {
		page, err = stealth.Page(bf.browser)
	} else {
		page, err = bf.browser.Page(proto.TargetCreateTarget{URL: "about:blank"})
	}
	if err != nil {
		return nil, fmt.Errorf("open page: %w", err)
	}

	if len(bf.cfg.UserAgents) > 0 {
		ua := bf.cfg.UserAgents[bf.uaIdx%len(bf.cfg.UserAgents)]
		bf.uaIdx++
		if err := page.SetUserAgent(&proto.NetworkSetUserAgentOverride{
			UserAgent:      ua,
			AcceptLanguage: bf.cfg.AcceptLanguage,
		}); err != nil {
			bf.logger.Warn("failed to set user agent", "error", err)
		}
	}

	bf.page = page
	return page, nil
}

// resetPage drops a page left in an unknown state after a failed navigation.
func (bf *BrowserFetcher) resetPage() {
	if bf.page != nil {
		_ = bf.page.Close()
		bf.page = nil
	}
}

// Close shuts down the browser and releases resources. It is safe to call
// more than once.
func (bf *BrowserFetcher) Close() error {
	bf.mu.Lock()
	defer bf.mu.Unlock()

	if bf.closed {
		return nil
	}
	bf.closed = true

	bf.resetPage()
	var err error
	if bf.browser != nil {
		err = bf.browser.Close()
	}
	if bf.launcher != nil {
		bf.launcher.Cleanup()
	}
	return err
}

// Type returns the fetcher type identifier.
func (bf *BrowserFetcher) Type() string {
	return "rod"
}

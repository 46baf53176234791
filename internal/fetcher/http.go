package fetcher

import (
	"compress/flate"
	"compress/gzip"
	"context"
	"crypto/tls"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/andybalholm/brotli"
	"golang.org/x/net/html/charset"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

// HTTPFetcher implements Fetcher using net/http.
type HTTPFetcher struct {
	client     *http.Client
	cfg        *config.FetcherConfig
	logger     *slog.Logger
	userAgents []string
	uaIndex    atomic.Int64
}

// NewHTTPFetcher creates a new HTTP fetcher.
//
// Certificate verification follows cfg.Fetcher.TLSInsecure, which is on by
// default: the fetcher only reads public news pages and a number of outlets
// serve incomplete chains.
func NewHTTPFetcher(cfg *config.Config, logger *slog.Logger) (*HTTPFetcher, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}

	transport := &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   cfg.Fetcher.Timeout,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		MaxIdleConns:        cfg.Fetcher.MaxIdleConns,
		MaxIdleConnsPerHost: max(cfg.Fetcher.MaxIdleConns/2, 1),
		IdleConnTimeout:     cfg.Fetcher.IdleConnTimeout,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			InsecureSkipVerify: cfg.Fetcher.TLSInsecure,
		},
		DisableCompression: true, // We handle decompression ourselves (including brotli)
	}

	redirectPolicy := func(req *http.Request, via []*http.Request) error {
		if !cfg.Fetcher.FollowRedirects {
			return http.ErrUseLastResponse
		}
		if len(via) >= cfg.Fetcher.MaxRedirects {
			return fmt.Errorf("max redirects (%d) reached", cfg.Fetcher.MaxRedirects)
		}
		return nil
	}

	client := &http.Client{
		Transport:     transport,
		Jar:           jar,
		Timeout:       cfg.Fetcher.Timeout,
		CheckRedirect: redirectPolicy,
	}

	return &HTTPFetcher{
		client:     client,
		cfg:        &cfg.Fetcher,
		logger:     logger.With("component", "http_fetcher"),
		userAgents: cfg.Fetcher.UserAgents,
	}, nil
}

// Fetch executes a GET request and returns the body as UTF-8. Pages served
// in EUC-KR or another legacy charset are transcoded, judged by the
// Content-Type header and then by the markup's meta tags.
func (f *HTTPFetcher) Fetch(ctx context.Context, rawURL string) (*types.Response, error) {
	req, err := f.newRequest(ctx, rawURL)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: fmt.Errorf("%w: %v", types.ErrInvalidURL, err)}
	}

	start := time.Now()
	httpResp, err := f.client.Do(req)
	duration := time.Since(start)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, Err: err, Retryable: isRetryableError(err)}
	}
	defer httpResp.Body.Close()

	if err := statusError(rawURL, httpResp); err != nil {
		return nil, err
	}

	body, err := f.readBody(httpResp)
	if err != nil {
		return nil, &types.FetchError{URL: rawURL, StatusCode: httpResp.StatusCode, Err: err, Retryable: !errors.Is(err, errDecode)}
	}
	if len(body) == 0 {
		return nil, &types.FetchError{URL: rawURL, StatusCode: httpResp.StatusCode, Err: types.ErrEmptyResponse, Retryable: true}
	}

	resp := types.NewResponse(rawURL, httpResp, body, duration)
	f.logger.Debug("fetch complete",
		"url", rawURL,
		"final_url", resp.FinalURL,
		"status", resp.StatusCode,
		"size", len(body),
		"duration", duration,
	)
	return resp, nil
}

func (f *HTTPFetcher) newRequest(ctx context.Context, rawURL string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", f.nextUserAgent())
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	if f.cfg.AcceptLanguage != "" {
		req.Header.Set("Accept-Language", f.cfg.AcceptLanguage)
	}
	req.Header.Set("Accept-Encoding", "gzip, deflate, br")
	return req, nil
}

// statusError maps an error status to a FetchError. 429 and 5xx are
// retryable; 429 carries its back-off hint from Retry-After.
func statusError(rawURL string, resp *http.Response) error {
	switch {
	case resp.StatusCode == http.StatusTooManyRequests:
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return &types.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP 429: rate limited (retry after %s)", retryAfter),
			Retryable:  true,
			RetryAfter: retryAfter,
		}
	case resp.StatusCode >= 400:
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &types.FetchError{
			URL:        rawURL,
			StatusCode: resp.StatusCode,
			Err:        fmt.Errorf("HTTP %d: %s", resp.StatusCode, strings.TrimSpace(string(snippet))),
			Retryable:  resp.StatusCode >= 500,
		}
	}
	return nil
}

var errDecode = errors.New("undecodable body")

// readBody caps, decompresses and transcodes the response body.
func (f *HTTPFetcher) readBody(resp *http.Response) ([]byte, error) {
	var reader io.Reader = resp.Body
	if f.cfg.MaxBodySize > 0 {
		reader = io.LimitReader(reader, f.cfg.MaxBodySize)
	}

	reader, err := decompressReader(resp, reader)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDecode, err)
	}

	reader, err = charset.NewReader(reader, resp.Header.Get("Content-Type"))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", errDecode, err)
	}
	return io.ReadAll(reader)
}

// Close releases resources.
func (f *HTTPFetcher) Close() error {
	f.client.CloseIdleConnections()
	return nil
}

// Type returns the fetcher type identifier.
func (f *HTTPFetcher) Type() string {
	return "http"
}

// nextUserAgent returns the next User-Agent in rotation.
func (f *HTTPFetcher) nextUserAgent() string {
	if len(f.userAgents) == 0 {
		return defaultUserAgent
	}
	idx := f.uaIndex.Add(1) % int64(len(f.userAgents))
	return f.userAgents[idx]
}

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

// decompressReader wraps a reader with the appropriate decompressor.
func decompressReader(resp *http.Response, reader io.Reader) (io.Reader, error) {
	switch resp.Header.Get("Content-Encoding") {
	case "gzip":
		return gzip.NewReader(reader)
	case "deflate":
		return flate.NewReader(reader), nil
	case "br":
		return brotli.NewReader(reader), nil
	default:
		return reader, nil
	}
}

// isRetryableError checks if a network error warrants a retry.
// Covers timeouts, connection resets, unexpected EOF, and connection refused.
func isRetryableError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	// The per-attempt deadline expiring is a transient failure of this
	// attempt; the retry loop checks the parent context separately.
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	if errors.Is(err, io.ErrUnexpectedEOF) || errors.Is(err, io.EOF) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var opErr *net.OpError
	if errors.As(err, &opErr) {
		if errors.Is(opErr.Err, syscall.ECONNRESET) ||
			errors.Is(opErr.Err, syscall.ECONNREFUSED) {
			return true
		}
	}
	return false
}

// parseRetryAfter parses the Retry-After header value.
// Supports both integer seconds and HTTP-date formats.
func parseRetryAfter(header string) time.Duration {
	if header == "" {
		return 5 * time.Second
	}
	if secs, err := strconv.Atoi(strings.TrimSpace(header)); err == nil {
		if secs > 120 {
			secs = 120
		}
		return time.Duration(secs) * time.Second
	}
	if t, err := http.ParseTime(header); err == nil {
		d := time.Until(t)
		if d < 0 {
			return time.Second
		}
		if d > 2*time.Minute {
			return 2 * time.Minute
		}
		return d
	}
	return 5 * time.Second
}

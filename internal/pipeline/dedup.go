package pipeline

import (
	"net/url"
	"slices"
	"strings"
	"sync"
)

// Deduplicator tracks article URLs already handled in a run.
type Deduplicator struct {
	mu   sync.Mutex
	seen map[string]struct{}
}

// NewDeduplicator creates a Deduplicator sized for about n URLs.
func NewDeduplicator(n int) *Deduplicator {
	return &Deduplicator{seen: make(map[string]struct{}, n)}
}

// MarkSeen records rawURL and reports whether it was new.
func (d *Deduplicator) MarkSeen(rawURL string) bool {
	key := CanonicalizeURL(rawURL)

	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.seen[key]; ok {
		return false
	}
	d.seen[key] = struct{}{}
	return true
}

// Count returns the number of unique URLs seen.
func (d *Deduplicator) Count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.seen)
}

// trackingParams are query parameters that never select a different
// article. Outlets and aggregators append them to shared links.
var trackingParams = []string{"fbclid", "gclid", "ref", "cmpid"}

func isTracking(key string) bool {
	k := strings.ToLower(key)
	return strings.HasPrefix(k, "utm_") || slices.Contains(trackingParams, k)
}

// CanonicalizeURL is the identity under which articles are stored and
// deduplicated. Scheme and host are lowercased; the fragment, default
// ports, tracking parameters and a trailing slash are dropped; remaining
// query parameters are sorted. Unparseable input is returned unchanged.
func CanonicalizeURL(rawURL string) string {
	u, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return rawURL
	}

	u.Scheme = strings.ToLower(u.Scheme)
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""
	u.RawFragment = ""
	if port := u.Port(); (u.Scheme == "http" && port == "80") || (u.Scheme == "https" && port == "443") {
		u.Host = u.Hostname()
	}

	if u.RawQuery != "" {
		params := u.Query()
		for k := range params {
			if isTracking(k) {
				params.Del(k)
			}
		}
		// Encode sorts by key; values keep their order.
		u.RawQuery = params.Encode()
	}

	// Trim on the escaped form so "%2F" stays distinct from "/".
	escaped := strings.TrimRight(u.EscapedPath(), "/")
	if escaped == "" {
		escaped = "/"
	}
	path, err := url.PathUnescape(escaped)
	if err != nil {
		return rawURL
	}
	u.Path, u.RawPath = path, escaped
	return u.String()
}

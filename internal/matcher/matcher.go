// Package matcher decides whether a scraped headline refers to a known
// article.
package matcher

import (
	"strings"
	"unicode"

	"github.com/IshaanNene/NewsHound/internal/config"
)

// DefaultMinOverlap is the share of the smaller token set that must be
// shared by two titles.
const DefaultMinOverlap = 0.6

// Matcher compares titles by token overlap plus a shared domain keyword.
type Matcher struct {
	minOverlap float64
	keywords   []string
}

// New creates a Matcher. Keywords are normalized the same way as titles so
// "Offshore  Wind" in the allowlist matches "offshore wind" in a title.
// A non-positive minOverlap selects DefaultMinOverlap.
func New(minOverlap float64, keywords []string) *Matcher {
	if minOverlap <= 0 {
		minOverlap = DefaultMinOverlap
	}
	m := &Matcher{minOverlap: minOverlap}
	for _, kw := range keywords {
		if n := Normalize(kw); n != "" {
			m.keywords = append(m.keywords, n)
		}
	}
	return m
}

// FromConfig creates a Matcher from matcher settings.
func FromConfig(cfg config.MatcherConfig) *Matcher {
	return New(cfg.MinOverlap, cfg.DomainKeywords)
}

// Normalize lowercases s, turns punctuation and symbols into spaces and
// collapses whitespace. Letters of any script, Hangul included, and digits
// are kept.
func Normalize(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range strings.ToLower(s) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || unicode.Is(unicode.Mn, r) {
			b.WriteRune(r)
		} else {
			b.WriteByte(' ')
		}
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// TitlesMatch reports whether candidate and known name the same article.
//
// Identical titles and equal normalized titles always match; a title that
// is blank matches nothing. Otherwise the shared tokens must cover at least
// minOverlap of the smaller token set (boundary inclusive) and some domain
// keyword must occur in both titles at token boundaries.
func (m *Matcher) TitlesMatch(candidate, known string) bool {
	if c := strings.TrimSpace(candidate); c != "" && c == strings.TrimSpace(known) {
		return true
	}
	a, b := Normalize(candidate), Normalize(known)
	if a == "" || b == "" {
		return false
	}
	if a == b {
		return true
	}

	fa, fb := strings.Fields(a), strings.Fields(b)
	ta, tb := tokenSet(fa), tokenSet(fb)
	smaller := min(len(ta), len(tb))
	shared := 0
	for tok := range ta {
		if _, ok := tb[tok]; ok {
			shared++
		}
	}
	// Tolerance keeps 0.6*5 == 3 from failing on float rounding.
	if float64(shared) < m.minOverlap*float64(smaller)-1e-9 {
		return false
	}
	return m.sharesKeyword(fa, fb)
}

func (m *Matcher) sharesKeyword(a, b []string) bool {
	for _, kw := range m.keywords {
		if containsKeyword(a, kw) && containsKeyword(b, kw) {
			return true
		}
	}
	return false
}

// containsKeyword reports whether the words of kw occur as consecutive
// title tokens. The last word may also open a longer token when the rest
// of that token is Hangul, so "해상풍력" is found in "해상풍력이" and
// "해상풍력발전" but "wind" is not found in "window".
func containsKeyword(title []string, kw string) bool {
	words := strings.Fields(kw)
	if len(words) == 0 || len(words) > len(title) {
		return false
	}
	for i := 0; i+len(words) <= len(title); i++ {
		if tokensMatch(title[i:i+len(words)], words) {
			return true
		}
	}
	return false
}

func tokensMatch(run, words []string) bool {
	last := len(words) - 1
	for j, w := range words {
		tok := run[j]
		if tok == w {
			continue
		}
		if j != last || !strings.HasPrefix(tok, w) || !isHangul(tok[len(w):]) {
			return false
		}
	}
	return true
}

func isHangul(s string) bool {
	for _, r := range s {
		if !unicode.Is(unicode.Hangul, r) {
			return false
		}
	}
	return s != ""
}

func tokenSet(fields []string) map[string]struct{} {
	set := make(map[string]struct{}, len(fields))
	for _, f := range fields {
		set[f] = struct{}{}
	}
	return set
}

// Coverage returns found/total as a percentage, or 0 when total is 0.
func Coverage(found, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(found) / float64(total) * 100
}

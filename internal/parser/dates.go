package parser

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/IshaanNene/NewsHound/internal/types"
)

// Korean "posted"/"updated" style annotations that precede a timestamp.
// Longer markers come first so "최종수정" is not reduced to "최종".
var dateMarkers = []string{
	"기사입력", "최종수정", "최종 수정", "업데이트",
	"입력", "수정", "승인", "등록", "송고",
	"Posted", "Updated", "Published",
}

var (
	ymdPattern     = regexp.MustCompile(`(\d{4})\s*(?:[.\-/]|년)\s*(\d{1,2})\s*(?:[.\-/]|월)\s*(\d{1,2})`)
	compactPattern = regexp.MustCompile(`(?:^|\D)(\d{4})(\d{2})(\d{2})(?:\D|$)`)
	relativeRe     = regexp.MustCompile(`(\d+)\s*(분|시간|일|주)\s*전`)
)

// StripDateMarkers removes posted/updated annotations and stray colons.
func StripDateMarkers(raw string) string {
	s := raw
	for _, m := range dateMarkers {
		s = strings.ReplaceAll(s, m, " ")
	}
	s = strings.ReplaceAll(s, ":", " ")
	return CollapseSpace(s)
}

// NormalizeDate extracts a calendar date from raw and returns it in
// types.DateLayout form. Only values with a four-digit year are accepted.
// Time-of-day parts are ignored; markers such as "입력" and "수정" are
// stripped first.
func NormalizeDate(raw string) (string, bool) {
	s := StripDateMarkers(raw)
	if s == "" {
		return "", false
	}

	if m := ymdPattern.FindStringSubmatch(s); m != nil {
		if d, ok := validDate(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	if m := compactPattern.FindStringSubmatch(s); m != nil {
		if d, ok := validDate(m[1], m[2], m[3]); ok {
			return d, true
		}
	}
	return "", false
}

func validDate(ys, ms, ds string) (string, bool) {
	y, err1 := strconv.Atoi(ys)
	m, err2 := strconv.Atoi(ms)
	d, err3 := strconv.Atoi(ds)
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	if y < 1900 || y > 2999 {
		return "", false
	}
	t := time.Date(y, time.Month(m), d, 0, 0, 0, 0, time.UTC)
	if t.Year() != y || int(t.Month()) != m || t.Day() != d {
		return "", false
	}
	return t.Format(types.DateLayout), true
}

// ParseListingDate interprets the date text shown on a listing page. It
// understands absolute dates and relative forms such as "3시간 전" and
// "어제", resolved against now.
func ParseListingDate(raw string, now time.Time) (string, bool) {
	if d, ok := NormalizeDate(raw); ok {
		return d, true
	}

	s := CollapseSpace(raw)
	switch {
	case strings.Contains(s, "방금"):
		return now.Format(types.DateLayout), true
	case strings.Contains(s, "어제"):
		return now.AddDate(0, 0, -1).Format(types.DateLayout), true
	}

	m := relativeRe.FindStringSubmatch(s)
	if m == nil {
		return "", false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	var t time.Time
	switch m[2] {
	case "분":
		t = now.Add(-time.Duration(n) * time.Minute)
	case "시간":
		t = now.Add(-time.Duration(n) * time.Hour)
	case "일":
		t = now.AddDate(0, 0, -n)
	case "주":
		t = now.AddDate(0, 0, -7*n)
	}
	return t.Format(types.DateLayout), true
}

func looksLikeDate(s string) bool {
	if s == "" {
		return false
	}
	if _, ok := NormalizeDate(s); ok {
		return true
	}
	return relativeRe.MatchString(s) || strings.Contains(s, "어제") || strings.Contains(s, "방금")
}

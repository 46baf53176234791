package verify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/search"
	"github.com/IshaanNene/NewsHound/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const fixturesYAML = `
dates:
  "2024-12-18":
    keywords: [해상풍력]
    articles:
      "해상풍력 입찰 발표":
        media: 에너지경제
        category: GovtPolicy
        journalist: 김철수
      "태양광 보조금 축소":
        media: 전기신문
        category: REIndustry
  "2024-12-12":
    articles:
      "X":
        media: Example
        category: CIP
`

func TestParseFixtures(t *testing.T) {
	fx, err := ParseFixtures([]byte(fixturesYAML))
	if err != nil {
		t.Fatalf("ParseFixtures: %v", err)
	}
	if got := fx.Dates(); !slices.Equal(got, []string{"2024-12-12", "2024-12-18"}) {
		t.Errorf("Dates() = %v", got)
	}

	df, err := fx.Lookup("2024-12-18")
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if !slices.Equal(df.Keywords, []string{"해상풍력"}) {
		t.Errorf("Keywords = %v", df.Keywords)
	}
	known := df.Articles["해상풍력 입찰 발표"]
	if known.Media != "에너지경제" || known.Category != "GovtPolicy" || known.Journalist != "김철수" {
		t.Errorf("known article = %+v", known)
	}
	if got := df.Titles(); !slices.Equal(got, []string{"태양광 보조금 축소", "해상풍력 입찰 발표"}) {
		t.Errorf("Titles() = %v", got)
	}

	if _, err := fx.Lookup("2025-01-01"); !errors.Is(err, types.ErrNoFixtures) {
		t.Errorf("Lookup(missing) err = %v, want ErrNoFixtures", err)
	}
}

func TestParseFixturesRejects(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"bad date", "dates:\n  \"18.12.2024\":\n    articles:\n      \"A\": {media: m}\n"},
		{"empty title", "dates:\n  \"2024-12-18\":\n    articles:\n      \"\": {media: m}\n"},
		{"not yaml", "dates: [unterminated"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := ParseFixtures([]byte(tt.yaml)); err == nil {
				t.Error("expected error")
			}
		})
	}
}

func TestLoadFixtures(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fixtures.yaml")
	if err := os.WriteFile(path, []byte(fixturesYAML), 0o644); err != nil {
		t.Fatal(err)
	}
	fx, err := LoadFixtures(path)
	if err != nil {
		t.Fatalf("LoadFixtures: %v", err)
	}
	if len(fx.ByDate) != 2 {
		t.Errorf("loaded %d dates, want 2", len(fx.ByDate))
	}

	if _, err := LoadFixtures(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Error("expected error for missing file")
	}
}

// listingFetcher serves search listings by query keyword and treats every
// other URL as an article page.
type listingFetcher struct {
	listings map[string][]string
	dead     map[string]bool
	articles []string
}

func (f *listingFetcher) Fetch(_ context.Context, rawURL string) (*types.Response, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, err
	}
	if u.Host == "search.naver.com" {
		if u.Query().Get("start") != "1" {
			return types.NewStaticResponse(rawURL, []byte("<html></html>")), nil
		}
		return types.NewStaticResponse(rawURL, []byte(listing(f.listings[u.Query().Get("query")]))), nil
	}
	f.articles = append(f.articles, rawURL)
	if f.dead[rawURL] {
		return nil, &types.FetchError{URL: rawURL, StatusCode: 404, Err: fmt.Errorf("not found")}
	}
	return types.NewStaticResponse(rawURL, []byte("<html><body>ok</body></html>")), nil
}

func listing(titles []string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for _, title := range titles {
		fmt.Fprintf(&b, `<div class="news_area"><a class="news_tit" href="%s">%s</a></div>`, articleURL(title), title)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func articleURL(title string) string {
	return "https://news.example.kr/" + url.PathEscape(title)
}

func newVerifier(t *testing.T, f search.Fetcher, checkLive bool) *Verifier {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.Search.Delay = 0
	cfg.Verify.CheckLive = checkLive
	src, err := search.New(cfg.Search, testLogger)
	if err != nil {
		t.Fatal(err)
	}
	return NewVerifier(cfg, src, f, []string{"뉴스"}, testLogger)
}

func TestVerifyTrailingSpace(t *testing.T) {
	f := &listingFetcher{listings: map[string][]string{"뉴스": {"X "}}}
	v := newVerifier(t, f, false)

	df := DateFixtures{Articles: map[string]KnownArticle{"X": {Media: "Example"}}}
	report, err := v.Verify(context.Background(), "2024-12-12", df)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Found != 1 || report.Total != 1 || report.Coverage != 100.0 {
		t.Errorf("report = %+v", report)
	}
	if len(report.Missing) != 0 {
		t.Errorf("Missing = %v", report.Missing)
	}
	if !slices.Equal(report.Keywords, []string{"뉴스"}) {
		t.Errorf("default keywords not used: %v", report.Keywords)
	}
}

func TestVerifyPartialCoverage(t *testing.T) {
	f := &listingFetcher{listings: map[string][]string{
		"해상풍력": {"정부, 해상풍력 입찰 발표", "전혀 다른 기사"},
	}}
	v := newVerifier(t, f, false)

	fx, err := ParseFixtures([]byte(fixturesYAML))
	if err != nil {
		t.Fatal(err)
	}
	df, _ := fx.Lookup("2024-12-18")
	report, err := v.Verify(context.Background(), "2024-12-18", df)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Scraped != 2 || report.Found != 1 || report.Total != 2 {
		t.Errorf("report = %+v", report)
	}
	if math.Abs(report.Coverage-50) > 1e-9 {
		t.Errorf("Coverage = %v, want 50", report.Coverage)
	}
	if len(report.Matches) != 1 || report.Matches[0].Known.Media != "에너지경제" ||
		report.Matches[0].Stub.Title != "정부, 해상풍력 입찰 발표" {
		t.Errorf("Matches = %+v", report.Matches)
	}
	if !slices.Equal(report.Missing, []string{"태양광 보조금 축소"}) {
		t.Errorf("Missing = %v", report.Missing)
	}
	if len(f.articles) != 0 {
		t.Errorf("article pages fetched without check_live: %v", f.articles)
	}
}

func TestVerifyCheckLive(t *testing.T) {
	f := &listingFetcher{
		listings: map[string][]string{"뉴스": {"X", "Y"}},
		dead:     map[string]bool{articleURL("Y"): true},
	}
	v := newVerifier(t, f, true)

	df := DateFixtures{Articles: map[string]KnownArticle{"X": {}, "Y": {}}}
	report, err := v.Verify(context.Background(), "2024-12-12", df)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if report.Found != 1 || !slices.Equal(report.Missing, []string{"Y"}) {
		t.Errorf("report = %+v", report)
	}
	if len(f.articles) != 2 {
		t.Errorf("live checks = %v, want 2", f.articles)
	}
}

func TestVerifyInvalidDate(t *testing.T) {
	v := newVerifier(t, &listingFetcher{}, false)
	if _, err := v.Verify(context.Background(), "yesterday", DateFixtures{}); err == nil {
		t.Error("expected error for invalid date")
	}
}

func TestVerifyCanceled(t *testing.T) {
	v := newVerifier(t, &listingFetcher{}, false)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	df := DateFixtures{Articles: map[string]KnownArticle{"X": {}}}
	if _, err := v.Verify(ctx, "2024-12-12", df); !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestVerifyAll(t *testing.T) {
	f := &listingFetcher{listings: map[string][]string{
		"해상풍력": {"해상풍력 입찰 발표", "태양광 보조금 축소"},
		"뉴스":   {"Y"},
	}}
	v := newVerifier(t, f, false)

	fx, err := ParseFixtures([]byte(fixturesYAML))
	if err != nil {
		t.Fatal(err)
	}
	reports, err := v.VerifyAll(context.Background(), fx)
	if err != nil {
		t.Fatalf("VerifyAll: %v", err)
	}
	if len(reports) != 2 || reports[0].Date != "2024-12-12" || reports[1].Date != "2024-12-18" {
		t.Fatalf("reports = %+v", reports)
	}
	if reports[0].Found != 0 || reports[1].Found != 2 {
		t.Errorf("found = %d, %d", reports[0].Found, reports[1].Found)
	}

	found, total, coverage := Summary(reports)
	if found != 2 || total != 3 || math.Abs(coverage-200.0/3) > 1e-9 {
		t.Errorf("Summary = %d/%d %.2f", found, total, coverage)
	}

	if _, err := v.VerifyAll(context.Background(), &Fixtures{}); !errors.Is(err, types.ErrNoFixtures) {
		t.Errorf("empty fixtures err = %v, want ErrNoFixtures", err)
	}
}

package parser

import (
	"log/slog"
	"os"
	"slices"
	"testing"
	"time"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

const listingHTML = `<html><body>
<ul class="list_news">
  <li class="bx"><div class="news_area">
    <div class="info_group">
      <a class="info press" href="https://media.example.co.kr">에너지경제 언론사 선정</a>
      <span class="info">A1면 1단</span>
      <span class="info">2024.12.18.</span>
    </div>
    <a class="news_tit" href="https://example.co.kr/a/1" title="해상풍력 입찰 발표">해상풍력 입찰 발표</a>
  </div></li>
  <li class="bx"><div class="news_area">
    <span class="info">3시간 전</span>
    <a class="news_tit" href="/news/2">  데이터센터   전력 수요 급증 </a>
  </div></li>
  <li class="bx"><div class="news_area">
    <a class="info press">무제</a>
    <span class="info">2024.12.18.</span>
  </div></li>
  <li class="bx"><div class="news_area">
    <a class="news_tit" href="javascript:void(0)">스크립트 링크</a>
  </div></li>
</ul>
</body></html>`

func newListingParser() *ListingParser {
	return NewListingParser(config.DefaultConfig().Search.Selectors, testLogger)
}

func collect(p *ListingParser, page *Page, keyword string) []types.ArticleStub {
	var out []types.ArticleStub
	for stub := range p.Parse(page, keyword) {
		out = append(out, stub)
	}
	return out
}

// --- Listing Parser Tests ---

func TestListingParserExtractsStubs(t *testing.T) {
	page := NewPage("https://search.naver.com/search.naver?query=x", []byte(listingHTML))
	stubs := collect(newListingParser(), page, "해상풍력")

	if len(stubs) != 2 {
		t.Fatalf("expected 2 stubs, got %d: %+v", len(stubs), stubs)
	}

	first := stubs[0]
	if first.Title != "해상풍력 입찰 발표" {
		t.Errorf("unexpected title %q", first.Title)
	}
	if first.URL != "https://example.co.kr/a/1" {
		t.Errorf("unexpected url %q", first.URL)
	}
	if first.OutletRaw != "에너지경제" {
		t.Errorf("expected badge stripped from outlet, got %q", first.OutletRaw)
	}
	if first.DateRaw != "2024.12.18." {
		t.Errorf("expected date raw to skip page marker, got %q", first.DateRaw)
	}
	if first.Keyword != "해상풍력" {
		t.Errorf("unexpected keyword %q", first.Keyword)
	}

	second := stubs[1]
	if second.URL != "https://search.naver.com/news/2" {
		t.Errorf("expected relative link resolved, got %q", second.URL)
	}
	if second.Title != "데이터센터 전력 수요 급증" {
		t.Errorf("expected collapsed title, got %q", second.Title)
	}
	if second.OutletRaw != "Naver" {
		t.Errorf("expected outlet from host, got %q", second.OutletRaw)
	}
	if second.DateRaw != "3시간 전" {
		t.Errorf("unexpected date raw %q", second.DateRaw)
	}
}

func TestListingParserIsSinglePass(t *testing.T) {
	page := NewPage("https://search.naver.com/", []byte(listingHTML))
	seq := newListingParser().Parse(page, "k")

	n := 0
	for range seq {
		n++
	}
	if n != 2 {
		t.Fatalf("expected 2 stubs on first pass, got %d", n)
	}
	for range seq {
		t.Fatal("second pass should yield nothing")
	}
}

func TestListingParserStopsEarly(t *testing.T) {
	page := NewPage("https://search.naver.com/", []byte(listingHTML))
	for stub := range newListingParser().Parse(page, "k") {
		if stub.Title == "" {
			t.Fatal("empty title yielded")
		}
		break
	}
}

func TestListingParserEmptyMarkup(t *testing.T) {
	page := NewPage("https://search.naver.com/", []byte("<html><body>검색결과가 없습니다</body></html>"))
	if stubs := collect(newListingParser(), page, "k"); len(stubs) != 0 {
		t.Errorf("expected no stubs, got %d", len(stubs))
	}
}

func TestOutletFromURL(t *testing.T) {
	tests := []struct {
		url      string
		expected string
	}{
		{"https://www.example.co.kr/a/1", "Example"},
		{"https://news.hankyung.com/article/1", "Hankyung"},
		{"http://yna.co.kr/view/1", "Yna"},
		{"not a url", "?"},
	}
	for _, tt := range tests {
		if got := OutletFromURL(tt.url); got != tt.expected {
			t.Errorf("OutletFromURL(%q) = %q, want %q", tt.url, got, tt.expected)
		}
	}
}

// --- Date Tests ---

func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		ok       bool
	}{
		{"2024.12.18.", "2024-12-18", true},
		{"입력 2024.12.18. 오후 3:04", "2024-12-18", true},
		{"기사입력 : 2024-12-18 15:04", "2024-12-18", true},
		{"수정 2024/12/19 09:00", "2024-12-19", true},
		{"2024년 12월 18일", "2024-12-18", true},
		{"2024-12-18T15:04:05+09:00", "2024-12-18", true},
		{"20241218", "2024-12-18", true},
		{"12.18 15:04", "", false},
		{"2024.13.40", "", false},
		{"3시간 전", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDate(tt.input)
		if ok != tt.ok || got != tt.expected {
			t.Errorf("NormalizeDate(%q) = %q,%v want %q,%v", tt.input, got, ok, tt.expected, tt.ok)
		}
	}
}

func TestParseListingDate(t *testing.T) {
	now := time.Date(2024, 12, 18, 10, 0, 0, 0, time.UTC)
	tests := []struct {
		input    string
		expected string
	}{
		{"2024.12.17.", "2024-12-17"},
		{"3시간 전", "2024-12-18"},
		{"12시간 전", "2024-12-17"},
		{"2일 전", "2024-12-16"},
		{"1주 전", "2024-12-11"},
		{"어제", "2024-12-17"},
	}
	for _, tt := range tests {
		got, ok := ParseListingDate(tt.input, now)
		if !ok || got != tt.expected {
			t.Errorf("ParseListingDate(%q) = %q,%v want %q", tt.input, got, ok, tt.expected)
		}
	}
	if _, ok := ParseListingDate("A1면 1단", now); ok {
		t.Error("page marker should not parse as a date")
	}
}

// --- Detail Extractor Tests ---

const articleHTML = `<html><head>
<meta property="og:title" content="해상풍력 입찰 발표">
<script type="application/ld+json">
{"@context":"https://schema.org","@graph":[{"@type":"NewsArticle","author":{"@type":"Person","name":"김철수"}}]}
</script>
</head><body>
<div class="article_info"><span class="date_input">입력 2024.12.18 14:02</span></div>
<div class="byline">홍길동 기자 hong@example.co.kr</div>
<div id="dic_area">
  정부가 해상풍력 입찰 결과를 발표했다.
  <script>var x = 1;</script>
  Advertisement
  업계는 환영했다.
</div>
</body></html>`

func newDetailExtractor(now time.Time) *DetailExtractor {
	de := NewDetailExtractor(config.DefaultConfig().Detail, testLogger)
	de.Now = func() time.Time { return now }
	return de
}

func TestDetailExtractorFindsFields(t *testing.T) {
	de := newDetailExtractor(time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC))
	detail := de.Extract(NewPage("https://example.co.kr/a/1", []byte(articleHTML)))

	if detail.PublishedDate != "2024-12-18" {
		t.Errorf("expected 2024-12-18, got %q", detail.PublishedDate)
	}
	if detail.DateEstimated {
		t.Error("date should not be estimated")
	}
	// The JSON-LD author rule is ordered before the byline rule.
	if detail.Journalist != "김철수" {
		t.Errorf("expected journalist from JSON-LD, got %q", detail.Journalist)
	}
	if detail.Content != "정부가 해상풍력 입찰 결과를 발표했다. 업계는 환영했다." {
		t.Errorf("unexpected content %q", detail.Content)
	}
}

func TestDetailExtractorRuleOrder(t *testing.T) {
	cfg := config.DefaultConfig().Detail
	cfg.JournalistRules = []config.ParseRule{
		{Name: "missing", Type: "css", Selector: ".nope"},
		{Name: "byline", Type: "xpath", Selector: "//div[@class='byline']"},
	}
	de := NewDetailExtractor(cfg, testLogger)

	detail := de.Extract(NewPage("https://example.co.kr/a/1", []byte(articleHTML)))
	if detail.Journalist != "홍길동" {
		t.Errorf("expected cleaned byline, got %q", detail.Journalist)
	}
}

func TestDetailExtractorDefaultsToToday(t *testing.T) {
	now := time.Date(2024, 12, 18, 9, 30, 0, 0, time.UTC)
	de := newDetailExtractor(now)

	detail := de.Extract(NewPage("https://example.co.kr/a/2", []byte("<html><body><p>본문</p></body></html>")))
	if detail.PublishedDate != "2024-12-18" {
		t.Errorf("expected today's date, got %q", detail.PublishedDate)
	}
	if !detail.DateEstimated {
		t.Error("expected DateEstimated when no rule matched")
	}
	if detail.Journalist != types.NotAvailable {
		t.Errorf("expected N/A journalist, got %q", detail.Journalist)
	}
}

func TestDetailExtractorSkipsYearlessDates(t *testing.T) {
	cfg := config.DefaultConfig().Detail
	cfg.DateRules = []config.ParseRule{
		{Name: "short", Type: "css", Selector: ".short"},
		{Name: "full", Type: "css", Selector: ".full"},
	}
	de := NewDetailExtractor(cfg, testLogger)

	html := `<div class="short">12.18 14:02</div><div class="full">수정 2024.12.19</div>`
	detail := de.Extract(NewPage("https://example.co.kr/a/3", []byte(html)))
	if detail.PublishedDate != "2024-12-19" {
		t.Errorf("expected the rule with a 4-digit year to win, got %q", detail.PublishedDate)
	}
}

func TestCleanJournalist(t *testing.T) {
	tests := []struct {
		input string
		want  string
		ok    bool
	}{
		{"홍길동 기자 hong@example.co.kr", "홍길동", true},
		{"(서울=연합뉴스) 김영희 특파원", "김영희", true},
		{"이수민 선임기자", "이수민", true},
		{"By Jane Doe", "Jane Doe", true},
		{"press@example.com", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		got, ok := CleanJournalist(tt.input)
		if ok != tt.ok || got != tt.want {
			t.Errorf("CleanJournalist(%q) = %q,%v want %q,%v", tt.input, got, ok, tt.want, tt.ok)
		}
	}
}

// --- Rule Evaluator Tests ---

func TestRuleEvaluatorTypes(t *testing.T) {
	eval := NewRuleEvaluator(testLogger)
	page := NewPage("https://example.co.kr/a/1", []byte(articleHTML))

	tests := []struct {
		rule config.ParseRule
		want string
	}{
		{config.ParseRule{Type: "css", Selector: ".date_input"}, "입력 2024.12.18 14:02"},
		{config.ParseRule{Type: "xpath", Selector: "//div[@class='byline']"}, "홍길동 기자 hong@example.co.kr"},
		{config.ParseRule{Type: "meta", Selector: "og:title"}, "해상풍력 입찰 발표"},
		{config.ParseRule{Type: "jsonld", Selector: "author.name"}, "김철수"},
		{config.ParseRule{Type: "regex", Pattern: `입력\s+(\S+)`}, "2024.12.18"},
	}
	for _, tt := range tests {
		got := eval.Values(page, tt.rule)
		if !slices.Contains(got, tt.want) {
			t.Errorf("%s %q: expected %q in %v", tt.rule.Type, tt.rule.Selector+tt.rule.Pattern, tt.want, got)
		}
	}
}

func TestRuleEvaluatorInvalidXPath(t *testing.T) {
	eval := NewRuleEvaluator(testLogger)
	page := NewPage("https://example.co.kr/", []byte(articleHTML))
	if got := eval.Values(page, config.ParseRule{Type: "xpath", Selector: "//div[@"}); got != nil {
		t.Errorf("expected nil for invalid xpath, got %v", got)
	}
}

package search

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"slices"
	"strings"
	"testing"
	"time"

	"github.com/IshaanNene/NewsHound/internal/config"
	"github.com/IshaanNene/NewsHound/internal/types"
)

var testLogger = slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))

var (
	day1 = time.Date(2024, 12, 18, 0, 0, 0, 0, time.UTC)
	day2 = time.Date(2024, 12, 19, 0, 0, 0, 0, time.UTC)
)

func TestNaverPageURL(t *testing.T) {
	src := NewNaver(config.DefaultConfig().Search, testLogger)

	tests := []struct {
		page      int
		wantStart string
	}{
		{0, "1"},
		{1, "11"},
		{2, "21"},
	}
	for _, tt := range tests {
		raw, err := src.PageURL("해상풍력", day1, day2, tt.page)
		if err != nil {
			t.Fatalf("PageURL: %v", err)
		}
		u, err := url.Parse(raw)
		if err != nil {
			t.Fatalf("parse %q: %v", raw, err)
		}
		if u.Host != "search.naver.com" || u.Path != "/search.naver" {
			t.Errorf("url = %s", raw)
		}
		q := u.Query()
		want := map[string]string{
			"where": "news",
			"query": "해상풍력",
			"sort":  "1",
			"ds":    "2024.12.18",
			"de":    "2024.12.19",
			"nso":   "so:dd,p:from20241218to20241219",
			"start": tt.wantStart,
		}
		for k, v := range want {
			if got := q.Get(k); got != v {
				t.Errorf("page %d: %s = %q, want %q", tt.page, k, got, v)
			}
		}
	}

	if _, err := src.PageURL("", day1, day2, 0); !errors.Is(err, types.ErrEmptyKeyword) {
		t.Errorf("empty keyword err = %v", err)
	}
}

func TestNaverParse(t *testing.T) {
	src := NewNaver(config.DefaultConfig().Search, testLogger)
	body := []byte(`<html><body><ul>
<li><div class="news_area">
  <div class="info_group"><a class="info press" href="#">에너지경제</a><span class="info">2024.12.18.</span></div>
  <a class="news_tit" href="https://example.co.kr/a/1" title="해상풍력 입찰 발표">해상풍력 입찰 발표</a>
</div></li>
<li><div class="news_area">
  <a class="news_tit" href="/news/2">데이터센터 전력 수요</a>
</div></li>
</ul></body></html>`)
	resp := types.NewStaticResponse("https://search.naver.com/search.naver?where=news", body)

	var got []types.ArticleStub
	for stub := range src.Parse(resp, "해상풍력") {
		got = append(got, stub)
	}
	if len(got) != 2 {
		t.Fatalf("got %d stubs, want 2", len(got))
	}
	if got[0].URL != "https://example.co.kr/a/1" || got[0].OutletRaw != "에너지경제" || got[0].Keyword != "해상풍력" {
		t.Errorf("first stub = %+v", got[0])
	}
	if got[1].URL != "https://search.naver.com/news/2" {
		t.Errorf("relative link resolved to %q", got[1].URL)
	}
}

func TestGoogleNewsPageURL(t *testing.T) {
	src := NewGoogleNews(config.DefaultConfig().Search, testLogger)

	raw, err := src.PageURL("해상풍력", day1, day2, 0)
	if err != nil {
		t.Fatalf("PageURL: %v", err)
	}
	u, _ := url.Parse(raw)
	if u.Host != "news.google.com" || u.Path != "/rss/search" {
		t.Errorf("url = %s", raw)
	}
	q := u.Query()
	if got := q.Get("q"); got != "해상풍력 after:2024-12-18 before:2024-12-20" {
		t.Errorf("q = %q", got)
	}
	if q.Get("hl") != "ko" || q.Get("gl") != "KR" || q.Get("ceid") != "KR:ko" {
		t.Errorf("locale params = %v", q)
	}

	if _, err := src.PageURL("해상풍력", day1, day2, 1); !errors.Is(err, ErrNoMorePages) {
		t.Errorf("page 1 err = %v, want ErrNoMorePages", err)
	}
}

const googleFeed = `<?xml version="1.0" encoding="UTF-8"?>
<rss version="2.0"><channel>
<title>"해상풍력" - Google 뉴스</title>
<item>
  <title>해상풍력 입찰 발표 - 에너지경제</title>
  <link>https://news.google.com/rss/articles/abc</link>
  <pubDate>Tue, 17 Dec 2024 16:30:00 GMT</pubDate>
</item>
<item>
  <title>전력망 특별법 통과</title>
  <link>https://www.example.co.kr/a/2</link>
</item>
<item>
  <title></title>
  <link>https://www.example.co.kr/a/3</link>
</item>
</channel></rss>`

func TestGoogleNewsParse(t *testing.T) {
	src := NewGoogleNews(config.DefaultConfig().Search, testLogger)
	seq := src.Parse(types.NewStaticResponse("https://news.google.com/rss/search?q=x", []byte(googleFeed)), "해상풍력")

	var got []types.ArticleStub
	for stub := range seq {
		got = append(got, stub)
	}
	if len(got) != 2 {
		t.Fatalf("got %d stubs, want 2: %+v", len(got), got)
	}
	if got[0].Title != "해상풍력 입찰 발표" || got[0].OutletRaw != "에너지경제" {
		t.Errorf("first stub = %+v", got[0])
	}
	// 16:30 GMT on the 17th is already the 18th in Korea.
	if got[0].DateRaw != "2024-12-18" {
		t.Errorf("DateRaw = %q", got[0].DateRaw)
	}
	if got[1].OutletRaw != "Example" || got[1].DateRaw != "" {
		t.Errorf("second stub = %+v", got[1])
	}

	var again []string
	for stub := range seq {
		again = append(again, stub.Title)
	}
	if len(again) != 0 {
		t.Errorf("second iteration yielded %v", again)
	}
}

func TestGoogleNewsParseInvalidFeed(t *testing.T) {
	src := NewGoogleNews(config.DefaultConfig().Search, testLogger)
	titles := slices.Collect(func(yield func(string) bool) {
		for stub := range src.Parse(types.NewStaticResponse("https://x", []byte("not a feed")), "k") {
			if !yield(stub.Title) {
				return
			}
		}
	})
	if len(titles) != 0 {
		t.Errorf("got %v from invalid feed", titles)
	}
}

func TestNewSource(t *testing.T) {
	cfg := config.DefaultConfig().Search
	for name, want := range map[string]string{"": "naver", "naver": "naver", "googlenews": "googlenews"} {
		cfg.Source = name
		src, err := New(cfg, testLogger)
		if err != nil {
			t.Fatalf("New(%q): %v", name, err)
		}
		if src.Name() != want {
			t.Errorf("New(%q).Name() = %q", name, src.Name())
		}
	}
	cfg.Source = "bing"
	if _, err := New(cfg, testLogger); !errors.Is(err, types.ErrUnknownBackend) {
		t.Errorf("unknown source err = %v", err)
	}
}

// mapFetcher serves listing bodies keyed by the "start" query parameter.
type mapFetcher struct {
	pages map[string]string
	fail  map[string]bool
	hits  []string
}

func (m *mapFetcher) Fetch(_ context.Context, rawURL string) (*types.Response, error) {
	u, _ := url.Parse(rawURL)
	start := u.Query().Get("start")
	m.hits = append(m.hits, start)
	if m.fail[start] {
		return nil, &types.FetchError{URL: rawURL, StatusCode: 503, Err: fmt.Errorf("unavailable")}
	}
	return types.NewStaticResponse(rawURL, []byte(m.pages[start])), nil
}

func listingPage(titles ...string) string {
	var b strings.Builder
	b.WriteString("<html><body>")
	for i, title := range titles {
		fmt.Fprintf(&b, `<div class="news_area"><a class="news_tit" href="https://example.co.kr/%d">%s</a></div>`, i, title)
	}
	b.WriteString("</body></html>")
	return b.String()
}

func TestPagerStopsOnEmptyPage(t *testing.T) {
	f := &mapFetcher{pages: map[string]string{
		"1":  listingPage("a", "b"),
		"11": listingPage(),
		"21": listingPage("never"),
	}}
	src := NewNaver(config.DefaultConfig().Search, testLogger)
	p := NewPager(src, f, 3, 0, testLogger)

	stubs := p.Collect(context.Background(), "해상풍력", day1, day1)
	if len(stubs) != 2 {
		t.Errorf("got %d stubs, want 2", len(stubs))
	}
	if !slices.Equal(f.hits, []string{"1", "11"}) {
		t.Errorf("fetched pages %v, want [1 11]", f.hits)
	}
}

func TestPagerSkipsFailedPage(t *testing.T) {
	f := &mapFetcher{
		pages: map[string]string{"11": listingPage("c")},
		fail:  map[string]bool{"1": true},
	}
	src := NewNaver(config.DefaultConfig().Search, testLogger)
	p := NewPager(src, f, 2, 0, testLogger)

	var failed, ok int
	for page := range p.Pages(context.Background(), "해상풍력", day1, day1) {
		if page.Err != nil {
			failed++
			if types.Kind(page.Err) != types.KindNetwork {
				t.Errorf("Kind = %q", types.Kind(page.Err))
			}
			continue
		}
		for range page.Stubs {
			ok++
		}
	}
	if failed != 1 || ok != 1 {
		t.Errorf("failed=%d ok=%d, want 1 and 1", failed, ok)
	}
}

func TestPagerSinglePageSource(t *testing.T) {
	f := &mapFetcher{pages: map[string]string{}}
	src := NewGoogleNews(config.DefaultConfig().Search, testLogger)
	p := NewPager(src, f, 5, 0, testLogger)

	n := 0
	for range p.Pages(context.Background(), "해상풍력", day1, day1) {
		n++
	}
	if n != 1 {
		t.Errorf("visited %d pages, want 1", n)
	}
}

func TestPagerCanceled(t *testing.T) {
	f := &mapFetcher{pages: map[string]string{"1": listingPage("a")}}
	src := NewNaver(config.DefaultConfig().Search, testLogger)
	p := NewPager(src, f, 3, 0, testLogger)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if got := p.Collect(ctx, "해상풍력", day1, day1); len(got) != 0 {
		t.Errorf("canceled Collect returned %d stubs", len(got))
	}
	if len(f.hits) != 0 {
		t.Errorf("fetched %v after cancel", f.hits)
	}
}

package matcher

import (
	"testing"

	"github.com/IshaanNene/NewsHound/internal/config"
)

func newTestMatcher() *Matcher {
	return FromConfig(config.DefaultConfig().Matcher)
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"X ", "x"},
		{"  Offshore   Wind ", "offshore wind"},
		{"[단독] 해상풍력, 입찰 발표!", "단독 해상풍력 입찰 발표"},
		{"정부·지자체 \"전력망\" 확충…", "정부 지자체 전력망 확충"},
		{"GW-scale 2025 plan", "gw scale 2025 plan"},
		{"!!!", ""},
		{"", ""},
	}
	for _, tt := range tests {
		if got := Normalize(tt.in); got != tt.want {
			t.Errorf("Normalize(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTitlesMatch(t *testing.T) {
	m := newTestMatcher()

	tests := []struct {
		name      string
		candidate string
		known     string
		want      bool
	}{
		{"trailing space", "X ", "X", true},
		{"punctuation only differs", "[단독] 해상풍력, 입찰 발표!", "단독 해상풍력 입찰 발표", true},
		{"overlap exactly at threshold", "해상풍력 입찰 결과 업계 반응", "해상풍력 입찰 결과 정부 발표", true},
		{"overlap below threshold", "해상풍력 입찰 소식 업계 반응", "해상풍력 입찰 결과 정부 발표", false},
		{"overlap without domain keyword", "주가 상승 마감 소식", "주가 상승 마감 전망", false},
		{"keyword in one title only", "해상풍력 주가 상승 마감", "주가 상승 마감 전망", false},
		{"multi-word keyword", "Offshore Wind Auction Results", "offshore wind auction delayed", true},
		{"both empty", "", "", false},
		{"punctuation only", "!!!", "...", false},
		{"identical punctuation only", "!!!", "!!!", true},
		{"keyword with particle", "해상풍력이 입찰 결과 발표", "해상풍력 입찰 결과 발표 임박", true},
		{"keyword inside an english word", "window sale report today", "window sale report tomorrow", false},
		{"keyword closing a compound", "경제발전 계획 정부 발표", "경제발전 계획 정부 확정", false},
		{"one empty", "해상풍력 입찰", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := m.TitlesMatch(tt.candidate, tt.known); got != tt.want {
				t.Errorf("TitlesMatch(%q, %q) = %v, want %v", tt.candidate, tt.known, got, tt.want)
			}
		})
	}
}

func TestTitlesMatchReflexive(t *testing.T) {
	m := newTestMatcher()
	for _, title := range []string{
		"해상풍력 입찰 발표",
		"정부, 데이터센터 전력 수요 대책 내놔",
		"Grid upgrade plan approved",
		"X",
		"!!!",
	} {
		if !m.TitlesMatch(title, title) {
			t.Errorf("TitlesMatch(%q, itself) = false", title)
		}
	}
}

func TestTitlesMatchSymmetric(t *testing.T) {
	m := newTestMatcher()
	a := "해상풍력 입찰 결과 업계 반응 엇갈려"
	b := "해상풍력 입찰 결과 발표"
	if m.TitlesMatch(a, b) != m.TitlesMatch(b, a) {
		t.Errorf("TitlesMatch is not symmetric for %q and %q", a, b)
	}
}

func TestKeywordTokenBoundaries(t *testing.T) {
	m := New(0, []string{"wind", "발전", "Offshore Wind"})
	if m.TitlesMatch("window sale report today", "window sale report tomorrow") {
		t.Error("wind matched inside window")
	}
	if m.TitlesMatch("경제발전 전략 회의 개최", "경제발전 전략 회의 연기") {
		t.Error("발전 matched inside 경제발전")
	}
	if !m.TitlesMatch("발전소 건설 계획 승인", "발전소 건설 계획 보류") {
		t.Error("발전 not found in 발전소")
	}
	if !m.TitlesMatch("new offshore wind auction opens", "offshore wind auction opens today") {
		t.Error("offshore wind not found as consecutive tokens")
	}
}

func TestCustomOverlap(t *testing.T) {
	strict := New(1.0, []string{"해상풍력"})
	if strict.TitlesMatch("해상풍력 입찰 결과 업계 반응", "해상풍력 입찰 결과 정부 발표") {
		t.Error("expected no match with min overlap 1.0")
	}
	if !strict.TitlesMatch("해상풍력 입찰 결과", "해상풍력 입찰 결과 정부 발표") {
		t.Error("expected match when the smaller set is fully shared")
	}

	def := New(0, []string{"해상풍력"})
	if def.minOverlap != DefaultMinOverlap {
		t.Errorf("minOverlap = %v, want %v", def.minOverlap, DefaultMinOverlap)
	}
}

func TestCoverage(t *testing.T) {
	tests := []struct {
		found, total int
		want         float64
	}{
		{1, 1, 100.0},
		{1, 4, 25.0},
		{0, 3, 0},
		{0, 0, 0},
	}
	for _, tt := range tests {
		if got := Coverage(tt.found, tt.total); got != tt.want {
			t.Errorf("Coverage(%d, %d) = %v, want %v", tt.found, tt.total, got, tt.want)
		}
	}
}

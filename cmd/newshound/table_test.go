package main

import (
	"bytes"
	"strings"
	"testing"

	"github.com/mattn/go-runewidth"
)

func TestTableAlignsWideCharacters(t *testing.T) {
	var buf bytes.Buffer
	table{headers: []string{"Source", "Title"}}.render(&buf, [][]string{
		{"에너지경제", "해상풍력 입찰 발표"},
		{"Reuters", "Offshore wind"},
	})

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	if len(lines) != 4 {
		t.Fatalf("got %d lines:\n%s", len(lines), buf.String())
	}
	// The title column starts at the same display offset on every row.
	want := runewidth.StringWidth("에너지경제") + 2
	for _, line := range []string{lines[0], lines[2], lines[3]} {
		idx := strings.LastIndex(line, "  ")
		if got := runewidth.StringWidth(line[:idx+2]); got != want {
			t.Errorf("title column at %d, want %d in %q", got, want, line)
		}
	}
}

func TestTableClipsColumns(t *testing.T) {
	var buf bytes.Buffer
	table{headers: []string{"Title"}, maxWidths: []int{10}}.render(&buf, [][]string{
		{"데이터센터 전력 수요 급증"},
	})
	for _, line := range strings.Split(strings.TrimRight(buf.String(), "\n"), "\n") {
		if w := runewidth.StringWidth(line); w > 10 {
			t.Errorf("line %q is %d wide", line, w)
		}
	}
}

func TestParseDate(t *testing.T) {
	if d, err := parseDate("from", ""); err != nil || !d.IsZero() {
		t.Errorf("empty value = %v, %v", d, err)
	}
	d, err := parseDate("from", "2024-12-18")
	if err != nil || d.Format("2006-01-02") != "2024-12-18" {
		t.Errorf("parseDate = %v, %v", d, err)
	}
	if _, err := parseDate("from", "18/12/2024"); err == nil || !strings.Contains(err.Error(), "--from") {
		t.Errorf("err = %v", err)
	}
}

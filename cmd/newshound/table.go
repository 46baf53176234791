package main

import (
	"io"
	"strings"

	"github.com/mattn/go-runewidth"
)

// table renders rows with columns aligned by display width, so Hangul and
// other wide characters line up.
type table struct {
	headers []string

	// maxWidths caps each column; 0 leaves it unbounded.
	maxWidths []int
}

func (t table) render(w io.Writer, rows [][]string) {
	cells := make([][]string, 0, len(rows)+1)
	cells = append(cells, t.headers)
	for _, row := range rows {
		clipped := make([]string, len(t.headers))
		for i := range clipped {
			if i < len(row) {
				clipped[i] = t.clip(i, strings.Join(strings.Fields(row[i]), " "))
			}
		}
		cells = append(cells, clipped)
	}

	widths := make([]int, len(t.headers))
	for _, row := range cells {
		for i, c := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(c))
		}
	}

	var sb strings.Builder
	for n, row := range cells {
		for i, c := range row {
			sb.WriteString(c)
			if i < len(row)-1 {
				sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(c)+2))
			}
		}
		sb.WriteByte('\n')
		if n == 0 {
			for i, width := range widths {
				sb.WriteString(strings.Repeat("-", width))
				if i < len(widths)-1 {
					sb.WriteString("  ")
				}
			}
			sb.WriteByte('\n')
		}
	}
	io.WriteString(w, sb.String())
}

func (t table) clip(col int, s string) string {
	if col >= len(t.maxWidths) || t.maxWidths[col] <= 0 {
		return s
	}
	return runewidth.Truncate(s, t.maxWidths[col], "…")
}

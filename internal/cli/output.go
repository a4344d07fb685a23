package cli

import (
	"fmt"
	"io"
	"strings"
	"unicode/utf8"

	"github.com/surveygraph/graph/internal/style"
)

// printTable outputs data in a human-readable table format
func printTable(w io.Writer, headers []string, rows [][]string) {
	if len(rows) == 0 {
		return
	}

	// Calculate column widths
	widths := make([]int, len(headers))
	for i, header := range headers {
		widths[i] = utf8.RuneCountInString(header)
	}

	for _, row := range rows {
		for i, cell := range row {
			if n := utf8.RuneCountInString(cell); i < len(widths) && n > widths[i] {
				widths[i] = n
			}
		}
	}

	// Print header
	for i, header := range headers {
		fmt.Fprint(w, style.TitleStyle.Render(pad(header, widths[i])), "  ")
	}
	fmt.Fprintln(w)

	// Print separator
	for i := range headers {
		fmt.Fprint(w, strings.Repeat("-", widths[i]), "  ")
	}
	fmt.Fprintln(w)

	// Print rows
	for _, row := range rows {
		for i, cell := range row {
			if i < len(widths) {
				fmt.Fprint(w, pad(cell, widths[i]), "  ")
			}
		}
		fmt.Fprintln(w)
	}
}

// pad right-pads s to width runes; fmt's width counts bytes.
func pad(s string, width int) string {
	if n := utf8.RuneCountInString(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}

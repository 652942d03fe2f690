// Package formatter renders dataset statistics as aligned markdown.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// FormatMarkdown realigns every pipe table in content so that columns line
// up by display width. Non-table lines pass through unchanged.
func FormatMarkdown(content string) string {
	lines := strings.Split(content, "\n")

	var (
		formatted   []string
		tableBuffer []string
	)

	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if strings.HasPrefix(trimmed, "|") && strings.HasSuffix(trimmed, "|") {
			tableBuffer = append(tableBuffer, line)
			continue
		}

		if len(tableBuffer) > 0 {
			formatted = append(formatted, processTable(tableBuffer)...)
			tableBuffer = nil
		}

		formatted = append(formatted, line)
	}

	if len(tableBuffer) > 0 {
		formatted = append(formatted, processTable(tableBuffer)...)
	}

	return strings.Join(formatted, "\n")
}

// RenderTable lays out header and rows as an aligned markdown table.
func RenderTable(header []string, rows [][]string) []string {
	table := make([][]string, 0, len(rows)+2)
	table = append(table, header, nil)
	table = append(table, rows...)

	return alignTable(table, 1)
}

func processTable(rows []string) []string {
	// A header without its separator is left alone.
	if len(rows) < 2 {
		return rows
	}

	table := make([][]string, 0, len(rows))
	for _, row := range rows {
		table = append(table, splitRow(row))
	}

	sep := -1
	if isSeparatorRow(table[1]) {
		sep = 1
	}

	return alignTable(table, sep)
}

func splitRow(row string) []string {
	parts := strings.Split(row, "|")

	if len(parts) > 0 && strings.TrimSpace(parts[0]) == "" {
		parts = parts[1:]
	}

	if len(parts) > 0 && strings.TrimSpace(parts[len(parts)-1]) == "" {
		parts = parts[:len(parts)-1]
	}

	cells := make([]string, len(parts))
	for i, p := range parts {
		cells[i] = strings.TrimSpace(p)
	}

	return cells
}

func isSeparatorRow(cells []string) bool {
	for _, cell := range cells {
		if strings.Trim(cell, "-: ") != "" {
			return false
		}
	}

	return true
}

// alignTable pads every cell to its column's display width. Row sep, if
// non-negative, is rendered as dashes.
func alignTable(table [][]string, sep int) []string {
	colCount := 0
	for _, row := range table {
		colCount = max(colCount, len(row))
	}

	widths := make([]int, colCount)
	for i := range widths {
		widths[i] = 3
	}

	for r, row := range table {
		if r == sep {
			continue
		}

		for i, cell := range row {
			widths[i] = max(widths[i], runewidth.StringWidth(cell))
		}
	}

	result := make([]string, 0, len(table))

	for r, row := range table {
		var sb strings.Builder

		sb.WriteString("|")

		for j := range colCount {
			sb.WriteString(" ")

			if r == sep {
				sb.WriteString(strings.Repeat("-", widths[j]))
			} else {
				content := ""
				if j < len(row) {
					content = row[j]
				}

				sb.WriteString(content)
				sb.WriteString(strings.Repeat(" ", widths[j]-runewidth.StringWidth(content)))
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}

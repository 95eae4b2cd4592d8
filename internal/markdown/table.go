// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package markdown

import (
	"regexp"
	"strings"
)

var separatorCells = regexp.MustCompile(`^[\s|:-]+$`)

// isTableRow reports whether line has a column separator and something
// other than whitespace outside the separators.
func isTableRow(line string) bool {
	if !strings.ContainsRune(line, '|') {
		return false
	}
	return strings.TrimSpace(strings.ReplaceAll(line, "|", "")) != ""
}

// isTableSeparator matches alignment rows such as |---|:--:|.
func isTableSeparator(line string) bool {
	t := trimPipes(strings.TrimSpace(line))
	return separatorCells.MatchString(t) && strings.Contains(t, "---")
}

func trimPipes(s string) string {
	s = strings.TrimPrefix(s, "|")
	return strings.TrimSuffix(s, "|")
}

func tableCells(line string) []string {
	cells := strings.Split(trimPipes(strings.TrimSpace(line)), "|")
	for i := range cells {
		cells[i] = strings.TrimSpace(cells[i])
	}
	return cells
}

// renderTable renders consecutive table rows as one table on one line.
// If the second row is a separator the first row is the header.
func renderTable(rows []string) string {
	var b strings.Builder
	b.WriteString(`<table class="md-table">`)

	body := rows
	if len(rows) >= 2 && isTableSeparator(rows[1]) {
		b.WriteString("<thead>")
		writeRow(&b, rows[0], "th")
		b.WriteString("</thead>")
		body = rows[2:]
	}

	b.WriteString("<tbody>")
	for _, row := range body {
		if isTableSeparator(row) {
			continue
		}
		writeRow(&b, row, "td")
	}
	b.WriteString("</tbody></table>")
	return b.String()
}

func writeRow(b *strings.Builder, row, cellTag string) {
	b.WriteString("<tr>")
	for _, cell := range tableCells(row) {
		b.WriteString("<" + cellTag + ">")
		b.WriteString(renderInline(cell))
		b.WriteString("</" + cellTag + ">")
	}
	b.WriteString("</tr>")
}

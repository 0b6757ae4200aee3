// Package formatter renders run summaries as Markdown with display-width aligned tables.
package formatter

import (
	"strings"

	"github.com/mattn/go-runewidth"

	"github.com/JosephCarrino/SwissTARO/pkg/metadata"
)

// FormatMarkdown aligns every table of content and signs the result again, keeping the run id
// and validation status of an existing metadata block.
func FormatMarkdown(content string) (string, error) {
	meta, clean := metadata.Extract(content)

	formatted := AlignTables(clean)

	if meta == nil {
		return metadata.Sign(formatted, false), nil
	}

	return metadata.SignWith(formatted, metadata.Metadata{RunID: meta.RunID, Validation: meta.Validation}), nil
}

// AlignTables pads the cells of every pipe table in content to a common display width.
func AlignTables(content string) string {
	lines := strings.Split(content, "\n")

	var formattedLines []string

	var tableBuffer []string

	for _, line := range lines {
		trimmedLine := strings.TrimSpace(line)

		if strings.HasPrefix(trimmedLine, "|") && strings.HasSuffix(trimmedLine, "|") {
			tableBuffer = append(tableBuffer, line)

			continue
		}

		if len(tableBuffer) > 0 {
			formattedLines = append(formattedLines, processTable(tableBuffer)...)
			tableBuffer = nil
		}

		formattedLines = append(formattedLines, line)
	}

	if len(tableBuffer) > 0 {
		formattedLines = append(formattedLines, processTable(tableBuffer)...)
	}

	return strings.Join(formattedLines, "\n")
}

func splitRow(row string) []string {
	parts := strings.Split(strings.TrimSpace(row), "|")

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

func isSeparator(cells []string) bool {
	for _, cell := range cells {
		trim := strings.NewReplacer("-", "", ":", "", " ", "").Replace(cell)
		if trim != "" {
			return false
		}
	}

	return len(cells) > 0
}

// isNumeric reports whether a cell holds a count or a percentage; such columns align right.
func isNumeric(cell string) bool {
	cell = strings.TrimPrefix(strings.TrimSuffix(cell, "%"), "-")
	if cell == "" {
		return false
	}

	for _, r := range cell {
		if (r < '0' || r > '9') && r != '.' {
			return false
		}
	}

	return true
}

func processTable(rows []string) []string {
	// A header without a separator is not a table we can format.
	if len(rows) < 2 {
		return rows
	}

	table := make([][]string, len(rows))
	colCount := 0

	for i, row := range rows {
		table[i] = splitRow(row)
		colCount = max(colCount, len(table[i]))
	}

	separatorRowIdx := -1
	if isSeparator(table[1]) {
		separatorRowIdx = 1
	}

	colWidths := make([]int, colCount)
	numeric := make([]bool, colCount)

	for i := range numeric {
		numeric[i] = separatorRowIdx == 1 && len(table) > 2
	}

	for rIdx, row := range table {
		if rIdx == separatorRowIdx {
			continue
		}

		for i := 0; i < len(row) && i < colCount; i++ {
			colWidths[i] = max(colWidths[i], runewidth.StringWidth(row[i]))

			if rIdx > separatorRowIdx && !isNumeric(row[i]) {
				numeric[i] = false
			}
		}
	}

	for i := range colWidths {
		colWidths[i] = max(colWidths[i], 3)
	}

	result := make([]string, 0, len(table))

	for i, row := range table {
		var sb strings.Builder

		sb.WriteString("|")

		for j := range colCount {
			sb.WriteString(" ")

			content := ""
			if j < len(row) {
				content = row[j]
			}

			switch {
			case i == separatorRowIdx && numeric[j]:
				sb.WriteString(strings.Repeat("-", colWidths[j]-1) + ":")
			case i == separatorRowIdx:
				sb.WriteString(strings.Repeat("-", colWidths[j]))
			case numeric[j] && i > separatorRowIdx:
				sb.WriteString(runewidth.FillLeft(content, colWidths[j]))
			default:
				sb.WriteString(runewidth.FillRight(content, colWidths[j]))
			}

			sb.WriteString(" |")
		}

		result = append(result, sb.String())
	}

	return result
}

package importer

import "strings"

// delimiters in detection order
var delimiters = []rune{'\t', ';', ','}

func splitLines(text string) []string {
	raw := strings.Split(text, "\n")
	lines := make([]string, 0, len(raw))
	for _, line := range raw {
		line = strings.TrimRight(line, "\r")
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	return lines
}

// detectDelimiter picks the delimiter of a single row: the first of tab,
// semicolon, comma that occurs outside quotes. Bank exports mix them.
func detectDelimiter(line string) rune {
	counts := make(map[rune]int, len(delimiters))
	inQuotes := false
	for _, r := range line {
		if r == '"' {
			inQuotes = !inQuotes
			continue
		}
		if !inQuotes {
			counts[r]++
		}
	}
	for _, d := range delimiters {
		if counts[d] > 0 {
			return d
		}
	}
	return ','
}

// splitRow splits one row on its delimiter. Double quotes group a cell and
// "" inside quotes is a literal quote.
func splitRow(line string) []string {
	delim := detectDelimiter(line)
	runes := []rune(line)

	var cells []string
	var cell strings.Builder
	inQuotes := false

	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case r == '"':
			if inQuotes && i+1 < len(runes) && runes[i+1] == '"' {
				cell.WriteRune('"')
				i++
				continue
			}
			inQuotes = !inQuotes
		case r == delim && !inQuotes:
			cells = append(cells, cleanCell(cell.String()))
			cell.Reset()
		default:
			cell.WriteRune(r)
		}
	}
	return append(cells, cleanCell(cell.String()))
}

// cleanCell trims a cell and drops one level of leftover quoting such as 'value'.
func cleanCell(cell string) string {
	cell = strings.TrimSpace(cell)
	if n := len(cell); n >= 2 && cell[0] == cell[n-1] && (cell[0] == '"' || cell[0] == '\'') {
		cell = strings.TrimSpace(cell[1 : n-1])
	}
	return cell
}

package csvextract

import "strings"

// detectDelimiter tries each candidate against the first non-empty line and
// returns the one that splits it into the most fields, per spec: try `,`,
// `;`, tab, `|` and choose the greatest column count. Ties keep the
// earlier (more common) delimiter.
func detectDelimiter(lines []string) rune {
	var firstLine string
	for _, line := range lines {
		if strings.TrimSpace(line) != "" {
			firstLine = line
			break
		}
	}

	best := candidateDelimiters[0]
	bestCount := -1
	for _, delim := range candidateDelimiters {
		count := len(splitRespectingQuotes(firstLine, delim))
		if count > bestCount {
			bestCount = count
			best = delim
		}
	}
	return best
}

// detectQuoteChar picks whichever of `"` or `'` appears more often across
// the sample, defaulting to `"` when neither appears.
func detectQuoteChar(sample string) rune {
	doubles := strings.Count(sample, `"`)
	singles := strings.Count(sample, `'`)
	if singles > doubles {
		return '\''
	}
	return '"'
}

// splitRespectingQuotes is a cheap field count used only for delimiter
// detection: it does not need to unescape, just avoid counting a delimiter
// that falls inside quotes.
func splitRespectingQuotes(line string, delim rune) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false
	quoteChar := rune(0)

	for _, r := range line {
		switch {
		case inQuotes:
			current.WriteRune(r)
			if r == quoteChar {
				inQuotes = false
			}
		case r == '"' || r == '\'':
			inQuotes = true
			quoteChar = r
			current.WriteRune(r)
		case r == delim:
			fields = append(fields, current.String())
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	fields = append(fields, current.String())
	return fields
}

// parseRecords tokenizes the full decoded text into rows of fields, honoring
// delim as the field separator and quote as the quote character with
// doubled-quote escaping (`""` inside a quoted field becomes a literal `"`).
// A quoted field may itself contain delim or embedded newlines.
func parseRecords(text string, delim, quote rune) [][]string {
	var records [][]string
	var row []string
	var field strings.Builder
	inQuotes := false

	runes := []rune(text)
	for i := 0; i < len(runes); i++ {
		r := runes[i]
		switch {
		case inQuotes:
			if r == quote {
				if i+1 < len(runes) && runes[i+1] == quote {
					field.WriteRune(quote)
					i++
					continue
				}
				inQuotes = false
				continue
			}
			field.WriteRune(r)
		case r == quote && field.Len() == 0:
			inQuotes = true
		case r == delim:
			row = append(row, field.String())
			field.Reset()
		case r == '\n':
			row = append(row, field.String())
			field.Reset()
			if !(len(row) == 1 && row[0] == "") {
				records = append(records, row)
			}
			row = nil
		case r == '\r':
			continue
		default:
			field.WriteRune(r)
		}
	}
	if field.Len() > 0 || len(row) > 0 {
		row = append(row, field.String())
		records = append(records, row)
	}
	return records
}

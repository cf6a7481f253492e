package pdfextract

import (
	"regexp"
	"strings"
	"time"

	"github.com/boltoncivic/crawlctl/internal/model"
)

// agendaHeadingRegex finds numbered headings like "1." or "3.2" within the
// continuous per-page text, requiring the marker be preceded by
// whitespace/start-of-page so it doesn't match a decimal inside a longer
// number.
var agendaHeadingRegex = regexp.MustCompile(`(?:^|\s)(\d+(?:\.\d+)*)[.:]\s+`)

var committeeKeywords = []string{"committee", "cabinet", "council", "board", "panel"}

var meetingDateRegex = regexp.MustCompile(`(?i)\b\d{1,2}\s+(January|February|March|April|May|June|July|August|September|October|November|December)\s+\d{4}\b`)

func extractAgenda(pages []string) model.AgendaDocument {
	items := parseAgendaItems(pages)

	var firstPage string
	if len(pages) > 0 {
		firstPage = pages[0]
	}

	return model.AgendaDocument{
		MeetingTitle: extractMeetingTitle(firstPage),
		MeetingDate:  extractMeetingDate(firstPage),
		Committee:    extractCommittee(firstPage),
		AgendaItems:  items,
	}
}

// parseAgendaItems finds every numbered heading on every page and captures
// the text running up to the next heading (or end of page) as its title.
func parseAgendaItems(pages []string) []model.AgendaItem {
	var items []model.AgendaItem

	for pageIdx, pageText := range pages {
		matches := agendaHeadingRegex.FindAllStringSubmatchIndex(pageText, -1)
		for i, m := range matches {
			itemNumber := pageText[m[2]:m[3]]
			titleStart := m[1]
			titleEnd := len(pageText)
			if i+1 < len(matches) {
				titleEnd = matches[i+1][0]
			}
			title := strings.TrimSpace(pageText[titleStart:titleEnd])
			if title == "" {
				continue
			}

			items = append(items, model.AgendaItem{
				ItemNumber: itemNumber,
				Title:      title,
				PageNumber: pageIdx + 1,
				Confidence: agendaConfidence(itemNumber, title),
			})
		}
	}
	return items
}

// agendaConfidence grades an agenda item per spec §4.8.2: high when it has
// both a numeric prefix and substantial body text, medium with the prefix
// alone, low otherwise.
func agendaConfidence(itemNumber, title string) float64 {
	switch {
	case itemNumber != "" && len(title) >= 20:
		return 0.9
	case itemNumber != "":
		return 0.6
	default:
		return 0.3
	}
}

func extractMeetingTitle(firstPage string) string {
	loc := agendaHeadingRegex.FindStringIndex(firstPage)
	preamble := firstPage
	if loc != nil {
		preamble = firstPage[:loc[0]]
	}
	preamble = strings.TrimSpace(preamble)
	words := strings.Fields(preamble)
	if len(words) > 12 {
		words = words[:12]
	}
	return strings.Join(words, " ")
}

// extractCommittee looks for the first word containing a committee-like
// keyword and returns it together with up to two preceding words, e.g.
// "the Planning Committee" out of "... the Planning Committee met on ...".
func extractCommittee(firstPage string) string {
	words := strings.Fields(firstPage)
	for i, word := range words {
		lower := strings.ToLower(word)
		for _, kw := range committeeKeywords {
			if !strings.Contains(lower, kw) {
				continue
			}
			start := i - 2
			if start < 0 {
				start = 0
			}
			return strings.Join(words[start:i+1], " ")
		}
	}
	return ""
}

func extractMeetingDate(firstPage string) *time.Time {
	match := meetingDateRegex.FindString(firstPage)
	if match == "" {
		return nil
	}
	parsed, err := time.Parse("2 January 2006", match)
	if err != nil {
		return nil
	}
	return &parsed
}

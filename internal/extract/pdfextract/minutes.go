package pdfextract

import (
	"regexp"
	"strings"

	"github.com/boltoncivic/crawlctl/internal/model"
)

var (
	presentRegex  = regexp.MustCompile(`(?i)\b(?:Present|Attendees)\s*[:\-]?\s*`)
	decisionRegex = regexp.MustCompile(`(?i)\b(RESOLVED|DECIDED|AGREED)\b\s*[:\-]?\s*`)
	actionRegex   = regexp.MustCompile(`(?i)\bACTION\s*:\s*`)
)

func extractMinutes(pages []string) model.MinutesDocument {
	var firstPage string
	if len(pages) > 0 {
		firstPage = pages[0]
	}

	var allAttendees []string
	var allDecisions []model.MinutesDecision
	var allActions []string

	for pageIdx, pageText := range pages {
		allAttendees = append(allAttendees, parseAttendees(pageText)...)
		allDecisions = append(allDecisions, parseDecisions(pageText, pageIdx+1)...)
		allActions = append(allActions, parseActions(pageText)...)
	}

	return model.MinutesDocument{
		MeetingTitle: extractMeetingTitle(firstPage),
		MeetingDate:  extractMeetingDate(firstPage),
		Committee:    extractCommittee(firstPage),
		Attendees:    allAttendees,
		Decisions:    allDecisions,
		Actions:      allActions,
	}
}

// nextStopIndex returns the earliest index at or after from where any of
// the given stopper regexes matches, or -1 if none does.
func nextStopIndex(text string, from int, stoppers []*regexp.Regexp) int {
	best := -1
	for _, stopper := range stoppers {
		loc := stopper.FindStringIndex(text[from:])
		if loc == nil {
			continue
		}
		idx := from + loc[0]
		if best == -1 || idx < best {
			best = idx
		}
	}
	return best
}

func parseAttendees(pageText string) []string {
	loc := presentRegex.FindStringIndex(pageText)
	if loc == nil {
		return nil
	}

	stoppers := []*regexp.Regexp{agendaHeadingRegex, decisionRegex, actionRegex}
	end := nextStopIndex(pageText, loc[1], stoppers)
	if end == -1 {
		end = len(pageText)
	}

	body := pageText[loc[1]:end]
	return splitNameList(body)
}

func splitNameList(body string) []string {
	replacer := strings.NewReplacer(" and ", ",", ";", ",")
	body = replacer.Replace(body)
	var names []string
	for _, part := range strings.Split(body, ",") {
		name := strings.TrimSpace(part)
		if name != "" {
			names = append(names, name)
		}
	}
	return names
}

func parseDecisions(pageText string, pageNumber int) []model.MinutesDecision {
	matches := decisionRegex.FindAllStringIndex(pageText, -1)
	if matches == nil {
		return nil
	}

	stoppers := []*regexp.Regexp{decisionRegex, actionRegex, agendaHeadingRegex}
	var decisions []model.MinutesDecision
	for i, m := range matches {
		end := nextStopIndexAfter(pageText, m[1], matches, i, stoppers)
		title := strings.TrimSpace(pageText[m[1]:end])
		if title == "" {
			continue
		}
		decisions = append(decisions, model.MinutesDecision{
			Title:      title,
			PageNumber: pageNumber,
			Confidence: 0.8,
		})
	}
	return decisions
}

// nextStopIndexAfter is like nextStopIndex but also stops at the next
// occurrence in the same match set, so consecutive decisions don't swallow
// each other's bodies.
func nextStopIndexAfter(text string, from int, sameSet [][]int, currentIdx int, extraStoppers []*regexp.Regexp) int {
	end := len(text)
	if currentIdx+1 < len(sameSet) {
		end = sameSet[currentIdx+1][0]
	}
	if stop := nextStopIndex(text, from, extraStoppers); stop != -1 && stop < end {
		end = stop
	}
	if end < from {
		end = from
	}
	return end
}

func parseActions(pageText string) []string {
	matches := actionRegex.FindAllStringIndex(pageText, -1)
	if matches == nil {
		return nil
	}

	stoppers := []*regexp.Regexp{actionRegex, decisionRegex, agendaHeadingRegex}
	var actions []string
	for i, m := range matches {
		end := nextStopIndexAfter(pageText, m[1], matches, i, stoppers)
		action := strings.TrimSpace(pageText[m[1]:end])
		if action != "" {
			actions = append(actions, action)
		}
	}
	return actions
}

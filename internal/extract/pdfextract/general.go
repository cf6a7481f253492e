package pdfextract

import (
	"regexp"
	"strings"

	"github.com/boltoncivic/crawlctl/internal/model"
)

// generalAmountRegex is the spec §4.8.2 general-mode amount pattern,
// adapted for RE2: Go's regexp package has no lookahead, so the bare
// "\d{4,} pounds?" alternative matches the trailing word instead of
// asserting it.
var generalAmountRegex = regexp.MustCompile(`£\s?\d{1,3}(?:,\d{3})*(?:\.\d+)?|\b\d{4,}\s+pounds?\b`)

const contextRadius = 80

// extractGeneral is the general-mode fallback: financial amounts with
// surrounding context as the primary signal, numbered headings and
// decision keywords as weaker statistical signals, per spec §4.8.2.
func extractGeneral(pages []string) []GeneralFinding {
	var findings []GeneralFinding

	for _, pageText := range pages {
		for _, loc := range generalAmountRegex.FindAllStringIndex(pageText, -1) {
			findings = append(findings, GeneralFinding{
				Kind:       "amount",
				Text:       pageText[loc[0]:loc[1]],
				Context:    contextAround(pageText, loc[0], loc[1]),
				Confidence: amountConfidence(pageText, loc[0], loc[1]),
			})
		}

		for _, loc := range agendaHeadingRegex.FindAllStringIndex(pageText, -1) {
			findings = append(findings, GeneralFinding{
				Kind:       "heading",
				Text:       strings.TrimSpace(pageText[loc[0]:loc[1]]),
				Context:    contextAround(pageText, loc[0], loc[1]),
				Confidence: model.ConfidenceLow,
			})
		}

		for _, loc := range decisionRegex.FindAllStringIndex(pageText, -1) {
			findings = append(findings, GeneralFinding{
				Kind:       "decision",
				Text:       strings.TrimSpace(pageText[loc[0]:loc[1]]),
				Context:    contextAround(pageText, loc[0], loc[1]),
				Confidence: model.ConfidenceLow,
			})
		}
	}

	return findings
}

func contextAround(text string, start, end int) string {
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(text) {
		to = len(text)
	}
	return strings.TrimSpace(text[from:to])
}

var budgetContextKeywords = []string{"budget", "allocated", "spent", "expenditure", "cost"}

// amountConfidence grades a general-mode amount match high when it sits
// near budget-ish vocabulary, low when it's a bare number with no such
// context.
func amountConfidence(text string, start, end int) model.ConfidenceLevel {
	context := strings.ToLower(contextAround(text, start, end))
	for _, kw := range budgetContextKeywords {
		if strings.Contains(context, kw) {
			return model.ConfidenceHigh
		}
	}
	return model.ConfidenceLow
}

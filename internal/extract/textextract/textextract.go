// Package textextract scans plain text or HTML body text for quantitative
// statements — amounts, percentages, people-counts, time durations — and
// turns each match into a model.StatisticalDatum graded by how confidently
// its surrounding words suggest it means something, the same
// context-window technique Grant_finder uses for PDF deadline extraction
// generalized to a wider set of patterns.
package textextract

import (
	"regexp"
	"strings"
	"time"

	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/shopspring/decimal"
)

var patterns = []struct {
	metric string
	unit   string
	regex  *regexp.Regexp
}{
	{"amount", "GBP", regexp.MustCompile(`£\s?\d{1,3}(?:,\d{3})*(?:\.\d+)?`)},
	{"percentage", "%", regexp.MustCompile(`\b\d{1,3}(?:\.\d+)?\s?%`)},
	{"people-count", "people", regexp.MustCompile(`(?i)\b\d{1,3}(?:,\d{3})*\s+(?:people|residents|staff|employees|households)\b`)},
	{"duration", "time", regexp.MustCompile(`(?i)\b\d+\s+(?:minutes?|hours?|days?|weeks?|months?|years?)\b`)},
}

var highConfidenceKeywords = []string{"budget", "allocated", "spent", "funded", "invested"}

const contextRadius = 60

// Extract scans text for every pattern and returns one StatisticalDatum per
// match, stamped with sourceURL and category.
func Extract(text, sourceURL, category string) []model.StatisticalDatum {
	var data []model.StatisticalDatum
	now := time.Now()

	for _, p := range patterns {
		for _, loc := range p.regex.FindAllStringIndex(text, -1) {
			raw := text[loc[0]:loc[1]]
			value, ok := parseLeadingNumber(raw)
			if !ok {
				continue
			}
			data = append(data, model.StatisticalDatum{
				Category:       category,
				Metric:         p.metric,
				Value:          value,
				Unit:           p.unit,
				Date:           now,
				SourceDocument: sourceURL,
				Confidence:     gradeConfidence(text, loc[0], loc[1]),
				LastUpdated:    now,
			})
		}
	}
	return data
}

var leadingNumberRegex = regexp.MustCompile(`\d[\d,]*(?:\.\d+)?`)
var numberStripRegex = regexp.MustCompile(`[£,\s%]`)

func parseLeadingNumber(raw string) (decimal.Decimal, bool) {
	match := leadingNumberRegex.FindString(raw)
	if match == "" {
		return decimal.Decimal{}, false
	}
	cleaned := numberStripRegex.ReplaceAllString(match, "")
	value, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return value, true
}

// gradeConfidence is high when the match's surrounding words suggest a
// deliberate financial/statistical statement, low for a standalone number
// with no such context, per spec §4.8.3.
func gradeConfidence(text string, start, end int) model.ConfidenceLevel {
	from := start - contextRadius
	if from < 0 {
		from = 0
	}
	to := end + contextRadius
	if to > len(text) {
		to = len(text)
	}
	context := strings.ToLower(text[from:to])

	for _, kw := range highConfidenceKeywords {
		if strings.Contains(context, kw) {
			return model.ConfidenceHigh
		}
	}
	if strings.Contains(context, "about") || strings.Contains(context, "approximately") || strings.Contains(context, "around") {
		return model.ConfidenceMedium
	}
	return model.ConfidenceLow
}

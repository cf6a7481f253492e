// Package planningextract pulls PlanningApplication rows out of a council
// planning register's HTML listing: the register's own markup has no
// standard schema across authorities, so extraction works off a header-row
// guess (same technique internal/extract/csvextract uses for headerless
// tabular data) rather than a fixed set of column names.
package planningextract

import (
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/araddon/dateparse"

	"github.com/boltoncivic/crawlctl/internal/classify"
	"github.com/boltoncivic/crawlctl/internal/model"
)

// columnKind is what a header cell is guessed to mean.
type columnKind int

const (
	colUnknown columnKind = iota
	colReference
	colAddress
	colProposal
	colStatus
	colReceivedDate
	colApplicant
	colCaseOfficer
	colDevelopmentType
	colParish
)

var headerKeywords = []struct {
	kind     columnKind
	keywords []string
}{
	{colReference, []string{"reference", "application no", "app no", "case ref"}},
	{colAddress, []string{"address", "site", "location"}},
	{colProposal, []string{"proposal", "description", "development"}},
	{colStatus, []string{"status", "decision"}},
	{colReceivedDate, []string{"received", "registered", "date valid", "submitted"}},
	{colApplicant, []string{"applicant"}},
	{colCaseOfficer, []string{"officer", "case officer"}},
	{colDevelopmentType, []string{"type"}},
	{colParish, []string{"parish", "ward"}},
}

func classifyHeader(text string) columnKind {
	lower := strings.ToLower(strings.TrimSpace(text))
	for _, rule := range headerKeywords {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.kind
			}
		}
	}
	return colUnknown
}

// Extract scans pageBody for HTML tables whose header row names a
// reference column, and returns one PlanningApplication per
// data row. Tables that don't look like a planning register (no reference
// column found) are skipped rather than guessed at.
func Extract(pageURL string, pageBody []byte) ([]model.PlanningApplication, error) {
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(string(pageBody)))
	if err != nil {
		return nil, err
	}

	var out []model.PlanningApplication
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		out = append(out, extractTable(table, pageURL)...)
	})
	return out, nil
}

func extractTable(table *goquery.Selection, pageURL string) []model.PlanningApplication {
	headerRow := table.Find("tr").First()
	columns := make([]columnKind, 0)
	headerRow.Find("th,td").Each(func(_ int, cell *goquery.Selection) {
		columns = append(columns, classifyHeader(cell.Text()))
	})

	hasReference := false
	for _, c := range columns {
		if c == colReference {
			hasReference = true
		}
	}
	if !hasReference {
		return nil
	}

	var apps []model.PlanningApplication
	rows := table.Find("tr")
	rows.Each(func(i int, row *goquery.Selection) {
		if i == 0 {
			return
		}
		cells := row.Find("td")
		if cells.Length() == 0 {
			return
		}

		app := model.PlanningApplication{SourceURL: pageURL, Status: model.PlanningPending}
		cells.Each(func(j int, cell *goquery.Selection) {
			if j >= len(columns) {
				return
			}
			text := strings.TrimSpace(cell.Text())
			if text == "" {
				return
			}
			switch columns[j] {
			case colReference:
				app.Reference = text
			case colAddress:
				app.Address = text
			case colProposal:
				app.Proposal = text
			case colStatus:
				app.Status = classify.NormalizePlanningStatus(text)
			case colReceivedDate:
				if t, err := dateparse.ParseAny(text); err == nil {
					app.ReceivedDate = t
				}
			case colApplicant:
				app.ApplicantName = text
			case colCaseOfficer:
				app.CaseOfficer = text
			case colDevelopmentType:
				app.DevelopmentType = text
			case colParish:
				app.Parish = text
			}
		})

		if app.Reference == "" {
			return
		}
		apps = append(apps, app)
	})

	return apps
}

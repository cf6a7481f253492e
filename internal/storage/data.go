package storage

import (
	"encoding/json"
	"net/url"
	"strconv"
	"strings"

	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/boltoncivic/crawlctl/pkg/hashutil"
)

// RecordKind names the shape of a record passed to Sink.Write. The core
// never branches on it directly; it exists so a Sink can route to the
// right table/file and derive the right dedup key.
type RecordKind string

const (
	KindPageRecord          RecordKind = "page_record"
	KindFileArtifact        RecordKind = "file_artifact"
	KindBudgetItem          RecordKind = "budget_item"
	KindSpendingRecord      RecordKind = "spending_record"
	KindStatisticalDatum    RecordKind = "statistical_datum"
	KindPlanningApplication RecordKind = "planning_application"
	KindAgendaDocument      RecordKind = "agenda_document"
	KindMinutesDocument     RecordKind = "minutes_document"
	KindCoverageReport      RecordKind = "coverage_report"
)

// WriteResult is the outcome of one Write call: whether the record was new
// or collided with an existing entry of the same identity key.
type WriteResult struct {
	Kind         RecordKind
	Key          string
	Deduplicated bool
}

// IdentityKey derives the dedup key a Sink uses for record, matching each
// kind's primary-key rule: PageRecord by url, FileArtifact by fileUrl,
// PlanningApplication by (domain, reference), and BudgetItem/SpendingRecord
// by (sourceUrl, hash of canonical fields). AgendaDocument, MinutesDocument
// and CoverageReport have no natural external key, so they key on content
// hash: a second write with identical content is a true duplicate, and any
// change in content is a new version rather than a silent overwrite.
func IdentityKey(kind RecordKind, record any) (string, error) {
	switch kind {
	case KindPageRecord:
		r := record.(model.PageRecord)
		return r.URL, nil
	case KindFileArtifact:
		r := record.(model.FileArtifact)
		return r.FileURL, nil
	case KindPlanningApplication:
		r := record.(model.PlanningApplication)
		return domainOf(r.SourceURL) + "|" + r.Reference, nil
	case KindBudgetItem:
		r := record.(model.BudgetItem)
		canon := strings.Join([]string{
			r.Department, r.Category, r.Subcategory, r.Period,
			r.BudgetedAmount.String(), strconv.Itoa(r.Year),
		}, "|")
		h, err := hashutil.HashBytes([]byte(canon), hashutil.HashAlgoSHA256)
		if err != nil {
			return "", err
		}
		return r.SourceURL + "|" + h[:16], nil
	case KindSpendingRecord:
		r := record.(model.SpendingRecord)
		canon := strings.Join([]string{
			r.Supplier, r.Department, r.Amount.String(),
			r.TransactionDate.Format("2006-01-02"),
		}, "|")
		h, err := hashutil.HashBytes([]byte(canon), hashutil.HashAlgoSHA256)
		if err != nil {
			return "", err
		}
		return r.SourceURL + "|" + h[:16], nil
	case KindStatisticalDatum:
		r := record.(model.StatisticalDatum)
		canon := strings.Join([]string{r.Metric, r.Period, r.Value.String()}, "|")
		h, err := hashutil.HashBytes([]byte(canon), hashutil.HashAlgoSHA256)
		if err != nil {
			return "", err
		}
		return r.SourceDocument + "|" + h[:16], nil
	case KindAgendaDocument, KindMinutesDocument, KindCoverageReport:
		payload, err := json.Marshal(record)
		if err != nil {
			return "", err
		}
		h, err := hashutil.HashBytes(payload, hashutil.HashAlgoSHA256)
		if err != nil {
			return "", err
		}
		return h, nil
	default:
		return "", errUnknownKind
	}
}

// domainOf returns the lower-cased host of rawURL, or rawURL itself if it
// does not parse as a URL (so callers still get a stable, non-empty key).
func domainOf(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || u.Host == "" {
		return strings.ToLower(rawURL)
	}
	return strings.ToLower(u.Host)
}


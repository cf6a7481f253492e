package validate

import (
	"fmt"
	"strings"
	"time"

	"github.com/boltoncivic/crawlctl/internal/model"
	"github.com/shopspring/decimal"
)

// maxAmount and anomalyThreshold are the two boundaries the amount check
// applies: anything above maxAmount is rejected outright, anything between
// anomalyThreshold and maxAmount is kept but flagged.
var (
	maxAmount        = decimal.New(1, 10) // 10^10 GBP
	anomalyThreshold = decimal.New(1, 7)  // 10^7 GBP
)

// checkAmount enforces the non-negative, bounded-magnitude amount rule.
// decimal.Decimal has no NaN/Inf representation, so the "finite" half of
// the schema's amount rule holds by construction and needs no runtime
// check here; only the range rule is enforced.
func checkAmount(field string, amt decimal.Decimal) (anomaly bool, errs []FieldError) {
	if amt.IsNegative() {
		return false, []FieldError{{Field: field, Reason: "amount is negative"}}
	}
	if amt.GreaterThan(maxAmount) {
		return false, []FieldError{{Field: field, Reason: "amount exceeds 10^10 GBP"}}
	}
	if amt.GreaterThan(anomalyThreshold) {
		anomaly = true
	}
	return anomaly, nil
}

// checkYear enforces the [MinYear, MaxYear] range against a time.Time's
// calendar year.
func checkYear(field string, t time.Time) []FieldError {
	return checkYearInt(field, t.Year())
}

func checkYearInt(field string, year int) []FieldError {
	if year < MinYear || year > MaxYear {
		return []FieldError{{Field: field, Reason: fmt.Sprintf("year %d outside [%d,%d]", year, MinYear, MaxYear)}}
	}
	return nil
}

// NormalizeString trims s and reports whether the result counts as present
// for completeness metrics. An empty string or the literal "Unknown"
// (case-insensitive) is treated as missing even though it is not itself a
// schema violation.
func NormalizeString(s string) (value string, present bool) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" || strings.EqualFold(trimmed, "unknown") {
		return trimmed, false
	}
	return trimmed, true
}

// trimRequired normalizes a required string field, appending a FieldError
// when the field is missing after trimming.
func trimRequired(field, s string, errs *[]FieldError) string {
	trimmed, present := NormalizeString(s)
	if !present {
		*errs = append(*errs, FieldError{Field: field, Reason: "required field is missing"})
	}
	return trimmed
}

// trimOptional normalizes an optional string field, recording it as
// missing for completeness metrics without raising a FieldError.
func trimOptional(field, s string, missing *[]string) string {
	trimmed, present := NormalizeString(s)
	if !present {
		*missing = append(*missing, field)
	}
	return trimmed
}

func checkPlanningStatus(field string, status model.PlanningApplicationStatus) []FieldError {
	switch status {
	case model.PlanningPending, model.PlanningUnderReview, model.PlanningApproved,
		model.PlanningRejected, model.PlanningWithdrawn:
		return nil
	default:
		return []FieldError{{Field: field, Reason: fmt.Sprintf("unknown planning status %q", status)}}
	}
}

func checkConfidence(field string, level model.ConfidenceLevel) []FieldError {
	switch level {
	case model.ConfidenceHigh, model.ConfidenceMedium, model.ConfidenceLow:
		return nil
	default:
		return []FieldError{{Field: field, Reason: fmt.Sprintf("unknown confidence level %q", level)}}
	}
}

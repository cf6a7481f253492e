package csvextract

import (
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// columnKeywordRules is checked in order; the first matching rule wins, so
// more specific column intents are listed before generic fallbacks.
var columnKeywordRules = []struct {
	kind     ColumnKind
	keywords []string
}{
	{ColumnFinancial, []string{"amount", "cost", "budget", "spend", "price", "value", "£", "$"}},
	{ColumnDate, []string{"date", "time", "received", "published", "updated", "created"}},
	{ColumnDepartment, []string{"department", "service", "division", "team"}},
	{ColumnCategory, []string{"category", "type", "classification"}},
	{ColumnDescription, []string{"description", "detail", "purpose", "summary"}},
}

var rowTypeKeywordRules = []struct {
	rowType  RowType
	keywords []string
}{
	{RowSpending, []string{"supplier", "vendor", "company", "payee", "transaction", "invoice", "payment"}},
	{RowBudget, []string{"budget", "allocation", "forecast"}},
}

// classifyColumn decides a single header cell's ColumnKind by substring
// match against columnKeywordRules, in order.
func classifyColumn(header string) ColumnKind {
	lower := strings.ToLower(header)
	for _, rule := range columnKeywordRules {
		for _, kw := range rule.keywords {
			if strings.Contains(lower, kw) {
				return rule.kind
			}
		}
	}
	return ColumnText
}

// inferRowType decides the whole file's RowType from its header row, per
// spec §4.8.1: supplier/vendor/etc present → spending; else
// budget/allocation/forecast present → budget; else any financial column →
// spending (default); else statistical.
func inferRowType(headers []string, kinds []ColumnKind) RowType {
	joined := strings.ToLower(strings.Join(headers, " "))

	for _, kw := range rowTypeKeywordRules[0].keywords {
		if strings.Contains(joined, kw) {
			return RowSpending
		}
	}
	for _, kw := range rowTypeKeywordRules[1].keywords {
		if strings.Contains(joined, kw) {
			return RowBudget
		}
	}
	for _, kind := range kinds {
		if kind == ColumnFinancial {
			return RowSpending
		}
	}
	return RowStatistical
}

var (
	isoDateRegex = regexp.MustCompile(`^(\d{4})-(\d{2})-(\d{2})$`)
	ukDateRegex  = regexp.MustCompile(`^(\d{1,2})[/-](\d{1,2})[/-](\d{4})$`)
	usShortDateRegex = regexp.MustCompile(`^(\d{1,2})/(\d{1,2})/(\d{2})$`)
)

// parseCellDate accepts ISO YYYY-MM-DD, UK DD/MM/YYYY or DD-MM-YYYY, and US
// MM/DD/YY(YY) or MM/DD/YYYY, per spec §4.8.1. Two-digit years map to 20YY.
// Years outside [2000, 2030] are rejected as implausible for a council
// open-data export.
func parseCellDate(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, false
	}

	if m := isoDateRegex.FindStringSubmatch(raw); m != nil {
		return buildDate(m[1], m[2], m[3])
	}
	if m := usShortDateRegex.FindStringSubmatch(raw); m != nil {
		month, day := m[1], m[2]
		year := "20" + m[3]
		return buildDate(year, month, day)
	}
	if m := ukDateRegex.FindStringSubmatch(raw); m != nil {
		first, second, year := m[1], m[2], m[3]
		// Try the UK DD/MM/YYYY reading first. A 4-digit-year US date like
		// 12/31/2023 fails it (month 31 doesn't exist), so fall back to
		// MM/DD/YYYY before giving up.
		if t, ok := buildDate(year, second, first); ok {
			return t, ok
		}
		return buildDate(year, first, second)
	}
	return time.Time{}, false
}

func buildDate(yearStr, monthStr, dayStr string) (time.Time, bool) {
	year, err := strconv.Atoi(yearStr)
	if err != nil || year < 2000 || year > 2030 {
		return time.Time{}, false
	}
	month, err := strconv.Atoi(monthStr)
	if err != nil || month < 1 || month > 12 {
		return time.Time{}, false
	}
	day, err := strconv.Atoi(dayStr)
	if err != nil || day < 1 || day > 31 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC), true
}

var amountStripRegex = regexp.MustCompile(`[£$,\s]`)

// parseCellAmount strips currency symbols, thousands separators, and
// whitespace, then parses the remainder as a decimal GBP amount.
func parseCellAmount(raw string) (decimal.Decimal, bool) {
	cleaned := amountStripRegex.ReplaceAllString(strings.TrimSpace(raw), "")
	if cleaned == "" {
		return decimal.Decimal{}, false
	}
	amount, err := decimal.NewFromString(cleaned)
	if err != nil {
		return decimal.Decimal{}, false
	}
	return amount, true
}

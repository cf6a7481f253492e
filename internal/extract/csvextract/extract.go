package csvextract

import (
	"strings"
	"time"

	"github.com/boltoncivic/crawlctl/internal/model"
)

// Extract parses a raw CSV file and returns the RowType-appropriate typed
// records. sourceURL and category are stamped onto every record produced.
func Extract(raw []byte, sourceURL, category string) Result {
	text := decodeToUTF8(raw)
	lines := strings.Split(text, "\n")

	delim := detectDelimiter(lines)
	quote := detectQuoteChar(text)
	rows := parseRecords(text, delim, quote)

	return FromRows(rows, sourceURL, category)
}

// FromRows classifies and converts already-tokenized tabular rows (the
// first row is the header) into the RowType-appropriate typed records. It
// is the shared tail end of CSV extraction, exported so xlsxextract can
// feed it rows read directly from a spreadsheet without re-tokenizing text.
func FromRows(rows [][]string, sourceURL, category string) Result {
	if len(rows) == 0 {
		return Result{RowType: RowStatistical}
	}

	headers := rows[0]
	dataRows := rows[1:]

	kinds := make([]ColumnKind, len(headers))
	for i, h := range headers {
		kinds[i] = classifyColumn(h)
	}
	rowType := inferRowType(headers, kinds)

	result := Result{RowType: rowType}
	now := time.Now()

	for _, row := range dataRows {
		if isBlankRow(row) {
			continue
		}
		switch rowType {
		case RowSpending:
			record, ok := buildSpendingRecord(headers, kinds, row, sourceURL, category, now)
			if !ok {
				result.ParsingErrors++
				continue
			}
			if record == nil {
				result.SkippedRows++
				continue
			}
			result.SpendingRecords = append(result.SpendingRecords, *record)
		case RowBudget:
			record, ok := buildBudgetItem(headers, kinds, row, sourceURL, now)
			if !ok {
				result.ParsingErrors++
				continue
			}
			if record == nil {
				result.SkippedRows++
				continue
			}
			result.BudgetItems = append(result.BudgetItems, *record)
		default:
			datum, ok := buildStatisticalDatum(headers, kinds, row, sourceURL, category, now)
			if !ok {
				result.ParsingErrors++
				continue
			}
			if datum == nil {
				result.SkippedRows++
				continue
			}
			result.StatisticalData = append(result.StatisticalData, *datum)
		}
	}

	return result
}

func isBlankRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return false
		}
	}
	return true
}

func cellByKind(headers []string, kinds []ColumnKind, row []string, kind ColumnKind) (string, bool) {
	for i, k := range kinds {
		if k != kind || i >= len(row) {
			continue
		}
		return row[i], true
	}
	return "", false
}

func cellByHeaderSubstring(headers []string, row []string, substrs ...string) (string, bool) {
	for i, h := range headers {
		lower := strings.ToLower(h)
		for _, s := range substrs {
			if strings.Contains(lower, s) {
				if i < len(row) {
					return row[i], true
				}
			}
		}
	}
	return "", false
}

// buildSpendingRecord returns (nil, true) for a silently-skipped row whose
// financial column is non-numeric, and (nil, false) for a row missing a
// required field, counted as a parsing error per spec §4.8.1.
func buildSpendingRecord(headers []string, kinds []ColumnKind, row []string, sourceURL, category string, now time.Time) (*model.SpendingRecord, bool) {
	amountCell, found := cellByKind(headers, kinds, row, ColumnFinancial)
	if !found {
		return nil, false
	}
	amount, ok := parseCellAmount(amountCell)
	if !ok {
		return nil, true
	}

	supplier, _ := cellByHeaderSubstring(headers, row, "supplier", "vendor", "company", "payee")
	department, _ := cellByKind(headers, kinds, row, ColumnDepartment)
	description, _ := cellByKind(headers, kinds, row, ColumnDescription)
	invoice, _ := cellByHeaderSubstring(headers, row, "invoice", "transaction")

	txnDate := now
	if dateCell, found := cellByKind(headers, kinds, row, ColumnDate); found {
		if parsed, ok := parseCellDate(dateCell); ok {
			txnDate = parsed
		}
	}

	return &model.SpendingRecord{
		TransactionDate: txnDate,
		Supplier:        strings.TrimSpace(supplier),
		Department:      strings.TrimSpace(department),
		Description:     strings.TrimSpace(description),
		Amount:          amount,
		Category:        category,
		InvoiceNumber:   strings.TrimSpace(invoice),
		SourceURL:       sourceURL,
		ExtractedAt:     now,
	}, true
}

func buildBudgetItem(headers []string, kinds []ColumnKind, row []string, sourceURL string, now time.Time) (*model.BudgetItem, bool) {
	amountCell, found := cellByKind(headers, kinds, row, ColumnFinancial)
	if !found {
		return nil, false
	}
	amount, ok := parseCellAmount(amountCell)
	if !ok {
		return nil, true
	}

	department, _ := cellByKind(headers, kinds, row, ColumnDepartment)
	category, _ := cellByKind(headers, kinds, row, ColumnCategory)
	description, _ := cellByKind(headers, kinds, row, ColumnDescription)

	year := now.Year()
	if dateCell, found := cellByKind(headers, kinds, row, ColumnDate); found {
		if parsed, ok := parseCellDate(dateCell); ok {
			year = parsed.Year()
		}
	}

	return &model.BudgetItem{
		Department:     strings.TrimSpace(department),
		Category:       strings.TrimSpace(category),
		BudgetedAmount: amount,
		Currency:       "GBP",
		Year:           year,
		Description:    strings.TrimSpace(description),
		SourceURL:      sourceURL,
		LastUpdated:    now,
	}, true
}

func buildStatisticalDatum(headers []string, kinds []ColumnKind, row []string, sourceURL, category string, now time.Time) (*model.StatisticalDatum, bool) {
	valueCell, found := cellByKind(headers, kinds, row, ColumnFinancial)
	if !found {
		for i, k := range kinds {
			if k == ColumnText && i < len(row) && strings.TrimSpace(row[i]) != "" {
				found = true
				valueCell = row[i]
				break
			}
		}
	}
	if !found {
		return nil, false
	}
	value, ok := parseCellAmount(valueCell)
	if !ok {
		return nil, true
	}

	metric, _ := cellByKind(headers, kinds, row, ColumnDescription)
	date := now
	if dateCell, found := cellByKind(headers, kinds, row, ColumnDate); found {
		if parsed, ok := parseCellDate(dateCell); ok {
			date = parsed
		}
	}

	return &model.StatisticalDatum{
		Category:       category,
		Metric:         strings.TrimSpace(metric),
		Value:          value,
		Date:           date,
		SourceDocument: sourceURL,
		Confidence:     model.ConfidenceMedium,
		LastUpdated:    now,
	}, true
}

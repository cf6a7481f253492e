// Package csvextract turns a raw CSV file's bytes into typed spending,
// budget, or statistical records. Encoding and delimiter are detected
// rather than assumed, since council open-data CSVs arrive in whatever
// export format their publishing system happened to produce.
package csvextract

import "github.com/boltoncivic/crawlctl/internal/model"

// candidateDelimiters are tried in order against the first non-empty line;
// the one producing the most columns wins.
var candidateDelimiters = []rune{',', ';', '\t', '|'}

// ColumnKind is what a CSV header cell was classified as.
type ColumnKind string

const (
	ColumnFinancial   ColumnKind = "financial"
	ColumnDate        ColumnKind = "date"
	ColumnDepartment  ColumnKind = "department"
	ColumnCategory    ColumnKind = "category"
	ColumnDescription ColumnKind = "description"
	ColumnText        ColumnKind = "text"
)

// RowType is the inferred meaning of every data row in the file, decided
// once from the header rather than per-row.
type RowType string

const (
	RowSpending    RowType = "spending"
	RowBudget      RowType = "budget"
	RowStatistical RowType = "statistical"
)

// Result is everything Extract produces from one CSV file. Exactly one of
// SpendingRecords/BudgetItems/StatisticalData is populated, matching the
// single RowType inferred for the whole file.
type Result struct {
	RowType         RowType
	SpendingRecords []model.SpendingRecord
	BudgetItems     []model.BudgetItem
	StatisticalData []model.StatisticalDatum
	SkippedRows     int
	ParsingErrors   int
}

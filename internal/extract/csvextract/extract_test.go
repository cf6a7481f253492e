package csvextract_test

import (
	"testing"

	"github.com/boltoncivic/crawlctl/internal/extract/csvextract"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_SpendingCSVWithCommaDelimiter(t *testing.T) {
	raw := []byte("Date,Supplier,Department,Amount,Description\n" +
		"01/06/2025,Acme Ltd,Highways,\"£1,250.00\",Road resurfacing\n" +
		"15/07/2025,Beta Supplies,Parks,£300.50,Bench repair\n")

	result := csvextract.Extract(raw, "https://www.bolton.gov.uk/spending.csv", "transparency")

	assert.Equal(t, csvextract.RowSpending, result.RowType)
	require.Len(t, result.SpendingRecords, 2)
	assert.Equal(t, "Acme Ltd", result.SpendingRecords[0].Supplier)
	assert.True(t, result.SpendingRecords[0].Amount.Equal(mustDecimal("1250.00")))
	assert.Equal(t, 2025, result.SpendingRecords[0].TransactionDate.Year())
	assert.Equal(t, 6, int(result.SpendingRecords[0].TransactionDate.Month()))
}

func TestExtract_SemicolonDelimitedBudgetCSV(t *testing.T) {
	raw := []byte("Department;Category;Budget;Year\n" +
		"Housing;Repairs;50000;2025\n" +
		"Parks;Maintenance;20000;2025\n")

	result := csvextract.Extract(raw, "https://www.bolton.gov.uk/budget.csv", "transparency")

	assert.Equal(t, csvextract.RowBudget, result.RowType)
	require.Len(t, result.BudgetItems, 2)
	assert.Equal(t, "Housing", result.BudgetItems[0].Department)
	assert.True(t, result.BudgetItems[0].BudgetedAmount.Equal(mustDecimal("50000")))
}

func TestExtract_StatisticalCSVWhenNoFinancialOrKeywordColumn(t *testing.T) {
	raw := []byte("Year,Population\n2024,123456\n2025,124000\n")

	result := csvextract.Extract(raw, "https://www.bolton.gov.uk/stats.csv", "transparency")

	assert.Equal(t, csvextract.RowStatistical, result.RowType)
	assert.Len(t, result.StatisticalData, 2)
}

func TestExtract_NonNumericAmountSkippedSilently(t *testing.T) {
	raw := []byte("Date,Supplier,Amount\n01/06/2025,Acme Ltd,N/A\n15/07/2025,Beta Ltd,£100\n")

	result := csvextract.Extract(raw, "https://www.bolton.gov.uk/spending.csv", "transparency")

	require.Len(t, result.SpendingRecords, 1)
	assert.Equal(t, 1, result.SkippedRows)
	assert.Equal(t, 0, result.ParsingErrors)
}

func TestExtract_SingleQuoteFieldsWithDoubledEscape(t *testing.T) {
	raw := []byte("Supplier,Amount,Description\n" +
		"'O''Brien Ltd',£400,'contains, a comma'\n")

	result := csvextract.Extract(raw, "https://www.bolton.gov.uk/spending.csv", "transparency")

	require.Len(t, result.SpendingRecords, 1)
	assert.Equal(t, "O'Brien Ltd", result.SpendingRecords[0].Supplier)
	assert.Equal(t, "contains, a comma", result.SpendingRecords[0].Description)
}

func TestExtract_USFourDigitYearDateUnambiguousByMonth(t *testing.T) {
	raw := []byte("Date,Supplier,Amount\n12/31/2023,Acme Ltd,£500\n")

	result := csvextract.Extract(raw, "https://www.bolton.gov.uk/spending.csv", "transparency")

	require.Len(t, result.SpendingRecords, 1)
	date := result.SpendingRecords[0].TransactionDate
	assert.Equal(t, 2023, date.Year())
	assert.Equal(t, 12, int(date.Month()))
	assert.Equal(t, 31, date.Day())
}

func mustDecimal(s string) decimal.Decimal {
	v, err := decimal.NewFromString(s)
	if err != nil {
		panic(err)
	}
	return v
}

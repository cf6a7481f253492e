package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// BudgetItem is a single line of a published council or agency budget.
type BudgetItem struct {
	Department     string           `json:"department"`
	Category       string           `json:"category"`
	Subcategory    string           `json:"subcategory,omitempty"`
	BudgetedAmount decimal.Decimal  `json:"budgeted_amount"`
	ActualAmount   *decimal.Decimal `json:"actual_amount,omitempty"`
	Currency       string           `json:"currency"`
	Year           int              `json:"year"`
	Period         string           `json:"period"`
	Description    string           `json:"description,omitempty"`
	SourceURL      string           `json:"source_url"`
	LastUpdated    time.Time        `json:"last_updated"`
}

// SpendingRecord is a single extracted payment/transaction row.
type SpendingRecord struct {
	TransactionDate time.Time       `json:"transaction_date"`
	Supplier        string          `json:"supplier"`
	Department      string          `json:"department"`
	Description     string          `json:"description"`
	Amount          decimal.Decimal `json:"amount"`
	Category        string          `json:"category"`
	InvoiceNumber   string          `json:"invoice_number,omitempty"`
	SourceURL       string          `json:"source_url"`
	ExtractedAt     time.Time       `json:"extracted_at"`
}

// PencePerGBP is the scale factor used to derive an integer-pence sort index
// from a decimal GBP amount. Decimal remains the canonical at-rest
// representation; pence is only ever a derived value used for sort keys and
// range-bucket comparisons where integer arithmetic is cheaper.
const PencePerGBP = 100

// Pence returns amt scaled to integer pence, rounded to the nearest penny.
// It is a derived index, not a storage format: callers persist the decimal
// value and recompute Pence() on demand when they need an integer sort key.
func Pence(amt decimal.Decimal) int64 {
	return amt.Mul(decimal.NewFromInt(PencePerGBP)).Round(0).IntPart()
}

// ConfidenceLevel grades how reliable an extracted statistic is believed to be.
type ConfidenceLevel string

const (
	ConfidenceHigh   ConfidenceLevel = "high"
	ConfidenceMedium ConfidenceLevel = "medium"
	ConfidenceLow    ConfidenceLevel = "low"
)

// StatisticalDatum is a single extracted quantitative fact that is not itself
// a spending or budget row (e.g. population counts, recycling rates).
type StatisticalDatum struct {
	Category       string          `json:"category"`
	Subcategory    string          `json:"subcategory,omitempty"`
	Metric         string          `json:"metric"`
	Value          decimal.Decimal `json:"value"`
	Unit           string          `json:"unit"`
	Period         string          `json:"period"`
	Date           time.Time       `json:"date"`
	SourceDocument string          `json:"source_document"`
	Methodology    string          `json:"methodology,omitempty"`
	Confidence     ConfidenceLevel `json:"confidence"`
	LastUpdated    time.Time       `json:"last_updated"`
}

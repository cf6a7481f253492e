// Package xlsxextract reads the first worksheet of an Excel file and hands
// its rows to csvextract's shared classification/conversion logic, since a
// spreadsheet sheet and a parsed CSV are the same shape once tokenized:
// a header row plus data rows. No example in the retrieval pack covers
// XLS/XLSX, so this package is grounded only in excelize's own documented
// API, not in a prior usage pattern.
package xlsxextract

import (
	"bytes"
	"fmt"

	"github.com/boltoncivic/crawlctl/internal/extract/csvextract"
	"github.com/xuri/excelize/v2"
)

// Extract reads raw as an Excel workbook, reads its first sheet's rows, and
// converts them with csvextract.FromRows. An empty or sheet-less workbook
// yields a zero-row statistical Result, matching csvextract's own behavior
// for an empty CSV.
func Extract(raw []byte, sourceURL, category string) (csvextract.Result, error) {
	f, err := excelize.OpenReader(bytes.NewReader(raw))
	if err != nil {
		return csvextract.Result{}, fmt.Errorf("opening workbook: %w", err)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return csvextract.Result{RowType: csvextract.RowStatistical}, nil
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return csvextract.Result{}, fmt.Errorf("reading sheet %q: %w", sheets[0], err)
	}

	return csvextract.FromRows(rows, sourceURL, category), nil
}

package parser

import (
	"fmt"
	"io"

	"github.com/xuri/excelize/v2"

	"github.com/rmoura-dev/statement-engine/internal/domain/ingest"
	"github.com/rmoura-dev/statement-engine/internal/domain/ingest/sniffer"
)

// ExcelParser parses XLSX workbooks. Only the first sheet (or one named
// "Transactions") is read; its header row resolves through the same column
// aliasing as CSV headers.
type ExcelParser struct {
	config Config
}

func NewExcelParser(config Config) *ExcelParser {
	return &ExcelParser{config: config}
}

// ParseExcel reads and parses transactions from an XLSX workbook.
func (p *ExcelParser) ParseExcel(reader io.Reader) (*ParseResult, error) {
	result := &ParseResult{
		Transactions: make([]ParsedTransaction, 0, 256),
	}

	f, err := excelize.OpenReader(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to open workbook: %w", err)
	}
	defer f.Close()

	sheetName := findTransactionSheet(f)
	if sheetName == "" {
		return nil, &ingest.NoTransactionsFoundError{Reason: "workbook has no sheets"}
	}

	rows, err := f.GetRows(sheetName)
	if err != nil {
		return nil, fmt.Errorf("failed to read sheet %s: %w", sheetName, err)
	}

	headerIdx, columns, err := findWorkbookHeader(rows)
	if err != nil {
		return nil, err
	}

	// Row values come back as display strings, so the CSV field parsing
	// applies unchanged.
	rowParser := &Parser{config: Config{
		EuropeanFormat: p.config.EuropeanFormat,
		Columns:        columns,
	}}

	for i := headerIdx + 1; i < len(rows); i++ {
		rowNum := i + 1
		result.TotalRows++

		tx, rowErr := rowParser.processRecord(rows[i], rowNum)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			continue
		}
		if tx == nil {
			result.SkippedRows++
			continue
		}
		result.Transactions = append(result.Transactions, *tx)
		result.ParsedRows++
	}

	if result.ParsedRows == 0 {
		return nil, &ingest.NoTransactionsFoundError{
			Skipped: result.TotalRows,
			Reason:  "no row produced a dated, non-zero transaction",
		}
	}
	return result, nil
}

// findTransactionSheet prefers a sheet named "Transactions", else the first.
func findTransactionSheet(f *excelize.File) string {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return ""
	}
	for _, name := range sheets {
		if name == "Transactions" {
			return name
		}
	}
	return sheets[0]
}

// findWorkbookHeader scans the first rows for one that maps onto the
// canonical column set, tolerating title rows above the real header.
func findWorkbookHeader(rows [][]string) (int, *sniffer.ColumnMap, error) {
	var lastErr error
	limit := len(rows)
	if limit > 20 {
		limit = 20
	}
	for i := 0; i < limit; i++ {
		columns, err := sniffer.MapColumns(rows[i])
		if err == nil {
			return i, columns, nil
		}
		lastErr = err
	}
	if lastErr == nil {
		lastErr = ingest.ErrEmptyFile
	}
	return 0, nil, lastErr
}

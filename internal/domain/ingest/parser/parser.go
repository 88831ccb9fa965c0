// Package parser turns statement files into normalized transaction rows.
// CSV parsing uses gocsv for struct-based unmarshaling plus an index-based
// path for files whose headers only resolve through the sniffer.
package parser

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/gocarina/gocsv"
	"github.com/shopspring/decimal"

	"github.com/rmoura-dev/statement-engine/internal/domain/ingest"
	"github.com/rmoura-dev/statement-engine/internal/domain/ingest/sniffer"
)

// statementRow is a raw CSV row unmarshaled by header name. The tags cover
// the accepted aliases for each canonical column.
type statementRow struct {
	Date            string `csv:"date"`
	TransactionDate string `csv:"transaction_date"`
	PostedDate      string `csv:"posted_date"`

	Description string `csv:"description"`
	Merchant    string `csv:"merchant"`
	Payee       string `csv:"payee"`

	Amount string `csv:"amount"`
	Debit  string `csv:"debit"`
	Credit string `csv:"credit"`

	Category            string `csv:"category"`
	TransactionCategory string `csv:"transaction_category"`

	Currency string `csv:"currency"`
}

// ParsedTransaction is the normalized output of a single row. RawAmount and
// CurrencyHint keep the original text so currency detection can see symbols
// the numeric parse strips away.
type ParsedTransaction struct {
	Date        time.Time
	Description string
	// AmountCents is signed: negative = money out.
	AmountCents  int64
	RawAmount    string
	CurrencyHint string
	RawCategory  string
	Row          int
}

// ParseResult accumulates parsed rows and per-row failures. Row errors never
// abort a file; they surface as batch warnings.
type ParseResult struct {
	Transactions []ParsedTransaction
	Errors       []ingest.RowError
	TotalRows    int
	ParsedRows   int
	SkippedRows  int
}

// Config controls CSV parsing behavior.
type Config struct {
	Delimiter rune
	SkipLines int
	// EuropeanFormat selects comma-decimal amounts and day-first dates.
	EuropeanFormat bool
	Columns        *sniffer.ColumnMap
}

type Parser struct {
	config Config
}

func New(config Config) *Parser {
	return &Parser{config: config}
}

// Parse reads a clean CSV whose headers match the canonical aliases directly.
// Files with metadata preambles or exotic headers go through ParseWithColumns.
func (p *Parser) Parse(reader io.Reader) (*ParseResult, error) {
	result := &ParseResult{
		Transactions: make([]ParsedTransaction, 0, 256),
	}

	delimiter := p.config.Delimiter
	gocsv.SetCSVReader(func(in io.Reader) gocsv.CSVReader {
		r := csv.NewReader(in)
		if delimiter != 0 {
			r.Comma = delimiter
		}
		r.LazyQuotes = true
		r.TrimLeadingSpace = true
		return r
	})

	var rows []statementRow
	if err := gocsv.Unmarshal(reader, &rows); err != nil {
		return nil, fmt.Errorf("failed to parse CSV: %w", err)
	}

	result.TotalRows = len(rows)

	for i, row := range rows {
		rowNum := i + 2 // 1-indexed plus header
		tx, rowErr := p.processRow(row, rowNum)
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

// ParseWithColumns parses using the sniffer's resolved column indices.
func (p *Parser) ParseWithColumns(reader io.Reader) (*ParseResult, error) {
	if p.config.Columns == nil {
		return nil, fmt.Errorf("no column map configured")
	}

	result := &ParseResult{
		Transactions: make([]ParsedTransaction, 0, 256),
	}

	// Skip metadata lines on the raw stream; csv.Reader silently drops blank
	// lines, which would throw off record-based skipping.
	if p.config.SkipLines > 0 {
		reader = skipLines(reader, p.config.SkipLines)
	}

	csvReader := csv.NewReader(reader)
	if p.config.Delimiter != 0 {
		csvReader.Comma = p.config.Delimiter
	}
	csvReader.LazyQuotes = true
	csvReader.TrimLeadingSpace = true
	csvReader.FieldsPerRecord = -1

	if _, err := csvReader.Read(); err != nil {
		return nil, fmt.Errorf("failed to read header: %w", err)
	}

	rowNum := p.config.SkipLines + 2
	for {
		record, err := csvReader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			result.Errors = append(result.Errors, ingest.RowError{Row: rowNum, Reason: err.Error()})
			rowNum++
			continue
		}

		result.TotalRows++
		tx, rowErr := p.processRecord(record, rowNum)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			rowNum++
			continue
		}
		if tx == nil {
			result.SkippedRows++
			rowNum++
			continue
		}
		result.Transactions = append(result.Transactions, *tx)
		result.ParsedRows++
		rowNum++
	}

	if result.ParsedRows == 0 {
		return nil, &ingest.NoTransactionsFoundError{
			Skipped: result.TotalRows,
			Reason:  "no row produced a dated, non-zero transaction",
		}
	}
	return result, nil
}

func (p *Parser) processRow(row statementRow, rowNum int) (*ParsedTransaction, *ingest.RowError) {
	dateStr := coalesce(row.Date, row.TransactionDate, row.PostedDate)
	desc := coalesce(row.Description, row.Merchant, row.Payee)
	amountStr := strings.TrimSpace(row.Amount)
	category := coalesce(row.Category, row.TransactionCategory)
	currency := strings.TrimSpace(row.Currency)

	return p.build(rowNum, dateStr, desc, amountStr, row.Debit, row.Credit, category, currency)
}

func (p *Parser) processRecord(record []string, rowNum int) (*ParsedTransaction, *ingest.RowError) {
	cm := p.config.Columns
	getValue := func(idx int) string {
		if idx < 0 || idx >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[idx])
	}

	return p.build(rowNum,
		getValue(cm.Date),
		getValue(cm.Description),
		getValue(cm.Amount),
		getValue(cm.Debit),
		getValue(cm.Credit),
		getValue(cm.Category),
		getValue(cm.Currency),
	)
}

// build assembles one transaction from raw field values. Returning (nil, nil)
// means the row is silently skippable (blank or zero-amount).
func (p *Parser) build(rowNum int, dateStr, desc, amountStr, debitStr, creditStr, category, currency string) (*ParsedTransaction, *ingest.RowError) {
	if dateStr == "" && desc == "" && amountStr == "" && debitStr == "" && creditStr == "" {
		return nil, nil // blank row
	}
	if dateStr == "" {
		return nil, &ingest.RowError{Row: rowNum, Reason: "missing date"}
	}

	date, err := p.parseDate(dateStr)
	if err != nil {
		return nil, &ingest.RowError{Row: rowNum, Reason: fmt.Sprintf("invalid date %q", dateStr)}
	}

	if desc == "" {
		return nil, &ingest.RowError{Row: rowNum, Reason: "missing description"}
	}

	var cents int64
	rawAmount := amountStr
	if amountStr != "" {
		cents, err = p.parseAmount(amountStr)
		if err != nil {
			return nil, &ingest.RowError{Row: rowNum, Reason: fmt.Sprintf("invalid amount %q", amountStr)}
		}
	} else if debitStr != "" || creditStr != "" {
		cents, rawAmount = p.parseDebitCredit(debitStr, creditStr)
	} else {
		return nil, &ingest.RowError{Row: rowNum, Reason: "missing amount"}
	}

	// Zero-amount rows carry no information and are dropped, not errored.
	if cents == 0 {
		return nil, nil
	}

	return &ParsedTransaction{
		Date:         date,
		Description:  cleanDescription(desc),
		AmountCents:  cents,
		RawAmount:    rawAmount,
		CurrencyHint: currency,
		RawCategory:  category,
		Row:          rowNum,
	}, nil
}

// dateFormats are tried in order; the convention flag decides whether
// day-first or month-first slash dates are tried first.
var (
	isoFormats = []string{
		"2006-01-02",
		"2006/01/02",
		"2006-01-02T15:04:05Z",
		"2006-01-02 15:04:05",
	}
	usFormats = []string{
		"01/02/2006",
		"01-02-2006",
		"01/02/2006 15:04",
	}
	euFormats = []string{
		"02/01/2006",
		"02-01-2006",
		"02.01.2006",
		"02/01/2006 15:04",
	}
)

func (p *Parser) parseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}, fmt.Errorf("empty date")
	}

	formats := make([]string, 0, len(isoFormats)+len(usFormats)+len(euFormats))
	formats = append(formats, isoFormats...)
	if p.config.EuropeanFormat {
		formats = append(formats, euFormats...)
		formats = append(formats, usFormats...)
	} else {
		formats = append(formats, usFormats...)
		formats = append(formats, euFormats...)
	}

	for _, format := range formats {
		if t, err := time.Parse(format, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date format: %s", s)
}

// parseAmount parses an amount string into exact cents. Currency symbols and
// codes are stripped for the numeric parse; negativity comes from a leading
// minus or accounting parentheses.
func (p *Parser) parseAmount(s string) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, fmt.Errorf("empty amount")
	}

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.Trim(s, "()")
	}

	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, s)
	if strings.HasPrefix(cleaned, "-") {
		negative = true
		cleaned = strings.TrimPrefix(cleaned, "-")
	}
	if cleaned == "" {
		return 0, fmt.Errorf("no digits in amount")
	}

	if p.config.EuropeanFormat {
		cleaned = strings.ReplaceAll(cleaned, ".", "")
		cleaned = strings.ReplaceAll(cleaned, ",", ".")
	} else {
		cleaned = strings.ReplaceAll(cleaned, ",", "")
	}

	d, err := decimal.NewFromString(cleaned)
	if err != nil {
		return 0, fmt.Errorf("invalid number: %s", cleaned)
	}

	cents := d.Mul(decimal.NewFromInt(100)).Round(0).IntPart()
	if negative {
		cents = -cents
	}
	return cents, nil
}

// parseDebitCredit maps double-entry columns onto a signed amount: debits
// negative, credits positive. When both are present the debit wins.
func (p *Parser) parseDebitCredit(debitStr, creditStr string) (int64, string) {
	if debitStr != "" {
		if cents, err := p.parseAmount(debitStr); err == nil && cents != 0 {
			if cents > 0 {
				cents = -cents
			}
			return cents, debitStr
		}
	}
	if creditStr != "" {
		if cents, err := p.parseAmount(creditStr); err == nil && cents != 0 {
			if cents < 0 {
				cents = -cents
			}
			return cents, creditStr
		}
	}
	return 0, ""
}

func coalesce(values ...string) string {
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			return v
		}
	}
	return ""
}

// cleanDescription collapses runs of whitespace in a description.
func cleanDescription(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// skipLines returns a reader that discards the first n lines.
func skipLines(r io.Reader, n int) io.Reader {
	return &lineSkipper{reader: r, skip: n}
}

type lineSkipper struct {
	reader  io.Reader
	skip    int
	skipped bool
}

func (ls *lineSkipper) Read(p []byte) (int, error) {
	if !ls.skipped {
		buf := make([]byte, 1)
		lines := 0
		for lines < ls.skip {
			n, err := ls.reader.Read(buf)
			if err != nil {
				return 0, err
			}
			if n > 0 && buf[0] == '\n' {
				lines++
			}
		}
		ls.skipped = true
	}
	return ls.reader.Read(p)
}

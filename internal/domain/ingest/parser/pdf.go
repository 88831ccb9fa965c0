package parser

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"

	"github.com/rmoura-dev/statement-engine/internal/domain/ingest"
)

// PDFParser extracts transactions from text-based PDF statements. Scanned
// PDFs yield no text layer and fail with NoTransactionsFoundError.
type PDFParser struct {
	config Config
	// MaxPages caps how many pages are read; 0 means no cap.
	maxPages int
}

func NewPDFParser(config Config, maxPages int) *PDFParser {
	return &PDFParser{config: config, maxPages: maxPages}
}

// statementPattern matches one transaction-line layout. Patterns are tried
// in order per line and the first match wins, so more specific layouts
// (those with a trailing balance column) come first.
type statementPattern struct {
	name string
	re   *regexp.Regexp
}

var statementPatterns = []statementPattern{
	{
		// 01/15/2024 STARBUCKS COFFEE -4.50 1,234.56
		name: "dated line with balance",
		re:   regexp.MustCompile(`^(?P<date>\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})\s+(?P<desc>\S.*?\S)\s+(?P<amount>\(?-?[$€£]?\d[\d.,]*\)?)\s+(?:-?[$€£]?\d[\d.,]*)$`),
	},
	{
		// 01/15/2024 STARBUCKS COFFEE -4.50
		name: "dated line",
		re:   regexp.MustCompile(`^(?P<date>\d{1,2}[/.\-]\d{1,2}[/.\-]\d{2,4})\s+(?P<desc>\S.*?\S)\s+(?P<amount>\(?-?[$€£]?\d[\d.,]*\)?)$`),
	},
	{
		// 2024-01-15 STARBUCKS COFFEE -4.50
		name: "iso dated line",
		re:   regexp.MustCompile(`^(?P<date>\d{4}-\d{2}-\d{2})\s+(?P<desc>\S.*?\S)\s+(?P<amount>\(?-?[$€£]?\d[\d.,]*\)?)$`),
	},
}

// ParsePDF extracts the PDF's text layer and matches transaction lines
// against the known statement layouts.
func (p *PDFParser) ParsePDF(data []byte) (_ *ParseResult, err error) {
	// The pdf library panics on some malformed files.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed PDF: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("open PDF reader: %w", err)
	}

	pageCount := reader.NumPage()
	if p.maxPages > 0 && pageCount > p.maxPages {
		pageCount = p.maxPages
	}

	var lines []string
	for i := 1; i <= pageCount; i++ {
		page := reader.Page(i)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			if trimmed := strings.TrimSpace(line); trimmed != "" {
				lines = append(lines, trimmed)
			}
		}
	}

	return p.parseLines(lines)
}

func (p *PDFParser) parseLines(lines []string) (*ParseResult, error) {
	result := &ParseResult{
		Transactions: make([]ParsedTransaction, 0, 64),
	}
	rowParser := &Parser{config: p.config}

	for i, line := range lines {
		groups := matchStatementLine(line)
		if groups == nil {
			continue
		}
		result.TotalRows++
		rowNum := i + 1

		date, err := rowParser.parseDate(groups["date"])
		if err != nil {
			result.Errors = append(result.Errors, ingest.RowError{Row: rowNum, Reason: fmt.Sprintf("invalid date %q", groups["date"])})
			continue
		}
		cents, err := rowParser.parseAmount(groups["amount"])
		if err != nil {
			result.Errors = append(result.Errors, ingest.RowError{Row: rowNum, Reason: fmt.Sprintf("invalid amount %q", groups["amount"])})
			continue
		}
		if cents == 0 {
			result.SkippedRows++
			continue
		}

		result.Transactions = append(result.Transactions, ParsedTransaction{
			Date:        date,
			Description: cleanDescription(groups["desc"]),
			AmountCents: cents,
			RawAmount:   groups["amount"],
			Row:         rowNum,
		})
		result.ParsedRows++
	}

	if result.ParsedRows == 0 {
		return nil, &ingest.NoTransactionsFoundError{
			Skipped: result.TotalRows,
			Reason:  "no text lines matched a known statement layout",
		}
	}
	return result, nil
}

// matchStatementLine returns the named groups of the first pattern that
// matches, or nil.
func matchStatementLine(line string) map[string]string {
	for _, sp := range statementPatterns {
		m := sp.re.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		groups := make(map[string]string, 3)
		for i, name := range sp.re.SubexpNames() {
			if name != "" && i < len(m) {
				groups[name] = m[i]
			}
		}
		return groups
	}
	return nil
}

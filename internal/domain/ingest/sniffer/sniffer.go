// Package sniffer detects statement file formats, text encodings and CSV
// layout. It identifies delimiters, header rows, and maps bank-specific
// headers onto the canonical column set.
package sniffer

import (
	"bytes"
	"encoding/csv"
	"io"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/charmap"

	"github.com/rmoura-dev/statement-engine/internal/domain/ingest"
)

// Format identifies the container format of an uploaded statement.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
	FormatPDF  Format = "pdf"
)

var (
	pdfSignature = []byte("%PDF-")
	zipSignature = []byte{0x50, 0x4B, 0x03, 0x04}
	utf8BOM      = []byte{0xEF, 0xBB, 0xBF}
)

// DetectFormat decides the statement format from content signatures, falling
// back to the filename extension for plain-text files. Content wins over
// extension: a .csv upload that is really a PDF is treated as a PDF.
func DetectFormat(data []byte, filename string) (Format, error) {
	if len(data) == 0 {
		return "", ingest.ErrEmptyFile
	}

	if bytes.HasPrefix(data, pdfSignature) {
		return FormatPDF, nil
	}
	if bytes.HasPrefix(data, zipSignature) {
		// XLSX is a zip container. Plain zips without sheets fail later in
		// the workbook reader.
		return FormatXLSX, nil
	}

	ext := strings.ToLower(filename)
	if idx := strings.LastIndex(ext, "."); idx >= 0 {
		ext = ext[idx+1:]
	}
	switch ext {
	case "csv", "tsv", "txt":
		return FormatCSV, nil
	}

	// No known extension: accept as CSV only if it looks like delimited text.
	if looksDelimited(data) {
		return FormatCSV, nil
	}
	return "", ingest.ErrUnsupportedFormat
}

// looksDelimited checks whether the first lines contain a consistent delimiter.
func looksDelimited(data []byte) bool {
	sample := data
	if len(sample) > 4096 {
		sample = sample[:4096]
	}
	if !utf8.Valid(sample) && !bytes.HasPrefix(sample, utf8BOM) {
		// Could still be latin-1 text; only reject on binary control bytes.
		for _, b := range sample {
			if b < 0x09 || (b > 0x0D && b < 0x20) {
				return false
			}
		}
	}
	lines := strings.Split(string(sample), "\n")
	for _, line := range lines {
		if d, count := detectDelimiter(line); d != 0 && count >= 1 {
			return true
		}
	}
	return false
}

// encodingNames lists the candidate encodings in resolution order.
var encodingNames = []string{"utf-8", "utf-8-sig", "latin-1", "cp1252"}

// DecodeText resolves the file's text encoding. Candidates are tried in a
// fixed order and the first clean decode wins; the returned name records
// which one succeeded.
func DecodeText(data []byte) (string, string, error) {
	if bytes.HasPrefix(data, utf8BOM) {
		stripped := data[len(utf8BOM):]
		if utf8.Valid(stripped) {
			return string(stripped), "utf-8-sig", nil
		}
		data = stripped
	} else if utf8.Valid(data) {
		return string(data), "utf-8", nil
	}

	// Bytes in 0x80-0x9F are C1 controls in latin-1 but printable in cp1252,
	// so their presence picks cp1252 over latin-1.
	useCP1252 := false
	for _, b := range data {
		if b >= 0x80 && b <= 0x9F {
			useCP1252 = true
			break
		}
	}

	var decoded []byte
	var err error
	if useCP1252 {
		decoded, err = charmap.Windows1252.NewDecoder().Bytes(data)
	} else {
		decoded, err = charmap.ISO8859_1.NewDecoder().Bytes(data)
	}
	if err != nil || bytes.ContainsRune(decoded, utf8.RuneError) {
		return "", "", &ingest.EncodingError{Tried: encodingNames}
	}
	if useCP1252 {
		return string(decoded), "cp1252", nil
	}
	return string(decoded), "latin-1", nil
}

// FileConfig holds the detected layout of a CSV statement.
type FileConfig struct {
	Delimiter  rune
	SkipLines  int
	Headers    []string
	Columns    *ColumnMap
	SampleRows [][]string
}

// ColumnMap holds resolved column indices. Unresolved optional columns are -1.
type ColumnMap struct {
	Date        int
	Description int
	// Amount is -1 when the statement uses separate debit/credit columns.
	Amount   int
	Debit    int
	Credit   int
	Category int
	Currency int
}

// header aliases accepted for each canonical column, matched case-insensitively
var columnAliases = map[string][]string{
	"date":        {"date", "transaction_date", "transaction date", "posted_date", "posted date", "value date"},
	"description": {"description", "merchant", "payee", "narrative", "details", "memo"},
	"amount":      {"amount", "value", "transaction amount"},
	"debit":       {"debit", "withdrawal", "money out", "paid out"},
	"credit":      {"credit", "deposit", "money in", "paid in"},
	"category":    {"category", "transaction_category", "transaction category"},
	"currency":    {"currency", "currency code", "ccy"},
}

// headerKeywords is the vocabulary used to recognize a header row among
// leading metadata lines.
var headerKeywords = []string{
	"date", "description", "amount", "debit", "credit", "balance",
	"category", "merchant", "payee", "currency", "narrative", "memo",
}

// DetectConfig analyzes decoded CSV text and returns its layout: delimiter,
// header row position, and the canonical column mapping.
func DetectConfig(text string) (*FileConfig, error) {
	if strings.TrimSpace(text) == "" {
		return nil, ingest.ErrEmptyFile
	}

	lines := strings.Split(text, "\n")
	delimiter, skipLines, err := findHeaderRow(lines)
	if err != nil {
		return nil, err
	}

	headerLine := cleanLine(lines[skipLines])
	reader := csv.NewReader(strings.NewReader(headerLine))
	reader.Comma = delimiter
	reader.LazyQuotes = true

	headers, err := reader.Read()
	if err != nil {
		return nil, err
	}
	for i, h := range headers {
		headers[i] = strings.TrimSpace(h)
	}

	columns, err := MapColumns(headers)
	if err != nil {
		return nil, err
	}

	return &FileConfig{
		Delimiter:  delimiter,
		SkipLines:  skipLines,
		Headers:    headers,
		Columns:    columns,
		SampleRows: sampleRows(text, delimiter, skipLines+1, 5),
	}, nil
}

// MapColumns resolves headers onto the canonical column set. A single amount
// column or a debit/credit pair both satisfy the amount requirement; date and
// description are always required.
func MapColumns(headers []string) (*ColumnMap, error) {
	cm := &ColumnMap{
		Date:        -1,
		Description: -1,
		Amount:      -1,
		Debit:       -1,
		Credit:      -1,
		Category:    -1,
		Currency:    -1,
	}

	assign := func(target *int, i int, canonical string, h string) {
		if *target != -1 {
			return
		}
		for _, alias := range columnAliases[canonical] {
			if h == alias {
				*target = i
				return
			}
		}
	}

	for i, header := range headers {
		h := strings.ToLower(strings.TrimSpace(header))
		assign(&cm.Date, i, "date", h)
		assign(&cm.Description, i, "description", h)
		assign(&cm.Amount, i, "amount", h)
		assign(&cm.Debit, i, "debit", h)
		assign(&cm.Credit, i, "credit", h)
		assign(&cm.Category, i, "category", h)
		assign(&cm.Currency, i, "currency", h)
	}

	var missing []string
	if cm.Date == -1 {
		missing = append(missing, "date")
	}
	if cm.Description == -1 {
		missing = append(missing, "description")
	}
	if cm.Amount == -1 && (cm.Debit == -1 || cm.Credit == -1) {
		missing = append(missing, "amount")
	}
	if len(missing) > 0 {
		return nil, &ingest.MissingColumnsError{Missing: missing}
	}

	return cm, nil
}

// IsDoubleEntry reports whether amounts come from separate debit/credit columns.
func (cm *ColumnMap) IsDoubleEntry() bool {
	return cm.Amount == -1 && cm.Debit != -1 && cm.Credit != -1
}

// findHeaderRow locates the header row and its delimiter. Lines containing
// header keywords are preferred; otherwise the widest early line wins.
func findHeaderRow(lines []string) (rune, int, error) {
	fallbackIndex := -1
	fallbackDelimiter := rune(0)
	fallbackCount := 0

	keywordIndex := -1
	keywordDelimiter := rune(0)
	keywordScore := 0

	for i, line := range lines {
		if i > 20 { // Don't search more than 20 lines
			break
		}

		line = cleanLine(line)
		if line == "" {
			continue
		}
		lineLower := strings.ToLower(line)

		delimiter, count := detectDelimiter(line)
		if count < 1 {
			continue
		}

		keywordMatches := 0
		for _, kw := range headerKeywords {
			if strings.Contains(lineLower, kw) {
				keywordMatches++
			}
		}

		if keywordMatches > 0 {
			// Real headers have many columns, metadata lines few.
			score := count*10 + keywordMatches
			if score > keywordScore {
				keywordScore = score
				keywordDelimiter = delimiter
				keywordIndex = i
			}
		} else if count > fallbackCount {
			fallbackCount = count
			fallbackDelimiter = delimiter
			fallbackIndex = i
		}
	}

	if keywordIndex >= 0 {
		return keywordDelimiter, keywordIndex, nil
	}
	if fallbackCount >= 2 {
		return fallbackDelimiter, fallbackIndex, nil
	}
	return 0, 0, ingest.ErrUnsupportedFormat
}

func cleanLine(line string) string {
	line = strings.TrimRight(line, "\r")
	line = strings.TrimPrefix(line, "\uFEFF")
	return strings.TrimSpace(line)
}

func detectDelimiter(line string) (rune, int) {
	delimiters := []rune{';', '\t', ',', '|'}
	bestDelimiter := rune(0)
	bestCount := 0
	for _, d := range delimiters {
		count := strings.Count(line, string(d))
		if count > bestCount {
			bestCount = count
			bestDelimiter = d
		}
	}
	return bestDelimiter, bestCount
}

// sampleRows returns the first N data rows after the header for dialect probing.
func sampleRows(text string, delimiter rune, startLine, maxRows int) [][]string {
	reader := csv.NewReader(strings.NewReader(text))
	reader.Comma = delimiter
	reader.LazyQuotes = true
	reader.FieldsPerRecord = -1

	var rows [][]string
	lineNum := 0
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			continue
		}
		if lineNum >= startLine {
			rows = append(rows, record)
			if len(rows) >= maxRows {
				break
			}
		}
		lineNum++
	}
	return rows
}

// ProbeDecimalConvention inspects sample amount values and reports whether
// the file uses the European convention (comma as decimal separator).
// Ambiguous samples default to the US convention.
func ProbeDecimalConvention(samples [][]string, cm *ColumnMap) bool {
	europeanHints := 0
	usHints := 0

	check := func(val string) {
		if val == "" {
			return
		}
		switch analyzeAmountFormat(val) {
		case 1:
			europeanHints++
		case -1:
			usHints++
		}
	}

	for _, row := range samples {
		if cm.Amount >= 0 && cm.Amount < len(row) {
			check(row[cm.Amount])
		}
		if cm.Debit >= 0 && cm.Debit < len(row) {
			check(row[cm.Debit])
		}
		if cm.Credit >= 0 && cm.Credit < len(row) {
			check(row[cm.Credit])
		}
	}
	return europeanHints > usHints
}

// analyzeAmountFormat returns 1 for European, -1 for US, 0 for ambiguous.
func analyzeAmountFormat(val string) int {
	cleaned := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' || r == ',' || r == '.' || r == '-' {
			return r
		}
		return -1
	}, val)
	cleaned = strings.TrimPrefix(cleaned, "-")
	if cleaned == "" {
		return 0
	}

	hasComma := strings.Contains(cleaned, ",")
	hasDot := strings.Contains(cleaned, ".")

	switch {
	case hasComma && hasDot:
		// Both present: the last one is the decimal separator.
		if strings.LastIndex(cleaned, ",") > strings.LastIndex(cleaned, ".") {
			return 1
		}
		return -1
	case hasComma && !hasDot:
		if len(cleaned)-strings.LastIndex(cleaned, ",") <= 3 {
			return 1
		}
		return 0
	case hasDot && !hasComma:
		if len(cleaned)-strings.LastIndex(cleaned, ".") <= 3 {
			return -1
		}
		return 0
	}
	return 0
}

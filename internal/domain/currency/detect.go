// Package currency detects transaction currencies and converts amounts
// between them with a TTL rate cache.
package currency

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"github.com/rmoura-dev/statement-engine/internal/domain/ingest/parser"
)

// symbolPatterns maps currency markers to ISO codes in precedence order:
// multi-character symbols before the bare dollar sign so "C$120.50" resolves
// to CAD, not USD.
var symbolPatterns = []struct {
	symbol string
	code   string
}{
	{"C$", "CAD"},
	{"A$", "AUD"},
	{"R$", "BRL"},
	{"RM", "MYR"},
	{"S$", "SGD"},
	{"HK$", "HKD"},
	{"NZ$", "NZD"},
	{"Rp", "IDR"},
	{"$", "USD"},
	{"₹", "INR"},
	{"€", "EUR"},
	{"£", "GBP"},
	{"₱", "PHP"},
	{"₽", "RUB"},
	{"₩", "KRW"},
	{"฿", "THB"},
	{"¥", "JPY"},
	{"CHF", "CHF"},
	{"kr", "SEK"},
	{"zł", "PLN"},
}

// codePattern matches a bare ISO code as its own word ("45.20 EUR").
var codePattern = regexp.MustCompile(`\b(USD|EUR|GBP|CAD|AUD|BRL|MYR|SGD|HKD|NZD|IDR|INR|PHP|RUB|KRW|THB|JPY|CHF|SEK|PLN|NOK|DKK|CZK|HUF|MXN|ZAR|CNY)\b`)

// DefaultCurrency is assumed when nothing in the row says otherwise.
const DefaultCurrency = "USD"

// Detect resolves the currency of a single transaction. An explicit currency
// column wins; otherwise the raw amount text and description are scanned for
// symbols, then ISO codes. Unresolvable rows default to USD.
func Detect(tx *parser.ParsedTransaction) string {
	if hint := strings.ToUpper(strings.TrimSpace(tx.CurrencyHint)); hint != "" {
		if codePattern.MatchString(hint) {
			return hint
		}
	}

	for _, text := range []string{tx.RawAmount, tx.Description} {
		if text == "" {
			continue
		}
		for _, sp := range symbolPatterns {
			if containsMarker(text, sp.symbol) {
				return sp.code
			}
		}
		if m := codePattern.FindString(strings.ToUpper(text)); m != "" {
			return m
		}
	}
	return DefaultCurrency
}

// containsMarker reports whether text carries the currency marker. Markers
// made of letters only ("RM", "kr", "CHF") must stand alone so "PHARMACY"
// never reads as MYR; symbol markers like "$" match anywhere.
func containsMarker(text, symbol string) bool {
	if !isLetterMarker(symbol) {
		return strings.Contains(text, symbol)
	}
	for start := 0; ; {
		i := strings.Index(text[start:], symbol)
		if i < 0 {
			return false
		}
		i += start
		end := i + len(symbol)
		if !letterBefore(text, i) && !letterAfter(text, end) {
			return true
		}
		start = end
	}
}

func isLetterMarker(symbol string) bool {
	for _, r := range symbol {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

func letterBefore(text string, i int) bool {
	r, size := utf8.DecodeLastRuneInString(text[:i])
	return size > 0 && unicode.IsLetter(r)
}

func letterAfter(text string, i int) bool {
	r, size := utf8.DecodeRuneInString(text[i:])
	return size > 0 && unicode.IsLetter(r)
}

// VoteWeights balances how often a currency appears against how much value
// moves in it when electing the batch's primary currency.
type VoteWeights struct {
	Frequency float64
	Value     float64
}

// DefaultVoteWeights weight frequency over value.
var DefaultVoteWeights = VoteWeights{Frequency: 0.7, Value: 0.3}

// Vote is one transaction's contribution to the primary-currency election.
type Vote struct {
	Code          string
	AbsoluteCents int64
}

// Primary elects the batch's primary currency: each currency scores its
// share of transaction count weighted by Frequency plus its share of
// absolute value weighted by Value. Ties keep the currency seen first.
func Primary(votes []Vote, weights VoteWeights) string {
	if len(votes) == 0 {
		return DefaultCurrency
	}

	counts := make(map[string]int)
	values := make(map[string]decimal.Decimal)
	firstSeen := make(map[string]int)
	totalValue := decimal.Zero

	for i, v := range votes {
		code := v.Code
		if code == "" {
			code = DefaultCurrency
		}
		if _, ok := firstSeen[code]; !ok {
			firstSeen[code] = i
		}
		counts[code]++
		abs := decimal.NewFromInt(v.AbsoluteCents)
		values[code] = values[code].Add(abs)
		totalValue = totalValue.Add(abs)
	}

	totalCount := decimal.NewFromInt(int64(len(votes)))
	freqWeight := decimal.NewFromFloat(weights.Frequency)
	valueWeight := decimal.NewFromFloat(weights.Value)

	best := ""
	bestScore := decimal.NewFromInt(-1)
	for code, count := range counts {
		score := decimal.NewFromInt(int64(count)).Div(totalCount).Mul(freqWeight)
		if totalValue.IsPositive() {
			score = score.Add(values[code].Div(totalValue).Mul(valueWeight))
		}
		switch score.Cmp(bestScore) {
		case 1:
			best = code
			bestScore = score
		case 0:
			if firstSeen[code] < firstSeen[best] {
				best = code
			}
		}
	}
	return best
}

// Package transaction defines the canonical transaction record produced by
// statement ingestion and consumed by categorization, conversion and analysis.
package transaction

import (
	"time"

	"github.com/rmoura-dev/statement-engine/pkg/money"
)

// Type distinguishes money in from money out.
type Type string

const (
	TypeCredit Type = "credit"
	TypeDebit  Type = "debit"
)

// Category is the fixed spending category set. CategoryOther is the catch-all
// for descriptions nothing else claims.
type Category string

const (
	CategoryFood          Category = "food"
	CategoryTransport     Category = "transport"
	CategoryEntertainment Category = "entertainment"
	CategoryShopping      Category = "shopping"
	CategoryUtilities     Category = "utilities"
	CategoryHealthcare    Category = "healthcare"
	CategoryEducation     Category = "education"
	CategoryTravel        Category = "travel"
	CategoryInsurance     Category = "insurance"
	CategoryInvestment    Category = "investment"
	CategoryOther         Category = "other"
)

// Categories lists every category in priority order. When rule scoring ties,
// the earlier category wins.
var Categories = []Category{
	CategoryFood,
	CategoryTransport,
	CategoryEntertainment,
	CategoryShopping,
	CategoryUtilities,
	CategoryHealthcare,
	CategoryEducation,
	CategoryTravel,
	CategoryInsurance,
	CategoryInvestment,
	CategoryOther,
}

// ParseCategory maps a raw statement category label onto the fixed set.
// Unknown labels return CategoryOther and false.
func ParseCategory(raw string) (Category, bool) {
	for _, c := range Categories {
		if string(c) == raw {
			return c, true
		}
	}
	return CategoryOther, false
}

// Transaction is a normalized statement row. It is created once during
// parsing, enriched in place by currency detection and categorization, and
// treated as immutable by aggregation.
type Transaction struct {
	Date        time.Time
	Description string
	// Amount is signed: debits negative, credits positive.
	Amount     *money.Money
	Category   Category
	Confidence float64
	Type       Type
	// Row is the 1-indexed source row for error reporting.
	Row int
}

// TypeFromAmount derives the credit/debit type from the amount sign.
func TypeFromAmount(m *money.Money) Type {
	if m.IsNegative() {
		return TypeDebit
	}
	return TypeCredit
}

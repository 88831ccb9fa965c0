package budget

import (
	"sort"
	"time"

	"github.com/shopspring/decimal"

	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
	"github.com/rmoura-dev/statement-engine/pkg/money"
)

// MerchantTotal is one merchant's aggregate spending.
type MerchantTotal struct {
	Merchant string
	Total    *money.Money
	Count    int
}

// SpendingAnalysis is the income-independent view of a batch: totals, the
// covered date range, average daily spend and the heaviest merchants.
type SpendingAnalysis struct {
	Currency      string
	From          time.Time
	To            time.Time
	TotalIncome   *money.Money
	TotalExpenses *money.Money
	Net           *money.Money
	AverageDaily  *money.Money
	ByCategory    map[transaction.Category]*money.Money
	TopMerchants  []MerchantTotal
}

// topMerchantCount caps the merchant leaderboard.
const topMerchantCount = 5

// Analyze summarizes spending for transactions in the given currency.
func (a *Analyzer) Analyze(txs []*transaction.Transaction, currencyCode string) *SpendingAnalysis {
	analysis := &SpendingAnalysis{
		Currency:      currencyCode,
		TotalIncome:   money.Zero(currencyCode),
		TotalExpenses: money.Zero(currencyCode),
		Net:           money.Zero(currencyCode),
		AverageDaily:  money.Zero(currencyCode),
		ByCategory:    make(map[transaction.Category]*money.Money),
	}

	merchantCents := make(map[string]int64)
	merchantCounts := make(map[string]int)
	incomeCents := int64(0)
	expenseCents := int64(0)

	for _, tx := range txs {
		if tx.Amount == nil || tx.Amount.Currency() != currencyCode {
			continue
		}
		if analysis.From.IsZero() || tx.Date.Before(analysis.From) {
			analysis.From = tx.Date
		}
		if tx.Date.After(analysis.To) {
			analysis.To = tx.Date
		}

		if tx.Amount.IsPositive() {
			incomeCents += tx.Amount.Amount()
			continue
		}

		spent := -tx.Amount.Amount()
		expenseCents += spent
		merchantCents[tx.Description] += spent
		merchantCounts[tx.Description]++

		if existing, ok := analysis.ByCategory[tx.Category]; ok {
			analysis.ByCategory[tx.Category] = existing.MustAdd(money.New(spent, currencyCode))
		} else {
			analysis.ByCategory[tx.Category] = money.New(spent, currencyCode)
		}
	}

	analysis.TotalIncome = money.New(incomeCents, currencyCode)
	analysis.TotalExpenses = money.New(expenseCents, currencyCode)
	analysis.Net, _ = analysis.TotalIncome.Subtract(analysis.TotalExpenses)

	if !analysis.From.IsZero() {
		days := int64(analysis.To.Sub(analysis.From).Hours()/24) + 1
		analysis.AverageDaily = analysis.TotalExpenses.DivideDecimal(decimal.NewFromInt(days))
	}

	merchants := make([]MerchantTotal, 0, len(merchantCents))
	for merchant, cents := range merchantCents {
		merchants = append(merchants, MerchantTotal{
			Merchant: merchant,
			Total:    money.New(cents, currencyCode),
			Count:    merchantCounts[merchant],
		})
	}
	sort.Slice(merchants, func(i, j int) bool {
		if c := merchants[i].Total.Compare(merchants[j].Total); c != 0 {
			return c > 0
		}
		return merchants[i].Merchant < merchants[j].Merchant
	})
	if len(merchants) > topMerchantCount {
		merchants = merchants[:topMerchantCount]
	}
	analysis.TopMerchants = merchants

	return analysis
}

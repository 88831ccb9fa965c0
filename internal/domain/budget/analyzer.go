// Package budget turns an enriched transaction batch into spending
// analysis, recommended category budgets and overspending alerts.
package budget

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
	"github.com/rmoura-dev/statement-engine/pkg/money"
)

// DefaultPercentages is the standard share of monthly income recommended
// per category.
var DefaultPercentages = map[transaction.Category]float64{
	transaction.CategoryFood:          0.15,
	transaction.CategoryTransport:     0.10,
	transaction.CategoryEntertainment: 0.05,
	transaction.CategoryShopping:      0.10,
	transaction.CategoryUtilities:     0.08,
	transaction.CategoryHealthcare:    0.08,
	transaction.CategoryEducation:     0.05,
	transaction.CategoryTravel:        0.05,
	transaction.CategoryInsurance:     0.08,
	transaction.CategoryInvestment:    0.20,
	transaction.CategoryOther:         0.06,
}

// AlertSeverity grades how far actual spending exceeds the recommendation.
type AlertSeverity string

const (
	SeverityMedium AlertSeverity = "medium" // above recommended
	SeverityHigh   AlertSeverity = "high"   // above 1.5x recommended
)

// Recommendation pairs a category's recommended monthly budget with what
// was actually spent on average per month. Difference is recommended minus
// actual, negative when overspent; Severity is empty within budget.
type Recommendation struct {
	Category      transaction.Category
	Recommended   *money.Money
	ActualMonthly *money.Money
	Difference    *money.Money
	Severity      AlertSeverity
}

// Alert flags a category whose average monthly spending exceeds its
// recommendation.
type Alert struct {
	Category      transaction.Category
	Severity      AlertSeverity
	Recommended   *money.Money
	ActualMonthly *money.Money
}

// Plan is the income-relative output. Months counts the distinct calendar
// months carrying income; MonthlyIncome is nil when the batch has no income,
// and then no recommendations or alerts are produced.
type Plan struct {
	Currency        string
	Months          int
	MonthlyIncome   *money.Money
	Recommendations []Recommendation
	Alerts          []Alert
}

// Analyzer computes plans from transaction batches.
type Analyzer struct {
	percentages map[transaction.Category]float64
}

func NewAnalyzer(percentages map[transaction.Category]float64) *Analyzer {
	if len(percentages) == 0 {
		percentages = DefaultPercentages
	}
	return &Analyzer{percentages: percentages}
}

// monthKey buckets a date into its calendar month.
type monthKey struct {
	year  int
	month int
}

// Plan builds budget recommendations for transactions in the given
// currency. Rows in other currencies are ignored; convert the batch first
// for a complete picture.
func (a *Analyzer) Plan(txs []*transaction.Transaction, currencyCode string) *Plan {
	plan := &Plan{Currency: currencyCode}

	incomeCents := int64(0)
	expenseCents := make(map[transaction.Category]int64)
	months := make(map[monthKey]struct{})

	for _, tx := range txs {
		if tx.Amount == nil || tx.Amount.Currency() != currencyCode {
			continue
		}
		if tx.Amount.IsPositive() {
			// Only income months divide the estimate; an expense-only
			// month must not dilute it.
			months[monthKey{tx.Date.Year(), int(tx.Date.Month())}] = struct{}{}
			incomeCents += tx.Amount.Amount()
		} else {
			expenseCents[tx.Category] += -tx.Amount.Amount()
		}
	}

	plan.Months = len(months)
	if incomeCents <= 0 || plan.Months == 0 {
		// No income observed: recommendations would divide by nothing
		// meaningful, so only the spending analysis applies.
		return plan
	}

	monthCount := decimal.NewFromInt(int64(plan.Months))
	monthlyIncome := money.New(incomeCents, currencyCode).DivideDecimal(monthCount)
	plan.MonthlyIncome = monthlyIncome

	for _, category := range transaction.Categories {
		share, ok := a.percentages[category]
		if !ok {
			continue
		}
		recommended := monthlyIncome.PercentageDecimal(decimal.NewFromFloat(share))
		actualMonthly := money.New(expenseCents[category], currencyCode).DivideDecimal(monthCount)
		// Same currency by construction.
		difference, _ := recommended.Subtract(actualMonthly)
		severity, flagged := gradeOverspend(actualMonthly, recommended)

		plan.Recommendations = append(plan.Recommendations, Recommendation{
			Category:      category,
			Recommended:   recommended,
			ActualMonthly: actualMonthly,
			Difference:    difference,
			Severity:      severity,
		})

		if flagged {
			plan.Alerts = append(plan.Alerts, Alert{
				Category:      category,
				Severity:      severity,
				Recommended:   recommended,
				ActualMonthly: actualMonthly,
			})
		}
	}

	// High severity first; within a severity, category name order.
	sort.SliceStable(plan.Alerts, func(i, j int) bool {
		if plan.Alerts[i].Severity != plan.Alerts[j].Severity {
			return plan.Alerts[i].Severity == SeverityHigh
		}
		return plan.Alerts[i].Category < plan.Alerts[j].Category
	})

	return plan
}

// gradeOverspend returns the alert severity when actual exceeds recommended.
func gradeOverspend(actual, recommended *money.Money) (AlertSeverity, bool) {
	if !actual.GreaterThan(recommended) {
		return "", false
	}
	high := recommended.MultiplyDecimal(decimal.NewFromFloat(1.5))
	if actual.GreaterThan(high) {
		return SeverityHigh, true
	}
	return SeverityMedium, true
}

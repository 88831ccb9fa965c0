package budget

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
	"github.com/rmoura-dev/statement-engine/pkg/money"
)

func tx(date string, cents int64, category transaction.Category) *transaction.Transaction {
	d, err := time.Parse("2006-01-02", date)
	if err != nil {
		panic(err)
	}
	return &transaction.Transaction{
		Date:     d,
		Amount:   money.New(cents, "USD"),
		Category: category,
	}
}

func TestPlan(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	t.Run("recommendations follow income shares", func(t *testing.T) {
		txs := []*transaction.Transaction{
			tx("2024-01-31", 500000, transaction.CategoryOther), // $5,000 salary
			tx("2024-01-10", -40000, transaction.CategoryFood),
		}
		plan := analyzer.Plan(txs, "USD")

		require.NotNil(t, plan.MonthlyIncome)
		assert.Equal(t, int64(500000), plan.MonthlyIncome.Amount())
		assert.Equal(t, 1, plan.Months)

		var food *Recommendation
		for i := range plan.Recommendations {
			if plan.Recommendations[i].Category == transaction.CategoryFood {
				food = &plan.Recommendations[i]
			}
		}
		require.NotNil(t, food)
		// 15% of $5,000
		assert.Equal(t, int64(75000), food.Recommended.Amount())
		assert.Equal(t, int64(40000), food.ActualMonthly.Amount())
		assert.Equal(t, int64(35000), food.Difference.Amount())
		assert.Empty(t, food.Severity)
	})

	t.Run("overspent recommendation carries severity and negative difference", func(t *testing.T) {
		txs := []*transaction.Transaction{
			tx("2024-01-31", 500000, transaction.CategoryOther),
			tx("2024-01-05", -120000, transaction.CategoryFood), // $1,200 vs $750 recommended
		}
		plan := analyzer.Plan(txs, "USD")

		var food *Recommendation
		for i := range plan.Recommendations {
			if plan.Recommendations[i].Category == transaction.CategoryFood {
				food = &plan.Recommendations[i]
			}
		}
		require.NotNil(t, food)
		assert.Equal(t, int64(-45000), food.Difference.Amount())
		assert.Equal(t, SeverityHigh, food.Severity)
	})

	t.Run("expense-only month does not dilute the income estimate", func(t *testing.T) {
		txs := []*transaction.Transaction{
			tx("2024-01-31", 300000, transaction.CategoryOther), // $3,000 salary
			tx("2024-02-10", -5000, transaction.CategoryFood),   // lone February expense
		}
		plan := analyzer.Plan(txs, "USD")

		assert.Equal(t, 1, plan.Months, "only income months count")
		require.NotNil(t, plan.MonthlyIncome)
		assert.Equal(t, int64(300000), plan.MonthlyIncome.Amount())
	})

	t.Run("monthly averages span distinct months", func(t *testing.T) {
		txs := []*transaction.Transaction{
			tx("2024-01-31", 300000, transaction.CategoryOther),
			tx("2024-02-29", 300000, transaction.CategoryOther),
			tx("2024-01-05", -20000, transaction.CategoryFood),
			tx("2024-02-05", -40000, transaction.CategoryFood),
		}
		plan := analyzer.Plan(txs, "USD")

		assert.Equal(t, 2, plan.Months)
		assert.Equal(t, int64(300000), plan.MonthlyIncome.Amount())

		for _, rec := range plan.Recommendations {
			if rec.Category == transaction.CategoryFood {
				assert.Equal(t, int64(30000), rec.ActualMonthly.Amount())
			}
		}
	})

	t.Run("alert severity thresholds", func(t *testing.T) {
		// $5,000 income: food recommended $750, high above $1,125
		txs := []*transaction.Transaction{
			tx("2024-01-31", 500000, transaction.CategoryOther),
			tx("2024-01-05", -120000, transaction.CategoryFood),      // $1,200 > 1.5x
			tx("2024-01-06", -60000, transaction.CategoryTransport),  // $600 > $500 rec
			tx("2024-01-07", -10000, transaction.CategoryHealthcare), // under budget
		}
		plan := analyzer.Plan(txs, "USD")

		require.Len(t, plan.Alerts, 2)
		assert.Equal(t, transaction.CategoryFood, plan.Alerts[0].Category)
		assert.Equal(t, SeverityHigh, plan.Alerts[0].Severity)
		assert.Equal(t, transaction.CategoryTransport, plan.Alerts[1].Category)
		assert.Equal(t, SeverityMedium, plan.Alerts[1].Severity)
	})

	t.Run("high severity sorts before medium", func(t *testing.T) {
		// transport high, food medium: order must flip to severity-first
		txs := []*transaction.Transaction{
			tx("2024-01-31", 500000, transaction.CategoryOther),
			tx("2024-01-05", -80000, transaction.CategoryFood),       // medium
			tx("2024-01-06", -100000, transaction.CategoryTransport), // high
		}
		plan := analyzer.Plan(txs, "USD")

		require.Len(t, plan.Alerts, 2)
		assert.Equal(t, transaction.CategoryTransport, plan.Alerts[0].Category)
		assert.Equal(t, SeverityHigh, plan.Alerts[0].Severity)
		assert.Equal(t, transaction.CategoryFood, plan.Alerts[1].Category)
	})

	t.Run("equal severity sorts by category name", func(t *testing.T) {
		// transport ($600 vs $500) and entertainment ($300 vs $250) are both
		// medium; entertainment sorts first alphabetically
		txs := []*transaction.Transaction{
			tx("2024-01-31", 500000, transaction.CategoryOther),
			tx("2024-01-05", -60000, transaction.CategoryTransport),
			tx("2024-01-06", -30000, transaction.CategoryEntertainment),
		}
		plan := analyzer.Plan(txs, "USD")

		require.Len(t, plan.Alerts, 2)
		assert.Equal(t, transaction.CategoryEntertainment, plan.Alerts[0].Category)
		assert.Equal(t, transaction.CategoryTransport, plan.Alerts[1].Category)
	})

	t.Run("zero income produces no recommendations", func(t *testing.T) {
		txs := []*transaction.Transaction{
			tx("2024-01-05", -20000, transaction.CategoryFood),
			tx("2024-01-06", -5000, transaction.CategoryTransport),
		}
		plan := analyzer.Plan(txs, "USD")

		assert.Nil(t, plan.MonthlyIncome)
		assert.Empty(t, plan.Recommendations)
		assert.Empty(t, plan.Alerts)
	})

	t.Run("foreign currency rows are ignored", func(t *testing.T) {
		txs := []*transaction.Transaction{
			tx("2024-01-31", 500000, transaction.CategoryOther),
			{
				Date:     time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC),
				Amount:   money.New(-90000, "EUR"),
				Category: transaction.CategoryFood,
			},
		}
		plan := analyzer.Plan(txs, "USD")
		require.NotNil(t, plan.MonthlyIncome)
		for _, rec := range plan.Recommendations {
			if rec.Category == transaction.CategoryFood {
				assert.True(t, rec.ActualMonthly.IsZero())
			}
		}
	})
}

func TestAnalyze(t *testing.T) {
	analyzer := NewAnalyzer(nil)

	t.Run("totals and date range", func(t *testing.T) {
		txs := []*transaction.Transaction{
			tx("2024-01-01", 300000, transaction.CategoryOther),
			tx("2024-01-05", -20000, transaction.CategoryFood),
			tx("2024-01-10", -10000, transaction.CategoryTransport),
		}
		analysis := analyzer.Analyze(txs, "USD")

		assert.Equal(t, int64(300000), analysis.TotalIncome.Amount())
		assert.Equal(t, int64(30000), analysis.TotalExpenses.Amount())
		assert.Equal(t, int64(270000), analysis.Net.Amount())
		assert.Equal(t, time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), analysis.From)
		assert.Equal(t, time.Date(2024, 1, 10, 0, 0, 0, 0, time.UTC), analysis.To)
		// $300 over 10 days
		assert.Equal(t, int64(3000), analysis.AverageDaily.Amount())
		assert.Equal(t, int64(20000), analysis.ByCategory[transaction.CategoryFood].Amount())
	})

	t.Run("top merchants ranked by total spend", func(t *testing.T) {
		txs := []*transaction.Transaction{}
		for i := 0; i < 3; i++ {
			txs = append(txs, &transaction.Transaction{
				Date: time.Date(2024, 1, i+1, 0, 0, 0, 0, time.UTC), Description: "STARBUCKS",
				Amount: money.New(-500, "USD"), Category: transaction.CategoryFood,
			})
		}
		txs = append(txs, &transaction.Transaction{
			Date: time.Date(2024, 1, 8, 0, 0, 0, 0, time.UTC), Description: "WHOLE FOODS",
			Amount: money.New(-9000, "USD"), Category: transaction.CategoryFood,
		})

		analysis := analyzer.Analyze(txs, "USD")
		require.NotEmpty(t, analysis.TopMerchants)
		assert.Equal(t, "WHOLE FOODS", analysis.TopMerchants[0].Merchant)
		assert.Equal(t, int64(9000), analysis.TopMerchants[0].Total.Amount())
		assert.Equal(t, "STARBUCKS", analysis.TopMerchants[1].Merchant)
		assert.Equal(t, 3, analysis.TopMerchants[1].Count)
	})

	t.Run("empty batch yields zero analysis", func(t *testing.T) {
		analysis := analyzer.Analyze(nil, "USD")
		assert.True(t, analysis.TotalIncome.IsZero())
		assert.True(t, analysis.AverageDaily.IsZero())
		assert.Empty(t, analysis.TopMerchants)
	})
}

package export

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmoura-dev/statement-engine/internal/domain/ingest/parser"
	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
	"github.com/rmoura-dev/statement-engine/pkg/money"
)

func TestWriteCSV(t *testing.T) {
	txs := []*transaction.Transaction{
		{
			Date:        time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC),
			Description: "STARBUCKS COFFEE",
			Amount:      money.New(-450, "USD"),
			Category:    transaction.CategoryFood,
			Type:        transaction.TypeDebit,
		},
		{
			Date:        time.Date(2024, 1, 31, 0, 0, 0, 0, time.UTC),
			Description: "PAYROLL DEPOSIT",
			Amount:      money.New(250000, "USD"),
			Category:    transaction.CategoryOther,
			Type:        transaction.TypeCredit,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, txs))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "date,description,amount,currency,category,type", lines[0])
	assert.Equal(t, "2024-01-15,STARBUCKS COFFEE,-4.50,USD,food,debit", lines[1])
	assert.Equal(t, "2024-01-31,PAYROLL DEPOSIT,2500.00,USD,other,credit", lines[2])
}

func TestWriteCSVRoundTrip(t *testing.T) {
	txs := []*transaction.Transaction{
		{
			Date:        time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
			Description: "RENT MARCH",
			Amount:      money.New(-125000, "USD"),
			Category:    transaction.CategoryOther,
			Type:        transaction.TypeDebit,
		},
		{
			Date:        time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC),
			Description: "GROCERIES",
			Amount:      money.New(-8732, "USD"),
			Category:    transaction.CategoryFood,
			Type:        transaction.TypeDebit,
		},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, txs))

	p := parser.New(parser.Config{})
	result, err := p.Parse(strings.NewReader(buf.String()))
	require.NoError(t, err)
	require.Len(t, result.Transactions, len(txs))

	for i, parsed := range result.Transactions {
		assert.Equal(t, txs[i].Date, parsed.Date)
		assert.Equal(t, txs[i].Description, parsed.Description)
		assert.Equal(t, txs[i].Amount.Amount(), parsed.AmountCents)
	}
}

// Package export writes normalized transaction batches back out as CSV.
package export

import (
	"fmt"
	"io"

	"github.com/gocarina/gocsv"

	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
)

// row is the CSV wire form of one transaction. Dates are ISO, amounts are
// plain decimals in the transaction's currency.
type row struct {
	Date        string `csv:"date"`
	Description string `csv:"description"`
	Amount      string `csv:"amount"`
	Currency    string `csv:"currency"`
	Category    string `csv:"category"`
	Type        string `csv:"type"`
}

// WriteCSV writes transactions in their given order.
func WriteCSV(w io.Writer, txs []*transaction.Transaction) error {
	rows := make([]row, len(txs))
	for i, tx := range txs {
		rows[i] = row{
			Date:        tx.Date.Format("2006-01-02"),
			Description: tx.Description,
			Amount:      tx.Amount.ToDecimal().StringFixed(2),
			Currency:    tx.Amount.Currency(),
			Category:    string(tx.Category),
			Type:        string(tx.Type),
		}
	}
	if err := gocsv.Marshal(rows, w); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

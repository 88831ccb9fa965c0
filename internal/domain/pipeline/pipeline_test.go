package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rmoura-dev/statement-engine/internal/domain/categorize"
	"github.com/rmoura-dev/statement-engine/internal/domain/ingest/parser"
	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
	"github.com/rmoura-dev/statement-engine/pkg/config"
	"github.com/rmoura-dev/statement-engine/pkg/money"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// passthroughEnricher tags each row with its description so tests can check
// ordering without real enrichment.
type passthroughEnricher struct {
	delayPerChunk time.Duration
}

func (e *passthroughEnricher) EnrichChunk(_ context.Context, chunk []parser.ParsedTransaction) ([]*transaction.Transaction, error) {
	if e.delayPerChunk > 0 {
		time.Sleep(e.delayPerChunk)
	}
	out := make([]*transaction.Transaction, len(chunk))
	for i, row := range chunk {
		out[i] = &transaction.Transaction{
			Description: row.Description,
			Amount:      money.New(row.AmountCents, "USD"),
			Row:         row.Row,
		}
	}
	return out, nil
}

func makeRows(n int) []parser.ParsedTransaction {
	faker := gofakeit.New(42)
	rows := make([]parser.ParsedTransaction, n)
	for i := range rows {
		rows[i] = parser.ParsedTransaction{
			Date:        faker.DateRange(time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC), time.Date(2024, 6, 30, 0, 0, 0, 0, time.UTC)),
			Description: fmt.Sprintf("%s %d", strings.ToUpper(faker.Company()), i),
			AmountCents: -int64(faker.IntRange(100, 50000)),
			Row:         i + 2,
		}
	}
	return rows
}

func TestScheduler(t *testing.T) {
	ctx := context.Background()

	t.Run("output order equals input order", func(t *testing.T) {
		rows := makeRows(250)
		s := NewScheduler(32, 10000, 4, nil)

		out, err := s.Process(ctx, rows, &passthroughEnricher{delayPerChunk: time.Millisecond}, nil)
		require.NoError(t, err)
		require.Len(t, out, len(rows))
		for i, tx := range out {
			assert.Equal(t, rows[i].Description, tx.Description, "row %d out of order", i)
		}
	})

	t.Run("chunk size does not change results", func(t *testing.T) {
		rows := makeRows(100)

		small := NewScheduler(7, 10000, 4, nil)
		large := NewScheduler(64, 10000, 2, nil)

		outSmall, err := small.Process(ctx, rows, &passthroughEnricher{}, nil)
		require.NoError(t, err)
		outLarge, err := large.Process(ctx, rows, &passthroughEnricher{}, nil)
		require.NoError(t, err)

		require.Equal(t, len(outSmall), len(outLarge))
		for i := range outSmall {
			assert.Equal(t, outSmall[i].Description, outLarge[i].Description)
		}
	})

	t.Run("row cap rejects before processing", func(t *testing.T) {
		rows := makeRows(12000)
		s := NewScheduler(1000, 10000, 4, nil)

		enricher := &countingEnricher{}
		_, err := s.Process(ctx, rows, enricher, nil)

		var limitErr *RowLimitExceededError
		require.True(t, errors.As(err, &limitErr))
		assert.Equal(t, 12000, limitErr.Rows)
		assert.Equal(t, 10000, limitErr.Limit)
		assert.Zero(t, enricher.chunks.Load(), "no chunk should run after rejection")
	})

	t.Run("progress walks queued processing done", func(t *testing.T) {
		rows := makeRows(50)
		s := NewScheduler(10, 10000, 2, nil)

		var mu sync.Mutex
		states := make(map[int][]ChunkState)
		_, err := s.Process(ctx, rows, &passthroughEnricher{}, func(p Progress) {
			mu.Lock()
			states[p.Chunk] = append(states[p.Chunk], p.State)
			mu.Unlock()
		})
		require.NoError(t, err)

		require.Len(t, states, 5)
		for chunk, seen := range states {
			require.Len(t, seen, 3, "chunk %d", chunk)
			assert.Equal(t, ChunkQueued, seen[0])
			assert.Equal(t, ChunkProcessing, seen[1])
			assert.Equal(t, ChunkDone, seen[2])
		}
	})

	t.Run("enricher error fails the batch", func(t *testing.T) {
		rows := makeRows(40)
		s := NewScheduler(10, 10000, 2, nil)

		_, err := s.Process(ctx, rows, &failingEnricher{failAt: 2}, nil)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "chunk")
	})

	t.Run("cancellation stops between chunks", func(t *testing.T) {
		rows := makeRows(200)
		s := NewScheduler(10, 10000, 1, nil)

		cancelCtx, cancel := context.WithCancel(ctx)
		enricher := &cancellingEnricher{cancel: cancel, cancelAfter: 3}
		_, err := s.Process(cancelCtx, rows, enricher, nil)

		require.ErrorIs(t, err, context.Canceled)
		chunks := int(enricher.chunks.Load())
		assert.Less(t, chunks, 20, "should stop well before all chunks")
		assert.GreaterOrEqual(t, chunks, 3)
	})
}

type countingEnricher struct {
	chunks atomicInt
}

func (e *countingEnricher) EnrichChunk(_ context.Context, chunk []parser.ParsedTransaction) ([]*transaction.Transaction, error) {
	e.chunks.Add(1)
	return make([]*transaction.Transaction, len(chunk)), nil
}

type failingEnricher struct {
	chunks atomicInt
	failAt int32
}

func (e *failingEnricher) EnrichChunk(_ context.Context, chunk []parser.ParsedTransaction) ([]*transaction.Transaction, error) {
	if e.chunks.Add(1) >= e.failAt {
		return nil, errors.New("enrichment blew up")
	}
	return make([]*transaction.Transaction, len(chunk)), nil
}

type cancellingEnricher struct {
	chunks      atomicInt
	cancel      context.CancelFunc
	cancelAfter int32
}

func (e *cancellingEnricher) EnrichChunk(_ context.Context, chunk []parser.ParsedTransaction) ([]*transaction.Transaction, error) {
	if e.chunks.Add(1) == e.cancelAfter {
		e.cancel()
	}
	return make([]*transaction.Transaction, len(chunk)), nil
}

// atomicInt avoids importing sync/atomic types piecemeal in each stub.
type atomicInt struct {
	mu sync.Mutex
	v  int32
}

func (a *atomicInt) Add(delta int32) int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.v += delta
	return a.v
}

func (a *atomicInt) Load() int32 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.v
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg, err := config.Load()
	require.NoError(t, err)
	return cfg
}

func TestServiceProcess(t *testing.T) {
	cfg := testConfig(t)
	engine := categorize.NewRuleEngine(categorize.DefaultRules)
	categorizer := categorize.NewCategorizer(nil, engine, cfg.Classifier.ConfidenceThreshold, testLogger())
	scheduler := NewScheduler(cfg.Processing.ChunkSize, cfg.Processing.MaxRows, cfg.Processing.Workers, nil)
	svc := NewService(cfg, scheduler, categorizer, nil, nil, testLogger())

	t.Run("csv end to end", func(t *testing.T) {
		csv := `date,description,amount,currency
2024-01-15,STARBUCKS COFFEE,-4.50,USD
2024-01-16,SHELL GAS STATION,-30.00,USD
2024-01-31,PAYROLL DEPOSIT,2500.00,USD
`
		batch, err := svc.Process(context.Background(), []byte(csv), "statement.csv")
		require.NoError(t, err)

		require.Len(t, batch.Transactions, 3)
		assert.Equal(t, "USD", batch.PrimaryCurrency)
		assert.Equal(t, "utf-8", batch.Encoding)

		coffee := batch.Transactions[0]
		assert.Equal(t, transaction.CategoryFood, coffee.Category)
		assert.Equal(t, transaction.TypeDebit, coffee.Type)

		payroll := batch.Transactions[2]
		assert.Equal(t, transaction.TypeCredit, payroll.Type)
	})

	t.Run("explicit category column is trusted", func(t *testing.T) {
		csv := `date,description,amount,category
2024-01-15,SOME SHOP,-10.00,travel
`
		batch, err := svc.Process(context.Background(), []byte(csv), "statement.csv")
		require.NoError(t, err)
		require.Len(t, batch.Transactions, 1)
		assert.Equal(t, transaction.CategoryTravel, batch.Transactions[0].Category)
		assert.Equal(t, 1.0, batch.Transactions[0].Confidence)
	})

	t.Run("mixed currencies elect a primary", func(t *testing.T) {
		csv := `date,description,amount
2024-01-15,CAFE PARIS,€-12.00
2024-01-16,BOULANGERIE,€-4.50
2024-01-17,AMAZON.COM,$-30.00
`
		batch, err := svc.Process(context.Background(), []byte(csv), "statement.csv")
		require.NoError(t, err)
		assert.Equal(t, "EUR", batch.PrimaryCurrency)
	})

	t.Run("oversized file is rejected", func(t *testing.T) {
		big := make([]byte, cfg.Processing.MaxFileSize+1)
		_, err := svc.Process(context.Background(), big, "statement.csv")
		var tooLarge *FileTooLargeError
		assert.True(t, errors.As(err, &tooLarge))
	})
}

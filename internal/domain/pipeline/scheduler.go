// Package pipeline runs parsed statements through enrichment in bounded
// parallel chunks and reassembles the results in input order.
package pipeline

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rmoura-dev/statement-engine/internal/domain/ingest/parser"
	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
)

// RowLimitExceededError means the statement has more rows than the pipeline
// accepts. It is raised before any chunk is processed.
type RowLimitExceededError struct {
	Rows  int
	Limit int
}

func (e *RowLimitExceededError) Error() string {
	return fmt.Sprintf("statement has %d rows, limit is %d", e.Rows, e.Limit)
}

// ChunkState tracks a chunk through its lifecycle.
type ChunkState string

const (
	ChunkQueued     ChunkState = "queued"
	ChunkProcessing ChunkState = "processing"
	ChunkDone       ChunkState = "done"
)

// Progress reports one chunk's state change.
type Progress struct {
	Chunk  int // 0-based chunk index
	Chunks int // total chunk count
	State  ChunkState
}

// ProgressFunc receives progress events. Calls may come from worker
// goroutines concurrently.
type ProgressFunc func(Progress)

// Enricher transforms one chunk of parsed rows into finished transactions.
// A chunk is all-or-nothing: an error discards the whole chunk's work.
type Enricher interface {
	EnrichChunk(ctx context.Context, chunk []parser.ParsedTransaction) ([]*transaction.Transaction, error)
}

// Scheduler fans chunks out to a bounded worker pool. Output order equals
// input order regardless of which worker finishes first; chunk size and
// worker count never change results, only throughput.
type Scheduler struct {
	chunkSize int
	maxRows   int
	workers   int
	metrics   *Metrics
}

func NewScheduler(chunkSize, maxRows, workers int, metrics *Metrics) *Scheduler {
	if chunkSize < 1 {
		chunkSize = 1
	}
	if workers < 1 {
		workers = 1
	}
	return &Scheduler{
		chunkSize: chunkSize,
		maxRows:   maxRows,
		workers:   workers,
		metrics:   metrics,
	}
}

type chunkJob struct {
	index int
	rows  []parser.ParsedTransaction
}

// Process enriches all rows. The row cap is enforced up front; cancellation
// is honored between chunks, never mid-chunk.
func (s *Scheduler) Process(ctx context.Context, rows []parser.ParsedTransaction, enricher Enricher, onProgress ProgressFunc) ([]*transaction.Transaction, error) {
	if s.maxRows > 0 && len(rows) > s.maxRows {
		return nil, &RowLimitExceededError{Rows: len(rows), Limit: s.maxRows}
	}
	if len(rows) == 0 {
		return nil, nil
	}

	notify := onProgress
	if notify == nil {
		notify = func(Progress) {}
	}

	chunkCount := (len(rows) + s.chunkSize - 1) / s.chunkSize
	jobs := make(chan chunkJob, chunkCount)
	for i := 0; i < chunkCount; i++ {
		start := i * s.chunkSize
		end := start + s.chunkSize
		if end > len(rows) {
			end = len(rows)
		}
		jobs <- chunkJob{index: i, rows: rows[start:end]}
		notify(Progress{Chunk: i, Chunks: chunkCount, State: ChunkQueued})
	}
	close(jobs)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	results := make([][]*transaction.Transaction, chunkCount)

	var (
		wg       sync.WaitGroup
		errOnce  sync.Once
		firstErr error
	)
	fail := func(err error) {
		errOnce.Do(func() {
			firstErr = err
			cancel()
		})
	}

	workers := s.workers
	if workers > chunkCount {
		workers = chunkCount
	}

	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for job := range jobs {
				if ctx.Err() != nil {
					return
				}
				notify(Progress{Chunk: job.index, Chunks: chunkCount, State: ChunkProcessing})

				start := time.Now()
				enriched, err := enricher.EnrichChunk(ctx, job.rows)
				if err != nil {
					fail(fmt.Errorf("chunk %d: %w", job.index, err))
					return
				}

				results[job.index] = enriched
				notify(Progress{Chunk: job.index, Chunks: chunkCount, State: ChunkDone})
				s.metrics.ObserveChunk(len(job.rows), time.Since(start))
			}
		}()
	}
	wg.Wait()

	if firstErr != nil {
		return nil, firstErr
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Reassemble by chunk index so output order matches input order.
	out := make([]*transaction.Transaction, 0, len(rows))
	for _, chunk := range results {
		out = append(out, chunk...)
	}
	return out, nil
}

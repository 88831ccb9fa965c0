package pipeline

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/rmoura-dev/statement-engine/internal/domain/categorize"
	"github.com/rmoura-dev/statement-engine/internal/domain/currency"
	"github.com/rmoura-dev/statement-engine/internal/domain/ingest"
	"github.com/rmoura-dev/statement-engine/internal/domain/ingest/parser"
	"github.com/rmoura-dev/statement-engine/internal/domain/ingest/sniffer"
	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
	"github.com/rmoura-dev/statement-engine/pkg/config"
	"github.com/rmoura-dev/statement-engine/pkg/money"
)

// FileTooLargeError means the upload exceeds the byte cap.
type FileTooLargeError struct {
	Size  int64
	Limit int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("file is %d bytes, limit is %d", e.Size, e.Limit)
}

// Batch is the result of processing one statement file.
type Batch struct {
	ID              uuid.UUID
	Transactions    []*transaction.Transaction
	PrimaryCurrency string
	Format          sniffer.Format
	Encoding        string
	TotalRows       int
	ParsedRows      int
	SkippedRows     int
	Warnings        []string
}

// Service runs the full statement pipeline: detect, decode, parse, enrich
// in chunks, elect a primary currency.
type Service struct {
	cfg         *config.Config
	scheduler   *Scheduler
	categorizer *categorize.Categorizer
	converter   *currency.Converter
	metrics     *Metrics
	logger      *slog.Logger
}

func NewService(cfg *config.Config, scheduler *Scheduler, categorizer *categorize.Categorizer, converter *currency.Converter, metrics *Metrics, logger *slog.Logger) *Service {
	return &Service{
		cfg:         cfg,
		scheduler:   scheduler,
		categorizer: categorizer,
		converter:   converter,
		metrics:     metrics,
		logger:      logger,
	}
}

// Process turns raw statement bytes into an enriched batch.
func (s *Service) Process(ctx context.Context, data []byte, filename string) (*Batch, error) {
	return s.ProcessWithProgress(ctx, data, filename, nil)
}

// ProcessWithProgress is Process with chunk progress reporting.
func (s *Service) ProcessWithProgress(ctx context.Context, data []byte, filename string, onProgress ProgressFunc) (*Batch, error) {
	start := time.Now()

	if limit := s.cfg.Processing.MaxFileSize; limit > 0 && int64(len(data)) > limit {
		return nil, &FileTooLargeError{Size: int64(len(data)), Limit: limit}
	}

	format, err := sniffer.DetectFormat(data, filename)
	if err != nil {
		return nil, err
	}

	batch := &Batch{
		ID:     uuid.New(),
		Format: format,
	}

	var result *parser.ParseResult
	switch format {
	case sniffer.FormatCSV:
		result, err = s.parseCSV(data, batch)
	case sniffer.FormatXLSX:
		result, err = s.parseXLSX(data)
	case sniffer.FormatPDF:
		result, err = s.parsePDF(data)
	default:
		return nil, ingest.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, err
	}

	batch.TotalRows = result.TotalRows
	batch.ParsedRows = result.ParsedRows
	batch.SkippedRows = result.SkippedRows
	for _, rowErr := range result.Errors {
		batch.Warnings = append(batch.Warnings, rowErr.Error())
	}

	enriched, err := s.scheduler.Process(ctx, result.Transactions, &batchEnricher{
		categorizer: s.categorizer,
	}, onProgress)
	if err != nil {
		return nil, err
	}
	batch.Transactions = enriched

	votes := make([]currency.Vote, len(enriched))
	for i, tx := range enriched {
		votes[i] = currency.Vote{Code: tx.Amount.Currency(), AbsoluteCents: abs(tx.Amount.Amount())}
	}
	batch.PrimaryCurrency = currency.Primary(votes, currency.VoteWeights{
		Frequency: s.cfg.Currency.FrequencyWeight,
		Value:     s.cfg.Currency.ValueWeight,
	})

	s.metrics.ObserveBatch()
	s.logger.Info("statement processed",
		slog.String("batch_id", batch.ID.String()),
		slog.String("format", string(format)),
		slog.String("primary_currency", batch.PrimaryCurrency),
		slog.Int("transactions", len(batch.Transactions)),
		slog.Int("skipped", batch.SkippedRows),
		slog.Int("warnings", len(batch.Warnings)),
		slog.Duration("took", time.Since(start)),
	)
	return batch, nil
}

// ConvertAll rewrites every transaction in the batch into the target
// currency. Rows whose rate is unavailable keep their original currency and
// add a warning; conversion never fails a batch.
func (s *Service) ConvertAll(ctx context.Context, batch *Batch, target string) {
	target = strings.ToUpper(target)
	failed := make(map[string]struct{})

	for _, tx := range batch.Transactions {
		if tx.Amount.Currency() == target {
			continue
		}
		converted, err := s.converter.Convert(ctx, tx.Amount, target)
		if err != nil {
			if errors.Is(err, currency.ErrRateUnavailable) {
				failed[tx.Amount.Currency()] = struct{}{}
				continue
			}
			batch.Warnings = append(batch.Warnings, err.Error())
			continue
		}
		tx.Amount = converted
	}

	for code := range failed {
		batch.Warnings = append(batch.Warnings,
			fmt.Sprintf("no exchange rate for %s/%s, amounts kept in %s", code, target, code))
	}
}

func (s *Service) parseCSV(data []byte, batch *Batch) (*parser.ParseResult, error) {
	text, encoding, err := sniffer.DecodeText(data)
	if err != nil {
		return nil, err
	}
	batch.Encoding = encoding

	cfg, err := sniffer.DetectConfig(text)
	if err != nil {
		return nil, err
	}

	european := sniffer.ProbeDecimalConvention(cfg.SampleRows, cfg.Columns)
	p := parser.New(parser.Config{
		Delimiter:      cfg.Delimiter,
		SkipLines:      cfg.SkipLines,
		EuropeanFormat: european,
		Columns:        cfg.Columns,
	})

	// Clean comma-delimited files with canonical headers take the tag-based
	// path; everything else goes through the detected column map.
	if cfg.SkipLines == 0 && cfg.Delimiter == ',' {
		return p.Parse(strings.NewReader(text))
	}
	return p.ParseWithColumns(strings.NewReader(text))
}

func (s *Service) parseXLSX(data []byte) (*parser.ParseResult, error) {
	p := parser.NewExcelParser(parser.Config{})
	return p.ParseExcel(bytes.NewReader(data))
}

func (s *Service) parsePDF(data []byte) (*parser.ParseResult, error) {
	p := parser.NewPDFParser(parser.Config{}, s.cfg.Processing.MaxPDFPages)
	return p.ParsePDF(data)
}

// batchEnricher resolves each row's currency and category. It is chunk
// scoped state-free, so results are independent of chunking.
type batchEnricher struct {
	categorizer *categorize.Categorizer
}

func (e *batchEnricher) EnrichChunk(ctx context.Context, chunk []parser.ParsedTransaction) ([]*transaction.Transaction, error) {
	out := make([]*transaction.Transaction, len(chunk))
	for i := range chunk {
		row := &chunk[i]

		code := currency.Detect(row)
		amount := money.New(row.AmountCents, code)

		category, confidence := e.resolveCategory(ctx, row)

		out[i] = &transaction.Transaction{
			Date:        row.Date,
			Description: row.Description,
			Amount:      amount,
			Category:    category,
			Confidence:  confidence,
			Type:        transaction.TypeFromAmount(amount),
			Row:         row.Row,
		}
	}
	return out, nil
}

// resolveCategory trusts an explicit, recognizable category column over the
// categorizer.
func (e *batchEnricher) resolveCategory(ctx context.Context, row *parser.ParsedTransaction) (transaction.Category, float64) {
	if raw := strings.ToLower(strings.TrimSpace(row.RawCategory)); raw != "" {
		if category, ok := transaction.ParseCategory(raw); ok {
			return category, 1.0
		}
	}
	return e.categorizer.Categorize(ctx, row.Description)
}

func abs(v int64) int64 {
	if v < 0 {
		return -v
	}
	return v
}

// Package commands wires the statement-engine CLI.
package commands

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rmoura-dev/statement-engine/internal/domain/budget"
	"github.com/rmoura-dev/statement-engine/internal/domain/categorize"
	"github.com/rmoura-dev/statement-engine/internal/domain/currency"
	"github.com/rmoura-dev/statement-engine/internal/domain/pipeline"
	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
	"github.com/rmoura-dev/statement-engine/pkg/config"
)

// app bundles the wired service graph behind the CLI commands.
type app struct {
	cfg       *config.Config
	logger    *slog.Logger
	service   *pipeline.Service
	converter *currency.Converter
	analyzer  *budget.Analyzer
}

func newApp(verbose bool) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))

	provider := currency.NewFallbackProvider(
		currency.NewHTTPProvider(cfg.Currency.RateURL, cfg.Currency.RateTimeout, float64(cfg.Currency.RatePerSecond)),
		currency.NewStaticProvider(),
	)
	converter := currency.NewConverter(provider, cfg.Currency.RateTTL, logger)

	var classifier categorize.Classifier
	if c, err := categorize.OpenClassifier(cfg.Classifier.ModelPath); err != nil {
		logger.Warn("no categorization model, using rules only", "path", cfg.Classifier.ModelPath, "error", err)
	} else {
		classifier = c
	}
	engine := categorize.NewRuleEngine(categorize.DefaultRules)
	categorizer := categorize.NewCategorizer(classifier, engine, cfg.Classifier.ConfidenceThreshold, logger)

	metrics := pipeline.NewMetrics(prometheus.DefaultRegisterer)
	scheduler := pipeline.NewScheduler(cfg.Processing.ChunkSize, cfg.Processing.MaxRows, cfg.Processing.Workers, metrics)
	service := pipeline.NewService(cfg, scheduler, categorizer, converter, metrics, logger)

	return &app{
		cfg:       cfg,
		logger:    logger,
		service:   service,
		converter: converter,
		analyzer:  budget.NewAnalyzer(budgetPercentages(cfg)),
	}, nil
}

// budgetPercentages maps configured overrides onto category keys, ignoring
// names outside the fixed set.
func budgetPercentages(cfg *config.Config) map[transaction.Category]float64 {
	if len(cfg.Budget.Percentages) == 0 {
		return nil
	}
	out := make(map[transaction.Category]float64, len(budget.DefaultPercentages))
	for category, share := range budget.DefaultPercentages {
		out[category] = share
	}
	for name, share := range cfg.Budget.Percentages {
		if category, ok := transaction.ParseCategory(name); ok {
			out[category] = share
		}
	}
	return out
}

func readStatement(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading statement: %w", err)
	}
	return data, nil
}

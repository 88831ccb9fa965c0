package categorize

import (
	"context"
	"errors"
	"log/slog"
	"sync"

	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
)

// Categorizer chains the classifier and the rule engine. The classifier
// wins when its confidence clears the threshold; otherwise keyword rules
// decide; otherwise the catch-all category with zero confidence.
type Categorizer struct {
	classifier Classifier // nil when no model is available
	engine     *RuleEngine
	threshold  float64
	logger     *slog.Logger

	warnOnce sync.Once
}

func NewCategorizer(classifier Classifier, engine *RuleEngine, threshold float64, logger *slog.Logger) *Categorizer {
	return &Categorizer{
		classifier: classifier,
		engine:     engine,
		threshold:  threshold,
		logger:     logger,
	}
}

// Categorize resolves one description. It never fails: a broken model
// degrades to rules with a single logged warning.
func (c *Categorizer) Categorize(ctx context.Context, description string) (transaction.Category, float64) {
	if c.classifier != nil {
		category, confidence, err := c.classifier.Predict(ctx, description)
		switch {
		case errors.Is(err, ErrModelUnavailable):
			c.warnOnce.Do(func() {
				c.logger.Warn("classifier unavailable, falling back to rules", "error", err)
			})
		case err != nil:
			c.logger.Debug("classifier prediction failed", "error", err)
		case confidence >= c.threshold:
			return category, confidence
		}
	}

	if category, confidence, ok := c.engine.Best(description); ok {
		return category, confidence
	}
	return transaction.CategoryOther, 0
}

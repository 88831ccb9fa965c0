package categorize

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/mapping"

	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
)

// ErrModelUnavailable means the trained model could not be loaded or
// queried. Categorization degrades to the rule engine; the batch records a
// warning.
var ErrModelUnavailable = errors.New("categorization model unavailable")

// Classifier predicts a category for a description with a confidence score.
// Predictions must be deterministic: the same text always yields the same
// result for a given model.
type Classifier interface {
	Predict(ctx context.Context, text string) (transaction.Category, float64, error)
}

// labeledDoc is the indexed form of one training example.
type labeledDoc struct {
	Text     string `json:"text"`
	Category string `json:"category"`
}

// LabeledExample is one training example for the classifier.
type LabeledExample struct {
	Text     string
	Category transaction.Category
}

// BleveClassifier scores descriptions against an index of labeled examples.
// The model artifact on disk is a Bleve index directory.
type BleveClassifier struct {
	index bleve.Index
}

// OpenClassifier loads the model index at path. A missing or corrupt model
// returns ErrModelUnavailable rather than a hard failure.
func OpenClassifier(path string) (*BleveClassifier, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	index, err := bleve.Open(path)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	return &BleveClassifier{index: index}, nil
}

// NewMemClassifier builds an in-memory classifier from labeled examples.
func NewMemClassifier(examples []LabeledExample) (*BleveClassifier, error) {
	index, err := bleve.NewMemOnly(buildModelMapping())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	c := &BleveClassifier{index: index}
	if err := c.indexExamples(examples); err != nil {
		return nil, err
	}
	return c, nil
}

// TrainClassifier writes a model index to path from labeled examples.
func TrainClassifier(path string, examples []LabeledExample) (*BleveClassifier, error) {
	index, err := bleve.New(path, buildModelMapping())
	if err != nil {
		return nil, fmt.Errorf("create model index: %w", err)
	}
	c := &BleveClassifier{index: index}
	if err := c.indexExamples(examples); err != nil {
		return nil, err
	}
	return c, nil
}

func buildModelMapping() mapping.IndexMapping {
	textFieldMapping := bleve.NewTextFieldMapping()
	textFieldMapping.Analyzer = "standard"

	categoryFieldMapping := bleve.NewKeywordFieldMapping()
	categoryFieldMapping.Store = true

	docMapping := bleve.NewDocumentMapping()
	docMapping.AddFieldMappingsAt("text", textFieldMapping)
	docMapping.AddFieldMappingsAt("category", categoryFieldMapping)

	indexMapping := bleve.NewIndexMapping()
	indexMapping.DefaultMapping = docMapping
	return indexMapping
}

func (c *BleveClassifier) indexExamples(examples []LabeledExample) error {
	batch := c.index.NewBatch()
	for i, ex := range examples {
		doc := labeledDoc{
			Text:     NormalizeDescription(ex.Text),
			Category: string(ex.Category),
		}
		if err := batch.Index(fmt.Sprintf("example-%d", i), doc); err != nil {
			return fmt.Errorf("index example: %w", err)
		}
	}
	if err := c.index.Batch(batch); err != nil {
		return fmt.Errorf("index examples: %w", err)
	}
	return nil
}

// Predict returns the category of the closest labeled example. Confidence
// maps the hit's relevance score onto (0,1) monotonically.
func (c *BleveClassifier) Predict(ctx context.Context, text string) (transaction.Category, float64, error) {
	normalized := NormalizeDescription(text)
	if normalized == "" {
		return transaction.CategoryOther, 0, nil
	}

	matchQuery := bleve.NewMatchQuery(normalized)
	matchQuery.SetField("text")
	matchQuery.SetFuzziness(1)

	searchRequest := bleve.NewSearchRequest(matchQuery)
	searchRequest.Size = 1
	searchRequest.Fields = []string{"category"}

	result, err := c.index.SearchInContext(ctx, searchRequest)
	if err != nil {
		return transaction.CategoryOther, 0, fmt.Errorf("%w: %v", ErrModelUnavailable, err)
	}
	if len(result.Hits) == 0 {
		return transaction.CategoryOther, 0, nil
	}

	hit := result.Hits[0]
	raw, _ := hit.Fields["category"].(string)
	category, ok := transaction.ParseCategory(raw)
	if !ok {
		return transaction.CategoryOther, 0, nil
	}

	// score/(score+1) squashes unbounded relevance into (0,1).
	confidence := hit.Score / (hit.Score + 1)
	return category, confidence, nil
}

// Close releases the underlying index.
func (c *BleveClassifier) Close() error {
	return c.index.Close()
}

// stopwords are noise tokens stripped before indexing and prediction.
var stopwords = map[string]struct{}{
	"the": {}, "and": {}, "for": {}, "with": {},
	"inc": {}, "llc": {}, "ltd": {}, "corp": {},
	"www": {}, "com": {}, "pos": {}, "ref": {},
}

// NormalizeDescription lowercases, strips punctuation and digits, and drops
// stopwords so "POS DEBIT STARBUCKS #1234" and "Starbucks Coffee" meet in
// the same token space.
func NormalizeDescription(text string) string {
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range strings.ToLower(text) {
		if r >= 'a' && r <= 'z' || r == ' ' {
			b.WriteRune(r)
		} else {
			b.WriteRune(' ')
		}
	}

	fields := strings.Fields(b.String())
	kept := fields[:0]
	for _, f := range fields {
		if _, skip := stopwords[f]; skip {
			continue
		}
		if len(f) < 2 {
			continue
		}
		kept = append(kept, f)
	}
	return strings.Join(kept, " ")
}

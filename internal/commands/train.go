package commands

import (
	"encoding/csv"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rmoura-dev/statement-engine/internal/domain/categorize"
	"github.com/rmoura-dev/statement-engine/internal/domain/transaction"
)

func newTrainCommand(verbose *bool) *cobra.Command {
	var outPath string

	cmd := &cobra.Command{
		Use:   "train <examples.csv>",
		Short: "Build a categorization model from labeled examples",
		Long:  "Reads a two-column CSV (description, category) and writes a model index usable by the other commands.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*verbose)
			if err != nil {
				return err
			}
			if outPath == "" {
				outPath = a.cfg.Classifier.ModelPath
			}

			examples, err := readExamples(args[0])
			if err != nil {
				return err
			}

			classifier, err := categorize.TrainClassifier(outPath, examples)
			if err != nil {
				return err
			}
			defer classifier.Close()

			fmt.Fprintf(cmd.OutOrStdout(), "trained model at %s from %d examples\n", outPath, len(examples))
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "model output path (default from config)")

	return cmd
}

func readExamples(path string) ([]categorize.LabeledExample, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening examples: %w", err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = 2

	records, err := reader.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("reading examples: %w", err)
	}

	examples := make([]categorize.LabeledExample, 0, len(records))
	for i, record := range records {
		category, ok := transaction.ParseCategory(record[1])
		if !ok {
			return nil, fmt.Errorf("line %d: unknown category %q", i+1, record[1])
		}
		examples = append(examples, categorize.LabeledExample{Text: record[0], Category: category})
	}
	if len(examples) == 0 {
		return nil, fmt.Errorf("no examples in %s", path)
	}
	return examples, nil
}

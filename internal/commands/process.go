package commands

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rmoura-dev/statement-engine/internal/domain/pipeline"
)

func newProcessCommand(verbose *bool) *cobra.Command {
	var convertTo string
	var showProgress bool
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "process <statement>",
		Short: "Parse and enrich a statement file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*verbose)
			if err != nil {
				return err
			}

			data, err := readStatement(args[0])
			if err != nil {
				return err
			}

			var onProgress pipeline.ProgressFunc
			if showProgress {
				onProgress = func(p pipeline.Progress) {
					if p.State == pipeline.ChunkDone {
						fmt.Fprintf(cmd.ErrOrStderr(), "chunk %d/%d done\n", p.Chunk+1, p.Chunks)
					}
				}
			}

			batch, err := a.service.ProcessWithProgress(cmd.Context(), data, args[0], onProgress)
			if err != nil {
				return err
			}

			if convertTo != "" {
				a.service.ConvertAll(cmd.Context(), batch, convertTo)
			}

			if asJSON {
				enc := json.NewEncoder(cmd.OutOrStdout())
				enc.SetIndent("", "  ")
				return enc.Encode(batch)
			}
			printBatchSummary(cmd, batch)
			return nil
		},
	}

	cmd.Flags().StringVar(&convertTo, "convert", "", "convert all amounts to this currency (ISO code)")
	cmd.Flags().BoolVar(&showProgress, "progress", false, "print chunk progress")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print the batch as JSON")

	return cmd
}

func printBatchSummary(cmd *cobra.Command, batch *pipeline.Batch) {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "batch:            %s\n", batch.ID)
	fmt.Fprintf(out, "format:           %s\n", batch.Format)
	if batch.Encoding != "" {
		fmt.Fprintf(out, "encoding:         %s\n", batch.Encoding)
	}
	fmt.Fprintf(out, "primary currency: %s\n", batch.PrimaryCurrency)
	fmt.Fprintf(out, "transactions:     %d (of %d rows, %d skipped)\n",
		len(batch.Transactions), batch.TotalRows, batch.SkippedRows)

	for _, tx := range batch.Transactions {
		fmt.Fprintf(out, "%s  %-40s %12s  %s (%.2f)\n",
			tx.Date.Format("2006-01-02"), tx.Description, tx.Amount.Display(), tx.Category, tx.Confidence)
	}

	if len(batch.Warnings) > 0 {
		fmt.Fprintf(out, "\nwarnings:\n")
		for _, w := range batch.Warnings {
			fmt.Fprintf(out, "  - %s\n", w)
		}
	}
}

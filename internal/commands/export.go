package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/rmoura-dev/statement-engine/internal/domain/export"
)

func newExportCommand(verbose *bool) *cobra.Command {
	var outPath string
	var convertTo string

	cmd := &cobra.Command{
		Use:   "export <statement>",
		Short: "Normalize a statement and write it out as CSV",
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

			batch, err := a.service.Process(cmd.Context(), data, args[0])
			if err != nil {
				return err
			}
			if convertTo != "" {
				a.service.ConvertAll(cmd.Context(), batch, convertTo)
			}

			w := cmd.OutOrStdout()
			if outPath != "" {
				f, err := os.Create(outPath)
				if err != nil {
					return fmt.Errorf("creating output file: %w", err)
				}
				defer f.Close()
				w = f
			}

			if err := export.WriteCSV(w, batch.Transactions); err != nil {
				return err
			}
			for _, warning := range batch.Warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %s\n", warning)
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&outPath, "out", "o", "", "output file (default stdout)")
	cmd.Flags().StringVar(&convertTo, "convert", "", "convert all amounts to this currency first")

	return cmd
}

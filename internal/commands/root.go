package commands

import (
	"github.com/spf13/cobra"
)

// NewRootCommand creates the root CLI command with all subcommands registered.
func NewRootCommand() *cobra.Command {
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "statement-engine",
		Short: "Normalize bank statements and recommend budgets",
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		SilenceUsage: true,
	}
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug logging")

	rootCmd.AddCommand(newProcessCommand(&verbose))
	rootCmd.AddCommand(newAnalyzeCommand(&verbose))
	rootCmd.AddCommand(newExportCommand(&verbose))
	rootCmd.AddCommand(newRatesCommand(&verbose))
	rootCmd.AddCommand(newTrainCommand(&verbose))

	return rootCmd
}

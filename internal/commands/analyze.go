package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newAnalyzeCommand(verbose *bool) *cobra.Command {
	var convert bool

	cmd := &cobra.Command{
		Use:   "analyze <statement>",
		Short: "Build spending analysis and budget recommendations",
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
			if convert {
				a.service.ConvertAll(cmd.Context(), batch, batch.PrimaryCurrency)
			}

			out := cmd.OutOrStdout()
			analysis := a.analyzer.Analyze(batch.Transactions, batch.PrimaryCurrency)
			fmt.Fprintf(out, "period:        %s to %s\n", analysis.From.Format("2006-01-02"), analysis.To.Format("2006-01-02"))
			fmt.Fprintf(out, "income:        %s\n", analysis.TotalIncome.Display())
			fmt.Fprintf(out, "expenses:      %s\n", analysis.TotalExpenses.Display())
			fmt.Fprintf(out, "net:           %s\n", analysis.Net.Display())
			fmt.Fprintf(out, "daily average: %s\n", analysis.AverageDaily.Display())

			if len(analysis.TopMerchants) > 0 {
				fmt.Fprintf(out, "\ntop merchants:\n")
				for _, m := range analysis.TopMerchants {
					fmt.Fprintf(out, "  %-40s %12s  (%d)\n", m.Merchant, m.Total.Display(), m.Count)
				}
			}

			plan := a.analyzer.Plan(batch.Transactions, batch.PrimaryCurrency)
			if plan.MonthlyIncome == nil {
				fmt.Fprintf(out, "\nno income found across %d month(s); skipping budget recommendations\n", plan.Months)
				return nil
			}

			fmt.Fprintf(out, "\nmonthly income: %s over %d month(s)\n", plan.MonthlyIncome.Display(), plan.Months)
			fmt.Fprintf(out, "\n%-15s %14s %14s %14s\n", "category", "recommended", "actual/month", "difference")
			for _, rec := range plan.Recommendations {
				fmt.Fprintf(out, "%-15s %14s %14s %14s\n",
					rec.Category, rec.Recommended.Display(), rec.ActualMonthly.Display(), rec.Difference.Display())
			}

			if len(plan.Alerts) > 0 {
				fmt.Fprintf(out, "\nalerts:\n")
				for _, alert := range plan.Alerts {
					fmt.Fprintf(out, "  [%s] %s: spending %s against a %s budget\n",
						alert.Severity, alert.Category, alert.ActualMonthly.Display(), alert.Recommended.Display())
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&convert, "convert", false, "convert all amounts to the primary currency first")

	return cmd
}

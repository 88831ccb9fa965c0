package commands

import (
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/rmoura-dev/statement-engine/pkg/cron"
)

func newRatesCommand(verbose *bool) *cobra.Command {
	var watch bool
	var schedule string

	cmd := &cobra.Command{
		Use:   "rates <from> <to>",
		Short: "Look up an exchange rate",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := newApp(*verbose)
			if err != nil {
				return err
			}

			from := strings.ToUpper(args[0])
			to := strings.ToUpper(args[1])

			rate, err := a.converter.Rate(cmd.Context(), from, to)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "1 %s = %s %s\n", from, rate.String(), to)

			if !watch {
				return nil
			}

			scheduler := cron.NewScheduler(a.converter, a.logger)
			if err := scheduler.Start(schedule); err != nil {
				return err
			}
			defer scheduler.Stop()

			sig := make(chan os.Signal, 1)
			signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
			<-sig
			return nil
		},
	}

	cmd.Flags().BoolVar(&watch, "watch", false, "keep refreshing the rate in the background until interrupted")
	cmd.Flags().StringVar(&schedule, "schedule", "@every 45m", "refresh schedule in cron syntax")

	return cmd
}

package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
)

func newWeekCmd() *cobra.Command {
	var yes bool

	cmd := &cobra.Command{
		Use:   "new-week",
		Short: "Archive the current week and start an empty one",
		RunE: func(cmd *cobra.Command, _ []string) error {
			if !yes {
				return errors.New("new-week empties the ledger; pass --yes to confirm")
			}
			return withLedger(cmd, func(svc ledgerService) error {
				closed, err := svc.StartNewWeek(cmd.Context())
				if err != nil {
					return err
				}
				if closed.Empty() {
					fmt.Fprintln(cmd.OutOrStdout(), "New week started.")
					return nil
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Closed week %d / %d: %d expenses, %s. New week started.\n",
					closed.Week, closed.Year, len(closed.Entries), closed.Total.Display())
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&yes, "yes", "y", false, "confirm")
	return cmd
}

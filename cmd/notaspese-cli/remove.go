package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"notaspese/internal/core"
)

func removeCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "remove <number>",
		Aliases: []string{"rm"},
		Short:   "Delete an expense by the number shown by list",
		Args:    cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := strconv.Atoi(args[0])
			if err != nil {
				return fmt.Errorf("invalid expense number %q", args[0])
			}
			return withLedger(cmd, func(svc ledgerService) error {
				if n < 1 {
					return &core.IndexError{Index: n - 1, Len: len(svc.Snapshot().Entries)}
				}
				e, err := svc.RemoveExpense(cmd.Context(), n-1)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "Removed #%d: %s %s\n", n, e.Description, e.Amount.Display())
				return nil
			})
		},
	}
}

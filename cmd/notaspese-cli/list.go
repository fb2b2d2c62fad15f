package main

import (
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"notaspese/internal/services"
)

func listCmd() *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "Show the expenses of the current week",
		RunE: func(cmd *cobra.Command, _ []string) error {
			return withLedger(cmd, func(svc ledgerService) error {
				printLedger(cmd.OutOrStdout(), svc.Snapshot())
				return nil
			})
		},
	}
}

// printLedger writes the ledger as a table numbered from 1, the numbers
// "remove" accepts.
func printLedger(out io.Writer, snap services.Snapshot) {
	if snap.Empty() {
		fmt.Fprintln(out, "No expenses recorded this week.")
		return
	}

	fmt.Fprintf(out, "Week %d / %d\n\n", snap.Week, snap.Year)
	tw := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "#\tDATE\tDESCRIPTION\tCATEGORY\tAMOUNT\tPHOTO")
	for i, e := range snap.Entries {
		photo := ""
		if e.HasPhoto() {
			photo = "yes"
		}
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			strconv.Itoa(i+1), e.Date.Display(), e.Description, e.Category.Label(), e.Amount.Display(), photo)
	}
	fmt.Fprintf(tw, "\t\t\tTOTAL\t%s\t\n", snap.Total.Display())
	_ = tw.Flush()
}

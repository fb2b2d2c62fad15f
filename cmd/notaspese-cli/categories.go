package main

import (
	"fmt"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"notaspese/internal/core"
)

func categoriesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the expense categories and their spreadsheet columns",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(tw, "KEY\tLABEL\tCOLUMN")
			for _, c := range core.Categories() {
				fmt.Fprintf(tw, "%s\t%s\t%s\n", c.Key(), c.Label(), c.Column())
			}
			return tw.Flush()
		},
	}
}

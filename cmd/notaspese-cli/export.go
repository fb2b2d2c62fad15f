package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"notaspese/internal/services"
)

func exportCmd() *cobra.Command {
	var outDir string

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Generate the weekly spreadsheet or the receipt photo sheet",
	}
	cmd.PersistentFlags().StringVarP(&outDir, "out", "o", ".", "output directory")

	cmd.AddCommand(&cobra.Command{
		Use:   "spreadsheet",
		Short: "Fill the expense-report template (.xlsx)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, outDir, ledgerService.ExportSpreadsheet)
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "photos",
		Short: "Lay out the receipt photos on a PDF, three per page",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runExport(cmd, outDir, ledgerService.ExportPhotoSheet)
		},
	})
	return cmd
}

func runExport(cmd *cobra.Command, outDir string, export func(ledgerService, context.Context) (services.Download, error)) error {
	return withLedger(cmd, func(svc ledgerService) error {
		d, err := export(svc, cmd.Context())
		if err != nil {
			return err
		}
		if err := os.MkdirAll(outDir, 0o755); err != nil {
			return fmt.Errorf("create output directory: %w", err)
		}
		path := filepath.Join(outDir, d.Filename)
		if err := os.WriteFile(path, d.Data, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", path, err)
		}
		for _, w := range d.Warnings {
			fmt.Fprintln(cmd.ErrOrStderr(), "warning:", w)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d bytes)\n", path, len(d.Data))
		return nil
	})
}

// Command notaspese-cli manages the weekly expense ledger from a terminal.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"notaspese/internal/cli"
	"notaspese/internal/config"
	"notaspese/internal/core"
	applog "notaspese/internal/log"
	"notaspese/internal/services"
)

// ledgerService is the part of services.LedgerService the commands use.
type ledgerService interface {
	Snapshot() services.Snapshot
	AddExpense(ctx context.Context, in services.NewExpense) (core.Entry, error)
	RemoveExpense(ctx context.Context, index int) (core.Entry, error)
	StartNewWeek(ctx context.Context) (services.Snapshot, error)
	ExportSpreadsheet(ctx context.Context) (services.Download, error)
	ExportPhotoSheet(ctx context.Context) (services.Download, error)
}

// openLedger builds the ledger service from the environment. Replaced in
// tests.
var openLedger = func(ctx context.Context, logger *applog.Logger) (ledgerService, func(), error) {
	cfg := config.Load()
	if err := cfg.Validate(); err != nil {
		return nil, nil, err
	}
	app, err := cli.BuildApp(ctx, cfg, logger)
	if err != nil {
		return nil, nil, err
	}
	return app.Service, func() {
		if err := app.Close(); err != nil {
			logger.Error("Failed to close ledger store", applog.FieldError, err)
		}
	}, nil
}

func newRootCmd() *cobra.Command {
	var logLevel string

	root := &cobra.Command{
		Use:           "notaspese-cli",
		Short:         "Weekly expense report from the terminal",
		Long:          "notaspese-cli records the expenses of the current week, exports the\nspreadsheet and the receipt photos, and starts a new week.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cli.LoadEnvFile()
			var level slog.Level
			if err := level.UnmarshalText([]byte(logLevel)); err != nil {
				return fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
			}
			applog.SetDefault(applog.New(applog.Config{
				Level:     level,
				Component: applog.ComponentCLI,
				Output:    cmd.ErrOrStderr(),
			}))
			return nil
		},
	}
	root.PersistentFlags().StringVar(&logLevel, "log-level", "warn", "log level (debug, info, warn, error)")

	root.AddCommand(addCmd())
	root.AddCommand(listCmd())
	root.AddCommand(removeCmd())
	root.AddCommand(newWeekCmd())
	root.AddCommand(exportCmd())
	root.AddCommand(categoriesCmd())
	return root
}

// withLedger opens the ledger for the duration of fn.
func withLedger(cmd *cobra.Command, fn func(ledgerService) error) error {
	logger := applog.New(applog.Config{Component: applog.ComponentCLI, Handler: slog.Default().Handler()})
	svc, closeFn, err := openLedger(cmd.Context(), logger)
	if err != nil {
		return fmt.Errorf("open ledger: %w", err)
	}
	if closeFn != nil {
		defer closeFn()
	}
	return fn(svc)
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()

	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", describe(err))
		os.Exit(1)
	}
}

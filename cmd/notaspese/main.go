package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"time"

	"notaspese/internal/cli"
	apphttp "notaspese/internal/http"
	applog "notaspese/internal/log"
)

func main() {
	cli.LoadEnvFile()

	bootstrap := cli.SetupLogger(applog.DefaultConfig().Level, applog.ComponentApp)
	cfg := cli.LoadAndValidateConfig(bootstrap, nil)
	logger := cli.SetupLogger(cfg.LogLevel, applog.ComponentApp)

	app, err := cli.BuildApp(context.Background(), cfg, logger)
	if err != nil {
		logger.Error("Failed to initialize ledger", applog.FieldError, err, "backend", cfg.DataBackend)
		os.Exit(1)
	}

	readyStats := map[string]apphttp.ReadyStat{
		"photo_cache": func(context.Context) (any, error) {
			return app.PhotoCache.Stats(), nil
		},
	}
	if app.Store.LastSaved != nil {
		readyStats["ledger_store"] = func(ctx context.Context) (any, error) {
			saved, err := app.Store.LastSaved(ctx)
			if err != nil {
				return nil, err
			}
			if saved.IsZero() {
				return map[string]any{"backend": app.Store.Kind}, nil
			}
			return map[string]any{"backend": app.Store.Kind, "saved_at": saved.Format(time.RFC3339)}, nil
		}
	}

	srv := apphttp.NewServer(apphttp.Config{
		Addr:          ":" + cfg.Port,
		Ledger:        app.Service,
		Logger:        logger,
		PhotosEnabled: app.PhotosEnabled,
		ReadyChecks: map[string]apphttp.ReadyCheck{
			"spreadsheet_template": func(context.Context) error {
				_, err := os.Stat(cfg.TemplatePath)
				return err
			},
		},
		ReadyStats: readyStats,
	})
	srv.MaxHeaderBytes = 1 << 16 // 64KB

	ctx, done := cli.GracefulShutdown(logger, 30*time.Second, func(ctx context.Context) {
		if err := srv.Shutdown(ctx); err != nil {
			logger.Error("Server shutdown error", applog.FieldError, err)
		}
		if err := app.Close(); err != nil {
			logger.Error("Failed to close ledger store", applog.FieldError, err)
		}
	})

	logger.Info("Starting notaspese server",
		"port", cfg.Port,
		"backend", app.Store.Kind,
		"photos", app.PhotosEnabled,
		"archive", app.Publisher != nil)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("Server error", applog.FieldError, err, "port", cfg.Port)
		os.Exit(1)
	}

	cli.WaitForShutdown(ctx, done)
	logger.Info("Server stopped gracefully")
}

package cli

import (
	"context"
	"fmt"

	"notaspese/internal/amqp"
	"notaspese/internal/backend"
	"notaspese/internal/config"
	"notaspese/internal/ledger"
	applog "notaspese/internal/log"
	"notaspese/internal/photos"
	"notaspese/internal/projector/photosheet"
	"notaspese/internal/projector/spreadsheet"
	"notaspese/internal/services"
)

// App holds the ledger service and the resources behind it. Shared by the
// web server and the terminal client.
type App struct {
	Service   *services.LedgerService
	Store     *backend.Result
	Publisher *amqp.Client
	// PhotoCache serves photo-sheet downloads.
	PhotoCache *photos.CachedFetcher
	// PhotosEnabled is true when a photo host is configured.
	PhotosEnabled bool
}

// BuildApp wires the store, the photo host, both projectors and, when
// AMQP_URL is set, the week-closed publisher. The ledger is hydrated.
func BuildApp(ctx context.Context, cfg *config.Config, logger *applog.Logger) (*App, error) {
	store, err := backend.NewFactory(logger.WithComponent(applog.ComponentBackend).Logger).CreateStore(ctx, cfg)
	if err != nil {
		return nil, err
	}

	app := &App{
		Store:      store,
		PhotoCache: photos.NewCachedFetcher(photos.NewFetcher(cfg.PhotoTimeout, nil), photos.DefaultCacheEntries, cfg.PhotoCacheTTL),
	}
	opts := services.Options{
		Spreadsheet: spreadsheet.New(cfg.TemplatePath),
		PhotoSheet:  photosheet.New(app.PhotoCache),
	}

	if cfg.PhotoUploadURL != "" {
		uploader, err := photos.NewUploader(photos.UploaderConfig{
			Endpoint: cfg.PhotoUploadURL,
			APIKey:   cfg.PhotoAPIKey,
			Timeout:  cfg.PhotoTimeout,
		})
		if err != nil {
			_ = store.Close()
			return nil, fmt.Errorf("photo uploader: %w", err)
		}
		opts.Uploader = uploader
		app.PhotosEnabled = true
	} else {
		logger.Info("Photo upload disabled - no PHOTO_UPLOAD_URL provided")
	}

	if cfg.AMQPURL != "" {
		client, err := amqp.NewClient(cfg.AMQPURL, cfg.AMQPExchange, cfg.AMQPQueue)
		if err != nil {
			// archiving is best-effort; the ledger works without it
			logger.Warn("AMQP unavailable, closed weeks will not be archived",
				applog.FieldError, err,
				applog.FieldComponent, applog.ComponentAMQP)
		} else {
			app.Publisher = client
			opts.Publisher = client
		}
	}

	app.Service = services.NewLedgerService(ledger.New(store.Store), opts)
	app.Service.Hydrate(ctx)
	return app, nil
}

// Close releases the publisher and the store.
func (a *App) Close() error {
	if a.Publisher != nil {
		_ = a.Publisher.Close()
	}
	return a.Store.Close()
}

// Package backend builds the ledger store selected by DATA_BACKEND.
package backend

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"notaspese/internal/config"
	"notaspese/internal/ledger"
	"notaspese/internal/storage"
	"notaspese/internal/storage/memory"
	"notaspese/internal/storage/remote"
)

// CleanupFunc releases the resources held by a store.
type CleanupFunc func() error

// Result contains the store and an optional cleanup function.
type Result struct {
	Store   ledger.Store
	Kind    string
	Cleanup CleanupFunc
	// LastSaved reports when the document was last written. Nil when the
	// store does not track it.
	LastSaved func(ctx context.Context) (time.Time, error)
}

// Close runs the cleanup function, if any.
func (r *Result) Close() error {
	if r == nil || r.Cleanup == nil {
		return nil
	}
	return r.Cleanup()
}

type Factory struct {
	logger *slog.Logger
}

func NewFactory(logger *slog.Logger) *Factory {
	if logger == nil {
		logger = slog.Default()
	}
	return &Factory{logger: logger}
}

// CreateStore builds the ledger store for cfg.DataBackend.
func (f *Factory) CreateStore(_ context.Context, cfg *config.Config) (*Result, error) {
	if cfg == nil {
		return nil, fmt.Errorf("app config is nil")
	}

	switch cfg.DataBackend {
	case config.BackendRemote:
		return f.createRemote(cfg)
	case config.BackendSQLite:
		return f.createSQLite(cfg)
	case config.BackendMemory:
		return f.createMemory(cfg), nil
	default:
		return nil, fmt.Errorf("unsupported backend type: %s", cfg.DataBackend)
	}
}

func (f *Factory) createRemote(cfg *config.Config) (*Result, error) {
	client, err := remote.NewClient(remote.Config{
		BaseURL:    cfg.LedgerStoreURL,
		DocumentID: cfg.LedgerDocumentID,
		APIKey:     cfg.LedgerStoreKey,
		KeyHeader:  cfg.LedgerStoreKeyHeader,
		Timeout:    cfg.LedgerTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize remote ledger store: %w", err)
	}

	f.logger.Info("Initialized remote ledger store",
		"url", cfg.LedgerStoreURL,
		"document", cfg.LedgerDocumentID,
		"timeout", cfg.LedgerTimeout)
	return &Result{Store: client, Kind: config.BackendRemote}, nil
}

func (f *Factory) createSQLite(cfg *config.Config) (*Result, error) {
	repo, err := storage.NewSQLiteRepository(cfg.SQLiteDBPath, cfg.LedgerDocumentID)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize SQLite repository: %w", err)
	}

	f.logger.Info("Initialized SQLite ledger store", "db_path", cfg.SQLiteDBPath)
	return &Result{Store: repo, Kind: config.BackendSQLite, Cleanup: repo.Close, LastSaved: repo.UpdatedAt}, nil
}

func (f *Factory) createMemory(cfg *config.Config) *Result {
	var store *memory.Store
	if cfg.MemorySeedFile != "" {
		store = memory.NewFromFile(cfg.MemorySeedFile)
	} else {
		store = memory.New()
	}

	f.logger.Info("Initialized memory ledger store", "seed_file", cfg.MemorySeedFile)
	return &Result{Store: store, Kind: config.BackendMemory}
}

package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"notaspese/internal/core"
	"notaspese/internal/ledger"
	"notaspese/internal/storage/document"

	_ "modernc.org/sqlite"
)

// DefaultDocumentID is the key of the ledger document.
const DefaultDocumentID = "current"

var _ ledger.Store = (*SQLiteRepository)(nil)

// SQLiteRepository keeps the ledger document in a local SQLite database,
// using the same JSON document as the remote store.
type SQLiteRepository struct {
	db         *sql.DB
	documentID string
}

func NewSQLiteRepository(dbPath, documentID string) (*SQLiteRepository, error) {
	if err := os.MkdirAll(filepath.Dir(dbPath), 0755); err != nil {
		return nil, fmt.Errorf("create db directory: %w", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("open sqlite database: %w", err)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	if err := RunMigrations(dbPath); err != nil {
		db.Close()
		return nil, fmt.Errorf("run migrations: %w", err)
	}

	if documentID == "" {
		documentID = DefaultDocumentID
	}
	return &SQLiteRepository{db: db, documentID: documentID}, nil
}

func (r *SQLiteRepository) Close() error {
	if r.db != nil {
		return r.db.Close()
	}
	return nil
}

// Load implements ledger.Store. A missing or unreadable document is an
// empty ledger.
func (r *SQLiteRepository) Load(ctx context.Context) []core.Entry {
	var body string
	err := r.db.QueryRowContext(ctx,
		`SELECT body FROM ledger_documents WHERE id = ?`, r.documentID).Scan(&body)
	if errors.Is(err, sql.ErrNoRows) {
		return []core.Entry{}
	}
	if err != nil {
		slog.WarnContext(ctx, "Ledger document query failed, starting with an empty ledger",
			"id", r.documentID, "error", err)
		return []core.Entry{}
	}

	entries, err := document.Decode([]byte(body))
	if err != nil {
		slog.WarnContext(ctx, "Ledger document unreadable, starting with an empty ledger",
			"id", r.documentID, "error", err)
		return []core.Entry{}
	}
	return entries
}

// Save implements ledger.Store.
func (r *SQLiteRepository) Save(ctx context.Context, entries []core.Entry) error {
	body, err := document.Encode(entries)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO ledger_documents (id, body, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET body = excluded.body, updated_at = excluded.updated_at`,
		r.documentID, string(body), time.Now().UTC())
	if err != nil {
		return fmt.Errorf("save ledger document: %w", err)
	}

	slog.DebugContext(ctx, "Ledger document saved to SQLite", "id", r.documentID, "entries", len(entries))
	return nil
}

// UpdatedAt returns when the document was last saved, or the zero time if it
// never was.
func (r *SQLiteRepository) UpdatedAt(ctx context.Context) (time.Time, error) {
	var updated time.Time
	err := r.db.QueryRowContext(ctx,
		`SELECT updated_at FROM ledger_documents WHERE id = ?`, r.documentID).Scan(&updated)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, nil
	}
	if err != nil {
		return time.Time{}, fmt.Errorf("get document timestamp: %w", err)
	}
	return updated, nil
}

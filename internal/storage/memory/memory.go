// Package memory is a process-local ledger store for development and tests.
package memory

import (
	"context"
	"log/slog"
	"os"
	"slices"
	"sync"

	"notaspese/internal/core"
	"notaspese/internal/ledger"
	"notaspese/internal/storage/document"
)

var _ ledger.Store = (*Store)(nil)

type Store struct {
	mu      sync.Mutex
	entries []core.Entry
	saves   int
	failErr error
}

func New(entries ...core.Entry) *Store {
	return &Store{entries: slices.Clone(entries)}
}

// NewFromFile seeds the store from a ledger document on disk. A missing or
// unreadable file gives an empty store.
func NewFromFile(path string) *Store {
	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			slog.Warn("Seed document unreadable", "path", path, "error", err)
		}
		return New()
	}
	entries, err := document.Decode(data)
	if err != nil {
		slog.Warn("Seed document malformed", "path", path, "error", err)
		return New()
	}
	return New(entries...)
}

func (s *Store) Load(_ context.Context) []core.Entry {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.entries)
}

func (s *Store) Save(_ context.Context, entries []core.Entry) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failErr != nil {
		return s.failErr
	}
	s.entries = slices.Clone(entries)
	s.saves++
	return nil
}

// FailWith makes every following Save return err. A nil err restores
// normal behaviour.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failErr = err
}

// Saves returns the number of successful saves.
func (s *Store) Saves() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.saves
}

// Package ledger holds the weekly ledger: the ordered, not yet submitted
// expenses of the current week, mirrored to a durable store on every change.
package ledger

import (
	"context"
	"log/slog"
	"slices"

	"notaspese/internal/core"
)

// Store persists the whole ledger as one document.
type Store interface {
	// Load returns the stored entries in insertion order. Failures are
	// reported as an empty ledger.
	Load(ctx context.Context) []core.Entry
	// Save replaces the stored document with entries.
	Save(ctx context.Context, entries []core.Entry) error
}

// Ledger is owned by a single session and is not safe for concurrent use.
// After every exported method returns, the in-memory entries equal the last
// durably saved ones.
type Ledger struct {
	store   Store
	entries []core.Entry
}

// New creates an empty ledger backed by store.
func New(store Store) *Ledger {
	return &Ledger{store: store}
}

// Hydrate replaces the in-memory entries with the stored ones.
func (l *Ledger) Hydrate(ctx context.Context) {
	l.entries = slices.Clone(l.store.Load(ctx))
	slog.InfoContext(ctx, "Ledger hydrated", "entries", len(l.entries))
}

// Add validates e and appends it. Invalid entries never reach the store.
func (l *Ledger) Add(ctx context.Context, e core.Entry) error {
	if err := e.Validate(); err != nil {
		return err
	}
	next := append(slices.Clone(l.entries), e)
	return l.commit(ctx, "add", next)
}

// Remove deletes the entry at index. On a failed save the entry is back at
// its original position.
func (l *Ledger) Remove(ctx context.Context, index int) error {
	if index < 0 || index >= len(l.entries) {
		return &core.IndexError{Index: index, Len: len(l.entries)}
	}
	next := slices.Delete(slices.Clone(l.entries), index, index+1)
	return l.commit(ctx, "remove", next)
}

// Clear empties the ledger to start a new week.
func (l *Ledger) Clear(ctx context.Context) error {
	return l.commit(ctx, "clear", []core.Entry{})
}

// commit installs next, saves it and restores the previous entries if the
// save fails.
func (l *Ledger) commit(ctx context.Context, op string, next []core.Entry) error {
	prev := l.entries
	l.entries = next
	if err := l.store.Save(ctx, slices.Clone(next)); err != nil {
		l.entries = prev
		slog.ErrorContext(ctx, "Ledger save failed, mutation rolled back",
			"operation", op,
			"entries", len(prev),
			"error", err)
		return &core.PersistenceError{Op: op, Err: err}
	}
	slog.InfoContext(ctx, "Ledger saved", "operation", op, "entries", len(next))
	return nil
}

// Total is the sum of all amounts.
func (l *Ledger) Total() core.Money {
	var total core.Money
	for _, e := range l.entries {
		total = total.Add(e.Amount)
	}
	return total
}

// Len returns the number of entries.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of the entries in insertion order.
func (l *Ledger) Entries() []core.Entry {
	return slices.Clone(l.entries)
}

// First returns the first inserted entry.
func (l *Ledger) First() (core.Entry, bool) {
	if len(l.entries) == 0 {
		return core.Entry{}, false
	}
	return l.entries[0], true
}

// WithPhotos returns the entries carrying a photo URL, in ledger order.
func (l *Ledger) WithPhotos() []core.Entry {
	var out []core.Entry
	for _, e := range l.entries {
		if e.HasPhoto() {
			out = append(out, e)
		}
	}
	return out
}

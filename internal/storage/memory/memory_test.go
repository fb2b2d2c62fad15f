package memory

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaspese/internal/core"
)

func entry(desc string, cents int64) core.Entry {
	return core.Entry{
		Date:        core.NewDate(2025, 1, 6),
		Description: desc,
		Category:    core.ReceiptCash,
		Amount:      core.Money{Cents: cents},
	}
}

func TestStoreSaveAndLoad(t *testing.T) {
	ctx := context.Background()
	s := New()
	assert.Empty(t, s.Load(ctx))

	require.NoError(t, s.Save(ctx, []core.Entry{entry("a", 100), entry("b", 200)}))
	got := s.Load(ctx)
	require.Len(t, got, 2)
	assert.Equal(t, "a", got[0].Description)
	assert.Equal(t, 1, s.Saves())

	got[0].Description = "mutated"
	assert.Equal(t, "a", s.Load(ctx)[0].Description)
}

func TestStoreFailWith(t *testing.T) {
	ctx := context.Background()
	s := New(entry("a", 100))
	boom := errors.New("boom")

	s.FailWith(boom)
	assert.ErrorIs(t, s.Save(ctx, nil), boom)
	assert.Len(t, s.Load(ctx), 1)

	s.FailWith(nil)
	require.NoError(t, s.Save(ctx, nil))
	assert.Empty(t, s.Load(ctx))
}

func TestNewFromFile(t *testing.T) {
	dir := t.TempDir()

	// Missing file gives an empty store
	assert.Empty(t, NewFromFile(filepath.Join(dir, "missing.json")).Load(context.Background()))

	path := filepath.Join(dir, "seed.json")
	body := `{"spese":[{"date":"2025-01-06","description":"Client lunch","category":"Receipts – cash","amount":15.5,"photo_url":null}]}`
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))

	got := NewFromFile(path).Load(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "Client lunch", got[0].Description)
	assert.Equal(t, int64(1550), got[0].Amount.Cents)

	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o644))
	assert.Empty(t, NewFromFile(path).Load(context.Background()))
}

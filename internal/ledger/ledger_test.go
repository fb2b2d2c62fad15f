package ledger

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaspese/internal/core"
)

type fakeStore struct {
	loaded []core.Entry
	saved  [][]core.Entry
	fail   bool
}

func (f *fakeStore) Load(ctx context.Context) []core.Entry { return f.loaded }

func (f *fakeStore) Save(ctx context.Context, entries []core.Entry) error {
	if f.fail {
		return errors.New("remote store unavailable")
	}
	f.saved = append(f.saved, entries)
	return nil
}

func (f *fakeStore) last() []core.Entry {
	if len(f.saved) == 0 {
		return nil
	}
	return f.saved[len(f.saved)-1]
}

func entry(desc string, cents int64, c core.Category) core.Entry {
	return core.Entry{
		Date:        core.NewDate(2025, 1, 6),
		Description: desc,
		Category:    c,
		Amount:      core.Money{Cents: cents},
	}
}

func TestAddAppendsAndSaves(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	l := New(store)

	require.NoError(t, l.Add(ctx, entry("Client lunch", 1550, core.ReceiptCash)))
	assert.Equal(t, 1, l.Len())
	assert.Equal(t, core.Money{Cents: 1550}, l.Total())
	assert.Equal(t, l.Entries(), store.last())

	require.NoError(t, l.Add(ctx, entry("Taxi", 2000, core.InvoiceCash)))
	assert.Equal(t, []string{"Client lunch", "Taxi"}, descriptions(l.Entries()))
	assert.Equal(t, core.Money{Cents: 3550}, l.Total())
}

func TestAddRejectsInvalidWithoutNetworkWrite(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	l := New(store)
	require.NoError(t, l.Add(ctx, entry("ok", 100, core.ReceiptCash)))
	writes := len(store.saved)

	for _, bad := range []core.Entry{
		entry("", 100, core.ReceiptCash),
		entry("  ", 100, core.ReceiptCash),
		entry("x", 0, core.ReceiptCash),
		entry("x", -100, core.ReceiptCash),
	} {
		err := l.Add(ctx, bad)
		var verr *core.ValidationError
		assert.True(t, errors.As(err, &verr), "expected validation error, got %v", err)
		assert.Equal(t, 1, l.Len())
		assert.Len(t, store.saved, writes)
	}
}

func TestAddRollsBackOnSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	l := New(store)
	require.NoError(t, l.Add(ctx, entry("first", 100, core.ReceiptCash)))

	store.fail = true
	err := l.Add(ctx, entry("second", 200, core.ReceiptCash))
	var perr *core.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "add", perr.Op)
	assert.Equal(t, []string{"first"}, descriptions(l.Entries()))
	assert.Equal(t, core.Money{Cents: 100}, l.Total())
}

func TestRemoveUpdatesTotal(t *testing.T) {
	ctx := context.Background()
	amounts := []int64{1550, 2000, 99, 12345}
	for i := range amounts {
		store := &fakeStore{}
		l := New(store)
		for j, a := range amounts {
			require.NoError(t, l.Add(ctx, entry(string(rune('a'+j)), a, core.ReceiptCash)))
		}
		before := l.Total()
		removed := l.Entries()[i]

		require.NoError(t, l.Remove(ctx, i))
		assert.Equal(t, before.Cents-removed.Amount.Cents, l.Total().Cents)
		assert.Equal(t, len(amounts)-1, l.Len())
		assert.Equal(t, l.Entries(), store.last())
	}
}

func TestRemoveOutOfRange(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	l := New(store)
	require.NoError(t, l.Add(ctx, entry("a", 100, core.ReceiptCash)))

	for _, idx := range []int{-1, 1, 5} {
		err := l.Remove(ctx, idx)
		var ierr *core.IndexError
		require.True(t, errors.As(err, &ierr))
		assert.Equal(t, idx, ierr.Index)
		assert.ErrorIs(t, err, core.ErrIndexOutOfRange)
	}
	assert.Len(t, store.saved, 1)
}

func TestRemoveRollsBackOnSaveFailure(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	l := New(store)
	require.NoError(t, l.Add(ctx, entry("a", 100, core.ReceiptCash)))
	require.NoError(t, l.Add(ctx, entry("b", 200, core.InvoiceCash)))
	before := l.Entries()

	store.fail = true
	err := l.Remove(ctx, 0)
	var perr *core.PersistenceError
	require.True(t, errors.As(err, &perr))
	assert.Equal(t, "remove", perr.Op)
	assert.Equal(t, before, l.Entries())
	first, ok := l.First()
	require.True(t, ok)
	assert.Equal(t, "a", first.Description)
}

func TestClear(t *testing.T) {
	ctx := context.Background()
	store := &fakeStore{}
	l := New(store)
	require.NoError(t, l.Add(ctx, entry("a", 100, core.ReceiptCash)))
	require.NoError(t, l.Add(ctx, entry("b", 200, core.ReceiptCash)))

	store.fail = true
	err := l.Clear(ctx)
	require.Error(t, err)
	assert.Equal(t, 2, l.Len())

	store.fail = false
	require.NoError(t, l.Clear(ctx))
	assert.Equal(t, 0, l.Len())
	assert.Equal(t, core.Money{}, l.Total())
	assert.NotNil(t, store.last())
	assert.Empty(t, store.last())
	_, ok := l.First()
	assert.False(t, ok)
}

func TestHydrateAndOwnership(t *testing.T) {
	ctx := context.Background()
	stored := []core.Entry{entry("a", 100, core.ReceiptCash), entry("b", 200, core.InvoiceCash)}
	store := &fakeStore{loaded: stored}
	l := New(store)
	l.Hydrate(ctx)
	assert.Equal(t, 2, l.Len())

	// mutating returned or loaded slices does not leak into the ledger
	got := l.Entries()
	got[0].Description = "changed"
	stored[1].Description = "changed"
	assert.Equal(t, []string{"a", "b"}, descriptions(l.Entries()))
}

func TestWithPhotos(t *testing.T) {
	ctx := context.Background()
	l := New(&fakeStore{})
	withPhoto := entry("photo", 100, core.ReceiptCash)
	withPhoto.PhotoURL = "https://i.ibb.co/a.jpg"
	require.NoError(t, l.Add(ctx, entry("plain", 100, core.ReceiptCash)))
	require.NoError(t, l.Add(ctx, withPhoto))

	photos := l.WithPhotos()
	require.Len(t, photos, 1)
	assert.Equal(t, "photo", photos[0].Description)
}

func descriptions(entries []core.Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Description
	}
	return out
}

package photosheet

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaspese/internal/core"
	"notaspese/internal/photos"
)

type fakeFetcher struct {
	photos map[string]photos.Photo
	calls  []string
}

func (f *fakeFetcher) Fetch(_ context.Context, url string) (photos.Photo, error) {
	f.calls = append(f.calls, url)
	p, ok := f.photos[url]
	if !ok {
		return photos.Photo{}, &core.PhotoFetchError{URL: url, Err: errors.New("404")}
	}
	return p, nil
}

func pngPhoto(t *testing.T, w, h int) photos.Photo {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, x%h, color.RGBA{B: 200, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return photos.Photo{Data: buf.Bytes(), Type: "PNG"}
}

func entryWithPhoto(desc, url string) core.Entry {
	return core.Entry{
		Date:        core.NewDate(2025, 3, 10),
		Description: desc,
		Category:    core.ReceiptCreditCard,
		Amount:      core.Money{Cents: 1250},
		PhotoURL:    url,
	}
}

func TestRenderPaginatesThreePerPage(t *testing.T) {
	f := &fakeFetcher{photos: map[string]photos.Photo{}}
	var entries []core.Entry
	for _, u := range []string{"u1", "u2", "u3", "u4"} {
		f.photos[u] = pngPhoto(t, 40, 30)
		entries = append(entries, entryWithPhoto("receipt "+u, u))
	}
	entries = append(entries, core.Entry{Date: core.NewDate(2025, 3, 10), Description: "no photo", Category: core.ReceiptCash, Amount: core.Money{Cents: 1}})

	res, err := New(f).Render(context.Background(), entries)
	require.NoError(t, err)

	assert.Equal(t, 2, res.Pages)
	require.Len(t, res.Slots, 4)
	assert.Equal(t, 1, res.Slots[2].Page)
	assert.Equal(t, 2, res.Slots[3].Page)
	assert.Equal(t, []string{"u1", "u2", "u3", "u4"}, f.calls)
	assert.True(t, bytes.HasPrefix(res.PDF, []byte("%PDF-")))
}

func TestRenderPlaceholderOnFailedPhoto(t *testing.T) {
	f := &fakeFetcher{photos: map[string]photos.Photo{
		"ok1": pngPhoto(t, 20, 20),
		"ok3": pngPhoto(t, 20, 40),
		// Declared PNG but not an image: decode fails inside the PDF writer
		"bad": {Data: []byte("not an image"), Type: "PNG"},
	}}
	entries := []core.Entry{
		entryWithPhoto("first", "ok1"),
		entryWithPhoto("second", "missing"),
		entryWithPhoto("third", "ok3"),
		entryWithPhoto("fourth", "bad"),
	}

	res, err := New(f).Render(context.Background(), entries)
	require.NoError(t, err)
	require.Len(t, res.Slots, 4)

	assert.True(t, res.Slots[0].Loaded)
	assert.False(t, res.Slots[1].Loaded)
	assert.True(t, res.Slots[2].Loaded)
	assert.False(t, res.Slots[3].Loaded)
	assert.NotEmpty(t, res.PDF)
}

func TestRenderNoPhotos(t *testing.T) {
	_, err := New(&fakeFetcher{}).Render(context.Background(), []core.Entry{
		{Date: core.NewDate(2025, 3, 10), Description: "x", Category: core.ReceiptCash, Amount: core.Money{Cents: 1}},
	})
	assert.ErrorIs(t, err, core.ErrNoPhotos)
}

func TestCaption(t *testing.T) {
	e := entryWithPhoto("Lunch", "u")
	assert.Equal(t, "10/03/2025 - €12,50 - Lunch", Caption(e))

	e.Description = strings.Repeat("è", 50)
	c := Caption(e)
	assert.Len(t, []rune(c), 40)
	assert.True(t, strings.HasPrefix(c, "10/03/2025 - €12,50 - è"))
}

func TestFit(t *testing.T) {
	w, h := fit(200, 100, 80, 160)
	assert.InDelta(t, 80, w, 0.001)
	assert.InDelta(t, 40, h, 0.001)

	w, h = fit(100, 400, 80, 160)
	assert.InDelta(t, 40, w, 0.001)
	assert.InDelta(t, 160, h, 0.001)
}

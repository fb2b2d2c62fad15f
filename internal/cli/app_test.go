package cli

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaspese/internal/config"
	"notaspese/internal/core"
	applog "notaspese/internal/log"
	"notaspese/internal/photos"
	"notaspese/internal/services"
)

func quietLogger() *applog.Logger {
	return applog.New(applog.Config{Output: io.Discard})
}

func TestBuildAppHydratesFromSeed(t *testing.T) {
	seed := filepath.Join(t.TempDir(), "seed.json")
	require.NoError(t, os.WriteFile(seed, []byte(`{"spese":[
		{"date":"2025-03-10","description":"Pranzo","category":"Receipts – cash","amount":12.5,"photo_url":null}
	]}`), 0o600))

	cfg := &config.Config{
		DataBackend:    config.BackendMemory,
		MemorySeedFile: seed,
		TemplatePath:   filepath.Join(t.TempDir(), "missing.xlsx"),
		PhotoTimeout:   time.Second,
		PhotoCacheTTL:  time.Minute,
	}
	app, err := BuildApp(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer app.Close()

	assert.False(t, app.PhotosEnabled)
	assert.Nil(t, app.Publisher)
	assert.Equal(t, photos.CacheStats{}, app.PhotoCache.Stats())

	snap := app.Service.Snapshot()
	require.Len(t, snap.Entries, 1)
	assert.Equal(t, "Pranzo", snap.Entries[0].Description)
	assert.Equal(t, int64(1250), snap.Total.Cents)

	_, err = app.Service.ExportSpreadsheet(context.Background())
	var notFound *core.TemplateNotFoundError
	assert.ErrorAs(t, err, &notFound)

	_, err = app.Service.ExportPhotoSheet(context.Background())
	assert.ErrorIs(t, err, core.ErrNoPhotos)
}

func TestBuildAppRejectsPhotoWithoutHost(t *testing.T) {
	cfg := &config.Config{DataBackend: config.BackendMemory, PhotoTimeout: time.Second}
	app, err := BuildApp(context.Background(), cfg, quietLogger())
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Service.AddExpense(context.Background(), services.NewExpense{
		Date:        core.NewDate(2025, 3, 10),
		Description: "Taxi",
		Amount:      core.Money{Cents: 900},
		Category:    core.ReceiptCash,
		Photo:       &services.PhotoFile{Filename: "r.png", Data: []byte{0x89, 'P', 'N', 'G'}},
	})
	assert.ErrorIs(t, err, services.ErrPhotoUploadDisabled)
	assert.True(t, app.Service.Snapshot().Empty())
}

func TestBuildAppUnknownBackend(t *testing.T) {
	_, err := BuildApp(context.Background(), &config.Config{DataBackend: "redis"}, quietLogger())
	assert.Error(t, err)
}

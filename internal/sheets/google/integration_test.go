//go:build integration

package google

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"notaspese/internal/core"
	ports "notaspese/internal/sheets"
)

// Integration tests require real Google Sheets credentials
// Run with: go test -tags=integration ./internal/sheets/google

func TestIntegrationAppendWeek(t *testing.T) {
	spreadsheetID := os.Getenv("GOOGLE_SPREADSHEET_ID")
	if spreadsheetID == "" {
		t.Skip("GOOGLE_SPREADSHEET_ID not set, skipping integration test")
	}
	if os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON") == "" && os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE") == "" {
		t.Skip("service account not configured, skipping integration test")
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	c, err := New(ctx, Config{
		SpreadsheetID:      spreadsheetID,
		ArchiveSheet:       os.Getenv("GOOGLE_ARCHIVE_SHEET_NAME"),
		ServiceAccountJSON: os.Getenv("GOOGLE_SERVICE_ACCOUNT_JSON"),
		ServiceAccountFile: os.Getenv("GOOGLE_SERVICE_ACCOUNT_FILE"),
	})
	require.NoError(t, err)

	today := core.Today()
	week, year := today.Week()
	ref, err := c.AppendWeek(ctx, ports.Week{
		Number: week,
		Year:   year,
		Entries: []core.Entry{{
			Date:        today,
			Description: "integration test " + time.Now().Format(time.RFC3339),
			Category:    core.ReceiptCash,
			Amount:      core.Money{Cents: 1},
		}},
	})
	require.NoError(t, err)
	t.Logf("appended %s", ref)
}

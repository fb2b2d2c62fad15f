package google

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"notaspese/internal/core"
	ports "notaspese/internal/sheets"

	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"
)

const DefaultArchiveSheet = "Archivio"

type Config struct {
	SpreadsheetID string
	// ArchiveSheet is the base sheet name; the week's year is prefixed.
	ArchiveSheet       string
	ServiceAccountJSON string
	ServiceAccountFile string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	archiveBase   string
}

// Ensure interface conformance
var _ ports.ArchiveWriter = (*Client)(nil)

// New creates a Sheets client authenticated with a service account.
func New(ctx context.Context, cfg Config, opts ...goption.ClientOption) (*Client, error) {
	spreadsheetID := strings.TrimSpace(cfg.SpreadsheetID)
	if spreadsheetID == "" {
		return nil, errors.New("missing GOOGLE_SPREADSHEET_ID")
	}

	if len(opts) == 0 {
		creds, err := serviceAccountCredentials(ctx, cfg)
		if err != nil {
			return nil, err
		}
		opts = []goption.ClientOption{
			goption.WithCredentialsJSON(creds),
			goption.WithScopes(gsheet.SpreadsheetsScope),
		}
	}

	svc, err := gsheet.NewService(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}

	base := strings.TrimSpace(cfg.ArchiveSheet)
	if base == "" {
		base = DefaultArchiveSheet
	}
	return &Client{svc: svc, spreadsheetID: spreadsheetID, archiveBase: base}, nil
}

// serviceAccountCredentials reads inline JSON, a file, or
// GOOGLE_APPLICATION_CREDENTIALS, in that order.
func serviceAccountCredentials(ctx context.Context, cfg Config) ([]byte, error) {
	inline := strings.TrimSpace(cfg.ServiceAccountJSON)
	file := strings.TrimSpace(cfg.ServiceAccountFile)
	if inline == "" && file == "" {
		file = strings.TrimSpace(os.Getenv("GOOGLE_APPLICATION_CREDENTIALS"))
	}

	switch {
	case inline != "":
		slog.InfoContext(ctx, "Using inline service account credentials", "json_length", len(inline))
		return []byte(inline), nil
	case file != "":
		slog.InfoContext(ctx, "Reading service account credentials", "path", file)
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, fmt.Errorf("read service account file: %w", err)
		}
		return data, nil
	default:
		return nil, errors.New("missing service account credentials (set GOOGLE_SERVICE_ACCOUNT_JSON, GOOGLE_SERVICE_ACCOUNT_FILE, or GOOGLE_APPLICATION_CREDENTIALS)")
	}
}

// AppendWeek appends the week's entries to the "<year> Archivio" sheet.
func (c *Client) AppendWeek(ctx context.Context, week ports.Week) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}
	if len(week.Entries) == 0 {
		return "", core.ErrEmptyLedger
	}

	sheet := yearPrefixedName(c.archiveBase, week.Year)
	rng := fmt.Sprintf("%s!A:G", sheet)
	vr := &gsheet.ValueRange{Values: archiveRows(week)}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append week %d/%d to %s: %w", week.Number, week.Year, sheet, err)
	}

	ref := rng
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		ref = resp.Updates.UpdatedRange
	}
	slog.InfoContext(ctx, "Week archived",
		"week", week.Number,
		"year", week.Year,
		"rows", len(vr.Values),
		"range", ref)
	return ref, nil
}

// archiveRows lays out one row per entry: week label, date, description,
// category, amount, photo URL and the week total on the last row.
func archiveRows(week ports.Week) [][]any {
	label := fmt.Sprintf("%d/%02d", week.Year, week.Number)
	var total core.Money
	rows := make([][]any, 0, len(week.Entries))
	for _, e := range week.Entries {
		total = total.Add(e.Amount)
		rows = append(rows, []any{
			label,
			e.Date.Display(),
			e.Description,
			e.Category.Label(),
			e.Amount.Euros(),
			e.PhotoURL,
			"",
		})
	}
	rows[len(rows)-1][6] = total.Euros()
	return rows
}

// yearPrefixedName returns "<year> <base>" unless base already starts with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	if year == 0 {
		year = time.Now().Year()
	}
	return fmt.Sprintf("%d %s", year, base)
}

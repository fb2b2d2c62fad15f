package http

import (
	"net/http"
	"strings"

	"notaspese/internal/services"
)

// entryRow is an entry formatted for the ledger table.
type entryRow struct {
	Index       int
	Date        string
	Description string
	Category    string
	Amount      string
	PhotoURL    string
}

type ledgerView struct {
	Rows      []entryRow
	Total     string
	Week      int
	Year      int
	Empty     bool
	HasPhotos bool
}

func newLedgerView(snap services.Snapshot) ledgerView {
	v := ledgerView{
		Total: snap.Total.Display(),
		Week:  snap.Week,
		Year:  snap.Year,
		Empty: snap.Empty(),
	}
	for i, e := range snap.Entries {
		v.Rows = append(v.Rows, entryRow{
			Index:       i,
			Date:        e.Date.Display(),
			Description: e.Description,
			Category:    e.Category.Label(),
			Amount:      e.Amount.Display(),
			PhotoURL:    e.PhotoURL,
		})
		if e.HasPhoto() {
			v.HasPhotos = true
		}
	}
	return v
}

// sanitizeInput removes control characters except tab, newline and carriage
// return, and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

func isHTMX(r *http.Request) bool {
	return r.Header.Get("HX-Request") == "true"
}

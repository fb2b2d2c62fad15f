// Package document encodes the weekly ledger as the JSON document shared by
// every ledger store:
//
//	{"spese": [{"date": "2025-01-06", "description": "...", "category": "...",
//	            "amount": 15.50, "photo_url": null}]}
//
// Older documents were a bare list of entries; Decode accepts both shapes.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"

	"notaspese/internal/core"
)

// EnvelopeField names the list inside the envelope object.
const EnvelopeField = "spese"

var ErrMalformed = errors.New("malformed ledger document")

type envelope struct {
	Spese *[]record `json:"spese"`
}

type record struct {
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Category    string  `json:"category"`
	Amount      amount  `json:"amount"`
	PhotoURL    *string `json:"photo_url"`
}

// amount is written as a JSON number with two decimals and read from either
// a number or a numeric string.
type amount struct {
	decimal.Decimal
}

func (a amount) MarshalJSON() ([]byte, error) {
	return []byte(a.StringFixed(2)), nil
}

func (a *amount) UnmarshalJSON(b []byte) error {
	s := strings.Trim(strings.TrimSpace(string(b)), `"`)
	s = strings.ReplaceAll(s, ",", ".")
	d, err := decimal.NewFromString(s)
	if err != nil {
		return fmt.Errorf("amount %s: %w", b, err)
	}
	a.Decimal = d
	return nil
}

// Encode serializes entries inside the envelope, preserving order.
func Encode(entries []core.Entry) ([]byte, error) {
	records := make([]record, 0, len(entries))
	for _, e := range entries {
		r := record{
			Date:        e.Date.ISO(),
			Description: e.Description,
			Category:    e.Category.Label(),
			Amount:      amount{e.Amount.Decimal()},
		}
		if e.HasPhoto() {
			url := e.PhotoURL
			r.PhotoURL = &url
		}
		records = append(records, r)
	}
	return json.Marshal(envelope{Spese: &records})
}

// Decode parses an enveloped or bare-list document. An empty body is an
// empty ledger.
func Decode(data []byte) ([]core.Entry, error) {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return []core.Entry{}, nil
	}

	var records []record
	switch data[0] {
	case '{':
		var env envelope
		if err := json.Unmarshal(data, &env); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
		if env.Spese == nil {
			return nil, fmt.Errorf("%w: missing %q field", ErrMalformed, EnvelopeField)
		}
		records = *env.Spese
	case '[':
		if err := json.Unmarshal(data, &records); err != nil {
			return nil, fmt.Errorf("%w: %w", ErrMalformed, err)
		}
	default:
		return nil, fmt.Errorf("%w: unexpected leading byte %q", ErrMalformed, data[0])
	}

	entries := make([]core.Entry, 0, len(records))
	for i, r := range records {
		e, err := r.entry()
		if err != nil {
			return nil, fmt.Errorf("%w: entry %d: %w", ErrMalformed, i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

func (r record) entry() (core.Entry, error) {
	date, err := core.ParseISODate(r.Date)
	if err != nil {
		// documents written by the first version used the display format
		if date, err = core.ParseDisplayDate(r.Date); err != nil {
			return core.Entry{}, fmt.Errorf("date %q: %w", r.Date, err)
		}
	}
	category, err := core.ParseCategory(r.Category)
	if err != nil {
		return core.Entry{}, fmt.Errorf("category %q: %w", r.Category, err)
	}
	e := core.Entry{
		Date:        date,
		Description: r.Description,
		Category:    category,
		Amount:      core.MoneyFromDecimal(r.Amount.Decimal),
	}
	if r.PhotoURL != nil {
		e.PhotoURL = strings.TrimSpace(*r.PhotoURL)
	}
	return e, nil
}

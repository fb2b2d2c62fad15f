package core

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDateFormats(t *testing.T) {
	d := NewDate(2025, 1, 6)
	assert.Equal(t, "2025-01-06", d.ISO())
	assert.Equal(t, "06/01/2025", d.Display())

	iso, err := ParseISODate("2025-01-06")
	require.NoError(t, err)
	assert.True(t, iso.Equal(d.Time))

	disp, err := ParseDisplayDate(" 06/01/2025 ")
	require.NoError(t, err)
	assert.True(t, disp.Equal(d.Time))

	_, err = ParseISODate("06/01/2025")
	assert.ErrorIs(t, err, ErrInvalidDate)
	_, err = ParseDisplayDate("2025-13-01")
	assert.ErrorIs(t, err, ErrInvalidDate)
}

func TestDateWeek(t *testing.T) {
	cases := []struct {
		d          Date
		week, year int
	}{
		{NewDate(2025, 3, 10), 11, 2025},
		{NewDate(2025, 1, 6), 2, 2025},
		{NewDate(2024, 12, 30), 1, 2025}, // ISO year differs from calendar year
		{NewDate(2021, 1, 3), 53, 2020},
	}
	for _, tc := range cases {
		week, year := tc.d.Week()
		assert.Equal(t, tc.week, week, tc.d.ISO())
		assert.Equal(t, tc.year, year, tc.d.ISO())
	}
}

func TestEntryValidate(t *testing.T) {
	good := Entry{
		Date:        NewDate(2025, 1, 6),
		Description: "Client lunch",
		Category:    ReceiptCash,
		Amount:      Money{Cents: 1550},
	}
	require.NoError(t, good.Validate())

	cases := []struct {
		name  string
		mut   func(*Entry)
		field string
		want  error
	}{
		{"empty description", func(e *Entry) { e.Description = "" }, "description", ErrEmptyDescription},
		{"blank description", func(e *Entry) { e.Description = "   " }, "description", ErrEmptyDescription},
		{"zero amount", func(e *Entry) { e.Amount = Money{} }, "amount", ErrInvalidAmount},
		{"negative amount", func(e *Entry) { e.Amount = Money{Cents: -1} }, "amount", ErrInvalidAmount},
		{"unknown category", func(e *Entry) { e.Category = 0 }, "category", ErrUnknownCategory},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := good
			tc.mut(&e)
			err := e.Validate()
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "expected ValidationError, got %v", err)
			assert.Equal(t, tc.field, verr.Field)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestEntryHasPhoto(t *testing.T) {
	assert.False(t, Entry{}.HasPhoto())
	assert.False(t, Entry{PhotoURL: "  "}.HasPhoto())
	assert.True(t, Entry{PhotoURL: "https://i.ibb.co/x.jpg"}.HasPhoto())
}

package core

import (
	"strings"
	"time"
)

const (
	isoLayout     = "2006-01-02"
	displayLayout = "02/01/2006"
)

type (
	// Date is a calendar date without a time component, normalized to UTC midnight.
	Date struct {
		time.Time
	}

	Money struct {
		Cents int64
	}

	// Entry is one recorded expense of the current week.
	Entry struct {
		Date        Date
		Description string
		Category    Category
		Amount      Money
		PhotoURL    string // optional; the photo host owns the bytes
	}
)

// NewDate creates a new Date from year, month, day
func NewDate(year, month, day int) Date {
	return Date{Time: time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)}
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), int(t.Month()), t.Day())
}

// Today returns the current local calendar date.
func Today() Date {
	return DateOf(time.Now())
}

// ParseISODate parses a YYYY-MM-DD date.
func ParseISODate(s string) (Date, error) {
	t, err := time.Parse(isoLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

// ParseDisplayDate parses a DD/MM/YYYY date, the format typed by users and
// written into the spreadsheet.
func ParseDisplayDate(s string) (Date, error) {
	t, err := time.Parse(displayLayout, strings.TrimSpace(s))
	if err != nil {
		return Date{}, ErrInvalidDate
	}
	return DateOf(t), nil
}

// ISO formats the date as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Format(isoLayout)
}

// Display formats the date as DD/MM/YYYY.
func (d Date) Display() string {
	return d.Format(displayLayout)
}

// Week returns the ISO week number and the ISO year the week belongs to.
func (d Date) Week() (week, year int) {
	year, week = d.ISOWeek()
	return week, year
}

func (d Date) Validate() error {
	if d.IsZero() {
		return ErrInvalidDate
	}
	return nil
}

func (m Money) Validate() error {
	if m.Cents <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Validate enforces the acceptance rules of the ledger: a non-empty
// description and a positive amount. The category must be a known one.
func (e Entry) Validate() error {
	if len(strings.TrimSpace(e.Description)) == 0 {
		return &ValidationError{Field: "description", Err: ErrEmptyDescription}
	}
	if err := e.Amount.Validate(); err != nil {
		return &ValidationError{Field: "amount", Err: err}
	}
	if !e.Category.IsValid() {
		return &ValidationError{Field: "category", Err: ErrUnknownCategory}
	}
	return nil
}

// HasPhoto reports whether the entry references an uploaded photo.
func (e Entry) HasPhoto() bool {
	return strings.TrimSpace(e.PhotoURL) != ""
}

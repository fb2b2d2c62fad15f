package services

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"notaspese/internal/amqp"
	"notaspese/internal/core"
	"notaspese/internal/ledger"
	"notaspese/internal/projector/photosheet"
	"notaspese/internal/projector/spreadsheet"
)

const (
	SpreadsheetContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	PDFContentType         = "application/pdf"
)

var ErrPhotoUploadDisabled = errors.New("photo upload not configured")

type (
	Uploader interface {
		Upload(ctx context.Context, filename string, data []byte) (string, error)
	}

	WeekPublisher interface {
		PublishWeekClosed(ctx context.Context, msg *amqp.WeekClosedMessage) error
	}

	SpreadsheetRenderer interface {
		Render(src spreadsheet.Source) ([]byte, error)
	}

	PhotoSheetRenderer interface {
		Render(ctx context.Context, entries []core.Entry) (photosheet.Result, error)
	}
)

// Options wires the optional collaborators. Nil uploader or publisher
// disables the feature.
type Options struct {
	Uploader    Uploader
	Publisher   WeekPublisher
	Spreadsheet SpreadsheetRenderer
	PhotoSheet  PhotoSheetRenderer
}

// NewExpense is the user input for one expense.
type NewExpense struct {
	Date        core.Date
	Description string
	Category    core.Category
	Amount      core.Money
	Photo       *PhotoFile
}

type PhotoFile struct {
	Filename string
	Data     []byte
}

// Snapshot is a read-only view of the ledger.
type Snapshot struct {
	Entries []core.Entry
	Total   core.Money
	// Week and Year come from the first inserted entry; zero when empty.
	Week int
	Year int
}

func (s Snapshot) Empty() bool { return len(s.Entries) == 0 }

// Download is a generated file offered to the user.
type Download struct {
	Filename    string
	ContentType string
	Data        []byte
	Warnings    []string
}

// LedgerService owns the session ledger. Interactions are serialized: only
// one mutation, network call or projection runs at a time.
type LedgerService struct {
	mu     sync.Mutex
	ledger *ledger.Ledger
	opts   Options
}

func NewLedgerService(l *ledger.Ledger, opts Options) *LedgerService {
	return &LedgerService{ledger: l, opts: opts}
}

// Hydrate reloads the ledger from its store.
func (s *LedgerService) Hydrate(ctx context.Context) Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.ledger.Hydrate(ctx)
	return s.snapshot()
}

func (s *LedgerService) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshot()
}

func (s *LedgerService) snapshot() Snapshot {
	snap := Snapshot{Entries: s.ledger.Entries(), Total: s.ledger.Total()}
	if first, ok := s.ledger.First(); ok {
		snap.Week, snap.Year = first.Date.Week()
	}
	return snap
}

// AddExpense validates the input, uploads the optional photo and appends
// the entry. Invalid input never triggers the upload.
func (s *LedgerService) AddExpense(ctx context.Context, in NewExpense) (core.Entry, error) {
	e := core.Entry{
		Date:        in.Date,
		Description: in.Description,
		Category:    in.Category,
		Amount:      in.Amount,
	}
	if e.Date.IsZero() {
		e.Date = core.Today()
	}
	if err := e.Validate(); err != nil {
		return core.Entry{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if in.Photo != nil && len(in.Photo.Data) > 0 {
		if s.opts.Uploader == nil {
			return core.Entry{}, &core.PhotoUploadError{Err: ErrPhotoUploadDisabled}
		}
		url, err := s.opts.Uploader.Upload(ctx, in.Photo.Filename, in.Photo.Data)
		if err != nil {
			return core.Entry{}, err
		}
		e.PhotoURL = url
	}

	if err := s.ledger.Add(ctx, e); err != nil {
		return core.Entry{}, err
	}
	slog.InfoContext(ctx, "Expense added",
		"date", e.Date.ISO(),
		"category", e.Category.Key(),
		"amount", e.Amount.String(),
		"photo", e.HasPhoto())
	return e, nil
}

// RemoveExpense deletes the entry at index and returns it.
func (s *LedgerService) RemoveExpense(ctx context.Context, index int) (core.Entry, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.ledger.Entries()
	if err := s.ledger.Remove(ctx, index); err != nil {
		return core.Entry{}, err
	}
	return entries[index], nil
}

// StartNewWeek clears the ledger. Once the empty ledger is saved the closed
// week is published for archiving; a failed publish does not undo the clear.
func (s *LedgerService) StartNewWeek(ctx context.Context) (Snapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	closed := s.snapshot()
	if err := s.ledger.Clear(ctx); err != nil {
		return Snapshot{}, err
	}
	slog.InfoContext(ctx, "New week started",
		"closed_entries", len(closed.Entries),
		"closed_total", closed.Total.String())

	if !closed.Empty() && s.opts.Publisher != nil {
		s.publish(ctx, closed)
	}
	return closed, nil
}

func (s *LedgerService) publish(ctx context.Context, closed Snapshot) {
	msg, err := amqp.NewWeekClosedMessage(closed.Entries, closed.Total)
	if err != nil {
		slog.ErrorContext(ctx, "Failed to build week closed message", "error", err)
		return
	}
	if err := s.opts.Publisher.PublishWeekClosed(ctx, msg); err != nil {
		slog.ErrorContext(ctx, "Failed to publish week closed message",
			"id", msg.ID,
			"week", msg.Week,
			"year", msg.Year,
			"error", err)
	}
}

// ExportSpreadsheet fills the expense-report template.
func (s *LedgerService) ExportSpreadsheet(ctx context.Context) (Download, error) {
	if s.opts.Spreadsheet == nil {
		return Download{}, errors.New("spreadsheet export not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	first, ok := s.ledger.First()
	if !ok {
		return Download{}, core.ErrEmptyLedger
	}
	data, err := s.opts.Spreadsheet.Render(s.ledger)
	if err != nil {
		return Download{}, err
	}
	slog.InfoContext(ctx, "Spreadsheet exported", "entries", s.ledger.Len(), "bytes", len(data))
	return Download{
		Filename:    spreadsheet.Filename(first),
		ContentType: SpreadsheetContentType,
		Data:        data,
	}, nil
}

// ExportPhotoSheet builds the photo contact sheet. Photos that could not be
// loaded are reported as warnings.
func (s *LedgerService) ExportPhotoSheet(ctx context.Context) (Download, error) {
	if s.opts.PhotoSheet == nil {
		return Download{}, errors.New("photo sheet export not configured")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	first, ok := s.ledger.First()
	if !ok {
		return Download{}, core.ErrEmptyLedger
	}
	res, err := s.opts.PhotoSheet.Render(ctx, s.ledger.Entries())
	if err != nil {
		return Download{}, err
	}

	var warnings []string
	for _, slot := range res.Slots {
		if !slot.Loaded {
			warnings = append(warnings, fmt.Sprintf("%s: %s", slot.Caption, photosheet.PlaceholderText))
		}
	}
	week, year := first.Date.Week()
	return Download{
		Filename:    fmt.Sprintf("foto_spese_%d_settimana_%02d.pdf", year, week),
		ContentType: PDFContentType,
		Data:        res.PDF,
		Warnings:    warnings,
	}, nil
}

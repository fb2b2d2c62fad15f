package core

import (
	"context"
	"errors"
	"fmt"
	"net"
)

var (
	ErrInvalidDate      = errors.New("invalid date")
	ErrInvalidAmount    = errors.New("invalid amount")
	ErrEmptyDescription = errors.New("empty description")
	ErrUnknownCategory  = errors.New("unknown category")
	ErrIndexOutOfRange  = errors.New("index out of range")
	ErrNetworkTimeout   = errors.New("network timeout")
	ErrEmptyLedger      = errors.New("ledger is empty")
	ErrNoPhotos         = errors.New("no entries with photos")
	ErrTooManyEntries   = errors.New("too many entries for the spreadsheet template")
)

// ValidationError reports bad user input. The ledger is left untouched.
type ValidationError struct {
	Field string
	Err   error
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %v", e.Field, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// IndexError reports a removal outside the ledger bounds.
type IndexError struct {
	Index int
	Len   int
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("index %d out of range [0,%d)", e.Index, e.Len)
}

func (e *IndexError) Unwrap() error { return ErrIndexOutOfRange }

// PersistenceError reports a failed durable save. The in-memory mutation
// that triggered it has already been rolled back.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("persist ledger after %s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error { return e.Err }

// TemplateNotFoundError reports a missing spreadsheet template.
type TemplateNotFoundError struct {
	Path string
	Err  error
}

func (e *TemplateNotFoundError) Error() string {
	return fmt.Sprintf("spreadsheet template not found at %q: %v", e.Path, e.Err)
}

func (e *TemplateNotFoundError) Unwrap() error { return e.Err }

// PhotoFetchError is scoped to a single photo of the photo sheet.
type PhotoFetchError struct {
	URL string
	Err error
}

func (e *PhotoFetchError) Error() string {
	return fmt.Sprintf("fetch photo %s: %v", e.URL, e.Err)
}

func (e *PhotoFetchError) Unwrap() error { return e.Err }

// PhotoUploadError reports a failed upload to the photo host.
type PhotoUploadError struct {
	Err error
}

func (e *PhotoUploadError) Error() string {
	return fmt.Sprintf("upload photo: %v", e.Err)
}

func (e *PhotoUploadError) Unwrap() error { return e.Err }

// NetworkError tags timeouts with ErrNetworkTimeout, keeping the original
// error in the chain. Other errors are returned unchanged.
func NetworkError(err error) error {
	if err == nil || errors.Is(err, ErrNetworkTimeout) {
		return err
	}
	if isTimeout(err) {
		return fmt.Errorf("%w: %w", ErrNetworkTimeout, err)
	}
	return err
}

// IsTimeout reports whether err is a network timeout.
func IsTimeout(err error) bool {
	return errors.Is(err, ErrNetworkTimeout) || isTimeout(err)
}

func isTimeout(err error) bool {
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	return errors.As(err, &netErr) && netErr.Timeout()
}

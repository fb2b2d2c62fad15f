package main

import (
	"errors"

	"notaspese/internal/core"
	"notaspese/internal/services"
)

// describe turns an operation error into the message shown to the user.
func describe(err error) string {
	var (
		validation *core.ValidationError
		persist    *core.PersistenceError
		upload     *core.PhotoUploadError
		template   *core.TemplateNotFoundError
	)
	switch {
	case errors.As(err, &validation):
		return validation.Error()
	case errors.Is(err, core.ErrIndexOutOfRange):
		return "no expense with that number"
	case errors.Is(err, services.ErrPhotoUploadDisabled):
		return "photo upload is not configured (set PHOTO_UPLOAD_URL)"
	case errors.As(err, &upload):
		return "photo upload failed, expense not recorded: " + upload.Err.Error()
	case errors.As(err, &persist):
		msg := "could not save the ledger, change discarded"
		if core.IsTimeout(err) {
			msg += " (timeout)"
		}
		return msg + ": " + persist.Err.Error()
	case errors.As(err, &template):
		return "spreadsheet template not found at " + template.Path
	case errors.Is(err, core.ErrEmptyLedger):
		return "no expenses recorded this week"
	case errors.Is(err, core.ErrNoPhotos):
		return "no expenses with a photo this week"
	case errors.Is(err, core.ErrTooManyEntries):
		return "too many expenses for the spreadsheet template"
	default:
		return err.Error()
	}
}

package http

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/gorilla/mux"

	"notaspese/internal/core"
	"notaspese/internal/photos"
	"notaspese/internal/services"
)

var ErrPhotoTooLarge = fmt.Errorf("photo larger than %d bytes", photos.MaxPhotoBytes)

// maxFormMemory bounds the in-memory part of a multipart form; larger
// uploads spill to temporary files.
const maxFormMemory = 1 << 20

// ParseExpenseForm reads the add-expense form. Both multipart and
// url-encoded bodies are accepted; the photo needs multipart.
//
// Fields: date (YYYY-MM-DD, today when blank), description, category
// (key or label), amount (comma or dot decimal), photo (optional file).
func ParseExpenseForm(w http.ResponseWriter, r *http.Request) (services.NewExpense, error) {
	r.Body = http.MaxBytesReader(w, r.Body, photos.MaxPhotoBytes+maxFormMemory)
	if err := r.ParseMultipartForm(maxFormMemory); err != nil && !errors.Is(err, http.ErrNotMultipart) {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return services.NewExpense{}, &core.ValidationError{Field: "photo", Err: ErrPhotoTooLarge}
		}
		return services.NewExpense{}, &core.ValidationError{Field: "form", Err: err}
	}

	var in services.NewExpense
	if v := sanitizeInput(r.FormValue("date")); v != "" {
		date, err := core.ParseISODate(v)
		if err != nil {
			return services.NewExpense{}, &core.ValidationError{Field: "date", Err: err}
		}
		in.Date = date
	}

	in.Description = sanitizeInput(r.FormValue("description"))

	amount, err := core.ParseMoney(r.FormValue("amount"))
	if err != nil {
		return services.NewExpense{}, &core.ValidationError{Field: "amount", Err: err}
	}
	in.Amount = amount

	category, err := core.ParseCategory(r.FormValue("category"))
	if err != nil {
		return services.NewExpense{}, &core.ValidationError{Field: "category", Err: err}
	}
	in.Category = category

	photo, err := parsePhoto(r)
	if err != nil {
		return services.NewExpense{}, err
	}
	in.Photo = photo
	return in, nil
}

func parsePhoto(r *http.Request) (*services.PhotoFile, error) {
	if r.MultipartForm == nil {
		return nil, nil
	}
	file, header, err := r.FormFile("photo")
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, &core.ValidationError{Field: "photo", Err: err}
	}
	defer file.Close()

	if header.Size > photos.MaxPhotoBytes {
		return nil, &core.ValidationError{Field: "photo", Err: ErrPhotoTooLarge}
	}
	data, err := io.ReadAll(io.LimitReader(file, photos.MaxPhotoBytes+1))
	if err != nil {
		return nil, &core.ValidationError{Field: "photo", Err: err}
	}
	if len(data) > photos.MaxPhotoBytes {
		return nil, &core.ValidationError{Field: "photo", Err: ErrPhotoTooLarge}
	}
	if len(data) == 0 {
		// the browser sends an empty part when no file was chosen
		return nil, nil
	}
	return &services.PhotoFile{Filename: filepath.Base(header.Filename), Data: data}, nil
}

// ParseIndex reads the {index} route variable.
func ParseIndex(r *http.Request) (int, error) {
	raw := strings.TrimSpace(mux.Vars(r)["index"])
	index, err := strconv.Atoi(raw)
	if err != nil {
		return 0, &core.IndexError{Index: -1}
	}
	return index, nil
}

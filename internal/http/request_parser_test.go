package http

import (
	"bytes"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaspese/internal/core"
	"notaspese/internal/photos"
)

func TestParseExpenseForm(t *testing.T) {
	form := url.Values{
		"date":        {"2025-03-10"},
		"description": {"  Client\x00 lunch  "},
		"category":    {"Ricevute – contanti"},
		"amount":      {"15.5"},
	}
	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, err := ParseExpenseForm(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.Equal(t, core.NewDate(2025, 3, 10), in.Date)
	assert.Equal(t, "Client lunch", in.Description)
	assert.Equal(t, core.ReceiptCash, in.Category)
	assert.Equal(t, int64(1550), in.Amount.Cents)
	assert.Nil(t, in.Photo)
}

func TestParseExpenseFormBlankDateIsZero(t *testing.T) {
	form := url.Values{"description": {"x"}, "category": {"receipt-cash"}, "amount": {"1"}}
	req := httptest.NewRequest(http.MethodPost, "/entries", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	in, err := ParseExpenseForm(httptest.NewRecorder(), req)
	require.NoError(t, err)
	assert.True(t, in.Date.IsZero(), "the service defaults it to today")
}

func TestParseExpenseFormPhotoTooLarge(t *testing.T) {
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	require.NoError(t, mw.WriteField("description", "x"))
	require.NoError(t, mw.WriteField("category", "receipt-cash"))
	require.NoError(t, mw.WriteField("amount", "1"))
	part, err := mw.CreateFormFile("photo", "big.jpg")
	require.NoError(t, err)
	_, err = part.Write(bytes.Repeat([]byte{0xff}, photos.MaxPhotoBytes+1))
	require.NoError(t, err)
	require.NoError(t, mw.Close())

	req := httptest.NewRequest(http.MethodPost, "/entries", &buf)
	req.Header.Set("Content-Type", mw.FormDataContentType())

	_, err = ParseExpenseForm(httptest.NewRecorder(), req)
	var verr *core.ValidationError
	require.True(t, errors.As(err, &verr))
	assert.Equal(t, "photo", verr.Field)
}

func TestParseIndex(t *testing.T) {
	req := mux.SetURLVars(httptest.NewRequest(http.MethodPost, "/entries/3/delete", nil), map[string]string{"index": "3"})
	index, err := ParseIndex(req)
	require.NoError(t, err)
	assert.Equal(t, 3, index)

	req = mux.SetURLVars(req, map[string]string{"index": "99999999999999999999"})
	_, err = ParseIndex(req)
	assert.ErrorIs(t, err, core.ErrIndexOutOfRange)
}

func TestSanitizeInput(t *testing.T) {
	assert.Equal(t, "a\tb", sanitizeInput("  a\x07\tb\x1b "))
}

func TestClassify(t *testing.T) {
	tests := []struct {
		err  error
		want int
	}{
		{&core.ValidationError{Field: "amount", Err: core.ErrInvalidAmount}, http.StatusUnprocessableEntity},
		{&core.IndexError{Index: 2, Len: 1}, http.StatusNotFound},
		{&core.PersistenceError{Op: "add", Err: core.ErrNetworkTimeout}, http.StatusBadGateway},
		{&core.PhotoUploadError{Err: errors.New("x")}, http.StatusBadGateway},
		{&core.TemplateNotFoundError{Path: "x"}, http.StatusInternalServerError},
		{core.ErrEmptyLedger, http.StatusConflict},
		{core.ErrNoPhotos, http.StatusConflict},
		{core.ErrTooManyEntries, http.StatusConflict},
		{errors.New("boom"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, classify(tt.err).status, tt.err.Error())
	}
	assert.Equal(t, "timeout_error", classify(&core.PersistenceError{Op: "add", Err: core.ErrNetworkTimeout}).errorType)
}

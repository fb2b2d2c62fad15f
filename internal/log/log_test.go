package log

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func jsonLogger(buf *bytes.Buffer, component string) *Logger {
	return New(Config{Level: slog.LevelDebug, Component: component, JSON: true, Output: buf})
}

func lastRecord(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := bytes.Split(bytes.TrimSpace(buf.Bytes()), []byte("\n"))
	var rec map[string]any
	require.NoError(t, json.Unmarshal(lines[len(lines)-1], &rec))
	return rec
}

func TestLoggerStampsComponent(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, ComponentLedger)

	l.Info("hello", "k", "v")
	rec := lastRecord(t, &buf)
	assert.Equal(t, "ledger", rec[FieldComponent])
	assert.Equal(t, "v", rec["k"])

	l.WithComponent(ComponentExport).Warn("w")
	assert.Equal(t, "export", lastRecord(t, &buf)[FieldComponent])
}

func TestLogFields(t *testing.T) {
	f := NewFields().
		WithEntry(2, "Taxi", 2000, "invoice-cash", true).
		WithWeek(11, 2025).
		WithError(errors.New("boom"), ErrorTypePersistence)

	assert.Equal(t, 2, f[FieldEntryIndex])
	assert.Equal(t, int64(2000), f[FieldAmountCents])
	assert.Equal(t, 11, f[FieldWeek])
	assert.Equal(t, "boom", f[FieldError])
	assert.Equal(t, ErrorTypePersistence, f[FieldErrorType])
	assert.Len(t, f.ToSlice(), len(f)*2)

	g := NewFields().WithEntry(-1, "x", 1, "c", false).WithError(nil, ErrorTypeInternal)
	assert.NotContains(t, g, FieldEntryIndex)
	assert.NotContains(t, g, FieldError)
}

func TestMiddlewareAndFromContext(t *testing.T) {
	var buf bytes.Buffer
	l := jsonLogger(&buf, ComponentHTTP)

	assert.Equal(t, "unknown", FromContext(context.Background()).Component())

	h := Middleware(l)(RequestIDMiddleware(func(*http.Request) string { return "req-1" })(
		http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			FromContext(r.Context()).Info("inside")
		})))
	h.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))

	rec := lastRecord(t, &buf)
	assert.Equal(t, "req-1", rec[FieldRequestID])
	assert.Equal(t, "http", rec[FieldComponent])
}

func TestStructuredLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	sl := NewStructuredLogger(jsonLogger(&buf, ComponentApp))
	r := httptest.NewRequest(http.MethodPost, "/entries", nil)

	sl.LogHTTPEnd(context.Background(), r, 422, 3, "127.0.0.1")
	rec := lastRecord(t, &buf)
	assert.Equal(t, "WARN", rec["level"])
	assert.Equal(t, false, rec[FieldSuccess])

	sl.LogHTTPEnd(context.Background(), r, 502, 3, "127.0.0.1")
	assert.Equal(t, "ERROR", lastRecord(t, &buf)["level"])

	sl.LogEntryAdded(context.Background(), 0, "Lunch", 1550, "receipt-cash", false)
	rec = lastRecord(t, &buf)
	assert.Equal(t, "ledger", rec[FieldComponent])
	assert.Equal(t, OpAdd, rec[FieldOperation])
}

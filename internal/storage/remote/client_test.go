package remote

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notaspese/internal/core"
)

// kvServer is a minimal key-value document service.
type kvServer struct {
	mu     sync.Mutex
	docs   map[string][]byte
	keys   []string
	status int
}

func newKVServer(t *testing.T) (*kvServer, *httptest.Server) {
	t.Helper()
	kv := &kvServer{docs: map[string][]byte{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		kv.mu.Lock()
		defer kv.mu.Unlock()
		kv.keys = append(kv.keys, r.Header.Get(DefaultKeyHeader))
		if kv.status != 0 {
			http.Error(w, "unavailable", kv.status)
			return
		}
		switch r.Method {
		case http.MethodGet:
			doc, ok := kv.docs[r.URL.Path]
			if !ok {
				http.NotFound(w, r)
				return
			}
			_, _ = w.Write(doc)
		case http.MethodPut:
			body, _ := io.ReadAll(r.Body)
			kv.docs[r.URL.Path] = body
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
	}))
	t.Cleanup(srv.Close)
	return kv, srv
}

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: baseURL + "/", DocumentID: "ledger", APIKey: "secret", Timeout: time.Second})
	require.NoError(t, err)
	return c
}

func TestSaveThenLoadRoundTrip(t *testing.T) {
	ctx := context.Background()
	kv, srv := newKVServer(t)
	c := newTestClient(t, srv.URL)

	entries := []core.Entry{
		{Date: core.NewDate(2025, 1, 6), Description: "Client lunch", Category: core.ReceiptCash, Amount: core.Money{Cents: 1550}},
		{Date: core.NewDate(2025, 1, 7), Description: "Train", Category: core.InvoiceCreditCard, Amount: core.Money{Cents: 4590}, PhotoURL: "https://i.ibb.co/t.jpg"},
	}
	require.NoError(t, c.Save(ctx, entries))
	assert.Contains(t, string(kv.docs["/ledger"]), `"spese"`)

	got := c.Load(ctx)
	require.Len(t, got, 2)
	for i := range entries {
		assert.Equal(t, entries[i].Date.ISO(), got[i].Date.ISO())
		assert.Equal(t, entries[i].Description, got[i].Description)
		assert.Equal(t, entries[i].Category, got[i].Category)
		assert.Equal(t, entries[i].Amount, got[i].Amount)
		assert.Equal(t, entries[i].PhotoURL, got[i].PhotoURL)
	}
	for _, k := range kv.keys {
		assert.Equal(t, "secret", k)
	}
}

func TestLoadAcceptsBareList(t *testing.T) {
	kv, srv := newKVServer(t)
	kv.docs["/ledger"] = []byte(`[{"date":"2025-03-10","description":"Parking","category":"Receipts – cash","amount":3,"photo_url":null}]`)
	c := newTestClient(t, srv.URL)

	got := c.Load(context.Background())
	require.Len(t, got, 1)
	assert.Equal(t, "Parking", got[0].Description)
	assert.Equal(t, core.Money{Cents: 300}, got[0].Amount)
}

func TestLoadFailsOpen(t *testing.T) {
	kv, srv := newKVServer(t)
	c := newTestClient(t, srv.URL)

	// missing document
	assert.Empty(t, c.Load(context.Background()))

	// server error
	kv.status = http.StatusInternalServerError
	assert.Empty(t, c.Load(context.Background()))

	// undecodable document
	kv.status = 0
	kv.docs["/ledger"] = []byte(`<html>`)
	got := c.Load(context.Background())
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestLoadRejectsOversizedDocument(t *testing.T) {
	kv, srv := newKVServer(t)
	// A valid envelope padded past the limit; truncating it would not decode.
	doc := `{"spese": []` + strings.Repeat(" ", maxDocumentBytes) + `}`
	kv.docs["/ledger"] = []byte(doc)
	c := newTestClient(t, srv.URL)

	_, err := c.load(context.Background())
	require.ErrorIs(t, err, ErrDocumentTooLarge)
	assert.False(t, core.IsTimeout(err))

	assert.Empty(t, c.Load(context.Background()))
}

func TestLoadAcceptsDocumentAtLimit(t *testing.T) {
	kv, srv := newKVServer(t)
	prefix := `{"spese": []`
	doc := prefix + strings.Repeat(" ", maxDocumentBytes-len(prefix)-1) + `}`
	require.Len(t, doc, maxDocumentBytes)
	kv.docs["/ledger"] = []byte(doc)
	c := newTestClient(t, srv.URL)

	entries, err := c.load(context.Background())
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestSaveReportsStatusErrors(t *testing.T) {
	kv, srv := newKVServer(t)
	kv.status = http.StatusUnauthorized
	c := newTestClient(t, srv.URL)

	err := c.Save(context.Background(), nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.False(t, core.IsTimeout(err))
}

func TestTimeouts(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	t.Cleanup(srv.Close)
	t.Cleanup(func() { close(release) })

	c, err := NewClient(Config{BaseURL: srv.URL, DocumentID: "ledger", Timeout: 50 * time.Millisecond})
	require.NoError(t, err)

	err = c.Save(context.Background(), nil)
	require.Error(t, err)
	assert.ErrorIs(t, err, core.ErrNetworkTimeout)

	assert.Empty(t, c.Load(context.Background()))
}

func TestNewClientValidation(t *testing.T) {
	_, err := NewClient(Config{DocumentID: "x"})
	assert.Error(t, err)
	_, err = NewClient(Config{BaseURL: "http://example.com"})
	assert.Error(t, err)

	c, err := NewClient(Config{BaseURL: "http://example.com/b/", DocumentID: "doc"})
	require.NoError(t, err)
	assert.Equal(t, "http://example.com/b/doc", c.url)
	assert.Equal(t, DefaultKeyHeader, c.keyHeader)
	assert.Equal(t, DefaultTimeout, c.timeout)
}

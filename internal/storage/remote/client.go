// Package remote implements the ledger store on top of a hosted JSON
// key-value service: the ledger document lives under a fixed id and is read
// with GET and replaced with PUT.
package remote

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"notaspese/internal/core"
	"notaspese/internal/ledger"
	"notaspese/internal/storage/document"
)

const (
	DefaultKeyHeader = "X-Master-Key"
	DefaultTimeout   = 10 * time.Second

	maxDocumentBytes = 4 << 20
)

var _ ledger.Store = (*Client)(nil)

// ErrDocumentTooLarge is returned when the store sends more than
// maxDocumentBytes.
var ErrDocumentTooLarge = errors.New("ledger document too large")

type Config struct {
	BaseURL    string
	DocumentID string
	APIKey     string
	KeyHeader  string
	Timeout    time.Duration
	HTTPClient *http.Client
}

type Client struct {
	url        string
	apiKey     string
	keyHeader  string
	timeout    time.Duration
	httpClient *http.Client
}

func NewClient(cfg Config) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if base == "" {
		return nil, errors.New("missing ledger store URL")
	}
	if strings.TrimSpace(cfg.DocumentID) == "" {
		return nil, errors.New("missing ledger document id")
	}
	c := &Client{
		url:        base + "/" + strings.TrimSpace(cfg.DocumentID),
		apiKey:     cfg.APIKey,
		keyHeader:  cfg.KeyHeader,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
	}
	if c.keyHeader == "" {
		c.keyHeader = DefaultKeyHeader
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if c.httpClient == nil {
		c.httpClient = &http.Client{Timeout: c.timeout}
	}
	return c, nil
}

// Load fetches the ledger document. Any failure yields an empty ledger: an
// unreachable store and a store without data look the same to the caller.
func (c *Client) Load(ctx context.Context) []core.Entry {
	entries, err := c.load(ctx)
	if err != nil {
		slog.WarnContext(ctx, "Ledger load failed, starting with an empty ledger",
			"url", c.url,
			"timeout", core.IsTimeout(err),
			"error", err)
		return []core.Entry{}
	}
	return entries
}

func (c *Client) load(ctx context.Context) ([]core.Entry, error) {
	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	body, err := c.do(req)
	if err != nil {
		return nil, err
	}
	return document.Decode(body)
}

// Save replaces the remote document with entries.
func (c *Client) Save(ctx context.Context, entries []core.Entry) error {
	payload, err := document.Encode(entries)
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPut, c.url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if _, err := c.do(req); err != nil {
		slog.ErrorContext(ctx, "Ledger save failed",
			"url", c.url,
			"entries", len(entries),
			"timeout", core.IsTimeout(err),
			"error", err)
		return err
	}
	return nil
}

func (c *Client) do(req *http.Request) ([]byte, error) {
	if c.apiKey != "" {
		req.Header.Set(c.keyHeader, c.apiKey)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, core.NetworkError(fmt.Errorf("%s %s: %w", req.Method, c.url, err))
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return nil, core.NetworkError(fmt.Errorf("read response: %w", err))
	}
	tooLarge := len(body) > maxDocumentBytes
	if tooLarge {
		body = body[:maxDocumentBytes]
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("%s %s: unexpected status %d: %s",
			req.Method, c.url, resp.StatusCode, strings.TrimSpace(string(body)))
	}
	if tooLarge {
		return nil, fmt.Errorf("%s %s: %w (limit %d bytes)", req.Method, c.url, ErrDocumentTooLarge, maxDocumentBytes)
	}
	return body, nil
}

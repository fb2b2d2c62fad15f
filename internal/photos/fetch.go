package photos

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"notaspese/internal/core"
)

// Photo is a downloaded receipt image.
type Photo struct {
	Data []byte
	// Type is the image format name understood by the PDF writer: "JPG",
	// "PNG" or "GIF".
	Type string
}

// Fetcher downloads receipt photos by URL.
type Fetcher struct {
	timeout    time.Duration
	httpClient *http.Client
}

func NewFetcher(timeout time.Duration, client *http.Client) *Fetcher {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if client == nil {
		client = &http.Client{Timeout: timeout}
	}
	return &Fetcher{timeout: timeout, httpClient: client}
}

// Fetch downloads the photo at url. Failures are *core.PhotoFetchError.
func (f *Fetcher) Fetch(ctx context.Context, url string) (Photo, error) {
	p, err := f.fetch(ctx, url)
	if err != nil {
		return Photo{}, &core.PhotoFetchError{URL: url, Err: err}
	}
	return p, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string) (Photo, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return Photo{}, fmt.Errorf("build request: %w", err)
	}
	resp, err := f.httpClient.Do(req)
	if err != nil {
		return Photo{}, core.NetworkError(err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Photo{}, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxPhotoBytes+1))
	if err != nil {
		return Photo{}, core.NetworkError(fmt.Errorf("read body: %w", err))
	}
	if len(data) > MaxPhotoBytes {
		return Photo{}, fmt.Errorf("photo larger than %d bytes", MaxPhotoBytes)
	}

	kind := ImageType(data)
	if kind == "" {
		return Photo{}, fmt.Errorf("unsupported image type %q", resp.Header.Get("Content-Type"))
	}
	return Photo{Data: data, Type: kind}, nil
}

// ImageType sniffs the image format from its first bytes. It returns "" for
// anything the PDF writer cannot embed.
func ImageType(data []byte) string {
	switch ct := http.DetectContentType(data); {
	case strings.HasPrefix(ct, "image/jpeg"):
		return "JPG"
	case strings.HasPrefix(ct, "image/png"):
		return "PNG"
	case strings.HasPrefix(ct, "image/gif"):
		return "GIF"
	default:
		return ""
	}
}

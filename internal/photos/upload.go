// Package photos talks to the remote image host: receipts are uploaded once
// when an expense is recorded and fetched back when the photo sheet is built.
package photos

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/url"
	"path/filepath"
	"strings"
	"time"

	"notaspese/internal/core"
)

const (
	DefaultTimeout = 30 * time.Second
	// MaxPhotoBytes bounds both uploads and downloads.
	MaxPhotoBytes = 10 << 20

	uploadField = "image"
)

type UploaderConfig struct {
	Endpoint   string
	APIKey     string
	Timeout    time.Duration
	HTTPClient *http.Client
}

// Uploader posts receipt photos to the image host and returns their URL.
type Uploader struct {
	endpoint   string
	apiKey     string
	timeout    time.Duration
	httpClient *http.Client
}

func NewUploader(cfg UploaderConfig) (*Uploader, error) {
	endpoint := strings.TrimSpace(cfg.Endpoint)
	if endpoint == "" {
		return nil, errors.New("missing photo upload URL")
	}
	if _, err := url.Parse(endpoint); err != nil {
		return nil, fmt.Errorf("invalid photo upload URL: %w", err)
	}
	u := &Uploader{
		endpoint:   endpoint,
		apiKey:     cfg.APIKey,
		timeout:    cfg.Timeout,
		httpClient: cfg.HTTPClient,
	}
	if u.timeout <= 0 {
		u.timeout = DefaultTimeout
	}
	if u.httpClient == nil {
		u.httpClient = &http.Client{Timeout: u.timeout}
	}
	return u, nil
}

type uploadResponse struct {
	URL  string `json:"url"`
	Data struct {
		URL string `json:"url"`
	} `json:"data"`
}

// Upload sends data as a multipart image and returns the hosted URL. Every
// failure is a *core.PhotoUploadError.
func (u *Uploader) Upload(ctx context.Context, filename string, data []byte) (string, error) {
	hosted, err := u.upload(ctx, filename, data)
	if err != nil {
		slog.ErrorContext(ctx, "Photo upload failed",
			"filename", filename,
			"bytes", len(data),
			"timeout", core.IsTimeout(err),
			"error", err)
		return "", &core.PhotoUploadError{Err: err}
	}
	slog.InfoContext(ctx, "Photo uploaded", "filename", filename, "url", hosted)
	return hosted, nil
}

func (u *Uploader) upload(ctx context.Context, filename string, data []byte) (string, error) {
	if len(data) == 0 {
		return "", errors.New("empty photo")
	}
	if len(data) > MaxPhotoBytes {
		return "", fmt.Errorf("photo too large: %d bytes", len(data))
	}

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	if filename == "" {
		filename = "receipt.jpg"
	}
	part, err := mw.CreateFormFile(uploadField, filepath.Base(filename))
	if err != nil {
		return "", fmt.Errorf("create form file: %w", err)
	}
	if _, err := part.Write(data); err != nil {
		return "", fmt.Errorf("write form file: %w", err)
	}
	if err := mw.Close(); err != nil {
		return "", fmt.Errorf("close multipart: %w", err)
	}

	endpoint, err := url.Parse(u.endpoint)
	if err != nil {
		return "", fmt.Errorf("parse endpoint: %w", err)
	}
	if u.apiKey != "" {
		q := endpoint.Query()
		q.Set("key", u.apiKey)
		endpoint.RawQuery = q.Encode()
	}

	ctx, cancel := context.WithTimeout(ctx, u.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint.String(), &body)
	if err != nil {
		return "", fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())
	req.Header.Set("Accept", "application/json")

	resp, err := u.httpClient.Do(req)
	if err != nil {
		// The key travels in the query string; keep it out of the error.
		return "", core.NetworkError(fmt.Errorf("POST %s: %w", u.endpoint, redact(err)))
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", core.NetworkError(fmt.Errorf("read response: %w", err))
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return "", fmt.Errorf("POST %s: unexpected status %d: %s",
			u.endpoint, resp.StatusCode, strings.TrimSpace(string(raw)))
	}

	var out uploadResponse
	if err := json.Unmarshal(raw, &out); err != nil {
		return "", fmt.Errorf("decode response: %w", err)
	}
	hosted := out.Data.URL
	if hosted == "" {
		hosted = out.URL
	}
	if hosted == "" {
		return "", errors.New("response has no url")
	}
	return hosted, nil
}

// redact strips the URL from *url.Error so the API key is not logged.
func redact(err error) error {
	var uerr *url.Error
	if errors.As(err, &uerr) {
		return fmt.Errorf("%s: %w", uerr.Op, uerr.Err)
	}
	return err
}

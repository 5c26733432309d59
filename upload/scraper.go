// Copyright 2025 Poiesic Systems
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package upload

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strings"
	"time"
)

// streamPath is appended to the scraper base URL.
const streamPath = "/stream/upload/"

// maxErrorBody bounds how much of a failed response is kept as error detail.
const maxErrorBody = 64 << 10

// Scraper extracts chunks from files. Stream returns the NDJSON response body,
// which the caller must close.
type Scraper interface {
	Stream(ctx context.Context, files []File, documentIDs []string) (io.ReadCloser, error)
}

// ScraperClient talks to the HTTP scraper service.
type ScraperClient struct {
	baseURL string
	token   string
	timeout time.Duration
	client  *http.Client
	logger  *slog.Logger
}

// ScraperOption configures a ScraperClient.
type ScraperOption func(*ScraperClient)

// WithToken forwards token as a bearer credential.
func WithToken(token string) ScraperOption {
	return func(c *ScraperClient) {
		c.token = token
	}
}

// WithHTTPClient sets the HTTP client used for uploads.
func WithHTTPClient(client *http.Client) ScraperOption {
	return func(c *ScraperClient) {
		if client != nil {
			c.client = client
		}
	}
}

// WithTimeout bounds the upload and the wait for response headers.
// Reading the chunk stream afterwards is not limited, since the stream is
// consumed only as fast as chunks are processed. Zero means no limit.
func WithTimeout(timeout time.Duration) ScraperOption {
	return func(c *ScraperClient) {
		c.timeout = timeout
	}
}

// WithScraperLogger sets a custom logger.
func WithScraperLogger(logger *slog.Logger) ScraperOption {
	return func(c *ScraperClient) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// NewScraperClient creates a client for the scraper at baseURL.
func NewScraperClient(baseURL string, opts ...ScraperOption) (*ScraperClient, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, ErrScraperURLRequired
	}

	c := &ScraperClient{
		baseURL: baseURL,
		client:  &http.Client{},
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "scraper-client")
	return c, nil
}

// Stream uploads files and returns the chunk stream.
// A non-200 response is returned as *ScraperError.
func (c *ScraperClient) Stream(ctx context.Context, files []File, documentIDs []string) (io.ReadCloser, error) {
	body, contentType, err := buildMultipart(files, documentIDs)
	if err != nil {
		return nil, fmt.Errorf("build scraper request: %w", err)
	}

	reqCtx, cancel := context.WithCancelCause(ctx)
	req, err := http.NewRequestWithContext(reqCtx, http.MethodPost, c.baseURL+streamPath, body)
	if err != nil {
		cancel(nil)
		return nil, fmt.Errorf("build scraper request: %w", err)
	}
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	c.logger.Debug("uploading files to scraper", "files", len(files), "bytes", body.Len())
	var timer *time.Timer
	if c.timeout > 0 {
		timer = time.AfterFunc(c.timeout, func() { cancel(ErrScraperTimeout) })
	}
	resp, err := c.client.Do(req)
	// The deadline only covers the upload and the response headers.
	timedOut := timer != nil && !timer.Stop()
	if err != nil {
		cancel(nil)
		if timedOut {
			return nil, fmt.Errorf("scraper request after %v: %w", c.timeout, ErrScraperTimeout)
		}
		return nil, fmt.Errorf("scraper request: %w", err)
	}
	if timedOut {
		resp.Body.Close()
		cancel(nil)
		return nil, fmt.Errorf("scraper request after %v: %w", c.timeout, ErrScraperTimeout)
	}

	if resp.StatusCode != http.StatusOK {
		defer cancel(nil)
		defer resp.Body.Close()
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return nil, &ScraperError{
			StatusCode: resp.StatusCode,
			Detail:     strings.TrimSpace(string(detail)),
		}
	}

	return &streamBody{ReadCloser: resp.Body, cancel: cancel}, nil
}

// streamBody releases the request context when the stream is closed.
type streamBody struct {
	io.ReadCloser
	cancel context.CancelCauseFunc
}

func (b *streamBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel(nil)
	return err
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

// buildMultipart writes a "files" part per file followed by a "uuids" field
// per document id.
func buildMultipart(files []File, documentIDs []string) (*bytes.Buffer, string, error) {
	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition",
			fmt.Sprintf(`form-data; name="files"; filename="%s"`, quoteEscaper.Replace(f.Name)))
		header.Set("Content-Type", contentType(f.Name, f.ContentType))
		part, err := w.CreatePart(header)
		if err != nil {
			return nil, "", err
		}
		if _, err := part.Write(f.Data); err != nil {
			return nil, "", err
		}
	}

	for _, id := range documentIDs {
		if err := w.WriteField("uuids", id); err != nil {
			return nil, "", err
		}
	}

	if err := w.Close(); err != nil {
		return nil, "", err
	}
	return &buf, w.FormDataContentType(), nil
}

// Package gcs serves the application shell from a Google Cloud Storage
// object. Every client-side route renders the same shell, so reading the
// object is equivalent to an anonymous GET against the hosting origin.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"cloud.google.com/go/storage"

	"github.com/JakeFAU/render-gateway/internal/origin"
)

// Config captures the object to read.
type Config struct {
	Bucket       string
	Object       string
	Timeout      time.Duration
	MaxBodyBytes int
}

// Fetcher implements origin.Fetcher against a bucket object.
type Fetcher struct {
	client       *storage.Client
	bucket       string
	object       string
	timeout      time.Duration
	maxBodyBytes int
}

// New creates a GCS-backed shell fetcher.
func New(client *storage.Client, cfg Config) (*Fetcher, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	object := strings.TrimPrefix(cfg.Object, "/")
	if object == "" {
		object = "index.html"
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 4 * time.Second
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 2 << 20
	}
	return &Fetcher{
		client:       client,
		bucket:       cfg.Bucket,
		object:       object,
		timeout:      timeout,
		maxBodyBytes: maxBody,
	}, nil
}

// Fetch reads the shell object. The inbound request is not consulted.
func (f *Fetcher) Fetch(ctx context.Context, _ *http.Request) (origin.Document, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	uri := fmt.Sprintf("gs://%s/%s", f.bucket, f.object)
	reader, err := f.client.Bucket(f.bucket).Object(f.object).NewReader(ctx)
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
			return origin.Document{}, &origin.FetchFailure{
				Cause:      origin.CauseHTTPStatus,
				URL:        uri,
				StatusCode: http.StatusNotFound,
				Err:        err,
			}
		}
		return origin.Document{}, &origin.FetchFailure{Cause: origin.CauseNetwork, URL: uri, Err: err}
	}
	defer func() {
		_ = reader.Close()
	}()

	body, err := io.ReadAll(io.LimitReader(reader, int64(f.maxBodyBytes)+1))
	if err != nil {
		return origin.Document{}, &origin.FetchFailure{Cause: origin.CauseNetwork, URL: uri, Err: fmt.Errorf("read object: %w", err)}
	}
	if len(body) > f.maxBodyBytes {
		return origin.Document{}, &origin.FetchFailure{
			Cause: origin.CauseParse,
			URL:   uri,
			Err:   fmt.Errorf("object exceeds %d bytes", f.maxBodyBytes),
		}
	}
	contentType := reader.Attrs.ContentType
	if contentType == "" {
		contentType = "text/html; charset=utf-8"
	}
	return origin.Document{
		URL:         uri,
		StatusCode:  http.StatusOK,
		ContentType: contentType,
		Body:        body,
	}, nil
}

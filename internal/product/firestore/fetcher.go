// Package firestore reads products through the document store's per-document
// REST endpoint, authenticated with a server-held API key.
package firestore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/JakeFAU/render-gateway/internal/product"
)

const (
	defaultCollection = "products"
	defaultTimeout    = 3 * time.Second
	maxDocumentBytes  = 1 << 20
)

// Config controls the document endpoint and the per-call budget.
type Config struct {
	ProjectID string
	APIKey    string
	// BaseURL overrides the documents root derived from ProjectID.
	BaseURL    string
	Collection string
	Timeout    time.Duration
}

// Fetcher implements product.Source against the REST document API.
type Fetcher struct {
	client     *http.Client
	baseURL    string
	collection string
	apiKey     string
	timeout    time.Duration
}

// New builds a Fetcher. The client may be nil.
func New(cfg Config, client *http.Client) (*Fetcher, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("api key is required")
	}
	base := strings.TrimRight(cfg.BaseURL, "/")
	if base == "" {
		if cfg.ProjectID == "" {
			return nil, fmt.Errorf("project id or base url is required")
		}
		base = fmt.Sprintf(
			"https://firestore.googleapis.com/v1/projects/%s/databases/(default)/documents",
			url.PathEscape(cfg.ProjectID),
		)
	}
	collection := cfg.Collection
	if collection == "" {
		collection = defaultCollection
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	if client == nil {
		client = &http.Client{Transport: newHTTPTransport()}
	}
	return &Fetcher{
		client:     client,
		baseURL:    base,
		collection: collection,
		apiKey:     cfg.APIKey,
		timeout:    timeout,
	}, nil
}

// Fetch issues exactly one GET for the document and maps it to a Product.
// Every error is a *product.FetchFailure.
func (f *Fetcher) Fetch(ctx context.Context, id string) (product.Product, error) {
	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, f.documentURL(id), nil)
	if err != nil {
		return product.Product{}, product.Fail(product.CauseNetwork, id, fmt.Errorf("build request: %w", err))
	}
	req.Header.Set("Accept", "application/json")

	resp, err := f.client.Do(req)
	if err != nil {
		return product.Product{}, product.Fail(product.CauseNetwork, id, f.redact(err))
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode == http.StatusNotFound {
		return product.Product{}, &product.FetchFailure{
			Cause:      product.CauseNotFound,
			ProductID:  id,
			StatusCode: resp.StatusCode,
		}
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return product.Product{}, &product.FetchFailure{
			Cause:      product.CauseHTTPStatus,
			ProductID:  id,
			StatusCode: resp.StatusCode,
		}
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentBytes+1))
	if err != nil {
		return product.Product{}, product.Fail(product.CauseNetwork, id, fmt.Errorf("read body: %w", err))
	}
	if len(body) > maxDocumentBytes {
		return product.Product{}, product.Fail(product.CauseParse, id, fmt.Errorf("document exceeds %d bytes", maxDocumentBytes))
	}

	var doc document
	if err := json.Unmarshal(body, &doc); err != nil {
		return product.Product{}, product.Fail(product.CauseParse, id, fmt.Errorf("decode document: %w", err))
	}
	if doc.Name == "" && doc.Fields == nil {
		return product.Product{}, product.Fail(product.CauseNotFound, id, errors.New("empty document"))
	}
	p, err := decodeProduct(id, doc.Fields)
	if err != nil {
		return product.Product{}, product.Fail(product.CauseParse, id, err)
	}
	return p, nil
}

func (f *Fetcher) documentURL(id string) string {
	return f.baseURL + "/" + url.PathEscape(f.collection) + "/" + url.PathEscape(id) +
		"?key=" + url.QueryEscape(f.apiKey)
}

// redact strips the credential from transport errors, which embed the
// request URL.
func (f *Fetcher) redact(err error) error {
	var urlErr *url.Error
	if errors.As(err, &urlErr) {
		urlErr.URL = strings.ReplaceAll(urlErr.URL, url.QueryEscape(f.apiKey), "REDACTED")
	}
	return err
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   2 * time.Second,
		ResponseHeaderTimeout: 3 * time.Second,
		MaxIdleConns:          50,
		IdleConnTimeout:       90 * time.Second,
	}
}

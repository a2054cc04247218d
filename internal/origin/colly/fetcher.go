// Package collyfetcher implements origin.Fetcher using gocolly.
package collyfetcher

import (
	"context"
	"fmt"
	"net"
	"net/http"
	"net/url"
	"time"

	"github.com/gocolly/colly/v2"

	"github.com/JakeFAU/render-gateway/internal/origin"
)

const (
	defaultUserAgent    = "KamiKotoRenderGateway/1.0 (+shell-fetch)"
	defaultTimeout      = 4 * time.Second
	defaultMaxBodyBytes = 2 << 20
)

// Config controls collector behavior.
type Config struct {
	BaseURL      string
	UserAgent    string
	Timeout      time.Duration
	MaxBodyBytes int
}

// Fetcher implements origin.Fetcher using the Colly collector.
type Fetcher struct {
	base          *url.URL
	userAgent     string
	maxBodyBytes  int
	baseCollector *colly.Collector
}

type collectorHooks interface {
	OnRequest(colly.RequestCallback)
	OnResponse(colly.ResponseCallback)
	OnError(colly.ErrorCallback)
}

// New builds a Fetcher for the origin at cfg.BaseURL.
func New(cfg Config) (*Fetcher, error) {
	base, err := url.Parse(cfg.BaseURL)
	if err != nil {
		return nil, fmt.Errorf("parse origin url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("origin url must be http or https, got %q", cfg.BaseURL)
	}
	userAgent := cfg.UserAgent
	if userAgent == "" {
		userAgent = defaultUserAgent
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	maxBody := cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = defaultMaxBodyBytes
	}

	// The origin is our own storefront, so robots.txt does not apply.
	c := colly.NewCollector(
		colly.Async(false),
		colly.AllowURLRevisit(),
		colly.IgnoreRobotsTxt(),
		colly.ParseHTTPErrorResponse(),
		colly.MaxBodySize(maxBody+1),
		colly.UserAgent(userAgent),
	)
	c.DisableCookies()
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(timeout)

	return &Fetcher{
		base:          base,
		userAgent:     userAgent,
		maxBodyBytes:  maxBody,
		baseCollector: c,
	}, nil
}

// Fetch GETs the inbound path and query from the origin, sending only an
// Accept header and the gateway's own User-Agent.
func (f *Fetcher) Fetch(ctx context.Context, r *http.Request) (origin.Document, error) {
	target := origin.TargetURL(f.base, r)
	var (
		result   origin.Document
		fetchErr error
	)
	collector := f.baseCollector.Clone()
	f.configureCollectorHooks(collector, origin.Accept(r), &result, &fetchErr)

	if err := f.runCollector(ctx, collector, target, &fetchErr); err != nil {
		return origin.Document{}, &origin.FetchFailure{Cause: origin.CauseNetwork, URL: target, Err: err}
	}
	if result.StatusCode < 200 || result.StatusCode > 299 {
		return origin.Document{}, &origin.FetchFailure{
			Cause:      origin.CauseHTTPStatus,
			URL:        target,
			StatusCode: result.StatusCode,
		}
	}
	if len(result.Body) > f.maxBodyBytes {
		return origin.Document{}, &origin.FetchFailure{
			Cause: origin.CauseParse,
			URL:   target,
			Err:   fmt.Errorf("body exceeds %d bytes", f.maxBodyBytes),
		}
	}
	return result, nil
}

func (f *Fetcher) configureCollectorHooks(
	hooks collectorHooks,
	accept string,
	result *origin.Document,
	fetchErr *error,
) {
	hooks.OnRequest(func(r *colly.Request) {
		f.sanitizeHeaders(r, accept)
	})

	hooks.OnResponse(func(r *colly.Response) {
		*result = origin.Document{
			URL:         r.Request.URL.String(),
			StatusCode:  r.StatusCode,
			ContentType: r.Headers.Get("Content-Type"),
			Body:        append([]byte(nil), r.Body...),
		}
	})

	hooks.OnError(func(_ *colly.Response, err error) {
		*fetchErr = err
	})
}

// sanitizeHeaders replaces whatever colly prepared with the allow-list.
func (f *Fetcher) sanitizeHeaders(r *colly.Request, accept string) {
	if r.Headers == nil {
		r.Headers = &http.Header{}
	}
	for key := range *r.Headers {
		r.Headers.Del(key)
	}
	r.Headers.Set("Accept", accept)
	r.Headers.Set("User-Agent", f.userAgent)
}

func (f *Fetcher) runCollector(ctx context.Context, collector *colly.Collector, url string, fetchErr *error) error {
	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(url)
	}()

	select {
	case <-ctx.Done():
		return fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if err != nil {
			return fmt.Errorf("colly visit failed: %w", err)
		}
		if *fetchErr != nil {
			return fmt.Errorf("colly response failed: %w", *fetchErr)
		}
		return nil
	}
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   2 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   3 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}

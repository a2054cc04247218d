package collyfetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gocolly/colly/v2"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/render-gateway/internal/origin"
)

const shell = `<!doctype html><html><head><title>Shop</title></head><body><div id="root"></div></body></html>`

type recordedRequest struct {
	path   string
	query  string
	header http.Header
}

type recorder struct {
	mu   sync.Mutex
	seen []recordedRequest
}

func (r *recorder) requests() []recordedRequest {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]recordedRequest(nil), r.seen...)
}

func newOrigin(t *testing.T, handler http.HandlerFunc) (*httptest.Server, *recorder) {
	t.Helper()
	rec := &recorder{}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec.mu.Lock()
		rec.seen = append(rec.seen, recordedRequest{path: r.URL.Path, query: r.URL.RawQuery, header: r.Header.Clone()})
		rec.mu.Unlock()
		handler(w, r)
	}))
	t.Cleanup(srv.Close)
	return srv, rec
}

func TestFetchSendsOnlyAllowListedHeaders(t *testing.T) {
	t.Parallel()

	srv, rec := newOrigin(t, func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		_, _ = w.Write([]byte(shell))
	})
	f, err := New(Config{BaseURL: srv.URL, UserAgent: "test-gateway/1.0", Timeout: time.Second})
	require.NoError(t, err)

	in := httptest.NewRequest(http.MethodGet, "/product/abc123?ref=share", nil)
	in.Header.Set("User-Agent", "Discordbot/2.0")
	in.Header.Set("Authorization", "Bearer secret")
	in.Header.Set("Cookie", "session=abc")
	in.Header.Set("X-Forwarded-For", "203.0.113.9")
	in.Header.Set("Accept", "text/html")

	doc, err := f.Fetch(context.Background(), in)
	require.NoError(t, err)
	require.Equal(t, http.StatusOK, doc.StatusCode)
	require.Equal(t, shell, string(doc.Body))
	require.Equal(t, "text/html; charset=utf-8", doc.ContentType)

	seen := rec.requests()
	require.Len(t, seen, 1)
	got := seen[0]
	require.Equal(t, "/product/abc123", got.path)
	require.Equal(t, "ref=share", got.query)
	require.Equal(t, "text/html", got.header.Get("Accept"))
	require.Equal(t, "test-gateway/1.0", got.header.Get("User-Agent"))
	require.Empty(t, got.header.Get("Authorization"))
	require.Empty(t, got.header.Get("Cookie"))
	require.Empty(t, got.header.Get("X-Forwarded-For"))
}

func TestFetchRepeatedURLs(t *testing.T) {
	t.Parallel()

	srv, rec := newOrigin(t, func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(shell))
	})
	f, err := New(Config{BaseURL: srv.URL})
	require.NoError(t, err)

	for range 3 {
		_, err := f.Fetch(context.Background(), httptest.NewRequest(http.MethodGet, "/product/same", nil))
		require.NoError(t, err)
	}
	seen := rec.requests()
	require.Len(t, seen, 3)
	require.Equal(t, origin.DefaultAccept, seen[0].header.Get("Accept"))
}

func TestFetchFailures(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		handler http.HandlerFunc
		cfg     Config
		cause   origin.Cause
		status  int
	}{
		{
			name:    "server error",
			handler: func(w http.ResponseWriter, _ *http.Request) { w.WriteHeader(http.StatusBadGateway) },
			cause:   origin.CauseHTTPStatus,
			status:  http.StatusBadGateway,
		},
		{
			name:    "not found",
			handler: func(w http.ResponseWriter, _ *http.Request) { http.NotFound(w, nil) },
			cause:   origin.CauseHTTPStatus,
			status:  http.StatusNotFound,
		},
		{
			name: "oversized body",
			handler: func(w http.ResponseWriter, _ *http.Request) {
				_, _ = w.Write([]byte(strings.Repeat("x", 64)))
			},
			cfg:   Config{MaxBodyBytes: 16},
			cause: origin.CauseParse,
		},
		{
			name: "timeout",
			handler: func(_ http.ResponseWriter, r *http.Request) {
				select {
				case <-time.After(2 * time.Second):
				case <-r.Context().Done():
				}
			},
			cfg:   Config{Timeout: 50 * time.Millisecond},
			cause: origin.CauseNetwork,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			srv, _ := newOrigin(t, tt.handler)
			cfg := tt.cfg
			cfg.BaseURL = srv.URL
			f, err := New(cfg)
			require.NoError(t, err)

			_, err = f.Fetch(context.Background(), httptest.NewRequest(http.MethodGet, "/product/x", nil))
			require.Error(t, err)
			var failure *origin.FetchFailure
			require.True(t, errors.As(err, &failure))
			require.Equal(t, tt.cause, failure.Cause)
			require.Equal(t, tt.status, failure.StatusCode)
		})
	}
}

func TestFetchHonorsContext(t *testing.T) {
	t.Parallel()

	srv, _ := newOrigin(t, func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-time.After(time.Second):
		case <-r.Context().Done():
		}
	})
	f, err := New(Config{BaseURL: srv.URL, Timeout: 5 * time.Second})
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Millisecond)
	defer cancel()
	_, err = f.Fetch(ctx, httptest.NewRequest(http.MethodGet, "/", nil))
	require.Error(t, err)
	require.Equal(t, origin.CauseNetwork, origin.CauseOf(err))
}

func TestNewRejectsBadOrigin(t *testing.T) {
	t.Parallel()

	_, err := New(Config{BaseURL: "ftp://shop.example"})
	require.Error(t, err)
	_, err = New(Config{BaseURL: "::bad"})
	require.Error(t, err)
}

func TestSanitizeHeaders(t *testing.T) {
	t.Parallel()

	f, err := New(Config{BaseURL: "https://shop.example", UserAgent: "ua"})
	require.NoError(t, err)

	req := &colly.Request{Headers: &http.Header{
		"Cookie":        {"a=b"},
		"Authorization": {"Basic x"},
	}}
	f.sanitizeHeaders(req, "text/html")
	require.Equal(t, http.Header{"Accept": {"text/html"}, "User-Agent": {"ua"}}, *req.Headers)
}

func TestConfigureCollectorHooks(t *testing.T) {
	t.Parallel()

	f, err := New(Config{BaseURL: "https://shop.example"})
	require.NoError(t, err)

	var (
		result   origin.Document
		fetchErr error
	)
	hooks := &stubHooks{}
	f.configureCollectorHooks(hooks, "text/html", &result, &fetchErr)
	require.NotNil(t, hooks.onRequest)
	require.NotNil(t, hooks.onResponse)
	require.NotNil(t, hooks.onError)

	u, err := url.Parse("https://shop.example/product/x")
	require.NoError(t, err)
	hooks.onResponse(&colly.Response{
		StatusCode: http.StatusOK,
		Body:       []byte("body"),
		Headers:    &http.Header{"Content-Type": {"text/html"}},
		Request:    &colly.Request{URL: u},
	})
	require.Equal(t, "body", string(result.Body))
	require.Equal(t, "https://shop.example/product/x", result.URL)

	hooks.onError(nil, errors.New("boom"))
	require.EqualError(t, fetchErr, "boom")
}

type stubHooks struct {
	onRequest  colly.RequestCallback
	onResponse colly.ResponseCallback
	onError    colly.ErrorCallback
}

func (s *stubHooks) OnRequest(cb colly.RequestCallback) {
	s.onRequest = cb
}

func (s *stubHooks) OnResponse(cb colly.ResponseCallback) {
	s.onResponse = cb
}

func (s *stubHooks) OnError(cb colly.ErrorCallback) {
	s.onError = cb
}

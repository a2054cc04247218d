// Package origin fetches the storefront's application shell on behalf of a
// crawler. Fetches are sanitized: the inbound request's credentials never
// reach the origin.
package origin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Fetcher retrieves the shell document for an inbound request.
type Fetcher interface {
	Fetch(ctx context.Context, r *http.Request) (Document, error)
}

// Document is a successfully fetched origin page.
type Document struct {
	URL         string
	StatusCode  int
	ContentType string
	Body        []byte
}

// Cause classifies a FetchFailure.
type Cause string

// Failure causes.
const (
	CauseNetwork    Cause = "network"
	CauseHTTPStatus Cause = "http-status"
	CauseParse      Cause = "parse"
)

// DefaultAccept is sent when the inbound request carries no Accept header.
const DefaultAccept = "text/html,application/xhtml+xml"

// FetchFailure is the only error type a Fetcher returns.
type FetchFailure struct {
	Cause      Cause
	URL        string
	StatusCode int
	Err        error
}

func (f *FetchFailure) Error() string {
	msg := fmt.Sprintf("fetch origin %s: %s", f.URL, f.Cause)
	if f.StatusCode != 0 {
		msg += fmt.Sprintf(" (status %d)", f.StatusCode)
	}
	if f.Err != nil {
		msg += ": " + f.Err.Error()
	}
	return msg
}

func (f *FetchFailure) Unwrap() error {
	return f.Err
}

// CauseOf extracts the failure cause from err, defaulting to network.
func CauseOf(err error) Cause {
	var failure *FetchFailure
	if errors.As(err, &failure) {
		return failure.Cause
	}
	return CauseNetwork
}

// TargetURL joins the origin base with the inbound path and query.
func TargetURL(base *url.URL, r *http.Request) string {
	target := *base
	target.Path = strings.TrimRight(base.Path, "/") + r.URL.Path
	if r.URL.RawPath != "" {
		target.RawPath = strings.TrimRight(base.EscapedPath(), "/") + r.URL.EscapedPath()
	} else {
		target.RawPath = ""
	}
	target.RawQuery = r.URL.RawQuery
	target.Fragment = ""
	return target.String()
}

// Accept returns the inbound Accept header or DefaultAccept.
func Accept(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("Accept")); v != "" {
		return v
	}
	return DefaultAccept
}

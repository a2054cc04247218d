// Package product defines the catalogue record the gateway renders metadata
// for and the failure type every product source returns.
package product

import (
	"context"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
)

// Product is a fully parsed catalogue record. Sources never return a
// partially populated Product; they fail instead.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	Price       decimal.Decimal `json:"price"`
	MRP         decimal.Decimal `json:"mrp"`
	Image       string          `json:"image"`
	Brand       string          `json:"brand"`
	Type        string          `json:"type"`
	Stock       int             `json:"stock"`
	// StockKnown separates "0 in stock" from a record without a stock field.
	StockKnown bool `json:"stock_known"`
}

// InStock reports whether the product is known to be purchasable.
func (p Product) InStock() bool {
	return p.StockKnown && p.Stock > 0
}

// Source reads one product by id.
type Source interface {
	Fetch(ctx context.Context, id string) (Product, error)
}

// Cause is the sub-cause of a FetchFailure. It only feeds logs and metrics;
// callers treat every failure the same way.
type Cause string

// Failure causes.
const (
	CauseNetwork    Cause = "network"
	CauseHTTPStatus Cause = "http-status"
	CauseParse      Cause = "parse"
	CauseNotFound   Cause = "not-found"
)

// FetchFailure is the only error type a Source returns.
type FetchFailure struct {
	Cause      Cause
	ProductID  string
	StatusCode int
	Err        error
}

func (f *FetchFailure) Error() string {
	msg := fmt.Sprintf("fetch product %q: %s", f.ProductID, f.Cause)
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

// Fail wraps err as a FetchFailure with the given cause.
func Fail(cause Cause, id string, err error) *FetchFailure {
	return &FetchFailure{Cause: cause, ProductID: id, Err: err}
}

// CauseOf extracts the failure cause from err, defaulting to network for
// errors that did not come from a Source.
func CauseOf(err error) Cause {
	var failure *FetchFailure
	if errors.As(err, &failure) {
		return failure.Cause
	}
	return CauseNetwork
}

// Package route recognises the SPA paths the gateway can enrich.
package route

import (
	"net/url"
	"strings"
)

// Kind is the route category of a request path.
type Kind string

// Route kinds.
const (
	KindProductDetail Kind = "product-detail"
	KindOther         Kind = "other"
)

// DefaultProductPrefix is the storefront's product-detail path prefix.
const DefaultProductPrefix = "/product/"

// Match is the request-scoped result of Matcher.Match.
type Match struct {
	Kind Kind `json:"kind"`
	// ProductID is only set for KindProductDetail.
	ProductID string `json:"product_id,omitempty"`
}

// IsProduct reports whether the path names a single product.
func (m Match) IsProduct() bool {
	return m.Kind == KindProductDetail
}

// Matcher classifies request paths.
type Matcher struct {
	prefix string
}

// NewMatcher builds a Matcher for the given product prefix; empty selects
// DefaultProductPrefix.
func NewMatcher(prefix string) Matcher {
	if prefix == "" {
		prefix = DefaultProductPrefix
	}
	if !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return Matcher{prefix: prefix}
}

// Match maps an escaped or unescaped URL path to a route. Product paths have
// exactly one non-empty segment after the prefix; a single trailing slash is
// tolerated.
func (m Matcher) Match(path string) Match {
	rest, ok := strings.CutPrefix(path, m.prefix)
	if !ok {
		return Match{Kind: KindOther}
	}
	rest = strings.TrimSuffix(rest, "/")
	if rest == "" || strings.Contains(rest, "/") {
		return Match{Kind: KindOther}
	}
	id, err := url.PathUnescape(rest)
	if err != nil || strings.TrimSpace(id) == "" {
		return Match{Kind: KindOther}
	}
	return Match{Kind: KindProductDetail, ProductID: id}
}

// Package render rewrites an application shell for clients that do not run
// JavaScript. All mutation happens textually inside the head region, in front
// of the first </head> tag outside comments and raw-text elements; the body is
// never touched.
package render

import (
	"bytes"
	"errors"

	"github.com/JakeFAU/render-gateway/internal/product"
)

// Sentinels delimit the block the gateway owns. Anything between them is
// replaced on every rewrite.
const (
	BlockStart = "<!-- render-gateway:start -->"
	BlockEnd   = "<!-- render-gateway:end -->"
)

// ErrHeadNotFound reports a document without a closing head tag. The
// document is returned unchanged alongside it.
var ErrHeadNotFound = errors.New("render: document has no </head>")

// Options carries storefront identity and the shell's client-side markers.
type Options struct {
	SiteName       string
	Currency       string
	CurrencySymbol string
	Locale         string
	ThemeColor     string
	TwitterSite    string
	// StripMarkers are attribute names the client uses to tag the meta
	// elements it injects at runtime.
	StripMarkers     []string
	RootSelector     string
	LoadingSelectors []string
}

// DefaultOptions returns the storefront defaults.
func DefaultOptions() Options {
	return Options{
		SiteName:         "KamiKoto - Premium Stationery",
		Currency:         "INR",
		CurrencySymbol:   "₹",
		Locale:           "en_IN",
		ThemeColor:       "#1f2937",
		StripMarkers:     []string{"data-react-helmet", "data-rh"},
		RootSelector:     "#root",
		LoadingSelectors: []string{"#loading-screen", ".loading-screen", "#preloader"},
	}
}

// Transformer rewrites documents. It is safe for concurrent use.
type Transformer struct {
	opts    Options
	markers []string
	style   string
}

// New builds a Transformer from opts.
func New(opts Options) *Transformer {
	markers := make([]string, 0, len(opts.StripMarkers))
	for _, m := range opts.StripMarkers {
		if m = normalizeAttr(m); m != "" {
			markers = append(markers, m)
		}
	}
	return &Transformer{
		opts:    opts,
		markers: markers,
		style:   visibilityStyle(opts.RootSelector, opts.LoadingSelectors),
	}
}

// Rewrite returns doc with the gateway block placed immediately before the
// closing head tag. Client-injected marker metas are always stripped. With a
// product, existing titles are stripped too and canonical metadata is
// synthesized; without one the shell title survives and only the
// force-visibility style is injected. Rewrite is idempotent.
func (t *Transformer) Rewrite(doc []byte, p *product.Product, pageURL string) ([]byte, error) {
	end := headEnd(doc)
	if end < 0 {
		return doc, ErrHeadNotFound
	}

	head := stripHead(removeBlocks(doc[:end]), t.markers, p != nil)

	var block bytes.Buffer
	block.WriteString(BlockStart)
	block.WriteByte('\n')
	if p != nil {
		for _, tag := range t.productTags(*p, pageURL) {
			block.WriteString(tag)
			block.WriteByte('\n')
		}
	}
	block.WriteString(t.style)
	block.WriteByte('\n')
	block.WriteString(BlockEnd)

	out := make([]byte, 0, len(head)+block.Len()+len(doc)-end)
	out = append(out, head...)
	out = append(out, block.Bytes()...)
	out = append(out, doc[end:]...)
	return out, nil
}

// removeBlocks drops every complete sentinel-delimited block. An unterminated
// start sentinel is left in place.
func removeBlocks(head []byte) []byte {
	start := bytes.Index(head, []byte(BlockStart))
	if start < 0 {
		return head
	}
	out := make([]byte, 0, len(head))
	rest := head
	for start >= 0 {
		stop := bytes.Index(rest[start:], []byte(BlockEnd))
		if stop < 0 {
			break
		}
		out = append(out, rest[:start]...)
		rest = rest[start+stop+len(BlockEnd):]
		start = bytes.Index(rest, []byte(BlockStart))
	}
	return append(out, rest...)
}

// Package policy derives response headers from the traffic and route class
// of a request.
package policy

import (
	"net/http"

	"github.com/JakeFAU/render-gateway/internal/route"
	"github.com/JakeFAU/render-gateway/internal/traffic"
)

// Header values.
const (
	ContentTypeHTML = "text/html; charset=utf-8"
	CrawlerCache    = "public, max-age=300"
	CrawlerRobots   = "index, follow"
)

// Build returns the header set for a gateway-rendered document.
func Build(c traffic.Classification, m route.Match) http.Header {
	h := http.Header{}
	h.Set("Content-Type", ContentTypeHTML)
	h.Set("X-Content-Type-Options", "nosniff")

	if c.IsCrawler() && m.IsProduct() {
		h.Set("Cache-Control", CrawlerCache)
		h.Set("X-Robots-Tag", CrawlerRobots)
		h.Set("X-Bot-Friendly", "true")
		h.Set("Vary", "User-Agent")
	}

	if c.Category == traffic.CategorySocialCrawler {
		// Link previews may render the page inside a frame.
		h.Set("Access-Control-Allow-Origin", "*")
		h.Set("Access-Control-Allow-Methods", "GET, HEAD, OPTIONS")
	} else {
		h.Set("X-Frame-Options", "DENY")
	}
	return h
}

// Apply copies h onto dst, replacing existing values.
func Apply(dst, h http.Header) {
	for k, v := range h {
		dst[k] = append([]string(nil), v...)
	}
}

// Passthrough enforces the default frame policy on a proxied origin
// response without touching anything the origin already decided.
func Passthrough(h http.Header) {
	if h.Get("X-Frame-Options") == "" {
		h.Set("X-Frame-Options", "DENY")
	}
}

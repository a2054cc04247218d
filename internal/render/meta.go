package render

import (
	"fmt"
	"html"
	"strings"
	"unicode/utf8"

	"github.com/kennygrant/sanitize"

	"github.com/JakeFAU/render-gateway/internal/product"
)

const (
	descriptionLimit = 155
	imageWidth       = "1200"
	imageHeight      = "630"
)

// productTags synthesizes the canonical title and meta elements for p.
// Image, availability, brand and category tags are omitted rather than
// emitted empty.
func (t *Transformer) productTags(p product.Product, pageURL string) []string {
	title := t.pageTitle(p)
	desc := Description(p.Description, p.Name, t.opts.SiteName)

	ogTitle := p.Name
	if ogTitle == "" {
		ogTitle = t.opts.SiteName
	}
	price := FormatPrice(p.Price, t.opts.CurrencySymbol)
	amount := PriceAmount(p.Price)
	if p.Price.IsPositive() {
		ogTitle += " - " + price
	}
	imageAlt := p.Name
	if imageAlt == "" {
		imageAlt = t.opts.SiteName
	}

	tags := []string{
		"<title>" + html.EscapeString(title) + "</title>",
		nameTag("description", desc),
		propertyTag("og:title", ogTitle),
		propertyTag("og:description", desc),
	}
	if p.Image != "" {
		tags = append(tags,
			propertyTag("og:image", p.Image),
			propertyTag("og:image:secure_url", p.Image),
			propertyTag("og:image:alt", imageAlt),
			propertyTag("og:image:width", imageWidth),
			propertyTag("og:image:height", imageHeight),
		)
	}
	if pageURL != "" {
		tags = append(tags, propertyTag("og:url", pageURL))
	}
	tags = append(tags,
		propertyTag("og:type", "product"),
		propertyTag("og:site_name", t.opts.SiteName),
		propertyTag("og:locale", t.opts.Locale),
		propertyTag("og:price:amount", amount),
		propertyTag("og:price:currency", t.opts.Currency),
		propertyTag("product:price:amount", amount),
		propertyTag("product:price:currency", t.opts.Currency),
	)
	availability := ""
	if p.StockKnown {
		availability = "out of stock"
		if p.InStock() {
			availability = "in stock"
		}
		tags = append(tags,
			propertyTag("og:availability", availability),
			propertyTag("product:availability", availability),
		)
	}
	if p.Brand != "" {
		tags = append(tags, propertyTag("product:brand", p.Brand))
	}
	if p.Type != "" {
		tags = append(tags, propertyTag("product:category", p.Type))
	}

	card := "summary"
	if p.Image != "" {
		card = "summary_large_image"
	}
	tags = append(tags,
		nameTag("twitter:card", card),
		nameTag("twitter:title", ogTitle),
		nameTag("twitter:description", desc),
	)
	if p.Image != "" {
		tags = append(tags,
			nameTag("twitter:image", p.Image),
			nameTag("twitter:image:alt", imageAlt),
		)
	}
	if t.opts.TwitterSite != "" {
		tags = append(tags, nameTag("twitter:site", t.opts.TwitterSite))
	}
	tags = append(tags,
		nameTag("twitter:label1", "Price"),
		nameTag("twitter:data1", price),
	)
	if availability != "" {
		tags = append(tags,
			nameTag("twitter:label2", "Availability"),
			nameTag("twitter:data2", titleCase(availability)),
		)
	}
	if t.opts.ThemeColor != "" {
		tags = append(tags, nameTag("theme-color", t.opts.ThemeColor))
	}
	return tags
}

func (t *Transformer) pageTitle(p product.Product) string {
	switch {
	case p.Name == "":
		return t.opts.SiteName
	case t.opts.SiteName == "":
		return p.Name
	default:
		return p.Name + " | " + t.opts.SiteName
	}
}

// Description reduces a product description to plain text of at most 155
// runes, appending "..." when it was cut. An empty description yields a
// sentence naming the product.
func Description(raw, name, site string) string {
	// sanitize.HTML escapes its output; attribute escaping happens later.
	text := strings.Join(strings.Fields(html.UnescapeString(sanitize.HTML(raw))), " ")
	if text == "" {
		switch {
		case name != "" && site != "":
			return fmt.Sprintf("Buy %s online at %s.", name, site)
		case name != "":
			return fmt.Sprintf("Buy %s online.", name)
		default:
			return site
		}
	}
	if utf8.RuneCountInString(text) <= descriptionLimit {
		return text
	}
	runes := []rune(text)
	return strings.TrimRight(string(runes[:descriptionLimit]), " ") + "..."
}

func propertyTag(property, content string) string {
	return `<meta property="` + html.EscapeString(property) + `" content="` + html.EscapeString(content) + `">`
}

func nameTag(name, content string) string {
	return `<meta name="` + html.EscapeString(name) + `" content="` + html.EscapeString(content) + `">`
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

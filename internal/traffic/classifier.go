// Package traffic classifies inbound requests by User-Agent. It owns the one
// crawler pattern table every other component consults.
package traffic

import "strings"

// Category is the coarse traffic class of a request.
type Category string

// Traffic categories.
const (
	CategoryHuman         Category = "human"
	CategorySearchCrawler Category = "search-crawler"
	CategorySocialCrawler Category = "social-crawler"
	CategoryGenericBot    Category = "generic-bot"
)

// Classification is the request-scoped result of Classify.
type Classification struct {
	Category Category `json:"category"`
	// MatchedPattern is the lowercase token that decided the category.
	MatchedPattern string `json:"matched_pattern,omitempty"`
	// Crawler names the recognised client, when the token identifies one.
	Crawler string `json:"crawler,omitempty"`
}

// IsBot reports whether the request came from any automated client.
func (c Classification) IsBot() bool {
	return c.Category != CategoryHuman && c.Category != ""
}

// IsCrawler reports whether the client is a search or social crawler, the two
// categories that receive synthesized metadata.
func (c Classification) IsCrawler() bool {
	return c.Category == CategorySearchCrawler || c.Category == CategorySocialCrawler
}

// Pattern is one row of the classification table.
type Pattern struct {
	Token    string
	Category Category
	Crawler  string
	// Terminated requires the token to be followed by '/', ';', ')' or the
	// end of the User-Agent.
	Terminated bool
}

func (p Pattern) matches(ua string) bool {
	if !p.Terminated {
		return strings.Contains(ua, p.Token)
	}
	for rest := ua; ; {
		i := strings.Index(rest, p.Token)
		if i < 0 {
			return false
		}
		rest = rest[i+len(p.Token):]
		if rest == "" || strings.IndexByte("/;)", rest[0]) >= 0 {
			return true
		}
	}
}

// Classify maps a User-Agent to a Classification. It is total: an empty or
// unrecognised User-Agent is human.
func Classify(userAgent string) Classification {
	return classifyWith(Patterns, userAgent)
}

func classifyWith(table []Pattern, userAgent string) Classification {
	ua := strings.ToLower(strings.TrimSpace(userAgent))
	if ua == "" {
		return Classification{Category: CategoryHuman}
	}
	for _, p := range table {
		if p.matches(ua) {
			return Classification{
				Category:       p.Category,
				MatchedPattern: p.Token,
				Crawler:        p.Crawler,
			}
		}
	}
	return Classification{Category: CategoryHuman}
}

package helpers

import (
	"net/url"
	"strconv"
	"strings"

	"github.com/mohammad-safakhou/medcrew/utils"
)

const DefaultMaxSnippet = 300

// Citation is one search hit shown to the model
type Citation struct {
	Index   int
	Title   string
	URL     string
	Snippet string
}

// FormatCitation renders c as: [n] Title - "Snippet" (domain) <URL>
func FormatCitation(c Citation, maxSnippet int) string {
	if maxSnippet <= 0 {
		maxSnippet = DefaultMaxSnippet
	}
	parts := []string{"[" + strconv.Itoa(c.Index) + "]"}
	if title := PlainText(c.Title); title != "" {
		parts = append(parts, title)
	}
	if snippet := PlainText(c.Snippet); snippet != "" {
		if short := utils.Truncate(snippet, maxSnippet); short != snippet {
			snippet = short + "…"
		}
		parts = append(parts, `- "`+snippet+`"`)
	}
	if domain := Domain(c.URL); domain != "" {
		parts = append(parts, "("+domain+")")
	}
	if link := strings.TrimSpace(c.URL); link != "" {
		parts = append(parts, "<"+link+">")
	}
	return strings.Join(parts, " ")
}

// Domain returns the lower-cased host of raw without default ports.
func Domain(raw string) string {
	u, err := url.Parse(strings.TrimSpace(raw))
	if err != nil {
		return ""
	}
	host := strings.ToLower(u.Host)
	host = strings.TrimSuffix(host, ":80")
	host = strings.TrimSuffix(host, ":443")
	return strings.TrimPrefix(host, "www.")
}

package helpers

import (
	"html"
	"strings"
	"sync"

	"github.com/microcosm-cc/bluemonday"
)

var (
	strictPolicyOnce sync.Once
	strictPolicy     *bluemonday.Policy
)

// StrictHTMLPolicy returns a shared bluemonday policy that strips every element and attribute.
func StrictHTMLPolicy() *bluemonday.Policy {
	strictPolicyOnce.Do(func() {
		strictPolicy = bluemonday.StrictPolicy()
	})
	return strictPolicy
}

// PlainText removes markup from s, decodes entities and collapses whitespace.
// Search providers highlight matches with <b>/<strong>, which only adds noise for the model.
func PlainText(s string) string {
	if strings.TrimSpace(s) == "" {
		return ""
	}
	clean := html.UnescapeString(StrictHTMLPolicy().Sanitize(s))
	return strings.Join(strings.Fields(clean), " ")
}

package helpers

import (
	"errors"
	"net/url"
	"strings"
)

var trackingQueryParams = map[string]struct{}{
	"utm_source":   {},
	"utm_medium":   {},
	"utm_campaign": {},
	"utm_term":     {},
	"utm_content":  {},
	"utm_id":       {},
	"gclid":        {},
	"dclid":        {},
	"fbclid":       {},
	"msclkid":      {},
}

// NormalizeURL cleans a URL handed over by the model before it is fetched. A missing
// scheme defaults to https; the host is lower-cased and fragments and tracking
// parameters are removed. Anything other than http(s) is rejected.
func NormalizeURL(raw string) (string, error) {
	raw = strings.Trim(strings.TrimSpace(raw), `"'<>`)
	if raw == "" {
		return "", errors.New("empty url")
	}
	if strings.HasPrefix(raw, "//") {
		raw = "https:" + raw
	} else if !strings.Contains(raw, "://") {
		raw = "https://" + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return "", err
	}
	u.Scheme = strings.ToLower(u.Scheme)
	if u.Scheme != "http" && u.Scheme != "https" {
		return "", errors.New("unsupported url scheme " + u.Scheme)
	}
	if u.Host == "" {
		return "", errors.New("url missing host")
	}
	u.Host = strings.ToLower(u.Host)
	u.Fragment = ""

	if u.RawQuery != "" {
		q := u.Query()
		for key := range q {
			if _, drop := trackingQueryParams[strings.ToLower(key)]; drop {
				q.Del(key)
			}
		}
		u.RawQuery = q.Encode()
	}
	return u.String(), nil
}

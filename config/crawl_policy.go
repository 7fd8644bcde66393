package config

import (
	"net/url"
	"sort"
	"strings"
)

// Blocked reports whether rawURL points at a host listed in fetch.disallow or one of
// its subdomains.
func (f FetchConfig) Blocked(rawURL string) bool {
	host := normalizeHost(rawURL)
	if host == "" {
		return false
	}
	for _, d := range f.Disallow {
		if host == d || strings.HasSuffix(host, "."+d) {
			return true
		}
	}
	return false
}

func sanitizeDomainList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	seen := make(map[string]struct{}, len(values))
	for _, raw := range values {
		for _, part := range strings.Split(raw, ",") {
			if host := normalizeHost(part); host != "" {
				seen[host] = struct{}{}
			}
		}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for host := range seen {
		out = append(out, host)
	}
	sort.Strings(out)
	return out
}

func normalizeHost(value string) string {
	value = strings.TrimSpace(strings.ToLower(value))
	if value == "" {
		return ""
	}
	if strings.Contains(value, "://") {
		u, err := url.Parse(value)
		if err != nil {
			return ""
		}
		value = u.Hostname()
	} else if i := strings.IndexAny(value, "/?#"); i >= 0 {
		value = value[:i]
	}
	return strings.TrimPrefix(value, "www.")
}

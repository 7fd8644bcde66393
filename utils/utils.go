package utils

import (
	"fmt"
	"net/url"
	"strings"
)

func UrlQuery(s string) string { return url.QueryEscape(strings.TrimSpace(s)) }

func Str(v any) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%v", v)
}

// Truncate cuts s to at most n runes.
func Truncate(s string, n int) string {
	if n <= 0 {
		return s
	}
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

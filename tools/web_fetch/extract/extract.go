package extract

import (
	"errors"
	"fmt"
	"net/url"
	"strings"

	"github.com/go-shiori/go-readability"
	"github.com/mohammad-safakhou/medcrew/tools/web_fetch/models"
	"github.com/mohammad-safakhou/medcrew/utils"
)

var ErrNoContent = errors.New("no readable content")

// ValidateURL accepts absolute http(s) URLs only.
func ValidateURL(raw string) (*url.URL, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, errors.New("invalid url: empty")
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid url scheme %q", u.Scheme)
	}
	if u.Host == "" {
		return nil, errors.New("invalid url: missing host")
	}
	return u, nil
}

// Article runs readability over raw HTML and fills a Result capped at maxChars runes.
func Article(html string, pageURL *url.URL, maxChars int) (models.Result, error) {
	res := models.Result{URL: pageURL.String()}

	article, err := readability.FromReader(strings.NewReader(html), pageURL)
	if err != nil {
		return res, fmt.Errorf("readability: %w", err)
	}
	text := strings.TrimSpace(article.TextContent)
	if text == "" {
		return res, ErrNoContent
	}
	res.Title = strings.TrimSpace(article.Title)
	res.Byline = strings.TrimSpace(article.Byline)
	res.SiteName = strings.TrimSpace(article.SiteName)
	res.Text = strings.TrimSpace(utils.Truncate(text, maxChars))
	return res, nil
}

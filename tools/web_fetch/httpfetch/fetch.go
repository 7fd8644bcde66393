package httpfetch

import (
	"context"
	"fmt"

	"github.com/mohammad-safakhou/medcrew/internal/httpclient"
	"github.com/mohammad-safakhou/medcrew/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/medcrew/tools/web_fetch/models"
)

const (
	userAgent    = "medcrew/1.0 (+https://github.com/mohammad-safakhou/medcrew)"
	maxBodyBytes = 5 << 20
)

// Fetch downloads a page with a plain GET and extracts its readable text.
type Fetch struct {
	HTTP     *httpclient.HTTPClient
	MaxChars int
}

func (f Fetch) Exec(ctx context.Context, rawURL string) (models.Result, error) {
	u, err := extract.ValidateURL(rawURL)
	if err != nil {
		return models.Result{}, err
	}
	hc := f.HTTP
	if hc == nil {
		hc = httpclient.New(0)
	}
	body, resp, err := hc.Get(ctx, u.String(), map[string]string{
		"User-Agent": userAgent,
		"Accept":     "text/html,application/xhtml+xml",
	}, maxBodyBytes)
	if err != nil {
		return models.Result{URL: u.String()}, fmt.Errorf("fetch %s: %w", u, err)
	}

	res, err := extract.Article(string(body), u, f.MaxChars)
	res.Status = resp.StatusCode
	if err != nil {
		return res, fmt.Errorf("extract %s: %w", u, err)
	}
	return res, nil
}

package chromedp

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/mohammad-safakhou/medcrew/tools/web_fetch/extract"
	"github.com/mohammad-safakhou/medcrew/tools/web_fetch/models"
)

// Fetch renders the page in headless Chrome before extracting text.
type Fetch struct {
	Timeout  time.Duration
	MaxChars int
}

func (f Fetch) Exec(ctx context.Context, rawURL string) (models.Result, error) {
	u, err := extract.ValidateURL(rawURL)
	if err != nil {
		return models.Result{}, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.Timeout)
	defer cancel()
	html, err := fetchHTML(ctx, u.String())
	if err != nil {
		return models.Result{URL: u.String()}, fmt.Errorf("render %s: %w", u, err)
	}

	res, err := extract.Article(html, u, f.MaxChars)
	res.Status = 200
	if err != nil {
		return res, fmt.Errorf("extract %s: %w", u, err)
	}
	return res, nil
}

func fetchHTML(ctx context.Context, url string) (string, error) {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.UserAgent("medcrew/1.0 (+https://github.com/mohammad-safakhou/medcrew)"),
	)
	actx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()
	bctx, cancelBrowser := chromedp.NewContext(actx)
	defer cancelBrowser()

	var html string
	err := chromedp.Run(bctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.OuterHTML("html", &html, chromedp.ByQuery),
	)
	return html, err
}

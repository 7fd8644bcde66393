package brave

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/medcrew/internal/httpclient"
	"github.com/mohammad-safakhou/medcrew/tools/web_search/models"
	"github.com/mohammad-safakhou/medcrew/utils"
)

const DefaultEndpoint = "https://api.search.brave.com/res/v1/web/search"

type Search struct {
	ApiKey   string
	Endpoint string
	HTTP     *httpclient.HTTPClient
}

func (s Search) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, errors.New("brave: empty query")
	}
	if k <= 0 || k > 20 {
		k = 20
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	hc := s.HTTP
	if hc == nil {
		hc = httpclient.WithClient(nil)
	}

	// https://api.search.brave.com/app/documentation/web-search
	url := fmt.Sprintf("%s?q=%s&count=%d", endpoint, utils.UrlQuery(q), k)
	headers := map[string]string{
		"Accept":               "application/json",
		"X-Subscription-Token": s.ApiKey,
	}
	var raw struct {
		Web struct {
			Results []struct {
				Title   string `json:"title"`
				URL     string `json:"url"`
				Snippet string `json:"description"`
			} `json:"results"`
		} `json:"web"`
	}
	if err := hc.DoJSON(ctx, "GET", url, headers, nil, &raw); err != nil {
		return nil, err
	}
	var out []models.Result
	for i, r := range raw.Web.Results {
		if i >= k {
			break
		}
		out = append(out, models.Result{Title: r.Title, URL: r.URL, Snippet: r.Snippet})
	}
	return out, nil
}

package serper

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/mohammad-safakhou/medcrew/internal/httpclient"
	"github.com/mohammad-safakhou/medcrew/tools/web_search/models"
	"github.com/mohammad-safakhou/medcrew/utils"
)

const DefaultEndpoint = "https://google.serper.dev/search"

type Search struct {
	ApiKey   string
	Endpoint string
	HTTP     *httpclient.HTTPClient
}

func (s Search) Discover(ctx context.Context, q string, k int) ([]models.Result, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return nil, errors.New("serper: empty query")
	}
	if k <= 0 {
		k = 10
	}
	endpoint := s.Endpoint
	if endpoint == "" {
		endpoint = DefaultEndpoint
	}
	hc := s.HTTP
	if hc == nil {
		hc = httpclient.WithClient(nil)
	}

	// https://serper.dev/ docs
	payload := map[string]any{"q": q, "num": k}
	headers := map[string]string{"X-API-KEY": s.ApiKey}

	var raw map[string]any
	if err := hc.DoJSON(ctx, http.MethodPost, endpoint, headers, payload, &raw); err != nil {
		return nil, err
	}

	var out []models.Result
	if items, ok := raw["organic"].([]any); ok {
		for _, it := range items {
			if len(out) >= k {
				break
			}
			m, ok := it.(map[string]any)
			if !ok {
				continue
			}
			out = append(out, models.Result{
				Title: utils.Str(m["title"]), URL: utils.Str(m["link"]), Snippet: utils.Str(m["snippet"]),
			})
		}
	}
	return out, nil
}

package web_search

import (
	"context"

	"github.com/mohammad-safakhou/medcrew/internal/httpclient"
	"github.com/mohammad-safakhou/medcrew/tools/web_search/brave"
	"github.com/mohammad-safakhou/medcrew/tools/web_search/models"
	"github.com/mohammad-safakhou/medcrew/tools/web_search/serper"
)

type WebSearcher interface {
	Discover(ctx context.Context, q string, k int) ([]models.Result, error)
}

type Provider string

const (
	SerperProvider Provider = "serper"
	BraveProvider  Provider = "brave"
)

type Error struct {
	msg string
}

func (e *Error) Error() string { return "web_search: " + e.msg }

var ErrUnsupportedProvider = &Error{"unsupported provider"}

func NewWebSearcher(provider Provider, apiKey string, http *httpclient.HTTPClient) (WebSearcher, error) {
	if apiKey == "" {
		return nil, &Error{"missing api key for " + string(provider)}
	}
	switch provider {
	case SerperProvider:
		return serper.Search{ApiKey: apiKey, HTTP: http}, nil
	case BraveProvider:
		return brave.Search{ApiKey: apiKey, HTTP: http}, nil
	default:
		return nil, ErrUnsupportedProvider
	}
}

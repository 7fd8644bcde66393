// Package tools adapts the web search and page fetch clients into tools the model can call.
package tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mohammad-safakhou/medcrew/internal/helpers"
	"github.com/mohammad-safakhou/medcrew/provider/models"
	"github.com/mohammad-safakhou/medcrew/tools/web_fetch"
	"github.com/mohammad-safakhou/medcrew/tools/web_search"
)

const (
	SearchToolName = "search_internet"
	ScrapeToolName = "read_website_content"
)

// Search lets the model query the web
type Search struct {
	Searcher   web_search.WebSearcher
	MaxResults int
}

func (s Search) Definition() models.ToolDefinition {
	return models.ToolDefinition{
		Name:        SearchToolName,
		Description: "Search the internet for a query and return the top results with title, link and snippet.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"search_query": map[string]any{
					"type":        "string",
					"description": "Mandatory search query you want to use to search the internet",
				},
			},
			"required": []string{"search_query"},
		},
	}
}

func (s Search) Invoke(ctx context.Context, arguments string) (string, error) {
	var args struct {
		SearchQuery string `json:"search_query"`
	}
	if err := decodeArgs(arguments, &args); err != nil {
		return "", err
	}
	if strings.TrimSpace(args.SearchQuery) == "" {
		return "", errors.New("search_query is required")
	}
	results, err := s.Searcher.Discover(ctx, args.SearchQuery, s.MaxResults)
	if err != nil {
		return "", err
	}
	if len(results) == 0 {
		return "No results found for: " + args.SearchQuery, nil
	}
	var b strings.Builder
	b.WriteString("Search results:\n")
	for i, r := range results {
		b.WriteString(helpers.FormatCitation(helpers.Citation{Index: i + 1, Title: r.Title, URL: r.URL, Snippet: r.Snippet}, helpers.DefaultMaxSnippet))
		b.WriteByte('\n')
	}
	return b.String(), nil
}

// Scrape lets the model read a page found through search
type Scrape struct {
	Fetcher web_fetch.WebFetcher
	Blocked func(rawURL string) bool
}

func (s Scrape) Definition() models.ToolDefinition {
	return models.ToolDefinition{
		Name:        ScrapeToolName,
		Description: "Read a website's main text content.",
		Parameters: map[string]any{
			"type": "object",
			"properties": map[string]any{
				"website_url": map[string]any{
					"type":        "string",
					"description": "Mandatory website url to read the file",
				},
			},
			"required": []string{"website_url"},
		},
	}
}

func (s Scrape) Invoke(ctx context.Context, arguments string) (string, error) {
	var args struct {
		WebsiteURL string `json:"website_url"`
	}
	if err := decodeArgs(arguments, &args); err != nil {
		return "", err
	}
	target, err := helpers.NormalizeURL(args.WebsiteURL)
	if err != nil {
		return "", fmt.Errorf("website_url: %w", err)
	}
	if s.Blocked != nil && s.Blocked(target) {
		return "", fmt.Errorf("%s is on the disallow list", target)
	}
	res, err := s.Fetcher.Exec(ctx, target)
	if err != nil {
		return "", err
	}
	var b strings.Builder
	if res.Title != "" {
		fmt.Fprintf(&b, "Title: %s\n", res.Title)
	}
	if res.SiteName != "" {
		fmt.Fprintf(&b, "Site: %s\n", res.SiteName)
	}
	if res.Byline != "" {
		fmt.Fprintf(&b, "Author: %s\n", res.Byline)
	}
	fmt.Fprintf(&b, "URL: %s\n\n%s", res.URL, res.Text)
	return b.String(), nil
}

func decodeArgs(arguments string, out any) error {
	if strings.TrimSpace(arguments) == "" {
		arguments = "{}"
	}
	if err := json.Unmarshal([]byte(arguments), out); err != nil {
		return fmt.Errorf("invalid tool arguments: %w", err)
	}
	return nil
}

package tools

import (
	"context"
	"errors"
	"strings"
	"testing"

	fetchmodels "github.com/mohammad-safakhou/medcrew/tools/web_fetch/models"
	searchmodels "github.com/mohammad-safakhou/medcrew/tools/web_search/models"
)

type stubSearcher struct {
	query   string
	k       int
	results []searchmodels.Result
	err     error
}

func (s *stubSearcher) Discover(ctx context.Context, q string, k int) ([]searchmodels.Result, error) {
	s.query, s.k = q, k
	return s.results, s.err
}

type stubFetcher struct {
	url string
	res fetchmodels.Result
	err error
}

func (f *stubFetcher) Exec(ctx context.Context, url string) (fetchmodels.Result, error) {
	f.url = url
	return f.res, f.err
}

func TestSearchInvokeFormatsResults(t *testing.T) {
	s := &stubSearcher{results: []searchmodels.Result{{Title: "Bronchitis", URL: "https://example.com/b", Snippet: "<b>cough</b>"}}}
	tool := Search{Searcher: s, MaxResults: 5}
	out, err := tool.Invoke(context.Background(), `{"search_query":"cough fever"}`)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if s.query != "cough fever" || s.k != 5 {
		t.Fatalf("unexpected searcher call %q %d", s.query, s.k)
	}
	if !strings.Contains(out, `[1] Bronchitis - "cough" (example.com) <https://example.com/b>`) {
		t.Fatalf("unexpected output %q", out)
	}
	if tool.Definition().Name != SearchToolName {
		t.Fatalf("unexpected tool name")
	}
}

func TestSearchInvokeErrors(t *testing.T) {
	tool := Search{Searcher: &stubSearcher{err: errors.New("quota")}}
	if _, err := tool.Invoke(context.Background(), `{"search_query":"x"}`); err == nil {
		t.Fatalf("expected searcher error")
	}
	if _, err := tool.Invoke(context.Background(), `not json`); err == nil {
		t.Fatalf("expected argument error")
	}
	if _, err := tool.Invoke(context.Background(), ``); err == nil {
		t.Fatalf("expected missing query error")
	}
}

func TestSearchInvokeNoResults(t *testing.T) {
	out, err := Search{Searcher: &stubSearcher{}}.Invoke(context.Background(), `{"search_query":"rare"}`)
	if err != nil || !strings.Contains(out, "No results") {
		t.Fatalf("unexpected output %q %v", out, err)
	}
}

func TestScrapeInvoke(t *testing.T) {
	f := &stubFetcher{res: fetchmodels.Result{URL: "https://example.com/a", Title: "Asthma", SiteName: "Example Health", Byline: "Dr. A. Smith", Text: "Airway inflammation."}}
	out, err := Scrape{Fetcher: f}.Invoke(context.Background(), `{"website_url":"Example.com/a#section"}`)
	if err != nil {
		t.Fatalf("Invoke: %v", err)
	}
	if f.url != "https://example.com/a" || !strings.Contains(out, "Airway inflammation.") || !strings.Contains(out, "Title: Asthma") ||
		!strings.Contains(out, "Site: Example Health") || !strings.Contains(out, "Author: Dr. A. Smith") {
		t.Fatalf("unexpected output %q", out)
	}
	if _, err := (Scrape{Fetcher: f}).Invoke(context.Background(), `{"website_url":"javascript://alert"}`); err == nil {
		t.Fatalf("expected url error")
	}
	if _, err := (Scrape{Fetcher: &stubFetcher{err: errors.New("timeout")}}).Invoke(context.Background(), `{"website_url":"https://x"}`); err == nil {
		t.Fatalf("expected fetch error")
	}
}

func TestScrapeRefusesDisallowedHost(t *testing.T) {
	f := &stubFetcher{}
	tool := Scrape{Fetcher: f, Blocked: func(u string) bool { return strings.Contains(u, "quack.org") }}
	if _, err := tool.Invoke(context.Background(), `{"website_url":"https://quack.org/cure"}`); err == nil {
		t.Fatalf("expected disallowed host to be refused")
	}
	if f.url != "" {
		t.Fatalf("fetcher should not be called, got %q", f.url)
	}
}

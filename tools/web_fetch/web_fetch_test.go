package web_fetch

import (
	"testing"

	"github.com/mohammad-safakhou/medcrew/tools/web_fetch/chromedp"
	"github.com/mohammad-safakhou/medcrew/tools/web_fetch/httpfetch"
)

func TestNewWebFetcher(t *testing.T) {
	f, err := NewWebFetcher(HTTPFetcherType, 0, 0)
	if err != nil {
		t.Fatalf("http fetcher: %v", err)
	}
	hf, ok := f.(httpfetch.Fetch)
	if !ok || hf.MaxChars != MaxCharsDefault {
		t.Fatalf("unexpected http fetcher %#v", f)
	}

	f, err = NewWebFetcher(ChromedpFetcherType, 0, 10)
	if err != nil {
		t.Fatalf("chromedp fetcher: %v", err)
	}
	cf, ok := f.(chromedp.Fetch)
	if !ok || cf.Timeout != DefaultTimeout || cf.MaxChars != 10 {
		t.Fatalf("unexpected chromedp fetcher %#v", f)
	}

	if _, err := NewWebFetcher("wget", 0, 0); err == nil {
		t.Fatalf("expected error for unsupported fetcher")
	}
}

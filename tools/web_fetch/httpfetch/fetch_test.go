package httpfetch

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/mohammad-safakhou/medcrew/internal/httpclient"
)

func articlePage() string {
	para := strings.Repeat("Asthma is a chronic condition of the airways that causes wheezing and coughing. ", 20)
	return `<!DOCTYPE html><html><head><title>Asthma overview</title></head><body>
<nav><a href="/">Home</a></nav>
<article><h1>Asthma overview</h1><p>` + para + `</p><p>` + para + `</p></article>
<footer>Copyright</footer></body></html>`
}

func TestExecExtractsReadableText(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html")
		_, _ = w.Write([]byte(articlePage()))
	}))
	defer srv.Close()

	f := Fetch{HTTP: httpclient.WithClient(srv.Client()), MaxChars: 200}
	res, err := f.Exec(context.Background(), srv.URL+"/asthma")
	if err != nil {
		t.Fatalf("Exec: %v", err)
	}
	if res.Status != http.StatusOK {
		t.Fatalf("expected 200, got %d", res.Status)
	}
	if !strings.Contains(res.Text, "chronic condition") {
		t.Fatalf("expected article text, got %q", res.Text)
	}
	if len([]rune(res.Text)) > 200 {
		t.Fatalf("text not capped: %d runes", len([]rune(res.Text)))
	}
	if res.URL == "" {
		t.Fatalf("expected page url")
	}
}

func TestExecReportsHTTPFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	f := Fetch{HTTP: httpclient.WithClient(srv.Client()), MaxChars: 100}
	if _, err := f.Exec(context.Background(), srv.URL+"/missing"); err == nil {
		t.Fatalf("expected error for 404 page")
	}
}

func TestExecRejectsBadURL(t *testing.T) {
	for _, u := range []string{"", "ftp://example.com/x", "not a url"} {
		if _, err := (Fetch{}).Exec(context.Background(), u); err == nil {
			t.Fatalf("expected error for %q", u)
		}
	}
}

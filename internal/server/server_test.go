package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/medcrew/internal/agent/core"
	"github.com/mohammad-safakhou/medcrew/internal/agent/crew"
	agenttele "github.com/mohammad-safakhou/medcrew/internal/agent/telemetry"
	agenttools "github.com/mohammad-safakhou/medcrew/internal/agent/tools"
	"github.com/mohammad-safakhou/medcrew/internal/document"
	"github.com/mohammad-safakhou/medcrew/provider/models"
	fetchmodels "github.com/mohammad-safakhou/medcrew/tools/web_fetch/models"
	searchmodels "github.com/mohammad-safakhou/medcrew/tools/web_search/models"
)

type stubLLM struct {
	mu    sync.Mutex
	calls int
	err   error
	final string
}

func (s *stubLLM) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	if s.err != nil {
		return models.ChatResponse{}, s.err
	}
	text := "Preliminary diagnosis: acute bronchitis, asthma exacerbation."
	if s.calls > 1 {
		text = "Treatment plan:\n1. Inhaled bronchodilator as needed.\n2. Rest & fluids.\n3. Follow up in 7 days."
		if s.final != "" {
			text = s.final
		}
	}
	return models.ChatResponse{Message: models.Message{Role: models.RoleAssistant, Content: text}}, nil
}

type stubSearcher struct{}

func (stubSearcher) Discover(ctx context.Context, q string, k int) ([]searchmodels.Result, error) {
	return nil, nil
}

type stubFetcher struct{}

func (stubFetcher) Exec(ctx context.Context, u string) (fetchmodels.Result, error) {
	return fetchmodels.Result{}, errors.New("offline")
}

func newTestServer(t *testing.T, llm *stubLLM) *echo.Echo {
	t.Helper()
	quiet := log.New(io.Discard, "", 0)
	tele := agenttele.NewTelemetry()
	orch, err := crew.New(llm, []core.Tool{
		agenttools.Search{Searcher: stubSearcher{}, MaxResults: 3},
		agenttools.Scrape{Fetcher: stubFetcher{}},
	}, crew.Options{Logger: quiet, Telemetry: tele})
	if err != nil {
		t.Fatalf("crew.New: %v", err)
	}
	return New(Options{Crew: orch, Docs: document.NewMemoryStore(5), Telemetry: tele, Logger: quiet})
}

func postCase(e *echo.Echo) *httptest.ResponseRecorder {
	form := url.Values{
		"gender":          {"F"},
		"age":             {"34"},
		"symptoms":        {"cough, fever"},
		"medical_history": {"asthma"},
	}
	req := httptest.NewRequest(http.MethodPost, "/diagnose", strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func get(e *echo.Echo, path string) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()
	var body ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode error body %q: %v", rec.Body.String(), err)
	}
	return body
}

func TestDownloadBeforeDiagnoseIsNotFound(t *testing.T) {
	e := newTestServer(t, &stubLLM{})
	rec := get(e, "/download")
	if rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Type != errNotFound {
		t.Fatalf("unexpected error type %q", body.Type)
	}
}

func TestDiagnoseThenDownload(t *testing.T) {
	e := newTestServer(t, &stubLLM{})
	rec := postCase(e)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d: %s", rec.Code, rec.Body.String())
	}
	var resp DiagnoseResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Result == "" || !strings.HasPrefix(resp.Result, "Treatment plan:") {
		t.Fatalf("unexpected result %q", resp.Result)
	}
	if !strings.HasSuffix(resp.DownloadLink, "/download") || !strings.HasPrefix(resp.DownloadLink, "http://example.com") {
		t.Fatalf("unexpected download link %q", resp.DownloadLink)
	}
	if len(resp.Stages) != 2 || resp.Stages[0].Name != crew.DiagnoseStage || resp.Stages[1].Name != crew.TreatStage {
		t.Fatalf("unexpected stages %+v", resp.Stages)
	}

	for _, path := range []string{"/download", "/download/" + resp.DocumentID} {
		dl := get(e, path)
		if dl.Code != http.StatusOK {
			t.Fatalf("%s: expected 200 got %d", path, dl.Code)
		}
		if ct := dl.Header().Get(echo.HeaderContentType); ct != document.ContentType {
			t.Fatalf("%s: unexpected content type %q", path, ct)
		}
		if cd := dl.Header().Get(echo.HeaderContentDisposition); !strings.Contains(cd, document.Filename) {
			t.Fatalf("%s: unexpected disposition %q", path, cd)
		}
		text, err := document.ExtractText(dl.Body.Bytes())
		if err != nil {
			t.Fatalf("%s: ExtractText: %v", path, err)
		}
		if !strings.Contains(text, resp.Result) {
			t.Fatalf("%s: document text %q does not contain result", path, text)
		}
	}
}

func TestDiagnoseResultMatchesDocumentText(t *testing.T) {
	e := newTestServer(t, &stubLLM{final: "Plan:\r\n1. rest\r2. fluids\x0b\x00 daily"})
	var resp DiagnoseResponse
	if err := json.Unmarshal(postCase(e).Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Result != "Plan:\n1. rest\n2. fluids daily" {
		t.Fatalf("unexpected result %q", resp.Result)
	}
	text, err := document.ExtractText(get(e, "/download").Body.Bytes())
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if !strings.Contains(text, resp.Result) {
		t.Fatalf("document text %q does not contain result %q", text, resp.Result)
	}
}

func TestDiagnoseUpstreamFailure(t *testing.T) {
	llm := &stubLLM{err: errors.New("connection refused")}
	e := newTestServer(t, llm)
	rec := postCase(e)
	if rec.Code != http.StatusBadGateway {
		t.Fatalf("expected 502 got %d", rec.Code)
	}
	if body := decodeError(t, rec); body.Type != errUpstreamLLM {
		t.Fatalf("unexpected error type %q", body.Type)
	}
	if llm.calls != 1 {
		t.Fatalf("treat stage must not run after diagnose fails, llm calls %d", llm.calls)
	}
	if rec := get(e, "/download"); rec.Code != http.StatusNotFound {
		t.Fatalf("no document should exist after a failure, got %d", rec.Code)
	}
}

func TestDiagnoseUsesPublicURL(t *testing.T) {
	quiet := log.New(io.Discard, "", 0)
	orch, err := crew.New(&stubLLM{}, []core.Tool{
		agenttools.Search{Searcher: stubSearcher{}},
		agenttools.Scrape{Fetcher: stubFetcher{}},
	}, crew.Options{Logger: quiet})
	if err != nil {
		t.Fatalf("crew.New: %v", err)
	}
	e := New(Options{Crew: orch, Docs: document.NewMemoryStore(1), PublicURL: "https://med.example.org", Logger: quiet})
	var resp DiagnoseResponse
	if err := json.Unmarshal(postCase(e).Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.DownloadLink != "https://med.example.org/download" {
		t.Fatalf("unexpected download link %q", resp.DownloadLink)
	}
}

func TestUnknownDocumentIsNotFound(t *testing.T) {
	e := newTestServer(t, &stubLLM{})
	if rec := get(e, "/download/does-not-exist"); rec.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", rec.Code)
	}
}

func TestFormHealthAndMetrics(t *testing.T) {
	e := newTestServer(t, &stubLLM{})
	if rec := get(e, "/"); rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), `name="medical_history"`) {
		t.Fatalf("unexpected form response %d", rec.Code)
	}
	if rec := get(e, "/healthz"); rec.Body.String() != "ok" {
		t.Fatalf("unexpected health body %q", rec.Body.String())
	}
	postCase(e)
	rec := get(e, "/metrics")
	if !strings.Contains(rec.Body.String(), "medcrew_pipeline_runs_total") {
		t.Fatalf("metrics missing pipeline counter")
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		err  error
		code int
		kind string
	}{
		{&core.UpstreamLLMError{Stage: "diagnose", Err: errors.New("boom")}, http.StatusBadGateway, errUpstreamLLM},
		{&document.RenderError{Err: errors.New("zip")}, http.StatusInternalServerError, errRender},
		{document.ErrNotFound, http.StatusNotFound, errNotFound},
		{&core.UpstreamLLMError{Stage: "treat", Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, errTimeout},
		{context.Canceled, statusClientClosedRequest, errCanceled},
		{&core.UpstreamLLMError{Stage: "diagnose", Err: context.Canceled}, statusClientClosedRequest, errCanceled},
		{echo.NewHTTPError(http.StatusBadRequest, "bad"), http.StatusBadRequest, errBadRequest},
		{echo.ErrNotFound, http.StatusNotFound, errNotFound},
		{errors.New("other"), http.StatusInternalServerError, errInternal},
	}
	for _, tc := range cases {
		code, kind, _ := classify(tc.err)
		if code != tc.code || kind != tc.kind {
			t.Fatalf("%v: got %d %s want %d %s", tc.err, code, kind, tc.code, tc.kind)
		}
	}
}

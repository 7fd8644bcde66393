package telemetry

import (
	"errors"
	"io"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordersIncrementCounters(t *testing.T) {
	tele := NewTelemetry()
	tele.RecordStage("diagnose", time.Second, nil)
	tele.RecordStage("diagnose", time.Second, errors.New("boom"))
	tele.RecordTool("search_internet", errors.New("down"))
	tele.RecordLLM(nil, 10, 5)
	tele.RecordPipeline(nil)
	tele.RecordDocument(nil)

	if got := testutil.ToFloat64(tele.stageRuns.WithLabelValues("diagnose", "error")); got != 1 {
		t.Fatalf("expected 1 failed stage run, got %v", got)
	}
	if got := testutil.ToFloat64(tele.toolCalls.WithLabelValues("search_internet", "error")); got != 1 {
		t.Fatalf("expected 1 failed tool call, got %v", got)
	}
	if got := testutil.ToFloat64(tele.llmTokens.WithLabelValues("prompt")); got != 10 {
		t.Fatalf("expected 10 prompt tokens, got %v", got)
	}
}

func TestNilTelemetryIsNoop(t *testing.T) {
	var tele *Telemetry
	tele.RecordStage("x", 0, nil)
	tele.RecordTool("x", nil)
	tele.RecordLLM(nil, 1, 1)
	tele.RecordPipeline(nil)
	tele.RecordDocument(nil)
	if tele.Registry() != nil {
		t.Fatalf("nil telemetry should have no registry")
	}
}

func TestHandlerExposesMetrics(t *testing.T) {
	tele := NewTelemetry()
	tele.RecordPipeline(nil)

	rec := httptest.NewRecorder()
	tele.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))
	body, _ := io.ReadAll(rec.Body)
	if !strings.Contains(string(body), "medcrew_pipeline_runs_total") {
		t.Fatalf("expected pipeline counter in exposition")
	}
}

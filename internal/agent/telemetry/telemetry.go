package telemetry

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "medcrew"

// Telemetry owns the Prometheus registry and every collector the service exports.
// A nil *Telemetry is valid and records nothing.
type Telemetry struct {
	registry      *prometheus.Registry
	pipelineRuns  *prometheus.CounterVec
	stageRuns     *prometheus.CounterVec
	stageDuration *prometheus.HistogramVec
	toolCalls     *prometheus.CounterVec
	llmRequests   *prometheus.CounterVec
	llmTokens     *prometheus.CounterVec
	documents     *prometheus.CounterVec
}

// NewTelemetry creates a telemetry instance backed by its own registry
func NewTelemetry() *Telemetry {
	reg := prometheus.NewRegistry()
	t := &Telemetry{
		registry: reg,
		pipelineRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "pipeline_runs_total",
			Help: "Pipeline runs by outcome.",
		}, []string{"status"}),
		stageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "stage_runs_total",
			Help: "Stage executions by stage and outcome.",
		}, []string{"stage", "status"}),
		stageDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace, Name: "stage_duration_seconds",
			Help:    "Wall time of a stage including tool calls.",
			Buckets: []float64{1, 2.5, 5, 10, 20, 40, 80, 160},
		}, []string{"stage"}),
		toolCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "tool_calls_total",
			Help: "Tool invocations requested by the model.",
		}, []string{"tool", "status"}),
		llmRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_requests_total",
			Help: "Chat completion requests by outcome.",
		}, []string{"status"}),
		llmTokens: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "llm_tokens_total",
			Help: "Tokens reported by the LLM endpoint.",
		}, []string{"kind"}),
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace, Name: "documents_total",
			Help: "Rendered documents by outcome.",
		}, []string{"status"}),
	}
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		t.pipelineRuns, t.stageRuns, t.stageDuration, t.toolCalls,
		t.llmRequests, t.llmTokens, t.documents,
	)
	return t
}

// Registry exposes the underlying registry, mainly for tests
func (t *Telemetry) Registry() *prometheus.Registry {
	if t == nil {
		return nil
	}
	return t.registry
}

// Handler serves the Prometheus exposition format
func (t *Telemetry) Handler() http.Handler {
	if t == nil {
		return promhttp.Handler()
	}
	return promhttp.HandlerFor(t.registry, promhttp.HandlerOpts{})
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}

func (t *Telemetry) RecordPipeline(err error) {
	if t == nil {
		return
	}
	t.pipelineRuns.WithLabelValues(status(err)).Inc()
}

func (t *Telemetry) RecordStage(stage string, d time.Duration, err error) {
	if t == nil {
		return
	}
	t.stageRuns.WithLabelValues(stage, status(err)).Inc()
	t.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

func (t *Telemetry) RecordTool(tool string, err error) {
	if t == nil {
		return
	}
	t.toolCalls.WithLabelValues(tool, status(err)).Inc()
}

func (t *Telemetry) RecordLLM(err error, promptTokens, completionTokens int64) {
	if t == nil {
		return
	}
	t.llmRequests.WithLabelValues(status(err)).Inc()
	if promptTokens > 0 {
		t.llmTokens.WithLabelValues("prompt").Add(float64(promptTokens))
	}
	if completionTokens > 0 {
		t.llmTokens.WithLabelValues("completion").Add(float64(completionTokens))
	}
}

func (t *Telemetry) RecordDocument(err error) {
	if t == nil {
		return
	}
	t.documents.WithLabelValues(status(err)).Inc()
}

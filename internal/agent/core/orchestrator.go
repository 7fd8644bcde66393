package core

import (
	"context"
	"log"
	"strings"

	"github.com/mohammad-safakhou/medcrew/internal/agent/telemetry"
)

// Orchestrator runs stages strictly in order. Stage i sees the text of stages 0..i-1
// through SlotContext.
type Orchestrator struct {
	stages []*Stage
	logger *log.Logger
	tele   *telemetry.Telemetry
}

// NewOrchestrator checks that every stage template can be filled from a patient case
// plus prior context, so an unresolvable slot fails at startup instead of per request.
func NewOrchestrator(logger *log.Logger, tele *telemetry.Telemetry, stages ...*Stage) (*Orchestrator, error) {
	if len(stages) == 0 {
		return nil, ErrNoStages
	}
	probe := PatientCase{}.Values()
	probe[SlotContext] = ""
	for _, st := range stages {
		if _, err := st.Template().Render(probe); err != nil {
			return nil, err
		}
	}
	if logger == nil {
		logger = log.New(log.Writer(), "[CREW] ", log.LstdFlags)
	}
	return &Orchestrator{stages: stages, logger: logger, tele: tele}, nil
}

func (o *Orchestrator) Stages() []*Stage { return o.stages }

// Run executes the pipeline for one case. Any stage failure aborts the run and no
// partial result is returned.
func (o *Orchestrator) Run(ctx context.Context, pc PatientCase) (PipelineResult, error) {
	values := pc.Values()
	results := make([]StageResult, 0, len(o.stages))

	for i, st := range o.stages {
		if err := ctx.Err(); err != nil {
			o.tele.RecordPipeline(err)
			return PipelineResult{}, err
		}
		values[SlotContext] = joinContext(results)

		o.logger.Printf("stage %d/%d %s started", i+1, len(o.stages), st.Name())
		res, err := st.Run(ctx, i, values)
		if err != nil {
			o.logger.Printf("stage %s failed, aborting pipeline: %v", st.Name(), err)
			o.tele.RecordPipeline(err)
			return PipelineResult{}, err
		}
		o.logger.Printf("stage %s done in %s (tool calls %d, failures %d)", st.Name(), res.Duration, res.ToolCalls, res.ToolFailures)
		results = append(results, res)
	}

	o.tele.RecordPipeline(nil)
	return PipelineResult{Stages: results}, nil
}

func joinContext(results []StageResult) string {
	texts := make([]string, 0, len(results))
	for _, r := range results {
		texts = append(texts, r.Text)
	}
	return strings.Join(texts, "\n\n")
}

package core

import (
	"context"
	"strings"
	"time"

	"github.com/mohammad-safakhou/medcrew/provider/models"
)

// PatientCase is the form input for one request
type PatientCase struct {
	Gender         string `json:"gender"`
	Age            string `json:"age"`
	Symptoms       string `json:"symptoms"`
	MedicalHistory string `json:"medical_history"`
}

// Values returns the case as template slot values. Context is left for the orchestrator.
func (p PatientCase) Values() map[Slot]string {
	return map[Slot]string{
		SlotGender:         strings.TrimSpace(p.Gender),
		SlotAge:            strings.TrimSpace(p.Age),
		SlotSymptoms:       strings.TrimSpace(p.Symptoms),
		SlotMedicalHistory: strings.TrimSpace(p.MedicalHistory),
	}
}

// StageSpec is the static description of a stage
type StageSpec struct {
	Name           string   `json:"name"`
	Role           string   `json:"role"`
	Goal           string   `json:"goal"`
	Backstory      string   `json:"backstory"`
	Instruction    string   `json:"instruction"` // template with {slot} placeholders
	ExpectedOutput string   `json:"expected_output"`
	Tools          []string `json:"tools,omitempty"`
}

// StageResult is the output of one stage run
type StageResult struct {
	StageIndex   int           `json:"index"`
	Name         string        `json:"name"`
	Text         string        `json:"text"`
	ToolCalls    int           `json:"tool_calls"`
	ToolFailures int           `json:"tool_failures"`
	Duration     time.Duration `json:"duration"`
}

// PipelineResult holds every stage result in execution order
type PipelineResult struct {
	Stages []StageResult `json:"stages"`
}

// Final returns the last stage's text, which is the answer shown to callers.
func (r PipelineResult) Final() string {
	if len(r.Stages) == 0 {
		return ""
	}
	return r.Stages[len(r.Stages)-1].Text
}

// ChatClient is the LLM endpoint a stage talks to
type ChatClient interface {
	Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error)
}

// Tool is a capability the model may call during a stage. The stage never decides when
// to call it; it only executes what the model requests and returns the output text.
type Tool interface {
	Definition() models.ToolDefinition
	Invoke(ctx context.Context, arguments string) (string, error)
}

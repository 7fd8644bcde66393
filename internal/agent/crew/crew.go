// Package crew defines the diagnosis and treatment stages and assembles them into a pipeline.
package crew

import (
	"fmt"
	"log"

	"github.com/mohammad-safakhou/medcrew/internal/agent/core"
	"github.com/mohammad-safakhou/medcrew/internal/agent/telemetry"
	agenttools "github.com/mohammad-safakhou/medcrew/internal/agent/tools"
)

const (
	DiagnoseStage = "diagnose"
	TreatStage    = "treat"
)

var diagnosticianSpec = core.StageSpec{
	Name:      DiagnoseStage,
	Role:      "Medical Diagnostician",
	Goal:      "Analyze patient symptoms and medical history to provide a preliminary diagnosis.",
	Backstory: "This agent specializes in diagnosing medical conditions based on patient-reported symptoms and medical history. It uses advanced algorithms and medical knowledge to identify potential health issues.",
	Instruction: "1. Analyze the symptoms ({symptoms}) and medical history ({medical_history}) of a patient (gender: {gender}, age: {age}).\n" +
		"2. Provide a preliminary diagnosis with possible conditions based on the provided information.\n" +
		"3. Limit the diagnosis to the most likely conditions.\n" +
		"4. Limit the total output to 16,000 words.",
	ExpectedOutput: "A preliminary diagnosis with a list of possible conditions.",
	Tools:          []string{agenttools.SearchToolName, agenttools.ScrapeToolName},
}

var treatmentAdvisorSpec = core.StageSpec{
	Name:      TreatStage,
	Role:      "Treatment Advisor",
	Goal:      "Recommend appropriate treatment plans based on the diagnosis provided by the Medical Diagnostician.",
	Backstory: "This agent specializes in creating treatment plans tailored to individual patient needs. It considers the diagnosis, patient history, and current best practices in medicine to recommend effective treatments.",
	Instruction: "1. Based on the diagnosis, recommend appropriate treatment plans step by step.\n" +
		"2. Consider the patient's medical history ({medical_history}) and current symptoms ({symptoms}), as well as gender ({gender}) and age ({age}).\n" +
		"3. Provide detailed treatment recommendations, including medications, lifestyle changes, and follow-up care.\n" +
		"4. Limit the total output to 16,000 words.",
	ExpectedOutput: "A comprehensive treatment plan tailored to the patient's needs.",
	Tools:          []string{agenttools.SearchToolName, agenttools.ScrapeToolName},
}

// Specs returns the stage descriptions in execution order.
func Specs() []core.StageSpec {
	return []core.StageSpec{diagnosticianSpec, treatmentAdvisorSpec}
}

// Options wires the collaborators shared by both stages
type Options struct {
	MaxToolRounds int
	Logger        *log.Logger
	Telemetry     *telemetry.Telemetry
}

// New builds the two-stage pipeline. tools must provide every tool the stages declare.
func New(llm core.ChatClient, tools []core.Tool, opts Options) (*core.Orchestrator, error) {
	if opts.Logger == nil {
		opts.Logger = log.New(log.Writer(), "[CREW] ", log.LstdFlags)
	}
	available := make(map[string]core.Tool, len(tools))
	for _, t := range tools {
		available[t.Definition().Name] = t
	}

	stageOpts := core.StageOptions{
		MaxToolRounds: opts.MaxToolRounds,
		Logger:        opts.Logger,
		Telemetry:     opts.Telemetry,
	}
	specs := Specs()
	stages := make([]*core.Stage, 0, len(specs))
	for _, spec := range specs {
		st, err := core.NewStage(spec, llm, available, stageOpts)
		if err != nil {
			return nil, fmt.Errorf("crew: %w", err)
		}
		stages = append(stages, st)
	}
	return core.NewOrchestrator(opts.Logger, opts.Telemetry, stages...)
}

package core

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/mohammad-safakhou/medcrew/internal/agent/telemetry"
	"github.com/mohammad-safakhou/medcrew/provider/models"
)

const DefaultMaxToolRounds = 8

const bestEffortPrompt = "Some of your tools failed. Do not call any more tools. " +
	"Give your best complete final answer now using the information you already have."

// StageOptions carries the shared collaborators every stage needs
type StageOptions struct {
	MaxToolRounds int
	Logger        *log.Logger
	Telemetry     *telemetry.Telemetry
}

// Stage runs one instruction against the LLM, executing any tool calls the model asks for.
type Stage struct {
	spec          StageSpec
	tmpl          *Template
	llm           ChatClient
	tools         map[string]Tool
	defs          []models.ToolDefinition
	maxToolRounds int
	logger        *log.Logger
	tele          *telemetry.Telemetry
}

// NewStage validates spec against the available tools and parses its template.
func NewStage(spec StageSpec, llm ChatClient, available map[string]Tool, opts StageOptions) (*Stage, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return nil, errors.New("stage name is required")
	}
	if llm == nil {
		return nil, fmt.Errorf("stage %s: llm client is required", spec.Name)
	}
	tmpl, err := NewTemplate(spec.Instruction)
	if err != nil {
		return nil, fmt.Errorf("stage %s: %w", spec.Name, err)
	}

	s := &Stage{
		spec:          spec,
		tmpl:          tmpl,
		llm:           llm,
		tools:         make(map[string]Tool, len(spec.Tools)),
		maxToolRounds: opts.MaxToolRounds,
		logger:        opts.Logger,
		tele:          opts.Telemetry,
	}
	if s.maxToolRounds <= 0 {
		s.maxToolRounds = DefaultMaxToolRounds
	}
	if s.logger == nil {
		s.logger = log.New(log.Writer(), "[CREW] ", log.LstdFlags)
	}
	for _, name := range spec.Tools {
		tool, ok := available[name]
		if !ok {
			return nil, fmt.Errorf("stage %s: %w: %s", spec.Name, ErrUnknownTool, name)
		}
		def := tool.Definition()
		s.tools[def.Name] = tool
		s.defs = append(s.defs, def)
	}
	return s, nil
}

func (s *Stage) Name() string { return s.spec.Name }

// Template exposes the parsed instruction so callers can check slot coverage.
func (s *Stage) Template() *Template { return s.tmpl }

func (s *Stage) systemPrompt() string {
	var b strings.Builder
	fmt.Fprintf(&b, "You are %s.", s.spec.Role)
	if s.spec.Backstory != "" {
		b.WriteString(" ")
		b.WriteString(s.spec.Backstory)
	}
	if s.spec.Goal != "" {
		fmt.Fprintf(&b, "\nYour personal goal is: %s", s.spec.Goal)
	}
	if len(s.defs) > 0 {
		b.WriteString("\nYou may call the provided tools to look things up on the web when it helps your answer.")
	}
	return b.String()
}

func (s *Stage) taskPrompt(instruction, prior string) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Current Task: %s\n\n", instruction)
	if s.spec.ExpectedOutput != "" {
		fmt.Fprintf(&b, "This is the expected criteria for your final answer: %s\n", s.spec.ExpectedOutput)
	}
	b.WriteString("You MUST return the actual complete content as the final answer, not a summary.")
	if prior != "" && !s.tmpl.Uses(SlotContext) {
		fmt.Fprintf(&b, "\n\nThis is the context you're working with:\n%s", prior)
	}
	return b.String()
}

// Run renders the instruction from values and drives the model until it answers in text.
func (s *Stage) Run(ctx context.Context, index int, values map[Slot]string) (StageResult, error) {
	start := time.Now()
	res, err := s.run(ctx, index, values)
	res.Duration = time.Since(start)
	s.tele.RecordStage(s.spec.Name, res.Duration, err)
	if err != nil {
		return StageResult{}, err
	}
	return res, nil
}

func (s *Stage) run(ctx context.Context, index int, values map[Slot]string) (StageResult, error) {
	res := StageResult{StageIndex: index, Name: s.spec.Name}

	instruction, err := s.tmpl.Render(values)
	if err != nil {
		return res, fmt.Errorf("stage %s: %w", s.spec.Name, err)
	}

	messages := []models.Message{
		{Role: models.RoleSystem, Content: s.systemPrompt()},
		{Role: models.RoleUser, Content: s.taskPrompt(instruction, values[SlotContext])},
	}

	rounds := 0
	askedBestEffort := false
	for {
		if err := ctx.Err(); err != nil {
			return res, &UpstreamLLMError{Stage: s.spec.Name, Err: err}
		}
		toolsAllowed := len(s.defs) > 0 && rounds < s.maxToolRounds && !askedBestEffort
		req := models.ChatRequest{Messages: messages, Tools: s.defs, DisableTools: !toolsAllowed}

		resp, err := s.llm.Chat(ctx, req)
		s.tele.RecordLLM(err, resp.PromptTokens, resp.CompletionTokens)
		if err != nil {
			s.logger.Printf("stage %s: llm error: %v", s.spec.Name, err)
			return res, &UpstreamLLMError{Stage: s.spec.Name, Err: err}
		}
		msg := resp.Message

		if toolsAllowed && len(msg.ToolCalls) > 0 {
			rounds++
			messages = append(messages, models.Message{Role: models.RoleAssistant, Content: msg.Content, ToolCalls: msg.ToolCalls})
			for _, call := range msg.ToolCalls {
				out, err := s.invoke(ctx, call)
				res.ToolCalls++
				if err != nil {
					res.ToolFailures++
					s.logger.Printf("stage %s: %v", s.spec.Name, err)
					out = "Tool error: " + err.Error()
				}
				messages = append(messages, models.Message{Role: models.RoleTool, ToolCallID: call.ID, Content: out})
			}
			if rounds == s.maxToolRounds {
				s.logger.Printf("stage %s: tool round limit %d reached, asking for a final answer", s.spec.Name, s.maxToolRounds)
			}
			continue
		}

		text := strings.TrimSpace(msg.Content)
		if text != "" {
			res.Text = text
			return res, nil
		}
		if res.ToolFailures > 0 && !askedBestEffort {
			askedBestEffort = true
			messages = append(messages, models.Message{Role: models.RoleUser, Content: bestEffortPrompt})
			continue
		}
		return res, &UpstreamLLMError{Stage: s.spec.Name, Err: ErrEmptyCompletion}
	}
}

func (s *Stage) invoke(ctx context.Context, call models.ToolCall) (string, error) {
	tool, ok := s.tools[call.Name]
	if !ok {
		err := &ToolInvocationError{Tool: call.Name, Err: ErrUnknownTool}
		s.tele.RecordTool(call.Name, err)
		return "", err
	}
	out, err := tool.Invoke(ctx, call.Arguments)
	if err != nil {
		err = &ToolInvocationError{Tool: call.Name, Err: err}
	} else if strings.TrimSpace(out) == "" {
		out = "The tool returned no content."
	}
	s.tele.RecordTool(call.Name, err)
	return out, err
}

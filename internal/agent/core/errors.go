package core

import (
	"errors"
	"fmt"
)

var (
	ErrUnknownSlot     = errors.New("unknown template slot")
	ErrUnresolvedSlot  = errors.New("unresolved template slot")
	ErrUnknownTool     = errors.New("unknown tool")
	ErrEmptyCompletion = errors.New("empty completion")
	ErrNoStages        = errors.New("orchestrator has no stages")
)

// UpstreamLLMError is returned when the LLM endpoint fails or gives nothing usable.
type UpstreamLLMError struct {
	Stage string
	Err   error
}

func (e *UpstreamLLMError) Error() string {
	return fmt.Sprintf("llm call failed in stage %s: %v", e.Stage, e.Err)
}

func (e *UpstreamLLMError) Unwrap() error { return e.Err }

// ToolInvocationError wraps a failed tool call. It never aborts a stage.
type ToolInvocationError struct {
	Tool string
	Err  error
}

func (e *ToolInvocationError) Error() string {
	return fmt.Sprintf("tool %s failed: %v", e.Tool, e.Err)
}

func (e *ToolInvocationError) Unwrap() error { return e.Err }

package models

const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is one turn of a chat conversation
type Message struct {
	Role       string     `json:"role"`
	Content    string     `json:"content"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
}

// ToolCall is a function invocation requested by the model
type ToolCall struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Arguments string `json:"arguments"` // raw JSON object
}

// ToolDefinition advertises a callable function to the model
type ToolDefinition struct {
	Name        string         `json:"name"`
	Description string         `json:"description"`
	Parameters  map[string]any `json:"parameters"` // JSON schema
}

// ChatRequest is a single completion call
type ChatRequest struct {
	Messages []Message
	Tools    []ToolDefinition
	// DisableTools keeps the definitions visible but forbids calling them
	DisableTools bool
}

// ChatResponse carries the assistant message and token usage
type ChatResponse struct {
	Message          Message
	FinishReason     string
	PromptTokens     int64
	CompletionTokens int64
	Model            string
}

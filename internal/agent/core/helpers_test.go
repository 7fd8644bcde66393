package core

import (
	"context"
	"io"
	"log"
	"sync"

	"github.com/mohammad-safakhou/medcrew/provider/models"
)

var quietLogger = log.New(io.Discard, "", 0)

type scriptedLLM struct {
	mu       sync.Mutex
	requests []models.ChatRequest
	reply    func(n int, req models.ChatRequest) (models.ChatResponse, error)
}

func (s *scriptedLLM) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	s.mu.Lock()
	n := len(s.requests)
	cp := req
	cp.Messages = append([]models.Message(nil), req.Messages...)
	s.requests = append(s.requests, cp)
	s.mu.Unlock()
	return s.reply(n, req)
}

func (s *scriptedLLM) calls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.requests)
}

func text(content string) models.ChatResponse {
	return models.ChatResponse{Message: models.Message{Role: models.RoleAssistant, Content: content}, FinishReason: "stop"}
}

func toolCall(id, name, args string) models.ChatResponse {
	return models.ChatResponse{
		Message:      models.Message{Role: models.RoleAssistant, ToolCalls: []models.ToolCall{{ID: id, Name: name, Arguments: args}}},
		FinishReason: "tool_calls",
	}
}

type stubTool struct {
	name  string
	out   string
	err   error
	mu    sync.Mutex
	calls []string
}

func (t *stubTool) Definition() models.ToolDefinition {
	return models.ToolDefinition{Name: t.name, Description: "stub", Parameters: map[string]any{"type": "object"}}
}

func (t *stubTool) Invoke(ctx context.Context, arguments string) (string, error) {
	t.mu.Lock()
	t.calls = append(t.calls, arguments)
	t.mu.Unlock()
	return t.out, t.err
}

func lastUser(req models.ChatRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == models.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

package openai_provider

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"net/url"
	"strings"

	"github.com/mohammad-safakhou/medcrew/internal/httpclient"
	"github.com/mohammad-safakhou/medcrew/provider/models"
)

const openaiBaseURL = "https://api.openai.com/v1"

// Options configures a chat-completions client. Azure deployments are addressed by
// Model (the deployment name) under BaseURL.
type Options struct {
	Azure       bool
	BaseURL     string
	APIKey      string
	APIVersion  string
	Model       string
	Temperature float64
	MaxTokens   int
	Debug       bool
	Logger      *log.Logger
	HTTP        *httpclient.HTTPClient
}

// Client talks to the OpenAI or Azure OpenAI chat completions API
type Client struct {
	opts   Options
	url    string
	logger *log.Logger
}

type wireFunction struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Arguments   string         `json:"arguments,omitempty"`
}

type wireToolCall struct {
	ID       string       `json:"id"`
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type wireMessage struct {
	Role       string         `json:"role"`
	Content    string         `json:"content"`
	ToolCallID string         `json:"tool_call_id,omitempty"`
	ToolCalls  []wireToolCall `json:"tool_calls,omitempty"`
}

type wireTool struct {
	Type     string       `json:"type"`
	Function wireFunction `json:"function"`
}

type request struct {
	Model       string        `json:"model,omitempty"`
	Messages    []wireMessage `json:"messages"`
	Tools       []wireTool    `json:"tools,omitempty"`
	ToolChoice  string        `json:"tool_choice,omitempty"`
	Temperature float64       `json:"temperature"`
	MaxTokens   int           `json:"max_tokens,omitempty"`
}

type response struct {
	Model   string `json:"model"`
	Choices []struct {
		Message struct {
			Role      string         `json:"role"`
			Content   *string        `json:"content"`
			ToolCalls []wireToolCall `json:"tool_calls"`
		} `json:"message"`
		FinishReason string `json:"finish_reason"`
	} `json:"choices"`
	Usage struct {
		PromptTokens     int64 `json:"prompt_tokens"`
		CompletionTokens int64 `json:"completion_tokens"`
	} `json:"usage"`
}

// NewClient creates a new chat-completions client
func NewClient(opts Options) *Client {
	if opts.HTTP == nil {
		opts.HTTP = httpclient.New(0)
	}
	logger := opts.Logger
	if logger == nil {
		logger = log.New(log.Writer(), "[LLM] ", log.LstdFlags)
	}
	return &Client{opts: opts, url: completionsURL(opts), logger: logger}
}

func completionsURL(o Options) string {
	base := strings.TrimRight(o.BaseURL, "/")
	if o.Azure {
		return fmt.Sprintf("%s/openai/deployments/%s/chat/completions?api-version=%s",
			base, url.PathEscape(o.Model), url.QueryEscape(o.APIVersion))
	}
	if base == "" {
		base = openaiBaseURL
	}
	return base + "/chat/completions"
}

// Chat sends one completion request and maps the first choice back
func (c *Client) Chat(ctx context.Context, req models.ChatRequest) (models.ChatResponse, error) {
	body := request{
		Messages:    make([]wireMessage, 0, len(req.Messages)),
		Temperature: c.opts.Temperature,
		MaxTokens:   c.opts.MaxTokens,
	}
	if !c.opts.Azure {
		body.Model = c.opts.Model
	}
	for _, m := range req.Messages {
		wm := wireMessage{Role: m.Role, Content: m.Content, ToolCallID: m.ToolCallID}
		for _, tc := range m.ToolCalls {
			wm.ToolCalls = append(wm.ToolCalls, wireToolCall{
				ID: tc.ID, Type: "function",
				Function: wireFunction{Name: tc.Name, Arguments: tc.Arguments},
			})
		}
		body.Messages = append(body.Messages, wm)
	}
	for _, t := range req.Tools {
		body.Tools = append(body.Tools, wireTool{
			Type:     "function",
			Function: wireFunction{Name: t.Name, Description: t.Description, Parameters: t.Parameters},
		})
	}
	if len(body.Tools) > 0 {
		body.ToolChoice = "auto"
		if req.DisableTools {
			body.ToolChoice = "none"
		}
	}

	headers := map[string]string{}
	if c.opts.Azure {
		headers["api-key"] = c.opts.APIKey
	} else {
		headers["Authorization"] = "Bearer " + c.opts.APIKey
	}

	if c.opts.Debug {
		c.logger.Printf("chat request model=%s messages=%d tools=%d tool_choice=%s", c.opts.Model, len(body.Messages), len(body.Tools), body.ToolChoice)
	}

	var out response
	if err := c.opts.HTTP.DoJSON(ctx, http.MethodPost, c.url, headers, body, &out); err != nil {
		return models.ChatResponse{}, err
	}
	if len(out.Choices) == 0 {
		return models.ChatResponse{}, fmt.Errorf("no choices in response")
	}

	choice := out.Choices[0]
	msg := models.Message{Role: models.RoleAssistant}
	if choice.Message.Content != nil {
		msg.Content = *choice.Message.Content
	}
	for _, tc := range choice.Message.ToolCalls {
		msg.ToolCalls = append(msg.ToolCalls, models.ToolCall{ID: tc.ID, Name: tc.Function.Name, Arguments: tc.Function.Arguments})
	}

	if c.opts.Debug {
		c.logger.Printf("chat response finish=%s tool_calls=%d prompt_tokens=%d completion_tokens=%d", choice.FinishReason, len(msg.ToolCalls), out.Usage.PromptTokens, out.Usage.CompletionTokens)
	}

	return models.ChatResponse{
		Message:          msg,
		FinishReason:     choice.FinishReason,
		PromptTokens:     out.Usage.PromptTokens,
		CompletionTokens: out.Usage.CompletionTokens,
		Model:            out.Model,
	}, nil
}

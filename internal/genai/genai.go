// Package genai provides GenAI-enhanced operations using the OpenAI API.
//
// It wraps chat completions with optional tool/function schemas and exposes
// conversation-thread creation for correlating multi-turn exchanges.
package genai

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/hubtab/TABAgent/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// DefaultModel is used when no model override is configured.
const DefaultModel = openai.ChatModelGPT4o

// ToolCallResponse is the result of a chat completion that may include tool calls.
type ToolCallResponse struct {
	Content   string            `json:"content"`
	ToolCalls []models.ToolCall `json:"tool_calls,omitempty"`
}

// HasToolCalls reports whether the response includes at least one tool call.
func (r *ToolCallResponse) HasToolCalls() bool {
	return r != nil && len(r.ToolCalls) > 0
}

// ClientInterface defines the LLM gateway operations consumed by the workflow.
type ClientInterface interface {
	// GeneratePromptWithContext generates a response from a system and user prompt pair.
	GeneratePromptWithContext(ctx context.Context, systemPrompt, userPrompt string) (string, error)
	// GenerateWithMessages generates a plain text response from a full message history.
	GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error)
	// GenerateWithTools generates a response that may invoke one of the bound tools.
	GenerateWithTools(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolParam) (*ToolCallResponse, error)
	// CreateThread creates an LLM-side conversation thread and returns its id.
	CreateThread(ctx context.Context) (string, error)
}

// Opts holds configuration options for the GenAI client.
type Opts struct {
	APIKey  string
	BaseURL string
	Model   string
}

// Option defines a configuration option for the GenAI client.
type Option func(*Opts)

// WithAPIKey sets the OpenAI API key.
func WithAPIKey(key string) Option {
	return func(o *Opts) {
		o.APIKey = key
	}
}

// WithBaseURL sets a custom API endpoint (e.g., an Azure OpenAI deployment).
func WithBaseURL(url string) Option {
	return func(o *Opts) {
		o.BaseURL = url
	}
}

// WithModel overrides the default chat model.
func WithModel(model string) Option {
	return func(o *Opts) {
		o.Model = model
	}
}

// Client wraps the OpenAI client for chat completions and thread management.
type Client struct {
	client openai.Client
	model  openai.ChatModel
}

// Ensure Client satisfies ClientInterface.
var _ ClientInterface = (*Client)(nil)

// NewClient initializes a new GenAI client. The API key falls back to the
// OPENAI_API_KEY environment variable when not supplied via options.
func NewClient(opts ...Option) (*Client, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}

	apiKey := cfg.APIKey
	if apiKey == "" {
		apiKey = os.Getenv("OPENAI_API_KEY")
	}
	if apiKey == "" {
		return nil, fmt.Errorf("OpenAI API key not set")
	}

	reqOpts := []option.RequestOption{option.WithAPIKey(apiKey)}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}

	model := openai.ChatModel(cfg.Model)
	if model == "" {
		model = DefaultModel
	}

	slog.Debug("GenAI.NewClient: client initialized", "model", model, "customBaseURL", cfg.BaseURL != "")
	return &Client{client: openai.NewClient(reqOpts...), model: model}, nil
}

// GeneratePromptWithContext generates a response based on the provided system and user prompts.
func (c *Client) GeneratePromptWithContext(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	messages := []openai.ChatCompletionMessageParamUnion{
		openai.SystemMessage(systemPrompt),
		openai.UserMessage(userPrompt),
	}
	return c.GenerateWithMessages(ctx, messages)
}

// GenerateWithMessages generates a response from a full message history.
func (c *Client) GenerateWithMessages(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion) (string, error) {
	slog.Debug("GenAI.GenerateWithMessages: sending completion request", "messageCount", len(messages))
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
	})
	if err != nil {
		slog.Error("GenAI.GenerateWithMessages: completion failed", "error", err)
		return "", fmt.Errorf("chat completion failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned from chat completion")
	}
	return resp.Choices[0].Message.Content, nil
}

// GenerateWithTools generates a response with tool schemas bound; the model
// may answer with text, tool calls, or both.
func (c *Client) GenerateWithTools(ctx context.Context, messages []openai.ChatCompletionMessageParamUnion, tools []openai.ChatCompletionToolParam) (*ToolCallResponse, error) {
	slog.Debug("GenAI.GenerateWithTools: sending completion request", "messageCount", len(messages), "toolCount", len(tools))
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model:    c.model,
		Messages: messages,
		Tools:    tools,
	})
	if err != nil {
		slog.Error("GenAI.GenerateWithTools: completion failed", "error", err)
		return nil, fmt.Errorf("chat completion with tools failed: %w", err)
	}
	if len(resp.Choices) == 0 {
		return nil, fmt.Errorf("no choices returned from chat completion")
	}

	choice := resp.Choices[0].Message
	result := &ToolCallResponse{Content: choice.Content}
	for _, tc := range choice.ToolCalls {
		result.ToolCalls = append(result.ToolCalls, models.ToolCall{
			ID:   tc.ID,
			Type: "function",
			Function: models.FunctionCall{
				Name:      tc.Function.Name,
				Arguments: []byte(tc.Function.Arguments),
			},
		})
	}
	slog.Debug("GenAI.GenerateWithTools: completion received", "hasContent", result.Content != "", "toolCalls", len(result.ToolCalls))
	return result, nil
}

// CreateThread creates an LLM-side conversation thread. Callers must tolerate
// failure and degrade to a locally generated placeholder id.
func (c *Client) CreateThread(ctx context.Context) (string, error) {
	thread, err := c.client.Beta.Threads.New(ctx, openai.BetaThreadNewParams{})
	if err != nil {
		slog.Error("GenAI.CreateThread: thread creation failed", "error", err)
		return "", fmt.Errorf("failed to create thread: %w", err)
	}
	slog.Info("GenAI.CreateThread: created thread", "threadID", thread.ID)
	return thread.ID, nil
}

package workflow

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/openai/openai-go"

	"github.com/hubtab/TABAgent/internal/genai"
	"github.com/hubtab/TABAgent/internal/models"
)

// MaxEmptyResponseRetries bounds how many corrective re-prompts an assistant
// issues when the model returns neither text nor tool calls.
const MaxEmptyResponseRetries = 3

// Assistant wraps a single LLM persona: a system prompt rendered from turn
// state plus the tool set the persona is allowed to call.
type Assistant struct {
	name         string
	client       genai.ClientInterface
	tools        []openai.ChatCompletionToolParam
	systemPrompt string
}

// NewAssistant creates an assistant with a fixed prompt template. The template
// placeholders are substituted against the turn state on every invocation.
func NewAssistant(name, promptTemplate string, client genai.ClientInterface, tools []openai.ChatCompletionToolParam) *Assistant {
	return &Assistant{
		name:         name,
		client:       client,
		tools:        tools,
		systemPrompt: promptTemplate,
	}
}

// Name returns the assistant's display name.
func (a *Assistant) Name() string { return a.name }

// Invoke runs one model call for this assistant against the current turn
// state and appends the resulting assistant message to the state. Empty model
// responses are retried with a corrective user message up to
// MaxEmptyResponseRetries times; the corrective exchanges stay local to the
// invocation and never enter the persisted history. When retries are
// exhausted a fixed fallback message is appended so the turn still produces
// output.
func (a *Assistant) Invoke(ctx context.Context, st *TurnState) error {
	slog.Debug("Assistant.Invoke: generating response", "assistant", a.name, "historyLen", len(st.Messages))

	system := renderPrompt(a.systemPrompt, st)
	local := make([]models.Message, 0, len(st.Messages)+1+MaxEmptyResponseRetries)
	local = append(local, models.SystemMessage(system))
	local = append(local, st.Messages...)

	for attempt := 0; attempt <= MaxEmptyResponseRetries; attempt++ {
		resp, err := a.client.GenerateWithTools(ctx, genai.ConvertMessages(local), a.tools)
		if err != nil {
			return fmt.Errorf("assistant %s: failed to generate response: %w", a.name, err)
		}

		if resp.HasToolCalls() || resp.Content != "" {
			st.Append(models.AssistantMessage(resp.Content, resp.ToolCalls...))
			slog.Debug("Assistant.Invoke: response ready", "assistant", a.name, "toolCalls", len(resp.ToolCalls))
			return nil
		}

		slog.Warn("Assistant.Invoke: empty response, retrying", "assistant", a.name, "attempt", attempt+1)
		local = append(local, models.UserMessage(emptyResponseCorrection))
	}

	slog.Warn("Assistant.Invoke: retries exhausted, using fallback reply", "assistant", a.name)
	st.Append(models.AssistantMessage(emptyResponseFallback))
	return nil
}

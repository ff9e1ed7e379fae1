// Package genai provides conversion between the repo's message model and OpenAI chat params.
package genai

import (
	"github.com/hubtab/TABAgent/internal/models"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/packages/param"
)

// ConvertMessages converts the repo's message history into OpenAI chat
// completion params, preserving assistant tool calls and their paired tool
// results so the API sees well-formed call/result sequences.
func ConvertMessages(history []models.Message) []openai.ChatCompletionMessageParamUnion {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(history))
	for _, msg := range history {
		switch msg.Role {
		case models.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case models.RoleUser:
			messages = append(messages, openai.UserMessage(msg.Content))
		case models.RoleAssistant:
			if msg.HasToolCalls() {
				messages = append(messages, assistantMessageWithToolCalls(msg))
			} else {
				messages = append(messages, openai.AssistantMessage(msg.Content))
			}
		case models.RoleTool:
			messages = append(messages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		}
	}
	return messages
}

func assistantMessageWithToolCalls(msg models.Message) openai.ChatCompletionMessageParamUnion {
	var toolCalls []openai.ChatCompletionMessageToolCallParam
	for _, tc := range msg.ToolCalls {
		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   tc.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      tc.Function.Name,
				Arguments: string(tc.Function.Arguments),
			},
		})
	}
	assistant := openai.ChatCompletionAssistantMessageParam{
		Content: openai.ChatCompletionAssistantMessageParamContentUnion{
			OfString: param.NewOpt(msg.Content),
		},
		ToolCalls: toolCalls,
	}
	return openai.ChatCompletionMessageParamUnion{OfAssistant: &assistant}
}

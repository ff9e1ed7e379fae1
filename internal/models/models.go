// Package models defines core data structures shared across TABAgent components.
package models

// MessageRole identifies the author of a conversation message.
type MessageRole string

const (
	// RoleSystem is an instruction message installed by the workflow, not shown to the user.
	RoleSystem MessageRole = "system"
	// RoleUser is a message authored by the human architect.
	RoleUser MessageRole = "user"
	// RoleAssistant is a message produced by an LLM-backed agent node.
	RoleAssistant MessageRole = "assistant"
	// RoleTool is a tool-result message paired with a prior assistant tool call.
	RoleTool MessageRole = "tool"
)

// Message is a single entry in the conversation history. Assistant messages may
// carry tool calls; tool messages must carry the ToolCallID they respond to.
type Message struct {
	Role       MessageRole `json:"role"`
	Content    string      `json:"content"`
	ToolCalls  []ToolCall  `json:"tool_calls,omitempty"`
	ToolCallID string      `json:"tool_call_id,omitempty"`
}

// UserMessage constructs a user-role message.
func UserMessage(content string) Message {
	return Message{Role: RoleUser, Content: content}
}

// SystemMessage constructs a system-role message.
func SystemMessage(content string) Message {
	return Message{Role: RoleSystem, Content: content}
}

// AssistantMessage constructs an assistant-role message with optional tool calls.
func AssistantMessage(content string, toolCalls ...ToolCall) Message {
	return Message{Role: RoleAssistant, Content: content, ToolCalls: toolCalls}
}

// ToolResultMessage constructs a tool-role message addressed to a tool call.
func ToolResultMessage(content, toolCallID string) Message {
	return Message{Role: RoleTool, Content: content, ToolCallID: toolCallID}
}

// HasToolCalls reports whether the message carries at least one tool call.
func (m Message) HasToolCalls() bool {
	return len(m.ToolCalls) > 0
}

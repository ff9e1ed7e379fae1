package workflow

import (
	"context"
	"fmt"
	"testing"

	"github.com/openai/openai-go"

	"github.com/hubtab/TABAgent/internal/genai"
)

// mockGenAIClient returns scripted tool-call responses in order, recording
// every invocation for assertions.
type mockGenAIClient struct {
	responses []*genai.ToolCallResponse
	err       error

	calls        int
	seenMessages [][]openai.ChatCompletionMessageParamUnion

	threadID  string
	threadErr error
}

var _ genai.ClientInterface = (*mockGenAIClient)(nil)

func (m *mockGenAIClient) GeneratePromptWithContext(_ context.Context, _, _ string) (string, error) {
	return "", fmt.Errorf("not scripted")
}

func (m *mockGenAIClient) GenerateWithMessages(_ context.Context, _ []openai.ChatCompletionMessageParamUnion) (string, error) {
	return "", fmt.Errorf("not scripted")
}

func (m *mockGenAIClient) GenerateWithTools(_ context.Context, messages []openai.ChatCompletionMessageParamUnion, _ []openai.ChatCompletionToolParam) (*genai.ToolCallResponse, error) {
	m.seenMessages = append(m.seenMessages, messages)
	if m.err != nil {
		return nil, m.err
	}
	if m.calls >= len(m.responses) {
		return nil, fmt.Errorf("mock exhausted after %d responses", len(m.responses))
	}
	resp := m.responses[m.calls]
	m.calls++
	return resp, nil
}

// systemPromptOf extracts the system prompt text from a recorded invocation.
func systemPromptOf(t *testing.T, messages []openai.ChatCompletionMessageParamUnion) string {
	t.Helper()
	if len(messages) == 0 || messages[0].OfSystem == nil {
		t.Fatal("first message should be the system prompt")
	}
	return messages[0].OfSystem.Content.OfString.Value
}

func (m *mockGenAIClient) CreateThread(_ context.Context) (string, error) {
	if m.threadErr != nil {
		return "", m.threadErr
	}
	if m.threadID == "" {
		return "thread_mock", nil
	}
	return m.threadID, nil
}

package workflow

import (
	"encoding/json"
	"testing"

	"github.com/hubtab/TABAgent/internal/models"
)

func toolCall(id, name string, args string) models.ToolCall {
	return models.ToolCall{
		ID:   id,
		Type: "function",
		Function: models.FunctionCall{
			Name:      name,
			Arguments: json.RawMessage(args),
		},
	}
}

func stateWithLastMessage(msg models.Message) *TurnState {
	st := NewTurnState(nil, "hello", nil)
	st.Append(msg)
	return st
}

func TestRouteToWorkflow(t *testing.T) {
	tests := []struct {
		name  string
		stack []string
		want  string
	}{
		{"empty stack routes to primary", nil, NodePrimaryAssistant},
		{"active notes extraction resumes", []string{NodeNotesExtraction}, NodeNotesExtraction},
		{"top of stack wins", []string{NodeNotesExtraction, NodeAgendaCreation}, NodeAgendaCreation},
		{"document generation resumes", []string{NodeDocumentGeneration}, NodeDocumentGeneration},
		{"unexpected entry falls back to primary", []string{"bogus_workflow"}, NodePrimaryAssistant},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			st := NewTurnState(nil, "hi", tt.stack)
			if got := routeToWorkflow(st); got != tt.want {
				t.Errorf("routeToWorkflow = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestRoutePrimaryAssistant(t *testing.T) {
	tests := []struct {
		name string
		msg  models.Message
		want string
	}{
		{
			"plain text ends the turn",
			models.AssistantMessage("How can I help?"),
			NodeEnd,
		},
		{
			"notes delegation",
			models.AssistantMessage("", toolCall("call_1", models.ToolNameToNotesExtractor, `{"request":"extract"}`)),
			NodeEnterNotesExtraction,
		},
		{
			"agenda delegation",
			models.AssistantMessage("", toolCall("call_2", models.ToolNameToAgendaCreator, `{"request":"build","agenda_goals":"goals"}`)),
			NodeEnterAgendaCreation,
		},
		{
			"document delegation",
			models.AssistantMessage("", toolCall("call_3", models.ToolNameToDocumentGenerator, `{"query":"| agenda |"}`)),
			NodeEnterDocumentGeneration,
		},
		{
			"unknown tool awaits next turn",
			models.AssistantMessage("", toolCall("call_4", "some_invented_tool", `{}`)),
			NodeAwait,
		},
		{
			"only first tool call is examined",
			models.AssistantMessage("",
				toolCall("call_5", models.ToolNameToAgendaCreator, `{"request":"build","agenda_goals":"g"}`),
				toolCall("call_6", models.ToolNameToNotesExtractor, `{"request":"extract"}`)),
			NodeEnterAgendaCreation,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := routePrimaryAssistant(stateWithLastMessage(tt.msg)); got != tt.want {
				t.Errorf("routePrimaryAssistant = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestRouteNotesExtraction(t *testing.T) {
	tests := []struct {
		name string
		msg  models.Message
		want string
	}{
		{"plain text ends the turn", models.AssistantMessage("Please confirm the customer name."), NodeEnd},
		{
			"escalation selects the prompt template",
			models.AssistantMessage("", toolCall("call_1", models.ToolNameCompleteOrEscalate, `{"cancel":false,"reason":"done"}`)),
			NodeSetPromptTemplate,
		},
		{
			"other tool call awaits next turn",
			models.AssistantMessage("", toolCall("call_2", "unrelated_tool", `{}`)),
			NodeAwait,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := routeNotesExtraction(stateWithLastMessage(tt.msg)); got != tt.want {
				t.Errorf("routeNotesExtraction = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestRouteAgendaCreation(t *testing.T) {
	escalate := models.AssistantMessage("", toolCall("call_1", models.ToolNameCompleteOrEscalate, `{"reason":"agenda confirmed"}`))
	if got := routeAgendaCreation(stateWithLastMessage(escalate)); got != NodeLeaveSkill {
		t.Errorf("escalation route = %q; want %q", got, NodeLeaveSkill)
	}
	if got := routeAgendaCreation(stateWithLastMessage(models.AssistantMessage("Here is the draft agenda."))); got != NodeEnd {
		t.Errorf("text route = %q; want %q", got, NodeEnd)
	}
}

func TestRouteDocumentGeneration(t *testing.T) {
	tests := []struct {
		name string
		msg  models.Message
		want string
	}{
		{"plain text ends the turn", models.AssistantMessage("Your document is ready."), NodeEnd},
		{
			"escalation leaves the skill",
			models.AssistantMessage("", toolCall("call_1", models.ToolNameCompleteOrEscalate, `{"reason":"done"}`)),
			NodeLeaveSkill,
		},
		{
			"document tool runs the executor",
			models.AssistantMessage("", toolCall("call_2", models.ToolNameGenerateAgendaDocument, `{"query":"| agenda |"}`)),
			NodeDocumentGenerationTools,
		},
		{
			"mixed tool calls await next turn",
			models.AssistantMessage("",
				toolCall("call_3", models.ToolNameGenerateAgendaDocument, `{"query":"| agenda |"}`),
				toolCall("call_4", "unrelated_tool", `{}`)),
			NodeAwait,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := routeDocumentGeneration(stateWithLastMessage(tt.msg)); got != tt.want {
				t.Errorf("routeDocumentGeneration = %q; want %q", got, tt.want)
			}
		})
	}
}

func TestEscalationBeatsDocumentTool(t *testing.T) {
	msg := models.AssistantMessage("",
		toolCall("call_1", models.ToolNameGenerateAgendaDocument, `{"query":"| agenda |"}`),
		toolCall("call_2", models.ToolNameCompleteOrEscalate, `{"reason":"user changed their mind"}`))
	if got := routeDocumentGeneration(stateWithLastMessage(msg)); got != NodeLeaveSkill {
		t.Errorf("escalation should win over document tools, got %q", got)
	}
}

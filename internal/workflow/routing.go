package workflow

import (
	"log/slog"

	"github.com/hubtab/TABAgent/internal/models"
)

// routeToWorkflow re-enters the sub-workflow on top of the dialog stack, or
// the primary assistant when no delegation is active. This lets a resumed
// thread skip straight back into an active sub-workflow.
func routeToWorkflow(st *TurnState) string {
	top, ok := st.Dialog.Peek()
	if !ok {
		return NodePrimaryAssistant
	}
	switch top {
	case NodeNotesExtraction, NodeAgendaCreation, NodeDocumentGeneration:
		return top
	default:
		slog.Warn("routeToWorkflow: unexpected dialog stack entry, routing to primary", "entry", top)
		return NodePrimaryAssistant
	}
}

// routePrimaryAssistant inspects the primary agent's tool-call output and
// delegates to the matching entry node. Only the first tool call is examined;
// simultaneous delegations are not supported and any extras are logged and
// ignored.
func routePrimaryAssistant(st *TurnState) string {
	last, ok := st.LastMessage()
	if !ok || !last.HasToolCalls() {
		return NodeEnd
	}
	if len(last.ToolCalls) > 1 {
		slog.Warn("routePrimaryAssistant: multiple tool calls present, examining only the first",
			"toolCalls", len(last.ToolCalls))
	}

	switch last.ToolCalls[0].Kind() {
	case models.ToolKindDelegateNotes:
		return NodeEnterNotesExtraction
	case models.ToolKindDelegateAgenda:
		return NodeEnterAgendaCreation
	case models.ToolKindDelegateDocument:
		return NodeEnterDocumentGeneration
	case models.ToolKindEscalate, models.ToolKindDocumentTool, models.ToolKindUnknown:
		slog.Debug("routePrimaryAssistant: non-delegation tool call, awaiting next turn",
			"tool", last.ToolCalls[0].Function.Name)
		return NodeAwait
	default:
		return NodeAwait
	}
}

// routeNotesExtraction ends the turn when the notes extractor answered with
// plain text; an escalation goes through prompt-template selection before
// control returns to the primary assistant.
func routeNotesExtraction(st *TurnState) string {
	last, ok := st.LastMessage()
	if !ok || !last.HasToolCalls() {
		return NodeEnd
	}
	if didEscalate(last) {
		return NodeSetPromptTemplate
	}
	return NodeAwait
}

// routeAgendaCreation is the same two-way predicate minus the intermediate
// prompt-template step.
func routeAgendaCreation(st *TurnState) string {
	last, ok := st.LastMessage()
	if !ok || !last.HasToolCalls() {
		return NodeEnd
	}
	if didEscalate(last) {
		return NodeLeaveSkill
	}
	return NodeAwait
}

// routeDocumentGeneration adds a third branch: tool calls naming a registered
// document tool run through the executor node, which loops back for the agent
// to interpret the results.
func routeDocumentGeneration(st *TurnState) string {
	last, ok := st.LastMessage()
	if !ok || !last.HasToolCalls() {
		return NodeEnd
	}
	if didEscalate(last) {
		return NodeLeaveSkill
	}
	if allDocumentTools(last) {
		return NodeDocumentGenerationTools
	}
	slog.Debug("routeDocumentGeneration: unrecognized tool call, awaiting next turn",
		"tool", last.ToolCalls[0].Function.Name)
	return NodeAwait
}

// didEscalate reports whether any tool call in the message is a
// CompleteOrEscalate invocation.
func didEscalate(msg models.Message) bool {
	for _, tc := range msg.ToolCalls {
		if tc.Kind() == models.ToolKindEscalate {
			return true
		}
	}
	return false
}

// allDocumentTools reports whether every tool call in the message names a
// registered document generation tool.
func allDocumentTools(msg models.Message) bool {
	for _, tc := range msg.ToolCalls {
		if tc.Kind() != models.ToolKindDocumentTool {
			return false
		}
	}
	return len(msg.ToolCalls) > 0
}

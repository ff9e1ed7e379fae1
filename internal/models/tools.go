// Package models defines tool structures for LLM function calling.
package models

import (
	"encoding/json"
	"fmt"
)

// Tool function names the workflow agents are bound to.
const (
	// ToolNameToNotesExtractor delegates the conversation to the notes extraction agent.
	ToolNameToNotesExtractor = "ToNotesExtractor"
	// ToolNameToAgendaCreator delegates the conversation to the agenda creation agent.
	ToolNameToAgendaCreator = "ToAgendaCreator"
	// ToolNameToDocumentGenerator delegates the conversation to the document generation agent.
	ToolNameToDocumentGenerator = "ToDocumentGenerator"
	// ToolNameCompleteOrEscalate returns control from a sub-agent to the primary assistant.
	ToolNameCompleteOrEscalate = "CompleteOrEscalate"
	// ToolNameGenerateAgendaDocument produces the Word agenda document and returns a download URL.
	ToolNameGenerateAgendaDocument = "generate_agenda_document"
)

// ToolKind classifies a tool call name into the closed set of kinds the
// routing predicates dispatch on.
type ToolKind int

const (
	// ToolKindUnknown is any tool name outside the registered set.
	ToolKindUnknown ToolKind = iota
	// ToolKindDelegateNotes routes to the notes extraction sub-agent.
	ToolKindDelegateNotes
	// ToolKindDelegateAgenda routes to the agenda creation sub-agent.
	ToolKindDelegateAgenda
	// ToolKindDelegateDocument routes to the document generation sub-agent.
	ToolKindDelegateDocument
	// ToolKindEscalate hands control back to the primary assistant.
	ToolKindEscalate
	// ToolKindDocumentTool is an executable tool of the document generation agent.
	ToolKindDocumentTool
)

// ToolKindOf classifies a tool function name. Unrecognized names map to
// ToolKindUnknown rather than an error so routing can treat them uniformly.
func ToolKindOf(name string) ToolKind {
	switch name {
	case ToolNameToNotesExtractor:
		return ToolKindDelegateNotes
	case ToolNameToAgendaCreator:
		return ToolKindDelegateAgenda
	case ToolNameToDocumentGenerator:
		return ToolKindDelegateDocument
	case ToolNameCompleteOrEscalate:
		return ToolKindEscalate
	case ToolNameGenerateAgendaDocument:
		return ToolKindDocumentTool
	default:
		return ToolKindUnknown
	}
}

// String returns a human-readable name for the tool kind.
func (k ToolKind) String() string {
	switch k {
	case ToolKindDelegateNotes:
		return "delegate_notes"
	case ToolKindDelegateAgenda:
		return "delegate_agenda"
	case ToolKindDelegateDocument:
		return "delegate_document"
	case ToolKindEscalate:
		return "escalate"
	case ToolKindDocumentTool:
		return "document_tool"
	default:
		return "unknown"
	}
}

// ToolCall represents an LLM tool function call.
type ToolCall struct {
	ID       string       `json:"id"`       // Tool call ID from OpenAI
	Type     string       `json:"type"`     // Always "function" for OpenAI
	Function FunctionCall `json:"function"` // Function details
}

// Kind classifies the call's function name.
func (tc ToolCall) Kind() ToolKind {
	return ToolKindOf(tc.Function.Name)
}

// FunctionCall represents the function details within a tool call.
type FunctionCall struct {
	Name      string          `json:"name"`      // Function name (e.g., "CompleteOrEscalate")
	Arguments json.RawMessage `json:"arguments"` // JSON arguments as raw message
}

// EscalateParams are the arguments of a CompleteOrEscalate tool call.
type EscalateParams struct {
	Cancel bool   `json:"cancel"`
	Reason string `json:"reason"`
}

// DocumentToolParams are the arguments of a generate_agenda_document tool call.
type DocumentToolParams struct {
	Query string `json:"query"` // Markdown agenda content to render into the document
}

// Validate ensures the document tool parameters are usable.
func (p *DocumentToolParams) Validate() error {
	if p.Query == "" {
		return fmt.Errorf("query is required for document generation")
	}
	return nil
}

// ParseDocumentParams parses the arguments as DocumentToolParams.
func (fc *FunctionCall) ParseDocumentParams() (*DocumentToolParams, error) {
	if fc.Name != ToolNameGenerateAgendaDocument {
		return nil, fmt.Errorf("function name %s is not a document generation function", fc.Name)
	}

	var params DocumentToolParams
	if err := json.Unmarshal(fc.Arguments, &params); err != nil {
		return nil, fmt.Errorf("failed to parse document generation parameters: %w", err)
	}

	if err := params.Validate(); err != nil {
		return nil, fmt.Errorf("invalid document generation parameters: %w", err)
	}

	return &params, nil
}

// ParseEscalateParams parses the arguments as EscalateParams. Malformed
// arguments yield zero-value params rather than an error since escalation
// only needs the call's presence to route.
func (fc *FunctionCall) ParseEscalateParams() EscalateParams {
	var params EscalateParams
	if len(fc.Arguments) > 0 {
		_ = json.Unmarshal(fc.Arguments, &params)
	}
	return params
}

// ToolResult represents the result of executing a tool.
type ToolResult struct {
	ToolCallID string `json:"tool_call_id"`    // ID of the tool call this responds to
	Success    bool   `json:"success"`         // Whether the tool execution succeeded
	Message    string `json:"message"`         // Human-readable result message
	Error      string `json:"error,omitempty"` // Error message if success is false
}

package workflow

import (
	"context"

	"github.com/openai/openai-go"

	"github.com/hubtab/TABAgent/internal/docs"
	"github.com/hubtab/TABAgent/internal/genai"
	"github.com/hubtab/TABAgent/internal/hub"
)

// Engine owns the assembled workflow graph and the four assistants bound to
// it. One engine serves all sessions; per-turn state travels in TurnState.
type Engine struct {
	graph *Graph
}

// NewEngine wires the assistants and the graph topology.
func NewEngine(client genai.ClientInterface, master *hub.MasterData, docSvc docs.Service) *Engine {
	primary := NewAssistant("Primary Assistant", primaryAssistantPrompt, client,
		[]openai.ChatCompletionToolParam{
			toNotesExtractorToolDefinition(),
			toAgendaCreatorToolDefinition(),
			toDocumentGeneratorToolDefinition(),
		})
	notesExtractor := NewAssistant("Notes Extractor Agent", notesExtractorPrompt, client,
		[]openai.ChatCompletionToolParam{
			completeOrEscalateToolDefinition(),
		})
	agendaCreator := NewAssistant("Agenda Creator Agent", agendaCreatorPrompt, client,
		[]openai.ChatCompletionToolParam{
			completeOrEscalateToolDefinition(),
		})
	documentGenerator := NewAssistant("Document Generator Agent", documentGeneratorPrompt, client,
		[]openai.ChatCompletionToolParam{
			generateAgendaDocumentToolDefinition(),
			completeOrEscalateToolDefinition(),
		})

	g := NewGraph()

	g.AddNode(NodeExtractUserName, extractUserName)
	g.AddNode(NodeFetchHubInfo, makeFetchHubInfoNode(master))
	g.AddNode(NodePrimaryAssistant, primary.Invoke)
	g.AddNode(NodeEnterNotesExtraction, makeEntryNode(notesExtractor.Name(), NodeNotesExtraction))
	g.AddNode(NodeNotesExtraction, notesExtractor.Invoke)
	g.AddNode(NodeEnterAgendaCreation, makeEntryNode(agendaCreator.Name(), NodeAgendaCreation))
	g.AddNode(NodeAgendaCreation, agendaCreator.Invoke)
	g.AddNode(NodeEnterDocumentGeneration, makeEntryNode(documentGenerator.Name(), NodeDocumentGeneration))
	g.AddNode(NodeDocumentGeneration, documentGenerator.Invoke)
	g.AddNode(NodeDocumentGenerationTools, makeDocumentToolsNode(docSvc))
	g.AddNode(NodeSetPromptTemplate, setPromptTemplate)
	g.AddNode(NodeLeaveSkill, leaveSkill)

	g.AddEdge(NodeExtractUserName, NodeFetchHubInfo)
	g.AddConditionalEdge(NodeFetchHubInfo, routeToWorkflow)

	g.AddConditionalEdge(NodePrimaryAssistant, routePrimaryAssistant)

	g.AddEdge(NodeEnterNotesExtraction, NodeNotesExtraction)
	g.AddConditionalEdge(NodeNotesExtraction, routeNotesExtraction)
	g.AddEdge(NodeSetPromptTemplate, NodeLeaveSkill)

	g.AddEdge(NodeEnterAgendaCreation, NodeAgendaCreation)
	g.AddConditionalEdge(NodeAgendaCreation, routeAgendaCreation)

	g.AddEdge(NodeEnterDocumentGeneration, NodeDocumentGeneration)
	g.AddConditionalEdge(NodeDocumentGeneration, routeDocumentGeneration)
	g.AddEdge(NodeDocumentGenerationTools, NodeDocumentGeneration)

	g.AddEdge(NodeLeaveSkill, NodePrimaryAssistant)

	return &Engine{graph: g}
}

// Run executes one turn of the workflow, entering at user-name extraction and
// advancing until the graph ends, awaits further input, or fails.
func (e *Engine) Run(ctx context.Context, st *TurnState) error {
	return e.graph.Run(ctx, st, NodeExtractUserName)
}

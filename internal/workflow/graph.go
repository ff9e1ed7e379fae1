package workflow

import (
	"context"
	"fmt"
	"log/slog"
)

// Node names of the workflow graph.
const (
	NodeExtractUserName         = "extract_user_name"
	NodeFetchHubInfo            = "fetch_hub_info"
	NodePrimaryAssistant        = "primary_assistant"
	NodeEnterNotesExtraction    = "enter_notes_extraction"
	NodeNotesExtraction         = "notes_extraction"
	NodeEnterAgendaCreation     = "enter_agenda_creation"
	NodeAgendaCreation          = "agenda_creation"
	NodeEnterDocumentGeneration = "enter_document_generation"
	NodeDocumentGeneration      = "document_generation"
	NodeDocumentGenerationTools = "document_generation_tools"
	NodeSetPromptTemplate       = "set_prompt_template"
	NodeLeaveSkill              = "leave_skill"
)

// Routing sentinels. Every routing predicate returns a named node, NodeEnd,
// or NodeAwait; "no decision" is never represented by an empty value.
const (
	// NodeEnd terminates the traversal; the turn's reply is extracted from
	// the accumulated messages.
	NodeEnd = "END"
	// NodeAwait halts the traversal at the current node until the next user
	// turn; the dialog stack preserves the position.
	NodeAwait = "AWAIT"
)

// MaxGraphSteps caps a single traversal so a routing bug cannot spin the
// graph indefinitely within one turn.
const MaxGraphSteps = 50

// NodeFunc executes one graph node, mutating the turn state.
type NodeFunc func(ctx context.Context, st *TurnState) error

// RouteFunc decides the next node from the current turn state.
type RouteFunc func(st *TurnState) string

// Graph is a directed graph of named processing nodes with unconditional
// edges and routing predicates, advanced synchronously per user turn.
type Graph struct {
	nodes  map[string]NodeFunc
	edges  map[string]string
	routes map[string]RouteFunc
}

// NewGraph creates an empty graph.
func NewGraph() *Graph {
	return &Graph{
		nodes:  make(map[string]NodeFunc),
		edges:  make(map[string]string),
		routes: make(map[string]RouteFunc),
	}
}

// AddNode registers a processing node.
func (g *Graph) AddNode(name string, fn NodeFunc) {
	g.nodes[name] = fn
}

// AddEdge registers an unconditional transition.
func (g *Graph) AddEdge(from, to string) {
	g.edges[from] = to
}

// AddConditionalEdge registers a routing predicate for a node's outgoing
// transition.
func (g *Graph) AddConditionalEdge(from string, route RouteFunc) {
	g.routes[from] = route
}

// Run advances the graph from the start node until it terminates, awaits the
// next user turn, or exceeds the step cap.
func (g *Graph) Run(ctx context.Context, st *TurnState, start string) error {
	node := start
	for step := 0; step < MaxGraphSteps; step++ {
		if node == NodeEnd || node == NodeAwait {
			slog.Debug("Graph.Run: traversal halted", "sentinel", node, "steps", step)
			return nil
		}

		fn, ok := g.nodes[node]
		if !ok {
			return fmt.Errorf("graph has no node named %q", node)
		}
		slog.Debug("Graph.Run: executing node", "node", node, "step", step)
		if err := fn(ctx, st); err != nil {
			return fmt.Errorf("node %s failed: %w", node, err)
		}

		if next, ok := g.edges[node]; ok {
			node = next
			continue
		}
		if route, ok := g.routes[node]; ok {
			next := route(st)
			slog.Debug("Graph.Run: routing decision", "from", node, "decision", next)
			node = next
			continue
		}
		// Node with no outgoing edge halts the turn.
		slog.Debug("Graph.Run: node has no outgoing edge, halting", "node", node)
		return nil
	}
	return fmt.Errorf("graph exceeded %d steps without halting", MaxGraphSteps)
}

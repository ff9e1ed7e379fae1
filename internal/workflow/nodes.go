package workflow

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/hubtab/TABAgent/internal/docs"
	"github.com/hubtab/TABAgent/internal/hub"
	"github.com/hubtab/TABAgent/internal/models"
)

// extractUserName fills in the interlocutor's display name. The name arrives
// with the channel metadata before the graph runs; this node only guarantees
// the downstream prompts always have something to address.
func extractUserName(_ context.Context, st *TurnState) error {
	if st.UserName == "" {
		st.UserName = "User"
	}
	slog.Debug("workflow.extractUserName: resolved", "userName", st.UserName)
	return nil
}

// makeFetchHubInfoNode loads the hub master data once per turn. Later nodes
// read it from the state, so a turn never hits the source twice.
func makeFetchHubInfoNode(master *hub.MasterData) NodeFunc {
	return func(_ context.Context, st *TurnState) error {
		if st.HubMasterInfo != "" {
			return nil
		}
		info, err := master.Fetch()
		if err != nil {
			return fmt.Errorf("failed to fetch hub master data: %w", err)
		}
		st.HubMasterInfo = info
		slog.Debug("workflow.fetchHubInfo: loaded master data", "bytes", len(info))
		return nil
	}
}

// makeEntryNode builds the node that hands control to a sub-agent: it pushes
// the agent's dialog state and answers the delegation tool call with a banner
// telling the model which persona now speaks.
func makeEntryNode(assistantName, dialogState string) NodeFunc {
	return func(_ context.Context, st *TurnState) error {
		last, ok := st.LastMessage()
		if !ok || !last.HasToolCalls() {
			return fmt.Errorf("enter %s: expected a delegation tool call", dialogState)
		}
		st.Append(models.ToolResultMessage(entryBanner(assistantName), last.ToolCalls[0].ID))
		st.Dialog.Push(dialogState)
		slog.Debug("workflow.enterSkill: delegated", "assistant", assistantName, "dialogState", dialogState)
		return nil
	}
}

// setPromptTemplate scans the conversation backwards for the engagement type
// declared by the notes extractor and installs the matching agenda template.
// Missing or unrecognized markers fall back to the solution envisioning
// template so agenda creation never stalls.
func setPromptTemplate(_ context.Context, st *TurnState) error {
	engagement := models.DefaultEngagementType
	for i := len(st.Messages) - 1; i >= 0; i-- {
		msg := st.Messages[i]
		idx := strings.Index(msg.Content, "Type of Engagement:")
		if idx < 0 {
			continue
		}
		value := msg.Content[idx+len("Type of Engagement:"):]
		if nl := strings.IndexByte(value, '\n'); nl >= 0 {
			value = value[:nl]
		}
		// Drop the inference rationale, e.g. "ADS (inferred from ...)".
		if paren := strings.IndexByte(value, '('); paren >= 0 {
			value = value[:paren]
		}
		engagement = matchEngagementType(value)
		break
	}
	st.SetEngagementType(engagement)
	slog.Debug("workflow.setPromptTemplate: template installed", "engagementType", engagement)
	return nil
}

// matchEngagementType finds the declared engagement type by substring match,
// tolerating decoration around the bare enum value.
func matchEngagementType(value string) models.EngagementType {
	upper := strings.ToUpper(strings.TrimSpace(value))
	for _, et := range models.AllEngagementTypes {
		if strings.Contains(upper, string(et)) {
			return et
		}
	}
	slog.Debug("workflow.matchEngagementType: unrecognized value, using default", "value", value)
	return models.DefaultEngagementType
}

// leaveSkill pops the active dialog state and, when the hand-back was
// triggered by a tool call, answers that call so the primary assistant can
// resume with a well-formed conversation.
func leaveSkill(_ context.Context, st *TurnState) error {
	popped, ok := st.Dialog.Pop()
	if !ok {
		slog.Warn("workflow.leaveSkill: dialog stack already empty")
	}
	if last, ok := st.LastMessage(); ok && last.HasToolCalls() {
		st.Append(models.ToolResultMessage(resumeHostMessage, last.ToolCalls[0].ID))
	}
	slog.Debug("workflow.leaveSkill: returned control to host", "left", popped)
	return nil
}

// makeDocumentToolsNode executes the document generator's tool calls. Each
// call gets its own tool-result message, with errors reported back to the
// model instead of aborting the graph so it can self-correct on the next
// loop.
func makeDocumentToolsNode(svc docs.Service) NodeFunc {
	return func(ctx context.Context, st *TurnState) error {
		last, ok := st.LastMessage()
		if !ok || !last.HasToolCalls() {
			return fmt.Errorf("document tools: expected tool calls on last message")
		}
		for _, call := range last.ToolCalls {
			result := runDocumentTool(ctx, svc, st, call)
			st.Append(models.ToolResultMessage(result, call.ID))
		}
		return nil
	}
}

func runDocumentTool(ctx context.Context, svc docs.Service, st *TurnState, call models.ToolCall) string {
	params, err := call.Function.ParseDocumentParams()
	if err != nil {
		slog.Warn("workflow.runDocumentTool: bad arguments", "tool", call.Function.Name, "error", err)
		return fmt.Sprintf("Error: %s\n please fix your mistakes.", err)
	}
	url, err := svc.Generate(ctx, params.Query, docs.Destination{
		CustomerName: st.UserName,
		ThreadID:     st.ThreadID,
	})
	if err != nil {
		slog.Error("workflow.runDocumentTool: document generation failed", "error", err)
		return fmt.Sprintf("Error: %s\n please fix your mistakes.", err)
	}
	slog.Info("workflow.runDocumentTool: document generated", "threadID", st.ThreadID)
	return "The agenda document has been generated. Share this download link with the user: " + url
}

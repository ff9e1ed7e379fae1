package workflow

import (
	"time"

	"github.com/hubtab/TABAgent/internal/agenda"
	"github.com/hubtab/TABAgent/internal/models"
)

// TurnState is the ephemeral state of a single graph traversal. It is seeded
// from the persisted session at the start of a turn and the surviving fields
// (message history, dialog stack, engagement type) are projected back
// afterwards.
type TurnState struct {
	// Messages is the accumulated conversation history for the turn,
	// append-only while the graph runs.
	Messages []models.Message
	// EngagementType is inferred from the notes extraction output; defaults
	// to SOLUTION_ENVISIONING when inference fails.
	EngagementType models.EngagementType
	// PromptTemplate is the agenda template body selected for EngagementType.
	PromptTemplate string
	// HubMasterInfo is the static reference document, fetched once per
	// turn-state lifetime.
	HubMasterInfo string
	// UserName addresses the architect in agent prompts.
	UserName string
	// ThreadID correlates the turn with the session's interaction thread.
	ThreadID string
	// Dialog is the dialog stack, embedded so routing can read and mutate it.
	Dialog *DialogStack
	// Now is the time source used when rendering prompts.
	Now func() time.Time
}

// NewTurnState constructs turn state seeded from session-derived fields plus
// the new user message. The default engagement's agenda template is installed
// up front so delegated agents never render an empty template block.
func NewTurnState(history []models.Message, userText string, dialogEntries []string) *TurnState {
	st := &TurnState{
		Dialog: NewDialogStack(dialogEntries),
		Now:    time.Now,
	}
	st.SetEngagementType(models.DefaultEngagementType)
	st.Messages = append(st.Messages, history...)
	st.Messages = append(st.Messages, models.UserMessage(userText))
	return st
}

// SetEngagementType records the engagement type and installs its agenda
// template.
func (st *TurnState) SetEngagementType(engagement models.EngagementType) {
	st.EngagementType = engagement
	st.PromptTemplate = agenda.TemplateFor(engagement)
}

// Append adds a message to the turn history.
func (st *TurnState) Append(msg models.Message) {
	st.Messages = append(st.Messages, msg)
}

// LastMessage returns the most recent message, if any.
func (st *TurnState) LastMessage() (models.Message, bool) {
	if len(st.Messages) == 0 {
		return models.Message{}, false
	}
	return st.Messages[len(st.Messages)-1], true
}

package workflow

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/hubtab/TABAgent/internal/genai"
	"github.com/hubtab/TABAgent/internal/hub"
	"github.com/hubtab/TABAgent/internal/models"
	"github.com/hubtab/TABAgent/internal/store"
)

// DefaultStalenessWindow is the inactivity gap after which thread correlation
// state is discarded and the conversation starts a fresh thread.
const DefaultStalenessWindow = 10 * time.Minute

// Fixed replies. The orchestrator never raises; every failure path lands on
// one of these strings.
const (
	fallbackInvitation = "I'm ready to help with your Innovation Hub session. Please let me know what you need—meeting notes, agenda support, or document generation."
	apologyReply       = "I'm sorry, something went wrong while processing your message. Please try again in a moment."
)

// TurnMetadata carries the channel-provided facts about the interlocutor.
type TurnMetadata struct {
	UserName string
}

// Orchestrator drives one conversation turn end to end: load session, gate on
// hub location, apply staleness reset, run the workflow graph, persist, and
// extract the textual reply.
type Orchestrator struct {
	store     store.Store
	client    genai.ClientInterface
	resolver  *hub.Resolver
	engine    *Engine
	staleness time.Duration
	now       func() time.Time
}

// OrchestratorOption customizes orchestrator construction.
type OrchestratorOption func(*Orchestrator)

// WithStalenessWindow overrides the inactivity window that triggers a thread
// reset.
func WithStalenessWindow(d time.Duration) OrchestratorOption {
	return func(o *Orchestrator) { o.staleness = d }
}

// WithClock overrides the time source, for tests.
func WithClock(now func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) { o.now = now }
}

// NewOrchestrator wires the orchestrator with its collaborators.
func NewOrchestrator(st store.Store, client genai.ClientInterface, resolver *hub.Resolver, engine *Engine, opts ...OrchestratorOption) *Orchestrator {
	o := &Orchestrator{
		store:     st,
		client:    client,
		resolver:  resolver,
		engine:    engine,
		staleness: DefaultStalenessWindow,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// ProcessTurn handles one inbound user message and always returns a non-empty
// reply. Failures are logged and absorbed into a fixed apology string; the
// session is persisted best-effort in whatever state the turn reached.
func (o *Orchestrator) ProcessTurn(ctx context.Context, userID, userText string, meta TurnMetadata) string {
	slog.Debug("Orchestrator.ProcessTurn: start", "userID", userID)

	record := o.loadOrCreateSession(ctx, userID)
	session := record.Session

	if session.AwaitingHubLocation || session.HubLocation == "" {
		reply := o.resolveHubLocation(ctx, session, userText)
		o.persistSession(ctx, record)
		return reply
	}

	o.applyStalenessReset(session)
	o.detectHubSwitch(session, userText)

	reply, err := o.runTurn(ctx, session, userText, meta)
	if err != nil {
		slog.Error("Orchestrator.ProcessTurn: turn failed", "userID", userID, "error", err)
		reply = apologyReply
	}

	o.persistSession(ctx, record)
	slog.Debug("Orchestrator.ProcessTurn: done", "userID", userID, "replyLen", len(reply))
	return reply
}

// loadOrCreateSession reads the user's session, falling back to a fresh
// default session when the record is absent or the store misbehaves.
func (o *Orchestrator) loadOrCreateSession(ctx context.Context, userID string) *models.SessionRecord {
	record, err := o.store.GetSession(ctx, userID)
	if err != nil {
		slog.Error("Orchestrator.loadOrCreateSession: store read failed, starting fresh", "userID", userID, "error", err)
		return &models.SessionRecord{Session: models.NewConversationSession(userID)}
	}
	if record == nil {
		slog.Debug("Orchestrator.loadOrCreateSession: new session", "userID", userID)
		return &models.SessionRecord{Session: models.NewConversationSession(userID)}
	}
	if err := record.Session.CheckInvariant(); err != nil {
		slog.Warn("Orchestrator.loadOrCreateSession: repairing session invariant", "userID", userID, "error", err)
		record.Session.AwaitingHubLocation = record.Session.HubLocation == ""
	}
	return record
}

// resolveHubLocation gates the conversation until the user names one of the
// configured Innovation Hub cities. Unresolvable input re-prompts with the
// full hub list and leaves the session awaiting.
func (o *Orchestrator) resolveHubLocation(ctx context.Context, session *models.ConversationSession, userText string) string {
	if city, ok := o.resolver.Resolve(ctx, userText); ok {
		session.SetHubLocation(city)
		now := o.now().UTC()
		session.LastMessageAt = &now
		slog.Info("Orchestrator.resolveHubLocation: hub resolved", "userID", session.UserID, "hub", city)
		return "Great, you're working with the " + city + " Innovation Hub. " + fallbackInvitation
	}
	slog.Debug("Orchestrator.resolveHubLocation: no match, re-prompting", "userID", session.UserID)
	return "Which Innovation Hub location are you working with? Available hubs: " +
		strings.Join(o.resolver.Cities(), ", ") + "."
}

// detectHubSwitch watches every inbound message for a configured hub city so
// the user can move the conversation to a different hub mid-session. Only the
// cheap keyword match runs here; the LLM fallback is reserved for the initial
// gating exchange.
func (o *Orchestrator) detectHubSwitch(session *models.ConversationSession, userText string) {
	city, ok := o.resolver.MatchKeyword(userText)
	if !ok || city == session.HubLocation {
		return
	}
	slog.Info("Orchestrator.detectHubSwitch: updated hub location",
		"userID", session.UserID, "from", session.HubLocation, "to", city)
	session.SetHubLocation(city)
}

// applyStalenessReset clears thread correlation state after the inactivity
// window. The hub location survives a reset. The last-message timestamp is
// stamped unconditionally, so applying the reset twice with the same clock
// reading is a no-op the second time.
func (o *Orchestrator) applyStalenessReset(session *models.ConversationSession) {
	now := o.now().UTC()
	if session.LastMessageAt != nil && now.Sub(*session.LastMessageAt) > o.staleness {
		slog.Info("Orchestrator.applyStalenessReset: conversation stale, resetting thread state",
			"userID", session.UserID, "lastMessageAt", session.LastMessageAt)
		session.ThreadID = ""
		session.AssistantThreadID = ""
		session.DialogStack = nil
		session.History = nil
	}
	session.LastMessageAt = &now
}

// runTurn executes the workflow graph for one user message and extracts the
// reply text.
func (o *Orchestrator) runTurn(ctx context.Context, session *models.ConversationSession, userText string, meta TurnMetadata) (string, error) {
	if session.ThreadID == "" {
		session.ThreadID = uuid.NewString()
		slog.Debug("Orchestrator.runTurn: new thread", "userID", session.UserID, "threadID", session.ThreadID)
	}
	o.ensureAssistantThread(ctx, session)

	st := NewTurnState(session.History, userText, session.DialogStack)
	st.UserName = meta.UserName
	st.ThreadID = session.ThreadID
	st.Now = o.now
	if session.EngagementType.IsValid() {
		st.SetEngagementType(session.EngagementType)
	}

	err := o.engine.Run(ctx, st)

	// Project the turn state back into the session even on failure so the
	// partial progress survives.
	session.History = st.Messages
	session.DialogStack = st.Dialog.Entries()
	session.EngagementType = st.EngagementType
	if err != nil {
		return "", err
	}

	return extractReply(st.Messages), nil
}

// ensureAssistantThread lazily creates the LLM-side conversation thread,
// degrading to a locally generated placeholder id when creation fails so the
// turn still proceeds.
func (o *Orchestrator) ensureAssistantThread(ctx context.Context, session *models.ConversationSession) {
	if session.AssistantThreadID != "" {
		return
	}
	threadID, err := o.client.CreateThread(ctx)
	if err != nil {
		threadID = "thread_" + uuid.NewString()
		slog.Warn("Orchestrator.ensureAssistantThread: thread creation failed, using placeholder",
			"userID", session.UserID, "error", err, "placeholder", threadID)
	}
	session.AssistantThreadID = threadID
}

// extractReply returns the most recent assistant message with non-empty text,
// or the fixed invitation when no assistant text exists in the turn.
func extractReply(messages []models.Message) string {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == models.RoleAssistant && strings.TrimSpace(messages[i].Content) != "" {
			return messages[i].Content
		}
	}
	return fallbackInvitation
}

// persistSession writes the session back best-effort. A version conflict is
// retried once against the freshly loaded token; the newest turn's state wins,
// except that a hub location captured by the concurrent writer is adopted
// when this turn never resolved one.
func (o *Orchestrator) persistSession(ctx context.Context, record *models.SessionRecord) {
	err := o.store.SaveSession(ctx, record)
	if err == nil {
		return
	}
	if !errors.Is(err, store.ErrVersionConflict) {
		slog.Error("Orchestrator.persistSession: save failed", "userID", record.Session.UserID, "error", err)
		return
	}

	current, err := o.store.GetSession(ctx, record.Session.UserID)
	if err != nil || current == nil {
		slog.Error("Orchestrator.persistSession: conflict reload failed", "userID", record.Session.UserID, "error", err)
		return
	}
	if record.Session.HubLocation == "" && current.Session.HubLocation != "" {
		slog.Info("Orchestrator.persistSession: adopting concurrently resolved hub",
			"userID", record.Session.UserID, "hub", current.Session.HubLocation)
		record.Session.SetHubLocation(current.Session.HubLocation)
	}
	record.Version = current.Version
	if err := o.store.SaveSession(ctx, record); err != nil {
		slog.Error("Orchestrator.persistSession: retry save failed", "userID", record.Session.UserID, "error", err)
	}
}

package workflow

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/hubtab/TABAgent/internal/genai"
	"github.com/hubtab/TABAgent/internal/hub"
	"github.com/hubtab/TABAgent/internal/models"
	"github.com/hubtab/TABAgent/internal/store"
)

var testHubCities = []string{"Bengaluru", "Redmond", "London"}

func newTestOrchestrator(t *testing.T, client genai.ClientInterface, opts ...OrchestratorOption) (*Orchestrator, *store.InMemoryStore) {
	t.Helper()
	st := store.NewInMemoryStore()
	resolver := hub.NewResolver(testHubCities, client)
	orchestrator := NewOrchestrator(st, client, resolver, newTestEngine(client), opts...)
	return orchestrator, st
}

func mustGetSession(t *testing.T, st *store.InMemoryStore, userID string) *models.ConversationSession {
	t.Helper()
	record, err := st.GetSession(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetSession: %v", err)
	}
	if record == nil {
		t.Fatalf("session for %s was not persisted", userID)
	}
	return record.Session
}

func TestProcessTurnResolvesHubOnFirstContact(t *testing.T) {
	client := &mockGenAIClient{}
	orchestrator, st := newTestOrchestrator(t, client)

	reply := orchestrator.ProcessTurn(context.Background(), "user-1", "I'm working out of Bengaluru", TurnMetadata{UserName: "Priya"})

	if !strings.Contains(reply, "Bengaluru") {
		t.Errorf("reply should confirm the hub city, got %q", reply)
	}
	session := mustGetSession(t, st, "user-1")
	if session.HubLocation != "Bengaluru" || session.AwaitingHubLocation {
		t.Errorf("session hub state = %q awaiting=%v", session.HubLocation, session.AwaitingHubLocation)
	}
	if err := session.CheckInvariant(); err != nil {
		t.Error(err)
	}
	if client.calls != 0 {
		t.Errorf("hub gating should not reach the workflow, model calls = %d", client.calls)
	}
}

func TestProcessTurnRepromptsOnUnresolvableHub(t *testing.T) {
	client := &mockGenAIClient{}
	orchestrator, st := newTestOrchestrator(t, client)

	reply := orchestrator.ProcessTurn(context.Background(), "user-2", "good morning", TurnMetadata{})

	for _, city := range testHubCities {
		if !strings.Contains(reply, city) {
			t.Errorf("re-prompt should list %q, got %q", city, reply)
		}
	}
	session := mustGetSession(t, st, "user-2")
	if session.HubLocation != "" || !session.AwaitingHubLocation {
		t.Errorf("session should still be awaiting a hub, hub=%q awaiting=%v", session.HubLocation, session.AwaitingHubLocation)
	}
}

func TestApplyStalenessReset(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	client := &mockGenAIClient{}
	orchestrator, _ := newTestOrchestrator(t, client, WithClock(func() time.Time { return now }))

	stale := now.Add(-15 * time.Minute)
	session := &models.ConversationSession{
		UserID:            "user-3",
		ThreadID:          "abc",
		AssistantThreadID: "thread_xyz",
		HubLocation:       "London",
		LastMessageAt:     &stale,
		DialogStack:       []string{NodeNotesExtraction},
		History:           []models.Message{models.UserMessage("old")},
	}

	orchestrator.applyStalenessReset(session)

	if session.ThreadID != "" || session.AssistantThreadID != "" {
		t.Errorf("thread ids should be cleared, got %q %q", session.ThreadID, session.AssistantThreadID)
	}
	if session.DialogStack != nil || session.History != nil {
		t.Error("workflow state should be cleared")
	}
	if session.HubLocation != "London" {
		t.Error("hub location must survive a staleness reset")
	}
	if session.LastMessageAt == nil || !session.LastMessageAt.Equal(now) {
		t.Errorf("LastMessageAt = %v; want %v", session.LastMessageAt, now)
	}

	// Applying the reset again with the same clock reading changes nothing.
	snapshot := *session
	orchestrator.applyStalenessReset(session)
	if *session.LastMessageAt != *snapshot.LastMessageAt || session.ThreadID != snapshot.ThreadID {
		t.Error("staleness reset is not idempotent for a fixed clock")
	}
}

func TestApplyStalenessResetFreshSession(t *testing.T) {
	now := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)
	client := &mockGenAIClient{}
	orchestrator, _ := newTestOrchestrator(t, client, WithClock(func() time.Time { return now }))

	recent := now.Add(-2 * time.Minute)
	session := &models.ConversationSession{UserID: "user-4", ThreadID: "keep", LastMessageAt: &recent, HubLocation: "London"}

	orchestrator.applyStalenessReset(session)
	if session.ThreadID != "keep" {
		t.Error("a recent session must not be reset")
	}
	if !session.LastMessageAt.Equal(now) {
		t.Error("LastMessageAt should be stamped even without a reset")
	}
}

func TestProcessTurnRunsWorkflowAndPersists(t *testing.T) {
	client := &mockGenAIClient{
		responses: []*genai.ToolCallResponse{
			{Content: "Happy to help with your session. Do you have briefing notes?"},
		},
	}
	orchestrator, st := newTestOrchestrator(t, client)

	seed := models.NewConversationSession("user-5")
	seed.SetHubLocation("Bengaluru")
	if err := st.SaveSession(context.Background(), &models.SessionRecord{Session: seed}); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	reply := orchestrator.ProcessTurn(context.Background(), "user-5", "hi TAB", TurnMetadata{UserName: "Priya"})

	if reply != "Happy to help with your session. Do you have briefing notes?" {
		t.Errorf("reply = %q", reply)
	}
	session := mustGetSession(t, st, "user-5")
	if session.ThreadID == "" {
		t.Error("thread id should be generated")
	}
	if session.AssistantThreadID != "thread_mock" {
		t.Errorf("assistant thread id = %q; want the gateway-created thread", session.AssistantThreadID)
	}
	if len(session.History) == 0 {
		t.Error("turn history should be persisted")
	}
	if session.LastMessageAt == nil {
		t.Error("LastMessageAt should be stamped")
	}
}

func TestProcessTurnDegradesWhenThreadCreationFails(t *testing.T) {
	client := &mockGenAIClient{
		threadErr: fmt.Errorf("assistants API unavailable"),
		responses: []*genai.ToolCallResponse{{Content: "Still here to help."}},
	}
	orchestrator, st := newTestOrchestrator(t, client)

	seed := models.NewConversationSession("user-6")
	seed.SetHubLocation("London")
	if err := st.SaveSession(context.Background(), &models.SessionRecord{Session: seed}); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	reply := orchestrator.ProcessTurn(context.Background(), "user-6", "hello", TurnMetadata{})
	if reply != "Still here to help." {
		t.Errorf("reply = %q", reply)
	}
	session := mustGetSession(t, st, "user-6")
	if !strings.HasPrefix(session.AssistantThreadID, "thread_") {
		t.Errorf("placeholder thread id = %q", session.AssistantThreadID)
	}
}

func TestProcessTurnApologizesOnGatewayFailure(t *testing.T) {
	client := &mockGenAIClient{err: fmt.Errorf("gateway timeout")}
	orchestrator, st := newTestOrchestrator(t, client)

	seed := models.NewConversationSession("user-7")
	seed.SetHubLocation("Redmond")
	if err := st.SaveSession(context.Background(), &models.SessionRecord{Session: seed}); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	reply := orchestrator.ProcessTurn(context.Background(), "user-7", "hello", TurnMetadata{})
	if reply != apologyReply {
		t.Errorf("reply = %q; want the fixed apology", reply)
	}
	// The session is still persisted best-effort.
	session := mustGetSession(t, st, "user-7")
	if session.ThreadID == "" {
		t.Error("partial turn progress should still be persisted")
	}
}

func TestProcessTurnFallbackWhenNoAssistantText(t *testing.T) {
	client := &mockGenAIClient{
		responses: []*genai.ToolCallResponse{
			// A bare unknown tool call with no content leaves nothing to say.
			{ToolCalls: []models.ToolCall{toolCall("call_x", "mystery_tool", `{}`)}},
		},
	}
	orchestrator, st := newTestOrchestrator(t, client)

	seed := models.NewConversationSession("user-8")
	seed.SetHubLocation("Bengaluru")
	if err := st.SaveSession(context.Background(), &models.SessionRecord{Session: seed}); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	reply := orchestrator.ProcessTurn(context.Background(), "user-8", "do something", TurnMetadata{})
	if reply != fallbackInvitation {
		t.Errorf("reply = %q; want the fixed invitation", reply)
	}
}

func TestProcessTurnCarriesEngagementTypeAcrossTurns(t *testing.T) {
	client := &mockGenAIClient{
		responses: []*genai.ToolCallResponse{
			// Turn 1: the notes extractor wraps up and hands control back.
			{ToolCalls: []models.ToolCall{toolCall("call_t1", models.ToolNameCompleteOrEscalate, `{"cancel":false,"reason":"Notes extraction complete."}`)}},
			{Content: "Notes are locked in. Ready for the agenda whenever you are."},
			// Turn 2: the primary assistant delegates to the agenda creator.
			{ToolCalls: []models.ToolCall{toolCall("call_t2", models.ToolNameToAgendaCreator, `{"request":"draft the agenda","agenda_goals":"architecture review"}`)}},
			{Content: "Here is a draft agenda for your design session."},
		},
	}
	orchestrator, st := newTestOrchestrator(t, client)
	ctx := context.Background()

	seed := models.NewConversationSession("user-10")
	seed.SetHubLocation("Bengaluru")
	seed.DialogStack = []string{NodeNotesExtraction}
	seed.History = []models.Message{
		models.AssistantMessage("Type of Engagement: ADS (inferred from the design review notes)\n### Engagement Goals Confirmation Message ###\nAll set?"),
	}
	if err := st.SaveSession(ctx, &models.SessionRecord{Session: seed}); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	orchestrator.ProcessTurn(ctx, "user-10", "yes, all confirmed", TurnMetadata{UserName: "Priya"})

	session := mustGetSession(t, st, "user-10")
	if session.EngagementType != models.EngagementADS {
		t.Fatalf("EngagementType = %q after the turn; want %q persisted", session.EngagementType, models.EngagementADS)
	}

	orchestrator.ProcessTurn(ctx, "user-10", "please draft the agenda now", TurnMetadata{UserName: "Priya"})

	if client.calls != 4 {
		t.Fatalf("model calls = %d; want 4 (two per turn)", client.calls)
	}
	agendaPrompt := systemPromptOf(t, client.seenMessages[3])
	if !strings.Contains(agendaPrompt, "Architecture & Design Session") {
		t.Error("agenda creator should render the template selected in the previous turn")
	}
}

func TestProcessTurnSwitchesHubMidConversation(t *testing.T) {
	client := &mockGenAIClient{
		responses: []*genai.ToolCallResponse{{Content: "Noted, continuing from Redmond."}},
	}
	orchestrator, st := newTestOrchestrator(t, client)
	ctx := context.Background()

	seed := models.NewConversationSession("user-11")
	seed.SetHubLocation("Bengaluru")
	if err := st.SaveSession(ctx, &models.SessionRecord{Session: seed}); err != nil {
		t.Fatalf("seed save: %v", err)
	}

	reply := orchestrator.ProcessTurn(ctx, "user-11", "We moved the workshop to the Redmond hub", TurnMetadata{})

	if reply != "Noted, continuing from Redmond." {
		t.Errorf("reply = %q; the turn should still reach the workflow", reply)
	}
	session := mustGetSession(t, st, "user-11")
	if session.HubLocation != "Redmond" {
		t.Errorf("hub = %q; want %q after a mid-conversation switch", session.HubLocation, "Redmond")
	}
	if err := session.CheckInvariant(); err != nil {
		t.Error(err)
	}
}

func TestPersistSessionRetriesVersionConflict(t *testing.T) {
	client := &mockGenAIClient{}
	orchestrator, st := newTestOrchestrator(t, client)
	ctx := context.Background()

	mine := &models.SessionRecord{Session: models.NewConversationSession("user-9")}
	if err := st.SaveSession(ctx, mine); err != nil {
		t.Fatalf("initial save: %v", err)
	}

	// A concurrent writer advances the stored version behind our back.
	other, err := st.GetSession(ctx, "user-9")
	if err != nil {
		t.Fatalf("concurrent read: %v", err)
	}
	other.Session.SetHubLocation("Redmond")
	if err := st.SaveSession(ctx, other); err != nil {
		t.Fatalf("concurrent save: %v", err)
	}

	mine.Session.SetHubLocation("London")
	orchestrator.persistSession(ctx, mine)

	session := mustGetSession(t, st, "user-9")
	if session.HubLocation != "London" {
		t.Errorf("latest turn should win after the conflict retry, hub = %q", session.HubLocation)
	}
}

func TestPersistSessionConflictAdoptsConcurrentHub(t *testing.T) {
	client := &mockGenAIClient{}
	orchestrator, st := newTestOrchestrator(t, client)
	ctx := context.Background()

	mine := &models.SessionRecord{Session: models.NewConversationSession("user-12")}
	if err := st.SaveSession(ctx, mine); err != nil {
		t.Fatalf("initial save: %v", err)
	}

	// A concurrent turn resolved the hub while this one never did.
	other, err := st.GetSession(ctx, "user-12")
	if err != nil {
		t.Fatalf("concurrent read: %v", err)
	}
	other.Session.SetHubLocation("Bengaluru")
	if err := st.SaveSession(ctx, other); err != nil {
		t.Fatalf("concurrent save: %v", err)
	}

	mine.Session.ThreadID = "thread-current"
	orchestrator.persistSession(ctx, mine)

	session := mustGetSession(t, st, "user-12")
	if session.HubLocation != "Bengaluru" {
		t.Errorf("concurrently resolved hub should survive the retry, hub = %q", session.HubLocation)
	}
	if session.AwaitingHubLocation {
		t.Error("awaiting flag should clear with the adopted hub")
	}
	if session.ThreadID != "thread-current" {
		t.Errorf("thread id = %q; the retrying turn's fields should still win", session.ThreadID)
	}
}

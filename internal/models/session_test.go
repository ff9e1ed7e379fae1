package models

import (
	"testing"
	"time"
)

func TestNewConversationSessionDefaults(t *testing.T) {
	s := NewConversationSession("user-1")
	if s.UserID != "user-1" {
		t.Errorf("UserID = %q", s.UserID)
	}
	if !s.AwaitingHubLocation {
		t.Error("a fresh session must await a hub location")
	}
	if err := s.CheckInvariant(); err != nil {
		t.Error(err)
	}
}

func TestHubLocationInvariant(t *testing.T) {
	s := NewConversationSession("user-1")

	s.SetHubLocation("Bengaluru")
	if s.AwaitingHubLocation {
		t.Error("setting a hub must clear the awaiting flag")
	}
	if err := s.CheckInvariant(); err != nil {
		t.Error(err)
	}

	s.ClearHubLocation()
	if !s.AwaitingHubLocation || s.HubLocation != "" {
		t.Errorf("clear left hub=%q awaiting=%v", s.HubLocation, s.AwaitingHubLocation)
	}
	if err := s.CheckInvariant(); err != nil {
		t.Error(err)
	}

	s.SetHubLocation("")
	if !s.AwaitingHubLocation {
		t.Error("setting an empty hub keeps the session awaiting")
	}
}

func TestCheckInvariantDetectsCorruption(t *testing.T) {
	s := NewConversationSession("user-1")
	s.HubLocation = "London" // bypassing SetHubLocation
	if err := s.CheckInvariant(); err == nil {
		t.Error("inconsistent hub flags should fail the invariant check")
	}
}

func TestSessionRoundTripIgnoresVersion(t *testing.T) {
	now := time.Date(2026, 2, 1, 9, 30, 0, 0, time.UTC)
	session := &ConversationSession{
		UserID:            "user-1",
		ThreadID:          "t-1",
		AssistantThreadID: "thread_a1",
		HubLocation:       "Bengaluru",
		EngagementType:    EngagementADS,
		LastMessageAt:     &now,
		DialogStack:       []string{"notes_extraction"},
		History: []Message{
			UserMessage("here are my notes"),
			AssistantMessage("", ToolCall{ID: "call_1", Type: "function", Function: FunctionCall{Name: ToolNameToNotesExtractor, Arguments: []byte(`{"request":"extract"}`)}}),
			ToolResultMessage("handing off", "call_1"),
		},
	}
	record := &SessionRecord{Session: session, Version: "7"}

	data, err := record.MarshalSession()
	if err != nil {
		t.Fatalf("MarshalSession: %v", err)
	}

	restored, err := UnmarshalSessionRecord(data, "99")
	if err != nil {
		t.Fatalf("UnmarshalSessionRecord: %v", err)
	}
	if restored.Version != "99" {
		t.Errorf("version comes from the store, got %q", restored.Version)
	}

	got := restored.Session
	if got.UserID != session.UserID || got.ThreadID != session.ThreadID ||
		got.AssistantThreadID != session.AssistantThreadID || got.HubLocation != session.HubLocation {
		t.Errorf("scalar fields did not round-trip: %+v", got)
	}
	if got.EngagementType != EngagementADS {
		t.Errorf("EngagementType = %q; want %q", got.EngagementType, EngagementADS)
	}
	if !got.LastMessageAt.Equal(now) {
		t.Errorf("LastMessageAt = %v", got.LastMessageAt)
	}
	if len(got.DialogStack) != 1 || got.DialogStack[0] != "notes_extraction" {
		t.Errorf("DialogStack = %v", got.DialogStack)
	}
	if len(got.History) != 3 {
		t.Fatalf("History length = %d", len(got.History))
	}
	if got.History[1].ToolCalls[0].ID != "call_1" || got.History[2].ToolCallID != "call_1" {
		t.Error("tool call pairing did not survive the round trip")
	}
}

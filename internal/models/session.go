// Package models defines the persisted conversation session for TABAgent.
package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// ConversationSession is the durable per-user state carried across turns.
// Invariant: AwaitingHubLocation is true exactly when HubLocation is empty;
// mutate hub fields through SetHubLocation/ClearHubLocation to preserve it.
type ConversationSession struct {
	UserID              string         `json:"user_id"`
	ThreadID            string         `json:"thread_id,omitempty"`
	AssistantThreadID   string         `json:"assistant_thread_id,omitempty"`
	HubLocation         string         `json:"hub_location,omitempty"`
	AwaitingHubLocation bool           `json:"awaiting_hub_location"`
	EngagementType      EngagementType `json:"engagement_type,omitempty"`
	LastMessageAt       *time.Time     `json:"last_message_timestamp,omitempty"`
	DialogStack         []string       `json:"dialog_stack,omitempty"`
	History             []Message      `json:"history,omitempty"`
}

// NewConversationSession creates a fresh session for a user with defaults.
func NewConversationSession(userID string) *ConversationSession {
	return &ConversationSession{
		UserID:              userID,
		AwaitingHubLocation: true,
	}
}

// SetHubLocation records the resolved hub city and clears the awaiting flag.
func (s *ConversationSession) SetHubLocation(city string) {
	s.HubLocation = city
	s.AwaitingHubLocation = city == ""
}

// ClearHubLocation removes the hub city and re-arms the awaiting flag.
func (s *ConversationSession) ClearHubLocation() {
	s.HubLocation = ""
	s.AwaitingHubLocation = true
}

// CheckInvariant verifies the hub-location flag invariant; used by tests and
// defensive callers after deserializing externally produced state.
func (s *ConversationSession) CheckInvariant() error {
	if s.AwaitingHubLocation != (s.HubLocation == "") {
		return fmt.Errorf("awaiting_hub_location=%v inconsistent with hub_location=%q", s.AwaitingHubLocation, s.HubLocation)
	}
	return nil
}

// SessionRecord wraps a session with the store's optimistic concurrency token.
// The version is store-owned metadata: it never round-trips through the
// serialized session body.
type SessionRecord struct {
	Session *ConversationSession
	Version string
}

// MarshalSession serializes the session body without any concurrency token.
func (r *SessionRecord) MarshalSession() ([]byte, error) {
	data, err := json.Marshal(r.Session)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal session for %s: %w", r.Session.UserID, err)
	}
	return data, nil
}

// UnmarshalSessionRecord reconstructs a record from a stored session body and
// the store-held version token.
func UnmarshalSessionRecord(data []byte, version string) (*SessionRecord, error) {
	var session ConversationSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal stored session: %w", err)
	}
	return &SessionRecord{Session: &session, Version: version}, nil
}

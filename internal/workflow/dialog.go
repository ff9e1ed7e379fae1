// Package workflow implements the multi-stage conversational state machine
// that routes user input through the TAB agent's specialized sub-agents.
package workflow

import "log/slog"

// DialogStack tracks which sub-workflow currently owns the conversation.
// The top of the stack (or the primary assistant when empty) decides where a
// resumed thread re-enters the graph, making the stack the durable
// continuation marker across turns.
type DialogStack struct {
	entries []string
}

// NewDialogStack creates a stack seeded from persisted entries.
func NewDialogStack(entries []string) *DialogStack {
	s := &DialogStack{}
	if len(entries) > 0 {
		s.entries = append(s.entries, entries...)
	}
	return s
}

// Push records a delegation to a sub-workflow. Pushing the name already on
// top is refused: no workflow self-delegates, so a duplicate indicates a
// routing bug upstream.
func (s *DialogStack) Push(name string) {
	if top, ok := s.Peek(); ok && top == name {
		slog.Warn("DialogStack.Push: refusing consecutive duplicate entry", "name", name)
		return
	}
	s.entries = append(s.entries, name)
	slog.Debug("DialogStack.Push: delegated", "name", name, "depth", len(s.entries))
}

// Pop removes and returns the top entry. The boolean is false when the stack
// is empty.
func (s *DialogStack) Pop() (string, bool) {
	if len(s.entries) == 0 {
		return "", false
	}
	top := s.entries[len(s.entries)-1]
	s.entries = s.entries[:len(s.entries)-1]
	slog.Debug("DialogStack.Pop: returned control", "name", top, "depth", len(s.entries))
	return top, true
}

// Peek returns the top entry without removing it.
func (s *DialogStack) Peek() (string, bool) {
	if len(s.entries) == 0 {
		return "", false
	}
	return s.entries[len(s.entries)-1], true
}

// Empty reports whether the stack has no entries.
func (s *DialogStack) Empty() bool {
	return len(s.entries) == 0
}

// Entries returns a copy of the stack contents, bottom first, for persistence.
func (s *DialogStack) Entries() []string {
	if len(s.entries) == 0 {
		return nil
	}
	out := make([]string, len(s.entries))
	copy(out, s.entries)
	return out
}

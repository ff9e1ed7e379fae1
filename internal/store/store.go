// Package store provides storage backends for TABAgent conversation sessions.
//
// It includes SQLite, PostgreSQL, and Redis backed stores plus an in-memory
// store for tests. All backends implement optimistic concurrency: a save
// carrying a stale version token fails with ErrVersionConflict instead of
// overwriting a concurrently updated record.
package store

import (
	"context"
	"errors"
	"strconv"
	"sync"

	"github.com/hubtab/TABAgent/internal/models"
)

// ErrVersionConflict is returned by SaveSession when the record's version
// token no longer matches the stored one. Callers treat it as
// retryable-with-reload, not fatal.
var ErrVersionConflict = errors.New("session version conflict")

// Store defines persistence operations for conversation sessions.
type Store interface {
	// GetSession returns the stored session record for a user, or (nil, nil)
	// when no session exists.
	GetSession(ctx context.Context, userID string) (*models.SessionRecord, error)
	// SaveSession persists the record. An empty version means "create or
	// overwrite unconditionally"; a non-empty version must match the stored
	// one or ErrVersionConflict is returned. On success the record's version
	// is advanced.
	SaveSession(ctx context.Context, record *models.SessionRecord) error
	// DeleteSession removes a user's session; absence is not an error.
	DeleteSession(ctx context.Context, userID string) error
	// Close releases backend resources.
	Close() error
}

// Opts holds configuration options for store backends.
type Opts struct {
	DSN string
}

// Option defines a configuration option for a store backend.
type Option func(*Opts)

// WithDSN sets the backend connection string (file path for SQLite,
// connection URL for PostgreSQL or Redis).
func WithDSN(dsn string) Option {
	return func(o *Opts) {
		o.DSN = dsn
	}
}

// nextVersion advances an opaque numeric version token. Unparseable or empty
// tokens restart the sequence.
func nextVersion(current string) string {
	n, err := strconv.ParseInt(current, 10, 64)
	if err != nil {
		n = 0
	}
	return strconv.FormatInt(n+1, 10)
}

// InMemoryStore is a thread-safe in-memory session store for tests and
// single-process development.
type InMemoryStore struct {
	mu       sync.Mutex
	sessions map[string]inMemoryEntry
}

type inMemoryEntry struct {
	data    []byte
	version string
}

// NewInMemoryStore creates an empty in-memory store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{sessions: make(map[string]inMemoryEntry)}
}

// GetSession returns the stored session for a user, or (nil, nil) when absent.
func (s *InMemoryStore) GetSession(ctx context.Context, userID string) (*models.SessionRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.sessions[userID]
	if !ok {
		return nil, nil
	}
	return models.UnmarshalSessionRecord(entry.data, entry.version)
}

// SaveSession persists the record, honoring the optimistic version token.
func (s *InMemoryStore) SaveSession(ctx context.Context, record *models.SessionRecord) error {
	data, err := record.MarshalSession()
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	existing, exists := s.sessions[record.Session.UserID]
	if record.Version != "" && exists && existing.version != record.Version {
		return ErrVersionConflict
	}
	base := record.Version
	if !exists {
		base = ""
	}
	record.Version = nextVersion(base)
	s.sessions[record.Session.UserID] = inMemoryEntry{data: data, version: record.Version}
	return nil
}

// DeleteSession removes a user's session; absence is not an error.
func (s *InMemoryStore) DeleteSession(ctx context.Context, userID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, userID)
	return nil
}

// Close is a no-op for the in-memory store.
func (s *InMemoryStore) Close() error {
	return nil
}

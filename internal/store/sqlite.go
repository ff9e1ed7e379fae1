// Package store provides storage backends for TABAgent.
//
// This file implements an SQLite-backed session store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	_ "embed"

	"github.com/hubtab/TABAgent/internal/models"
	_ "github.com/mattn/go-sqlite3"
)

// Constants for SQLite store configuration
const (
	// DefaultDirPermissions defines the default permissions for database directories
	DefaultDirPermissions = 0755
)

//go:embed migrations_sqlite.sql
var sqliteMigrations string

type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store with the given DSN.
// The DSN should be a file path to the SQLite database file.
// If the directory doesn't exist, it will be created.
func NewSQLiteStore(opts ...Option) (*SQLiteStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("NewSQLiteStore invoked", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("SQLiteStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	dir := filepath.Dir(dsn)
	if err := os.MkdirAll(dir, DefaultDirPermissions); err != nil {
		slog.Error("Failed to create database directory", "error", err, "dir", dir)
		return nil, fmt.Errorf("failed to create database directory: %w", err)
	}

	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		slog.Error("Failed to open SQLite connection", "error", err)
		return nil, err
	}

	if err := db.Ping(); err != nil {
		slog.Error("SQLite ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running SQLite migrations")
	if _, err := db.Exec(sqliteMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("SQLite migrations applied successfully")

	return &SQLiteStore{db: db}, nil
}

// GetSession returns the stored session for a user, or (nil, nil) when absent.
func (s *SQLiteStore) GetSession(ctx context.Context, userID string) (*models.SessionRecord, error) {
	var stateJSON, version string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json, version FROM sessions WHERE user_id = ?`, userID,
	).Scan(&stateJSON, &version)
	if err == sql.ErrNoRows {
		slog.Debug("SQLiteStore GetSession: no session found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("SQLiteStore GetSession failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query session for %s: %w", userID, err)
	}

	record, err := models.UnmarshalSessionRecord([]byte(stateJSON), version)
	if err != nil {
		slog.Error("SQLiteStore GetSession unmarshal failed", "error", err, "userID", userID)
		return nil, err
	}
	slog.Debug("SQLiteStore GetSession succeeded", "userID", userID, "version", version)
	return record, nil
}

// SaveSession persists the record, honoring the optimistic version token.
func (s *SQLiteStore) SaveSession(ctx context.Context, record *models.SessionRecord) error {
	data, err := record.MarshalSession()
	if err != nil {
		return err
	}
	userID := record.Session.UserID
	newVersion := nextVersion(record.Version)

	var res sql.Result
	if record.Version == "" {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO sessions (user_id, state_json, version, updated_at) VALUES (?, ?, ?, CURRENT_TIMESTAMP)
			 ON CONFLICT(user_id) DO UPDATE SET state_json = excluded.state_json, version = excluded.version, updated_at = CURRENT_TIMESTAMP`,
			userID, string(data), newVersion)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE sessions SET state_json = ?, version = ?, updated_at = CURRENT_TIMESTAMP WHERE user_id = ? AND version = ?`,
			string(data), newVersion, userID, record.Version)
	}
	if err != nil {
		slog.Error("SQLiteStore SaveSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to save session for %s: %w", userID, err)
	}

	if record.Version != "" {
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check save result for %s: %w", userID, err)
		}
		if affected == 0 {
			slog.Warn("SQLiteStore SaveSession version conflict", "userID", userID, "version", record.Version)
			return ErrVersionConflict
		}
	}

	record.Version = newVersion
	slog.Debug("SQLiteStore SaveSession succeeded", "userID", userID, "version", newVersion)
	return nil
}

// DeleteSession removes a user's session; absence is not an error.
func (s *SQLiteStore) DeleteSession(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = ?`, userID)
	if err != nil {
		slog.Error("SQLiteStore DeleteSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete session for %s: %w", userID, err)
	}
	slog.Debug("SQLiteStore DeleteSession succeeded", "userID", userID)
	return nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Package store provides storage backends for TABAgent.
//
// This file implements a PostgreSQL-backed session store.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	_ "embed"

	"github.com/hubtab/TABAgent/internal/models"
	_ "github.com/lib/pq"
)

// Database connection pool configuration constants
const (
	// DefaultMaxOpenConns is the default maximum number of open connections to the database
	DefaultMaxOpenConns = 25
	// DefaultMaxIdleConns is the default maximum number of idle connections in the pool
	DefaultMaxIdleConns = 25
	// DefaultConnMaxLifetime is the default maximum amount of time a connection may be reused
	DefaultConnMaxLifetime = 5 * time.Minute
)

//go:embed migrations_postgres.sql
var postgresMigrations string

type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store based on provided options.
func NewPostgresStore(opts ...Option) (*PostgresStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("PostgresStore.NewPostgresStore: creating Postgres store", "DSN_set", cfg.DSN != "")

	dsn := cfg.DSN
	if dsn == "" {
		slog.Error("PostgresStore DSN not set")
		return nil, fmt.Errorf("database DSN not set")
	}

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		slog.Error("Failed to open Postgres connection", "error", err)
		return nil, err
	}

	db.SetMaxOpenConns(DefaultMaxOpenConns)
	db.SetMaxIdleConns(DefaultMaxIdleConns)
	db.SetConnMaxLifetime(DefaultConnMaxLifetime)

	if err := db.Ping(); err != nil {
		slog.Error("Postgres ping failed", "error", err)
		return nil, err
	}

	slog.Debug("Running Postgres migrations")
	if _, err := db.Exec(postgresMigrations); err != nil {
		slog.Error("Failed to run migrations", "error", err)
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	slog.Debug("Postgres migrations applied successfully")

	return &PostgresStore{db: db}, nil
}

// GetSession returns the stored session for a user, or (nil, nil) when absent.
func (s *PostgresStore) GetSession(ctx context.Context, userID string) (*models.SessionRecord, error) {
	var stateJSON, version string
	err := s.db.QueryRowContext(ctx,
		`SELECT state_json, version FROM sessions WHERE user_id = $1`, userID,
	).Scan(&stateJSON, &version)
	if err == sql.ErrNoRows {
		slog.Debug("PostgresStore GetSession: no session found", "userID", userID)
		return nil, nil
	}
	if err != nil {
		slog.Error("PostgresStore GetSession failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to query session for %s: %w", userID, err)
	}

	record, err := models.UnmarshalSessionRecord([]byte(stateJSON), version)
	if err != nil {
		slog.Error("PostgresStore GetSession unmarshal failed", "error", err, "userID", userID)
		return nil, err
	}
	slog.Debug("PostgresStore GetSession succeeded", "userID", userID, "version", version)
	return record, nil
}

// SaveSession persists the record, honoring the optimistic version token.
func (s *PostgresStore) SaveSession(ctx context.Context, record *models.SessionRecord) error {
	data, err := record.MarshalSession()
	if err != nil {
		return err
	}
	userID := record.Session.UserID
	newVersion := nextVersion(record.Version)

	var res sql.Result
	if record.Version == "" {
		res, err = s.db.ExecContext(ctx,
			`INSERT INTO sessions (user_id, state_json, version, updated_at) VALUES ($1, $2, $3, NOW())
			 ON CONFLICT (user_id) DO UPDATE SET state_json = EXCLUDED.state_json, version = EXCLUDED.version, updated_at = NOW()`,
			userID, string(data), newVersion)
	} else {
		res, err = s.db.ExecContext(ctx,
			`UPDATE sessions SET state_json = $1, version = $2, updated_at = NOW() WHERE user_id = $3 AND version = $4`,
			string(data), newVersion, userID, record.Version)
	}
	if err != nil {
		slog.Error("PostgresStore SaveSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to save session for %s: %w", userID, err)
	}

	if record.Version != "" {
		affected, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("failed to check save result for %s: %w", userID, err)
		}
		if affected == 0 {
			slog.Warn("PostgresStore SaveSession version conflict", "userID", userID, "version", record.Version)
			return ErrVersionConflict
		}
	}

	record.Version = newVersion
	slog.Debug("PostgresStore SaveSession succeeded", "userID", userID, "version", newVersion)
	return nil
}

// DeleteSession removes a user's session; absence is not an error.
func (s *PostgresStore) DeleteSession(ctx context.Context, userID string) error {
	_, err := s.db.ExecContext(ctx, `DELETE FROM sessions WHERE user_id = $1`, userID)
	if err != nil {
		slog.Error("PostgresStore DeleteSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete session for %s: %w", userID, err)
	}
	slog.Debug("PostgresStore DeleteSession succeeded", "userID", userID)
	return nil
}

// Close closes the underlying database connection.
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

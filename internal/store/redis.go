// Package store provides storage backends for TABAgent.
//
// This file implements a Redis-backed session store. Optimistic concurrency
// uses WATCH on the version key so a stale save fails instead of clobbering
// a concurrent update.
package store

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hubtab/TABAgent/internal/models"
	"github.com/redis/go-redis/v9"
)

// DefaultRedisPingTimeout bounds the initial connectivity check.
const DefaultRedisPingTimeout = 5 * time.Second

type RedisStore struct {
	client *redis.Client
}

// NewRedisStore creates a new Redis store. The DSN must be a Redis URL,
// e.g. redis://localhost:6379/0.
func NewRedisStore(opts ...Option) (*RedisStore, error) {
	var cfg Opts
	for _, opt := range opts {
		opt(&cfg)
	}
	slog.Debug("RedisStore.NewRedisStore: creating Redis store", "DSN_set", cfg.DSN != "")

	if cfg.DSN == "" {
		slog.Error("RedisStore DSN not set")
		return nil, fmt.Errorf("redis DSN not set")
	}

	redisOpts, err := redis.ParseURL(cfg.DSN)
	if err != nil {
		slog.Error("RedisStore failed to parse DSN", "error", err)
		return nil, fmt.Errorf("failed to parse redis DSN: %w", err)
	}

	client := redis.NewClient(redisOpts)

	ctx, cancel := context.WithTimeout(context.Background(), DefaultRedisPingTimeout)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		slog.Error("RedisStore ping failed", "error", err)
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	slog.Debug("RedisStore connected")

	return &RedisStore{client: client}, nil
}

func sessionKey(userID string) string {
	return "tab:session:" + userID
}

func versionKey(userID string) string {
	return "tab:session:" + userID + ":version"
}

// GetSession returns the stored session for a user, or (nil, nil) when absent.
// Body and version are read with a single MGET so the pair can never come
// from two different saves.
func (s *RedisStore) GetSession(ctx context.Context, userID string) (*models.SessionRecord, error) {
	values, err := s.client.MGet(ctx, sessionKey(userID), versionKey(userID)).Result()
	if err != nil {
		slog.Error("RedisStore GetSession failed", "error", err, "userID", userID)
		return nil, fmt.Errorf("failed to get session for %s: %w", userID, err)
	}
	if values[0] == nil {
		slog.Debug("RedisStore GetSession: no session found", "userID", userID)
		return nil, nil
	}
	data, ok := values[0].(string)
	if !ok {
		return nil, fmt.Errorf("unexpected session value type %T for %s", values[0], userID)
	}
	version := ""
	if values[1] != nil {
		version, _ = values[1].(string)
	}

	record, err := models.UnmarshalSessionRecord([]byte(data), version)
	if err != nil {
		slog.Error("RedisStore GetSession unmarshal failed", "error", err, "userID", userID)
		return nil, err
	}
	slog.Debug("RedisStore GetSession succeeded", "userID", userID, "version", version)
	return record, nil
}

// SaveSession persists the record, honoring the optimistic version token.
func (s *RedisStore) SaveSession(ctx context.Context, record *models.SessionRecord) error {
	data, err := record.MarshalSession()
	if err != nil {
		return err
	}
	userID := record.Session.UserID
	newVersion := nextVersion(record.Version)

	err = s.client.Watch(ctx, func(tx *redis.Tx) error {
		current, err := tx.Get(ctx, versionKey(userID)).Result()
		if err != nil && err != redis.Nil {
			return fmt.Errorf("failed to read current version: %w", err)
		}
		if record.Version != "" && err != redis.Nil && current != record.Version {
			return ErrVersionConflict
		}

		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, sessionKey(userID), data, 0)
			pipe.Set(ctx, versionKey(userID), newVersion, 0)
			return nil
		})
		return err
	}, versionKey(userID))

	if err == redis.TxFailedErr {
		slog.Warn("RedisStore SaveSession transaction aborted by concurrent write", "userID", userID)
		return ErrVersionConflict
	}
	if err != nil {
		if err == ErrVersionConflict {
			slog.Warn("RedisStore SaveSession version conflict", "userID", userID, "version", record.Version)
			return err
		}
		slog.Error("RedisStore SaveSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to save session for %s: %w", userID, err)
	}

	record.Version = newVersion
	slog.Debug("RedisStore SaveSession succeeded", "userID", userID, "version", newVersion)
	return nil
}

// DeleteSession removes a user's session; absence is not an error.
func (s *RedisStore) DeleteSession(ctx context.Context, userID string) error {
	if err := s.client.Del(ctx, sessionKey(userID), versionKey(userID)).Err(); err != nil {
		slog.Error("RedisStore DeleteSession failed", "error", err, "userID", userID)
		return fmt.Errorf("failed to delete session for %s: %w", userID, err)
	}
	slog.Debug("RedisStore DeleteSession succeeded", "userID", userID)
	return nil
}

// Close closes the underlying Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}

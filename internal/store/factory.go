package store

import (
	"fmt"
	"log/slog"
)

// Supported store driver names.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)

// Interface compliance checks for all backends.
var (
	_ Store = (*InMemoryStore)(nil)
	_ Store = (*SQLiteStore)(nil)
	_ Store = (*PostgresStore)(nil)
	_ Store = (*RedisStore)(nil)
)

// NewStore constructs a session store for the named driver.
func NewStore(driver string, opts ...Option) (Store, error) {
	slog.Debug("store.NewStore: selecting backend", "driver", driver)
	switch driver {
	case DriverSQLite, "":
		return NewSQLiteStore(opts...)
	case DriverPostgres:
		return NewPostgresStore(opts...)
	case DriverRedis:
		return NewRedisStore(opts...)
	case DriverMemory:
		return NewInMemoryStore(), nil
	default:
		return nil, fmt.Errorf("unknown store driver: %s", driver)
	}
}

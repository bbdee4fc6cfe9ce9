package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

const (
	applicationName = "peerbets"
	readyTimeout    = 2 * time.Second
)

// PoolSettings tunes the pgx pool behind DB
type PoolSettings struct {
	MaxConns        int32
	MinConns        int32
	MaxConnIdleTime time.Duration
}

// DefaultPoolSettings suits a single API instance. Placement bursts on a
// closing event are the peak load, each holding one connection per request.
var DefaultPoolSettings = PoolSettings{
	MaxConns:        20,
	MinConns:        2,
	MaxConnIdleTime: 5 * time.Minute,
}

// DB wraps the pgx pool shared by repositories and units of work
type DB struct {
	*pgxpool.Pool
}

// NewConnection opens a pool with DefaultPoolSettings
func NewConnection(ctx context.Context, databaseURL string) (*DB, error) {
	return NewConnectionWithSettings(ctx, databaseURL, DefaultPoolSettings)
}

// NewConnectionWithSettings opens a pool and verifies the server is reachable
func NewConnectionWithSettings(ctx context.Context, databaseURL string, settings PoolSettings) (*DB, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse database URL: %w", err)
	}

	// closes_at and resolved_at are compared in UTC
	poolConfig.ConnConfig.RuntimeParams["timezone"] = "UTC"
	poolConfig.ConnConfig.RuntimeParams["application_name"] = applicationName
	if settings.MaxConns > 0 {
		poolConfig.MaxConns = settings.MaxConns
	}
	if settings.MinConns > 0 && settings.MinConns <= poolConfig.MaxConns {
		poolConfig.MinConns = settings.MinConns
	}
	if settings.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = settings.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	db := &DB{Pool: pool}
	if err := db.Ready(ctx); err != nil {
		pool.Close()
		return nil, err
	}
	return db, nil
}

// Ready pings the database with a short timeout
func (db *DB) Ready(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, readyTimeout)
	defer cancel()

	if err := db.Pool.Ping(ctx); err != nil {
		return fmt.Errorf("database not ready: %w", err)
	}
	return nil
}

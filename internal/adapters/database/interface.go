// Package database defines the connection contract the execution engine runs
// against, plus the pooled adapter shared by the sqlite, mysql and postgres
// drivers.
package database

import (
	"context"
	"database/sql"
	"time"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// Conn is one acquired connection. Close returns it to its provider.
type Conn interface {
	// QueryContext executes a statement that returns rows.
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)

	// ExecContext executes a statement without returning rows.
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)

	// Close releases the connection.
	Close() error
}

// ConnectionProvider hands out connections. The engine acquires one per
// execution and releases it when the result has been consumed or closed.
type ConnectionProvider interface {
	Acquire(ctx context.Context) (Conn, error)
}

// Adapter is a ConnectionProvider backed by a database handle.
type Adapter interface {
	ConnectionProvider

	// Ping checks the database connection.
	Ping(ctx context.Context) error

	// Dialect returns the SQL dialect.
	Dialect() domain.SQLDialect

	// Close closes the underlying handle.
	Close() error
}

// Config holds database connection configuration.
type Config struct {
	Provider string
	URL      string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	ConnectTimeout  time.Duration
}

// DefaultConfig returns the pool settings used when none are configured.
func DefaultConfig() Config {
	return Config{
		MaxOpenConns:    25,
		MaxIdleConns:    5,
		ConnMaxLifetime: 30 * time.Minute,
		ConnMaxIdleTime: 10 * time.Minute,
		ConnectTimeout:  10 * time.Second,
	}
}

// Apply copies the pool settings onto db. Zero values leave the database/sql
// defaults in place.
func (c Config) Apply(db *sql.DB) {
	if c.MaxOpenConns > 0 {
		db.SetMaxOpenConns(c.MaxOpenConns)
	}
	if c.MaxIdleConns > 0 {
		db.SetMaxIdleConns(c.MaxIdleConns)
	}
	if c.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(c.ConnMaxLifetime)
	}
	if c.ConnMaxIdleTime > 0 {
		db.SetConnMaxIdleTime(c.ConnMaxIdleTime)
	}
}

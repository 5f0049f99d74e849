// Package postgres registers the PostgreSQL provider.
package postgres

import (
	"database/sql"
	"fmt"

	"github.com/lib/pq"

	"github.com/satishbabariya/unisql/internal/adapters/database"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

func init() {
	database.Register(Driver{}, "postgres", "postgresql")
}

// Driver opens PostgreSQL databases through lib/pq.
type Driver struct{}

// Dialect returns the PostgreSQL dialect.
func (Driver) Dialect() domain.SQLDialect { return domain.PostgreSQL }

// Open accepts either a postgres:// URL or a key=value connection string.
func (Driver) Open(cfg database.Config) (*sql.DB, error) {
	connector, err := pq.NewConnector(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("invalid postgres connection string: %w", err)
	}
	db := sql.OpenDB(connector)
	cfg.Apply(db)
	return db, nil
}

// Package sqlite registers the SQLite provider.
package sqlite

import (
	"database/sql"
	"strings"

	_ "github.com/mattn/go-sqlite3" // SQLite driver

	"github.com/satishbabariya/unisql/internal/adapters/database"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

func init() {
	database.Register(Driver{}, "sqlite", "sqlite3", "file")
}

// Driver opens SQLite databases through mattn/go-sqlite3.
type Driver struct{}

// Dialect returns the SQLite dialect.
func (Driver) Dialect() domain.SQLDialect { return domain.SQLite }

// Open opens the database file (or :memory:) named by cfg.URL with foreign keys
// enabled.
func (Driver) Open(cfg database.Config) (*sql.DB, error) {
	db, err := sql.Open("sqlite3", DSN(cfg.URL))
	if err != nil {
		return nil, err
	}

	// One connection serializes writers and keeps an in-memory database alive
	// for the lifetime of the handle.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return db, nil
}

// DSN turns a configured URL into a go-sqlite3 data source name.
func DSN(url string) string {
	url = strings.TrimPrefix(url, "sqlite://")
	url = strings.TrimPrefix(url, "sqlite3://")
	if url == "" {
		url = ":memory:"
	}
	if strings.Contains(url, "_foreign_keys=") || strings.Contains(url, "_fk=") {
		return url
	}
	sep := "?"
	if strings.Contains(url, "?") {
		sep = "&"
	}
	return url + sep + "_foreign_keys=on"
}

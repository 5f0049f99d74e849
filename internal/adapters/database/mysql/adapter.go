// Package mysql registers the MySQL provider.
package mysql

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/go-sql-driver/mysql"

	"github.com/satishbabariya/unisql/internal/adapters/database"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

func init() {
	database.Register(Driver{}, "mysql", "mariadb")
}

// Driver opens MySQL databases through go-sql-driver/mysql.
type Driver struct{}

// Dialect returns the MySQL dialect.
func (Driver) Dialect() domain.SQLDialect { return domain.MySQL }

// Open parses cfg.URL as a go-sql-driver DSN (an optional mysql:// prefix is
// dropped) and opens it with time parsing enabled.
func (Driver) Open(cfg database.Config) (*sql.DB, error) {
	mc, err := ParseDSN(cfg.URL)
	if err != nil {
		return nil, err
	}
	if cfg.ConnectTimeout > 0 {
		mc.Timeout = cfg.ConnectTimeout
	}

	connector, err := mysql.NewConnector(mc)
	if err != nil {
		return nil, fmt.Errorf("invalid mysql configuration: %w", err)
	}
	db := sql.OpenDB(connector)
	cfg.Apply(db)
	return db, nil
}

// ParseDSN parses url into a driver configuration with ParseTime set.
func ParseDSN(url string) (*mysql.Config, error) {
	mc, err := mysql.ParseDSN(strings.TrimPrefix(url, "mysql://"))
	if err != nil {
		return nil, fmt.Errorf("invalid mysql dsn: %w", err)
	}
	mc.ParseTime = true
	return mc, nil
}

package database

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// Driver opens handles for one provider.
type Driver interface {
	// Dialect returns the SQL dialect the provider speaks.
	Dialect() domain.SQLDialect

	// Open opens a handle with the pool settings of cfg applied.
	Open(cfg Config) (*sql.DB, error)
}

// Pool is the Adapter over a *sql.DB. Pooling policy is database/sql's; the
// pool only carries the configured limits through.
type Pool struct {
	db      *sql.DB
	dialect domain.SQLDialect
}

// NewPool wraps an open handle.
func NewPool(db *sql.DB, dialect domain.SQLDialect) *Pool {
	return &Pool{db: db, dialect: dialect}
}

// DB returns the underlying *sql.DB.
func (p *Pool) DB() *sql.DB { return p.db }

// Acquire reserves a dedicated connection.
func (p *Pool) Acquire(ctx context.Context) (Conn, error) {
	conn, err := p.db.Conn(ctx)
	if err != nil {
		return nil, err
	}
	return conn, nil
}

// Ping checks the database connection.
func (p *Pool) Ping(ctx context.Context) error {
	return p.db.PingContext(ctx)
}

// Dialect returns the SQL dialect.
func (p *Pool) Dialect() domain.SQLDialect { return p.dialect }

// Stats returns database/sql pool statistics.
func (p *Pool) Stats() sql.DBStats { return p.db.Stats() }

// Close closes the handle.
func (p *Pool) Close() error { return p.db.Close() }

var _ Adapter = (*Pool)(nil)

var (
	driversMu sync.RWMutex
	drivers   = make(map[string]Driver)
)

// Register makes a driver available under the given provider names. It is
// called from the init function of each driver package.
func Register(driver Driver, names ...string) {
	driversMu.Lock()
	defer driversMu.Unlock()
	for _, name := range names {
		if _, dup := drivers[name]; dup {
			panic("database: Register called twice for provider " + name)
		}
		drivers[name] = driver
	}
}

// Providers returns the registered provider names, sorted.
func Providers() []string {
	driversMu.RLock()
	defer driversMu.RUnlock()
	names := make([]string, 0, len(drivers))
	for name := range drivers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Open connects to the database named by cfg and verifies it with a ping.
// When cfg.Provider is empty it is inferred from the URL.
func Open(ctx context.Context, cfg Config) (*Pool, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = ProviderFromURL(cfg.URL)
	}

	driversMu.RLock()
	driver, ok := drivers[provider]
	driversMu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("unknown database provider %q (registered: %s)", provider, strings.Join(Providers(), ", "))
	}

	db, err := driver.Open(cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if cfg.ConnectTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, cfg.ConnectTimeout)
		defer cancel()
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return NewPool(db, driver.Dialect()), nil
}

// ProviderFromURL guesses the provider from a connection URL.
func ProviderFromURL(url string) string {
	switch {
	case strings.HasPrefix(url, "postgres://"), strings.HasPrefix(url, "postgresql://"):
		return "postgres"
	case strings.HasPrefix(url, "mysql://"), strings.Contains(url, "@tcp("), strings.Contains(url, "@unix("):
		return "mysql"
	default:
		return "sqlite"
	}
}

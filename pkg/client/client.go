// Package client is the public entry point: it builds statements through any
// of the three front-ends and runs them on one execution engine.
//
//	c, _ := client.New(pool, registry, domain.SQLite)
//	q, _ := c.Template("SELECT u.username FROM User u WHERE u.id > :id ORDER BY u.id")
//	names, err := q.Bind("id", 10).List(ctx, domain.Scalar())
package client

import (
	"context"
	"fmt"

	"github.com/satishbabariya/unisql/internal/adapters/database"
	"github.com/satishbabariya/unisql/internal/core/query/builder"
	"github.com/satishbabariya/unisql/internal/core/query/cache"
	"github.com/satishbabariya/unisql/internal/core/query/compiler"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/query/executor"
	"github.com/satishbabariya/unisql/internal/core/query/native"
	"github.com/satishbabariya/unisql/internal/core/query/template"
	"github.com/satishbabariya/unisql/internal/core/schema"
)

// Client builds and executes statements. It is safe for concurrent use; the
// queries it returns are not.
type Client struct {
	engine   *executor.Engine
	metadata schema.Provider
	config   *Config
	pool     *database.Pool

	templates *cache.LRU[string, *domain.Statement]
}

// New creates a client executing on provider. Transactions stay with the
// caller: pass database.NewTxProvider(tx) to run inside one.
func New(provider database.ConnectionProvider, metadata schema.Provider, dialect domain.SQLDialect, opts ...Option) (*Client, error) {
	config := DefaultConfig()
	ApplyOptions(config, opts...)

	engineOpts := append(config.engineOptions(), executor.WithMetadata(metadata))
	engine, err := executor.New(provider, dialect, engineOpts...)
	if err != nil {
		return nil, err
	}
	c := &Client{engine: engine, metadata: metadata, config: config}
	if config.TemplateCacheSize > 0 {
		c.templates = cache.NewLRU[string, *domain.Statement](config.TemplateCacheSize)
	}
	return c, nil
}

// Open connects with cfg and returns a client owning the pool. The driver
// for cfg.Provider must be registered by importing its adapter package.
func Open(ctx context.Context, cfg database.Config, metadata schema.Provider, opts ...Option) (*Client, error) {
	pool, err := database.Open(ctx, cfg)
	if err != nil {
		return nil, err
	}
	c, err := New(pool, metadata, pool.Dialect(), opts...)
	if err != nil {
		pool.Close()
		return nil, err
	}
	c.pool = pool
	return c, nil
}

// Close closes the pool when the client was created by Open.
func (c *Client) Close() error {
	if c.pool == nil {
		return nil
	}
	return c.pool.Close()
}

// Engine returns the execution engine.
func (c *Client) Engine() *executor.Engine { return c.engine }

// Metadata returns the entity metadata.
func (c *Client) Metadata() schema.Provider { return c.metadata }

// Structured starts a structured query over entity. Finish it with Build.
func (c *Client) Structured(entity, alias string) *builder.QueryBuilder {
	return builder.NewQueryBuilder(c.metadata, entity, alias)
}

// Build turns a structured query into an executable Query.
func (c *Client) Build(qb *builder.QueryBuilder) (*Query, error) {
	stmt, err := qb.Statement()
	if err != nil {
		return nil, err
	}
	return c.FromStatement(stmt), nil
}

// Template compiles template text. With a template cache configured, text
// compiled before is served from the cache; failures are never cached.
func (c *Client) Template(text string) (*Query, error) {
	if c.templates != nil {
		if stmt, ok := c.templates.Get(text); ok {
			return c.FromStatement(stmt), nil
		}
	}
	stmt, err := template.Compile(c.metadata, text)
	if err != nil {
		return nil, err
	}
	if c.templates != nil {
		c.templates.Put(text, stmt)
	}
	return c.FromStatement(stmt), nil
}

// TemplateCacheStats reports template cache usage. It is the zero value when
// the cache is disabled.
func (c *Client) TemplateCacheStats() cache.Stats {
	if c.templates == nil {
		return cache.Stats{}
	}
	return c.templates.Stats()
}

// Native wraps dialect SQL.
func (c *Client) Native(text string) *NativeQuery {
	return &NativeQuery{client: c, q: native.New(text).WithMetadata(c.metadata)}
}

// FromStatement wraps a statement built elsewhere.
func (c *Client) FromStatement(stmt *domain.Statement) *Query {
	return &Query{client: c, stmt: stmt}
}

// Explain compiles stmt for the client's dialect without running it.
func (c *Client) Explain(stmt *domain.Statement) (*compiler.Compiled, error) {
	if stmt == nil {
		return nil, fmt.Errorf("explain: nil statement")
	}
	return c.engine.Compile(stmt)
}

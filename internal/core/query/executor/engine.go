// Package executor runs compiled statements against a connection provider
// and streams their results through the materializer.
package executor

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/satishbabariya/unisql/internal/adapters/database"
	"github.com/satishbabariya/unisql/internal/core/query/binder"
	"github.com/satishbabariya/unisql/internal/core/query/compiler"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/query/mapper"
	"github.com/satishbabariya/unisql/internal/core/schema"
	"github.com/satishbabariya/unisql/internal/logging"
)

// Engine executes statements. It keeps no per-execution state, so one engine
// may serve concurrent executions.
type Engine struct {
	provider   database.ConnectionProvider
	compiler   *compiler.SQLCompiler
	metadata   schema.Provider
	logger     zerolog.Logger
	middleware []Middleware
}

// Option configures an Engine.
type Option func(*Engine)

// WithLogger sets the logger. Every driver call is logged through
// LoggingMiddleware ahead of any caller middleware.
func WithLogger(logger zerolog.Logger) Option {
	return func(e *Engine) { e.logger = logger }
}

// WithMiddleware appends middleware to the driver call chain.
func WithMiddleware(mw ...Middleware) Option {
	return func(e *Engine) { e.middleware = append(e.middleware, mw...) }
}

// WithMetadata sets the entity metadata used to compile statements and
// materialize entities.
func WithMetadata(metadata schema.Provider) Option {
	return func(e *Engine) { e.metadata = metadata }
}

// New creates an engine for dialect over provider.
func New(provider database.ConnectionProvider, dialect domain.SQLDialect, opts ...Option) (*Engine, error) {
	if provider == nil {
		return nil, fmt.Errorf("executor: nil connection provider")
	}
	e := &Engine{provider: provider, logger: zerolog.Nop()}
	for _, opt := range opts {
		opt(e)
	}

	c, err := compiler.NewSQLCompiler(dialect, e.metadata)
	if err != nil {
		return nil, err
	}
	e.compiler = c
	e.middleware = append([]Middleware{LoggingMiddleware(e.logger)}, e.middleware...)
	return e, nil
}

// Dialect returns the dialect statements are compiled for.
func (e *Engine) Dialect() domain.SQLDialect { return e.compiler.Dialect() }

// Metadata returns the entity metadata, which may be nil.
func (e *Engine) Metadata() schema.Provider { return e.metadata }

// Compile renders stmt without executing it.
func (e *Engine) Compile(stmt *domain.Statement) (*compiler.Compiled, error) {
	if stmt == nil {
		return nil, fmt.Errorf("executor: nil statement")
	}
	compiled, err := e.compiler.Compile(stmt)
	if err != nil {
		return nil, &domain.QueryError{Kind: stmt.Kind, Op: "compile", Cause: err}
	}
	return compiled, nil
}

// Outcome is the result of Execute: a row sequence for queries, an affected
// row count for DML.
type Outcome struct {
	Kind     domain.StatementKind
	Rows     *ResultSet
	Affected int64
}

// Execute compiles stmt, binds params and runs it. Every bind error is
// reported before a connection is acquired. For queries the caller must
// Close the returned ResultSet; spec is ignored for DML.
func (e *Engine) Execute(ctx context.Context, stmt *domain.Statement, params *binder.ParameterSet, spec domain.MaterializationSpec) (*Outcome, error) {
	if stmt == nil {
		return nil, fmt.Errorf("executor: nil statement")
	}
	if stmt.Kind == domain.KindQuery {
		rows, err := e.Query(ctx, stmt, params, spec)
		if err != nil {
			return nil, err
		}
		return &Outcome{Kind: stmt.Kind, Rows: rows}, nil
	}
	n, err := e.Exec(ctx, stmt, params)
	if err != nil {
		return nil, err
	}
	return &Outcome{Kind: stmt.Kind, Affected: n}, nil
}

// prepare compiles and binds stmt.
func (e *Engine) prepare(stmt *domain.Statement, params *binder.ParameterSet) (*compiler.Compiled, []any, error) {
	compiled, err := e.Compile(stmt)
	if err != nil {
		return nil, nil, err
	}
	args, err := binder.Bind(compiled.Slots, params)
	if err != nil {
		return nil, nil, &domain.QueryError{Kind: stmt.Kind, Op: "bind", SQL: compiled.SQL, Cause: err}
	}
	e.logger.Trace().Str("kind", string(stmt.Kind)).Str("sql", compiled.SQL).Int("args", len(args)).Msg("statement prepared")
	return compiled, args, nil
}

// Query runs a query statement and returns its rows, materialized per spec.
func (e *Engine) Query(ctx context.Context, stmt *domain.Statement, params *binder.ParameterSet, spec domain.MaterializationSpec) (*ResultSet, error) {
	if stmt == nil {
		return nil, fmt.Errorf("executor: nil statement")
	}
	if stmt.Kind != domain.KindQuery {
		return nil, &domain.UnsupportedOperationError{Op: "query", Kind: stmt.Kind, Reason: "statement does not return rows"}
	}

	compiled, args, err := e.prepare(stmt, params)
	if err != nil {
		return nil, err
	}

	spec = shapeFields(spec, stmt)
	m := mapper.New(spec, compiled, e.metadata)
	if !compiled.Native {
		if err := m.Prepare(columnNames(compiled.Columns)); err != nil {
			return nil, &domain.QueryError{Kind: stmt.Kind, Op: "materialize", SQL: compiled.SQL, Cause: err}
		}
	} else if err := spec.Validate(); err != nil {
		return nil, &domain.QueryError{Kind: stmt.Kind, Op: "materialize", SQL: compiled.SQL, Cause: err}
	}

	conn, err := e.provider.Acquire(ctx)
	if err != nil {
		return nil, &domain.QueryError{Kind: stmt.Kind, Op: "acquire", SQL: compiled.SQL, Cause: Classify(err)}
	}

	event := &QueryEvent{Kind: stmt.Kind, SQL: compiled.SQL, Args: args}
	var rs *ResultSet
	err = run(ctx, e.middleware, event, func() error {
		rows, err := conn.QueryContext(ctx, compiled.SQL, args...)
		if err != nil {
			return Classify(err)
		}
		rs = newResultSet(rows, conn, m, stmt.Kind, compiled, e.logger)
		return nil
	})
	if err != nil {
		logging.DeferClose(e.logger, conn, "failed to release connection")
		return nil, &domain.QueryError{Kind: stmt.Kind, Op: "execute", SQL: compiled.SQL, Cause: err}
	}

	if err := rs.prepare(); err != nil {
		rs.Close()
		return nil, err
	}
	return rs, nil
}

// Exec runs an update, delete or insert statement and returns the number of
// affected rows.
func (e *Engine) Exec(ctx context.Context, stmt *domain.Statement, params *binder.ParameterSet) (int64, error) {
	if stmt == nil {
		return 0, fmt.Errorf("executor: nil statement")
	}
	if !stmt.Kind.IsDML() {
		return 0, &domain.UnsupportedOperationError{Op: "exec", Kind: stmt.Kind, Reason: "statement returns rows"}
	}

	compiled, args, err := e.prepare(stmt, params)
	if err != nil {
		return 0, err
	}

	conn, err := e.provider.Acquire(ctx)
	if err != nil {
		return 0, &domain.QueryError{Kind: stmt.Kind, Op: "acquire", SQL: compiled.SQL, Cause: Classify(err)}
	}
	defer logging.DeferClose(e.logger, conn, "failed to release connection")

	event := &QueryEvent{Kind: stmt.Kind, SQL: compiled.SQL, Args: args}
	err = run(ctx, e.middleware, event, func() error {
		res, err := conn.ExecContext(ctx, compiled.SQL, args...)
		if err != nil {
			return Classify(err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return err
		}
		event.Rows = n
		return nil
	})
	if err != nil {
		return 0, &domain.QueryError{Kind: stmt.Kind, Op: "execute", SQL: compiled.SQL, Cause: err}
	}
	return event.Rows, nil
}

// shapeFields completes a named shape that left its fields to the statement's
// constructor projection.
func shapeFields(spec domain.MaterializationSpec, stmt *domain.Statement) domain.MaterializationSpec {
	shape := stmt.Projection.Shape
	if spec.Kind != domain.ShapeNamed || shape == nil {
		return spec
	}
	if len(spec.Fields) == 0 {
		spec.Fields = shape.Fields
	}
	if spec.Name == "" {
		spec.Name = shape.Name
	}
	return spec
}

func columnNames(columns []compiler.Column) []string {
	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}
	return names
}

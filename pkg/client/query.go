package client

import (
	"context"

	"github.com/satishbabariya/unisql/internal/core/query/binder"
	"github.com/satishbabariya/unisql/internal/core/query/compiler"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/query/executor"
	"github.com/satishbabariya/unisql/internal/core/query/native"
)

// Query pairs a statement with its parameter values.
type Query struct {
	client *Client
	stmt   *domain.Statement
	params binder.ParameterSet
}

// Statement returns the underlying statement.
func (q *Query) Statement() *domain.Statement { return q.stmt }

// Params returns the bound parameters.
func (q *Query) Params() *binder.ParameterSet { return &q.params }

// Bind sets the value of the named placeholder ":name".
func (q *Query) Bind(name string, v any) *Query {
	q.params.Set(name, v)
	return q
}

// BindPositional sets the value of the positional placeholder "?pos".
func (q *Query) BindPositional(pos int, v any) *Query {
	q.params.SetPositional(pos, v)
	return q
}

// WithOffset returns a copy of q skipping the first n rows.
func (q *Query) WithOffset(n int) (*Query, error) {
	stmt, err := q.stmt.WithOffset(n)
	if err != nil {
		return nil, err
	}
	return q.derive(stmt), nil
}

// WithLimit returns a copy of q returning at most n rows; 0 removes the cap.
func (q *Query) WithLimit(n int) (*Query, error) {
	stmt, err := q.stmt.WithLimit(n)
	if err != nil {
		return nil, err
	}
	return q.derive(stmt), nil
}

func (q *Query) derive(stmt *domain.Statement) *Query {
	return &Query{client: q.client, stmt: stmt, params: *q.params.Clone()}
}

// Compile renders the query for the client's dialect.
func (q *Query) Compile() (*compiler.Compiled, error) {
	return q.client.engine.Compile(q.stmt)
}

// Execute runs the query. For row-returning statements the caller must close
// Outcome.Rows.
func (q *Query) Execute(ctx context.Context, spec domain.MaterializationSpec) (*executor.Outcome, error) {
	return q.client.engine.Execute(ctx, q.stmt, &q.params, spec)
}

// Iterate returns the lazy row sequence of a query statement. The caller
// must close it.
//
// With a DistinctRoot spec a root entity is returned when its first row is
// read, and its collection associations keep growing as later rows arrive.
// A root is complete only once Next has moved past its last row; use List
// to receive fully assembled roots.
func (q *Query) Iterate(ctx context.Context, spec domain.MaterializationSpec) (*executor.ResultSet, error) {
	return q.client.engine.Query(ctx, q.stmt, &q.params, spec)
}

// List returns every row. On a materialization failure the rows read before
// it are returned with the error.
func (q *Query) List(ctx context.Context, spec domain.MaterializationSpec) ([]any, error) {
	rs, err := q.Iterate(ctx, spec)
	if err != nil {
		return nil, err
	}
	return rs.All()
}

// Unique returns the single row of the result. It fails with ErrNoResult
// when there is none and ErrNonUniqueResult when there are several.
func (q *Query) Unique(ctx context.Context, spec domain.MaterializationSpec) (any, error) {
	rs, err := q.Iterate(ctx, spec)
	if err != nil {
		return nil, err
	}
	defer rs.Close()

	if !rs.Next() {
		if err := rs.Err(); err != nil {
			return nil, err
		}
		return nil, ErrNoResult
	}
	v := rs.Value()
	if rs.Next() {
		return nil, ErrNonUniqueResult
	}
	if err := rs.Err(); err != nil {
		return nil, err
	}
	return v, nil
}

// ExecuteUpdate runs an update, delete or insert and returns the number of
// affected rows.
func (q *Query) ExecuteUpdate(ctx context.Context) (int64, error) {
	return q.client.engine.Exec(ctx, q.stmt, &q.params)
}

// NativeQuery is a Query over caller-supplied SQL. Entity and join
// declarations must precede Query.
type NativeQuery struct {
	client *Client
	q      *native.Query
	params binder.ParameterSet
}

// AddEntity declares that the columns of alias hold an entity.
func (n *NativeQuery) AddEntity(alias, entity string) *NativeQuery {
	n.q.AddEntity(alias, entity)
	return n
}

// AddJoin declares that the columns of alias hold the association at path
// ("ownerAlias.association").
func (n *NativeQuery) AddJoin(alias, path string) *NativeQuery {
	n.q.AddJoin(alias, path)
	return n
}

// AsKind overrides the statement kind sniffed from the text.
func (n *NativeQuery) AsKind(kind domain.StatementKind) *NativeQuery {
	n.q.AsKind(kind)
	return n
}

// Bind sets the value of the named placeholder ":name".
func (n *NativeQuery) Bind(name string, v any) *NativeQuery {
	n.params.Set(name, v)
	return n
}

// BindPositional sets the value of the positional placeholder "?pos".
func (n *NativeQuery) BindPositional(pos int, v any) *NativeQuery {
	n.params.SetPositional(pos, v)
	return n
}

// Query returns the executable query, or the first declaration error.
func (n *NativeQuery) Query() (*Query, error) {
	stmt, err := n.q.Statement()
	if err != nil {
		return nil, err
	}
	return &Query{client: n.client, stmt: stmt, params: *n.params.Clone()}, nil
}

// List runs the query and returns every row.
func (n *NativeQuery) List(ctx context.Context, spec domain.MaterializationSpec) ([]any, error) {
	q, err := n.Query()
	if err != nil {
		return nil, err
	}
	return q.List(ctx, spec)
}

// Unique runs the query and returns its single row.
func (n *NativeQuery) Unique(ctx context.Context, spec domain.MaterializationSpec) (any, error) {
	q, err := n.Query()
	if err != nil {
		return nil, err
	}
	return q.Unique(ctx, spec)
}

// ExecuteUpdate runs a DML statement and returns the affected row count.
func (n *NativeQuery) ExecuteUpdate(ctx context.Context) (int64, error) {
	q, err := n.Query()
	if err != nil {
		return 0, err
	}
	return q.ExecuteUpdate(ctx)
}

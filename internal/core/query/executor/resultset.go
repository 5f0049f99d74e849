package executor

import (
	"database/sql"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/satishbabariya/unisql/internal/adapters/database"
	"github.com/satishbabariya/unisql/internal/core/query/compiler"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/query/mapper"
)

// ResultSet is a lazy sequence of materialized rows. It holds its connection
// until the rows are exhausted, a row fails to materialize, or Close is
// called. Rows already returned stay valid after a later failure.
//
// Under DISTINCT_ROOT a root entity is returned the first time it is seen;
// rows read later may still add to its associations.
//
//	rs, err := engine.Query(ctx, stmt, params, domain.Tuple())
//	defer rs.Close()
//	for rs.Next() {
//		row := rs.Value().([]any)
//	}
//	err = rs.Err()
type ResultSet struct {
	rows     *sql.Rows
	conn     database.Conn
	m        *mapper.Materializer
	kind     domain.StatementKind
	compiled *compiler.Compiled
	logger   zerolog.Logger

	columns []string
	row     int
	current any
	err     error
	closed  bool
}

func newResultSet(rows *sql.Rows, conn database.Conn, m *mapper.Materializer, kind domain.StatementKind, compiled *compiler.Compiled, logger zerolog.Logger) *ResultSet {
	return &ResultSet{rows: rows, conn: conn, m: m, kind: kind, compiled: compiled, logger: logger}
}

func (r *ResultSet) wrap(op string, err error) error {
	return &domain.QueryError{Kind: r.kind, Op: op, SQL: r.compiled.SQL, Cause: err}
}

// prepare matches the driver's columns against the materializer.
func (r *ResultSet) prepare() error {
	columns, err := r.rows.Columns()
	if err != nil {
		return r.wrap("execute", Classify(err))
	}
	r.columns = columns

	if r.compiled.Native {
		err = r.m.Prepare(columns)
	} else if len(columns) != len(r.compiled.Columns) {
		err = &domain.ShapeMismatchError{
			Shape: r.m.Spec().Kind,
			Row:   -1,
			Msg:   fmt.Sprintf("statement returned %d columns, %d expected", len(columns), len(r.compiled.Columns)),
		}
	}
	if err != nil {
		return r.wrap("materialize", err)
	}
	return nil
}

// Columns returns the column names reported by the driver.
func (r *ResultSet) Columns() []string { return r.columns }

// Next advances to the next materialized row. It returns false when the
// rows are exhausted or an error occurred; check Err afterwards.
func (r *ResultSet) Next() bool {
	if r.closed || r.err != nil {
		return false
	}

	for r.rows.Next() {
		values := make([]any, len(r.columns))
		dest := make([]any, len(values))
		for i := range values {
			dest[i] = &values[i]
		}
		if err := r.rows.Scan(dest...); err != nil {
			r.fail(r.wrap("fetch", Classify(err)))
			return false
		}

		out, emit, err := r.m.Row(r.row, values)
		r.row++
		if err != nil {
			r.fail(r.wrap("materialize", err))
			return false
		}
		if !emit {
			continue
		}
		r.current = out
		return true
	}

	if err := r.rows.Err(); err != nil {
		r.fail(r.wrap("fetch", Classify(err)))
		return false
	}
	r.current = nil
	r.Close()
	return false
}

func (r *ResultSet) fail(err error) {
	r.err = err
	r.current = nil
	r.Close()
}

// Value returns the row produced by the last successful Next.
func (r *ResultSet) Value() any { return r.current }

// Err returns the error that stopped iteration, if any.
func (r *ResultSet) Err() error { return r.err }

// Close releases the rows and the connection. It is safe to call more than
// once.
func (r *ResultSet) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true
	rowsErr := r.rows.Close()
	connErr := r.conn.Close()
	if rowsErr != nil {
		return rowsErr
	}
	if connErr != nil {
		r.logger.Warn().Err(connErr).Msg("failed to release connection")
	}
	return connErr
}

// All drains the remaining rows and closes the set. On error it returns the
// rows materialized before the failure together with the error.
func (r *ResultSet) All() ([]any, error) {
	defer r.Close()
	var out []any
	for r.Next() {
		out = append(out, r.Value())
	}
	return out, r.Err()
}

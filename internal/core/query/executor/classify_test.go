package executor_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"
	"testing"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/query/executor"
)

func TestClassify_Constraints(t *testing.T) {
	tests := []struct {
		name       string
		err        error
		kind       domain.ConstraintKind
		constraint string
	}{
		{
			name: "postgres unique",
			err:  &pq.Error{Code: "23505", Constraint: "users_username_key", Message: "duplicate key value"},
			kind: domain.ConstraintUnique, constraint: "users_username_key",
		},
		{
			name: "postgres foreign key",
			err:  &pq.Error{Code: "23503", Constraint: "posts_user_id_fkey"},
			kind: domain.ConstraintForeignKey, constraint: "posts_user_id_fkey",
		},
		{
			name: "postgres not null",
			err:  &pq.Error{Code: "23502", Column: "password"},
			kind: domain.ConstraintNotNull, constraint: "password",
		},
		{
			name: "mysql duplicate",
			err:  &mysql.MySQLError{Number: 1062, Message: "Duplicate entry 'user01' for key 'users.username'"},
			kind: domain.ConstraintUnique, constraint: "users.username",
		},
		{
			name: "mysql foreign key",
			err: &mysql.MySQLError{Number: 1452, Message: "Cannot add or update a child row: a foreign key constraint fails " +
				"(`app`.`posts`, CONSTRAINT `posts_user_fk` FOREIGN KEY (`user_id`) REFERENCES `users` (`id`))"},
			kind: domain.ConstraintForeignKey, constraint: "posts_user_fk",
		},
		{
			name: "mysql not null",
			err:  &mysql.MySQLError{Number: 1048, Message: "Column 'password' cannot be null"},
			kind: domain.ConstraintNotNull, constraint: "password",
		},
		{
			name: "mysql check",
			err:  &mysql.MySQLError{Number: 3819, Message: "Check constraint 'age_positive' is violated."},
			kind: domain.ConstraintCheck, constraint: "age_positive",
		},
		{
			name: "sqlite foreign key",
			err:  sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintForeignKey},
			kind: domain.ConstraintForeignKey,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := executor.Classify(fmt.Errorf("exec: %w", tt.err))
			var cv *domain.ConstraintViolationError
			require.ErrorAs(t, err, &cv)
			assert.Equal(t, tt.kind, cv.Kind)
			assert.Equal(t, tt.constraint, cv.Constraint)
			assert.ErrorIs(t, err, domain.ErrConstraintViolation)
		})
	}
}

func TestClassify_TypeMismatch(t *testing.T) {
	for _, err := range []error{
		&pq.Error{Code: "22P02", Message: "invalid input syntax for type integer"},
		&mysql.MySQLError{Number: 1366, Message: "Incorrect integer value: 'x' for column 'id' at row 1"},
		sqlite3.Error{Code: sqlite3.ErrMismatch},
	} {
		assert.ErrorIs(t, executor.Classify(err), domain.ErrTypeMismatch, "%T", err)
	}
}

type timeoutError struct{}

func (timeoutError) Error() string   { return "i/o timeout" }
func (timeoutError) Timeout() bool   { return true }
func (timeoutError) Temporary() bool { return true }

var _ net.Error = timeoutError{}

func TestClassify_Connectivity(t *testing.T) {
	for _, err := range []error{
		driver.ErrBadConn,
		mysql.ErrInvalidConn,
		&net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")},
		timeoutError{},
		&pq.Error{Code: "08006"},
		&mysql.MySQLError{Number: 2013, Message: "Lost connection to MySQL server during query"},
		sqlite3.Error{Code: sqlite3.ErrCantOpen},
	} {
		err := executor.Classify(err)
		assert.ErrorIs(t, err, domain.ErrConnectivity, "%v", err)
	}
}

func TestClassify_Passthrough(t *testing.T) {
	assert.NoError(t, executor.Classify(nil))

	plain := errors.New("syntax error near FROM")
	assert.Same(t, plain, executor.Classify(plain))

	assert.Equal(t, context.Canceled, executor.Classify(context.Canceled))

	other := &pq.Error{Code: "42P01", Message: "relation does not exist"}
	assert.Equal(t, error(other), executor.Classify(other))
}

package executor

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"errors"
	"net"
	"regexp"
	"strings"

	"github.com/go-sql-driver/mysql"
	"github.com/lib/pq"
	"github.com/mattn/go-sqlite3"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// Classify maps a driver error onto the error taxonomy. Errors it does not
// recognise are returned unchanged, as are context errors.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}

	var sqliteErr sqlite3.Error
	if errors.As(err, &sqliteErr) {
		return classifySQLite(sqliteErr, err)
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return classifyPostgres(pqErr, err)
	}
	var mysqlErr *mysql.MySQLError
	if errors.As(err, &mysqlErr) {
		return classifyMySQL(mysqlErr, err)
	}

	if errors.Is(err, driver.ErrBadConn) || errors.Is(err, mysql.ErrInvalidConn) || errors.Is(err, sql.ErrConnDone) {
		return &domain.ConnectivityError{Cause: err}
	}
	var netErr net.Error
	if errors.As(err, &netErr) {
		return &domain.ConnectivityError{Cause: err}
	}
	return err
}

func classifySQLite(e sqlite3.Error, err error) error {
	switch e.Code {
	case sqlite3.ErrConstraint:
		kind := domain.ConstraintUnknown
		switch e.ExtendedCode {
		case sqlite3.ErrConstraintUnique:
			kind = domain.ConstraintUnique
		case sqlite3.ErrConstraintPrimaryKey:
			kind = domain.ConstraintPrimaryKey
		case sqlite3.ErrConstraintForeignKey:
			kind = domain.ConstraintForeignKey
		case sqlite3.ErrConstraintNotNull:
			kind = domain.ConstraintNotNull
		case sqlite3.ErrConstraintCheck:
			kind = domain.ConstraintCheck
		}
		// "UNIQUE constraint failed: users.username"
		_, name, _ := strings.Cut(e.Error(), "constraint failed: ")
		return &domain.ConstraintViolationError{Kind: kind, Constraint: name, Cause: err}
	case sqlite3.ErrMismatch:
		return &domain.TypeMismatchError{Cause: err}
	case sqlite3.ErrCantOpen, sqlite3.ErrIoErr, sqlite3.ErrNotADB:
		return &domain.ConnectivityError{Cause: err}
	}
	return err
}

func classifyPostgres(e *pq.Error, err error) error {
	switch e.Code.Class() {
	case "23":
		kind := domain.ConstraintUnknown
		switch e.Code.Name() {
		case "unique_violation":
			kind = domain.ConstraintUnique
		case "foreign_key_violation":
			kind = domain.ConstraintForeignKey
		case "not_null_violation":
			kind = domain.ConstraintNotNull
		case "check_violation":
			kind = domain.ConstraintCheck
		}
		constraint := e.Constraint
		if constraint == "" && kind == domain.ConstraintNotNull {
			constraint = e.Column
		}
		return &domain.ConstraintViolationError{Kind: kind, Constraint: constraint, Cause: err}
	case "22":
		return &domain.TypeMismatchError{Target: e.Column, Cause: err}
	case "08", "57":
		return &domain.ConnectivityError{Cause: err}
	}
	return err
}

var (
	mysqlKey        = regexp.MustCompile("for key '([^']+)'")
	mysqlConstraint = regexp.MustCompile("CONSTRAINT `([^`]+)`")
	mysqlCheck      = regexp.MustCompile("[Cc]heck constraint '([^']+)'")
	mysqlColumn     = regexp.MustCompile("[Cc]olumn '([^']+)'")
)

func submatch(re *regexp.Regexp, s string) string {
	if m := re.FindStringSubmatch(s); m != nil {
		return m[1]
	}
	return ""
}

func classifyMySQL(e *mysql.MySQLError, err error) error {
	switch e.Number {
	case 1062, 1586:
		return &domain.ConstraintViolationError{Kind: domain.ConstraintUnique, Constraint: submatch(mysqlKey, e.Message), Cause: err}
	case 1451, 1452, 1216, 1217:
		return &domain.ConstraintViolationError{Kind: domain.ConstraintForeignKey, Constraint: submatch(mysqlConstraint, e.Message), Cause: err}
	case 1048, 1364:
		return &domain.ConstraintViolationError{Kind: domain.ConstraintNotNull, Constraint: submatch(mysqlColumn, e.Message), Cause: err}
	case 3819:
		return &domain.ConstraintViolationError{Kind: domain.ConstraintCheck, Constraint: submatch(mysqlCheck, e.Message), Cause: err}
	case 1366, 1292, 1264, 1406:
		return &domain.TypeMismatchError{Target: submatch(mysqlColumn, e.Message), Cause: err}
	case 1040, 1053, 2002, 2003, 2006, 2013:
		return &domain.ConnectivityError{Cause: err}
	}
	return err
}

package client

import (
	"errors"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// Sentinel errors. Every typed error matches its sentinel with errors.Is.
var (
	ErrSyntax               = domain.ErrSyntax
	ErrResolution           = domain.ErrResolution
	ErrUnknownPlaceholder   = domain.ErrUnknownPlaceholder
	ErrTypeMismatch         = domain.ErrTypeMismatch
	ErrConstraintViolation  = domain.ErrConstraintViolation
	ErrConnectivity         = domain.ErrConnectivity
	ErrShapeMismatch        = domain.ErrShapeMismatch
	ErrUnsupportedOperation = domain.ErrUnsupportedOperation
	ErrNoResult             = domain.ErrNoResult
	ErrNonUniqueResult      = domain.ErrNonUniqueResult
)

// Typed errors, for use with errors.As.
type (
	SyntaxError               = domain.SyntaxError
	ResolutionError           = domain.ResolutionError
	UnknownPlaceholderError   = domain.UnknownPlaceholderError
	TypeMismatchError         = domain.TypeMismatchError
	ConstraintViolationError  = domain.ConstraintViolationError
	ConnectivityError         = domain.ConnectivityError
	ShapeMismatchError        = domain.ShapeMismatchError
	UnsupportedOperationError = domain.UnsupportedOperationError
	QueryError                = domain.QueryError
)

// IsSyntax reports whether err is a template syntax error.
func IsSyntax(err error) bool { return errors.Is(err, ErrSyntax) }

// IsResolution reports whether err names an unknown entity, field, association or alias.
func IsResolution(err error) bool { return errors.Is(err, ErrResolution) }

// IsUnknownPlaceholder reports whether err is a placeholder/value mismatch.
func IsUnknownPlaceholder(err error) bool { return errors.Is(err, ErrUnknownPlaceholder) }

// IsTypeMismatch reports whether err is a type mismatch.
func IsTypeMismatch(err error) bool { return errors.Is(err, ErrTypeMismatch) }

// IsConstraintViolation reports whether the data source rejected the request.
func IsConstraintViolation(err error) bool { return errors.Is(err, ErrConstraintViolation) }

// IsUniqueViolation reports whether err is a unique or primary key violation.
func IsUniqueViolation(err error) bool {
	var cv *ConstraintViolationError
	if !errors.As(err, &cv) {
		return false
	}
	return cv.Kind == domain.ConstraintUnique || cv.Kind == domain.ConstraintPrimaryKey
}

// IsForeignKeyViolation reports whether err is a foreign key violation.
func IsForeignKeyViolation(err error) bool {
	var cv *ConstraintViolationError
	return errors.As(err, &cv) && cv.Kind == domain.ConstraintForeignKey
}

// IsConnectivity reports whether err is a transport failure. Such errors are
// safe to retry; see Retry.
func IsConnectivity(err error) bool { return errors.Is(err, ErrConnectivity) }

// IsShapeMismatch reports whether a row could not be materialized.
func IsShapeMismatch(err error) bool { return errors.Is(err, ErrShapeMismatch) }

// IsUnsupportedOperation reports whether an operation was invalid for the statement kind.
func IsUnsupportedOperation(err error) bool { return errors.Is(err, ErrUnsupportedOperation) }

// IsNoResult reports whether a unique lookup matched nothing.
func IsNoResult(err error) bool { return errors.Is(err, ErrNoResult) }

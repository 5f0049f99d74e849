package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every typed error below matches its sentinel with errors.Is.
var (
	// ErrSyntax indicates a malformed template.
	ErrSyntax = errors.New("unisql: syntax error")

	// ErrResolution indicates an unknown entity, field, association, alias or function.
	ErrResolution = errors.New("unisql: unresolved reference")

	// ErrUnknownPlaceholder indicates a placeholder without a value, or a value without a placeholder.
	ErrUnknownPlaceholder = errors.New("unisql: unknown placeholder")

	// ErrTypeMismatch indicates a value incompatible with its target column or expression.
	ErrTypeMismatch = errors.New("unisql: type mismatch")

	// ErrConstraintViolation indicates the data source rejected the request.
	ErrConstraintViolation = errors.New("unisql: constraint violation")

	// ErrConnectivity indicates a transport failure. It is safe for callers to retry.
	ErrConnectivity = errors.New("unisql: connectivity failure")

	// ErrShapeMismatch indicates a row that cannot be materialized into the requested shape.
	ErrShapeMismatch = errors.New("unisql: shape mismatch")

	// ErrUnsupportedOperation indicates an operation invalid for the statement kind.
	ErrUnsupportedOperation = errors.New("unisql: unsupported operation")

	// ErrNoResult is returned by unique-result lookups that match no row.
	ErrNoResult = errors.New("unisql: no result")

	// ErrNonUniqueResult is returned by unique-result lookups that match several rows.
	ErrNonUniqueResult = errors.New("unisql: result is not unique")
)

// SyntaxError reports a malformed template at a position.
type SyntaxError struct {
	Offset int
	Line   int
	Column int
	Msg    string
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("unisql: syntax error at %d:%d: %s", e.Line, e.Column, e.Msg)
}

// Is matches ErrSyntax.
func (e *SyntaxError) Is(target error) bool { return target == ErrSyntax }

// ResolutionError names a reference that could not be resolved.
type ResolutionError struct {
	Kind   string // entity, field, association, alias, function
	Name   string
	Scope  string
	Reason string
}

func (e *ResolutionError) Error() string {
	msg := fmt.Sprintf("unisql: unresolved %s %q", e.Kind, e.Name)
	if e.Scope != "" {
		msg += " in " + e.Scope
	}
	if e.Reason != "" {
		msg += ": " + e.Reason
	}
	return msg
}

// Is matches ErrResolution.
func (e *ResolutionError) Is(target error) bool { return target == ErrResolution }

// UnknownPlaceholderError reports a placeholder that was never bound, or, when
// Unreferenced is set, a supplied parameter that matches no placeholder.
type UnknownPlaceholderError struct {
	Name         string
	Position     int
	Unreferenced bool
}

func (e *UnknownPlaceholderError) Error() string {
	key := Param{Name: e.Name, Position: e.Position}.Key()
	if e.Unreferenced {
		return fmt.Sprintf("unisql: parameter %s does not match any placeholder", key)
	}
	return fmt.Sprintf("unisql: placeholder %s was never bound", key)
}

// Is matches ErrUnknownPlaceholder.
func (e *UnknownPlaceholderError) Is(target error) bool { return target == ErrUnknownPlaceholder }

// TypeMismatchError reports a value whose Go type is incompatible with the expected logical type.
type TypeMismatchError struct {
	Target   string
	Expected LogicalType
	Value    any
	Cause    error
}

func (e *TypeMismatchError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("unisql: type mismatch: %v", e.Cause)
	}
	return fmt.Sprintf("unisql: type mismatch for %s: expected %s, got %T", e.Target, e.Expected, e.Value)
}

// Unwrap returns the underlying driver error, if any.
func (e *TypeMismatchError) Unwrap() error { return e.Cause }

// Is matches ErrTypeMismatch.
func (e *TypeMismatchError) Is(target error) bool { return target == ErrTypeMismatch }

// ConstraintKind classifies a constraint violation.
type ConstraintKind string

const (
	ConstraintUnique     ConstraintKind = "unique"
	ConstraintForeignKey ConstraintKind = "foreign_key"
	ConstraintNotNull    ConstraintKind = "not_null"
	ConstraintCheck      ConstraintKind = "check"
	ConstraintPrimaryKey ConstraintKind = "primary_key"
	ConstraintUnknown    ConstraintKind = "unknown"
)

// ConstraintViolationError reports a request rejected by the data source.
// Constraint is the violated constraint name when the driver reports one.
type ConstraintViolationError struct {
	Kind       ConstraintKind
	Constraint string
	Cause      error
}

func (e *ConstraintViolationError) Error() string {
	if e.Constraint != "" {
		return fmt.Sprintf("unisql: %s constraint %q violated: %v", e.Kind, e.Constraint, e.Cause)
	}
	return fmt.Sprintf("unisql: %s constraint violated: %v", e.Kind, e.Cause)
}

// Unwrap returns the driver error.
func (e *ConstraintViolationError) Unwrap() error { return e.Cause }

// Is matches ErrConstraintViolation.
func (e *ConstraintViolationError) Is(target error) bool { return target == ErrConstraintViolation }

// ConnectivityError wraps a transport-level failure.
type ConnectivityError struct {
	Cause error
}

func (e *ConnectivityError) Error() string {
	return fmt.Sprintf("unisql: connectivity failure: %v", e.Cause)
}

// Unwrap returns the transport error.
func (e *ConnectivityError) Unwrap() error { return e.Cause }

// Is matches ErrConnectivity.
func (e *ConnectivityError) Is(target error) bool { return target == ErrConnectivity }

// ShapeMismatchError reports a row incompatible with the requested materialization.
// Row is the zero-based index of the offending row, or -1 for construction-time checks.
type ShapeMismatchError struct {
	Shape ShapeKind
	Row   int
	Msg   string
}

func (e *ShapeMismatchError) Error() string {
	if e.Row < 0 {
		return fmt.Sprintf("unisql: cannot materialize %s: %s", e.Shape, e.Msg)
	}
	return fmt.Sprintf("unisql: cannot materialize row %d as %s: %s", e.Row, e.Shape, e.Msg)
}

// Is matches ErrShapeMismatch.
func (e *ShapeMismatchError) Is(target error) bool { return target == ErrShapeMismatch }

// UnsupportedOperationError reports an operation invalid for the statement kind.
type UnsupportedOperationError struct {
	Op     string
	Kind   StatementKind
	Reason string
}

func (e *UnsupportedOperationError) Error() string {
	if e.Reason != "" {
		return fmt.Sprintf("unisql: %s on %s statement: %s", e.Op, e.Kind, e.Reason)
	}
	return fmt.Sprintf("unisql: %s is not supported on %s statements", e.Op, e.Kind)
}

// Is matches ErrUnsupportedOperation.
func (e *UnsupportedOperationError) Is(target error) bool { return target == ErrUnsupportedOperation }

// QueryError attaches the statement kind and the failing step to an execution error.
type QueryError struct {
	Kind  StatementKind
	Op    string
	SQL   string
	Cause error
}

func (e *QueryError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Kind, e.Cause)
}

// Unwrap returns the underlying error.
func (e *QueryError) Unwrap() error { return e.Cause }

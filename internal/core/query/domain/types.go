// Package domain contains the statement model shared by every query front-end:
// expressions, predicates, projections, joins, pagination, the materialization
// spec and the error taxonomy.
package domain

import (
	"fmt"
	"strings"
)

// LogicalType is the storage-independent type of a field, expression or parameter.
type LogicalType string

const (
	// TypeAny accepts any value and performs no validation.
	TypeAny LogicalType = "any"
	// TypeString is textual data.
	TypeString LogicalType = "string"
	// TypeInt is a signed integer.
	TypeInt LogicalType = "int"
	// TypeFloat is a floating point number.
	TypeFloat LogicalType = "float"
	// TypeBool is a boolean.
	TypeBool LogicalType = "bool"
	// TypeTime is a timestamp.
	TypeTime LogicalType = "time"
	// TypeBytes is raw binary data.
	TypeBytes LogicalType = "bytes"
	// TypeUUID is a UUID, stored as its canonical string form.
	TypeUUID LogicalType = "uuid"
)

// ParseLogicalType parses a type name as it appears in mapping documents.
func ParseLogicalType(name string) (LogicalType, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "any":
		return TypeAny, nil
	case "string", "text", "varchar":
		return TypeString, nil
	case "int", "integer", "long", "bigint":
		return TypeInt, nil
	case "float", "double", "decimal", "real":
		return TypeFloat, nil
	case "bool", "boolean":
		return TypeBool, nil
	case "time", "datetime", "timestamp", "date":
		return TypeTime, nil
	case "bytes", "blob", "binary":
		return TypeBytes, nil
	case "uuid":
		return TypeUUID, nil
	default:
		return "", fmt.Errorf("unknown logical type %q", name)
	}
}

// IsNumeric reports whether the type is Int or Float.
func (t LogicalType) IsNumeric() bool {
	return t == TypeInt || t == TypeFloat
}

// StatementKind selects the execution path of a statement.
type StatementKind string

const (
	// KindQuery returns rows.
	KindQuery StatementKind = "query"
	// KindUpdate modifies rows and returns an affected-row count.
	KindUpdate StatementKind = "update"
	// KindDelete removes rows and returns an affected-row count.
	KindDelete StatementKind = "delete"
	// KindInsert inserts rows and returns an affected-row count.
	KindInsert StatementKind = "insert"
)

// IsDML reports whether the kind returns an affected-row count instead of rows.
func (k StatementKind) IsDML() bool {
	return k == KindUpdate || k == KindDelete || k == KindInsert
}

// SQLDialect represents a SQL dialect.
type SQLDialect string

const (
	// PostgreSQL dialect.
	PostgreSQL SQLDialect = "postgres"
	// MySQL dialect.
	MySQL SQLDialect = "mysql"
	// SQLite dialect.
	SQLite SQLDialect = "sqlite"
)

// ParseDialect maps a provider name to a dialect.
func ParseDialect(provider string) (SQLDialect, error) {
	switch strings.ToLower(provider) {
	case "postgres", "postgresql":
		return PostgreSQL, nil
	case "mysql", "mariadb":
		return MySQL, nil
	case "sqlite", "sqlite3":
		return SQLite, nil
	default:
		return "", fmt.Errorf("unsupported provider %q", provider)
	}
}

// Package schema holds entity mapping metadata: which table and columns back an
// entity, and how entities are associated.
package schema

import (
	"strings"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// Provider resolves entity metadata by logical type name.
type Provider interface {
	Entity(name string) (*Entity, error)
}

// Entity describes one persistent record type.
type Entity struct {
	Name         string
	Table        string
	Fields       []Field
	Associations []Association
}

// Field maps a persistent property to its column.
type Field struct {
	Name     string
	Column   string
	Type     domain.LogicalType
	Nullable bool
	ID       bool
}

// AssociationKind is the cardinality of an association.
type AssociationKind string

const (
	OneToOne  AssociationKind = "one-to-one"
	ManyToOne AssociationKind = "many-to-one"
	OneToMany AssociationKind = "one-to-many"
)

// IsCollection reports whether the association holds many targets.
func (k AssociationKind) IsCollection() bool { return k == OneToMany }

// Association is a navigable relation to another entity. The join condition is
// owner.LocalColumn = target.TargetColumn.
type Association struct {
	Name         string
	Target       string
	Kind         AssociationKind
	LocalColumn  string
	TargetColumn string
}

// Field returns the field with the given name.
func (e *Entity) Field(name string) (*Field, bool) {
	for i := range e.Fields {
		if e.Fields[i].Name == name {
			return &e.Fields[i], true
		}
	}
	return nil, false
}

// FieldByColumn returns the field mapped to column, compared case-insensitively.
func (e *Entity) FieldByColumn(column string) (*Field, bool) {
	for i := range e.Fields {
		if strings.EqualFold(e.Fields[i].Column, column) {
			return &e.Fields[i], true
		}
	}
	return nil, false
}

// Association returns the association with the given name.
func (e *Entity) Association(name string) (*Association, bool) {
	for i := range e.Associations {
		if e.Associations[i].Name == name {
			return &e.Associations[i], true
		}
	}
	return nil, false
}

// IDFields returns the identifier fields, or the first field when none is marked.
func (e *Entity) IDFields() []Field {
	var ids []Field
	for _, f := range e.Fields {
		if f.ID {
			ids = append(ids, f)
		}
	}
	if len(ids) == 0 && len(e.Fields) > 0 {
		ids = append(ids, e.Fields[0])
	}
	return ids
}

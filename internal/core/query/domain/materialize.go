package domain

import "fmt"

// ShapeKind selects the output shape of a query.
type ShapeKind string

const (
	ShapeScalar          ShapeKind = "scalar"
	ShapeTuple           ShapeKind = "tuple"
	ShapeNamed           ShapeKind = "named"
	ShapeEntity          ShapeKind = "entity"
	ShapeEntityWithJoins ShapeKind = "entity_with_joins"
	ShapeMapRow          ShapeKind = "map_row"
)

// Constructor builds a caller-defined value from the values of one row, given in
// the declared field order.
type Constructor func(values []any) (any, error)

// MaterializationSpec is the caller's declaration of the shape each result row
// takes. Construct it with Scalar, Tuple, NamedShape, EntitySpec, EntityWithJoins
// or MapRow.
type MaterializationSpec struct {
	Kind ShapeKind

	// Name and Fields declare a named shape; Construct is optional.
	Name      string
	Fields    []string
	Construct Constructor

	// Entity is the entity type for ShapeEntity and the root type for ShapeEntityWithJoins.
	Entity string
	// Joins lists the join aliases materialized after the root.
	Joins []string
	// Distinct folds repeated roots into one instance (DISTINCT_ROOT).
	Distinct bool
}

// Scalar expects exactly one column per row and yields its value.
func Scalar() MaterializationSpec { return MaterializationSpec{Kind: ShapeScalar} }

// Tuple yields each row as []any aligned with the projection.
func Tuple() MaterializationSpec { return MaterializationSpec{Kind: ShapeTuple} }

// NamedShape assigns row values positionally to fields. When construct is nil the
// row is returned as a *Record.
func NamedShape(name string, fields []string, construct Constructor) MaterializationSpec {
	return MaterializationSpec{Kind: ShapeNamed, Name: name, Fields: fields, Construct: construct}
}

// EntitySpec assembles every row into one instance of entity.
func EntitySpec(entity string) MaterializationSpec {
	return MaterializationSpec{Kind: ShapeEntity, Entity: entity}
}

// EntityWithJoins yields []any{root, joined...}, one entity per span.
func EntityWithJoins(root string, aliases ...string) MaterializationSpec {
	return MaterializationSpec{Kind: ShapeEntityWithJoins, Entity: root, Joins: aliases}
}

// DistinctRoot switches an EntityWithJoins spec to folding mode: one root per
// identity, with joined rows accumulated into its associations.
func (s MaterializationSpec) DistinctRoot() MaterializationSpec {
	s.Distinct = true
	return s
}

// MapRow yields map[string]any keyed by column alias.
func MapRow() MaterializationSpec { return MaterializationSpec{Kind: ShapeMapRow} }

// Validate checks the spec on its own, before it is matched against any columns.
func (s MaterializationSpec) Validate() error {
	switch s.Kind {
	case ShapeScalar, ShapeTuple, ShapeMapRow:
	case ShapeNamed:
		if len(s.Fields) == 0 {
			return &ShapeMismatchError{Shape: s.Kind, Row: -1, Msg: "named shape declares no fields"}
		}
		seen := make(map[string]bool, len(s.Fields))
		for _, f := range s.Fields {
			if seen[f] {
				return &ShapeMismatchError{Shape: s.Kind, Row: -1, Msg: fmt.Sprintf("duplicate field %q", f)}
			}
			seen[f] = true
		}
	case ShapeEntity, ShapeEntityWithJoins:
		if s.Entity == "" {
			return &ShapeMismatchError{Shape: s.Kind, Row: -1, Msg: "entity type is required"}
		}
	default:
		return &ShapeMismatchError{Shape: s.Kind, Row: -1, Msg: "unknown shape"}
	}
	if s.Distinct && s.Kind != ShapeEntityWithJoins {
		return &ShapeMismatchError{Shape: s.Kind, Row: -1, Msg: "distinct root applies to entity_with_joins only"}
	}
	return nil
}

func (s MaterializationSpec) String() string {
	switch s.Kind {
	case ShapeNamed:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Name)
	case ShapeEntity:
		return fmt.Sprintf("%s(%s)", s.Kind, s.Entity)
	case ShapeEntityWithJoins:
		if s.Distinct {
			return fmt.Sprintf("%s(%s, %v, distinct_root)", s.Kind, s.Entity, s.Joins)
		}
		return fmt.Sprintf("%s(%s, %v)", s.Kind, s.Entity, s.Joins)
	default:
		return string(s.Kind)
	}
}

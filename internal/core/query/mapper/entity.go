package mapper

import (
	"fmt"
	"strings"
)

// Entity is a materialized entity instance.
type Entity struct {
	Type string
	// Values holds field values by field name.
	Values map[string]any
	// Order lists field names in declaration order.
	Order []string
	// Associations holds loaded associations by name: *Entity for to-one
	// associations, []*Entity for collections.
	Associations map[string]any

	id string
}

func newEntity(typ string, n int) *Entity {
	return &Entity{
		Type:   typ,
		Values: make(map[string]any, n),
		Order:  make([]string, 0, n),
	}
}

// Get returns the value of field.
func (e *Entity) Get(field string) any { return e.Values[field] }

// One returns the to-one association name, or nil when it is not loaded or empty.
func (e *Entity) One(name string) *Entity {
	v, _ := e.Associations[name].(*Entity)
	return v
}

// Many returns the collection association name.
func (e *Entity) Many(name string) []*Entity {
	v, _ := e.Associations[name].([]*Entity)
	return v
}

func (e *Entity) String() string {
	var b strings.Builder
	b.WriteString(e.Type)
	b.WriteString("{")
	for i, f := range e.Order {
		if i > 0 {
			b.WriteString(", ")
		}
		fmt.Fprintf(&b, "%s: %v", f, e.Values[f])
	}
	b.WriteString("}")
	return b.String()
}

func (e *Entity) set(field string, v any) {
	if _, ok := e.Values[field]; !ok {
		e.Order = append(e.Order, field)
	}
	e.Values[field] = v
}

func (e *Entity) attachOne(name string, target *Entity) {
	if e.Associations == nil {
		e.Associations = make(map[string]any)
	}
	if _, done := e.Associations[name]; done {
		return
	}
	e.Associations[name] = target
}

func (e *Entity) attachMany(name string, target *Entity) {
	if e.Associations == nil {
		e.Associations = make(map[string]any)
	}
	list, _ := e.Associations[name].([]*Entity)
	if target == nil {
		if list == nil {
			e.Associations[name] = []*Entity{}
		}
		return
	}
	for _, existing := range list {
		if existing.id == target.id {
			return
		}
	}
	e.Associations[name] = append(list, target)
}

// Record is a named-shape row when no constructor is supplied.
type Record struct {
	Shape  string
	Fields []string
	Values []any
}

// Get returns the value of field, or nil when the record has no such field.
func (r *Record) Get(field string) any {
	for i, f := range r.Fields {
		if f == field {
			return r.Values[i]
		}
	}
	return nil
}

// Map returns the record as a map keyed by field name.
func (r *Record) Map() map[string]any {
	m := make(map[string]any, len(r.Fields))
	for i, f := range r.Fields {
		m[f] = r.Values[i]
	}
	return m
}

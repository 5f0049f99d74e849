package schema

import (
	"fmt"
	"sort"
	"sync"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// MetadataRegistry stores entity metadata for the front-ends, the compiler and
// the materializer. It is safe for concurrent use.
type MetadataRegistry struct {
	mu       sync.RWMutex
	entities map[string]*Entity
}

// NewMetadataRegistry creates an empty registry.
func NewMetadataRegistry() *MetadataRegistry {
	return &MetadataRegistry{entities: make(map[string]*Entity)}
}

// Register adds entities, replacing any with the same name. Tables default to the
// entity name and columns to the field name.
func (r *MetadataRegistry) Register(entities ...Entity) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range entities {
		e := entities[i]
		if e.Name == "" {
			return fmt.Errorf("entity at index %d has no name", i)
		}
		if e.Table == "" {
			e.Table = e.Name
		}
		fields := make([]Field, len(e.Fields))
		seen := make(map[string]bool, len(e.Fields))
		for j, f := range e.Fields {
			if seen[f.Name] {
				return fmt.Errorf("entity %s: duplicate field %s", e.Name, f.Name)
			}
			seen[f.Name] = true
			if f.Column == "" {
				f.Column = f.Name
			}
			if f.Type == "" {
				f.Type = domain.TypeAny
			}
			fields[j] = f
		}
		e.Fields = fields
		for _, a := range e.Associations {
			if seen[a.Name] {
				return fmt.Errorf("entity %s: association %s shadows a field", e.Name, a.Name)
			}
			seen[a.Name] = true
		}
		e.Associations = append([]Association(nil), e.Associations...)
		r.entities[e.Name] = &e
	}
	return nil
}

// Entity retrieves an entity by name.
func (r *MetadataRegistry) Entity(name string) (*Entity, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entities[name]
	if !ok {
		return nil, &domain.ResolutionError{Kind: "entity", Name: name}
	}
	return e, nil
}

// Field retrieves a field of an entity.
func (r *MetadataRegistry) Field(entity, field string) (*Field, error) {
	e, err := r.Entity(entity)
	if err != nil {
		return nil, err
	}
	f, ok := e.Field(field)
	if !ok {
		return nil, &domain.ResolutionError{Kind: "field", Name: field, Scope: entity}
	}
	return f, nil
}

// Association retrieves an association of an entity.
func (r *MetadataRegistry) Association(entity, name string) (*Association, error) {
	e, err := r.Entity(entity)
	if err != nil {
		return nil, err
	}
	a, ok := e.Association(name)
	if !ok {
		return nil, &domain.ResolutionError{Kind: "association", Name: name, Scope: entity}
	}
	return a, nil
}

// Entities returns all registered entities sorted by name.
func (r *MetadataRegistry) Entities() []*Entity {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]*Entity, 0, len(r.entities))
	for _, e := range r.entities {
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// Validate checks that every association targets a registered entity and names
// existing columns on both sides.
func (r *MetadataRegistry) Validate() error {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, e := range r.entities {
		for _, a := range e.Associations {
			target, ok := r.entities[a.Target]
			if !ok {
				return fmt.Errorf("entity %s: association %s targets unknown entity %s", e.Name, a.Name, a.Target)
			}
			if _, ok := e.FieldByColumn(a.LocalColumn); !ok {
				return fmt.Errorf("entity %s: association %s: unknown local column %s", e.Name, a.Name, a.LocalColumn)
			}
			if _, ok := target.FieldByColumn(a.TargetColumn); !ok {
				return fmt.Errorf("entity %s: association %s: unknown target column %s", e.Name, a.Name, a.TargetColumn)
			}
		}
	}
	return nil
}

// Package builder implements the structured front-end: a resolution scope,
// predicate and expression constructors, and a fluent QueryBuilder.
package builder

import (
	"strings"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/schema"
)

// Scope resolves field paths against the root entity and the joins declared so far.
// The template front-end shares it.
type Scope struct {
	provider schema.Provider
	root     domain.Root
	entities map[string]*schema.Entity // by alias
	aliases  []string
	joins    []domain.JoinSpec

	// err is set when the root entity did not resolve; every resolution
	// through the scope then fails with it.
	err error
}

// failure returns the error every resolution fails with, if any. A nil
// Scope fails as an unresolved root.
func (s *Scope) failure() error {
	if s == nil {
		return &domain.ResolutionError{Kind: "entity", Name: "<nil>", Reason: "no resolution scope"}
	}
	return s.err
}

// NewScope resolves entity and binds it to alias. An empty alias binds the
// entity name, and bare field names still resolve against the root.
func NewScope(provider schema.Provider, entity, alias string) (*Scope, error) {
	e, err := provider.Entity(entity)
	if err != nil {
		return nil, err
	}
	s := &Scope{
		provider: provider,
		entities: make(map[string]*schema.Entity),
	}
	if alias == "" {
		alias = e.Name
	}
	s.root = domain.Root{Entity: e.Name, Alias: alias}
	s.entities[alias] = e
	s.aliases = append(s.aliases, alias)
	return s, nil
}

// Root returns the root entity and alias.
func (s *Scope) Root() domain.Root {
	if s == nil {
		return domain.Root{}
	}
	return s.root
}

// Joins returns the joins declared so far.
func (s *Scope) Joins() []domain.JoinSpec {
	if s == nil {
		return nil
	}
	return append([]domain.JoinSpec(nil), s.joins...)
}

// Aliases returns all bound aliases, root first.
func (s *Scope) Aliases() []string {
	if s == nil {
		return nil
	}
	return append([]string(nil), s.aliases...)
}

// EntityOf returns the entity bound to alias.
func (s *Scope) EntityOf(alias string) (*schema.Entity, bool) {
	if s.failure() != nil {
		return nil, false
	}
	e, ok := s.entities[alias]
	return e, ok
}

// Join follows "alias.association" and binds the target entity to alias.
func (s *Scope) Join(path string, kind domain.JoinKind, alias string, fetch bool) (domain.JoinSpec, error) {
	if err := s.failure(); err != nil {
		return domain.JoinSpec{}, err
	}
	source, assocName, ok := strings.Cut(path, ".")
	if !ok || source == "" || assocName == "" || strings.Contains(assocName, ".") {
		return domain.JoinSpec{}, &domain.ResolutionError{Kind: "association", Name: path, Reason: "join path must be alias.association"}
	}
	owner, ok := s.entities[source]
	if !ok {
		return domain.JoinSpec{}, &domain.ResolutionError{Kind: "alias", Name: source}
	}
	assoc, ok := owner.Association(assocName)
	if !ok {
		return domain.JoinSpec{}, &domain.ResolutionError{Kind: "association", Name: assocName, Scope: owner.Name}
	}
	target, err := s.provider.Entity(assoc.Target)
	if err != nil {
		return domain.JoinSpec{}, err
	}
	if alias == "" {
		alias = assocName
	}
	if _, taken := s.entities[alias]; taken {
		return domain.JoinSpec{}, &domain.ResolutionError{Kind: "alias", Name: alias, Reason: "alias already in use"}
	}
	if kind == "" {
		kind = domain.InnerJoin
	}

	spec := domain.JoinSpec{
		Source:      source,
		Association: assocName,
		Target:      target.Name,
		Kind:        kind,
		Alias:       alias,
		Fetch:       fetch,
	}
	s.entities[alias] = target
	s.aliases = append(s.aliases, alias)
	s.joins = append(s.joins, spec)
	return spec, nil
}

// Resolve turns a path into an expression. "alias" yields an EntityRef,
// "alias.field" a FieldRef, and a bare "field" resolves against the root first,
// then against joined entities when exactly one declares it.
func (s *Scope) Resolve(path string) (domain.Expr, error) {
	if err := s.failure(); err != nil {
		return nil, err
	}
	if path == "" {
		return nil, &domain.ResolutionError{Kind: "field", Name: path}
	}
	alias, field, qualified := strings.Cut(path, ".")
	if !qualified {
		if e, ok := s.entities[path]; ok {
			return domain.EntityRef{Alias: path, Entity: e.Name}, nil
		}
		return s.resolveBare(path)
	}
	e, ok := s.entities[alias]
	if !ok {
		return nil, &domain.ResolutionError{Kind: "alias", Name: alias, Scope: path}
	}
	if strings.Contains(field, ".") {
		return nil, &domain.ResolutionError{Kind: "field", Name: path, Reason: "implicit joins are not supported; declare a join"}
	}
	return fieldRef(alias, e, field)
}

func (s *Scope) resolveBare(field string) (domain.Expr, error) {
	root := s.entities[s.root.Alias]
	if _, ok := root.Field(field); ok {
		return fieldRef(s.root.Alias, root, field)
	}
	var (
		found domain.Expr
		count int
	)
	for _, alias := range s.aliases[1:] {
		e := s.entities[alias]
		if _, ok := e.Field(field); ok {
			ref, err := fieldRef(alias, e, field)
			if err != nil {
				return nil, err
			}
			found = ref
			count++
		}
	}
	switch count {
	case 0:
		return nil, &domain.ResolutionError{Kind: "field", Name: field, Scope: root.Name}
	case 1:
		return found, nil
	default:
		return nil, &domain.ResolutionError{Kind: "field", Name: field, Reason: "ambiguous; qualify it with an alias"}
	}
}

// ResolveField resolves a path and fails unless it names a persistent field.
func (s *Scope) ResolveField(path string) (domain.FieldRef, error) {
	e, err := s.Resolve(path)
	if err != nil {
		return domain.FieldRef{}, err
	}
	f, ok := e.(domain.FieldRef)
	if !ok {
		return domain.FieldRef{}, &domain.ResolutionError{Kind: "field", Name: path, Reason: "expected a field, got an entity"}
	}
	return f, nil
}

func fieldRef(alias string, e *schema.Entity, name string) (domain.FieldRef, error) {
	f, ok := e.Field(name)
	if !ok {
		return domain.FieldRef{}, &domain.ResolutionError{Kind: "field", Name: name, Scope: e.Name}
	}
	return domain.FieldRef{
		Alias:  alias,
		Entity: e.Name,
		Field:  f.Name,
		Column: f.Column,
		Type:   f.Type,
	}, nil
}

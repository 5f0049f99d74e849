// Package native wraps caller-supplied dialect text as a statement.
//
// The text is not parsed. Placeholders are discovered lexically so their
// values still go through the binder, and entity spans can be declared for
// materializing whole entities out of the result columns.
package native

import (
	"strings"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/schema"
)

// Query is a native statement under construction.
type Query struct {
	text     string
	segments []domain.NativeSegment
	kind     domain.StatementKind
	entities []domain.NativeEntity
	joins    []domain.NativeJoin
	targets  map[string]string // join alias -> target entity
	metadata schema.Provider
	err      error
}

// New wraps text. The statement kind is sniffed from the leading keyword.
func New(text string) *Query {
	q := &Query{text: text, kind: SniffKind(text), targets: make(map[string]string)}
	q.segments, q.err = Scan(text)
	return q
}

// WithMetadata lets AddEntity and AddJoin check names against provider when
// they are declared instead of at execution.
func (q *Query) WithMetadata(provider schema.Provider) *Query {
	q.metadata = provider
	return q
}

// Err returns the first construction error.
func (q *Query) Err() error { return q.err }

// Text returns the original text.
func (q *Query) Text() string { return q.text }

// Kind returns the statement kind.
func (q *Query) Kind() domain.StatementKind { return q.kind }

// AsKind overrides the sniffed statement kind.
func (q *Query) AsKind(kind domain.StatementKind) *Query {
	if len(q.entities) > 0 && kind.IsDML() {
		q.fail(&domain.UnsupportedOperationError{Op: "asKind", Kind: kind, Reason: "entity spans are declared"})
		return q
	}
	q.kind = kind
	return q
}

// AddEntity declares that the result columns, starting after any previously
// declared span, hold the fields of entity under alias.
func (q *Query) AddEntity(alias, entity string) *Query {
	if q.err != nil {
		return q
	}
	if q.kind.IsDML() {
		q.fail(&domain.UnsupportedOperationError{Op: "addEntity", Kind: q.kind})
		return q
	}
	if alias == "" {
		alias = entity
	}
	if q.taken(alias) {
		q.fail(&domain.ResolutionError{Kind: "alias", Name: alias, Reason: "alias already in use"})
		return q
	}
	if q.metadata != nil {
		e, err := q.metadata.Entity(entity)
		if err != nil {
			q.fail(err)
			return q
		}
		entity = e.Name
	}
	q.entities = append(q.entities, domain.NativeEntity{Alias: alias, Entity: entity})
	return q
}

// AddJoin declares that the columns after the owner's span hold the target of
// path, written "owner.association", bound to alias.
func (q *Query) AddJoin(alias, path string) *Query {
	if q.err != nil {
		return q
	}
	owner, assoc, ok := strings.Cut(path, ".")
	if !ok || owner == "" || assoc == "" {
		q.fail(&domain.ResolutionError{Kind: "association", Name: path, Reason: "join path must be alias.association"})
		return q
	}
	ownerEntity, ok := q.entityOf(owner)
	if !ok {
		q.fail(&domain.ResolutionError{Kind: "alias", Name: owner, Scope: path})
		return q
	}
	if q.taken(alias) {
		q.fail(&domain.ResolutionError{Kind: "alias", Name: alias, Reason: "alias already in use"})
		return q
	}
	target := ""
	if q.metadata != nil && ownerEntity != "" {
		e, err := q.metadata.Entity(ownerEntity)
		if err != nil {
			q.fail(err)
			return q
		}
		a, ok := e.Association(assoc)
		if !ok {
			q.fail(&domain.ResolutionError{Kind: "association", Name: assoc, Scope: e.Name})
			return q
		}
		target = a.Target
	}
	q.targets[alias] = target
	q.joins = append(q.joins, domain.NativeJoin{Alias: alias, Owner: owner, Association: assoc})
	return q
}

// Statement returns the statement. Native statements carry no projection;
// their columns are whatever the text selects.
func (q *Query) Statement() (*domain.Statement, error) {
	if q.err != nil {
		return nil, q.err
	}
	stmt := &domain.Statement{
		Kind: q.kind,
		Native: &domain.NativeText{
			Text:     q.text,
			Segments: append([]domain.NativeSegment(nil), q.segments...),
			Entities: append([]domain.NativeEntity(nil), q.entities...),
			Joins:    append([]domain.NativeJoin(nil), q.joins...),
		},
	}
	if len(q.entities) > 0 {
		stmt.Root = domain.Root{Entity: q.entities[0].Entity, Alias: q.entities[0].Alias}
	}
	stmt.CollectPlaceholders()
	return stmt, nil
}

func (q *Query) fail(err error) {
	if q.err == nil {
		q.err = err
	}
}

func (q *Query) taken(alias string) bool {
	_, ok := q.entityOf(alias)
	return ok
}

// entityOf returns the entity bound to alias. A joined alias declared without
// metadata is bound to an entity not yet known, reported as "".
func (q *Query) entityOf(alias string) (string, bool) {
	for _, e := range q.entities {
		if e.Alias == alias {
			return e.Entity, true
		}
	}
	target, ok := q.targets[alias]
	return target, ok
}

// SniffKind guesses the statement kind from the first keyword of text.
func SniffKind(text string) domain.StatementKind {
	word := strings.ToUpper(firstWord(text))
	switch word {
	case "SELECT", "WITH", "VALUES", "PRAGMA", "SHOW", "EXPLAIN", "DESCRIBE", "TABLE":
		return domain.KindQuery
	case "DELETE":
		return domain.KindDelete
	case "INSERT", "REPLACE":
		return domain.KindInsert
	default:
		return domain.KindUpdate
	}
}

func firstWord(text string) string {
	s := skipTrivia(text)
	end := strings.IndexFunc(s, func(r rune) bool {
		return !(r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z')
	})
	if end < 0 {
		return s
	}
	return s[:end]
}

package builder

import (
	"fmt"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/schema"
)

// QueryBuilder builds a Statement fluently. The first error raised by any call
// is kept; later calls become no-ops and Statement returns that error. Err
// reports it right after the call that caused it.
type QueryBuilder struct {
	scope *Scope
	stmt  domain.Statement
	err   error
}

// NewQueryBuilder starts a query over entity bound to alias.
func NewQueryBuilder(provider schema.Provider, entity, alias string) *QueryBuilder {
	b := &QueryBuilder{stmt: domain.Statement{Kind: domain.KindQuery}}
	scope, err := NewScope(provider, entity, alias)
	if err != nil {
		b.err = err
		b.scope = &Scope{provider: provider, err: err}
		return b
	}
	b.scope = scope
	b.stmt.Root = scope.Root()
	return b
}

// Scope returns the resolution scope used to build conditions and operands.
// When the root entity could not be resolved, everything built through it
// carries that error.
func (b *QueryBuilder) Scope() *Scope { return b.scope }

// Err returns the first error recorded by the builder.
func (b *QueryBuilder) Err() error { return b.err }

func (b *QueryBuilder) fail(err error) *QueryBuilder {
	if b.err == nil {
		b.err = err
	}
	return b
}

// Select sets the projection. Items are paths, Operands, Selections or expressions.
func (b *QueryBuilder) Select(items ...any) *QueryBuilder {
	if b.err != nil {
		return b
	}
	for _, item := range items {
		sel, err := b.selectItem(item)
		if err != nil {
			return b.fail(err)
		}
		b.stmt.Projection.Items = append(b.stmt.Projection.Items, sel)
	}
	return b
}

// SelectAs adds one aliased projection item.
func (b *QueryBuilder) SelectAs(item any, alias string) *QueryBuilder {
	if b.err != nil {
		return b
	}
	sel, err := b.selectItem(item)
	if err != nil {
		return b.fail(err)
	}
	sel.Alias = alias
	b.stmt.Projection.Items = append(b.stmt.Projection.Items, sel)
	return b
}

// SelectShape projects items into the named shape, SELECT NEW name(items).
// Field names come from the item aliases, or from the field name of plain paths.
func (b *QueryBuilder) SelectShape(name string, items ...any) *QueryBuilder {
	if b.err != nil {
		return b
	}
	shape := &domain.ShapeDecl{Name: name}
	for i, item := range items {
		sel, err := b.selectItem(item)
		if err != nil {
			return b.fail(err)
		}
		if sel.Alias == "" {
			ref, ok := sel.Expr.(domain.FieldRef)
			if !ok {
				return b.fail(&domain.ShapeMismatchError{Shape: domain.ShapeNamed, Row: -1, Msg: fmt.Sprintf("item %d of %s needs an alias", i, name)})
			}
			sel.Alias = ref.Field
		}
		shape.Fields = append(shape.Fields, sel.Alias)
		b.stmt.Projection.Items = append(b.stmt.Projection.Items, sel)
	}
	b.stmt.Projection.Shape = shape
	return b
}

func (b *QueryBuilder) selectItem(item any) (domain.SelectItem, error) {
	if sel, ok := item.(Selection); ok {
		e, err := sel.operand.Expr()
		return domain.SelectItem{Expr: e, Alias: sel.alias}, err
	}
	e, err := b.scope.path(item)
	return domain.SelectItem{Expr: e}, err
}

// Distinct removes duplicate rows.
func (b *QueryBuilder) Distinct() *QueryBuilder {
	b.stmt.Projection.Distinct = true
	return b
}

// Join follows path ("alias.association") and binds the target to alias.
func (b *QueryBuilder) Join(path string, kind domain.JoinKind, alias string) *QueryBuilder {
	return b.join(path, kind, alias, false)
}

// JoinFetch joins like Join and marks the association as fetched with its owner.
func (b *QueryBuilder) JoinFetch(path string, kind domain.JoinKind, alias string) *QueryBuilder {
	return b.join(path, kind, alias, true)
}

func (b *QueryBuilder) join(path string, kind domain.JoinKind, alias string, fetch bool) *QueryBuilder {
	if b.err != nil {
		return b
	}
	spec, err := b.scope.Join(path, kind, alias, fetch)
	if err != nil {
		return b.fail(err)
	}
	b.stmt.Joins = append(b.stmt.Joins, spec)
	return b
}

// Where adds a filter. Repeated calls are combined with AND.
func (b *QueryBuilder) Where(c Cond) *QueryBuilder {
	if b.err != nil {
		return b
	}
	if c.err != nil {
		return b.fail(c.err)
	}
	b.stmt.Where = conjoin(b.stmt.Where, c.pred)
	return b
}

func conjoin(existing, p domain.Predicate) domain.Predicate {
	if existing == nil {
		return p
	}
	if l, ok := existing.(domain.Logical); ok && l.Op == domain.AND {
		children := append(append([]domain.Predicate(nil), l.Children...), p)
		return domain.Logical{Op: domain.AND, Children: children}
	}
	return domain.Logical{Op: domain.AND, Children: []domain.Predicate{existing, p}}
}

// OrderBy adds a sort key; keys apply in call order.
func (b *QueryBuilder) OrderBy(item any, direction domain.SortDirection) *QueryBuilder {
	if b.err != nil {
		return b
	}
	e, err := b.scope.path(item)
	if err != nil {
		return b.fail(err)
	}
	if direction == "" {
		direction = domain.Asc
	}
	b.stmt.Order = append(b.stmt.Order, domain.OrderSpec{Expr: e, Direction: direction})
	return b
}

// GroupBy sets the grouping expressions.
func (b *QueryBuilder) GroupBy(items ...any) *QueryBuilder {
	if b.err != nil {
		return b
	}
	if b.stmt.Group == nil {
		b.stmt.Group = &domain.GroupSpec{}
	}
	for _, item := range items {
		e, err := b.scope.path(item)
		if err != nil {
			return b.fail(err)
		}
		b.stmt.Group.Exprs = append(b.stmt.Group.Exprs, e)
	}
	return b
}

// Having filters groups. It requires GroupBy to have been called.
func (b *QueryBuilder) Having(c Cond) *QueryBuilder {
	if b.err != nil {
		return b
	}
	if b.stmt.Group == nil || len(b.stmt.Group.Exprs) == 0 {
		return b.fail(&domain.UnsupportedOperationError{Op: "having", Kind: b.stmt.Kind, Reason: "HAVING requires GROUP BY"})
	}
	if c.err != nil {
		return b.fail(c.err)
	}
	b.stmt.Group.Having = conjoin(b.stmt.Group.Having, c.pred)
	return b
}

// Offset skips n rows. Only valid on queries.
func (b *QueryBuilder) Offset(n int) *QueryBuilder {
	if b.err != nil {
		return b
	}
	paged, err := b.stmt.WithOffset(n)
	if err != nil {
		return b.fail(err)
	}
	b.stmt = *paged
	return b
}

// Limit caps the result at n rows; 0 removes the cap. Only valid on queries.
func (b *QueryBuilder) Limit(n int) *QueryBuilder {
	if b.err != nil {
		return b
	}
	paged, err := b.stmt.WithLimit(n)
	if err != nil {
		return b.fail(err)
	}
	b.stmt = *paged
	return b
}

// Update turns the statement into an UPDATE of the root entity.
func (b *QueryBuilder) Update() *QueryBuilder { return b.dml(domain.KindUpdate) }

// Delete turns the statement into a DELETE of the root entity.
func (b *QueryBuilder) Delete() *QueryBuilder { return b.dml(domain.KindDelete) }

func (b *QueryBuilder) dml(kind domain.StatementKind) *QueryBuilder {
	if b.err != nil {
		return b
	}
	if !b.stmt.Page.IsZero() {
		return b.fail(&domain.UnsupportedOperationError{Op: "pagination", Kind: kind})
	}
	b.stmt.Kind = kind
	return b
}

// Set adds "field = value" to an UPDATE. Plain values are bound as arguments.
func (b *QueryBuilder) Set(field string, value any) *QueryBuilder {
	if b.err != nil {
		return b
	}
	if b.stmt.Kind != domain.KindUpdate {
		return b.fail(&domain.UnsupportedOperationError{Op: "set", Kind: b.stmt.Kind})
	}
	ref, err := b.scope.ResolveField(field)
	if err != nil {
		return b.fail(err)
	}
	if ref.Alias != b.stmt.Root.Alias {
		return b.fail(&domain.ResolutionError{Kind: "field", Name: field, Scope: b.stmt.Root.Entity, Reason: "only root fields can be assigned"})
	}
	v, err := b.scope.value(value, ref.Type)
	if err != nil {
		return b.fail(err)
	}
	b.stmt.Set = append(b.stmt.Set, domain.Assignment{Field: ref, Value: v})
	return b
}

// Statement returns the built statement. The builder can keep being used; each
// call returns an independent copy.
func (b *QueryBuilder) Statement() (*domain.Statement, error) {
	if b.err != nil {
		return nil, b.err
	}
	stmt := b.stmt
	stmt.Joins = append([]domain.JoinSpec(nil), b.stmt.Joins...)
	stmt.Order = append([]domain.OrderSpec(nil), b.stmt.Order...)
	stmt.Set = append([]domain.Assignment(nil), b.stmt.Set...)
	stmt.Projection.Items = append([]domain.SelectItem(nil), b.stmt.Projection.Items...)
	if b.stmt.Group != nil {
		g := *b.stmt.Group
		g.Exprs = append([]domain.Expr(nil), g.Exprs...)
		stmt.Group = &g
	}

	if err := checkKind(&stmt); err != nil {
		return nil, err
	}
	if stmt.Kind == domain.KindQuery && len(stmt.Projection.Items) == 0 {
		stmt.Projection.Items = []domain.SelectItem{{Expr: domain.EntityRef{Alias: stmt.Root.Alias, Entity: stmt.Root.Entity}}}
	}
	if err := stmt.Validate(); err != nil {
		return nil, err
	}
	stmt.CollectPlaceholders()
	return &stmt, nil
}

// checkKind rejects clauses that are meaningless for the statement kind.
func checkKind(stmt *domain.Statement) error {
	switch stmt.Kind {
	case domain.KindQuery:
		if len(stmt.Set) > 0 {
			return &domain.UnsupportedOperationError{Op: "set", Kind: stmt.Kind}
		}
	case domain.KindUpdate, domain.KindDelete:
		if stmt.Kind == domain.KindUpdate && len(stmt.Set) == 0 {
			return &domain.UnsupportedOperationError{Op: "update", Kind: stmt.Kind, Reason: "no assignments"}
		}
		if len(stmt.Joins) > 0 || len(stmt.Projection.Items) > 0 || len(stmt.Order) > 0 || stmt.Group != nil {
			return &domain.UnsupportedOperationError{Op: string(stmt.Kind), Kind: stmt.Kind, Reason: "only a WHERE clause may accompany it"}
		}
		if !stmt.Page.IsZero() {
			return &domain.UnsupportedOperationError{Op: "pagination", Kind: stmt.Kind}
		}
	}
	return nil
}

// Package compiler renders statements into dialect SQL plus an ordered list of
// argument slots for the binder.
package compiler

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/unisql/internal/core/query/binder"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/schema"
)

// Column describes one result column of a compiled query.
type Column struct {
	// Name is the projection alias, the field name, or for native text the
	// column name reported by the driver.
	Name string
	// Alias and Field identify the entity field a column was expanded from.
	Alias string
	Field string
	Type  domain.LogicalType
	// Span is the index of the entity span the column belongs to, or -1.
	Span int
}

// Span is a run of columns holding one entity.
type Span struct {
	Alias  string
	Entity string
	Start  int
	End    int // exclusive
	// Owner and Association are set for spans produced by a join.
	Owner       string
	Association string
	Join        domain.JoinKind
	// Fetch marks spans added by JOIN FETCH rather than the projection.
	Fetch bool
}

// Compiled is the executable form of a statement.
type Compiled struct {
	SQL     string
	Slots   []binder.Slot
	Kind    domain.StatementKind
	Columns []Column
	Spans   []Span
	// Native is set when the SQL is caller text; Columns is then only known
	// for declared entity spans.
	Native bool
}

// SQLCompiler compiles statements for one SQL dialect.
type SQLCompiler struct {
	dialect  *dialect
	metadata schema.Provider
}

// NewSQLCompiler creates a compiler for dialect resolving entities through metadata.
func NewSQLCompiler(d domain.SQLDialect, metadata schema.Provider) (*SQLCompiler, error) {
	rules, ok := dialects[d]
	if !ok {
		return nil, fmt.Errorf("unsupported dialect: %s", d)
	}
	return &SQLCompiler{dialect: rules, metadata: metadata}, nil
}

// Dialect returns the target dialect.
func (c *SQLCompiler) Dialect() domain.SQLDialect { return c.dialect.name }

// Compile renders stmt. Values never appear in the SQL text: literals,
// placeholders and pagination bounds all become slots.
func (c *SQLCompiler) Compile(stmt *domain.Statement) (*Compiled, error) {
	if stmt == nil {
		return nil, fmt.Errorf("compile: nil statement")
	}
	r := &renderer{c: c, d: c.dialect, b: &strings.Builder{}}

	var err error
	switch {
	case stmt.Native != nil:
		err = r.native(stmt)
	case stmt.Kind == domain.KindQuery:
		err = r.query(stmt)
	case stmt.Kind == domain.KindUpdate:
		err = r.update(stmt)
	case stmt.Kind == domain.KindDelete:
		err = r.delete(stmt)
	case stmt.Kind == domain.KindInsert:
		err = r.insert(stmt)
	default:
		err = &domain.UnsupportedOperationError{Op: "compile", Kind: stmt.Kind}
	}
	if err != nil {
		return nil, err
	}

	return &Compiled{
		SQL:     r.b.String(),
		Slots:   r.slots,
		Kind:    stmt.Kind,
		Columns: r.columns,
		Spans:   r.spans,
		Native:  stmt.Native != nil,
	}, nil
}

// renderer accumulates the SQL text and slots of one compilation.
type renderer struct {
	c       *SQLCompiler
	d       *dialect
	b       *strings.Builder
	slots   []binder.Slot
	columns []Column
	spans   []Span
	// bare renders field references as unqualified columns, for UPDATE and
	// DELETE where the table is not aliased.
	bare bool
	// entities maps aliases in scope to their metadata.
	entities map[string]*schema.Entity
}

func (r *renderer) write(s ...string) {
	for _, part := range s {
		r.b.WriteString(part)
	}
}

// placeholder appends a slot and returns its dialect marker.
func (r *renderer) placeholder(slot binder.Slot) string {
	r.slots = append(r.slots, slot)
	return r.d.marker(len(r.slots))
}

func (r *renderer) entity(name string) (*schema.Entity, error) {
	if r.c.metadata == nil {
		return nil, &domain.ResolutionError{Kind: "entity", Name: name, Reason: "no metadata provider"}
	}
	return r.c.metadata.Entity(name)
}

// scope binds the root and join aliases of stmt.
func (r *renderer) scope(stmt *domain.Statement) error {
	r.entities = make(map[string]*schema.Entity)
	root, err := r.entity(stmt.Root.Entity)
	if err != nil {
		return err
	}
	r.entities[stmt.Root.Alias] = root
	for _, j := range stmt.Joins {
		target, err := r.entity(j.Target)
		if err != nil {
			return err
		}
		r.entities[j.Alias] = target
	}
	return nil
}

func (r *renderer) query(stmt *domain.Statement) error {
	if err := r.scope(stmt); err != nil {
		return err
	}
	r.write("SELECT ")
	if stmt.Projection.Distinct {
		r.write("DISTINCT ")
	}
	if err := r.projection(stmt); err != nil {
		return err
	}
	if err := r.from(stmt); err != nil {
		return err
	}
	if stmt.Where != nil {
		r.write(" WHERE ")
		if err := r.predicate(stmt.Where); err != nil {
			return err
		}
	}
	if err := r.group(stmt.Group); err != nil {
		return err
	}
	if len(stmt.Order) > 0 {
		r.write(" ORDER BY ")
		for i, o := range stmt.Order {
			if i > 0 {
				r.write(", ")
			}
			if err := r.expr(o.Expr, domain.TypeAny, ""); err != nil {
				return err
			}
			dir := o.Direction
			if dir == "" {
				dir = domain.Asc
			}
			r.write(" ", string(dir))
		}
	}
	r.page(stmt.Page)
	return nil
}

func (r *renderer) group(g *domain.GroupSpec) error {
	if g == nil {
		return nil
	}
	r.write(" GROUP BY ")
	for i, e := range g.Exprs {
		if i > 0 {
			r.write(", ")
		}
		if err := r.expr(e, domain.TypeAny, ""); err != nil {
			return err
		}
	}
	if g.Having == nil {
		return nil
	}
	r.write(" HAVING ")
	return r.predicate(g.Having)
}

// projection renders the select list and records the column layout.
func (r *renderer) projection(stmt *domain.Statement) error {
	joins := make(map[string]domain.JoinSpec, len(stmt.Joins))
	for _, j := range stmt.Joins {
		joins[j.Alias] = j
	}

	first := true
	sep := func() {
		if !first {
			r.write(", ")
		}
		first = false
	}
	span := func(alias string, fetch bool) {
		e := r.entities[alias]
		s := Span{Alias: alias, Entity: e.Name, Start: len(r.columns), Fetch: fetch}
		if j, ok := joins[alias]; ok {
			s.Owner, s.Association, s.Join = j.Source, j.Association, j.Kind
		}
		for _, f := range e.Fields {
			sep()
			r.write(r.d.quote(alias), ".", r.d.quote(f.Column))
			r.columns = append(r.columns, Column{Name: f.Name, Alias: alias, Field: f.Name, Type: f.Type, Span: len(r.spans)})
		}
		s.End = len(r.columns)
		r.spans = append(r.spans, s)
	}

	for _, item := range stmt.Projection.Items {
		if ref, ok := item.Expr.(domain.EntityRef); ok {
			if _, known := r.entities[ref.Alias]; !known {
				return &domain.ResolutionError{Kind: "alias", Name: ref.Alias}
			}
			span(ref.Alias, false)
			continue
		}
		sep()
		if err := r.expr(item.Expr, domain.TypeAny, ""); err != nil {
			return err
		}
		col := Column{Name: item.Alias, Type: item.Expr.ResultType(), Span: -1}
		if ref, ok := item.Expr.(domain.FieldRef); ok {
			col.Alias, col.Field = ref.Alias, ref.Field
			if col.Name == "" {
				col.Name = ref.Field
			}
		}
		if item.Alias != "" {
			r.write(" AS ", r.d.quote(item.Alias))
		} else if col.Name == "" {
			col.Name = item.Expr.String()
		}
		r.columns = append(r.columns, col)
	}

	// Fetched associations are loaded with their owner.
	for _, j := range stmt.Joins {
		if j.Fetch {
			span(j.Alias, true)
		}
	}
	if first {
		return &domain.UnsupportedOperationError{Op: "compile", Kind: stmt.Kind, Reason: "empty projection"}
	}
	return nil
}

func (r *renderer) from(stmt *domain.Statement) error {
	root := r.entities[stmt.Root.Alias]
	r.write(" FROM ", r.d.quote(root.Table), " AS ", r.d.quote(stmt.Root.Alias))
	for _, j := range stmt.Joins {
		owner, ok := r.entities[j.Source]
		if !ok {
			return &domain.ResolutionError{Kind: "alias", Name: j.Source}
		}
		assoc, ok := owner.Association(j.Association)
		if !ok {
			return &domain.ResolutionError{Kind: "association", Name: j.Association, Scope: owner.Name}
		}
		kind := j.Kind
		if kind == "" {
			kind = domain.InnerJoin
		}
		target := r.entities[j.Alias]
		r.write(" ", string(kind), " JOIN ", r.d.quote(target.Table), " AS ", r.d.quote(j.Alias),
			" ON ", r.d.quote(j.Source), ".", r.d.quote(assoc.LocalColumn),
			" = ", r.d.quote(j.Alias), ".", r.d.quote(assoc.TargetColumn))
	}
	return nil
}

// page renders LIMIT/OFFSET. Both bounds are bound as arguments.
func (r *renderer) page(p domain.Pagination) {
	switch {
	case p.Limit > 0:
		r.write(" LIMIT ", r.placeholder(binder.ValueSlot(int64(p.Limit), domain.TypeInt, "limit")))
	case p.Offset > 0 && r.d.unbounded != "":
		r.write(" LIMIT ", r.d.unbounded)
	}
	if p.Offset > 0 {
		r.write(" OFFSET ", r.placeholder(binder.ValueSlot(int64(p.Offset), domain.TypeInt, "offset")))
	}
}

func (r *renderer) update(stmt *domain.Statement) error {
	if err := r.scope(stmt); err != nil {
		return err
	}
	if len(stmt.Set) == 0 {
		return &domain.UnsupportedOperationError{Op: "compile", Kind: stmt.Kind, Reason: "no assignments"}
	}
	r.bare = true
	root := r.entities[stmt.Root.Alias]
	r.write("UPDATE ", r.d.quote(root.Table), " SET ")
	for i, a := range stmt.Set {
		if i > 0 {
			r.write(", ")
		}
		r.write(r.d.quote(a.Field.Column), " = ")
		if err := r.expr(a.Value, a.Field.Type, a.Field.Field); err != nil {
			return err
		}
	}
	return r.where(stmt)
}

func (r *renderer) delete(stmt *domain.Statement) error {
	if err := r.scope(stmt); err != nil {
		return err
	}
	r.bare = true
	root := r.entities[stmt.Root.Alias]
	r.write("DELETE FROM ", r.d.quote(root.Table))
	return r.where(stmt)
}

func (r *renderer) where(stmt *domain.Statement) error {
	if stmt.Where == nil {
		return nil
	}
	r.write(" WHERE ")
	return r.predicate(stmt.Where)
}

func (r *renderer) insert(stmt *domain.Statement) error {
	spec := stmt.Insert
	if spec == nil || spec.Select == nil {
		return &domain.UnsupportedOperationError{Op: "compile", Kind: stmt.Kind, Reason: "INSERT requires a SELECT source"}
	}
	target, err := r.entity(spec.Entity)
	if err != nil {
		return err
	}
	if len(spec.Fields) != len(spec.Select.Projection.Items) {
		return &domain.UnsupportedOperationError{Op: "compile", Kind: stmt.Kind,
			Reason: fmt.Sprintf("%d target fields for %d selected values", len(spec.Fields), len(spec.Select.Projection.Items))}
	}
	r.write("INSERT INTO ", r.d.quote(target.Table), " (")
	for i, f := range spec.Fields {
		if i > 0 {
			r.write(", ")
		}
		r.write(r.d.quote(f.Column))
	}
	r.write(") ")

	source := *spec.Select
	if err := r.scope(&source); err != nil {
		return err
	}
	r.write("SELECT ")
	if source.Projection.Distinct {
		r.write("DISTINCT ")
	}
	for i, item := range source.Projection.Items {
		if i > 0 {
			r.write(", ")
		}
		if err := r.expr(item.Expr, spec.Fields[i].Type, spec.Fields[i].Field); err != nil {
			return err
		}
	}
	if err := r.from(&source); err != nil {
		return err
	}
	if source.Where != nil {
		r.write(" WHERE ")
		if err := r.predicate(source.Where); err != nil {
			return err
		}
	}
	if err := r.group(source.Group); err != nil {
		return err
	}
	// The inserted rows are the side effect; no column layout is recorded.
	r.columns, r.spans = nil, nil
	return nil
}

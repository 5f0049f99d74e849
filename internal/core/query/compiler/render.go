package compiler

import (
	"strings"

	"github.com/satishbabariya/unisql/internal/core/query/binder"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// sub renders fn into its own string. Slots are still appended in order, so
// the result must be written out in the order sub was called.
func (r *renderer) sub(fn func() error) (string, error) {
	saved := r.b
	r.b = &strings.Builder{}
	err := fn()
	out := r.b.String()
	r.b = saved
	return out, err
}

// expr renders e. hint is the logical type expected by the surrounding
// context and types any placeholder found in e; target names that context in
// bind errors.
func (r *renderer) expr(e domain.Expr, hint domain.LogicalType, target string) error {
	switch v := e.(type) {
	case domain.FieldRef:
		r.column(v.Alias, v.Column)
	case domain.EntityRef:
		ent, ok := r.entities[v.Alias]
		if !ok {
			return &domain.ResolutionError{Kind: "alias", Name: v.Alias}
		}
		// An entity used as a value stands for its identifier.
		r.column(v.Alias, ent.IDFields()[0].Column)
	case domain.Literal:
		if v.Value == nil {
			r.write("NULL")
			return nil
		}
		t := v.Type
		if t == domain.TypeAny || t == "" {
			t = hint
		}
		r.write(r.placeholder(binder.ValueSlot(v.Value, t, target)))
	case domain.Param:
		r.write(r.placeholder(binder.PlaceholderSlot(v, hint, target)))
	case domain.FuncCall:
		return r.call(v, hint, target)
	case domain.Arith:
		return r.arith(v, hint, target)
	case domain.Negate:
		r.write("-(")
		if err := r.expr(v.Expr, hint, target); err != nil {
			return err
		}
		r.write(")")
	default:
		return &domain.UnsupportedOperationError{Op: "compile", Reason: "unknown expression " + e.String()}
	}
	return nil
}

func (r *renderer) column(alias, column string) {
	if r.bare || alias == "" {
		r.write(r.d.quote(column))
		return
	}
	r.write(r.d.quote(alias), ".", r.d.quote(column))
}

func (r *renderer) arith(a domain.Arith, hint domain.LogicalType, target string) error {
	lt, rt := a.Left.ResultType(), a.Right.ResultType()
	if lt == domain.TypeAny {
		lt = rt
	}
	if rt == domain.TypeAny {
		rt = lt
	}
	if lt == domain.TypeAny {
		lt, rt = hint, hint
	}
	left, err := r.sub(func() error { return r.expr(a.Left, lt, target) })
	if err != nil {
		return err
	}
	right, err := r.sub(func() error { return r.expr(a.Right, rt, target) })
	if err != nil {
		return err
	}
	if a.Op == "||" {
		r.write(r.d.concat([]string{left, right}))
		return nil
	}
	r.write("(", left, " ", a.Op, " ", right, ")")
	return nil
}

// argHint returns the type a function expects for its arguments.
func argHint(name string, hint domain.LogicalType) domain.LogicalType {
	switch name {
	case "year", "month", "day", "hour", "minute", "second":
		return domain.TypeTime
	case "upper", "lower", "trim", "length", "concat":
		return domain.TypeString
	case "min", "max", "abs", "coalesce":
		return hint
	default:
		return domain.TypeAny
	}
}

func (r *renderer) call(f domain.FuncCall, hint domain.LogicalType, target string) error {
	if _, ok := domain.LookupFunction(f.Name); !ok {
		return &domain.ResolutionError{Kind: "function", Name: f.Name}
	}
	name := strings.ToLower(f.Name)
	switch name {
	case "sysdate", "current_timestamp":
		r.write("CURRENT_TIMESTAMP")
		return nil
	case "current_date":
		r.write("CURRENT_DATE")
		return nil
	}

	args := make([]string, len(f.Args))
	for i, a := range f.Args {
		s, err := r.sub(func() error { return r.expr(a, argHint(name, hint), target) })
		if err != nil {
			return err
		}
		args[i] = s
	}

	switch name {
	case "year", "month", "day", "hour", "minute", "second":
		r.write(r.d.extract(name, args[0]))
	case "concat":
		r.write(r.d.concat(args))
	case "length":
		r.write(r.d.length, "(", args[0], ")")
	default:
		r.write(strings.ToUpper(name), "(")
		if f.Distinct {
			r.write("DISTINCT ")
		}
		if f.Star {
			r.write("*")
		} else {
			r.write(strings.Join(args, ", "))
		}
		r.write(")")
	}
	return nil
}

func (r *renderer) predicate(p domain.Predicate) error {
	switch v := p.(type) {
	case domain.Comparison:
		return r.comparison(v)
	case domain.Logical:
		if len(v.Children) == 1 {
			return r.predicate(v.Children[0])
		}
		r.write("(")
		for i, c := range v.Children {
			if i > 0 {
				r.write(" ", string(v.Op), " ")
			}
			if err := r.predicate(c); err != nil {
				return err
			}
		}
		r.write(")")
	case domain.Not:
		r.write("NOT (")
		if err := r.predicate(v.Child); err != nil {
			return err
		}
		r.write(")")
	case domain.FuncPredicate:
		return r.call(v.Call, domain.TypeBool, "")
	default:
		return &domain.UnsupportedOperationError{Op: "compile", Reason: "unknown predicate " + p.String()}
	}
	return nil
}

func (r *renderer) comparison(c domain.Comparison) error {
	if n := c.Op.Arity(); (n >= 0 && len(c.Right) != n) || (n < 0 && len(c.Right) == 0) {
		return &domain.UnsupportedOperationError{Op: "compile", Reason: "wrong operand count for " + string(c.Op)}
	}
	hint := c.Left.ResultType()
	if hint == domain.TypeAny && len(c.Right) > 0 {
		hint = c.Right[0].ResultType()
	}
	target := c.Left.String()

	if err := r.expr(c.Left, hint, target); err != nil {
		return err
	}
	r.write(" ", string(c.Op))

	switch c.Op.Arity() {
	case 0:
	case 2:
		r.write(" ")
		if err := r.expr(c.Right[0], hint, target); err != nil {
			return err
		}
		r.write(" AND ")
		if err := r.expr(c.Right[1], hint, target); err != nil {
			return err
		}
	case -1:
		r.write(" (")
		for i, e := range c.Right {
			if i > 0 {
				r.write(", ")
			}
			if err := r.expr(e, hint, target); err != nil {
				return err
			}
		}
		r.write(")")
	default:
		r.write(" ")
		if err := r.expr(c.Right[0], hint, target); err != nil {
			return err
		}
	}
	return nil
}

// native renders caller text with its placeholders replaced by dialect
// markers. Pagination wraps the text in a derived table.
func (r *renderer) native(stmt *domain.Statement) error {
	paged := !stmt.Page.IsZero()
	if paged {
		if stmt.Kind != domain.KindQuery {
			return &domain.UnsupportedOperationError{Op: "paginate", Kind: stmt.Kind}
		}
		r.write("SELECT * FROM (")
	}

	segs := stmt.Native.Segments
	for i, seg := range segs {
		if seg.Param != nil {
			r.write(r.placeholder(binder.PlaceholderSlot(*seg.Param, domain.TypeAny, "")))
			continue
		}
		text := seg.Text
		if paged && i == len(segs)-1 {
			text = strings.TrimRight(text, " \t\r\n;")
		}
		r.write(text)
	}

	if paged {
		r.write(") AS ", r.d.quote("unisql_page"))
		r.page(stmt.Page)
	}
	return r.nativeSpans(stmt.Native)
}

// nativeSpans lays out declared entities in declaration order, joins after them.
func (r *renderer) nativeSpans(n *domain.NativeText) error {
	if len(n.Entities) == 0 {
		return nil
	}
	bound := make(map[string]string)
	add := func(s Span) error {
		e, err := r.entity(s.Entity)
		if err != nil {
			return err
		}
		s.Entity = e.Name
		s.Start = len(r.columns)
		for _, f := range e.Fields {
			r.columns = append(r.columns, Column{Name: f.Name, Alias: s.Alias, Field: f.Name, Type: f.Type, Span: len(r.spans)})
		}
		s.End = len(r.columns)
		r.spans = append(r.spans, s)
		bound[s.Alias] = e.Name
		return nil
	}
	for _, ne := range n.Entities {
		if err := add(Span{Alias: ne.Alias, Entity: ne.Entity}); err != nil {
			return err
		}
	}
	for _, j := range n.Joins {
		ownerName, ok := bound[j.Owner]
		if !ok {
			return &domain.ResolutionError{Kind: "alias", Name: j.Owner}
		}
		owner, err := r.entity(ownerName)
		if err != nil {
			return err
		}
		assoc, ok := owner.Association(j.Association)
		if !ok {
			return &domain.ResolutionError{Kind: "association", Name: j.Association, Scope: owner.Name}
		}
		err = add(Span{Alias: j.Alias, Entity: assoc.Target, Owner: j.Owner, Association: j.Association, Join: domain.LeftJoin})
		if err != nil {
			return err
		}
	}
	return nil
}

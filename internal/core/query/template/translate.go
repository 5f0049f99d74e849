package template

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/alecthomas/participle/v2/lexer"

	"github.com/satishbabariya/unisql/internal/core/query/builder"
	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/schema"
)

// translator turns a parse tree into a Statement, resolving every path
// against a builder.Scope.
type translator struct {
	provider schema.Provider
	scope    *builder.Scope
}

func syntaxAt(pos lexer.Position, format string, args ...any) error {
	return &domain.SyntaxError{
		Offset: pos.Offset,
		Line:   pos.Line,
		Column: pos.Column,
		Msg:    fmt.Sprintf(format, args...),
	}
}

func (t *translator) template(tpl *Template) (*domain.Statement, error) {
	var (
		stmt *domain.Statement
		err  error
	)
	switch {
	case tpl.Select != nil:
		stmt, err = t.selectStmt(tpl.Select)
	case tpl.Update != nil:
		stmt, err = t.updateStmt(tpl.Update)
	case tpl.Delete != nil:
		stmt, err = t.deleteStmt(tpl.Delete)
	case tpl.Insert != nil:
		stmt, err = t.insertStmt(tpl.Insert)
	default:
		return nil, syntaxAt(tpl.Pos, "empty template")
	}
	if err != nil {
		return nil, err
	}
	if err := stmt.Validate(); err != nil {
		return nil, err
	}
	stmt.CollectPlaceholders()
	return stmt, nil
}

func (t *translator) selectStmt(n *SelectStmt) (*domain.Statement, error) {
	scope, err := builder.NewScope(t.provider, n.From.Entity, n.From.Alias)
	if err != nil {
		return nil, err
	}
	t.scope = scope

	stmt := &domain.Statement{Kind: domain.KindQuery, Root: scope.Root()}

	for _, j := range n.Joins {
		kind := domain.InnerJoin
		switch strings.ToUpper(j.Kind) {
		case "LEFT":
			kind = domain.LeftJoin
		case "INNER", "":
			if j.Outer {
				return nil, syntaxAt(j.Pos, "OUTER is only valid after LEFT")
			}
		}
		spec, err := scope.Join(j.Source+"."+j.Association, kind, j.Alias, j.Fetch)
		if err != nil {
			return nil, err
		}
		stmt.Joins = append(stmt.Joins, spec)
	}

	if n.Select != nil {
		stmt.Projection.Distinct = n.Select.Distinct
		items := n.Select.Body.Items
		if shape := n.Select.Body.Shape; shape != nil {
			items = shape.Items
			stmt.Projection.Shape = &domain.ShapeDecl{Name: shape.Name}
		}
		for _, item := range items {
			e, err := t.expr(item.Expr)
			if err != nil {
				return nil, err
			}
			sel := domain.SelectItem{Expr: e, Alias: item.Alias}
			if shape := stmt.Projection.Shape; shape != nil {
				if sel.Alias == "" {
					ref, ok := e.(domain.FieldRef)
					if !ok {
						return nil, syntaxAt(item.Pos, "item of NEW %s needs an alias", shape.Name)
					}
					sel.Alias = ref.Field
				}
				shape.Fields = append(shape.Fields, sel.Alias)
			}
			stmt.Projection.Items = append(stmt.Projection.Items, sel)
		}
	} else {
		// Without SELECT every non-fetched entity in FROM and JOIN is returned.
		stmt.Projection.Items = append(stmt.Projection.Items, domain.SelectItem{
			Expr: domain.EntityRef{Alias: stmt.Root.Alias, Entity: stmt.Root.Entity},
		})
		for _, j := range stmt.Joins {
			if !j.Fetch {
				stmt.Projection.Items = append(stmt.Projection.Items, domain.SelectItem{
					Expr: domain.EntityRef{Alias: j.Alias, Entity: j.Target},
				})
			}
		}
	}

	if n.Where != nil {
		if stmt.Where, err = t.predicate(n.Where); err != nil {
			return nil, err
		}
	}
	if n.Group != nil {
		group := &domain.GroupSpec{}
		for _, g := range n.Group.Exprs {
			e, err := t.expr(g)
			if err != nil {
				return nil, err
			}
			group.Exprs = append(group.Exprs, e)
		}
		if n.Group.Having != nil {
			if group.Having, err = t.predicate(n.Group.Having); err != nil {
				return nil, err
			}
		}
		stmt.Group = group
	}
	for _, o := range n.Order {
		e, err := t.expr(o.Expr)
		if err != nil {
			return nil, err
		}
		dir := domain.Asc
		if strings.EqualFold(o.Direction, "DESC") {
			dir = domain.Desc
		}
		stmt.Order = append(stmt.Order, domain.OrderSpec{Expr: e, Direction: dir})
	}
	return stmt, nil
}

func (t *translator) updateStmt(n *UpdateStmt) (*domain.Statement, error) {
	scope, err := builder.NewScope(t.provider, n.Entity, n.Alias)
	if err != nil {
		return nil, err
	}
	t.scope = scope
	stmt := &domain.Statement{Kind: domain.KindUpdate, Root: scope.Root()}

	for _, item := range n.Set {
		ref, err := scope.ResolveField(strings.Join(item.Path.Parts, "."))
		if err != nil {
			return nil, err
		}
		if ref.Alias != stmt.Root.Alias {
			return nil, &domain.ResolutionError{Kind: "field", Name: ref.String(), Scope: stmt.Root.Entity, Reason: "only root fields can be assigned"}
		}
		v, err := t.expr(item.Value)
		if err != nil {
			return nil, err
		}
		stmt.Set = append(stmt.Set, domain.Assignment{Field: ref, Value: typed(v, ref.Type)})
	}
	if n.Where != nil {
		if stmt.Where, err = t.predicate(n.Where); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (t *translator) deleteStmt(n *DeleteStmt) (*domain.Statement, error) {
	scope, err := builder.NewScope(t.provider, n.Entity, n.Alias)
	if err != nil {
		return nil, err
	}
	t.scope = scope
	stmt := &domain.Statement{Kind: domain.KindDelete, Root: scope.Root()}
	if n.Where != nil {
		if stmt.Where, err = t.predicate(n.Where); err != nil {
			return nil, err
		}
	}
	return stmt, nil
}

func (t *translator) insertStmt(n *InsertStmt) (*domain.Statement, error) {
	target, err := t.provider.Entity(n.Entity)
	if err != nil {
		return nil, err
	}
	if n.Select.Select == nil {
		return nil, syntaxAt(n.Select.Pos, "INSERT requires an explicit SELECT list")
	}
	source, err := t.selectStmt(n.Select)
	if err != nil {
		return nil, err
	}
	if len(source.Projection.Items) != len(n.Fields) {
		return nil, syntaxAt(n.Pos, "INSERT lists %d fields but SELECT returns %d", len(n.Fields), len(source.Projection.Items))
	}

	spec := &domain.InsertSpec{Entity: target.Name, Select: source}
	for i, name := range n.Fields {
		f, ok := target.Field(name)
		if !ok {
			return nil, &domain.ResolutionError{Kind: "field", Name: name, Scope: target.Name}
		}
		item := source.Projection.Items[i]
		if _, ok := item.Expr.(domain.EntityRef); ok {
			return nil, syntaxAt(n.Select.Pos, "cannot insert a whole entity into %s", name)
		}
		source.Projection.Items[i].Expr = typed(item.Expr, f.Type)
		spec.Fields = append(spec.Fields, domain.FieldRef{
			Entity: target.Name,
			Field:  f.Name,
			Column: f.Column,
			Type:   f.Type,
		})
	}
	return &domain.Statement{
		Kind:   domain.KindInsert,
		Root:   domain.Root{Entity: target.Name},
		Insert: spec,
	}, nil
}

// predicate translates a boolean level of the tree.
func (t *translator) predicate(n *OrExpr) (domain.Predicate, error) {
	if len(n.Right) == 0 {
		return t.and(n.Left)
	}
	children := make([]domain.Predicate, 0, len(n.Right)+1)
	for _, a := range append([]*AndExpr{n.Left}, n.Right...) {
		p, err := t.and(a)
		if err != nil {
			return nil, err
		}
		children = append(children, p)
	}
	return domain.Logical{Op: domain.OR, Children: children}, nil
}

func (t *translator) and(n *AndExpr) (domain.Predicate, error) {
	if len(n.Right) == 0 {
		return t.not(n.Left)
	}
	children := make([]domain.Predicate, 0, len(n.Right)+1)
	for _, x := range append([]*NotExpr{n.Left}, n.Right...) {
		p, err := t.not(x)
		if err != nil {
			return nil, err
		}
		children = append(children, p)
	}
	return domain.Logical{Op: domain.AND, Children: children}, nil
}

func (t *translator) not(n *NotExpr) (domain.Predicate, error) {
	if n.Negated != nil {
		p, err := t.not(n.Negated)
		if err != nil {
			return nil, err
		}
		return domain.Not{Child: p}, nil
	}
	return t.comparison(n.Cmp)
}

func (t *translator) comparison(n *CmpExpr) (domain.Predicate, error) {
	if n.Tail == nil {
		return t.bareCondition(n)
	}
	left, err := t.expr(n.Left)
	if err != nil {
		return nil, err
	}
	if _, ok := left.(domain.EntityRef); ok {
		return nil, syntaxAt(n.Pos, "cannot compare the entity %s; compare one of its fields", left)
	}

	tail := n.Tail
	switch {
	case tail.Compare != nil:
		right, err := t.expr(tail.Compare.Right)
		if err != nil {
			return nil, err
		}
		op := domain.CompareOp(tail.Compare.Op)
		if op == "!=" {
			op = domain.OpNe
		}
		return domain.Comparison{Left: left, Op: op, Right: []domain.Expr{typed(right, left.ResultType())}}, nil
	case tail.Is != nil:
		op := domain.OpIsNull
		if tail.Is.Not {
			op = domain.OpIsNotNull
		}
		return domain.Comparison{Left: left, Op: op}, nil
	case tail.NotRange != nil:
		return t.rangeTail(left, tail.NotRange, true)
	default:
		return t.rangeTail(left, tail.Range, false)
	}
}

func (t *translator) rangeTail(left domain.Expr, n *RangeTail, negated bool) (domain.Predicate, error) {
	var (
		op       domain.CompareOp
		operands []*AddExpr
	)
	switch {
	case n.Between != nil:
		op, operands = domain.OpBetween, []*AddExpr{n.Between.Low, n.Between.High}
		if negated {
			op = domain.OpNotBetween
		}
	case n.In != nil:
		op, operands = domain.OpIn, n.In.Values
		if negated {
			op = domain.OpNotIn
		}
	default:
		op, operands = domain.OpLike, []*AddExpr{n.Like.Pattern}
		if negated {
			op = domain.OpNotLike
		}
	}
	right := make([]domain.Expr, len(operands))
	for i, o := range operands {
		e, err := t.expr(o)
		if err != nil {
			return nil, err
		}
		right[i] = typed(e, left.ResultType())
	}
	return domain.Comparison{Left: left, Op: op, Right: right}, nil
}

// bareCondition handles a condition without an operator: a parenthesised
// condition, a boolean field, or a function call used as a condition.
func (t *translator) bareCondition(n *CmpExpr) (domain.Predicate, error) {
	if prim := soloPrimary(n.Left); prim != nil && prim.Group != nil {
		return t.predicate(prim.Group)
	}
	e, err := t.expr(n.Left)
	if err != nil {
		return nil, err
	}
	switch v := e.(type) {
	case domain.FieldRef:
		if v.Type == domain.TypeBool {
			return domain.Comparison{Left: v, Op: domain.OpEq, Right: []domain.Expr{domain.Literal{Value: true, Type: domain.TypeBool}}}, nil
		}
	case domain.FuncCall:
		return domain.FuncPredicate{Call: v}, nil
	}
	return nil, syntaxAt(n.Pos, "expected a condition, found %s", e)
}

// soloPrimary returns the primary of an expression made of a single primary.
func soloPrimary(n *AddExpr) *Primary {
	if len(n.Right) > 0 || len(n.Left.Right) > 0 || n.Left.Left.Primary == nil {
		return nil
	}
	return n.Left.Left.Primary
}

// expr translates a value level of the tree.
func (t *translator) expr(n *AddExpr) (domain.Expr, error) {
	left, err := t.mul(n.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range n.Right {
		right, err := t.mul(op.Right)
		if err != nil {
			return nil, err
		}
		left = domain.Arith{Op: op.Op, Left: left, Right: right}
	}
	return left, nil
}

func (t *translator) mul(n *MulExpr) (domain.Expr, error) {
	left, err := t.unary(n.Left)
	if err != nil {
		return nil, err
	}
	for _, op := range n.Right {
		right, err := t.unary(op.Right)
		if err != nil {
			return nil, err
		}
		left = domain.Arith{Op: op.Op, Left: left, Right: right}
	}
	return left, nil
}

func (t *translator) unary(n *Unary) (domain.Expr, error) {
	if n.Negated == nil {
		return t.primary(n.Primary)
	}
	e, err := t.unary(n.Negated)
	if err != nil {
		return nil, err
	}
	if lit, ok := e.(domain.Literal); ok {
		switch v := lit.Value.(type) {
		case int64:
			return domain.Literal{Value: -v, Type: lit.Type}, nil
		case float64:
			return domain.Literal{Value: -v, Type: lit.Type}, nil
		}
	}
	return domain.Negate{Expr: e}, nil
}

func (t *translator) primary(n *Primary) (domain.Expr, error) {
	switch {
	case n.Named != nil:
		return domain.Param{Name: strings.TrimPrefix(*n.Named, ":")}, nil
	case n.Positional != nil:
		pos, err := strconv.Atoi(strings.TrimPrefix(*n.Positional, "?"))
		if err != nil || pos < 1 {
			return nil, syntaxAt(n.Pos, "invalid positional placeholder %s", *n.Positional)
		}
		return domain.Param{Position: pos}, nil
	case n.Number != nil:
		if strings.Contains(*n.Number, ".") {
			f, err := strconv.ParseFloat(*n.Number, 64)
			if err != nil {
				return nil, syntaxAt(n.Pos, "invalid number %s", *n.Number)
			}
			return domain.Literal{Value: f, Type: domain.TypeFloat}, nil
		}
		i, err := strconv.ParseInt(*n.Number, 10, 64)
		if err != nil {
			return nil, syntaxAt(n.Pos, "invalid number %s", *n.Number)
		}
		return domain.Literal{Value: i, Type: domain.TypeInt}, nil
	case n.String != nil:
		return domain.Literal{Value: unquote(*n.String), Type: domain.TypeString}, nil
	case n.Bool != nil:
		return domain.Literal{Value: strings.EqualFold(*n.Bool, "TRUE"), Type: domain.TypeBool}, nil
	case n.Null:
		return domain.Literal{Value: nil, Type: domain.TypeAny}, nil
	case n.Call != nil:
		return t.call(n.Call)
	case n.Path != nil:
		return t.scope.Resolve(strings.Join(n.Path.Parts, "."))
	case n.Group != nil:
		if len(n.Group.Right) > 0 || len(n.Group.Left.Right) > 0 ||
			n.Group.Left.Left.Negated != nil || n.Group.Left.Left.Cmp.Tail != nil {
			return nil, syntaxAt(n.Pos, "condition used where a value is expected")
		}
		return t.expr(n.Group.Left.Left.Cmp.Left)
	}
	return nil, syntaxAt(n.Pos, "unexpected expression")
}

func (t *translator) call(n *Call) (domain.Expr, error) {
	var (
		args     []domain.Expr
		star     bool
		distinct bool
	)
	if n.Args != nil {
		star = n.Args.Star
		if n.Args.List != nil {
			distinct = n.Args.List.Distinct
			for _, a := range n.Args.List.Args {
				e, err := t.expr(a)
				if err != nil {
					return nil, err
				}
				args = append(args, e)
			}
		}
	}
	return domain.NewFuncCall(n.Name, distinct, star, args...)
}

// typed gives a constant the type of the expression it is compared with or
// assigned to, so the binder validates it against that type.
func typed(e domain.Expr, t domain.LogicalType) domain.Expr {
	lit, ok := e.(domain.Literal)
	if !ok || lit.Value == nil || t == domain.TypeAny || t == "" {
		return e
	}
	return domain.Literal{Value: lit.Value, Type: t}
}

func unquote(s string) string {
	return strings.ReplaceAll(s[1:len(s)-1], "''", "'")
}

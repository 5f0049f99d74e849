package builder

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// Operand is an expression under construction. A failed resolution travels
// inside the Operand and surfaces from every Cond built on top of it.
type Operand struct {
	expr domain.Expr
	err  error
}

// Expr returns the expression and the construction error, if any.
func (o Operand) Expr() (domain.Expr, error) { return o.expr, o.err }

// Err returns the construction error.
func (o Operand) Err() error { return o.err }

// As pairs the operand with a projection alias.
func (o Operand) As(alias string) Selection {
	return Selection{operand: o, alias: alias}
}

// Selection is a projected operand with an alias.
type Selection struct {
	operand Operand
	alias   string
}

// Cond is a predicate under construction. Conds are values and can be reused
// across statements built from equivalent scopes.
type Cond struct {
	pred domain.Predicate
	err  error
}

// Predicate returns the predicate tree and the construction error, if any.
func (c Cond) Predicate() (domain.Predicate, error) { return c.pred, c.err }

// Err returns the construction error.
func (c Cond) Err() error { return c.err }

func (c Cond) String() string {
	if c.err != nil {
		return "<invalid: " + c.err.Error() + ">"
	}
	return c.pred.String()
}

func failed(err error) Cond { return Cond{err: err} }

// Value wraps a constant. It is always sent to the database as a bound argument.
func Value(v any) Operand {
	return Operand{expr: domain.Literal{Value: v, Type: inferType(v)}}
}

// Param references the named placeholder ":name".
func Param(name string) Operand {
	if name == "" {
		return Operand{err: &domain.UnknownPlaceholderError{}}
	}
	return Operand{expr: domain.Param{Name: name}}
}

// Positional references the 1-based positional placeholder "?n".
func Positional(n int) Operand {
	if n < 1 {
		return Operand{err: &domain.UnknownPlaceholderError{Position: n}}
	}
	return Operand{expr: domain.Param{Position: n}}
}

// CurrentTimestamp is the database's current time (HQL sysdate()).
func CurrentTimestamp() Operand {
	call, err := domain.NewFuncCall("current_timestamp", false, false)
	return Operand{expr: call, err: err}
}

// Field resolves a field path such as "u.createdAt" or "fullname".
func (s *Scope) Field(path string) Operand {
	e, err := s.Resolve(path)
	return Operand{expr: e, err: err}
}

// Entity references the whole entity bound to alias.
func (s *Scope) Entity(alias string) Operand {
	if err := s.failure(); err != nil {
		return Operand{err: err}
	}
	e, ok := s.entities[alias]
	if !ok {
		return Operand{err: &domain.ResolutionError{Kind: "alias", Name: alias}}
	}
	return Operand{expr: domain.EntityRef{Alias: alias, Entity: e.Name}}
}

// Equal builds field = value.
func (s *Scope) Equal(field, value any) Cond { return s.compare(field, domain.OpEq, value) }

// NotEqual builds field <> value.
func (s *Scope) NotEqual(field, value any) Cond { return s.compare(field, domain.OpNe, value) }

// GreaterThan builds field > value.
func (s *Scope) GreaterThan(field, value any) Cond { return s.compare(field, domain.OpGt, value) }

// GreaterOrEqual builds field >= value.
func (s *Scope) GreaterOrEqual(field, value any) Cond { return s.compare(field, domain.OpGe, value) }

// LessThan builds field < value.
func (s *Scope) LessThan(field, value any) Cond { return s.compare(field, domain.OpLt, value) }

// LessOrEqual builds field <= value.
func (s *Scope) LessOrEqual(field, value any) Cond { return s.compare(field, domain.OpLe, value) }

// Like builds field LIKE pattern.
func (s *Scope) Like(field, pattern any) Cond { return s.compare(field, domain.OpLike, pattern) }

// NotLike builds field NOT LIKE pattern.
func (s *Scope) NotLike(field, pattern any) Cond { return s.compare(field, domain.OpNotLike, pattern) }

// Between builds field BETWEEN low AND high.
func (s *Scope) Between(field, low, high any) Cond {
	return s.compare(field, domain.OpBetween, low, high)
}

// NotBetween builds field NOT BETWEEN low AND high.
func (s *Scope) NotBetween(field, low, high any) Cond {
	return s.compare(field, domain.OpNotBetween, low, high)
}

// In builds field IN (values...). Each value is bound separately; pass the
// elements, not a slice.
func (s *Scope) In(field any, values ...any) Cond { return s.compare(field, domain.OpIn, values...) }

// NotIn builds field NOT IN (values...).
func (s *Scope) NotIn(field any, values ...any) Cond {
	return s.compare(field, domain.OpNotIn, values...)
}

// IsNull builds field IS NULL.
func (s *Scope) IsNull(field any) Cond { return s.compare(field, domain.OpIsNull) }

// IsNotNull builds field IS NOT NULL.
func (s *Scope) IsNotNull(field any) Cond { return s.compare(field, domain.OpIsNotNull) }

// Compare builds a comparison for an arbitrary operator.
func (s *Scope) Compare(field any, op domain.CompareOp, values ...any) Cond {
	return s.compare(field, op, values...)
}

func (s *Scope) compare(field any, op domain.CompareOp, values ...any) Cond {
	if err := s.failure(); err != nil {
		return failed(err)
	}
	left, err := s.path(field)
	if err != nil {
		return failed(err)
	}
	if _, ok := left.(domain.EntityRef); ok {
		return failed(&domain.ResolutionError{Kind: "field", Name: left.String(), Reason: "cannot compare a whole entity"})
	}
	switch arity := op.Arity(); {
	case arity == -1 && len(values) == 0:
		return failed(fmt.Errorf("%s requires at least one value: %w", op, domain.ErrUnsupportedOperation))
	case arity >= 0 && len(values) != arity:
		return failed(fmt.Errorf("%s takes %d value(s), got %d: %w", op, arity, len(values), domain.ErrUnsupportedOperation))
	}

	right := make([]domain.Expr, len(values))
	for i, v := range values {
		e, err := s.value(v, left.ResultType())
		if err != nil {
			return failed(err)
		}
		right[i] = e
	}
	return Cond{pred: domain.Comparison{Left: left, Op: op, Right: right}}
}

// And joins conditions with AND. A single condition is returned unchanged.
func And(conds ...Cond) Cond { return logical(domain.AND, conds) }

// Or joins conditions with OR.
func Or(conds ...Cond) Cond { return logical(domain.OR, conds) }

func logical(op domain.LogicalOperator, conds []Cond) Cond {
	if len(conds) == 0 {
		return failed(fmt.Errorf("%s requires at least one condition: %w", op, domain.ErrUnsupportedOperation))
	}
	children := make([]domain.Predicate, 0, len(conds))
	for _, c := range conds {
		if c.err != nil {
			return c
		}
		children = append(children, c.pred)
	}
	if len(children) == 1 {
		return Cond{pred: children[0]}
	}
	return Cond{pred: domain.Logical{Op: op, Children: children}}
}

// Not negates a condition.
func Not(c Cond) Cond {
	if c.err != nil {
		return c
	}
	return Cond{pred: domain.Not{Child: c.pred}}
}

// Holds uses a boolean-valued expression as a condition.
func Holds(o Operand) Cond {
	if o.err != nil {
		return failed(o.err)
	}
	call, ok := o.expr.(domain.FuncCall)
	if !ok {
		return failed(&domain.ResolutionError{Kind: "function", Name: o.expr.String(), Reason: "only function calls can be used as conditions"})
	}
	return Cond{pred: domain.FuncPredicate{Call: call}}
}

// path converts a field argument: strings are paths, Operands and expressions
// are used as they are.
func (s *Scope) path(v any) (domain.Expr, error) {
	switch x := v.(type) {
	case string:
		return s.Resolve(x)
	case Operand:
		return x.expr, x.err
	case domain.Expr:
		return x, nil
	case nil:
		return nil, &domain.ResolutionError{Kind: "field", Name: "<nil>"}
	default:
		return nil, &domain.ResolutionError{Kind: "field", Name: fmt.Sprint(v), Reason: fmt.Sprintf("expected a path or an expression, got %T", v)}
	}
}

// value converts a value argument: Operands and expressions are used as they
// are, anything else becomes a literal typed like the other side of the
// comparison, so the binder checks it against the field's type.
func (s *Scope) value(v any, hint domain.LogicalType) (domain.Expr, error) {
	switch x := v.(type) {
	case Operand:
		return x.expr, x.err
	case domain.Expr:
		return x, nil
	}
	t := hint
	if t == domain.TypeAny || t == "" {
		t = inferType(v)
	}
	return domain.Literal{Value: v, Type: t}, nil
}

func inferType(v any) domain.LogicalType {
	switch v.(type) {
	case string:
		return domain.TypeString
	case int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return domain.TypeInt
	case float32, float64:
		return domain.TypeFloat
	case bool:
		return domain.TypeBool
	case time.Time:
		return domain.TypeTime
	case []byte:
		return domain.TypeBytes
	case uuid.UUID:
		return domain.TypeUUID
	default:
		return domain.TypeAny
	}
}

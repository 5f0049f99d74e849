package domain

import "fmt"

// Expr is a value-producing node of a statement: a field, an entity, a literal,
// a placeholder, a function call or an arithmetic combination.
type Expr interface {
	isExpr()
	// ResultType is the logical type the expression evaluates to.
	ResultType() LogicalType
	String() string
}

// FieldRef references a persistent field of the entity bound to Alias.
type FieldRef struct {
	Alias  string
	Entity string
	Field  string
	Column string
	Type   LogicalType
}

func (FieldRef) isExpr() {}

// ResultType returns the declared field type.
func (f FieldRef) ResultType() LogicalType { return f.Type }

func (f FieldRef) String() string { return f.Alias + "." + f.Field }

// EntityRef selects a whole entity instance bound to Alias.
type EntityRef struct {
	Alias  string
	Entity string
}

func (EntityRef) isExpr() {}

// ResultType of an entity reference is TypeAny; entities are materialized by span.
func (EntityRef) ResultType() LogicalType { return TypeAny }

func (e EntityRef) String() string { return e.Alias }

// Literal is a constant written in a template or passed to the structured builder.
// It is always sent to the database as a bound argument.
type Literal struct {
	Value any
	Type  LogicalType
}

func (Literal) isExpr() {}

// ResultType returns the literal's type.
func (l Literal) ResultType() LogicalType { return l.Type }

func (l Literal) String() string {
	if l.Value == nil {
		return "NULL"
	}
	if s, ok := l.Value.(string); ok {
		return fmt.Sprintf("'%s'", s)
	}
	return fmt.Sprintf("%v", l.Value)
}

// Param is a placeholder resolved at bind time, either by Name (":name") or by
// 1-based Position ("?1").
type Param struct {
	Name     string
	Position int
}

func (Param) isExpr() {}

// ResultType of a parameter is only known from its context.
func (Param) ResultType() LogicalType { return TypeAny }

func (p Param) String() string { return p.Key() }

// Key renders the placeholder the way it is written in template text.
func (p Param) Key() string {
	if p.Name != "" {
		return ":" + p.Name
	}
	return fmt.Sprintf("?%d", p.Position)
}

// FuncCall is a function or aggregate applied to arguments.
// Star marks COUNT(*); Distinct marks COUNT(DISTINCT x).
type FuncCall struct {
	Name     string
	Args     []Expr
	Distinct bool
	Star     bool
	Type     LogicalType
}

func (FuncCall) isExpr() {}

// ResultType returns the declared result type of the function.
func (f FuncCall) ResultType() LogicalType { return f.Type }

func (f FuncCall) String() string {
	if f.Star {
		return f.Name + "(*)"
	}
	s := f.Name + "("
	if f.Distinct {
		s += "DISTINCT "
	}
	for i, a := range f.Args {
		if i > 0 {
			s += ", "
		}
		s += a.String()
	}
	return s + ")"
}

// Arith is a binary arithmetic or string concatenation expression.
type Arith struct {
	Op    string // one of + - * / % ||
	Left  Expr
	Right Expr
}

func (Arith) isExpr() {}

// ResultType is String for concatenation, Float if either side is Float, else Int.
func (a Arith) ResultType() LogicalType {
	if a.Op == "||" {
		return TypeString
	}
	if a.Left.ResultType() == TypeFloat || a.Right.ResultType() == TypeFloat || a.Op == "/" {
		return TypeFloat
	}
	if a.Left.ResultType() == TypeInt || a.Right.ResultType() == TypeInt {
		return TypeInt
	}
	return TypeAny
}

func (a Arith) String() string {
	return "(" + a.Left.String() + " " + a.Op + " " + a.Right.String() + ")"
}

// Negate is unary minus.
type Negate struct {
	Expr Expr
}

func (Negate) isExpr() {}

// ResultType returns the operand type.
func (n Negate) ResultType() LogicalType { return n.Expr.ResultType() }

func (n Negate) String() string { return "-" + n.Expr.String() }

// WalkExpr calls fn for e and every expression nested inside it, depth first.
func WalkExpr(e Expr, fn func(Expr)) {
	if e == nil {
		return
	}
	fn(e)
	switch v := e.(type) {
	case FuncCall:
		for _, a := range v.Args {
			WalkExpr(a, fn)
		}
	case Arith:
		WalkExpr(v.Left, fn)
		WalkExpr(v.Right, fn)
	case Negate:
		WalkExpr(v.Expr, fn)
	}
}

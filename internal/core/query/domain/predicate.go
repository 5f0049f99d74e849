package domain

import "strings"

// Predicate is a boolean expression tree node used by WHERE and HAVING.
// Predicates are immutable once built and may be shared between statements.
type Predicate interface {
	isPredicate()
	String() string
}

// CompareOp represents a comparison operator.
type CompareOp string

const (
	OpEq         CompareOp = "="
	OpNe         CompareOp = "<>"
	OpGt         CompareOp = ">"
	OpGe         CompareOp = ">="
	OpLt         CompareOp = "<"
	OpLe         CompareOp = "<="
	OpLike       CompareOp = "LIKE"
	OpNotLike    CompareOp = "NOT LIKE"
	OpIn         CompareOp = "IN"
	OpNotIn      CompareOp = "NOT IN"
	OpBetween    CompareOp = "BETWEEN"
	OpNotBetween CompareOp = "NOT BETWEEN"
	OpIsNull     CompareOp = "IS NULL"
	OpIsNotNull  CompareOp = "IS NOT NULL"
)

// Arity returns how many right-hand operands the operator takes; -1 means one or more.
func (op CompareOp) Arity() int {
	switch op {
	case OpIsNull, OpIsNotNull:
		return 0
	case OpBetween, OpNotBetween:
		return 2
	case OpIn, OpNotIn:
		return -1
	default:
		return 1
	}
}

// Comparison compares Left against the Right operands.
type Comparison struct {
	Left  Expr
	Op    CompareOp
	Right []Expr
}

func (Comparison) isPredicate() {}

func (c Comparison) String() string {
	var b strings.Builder
	b.WriteString(c.Left.String())
	b.WriteString(" ")
	b.WriteString(string(c.Op))
	switch c.Op.Arity() {
	case 0:
	case 2:
		b.WriteString(" " + c.Right[0].String() + " AND " + c.Right[1].String())
	case -1:
		parts := make([]string, len(c.Right))
		for i, r := range c.Right {
			parts[i] = r.String()
		}
		b.WriteString(" (" + strings.Join(parts, ", ") + ")")
	default:
		b.WriteString(" " + c.Right[0].String())
	}
	return b.String()
}

// LogicalOperator represents logical operators for combining predicates.
type LogicalOperator string

const (
	// AND combines predicates with AND.
	AND LogicalOperator = "AND"
	// OR combines predicates with OR.
	OR LogicalOperator = "OR"
)

// Logical joins its children with one boolean connective.
type Logical struct {
	Op       LogicalOperator
	Children []Predicate
}

func (Logical) isPredicate() {}

func (l Logical) String() string {
	parts := make([]string, len(l.Children))
	for i, c := range l.Children {
		parts[i] = c.String()
	}
	return "(" + strings.Join(parts, " "+string(l.Op)+" ") + ")"
}

// Not negates its child.
type Not struct {
	Child Predicate
}

func (Not) isPredicate() {}

func (n Not) String() string { return "NOT " + n.Child.String() }

// FuncPredicate is a boolean-valued function call used directly as a condition.
type FuncPredicate struct {
	Call FuncCall
}

func (FuncPredicate) isPredicate() {}

func (f FuncPredicate) String() string { return f.Call.String() }

// WalkPredicate calls fn for every expression reachable from p.
func WalkPredicate(p Predicate, fn func(Expr)) {
	switch v := p.(type) {
	case Comparison:
		WalkExpr(v.Left, fn)
		for _, r := range v.Right {
			WalkExpr(r, fn)
		}
	case Logical:
		for _, c := range v.Children {
			WalkPredicate(c, fn)
		}
	case Not:
		WalkPredicate(v.Child, fn)
	case FuncPredicate:
		WalkExpr(v.Call, fn)
	}
}

package domain

// Statement is the front-end agnostic form of one query or data-modification
// request. It is built once by a front-end, then treated as read-only by the
// execution engine; it carries no connection or transaction state.
type Statement struct {
	Kind       StatementKind
	Root       Root
	Projection Projection
	Joins      []JoinSpec
	Where      Predicate
	Order      []OrderSpec
	Group      *GroupSpec
	Page       Pagination

	// Set holds UPDATE assignments.
	Set []Assignment
	// Insert holds the target and source of INSERT ... SELECT.
	Insert *InsertSpec
	// Native is set when the statement wraps caller-supplied dialect text.
	Native *NativeText

	// Placeholders lists every placeholder referenced by the statement, in order of
	// first appearance.
	Placeholders []Param
}

// Root is the primary source entity and its alias.
type Root struct {
	Entity string
	Alias  string
}

// SelectItem is one projected expression with an optional alias.
type SelectItem struct {
	Expr  Expr
	Alias string
}

// ShapeDecl declares a constructor-style projection: SELECT NEW Name(a, b).
type ShapeDecl struct {
	Name   string
	Fields []string
}

// Projection is the ordered list of selected expressions.
type Projection struct {
	Items    []SelectItem
	Distinct bool
	Shape    *ShapeDecl
}

// JoinKind represents the join type.
type JoinKind string

const (
	// InnerJoin keeps only rows with a matching association.
	InnerJoin JoinKind = "INNER"
	// LeftJoin keeps root rows without a match, with a NULL span.
	LeftJoin JoinKind = "LEFT"
)

// JoinSpec follows Association from the entity bound to Source, binding the target
// entity to Alias.
type JoinSpec struct {
	Source      string
	Association string
	Target      string
	Kind        JoinKind
	Alias       string
	Fetch       bool
}

// Path returns the relation path as written in templates, e.g. "u.userProfile".
func (j JoinSpec) Path() string { return j.Source + "." + j.Association }

// SortDirection represents sort direction.
type SortDirection string

const (
	// Asc sorts ascending.
	Asc SortDirection = "ASC"
	// Desc sorts descending.
	Desc SortDirection = "DESC"
)

// OrderSpec is one ORDER BY key; keys are applied left to right as tie-breakers.
type OrderSpec struct {
	Expr      Expr
	Direction SortDirection
}

// GroupSpec holds GROUP BY expressions and the optional HAVING filter.
type GroupSpec struct {
	Exprs  []Expr
	Having Predicate
}

// Pagination skips Offset rows and returns at most Limit rows. Limit 0 means no cap.
type Pagination struct {
	Offset int
	Limit  int
}

// IsZero reports whether no pagination is requested.
func (p Pagination) IsZero() bool { return p.Offset == 0 && p.Limit == 0 }

// Assignment is one "field = value" pair of an UPDATE.
type Assignment struct {
	Field FieldRef
	Value Expr
}

// InsertSpec describes INSERT INTO Entity(fields) SELECT ...
type InsertSpec struct {
	Entity string
	Fields []FieldRef
	Select *Statement
}

// NativeText is dialect text split around its placeholders.
type NativeText struct {
	Text     string
	Segments []NativeSegment
	// Entities and Joins declare entity spans for materialization, in column order.
	Entities []NativeEntity
	Joins    []NativeJoin
}

// NativeSegment is either literal text or a placeholder.
type NativeSegment struct {
	Text  string
	Param *Param
}

// NativeEntity binds an alias to an entity type for native results.
type NativeEntity struct {
	Alias  string
	Entity string
}

// NativeJoin declares that the columns following the root span belong to the
// association Path ("owner.association") bound to Alias.
type NativeJoin struct {
	Alias       string
	Owner       string
	Association string
}

// WithOffset returns a copy with the offset set. Only query statements can be paginated.
func (s *Statement) WithOffset(n int) (*Statement, error) {
	if s.Kind.IsDML() {
		return nil, &UnsupportedOperationError{Op: "withOffset", Kind: s.Kind}
	}
	if n < 0 {
		return nil, &UnsupportedOperationError{Op: "withOffset", Kind: s.Kind, Reason: "offset must not be negative"}
	}
	c := *s
	c.Page.Offset = n
	return &c, nil
}

// WithLimit returns a copy with the limit set. Only query statements can be paginated.
func (s *Statement) WithLimit(n int) (*Statement, error) {
	if s.Kind.IsDML() {
		return nil, &UnsupportedOperationError{Op: "withLimit", Kind: s.Kind}
	}
	if n < 0 {
		return nil, &UnsupportedOperationError{Op: "withLimit", Kind: s.Kind, Reason: "limit must not be negative"}
	}
	c := *s
	c.Page.Limit = n
	return &c, nil
}

// Aliases returns the root alias followed by every join alias.
func (s *Statement) Aliases() []string {
	out := []string{s.Root.Alias}
	for _, j := range s.Joins {
		out = append(out, j.Alias)
	}
	return out
}

// Validate checks the alias invariants: join aliases never collide with the root or
// with each other, and projection aliases are unique.
func (s *Statement) Validate() error {
	seen := map[string]bool{}
	if s.Root.Alias != "" {
		seen[s.Root.Alias] = true
	}
	for _, j := range s.Joins {
		if seen[j.Alias] {
			return &ResolutionError{Kind: "alias", Name: j.Alias, Reason: "alias already in use"}
		}
		seen[j.Alias] = true
	}
	names := map[string]bool{}
	for _, item := range s.Projection.Items {
		if item.Alias == "" {
			continue
		}
		if names[item.Alias] {
			return &ResolutionError{Kind: "alias", Name: item.Alias, Reason: "duplicate projection alias"}
		}
		names[item.Alias] = true
	}
	return nil
}

// RegisterPlaceholder appends p to Placeholders unless it is already listed.
func (s *Statement) RegisterPlaceholder(p Param) {
	for _, existing := range s.Placeholders {
		if existing == p {
			return
		}
	}
	s.Placeholders = append(s.Placeholders, p)
}

// CollectPlaceholders rebuilds Placeholders from the expression trees, in the
// order the clauses are rendered.
func (s *Statement) CollectPlaceholders() {
	s.Placeholders = nil
	visit := func(e Expr) {
		if p, ok := e.(Param); ok {
			s.RegisterPlaceholder(p)
		}
	}
	s.walk(visit)
}

func (s *Statement) walk(fn func(Expr)) {
	if s.Native != nil {
		for _, seg := range s.Native.Segments {
			if seg.Param != nil {
				fn(*seg.Param)
			}
		}
		return
	}
	if s.Insert != nil && s.Insert.Select != nil {
		s.Insert.Select.walk(fn)
		return
	}
	for _, a := range s.Set {
		WalkExpr(a.Value, fn)
	}
	for _, item := range s.Projection.Items {
		WalkExpr(item.Expr, fn)
	}
	if s.Where != nil {
		WalkPredicate(s.Where, fn)
	}
	if s.Group != nil {
		for _, e := range s.Group.Exprs {
			WalkExpr(e, fn)
		}
		if s.Group.Having != nil {
			WalkPredicate(s.Group.Having, fn)
		}
	}
	for _, o := range s.Order {
		WalkExpr(o.Expr, fn)
	}
}

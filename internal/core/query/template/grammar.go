package template

import (
	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"
)

// Template is the parse tree root: one query or data-modification statement.
type Template struct {
	Pos    lexer.Position
	Select *SelectStmt `  @@`
	Update *UpdateStmt `| @@`
	Delete *DeleteStmt `| @@`
	Insert *InsertStmt `| @@`
}

// SelectStmt is [SELECT ...] FROM ... [JOIN ...] [WHERE] [GROUP BY [HAVING]] [ORDER BY].
// The clause order is fixed by the grammar.
type SelectStmt struct {
	Pos    lexer.Position
	Select *SelectClause `@@?`
	From   *FromClause   `"FROM" @@`
	Joins  []*JoinClause `@@*`
	Where  *OrExpr       `("WHERE" @@)?`
	Group  *GroupClause  `@@?`
	Order  []*OrderItem  `("ORDER" "BY" @@ ("," @@)*)?`
}

// SelectClause is SELECT [DISTINCT] followed by the projection.
type SelectClause struct {
	Pos      lexer.Position
	Distinct bool        `"SELECT" @"DISTINCT"?`
	Body     *SelectBody `@@`
}

// SelectBody is the projection: a constructor shape or plain items.
type SelectBody struct {
	Shape *ShapeClause  `  @@`
	Items []*SelectItem `| @@ ("," @@)*`
}

// ShapeClause is NEW Name(items).
type ShapeClause struct {
	Pos   lexer.Position
	Name  string        `"NEW" @Ident (@"." @Ident)*`
	Items []*SelectItem `"(" @@ ("," @@)* ")"`
}

// SelectItem is one projected expression with an optional alias.
type SelectItem struct {
	Pos   lexer.Position
	Expr  *AddExpr `@@`
	Alias string   `("AS"? @Ident)?`
}

// FromClause names the root entity.
type FromClause struct {
	Pos    lexer.Position
	Entity string `@Ident`
	Alias  string `("AS"? @Ident)?`
}

// JoinClause is [INNER | LEFT [OUTER]] JOIN [FETCH] alias.association [AS] alias.
type JoinClause struct {
	Pos         lexer.Position
	Kind        string `@("INNER" | "LEFT")?`
	Outer       bool   `@"OUTER"?`
	Fetch       bool   `"JOIN" @"FETCH"?`
	Source      string `@Ident "."`
	Association string `@Ident`
	Alias       string `("AS"? @Ident)?`
}

// GroupClause is GROUP BY exprs [HAVING cond].
type GroupClause struct {
	Pos    lexer.Position
	Exprs  []*AddExpr `"GROUP" "BY" @@ ("," @@)*`
	Having *OrExpr    `("HAVING" @@)?`
}

// OrderItem is one ORDER BY key.
type OrderItem struct {
	Pos       lexer.Position
	Expr      *AddExpr `@@`
	Direction string   `@("ASC" | "DESC")?`
}

// UpdateStmt is UPDATE Entity [alias] SET path = expr, ... [WHERE cond].
type UpdateStmt struct {
	Pos    lexer.Position
	Entity string     `"UPDATE" @Ident`
	Alias  string     `("AS"? @Ident)?`
	Set    []*SetItem `"SET" @@ ("," @@)*`
	Where  *OrExpr    `("WHERE" @@)?`
}

// SetItem is one assignment.
type SetItem struct {
	Pos   lexer.Position
	Path  *Path    `@@ "="`
	Value *AddExpr `@@`
}

// DeleteStmt is DELETE [FROM] Entity [alias] [WHERE cond].
type DeleteStmt struct {
	Pos    lexer.Position
	Entity string  `"DELETE" "FROM"? @Ident`
	Alias  string  `("AS"? @Ident)?`
	Where  *OrExpr `("WHERE" @@)?`
}

// InsertStmt is INSERT INTO Entity(fields) SELECT ...
type InsertStmt struct {
	Pos    lexer.Position
	Entity string      `"INSERT" "INTO" @Ident`
	Fields []string    `"(" @Ident ("," @Ident)* ")"`
	Select *SelectStmt `@@`
}

// OrExpr is the lowest-precedence level: conditions joined by OR.
type OrExpr struct {
	Pos   lexer.Position
	Left  *AndExpr   `@@`
	Right []*AndExpr `("OR" @@)*`
}

// AndExpr is conditions joined by AND.
type AndExpr struct {
	Pos   lexer.Position
	Left  *NotExpr   `@@`
	Right []*NotExpr `("AND" @@)*`
}

// NotExpr is an optionally negated comparison.
type NotExpr struct {
	Pos     lexer.Position
	Negated *NotExpr `  "NOT" @@`
	Cmp     *CmpExpr `| @@`
}

// CmpExpr is a value expression optionally followed by a comparison tail.
type CmpExpr struct {
	Pos  lexer.Position
	Left *AddExpr `@@`
	Tail *CmpTail `@@?`
}

// CmpTail is the operator part of a comparison.
type CmpTail struct {
	Pos      lexer.Position
	Compare  *CompareTail `  @@`
	Is       *IsTail      `| @@`
	NotRange *RangeTail   `| "NOT" @@`
	Range    *RangeTail   `| @@`
}

// CompareTail is a binary comparison.
type CompareTail struct {
	Op    string   `@("=" | "<>" | "!=" | "<=" | ">=" | "<" | ">")`
	Right *AddExpr `@@`
}

// IsTail is IS [NOT] NULL.
type IsTail struct {
	Not bool `"IS" @"NOT"? "NULL"`
}

// RangeTail is BETWEEN, IN or LIKE, each of which may be negated.
type RangeTail struct {
	Between *BetweenTail `  @@`
	In      *InTail      `| @@`
	Like    *LikeTail    `| @@`
}

// BetweenTail is BETWEEN low AND high.
type BetweenTail struct {
	Low  *AddExpr `"BETWEEN" @@`
	High *AddExpr `"AND" @@`
}

// InTail is IN (values).
type InTail struct {
	Values []*AddExpr `"IN" "(" @@ ("," @@)* ")"`
}

// LikeTail is LIKE pattern.
type LikeTail struct {
	Pattern *AddExpr `"LIKE" @@`
}

// AddExpr is additive arithmetic and string concatenation.
type AddExpr struct {
	Pos   lexer.Position
	Left  *MulExpr `@@`
	Right []*AddOp `@@*`
}

// AddOp is one additive operator and its right operand.
type AddOp struct {
	Op    string   `@("+" | "-" | "||")`
	Right *MulExpr `@@`
}

// MulExpr is multiplicative arithmetic.
type MulExpr struct {
	Pos   lexer.Position
	Left  *Unary   `@@`
	Right []*MulOp `@@*`
}

// MulOp is one multiplicative operator and its right operand.
type MulOp struct {
	Op    string `@("*" | "/" | "%")`
	Right *Unary `@@`
}

// Unary is an optionally negated primary.
type Unary struct {
	Pos     lexer.Position
	Negated *Unary   `  "-" @@`
	Primary *Primary `| @@`
}

// Primary is a literal, a placeholder, a call, a path or a parenthesised expression.
type Primary struct {
	Pos        lexer.Position
	Named      *string `  @NamedParam`
	Positional *string `| @PositionalParam`
	Number     *string `| @Number`
	String     *string `| @String`
	Bool       *string `| @("TRUE" | "FALSE")`
	Null       bool    `| @"NULL"`
	Call       *Call   `| @@`
	Path       *Path   `| @@`
	Group      *OrExpr `| "(" @@ ")"`
}

// Call is name(args), name(*) or name(DISTINCT args).
type Call struct {
	Pos  lexer.Position
	Name string    `@Ident "("`
	Args *CallArgs `@@? ")"`
}

// CallArgs is the argument list of a call.
type CallArgs struct {
	Star bool     `  @"*"`
	List *ArgList `| @@`
}

// ArgList is [DISTINCT] expr, ...
type ArgList struct {
	Distinct bool       `@"DISTINCT"?`
	Args     []*AddExpr `@@ ("," @@)*`
}

// Path is alias, field, or alias.field.
type Path struct {
	Pos   lexer.Position
	Parts []string `@Ident ("." @Ident)*`
}

var parser = participle.MustBuild[Template](
	participle.Lexer(TemplateLexer),
	participle.Elide("Whitespace"),
	participle.CaseInsensitive("Keyword"),
	participle.UseLookahead(10),
)

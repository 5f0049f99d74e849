package template

import (
	"github.com/alecthomas/participle/v2/lexer"
)

// TemplateLexer defines the token types of the template language.
var TemplateLexer = lexer.MustSimple([]lexer.SimpleRule{
	{Name: "Whitespace", Pattern: `\s+`},

	// Literals
	{Name: "String", Pattern: `'(?:[^']|'')*'`},
	{Name: "Number", Pattern: `\d+(?:\.\d+)?`},

	// Placeholders
	{Name: "NamedParam", Pattern: `:[a-zA-Z_][a-zA-Z0-9_]*`},
	{Name: "PositionalParam", Pattern: `\?\d+`},

	// Keywords (must come before Ident)
	{Name: "Keyword", Pattern: `\b(?i:SELECT|DISTINCT|NEW|FROM|AS|INNER|LEFT|OUTER|JOIN|FETCH|WHERE|AND|OR|NOT|IS|NULL|IN|LIKE|BETWEEN|GROUP|BY|HAVING|ORDER|ASC|DESC|UPDATE|SET|DELETE|INSERT|INTO|TRUE|FALSE)\b`},

	{Name: "Ident", Pattern: `[a-zA-Z_][a-zA-Z0-9_]*`},

	// Operators, longest first
	{Name: "Op", Pattern: `<>|!=|<=|>=|\|\||[-+*/%=<>]`},
	{Name: "Punct", Pattern: `[(),.]`},
})

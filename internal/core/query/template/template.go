// Package template compiles entity-level query templates into statements.
//
// Templates name entities and their fields rather than tables and columns:
//
//	SELECT u.username FROM User u LEFT JOIN u.userProfile p WHERE p.address LIKE :city
//
// A template is parsed, every path is resolved against the entity metadata,
// and the result is a domain.Statement ready for the execution engine.
package template

import (
	"errors"

	"github.com/alecthomas/participle/v2"
	"github.com/alecthomas/participle/v2/lexer"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
	"github.com/satishbabariya/unisql/internal/core/schema"
)

// Parse parses a template without resolving it.
func Parse(text string) (*Template, error) {
	tpl, err := parser.ParseString("", text)
	if err != nil {
		if gerr := unbalanced(text); gerr != nil {
			return nil, gerr
		}
		return nil, syntaxError(err)
	}
	return tpl, nil
}

// Compile parses text and resolves it against provider.
func Compile(provider schema.Provider, text string) (*domain.Statement, error) {
	tpl, err := Parse(text)
	if err != nil {
		return nil, err
	}
	t := &translator{provider: provider}
	return t.template(tpl)
}

// MustCompile is like Compile but panics on error.
func MustCompile(provider schema.Provider, text string) *domain.Statement {
	stmt, err := Compile(provider, text)
	if err != nil {
		panic(err)
	}
	return stmt
}

func syntaxError(err error) error {
	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		return &domain.SyntaxError{
			Offset: pos.Offset,
			Line:   pos.Line,
			Column: pos.Column,
			Msg:    perr.Message(),
		}
	}
	return &domain.SyntaxError{Msg: err.Error()}
}

// unbalanced reports the first parenthesis without a partner. The parser's
// own error for an unclosed group points at whatever alternative it tried
// last, so this runs only after a failed parse.
func unbalanced(text string) error {
	lex, err := TemplateLexer.LexString("", text)
	if err != nil {
		return nil
	}
	punct := TemplateLexer.Symbols()["Punct"]
	var open []lexer.Position
	for {
		tok, err := lex.Next()
		if err != nil {
			return nil
		}
		if tok.EOF() {
			break
		}
		if tok.Type != punct {
			continue
		}
		switch tok.Value {
		case "(":
			open = append(open, tok.Pos)
		case ")":
			if len(open) == 0 {
				return positioned(tok.Pos, `unexpected ")" without a matching "("`)
			}
			open = open[:len(open)-1]
		}
	}
	if len(open) > 0 {
		return positioned(open[len(open)-1], `unclosed "("`)
	}
	return nil
}

func positioned(pos lexer.Position, msg string) error {
	return &domain.SyntaxError{Offset: pos.Offset, Line: pos.Line, Column: pos.Column, Msg: msg}
}

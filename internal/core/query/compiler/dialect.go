package compiler

import (
	"fmt"
	"strings"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// dialect holds the per-database rendering rules.
type dialect struct {
	name domain.SQLDialect
	// quote wraps an identifier.
	quote func(string) string
	// marker renders the n-th (1-based) argument marker.
	marker func(n int) string
	// unbounded is the LIMIT used when only an offset is requested. Empty
	// means the dialect accepts OFFSET without LIMIT.
	unbounded string
	// extract renders the year/month/day/... part of a time expression.
	extract func(part, arg string) string
	// concat renders string concatenation of the rendered args.
	concat func(args []string) string
	// length is the name of the character length function.
	length string
}

var dialects = map[domain.SQLDialect]*dialect{
	domain.PostgreSQL: {
		name:   domain.PostgreSQL,
		quote:  doubleQuote,
		marker: func(n int) string { return fmt.Sprintf("$%d", n) },
		extract: func(part, arg string) string {
			return fmt.Sprintf("CAST(EXTRACT(%s FROM %s) AS INTEGER)", strings.ToUpper(part), arg)
		},
		concat: pipeConcat,
		length: "LENGTH",
	},
	domain.MySQL: {
		name:      domain.MySQL,
		quote:     func(s string) string { return "`" + strings.ReplaceAll(s, "`", "``") + "`" },
		marker:    func(int) string { return "?" },
		unbounded: "18446744073709551615",
		extract: func(part, arg string) string {
			return fmt.Sprintf("%s(%s)", strings.ToUpper(part), arg)
		},
		concat: func(args []string) string { return "CONCAT(" + strings.Join(args, ", ") + ")" },
		length: "CHAR_LENGTH",
	},
	domain.SQLite: {
		name:      domain.SQLite,
		quote:     doubleQuote,
		marker:    func(int) string { return "?" },
		unbounded: "-1",
		extract: func(part, arg string) string {
			return fmt.Sprintf("CAST(strftime('%s', %s) AS INTEGER)", strftimeFormats[part], arg)
		},
		concat: pipeConcat,
		length: "LENGTH",
	},
}

var strftimeFormats = map[string]string{
	"year":   "%Y",
	"month":  "%m",
	"day":    "%d",
	"hour":   "%H",
	"minute": "%M",
	"second": "%S",
}

func doubleQuote(s string) string {
	return `"` + strings.ReplaceAll(s, `"`, `""`) + `"`
}

func pipeConcat(args []string) string {
	return "(" + strings.Join(args, " || ") + ")"
}

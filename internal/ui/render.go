package ui

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/satishbabariya/unisql/internal/core/query/compiler"
	"github.com/satishbabariya/unisql/internal/core/query/mapper"
)

// Tabulate turns materialized rows into table cells. The row shape is taken
// from the first row; columns name tuple and scalar cells.
func Tabulate(columns []string, rows []any) ([]string, [][]string) {
	if len(rows) == 0 {
		return columns, nil
	}

	var headers []string
	switch first := rows[0].(type) {
	case []any:
		headers = columns
		if len(headers) != len(first) {
			headers = make([]string, len(first))
			for i := range headers {
				headers[i] = strconv.Itoa(i + 1)
			}
		}
	case map[string]any:
		headers = mapHeaders(columns, first)
	case *mapper.Entity:
		headers = append([]string(nil), first.Order...)
		headers = append(headers, associationNames(first)...)
	case *mapper.Record:
		headers = first.Fields
	default:
		headers = []string{"value"}
		if len(columns) == 1 {
			headers = columns
		}
	}

	cells := make([][]string, len(rows))
	for i, row := range rows {
		cells[i] = rowCells(headers, row)
	}
	return headers, cells
}

func rowCells(headers []string, row any) []string {
	out := make([]string, len(headers))
	switch r := row.(type) {
	case []any:
		for i := range out {
			if i < len(r) {
				out[i] = FormatValue(r[i])
			}
		}
	case map[string]any:
		for i, h := range headers {
			out[i] = FormatValue(r[h])
		}
	case *mapper.Entity:
		for i, h := range headers {
			if v, ok := r.Values[h]; ok {
				out[i] = FormatValue(v)
				continue
			}
			out[i] = formatAssociation(r.Associations[h])
		}
	case *mapper.Record:
		for i, h := range headers {
			out[i] = FormatValue(r.Get(h))
		}
	default:
		out[0] = FormatValue(r)
	}
	return out
}

// mapHeaders keeps the driver's column order when every column is a key.
func mapHeaders(columns []string, row map[string]any) []string {
	if len(columns) == len(row) {
		ok := true
		for _, c := range columns {
			if _, found := row[c]; !found {
				ok = false
				break
			}
		}
		if ok {
			return columns
		}
	}
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func associationNames(e *mapper.Entity) []string {
	names := make([]string, 0, len(e.Associations))
	for name := range e.Associations {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func formatAssociation(v any) string {
	switch a := v.(type) {
	case *mapper.Entity:
		if a == nil {
			return "NULL"
		}
		return a.String()
	case []*mapper.Entity:
		return fmt.Sprintf("[%d]", len(a))
	default:
		return ""
	}
}

// FormatValue renders a single cell.
func FormatValue(v any) string {
	switch x := v.(type) {
	case nil:
		return "NULL"
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format(time.RFC3339)
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprintf("%v", x)
	}
}

// ExplainMarkdown describes a compiled statement: its SQL, its parameter
// slots in binding order and its result columns.
func ExplainMarkdown(dialect string, c *compiler.Compiled) string {
	var b strings.Builder
	fmt.Fprintf(&b, "## %s (%s)\n\n", c.Kind, dialect)
	b.WriteString("```sql\n")
	b.WriteString(c.SQL)
	b.WriteString("\n```\n")

	if len(c.Slots) > 0 {
		b.WriteString("\n| # | Binding | Type | Target |\n|---|---|---|---|\n")
		for i, s := range c.Slots {
			binding := "literal " + FormatValue(s.Value)
			if s.Param != nil {
				binding = s.Param.Key()
			}
			fmt.Fprintf(&b, "| %d | `%s` | %s | %s |\n", i+1, binding, s.Type, s.Target)
		}
	}

	if len(c.Columns) > 0 {
		b.WriteString("\n| Column | Field | Type |\n|---|---|---|\n")
		for _, col := range c.Columns {
			field := ""
			if col.Field != "" {
				field = col.Alias + "." + col.Field
			}
			fmt.Fprintf(&b, "| %s | %s | %s |\n", col.Name, field, col.Type)
		}
	}
	if c.Native {
		b.WriteString("\nNative text: columns are reported by the driver at execution.\n")
	}
	return b.String()
}

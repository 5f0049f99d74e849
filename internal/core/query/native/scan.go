package native

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/satishbabariya/unisql/internal/core/query/domain"
)

// Scan splits text around its placeholders. ":name" is a named placeholder
// and "?N" a positional one; a bare "?" takes the next unused position in
// order of appearance. Quoted strings, quoted identifiers, comments and "::"
// casts are copied through untouched.
func Scan(text string) ([]domain.NativeSegment, error) {
	var (
		segs []domain.NativeSegment
		buf  strings.Builder
		bare int
	)
	flush := func() {
		if buf.Len() > 0 {
			segs = append(segs, domain.NativeSegment{Text: buf.String()})
			buf.Reset()
		}
	}
	param := func(p domain.Param) {
		flush()
		segs = append(segs, domain.NativeSegment{Param: &p})
	}

	for i := 0; i < len(text); {
		c := text[i]
		switch {
		case c == '\'' || c == '"' || c == '`':
			end := skipQuoted(text, i)
			buf.WriteString(text[i:end])
			i = end
		case c == '-' && strings.HasPrefix(text[i:], "--"):
			end := strings.IndexByte(text[i:], '\n')
			if end < 0 {
				end = len(text) - i
			}
			buf.WriteString(text[i : i+end])
			i += end
		case c == '/' && strings.HasPrefix(text[i:], "/*"):
			end := strings.Index(text[i+2:], "*/")
			if end < 0 {
				end = len(text)
			} else {
				end = i + 2 + end + 2
			}
			buf.WriteString(text[i:end])
			i = end
		case c == ':' && strings.HasPrefix(text[i:], "::"):
			buf.WriteString("::")
			i += 2
		case c == ':' && i+1 < len(text) && isNameStart(text[i+1]):
			j := i + 2
			for j < len(text) && isNamePart(text[j]) {
				j++
			}
			param(domain.Param{Name: text[i+1 : j]})
			i = j
		case c == '?':
			j := i + 1
			for j < len(text) && text[j] >= '0' && text[j] <= '9' {
				j++
			}
			if j == i+1 {
				bare++
				param(domain.Param{Position: bare})
				i = j
				continue
			}
			pos, err := strconv.Atoi(text[i+1 : j])
			if err != nil || pos < 1 {
				return nil, &domain.SyntaxError{Offset: i, Msg: fmt.Sprintf("invalid positional placeholder %s", text[i:j])}
			}
			param(domain.Param{Position: pos})
			i = j
		default:
			buf.WriteByte(c)
			i++
		}
	}
	flush()
	return segs, nil
}

// skipQuoted returns the offset just past the quoted run starting at i. A
// doubled quote character escapes itself; an unterminated run ends at len(text).
func skipQuoted(text string, i int) int {
	q := text[i]
	for j := i + 1; j < len(text); j++ {
		if text[j] != q {
			continue
		}
		if j+1 < len(text) && text[j+1] == q {
			j++
			continue
		}
		return j + 1
	}
	return len(text)
}

// skipTrivia drops leading whitespace, comments and opening parentheses.
func skipTrivia(text string) string {
	for {
		trimmed := strings.TrimLeft(text, " \t\r\n(")
		switch {
		case strings.HasPrefix(trimmed, "--"):
			end := strings.IndexByte(trimmed, '\n')
			if end < 0 {
				return ""
			}
			text = trimmed[end+1:]
		case strings.HasPrefix(trimmed, "/*"):
			end := strings.Index(trimmed, "*/")
			if end < 0 {
				return ""
			}
			text = trimmed[end+2:]
		default:
			return trimmed
		}
	}
}

func isNameStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isNamePart(c byte) bool {
	return isNameStart(c) || c >= '0' && c <= '9'
}

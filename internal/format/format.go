// Package format normalises generated TypeScript and JSON text so that
// repeated runs produce byte-identical files.
package format

import (
	"errors"
	"fmt"
	"strings"

	"github.com/apiforge/schemagen/internal/schema"
)

// ErrUnbalanced is returned when brackets in TypeScript source do not pair up.
var ErrUnbalanced = errors.New("format: unbalanced brackets")

// Indent is the indentation unit for both languages.
const Indent = "  "

// JSON re-indents a JSON document, keeping key order, and ends it with a
// newline.
func JSON(src []byte) ([]byte, error) {
	v, err := schema.Decode(src)
	if err != nil {
		return nil, fmt.Errorf("format json: %w", err)
	}
	return JSONValue(v)
}

// JSONValue encodes a decoded document value the way JSON does.
func JSONValue(v any) ([]byte, error) {
	out, err := schema.MarshalIndent(v, Indent)
	if err != nil {
		return nil, fmt.Errorf("format json: %w", err)
	}
	return append(out, '\n'), nil
}

// TypeScript re-indents TypeScript declaration source. Every line is
// indented by the number of brackets left open before it; runs of blank
// lines collapse to one and blank lines directly inside brackets are
// dropped. The result ends with exactly one newline.
func TypeScript(src string) (string, error) {
	lines := strings.Split(strings.ReplaceAll(src, "\r\n", "\n"), "\n")

	var (
		out       strings.Builder
		stack     []int
		inComment bool
		blank     bool
		lastOpen  = true
		lineNo    int
	)

	for _, raw := range lines {
		lineNo++
		line := strings.TrimSpace(raw)
		if line == "" {
			blank = true
			continue
		}

		if inComment {
			if blank && !lastOpen {
				out.WriteByte('\n')
			}
			blank = false
			prefix := strings.Repeat(Indent, len(stack))
			if strings.HasPrefix(line, "*") {
				prefix += " "
			}
			out.WriteString(prefix + line + "\n")
			if strings.Contains(line, "*/") {
				inComment = false
			}
			lastOpen = false
			continue
		}

		sc := scanLine(line)
		if sc.openComment {
			inComment = true
		}

		leading := leadingClosers(line)
		var err error
		if stack, err = closeN(stack, leading); err != nil {
			return "", fmt.Errorf("%w at line %d", err, lineNo)
		}

		if blank && !lastOpen && leading == 0 {
			out.WriteByte('\n')
		}
		blank = false

		out.WriteString(strings.Repeat(Indent, len(stack)))
		out.WriteString(line)
		out.WriteByte('\n')

		rest := sc.opens - (sc.closes - leading)
		switch {
		case rest > 0:
			stack = append(stack, rest)
		case rest < 0:
			if stack, err = closeN(stack, -rest); err != nil {
				return "", fmt.Errorf("%w at line %d", err, lineNo)
			}
		}
		lastOpen = rest > 0
	}

	if len(stack) > 0 {
		return "", fmt.Errorf("%w: %d level(s) left open", ErrUnbalanced, len(stack))
	}
	if inComment {
		return "", errors.New("format: unterminated block comment")
	}
	return out.String(), nil
}

// closeN consumes n open brackets from the top of stack.
func closeN(stack []int, n int) ([]int, error) {
	for n > 0 {
		if len(stack) == 0 {
			return nil, ErrUnbalanced
		}
		top := len(stack) - 1
		take := min(n, stack[top])
		stack[top] -= take
		n -= take
		if stack[top] == 0 {
			stack = stack[:top]
		}
	}
	return stack, nil
}

func leadingClosers(line string) int {
	n := 0
	for _, r := range line {
		switch r {
		case '}', ')', ']':
			n++
		case ' ', '\t', ';', ',':
			if n == 0 {
				return 0
			}
		default:
			return n
		}
	}
	return n
}

type scan struct {
	opens, closes int
	openComment   bool
}

// scanLine counts brackets outside strings and comments. openComment is
// set when a block comment starts on the line and does not end on it.
func scanLine(line string) scan {
	var (
		s     scan
		quote rune
		esc   bool
	)
	rs := []rune(line)
	for i := 0; i < len(rs); i++ {
		r := rs[i]
		if quote != 0 {
			switch {
			case esc:
				esc = false
			case r == '\\':
				esc = true
			case r == quote:
				quote = 0
			}
			continue
		}
		switch r {
		case '"', '\'', '`':
			quote = r
		case '/':
			if i+1 < len(rs) && rs[i+1] == '/' {
				return s
			}
			if i+1 < len(rs) && rs[i+1] == '*' {
				end := strings.Index(string(rs[i+2:]), "*/")
				if end < 0 {
					s.openComment = true
					return s
				}
				i += 2 + len([]rune(string(rs[i+2:])[:end])) + 1
			}
		case '{', '(', '[':
			s.opens++
		case '}', ')', ']':
			s.closes++
		}
	}
	return s
}

package pyeval

import (
	"strings"

	"github.com/vipyr-labs/deobf/internal/pylit"
)

// Call is a call expression located in source text.
type Call struct {
	Start int    // offset of the callee name
	End   int    // offset just past the closing parenthesis
	Args  string // text between the parentheses
}

// FindCalls returns every call to the bare or dotted name fn in src, in
// source order. Nested calls to fn inside an argument are not reported
// separately. String literals and comments are skipped.
func FindCalls(src, fn string) []Call {
	var calls []Call
	for i := 0; i < len(src); {
		c := src[i]
		switch {
		case c == '#':
			nl := strings.IndexByte(src[i:], '\n')
			if nl < 0 {
				return calls
			}
			i += nl + 1
			continue
		case c == '\'' || c == '"':
			if lit, err := pylit.Parse(src, i); err == nil {
				i = lit.End
				continue
			}
		case strings.HasPrefix(src[i:], fn) && (i == 0 || !isIdentByte(src[i-1])):
			j := i + len(fn)
			for j < len(src) && (src[j] == ' ' || src[j] == '\t') {
				j++
			}
			if j < len(src) && src[j] == '(' {
				if end, ok := matchParen(src, j); ok {
					calls = append(calls, Call{Start: i, End: end + 1, Args: src[j+1 : end]})
					i = end + 1
					continue
				}
			}
		}
		i++
	}
	return calls
}

// matchParen returns the offset of the parenthesis closing the one at open.
func matchParen(src string, open int) (int, bool) {
	depth := 0
	for i := open; i < len(src); i++ {
		switch c := src[i]; c {
		case '(', '[', '{':
			depth++
		case ')', ']', '}':
			depth--
			if depth == 0 {
				return i, c == ')'
			}
		case '\'', '"':
			lit, err := pylit.Parse(src, i)
			if err != nil {
				return 0, false
			}
			i = lit.End - 1
		case '#':
			nl := strings.IndexByte(src[i:], '\n')
			if nl < 0 {
				return 0, false
			}
			i += nl
		}
	}
	return 0, false
}

func isIdentByte(c byte) bool {
	return isNameStart(c) || isDigit(c)
}

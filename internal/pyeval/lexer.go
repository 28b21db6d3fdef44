package pyeval

import (
	"errors"
	"fmt"
	"strings"

	"github.com/vipyr-labs/deobf/internal/pylit"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokName
	tokNumber
	tokString
	tokOp
)

type token struct {
	kind tokenKind
	text string
	lit  pylit.Literal
	pos  int
}

func lex(src string) ([]token, error) {
	var toks []token
	i := 0
	for i < len(src) {
		c := src[i]
		switch {
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			i++
		case c == '\\' && i+1 < len(src) && (src[i+1] == '\n' || src[i+1] == '\r'):
			i += 2
		case c == '\'' || c == '"':
			lit, err := pylit.Parse(src, i)
			if err != nil {
				return nil, err
			}
			toks = append(toks, token{kind: tokString, lit: lit, pos: i})
			i = lit.End
		case isNameStart(c):
			if strings.IndexByte("bBrRuUfF", c) >= 0 {
				lit, err := pylit.Parse(src, i)
				if err == nil {
					toks = append(toks, token{kind: tokString, lit: lit, pos: i})
					i = lit.End
					continue
				}
				if !errors.Is(err, pylit.ErrNotLiteral) {
					return nil, err
				}
			}
			j := i + 1
			for j < len(src) && (isNameStart(src[j]) || isDigit(src[j])) {
				j++
			}
			toks = append(toks, token{kind: tokName, text: src[i:j], pos: i})
			i = j
		case isDigit(c):
			j := i + 1
			for j < len(src) && (isDigit(src[j]) || isNameStart(src[j])) {
				j++
			}
			toks = append(toks, token{kind: tokNumber, text: src[i:j], pos: i})
			i = j
		case strings.IndexByte("()[],.:=+-*", c) >= 0:
			toks = append(toks, token{kind: tokOp, text: src[i : i+1], pos: i})
			i++
		default:
			return nil, fmt.Errorf("unexpected character %q at offset %d", c, i)
		}
	}
	return append(toks, token{kind: tokEOF, pos: len(src)}), nil
}

func isNameStart(c byte) bool {
	return c == '_' || c >= 'a' && c <= 'z' || c >= 'A' && c <= 'Z'
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

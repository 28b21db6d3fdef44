// Package pylit scans Python string and bytes literals out of source text.
package pylit

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"unicode/utf8"
)

// ErrNotLiteral is returned by Parse when no literal starts at the offset.
var ErrNotLiteral = errors.New("not a string literal")

// Literal is a decoded string or bytes literal and its span in the source.
type Literal struct {
	Start, End int // byte offsets, End exclusive
	Bytes      bool
	Raw        bool
	Value      []byte // UTF-8 for str literals
}

// String returns the literal value as text.
func (l Literal) String() string { return string(l.Value) }

// Parse decodes the literal that starts at src[i], prefix included.
func Parse(src string, i int) (Literal, error) {
	lit := Literal{Start: i}

	j := i
	for j < len(src) && j-i < 2 && strings.ContainsRune("bBrRuUfF", rune(src[j])) {
		switch src[j] {
		case 'b', 'B':
			lit.Bytes = true
		case 'r', 'R':
			lit.Raw = true
		}
		j++
	}
	if j >= len(src) || (src[j] != '\'' && src[j] != '"') {
		return Literal{}, ErrNotLiteral
	}

	quote := src[j : j+1]
	if strings.HasPrefix(src[j:], strings.Repeat(quote, 3)) {
		quote = strings.Repeat(quote, 3)
	}
	body := j + len(quote)

	end := -1
	for k := body; k < len(src); k++ {
		c := src[k]
		if c == '\\' {
			k++
			continue
		}
		if len(quote) == 1 && c == '\n' {
			return Literal{}, fmt.Errorf("unterminated string literal at offset %d", i)
		}
		if strings.HasPrefix(src[k:], quote) {
			end = k
			break
		}
	}
	if end < 0 {
		return Literal{}, fmt.Errorf("unterminated string literal at offset %d", i)
	}

	raw := src[body:end]
	lit.End = end + len(quote)
	if lit.Raw {
		lit.Value = []byte(raw)
		return lit, nil
	}

	v, err := unescape(raw, lit.Bytes)
	if err != nil {
		return Literal{}, fmt.Errorf("decoding literal at offset %d: %w", i, err)
	}
	lit.Value = v
	return lit, nil
}

func unescape(s string, bytesLit bool) ([]byte, error) {
	out := make([]byte, 0, len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c != '\\' || i+1 >= len(s) {
			out = append(out, c)
			continue
		}
		i++
		switch e := s[i]; e {
		case '\n':
		case '\\', '\'', '"':
			out = append(out, e)
		case 'a':
			out = append(out, '\a')
		case 'b':
			out = append(out, '\b')
		case 'f':
			out = append(out, '\f')
		case 'n':
			out = append(out, '\n')
		case 'r':
			out = append(out, '\r')
		case 't':
			out = append(out, '\t')
		case 'v':
			out = append(out, '\v')
		case 'x':
			if i+3 > len(s) {
				return nil, fmt.Errorf("truncated \\x escape")
			}
			n, err := strconv.ParseUint(s[i+1:i+3], 16, 8)
			if err != nil {
				return nil, fmt.Errorf("invalid \\x escape %q", s[i-1:i+3])
			}
			out = appendCode(out, rune(n), bytesLit)
			i += 2
		case 'u', 'U':
			width := 4
			if e == 'U' {
				width = 8
			}
			if bytesLit {
				out = append(out, '\\', e)
				continue
			}
			if i+1+width > len(s) {
				return nil, fmt.Errorf("truncated \\%c escape", e)
			}
			n, err := strconv.ParseUint(s[i+1:i+1+width], 16, 32)
			if err != nil {
				return nil, fmt.Errorf("invalid \\%c escape", e)
			}
			out = utf8.AppendRune(out, rune(n))
			i += width
		case '0', '1', '2', '3', '4', '5', '6', '7':
			k := i
			for k < len(s) && k < i+3 && s[k] >= '0' && s[k] <= '7' {
				k++
			}
			n, _ := strconv.ParseUint(s[i:k], 8, 16)
			out = appendCode(out, rune(n), bytesLit)
			i = k - 1
		default:
			out = append(out, '\\', e)
		}
	}
	return out, nil
}

// appendCode appends a \x or octal code point: a raw byte for bytes literals,
// the UTF-8 encoding of the code point for str literals.
func appendCode(out []byte, r rune, bytesLit bool) []byte {
	if bytesLit {
		return append(out, byte(r))
	}
	return utf8.AppendRune(out, r)
}

package pyeval

import (
	"fmt"
	"strconv"
)

type node interface{}

type (
	constNode struct{ v Value }
	nameNode  struct{ name string }
	attrNode  struct {
		recv node
		name string
	}
	callNode struct {
		fn     node
		args   []node
		kwargs map[string]node
	}
	sliceNode struct {
		recv         node
		lo, hi, step node
		isIndex      bool
	}
	listNode struct{ elems []node }
	genNode  struct {
		elem node
		name string
		iter node
	}
	concatNode struct{ left, right node }
	repeatNode struct{ left, right node }
)

type parser struct {
	toks []token
	pos  int
}

func parse(src string) (node, error) {
	toks, err := lex(src)
	if err != nil {
		return nil, err
	}
	p := &parser{toks: toks}
	n, err := p.expr()
	if err != nil {
		return nil, err
	}
	if t := p.peek(); t.kind != tokEOF {
		return nil, fmt.Errorf("unexpected %s at offset %d", describe(t), t.pos)
	}
	return n, nil
}

func (p *parser) peek() token { return p.toks[p.pos] }

func (p *parser) next() token {
	t := p.toks[p.pos]
	if t.kind != tokEOF {
		p.pos++
	}
	return t
}

func (p *parser) isOp(op string) bool {
	t := p.peek()
	return t.kind == tokOp && t.text == op
}

func (p *parser) isName(name string) bool {
	t := p.peek()
	return t.kind == tokName && t.text == name
}

func (p *parser) expect(op string) error {
	t := p.next()
	if t.kind != tokOp || t.text != op {
		return fmt.Errorf("expected %q, got %s at offset %d", op, describe(t), t.pos)
	}
	return nil
}

// expr := term { '+' term }
// term := unary { '*' unary }
// Repetition binds tighter than concatenation, as in Python.
func (p *parser) expr() (node, error) {
	left, err := p.term()
	if err != nil {
		return nil, err
	}
	for p.isOp("+") {
		p.next()
		right, err := p.term()
		if err != nil {
			return nil, err
		}
		left = concatNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) term() (node, error) {
	left, err := p.unary()
	if err != nil {
		return nil, err
	}
	for p.isOp("*") {
		p.next()
		right, err := p.unary()
		if err != nil {
			return nil, err
		}
		left = repeatNode{left: left, right: right}
	}
	return left, nil
}

func (p *parser) unary() (node, error) {
	if p.isOp("-") {
		p.next()
		t := p.next()
		if t.kind != tokNumber {
			return nil, fmt.Errorf("unary minus only applies to integers (offset %d)", t.pos)
		}
		n, err := strconv.ParseInt("-"+t.text, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", t.text, err)
		}
		return p.postfix(constNode{v: Int(n)})
	}
	prim, err := p.primary()
	if err != nil {
		return nil, err
	}
	return p.postfix(prim)
}

func (p *parser) postfix(n node) (node, error) {
	for {
		switch {
		case p.isOp("."):
			p.next()
			t := p.next()
			if t.kind != tokName {
				return nil, fmt.Errorf("expected attribute name, got %s at offset %d", describe(t), t.pos)
			}
			n = attrNode{recv: n, name: t.text}
		case p.isOp("("):
			p.next()
			call, err := p.arguments(n)
			if err != nil {
				return nil, err
			}
			n = call
		case p.isOp("["):
			p.next()
			s, err := p.subscript(n)
			if err != nil {
				return nil, err
			}
			n = s
		default:
			return n, nil
		}
	}
}

func (p *parser) primary() (node, error) {
	t := p.next()
	switch t.kind {
	case tokString:
		lit := t.lit
		val := append([]byte(nil), lit.Value...)
		// Adjacent literals concatenate.
		for p.peek().kind == tokString {
			val = append(val, p.next().lit.Value...)
		}
		if lit.Bytes {
			return constNode{v: Bytes(val)}, nil
		}
		return constNode{v: Str(val)}, nil
	case tokNumber:
		n, err := strconv.ParseInt(t.text, 0, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid integer %q: %w", t.text, err)
		}
		return constNode{v: Int(n)}, nil
	case tokName:
		return nameNode{name: t.text}, nil
	case tokOp:
		switch t.text {
		case "[":
			return p.sequence("]")
		case "(":
			return p.sequence(")")
		}
	}
	return nil, fmt.Errorf("unexpected %s at offset %d", describe(t), t.pos)
}

// sequence parses a list, tuple, parenthesized expression or comprehension
// after its opening bracket.
func (p *parser) sequence(closer string) (node, error) {
	if p.isOp(closer) {
		p.next()
		return listNode{}, nil
	}
	first, err := p.expr()
	if err != nil {
		return nil, err
	}
	if p.isName("for") {
		gen, err := p.comprehension(first)
		if err != nil {
			return nil, err
		}
		return gen, p.expect(closer)
	}
	if closer == ")" && p.isOp(")") {
		p.next()
		return first, nil
	}
	elems := []node{first}
	for p.isOp(",") {
		p.next()
		if p.isOp(closer) {
			break
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		elems = append(elems, e)
	}
	return listNode{elems: elems}, p.expect(closer)
}

func (p *parser) comprehension(elem node) (node, error) {
	p.next() // for
	t := p.next()
	if t.kind != tokName {
		return nil, fmt.Errorf("expected loop variable, got %s at offset %d", describe(t), t.pos)
	}
	if !p.isName("in") {
		return nil, fmt.Errorf("expected 'in' at offset %d", p.peek().pos)
	}
	p.next()
	iter, err := p.expr()
	if err != nil {
		return nil, err
	}
	return genNode{elem: elem, name: t.text, iter: iter}, nil
}

func (p *parser) arguments(fn node) (node, error) {
	call := callNode{fn: fn}
	for !p.isOp(")") {
		if p.peek().kind == tokName && p.toks[p.pos+1].kind == tokOp && p.toks[p.pos+1].text == "=" {
			key := p.next().text
			p.next()
			v, err := p.expr()
			if err != nil {
				return nil, err
			}
			if call.kwargs == nil {
				call.kwargs = map[string]node{}
			}
			call.kwargs[key] = v
		} else {
			arg, err := p.expr()
			if err != nil {
				return nil, err
			}
			if p.isName("for") {
				if arg, err = p.comprehension(arg); err != nil {
					return nil, err
				}
			}
			call.args = append(call.args, arg)
		}
		if !p.isOp(",") {
			break
		}
		p.next()
	}
	return call, p.expect(")")
}

func (p *parser) subscript(recv node) (node, error) {
	s := sliceNode{recv: recv}
	var parts [3]node
	idx := 0
	for {
		if p.isOp("]") {
			break
		}
		if p.isOp(":") {
			p.next()
			idx++
			if idx > 2 {
				return nil, fmt.Errorf("too many ':' in subscript at offset %d", p.peek().pos)
			}
			continue
		}
		if parts[idx] != nil {
			return nil, fmt.Errorf("malformed subscript at offset %d", p.peek().pos)
		}
		e, err := p.expr()
		if err != nil {
			return nil, err
		}
		parts[idx] = e
	}
	s.lo, s.hi, s.step = parts[0], parts[1], parts[2]
	s.isIndex = idx == 0
	if s.isIndex && s.lo == nil {
		return nil, fmt.Errorf("empty subscript at offset %d", p.peek().pos)
	}
	return s, p.expect("]")
}

func describe(t token) string {
	switch t.kind {
	case tokEOF:
		return "end of expression"
	case tokString:
		return "string literal"
	default:
		return strconv.Quote(t.text)
	}
}

package pyeval

import (
	"bytes"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"
)

// ErrUndefined is wrapped by errors for names that resolve to no value,
// callable or module.
var ErrUndefined = errors.New("not defined")

// Func implements a Python callable.
type Func func(args []Value, kwargs map[string]Value) (Value, error)

// Funcs maps fully qualified callable names ("base64.b64decode", "chr") to
// their implementations.
type Funcs map[string]Func

// Evaluator evaluates expressions against a Funcs table and records the
// callables it invoked.
type Evaluator struct {
	funcs   Funcs
	modules map[string]bool
	env     map[string]Value
	trace   []string
}

// New returns an Evaluator over funcs. Module names are derived from the
// dotted prefixes of the registered names.
func New(funcs Funcs) *Evaluator {
	mods := map[string]bool{}
	for name := range funcs {
		for i := strings.LastIndexByte(name, '.'); i > 0; i = strings.LastIndexByte(name[:i], '.') {
			mods[name[:i]] = true
		}
	}
	return &Evaluator{funcs: funcs, modules: mods, env: map[string]Value{}}
}

// Eval parses and evaluates one expression.
func (e *Evaluator) Eval(expr string) (Value, error) {
	n, err := parse(expr)
	if err != nil {
		return nil, fmt.Errorf("parsing expression: %w", err)
	}
	return e.eval(n)
}

// Define binds name to v for subsequent evaluations.
func (e *Evaluator) Define(name string, v Value) {
	e.env[name] = v
}

// Trace returns the names of the callables invoked so far, with consecutive
// repeats collapsed.
func (e *Evaluator) Trace() []string {
	return append([]string(nil), e.trace...)
}

func (e *Evaluator) record(name string) {
	if n := len(e.trace); n > 0 && e.trace[n-1] == name {
		return
	}
	e.trace = append(e.trace, name)
}

func (e *Evaluator) eval(n node) (Value, error) {
	switch x := n.(type) {
	case constNode:
		return x.v, nil
	case nameNode:
		return e.lookup(x.name)
	case attrNode:
		recv, err := e.eval(x.recv)
		if err != nil {
			return nil, err
		}
		return e.attr(recv, x.name)
	case callNode:
		return e.call(x)
	case sliceNode:
		return e.slice(x)
	case listNode:
		out := make(List, 0, len(x.elems))
		for _, el := range x.elems {
			v, err := e.eval(el)
			if err != nil {
				return nil, err
			}
			out = append(out, v)
		}
		return out, nil
	case genNode:
		return e.generate(x)
	case concatNode:
		return e.concat(x)
	case repeatNode:
		return e.repeat(x)
	default:
		return nil, fmt.Errorf("unsupported expression %T", n)
	}
}

func (e *Evaluator) lookup(name string) (Value, error) {
	if v, ok := e.env[name]; ok {
		return v, nil
	}
	if _, ok := e.funcs[name]; ok {
		return Callable(name), nil
	}
	if e.modules[name] {
		return Module(name), nil
	}
	return nil, fmt.Errorf("name %q is %w", name, ErrUndefined)
}

func (e *Evaluator) attr(recv Value, name string) (Value, error) {
	switch r := recv.(type) {
	case Module, Callable:
		// Builtins such as bytes double as namespaces (bytes.fromhex).
		prefix := fmt.Sprint(r)
		full := prefix + "." + name
		if _, ok := e.funcs[full]; ok {
			return Callable(full), nil
		}
		if e.modules[full] {
			return Module(full), nil
		}
		return nil, fmt.Errorf("%s %q has no attribute %q", TypeName(recv), prefix, name)
	case Str, Bytes, List:
		return boundMethod{recv: recv, name: name}, nil
	default:
		return nil, fmt.Errorf("%s object has no attribute %q", TypeName(recv), name)
	}
}

func (e *Evaluator) call(c callNode) (Value, error) {
	fn, err := e.eval(c.fn)
	if err != nil {
		return nil, err
	}
	args := make([]Value, 0, len(c.args))
	for _, a := range c.args {
		v, err := e.eval(a)
		if err != nil {
			return nil, err
		}
		args = append(args, v)
	}
	var kwargs map[string]Value
	if len(c.kwargs) > 0 {
		kwargs = make(map[string]Value, len(c.kwargs))
		for k, a := range c.kwargs {
			v, err := e.eval(a)
			if err != nil {
				return nil, err
			}
			kwargs[k] = v
		}
	}
	return e.apply(fn, args, kwargs)
}

func (e *Evaluator) apply(fn Value, args []Value, kwargs map[string]Value) (Value, error) {
	switch f := fn.(type) {
	case Callable:
		impl := e.funcs[string(f)]
		if string(f) == "map" {
			return e.mapCall(args)
		}
		e.record(string(f))
		v, err := impl(args, kwargs)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", string(f), err)
		}
		return v, nil
	case boundMethod:
		return callMethod(f, args, kwargs)
	default:
		return nil, fmt.Errorf("%s object is not callable", TypeName(fn))
	}
}

// mapCall implements map(fn, iterable) eagerly.
func (e *Evaluator) mapCall(args []Value) (Value, error) {
	if len(args) != 2 {
		return nil, fmt.Errorf("map: expected 2 arguments, got %d", len(args))
	}
	items, err := iterate(args[1])
	if err != nil {
		return nil, fmt.Errorf("map: %w", err)
	}
	out := make(List, 0, len(items))
	for _, it := range items {
		v, err := e.apply(args[0], []Value{it}, nil)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *Evaluator) generate(g genNode) (Value, error) {
	iter, err := e.eval(g.iter)
	if err != nil {
		return nil, err
	}
	items, err := iterate(iter)
	if err != nil {
		return nil, err
	}

	prev, shadowed := e.env[g.name]
	defer func() {
		if shadowed {
			e.env[g.name] = prev
		} else {
			delete(e.env, g.name)
		}
	}()

	out := make(List, 0, len(items))
	for _, it := range items {
		e.env[g.name] = it
		v, err := e.eval(g.elem)
		if err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func (e *Evaluator) slice(s sliceNode) (Value, error) {
	recv, err := e.eval(s.recv)
	if err != nil {
		return nil, err
	}
	if s.isIndex {
		idx, err := e.evalInt(s.lo)
		if err != nil {
			return nil, err
		}
		items, err := iterate(recv)
		if err != nil {
			return nil, err
		}
		if idx < 0 {
			idx += int64(len(items))
		}
		if idx < 0 || idx >= int64(len(items)) {
			return nil, fmt.Errorf("index %d out of range", idx)
		}
		return items[idx], nil
	}

	if s.lo != nil || s.hi != nil || s.step == nil {
		return nil, fmt.Errorf("only [::-1] slices are supported")
	}
	step, err := e.evalInt(s.step)
	if err != nil {
		return nil, err
	}
	if step != -1 {
		return nil, fmt.Errorf("unsupported slice step %d", step)
	}
	e.record("reverse")
	switch x := recv.(type) {
	case Str:
		runes := []rune(string(x))
		for i, j := 0, len(runes)-1; i < j; i, j = i+1, j-1 {
			runes[i], runes[j] = runes[j], runes[i]
		}
		return Str(runes), nil
	case Bytes:
		out := make(Bytes, len(x))
		for i, b := range x {
			out[len(x)-1-i] = b
		}
		return out, nil
	case List:
		out := make(List, len(x))
		for i, v := range x {
			out[len(x)-1-i] = v
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s object is not subscriptable", TypeName(recv))
	}
}

func (e *Evaluator) evalInt(n node) (int64, error) {
	v, err := e.eval(n)
	if err != nil {
		return 0, err
	}
	return AsInt(v)
}

func (e *Evaluator) concat(c concatNode) (Value, error) {
	l, err := e.eval(c.left)
	if err != nil {
		return nil, err
	}
	r, err := e.eval(c.right)
	if err != nil {
		return nil, err
	}
	if x, ok := l.(Int); ok {
		if y, ok := r.(Int); ok {
			return x + y, nil
		}
	}
	if TypeName(l) != TypeName(r) {
		return nil, fmt.Errorf("cannot add %s and %s", TypeName(l), TypeName(r))
	}
	if seqLen(l)+seqLen(r) > MaxOutput {
		return nil, ErrOutputTooLarge
	}
	switch x := l.(type) {
	case Str:
		return x + r.(Str), nil
	case Bytes:
		return append(append(Bytes(nil), x...), r.(Bytes)...), nil
	case List:
		return append(append(List(nil), x...), r.(List)...), nil
	}
	return nil, fmt.Errorf("cannot add %s and %s", TypeName(l), TypeName(r))
}

// repeat evaluates seq * n, n * seq, or an integer product.
func (e *Evaluator) repeat(r repeatNode) (Value, error) {
	l, err := e.eval(r.left)
	if err != nil {
		return nil, err
	}
	rv, err := e.eval(r.right)
	if err != nil {
		return nil, err
	}

	x, lInt := l.(Int)
	y, rInt := rv.(Int)
	switch {
	case lInt && rInt:
		return x * y, nil
	case lInt:
		return repeatSeq(rv, int64(x))
	case rInt:
		return repeatSeq(l, int64(y))
	}
	return nil, fmt.Errorf("cannot multiply %s and %s", TypeName(l), TypeName(rv))
}

func repeatSeq(seq Value, n int64) (Value, error) {
	if n < 0 {
		n = 0
	}
	if n > maxRepeat {
		return nil, fmt.Errorf("repeat count %d out of range", n)
	}
	if int64(seqLen(seq))*n > MaxOutput {
		return nil, ErrOutputTooLarge
	}
	switch x := seq.(type) {
	case Str:
		return Str(strings.Repeat(string(x), int(n))), nil
	case Bytes:
		return Bytes(bytes.Repeat(x, int(n))), nil
	default:
		return nil, fmt.Errorf("cannot repeat %s", TypeName(seq))
	}
}

// seqLen is the size in bytes (or elements) of a sequence value.
func seqLen(v Value) int {
	switch x := v.(type) {
	case Str:
		return len(x)
	case Bytes:
		return len(x)
	case List:
		return len(x)
	}
	return 0
}

const maxRepeat = 1 << 16

func callMethod(m boundMethod, args []Value, kwargs map[string]Value) (Value, error) {
	switch m.name {
	case "decode":
		b, ok := m.recv.(Bytes)
		if !ok {
			return nil, fmt.Errorf("%s object has no attribute 'decode'", TypeName(m.recv))
		}
		return decodeText(b, encodingArg(args, kwargs))
	case "encode":
		s, ok := m.recv.(Str)
		if !ok {
			return nil, fmt.Errorf("%s object has no attribute 'encode'", TypeName(m.recv))
		}
		return encodeText(s, encodingArg(args, kwargs))
	case "join":
		if len(args) != 1 {
			return nil, fmt.Errorf("join: expected 1 argument, got %d", len(args))
		}
		items, err := iterate(args[0])
		if err != nil {
			return nil, fmt.Errorf("join: %w", err)
		}
		return join(m.recv, items)
	default:
		return nil, fmt.Errorf("%s method %q is not supported", TypeName(m.recv), m.name)
	}
}

func encodingArg(args []Value, kwargs map[string]Value) string {
	v, ok := kwargs["encoding"]
	if !ok && len(args) > 0 {
		v = args[0]
	}
	if s, ok := v.(Str); ok {
		return strings.ToLower(strings.ReplaceAll(string(s), "_", "-"))
	}
	return "utf-8"
}

func decodeText(b Bytes, enc string) (Value, error) {
	switch enc {
	case "utf-8", "utf8", "ascii":
		if !utf8.Valid(b) {
			return nil, fmt.Errorf("decode: invalid %s data", enc)
		}
		return Str(b), nil
	case "latin-1", "latin1", "iso-8859-1":
		runes := make([]rune, len(b))
		for i, c := range b {
			runes[i] = rune(c)
		}
		return Str(runes), nil
	default:
		return nil, fmt.Errorf("decode: unsupported encoding %q", enc)
	}
}

func encodeText(s Str, enc string) (Value, error) {
	switch enc {
	case "utf-8", "utf8", "ascii":
		return Bytes(s), nil
	case "latin-1", "latin1", "iso-8859-1":
		out := make(Bytes, 0, len(s))
		for _, r := range string(s) {
			if r > 0xff {
				return nil, fmt.Errorf("encode: character %q not in latin-1", r)
			}
			out = append(out, byte(r))
		}
		return out, nil
	default:
		return nil, fmt.Errorf("encode: unsupported encoding %q", enc)
	}
}

func join(sep Value, items List) (Value, error) {
	switch s := sep.(type) {
	case Str:
		parts := make([]string, len(items))
		for i, it := range items {
			v, ok := it.(Str)
			if !ok {
				return nil, fmt.Errorf("join: sequence item %d: expected str, got %s", i, TypeName(it))
			}
			parts[i] = string(v)
		}
		return Str(strings.Join(parts, string(s))), nil
	case Bytes:
		parts := make([][]byte, len(items))
		for i, it := range items {
			v, ok := it.(Bytes)
			if !ok {
				return nil, fmt.Errorf("join: sequence item %d: expected bytes, got %s", i, TypeName(it))
			}
			parts[i] = v
		}
		return Bytes(bytes.Join(parts, s)), nil
	default:
		return nil, fmt.Errorf("%s object has no attribute 'join'", TypeName(sep))
	}
}

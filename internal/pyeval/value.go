package pyeval

import "fmt"

// Value is the result of evaluating an expression: one of Str, Bytes, Int,
// List, Module or Callable.
type Value any

type (
	Str      string
	Bytes    []byte
	Int      int64
	List     []Value
	Module   string
	Callable string
)

type boundMethod struct {
	recv Value
	name string
}

// TypeName returns the Python type name of v, for error messages.
func TypeName(v Value) string {
	switch v.(type) {
	case Str:
		return "str"
	case Bytes:
		return "bytes"
	case Int:
		return "int"
	case List:
		return "list"
	case Module:
		return "module"
	case Callable, boundMethod:
		return "function"
	default:
		return fmt.Sprintf("%T", v)
	}
}

// AsBytes returns the raw content of a Str or Bytes value.
func AsBytes(v Value) ([]byte, error) {
	switch x := v.(type) {
	case Bytes:
		return x, nil
	case Str:
		return []byte(x), nil
	default:
		return nil, fmt.Errorf("expected str or bytes, got %s", TypeName(v))
	}
}

// AsInt returns the integer content of an Int value.
func AsInt(v Value) (int64, error) {
	n, ok := v.(Int)
	if !ok {
		return 0, fmt.Errorf("expected int, got %s", TypeName(v))
	}
	return int64(n), nil
}

// iterate expands a List, Str or Bytes into its elements.
func iterate(v Value) (List, error) {
	switch x := v.(type) {
	case List:
		return x, nil
	case Str:
		out := make(List, 0, len(x))
		for _, r := range string(x) {
			out = append(out, Str(string(r)))
		}
		return out, nil
	case Bytes:
		out := make(List, len(x))
		for i, b := range x {
			out[i] = Int(b)
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%s object is not iterable", TypeName(v))
	}
}

package scheme

import "io"

// Entry is the type-erased decoder/formatter pair stored in a Registry.
// Implementations are produced by Pair.
type Entry interface {
	decode(r io.Reader) (any, error)
	format(result any) (string, error)
}

// Pair binds a decoder and a formatter that agree on the scheme-specific
// intermediate result type R. The core never inspects R.
type Pair[R any] struct {
	Decode func(io.Reader) (R, error)
	Format func(R) (string, error)
}

func (p Pair[R]) decode(r io.Reader) (any, error) {
	return p.Decode(r)
}

func (p Pair[R]) format(result any) (string, error) {
	// A nil interface-typed R arrives as a nil any; the zero value stands in.
	v, _ := result.(R)
	return p.Format(v)
}

// Infallible adapts a formatter that cannot fail to the Pair.Format signature.
func Infallible[R any](fn func(R) string) func(R) (string, error) {
	return func(r R) (string, error) {
		return fn(r), nil
	}
}

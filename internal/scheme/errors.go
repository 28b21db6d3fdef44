package scheme

import (
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
)

// Stage identifies which collaborator of a scheme failed.
type Stage string

const (
	StageDecode Stage = "decode"
	StageFormat Stage = "format"
)

// Kind classifies the outcome of a dispatch.
type Kind int

const (
	// KindNone means the dispatch succeeded.
	KindNone Kind = iota
	// KindInvalidScheme means the requested identifier did not resolve to a
	// registered scheme.
	KindInvalidScheme
	// KindDeobfuscationFail means a scheme's decoder or formatter failed.
	KindDeobfuscationFail
	// KindUnclassified is any other error.
	KindUnclassified
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindInvalidScheme:
		return "invalid-scheme"
	case KindDeobfuscationFail:
		return "deobfuscation-fail"
	default:
		return "unclassified"
	}
}

// InvalidSchemeError reports a requested identifier that is not a registered
// scheme after alias resolution.
type InvalidSchemeError struct {
	Requested string
	Valid     []string
}

func (e *InvalidSchemeError) Error() string {
	return fmt.Sprintf("invalid deobfuscation type %q, valid types are: %s",
		e.Requested, strings.Join(e.Valid, ", "))
}

// DeobfuscationFailError wraps the failure of a scheme's collaborator. Err is
// the original error, unchanged; errors.Is and errors.As see through it.
type DeobfuscationFailError struct {
	Scheme string
	Stage  Stage
	Err    error
}

func (e *DeobfuscationFailError) Error() string {
	return fmt.Sprintf("deobfuscation failed for %s during %s: %v", e.Scheme, e.Stage, e.Err)
}

func (e *DeobfuscationFailError) Unwrap() error {
	return e.Err
}

// PanicError captures a panic raised by a collaborator along with the stack
// of the panicking goroutine.
type PanicError struct {
	Value any
	Stack []byte
}

func newPanicError(v any) *PanicError {
	return &PanicError{Value: v, Stack: debug.Stack()}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// Unwrap exposes the panic value when it was itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// Classify maps an error returned by Dispatcher.Run to its Kind.
func Classify(err error) Kind {
	if err == nil {
		return KindNone
	}
	var invalid *InvalidSchemeError
	if errors.As(err, &invalid) {
		return KindInvalidScheme
	}
	var failed *DeobfuscationFailError
	if errors.As(err, &failed) {
		return KindDeobfuscationFail
	}
	return KindUnclassified
}

// Trace renders the cause tree of err, one error per line indented by depth,
// followed by the captured stack of the first panic found. Errors that wrap
// several causes (errors.Join, multiple %w verbs) list each branch in turn.
func Trace(err error) string {
	var b strings.Builder
	var stack []byte
	trace(&b, err, 0, &stack)
	if len(stack) > 0 {
		b.WriteString("\n")
		b.Write(stack)
	}
	return b.String()
}

func trace(b *strings.Builder, err error, depth int, stack *[]byte) {
	for ; err != nil; depth++ {
		fmt.Fprintf(b, "%s%T: %v\n", strings.Repeat("  ", depth), err, err)
		if p, ok := err.(*PanicError); ok && *stack == nil {
			*stack = p.Stack
		}
		if multi, ok := err.(interface{ Unwrap() []error }); ok {
			for _, e := range multi.Unwrap() {
				trace(b, e, depth+1, stack)
			}
			return
		}
		err = errors.Unwrap(err)
	}
}

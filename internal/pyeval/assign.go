package pyeval

import (
	"regexp"
	"strings"
)

var assignRe = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z_][A-Za-z0-9_]*)[ \t]*=[ \t]*(.+?)[ \t]*;?[ \t]*$`)

// Assignments evaluates the top-level "name = expr" statements of src whose
// right-hand side evaluates with funcs to a str, bytes, int or list, and
// returns the resulting bindings. Later assignments win.
func Assignments(src string, funcs Funcs) map[string]Value {
	out := map[string]Value{}
	for _, m := range assignRe.FindAllStringSubmatch(src, -1) {
		name, rhs := m[1], m[2]
		if strings.HasPrefix(rhs, "=") {
			continue
		}
		ev := New(funcs)
		for k, v := range out {
			ev.Define(k, v)
		}
		v, err := ev.Eval(rhs)
		if err != nil {
			continue
		}
		switch v.(type) {
		case Str, Bytes, Int, List:
			out[name] = v
		}
	}
	return out
}

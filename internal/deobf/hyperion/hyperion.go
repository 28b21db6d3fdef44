// Package hyperion reverses Hyperion-style packing: the program is split
// into zlib-compressed bytes chunks fed to decompress(), and builtins are
// hidden behind meaningless aliases such as _0x1f = print.
package hyperion

import (
	"fmt"
	"io"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/vipyr-labs/deobf/internal/deobf"
	"github.com/vipyr-labs/deobf/internal/pyeval"
)

// Result holds the decompressed chunks and the aliases found along the way.
type Result struct {
	Layers  int
	Chunks  []string
	Renames map[string]string // alias -> builtin
}

var aliasRe = regexp.MustCompile(`(?m)^[ \t]*([A-Za-z_][A-Za-z0-9_]*)[ \t]*=[ \t]*([A-Za-z_][A-Za-z0-9_]*)[ \t]*;?[ \t]*$`)

// Deobfuscate decompresses every chunk in r, descending into chunks that are
// themselves packed.
func Deobfuscate(r io.Reader) (*Result, error) {
	src, err := deobf.ReadSource(r)
	if err != nil {
		return nil, err
	}

	res := &Result{Renames: map[string]string{}}
	collectAliases(src, res.Renames)

	for res.Layers < deobf.MaxLayers {
		chunks, err := unpack(src)
		if err != nil {
			if res.Layers == 0 {
				return nil, err
			}
			if !deobf.Exhausted(err) {
				return nil, fmt.Errorf("layer %d: %w", res.Layers+1, err)
			}
			return res, nil
		}
		res.Layers++
		res.Chunks = chunks
		src = strings.Join(chunks, "\n")
		collectAliases(src, res.Renames)
	}
	if _, err := unpack(src); err == nil {
		return nil, deobf.ErrTooManyLayers
	}
	return res, nil
}

// unpack evaluates the argument of each decompress() call and inflates it.
// A chunk that fails to decode fails the whole layer.
func unpack(src string) ([]string, error) {
	calls := pyeval.FindCalls(src, "decompress")
	if len(calls) == 0 {
		return nil, deobf.ErrNoPayload
	}

	funcs := pyeval.Builtins()
	env := pyeval.Assignments(src, funcs)

	chunks := make([]string, 0, len(calls))
	for _, c := range calls {
		ev := pyeval.New(funcs)
		for k, v := range env {
			ev.Define(k, v)
		}
		chunk, err := inflate(ev, c.Args)
		if err != nil {
			return nil, fmt.Errorf("chunk at offset %d: %w", c.Start, err)
		}
		chunks = append(chunks, chunk)
	}
	return chunks, nil
}

func inflate(ev *pyeval.Evaluator, args string) (string, error) {
	v, err := ev.Eval(args)
	if err != nil {
		return "", err
	}
	data, err := pyeval.AsBytes(v)
	if err != nil {
		return "", err
	}
	out, err := pyeval.ZlibDecompress(data)
	if err != nil {
		return "", fmt.Errorf("zlib: %w", err)
	}
	return string(out), nil
}

func collectAliases(src string, into map[string]string) {
	for _, m := range aliasRe.FindAllStringSubmatch(src, -1) {
		alias, target := m[1], m[2]
		if alias == target || isBuiltin(alias) || !isBuiltin(target) {
			continue
		}
		into[alias] = target
	}
}

// Format renders the recovered program with aliases replaced by the
// builtins they stand for and the alias assignments removed.
func Format(res *Result) string {
	aliases := make([]string, 0, len(res.Renames))
	for a := range res.Renames {
		aliases = append(aliases, a)
	}
	sort.Strings(aliases)

	var b strings.Builder
	fmt.Fprintf(&b, "# hyperion: removed %d layer(s), %d chunk(s)\n", res.Layers, len(res.Chunks))
	for _, a := range aliases {
		fmt.Fprintf(&b, "# restored %s -> %s\n", a, res.Renames[a])
	}

	code := strings.Join(res.Chunks, "\n")
	if len(aliases) > 0 {
		code = restore(code, res.Renames)
	}
	b.WriteString(code)
	if !strings.HasSuffix(code, "\n") {
		b.WriteByte('\n')
	}
	return b.String()
}

func restore(code string, renames map[string]string) string {
	var kept []string
	for _, line := range strings.Split(code, "\n") {
		if m := aliasRe.FindStringSubmatch(line); m != nil && renames[m[1]] == m[2] {
			continue
		}
		kept = append(kept, line)
	}
	code = strings.Join(kept, "\n")

	names := make([]string, 0, len(renames))
	for a := range renames {
		names = append(names, regexp.QuoteMeta(a))
	}
	// Longest first so an alias never matches inside a longer one.
	slices.SortFunc(names, func(a, b string) int { return len(b) - len(a) })
	re := regexp.MustCompile(`\b(` + strings.Join(names, "|") + `)\b`)
	return re.ReplaceAllStringFunc(code, func(m string) string { return renames[m] })
}

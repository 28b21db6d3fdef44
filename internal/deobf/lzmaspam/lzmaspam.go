// Package lzmaspam reverses scripts that hide their code behind repeated
// exec(lzma.decompress(base64.b64decode(...))) layers.
package lzmaspam

import (
	"fmt"
	"io"
	"slices"
	"strings"

	"github.com/vipyr-labs/deobf/internal/deobf"
	"github.com/vipyr-labs/deobf/internal/pyeval"
)

// Result is the fully unwrapped script.
type Result struct {
	Layers int
	Source string
}

var peeler = &deobf.Peeler{
	Funcs: pyeval.Builtins(),
	Accept: func(trace []string) bool {
		return slices.Contains(trace, "lzma.decompress")
	},
}

// Deobfuscate unwraps every lzma/base64 exec layer in r.
func Deobfuscate(r io.Reader) (*Result, error) {
	src, err := deobf.ReadSource(r)
	if err != nil {
		return nil, err
	}
	layers, out, err := peeler.Peel(src)
	if err != nil {
		return nil, err
	}
	return &Result{Layers: len(layers), Source: out}, nil
}

// Format renders res as a commented header followed by the recovered source.
func Format(res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# lzmaspam: removed %d layer(s)\n", res.Layers)
	b.WriteString(res.Source)
	if !strings.HasSuffix(res.Source, "\n") {
		b.WriteByte('\n')
	}
	return b.String()
}

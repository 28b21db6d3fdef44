// Package vore reverses Vore-style encoding chains, where a script is
// wrapped in exec() calls over stacked transforms: hex, base64, rot13,
// reversal, chr() lists and compression, applied any number of times.
package vore

import (
	"fmt"
	"io"
	"strings"

	"github.com/vipyr-labs/deobf/internal/deobf"
	"github.com/vipyr-labs/deobf/internal/pyeval"
)

// Result is the recovered script together with the transform chain of each
// peeled layer, outermost first.
type Result struct {
	Layers [][]string
	Source string
}

// Steps returns the transforms of all layers in application order.
func (r *Result) Steps() []string {
	var out []string
	for _, l := range r.Layers {
		out = append(out, l...)
	}
	return out
}

var peeler = &deobf.Peeler{Funcs: pyeval.Builtins()}

// Deobfuscate peels every exec() layer in r.
func Deobfuscate(r io.Reader) (*Result, error) {
	src, err := deobf.ReadSource(r)
	if err != nil {
		return nil, err
	}
	layers, out, err := peeler.Peel(src)
	if err != nil {
		return nil, err
	}
	res := &Result{Source: out}
	for _, l := range layers {
		res.Layers = append(res.Layers, l.Steps)
	}
	return res, nil
}

// Format renders the transform chain as comments above the recovered source.
func Format(res *Result) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# vore: removed %d layer(s)\n", len(res.Layers))
	for i, steps := range res.Layers {
		chain := "(literal)"
		if len(steps) > 0 {
			chain = strings.Join(steps, " -> ")
		}
		fmt.Fprintf(&b, "#   layer %d: %s\n", i+1, chain)
	}
	b.WriteString(res.Source)
	if !strings.HasSuffix(res.Source, "\n") {
		b.WriteByte('\n')
	}
	return b.String()
}

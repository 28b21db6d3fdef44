// Package deobf holds the pieces shared by the per-scheme decoders: reading
// the obfuscated script and peeling exec() layers with a pyeval table.
// The scheme packages under it (hyperion, lzmaspam, vore) each expose a
// Deobfuscate/Format pair.
package deobf

import (
	"errors"
	"fmt"
	"io"
	"unicode/utf8"

	"github.com/vipyr-labs/deobf/internal/pyeval"
)

// MaxLayers bounds how many nested layers a decoder will peel.
const MaxLayers = 100

// ErrNoPayload is returned when the input contains nothing the decoder
// recognizes.
var ErrNoPayload = errors.New("no obfuscated payload found")

// ErrTooManyLayers is returned when peeling does not terminate within
// MaxLayers.
var ErrTooManyLayers = fmt.Errorf("more than %d nested layers", MaxLayers)

// Exhausted reports whether err only means that no further layer was
// recognized: no exec() call, a call the scheme does not accept, or a call on
// names the decoder does not know. Any other failure inside a layer is real.
func Exhausted(err error) bool {
	return errors.Is(err, ErrNoPayload) || errors.Is(err, pyeval.ErrUndefined)
}

// ReadSource reads the whole script from r.
func ReadSource(r io.Reader) (string, error) {
	data, err := io.ReadAll(io.LimitReader(r, pyeval.MaxOutput+1))
	if err != nil {
		return "", fmt.Errorf("reading source: %w", err)
	}
	if len(data) > pyeval.MaxOutput {
		return "", pyeval.ErrOutputTooLarge
	}
	if !utf8.Valid(data) {
		return "", errors.New("source is not valid UTF-8 text")
	}
	return string(data), nil
}

// Layer records how one exec() layer was decoded.
type Layer struct {
	Steps []string
}

// Peeler repeatedly replaces a script by the payload of its exec() call.
type Peeler struct {
	// Funcs is the callable table used to evaluate exec() arguments.
	Funcs pyeval.Funcs
	// Accept, when set, rejects layers whose call trace does not match
	// the scheme.
	Accept func(trace []string) bool
	// Limit overrides MaxLayers when positive.
	Limit int
}

// Peel unwraps exec() layers of src until no further layer is recognized. It
// fails with ErrNoPayload or the evaluation error when not even one layer
// could be decoded, and with the evaluation error of any inner layer that
// fails for a reason other than Exhausted.
func (p *Peeler) Peel(src string) ([]Layer, string, error) {
	limit := p.Limit
	if limit <= 0 {
		limit = MaxLayers
	}

	var layers []Layer
	for len(layers) < limit {
		next, steps, err := p.peelOnce(src)
		if err != nil {
			if len(layers) == 0 {
				return nil, "", err
			}
			if !Exhausted(err) {
				return nil, "", fmt.Errorf("layer %d: %w", len(layers)+1, err)
			}
			return layers, src, nil
		}
		layers = append(layers, Layer{Steps: steps})
		src = next
	}
	if _, _, err := p.peelOnce(src); err == nil {
		return nil, "", fmt.Errorf("%w (limit %d)", ErrTooManyLayers, limit)
	}
	return layers, src, nil
}

func (p *Peeler) peelOnce(src string) (string, []string, error) {
	calls := pyeval.FindCalls(src, "exec")
	if len(calls) == 0 {
		return "", nil, ErrNoPayload
	}

	env := pyeval.Assignments(src, p.Funcs)
	var firstErr error
	for _, c := range calls {
		ev := pyeval.New(p.Funcs)
		for k, v := range env {
			ev.Define(k, v)
		}
		v, err := ev.Eval(c.Args)
		if err == nil && p.Accept != nil && !p.Accept(ev.Trace()) {
			err = ErrNoPayload
		}
		if err == nil {
			var out []byte
			if out, err = pyeval.AsBytes(v); err == nil {
				return string(out), ev.Trace(), nil
			}
		}
		if firstErr == nil || (Exhausted(firstErr) && !Exhausted(err)) {
			firstErr = err
		}
	}
	return "", nil, firstErr
}

package scheme

import "io"

// Dispatcher runs one deobfuscation attempt against a Registry.
type Dispatcher struct {
	registry *Registry
}

// NewDispatcher returns a Dispatcher bound to reg.
func NewDispatcher(reg *Registry) *Dispatcher {
	return &Dispatcher{registry: reg}
}

// Registry returns the registry the dispatcher resolves against.
func (d *Dispatcher) Registry() *Registry {
	return d.registry
}

// Run resolves requested to a canonical scheme, decodes r with it exactly once
// and returns the formatted result. An unknown scheme fails with
// *InvalidSchemeError before r is read. Errors and panics from the decoder or
// formatter fail with *DeobfuscationFailError.
func (d *Dispatcher) Run(r io.Reader, requested string) (string, error) {
	canonical := d.registry.Resolve(requested)
	entry, ok := d.registry.Lookup(canonical)
	if !ok {
		return "", &InvalidSchemeError{Requested: requested, Valid: d.registry.Names()}
	}

	result, err := guard(func() (any, error) { return entry.decode(r) })
	if err != nil {
		return "", &DeobfuscationFailError{Scheme: canonical, Stage: StageDecode, Err: err}
	}

	out, err := guard(func() (string, error) { return entry.format(result) })
	if err != nil {
		return "", &DeobfuscationFailError{Scheme: canonical, Stage: StageFormat, Err: err}
	}
	return out, nil
}

// guard calls fn and converts a panic into a *PanicError.
func guard[T any](fn func() (T, error)) (v T, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			err = newPanicError(rec)
		}
	}()
	return fn()
}

package scheme

import (
	"fmt"
	"maps"
	"slices"
)

// Definition names one scheme for registration.
type Definition struct {
	Name  string
	Entry Entry
}

// Registry is an immutable table of schemes and aliases. It is safe for
// concurrent reads.
type Registry struct {
	order   []string
	entries map[string]Entry
	aliases map[string]string
}

// NewRegistry builds a Registry from scheme definitions and an alias table.
// Duplicate or empty canonical names are rejected. Alias targets are not
// checked here; a dangling alias surfaces as *InvalidSchemeError at dispatch.
func NewRegistry(defs []Definition, aliases map[string]string) (*Registry, error) {
	r := &Registry{
		order:   make([]string, 0, len(defs)),
		entries: make(map[string]Entry, len(defs)),
		aliases: maps.Clone(aliases),
	}
	if r.aliases == nil {
		r.aliases = map[string]string{}
	}

	for _, d := range defs {
		if d.Name == "" {
			return nil, fmt.Errorf("scheme name cannot be empty")
		}
		if d.Entry == nil {
			return nil, fmt.Errorf("scheme %q has no entry", d.Name)
		}
		if _, dup := r.entries[d.Name]; dup {
			return nil, fmt.Errorf("scheme %q registered twice", d.Name)
		}
		r.entries[d.Name] = d.Entry
		r.order = append(r.order, d.Name)
	}

	return r, nil
}

// Resolve maps an alias to its canonical identifier. Anything that is not an
// alias, canonical or unknown, is returned unchanged.
func (r *Registry) Resolve(identifier string) string {
	if canonical, ok := r.aliases[identifier]; ok {
		return canonical
	}
	return identifier
}

// Lookup returns the entry registered under a canonical identifier.
func (r *Registry) Lookup(canonical string) (Entry, bool) {
	e, ok := r.entries[canonical]
	return e, ok
}

// Names returns the canonical identifiers in registration order.
func (r *Registry) Names() []string {
	return append([]string(nil), r.order...)
}

// Aliases returns a copy of the alias table.
func (r *Registry) Aliases() map[string]string {
	return maps.Clone(r.aliases)
}

// AliasesOf returns the aliases that point directly at canonical, sorted.
func (r *Registry) AliasesOf(canonical string) []string {
	var out []string
	for alias, target := range r.aliases {
		if target == canonical {
			out = append(out, alias)
		}
	}
	slices.Sort(out)
	return out
}

// Package schemes is the built-in scheme table: the canonical names, their
// aliases, and the decoder/formatter pair behind each. New schemes are added
// here without touching the dispatcher.
package schemes

import (
	"fmt"
	"maps"

	"github.com/vipyr-labs/deobf/internal/deobf/hyperion"
	"github.com/vipyr-labs/deobf/internal/deobf/lzmaspam"
	"github.com/vipyr-labs/deobf/internal/deobf/vore"
	"github.com/vipyr-labs/deobf/internal/scheme"
)

// Canonical scheme identifiers.
const (
	Hyperion = "hyperion"
	LZMASpam = "lzmaspam"
	Vore     = "vore"
)

// Definitions returns the built-in schemes in listing order.
func Definitions() []scheme.Definition {
	return []scheme.Definition{
		{Name: Hyperion, Entry: scheme.Pair[*hyperion.Result]{
			Decode: hyperion.Deobfuscate,
			Format: scheme.Infallible(hyperion.Format),
		}},
		{Name: LZMASpam, Entry: scheme.Pair[*lzmaspam.Result]{
			Decode: lzmaspam.Deobfuscate,
			Format: scheme.Infallible(lzmaspam.Format),
		}},
		{Name: Vore, Entry: scheme.Pair[*vore.Result]{
			Decode: vore.Deobfuscate,
			Format: scheme.Infallible(vore.Format),
		}},
	}
}

// Aliases returns the built-in alias table.
func Aliases() map[string]string {
	return map[string]string{
		"vare":   Vore,
		"hyperd": Hyperion,
	}
}

// New builds the registry from the built-in schemes plus extra aliases.
// Extra aliases may not shadow a canonical name or a built-in alias.
func New(extra map[string]string) (*scheme.Registry, error) {
	defs := Definitions()
	aliases := Aliases()

	canonical := make(map[string]bool, len(defs))
	for _, d := range defs {
		canonical[d.Name] = true
	}
	for alias, target := range extra {
		if canonical[alias] {
			return nil, fmt.Errorf("alias %q shadows a scheme name", alias)
		}
		if existing, ok := aliases[alias]; ok && existing != target {
			return nil, fmt.Errorf("alias %q is built in (-> %s)", alias, existing)
		}
	}
	maps.Copy(aliases, extra)

	return scheme.NewRegistry(defs, aliases)
}

// Default builds the registry with only the built-in aliases.
func Default() *scheme.Registry {
	reg, err := New(nil)
	if err != nil {
		panic(fmt.Sprintf("building default schemes: %v", err))
	}
	return reg
}

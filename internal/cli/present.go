package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vipyr-labs/deobf/internal/scheme"
	"github.com/vipyr-labs/deobf/internal/source"
)

// presentError writes err the way the user should see it. Deobfuscation
// failures are followed by their cause chain, in green when color is on.
func presentError(w io.Writer, err error, color bool) {
	var pathErr *source.PathError
	if errors.As(err, &pathErr) {
		fmt.Fprintln(w, pathErr.Error())
		return
	}

	switch scheme.Classify(err) {
	case scheme.KindInvalidScheme:
		fmt.Fprintln(w, err.Error())
	case scheme.KindDeobfuscationFail:
		fmt.Fprintln(w, err.Error())
		var failed *scheme.DeobfuscationFailError
		errors.As(err, &failed)
		trace := strings.TrimRight(scheme.Trace(failed), "\n")
		if color {
			trace = lipgloss.NewRenderer(w).NewStyle().
				Foreground(lipgloss.Color("2")).
				Render(trace)
		}
		fmt.Fprintln(w, trace)
	default:
		fmt.Fprintf(w, "Error: %v\n", err)
	}
}

package cli

import (
	"encoding/json"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/vipyr-labs/deobf/internal/config"
	"github.com/vipyr-labs/deobf/internal/schemes"
)

var schemesJSON bool

func init() {
	schemesCmd.Flags().BoolVar(&schemesJSON, "json", false, "Output in JSON format")
	rootCmd.AddCommand(schemesCmd)
}

var schemesCmd = &cobra.Command{
	Use:     "schemes",
	Aliases: []string{"list"},
	Short:   "List supported deobfuscation schemes and their aliases",
	Args:    cobra.NoArgs,
	RunE:    runSchemes,
}

type schemeEntry struct {
	Name    string   `json:"name"`
	Aliases []string `json:"aliases"`
}

func runSchemes(cmd *cobra.Command, args []string) error {
	reg, err := schemes.New(config.Current().Aliases)
	if err != nil {
		return fmt.Errorf("loading aliases from config: %w", err)
	}

	entries := make([]schemeEntry, 0, len(reg.Names()))
	for _, name := range reg.Names() {
		aliases := reg.AliasesOf(name)
		if aliases == nil {
			aliases = []string{}
		}
		entries = append(entries, schemeEntry{Name: name, Aliases: aliases})
	}

	if schemesJSON {
		data, err := json.MarshalIndent(entries, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling schemes: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), string(data))
		return nil
	}

	w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "SCHEME\tALIASES")
	for _, e := range entries {
		aliases := strings.Join(e.Aliases, ", ")
		if aliases == "" {
			aliases = "-"
		}
		fmt.Fprintf(w, "%s\t%s\n", e.Name, aliases)
	}
	return w.Flush()
}

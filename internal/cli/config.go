package cli

import (
	"errors"
	"fmt"
	"io/fs"
	"slices"
	"strings"

	"github.com/spf13/cobra"

	"github.com/vipyr-labs/deobf/internal/branding"
	"github.com/vipyr-labs/deobf/internal/config"
	"github.com/vipyr-labs/deobf/internal/schemes"
)

func init() {
	configCmd.AddCommand(configSetCmd)
	configCmd.AddCommand(configGetCmd)
	configCmd.AddCommand(configValidateCmd)
	configCmd.AddCommand(configPathCmd)
	rootCmd.AddCommand(configCmd)
}

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage user settings",
	Long: `Read and write settings stored at ~/` + branding.HomeDir() + `/config.yaml.

Keys: default_type, color, log.level, log.format, log.file, log.rotate,
mirror, and aliases.<name> for extra scheme aliases.`,
}

var configSetCmd = &cobra.Command{
	Use:   "set <key> <value>",
	Short: "Set a configuration value",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		key, value := args[0], args[1]
		if err := config.Set(key, value); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Set %s = %s\n", key, value)
		return nil
	},
}

var configGetCmd = &cobra.Command{
	Use:   "get <key>",
	Short: "Get a configuration value",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if !config.IsKnownKey(args[0]) {
			return fmt.Errorf("unknown config key %q", args[0])
		}
		fmt.Fprintln(cmd.OutOrStdout(), config.Get(args[0]))
		return nil
	},
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Print the config file location",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprintln(cmd.OutOrStdout(), config.FilePath())
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [file]",
	Short: "Check a config file against the schema",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runConfigValidate,
}

func runConfigValidate(cmd *cobra.Command, args []string) error {
	path := config.FilePath()
	if len(args) == 1 {
		path = args[0]
	}
	out := cmd.OutOrStdout()

	result, err := config.ValidateFile(path)
	if errors.Is(err, fs.ErrNotExist) && len(args) == 0 {
		fmt.Fprintf(out, "No config file at %s, defaults in use.\n", path)
		return nil
	}
	if err != nil {
		return err
	}

	issues := slices.Clone(result.Issues)
	if result.Valid {
		// Alias targets are only known to the scheme table.
		issues = append(issues, aliasIssues(path)...)
	}
	if len(issues) == 0 {
		fmt.Fprintf(out, "%s is valid.\n", path)
		return nil
	}

	for _, issue := range issues {
		fmt.Fprintf(out, "  %s\n", issue)
	}
	return fmt.Errorf("%s has %d issue(s)", path, len(issues))
}

func aliasIssues(path string) []config.ValidationIssue {
	aliases, err := config.ReadAliases(path)
	if err != nil {
		return []config.ValidationIssue{{Message: err.Error(), Keyword: "aliases"}}
	}
	reg, err := schemes.New(aliases)
	if err != nil {
		return []config.ValidationIssue{{Path: "/aliases", Message: err.Error(), Keyword: "aliases"}}
	}

	var issues []config.ValidationIssue
	names := reg.Names()
	for alias, target := range aliases {
		if !slices.Contains(names, target) {
			issues = append(issues, config.ValidationIssue{
				Path:    "/aliases/" + alias,
				Message: fmt.Sprintf("unknown scheme %q", target),
				Keyword: "aliases",
			})
		}
	}
	slices.SortFunc(issues, func(a, b config.ValidationIssue) int {
		return strings.Compare(a.Path, b.Path)
	})
	return issues
}

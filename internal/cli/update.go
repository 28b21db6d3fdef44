package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vipyr-labs/deobf/internal/branding"
	"github.com/vipyr-labs/deobf/internal/config"
	"github.com/vipyr-labs/deobf/internal/updater"
)

var (
	updateCheck bool
	updateJSON  bool
)

func init() {
	updateCmd.Flags().BoolVar(&updateCheck, "check", false, "Only report, don't refresh the cached result used by the startup banner")
	updateCmd.Flags().BoolVar(&updateJSON, "json", false, "Print the check result as JSON")
	rootCmd.AddCommand(updateCmd)
}

var updateCmd = &cobra.Command{
	Use:   "update",
	Short: "Check for a newer " + branding.CLIName() + " release",
	Long: `Asks GitHub releases, or the mirror configured with "config set mirror",
whether a newer version is published and where to get it.

  ` + branding.CLIName() + ` update           # check and remember the result
  ` + branding.CLIName() + ` update --check   # check only`,
	Args: cobra.NoArgs,
	RunE: runUpdate,
}

func runUpdate(cmd *cobra.Command, args []string) error {
	u := updater.New(buildVersion, updater.WithMirror(config.Current().Mirror))

	ctx, cancel := context.WithTimeout(cmd.Context(), 15*time.Second)
	defer cancel()

	var (
		res *updater.CheckResult
		err error
	)
	if updateCheck {
		res, err = u.Check(ctx)
	} else {
		res, err = u.Refresh(ctx, config.Dir())
	}
	if errors.Is(err, updater.ErrDevBuild) {
		fmt.Fprintf(cmd.OutOrStdout(), "Running a development build (%s), nothing to compare.\n", buildVersion)
		return nil
	}
	if err != nil {
		return fmt.Errorf("checking for updates: %w", err)
	}

	out := cmd.OutOrStdout()
	if updateJSON {
		data, err := json.MarshalIndent(res, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling check result: %w", err)
		}
		fmt.Fprintln(out, string(data))
		return nil
	}

	if !res.UpdateAvailable {
		fmt.Fprintf(out, "You are on the latest version (%s)\n", res.Current)
		return nil
	}
	fmt.Fprintf(out, "Update available: %s -> %s\n", res.Current, res.Latest)
	if res.URL != "" {
		fmt.Fprintf(out, "Download it from %s\n", res.URL)
	}
	return nil
}

package cli

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vipyr-labs/deobf/internal/branding"
	"github.com/vipyr-labs/deobf/internal/config"
	"github.com/vipyr-labs/deobf/internal/logging"
	"github.com/vipyr-labs/deobf/internal/updater"
)

var (
	buildVersion string
	buildCommit  string
	buildDate    string
)

var (
	noColor  bool
	logLevel string
	runID    string

	logger = zap.NewNop()
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&noColor, "no-color", false, "Disable coloured error output")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Diagnostic log level (debug, info, warn, error)")
}

var rootCmd = &cobra.Command{
	Use:   branding.CLIName() + " -p <path> -t <type>",
	Short: branding.Description(),
	Long: branding.DisplayName() + ` recovers the source of Python scripts packed by known
malware obfuscators. Nothing in the input is executed: each layer is decoded
by re-implementing the obfuscator's transforms.

  ` + branding.CLIName() + ` -p payload.py -t hyperion
  ` + branding.CLIName() + ` -p - -t vore < payload.py
  ` + branding.CLIName() + ` schemes`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	Args:              cobra.NoArgs,
	PersistentPreRunE: setup,
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = logger.Sync()
	},
	RunE: runDeobfuscate,
}

// setup loads configuration, builds the run logger and shows the cached
// update banner.
func setup(cmd *cobra.Command, args []string) error {
	if err := config.Load(); err != nil {
		return err
	}
	settings := config.Current()

	level := settings.Log.Level
	if logLevel != "" {
		level = logLevel
	}
	l, err := logging.New(logging.Options{
		Level:  level,
		Format: settings.Log.Format,
		File:   settings.Log.File,
		Rotate: settings.Log.Rotate,
		Stderr: cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("configuring logging: %w", err)
	}
	runID = uuid.NewString()
	logger = l.With(zap.String("run_id", runID), zap.String("command", cmd.Name()))
	logger.Debug("starting", zap.String("version", buildVersion))

	if cmd.Name() != "update" && os.Getenv(branding.EnvVar("no_update_check")) == "" {
		showBanner(cmd, settings.Mirror)
	}
	return nil
}

// showBanner prints a cached update notice and refreshes a stale cache in the
// background for the next invocation.
func showBanner(cmd *cobra.Command, mirror string) {
	u := updater.New(buildVersion, updater.WithMirror(mirror))
	if !u.Banner(cmd.ErrOrStderr(), config.Dir()) {
		return
	}
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if _, err := u.Refresh(ctx, config.Dir()); err != nil {
			logger.Debug("release check failed", zap.Error(err))
		}
	}()
}

// Execute runs the root command with build info injected via ldflags.
func Execute(version, commit, date string) error {
	buildVersion = version
	buildCommit = commit
	buildDate = date
	return run(rootCmd)
}

func run(cmd *cobra.Command) error {
	err := cmd.Execute()
	if err != nil {
		presentError(cmd.ErrOrStderr(), err, useColor())
	}
	return err
}

func useColor() bool {
	return !noColor && config.Current().Color
}

package cli

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/vipyr-labs/deobf/internal/config"
	"github.com/vipyr-labs/deobf/internal/scheme"
	"github.com/vipyr-labs/deobf/internal/schemes"
	"github.com/vipyr-labs/deobf/internal/source"
)

var (
	inputPath  string
	deobfType  string
	outputPath string
	outputJSON bool
)

func init() {
	rootCmd.Flags().StringVarP(&inputPath, "path", "p", "", `File to deobfuscate ("-" reads stdin)`)
	rootCmd.Flags().StringVarP(&deobfType, "type", "t", "", "Deobfuscation scheme (see `schemes`)")
	rootCmd.Flags().StringVarP(&outputPath, "output", "o", "", "Write the result to a file instead of stdout")
	rootCmd.Flags().BoolVar(&outputJSON, "json", false, "Emit the result as JSON")
}

type deobfResult struct {
	Scheme    string `json:"scheme"`
	Requested string `json:"requested"`
	Output    string `json:"output"`
}

func runDeobfuscate(cmd *cobra.Command, args []string) error {
	settings := config.Current()
	requested := deobfType
	if requested == "" {
		requested = settings.DefaultType
	}

	if inputPath == "" {
		if !cmd.Flags().Changed("type") {
			return cmd.Help()
		}
		return errors.New("--path is required")
	}

	reg, err := schemes.New(settings.Aliases)
	if err != nil {
		return fmt.Errorf("loading aliases from config: %w", err)
	}
	if requested == "" {
		return fmt.Errorf("--type is required, valid types are: %s", strings.Join(reg.Names(), ", "))
	}

	in, err := source.Open(inputPath, cmd.InOrStdin())
	if err != nil {
		return err
	}
	defer in.Close()

	log := logger.With(zap.String("requested", requested), zap.String("input", in.Name))
	log.Debug("dispatching", zap.String("scheme", reg.Resolve(requested)))

	start := time.Now()
	out, err := scheme.NewDispatcher(reg).Run(in, requested)
	if err != nil {
		log.Info("deobfuscation failed",
			zap.Stringer("kind", scheme.Classify(err)),
			zap.Duration("elapsed", time.Since(start)),
			zap.Error(err))
		if scheme.Classify(err) == scheme.KindDeobfuscationFail {
			return fmt.Errorf("%s: %w", in.Name, err)
		}
		return err
	}
	log.Info("deobfuscated",
		zap.Duration("elapsed", time.Since(start)),
		zap.Int("bytes", len(out)))

	if outputJSON {
		data, err := json.MarshalIndent(deobfResult{
			Scheme:    reg.Resolve(requested),
			Requested: requested,
			Output:    out,
		}, "", "  ")
		if err != nil {
			return fmt.Errorf("marshaling result: %w", err)
		}
		out = string(data) + "\n"
	}

	if outputPath != "" {
		if err := os.WriteFile(outputPath, []byte(out), 0644); err != nil {
			return fmt.Errorf("writing %s: %w", outputPath, err)
		}
		fmt.Fprintf(cmd.ErrOrStderr(), "Wrote %s\n", outputPath)
		return nil
	}
	_, err = fmt.Fprint(cmd.OutOrStdout(), out)
	return err
}

// Package cli implements the pdfstamp command line.
package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/digitorus/pdfstamp"
	"github.com/digitorus/pdfstamp/config"
)

var osExit = os.Exit

// app holds the state shared by all subcommands, set up before any of
// them runs.
type app struct {
	configPath string
	logLevel   string

	cfg     *config.Config
	logger  *zap.Logger
	stamper *pdfstamp.Stamper
}

// NewRootCommand returns the pdfstamp command with all subcommands.
func NewRootCommand() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:   "pdfstamp",
		Short: "Place visual signatures on PDF documents",
		Long: `pdfstamp places image and text signatures on pages of a PDF document.

The input is never modified: every signature is appended as an incremental
update, so the original bytes stay intact at the start of the output.`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: a.setup,
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}

	root.PersistentFlags().StringVar(&a.configPath, "config", config.DefaultLocation, "Path to the TOML configuration file")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error), overrides the configuration")

	root.AddCommand(
		newTextCommand(a),
		newImageCommand(a),
		newBatchCommand(a),
		newInspectCommand(a),
		newServeCommand(a),
	)
	return root
}

// Execute runs the command line and exits with status 1 on failure.
func Execute() {
	if err := NewRootCommand().Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		if kind := pdfstamp.Kind(err); kind != pdfstamp.KindInternal {
			fmt.Fprintf(os.Stderr, "Kind: %s\n", kind)
		}
		osExit(1)
	}
}

// setup loads the configuration and builds the logger and stamper. An
// explicitly passed config file must exist, the default location may be
// absent.
func (a *app) setup(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load(a.configPath, cmd.Flags().Changed("config"))
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.Log.Level = a.logLevel
	}

	logger, err := cfg.NewLogger()
	if err != nil {
		return fmt.Errorf("invalid log level %q: %w", cfg.Log.Level, err)
	}

	stamper, err := pdfstamp.New(cfg.StamperOptions(logger))
	if err != nil {
		return err
	}

	a.cfg, a.logger, a.stamper = cfg, logger, stamper
	return nil
}

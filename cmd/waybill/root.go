package main

import (
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"mercator-hq/waybill/pkg/cli"
	"mercator-hq/waybill/pkg/config"
	"mercator-hq/waybill/pkg/telemetry/logging"
)

var (
	// Global flags
	cfgFile      string
	verbose      bool
	outputFormat string
)

var rootCmd = &cobra.Command{
	Use:   "waybill",
	Short: "Waybill - shipment booking validation and drafts",
	Long: `Waybill validates shipment booking records and manages in-progress drafts.

It provides:
  - Field, cross-field and business-rule validation
  - Required-field progress and wizard step gating
  - Draft storage (SQLite, BadgerDB or memory) with conflict detection
  - Debounced auto-save of a record file while it is edited`,
	Version:       Version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		var exit *cli.ExitError
		if errors.As(err, &exit) {
			if exit.Message != "" {
				fmt.Fprintln(os.Stderr, exit.Message)
			}
			os.Exit(exit.Code)
		}
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	// Global persistent flags (available to all subcommands)
	rootCmd.PersistentFlags().StringVarP(&cfgFile, "config", "c", "", "config file path (defaults apply when empty)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")
	rootCmd.PersistentFlags().StringVarP(&outputFormat, "output", "o", "text", "output format: text, json, yaml")
}

// env is what every command needs before it does its own work.
type env struct {
	cfg    *config.Config
	logger *slog.Logger
	format cli.OutputFormat
}

// setup loads configuration and installs the logger. Logs go to the
// command's stderr so stdout stays parseable.
func setup(cmd *cobra.Command) (*env, error) {
	cfg, err := config.LoadConfigWithEnvOverrides(cfgFile)
	if err != nil {
		return nil, cli.NewConfigError("", fmt.Sprintf("failed to load config: %v", err))
	}
	if verbose {
		cfg.Telemetry.Logging.Level = "debug"
	}
	config.SetConfig(cfg)

	format, err := cli.ParseOutputFormat(outputFormat)
	if err != nil {
		return nil, err
	}

	logCfg := logging.FromConfig(cfg.Telemetry.Logging)
	logCfg.Writer = cmd.ErrOrStderr()
	logger, err := logging.New(logCfg)
	if err != nil {
		return nil, cli.NewConfigError("telemetry.logging", err.Error())
	}
	slog.SetDefault(logger)

	return &env{cfg: cfg, logger: logger, format: format}, nil
}

// emit writes v in the selected format. Text output uses text when set.
func (e *env) emit(cmd *cobra.Command, v any, text func() string) error {
	if e.format == cli.FormatText && text != nil {
		_, err := fmt.Fprint(cmd.OutOrStdout(), text())
		return err
	}
	return cli.NewFormatter(e.format).FormatTo(cmd.OutOrStdout(), v)
}

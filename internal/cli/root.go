package cli

import (
	"fmt"
	"io"
	"slices"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/roach88/provtrack/internal/config"
	"github.com/roach88/provtrack/internal/logging"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose    bool
	Format     string // "json" | "text"
	ConfigFile string
	EnvFile    string
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json"}

// NewRootCommand creates the root command for the provtrack CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "provtrack",
		Short: "Provenance tracking for ML pipelines",
		Long: `provtrack fits estimator pipelines while recording what happened:
which data went in, how every step was configured, and what came out.
Events are buffered locally and synced to a tracking backend.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError,
					fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return nil
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (json|text)")
	cmd.PersistentFlags().StringVarP(&opts.ConfigFile, "config", "c", "", "YAML config file")
	cmd.PersistentFlags().StringVar(&opts.EnvFile, "env-file", "", ".env file (default ./.env when present)")

	cmd.AddCommand(NewRunCommand(opts))
	cmd.AddCommand(NewValidateCommand(opts))
	cmd.AddCommand(NewEventsCommand(opts))
	cmd.AddCommand(NewShowCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

func isValidFormat(format string) bool {
	return slices.Contains(ValidFormats, format)
}

// formatter returns the OutputFormatter for cmd. Diagnostics go to stderr
// so JSON on stdout stays parseable.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// loadConfig reads the config file and environment named by the global
// flags.
func (o *RootOptions) loadConfig() (*config.Config, error) {
	var loadOpts []config.LoaderOption
	if o.ConfigFile != "" {
		loadOpts = append(loadOpts, config.WithConfigFile(o.ConfigFile))
	}
	if o.EnvFile != "" {
		loadOpts = append(loadOpts, config.WithEnvFile(o.EnvFile))
	}
	return config.Load(loadOpts...)
}

// logger builds the process logger. --verbose lowers the level to debug.
func (o *RootOptions) logger(cfg *config.Config, w io.Writer) zerolog.Logger {
	lc := cfg.Log
	if o.Verbose {
		lc.Level = "debug"
	}
	return logging.New(lc, w)
}

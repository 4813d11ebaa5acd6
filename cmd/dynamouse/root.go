package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/frudas24/dynamouse/internal/assign"
	"github.com/frudas24/dynamouse/internal/config"
	"github.com/frudas24/dynamouse/internal/logging"
)

// validFormats lists the accepted --format values.
var validFormats = []string{"text", "json"}

// rootOptions holds global flags for all commands.
type rootOptions struct {
	LogLevel  string
	LogFormat string
	Format    string
}

// newRootCommand builds the dynamouse command tree.
func newRootCommand() *cobra.Command {
	opts := &rootOptions{}

	cmd := &cobra.Command{
		Use:   "dynamouse",
		Short: "DynaMouse keeps each mouse on its own display",
		Long: `DynaMouse binds pointing devices to displays. While running, the cursor
moved by an assigned device is held inside that device's display.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return commandError(fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, validFormats), nil)
			}
			return nil
		},
	}
	cmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return commandError("invalid flags", err)
	})

	cmd.PersistentFlags().StringVar(&opts.LogLevel, "log-level", "", "log level (debug|info|warn|error), overrides DYNAMOUSE_LOG_LEVEL")
	cmd.PersistentFlags().StringVar(&opts.LogFormat, "log-format", "", "log format (text|json), overrides DYNAMOUSE_LOG_FORMAT")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json)")

	cmd.AddCommand(newRunCommand(opts))
	cmd.AddCommand(newDevicesCommand(opts))
	cmd.AddCommand(newDisplaysCommand(opts))
	cmd.AddCommand(newAssignCommand(opts))
	cmd.AddCommand(newUnassignCommand(opts))
	cmd.AddCommand(newConfigCommand(opts))

	return cmd
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range validFormats {
		if f == format {
			return true
		}
	}
	return false
}

// exactArgs wraps cobra.ExactArgs so argument errors exit with code 2.
func exactArgs(n int) cobra.PositionalArgs {
	return func(cmd *cobra.Command, args []string) error {
		if err := cobra.ExactArgs(n)(cmd, args); err != nil {
			return commandError("invalid arguments", err)
		}
		return nil
	}
}

// environment is the loaded configuration and logger shared by commands.
type environment struct {
	cfg    config.Config
	logger *slog.Logger
}

// load reads configuration, applies flag overrides and builds the logger.
func (o *rootOptions) load(debug bool) (environment, error) {
	cfg, err := config.Load()
	if err != nil {
		return environment{}, commandError("load config", err)
	}
	if o.LogLevel != "" {
		cfg.LogLevel = o.LogLevel
	}
	if o.LogFormat != "" {
		cfg.LogFormat = o.LogFormat
	}
	if debug {
		cfg.LogLevel = "debug"
	}
	logger, err := logging.New(logging.Options{Level: cfg.LogLevel, Format: cfg.LogFormat, Output: os.Stderr})
	if err != nil {
		return environment{}, commandError("configure logging", err)
	}
	slog.SetDefault(logger)
	return environment{cfg: cfg, logger: logger}, nil
}

// openStore loads the persisted settings. A corrupt file is logged by the
// store and does not fail the command.
func (e environment) openStore() *assign.Store {
	store := assign.New(e.cfg.SettingsPath, e.logger)
	_ = store.Init()
	return store
}

// printer writes to the command output in the selected format.
func (o *rootOptions) printer(cmd *cobra.Command) printer {
	return printer{format: o.Format, w: cmd.OutOrStdout()}
}

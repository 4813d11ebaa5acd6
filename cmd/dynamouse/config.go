package main

import (
	"strconv"

	"github.com/spf13/cobra"
)

// newConfigCommand creates the config command and its subcommands.
func newConfigCommand(rootOpts *rootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show persisted settings",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := rootOpts.load(false)
			if err != nil {
				return err
			}
			return printSettings(rootOpts.printer(cmd), env.openStore().Config())
		},
	}
	cmd.AddCommand(newSetDelayCommand(rootOpts))
	return cmd
}

// newSetDelayCommand creates the config set-delay command.
func newSetDelayCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "set-delay <seconds>",
		Short: "Set the delay applied before enforcing when started at login",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			seconds, err := strconv.Atoi(args[0])
			if err != nil {
				return commandError("seconds must be an integer", err)
			}
			env, err := rootOpts.load(false)
			if err != nil {
				return err
			}
			settings, err := env.openStore().SetStartupDelay(seconds)
			if err != nil {
				return settingsError(err)
			}
			return printSettings(rootOpts.printer(cmd), settings)
		},
	}
}

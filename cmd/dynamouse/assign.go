package main

import (
	"errors"

	"github.com/spf13/cobra"

	"github.com/frudas24/dynamouse/internal/assign"
	"github.com/frudas24/dynamouse/internal/monitor"
	"github.com/frudas24/dynamouse/internal/pointer"
)

// newAssignCommand creates the assign command.
func newAssignCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "assign <device> <display>",
		Short: "Bind a device to a display",
		Long: `Bind a device to a display and persist the change. Either side may be
disconnected; the binding applies whenever both are present.`,
		Args: exactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := rootOpts.load(false)
			if err != nil {
				return err
			}
			store := env.openStore()
			settings, err := store.Update(assign.Map{pointer.DeviceID(args[0]): monitor.DisplayID(args[1])})
			if err != nil {
				return settingsError(err)
			}
			return printSettings(rootOpts.printer(cmd), settings)
		},
	}
}

// newUnassignCommand creates the unassign command.
func newUnassignCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "unassign <device>",
		Short: "Remove a device binding",
		Args:  exactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := rootOpts.load(false)
			if err != nil {
				return err
			}
			store := env.openStore()
			settings, err := store.Unassign(pointer.DeviceID(args[0]))
			if err != nil {
				return settingsError(err)
			}
			return printSettings(rootOpts.printer(cmd), settings)
		},
	}
}

// settingsError maps store errors to exit codes.
func settingsError(err error) error {
	if errors.Is(err, assign.ErrInvalid) {
		return commandError("invalid assignment", err)
	}
	return failure("save settings", err)
}

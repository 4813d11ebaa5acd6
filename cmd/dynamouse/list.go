package main

import (
	"context"
	"errors"
	"fmt"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/frudas24/dynamouse/internal/assign"
	"github.com/frudas24/dynamouse/internal/monitor"
	"github.com/frudas24/dynamouse/internal/pointer"
)

// deviceRow is one line of the devices listing.
type deviceRow struct {
	pointer.Device
	Display monitor.DisplayID `json:"display,omitempty"`
}

// newDevicesCommand creates the devices command.
func newDevicesCommand(rootOpts *rootOptions) *cobra.Command {
	var settle time.Duration
	cmd := &cobra.Command{
		Use:   "devices",
		Short: "List connected pointing devices and their assignment",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := rootOpts.load(false)
			if err != nil {
				return err
			}
			devices, err := snapshotDevices(cmd.Context(), env, settle)
			if err != nil {
				return err
			}
			m := env.openStore().Assignments()
			rows := make([]deviceRow, 0, len(devices))
			for _, d := range devices {
				display, ok := m[d.ID]
				if !ok {
					display = m[d.Model]
				}
				rows = append(rows, deviceRow{Device: d, Display: display})
			}
			return rootOpts.printer(cmd).emit(rows, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "ID\tMODEL\tLABEL\tDISPLAY")
				for _, r := range rows {
					display := string(r.Display)
					if display == "" {
						display = "-"
					}
					fmt.Fprintf(tw, "%s\t%s\t%s\t%s\n", r.ID, r.Model, r.Label, display)
				}
			})
		},
	}
	cmd.Flags().DurationVar(&settle, "settle", 300*time.Millisecond, "time to wait for device enumeration")
	return cmd
}

// snapshotDevices runs a short device session and returns what it saw.
func snapshotDevices(ctx context.Context, env environment, settle time.Duration) ([]pointer.Device, error) {
	source, err := pointer.NewSource()
	if err != nil {
		if errors.Is(err, pointer.ErrUnsupported) {
			env.logger.Warn("pointer enumeration unavailable on this platform")
			return nil, nil
		}
		return nil, failure("pointer source", err)
	}
	reg := pointer.NewRegistry(source, env.logger)
	if err := reg.Init(ctx); err != nil {
		return nil, failure("enumerate devices", err)
	}
	defer func() { _ = reg.Close() }()

	select {
	case <-ctx.Done():
	case <-time.After(settle):
	}
	return reg.List(), nil
}

// newDisplaysCommand creates the displays command.
func newDisplaysCommand(rootOpts *rootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "displays",
		Short: "List connected displays",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := rootOpts.load(false)
			if err != nil {
				return err
			}
			displays := monitor.NewRegistry(nil, env.logger).List()
			return rootOpts.printer(cmd).emit(displays, func(tw *tabwriter.Writer) {
				fmt.Fprintln(tw, "ID\tNAME\tBOUNDS\tPRIMARY")
				for _, d := range displays {
					b := d.Bounds
					fmt.Fprintf(tw, "%s\t%s\t%dx%d@%d,%d\t%t\n", d.ID, d.Name, b.W, b.H, b.X, b.Y, d.Primary)
				}
			})
		},
	}
}

// printSettings renders the persisted settings.
func printSettings(p printer, s assign.Settings) error {
	return p.emit(s, func(tw *tabwriter.Writer) {
		fmt.Fprintf(tw, "startupDelay\t%ds\n", s.StartupDelay)
		fmt.Fprintln(tw, "DEVICE\tDISPLAY")
		for _, e := range s.Map().Entries() {
			fmt.Fprintf(tw, "%s\t%s\n", e.Device, e.Display)
		}
	})
}

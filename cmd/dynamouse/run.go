package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/frudas24/dynamouse/internal/app"
	"github.com/frudas24/dynamouse/internal/cursor"
	"github.com/frudas24/dynamouse/internal/engine"
	"github.com/frudas24/dynamouse/internal/monitor"
	"github.com/frudas24/dynamouse/internal/pointer"
)

// runOptions holds flags for the run command.
type runOptions struct {
	AtLogin bool
	Debug   bool
}

// newRunCommand creates the run command.
func newRunCommand(rootOpts *rootOptions) *cobra.Command {
	opts := &runOptions{}
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Enforce device assignments until interrupted",
		Args:  exactArgs(0),
		RunE: func(cmd *cobra.Command, args []string) error {
			env, err := rootOpts.load(opts.Debug)
			if err != nil {
				return err
			}
			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
			defer stop()
			return run(ctx, env, *opts)
		},
	}
	cmd.Flags().BoolVar(&opts.AtLogin, "at-login", false, "apply the configured startup delay before enforcing")
	cmd.Flags().BoolVar(&opts.Debug, "debug", false, "enable verbose debug logging")
	return cmd
}

// run wires the application and blocks until shutdown.
func run(ctx context.Context, env environment, opts runOptions) error {
	logger := env.logger
	logStartup(env)

	store := env.openStore()

	source, err := pointer.NewSource()
	if err != nil && !errors.Is(err, pointer.ErrUnsupported) {
		return failure("pointer source", err)
	}
	devices := pointer.NewRegistry(source, logger)
	displays := monitor.NewRegistry(nil, logger)

	cur, err := cursor.New()
	if err != nil {
		return failure("cursor", err)
	}
	eng, err := engine.New(devices, cur, logger)
	if err != nil {
		return failure("engine", err)
	}

	appInstance, err := app.New(devices, displays, store, eng, logger, app.Options{
		AtLogin:       opts.AtLogin,
		DisplayPoll:   env.cfg.DisplayPollInterval(),
		SettingsPoll:  env.cfg.SettingsPollInterval(),
		TriggerBuffer: env.cfg.TriggerBuffer,
	})
	if err != nil {
		return failure("app", err)
	}
	if err := appInstance.Run(ctx); err != nil {
		return failure("run", err)
	}
	st := eng.Stats()
	logger.Info("stopped",
		slog.Uint64("reconciles", st.Reconciles),
		slog.Uint64("moves", st.Moves),
		slog.Uint64("cursorErrors", st.CursorErrors))
	return nil
}

// logStartup reports where configuration was read from.
func logStartup(env environment) {
	logger := env.logger
	logger.Info("DynaMouse starting", slog.String("dataDir", env.cfg.DataDir))
	if fileExists(env.cfg.EnvPath()) {
		logger.Info("env check: ok", slog.String("path", env.cfg.EnvPath()))
	} else {
		logger.Debug("env check: missing", slog.String("path", env.cfg.EnvPath()))
	}
	if fileExists(env.cfg.SettingsPath) {
		logger.Info("settings check: ok", slog.String("path", env.cfg.SettingsPath))
	} else {
		logger.Info("settings check: missing, starting with no assignments", slog.String("path", env.cfg.SettingsPath))
	}
}

// fileExists reports whether a path exists and is a file.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return !info.IsDir()
}

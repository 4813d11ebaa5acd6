package main

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/frudas24/dynamouse/internal/assign"
	"github.com/frudas24/dynamouse/internal/config"
)

// execute runs the CLI against an isolated data directory.
func execute(t *testing.T, dataDir string, args ...string) (string, error) {
	t.Helper()
	t.Setenv(config.EnvPrefix+"DATA_DIR", dataDir)
	t.Setenv(config.EnvPrefix+"SETTINGS_PATH", "")
	cmd := newRootCommand()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs(append(args, "--log-level", "error"))
	err := cmd.Execute()
	return out.String(), err
}

// TestRootCommand verifies the root command metadata.
func TestRootCommand(t *testing.T) {
	cmd := newRootCommand()
	require.NotNil(t, cmd)
	assert.Equal(t, "dynamouse", cmd.Use)
}

// TestCommandPresence verifies every subcommand is registered.
func TestCommandPresence(t *testing.T) {
	cmd := newRootCommand()
	for _, path := range [][]string{{"run"}, {"devices"}, {"displays"}, {"assign"}, {"unassign"}, {"config"}, {"config", "set-delay"}} {
		sub, _, err := cmd.Find(path)
		require.NoError(t, err, "command %v should exist", path)
		assert.Equal(t, path[len(path)-1], sub.Name())
	}
}

// TestGlobalFlags verifies the persistent flags and their defaults.
func TestGlobalFlags(t *testing.T) {
	cmd := newRootCommand()
	format := cmd.PersistentFlags().Lookup("format")
	require.NotNil(t, format)
	assert.Equal(t, "text", format.DefValue)
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-level"))
	assert.NotNil(t, cmd.PersistentFlags().Lookup("log-format"))
}

// TestRunCommandFlags verifies the run command flags.
func TestRunCommandFlags(t *testing.T) {
	cmd := newRootCommand()
	runCmd, _, err := cmd.Find([]string{"run"})
	require.NoError(t, err)
	atLogin := runCmd.Flags().Lookup("at-login")
	require.NotNil(t, atLogin)
	assert.Equal(t, "false", atLogin.DefValue)
	assert.NotNil(t, runCmd.Flags().Lookup("debug"))
}

// TestExitCodes verifies errors map to process exit codes.
func TestExitCodes(t *testing.T) {
	assert.Equal(t, exitSuccess, exitCode(nil))
	assert.Equal(t, exitFailure, exitCode(errors.New("boom")))
	assert.Equal(t, exitCommandError, exitCode(commandError("bad", nil)))
	assert.Equal(t, exitFailure, exitCode(failure("save", assign.ErrPersist)))
	assert.ErrorIs(t, failure("save", assign.ErrPersist), assign.ErrPersist)
}

// TestInvalidFormatIsCommandError verifies an unknown output format is a usage error.
func TestInvalidFormatIsCommandError(t *testing.T) {
	_, err := execute(t, t.TempDir(), "config", "--format", "yaml")
	require.Error(t, err)
	assert.Equal(t, exitCommandError, exitCode(err))
}

// TestWrongArgumentCountIsCommandError verifies argument count mistakes are usage errors.
func TestWrongArgumentCountIsCommandError(t *testing.T) {
	_, err := execute(t, t.TempDir(), "assign", "only-device")
	require.Error(t, err)
	assert.Equal(t, exitCommandError, exitCode(err))
}

// TestAssignUnassignRoundTrip verifies assign and unassign edit the settings file.
func TestAssignUnassignRoundTrip(t *testing.T) {
	dir := t.TempDir()

	out, err := execute(t, dir, "assign", "046d:c52b", `\\.\DISPLAY2`, "--format", "json")
	require.NoError(t, err)
	var settings assign.Settings
	require.NoError(t, json.Unmarshal([]byte(out), &settings))
	assert.Equal(t, assign.Map{"046d:c52b": `\\.\DISPLAY2`}, settings.Map())

	_, err = os.Stat(filepath.Join(dir, "settings.yaml"))
	require.NoError(t, err)

	out, err = execute(t, dir, "config")
	require.NoError(t, err)
	assert.Contains(t, out, "046d:c52b")
	assert.Contains(t, out, `\\.\DISPLAY2`)

	_, err = execute(t, dir, "unassign", "046d:c52b")
	require.NoError(t, err)
	out, err = execute(t, dir, "config", "--format", "json")
	require.NoError(t, err)
	settings = assign.Settings{}
	require.NoError(t, json.Unmarshal([]byte(out), &settings))
	assert.Empty(t, settings.Devices)
}

// TestSetDelay verifies set-delay persists the startup delay.
func TestSetDelay(t *testing.T) {
	dir := t.TempDir()
	_, err := execute(t, dir, "config", "set-delay", "7")
	require.NoError(t, err)

	store := assign.New(filepath.Join(dir, "settings.yaml"), nil)
	require.NoError(t, store.Init())
	assert.Equal(t, 7, store.Config().StartupDelay)

	_, err = execute(t, dir, "config", "set-delay", "-1")
	assert.Equal(t, exitCommandError, exitCode(err))
	_, err = execute(t, dir, "config", "set-delay", "soon")
	assert.Equal(t, exitCommandError, exitCode(err))
}

// Package config loads environment configuration for DynaMouse.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	"github.com/frudas24/dynamouse/internal/logging"
)

const (
	// EnvPrefix is prepended to every configuration variable.
	EnvPrefix = "DYNAMOUSE_"

	appDirName       = "DynaMouse"
	settingsFileName = "settings.yaml"
	fallbackDataDir  = "./data"
)

// Config holds runtime configuration values.
type Config struct {
	DataDir        string `env:"DATA_DIR"`
	SettingsPath   string `env:"SETTINGS_PATH"`
	LogLevel       string `env:"LOG_LEVEL" envDefault:"info"`
	LogFormat      string `env:"LOG_FORMAT" envDefault:"text"`
	DisplayPollMs  int    `env:"DISPLAY_POLL_MS" envDefault:"2000"`
	SettingsPollMs int    `env:"SETTINGS_POLL_MS" envDefault:"1000"`
	TriggerBuffer  int    `env:"TRIGGER_BUFFER" envDefault:"16"`
}

// DisplayPollInterval returns the display polling period. Zero disables polling.
func (c Config) DisplayPollInterval() time.Duration {
	return time.Duration(c.DisplayPollMs) * time.Millisecond
}

// SettingsPollInterval returns the settings reload period. Zero disables it.
func (c Config) SettingsPollInterval() time.Duration {
	return time.Duration(c.SettingsPollMs) * time.Millisecond
}

// EnvPath returns the optional .env file location.
func (c Config) EnvPath() string {
	return filepath.Join(c.DataDir, ".env")
}

// Load reads configuration from <data dir>/.env and environment variables.
// Variables already present in the environment win over the file.
func Load() (Config, error) {
	cfg := Config{DataDir: defaultDataDir()}
	if v := strings.TrimSpace(os.Getenv(EnvPrefix + "DATA_DIR")); v != "" {
		cfg.DataDir = v
	}

	if err := loadEnvFile(cfg.EnvPath()); err != nil {
		return Config{}, err
	}

	if err := env.ParseWithOptions(&cfg, env.Options{Prefix: EnvPrefix}); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	cfg.DataDir = strings.TrimSpace(cfg.DataDir)
	cfg.SettingsPath = strings.TrimSpace(cfg.SettingsPath)
	if cfg.SettingsPath == "" {
		cfg.SettingsPath = filepath.Join(cfg.DataDir, settingsFileName)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// validate rejects values the runtime cannot work with.
func (c Config) validate() error {
	if c.DataDir == "" {
		return errors.New(EnvPrefix + "DATA_DIR must not be empty")
	}
	if _, err := logging.ParseLevel(c.LogLevel); err != nil {
		return fmt.Errorf("%sLOG_LEVEL: %w", EnvPrefix, err)
	}
	switch strings.ToLower(strings.TrimSpace(c.LogFormat)) {
	case "text", "console", "json":
	default:
		return fmt.Errorf("%sLOG_FORMAT must be text or json", EnvPrefix)
	}
	if c.DisplayPollMs < 0 {
		return fmt.Errorf("%sDISPLAY_POLL_MS must be >= 0", EnvPrefix)
	}
	if c.SettingsPollMs < 0 {
		return fmt.Errorf("%sSETTINGS_POLL_MS must be >= 0", EnvPrefix)
	}
	if c.TriggerBuffer <= 0 {
		return fmt.Errorf("%sTRIGGER_BUFFER must be > 0", EnvPrefix)
	}
	return nil
}

// defaultDataDir prefers the per-user config directory.
func defaultDataDir() string {
	base, err := os.UserConfigDir()
	if err != nil || base == "" {
		return fallbackDataDir
	}
	return filepath.Join(base, appDirName)
}

// loadEnvFile loads KEY=VALUE pairs from a .env file when it exists.
func loadEnvFile(path string) error {
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("load %s: %w", path, err)
	}
	return nil
}

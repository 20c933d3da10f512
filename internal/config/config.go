// Package config holds the diaryctl configuration: a YAML file under the
// data directory with environment-variable overrides.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"gopkg.in/yaml.v3"
)

// Config holds all diaryctl configuration.
type Config struct {
	DataDir string `yaml:"data_dir"`
	DBPath  string `yaml:"db_path"`

	// RetentionDays is the trailing diary window, today inclusive.
	RetentionDays int `yaml:"retention_days"`

	// CleanupSchedule is a 5-field cron expression for the background
	// cleanup run in `diaryctl serve`.
	CleanupSchedule string `yaml:"cleanup_schedule"`

	// CleanupTimeoutSeconds bounds how long a scheduled cleanup run is
	// waited for before being abandoned to the background.
	CleanupTimeoutSeconds int `yaml:"cleanup_timeout_seconds"`
}

// DefaultDataDir returns the default data directory (~/.contactdiary).
func DefaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	return filepath.Join(home, ".contactdiary")
}

// Default returns a Config with sensible defaults.
func Default() *Config {
	dataDir := DefaultDataDir()
	return &Config{
		DataDir:               dataDir,
		DBPath:                filepath.Join(dataDir, "diary.db"),
		RetentionDays:         15,
		CleanupSchedule:       "0 3 * * *",
		CleanupTimeoutSeconds: 30,
	}
}

// Load reads configuration from a YAML file, falling back to defaults for
// any unset field, then applies environment overrides (CONTACTDIARY_DB,
// CONTACTDIARY_RETENTION_DAYS, CONTACTDIARY_CLEANUP_SCHEDULE). A missing
// file is not an error.
func Load(path string) (*Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		// No config file is fine, use defaults.
	} else {
		// Unmarshal into a zero value, not into cfg: with pre-filled
		// defaults every field would look set and an overridden data_dir
		// could never re-derive the db path.
		var file Config
		if err := yaml.Unmarshal(data, &file); err != nil {
			return nil, fmt.Errorf("parse %s: %w", path, err)
		}
		if file.DataDir != "" {
			cfg.DataDir = file.DataDir
			// Follow the data dir unless the file pins a db path below.
			cfg.DBPath = filepath.Join(file.DataDir, "diary.db")
		}
		if file.DBPath != "" {
			cfg.DBPath = file.DBPath
		}
		if file.RetentionDays > 0 {
			cfg.RetentionDays = file.RetentionDays
		}
		if file.CleanupSchedule != "" {
			cfg.CleanupSchedule = file.CleanupSchedule
		}
		if file.CleanupTimeoutSeconds > 0 {
			cfg.CleanupTimeoutSeconds = file.CleanupTimeoutSeconds
		}
	}

	if v := os.Getenv("CONTACTDIARY_DB"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("CONTACTDIARY_RETENTION_DAYS"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 {
			return nil, fmt.Errorf("CONTACTDIARY_RETENTION_DAYS: invalid value %q", v)
		}
		cfg.RetentionDays = n
	}
	if v := os.Getenv("CONTACTDIARY_CLEANUP_SCHEDULE"); v != "" {
		cfg.CleanupSchedule = v
	}

	return cfg, nil
}

// EnsureDataDir creates the data directory if it does not exist.
func (c *Config) EnsureDataDir() error {
	return os.MkdirAll(c.DataDir, 0o755)
}

// ConfigPath returns the default path to the config file.
func ConfigPath() string {
	return filepath.Join(DefaultDataDir(), "config.yml")
}

// Package config provides configuration file parsing for modman.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up inside Dir.
const FileName = "config.yaml"

// Dir returns the modman config directory, respecting XDG_CONFIG_HOME.
// Defaults to ~/.config/modman if XDG_CONFIG_HOME is not set.
func Dir() (string, error) {
	base := os.Getenv("XDG_CONFIG_HOME")
	if base == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		base = filepath.Join(home, ".config")
	}
	return filepath.Join(base, "modman"), nil
}

// Config holds the user settings. Zero values are filled from Defaults.
type Config struct {
	ModsPath           string        `yaml:"mods_path"`
	SevenZipPath       string        `yaml:"seven_zip_path"`
	DBPath             string        `yaml:"db_path"`
	LogLevel           string        `yaml:"log_level"`
	UnsubscribeTimeout time.Duration `yaml:"unsubscribe_timeout"`
	PollInterval       time.Duration `yaml:"poll_interval"`
	InstallJobs        int           `yaml:"install_jobs"`
}

// Defaults returns the configuration used when no file is present, rooted
// at dir.
func Defaults(dir string) *Config {
	return &Config{
		ModsPath:           filepath.Join(dir, "mods"),
		DBPath:             filepath.Join(dir, "modman.db"),
		LogLevel:           "info",
		UnsubscribeTimeout: 30 * time.Second,
		PollInterval:       10 * time.Millisecond,
		InstallJobs:        2,
	}
}

// Load reads the config file at path over the defaults and applies
// environment overrides. If path is empty, {Dir}/config.yaml is used. A
// missing file is not an error.
func Load(path string) (*Config, error) {
	dir, err := Dir()
	if err != nil {
		return nil, fmt.Errorf("failed to resolve config dir: %w", err)
	}
	if path == "" {
		path = filepath.Join(dir, FileName)
	}

	cfg := Defaults(dir)

	data, err := os.ReadFile(path)
	switch {
	case errors.Is(err, os.ErrNotExist):
	case err != nil:
		return nil, fmt.Errorf("failed to read config: %w", err)
	default:
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
		}
	}

	cfg.applyEnv()
	cfg.fillDefaults(dir)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) applyEnv() {
	if v := os.Getenv("MODMAN_MODS_PATH"); v != "" {
		c.ModsPath = v
	}
	if v := os.Getenv("MODMAN_SEVEN_ZIP"); v != "" {
		c.SevenZipPath = v
	}
	if v := os.Getenv("MODMAN_LOG_LEVEL"); v != "" {
		c.LogLevel = v
	}
}

// fillDefaults covers keys present in the file but left empty.
func (c *Config) fillDefaults(dir string) {
	d := Defaults(dir)
	if c.ModsPath == "" {
		c.ModsPath = d.ModsPath
	}
	if c.DBPath == "" {
		c.DBPath = d.DBPath
	}
	if c.LogLevel == "" {
		c.LogLevel = d.LogLevel
	}
	if c.UnsubscribeTimeout == 0 {
		c.UnsubscribeTimeout = d.UnsubscribeTimeout
	}
	if c.PollInterval == 0 {
		c.PollInterval = d.PollInterval
	}
	if c.InstallJobs == 0 {
		c.InstallJobs = d.InstallJobs
	}
}

// Validate rejects settings the rest of modman cannot work with.
func (c *Config) Validate() error {
	switch strings.ToLower(c.LogLevel) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log_level %q", c.LogLevel)
	}
	if c.UnsubscribeTimeout < 0 {
		return fmt.Errorf("unsubscribe_timeout must be positive")
	}
	if c.PollInterval < 0 || (c.UnsubscribeTimeout > 0 && c.PollInterval > c.UnsubscribeTimeout) {
		return fmt.Errorf("poll_interval must be positive and below unsubscribe_timeout")
	}
	if c.InstallJobs < 0 {
		return fmt.Errorf("install_jobs must be positive")
	}
	return nil
}

// EnsureModsDir creates the mods folder if it is missing and returns its
// absolute path.
func (c *Config) EnsureModsDir() (string, error) {
	abs, err := filepath.Abs(c.ModsPath)
	if err != nil {
		return "", fmt.Errorf("failed to resolve mods path: %w", err)
	}
	if err := os.MkdirAll(abs, 0o755); err != nil {
		return "", fmt.Errorf("failed to create mods folder %s: %w", abs, err)
	}
	return abs, nil
}

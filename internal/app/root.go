package app

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/modman/internal/config"
)

var (
	dbPath     string
	configPath string
	logLevel   string

	// cfg is loaded once per invocation by the root pre-run hook.
	cfg *config.Config

	// RootCmd is the root command for modman
	RootCmd = &cobra.Command{
		Use:   "modman",
		Short: "Install game mods and manage workshop subscriptions",
		Long: `modman installs mod archives into a per-game mods folder and manages
workshop subscriptions.

Mods are extracted with 7-Zip into <mods>/<app id>/<identifier>, next to a
meta.json describing the mod. Install targets are checked against a list of
protected system folders and must match the expected folder layout.

Quick Start:
  1. modman doctor
  2. modman install --app 480 --id cool-mod --title "Cool Mod" \
       --archive ~/Downloads/cool-mod.zip --pack cool_mod.pack
  3. modman list

Examples:
  # Install every mod in a manifest, three at a time
  modman install --app 480 --manifest mods.yaml --jobs 3

  # Remove a workshop subscription
  modman unsubscribe --app 480 123456789

  # Keep the index in step with the mods folder
  modman watch --daemon`,
		SilenceUsage:      true,
		SilenceErrors:     true,
		PersistentPreRunE: loadConfig,
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "modman: game mod installer and workshop manager")
			fmt.Fprintln(out)
			fmt.Fprintln(out, "Run 'modman doctor' to check your setup.")
			fmt.Fprintln(out, "Run 'modman --help' for the full reference.")
			return nil
		},
	}
)

func init() {
	RootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default: ~/.config/modman/modman.db)")
	RootCmd.PersistentFlags().StringVar(&configPath, "config", "", "config file (default: ~/.config/modman/config.yaml)")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error")

	RootCmd.SuggestionsMinimumDistance = 2

	RootCmd.AddCommand(installCmd)
	RootCmd.AddCommand(unsubscribeCmd)
	RootCmd.AddCommand(listCmd)
	RootCmd.AddCommand(watchCmd)
	RootCmd.AddCommand(doctorCmd)
}

// Execute runs the root command
func Execute() error {
	return RootCmd.Execute()
}

func loadConfig(cmd *cobra.Command, args []string) error {
	c, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	cfg = c
	slog.SetDefault(newLogger(cfg.LogLevel, os.Stderr))
	return nil
}

// currentConfig returns the loaded config, loading it on first use when a
// command runs without the root pre-run hook.
func currentConfig() (*config.Config, error) {
	if cfg != nil {
		return cfg, nil
	}
	if err := loadConfig(nil, nil); err != nil {
		return nil, err
	}
	return cfg, nil
}

func newLogger(level string, w io.Writer) *slog.Logger {
	var l slog.Level
	switch strings.ToLower(level) {
	case "debug":
		l = slog.LevelDebug
	case "warn", "warning":
		l = slog.LevelWarn
	case "error":
		l = slog.LevelError
	default:
		l = slog.LevelInfo
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: l}))
}

// getDBPath returns the database path from the flag or the config, creating
// its parent directory.
func getDBPath() (string, error) {
	path := dbPath
	if path == "" {
		c, err := currentConfig()
		if err != nil {
			return "", err
		}
		path = c.DBPath
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return "", fmt.Errorf("failed to create database directory: %w", err)
	}
	return path, nil
}

func stateFile(name string) (string, error) {
	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve config dir: %w", err)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create modman directory: %w", err)
	}
	return filepath.Join(dir, name), nil
}

// getDefaultPIDFile returns the default PID file path
func getDefaultPIDFile() (string, error) {
	return stateFile("watch.pid")
}

// getDefaultLogFile returns the default log file path
func getDefaultLogFile() (string, error) {
	return stateFile("watch.log")
}

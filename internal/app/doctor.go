package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/modman/internal/apperr"
	"github.com/blackwell-systems/modman/internal/install"
	"github.com/blackwell-systems/modman/internal/pathguard"
	"github.com/blackwell-systems/modman/internal/store"
	"github.com/blackwell-systems/modman/internal/watcher"
)

var doctorCmd = &cobra.Command{
	Use:   "doctor",
	Short: "Diagnose common issues and check setup",
	Long: `Runs diagnostic checks on your modman setup.

Checks:
  • Mods folder exists and is not under a protected folder
  • 7-Zip can be found
  • Database exists and is accessible
  • Index entries still have their folders
  • Watch daemon is running

The protected folders that installs are never allowed into are listed at the
end.`,
	RunE: runDoctor,
}

type doctorReport struct {
	w        io.Writer
	critical int
	warnings int
}

func (r *doctorReport) ok(format string, args ...any) {
	fmt.Fprintf(r.w, "✓ "+format+"\n", args...)
}

func (r *doctorReport) warn(action, format string, args ...any) {
	r.warnings++
	fmt.Fprintf(r.w, "⚠ "+format+"\n", args...)
	if action != "" {
		fmt.Fprintf(r.w, "  Action: %s\n", action)
	}
}

func (r *doctorReport) fail(action, format string, args ...any) {
	r.critical++
	fmt.Fprintf(r.w, "✗ "+format+"\n", args...)
	if action != "" {
		fmt.Fprintf(r.w, "  Action: %s\n", action)
	}
}

func runDoctor(cmd *cobra.Command, args []string) error {
	r := &doctorReport{w: cmd.OutOrStdout()}
	fmt.Fprintln(r.w, "Running modman diagnostics...")
	fmt.Fprintln(r.w)

	c, err := currentConfig()
	if err != nil {
		r.fail("Fix or remove the config file", "Config: %v", err)
		return finishDoctor(r)
	}
	r.ok("Config loaded (log level %s, %d install jobs)", c.LogLevel, c.InstallJobs)

	checkModsFolder(r, c.ModsPath)

	if tool, err := install.LocateSevenZip(c.SevenZipPath); err != nil {
		r.fail("Install 7-Zip or set seven_zip_path in config.yaml", "%v", err)
	} else {
		r.ok("7-Zip found: %s", tool)
	}

	checkDatabase(r)
	checkDaemon(r)

	fmt.Fprintln(r.w)
	fmt.Fprintln(r.w, "Protected folders (installs are refused under these):")
	for _, p := range pathguard.ProtectedPrefixes() {
		fmt.Fprintf(r.w, "  %s\n", p)
	}

	return finishDoctor(r)
}

func checkModsFolder(r *doctorReport, modsPath string) {
	abs, err := filepath.Abs(modsPath)
	if err != nil {
		r.fail("Set mods_path in config.yaml", "Mods folder path invalid: %v", err)
		return
	}

	// Probe with a well-formed target so only the base is judged.
	probe := filepath.Join(abs, "1", "probe")
	if err := pathguard.Validate(probe, 1, "probe"); apperr.IsKind(err, apperr.ForbiddenPath) {
		r.fail("Set mods_path to a folder in your home directory", "Mods folder is under a protected folder: %s", abs)
		return
	}

	info, err := os.Stat(abs)
	switch {
	case errors.Is(err, os.ErrNotExist):
		r.warn("It will be created on the first install", "Mods folder does not exist yet: %s", abs)
	case err != nil:
		r.fail("", "Cannot access mods folder: %v", err)
	case !info.IsDir():
		r.fail("Set mods_path to a directory", "Mods path is not a directory: %s", abs)
	default:
		r.ok("Mods folder: %s", abs)
	}
}

func checkDatabase(r *doctorReport) {
	path, err := getDBPath()
	if err != nil {
		r.fail("", "Database path error: %v", err)
		return
	}

	st, err := store.Open(path)
	if err != nil {
		r.fail("Check permissions on "+filepath.Dir(path), "Cannot open database: %v", err)
		return
	}
	defer st.Close()

	mods, err := st.ListMods(0)
	if err != nil {
		r.fail("", "Cannot read install index: %v", err)
		return
	}
	r.ok("Database is accessible: %s (%d mods indexed)", path, len(mods))

	missing := 0
	for _, m := range mods {
		if _, err := os.Stat(m.InstallPath); errors.Is(err, os.ErrNotExist) {
			missing++
		}
	}
	if missing > 0 {
		r.warn("Run 'modman watch' to prune them", "%d indexed mod(s) have no folder on disk", missing)
	}
}

func checkDaemon(r *doctorReport) {
	pidFile, err := getDefaultPIDFile()
	if err != nil {
		r.warn("", "Failed to get PID file path: %v", err)
		return
	}
	running, err := watcher.IsDaemonRunning(pidFile)
	switch {
	case err != nil:
		r.warn("", "Failed to check daemon status: %v", err)
	case !running:
		r.warn("Run 'modman watch --daemon'", "Watch daemon not running")
	default:
		r.ok("Watch daemon running")
	}
}

func finishDoctor(r *doctorReport) error {
	fmt.Fprintln(r.w)
	switch {
	case r.critical > 0:
		fmt.Fprintf(r.w, "Found %d critical issue(s) and %d warning(s).\n", r.critical, r.warnings)
		return fmt.Errorf("diagnostics failed")
	case r.warnings > 0:
		fmt.Fprintf(r.w, "Found %d warning(s). modman is usable but not fully set up.\n", r.warnings)
	default:
		fmt.Fprintln(r.w, "✓ All checks passed!")
	}
	return nil
}

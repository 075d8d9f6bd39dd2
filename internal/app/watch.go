package app

import (
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/modman/internal/output"
	"github.com/blackwell-systems/modman/internal/watcher"
)

var (
	watchDaemon      bool
	watchDaemonChild bool
	watchPIDFile     string
	watchLogFile     string
	watchStop        bool
	watchPath        string

	watchCmd = &cobra.Command{
		Use:   "watch",
		Short: "Keep the install index in step with the mods folder",
		Long: `Watch the mods folder and drop index entries for mod folders that are
deleted outside modman.

On start, entries whose folders already disappeared are pruned. After that,
filesystem events for the mods folder and each app folder under it are
followed until the watcher is stopped.

Watch modes:
  • Foreground (default): Run in current terminal with Ctrl+C to stop
  • Daemon: Run as background process
  • Stop: Stop a running daemon`,
		Example: `  # Run in foreground (Ctrl+C to stop)
  modman watch

  # Run as background daemon
  modman watch --daemon

  # Stop running daemon
  modman watch --stop

  # Watch a custom mods folder
  modman watch --path /games/mods`,
		RunE: runWatch,
	}
)

func init() {
	watchCmd.Flags().BoolVar(&watchDaemon, "daemon", false, "run as background daemon")
	watchCmd.Flags().BoolVar(&watchDaemonChild, "daemon-child", false, "internal flag for daemon child process")
	watchCmd.Flags().StringVar(&watchPIDFile, "pid-file", "", "PID file path (default: ~/.config/modman/watch.pid)")
	watchCmd.Flags().StringVar(&watchLogFile, "log-file", "", "log file path (default: ~/.config/modman/watch.log)")
	watchCmd.Flags().BoolVar(&watchStop, "stop", false, "stop running daemon")
	watchCmd.Flags().StringVar(&watchPath, "path", "", "mods folder (default: mods_path from config)")

	watchCmd.Flags().MarkHidden("daemon-child")
}

func runWatch(cmd *cobra.Command, args []string) error {
	if watchPIDFile == "" {
		p, err := getDefaultPIDFile()
		if err != nil {
			return fmt.Errorf("failed to get default PID file path: %w", err)
		}
		watchPIDFile = p
	}
	if watchLogFile == "" {
		p, err := getDefaultLogFile()
		if err != nil {
			return fmt.Errorf("failed to get default log file path: %w", err)
		}
		watchLogFile = p
	}

	if watchStop {
		return stopWatchDaemon(cmd)
	}

	base, err := modsBase(watchPath)
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	w, err := watcher.New(st, base, slog.Default())
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}

	switch {
	case watchDaemon:
		return startWatchDaemon(cmd, w)
	case watchDaemonChild:
		return w.RunDaemon(watchPIDFile)
	default:
		return runWatchForeground(cmd, w, base)
	}
}

func stopWatchDaemon(cmd *cobra.Command) error {
	out := cmd.OutOrStdout()

	running, err := watcher.IsDaemonRunning(watchPIDFile)
	if err != nil {
		return fmt.Errorf("failed to check daemon status: %w", err)
	}
	if !running {
		fmt.Fprintln(out, "Daemon is not running")
		return nil
	}

	if err := watcher.StopDaemon(watchPIDFile); err != nil {
		return fmt.Errorf("failed to stop daemon: %w", err)
	}
	fmt.Fprintln(out, "✓ Daemon stopped")
	return nil
}

func startWatchDaemon(cmd *cobra.Command, w *watcher.Watcher) error {
	out := cmd.OutOrStdout()

	var extra []string
	if dbPath != "" {
		extra = append(extra, "--db", dbPath)
	}
	if configPath != "" {
		extra = append(extra, "--config", configPath)
	}
	if err := w.StartDaemon(watchPIDFile, watchLogFile, extra...); err != nil {
		return fmt.Errorf("failed to start daemon: %w", err)
	}

	fmt.Fprintln(out, "✓ Daemon started")
	fmt.Fprintf(out, "  PID file: %s\n", watchPIDFile)
	fmt.Fprintf(out, "  Log file: %s\n", watchLogFile)
	fmt.Fprintf(out, "\nTo stop: modman watch --stop\n")
	return nil
}

func runWatchForeground(cmd *cobra.Command, w *watcher.Watcher, base string) error {
	out := cmd.OutOrStdout()

	spinner := output.NewSpinner("Reconciling index")
	spinner.SetWriter(out)
	spinner.Start()
	if err := w.Start(); err != nil {
		spinner.Stop()
		return fmt.Errorf("failed to start watcher: %w", err)
	}
	spinner.StopWithMessage("✓ Watching " + base)
	fmt.Fprintln(out, "Press Ctrl+C to stop.")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGTERM, syscall.SIGINT)
	defer signal.Stop(sigCh)

	sig := <-sigCh
	fmt.Fprintf(out, "\nReceived signal %v, shutting down...\n", sig)

	if err := w.Stop(); err != nil {
		return fmt.Errorf("failed to stop watcher: %w", err)
	}
	fmt.Fprintln(out, "✓ Watcher stopped")
	return nil
}

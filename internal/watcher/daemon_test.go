//go:build !windows

package watcher

import (
	"os"
	"path/filepath"
	"strconv"
	"syscall"
	"testing"
	"time"
)

func TestIsDaemonRunning_NotRunning(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for non-existent PID file")
	}
}

func TestIsDaemonRunning_WithCurrentProcess(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	// Write current process PID
	pid := os.Getpid()
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(pid)+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if !running {
		t.Error("IsDaemonRunning() = false, want true for current process")
	}
}

func TestIsDaemonRunning_WithDeadProcess(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	// Write a PID that (hopefully) doesn't exist
	// Using a very high PID that's unlikely to be in use
	deadPID := 999999
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(deadPID)+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for dead process")
	}

	// PID file should be removed
	if _, err := os.Stat(pidFile); !os.IsNotExist(err) {
		t.Error("stale PID file was not removed")
	}
}

func TestIsDaemonRunning_InvalidPID(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	// Write invalid PID
	if err := os.WriteFile(pidFile, []byte("not-a-number\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	running, err := IsDaemonRunning(pidFile)
	if err != nil {
		t.Errorf("IsDaemonRunning() error = %v, want nil for invalid PID", err)
	}
	if running {
		t.Error("IsDaemonRunning() = true, want false for invalid PID")
	}
}

func TestStopDaemon_NotRunning(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	err := StopDaemon(pidFile)
	if err == nil {
		t.Error("StopDaemon() expected error for non-existent daemon, got nil")
	}
}

func TestStopDaemon_InvalidPID(t *testing.T) {
	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	// Write invalid PID
	if err := os.WriteFile(pidFile, []byte("invalid\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	err := StopDaemon(pidFile)
	if err == nil {
		t.Error("StopDaemon() expected error for invalid PID, got nil")
	}
}

func TestStartDaemon_AlreadyRunning(t *testing.T) {
	w, err := New(setupTestStore(t), t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")
	logFile := filepath.Join(tmpDir, "test.log")

	// Write current process PID to simulate running daemon
	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(os.Getpid())+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	// Should fail because daemon appears to be running
	err = w.StartDaemon(pidFile, logFile)
	if err == nil {
		t.Error("StartDaemon() expected error for already running daemon, got nil")
	}
}

func TestStartDaemon_InvalidLogFile(t *testing.T) {
	w, err := New(setupTestStore(t), t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")
	logFile := filepath.Join(tmpDir, "nonexistent", "test.log") // Invalid path

	err = w.StartDaemon(pidFile, logFile)
	if err == nil {
		t.Error("StartDaemon() expected error for invalid log file path, got nil")
	}
}

func TestStop_BeforeStart(t *testing.T) {
	w, err := New(setupTestStore(t), t.TempDir(), nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}

	if err := w.Stop(); err != nil {
		t.Errorf("Stop() before Start() error = %v, want nil", err)
	}
	if err := w.Stop(); err != nil {
		t.Errorf("second Stop() error = %v, want nil", err)
	}
}

func TestStopDaemon_SignalsProcess(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping test that creates subprocess in short mode")
	}

	tmpDir := t.TempDir()
	pidFile := filepath.Join(tmpDir, "test.pid")

	proc, err := os.StartProcess("/bin/sh", []string{"sh", "-c", "sleep 30"}, &os.ProcAttr{
		Files: []*os.File{nil, nil, nil},
		Sys:   &syscall.SysProcAttr{Setsid: true},
	})
	if err != nil {
		t.Skipf("cannot start /bin/sh: %v", err)
	}
	defer proc.Kill()

	if err := os.WriteFile(pidFile, []byte(strconv.Itoa(proc.Pid)+"\n"), 0644); err != nil {
		t.Fatalf("failed to write PID file: %v", err)
	}

	if err := StopDaemon(pidFile); err != nil {
		t.Fatalf("StopDaemon() error = %v, want nil", err)
	}

	done := make(chan struct{})
	go func() {
		proc.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Error("process still running after StopDaemon()")
	}
}

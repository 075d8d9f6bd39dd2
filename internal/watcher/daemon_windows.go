package watcher

import "errors"

var errNoDaemon = errors.New("daemon mode is not supported on windows; run 'modman watch' in the foreground")

func (w *Watcher) StartDaemon(pidFile, logFile string, extra ...string) error { return errNoDaemon }

func (w *Watcher) RunDaemon(pidFile string) error { return errNoDaemon }

func StopDaemon(pidFile string) error { return errNoDaemon }

func IsDaemonRunning(pidFile string) (bool, error) { return false, nil }

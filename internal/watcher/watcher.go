package watcher

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/fsnotify/fsnotify"

	"github.com/blackwell-systems/modman/internal/store"
)

// Watcher prunes index rows for mod folders removed outside modman.
type Watcher struct {
	store    *store.Store
	modsPath string
	logger   *slog.Logger

	fsw      *fsnotify.Watcher
	stopCh   chan struct{}
	stopOnce sync.Once
	wg       sync.WaitGroup
}

// New creates a new Watcher instance for modsPath.
func New(st *store.Store, modsPath string, logger *slog.Logger) (*Watcher, error) {
	if st == nil {
		return nil, fmt.Errorf("store cannot be nil")
	}
	if modsPath == "" {
		return nil, fmt.Errorf("mods path cannot be empty")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Watcher{
		store:    st,
		modsPath: filepath.Clean(modsPath),
		logger:   logger.With("component", "watcher"),
		stopCh:   make(chan struct{}),
	}, nil
}

// Start reconciles the index once and then watches the mods folder until
// Stop is called.
func (w *Watcher) Start() error {
	if _, err := w.Reconcile(); err != nil {
		w.logger.Warn("initial reconcile failed", "error", err)
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create fsnotify watcher: %w", err)
	}
	if err := fsw.Add(w.modsPath); err != nil {
		fsw.Close()
		return fmt.Errorf("failed to watch %s: %w", w.modsPath, err)
	}

	entries, err := os.ReadDir(w.modsPath)
	if err != nil {
		fsw.Close()
		return fmt.Errorf("failed to read %s: %w", w.modsPath, err)
	}
	for _, e := range entries {
		if e.IsDir() && isAppDir(e.Name()) {
			if err := fsw.Add(filepath.Join(w.modsPath, e.Name())); err != nil {
				w.logger.Warn("failed to watch app folder", "app", e.Name(), "error", err)
			}
		}
	}

	w.fsw = fsw
	w.wg.Add(1)
	go w.run()

	w.logger.Info("watching mods folder", "path", w.modsPath)
	return nil
}

// Stop halts the watcher. It is safe to call before Start and more than once.
func (w *Watcher) Stop() error {
	var err error
	w.stopOnce.Do(func() {
		close(w.stopCh)
		if w.fsw != nil {
			err = w.fsw.Close()
		}
		w.wg.Wait()
	})
	return err
}

// Reconcile drops index rows whose install folder no longer exists and
// returns how many were removed.
func (w *Watcher) Reconcile() (int, error) {
	mods, err := w.store.ListMods(0)
	if err != nil {
		return 0, err
	}

	removed := 0
	for _, m := range mods {
		if _, err := os.Stat(m.InstallPath); !errors.Is(err, os.ErrNotExist) {
			continue
		}
		ok, err := w.store.DeleteModByPath(m.InstallPath)
		if err != nil {
			return removed, err
		}
		if ok {
			removed++
			w.logger.Info("pruned missing mod", "app_id", m.AppID, "identifier", m.Identifier)
		}
	}
	return removed, nil
}

func (w *Watcher) run() {
	defer w.wg.Done()

	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			w.logger.Warn("fsnotify error", "error", err)
		case <-w.stopCh:
			return
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	path := filepath.Clean(ev.Name)
	parent := filepath.Dir(path)

	switch {
	case ev.Has(fsnotify.Create) && parent == w.modsPath:
		// A new app folder; watch it so its mod folders are tracked.
		if info, err := os.Stat(path); err == nil && info.IsDir() && isAppDir(filepath.Base(path)) {
			if err := w.fsw.Add(path); err != nil {
				w.logger.Warn("failed to watch app folder", "path", path, "error", err)
			}
		}

	case ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename):
		if parent == w.modsPath {
			// The whole app folder went away.
			if _, err := w.Reconcile(); err != nil {
				w.logger.Warn("reconcile failed", "error", err)
			}
			return
		}
		if filepath.Dir(parent) != w.modsPath {
			return
		}
		ok, err := w.store.DeleteModByPath(path)
		if err != nil {
			w.logger.Warn("failed to prune mod", "path", path, "error", err)
			return
		}
		if ok {
			w.logger.Info("pruned removed mod", "path", path)
		}
	}
}

func isAppDir(name string) bool {
	_, err := strconv.ParseUint(name, 10, 32)
	return err == nil
}

package watcher

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/blackwell-systems/modman/internal/store"
)

func indexMod(t *testing.T, st *store.Store, appID uint32, id, path string) {
	t.Helper()
	if err := os.MkdirAll(path, 0o755); err != nil {
		t.Fatalf("mkdir %s: %v", path, err)
	}
	err := st.UpsertMod(&store.InstalledMod{
		AppID:       appID,
		Identifier:  id,
		InstallPath: path,
		InstalledAt: time.Now(),
	})
	if err != nil {
		t.Fatalf("UpsertMod(%s): %v", id, err)
	}
}

// waitGone polls until the row for (appID, id) disappears.
func waitGone(t *testing.T, st *store.Store, appID uint32, id string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if _, err := st.GetMod(appID, id); errors.Is(err, store.ErrNotFound) {
			return
		}
		time.Sleep(20 * time.Millisecond)
	}
	t.Fatalf("index row %d/%s was not pruned", appID, id)
}

func TestNew_Validation(t *testing.T) {
	if _, err := New(nil, "/tmp", nil); err == nil {
		t.Error("New(nil store) expected error")
	}
	if _, err := New(setupTestStore(t), "", nil); err == nil {
		t.Error("New(empty path) expected error")
	}
}

func TestReconcile(t *testing.T) {
	st := setupTestStore(t)
	mods := t.TempDir()
	keep := filepath.Join(mods, "480", "keep")
	gone := filepath.Join(mods, "480", "gone")
	indexMod(t, st, 480, "keep", keep)
	indexMod(t, st, 480, "gone", gone)
	if err := os.RemoveAll(gone); err != nil {
		t.Fatal(err)
	}

	w, err := New(st, mods, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	removed, err := w.Reconcile()
	if err != nil {
		t.Fatalf("Reconcile() error = %v", err)
	}
	if removed != 1 {
		t.Errorf("Reconcile() removed %d rows, want 1", removed)
	}
	if _, err := st.GetMod(480, "keep"); err != nil {
		t.Errorf("kept mod lost: %v", err)
	}
}

func TestWatcher_PrunesRemovedModFolder(t *testing.T) {
	st := setupTestStore(t)
	mods := t.TempDir()
	path := filepath.Join(mods, "480", "cool-mod")
	indexMod(t, st, 480, "cool-mod", path)
	indexMod(t, st, 480, "other", filepath.Join(mods, "480", "other"))

	w, err := New(st, mods, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := os.RemoveAll(path); err != nil {
		t.Fatal(err)
	}
	waitGone(t, st, 480, "cool-mod")

	if _, err := st.GetMod(480, "other"); err != nil {
		t.Errorf("unrelated mod was pruned: %v", err)
	}
}

func TestWatcher_TracksNewAppFolder(t *testing.T) {
	st := setupTestStore(t)
	mods := t.TempDir()

	w, err := New(st, mods, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	appDir := filepath.Join(mods, "570")
	if err := os.Mkdir(appDir, 0o755); err != nil {
		t.Fatal(err)
	}

	deadline := time.Now().Add(5 * time.Second)
	for !watching(w, appDir) {
		if time.Now().After(deadline) {
			t.Fatal("new app folder was never watched")
		}
		time.Sleep(20 * time.Millisecond)
	}

	path := filepath.Join(appDir, "late-mod")
	indexMod(t, st, 570, "late-mod", path)
	if err := os.RemoveAll(path); err != nil {
		t.Fatal(err)
	}
	waitGone(t, st, 570, "late-mod")
}

func TestWatcher_AppFolderRemoved(t *testing.T) {
	st := setupTestStore(t)
	mods := t.TempDir()
	indexMod(t, st, 480, "a", filepath.Join(mods, "480", "a"))
	indexMod(t, st, 480, "b", filepath.Join(mods, "480", "b"))

	w, err := New(st, mods, nil)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := w.Start(); err != nil {
		t.Fatalf("Start() error = %v", err)
	}
	defer w.Stop()

	if err := os.RemoveAll(filepath.Join(mods, "480")); err != nil {
		t.Fatal(err)
	}
	waitGone(t, st, 480, "a")
	waitGone(t, st, 480, "b")
}

func TestIsAppDir(t *testing.T) {
	tests := map[string]bool{
		"480":        true,
		"4294967295": true,
		"4294967296": false,
		"-1":         false,
		"mods":       false,
		"":           false,
	}
	for name, want := range tests {
		if got := isAppDir(name); got != want {
			t.Errorf("isAppDir(%q) = %v, want %v", name, got, want)
		}
	}
}

func watching(w *Watcher, path string) bool {
	for _, p := range w.fsw.WatchList() {
		if p == path {
			return true
		}
	}
	return false
}

// Package watcher keeps the install index in step with the mods folder.
//
// Mods are installed to <mods>/<app id>/<identifier>. When a user deletes a
// mod folder by hand, the index row for it goes stale. The Watcher
// subscribes to filesystem events for the mods folder and every app folder
// under it, and drops the index row when its folder disappears. On start it
// also reconciles rows whose folders vanished while nothing was watching.
//
// Example usage:
//
//	st, err := store.Open(dbPath)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer st.Close()
//
//	w, err := watcher.New(st, "/home/user/mods", slog.Default())
//	if err != nil {
//		log.Fatal(err)
//	}
//
//	// Start watching in foreground
//	if err := w.Start(); err != nil {
//		log.Fatal(err)
//	}
//	defer w.Stop()
//
//	// Or start as daemon
//	if err := w.StartDaemon("/tmp/modman.pid", "/tmp/modman.log"); err != nil {
//		log.Fatal(err)
//	}
package watcher

package store

import "time"

// InstalledMod is the index row for a mod folder created by an install.
type InstalledMod struct {
	AppID       uint32
	Identifier  string
	Title       string
	PackFile    string
	Version     string
	InstallPath string
	InstalledAt time.Time
}

// Operation is the audit row for one workshop request.
type Operation struct {
	RequestID  string
	Kind       string
	AppID      uint32
	ItemID     uint64
	Outcome    string
	Error      string
	Pumps      int
	ElapsedMS  int64
	FinishedAt time.Time
}

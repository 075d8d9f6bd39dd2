//go:build windows

package pathguard

import "strings"

var protectedPrefixes = []string{
	`C:\Windows`,
	`C:\Program Files`,
	`C:\Program Files (x86)`,
	`C:\ProgramData`,
	`C:\System Volume Information`,
	`C:\$Recycle.Bin`,
	`C:\Recovery`,
	`C:\Boot`,
	`C:\Users\Default`,
	`C:\Users\Public`,
}

// NTFS paths are case-insensitive.
func hasPrefix(path, prefix string) bool {
	return len(path) >= len(prefix) && strings.EqualFold(path[:len(prefix)], prefix)
}

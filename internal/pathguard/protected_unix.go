//go:build !windows

package pathguard

import "strings"

var protectedPrefixes = []string{
	"/bin",
	"/boot",
	"/dev",
	"/etc",
	"/lib",
	"/proc",
	"/root",
	"/run/dbus",
	"/run/lock",
	"/run/systemd",
	"/run/udev",
	"/sbin",
	"/sys",
	"/usr",
	// /var/folders (darwin temp) and /var/tmp stay writable.
	"/var/cache",
	"/var/db",
	"/var/lib",
	"/var/log",
	"/var/mail",
	"/var/root",
	"/var/run",
	"/var/spool",
	"/Applications",
	"/Library",
	"/System",
	"/private/etc",
	"/private/var/db",
	"/private/var/log",
	"/private/var/root",
}

func hasPrefix(path, prefix string) bool {
	return strings.HasPrefix(path, prefix)
}

// Package output renders modman's terminal output: tables of installed mods
// and workshop operations, a batch progress bar, and a spinner for pending
// workshop requests. Color is only emitted on a terminal without NO_COLOR.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mattn/go-isatty"

	"github.com/blackwell-systems/modman/internal/store"
)

const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

func colorize(color, text string) string {
	if IsColorEnabled() {
		return color + text + colorReset
	}
	return text
}

// RenderModTable renders installed mods. Rows keep the store's order.
func RenderModTable(mods []*store.InstalledMod) string {
	if len(mods) == 0 {
		return "No mods installed.\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-10s %-24s %-28s %-10s %-14s\n", "App", "Identifier", "Title", "Version", "Installed")
	sb.WriteString(strings.Repeat("─", 90))
	sb.WriteString("\n")

	for _, m := range mods {
		version := m.Version
		if version == "" {
			version = "-"
		}
		fmt.Fprintf(&sb, "%-10d %-24s %-28s %-10s %-14s\n",
			m.AppID,
			truncate(m.Identifier, 24),
			truncate(m.Title, 28),
			truncate(version, 10),
			formatRelativeTime(m.InstalledAt))
	}

	return sb.String()
}

// RenderOperationTable renders the workshop operation log.
func RenderOperationTable(ops []*store.Operation) string {
	if len(ops) == 0 {
		return "No workshop operations recorded.\n"
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "%-14s %-10s %-20s %-16s %-8s %s\n", "When", "App", "Item", "Outcome", "Took", "Error")
	sb.WriteString(strings.Repeat("─", 90))
	sb.WriteString("\n")

	for _, op := range ops {
		// Pad before coloring so escape codes don't break alignment.
		outcome := colorize(outcomeColor(op.Outcome), fmt.Sprintf("%-16s", op.Outcome))
		fmt.Fprintf(&sb, "%-14s %-10d %-20d %s %-8s %s\n",
			formatRelativeTime(op.FinishedAt),
			op.AppID,
			op.ItemID,
			outcome,
			formatElapsed(time.Duration(op.ElapsedMS)*time.Millisecond),
			truncate(op.Error, 40))
	}

	return sb.String()
}

func outcomeColor(outcome string) string {
	switch outcome {
	case "success":
		return colorGreen
	case "timeout", "cancelled":
		return colorYellow
	case "external_error", "task_failure":
		return colorRed
	default:
		return colorGray
	}
}

// formatElapsed rounds d for display: milliseconds below a second, tenths of
// a second above.
func formatElapsed(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	return fmt.Sprintf("%.1fs", d.Seconds())
}

// formatRelativeTime converts a timestamp to relative time (e.g., "2 days ago").
func formatRelativeTime(t time.Time) string {
	if t.IsZero() {
		return "never"
	}

	diff := time.Since(t)
	unit := func(n int, name string) string {
		if n == 1 {
			return "1 " + name + " ago"
		}
		return fmt.Sprintf("%d %ss ago", n, name)
	}

	switch {
	case diff < time.Minute:
		return "just now"
	case diff < time.Hour:
		return unit(int(diff.Minutes()), "minute")
	case diff < 24*time.Hour:
		return unit(int(diff.Hours()), "hour")
	case diff < 7*24*time.Hour:
		return unit(int(diff.Hours()/24), "day")
	case diff < 30*24*time.Hour:
		return unit(int(diff.Hours()/24/7), "week")
	case diff < 365*24*time.Hour:
		return unit(int(diff.Hours()/24/30), "month")
	default:
		return unit(int(diff.Hours()/24/365), "year")
	}
}

// truncate truncates a string to maxLen, adding "..." if truncated.
func truncate(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	if maxLen <= 3 {
		return s[:maxLen]
	}
	return s[:maxLen-3] + "..."
}

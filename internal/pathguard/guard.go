// Package pathguard validates mod installation targets before anything is
// written to disk.
//
// A target is acceptable when it does not start with any protected system
// prefix and its trailing path segments are exactly <app_id>/<item_id>. The
// protected check is a textual prefix test on the path as given; it does not
// resolve symlinks. Callers that join user-supplied segments should also call
// Contains to rule out lexical escapes from the chosen base directory.
package pathguard

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/blackwell-systems/modman/internal/apperr"
)

const op = "validate install path"

// Validate checks candidate against the protected prefix list and the
// expected <appID>/<itemID> suffix. The protected check runs first so a path
// under a protected root is always reported as forbidden.
func Validate(candidate string, appID uint32, itemID string) error {
	if prefix, ok := matchProtected(candidate); ok {
		return apperr.Newf(apperr.ForbiddenPath, op, "access to protected path '%s' is forbidden", prefix)
	}

	if !validSegment(itemID) {
		return apperr.Newf(apperr.StructureMismatch, op, "invalid item id %q", itemID)
	}

	// The base must be a directory below the filesystem root on every
	// platform, so a volume name like C: does not count as a segment.
	segs := splitSegments(candidate[len(filepath.VolumeName(candidate)):])
	if len(segs) < 3 {
		return apperr.Newf(apperr.StructureMismatch, op, "path does not match expected folder structure: %s", candidate)
	}

	n := len(segs)
	if segs[n-2] != strconv.FormatUint(uint64(appID), 10) || segs[n-1] != itemID {
		return apperr.Newf(apperr.StructureMismatch, op, "path does not match expected folder structure: %s", candidate)
	}

	return nil
}

// Contains reports an error unless target is a strict descendant of base.
// Both paths are cleaned lexically; symlinks are not followed.
func Contains(base, target string) error {
	base = filepath.Clean(strings.TrimSpace(base))
	target = filepath.Clean(strings.TrimSpace(target))
	if base == "." || target == "." {
		return apperr.New(apperr.StructureMismatch, op, "empty path")
	}

	rel, err := filepath.Rel(base, target)
	if err != nil {
		return apperr.Wrap(apperr.StructureMismatch, op, "target is not under base "+base, err)
	}
	if rel == "." || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return apperr.Newf(apperr.StructureMismatch, op, "path %s escapes base %s", target, base)
	}
	return nil
}

// ProtectedPrefixes returns a copy of the static protected prefix list for
// the current platform.
func ProtectedPrefixes() []string {
	out := make([]string, len(protectedPrefixes))
	copy(out, protectedPrefixes)
	return out
}

func matchProtected(path string) (string, bool) {
	for _, prefix := range protectedPrefixes {
		if hasPrefix(path, prefix) {
			return prefix, true
		}
	}
	return "", false
}

// validSegment rejects item ids that would change the number of segments in
// the joined path or step out of it.
func validSegment(s string) bool {
	if s == "" || s == "." || s == ".." {
		return false
	}
	return !strings.ContainsAny(s, `/\`)
}

// splitSegments splits on the platform separator, dropping empty segments so
// a trailing separator does not produce a bogus final segment.
func splitSegments(path string) []string {
	parts := strings.Split(path, string(filepath.Separator))
	segs := parts[:0]
	for _, p := range parts {
		if p != "" {
			segs = append(segs, p)
		}
	}
	return segs
}

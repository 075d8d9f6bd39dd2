package pathguard

import (
	"path/filepath"
	"strconv"
)

// Target is the folder a mod is installed into: <BasePath>/<AppID>/<ItemID>.
type Target struct {
	BasePath string
	AppID    uint32
	ItemID   string
}

// ResolvedPath joins the target's segments with the platform separator.
func (t Target) ResolvedPath() string {
	return filepath.Join(t.BasePath, strconv.FormatUint(uint64(t.AppID), 10), t.ItemID)
}

// Check validates the resolved path: no protected prefix, exact
// <AppID>/<ItemID> suffix, and strictly inside BasePath.
func (t Target) Check() (string, error) {
	resolved := t.ResolvedPath()
	if err := Validate(resolved, t.AppID, t.ItemID); err != nil {
		return "", err
	}
	if err := Contains(t.BasePath, resolved); err != nil {
		return "", err
	}
	return resolved, nil
}

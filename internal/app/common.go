package app

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/modman/internal/apperr"
	"github.com/blackwell-systems/modman/internal/store"
	"github.com/blackwell-systems/modman/internal/workshop"
)

// clientFactory builds the workshop client for an app. Builds without a
// workshop SDK binding report the service as unavailable.
var clientFactory workshop.Factory = func(appID uint32) (workshop.Client, error) {
	return nil, fmt.Errorf("no workshop backend linked into this build")
}

// SetClientFactory installs the workshop SDK binding used by unsubscribe.
// It must be called before Execute.
func SetClientFactory(f workshop.Factory) {
	clientFactory = f
}

// commandContext returns a context cancelled on SIGINT or SIGTERM.
func commandContext(cmd *cobra.Command) (context.Context, context.CancelFunc) {
	parent := context.Background()
	if cmd != nil && cmd.Context() != nil {
		parent = cmd.Context()
	}
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func openStore() (*store.Store, error) {
	path, err := getDBPath()
	if err != nil {
		return nil, err
	}
	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	return st, nil
}

// modsBase resolves the install base: an explicit path must already exist,
// the configured default is created on demand.
func modsBase(explicit string) (string, error) {
	if explicit != "" {
		abs, err := filepath.Abs(explicit)
		if err != nil {
			return "", apperr.Wrap(apperr.InvalidInput, "install", "invalid mods path", err)
		}
		return abs, nil
	}
	c, err := currentConfig()
	if err != nil {
		return "", err
	}
	return c.EnsureModsDir()
}

// DescribeError formats err for the terminal, adding a hint for the error
// kinds a user can act on.
func DescribeError(err error) string {
	switch apperr.KindOf(err) {
	case apperr.ForbiddenPath:
		return err.Error() + "\n  Choose a mods folder outside system directories (see 'modman doctor')."
	case apperr.ExternalServiceUnavailable:
		return err.Error() + "\n  Make sure the game client is running and you are signed in."
	case apperr.Timeout:
		return err.Error() + "\n  The workshop did not answer in time; try again later."
	default:
		return err.Error()
	}
}

package app

import (
	"fmt"
	"log/slog"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/modman/internal/apperr"
	"github.com/blackwell-systems/modman/internal/output"
	"github.com/blackwell-systems/modman/internal/workshop"
)

var (
	unsubscribeApp uint32

	unsubscribeCmd = &cobra.Command{
		Use:   "unsubscribe <item-id>",
		Short: "Remove a workshop subscription",
		Long: `Ask the workshop service to drop the current user's subscription to an item.

The request waits for the service to answer, up to unsubscribe_timeout from the
config (30s by default). Unsubscribing from an item you are not subscribed to
is reported as a success. Every request is recorded in the operation log; see
'modman list --operations'.`,
		Example: `  modman unsubscribe --app 480 123456789`,
		Args:    cobra.ExactArgs(1),
		RunE:    runUnsubscribe,
	}
)

func init() {
	unsubscribeCmd.Flags().Uint32Var(&unsubscribeApp, "app", 0, "app id of the game (required)")
}

func runUnsubscribe(cmd *cobra.Command, args []string) error {
	if unsubscribeApp == 0 {
		return apperr.New(apperr.InvalidInput, "unsubscribe", "--app is required")
	}
	itemID, err := strconv.ParseUint(args[0], 10, 64)
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, "unsubscribe", fmt.Sprintf("invalid item id %q", args[0]), err)
	}

	c, err := currentConfig()
	if err != nil {
		return err
	}

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	logger := slog.Default()
	registry := workshop.NewRegistry(clientFactory, logger)
	defer registry.Close()

	bridge := workshop.NewBridge(registry, logger)
	bridge.Timeout = c.UnsubscribeTimeout
	bridge.PollInterval = c.PollInterval

	u := workshop.NewUnsubscriber(registry, bridge, st, logger)

	out := cmd.OutOrStdout()
	spinner := output.NewSpinner(fmt.Sprintf("Unsubscribing from %d", itemID)).WithTimeout(c.UnsubscribeTimeout)
	spinner.SetWriter(out)
	spinner.Start()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	ok, err := u.Unsubscribe(ctx, unsubscribeApp, itemID)
	if err != nil {
		spinner.StopWithMessage(fmt.Sprintf("✗ Could not unsubscribe from %d", itemID))
		return err
	}
	if ok {
		spinner.StopWithMessage(fmt.Sprintf("✓ Unsubscribed from %d", itemID))
	}
	return nil
}

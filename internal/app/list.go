package app

import (
	"fmt"
	"io"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/blackwell-systems/modman/internal/install"
	"github.com/blackwell-systems/modman/internal/output"
	"github.com/blackwell-systems/modman/internal/store"
)

var (
	listApp        uint32
	listOperations bool
	listLimit      int
	listVerbose    bool

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List installed mods or recent workshop operations",
		Long: `List the mods recorded in the install index, optionally for one app.

With --verbose, each mod's meta.json is read back from its folder and the
optional details (description, version, links) are printed below the table.
With --operations, the workshop operation log is shown instead.`,
		Example: `  modman list
  modman list --app 480 --verbose
  modman list --operations --limit 20`,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().Uint32Var(&listApp, "app", 0, "only show mods for this app id")
	listCmd.Flags().BoolVar(&listOperations, "operations", false, "show the workshop operation log")
	listCmd.Flags().IntVar(&listLimit, "limit", 50, "maximum operations to show")
	listCmd.Flags().BoolVarP(&listVerbose, "verbose", "v", false, "show details from each mod's meta.json")
}

func runList(cmd *cobra.Command, args []string) error {
	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	out := cmd.OutOrStdout()

	if listOperations {
		ops, err := st.ListOperations(listLimit)
		if err != nil {
			return fmt.Errorf("failed to list operations: %w", err)
		}
		fmt.Fprint(out, output.RenderOperationTable(ops))
		return nil
	}

	mods, err := st.ListMods(listApp)
	if err != nil {
		return fmt.Errorf("failed to list mods: %w", err)
	}
	fmt.Fprint(out, output.RenderModTable(mods))

	if listVerbose && len(mods) > 0 {
		fmt.Fprintln(out)
		printModDetails(out, afero.NewOsFs(), mods)
	}
	return nil
}

func printModDetails(w io.Writer, fs afero.Fs, mods []*store.InstalledMod) {
	for _, m := range mods {
		fmt.Fprintf(w, "%s (%d)\n", m.Identifier, m.AppID)
		fmt.Fprintf(w, "  Folder:      %s\n", m.InstallPath)

		rec, err := install.ReadRecord(fs, m.InstallPath)
		if err != nil {
			fmt.Fprintf(w, "  ⚠ %v\n", err)
			continue
		}
		fields := []struct {
			label string
			value *string
		}{
			{"Description", rec.Description},
			{"Categories", rec.Categories},
			{"URL", rec.URL},
			{"Preview", rec.PreviewURL},
			{"Downloaded", rec.DownloadedURL},
		}
		fmt.Fprintf(w, "  Pack file:   %s\n", rec.PackFile)
		for _, f := range fields {
			if f.value != nil && *f.value != "" {
				fmt.Fprintf(w, "  %-12s %s\n", f.label+":", *f.value)
			}
		}
	}
}

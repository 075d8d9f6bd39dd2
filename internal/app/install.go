package app

import (
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/blackwell-systems/modman/internal/apperr"
	"github.com/blackwell-systems/modman/internal/install"
	"github.com/blackwell-systems/modman/internal/output"
)

var (
	installApp           uint32
	installID            string
	installTitle         string
	installArchive       string
	installPack          string
	installPath          string
	installVersion       string
	installDescription   string
	installCategories    string
	installURL           string
	installPreviewURL    string
	installDownloadedURL string
	installManifest      string
	installJobs          int

	installCmd = &cobra.Command{
		Use:   "install",
		Short: "Install a mod archive into the mods folder",
		Long: `Extract a pack file from a mod archive into <mods>/<app id>/<identifier>.

A meta.json describing the mod is written before extraction. If extraction
fails the folder and its meta.json are left in place; installing again
overwrites both.

The target folder is rejected when the mods folder lies under a protected
system directory, or when the identifier would escape the app folder.

With --manifest, every mod listed in the YAML file is installed. Each entry
is checked on its own, so one bad entry does not stop the rest.`,
		Example: `  # Install a single mod
  modman install --app 480 --id cool-mod --title "Cool Mod" \
    --archive ~/Downloads/cool-mod.zip --pack data/cool_mod.pack --version 1.2.0

  # Install into a custom mods folder
  modman install --app 480 --id cool-mod --title "Cool Mod" \
    --archive cool-mod.zip --pack cool_mod.pack --path /games/mods

  # Install a batch
  modman install --app 480 --manifest mods.yaml --jobs 4`,
		RunE: runInstall,
	}
)

func init() {
	f := installCmd.Flags()
	f.Uint32Var(&installApp, "app", 0, "app id of the game (required)")
	f.StringVar(&installID, "id", "", "mod identifier, used as the folder name")
	f.StringVar(&installTitle, "title", "", "mod title")
	f.StringVar(&installArchive, "archive", "", "path to the downloaded archive")
	f.StringVar(&installPack, "pack", "", "path of the pack file inside the archive")
	f.StringVar(&installPath, "path", "", "mods folder (default: mods_path from config)")
	f.StringVar(&installVersion, "version", "", "mod version")
	f.StringVar(&installDescription, "description", "", "mod description")
	f.StringVar(&installCategories, "categories", "", "mod categories")
	f.StringVar(&installURL, "url", "", "mod page URL")
	f.StringVar(&installPreviewURL, "preview-url", "", "preview image URL")
	f.StringVar(&installDownloadedURL, "downloaded-url", "", "URL the archive was downloaded from")
	f.StringVar(&installManifest, "manifest", "", "YAML file listing mods to install")
	f.IntVar(&installJobs, "jobs", 0, "concurrent installs with --manifest (default: install_jobs from config)")
}

func runInstall(cmd *cobra.Command, args []string) error {
	if installApp == 0 {
		return apperr.New(apperr.InvalidInput, "install", "--app is required")
	}

	c, err := currentConfig()
	if err != nil {
		return err
	}

	base, err := modsBase(installPath)
	if err != nil {
		return err
	}

	tool, err := install.LocateSevenZip(c.SevenZipPath)
	if err != nil {
		return err
	}
	slog.Debug("using 7-Zip", "path", tool)

	st, err := openStore()
	if err != nil {
		return err
	}
	defer st.Close()

	in := install.New(install.SevenZip{Path: tool}, st, slog.Default())

	if installManifest != "" {
		jobs := installJobs
		if jobs <= 0 {
			jobs = c.InstallJobs
		}
		return runInstallBatch(cmd, in, base, jobs)
	}

	details, err := installDetailsFromFlags(cmd)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	spinner := output.NewSpinner(fmt.Sprintf("Installing %s", details.Title))
	spinner.SetWriter(out)
	spinner.Start()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	res, err := in.Install(ctx, installApp, details, base)
	if err != nil {
		spinner.StopWithMessage(fmt.Sprintf("✗ Failed to install %s", details.Title))
		return err
	}
	spinner.StopWithMessage(fmt.Sprintf("✓ Installed %s", details.Title))
	fmt.Fprintf(out, "  Folder:    %s\n", res.Target)
	fmt.Fprintf(out, "  Pack file: %s\n", res.Record.PackFile)
	return nil
}

func runInstallBatch(cmd *cobra.Command, in *install.Installer, base string, jobs int) error {
	manifest, err := install.LoadManifest(installManifest)
	if err != nil {
		return apperr.Wrap(apperr.InvalidInput, "install", "cannot load manifest", err)
	}
	if len(manifest.Mods) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "Manifest lists no mods.")
		return nil
	}

	out := cmd.OutOrStdout()
	bar := output.NewProgress(len(manifest.Mods), "Installing")
	bar.SetWriter(out)
	in.OnBatchItem = func(id string, err error) {
		if err != nil {
			bar.Step("✗ " + id)
			return
		}
		bar.Step(id)
	}

	ctx, cancel := commandContext(cmd)
	defer cancel()

	results, err := in.InstallBatch(ctx, installApp, manifest.Mods, base, jobs)
	bar.Finish()

	installed := 0
	for _, r := range results {
		if r != nil {
			installed++
		}
	}
	fmt.Fprintf(out, "\n%d of %d mods installed into %s\n", installed, len(manifest.Mods), base)
	return err
}

// installDetailsFromFlags builds ModDetails from the single-install flags.
// Optional fields are set only when their flag was given.
func installDetailsFromFlags(cmd *cobra.Command) (install.ModDetails, error) {
	var missing []string
	for _, name := range []string{"id", "title", "archive", "pack"} {
		if !cmd.Flags().Changed(name) {
			missing = append(missing, "--"+name)
		}
	}
	if len(missing) > 0 {
		return install.ModDetails{}, apperr.Newf(apperr.InvalidInput, "install",
			"missing %s (or use --manifest)", strings.Join(missing, ", "))
	}

	details := install.ModDetails{
		Identifier:   installID,
		Title:        installTitle,
		ZipFilePath:  installArchive,
		PackFilePath: installPack,
	}
	optional := []struct {
		flag string
		dst  **string
		val  string
	}{
		{"version", &details.Version, installVersion},
		{"description", &details.Description, installDescription},
		{"categories", &details.Categories, installCategories},
		{"url", &details.URL, installURL},
		{"preview-url", &details.PreviewURL, installPreviewURL},
		{"downloaded-url", &details.DownloadedURL, installDownloadedURL},
	}
	for _, o := range optional {
		if cmd.Flags().Changed(o.flag) {
			*o.dst = install.StringPtr(o.val)
		}
	}
	return details, nil
}

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/zonbuild/zonbuild/pkg/bundle"
	"github.com/zonbuild/zonbuild/pkg/config"
	"github.com/zonbuild/zonbuild/pkg/fetch"
	"github.com/zonbuild/zonbuild/pkg/render"
	"github.com/zonbuild/zonbuild/pkg/resolver"
	"github.com/zonbuild/zonbuild/pkg/service"
	"github.com/zonbuild/zonbuild/pkg/store"
	"github.com/zonbuild/zonbuild/pkg/zon"
)

var flagOutput string

func newGenerateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "generate [dir]",
		Short: "Generate an ebuild from a build.zig.zon manifest",
		Long: `Resolves the full dependency closure of the project's build.zig.zon,
rewrites git references to hosting-service snapshot archives where possible,
and writes an ebuild recipe. Dependencies that cannot be rewritten are packed
into a bundle archive that must be hosted manually.`,
		Args: cobra.MaximumNArgs(1),
		RunE: runGenerate,
	}
	cmd.Flags().StringVarP(&flagOutput, "output", "o", ".", "directory to write the ebuild and bundle into")
	return cmd
}

func runGenerate(cmd *cobra.Command, args []string) error {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}

	manifest, err := zon.Load(dir)
	if err != nil {
		return err
	}
	if manifest.Name == "" {
		return fmt.Errorf("%s: manifest has no name", filepath.Join(dir, zon.FileName))
	}

	cfg, err := config.LoadDir(dir)
	if err != nil {
		return err
	}

	s, err := openStore()
	if err != nil {
		return err
	}

	services := service.Builtin()
	if DevCfg.Services != "" {
		extra, err := service.LoadFile(DevCfg.Services)
		if err != nil {
			return err
		}
		services = append(services, extra...)
	}
	table := service.NewTable(services, Logger.With("scope", "services"))

	strategy, err := fetch.ParseStrategy(DevCfg.Strategy)
	if err != nil {
		return err
	}

	res, err := (&resolver.Resolver{
		Store: s,
		Fetcher: &fetch.ZigFetcher{
			Store:    s,
			Strategy: strategy,
			Logger:   Logger.With("scope", "fetch"),
		},
		Services: table,
		Logger:   Logger.With("scope", "resolve"),
	}).Resolve(cmd.Context(), dir, manifest)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(flagOutput, 0o755); err != nil {
		return err
	}

	in := render.Input{
		Name:         manifest.Name,
		Version:      manifest.Version,
		Description:  cfg.Recipe.Description,
		Homepage:     cfg.Recipe.Homepage,
		License:      cfg.Recipe.License,
		Maintainer:   cfg.Recipe.Maintainer,
		SourceURI:    cfg.Recipe.SourceURI,
		ManifestFile: zon.FileName,
		Packages:     res.Packages,
	}

	// The bundle is a distfile to host elsewhere, so it stays at the
	// output root rather than inside the overlay tree.
	var bundlePath string
	if len(res.GitRefs) > 0 {
		in.BundleName = render.BundleName(manifest.Name, manifest.Version)
		bundlePath = filepath.Join(flagOutput, in.BundleName)
		if err := writeBundle(bundlePath, s, res); err != nil {
			return err
		}
	}

	// Overlay layout: <category>/<name>/<name>-<version>.ebuild.
	recipeDir := filepath.Join(flagOutput, cfg.Recipe.Category, manifest.Name)
	if err := os.MkdirAll(recipeDir, 0o755); err != nil {
		return err
	}
	ebuildPath := filepath.Join(recipeDir, render.FileName(manifest.Name, manifest.Version))
	f, err := os.Create(ebuildPath)
	if err != nil {
		return err
	}
	if err := render.Ebuild(f, in); err != nil {
		f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d packages)\n", ebuildPath, len(res.Packages))
	if bundlePath != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%d git dependencies)\n", bundlePath, len(res.GitRefs))
		fmt.Fprintf(cmd.OutOrStdout(), "Host the bundle somewhere fetchable and add its URI to SRC_URI before committing the ebuild.\n")
	}
	return nil
}

// openStore picks the store root from flags and dev config, falling back to
// the user cache directory.
func openStore() (store.Store, error) {
	if DevCfg.Store != "" {
		return store.New(DevCfg.Store), nil
	}
	return store.Default()
}

func writeBundle(path string, s store.Store, res *resolver.Resolution) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	packer := &bundle.Packer{Store: s, Logger: Logger.With("scope", "bundle")}
	if err := packer.Pack(f, res.GitRefs); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

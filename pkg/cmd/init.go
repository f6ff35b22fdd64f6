package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/zonbuild/zonbuild/pkg/config"
	"github.com/zonbuild/zonbuild/pkg/zon"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create a zonbuild.toml recipe config",
		Long:  "Prompts for recipe metadata and writes a zonbuild.toml next to the project's build.zig.zon.",
		RunE:  runInit,
		// init does not need dev config resolution; skip the root PersistentPreRunE.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
	}
}

func runInit(cmd *cobra.Command, args []string) error {
	wd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("getting working directory: %w", err)
	}

	// A recipe config without a manifest is useless; insist on one.
	if _, err := zon.Load(wd); err != nil {
		return err
	}

	cfg := config.Default()
	if err := promptRecipe(cfg); err != nil {
		return err
	}

	path := filepath.Join(wd, config.FileName)
	if err := config.SaveFile(path, cfg); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "Created %s\n", config.FileName)
	return nil
}

// promptRecipe uses huh to fill in the recipe metadata, pre-populated with
// the defaults.
func promptRecipe(cfg *config.Config) error {
	err := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Package category").
				Description("Gentoo category the ebuild belongs to").
				Value(&cfg.Recipe.Category),
			huh.NewInput().
				Title("License").
				Description("Gentoo license identifier").
				Value(&cfg.Recipe.License),
			huh.NewInput().
				Title("Description").
				Value(&cfg.Recipe.Description),
			huh.NewInput().
				Title("Homepage").
				Value(&cfg.Recipe.Homepage),
			huh.NewInput().
				Title("Maintainer email").
				Value(&cfg.Recipe.Maintainer),
			huh.NewInput().
				Title("Source URI").
				Description("Archive locator for the project itself; ${PV} expands to the version").
				Value(&cfg.Recipe.SourceURI),
		),
	).Run()
	if err != nil {
		return fmt.Errorf("prompt failed: %w", err)
	}
	return nil
}

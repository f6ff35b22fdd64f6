package cmd

import (
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/zonbuild/zonbuild/pkg/config"
)

var (
	flagVerbose  bool
	flagStrategy string
	flagStore    string
	flagServices string

	// DevCfg holds the resolved developer configuration, available to all
	// subcommands after PersistentPreRunE completes.
	DevCfg *config.DevConfig

	// Logger is the root logger; subcommands derive scoped children from it.
	Logger *log.Logger
)

func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "zonbuild",
		Short: "Ebuild generator for Zig projects",
		Long:  "zonbuild resolves the dependency closure of a build.zig.zon manifest and generates a Gentoo ebuild recipe for it.",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			wd, err := os.Getwd()
			if err != nil {
				return err
			}
			cfg, err := config.LoadDevConfig(wd, config.Flags{
				Strategy: flagStrategy,
				Store:    flagStore,
				Services: flagServices,
			})
			if err != nil {
				return err
			}
			DevCfg = cfg

			level := log.InfoLevel
			if flagVerbose {
				level = log.DebugLevel
			}
			Logger = newLogger(cmd.ErrOrStderr(), level)
			return nil
		},
		SilenceUsage: true,
	}

	root.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "enable debug logging")
	root.PersistentFlags().StringVar(&flagStrategy, "strategy", "", "fetch strategy: skip, plain or verify")
	root.PersistentFlags().StringVar(&flagStore, "store", "", "package store root directory")
	root.PersistentFlags().StringVar(&flagServices, "services", "", "YAML file with additional hosting services")

	root.AddCommand(newGenerateCmd())
	root.AddCommand(newInitCmd())

	return root
}

// newLogger creates the CLI logger writing to w at the given level.
func newLogger(w io.Writer, level log.Level) *log.Logger {
	return log.NewWithOptions(w, log.Options{
		ReportTimestamp: false,
		Level:           level,
	})
}

func Execute() {
	if err := NewRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

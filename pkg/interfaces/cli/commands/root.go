// Package commands implements the capplan command line.
package commands

import (
	"context"

	"github.com/spf13/cobra"
)

// App holds the global flags shared by every command
type App struct {
	configPath string
	dataDir    string
	format     string
}

// NewRootCommand builds the capplan command tree
func NewRootCommand() *cobra.Command {
	app := &App{}

	root := &cobra.Command{
		Use:   "capplan",
		Short: "Capacity-demand planning and baseline drift tracking",
		Long: "capplan matches staff capacity against initiative demand by skill and period, " +
			"proposes allocations and tracks drift of locked baselines.",
		SilenceUsage: true,
	}

	flags := root.PersistentFlags()
	flags.StringVar(&app.configPath, "config", "", "Path to capplan.toml (default ~/.config/capplan/capplan.toml)")
	flags.StringVar(&app.dataDir, "data", "", "Dataset directory loaded into an in-memory store for this run")
	flags.StringVar(&app.format, "format", "text", "Output format: text, json, csv, svg")

	root.AddCommand(
		app.importCommand(),
		app.scenariosCommand(),
		app.calculateCommand(),
		app.autoAllocateCommand(),
		app.availabilityCommand(),
		app.transitionCommand(),
		app.snapshotCommand(),
		app.deltaCommand(),
		app.driftCommand(),
		app.thresholdsCommand(),
		app.serveCommand(),
		newGenerateCommand(),
	)
	return root
}

// run opens a runtime around fn and releases it afterwards
func (a *App) run(fn func(ctx context.Context, rt *runtime, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		rt, err := a.open(cmd)
		if err != nil {
			return err
		}
		defer rt.Close()
		return fn(cmd.Context(), rt, args)
	}
}

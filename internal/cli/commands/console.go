package commands

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlrepl/internal/engine"
	"github.com/leapstack-labs/sqlrepl/internal/tui"
)

// ConsoleOptions holds options for the console command.
type ConsoleOptions struct {
	NoSplash bool
}

// NewConsoleCommand creates the console command.
func NewConsoleCommand() *cobra.Command {
	opts := &ConsoleOptions{}

	cmd := &cobra.Command{
		Use:   "console",
		Short: "Open the full-screen SQL console",
		Long: `Open a full-screen console that loads the database image and re-runs
the editor contents on every keystroke.

A splash screen with two cards is shown first; pick one to continue.
The database loads in the background while the splash is up.`,
		Example: `  # Console against the default image URL
  sqlrepl console

  # Against a local image, without the splash
  sqlrepl console --source ./demo.sqlite --no-splash`,
		Annotations: map[string]string{AnnotationOwnsTerminal: "true"},
		Args:        cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runConsole(cmd, opts)
		},
	}

	cmd.Flags().BoolVar(&opts.NoSplash, "no-splash", false, "Skip the splash screen")

	return cmd
}

func runConsole(cmd *cobra.Command, opts *ConsoleOptions) error {
	cmdCtx := NewCommandContext(cmd)
	cfg := cmdCtx.Cfg

	return tui.Run(cmd.Context(), tui.Options{
		Load: func(ctx context.Context) (*engine.Database, error) {
			return cmdCtx.OpenDatabase(ctx, cfg.Source)
		},
		Console: cmdCtx.ConsoleConfig(),
		Splash:  cfg.Splash && !opts.NoSplash,
		Engine:  cfg.Engine,
		Source:  cfg.Source,
	})
}

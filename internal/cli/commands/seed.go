package commands

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlrepl/internal/seed"
)

// NewSeedCommand creates the seed command.
func NewSeedCommand() *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "seed [path]",
		Short: "Build the demo database image",
		Long: `Build a SQLite database image holding a small demo dataset
(customers, products, orders and an order_totals view).

The image is written to the given path, or to server.image_path when no
path is given, so 'sqlrepl serve' can host it.`,
		Example: `  # Build the image serve hosts by default
  sqlrepl seed

  # Build it somewhere else, replacing an existing file
  sqlrepl seed ./data/demo.sqlite --force`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cmdCtx := NewCommandContext(cmd)

			path := cmdCtx.Cfg.Server.ImagePath
			if len(args) > 0 {
				path = args[0]
			}

			res, err := seed.Build(cmd.Context(), path, seed.Options{Force: force, Logger: cmdCtx.Logger})
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			r.Success(fmt.Sprintf("Built %s", res.Path))
			r.Muted(fmt.Sprintf("%d migrations, schema version %d, %d bytes", res.Migrations, res.Version, res.Bytes))
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Replace an existing image")

	return cmd
}

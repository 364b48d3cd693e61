package commands

import (
	"fmt"
	"runtime"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlrepl/internal/engine"
)

// NewVersionCommand creates the version command.
func NewVersionCommand(version, buildDate, gitCommit string) *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Show version information",
		Long:  `Display sqlrepl version, build information and the available engines.`,
		Run: func(cmd *cobra.Command, _ []string) {
			out := cmd.OutOrStdout()
			_, _ = fmt.Fprintf(out, "sqlrepl v%s\n", version)
			_, _ = fmt.Fprintf(out, "commit %s, built %s, %s\n", gitCommit, buildDate, runtime.Version())
			_, _ = fmt.Fprintf(out, "engines: %s\n", strings.Join(engine.Available(), ", "))
		},
	}
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlrepl/internal/cli/output"
	"github.com/leapstack-labs/sqlrepl/internal/console"
)

// ErrQueryFailed is returned by exec when the SQL text fails.
var ErrQueryFailed = errors.New("query failed")

// ExecOptions holds options for the exec command.
type ExecOptions struct {
	Input string
}

// NewExecCommand creates the exec command.
func NewExecCommand() *cobra.Command {
	opts := &ExecOptions{}

	cmd := &cobra.Command{
		Use:   "exec [SQL]",
		Short: "Execute SQL against the database image",
		Long: `Load the database image and execute SQL text against it once.

The text may hold several statements separated by semicolons; every
statement that returns columns prints one result table, in order.

SQL is taken from the arguments, from --input, or from stdin when it is
piped. With none of these on a terminal, exec starts the interactive REPL.`,
		Example: `  # Execute SQL directly
  sqlrepl exec "SELECT * FROM users"

  # Against a local image, as CSV
  sqlrepl exec --source ./demo.sqlite -o csv "SELECT name FROM users"

  # From a file
  sqlrepl exec --input report.sql

  # From a pipe
  echo "select 1 as a, 2 as b" | sqlrepl exec`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExec(cmd, args, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.Input, "input", "i", "", "Read SQL from file")

	return cmd
}

func runExec(cmd *cobra.Command, args []string, opts *ExecOptions) error {
	var text string

	switch {
	case len(args) > 0:
		text = strings.Join(args, " ")
	case opts.Input != "":
		content, err := os.ReadFile(opts.Input)
		if err != nil {
			return fmt.Errorf("failed to read file: %w", err)
		}
		text = string(content)
	default:
		in := cmd.InOrStdin()
		if f, ok := in.(*os.File); ok && output.IsTerminalInput(f) {
			// No input, TTY detected - enter REPL mode
			return runREPL(cmd)
		}
		content, err := io.ReadAll(in)
		if err != nil {
			return fmt.Errorf("failed to read stdin: %w", err)
		}
		text = string(content)
	}

	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()

	db, err := cmdCtx.OpenDatabase(ctx, "")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	c := cmdCtx.NewConsole(db)
	return executeAndRender(ctx, cmdCtx.Renderer, c, text)
}

// executeAndRender runs text through the console and writes the outcome.
func executeAndRender(ctx context.Context, r *output.Renderer, c *console.Console, text string) error {
	c.OnTextChanged(ctx, text)

	out := c.Outcome()
	if out.Failed() {
		return fmt.Errorf("%w: %s", ErrQueryFailed, out.Message())
	}
	return r.Results(out.Results())
}

package commands

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/chzyer/readline"
	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlrepl/internal/cli/output"
	"github.com/leapstack-labs/sqlrepl/internal/console"
	"github.com/leapstack-labs/sqlrepl/internal/render"
)

const (
	replPrompt     = "sqlrepl> "
	replContPrompt = "    ...> "
)

// NewREPLCommand creates the repl command.
func NewREPLCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "repl",
		Short: "Line-oriented SQL console",
		Long: `Load the database image and read SQL line by line.

Statements accumulate until a line ends with a semicolon, then the whole
text is executed and its result tables are printed. Dot-commands control
the session; type .help to list them.`,
		Example: `  # REPL against the default image URL
  sqlrepl repl

  # Against a local DuckDB image, printing markdown tables
  sqlrepl repl --engine duckdb --source ./shop.duckdb -o markdown`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runREPL(cmd)
		},
	}
}

func runREPL(cmd *cobra.Command) error {
	cmdCtx := NewCommandContext(cmd)
	ctx := cmd.Context()
	r := cmdCtx.Renderer

	db, err := cmdCtx.OpenDatabase(ctx, "")
	if err != nil {
		return err
	}
	defer func() { _ = db.Close() }()

	c := cmdCtx.NewConsole(db)

	rl, err := readline.NewEx(newREPLConfig(cmd))
	if err != nil {
		return fmt.Errorf("failed to initialize REPL: %w", err)
	}
	defer func() { _ = rl.Close() }()

	r.Header(1, fmt.Sprintf("sqlrepl (%s, source: %s)", db.Engine(), cmdCtx.Cfg.Source))
	r.Muted("Type .help for commands, .quit to exit")
	r.Println("")

	var buf strings.Builder
	for {
		line, err := rl.Readline()
		if errors.Is(err, readline.ErrInterrupt) {
			buf.Reset()
			rl.SetPrompt(replPrompt)
			continue
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return err
		}

		trimmed := strings.TrimSpace(line)
		if trimmed == "" && buf.Len() == 0 {
			continue
		}

		if buf.Len() == 0 && strings.HasPrefix(trimmed, ".") {
			if quit := handleDotCommand(r, trimmed); quit {
				break
			}
			continue
		}

		buf.WriteString(line)
		buf.WriteString("\n")
		if !strings.HasSuffix(trimmed, ";") {
			rl.SetPrompt(replContPrompt)
			continue
		}
		rl.SetPrompt(replPrompt)

		text := buf.String()
		buf.Reset()
		printOutcome(ctx, r, c, text)
		r.Println("")
	}

	return nil
}

// printOutcome executes text and prints results or the styled error.
func printOutcome(ctx context.Context, r *output.Renderer, c *console.Console, text string) {
	if err := executeAndRender(ctx, r, c, text); err != nil {
		if c.Outcome().Failed() {
			r.Error(c.Outcome().Message())
			return
		}
		r.Error(err.Error())
	}
}

// handleDotCommand runs a dot-command and reports whether to quit.
func handleDotCommand(r *output.Renderer, line string) bool {
	parts := strings.Fields(line)
	command := strings.ToLower(parts[0])

	switch command {
	case ".quit", ".exit":
		return true

	case ".help":
		printREPLHelp(r)

	case ".mode":
		if len(parts) < 2 {
			r.Println(string(r.Format()))
			return false
		}
		format, err := render.ParseFormat(parts[1])
		if err != nil {
			r.Error(err.Error())
			return false
		}
		r.SetFormat(format)

	case ".clear":
		r.Println("\033[H\033[2J")

	default:
		r.Error(fmt.Sprintf("Unknown command: %s (type .help for commands)", command))
	}
	return false
}

func printREPLHelp(r *output.Renderer) {
	r.Println(`
Commands:
  .help           Show this help message
  .mode [format]  Show or set the output format (` + strings.Join(render.Formats(), ", ") + `)
  .clear          Clear the screen
  .quit / .exit   Exit the REPL

Tips:
  - SQL statements must end with a semicolon (;)
  - Several statements on one input print one table each
  - Use arrow keys to recall earlier lines of this session`)
}

// newREPLConfig sets up line editing. Recall stays in memory for the
// session; nothing is written to disk.
func newREPLConfig(cmd *cobra.Command) *readline.Config {
	return &readline.Config{
		Prompt:          replPrompt,
		AutoComplete:    newDotCompleter(),
		InterruptPrompt: "^C",
		EOFPrompt:       ".quit",
		Stdin:           io.NopCloser(cmd.InOrStdin()),
		Stdout:          cmd.OutOrStdout(),
		Stderr:          cmd.ErrOrStderr(),
	}
}

func newDotCompleter() *readline.PrefixCompleter {
	modes := make([]readline.PrefixCompleterInterface, 0, len(render.Formats()))
	for _, f := range render.Formats() {
		modes = append(modes, readline.PcItem(f))
	}
	return readline.NewPrefixCompleter(
		readline.PcItem(".help"),
		readline.PcItem(".mode", modes...),
		readline.PcItem(".clear"),
		readline.PcItem(".quit"),
		readline.PcItem(".exit"),
	)
}

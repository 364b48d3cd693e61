package commands

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/spf13/cobra"

	"github.com/leapstack-labs/sqlrepl/internal/cli/config"
	"github.com/leapstack-labs/sqlrepl/internal/cli/output"
	"github.com/leapstack-labs/sqlrepl/internal/console"
	"github.com/leapstack-labs/sqlrepl/internal/engine"
	"github.com/leapstack-labs/sqlrepl/internal/metrics"
	"github.com/leapstack-labs/sqlrepl/internal/render"
)

// AnnotationOwnsTerminal marks commands that draw a full-screen UI.
// Their logs are not written to stderr.
const AnnotationOwnsTerminal = "sqlrepl/owns-terminal"

// CommandContext holds common dependencies for CLI commands.
type CommandContext struct {
	Cfg      *config.Config
	Logger   *slog.Logger
	Renderer *output.Renderer
}

// NewCommandContext creates a CommandContext from the loaded configuration.
func NewCommandContext(cmd *cobra.Command) *CommandContext {
	cfg := getConfig()
	logger := config.GetLogger(cmd.Context())

	// Validated at load time; the fallback covers commands run without the root.
	format, err := render.ParseFormat(cfg.Output)
	if err != nil {
		format = render.FormatTable
	}

	return &CommandContext{
		Cfg:      cfg,
		Logger:   logger,
		Renderer: output.NewRenderer(cmd.OutOrStdout(), cmd.ErrOrStderr(), format),
	}
}

// getConfig returns the current configuration, or the defaults when no
// configuration was loaded.
func getConfig() *config.Config {
	if cfg := config.GetCurrentConfig(); cfg != nil {
		return cfg
	}
	return config.Defaults()
}

// NewLoader builds the engine loader for this command.
func (c *CommandContext) NewLoader(source string) *engine.Loader {
	lc := c.Cfg.LoaderConfig(source)
	lc.Logger = c.Logger
	return engine.NewLoader(lc)
}

// OpenDatabase runs the bootstrap once and records its result.
func (c *CommandContext) OpenDatabase(ctx context.Context, source string) (*engine.Database, error) {
	return initialize(ctx, c.NewLoader(source), c.Cfg.Engine)
}

// initialize runs a loader and records the bootstrap metrics.
func initialize(ctx context.Context, loader *engine.Loader, engineName string) (*engine.Database, error) {
	start := time.Now()
	db, err := loader.Initialize(ctx)
	result := "ok"
	if err != nil {
		result = "failed"
		var initErr *engine.InitError
		if errors.As(err, &initErr) {
			result = string(initErr.Stage)
		}
	}
	metrics.ObserveInit(engineName, result, time.Since(start))
	return db, err
}

// ConsoleConfig returns the console settings shared by every front end.
func (c *CommandContext) ConsoleConfig() console.Config {
	return console.Config{
		Timeout:  c.Cfg.QueryTimeout,
		Logger:   c.Logger,
		Observer: observeQuery,
	}
}

// NewConsole binds a console to db with the configured query timeout.
func (c *CommandContext) NewConsole(db console.Executor) *console.Console {
	return console.New(db, c.ConsoleConfig())
}

func observeQuery(_ string, outcome console.Outcome, elapsed time.Duration) {
	metrics.ObserveQuery(outcome.Failed(), elapsed)
}

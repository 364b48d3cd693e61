// Package console holds the query loop: the current query text and the
// single outcome of executing it.
package console

import (
	"context"
	"log/slog"
	"time"

	"github.com/leapstack-labs/sqlrepl/internal/engine"
)

// UnknownError is the message used when a failure carries none.
const UnknownError = "Unknown error"

// Executor runs raw SQL text. *engine.Database satisfies it.
type Executor interface {
	Exec(ctx context.Context, text string) ([]engine.ResultSet, error)
}

// Outcome is the result of the most recent execution: either a list of
// result sets or a failure message, never both.
type Outcome struct {
	results []engine.ResultSet
	message string
	failed  bool
}

// Success builds a successful outcome.
func Success(results []engine.ResultSet) Outcome {
	return Outcome{results: results}
}

// Failure builds a failed outcome. An empty message becomes UnknownError.
func Failure(message string) Outcome {
	if message == "" {
		message = UnknownError
	}
	return Outcome{message: message, failed: true}
}

// Failed reports whether the outcome is a failure.
func (o Outcome) Failed() bool { return o.failed }

// Results returns the result sets of a successful outcome, nil otherwise.
func (o Outcome) Results() []engine.ResultSet { return o.results }

// Message returns the failure message, empty on success.
func (o Outcome) Message() string { return o.message }

// Observer is notified after every execution.
type Observer func(text string, outcome Outcome, elapsed time.Duration)

// Config holds console configuration.
type Config struct {
	// Timeout bounds a single execution. Zero means no bound.
	Timeout time.Duration
	// Observer is called after each execution (optional).
	Observer Observer
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Console re-executes its text on every change. It is not safe for
// concurrent use; callers serialize edits the way an event loop does.
type Console struct {
	db      Executor
	text    string
	outcome Outcome
	cfg     Config
	logger  *slog.Logger
}

// New creates a console bound to db. The handle is owned by the caller.
func New(db Executor, cfg Config) *Console {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Console{db: db, cfg: cfg, logger: logger}
}

// Ready reports whether the console has a database to run against.
func (c *Console) Ready() bool {
	return c != nil && c.db != nil
}

// Text returns the text of the most recent execution.
func (c *Console) Text() string {
	if c == nil {
		return ""
	}
	return c.text
}

// Outcome returns the current outcome.
func (c *Console) Outcome() Outcome {
	if c == nil {
		return Outcome{}
	}
	return c.outcome
}

// OnTextChanged executes text and replaces the current outcome with the
// result. Execution errors are captured in the outcome, never returned.
// Without a database it does nothing.
func (c *Console) OnTextChanged(ctx context.Context, text string) {
	if !c.Ready() {
		return
	}

	if c.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.cfg.Timeout)
		defer cancel()
	}

	start := time.Now()
	results, err := c.db.Exec(ctx, text)
	elapsed := time.Since(start)

	c.text = text
	if err != nil {
		c.outcome = Failure(err.Error())
		c.logger.Debug("query failed", "error", c.outcome.message, "duration", elapsed)
	} else {
		c.outcome = Success(results)
		c.logger.Debug("query executed", "result_sets", len(results), "duration", elapsed)
	}

	if c.cfg.Observer != nil {
		c.cfg.Observer(text, c.outcome, elapsed)
	}
}

// Package engine brings an embedded SQL engine online, loads a serialized
// database image into it and executes raw SQL against the result.
//
// The bootstrap runs two independent operations concurrently, starting the
// engine runtime and fetching the image, and joins them before opening the
// database. Either failure fails the whole bootstrap with an *InitError.
package engine

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"
)

// LoaderConfig holds loader configuration.
type LoaderConfig struct {
	// Engine is the registry name of the runtime to start.
	Engine string
	// Source is the image URL or path.
	Source string
	// Timeout bounds the whole bootstrap. Zero means no bound.
	Timeout time.Duration
	// Options are passed to the runtime at start.
	Options Options
	// Fetcher retrieves the image. Nil uses a default Fetcher.
	Fetcher *Fetcher
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Loader produces one Database per Initialize call.
type Loader struct {
	cfg    LoaderConfig
	logger *slog.Logger
}

// NewLoader creates a loader.
func NewLoader(cfg LoaderConfig) *Loader {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if cfg.Engine == "" {
		cfg.Engine = SQLiteName
	}
	if cfg.Source == "" {
		cfg.Source = DefaultSource
	}
	if cfg.Fetcher == nil {
		cfg.Fetcher = &Fetcher{Logger: logger}
	}
	if cfg.Options.Logger == nil {
		cfg.Options.Logger = logger
	}
	return &Loader{cfg: cfg, logger: logger}
}

// Source returns the configured image source.
func (l *Loader) Source() string { return l.cfg.Source }

// Initialize starts the runtime and fetches the image concurrently, then
// opens the database. It is all-or-nothing: every failure is an *InitError
// and no handle is returned with it.
func (l *Loader) Initialize(ctx context.Context) (*Database, error) {
	start := time.Now()

	if l.cfg.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, l.cfg.Timeout)
		defer cancel()
	}

	var (
		rt  Runtime
		img Image
	)

	eg, egctx := errgroup.WithContext(ctx)

	eg.Go(func() error {
		l.logger.Info("engine starting", "engine", l.cfg.Engine)
		r, err := Start(egctx, l.cfg.Engine, l.cfg.Options)
		if err != nil {
			return l.initError(ctx, StageEngine, err)
		}
		rt = r
		return nil
	})

	eg.Go(func() error {
		l.logger.Info("fetching database", "source", l.cfg.Source)
		i, err := l.cfg.Fetcher.Fetch(egctx, l.cfg.Source)
		if err != nil {
			return l.initError(ctx, StageFetch, err)
		}
		img = i
		return nil
	})

	if err := eg.Wait(); err != nil {
		l.logger.Error("database initialization failed", "error", err)
		return nil, err
	}

	db, err := rt.Open(ctx, img)
	if err != nil {
		ierr := l.initError(ctx, StageOpen, err)
		l.logger.Error("database initialization failed", "error", ierr)
		return nil, ierr
	}

	l.logger.Info("database ready",
		"engine", rt.Name(),
		"version", rt.Version(),
		"bytes", len(img.Data),
		"duration", time.Since(start).Round(time.Millisecond))
	return db, nil
}

// initError classifies a failure. An expired bootstrap deadline wins over
// whatever error the interrupted operation reported.
func (l *Loader) initError(ctx context.Context, stage Stage, err error) *InitError {
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return &InitError{
			Stage: StageTimeout,
			Err:   fmt.Errorf("database initialization timed out after %s: %w", l.cfg.Timeout, context.DeadlineExceeded),
		}
	}
	return &InitError{Stage: stage, Err: err}
}

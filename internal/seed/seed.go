// Package seed builds the demo database image from embedded migrations.
package seed

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/pressly/goose/v3"

	// sqlite driver for building images.
	_ "modernc.org/sqlite"
)

//go:embed migrations/*.sql
var migrations embed.FS

// ErrExists is returned when the target file exists and overwriting was
// not requested.
var ErrExists = errors.New("image already exists")

// Options configures Build.
type Options struct {
	// Force replaces an existing file.
	Force bool
	// Logger is the structured logger (optional, uses discard if nil).
	Logger *slog.Logger
}

// Result describes a built image.
type Result struct {
	Path       string
	Version    int64
	Migrations int
	Bytes      int64
}

// Build writes a demo SQLite image to path by applying every embedded
// migration to a fresh database. The file appears only once complete.
func Build(ctx context.Context, path string, opts Options) (*Result, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if _, err := os.Stat(path); err == nil && !opts.Force {
		return nil, fmt.Errorf("%w: %s (use --force to replace it)", ErrExists, path)
	}

	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".seed-*.sqlite")
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmp.Name()
	_ = tmp.Close()
	defer func() { _ = os.Remove(tmpPath) }()

	version, applied, err := migrate(ctx, tmpPath, logger)
	if err != nil {
		return nil, err
	}

	if err := os.Rename(tmpPath, path); err != nil {
		return nil, fmt.Errorf("failed to move image into place: %w", err)
	}

	info, err := os.Stat(path)
	if err != nil {
		return nil, err
	}

	logger.Info("image built", "path", path, "version", version, "bytes", info.Size())
	return &Result{Path: path, Version: version, Migrations: applied, Bytes: info.Size()}, nil
}

// Image builds the demo image in a scratch directory and returns its bytes.
func Image(ctx context.Context) ([]byte, error) {
	dir, err := os.MkdirTemp("", "sqlrepl-seed-*")
	if err != nil {
		return nil, err
	}
	defer func() { _ = os.RemoveAll(dir) }()

	path := filepath.Join(dir, "db.sqlite")
	if _, err := Build(ctx, path, Options{}); err != nil {
		return nil, err
	}
	return os.ReadFile(path)
}

func migrate(ctx context.Context, path string, logger *slog.Logger) (int64, int, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to open database: %w", err)
	}
	defer func() { _ = db.Close() }()

	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return 0, 0, err
	}

	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to load migrations: %w", err)
	}

	results, err := provider.Up(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to run migrations: %w", err)
	}
	for _, r := range results {
		logger.Debug("migration applied", "source", r.Source.Path, "duration", r.Duration)
	}

	version, err := provider.GetDBVersion(ctx)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read migration version: %w", err)
	}

	// Close before the file is moved so the journal is folded in.
	if err := db.Close(); err != nil {
		return 0, 0, err
	}
	return version, len(results), nil
}

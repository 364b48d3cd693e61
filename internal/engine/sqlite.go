package engine

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	// pure-Go sqlite driver.
	_ "modernc.org/sqlite"
)

// SQLiteName is the registry name of the SQLite runtime.
const SQLiteName = "sqlite"

// sqliteMagic is the 16-byte header every SQLite database file starts with.
var sqliteMagic = []byte("SQLite format 3\x00")

func init() {
	Register(SQLiteName, startSQLite)
}

type sqliteRuntime struct {
	version string
	tempDir string
	logger  *slog.Logger
}

func startSQLite(ctx context.Context, opts Options) (Runtime, error) {
	probe, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite engine: %w", err)
	}
	defer func() { _ = probe.Close() }()

	var version string
	if err := probe.QueryRowContext(ctx, "SELECT sqlite_version()").Scan(&version); err != nil {
		return nil, fmt.Errorf("failed to start sqlite engine: %w", err)
	}

	opts.Logger.Debug("engine started", "engine", SQLiteName, "version", version)
	return &sqliteRuntime{version: version, tempDir: opts.TempDir, logger: opts.Logger}, nil
}

func (r *sqliteRuntime) Name() string    { return SQLiteName }
func (r *sqliteRuntime) Version() string { return r.version }

// Open writes the image to a private file and opens it. The image must
// carry the SQLite header and a readable schema.
func (r *sqliteRuntime) Open(ctx context.Context, img Image) (*Database, error) {
	if len(img.Data) < len(sqliteMagic) || !bytes.Equal(img.Data[:len(sqliteMagic)], sqliteMagic) {
		return nil, fmt.Errorf("%w: missing SQLite header", ErrMalformedImage)
	}

	path, err := writeImage(r.tempDir, "sqlrepl-*.sqlite", img.Data)
	if err != nil {
		return nil, err
	}

	sqlDB, err := sql.Open("sqlite", path+"?_pragma=foreign_keys(1)")
	if err != nil {
		return nil, removeOnError(path, fmt.Errorf("failed to open sqlite database: %w", err))
	}
	db := NewDatabase(sqlDB, SQLiteName, path, r.logger)

	var tables int
	if err := sqlDB.QueryRowContext(ctx, "SELECT count(*) FROM sqlite_master").Scan(&tables); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}

	r.logger.Debug("database opened", "engine", SQLiteName, "source", img.Source, "objects", tables)
	return db, nil
}

package engine

import (
	"bytes"
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"

	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

// DuckDBName is the registry name of the DuckDB runtime.
const DuckDBName = "duckdb"

// duckdbMagic sits at offset 8 of every DuckDB database file.
var duckdbMagic = []byte("DUCK")

func init() {
	Register(DuckDBName, startDuckDB)
}

type duckdbRuntime struct {
	version   string
	assetHint string
	tempDir   string
	logger    *slog.Logger
}

func startDuckDB(ctx context.Context, opts Options) (Runtime, error) {
	probe, err := sql.Open("duckdb", "")
	if err != nil {
		return nil, fmt.Errorf("failed to open duckdb engine: %w", err)
	}
	defer func() { _ = probe.Close() }()

	var version string
	if err := probe.QueryRowContext(ctx, "SELECT version()").Scan(&version); err != nil {
		return nil, fmt.Errorf("failed to start duckdb engine: %w", err)
	}

	opts.Logger.Debug("engine started", "engine", DuckDBName, "version", version, "asset_hint", opts.AssetHint)
	return &duckdbRuntime{
		version:   version,
		assetHint: opts.AssetHint,
		tempDir:   opts.TempDir,
		logger:    opts.Logger,
	}, nil
}

func (r *duckdbRuntime) Name() string    { return DuckDBName }
func (r *duckdbRuntime) Version() string { return r.version }

// Open writes the image to a private file and opens it with DuckDB.
func (r *duckdbRuntime) Open(ctx context.Context, img Image) (*Database, error) {
	if len(img.Data) < 12 || !bytes.Equal(img.Data[8:12], duckdbMagic) {
		return nil, fmt.Errorf("%w: missing DuckDB header", ErrMalformedImage)
	}

	path, err := writeImage(r.tempDir, "sqlrepl-*.duckdb", img.Data)
	if err != nil {
		return nil, err
	}

	dsn := path
	if r.assetHint != "" {
		dsn += "?" + url.Values{"extension_directory": {r.assetHint}}.Encode()
	}

	sqlDB, err := sql.Open("duckdb", dsn)
	if err != nil {
		return nil, removeOnError(path, fmt.Errorf("failed to open duckdb database: %w", err))
	}
	db := NewDatabase(sqlDB, DuckDBName, path, r.logger)

	if err := sqlDB.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: %v", ErrMalformedImage, err)
	}

	r.logger.Debug("database opened", "engine", DuckDBName, "source", img.Source)
	return db, nil
}

package engine

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"sync"
)

// Image is a serialized database, consumed once by Runtime.Open.
type Image struct {
	Source string
	Data   []byte
}

// ResultSet is the output of one row-returning statement.
// Rows are aligned positionally with Columns.
type ResultSet struct {
	Columns []string
	Rows    [][]Value
}

// Database is a live database handle. All queries of a session go
// through one Database, which pins a single connection so that session
// state (temp tables, pragmas) survives between executions.
type Database struct {
	db        *sql.DB
	engine    string
	path      string
	logger    *slog.Logger
	closeOnce sync.Once
}

// NewDatabase wraps an open *sql.DB. backingFile, when set, is removed on
// Close. The pool is limited to one connection.
func NewDatabase(db *sql.DB, engine, backingFile string, logger *slog.Logger) *Database {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)
	db.SetConnMaxIdleTime(0)
	return &Database{db: db, engine: engine, path: backingFile, logger: logger}
}

// Engine returns the name of the runtime that opened the database.
func (d *Database) Engine() string { return d.engine }

// Exec runs every statement in text in order and collects one ResultSet per
// statement that returns columns. The first failing statement aborts the
// run and its error is returned; results gathered so far are discarded.
// Effects of statements that already ran are not rolled back.
func (d *Database) Exec(ctx context.Context, text string) ([]ResultSet, error) {
	var results []ResultSet
	for _, stmt := range SplitStatements(text) {
		rs, ok, err := d.execOne(ctx, stmt)
		if err != nil {
			return nil, err
		}
		if ok {
			results = append(results, rs)
		}
	}
	return results, nil
}

func (d *Database) execOne(ctx context.Context, stmt string) (ResultSet, bool, error) {
	rows, err := d.db.QueryContext(ctx, stmt)
	if err != nil {
		return ResultSet{}, false, err
	}
	defer func() { _ = rows.Close() }()

	cols, err := rows.Columns()
	if err != nil {
		return ResultSet{}, false, err
	}

	rs := ResultSet{Columns: cols, Rows: [][]Value{}}
	for rows.Next() {
		values := make([]any, len(cols))
		ptrs := make([]any, len(cols))
		for i := range values {
			ptrs[i] = &values[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return ResultSet{}, false, err
		}
		row := make([]Value, len(cols))
		for i, v := range values {
			row[i] = valueOf(v)
		}
		rs.Rows = append(rs.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return ResultSet{}, false, err
	}

	// DDL and DML report no columns and produce no result set.
	return rs, len(cols) > 0, nil
}

// Close releases the handle and its backing file.
func (d *Database) Close() error {
	var err error
	d.closeOnce.Do(func() {
		err = d.db.Close()
		if d.path != "" {
			// journals and WAL files left next to the image go too
			for _, p := range []string{d.path, d.path + "-journal", d.path + "-wal", d.path + "-shm", d.path + ".wal"} {
				if rmErr := os.Remove(p); rmErr != nil && !errors.Is(rmErr, os.ErrNotExist) {
					err = errors.Join(err, fmt.Errorf("remove backing file: %w", rmErr))
				}
			}
			d.logger.Debug("database closed", "engine", d.engine, "path", d.path)
		}
	})
	return err
}

// writeImage stores the image in a private temp file and returns its path.
func writeImage(dir, pattern string, data []byte) (string, error) {
	f, err := os.CreateTemp(dir, pattern)
	if err != nil {
		return "", fmt.Errorf("create backing file: %w", err)
	}
	path := f.Name()
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("write backing file: %w", err)
	}
	if err := f.Close(); err != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("close backing file: %w", err)
	}
	return path, nil
}

func removeOnError(path string, err error) error {
	_ = os.Remove(path)
	return err
}

package testutil

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	_ "modernc.org/sqlite"
)

// UsersSchema creates a two-row users table; Bob has no score.
var UsersSchema = []string{
	`CREATE TABLE users (id INTEGER PRIMARY KEY, name TEXT NOT NULL, score REAL)`,
	`INSERT INTO users (id, name, score) VALUES (1, 'Alice', 9.5), (2, 'Bob', NULL)`,
}

// BuildImage creates a SQLite database file from schema statements and
// returns its bytes.
func BuildImage(t testing.TB, stmts ...string) []byte {
	t.Helper()

	path := filepath.Join(t.TempDir(), "image.sqlite")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)

	ctx := context.Background()
	// an empty schema still needs a write for the header to exist
	_, err = db.ExecContext(ctx, "PRAGMA user_version = 1")
	require.NoError(t, err)
	for _, stmt := range stmts {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err)
	}
	require.NoError(t, db.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return data
}

// WriteImage writes BuildImage output to dir and returns the file path.
func WriteImage(t testing.TB, dir string, stmts ...string) string {
	t.Helper()
	path := filepath.Join(dir, "db.sqlite")
	require.NoError(t, os.WriteFile(path, BuildImage(t, stmts...), 0o600))
	return path
}

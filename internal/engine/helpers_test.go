package engine

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlrepl/internal/testutil"
)

var usersSchema = testutil.UsersSchema

func buildImage(t *testing.T, stmts ...string) []byte {
	t.Helper()
	return testutil.BuildImage(t, stmts...)
}

// openTestDatabase opens an image with the SQLite runtime.
func openTestDatabase(t *testing.T, stmts ...string) *Database {
	t.Helper()

	ctx := context.Background()
	rt, err := Start(ctx, SQLiteName, Options{TempDir: t.TempDir()})
	require.NoError(t, err)

	db, err := rt.Open(ctx, Image{Source: "test", Data: buildImage(t, stmts...)})
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return db
}

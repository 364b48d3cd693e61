package engine

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leapstack-labs/sqlrepl/internal/testutil"
)

func imageServer(t *testing.T, status int, data []byte) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/db.sqlite" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(status)
		_, _ = w.Write(data)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestLoader_Initialize(t *testing.T) {
	srv := imageServer(t, http.StatusOK, buildImage(t, usersSchema...))

	loader := NewLoader(LoaderConfig{
		Engine:  SQLiteName,
		Source:  srv.URL + "/db.sqlite",
		Options: Options{TempDir: t.TempDir()},
		Logger:  testutil.NewTestLogger(t),
	})

	db, err := loader.Initialize(context.Background())
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	results, err := db.Exec(context.Background(), "SELECT name FROM users ORDER BY id")
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, []string{"name"}, results[0].Columns)
	assert.Equal(t, [][]Value{{Text("Alice")}, {Text("Bob")}}, results[0].Rows)
}

func TestLoader_Failures(t *testing.T) {
	valid := buildImage(t, usersSchema...)

	tests := []struct {
		name      string
		engine    string
		status    int
		data      []byte
		path      string
		wantStage Stage
		check     func(t *testing.T, err error)
	}{
		{
			name:      "not found",
			engine:    SQLiteName,
			status:    http.StatusNotFound,
			data:      valid,
			wantStage: StageFetch,
			check: func(t *testing.T, err error) {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
			},
		},
		{
			name:      "wrong path",
			engine:    SQLiteName,
			status:    http.StatusOK,
			data:      valid,
			path:      "/other.sqlite",
			wantStage: StageFetch,
		},
		{
			name:      "unknown engine",
			engine:    "oracle",
			status:    http.StatusOK,
			data:      valid,
			wantStage: StageEngine,
			check: func(t *testing.T, err error) {
				var unknown *UnknownRuntimeError
				require.ErrorAs(t, err, &unknown)
				assert.Contains(t, unknown.Available, SQLiteName)
			},
		},
		{
			name:      "malformed image",
			engine:    SQLiteName,
			status:    http.StatusOK,
			data:      []byte("definitely not a database"),
			wantStage: StageOpen,
			check: func(t *testing.T, err error) {
				assert.ErrorIs(t, err, ErrMalformedImage)
			},
		},
		{
			name:      "empty body",
			engine:    SQLiteName,
			status:    http.StatusOK,
			data:      nil,
			wantStage: StageOpen,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := imageServer(t, tt.status, tt.data)
			path := tt.path
			if path == "" {
				path = "/db.sqlite"
			}

			loader := NewLoader(LoaderConfig{
				Engine:  tt.engine,
				Source:  srv.URL + path,
				Options: Options{TempDir: t.TempDir()},
				Logger:  testutil.NewTestLogger(t),
			})

			db, err := loader.Initialize(context.Background())
			require.Error(t, err)
			assert.Nil(t, db)

			var initErr *InitError
			require.ErrorAs(t, err, &initErr)
			assert.Equal(t, tt.wantStage, initErr.Stage)
			assert.NotEmpty(t, initErr.Message())

			if tt.check != nil {
				tt.check(t, err)
			}
		})
	}
}

func TestLoader_Timeout(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(_ http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer srv.Close()
	defer close(release)

	loader := NewLoader(LoaderConfig{
		Source:  srv.URL + "/db.sqlite",
		Timeout: 50 * time.Millisecond,
		Options: Options{TempDir: t.TempDir()},
	})

	db, err := loader.Initialize(context.Background())
	require.Error(t, err)
	assert.Nil(t, db)

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, StageTimeout, initErr.Stage)
	assert.True(t, errors.Is(err, context.DeadlineExceeded))
}

func TestLoader_Defaults(t *testing.T) {
	loader := NewLoader(LoaderConfig{})
	assert.Equal(t, DefaultSource, loader.Source())
	assert.Equal(t, SQLiteName, loader.cfg.Engine)
	assert.NotNil(t, loader.cfg.Fetcher)
}

func TestInitError_Message(t *testing.T) {
	err := &InitError{Stage: StageFetch, Err: &StatusError{StatusCode: 404}}
	assert.Equal(t, "HTTP error! status: 404", err.Message())
	assert.Contains(t, err.Error(), "fetch")

	empty := &InitError{Stage: StageOpen}
	assert.Equal(t, "Failed to initialize the database", empty.Message())
}

func TestRegistry(t *testing.T) {
	assert.True(t, IsRegistered(SQLiteName))
	assert.True(t, IsRegistered(DuckDBName))
	assert.False(t, IsRegistered("mysql"))
	assert.Equal(t, []string{DuckDBName, SQLiteName}, Available())

	_, err := Start(context.Background(), "", Options{})
	assert.Error(t, err)
}

func registerTestRuntime(t *testing.T, name string, start StartFunc) {
	t.Helper()
	Register(name, start)
	t.Cleanup(func() {
		registryMu.Lock()
		delete(registry, name)
		registryMu.Unlock()
	})
}

func TestLoader_StartsAndFetchesConcurrently(t *testing.T) {
	data := buildImage(t, usersSchema...)
	fetched := make(chan struct{})
	started := make(chan struct{})

	// Each side waits for the other, so a sequential bootstrap never finishes.
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		close(fetched)
		select {
		case <-started:
		case <-r.Context().Done():
			return
		}
		_, _ = w.Write(data)
	}))
	defer srv.Close()

	registerTestRuntime(t, "rendezvous", func(ctx context.Context, opts Options) (Runtime, error) {
		select {
		case <-fetched:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		close(started)
		return startSQLite(ctx, opts)
	})

	loader := NewLoader(LoaderConfig{
		Engine:  "rendezvous",
		Source:  srv.URL + "/db.sqlite",
		Timeout: 5 * time.Second,
		Options: Options{TempDir: t.TempDir()},
		Logger:  testutil.NewTestLogger(t),
	})

	db, err := loader.Initialize(context.Background())
	require.NoError(t, err)
	defer func() { _ = db.Close() }()

	results, err := db.Exec(context.Background(), "SELECT count(*) AS n FROM users")
	require.NoError(t, err)
	assert.Equal(t, [][]Value{{Number(2)}}, results[0].Rows)
}

func TestLoader_FetchFailureCancelsStart(t *testing.T) {
	srv := imageServer(t, http.StatusNotFound, nil)
	cancelled := make(chan struct{})

	registerTestRuntime(t, "never-ready", func(ctx context.Context, _ Options) (Runtime, error) {
		<-ctx.Done()
		close(cancelled)
		return nil, ctx.Err()
	})

	loader := NewLoader(LoaderConfig{
		Engine:  "never-ready",
		Source:  srv.URL + "/db.sqlite",
		Options: Options{TempDir: t.TempDir()},
		Logger:  testutil.NewTestLogger(t),
	})

	db, err := loader.Initialize(context.Background())
	require.Error(t, err)
	assert.Nil(t, db)

	var initErr *InitError
	require.ErrorAs(t, err, &initErr)
	assert.Equal(t, StageFetch, initErr.Stage, "the first failure is reported")
	assert.Equal(t, "HTTP error! status: 404", initErr.Message())

	select {
	case <-cancelled:
	default:
		t.Fatal("engine start was not cancelled after the fetch failed")
	}
}

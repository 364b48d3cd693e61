package engine

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFetcher_HTTP(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		body       string
		wantStatus int
	}{
		{name: "ok", status: http.StatusOK, body: "payload"},
		{name: "no content is success", status: http.StatusNoContent},
		{name: "not found", status: http.StatusNotFound, body: "missing", wantStatus: http.StatusNotFound},
		{name: "server error", status: http.StatusInternalServerError, wantStatus: http.StatusInternalServerError},
		{name: "not modified", status: http.StatusNotModified, wantStatus: http.StatusNotModified},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			f := &Fetcher{}
			img, err := f.Fetch(context.Background(), srv.URL+"/db.sqlite")

			if tt.wantStatus != 0 {
				var statusErr *StatusError
				require.ErrorAs(t, err, &statusErr)
				assert.Equal(t, tt.wantStatus, statusErr.StatusCode)
				assert.Contains(t, err.Error(), "HTTP error! status:")
				assert.Empty(t, img.Data)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tt.body, string(img.Data))
			assert.Equal(t, srv.URL+"/db.sqlite", img.Source)
		})
	}
}

func TestFetcher_ConnectionRefused(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	f := &Fetcher{}
	_, err := f.Fetch(context.Background(), url+"/db.sqlite")
	require.Error(t, err)

	var statusErr *StatusError
	assert.NotErrorAs(t, err, &statusErr, "transport failures are not status failures")
}

func TestFetcher_LocalFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "db.sqlite")
	require.NoError(t, os.WriteFile(path, []byte("local"), 0600))

	f := &Fetcher{}

	img, err := f.Fetch(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, "local", string(img.Data))

	img, err = f.Fetch(context.Background(), "file://"+path)
	require.NoError(t, err)
	assert.Equal(t, "local", string(img.Data))

	_, err = f.Fetch(context.Background(), filepath.Join(t.TempDir(), "missing.sqlite"))
	assert.Error(t, err)
}

func TestFetcher_UnsupportedScheme(t *testing.T) {
	f := &Fetcher{}
	_, err := f.Fetch(context.Background(), "ftp://example.com/db.sqlite")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported image source scheme")
}

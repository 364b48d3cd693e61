package web

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/leapstack-labs/sqlrepl/internal/metrics"
	"github.com/leapstack-labs/sqlrepl/internal/seed"
	"github.com/leapstack-labs/sqlrepl/internal/web/notifier"
)

// imageContentType is the registered media type for SQLite files.
const imageContentType = "application/vnd.sqlite3"

// reloadDebounce coalesces the burst of events one file replacement emits.
const reloadDebounce = 100 * time.Millisecond

// imageCache holds the served image in memory.
type imageCache struct {
	path   string
	logger *slog.Logger

	mu      sync.RWMutex
	data    []byte
	etag    string
	modTime time.Time
}

func newImageCache(path string, logger *slog.Logger) *imageCache {
	return &imageCache{path: path, logger: logger}
}

// load reads the image from disk, building the demo image first when the
// file does not exist.
func (c *imageCache) load(ctx context.Context) error {
	if _, err := os.Stat(c.path); errors.Is(err, os.ErrNotExist) {
		c.logger.Info("image not found, building demo image", "path", c.path)
		if _, err := seed.Build(ctx, c.path, seed.Options{Logger: c.logger}); err != nil {
			return fmt.Errorf("failed to build demo image: %w", err)
		}
	}
	_, err := c.reload()
	return err
}

// reload re-reads the file. It reports whether the content changed.
func (c *imageCache) reload() (bool, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return false, fmt.Errorf("failed to read image: %w", err)
	}
	info, err := os.Stat(c.path)
	if err != nil {
		return false, err
	}

	sum := sha256.Sum256(data)
	etag := `"` + hex.EncodeToString(sum[:8]) + `"`

	c.mu.Lock()
	changed := etag != c.etag
	c.data, c.etag, c.modTime = data, etag, info.ModTime()
	c.mu.Unlock()

	metrics.ImageBytes.Set(float64(len(data)))
	return changed, nil
}

func (c *imageCache) snapshot() ([]byte, string, time.Time) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data, c.etag, c.modTime
}

// ServeHTTP serves the cached bytes. ServeContent answers conditional
// and range requests from the ETag and modification time.
func (c *imageCache) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	data, etag, modTime := c.snapshot()
	if data == nil {
		http.Error(w, "image not loaded", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", imageContentType)
	w.Header().Set("ETag", etag)
	w.Header().Set("Cache-Control", "no-cache")
	http.ServeContent(w, r, filepath.Base(c.path), modTime, bytes.NewReader(data))
}

// watch reloads the image whenever the file changes and calls onChange
// with the new version. The parent directory is watched so atomic
// replacements (write to temp, rename) are seen.
func (c *imageCache) watch(ctx context.Context, onChange func(notifier.Event)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()

	dir := filepath.Dir(c.path)
	if err := watcher.Add(dir); err != nil {
		c.logger.Error("failed to watch image directory", "dir", dir, "error", err)
		// Serving continues without reloads.
		<-ctx.Done()
		return nil
	}

	target := filepath.Clean(c.path)
	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != target {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(reloadDebounce, func() {
				changed, err := c.reload()
				if err != nil {
					c.logger.Warn("image reload failed", "path", c.path, "error", err)
					return
				}
				if !changed {
					return
				}
				data, etag, _ := c.snapshot()
				metrics.ImageReloads.Inc()
				c.logger.Info("image reloaded", "path", c.path, "etag", etag, "bytes", len(data))
				onChange(notifier.Event{Version: etag, Bytes: len(data)})
			})

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			c.logger.Error("watcher error", "error", err)
		}
	}
}

package engine

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"os"
	"strings"
)

// DefaultSource is the well-known location of the database image.
const DefaultSource = "http://localhost:8765/db.sqlite"

// Fetcher retrieves database images. http(s) sources go over the network;
// file:// URLs and bare paths are read from disk.
type Fetcher struct {
	Client *http.Client
	Logger *slog.Logger
}

// Fetch downloads the image at source. A non-2xx response is a failure
// even though the transport succeeded.
func (f *Fetcher) Fetch(ctx context.Context, source string) (Image, error) {
	logger := f.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	u, err := url.Parse(source)
	if err != nil || u.Scheme == "" || len(u.Scheme) == 1 {
		// bare path; a one-letter scheme is a Windows drive
		return readImageFile(source)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
		return f.fetchHTTP(ctx, source, logger)
	case "file":
		return readImageFile(u.Path)
	default:
		return Image{}, fmt.Errorf("unsupported image source scheme %q", u.Scheme)
	}
}

func (f *Fetcher) fetchHTTP(ctx context.Context, source string, logger *slog.Logger) (Image, error) {
	client := f.Client
	if client == nil {
		client = http.DefaultClient
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, source, nil)
	if err != nil {
		return Image{}, fmt.Errorf("failed to build request: %w", err)
	}

	resp, err := client.Do(req)
	if err != nil {
		return Image{}, fmt.Errorf("failed to fetch database: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return Image{}, &StatusError{URL: source, StatusCode: resp.StatusCode}
	}

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read database: %w", err)
	}

	logger.Debug("database fetched", "source", source, "bytes", len(data))
	return Image{Source: source, Data: data}, nil
}

func readImageFile(path string) (Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Image{}, fmt.Errorf("failed to read database: %w", err)
	}
	return Image{Source: path, Data: data}, nil
}

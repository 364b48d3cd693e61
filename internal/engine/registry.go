package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"sync"
)

// Runtime is a started embedded SQL engine. It opens database handles
// from serialized images.
type Runtime interface {
	// Name returns the registry name of the runtime.
	Name() string
	// Version reports the engine version discovered while starting.
	Version() string
	// Open constructs a live database from an image.
	Open(ctx context.Context, img Image) (*Database, error)
}

// Options configures a runtime at start.
type Options struct {
	// AssetHint points the engine at auxiliary binary assets
	// (for DuckDB, the extension directory). Ignored by runtimes that need none.
	AssetHint string
	// TempDir receives the files backing opened images. Empty uses os.TempDir.
	TempDir string
	Logger  *slog.Logger
}

// StartFunc starts a runtime. It may block while the engine comes up.
type StartFunc func(ctx context.Context, opts Options) (Runtime, error)

var (
	registryMu sync.RWMutex
	registry   = make(map[string]StartFunc)
)

// Register adds a runtime to the registry.
// Called by runtime implementations in their init() functions.
func Register(name string, start StartFunc) {
	registryMu.Lock()
	defer registryMu.Unlock()
	registry[name] = start
}

// Lookup retrieves a runtime start function by name.
func Lookup(name string) (StartFunc, bool) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	f, ok := registry[name]
	return f, ok
}

// Start starts the named runtime.
func Start(ctx context.Context, name string, opts Options) (Runtime, error) {
	if name == "" {
		return nil, fmt.Errorf("engine not specified")
	}
	start, ok := Lookup(name)
	if !ok {
		return nil, &UnknownRuntimeError{Name: name, Available: Available()}
	}
	if opts.Logger == nil {
		opts.Logger = slog.New(slog.DiscardHandler)
	}
	return start(ctx, opts)
}

// Available returns all registered runtime names (sorted).
func Available() []string {
	registryMu.RLock()
	defer registryMu.RUnlock()
	names := make([]string, 0, len(registry))
	for name := range registry {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// IsRegistered checks if a runtime name is registered.
func IsRegistered(name string) bool {
	_, ok := Lookup(name)
	return ok
}

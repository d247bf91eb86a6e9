// Package atexit keeps a registry of files and directories to remove when the
// process shuts down. Removal is best-effort: paths are removed in reverse
// registration order so files go before the directories holding them.
package atexit

import (
	"errors"
	"os"
	"sync"

	"go.uber.org/zap"
)

// ErrClosed is returned by Register once the registry has run.
var ErrClosed = errors.New("atexit: registry already ran")

// Registry records paths scheduled for removal.
type Registry struct {
	logger *zap.Logger
	paths  []string
	mu     sync.Mutex
	closed bool
}

// New creates an empty registry
func New(logger *zap.Logger) *Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Registry{logger: logger}
}

var (
	defaultRegistry     *Registry
	defaultRegistryOnce sync.Once
)

// Default returns the process-wide registry
func Default() *Registry {
	defaultRegistryOnce.Do(func() {
		defaultRegistry = New(nil)
	})
	return defaultRegistry
}

// Register schedules path for removal. Registering after Run is refused so
// callers never believe a late file will be cleaned up.
func (r *Registry) Register(path string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.closed {
		return ErrClosed
	}
	r.paths = append(r.paths, path)
	return nil
}

// Pending returns the registered paths in registration order
func (r *Registry) Pending() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.paths))
	copy(out, r.paths)
	return out
}

// Run removes every registered path and closes the registry.
// Missing paths are ignored; other failures are joined into the result.
func (r *Registry) Run() error {
	r.mu.Lock()
	paths := r.paths
	r.paths = nil
	r.closed = true
	r.mu.Unlock()

	var errs []error
	for i := len(paths) - 1; i >= 0; i-- {
		err := os.Remove(paths[i])
		if err == nil || errors.Is(err, os.ErrNotExist) {
			continue
		}
		r.logger.Warn("remove on exit failed", zap.String("path", paths[i]), zap.Error(err))
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

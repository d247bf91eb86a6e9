package activate

import (
	"context"
	"path/filepath"
	"regexp"
	"sync"

	"go.uber.org/zap"

	"github.com/wippyai/nativeboot/errors"
	"github.com/wippyai/nativeboot/metrics"
)

// Mode selects how library names are turned into something a backend can open
type Mode int

const (
	Extracted Mode = iota
	SearchPath
)

func (m Mode) String() string {
	switch m {
	case Extracted:
		return "extracted"
	case SearchPath:
		return "search-path"
	}
	return "unknown"
}

// Library is an activated engine library
type Library interface {
	// Name returns the configured library name
	Name() string
	// Path returns the location the library was opened from
	Path() string
	// Lookup reports whether the library exports symbol
	Lookup(symbol string) bool
	// Call invokes symbol with integer arguments and returns its integer result
	Call(ctx context.Context, symbol string, args ...uint64) (uint64, error)
}

// BufferWriter is implemented by libraries that accept byte payloads.
// The returned pointer is valid for the library until release is called.
type BufferWriter interface {
	WriteBuffer(ctx context.Context, data []byte) (ptr uint64, release func(context.Context), err error)
}

// Backend opens libraries
type Backend interface {
	// Name identifies the backend in logs and diagnostics
	Name() string
	// Open loads the library file at path
	Open(ctx context.Context, path string) (Library, error)
	// OpenSystem loads a library by logical name using the host search mechanism
	OpenSystem(ctx context.Context, logical string) (Library, error)
}

// Options configures an Activator
type Options struct {
	Mode    Mode
	Dir     string // extraction directory, used in Extracted mode
	Backend Backend
	Logger  *zap.Logger
	Metrics *metrics.Collector
}

// Activator activates libraries at most once per name
type Activator struct {
	mode    Mode
	dir     string
	backend Backend
	logger  *zap.Logger
	metrics *metrics.Collector

	mu    sync.Mutex
	libs  map[string]Library
	order []string
}

// New creates an Activator
func New(opts Options) *Activator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Activator{
		mode:    opts.Mode,
		dir:     opts.Dir,
		backend: opts.Backend,
		logger:  logger,
		metrics: opts.Metrics,
		libs:    make(map[string]Library),
	}
}

// Mode returns the activation mode
func (a *Activator) Mode() Mode { return a.mode }

// Activate loads name unless it is already active
func (a *Activator) Activate(ctx context.Context, name string) error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if _, ok := a.libs[name]; ok {
		a.logger.Debug("library already active", zap.String("library", name))
		return nil
	}
	if a.backend == nil {
		return errors.NotInitialized(errors.PhaseActivate, "library backend")
	}

	lib, err := a.open(ctx, name)
	a.metrics.RecordActivation(a.mode.String(), err)
	if err != nil {
		return err
	}

	a.libs[name] = lib
	a.order = append(a.order, name)
	a.logger.Info("library activated",
		zap.String("library", name),
		zap.String("path", lib.Path()),
		zap.Stringer("mode", a.mode),
		zap.String("backend", a.backend.Name()))
	return nil
}

func (a *Activator) open(ctx context.Context, name string) (Library, error) {
	switch a.mode {
	case Extracted:
		path := filepath.Join(a.dir, name)
		lib, err := a.backend.Open(ctx, path)
		if err != nil {
			return nil, errors.LoadFailed(name, path, err)
		}
		return lib, nil
	case SearchPath:
		logical, err := LogicalName(name)
		if err != nil {
			return nil, err
		}
		lib, err := a.backend.OpenSystem(ctx, logical)
		if err != nil {
			return nil, errors.LoadFailed(name, logical, err)
		}
		return lib, nil
	}
	return nil, errors.InvalidInput(errors.PhaseActivate, "unknown activation mode "+a.mode.String())
}

// Library returns an activated library by name
func (a *Activator) Library(name string) (Library, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	lib, ok := a.libs[name]
	return lib, ok
}

// Activated lists the active library names in activation order
func (a *Activator) Activated() []string {
	a.mu.Lock()
	defer a.mu.Unlock()
	out := make([]string, len(a.order))
	copy(out, a.order)
	return out
}

// Find returns the first active library among names that exports symbol.
// A nil names searches every active library in activation order.
func (a *Activator) Find(symbol string, names []string) (Library, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if names == nil {
		names = a.order
	}
	for _, n := range names {
		if lib, ok := a.libs[n]; ok && lib.Lookup(symbol) {
			return lib, true
		}
	}
	return nil, false
}

var libraryName = regexp.MustCompile(`^lib(\w+)\W.*$`)

// LogicalName returns the word characters following the "lib" prefix of a
// library file name, up to the first separator: "libfoo.so" and
// "libfoo-bar.so" both become "foo".
func LogicalName(name string) (string, error) {
	m := libraryName.FindStringSubmatch(name)
	if m == nil {
		return "", errors.NameUnresolvable(name)
	}
	return m[1], nil
}

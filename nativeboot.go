package nativeboot

import (
	"context"
	stderrors "errors"
	"sync"

	"github.com/wippyai/nativeboot/atexit"
	"github.com/wippyai/nativeboot/config"
	"github.com/wippyai/nativeboot/expr"
	"github.com/wippyai/nativeboot/loader"
	"github.com/wippyai/nativeboot/materialise"
)

// ErrAlreadyConstructed is returned by Setup once the process loader exists.
var ErrAlreadyConstructed = stderrors.New("nativeboot: loader already constructed")

var (
	mu       sync.Mutex
	options  loader.Options
	instance *loader.Loader
)

// Setup records the options used to construct the process loader. It must be
// called before the first Default, Initialize or Materialise.
func Setup(opts loader.Options) error {
	mu.Lock()
	defer mu.Unlock()
	if instance != nil {
		return ErrAlreadyConstructed
	}
	options = opts
	return nil
}

// Default returns the process loader, constructing it on first use. Settings
// left empty are read from the environment.
func Default() *loader.Loader {
	mu.Lock()
	defer mu.Unlock()
	if instance == nil {
		opts := options
		if opts.Settings == (config.Settings{}) {
			opts.Settings = config.SettingsFromEnv()
		}
		instance = loader.New(opts)
	}
	return instance
}

// Initialize loads the native engine unless it is already loaded
func Initialize(ctx context.Context) error {
	return Default().Initialize(ctx)
}

// Materialise evaluates root on the engine, initializing it first if needed
func Materialise(ctx context.Context, root *expr.Node) (int64, error) {
	mu.Lock()
	logger := options.Logger
	mu.Unlock()
	return materialise.New(Default(), logger).Materialise(ctx, root)
}

// Shutdown removes every file extracted by the process loader. Loaded
// libraries stay mapped.
func Shutdown() error {
	mu.Lock()
	cleanup := options.Cleanup
	mu.Unlock()
	if cleanup == nil {
		cleanup = atexit.Default()
	}
	return cleanup.Run()
}

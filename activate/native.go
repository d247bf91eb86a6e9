//go:build ((linux || freebsd || darwin) && (amd64 || arm64) && !cgo) || (windows && amd64)

package activate

import (
	"bytes"
	"context"
	"fmt"
	"runtime"
	"sync"
	"unsafe"

	"github.com/go-webgpu/goffi/ffi"
	"github.com/go-webgpu/goffi/types"
	"go.uber.org/zap"

	"github.com/wippyai/nativeboot/errors"
	"github.com/wippyai/nativeboot/platform"
)

// NativeAvailable reports whether this build can open shared libraries
const NativeAvailable = true

// NativeBackend opens shared libraries through the host dynamic loader
type NativeBackend struct {
	logger *zap.Logger
}

// NewNativeBackend creates a NativeBackend
func NewNativeBackend(logger *zap.Logger) *NativeBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NativeBackend{logger: logger}
}

func (b *NativeBackend) Name() string { return "native" }

func (b *NativeBackend) Open(_ context.Context, path string) (Library, error) {
	return b.load(path, path)
}

func (b *NativeBackend) OpenSystem(_ context.Context, logical string) (Library, error) {
	tag, err := platform.Host()
	if err != nil {
		return nil, err
	}
	return b.load(logical, tag.LibraryFileName(logical))
}

func (b *NativeBackend) load(name, file string) (lib Library, err error) {
	// the loader can panic on malformed images
	defer func() {
		if r := recover(); r != nil {
			lib = nil
			err = fmt.Errorf("dynamic loader panic: %v", r)
		}
	}()

	handle, err := ffi.LoadLibrary(file)
	if err != nil {
		return nil, err
	}
	b.logger.Debug("shared library opened", zap.String("library", name), zap.String("file", file))
	return &nativeLibrary{
		name:    name,
		path:    file,
		handle:  handle,
		symbols: make(map[string]unsafe.Pointer),
	}, nil
}

type nativeLibrary struct {
	name   string
	path   string
	handle unsafe.Pointer

	mu      sync.Mutex
	symbols map[string]unsafe.Pointer
}

func (l *nativeLibrary) Name() string { return l.name }
func (l *nativeLibrary) Path() string { return l.path }

func (l *nativeLibrary) Lookup(symbol string) bool {
	return l.symbol(symbol) != nil
}

func (l *nativeLibrary) symbol(name string) unsafe.Pointer {
	l.mu.Lock()
	defer l.mu.Unlock()
	if p, ok := l.symbols[name]; ok {
		return p
	}
	p, err := ffi.GetSymbol(l.handle, name)
	if err != nil {
		p = nil
	}
	l.symbols[name] = p
	return p
}

func (l *nativeLibrary) Call(ctx context.Context, symbol string, args ...uint64) (uint64, error) {
	fn := l.symbol(symbol)
	if fn == nil {
		return 0, errors.SymbolMissing(errors.PhaseActivate, l.name, symbol)
	}

	argTypes := make([]*types.TypeDescriptor, len(args))
	avalue := make([]unsafe.Pointer, len(args))
	for i := range args {
		argTypes[i] = types.UInt64TypeDescriptor
		avalue[i] = unsafe.Pointer(&args[i])
	}

	var cif types.CallInterface
	if err := ffi.PrepareCallInterface(&cif, types.DefaultCall, types.UInt64TypeDescriptor, argTypes); err != nil {
		return 0, fmt.Errorf("prepare %s: %w", symbol, err)
	}

	var ret uint64
	if err := ffi.CallFunctionContext(ctx, &cif, fn, unsafe.Pointer(&ret), avalue); err != nil {
		return 0, fmt.Errorf("call %s: %w", symbol, err)
	}
	return ret, nil
}

// WriteBuffer pins a private copy of data and hands out its address
func (l *nativeLibrary) WriteBuffer(_ context.Context, data []byte) (uint64, func(context.Context), error) {
	if len(data) == 0 {
		return 0, func(context.Context) {}, nil
	}
	buf := bytes.Clone(data)
	var pin runtime.Pinner
	pin.Pin(&buf[0])
	return uint64(uintptr(unsafe.Pointer(&buf[0]))), func(context.Context) { pin.Unpin() }, nil
}

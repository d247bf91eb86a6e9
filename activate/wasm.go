package activate

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"go.uber.org/zap"

	"github.com/wippyai/nativeboot/errors"
)

// EnvWasmPath lists directories searched for WebAssembly engine variants
// in search-path mode, separated like PATH.
const EnvWasmPath = "NATIVEBOOT_WASM_PATH"

// WasmSearchPathFromEnv splits EnvWasmPath
func WasmSearchPathFromEnv() []string {
	return filepath.SplitList(os.Getenv(EnvWasmPath))
}

// WasmConfig configures a WasmBackend
type WasmConfig struct {
	// SearchPath is scanned in order for lib<logical>.wasm
	SearchPath []string

	// MemoryLimitPages caps each library's memory in 64KB pages. 0 means default.
	MemoryLimitPages uint32

	Logger *zap.Logger
}

// WasmBackend runs engine variants compiled to WebAssembly.
// All libraries share one wazero runtime.
type WasmBackend struct {
	runtime    wazero.Runtime
	searchPath []string
	logger     *zap.Logger

	mu     sync.Mutex
	closed bool
}

// NewWasmBackend creates a WasmBackend. A nil cfg reads the search path from
// the environment.
func NewWasmBackend(ctx context.Context, cfg *WasmConfig) *WasmBackend {
	if cfg == nil {
		cfg = &WasmConfig{SearchPath: WasmSearchPathFromEnv()}
	}

	runtimeCfg := wazero.NewRuntimeConfig()
	if cfg.MemoryLimitPages > 0 {
		runtimeCfg = runtimeCfg.WithMemoryLimitPages(cfg.MemoryLimitPages)
	}

	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &WasmBackend{
		runtime:    wazero.NewRuntimeWithConfig(ctx, runtimeCfg),
		searchPath: cfg.SearchPath,
		logger:     logger,
	}
}

func (b *WasmBackend) Name() string { return "wasm" }

// Open compiles and instantiates the module at path
func (b *WasmBackend) Open(ctx context.Context, path string) (Library, error) {
	return b.open(ctx, filepath.Base(path), path)
}

// OpenSystem looks for lib<logical>.wasm on the search path
func (b *WasmBackend) OpenSystem(ctx context.Context, logical string) (Library, error) {
	file := "lib" + logical + ".wasm"
	for _, dir := range b.searchPath {
		if dir == "" {
			continue
		}
		p := filepath.Join(dir, file)
		if _, err := os.Stat(p); err == nil {
			return b.open(ctx, logical, p)
		}
	}
	return nil, fmt.Errorf("%s not found on %s %v", file, EnvWasmPath, b.searchPath)
}

func (b *WasmBackend) open(ctx context.Context, name, path string) (Library, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil, fmt.Errorf("wasm backend closed")
	}

	wasmBytes, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	compiled, err := b.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("compile failed: %w", err)
	}

	// anonymous so a retried initialization can instantiate the same file again
	mod, err := b.runtime.InstantiateModule(ctx, compiled, wazero.NewModuleConfig().WithName(""))
	if err != nil {
		return nil, fmt.Errorf("instantiate failed: %w", err)
	}

	b.logger.Debug("wasm library instantiated",
		zap.String("library", name),
		zap.String("path", path),
		zap.Int("exports", len(compiled.ExportedFunctions())))
	return &wasmLibrary{name: name, path: path, mod: mod}, nil
}

// Close releases every instantiated library
func (b *WasmBackend) Close(ctx context.Context) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return nil
	}
	b.closed = true
	return b.runtime.Close(ctx)
}

type wasmLibrary struct {
	name string
	path string
	mod  api.Module
}

func (l *wasmLibrary) Name() string { return l.name }
func (l *wasmLibrary) Path() string { return l.path }

func (l *wasmLibrary) Lookup(symbol string) bool {
	return l.mod.ExportedFunction(symbol) != nil
}

func (l *wasmLibrary) Call(ctx context.Context, symbol string, args ...uint64) (uint64, error) {
	fn := l.mod.ExportedFunction(symbol)
	if fn == nil {
		return 0, errors.SymbolMissing(errors.PhaseActivate, l.name, symbol)
	}
	results, err := fn.Call(ctx, args...)
	if err != nil {
		return 0, fmt.Errorf("call %s: %w", symbol, err)
	}
	if len(results) == 0 {
		return 0, nil
	}
	return results[0], nil
}

// WriteBuffer copies data into memory obtained from nativeboot_alloc.
// release hands it back through nativeboot_free when the module exports it.
func (l *wasmLibrary) WriteBuffer(ctx context.Context, data []byte) (uint64, func(context.Context), error) {
	mem := l.mod.Memory()
	if mem == nil {
		return 0, nil, fmt.Errorf("library %s exports no memory", l.name)
	}
	alloc := l.mod.ExportedFunction(SymbolAlloc)
	if alloc == nil {
		return 0, nil, errors.SymbolMissing(errors.PhaseMaterialise, l.name, SymbolAlloc)
	}

	size := uint64(len(data))
	results, err := alloc.Call(ctx, size)
	if err != nil {
		return 0, nil, fmt.Errorf("call %s: %w", SymbolAlloc, err)
	}
	if len(results) == 0 {
		return 0, nil, fmt.Errorf("%s returned no pointer", SymbolAlloc)
	}
	ptr := results[0]
	if ptr > uint64(^uint32(0)) || !mem.Write(uint32(ptr), data) {
		return 0, nil, fmt.Errorf("buffer of %d bytes at %#x is out of range", len(data), ptr)
	}

	release := func(ctx context.Context) {
		if free := l.mod.ExportedFunction(SymbolFree); free != nil {
			_, _ = free.Call(ctx, ptr, size)
		}
	}
	return ptr, release, nil
}

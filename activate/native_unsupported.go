//go:build !(((linux || freebsd || darwin) && (amd64 || arm64) && !cgo) || (windows && amd64))

package activate

import (
	"context"
	"fmt"
	"runtime"

	"go.uber.org/zap"
)

// NativeAvailable reports whether this build can open shared libraries
const NativeAvailable = false

// NativeBackend is unavailable in this build. Shared libraries are opened
// without cgo, so unix builds need CGO_ENABLED=0.
type NativeBackend struct {
	logger *zap.Logger
}

// NewNativeBackend creates a NativeBackend whose opens always fail
func NewNativeBackend(logger *zap.Logger) *NativeBackend {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NativeBackend{logger: logger}
}

func (b *NativeBackend) Name() string { return "native" }

func (b *NativeBackend) Open(context.Context, string) (Library, error) {
	return nil, errNativeUnavailable()
}

func (b *NativeBackend) OpenSystem(context.Context, string) (Library, error) {
	return nil, errNativeUnavailable()
}

func errNativeUnavailable() error {
	return fmt.Errorf("native libraries are not supported on %s/%s in this build (requires CGO_ENABLED=0)",
		runtime.GOOS, runtime.GOARCH)
}

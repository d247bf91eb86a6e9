package loader

import (
	"context"
	"strings"

	"github.com/wippyai/nativeboot/activate"
	"github.com/wippyai/nativeboot/errors"
)

// Capability is the loaded engine
type Capability struct {
	activator *activate.Activator
	libs      []string
}

// Capability returns the engine handle. It fails until Initialize succeeded.
func (l *Loader) Capability() (*Capability, error) {
	if !l.done.Load() {
		return nil, errors.NotInitialized(errors.PhaseMaterialise, "native engine")
	}
	return &Capability{activator: l.result.activator, libs: l.result.loadLibs}, nil
}

// Resolve returns the first loaded main library exporting symbol
func (c *Capability) Resolve(symbol string) (activate.Library, error) {
	lib, ok := c.activator.Find(symbol, c.libs)
	if !ok {
		return nil, errors.SymbolMissing(errors.PhaseMaterialise, strings.Join(c.libs, ","), symbol)
	}
	return lib, nil
}

// Invoke calls symbol on the first loaded main library that exports it
func (c *Capability) Invoke(ctx context.Context, symbol string, args ...uint64) (uint64, error) {
	lib, err := c.Resolve(symbol)
	if err != nil {
		return 0, err
	}
	return lib.Call(ctx, symbol, args...)
}

// Libraries lists the loaded main libraries
func (c *Capability) Libraries() []string {
	return append([]string(nil), c.libs...)
}

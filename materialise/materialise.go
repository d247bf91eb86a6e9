// Package materialise evaluates expression trees on the loaded native engine.
package materialise

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/wippyai/nativeboot/activate"
	"github.com/wippyai/nativeboot/errors"
	"github.com/wippyai/nativeboot/expr"
	"github.com/wippyai/nativeboot/loader"
)

// Materialiser hands expression trees to the engine
type Materialiser struct {
	engine *loader.Loader
	logger *zap.Logger
}

// New creates a Materialiser over engine
func New(engine *loader.Loader, logger *zap.Logger) *Materialiser {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Materialiser{engine: engine, logger: logger}
}

// Materialise initializes the engine if needed and evaluates root. It returns
// the engine status, which is never negative on success.
func (m *Materialiser) Materialise(ctx context.Context, root *expr.Node) (int64, error) {
	payload, err := expr.Encode(root)
	if err != nil {
		return 0, err
	}

	if err := m.engine.Initialize(ctx); err != nil {
		return 0, err
	}

	if ce := m.logger.Check(zap.DebugLevel, "expression tree"); ce != nil {
		var b strings.Builder
		_ = expr.PrintTree(&b, root)
		ce.Write(zap.String("tree", b.String()), zap.Int("bytes", len(payload)))
	}

	capability, err := m.engine.Capability()
	if err != nil {
		return 0, err
	}
	lib, err := capability.Resolve(activate.SymbolMaterialise)
	if err != nil {
		return 0, err
	}
	bw, ok := lib.(activate.BufferWriter)
	if !ok {
		return 0, errors.New(errors.PhaseMaterialise, errors.KindInvalidInput).
			Library(lib.Name()).
			Detail("library cannot receive expression buffers").
			Build()
	}

	ptr, release, err := bw.WriteBuffer(ctx, payload)
	if err != nil {
		return 0, errors.New(errors.PhaseMaterialise, errors.KindEngineFailed).
			Library(lib.Name()).
			Detail("copy expression into engine").
			Cause(err).
			Build()
	}
	defer release(ctx)

	ret, err := lib.Call(ctx, activate.SymbolMaterialise, ptr, uint64(len(payload)))
	if err != nil {
		return 0, errors.New(errors.PhaseMaterialise, errors.KindEngineFailed).
			Library(lib.Name()).
			Cause(err).
			Build()
	}
	status := int64(ret)
	if status < 0 {
		return status, errors.EngineFailed(lib.Name(), activate.SymbolMaterialise, status)
	}

	m.logger.Debug("expression materialised", zap.String("library", lib.Name()), zap.Int64("status", status))
	return status, nil
}

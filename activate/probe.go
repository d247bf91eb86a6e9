package activate

import (
	"context"
	"strings"

	"github.com/wippyai/nativeboot/errors"
	"github.com/wippyai/nativeboot/isa"
)

// Engine symbols
const (
	SymbolSupportedInstructionSet = "nativeboot_supported_instruction_set"
	SymbolMaterialise             = "nativeboot_materialise"
	SymbolAlloc                   = "nativeboot_alloc"
	SymbolFree                    = "nativeboot_free"
)

// Prober asks the first library among names that exports the instruction set
// probe. It must only be used after those libraries are active.
func (a *Activator) Prober(names []string) isa.Prober {
	return isa.ProberFunc(func(ctx context.Context) (isa.Tier, error) {
		lib, ok := a.Find(SymbolSupportedInstructionSet, names)
		if !ok {
			return 0, errors.SymbolMissing(errors.PhaseProbe, strings.Join(names, ","), SymbolSupportedInstructionSet)
		}
		code, err := lib.Call(ctx, SymbolSupportedInstructionSet)
		if err != nil {
			return 0, errors.New(errors.PhaseProbe, errors.KindProbeFailed).
				Library(lib.Name()).
				Cause(err).
				Detail("call %s", SymbolSupportedInstructionSet).
				Build()
		}
		return isa.FromCode(int64(code))
	})
}

package wasmgen

// Engine symbol names, mirrored from the activate package so the generator
// does not depend on it.
const (
	symbolProbe       = "nativeboot_supported_instruction_set"
	symbolMaterialise = "nativeboot_materialise"
	symbolAlloc       = "nativeboot_alloc"
	symbolFree        = "nativeboot_free"
)

// ScratchOffset is where nativeboot_alloc places every buffer
const ScratchOffset = 1024

// Bootstrap returns a bootstrap library whose probe reports tierCode
func Bootstrap(tierCode int64) []byte {
	m := &Module{Funcs: []Func{{
		Export:  symbolProbe,
		Results: []ValType{I64},
		Body:    I64Const(tierCode),
	}}}
	return m.Encode()
}

// Engine returns an engine library. nativeboot_materialise(ptr, len) answers
// with len plus the first byte of the payload, which lets callers see that
// the bytes arrived. A payload of length zero answers -1.
func Engine() []byte {
	m := &Module{
		MemoryPages:  1,
		MemoryExport: "memory",
		Funcs: []Func{
			{
				Export:  symbolAlloc,
				Params:  []ValType{I64},
				Results: []ValType{I64},
				Body:    I64Const(ScratchOffset),
			},
			{
				Export: symbolFree,
				Params: []ValType{I64, I64},
			},
			{
				Export:  symbolMaterialise,
				Params:  []ValType{I64, I64},
				Results: []ValType{I64},
				Body:    materialiseBody(),
			},
		},
	}
	return m.Encode()
}

// Library returns a module with no engine symbols, standing in for a
// dependency that is extracted but never probed.
func Library() []byte {
	m := &Module{Funcs: []Func{{
		Export:  "nativeboot_version",
		Results: []ValType{I64},
		Body:    I64Const(1),
	}}}
	return m.Encode()
}

func materialiseBody() []byte {
	// if len == 0 { return -1 }; return len + mem[ptr]
	return Code(
		LocalGet(1),
		[]byte{OpI64Eqz, OpIf, BlockEmpty},
		I64Const(-1),
		[]byte{OpReturn, OpEnd},
		LocalGet(1),
		LocalGet(0),
		LoadByte(),
		[]byte{OpI64Add},
	)
}

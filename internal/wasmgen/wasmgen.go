// Package wasmgen builds small WebAssembly modules that stand in for engine
// libraries. Only the sections an engine variant needs are supported: types,
// functions, one memory and exports.
package wasmgen

const (
	magic   = 0x6d736100
	version = 1

	sectionType     = 1
	sectionFunction = 3
	sectionMemory   = 5
	sectionExport   = 7
	sectionCode     = 10

	exportFunc   = 0x00
	exportMemory = 0x02

	funcTypeByte = 0x60
)

// ValType is a WebAssembly value type
type ValType byte

const (
	I32 ValType = 0x7f
	I64 ValType = 0x7e
)

// Opcodes used by engine stubs
const (
	OpIf       = 0x04
	OpEnd      = 0x0b
	OpReturn   = 0x0f
	OpLocalGet = 0x20
	OpI64Load8 = 0x31 // i64.load8_u
	OpI64Const = 0x42
	OpI64Eqz   = 0x50
	OpI64Add   = 0x7c
	OpI32Wrap  = 0xa7 // i32.wrap_i64

	BlockEmpty = 0x40
)

// Func is one function. An empty Export keeps it private.
type Func struct {
	Export  string
	Params  []ValType
	Results []ValType
	Locals  []ValType
	Body    []byte // instructions without the trailing end
}

// Module is a module description
type Module struct {
	Funcs []Func

	// MemoryPages adds a memory of this many 64KB pages when non-zero
	MemoryPages uint32
	// MemoryExport names the exported memory; empty keeps it private
	MemoryExport string
}

// Encode returns the binary form of m
func (m *Module) Encode() []byte {
	w := &writer{}
	w.WriteU32LE(magic)
	w.WriteU32LE(version)

	if len(m.Funcs) > 0 {
		sec := &writer{}
		sec.WriteU32(uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			sec.Byte(funcTypeByte)
			writeValTypes(sec, f.Params)
			writeValTypes(sec, f.Results)
		}
		w.section(sectionType, sec.Bytes())

		// one type per function
		sec = &writer{}
		sec.WriteU32(uint32(len(m.Funcs)))
		for i := range m.Funcs {
			sec.WriteU32(uint32(i))
		}
		w.section(sectionFunction, sec.Bytes())
	}

	if m.MemoryPages > 0 {
		sec := &writer{}
		sec.WriteU32(1)
		sec.Byte(0x00) // min only
		sec.WriteU32(m.MemoryPages)
		w.section(sectionMemory, sec.Bytes())
	}

	var exports []export
	for i, f := range m.Funcs {
		if f.Export != "" {
			exports = append(exports, export{name: f.Export, kind: exportFunc, idx: uint32(i)})
		}
	}
	if m.MemoryPages > 0 && m.MemoryExport != "" {
		exports = append(exports, export{name: m.MemoryExport, kind: exportMemory})
	}
	if len(exports) > 0 {
		sec := &writer{}
		sec.WriteU32(uint32(len(exports)))
		for _, e := range exports {
			sec.WriteName(e.name)
			sec.Byte(e.kind)
			sec.WriteU32(e.idx)
		}
		w.section(sectionExport, sec.Bytes())
	}

	if len(m.Funcs) > 0 {
		sec := &writer{}
		sec.WriteU32(uint32(len(m.Funcs)))
		for _, f := range m.Funcs {
			body := &writer{}
			body.WriteU32(uint32(len(f.Locals)))
			for _, l := range f.Locals {
				body.WriteU32(1)
				body.Byte(byte(l))
			}
			body.WriteBytes(f.Body)
			body.Byte(OpEnd)
			sec.WriteU32(uint32(len(body.Bytes())))
			sec.WriteBytes(body.Bytes())
		}
		w.section(sectionCode, sec.Bytes())
	}

	return w.Bytes()
}

type export struct {
	name string
	kind byte
	idx  uint32
}

func writeValTypes(w *writer, types []ValType) {
	w.WriteU32(uint32(len(types)))
	for _, t := range types {
		w.Byte(byte(t))
	}
}

// Code concatenates instruction fragments
func Code(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

// I64Const pushes v
func I64Const(v int64) []byte {
	w := &writer{}
	w.Byte(OpI64Const)
	w.WriteS64(v)
	return w.Bytes()
}

// LocalGet pushes local idx
func LocalGet(idx uint32) []byte {
	w := &writer{}
	w.Byte(OpLocalGet)
	w.WriteU32(idx)
	return w.Bytes()
}

// LoadByte replaces the i64 address on the stack with the byte stored there
func LoadByte() []byte {
	return []byte{OpI32Wrap, OpI64Load8, 0x00, 0x00}
}

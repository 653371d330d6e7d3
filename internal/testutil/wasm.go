// Package testutil provides test helpers shared across packages, including a
// small assembler for WebAssembly fixtures.
package testutil

// Value types.
const (
	I32 byte = 0x7f
	I64 byte = 0x7e
)

// Opcodes used by fixtures.
const (
	OpUnreachable  byte = 0x00
	OpCall         byte = 0x10
	OpDrop         byte = 0x1a
	OpLocalGet     byte = 0x20
	OpI32Const     byte = 0x41
	OpI64Const     byte = 0x42
	OpI64Or        byte = 0x84
	OpI64Shl       byte = 0x86
	OpI64ExtendI32 byte = 0xad
	opEnd          byte = 0x0b
)

// WasmImport is an imported host function.
type WasmImport struct {
	Module  string
	Name    string
	Params  []byte
	Results []byte
}

// WasmFunc is a function defined by the module. Body holds the instructions
// without the trailing end opcode. Functions with an empty Export are not exported.
type WasmFunc struct {
	Export  string
	Params  []byte
	Results []byte
	Body    []byte
}

// WasmData is an active data segment in memory 0.
type WasmData struct {
	Offset uint32
	Bytes  []byte
}

// WasmModule describes a module to assemble. When MemoryPages is non-zero the
// module defines one memory exported as "memory".
type WasmModule struct {
	Imports     []WasmImport
	Funcs       []WasmFunc
	Data        []WasmData
	MemoryPages uint32
}

// FuncIndex returns the function index of the i-th defined function.
func (m WasmModule) FuncIndex(i int) uint32 {
	return uint32(len(m.Imports) + i)
}

// Encode returns the binary encoding of the module.
func (m WasmModule) Encode() []byte {
	out := []byte{0x00, 'a', 's', 'm', 0x01, 0x00, 0x00, 0x00}

	var types [][]byte
	for _, imp := range m.Imports {
		types = append(types, funcType(imp.Params, imp.Results))
	}
	for _, fn := range m.Funcs {
		types = append(types, funcType(fn.Params, fn.Results))
	}
	if len(types) > 0 {
		out = append(out, section(1, vec(types))...)
	}

	if len(m.Imports) > 0 {
		var imports [][]byte
		for i, imp := range m.Imports {
			entry := cat(name(imp.Module), name(imp.Name), []byte{0x00}, uleb(uint32(i)))
			imports = append(imports, entry)
		}
		out = append(out, section(2, vec(imports))...)
	}

	if len(m.Funcs) > 0 {
		var funcs [][]byte
		for i := range m.Funcs {
			funcs = append(funcs, uleb(m.FuncIndex(i)))
		}
		out = append(out, section(3, vec(funcs))...)
	}

	if m.MemoryPages > 0 {
		out = append(out, section(5, vec([][]byte{cat([]byte{0x00}, uleb(m.MemoryPages))}))...)
	}

	var exports [][]byte
	for i, fn := range m.Funcs {
		if fn.Export != "" {
			exports = append(exports, cat(name(fn.Export), []byte{0x00}, uleb(m.FuncIndex(i))))
		}
	}
	if m.MemoryPages > 0 {
		exports = append(exports, cat(name("memory"), []byte{0x02}, uleb(0)))
	}
	if len(exports) > 0 {
		out = append(out, section(7, vec(exports))...)
	}

	if len(m.Funcs) > 0 {
		var bodies [][]byte
		for _, fn := range m.Funcs {
			body := cat(uleb(0), fn.Body, []byte{opEnd})
			bodies = append(bodies, cat(uleb(uint32(len(body))), body))
		}
		out = append(out, section(10, vec(bodies))...)
	}

	if len(m.Data) > 0 {
		var segments [][]byte
		for _, d := range m.Data {
			offset := cat(I32Const(int32(d.Offset)), []byte{opEnd})
			segments = append(segments, cat([]byte{0x00}, offset, uleb(uint32(len(d.Bytes))), d.Bytes))
		}
		out = append(out, section(11, vec(segments))...)
	}

	return out
}

// I32Const encodes i32.const v.
func I32Const(v int32) []byte {
	return cat([]byte{OpI32Const}, sleb(int64(v)))
}

// I64Const encodes i64.const v.
func I64Const(v int64) []byte {
	return cat([]byte{OpI64Const}, sleb(v))
}

// LocalGet encodes local.get idx.
func LocalGet(idx uint32) []byte {
	return cat([]byte{OpLocalGet}, uleb(idx))
}

// Call encodes call idx.
func Call(idx uint32) []byte {
	return cat([]byte{OpCall}, uleb(idx))
}

// PackLocals packs the (ptr, len) i32 parameters 0 and 1 into one i64.
func PackLocals() []byte {
	return cat(
		LocalGet(0), []byte{OpI64ExtendI32}, I64Const(32), []byte{OpI64Shl},
		LocalGet(1), []byte{OpI64ExtendI32},
		[]byte{OpI64Or},
	)
}

// Pack returns (ptr << 32) | length.
func Pack(ptr, length uint32) int64 {
	return int64(uint64(ptr)<<32 | uint64(length))
}

// Ops concatenates instruction sequences.
func Ops(parts ...[]byte) []byte {
	return cat(parts...)
}

func funcType(params, results []byte) []byte {
	return cat([]byte{0x60}, uleb(uint32(len(params))), params, uleb(uint32(len(results))), results)
}

func section(id byte, contents []byte) []byte {
	return cat([]byte{id}, uleb(uint32(len(contents))), contents)
}

func vec(items [][]byte) []byte {
	return cat(append([][]byte{uleb(uint32(len(items)))}, items...)...)
}

func name(s string) []byte {
	return cat(uleb(uint32(len(s))), []byte(s))
}

func cat(parts ...[]byte) []byte {
	var out []byte
	for _, p := range parts {
		out = append(out, p...)
	}
	return out
}

func uleb(v uint32) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v == 0 {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

func sleb(v int64) []byte {
	var out []byte
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0) {
			return append(out, b)
		}
		out = append(out, b|0x80)
	}
}

package host_test

import (
	"github.com/reglet-dev/wasm-bootstrap/internal/testutil"
)

const argumentOffset = 1024

var (
	entryParams = []byte{testutil.I32, testutil.I32}

	allocateFunc = testutil.WasmFunc{
		Export:  "allocate",
		Params:  []byte{testutil.I32},
		Results: []byte{testutil.I32},
		Body:    testutil.I32Const(argumentOffset),
	}
)

// okModule exports a run that returns nothing.
func okModule() []byte {
	return testutil.WasmModule{
		MemoryPages: 1,
		Funcs: []testutil.WasmFunc{
			allocateFunc,
			{Export: "run", Params: entryParams},
		},
	}.Encode()
}

// echoModule reports the argument it received back as a plain-text failure.
func echoModule() []byte {
	return testutil.WasmModule{
		MemoryPages: 1,
		Funcs: []testutil.WasmFunc{
			allocateFunc,
			{Export: "run", Params: entryParams, Results: []byte{testutil.I64}, Body: testutil.PackLocals()},
		},
	}.Encode()
}

// trapModule traps inside run.
func trapModule() []byte {
	return testutil.WasmModule{
		MemoryPages: 1,
		Funcs: []testutil.WasmFunc{
			allocateFunc,
			{Export: "run", Params: entryParams, Body: []byte{testutil.OpUnreachable}},
		},
	}.Encode()
}

// failingModule returns payload from its data segment as the failure detail.
func failingModule(payload string) []byte {
	const offset = 4096
	return testutil.WasmModule{
		MemoryPages: 1,
		Data:        []testutil.WasmData{{Offset: offset, Bytes: []byte(payload)}},
		Funcs: []testutil.WasmFunc{
			allocateFunc,
			{
				Export:  "run",
				Params:  entryParams,
				Results: []byte{testutil.I64},
				Body:    testutil.I64Const(testutil.Pack(offset, uint32(len(payload)))),
			},
		},
	}.Encode()
}

// loggingModule sends payload to the host's log_message from its entry export.
func loggingModule(hostModule, entry, payload string) []byte {
	const offset = 2048
	mod := testutil.WasmModule{
		MemoryPages: 1,
		Imports: []testutil.WasmImport{
			{Module: hostModule, Name: "log_message", Params: []byte{testutil.I64}},
		},
		Data: []testutil.WasmData{{Offset: offset, Bytes: []byte(payload)}},
	}
	mod.Funcs = []testutil.WasmFunc{
		allocateFunc,
		{
			Export: entry,
			Params: entryParams,
			Body: testutil.Ops(
				testutil.I64Const(testutil.Pack(offset, uint32(len(payload)))),
				testutil.Call(0),
			),
		},
	}
	return mod.Encode()
}

// noEntryModule has memory and allocate but no run export.
func noEntryModule() []byte {
	return testutil.WasmModule{
		MemoryPages: 1,
		Funcs:       []testutil.WasmFunc{allocateFunc},
	}.Encode()
}

// badSignatureModule exports run with no parameters.
func badSignatureModule() []byte {
	return testutil.WasmModule{
		MemoryPages: 1,
		Funcs: []testutil.WasmFunc{
			allocateFunc,
			{Export: "run"},
		},
	}.Encode()
}

// initTrapModule traps in _initialize.
func initTrapModule() []byte {
	return testutil.WasmModule{
		MemoryPages: 1,
		Funcs: []testutil.WasmFunc{
			allocateFunc,
			{Export: "_initialize", Body: []byte{testutil.OpUnreachable}},
			{Export: "run", Params: entryParams},
		},
	}.Encode()
}

// bareModule exports run but neither memory nor allocate.
func bareModule() []byte {
	return testutil.WasmModule{
		Funcs: []testutil.WasmFunc{
			{Export: "run", Params: entryParams},
		},
	}.Encode()
}

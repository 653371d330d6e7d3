package host

import (
	"context"
	"fmt"
	"sort"

	"github.com/tetratelabs/wazero/api"
)

// FunctionInfo describes an imported or exported function.
type FunctionInfo struct {
	Module  string   `json:"module,omitempty" yaml:"module,omitempty"`
	Name    string   `json:"name" yaml:"name"`
	Params  []string `json:"params" yaml:"params"`
	Results []string `json:"results" yaml:"results"`
}

// ModuleInfo summarizes a compiled module against the guest ABI.
type ModuleInfo struct {
	Exports  []FunctionInfo `json:"exports" yaml:"exports"`
	Imports  []FunctionInfo `json:"imports" yaml:"imports"`
	Memories []string       `json:"memories" yaml:"memories"`
	Problems []string       `json:"problems,omitempty" yaml:"problems,omitempty"`
}

// Compatible reports whether the module satisfies the guest ABI.
func (i *ModuleInfo) Compatible() bool {
	return len(i.Problems) == 0
}

// Inspect compiles wasmBytes without instantiating it and reports its
// imports, exports and any ABI problems.
func (e *Executor) Inspect(ctx context.Context, wasmBytes []byte) (*ModuleInfo, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}
	defer compiled.Close(ctx)

	info := &ModuleInfo{}
	exports := compiled.ExportedFunctions()
	for name, def := range exports {
		info.Exports = append(info.Exports, describe("", name, def))
	}
	sort.Slice(info.Exports, func(a, b int) bool { return info.Exports[a].Name < info.Exports[b].Name })

	for _, def := range compiled.ImportedFunctions() {
		module, name, _ := def.Import()
		info.Imports = append(info.Imports, describe(module, name, def))
	}

	for name := range compiled.ExportedMemories() {
		info.Memories = append(info.Memories, name)
	}
	sort.Strings(info.Memories)

	if def, ok := exports[e.entryPoint]; !ok {
		info.Problems = append(info.Problems, fmt.Sprintf("module does not export %q", e.entryPoint))
	} else if err := checkEntrySignature(e.entryPoint, def); err != nil {
		info.Problems = append(info.Problems, err.Error())
	}
	if _, ok := exports["allocate"]; !ok {
		info.Problems = append(info.Problems, "module does not export \"allocate\"")
	}
	if len(info.Memories) == 0 {
		info.Problems = append(info.Problems, "module does not export a memory")
	}
	for _, imp := range info.Imports {
		if imp.Module != e.hostModule && imp.Module != "wasi_snapshot_preview1" {
			info.Problems = append(info.Problems, fmt.Sprintf("unresolved import %s.%s", imp.Module, imp.Name))
		}
	}

	return info, nil
}

func describe(module, name string, def api.FunctionDefinition) FunctionInfo {
	fi := FunctionInfo{Module: module, Name: name, Params: []string{}, Results: []string{}}
	for _, t := range def.ParamTypes() {
		fi.Params = append(fi.Params, api.ValueTypeName(t))
	}
	for _, t := range def.ResultTypes() {
		fi.Results = append(fi.Results, api.ValueTypeName(t))
	}
	return fi
}

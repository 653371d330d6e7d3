package host

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/reglet-dev/wasm-bootstrap/domain/entities"
	"github.com/reglet-dev/wasm-bootstrap/domain/errors"
	"github.com/tetratelabs/wazero"
	"github.com/tetratelabs/wazero/api"
	"github.com/tetratelabs/wazero/imports/wasi_snapshot_preview1"
)

// Executor owns a wazero runtime and loads modules into it.
type Executor struct {
	runtime wazero.Runtime
	cache   wazero.CompilationCache
	logger  *slog.Logger

	hostModule       string
	entryPoint       string
	stdout           io.Writer
	stderr           io.Writer
	memoryLimitPages uint32
	cacheDir         string
}

// NewExecutor creates a new executor with the given options.
func NewExecutor(ctx context.Context, opts ...Option) (*Executor, error) {
	e := &Executor{
		logger:     slog.Default(),
		hostModule: DefaultHostModule,
		entryPoint: entities.DefaultEntryPoint,
		stdout:     os.Stdout,
		stderr:     os.Stderr,
	}
	for _, opt := range opts {
		opt(e)
	}

	rtConfig := wazero.NewRuntimeConfig().WithCloseOnContextDone(true)
	if e.memoryLimitPages > 0 {
		rtConfig = rtConfig.WithMemoryLimitPages(e.memoryLimitPages)
	}
	if e.cacheDir != "" {
		cache, err := wazero.NewCompilationCacheWithDir(e.cacheDir)
		if err != nil {
			return nil, fmt.Errorf("failed to open compilation cache: %w", err)
		}
		e.cache = cache
		rtConfig = rtConfig.WithCompilationCache(cache)
	}

	rt := wazero.NewRuntimeWithConfig(ctx, rtConfig)
	if _, err := wasi_snapshot_preview1.Instantiate(ctx, rt); err != nil {
		e.closeAll(ctx, rt)
		return nil, fmt.Errorf("failed to instantiate WASI: %w", err)
	}
	e.runtime = rt

	if err := e.registerHostFunctions(ctx); err != nil {
		e.closeAll(ctx, rt)
		return nil, fmt.Errorf("failed to register host functions: %w", err)
	}

	return e, nil
}

// Close releases resources held by the executor, including every module it loaded.
func (e *Executor) Close(ctx context.Context) error {
	return e.closeAll(ctx, e.runtime)
}

func (e *Executor) closeAll(ctx context.Context, rt wazero.Runtime) error {
	var err error
	if rt != nil {
		err = rt.Close(ctx)
	}
	if e.cache != nil {
		if cerr := e.cache.Close(ctx); cerr != nil && err == nil {
			err = cerr
		}
	}
	return err
}

// ModuleInstance represents an instantiated WASM module.
// It implements ports.Module and ports.ModuleCloser.
type ModuleInstance struct {
	module     api.Module
	compiled   wazero.CompiledModule
	entryPoint string
}

// LoadModule compiles and instantiates a WASM module. WASI start functions are
// not run; a reactor's _initialize export is called when present. The entry
// export must exist and have a supported signature.
func (e *Executor) LoadModule(ctx context.Context, wasmBytes []byte) (*ModuleInstance, error) {
	compiled, err := e.runtime.CompileModule(ctx, wasmBytes)
	if err != nil {
		return nil, fmt.Errorf("failed to compile module: %w", err)
	}

	def, ok := compiled.ExportedFunctions()[e.entryPoint]
	if !ok {
		compiled.Close(ctx)
		return nil, fmt.Errorf("module does not export %q", e.entryPoint)
	}
	if err := checkEntrySignature(e.entryPoint, def); err != nil {
		compiled.Close(ctx)
		return nil, err
	}

	cfg := wazero.NewModuleConfig().
		WithName("").
		WithStartFunctions().
		WithStdout(e.stdout).
		WithStderr(e.stderr).
		WithSysWalltime().
		WithSysNanotime().
		WithRandSource(rand.Reader)

	mod, err := e.runtime.InstantiateModule(ctx, compiled, cfg)
	if err != nil {
		compiled.Close(ctx)
		return nil, fmt.Errorf("failed to instantiate module: %w", err)
	}

	if init := mod.ExportedFunction("_initialize"); init != nil {
		if _, err := init.Call(ctx); err != nil {
			mod.Close(ctx)
			compiled.Close(ctx)
			return nil, fmt.Errorf("failed to call _initialize: %w", err)
		}
	}

	e.logger.DebugContext(ctx, "module loaded", "entry", e.entryPoint)
	return &ModuleInstance{module: mod, compiled: compiled, entryPoint: e.entryPoint}, nil
}

// Run calls the entry export with argument. Traps and ABI problems are
// returned as wrapped errors; a failure reported by the guest is returned as
// *errors.GuestError.
func (p *ModuleInstance) Run(ctx context.Context, argument string) error {
	packed, err := p.callRaw(ctx, p.entryPoint, []byte(argument))
	if err != nil {
		return err
	}
	if packed == 0 {
		return nil
	}

	detail, err := p.decodeErrorDetail(packed)
	if err != nil {
		return err
	}
	return &errors.GuestError{Export: p.entryPoint, Detail: detail}
}

// Close releases the module instance.
func (p *ModuleInstance) Close(ctx context.Context) error {
	err := p.module.Close(ctx)
	if cerr := p.compiled.Close(ctx); cerr != nil && err == nil {
		err = cerr
	}
	return err
}

package host

import (
	"io"
	"log/slog"
)

// DefaultHostModule is the name guests import host functions from.
const DefaultHostModule = "bootstrap_host"

// Option defines a functional option for configuring the Executor.
type Option func(*Executor)

// WithLogger sets the logger that receives guest log records and executor diagnostics.
func WithLogger(logger *slog.Logger) Option {
	return func(e *Executor) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithHostModuleName sets the module name host functions are exported under.
func WithHostModuleName(name string) Option {
	return func(e *Executor) {
		e.hostModule = name
	}
}

// WithEntryPoint sets the export invoked by ModuleInstance.Run (default "run").
func WithEntryPoint(name string) Option {
	return func(e *Executor) {
		e.entryPoint = name
	}
}

// WithStdout sets where guest writes to WASI stdout go.
func WithStdout(w io.Writer) Option {
	return func(e *Executor) {
		e.stdout = w
	}
}

// WithStderr sets where guest writes to WASI stderr go.
func WithStderr(w io.Writer) Option {
	return func(e *Executor) {
		e.stderr = w
	}
}

// WithMemoryLimitPages caps guest memory in 64KiB pages. Zero keeps the wazero default.
func WithMemoryLimitPages(pages uint32) Option {
	return func(e *Executor) {
		e.memoryLimitPages = pages
	}
}

// WithCompilationCache persists compiled modules under dir.
func WithCompilationCache(dir string) Option {
	return func(e *Executor) {
		e.cacheDir = dir
	}
}

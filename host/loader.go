package host

import (
	"context"
	"fmt"
	"os"

	"github.com/reglet-dev/wasm-bootstrap/domain/ports"
)

// FileLoader loads a module from a file on disk.
type FileLoader struct {
	executor *Executor
	path     string
}

// NewFileLoader creates a loader that reads path and instantiates it in executor.
func NewFileLoader(executor *Executor, path string) *FileLoader {
	return &FileLoader{executor: executor, path: path}
}

// Load implements ports.ModuleLoader.
func (l *FileLoader) Load(ctx context.Context) (ports.Module, error) {
	wasmBytes, err := os.ReadFile(l.path)
	if err != nil {
		return nil, fmt.Errorf("failed to read module: %w", err)
	}
	return loadInto(ctx, l.executor, wasmBytes)
}

// BytesLoader loads a module already held in memory, e.g. via go:embed.
type BytesLoader struct {
	executor  *Executor
	wasmBytes []byte
}

// NewBytesLoader creates a loader for wasmBytes.
func NewBytesLoader(executor *Executor, wasmBytes []byte) *BytesLoader {
	return &BytesLoader{executor: executor, wasmBytes: wasmBytes}
}

// Load implements ports.ModuleLoader.
func (l *BytesLoader) Load(ctx context.Context) (ports.Module, error) {
	return loadInto(ctx, l.executor, l.wasmBytes)
}

func loadInto(ctx context.Context, e *Executor, wasmBytes []byte) (ports.Module, error) {
	mod, err := e.LoadModule(ctx, wasmBytes)
	if err != nil {
		return nil, err
	}
	return mod, nil
}

package ports

import "context"

// Module is the handle of a loaded binary module.
// It exposes the single entry operation the runner invokes.
type Module interface {
	// Run invokes the entry operation with argument and blocks until it settles.
	Run(ctx context.Context, argument string) error
}

// ModuleCloser is implemented by modules that hold resources beyond a run.
type ModuleCloser interface {
	Close(ctx context.Context) error
}

// ModuleLoader acquires a Module.
type ModuleLoader interface {
	Load(ctx context.Context) (Module, error)
}

// ModuleLoaderFunc adapts a function to ModuleLoader.
type ModuleLoaderFunc func(ctx context.Context) (Module, error)

// Load implements ModuleLoader.
func (f ModuleLoaderFunc) Load(ctx context.Context) (Module, error) {
	return f(ctx)
}

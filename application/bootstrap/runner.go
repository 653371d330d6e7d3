// Package bootstrap runs the load-then-invoke sequence against a binary module.
//
// A Runner acquires a module through a ports.ModuleLoader, invokes its entry
// operation once with a fixed argument and reports exactly one terminal
// notification. Failures from either step are treated alike: they are wrapped
// in an errors.BoundaryError tagged with the stage and handed to the reporter
// verbatim. Nothing is retried.
package bootstrap

import (
	"context"
	stdErrors "errors"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/reglet-dev/wasm-bootstrap/domain/entities"
	"github.com/reglet-dev/wasm-bootstrap/domain/errors"
	"github.com/reglet-dev/wasm-bootstrap/domain/ports"
)

// ErrAlreadyRun is returned when Run is called on a runner that has already started.
var ErrAlreadyRun = stdErrors.New("bootstrap: runner already started")

// errNoModule is the load failure reported when a loader returns neither module nor error.
var errNoModule = stdErrors.New("module loader returned no module")

type runnerConfig struct {
	argument string
	recorder ports.Recorder
	logger   *slog.Logger
}

func defaultRunnerConfig() runnerConfig {
	return runnerConfig{
		argument: entities.DefaultArgument,
		recorder: nopRecorder{},
		logger:   slog.Default(),
	}
}

// Option configures a Runner.
type Option func(*runnerConfig)

// WithArgument sets the value passed to the entry operation.
func WithArgument(argument string) Option {
	return func(c *runnerConfig) {
		c.argument = argument
	}
}

// WithRecorder attaches a recorder for stage timings and outcomes.
func WithRecorder(r ports.Recorder) Option {
	return func(c *runnerConfig) {
		if r != nil {
			c.recorder = r
		}
	}
}

// WithLogger sets the logger used for debug output. Terminal notifications
// always go through the reporter.
func WithLogger(l *slog.Logger) Option {
	return func(c *runnerConfig) {
		if l != nil {
			c.logger = l
		}
	}
}

// Runner drives a single bootstrap sequence.
type Runner struct {
	loader   ports.ModuleLoader
	reporter ports.Reporter
	config   runnerConfig
	state    atomic.Int32
}

// NewRunner creates a Runner that loads through loader and notifies reporter.
func NewRunner(loader ports.ModuleLoader, reporter ports.Reporter, opts ...Option) *Runner {
	cfg := defaultRunnerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &Runner{
		loader:   loader,
		reporter: reporter,
		config:   cfg,
	}
}

// State returns the runner's current position in the sequence.
func (r *Runner) State() entities.State {
	return entities.State(r.state.Load())
}

// Start runs the sequence on its own goroutine. The returned channel receives
// the result of Run and is then closed.
func (r *Runner) Start(ctx context.Context) <-chan error {
	done := make(chan error, 1)
	go func() {
		defer close(done)
		done <- r.Run(ctx)
	}()
	return done
}

// Run loads the module, invokes its entry operation and emits the terminal
// notification. It returns nil on success or the *errors.BoundaryError that
// was reported. A runner runs at most once.
func (r *Runner) Run(ctx context.Context) error {
	if !r.state.CompareAndSwap(int32(entities.StateIdle), int32(entities.StateLoading)) {
		return ErrAlreadyRun
	}

	mod, err := r.load(ctx)
	if err != nil {
		return r.fail(ctx, entities.StageLoad, err)
	}
	defer r.release(ctx, mod)

	r.state.Store(int32(entities.StateInvoking))
	if err := r.invoke(ctx, mod); err != nil {
		return r.fail(ctx, entities.StageInvoke, err)
	}

	r.state.Store(int32(entities.StateDone))
	r.config.recorder.ObserveOutcome(entities.OutcomeSuccess)
	r.reporter.Success(ctx)
	return nil
}

func (r *Runner) load(ctx context.Context) (ports.Module, error) {
	r.config.logger.DebugContext(ctx, "loading module")
	start := time.Now()
	mod, err := r.acquire(ctx)
	if err == nil && mod == nil {
		err = errNoModule
	}
	r.config.recorder.ObserveStage(entities.StageLoad, time.Since(start), err)
	return mod, err
}

func (r *Runner) invoke(ctx context.Context, mod ports.Module) error {
	r.config.logger.DebugContext(ctx, "invoking entry operation", "argument", r.config.argument)
	start := time.Now()
	err := r.call(ctx, mod)
	r.config.recorder.ObserveStage(entities.StageInvoke, time.Since(start), err)
	return err
}

// acquire and call turn a panic inside the loader or the module into an
// ordinary failure so the run still settles with one notification.
func (r *Runner) acquire(ctx context.Context) (mod ports.Module, err error) {
	defer recoverPanic(&err)
	return r.loader.Load(ctx)
}

func (r *Runner) call(ctx context.Context, mod ports.Module) (err error) {
	defer recoverPanic(&err)
	return mod.Run(ctx, r.config.argument)
}

func recoverPanic(err *error) {
	if v := recover(); v != nil {
		*err = errors.NewPanicError(v)
	}
}

func (r *Runner) fail(ctx context.Context, stage entities.Stage, cause error) error {
	err := &errors.BoundaryError{Stage: stage, Err: cause}
	r.state.Store(int32(entities.StateDone))
	r.config.recorder.ObserveOutcome(entities.OutcomeFailure)
	r.reporter.Failure(ctx, err)
	return err
}

// release closes the module after the terminal notification. Close errors
// never produce a second notification.
func (r *Runner) release(ctx context.Context, mod ports.Module) {
	closer, ok := mod.(ports.ModuleCloser)
	if !ok {
		return
	}
	if err := closer.Close(ctx); err != nil {
		r.config.logger.DebugContext(ctx, "failed to close module", "error", err)
	}
}

type nopRecorder struct{}

func (nopRecorder) ObserveStage(entities.Stage, time.Duration, error) {}
func (nopRecorder) ObserveOutcome(entities.Outcome)                   {}

package bootstrap_test

import (
	"context"
	stdErrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/reglet-dev/wasm-bootstrap/application/bootstrap"
	"github.com/reglet-dev/wasm-bootstrap/domain/entities"
	"github.com/reglet-dev/wasm-bootstrap/domain/errors"
	"github.com/reglet-dev/wasm-bootstrap/domain/ports"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// trace records every boundary interaction in order.
type trace struct {
	mu     sync.Mutex
	events []string
}

func (t *trace) add(event string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.events = append(t.events, event)
}

func (t *trace) list() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]string(nil), t.events...)
}

type fakeModule struct {
	trace   *trace
	err     error
	args    []string
	closed  bool
	closeFn func() error
}

func (m *fakeModule) Run(_ context.Context, argument string) error {
	m.trace.add("run")
	m.args = append(m.args, argument)
	return m.err
}

func (m *fakeModule) Close(context.Context) error {
	m.trace.add("close")
	m.closed = true
	if m.closeFn != nil {
		return m.closeFn()
	}
	return nil
}

type fakeReporter struct {
	trace     *trace
	successes int
	failures  []error
}

func (r *fakeReporter) Success(context.Context) {
	r.trace.add("success")
	r.successes++
}

func (r *fakeReporter) Failure(_ context.Context, err error) {
	r.trace.add("failure")
	r.failures = append(r.failures, err)
}

type fakeRecorder struct {
	stages   []entities.Stage
	outcomes []entities.Outcome
}

func (r *fakeRecorder) ObserveStage(stage entities.Stage, _ time.Duration, _ error) {
	r.stages = append(r.stages, stage)
}

func (r *fakeRecorder) ObserveOutcome(outcome entities.Outcome) {
	r.outcomes = append(r.outcomes, outcome)
}

type RunnerSuite struct {
	suite.Suite
	trace    *trace
	module   *fakeModule
	reporter *fakeReporter
	recorder *fakeRecorder
	loadErr  error
}

func (s *RunnerSuite) SetupTest() {
	s.trace = &trace{}
	s.module = &fakeModule{trace: s.trace}
	s.reporter = &fakeReporter{trace: s.trace}
	s.recorder = &fakeRecorder{}
	s.loadErr = nil
}

func (s *RunnerSuite) loader() ports.ModuleLoader {
	return ports.ModuleLoaderFunc(func(context.Context) (ports.Module, error) {
		s.trace.add("load")
		if s.loadErr != nil {
			return nil, s.loadErr
		}
		return s.module, nil
	})
}

func (s *RunnerSuite) newRunner(opts ...bootstrap.Option) *bootstrap.Runner {
	opts = append([]bootstrap.Option{bootstrap.WithRecorder(s.recorder)}, opts...)
	return bootstrap.NewRunner(s.loader(), s.reporter, opts...)
}

func (s *RunnerSuite) TestLoadAndInvokeSucceed() {
	runner := s.newRunner()

	err := runner.Run(context.Background())
	s.Require().NoError(err)

	s.Equal([]string{"load", "run", "success", "close"}, s.trace.list())
	s.Equal(1, s.reporter.successes)
	s.Empty(s.reporter.failures)
	s.Equal([]string{entities.DefaultArgument}, s.module.args)
	s.True(s.module.closed)
	s.Equal(entities.StateDone, runner.State())
	s.Equal([]entities.Stage{entities.StageLoad, entities.StageInvoke}, s.recorder.stages)
	s.Equal([]entities.Outcome{entities.OutcomeSuccess}, s.recorder.outcomes)
}

func (s *RunnerSuite) TestLoadFailureSkipsInvocation() {
	s.loadErr = stdErrors.New("module not found")
	runner := s.newRunner()

	err := runner.Run(context.Background())
	s.Require().Error(err)

	s.Equal([]string{"load", "failure"}, s.trace.list())
	s.Empty(s.module.args)
	s.Zero(s.reporter.successes)
	s.Require().Len(s.reporter.failures, 1)

	reported := s.reporter.failures[0]
	s.Equal("module not found", reported.Error())
	s.ErrorIs(reported, s.loadErr)

	stage, ok := errors.StageOf(reported)
	s.Require().True(ok)
	s.Equal(entities.StageLoad, stage)
	s.Equal(entities.StateDone, runner.State())
	s.Equal([]entities.Outcome{entities.OutcomeFailure}, s.recorder.outcomes)
}

func (s *RunnerSuite) TestInvocationFailureReportedOnce() {
	s.module.err = stdErrors.New("connection refused")
	runner := s.newRunner()

	err := runner.Run(context.Background())
	s.Require().Error(err)

	s.Equal([]string{"load", "run", "failure", "close"}, s.trace.list())
	s.Zero(s.reporter.successes)
	s.Require().Len(s.reporter.failures, 1)
	s.Equal("connection refused", s.reporter.failures[0].Error())
	s.ErrorIs(s.reporter.failures[0], s.module.err)

	var be *errors.BoundaryError
	s.Require().ErrorAs(err, &be)
	s.Equal(entities.StageInvoke, be.Stage)
	s.Same(s.module.err, be.Err)
}

func (s *RunnerSuite) TestNilModuleIsLoadFailure() {
	runner := bootstrap.NewRunner(
		ports.ModuleLoaderFunc(func(context.Context) (ports.Module, error) { return nil, nil }),
		s.reporter,
	)

	err := runner.Run(context.Background())
	s.Require().Error(err)

	stage, ok := errors.StageOf(err)
	s.Require().True(ok)
	s.Equal(entities.StageLoad, stage)
	s.Len(s.reporter.failures, 1)
}

func (s *RunnerSuite) TestCustomArgument() {
	runner := s.newRunner(bootstrap.WithArgument("hathora/topdown-shooter"))

	s.Require().NoError(runner.Run(context.Background()))
	s.Equal([]string{"hathora/topdown-shooter"}, s.module.args)
}

func (s *RunnerSuite) TestCloseErrorDoesNotNotifyTwice() {
	s.module.closeFn = func() error { return stdErrors.New("close failed") }
	runner := s.newRunner()

	s.Require().NoError(runner.Run(context.Background()))
	s.Equal(1, s.reporter.successes)
	s.Empty(s.reporter.failures)
}

func (s *RunnerSuite) TestRunsOnlyOnce() {
	runner := s.newRunner()

	s.Require().NoError(runner.Run(context.Background()))
	err := runner.Run(context.Background())
	s.ErrorIs(err, bootstrap.ErrAlreadyRun)

	s.Equal(1, s.reporter.successes)
	s.Len(s.module.args, 1)
}

func (s *RunnerSuite) TestStartDeliversSingleResult() {
	s.module.err = stdErrors.New("boom")
	runner := s.newRunner()

	done := runner.Start(context.Background())

	select {
	case err, ok := <-done:
		s.Require().True(ok)
		s.EqualError(err, "boom")
	case <-time.After(5 * time.Second):
		s.FailNow("runner did not settle")
	}

	_, ok := <-done
	s.False(ok, "channel should be closed after the result")
	s.Len(s.reporter.failures, 1)
}

func (s *RunnerSuite) TestModulePanicIsInvocationFailure() {
	runner := bootstrap.NewRunner(
		ports.ModuleLoaderFunc(func(context.Context) (ports.Module, error) {
			return panicModule{value: "guest binding blew up"}, nil
		}),
		s.reporter,
		bootstrap.WithRecorder(s.recorder),
	)

	var err error
	s.Require().NotPanics(func() { err = runner.Run(context.Background()) })
	s.Require().Error(err)

	s.Zero(s.reporter.successes)
	s.Require().Len(s.reporter.failures, 1)
	s.Equal("panic: guest binding blew up", s.reporter.failures[0].Error())
	s.Equal(entities.StateDone, runner.State())
	s.Equal([]entities.Outcome{entities.OutcomeFailure}, s.recorder.outcomes)

	stage, ok := errors.StageOf(err)
	s.Require().True(ok)
	s.Equal(entities.StageInvoke, stage)

	var pe *errors.PanicError
	s.ErrorAs(err, &pe)
}

func (s *RunnerSuite) TestLoaderPanicIsLoadFailure() {
	cause := stdErrors.New("bundle corrupted")
	runner := bootstrap.NewRunner(
		ports.ModuleLoaderFunc(func(context.Context) (ports.Module, error) { panic(cause) }),
		s.reporter,
	)

	err := runner.Run(context.Background())
	s.Require().Error(err)
	s.ErrorIs(err, cause)
	s.Require().Len(s.reporter.failures, 1)
	s.Equal("panic: bundle corrupted", s.reporter.failures[0].Error())

	stage, ok := errors.StageOf(err)
	s.Require().True(ok)
	s.Equal(entities.StageLoad, stage)
	s.Equal(entities.StateDone, runner.State())
}

func (s *RunnerSuite) TestStartSurvivesModulePanic() {
	runner := bootstrap.NewRunner(
		ports.ModuleLoaderFunc(func(context.Context) (ports.Module, error) {
			return panicModule{value: 42}, nil
		}),
		s.reporter,
	)

	select {
	case err := <-runner.Start(context.Background()):
		s.EqualError(err, "panic: 42")
	case <-time.After(5 * time.Second):
		s.FailNow("runner did not settle")
	}
	s.Len(s.reporter.failures, 1)
}

func TestRunnerSuite(t *testing.T) {
	suite.Run(t, new(RunnerSuite))
}

type panicModule struct {
	value any
}

func (m panicModule) Run(context.Context, string) error {
	panic(m.value)
}

// blockingModule never settles until released.
type blockingModule struct {
	release chan struct{}
}

func (m *blockingModule) Run(context.Context, string) error {
	<-m.release
	return nil
}

func TestRunner_StateWhileInvoking(t *testing.T) {
	mod := &blockingModule{release: make(chan struct{})}
	reporter := &fakeReporter{trace: &trace{}}
	runner := bootstrap.NewRunner(
		ports.ModuleLoaderFunc(func(context.Context) (ports.Module, error) { return mod, nil }),
		reporter,
	)
	assert.Equal(t, entities.StateIdle, runner.State())

	done := runner.Start(context.Background())

	require.Eventually(t, func() bool {
		return runner.State() == entities.StateInvoking
	}, 5*time.Second, time.Millisecond)
	assert.Zero(t, reporter.successes, "no notification before the invocation settles")

	close(mod.release)
	require.NoError(t, <-done)
	assert.Equal(t, entities.StateDone, runner.State())
	assert.Equal(t, []string{"success"}, reporter.trace.list())
}

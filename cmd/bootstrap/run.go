package main

import (
	"context"
	"io"
	"log/slog"

	"github.com/reglet-dev/wasm-bootstrap/application/bootstrap"
	"github.com/reglet-dev/wasm-bootstrap/config"
	"github.com/reglet-dev/wasm-bootstrap/host"
	"github.com/reglet-dev/wasm-bootstrap/infrastructure/metrics"
	"github.com/reglet-dev/wasm-bootstrap/infrastructure/reporter"
	"github.com/reglet-dev/wasm-bootstrap/log"
	"github.com/spf13/cobra"
)

func newRunCommand(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "run [module.wasm]",
		Short: "Load the module and invoke its entry point (default command)",
		Args:  cobra.MaximumNArgs(1),
		RunE:  a.runBootstrap,
	}
}

func (a *app) runBootstrap(cmd *cobra.Command, args []string) error {
	a.modulePath(args)
	cfg, err := config.Load(a.viper)
	if err != nil {
		return err
	}

	logger, err := log.NewLogger(cmd.ErrOrStderr(), cfg.Log.Format, cfg.Log.Level)
	if err != nil {
		return err
	}

	return runWithConfig(cmd.Context(), cfg, logger, cmd.OutOrStdout(), cmd.ErrOrStderr())
}

// runWithConfig wires the executor, loader, reporter and recorder and runs the
// bootstrap sequence once.
func runWithConfig(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) error {
	executor, err := newExecutor(ctx, cfg, logger, stdout, stderr)
	if err != nil {
		return err
	}
	defer executor.Close(ctx)

	opts := []bootstrap.Option{
		bootstrap.WithArgument(cfg.Module.Argument),
		bootstrap.WithLogger(logger),
	}
	var recorder *metrics.PrometheusRecorder
	if cfg.Metrics.Textfile != "" {
		recorder = metrics.NewPrometheusRecorder(nil)
		opts = append(opts, bootstrap.WithRecorder(recorder))
	}

	runner := bootstrap.NewRunner(
		host.NewFileLoader(executor, cfg.Module.Path),
		reporter.NewSlogReporter(logger),
		opts...,
	)
	runErr := runner.Run(ctx)

	if recorder != nil {
		if err := recorder.WriteTextfile(cfg.Metrics.Textfile); err != nil {
			logger.WarnContext(ctx, "failed to write metrics", "path", cfg.Metrics.Textfile, "error", err)
		}
	}
	return runErr
}

func newExecutor(ctx context.Context, cfg *config.Config, logger *slog.Logger, stdout, stderr io.Writer) (*host.Executor, error) {
	return host.NewExecutor(ctx,
		host.WithLogger(logger),
		host.WithHostModuleName(cfg.Module.HostModule),
		host.WithEntryPoint(cfg.Module.Entry),
		host.WithMemoryLimitPages(cfg.Module.MemoryLimitPages),
		host.WithCompilationCache(cfg.Module.CacheDir),
		host.WithStdout(stdout),
		host.WithStderr(stderr),
	)
}

// Package reporter provides ports.Reporter implementations for the diagnostic channel.
package reporter

import (
	"context"
	"log/slog"

	"github.com/reglet-dev/wasm-bootstrap/domain/entities"
	"github.com/reglet-dev/wasm-bootstrap/domain/errors"
)

// SlogReporter writes the terminal notification as a single log record.
type SlogReporter struct {
	logger *slog.Logger
}

// NewSlogReporter creates a reporter on logger. A nil logger uses slog.Default().
func NewSlogReporter(logger *slog.Logger) *SlogReporter {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogReporter{logger: logger}
}

// Success implements ports.Reporter.
func (r *SlogReporter) Success(ctx context.Context) {
	r.logger.InfoContext(ctx, entities.SuccessMessage)
}

// Failure implements ports.Reporter. The error text is logged as-is.
func (r *SlogReporter) Failure(ctx context.Context, err error) {
	attrs := []any{slog.String("error", err.Error())}
	if stage, ok := errors.StageOf(err); ok {
		attrs = append(attrs, slog.String("stage", string(stage)))
	}
	r.logger.ErrorContext(ctx, "module failed", attrs...)
}

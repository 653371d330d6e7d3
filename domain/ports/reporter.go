package ports

import "context"

// Reporter receives the terminal notification of a bootstrap run.
// Exactly one of Success or Failure is called per run.
type Reporter interface {
	Success(ctx context.Context)
	Failure(ctx context.Context, err error)
}

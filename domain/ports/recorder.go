package ports

import (
	"time"

	"github.com/reglet-dev/wasm-bootstrap/domain/entities"
)

// Recorder observes stage timings and run outcomes.
type Recorder interface {
	ObserveStage(stage entities.Stage, elapsed time.Duration, err error)
	ObserveOutcome(outcome entities.Outcome)
}

package refresh

import (
	"context"
	"fmt"

	"github.com/sourcegraph/conc"
	"go.uber.org/zap"
)

const backgroundErrorBuffer = 16

// BackgroundError is delivered on the background error channel when a
// detached task fails.
type BackgroundError struct {
	Task string
	Err  error
}

func (e BackgroundError) Error() string {
	return fmt.Sprintf("refresh: background task %s: %v", e.Task, e.Err)
}

func (e BackgroundError) Unwrap() error { return e.Err }

// Background runs detached tasks whose outcome never feeds back into the
// caller. Failures are logged and offered on Errors without blocking.
type Background struct {
	wg     conc.WaitGroup
	logger *zap.Logger
	errs   chan BackgroundError
}

// NewBackground builds a runner that logs through logger.
func NewBackground(logger *zap.Logger) *Background {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Background{
		logger: logger,
		errs:   make(chan BackgroundError, backgroundErrorBuffer),
	}
}

// Go launches task on a context that survives cancellation of ctx.
func (b *Background) Go(ctx context.Context, name string, task func(context.Context) error) {
	detached := context.WithoutCancel(ctx)
	b.wg.Go(func() {
		if err := task(detached); err != nil {
			b.logger.Warn("background_task_failed", zap.String("task", name), zap.Error(err))
			select {
			case b.errs <- BackgroundError{Task: name, Err: err}:
			default:
			}
		}
	})
}

// Errors exposes failures of detached tasks. Undrained errors are dropped
// once the buffer is full.
func (b *Background) Errors() <-chan BackgroundError {
	return b.errs
}

// Wait blocks until every launched task has returned. Panics inside tasks are
// recovered and logged.
func (b *Background) Wait() {
	if recovered := b.wg.WaitAndRecover(); recovered != nil {
		b.logger.Error("background_task_panic", zap.String("panic", recovered.String()))
	}
}

package updater

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"
)

// Job is one supervised unit of work. Step runs a full iteration including
// its own pacing wait, and returns the context's error when asked to stop.
type Job interface {
	Name() string
	Step(ctx context.Context) error
}

// SuperviseOptions tune a supervised job's startup and recovery behavior.
type SuperviseOptions struct {
	// StartupDelay holds the job back after process start so rapid restart
	// crash loops don't hammer the external site.
	StartupDelay time.Duration
	// RetryBackoff is how long to wait after a failed iteration before the
	// job restarts from its initial state.
	RetryBackoff time.Duration
}

// Supervise runs the job forever: iterations back to back on success, a
// logged backoff on failure, a clean return once the context is cancelled.
// Cancellation is only observed at wait points; an in-flight fetch finishes
// first.
func Supervise(ctx context.Context, logger *zap.Logger, job Job, opts SuperviseOptions) {
	log := logger.With(zap.String("job", job.Name()))

	if opts.StartupDelay > 0 {
		if err := sleepCtx(ctx, opts.StartupDelay); err != nil {
			return
		}
	}
	log.Info("background job starting")

	for {
		err := job.Step(ctx)
		switch {
		case err == nil:
		case isShutdown(ctx, err):
			log.Info("background job shutting down")
			return
		default:
			log.Error("background job iteration failed", zap.Error(err))
			log.Info("waiting before restarting job", zap.Duration("backoff", opts.RetryBackoff))
			if sleepCtx(ctx, opts.RetryBackoff) != nil {
				log.Info("background job shutting down")
				return
			}
		}
	}
}

func isShutdown(ctx context.Context, err error) bool {
	return ctx.Err() != nil ||
		errors.Is(err, context.Canceled) ||
		errors.Is(err, context.DeadlineExceeded)
}

// sleepCtx waits for d or until the context is cancelled, returning the
// context's error in the latter case.
func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

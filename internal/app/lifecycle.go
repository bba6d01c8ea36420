package app

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/agbru/highscore/internal/logging"
)

// interruptible derives a context that SIGINT or SIGTERM cancels. The runner
// checks it between samples, so an interrupted benchmark ends after the
// batch in flight and the rest of the suite is skipped. A warning is logged
// when a signal, not the parent, ends the context.
//
// The returned stop function releases the signal handler.
func interruptible(ctx context.Context, logger logging.Logger) (context.Context, context.CancelFunc) {
	sigCtx, stopSignals := signal.NotifyContext(ctx, syscall.SIGINT, syscall.SIGTERM)
	stopWatch := context.AfterFunc(sigCtx, func() {
		if ctx.Err() == nil {
			logger.Warn("interrupted, stopping after the current sample")
		}
	})
	return sigCtx, func() {
		stopWatch()
		stopSignals()
	}
}

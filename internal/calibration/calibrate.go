// Package calibration finds the batch size of a benchmark: the number of
// back-to-back invocations that make one sample last long enough for the
// clock's resolution to stop mattering.
package calibration

import (
	"math"
	"time"

	apperrors "github.com/agbru/highscore/internal/errors"
)

// MaxRunsPerSample is the largest batch size calibration will try. Doubling
// past it would overflow int.
const MaxRunsPerSample = math.MaxInt / 2

// Clock is the time source used to time calibration batches.
type Clock interface {
	Now() time.Time
}

// BatchFunc runs one batch of the given size. An error aborts calibration
// and is returned unchanged.
type BatchFunc func(runs int) error

// Step records one doubling step.
type Step struct {
	Runs    int
	Elapsed time.Duration
}

// Result is the outcome of a calibration.
type Result struct {
	// RunsPerSample is the smallest power of two whose batch took at least
	// the minimum sample duration.
	RunsPerSample int
	// Steps lists every batch that was timed, in order.
	Steps []Step
}

// Calibrate doubles the batch size from 1 until one batch takes at least
// minDuration. The whole batch call is timed, setup included, so the chosen
// size is never smaller than the one the sampling loop needs.
//
// It fails with apperrors.CalibrationError once the batch size exceeds
// MaxRunsPerSample.
//
// Parameters:
//   - clock: The time source.
//   - batch: Runs one batch of the given size.
//   - minDuration: The minimum duration of one sample.
//
// Returns:
//   - Result: The chosen batch size and the trace of timed batches.
//   - error: A CalibrationError, or the error returned by batch.
func Calibrate(clock Clock, batch BatchFunc, minDuration time.Duration) (Result, error) {
	var res Result
	for runs := 1; ; runs *= 2 {
		begin := clock.Now()
		if err := batch(runs); err != nil {
			return res, err
		}
		elapsed := clock.Now().Sub(begin)
		res.Steps = append(res.Steps, Step{Runs: runs, Elapsed: elapsed})
		if elapsed >= minDuration {
			res.RunsPerSample = runs
			return res, nil
		}
		if runs > MaxRunsPerSample {
			return res, apperrors.CalibrationError{Runs: runs}
		}
	}
}

// Fixed returns the result for a configured batch size, skipping calibration.
func Fixed(runs int) Result {
	return Result{RunsPerSample: runs}
}

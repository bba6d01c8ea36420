package benchmark

import (
	"fmt"
	"runtime/debug"
	"time"

	apperrors "github.com/agbru/highscore/internal/errors"
)

// Measure runs one sample: Setup once with runs, then Func runs times
// back-to-back between two clock reads. It returns the elapsed seconds per
// invocation divided by the unit's divisor.
//
// A panic in Setup or Func is returned as an apperrors.BenchmarkError that
// wraps the panic value.
func Measure(clock Clock, unit Unit, runs int) (float64, error) {
	elapsed, err := timeBatch(clock, unit, runs)
	if err != nil {
		return 0, err
	}
	return elapsed.Seconds() / float64(runs) / unit.divisor(), nil
}

// timeBatch returns the time spent in the work loop only.
func timeBatch(clock Clock, unit Unit, runs int) (time.Duration, error) {
	if unit.Setup != nil {
		if err := guard("setup", func() { unit.Setup(runs) }); err != nil {
			return 0, err
		}
	}
	var elapsed time.Duration
	err := guard("run", func() {
		fn := unit.Func
		begin := clock.Now()
		for n := runs; n > 0; n-- {
			fn()
		}
		elapsed = clock.Now().Sub(begin)
	})
	return elapsed, err
}

// guard converts a panic in fn into a BenchmarkError.
func guard(phase string, fn func()) (err error) {
	defer func() {
		if r := recover(); r != nil {
			cause, ok := r.(error)
			if !ok {
				cause = fmt.Errorf("panic: %v", r)
			}
			err = apperrors.BenchmarkError{Phase: phase, Cause: cause, Stack: debug.Stack()}
		}
	}()
	fn()
	return nil
}

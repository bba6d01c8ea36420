// Package benchmark implements the adaptive sampling engine: it measures a
// unit of work in calibrated batches, keeps the samples sorted, and decides
// after every sample whether the stopping heuristics and hard bounds allow
// the run to end.
//
// A run is strictly sequential. Nothing in this package starts a goroutine;
// the progress callback runs on the caller's goroutine between samples.
package benchmark

import "time"

// SetupFunc prepares state for a batch of n invocations. It runs outside the
// timed window.
type SetupFunc func(n int)

// WorkFunc is the code under measurement.
type WorkFunc func()

// Unit is one measurable work item.
type Unit struct {
	// Func is invoked RunsPerSample times per sample.
	Func WorkFunc
	// Setup, if set, is invoked once per sample with the batch size.
	Setup SetupFunc
	// Divisor is the number of logical operations one invocation of Func
	// performs; the frequency is reported per operation. Zero means 1.
	Divisor float64
}

func (u Unit) divisor() float64 {
	if u.Divisor == 0 {
		return 1
	}
	return u.Divisor
}

// Clock is the time source of a run. Time differences must be monotonic.
type Clock interface {
	Now() time.Time
}

// SystemClock reads the wall clock; time.Time values it returns carry the
// monotonic reading, so Sub is immune to wall-clock steps.
type SystemClock struct{}

// Now returns time.Now().
func (SystemClock) Now() time.Time { return time.Now() }

package benchmark

import (
	"context"
	"errors"

	"github.com/agbru/highscore/internal/calibration"
	apperrors "github.com/agbru/highscore/internal/errors"
	"github.com/agbru/highscore/internal/logging"
)

// Phase is the state of a run.
type Phase string

const (
	PhaseCalibrating Phase = "calibrating"
	PhaseCollecting  Phase = "collecting"
	PhaseTerminated  Phase = "terminated"
)

// Runner executes benchmark units one at a time.
type Runner struct {
	clock  Clock
	logger logging.Logger
}

// RunnerOption configures a Runner.
type RunnerOption func(*Runner)

// WithClock replaces the system clock, mainly for tests.
func WithClock(c Clock) RunnerOption {
	return func(r *Runner) { r.clock = c }
}

// WithLogger sets the logger used for calibration and termination events.
func WithLogger(l logging.Logger) RunnerOption {
	return func(r *Runner) { r.logger = l }
}

// NewRunner creates a Runner using the system clock and a no-op logger
// unless overridden.
func NewRunner(opts ...RunnerOption) *Runner {
	r := &Runner{clock: SystemClock{}, logger: logging.Nop()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run measures unit until the hard bounds or the heuristics end the run.
//
// Each iteration notifies observer (before measuring), takes one sample,
// checks the timeout and, once MinSampleCount samples exist, evaluates the
// heuristics. Termination follows this priority: timeout, minimum not yet
// reached (continue), maxSampleCount reached, a heuristic holding the run
// (continue), otherwise a clean stop.
//
// ctx is checked between samples only; a batch that has started always
// completes. Invalid options, a calibration failure and a failure in the
// unit's callables are returned as errors and no Result is produced.
//
// Parameters:
//   - ctx: Cancels the run between samples.
//   - name: The benchmark name, used in errors and logs.
//   - unit: The work to measure.
//   - opts: The resolved options.
//   - baseline: A previous result to compare against, or nil.
//   - observer: Receives progress before every sample; may be nil.
//
// Returns:
//   - Result: The measurement.
//   - error: A ValidationError, CalibrationError, BenchmarkError or context error.
func (r *Runner) Run(ctx context.Context, name string, unit Unit, opts RunOptions, baseline *Baseline, observer ProgressObserver) (Result, error) {
	if err := opts.Validate(); err != nil {
		return Result{}, err
	}
	if unit.Func == nil {
		return Result{}, apperrors.NewValidationError("Func", "benchmark has no work function", nil)
	}
	if unit.Divisor < 0 {
		return Result{}, apperrors.NewValidationError("Divisor", "must be gte 0", unit.Divisor)
	}
	if observer == nil {
		observer = NoOpObserver{}
	}
	log := r.logger.With(logging.String("benchmark", name))
	start := r.clock.Now()

	runs, err := r.runsPerSample(name, unit, opts, log)
	if err != nil {
		return Result{}, err
	}
	log.Debug("sampling", logging.String("phase", string(PhaseCollecting)), logging.Int("runs_per_sample", runs))

	samples := &SampleSet{}
	heuristics := newHeuristicSet(opts, baseline)
	progress := Progress{RunsPerSample: runs}
	samplesSinceBest := 0
	var last verdict

	for {
		if err := ctx.Err(); err != nil {
			return Result{}, err
		}
		progress.SampleCount = samples.Len()
		observer.Update(snapshot(progress))

		sample, err := Measure(r.clock, unit, runs)
		if err != nil {
			return Result{}, err
		}
		if samples.Insert(sample) {
			samplesSinceBest = 0
		} else {
			samplesSinceBest++
		}
		timedOut := opts.Timeout > 0 && r.clock.Now().Sub(start) > opts.Timeout

		if samples.Len() >= opts.MinSampleCount {
			last = heuristics.evaluate(state{
				samples:          samples,
				runsPerSample:    runs,
				samplesSinceBest: samplesSinceBest,
				timedOut:         timedOut,
			})
			progress.Waiting = last.waiting
		}

		switch {
		case timedOut:
			return r.finish(log, name, samples, runs, AbortTimeout, progress, last)
		case samples.Len() < opts.MinSampleCount:
			continue
		case opts.MaxSampleCount.Reached(samples.Len()):
			return r.finish(log, name, samples, runs, AbortMaxSampleCount, progress, last)
		case last.hold:
			continue
		default:
			return r.finish(log, name, samples, runs, NotAborted, progress, last)
		}
	}
}

// runsPerSample returns the configured batch size or calibrates one.
func (r *Runner) runsPerSample(name string, unit Unit, opts RunOptions, log logging.Logger) (int, error) {
	if opts.RunsPerSample > 0 {
		return opts.RunsPerSample, nil
	}
	log.Debug("calibrating", logging.String("phase", string(PhaseCalibrating)), logging.Duration("min_sample_duration", opts.MinSampleDuration))
	res, err := calibration.Calibrate(r.clock, func(runs int) error {
		_, err := timeBatch(r.clock, unit, runs)
		return err
	}, opts.MinSampleDuration)
	for _, step := range res.Steps {
		log.Debug("calibration step", logging.Int("runs", step.Runs), logging.Duration("elapsed", step.Elapsed))
	}
	if err != nil {
		var calErr apperrors.CalibrationError
		if errors.As(err, &calErr) {
			calErr.Benchmark = name
			return 0, calErr
		}
		return 0, err
	}
	return res.RunsPerSample, nil
}

// finish builds the Result. A best sample of zero means the clock could not
// resolve a batch, which no frequency can describe.
func (r *Runner) finish(log logging.Logger, name string, samples *SampleSet, runs int, aborted AbortReason, progress Progress, last verdict) (Result, error) {
	best := samples.Best()
	if !(best > 0) {
		return Result{}, apperrors.CalibrationError{
			Benchmark: name,
			Runs:      runs,
			Reason:    "ran faster than the clock resolution in every sample; raise runsPerSample or minSampleDuration",
		}
	}
	res := Result{
		SampleCount:     samples.Len(),
		RunsPerSample:   runs,
		Frequency:       frequencyOf(best),
		Aborted:         aborted,
		FailedHeuristic: snapshot(progress).Waiting,
		Blocked:         last.blocked,
	}
	fields := []logging.Field{
		logging.String("phase", string(PhaseTerminated)),
		logging.Int("samples", res.SampleCount),
		logging.Float64("frequency", res.Frequency),
		logging.String("aborted", string(aborted)),
	}
	if res.FailedHeuristic != nil {
		fields = append(fields, logging.String("failed_heuristic", string(res.FailedHeuristic.Heuristic)))
	}
	log.Debug("run finished", fields...)
	return res, nil
}

// snapshot copies p so observers cannot alias the loop's status.
func snapshot(p Progress) Progress {
	if p.Waiting != nil {
		w := *p.Waiting
		p.Waiting = &w
	}
	return p
}

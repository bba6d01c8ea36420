// Package orchestration runs a suite of benchmarks one after another and
// ties the sampling engine to its collaborators: progress and result output,
// the history store and the metrics export.
package orchestration

import (
	"context"
	"fmt"
	"io"

	"github.com/agbru/highscore/internal/benchmark"
	"github.com/agbru/highscore/internal/cli"
	apperrors "github.com/agbru/highscore/internal/errors"
	"github.com/agbru/highscore/internal/history"
	"github.com/agbru/highscore/internal/logging"
	"github.com/agbru/highscore/internal/metrics"
	"github.com/agbru/highscore/pkg/catalog"
)

// UnitResult encapsulates the outcome of one benchmark.
type UnitResult struct {
	// Name is the benchmark name.
	Name string
	// Result is the measurement. It is meaningful only when Measured is set.
	Result benchmark.Result
	// Measured reports whether the run produced a Result. A unit can be
	// measured and still fail, when its history could not be written.
	Measured bool
	// Baseline is the baseline the run was compared against, if any.
	Baseline *benchmark.Baseline
	// Err contains any error that occurred for this unit.
	Err error
}

// RunConfig controls what happens around each run.
type RunConfig struct {
	// Defaults are layered under each benchmark's own options.
	Defaults benchmark.Options
	// NoLog disables history writes.
	NoLog bool
	// SetBaseline marks the recorded entries as baselines.
	SetBaseline bool
	// Quiet suppresses the progress line.
	Quiet bool
	// Interactive enables output that rewrites the current line: the
	// initializing and progress lines and the erasing of them. Leave it
	// unset when the output is not a terminal.
	Interactive bool
	// Environment is stored with every history entry.
	Environment history.Environment
}

// Orchestrator executes benchmarks sequentially. A failing benchmark is
// reported and skipped; the others still run.
type Orchestrator struct {
	runner  *benchmark.Runner
	store   *history.Store
	metrics *metrics.Metrics
	logger  logging.Logger
	out     io.Writer
}

// New creates an Orchestrator.
//
// Parameters:
//   - runner: The sampling engine.
//   - store: The history store for baselines and results.
//   - m: The metrics to update, or nil.
//   - logger: The diagnostic logger, or nil.
//   - out: The terminal for progress and results.
//
// Returns:
//   - *Orchestrator: The orchestrator.
func New(runner *benchmark.Runner, store *history.Store, m *metrics.Metrics, logger logging.Logger, out io.Writer) *Orchestrator {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Orchestrator{runner: runner, store: store, metrics: m, logger: logger, out: out}
}

// ExecuteBenchmarks runs every benchmark in order.
//
// Histories are preloaded before the first measurement so that no file I/O
// competes with a running benchmark. Each benchmark is announced, measured
// with its options merged over cfg.Defaults, reported, and recorded unless
// cfg.NoLog is set. Errors are reported per benchmark and do not stop the
// suite; a cancelled context does, between two benchmarks or two samples.
//
// Parameters:
//   - ctx: Cancels the suite.
//   - benches: The benchmarks to run.
//   - cfg: The run configuration.
//
// Returns:
//   - []UnitResult: One entry per benchmark that was started.
//   - error: The context error when the suite was interrupted.
func (o *Orchestrator) ExecuteBenchmarks(ctx context.Context, benches []catalog.Benchmark, cfg RunConfig) ([]UnitResult, error) {
	cli.PrintBanner(o.out, len(benches))

	names := make([]string, len(benches))
	width := 0
	for i, b := range benches {
		names[i] = b.Name
		width = max(width, len(b.Name))
	}
	if err := o.store.Preload(ctx, names); err != nil {
		return nil, err
	}

	results := make([]UnitResult, 0, len(benches))
	for _, b := range benches {
		if err := ctx.Err(); err != nil {
			return results, err
		}
		res := o.executeOne(ctx, b, width, cfg)
		results = append(results, res)
		if res.Err != nil && apperrors.IsContextError(res.Err) {
			return results, res.Err
		}
	}
	return results, nil
}

func (o *Orchestrator) executeOne(ctx context.Context, b catalog.Benchmark, width int, cfg RunConfig) UnitResult {
	log := o.logger.With(logging.String("benchmark", b.Name))
	out := UnitResult{Name: b.Name}
	if cfg.Interactive {
		cli.PrintInitializing(o.out, b.Name)
	}

	entry, err := o.store.Baseline(b.Name)
	if err != nil {
		return o.fail(out, log, err, cfg.Interactive)
	}
	if entry != nil {
		out.Baseline = benchmark.BaselineOf(entry.Result)
	}

	opts := b.Options.Merge(cfg.Defaults).Resolve()
	observers := benchmark.NewProgressSubject(benchmark.NewLoggingObserver(log, 0))
	if cfg.Interactive && !cfg.Quiet {
		observers.Register(cli.NewProgressPrinter(o.out, b.Name))
	}
	if o.metrics != nil {
		observers.Register(o.metrics.Observer(b.Name))
	}

	log.Info("benchmark started", logging.Bool("baseline", out.Baseline != nil))
	result, err := o.runner.Run(ctx, b.Name, b.Unit, opts, out.Baseline, observers)
	if err != nil {
		return o.fail(out, log, err, cfg.Interactive)
	}
	out.Result, out.Measured = result, true

	if cfg.Interactive {
		cli.PrintResult(o.out, b.Name, width, result, out.Baseline)
	} else {
		cli.WriteResult(o.out, b.Name, width, result, out.Baseline)
	}
	if o.metrics != nil {
		o.metrics.RecordResult(b.Name, result, out.Baseline)
	}
	log.Info("benchmark finished",
		logging.Float64("frequency", result.Frequency),
		logging.Int("samples", result.SampleCount),
		logging.String("aborted", string(result.Aborted)))

	if cfg.NoLog {
		return out
	}
	e := history.NewEntry(result, opts, cfg.Environment, b.Comment, b.Version)
	if err := o.store.Record(b.Name, e, cfg.SetBaseline); err != nil {
		out.Err = fmt.Errorf("result not recorded: %w", err)
		apperrors.HandleUnitError(b.Name, out.Err, o.out, cli.CLIColorProvider{})
		o.recordFailure(b.Name, log, out.Err)
	}
	return out
}

// fail reports err on the output and the log.
func (o *Orchestrator) fail(out UnitResult, log logging.Logger, err error, interactive bool) UnitResult {
	out.Err = err
	if interactive {
		cli.ClearLine(o.out)
	}
	apperrors.HandleUnitError(out.Name, err, o.out, cli.CLIColorProvider{})
	if !apperrors.IsContextError(err) {
		o.recordFailure(out.Name, log, err)
	}
	return out
}

func (o *Orchestrator) recordFailure(name string, log logging.Logger, err error) {
	log.Error("benchmark failed", err)
	if o.metrics != nil {
		o.metrics.RecordFailure(name)
	}
}

// AnalyzeResults prints a summary table when more than one benchmark ran and
// computes the exit code of the suite.
//
// Parameters:
//   - results: The per-benchmark outcomes.
//   - suiteErr: The error returned by ExecuteBenchmarks.
//   - out: The io.Writer for the summary.
//
// Returns:
//   - int: ExitErrorCanceled when interrupted, ExitErrorGeneric when any
//     benchmark failed, ExitSuccess otherwise.
func AnalyzeResults(results []UnitResult, suiteErr error, out io.Writer) int {
	if len(results) > 1 {
		rows := make([]cli.SummaryRow, len(results))
		for i, r := range results {
			rows[i] = cli.SummaryRow{Name: r.Name, Baseline: r.Baseline, Err: r.Err}
			if r.Measured {
				res := r.Result
				rows[i].Result = &res
			}
		}
		cli.PrintSummary(out, rows)
	}

	if suiteErr != nil && apperrors.IsContextError(suiteErr) {
		return apperrors.ExitErrorCanceled
	}
	if suiteErr != nil {
		return apperrors.ExitErrorGeneric
	}
	for _, r := range results {
		if r.Err != nil {
			return apperrors.ExitErrorGeneric
		}
	}
	return apperrors.ExitSuccess
}

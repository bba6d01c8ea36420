package orchestration

import (
	"bytes"
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agbru/highscore/internal/benchmark"
	apperrors "github.com/agbru/highscore/internal/errors"
	"github.com/agbru/highscore/internal/history"
	"github.com/agbru/highscore/internal/metrics"
	"github.com/agbru/highscore/internal/testutil"
	"github.com/agbru/highscore/pkg/catalog"
)

type fixture struct {
	clock   *testutil.FakeClock
	dir     string
	store   *history.Store
	metrics *metrics.Metrics
	out     *bytes.Buffer
	orch    *Orchestrator
}

func newFixture(t *testing.T, dir string) *fixture {
	t.Helper()
	f := &fixture{
		clock:   testutil.NewFakeClock(),
		dir:     dir,
		store:   history.NewStore(dir, nil),
		metrics: metrics.New(),
		out:     &bytes.Buffer{},
	}
	runner := benchmark.NewRunner(benchmark.WithClock(f.clock))
	f.orch = New(runner, f.store, f.metrics, nil, f.out)
	return f
}

// output returns what was printed, without colors.
func (f *fixture) output() string { return testutil.StripAnsiCodes(f.out.String()) }

// runConfig uses the built-in defaults with a short sample duration, so a
// constant 1ms unit calibrates to 16 runs and stops cleanly after 8 samples.
// Output is treated as a terminal.
func runConfig() RunConfig {
	return RunConfig{
		Defaults:    benchmark.Options{MinSampleDuration: 10 * time.Millisecond}.Merge(benchmark.DefaultOptions()),
		Interactive: true,
		Environment: history.CurrentEnvironment("test", "example.com/mod", "v0.0.1"),
	}
}

func TestExecuteBenchmarks_RecordsResults(t *testing.T) {
	t.Parallel()

	f := newFixture(t, t.TempDir())
	reg := catalog.New()
	reg.MustAdd("strings/builder", f.clock.Work(time.Millisecond), catalog.WithComment("first"), catalog.WithVersion("1.0.0"))

	results, err := f.orch.ExecuteBenchmarks(context.Background(), reg.Benchmarks(), runConfig())
	require.NoError(t, err)
	require.Len(t, results, 1)
	res := results[0]
	require.NoError(t, res.Err)
	assert.True(t, res.Measured)
	assert.Equal(t, 8, res.Result.SampleCount)
	assert.InDelta(t, 1000, res.Result.Frequency, 1e-6)
	assert.Nil(t, res.Baseline)

	out := f.output()
	assert.True(t, strings.HasPrefix(out, "Running 1 benchmark...\n"), out)
	assert.Contains(t, out, "strings/builder: initializing...")
	assert.Contains(t, out, "collecting samples...")
	assert.Contains(t, out, "strings/builder: 1,000 runs/sec\n")

	log, err := history.Load(f.store.Path("strings/builder"), "strings/builder")
	require.NoError(t, err)
	require.Len(t, log.Entries, 1)
	entry := log.Entries[0]
	assert.Equal(t, "first", entry.Comment)
	assert.Equal(t, "1.0.0", entry.Version)
	assert.Equal(t, "example.com/mod", entry.Environment.ModuleName)
	assert.Equal(t, 10*time.Millisecond, entry.Options.MinSampleDuration)
	assert.Nil(t, log.Baseline(), "no baseline without --set-baseline")

	assert.Equal(t, apperrors.ExitSuccess, AnalyzeResults(results, err, f.out))
}

func TestExecuteBenchmarks_BaselineComparison(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	first := newFixture(t, dir)
	reg := catalog.New()
	reg.MustAdd("sort", first.clock.Work(time.Millisecond))
	cfg := runConfig()
	cfg.SetBaseline = true
	_, err := first.orch.ExecuteBenchmarks(context.Background(), reg.Benchmarks(), cfg)
	require.NoError(t, err)

	// A second process, twice as slow, compared against the stored baseline.
	second := newFixture(t, dir)
	reg = catalog.New()
	reg.MustAdd("sort", second.clock.Work(2*time.Millisecond))
	results, err := second.orch.ExecuteBenchmarks(context.Background(), reg.Benchmarks(), runConfig())
	require.NoError(t, err)
	require.Len(t, results, 1)

	res := results[0]
	require.NotNil(t, res.Baseline)
	assert.InDelta(t, 1000, res.Baseline.Frequency, 1e-6)
	assert.InDelta(t, 500, res.Result.Frequency, 1e-6)
	// The baseline heuristic holds the run until maxSampleCount gives up.
	assert.Equal(t, 32, res.Result.SampleCount)
	assert.Equal(t, benchmark.AbortMaxSampleCount, res.Result.Aborted)
	require.NotNil(t, res.Result.FailedHeuristic)
	assert.Equal(t, benchmark.KindBaseline, res.Result.FailedHeuristic.Heuristic)

	out := second.output()
	assert.Contains(t, out, "trying to meet the baseline (-50%)...")
	assert.Contains(t, out, "sort: 500 runs/sec -50% (gave up, failed baseline)\n")

	log, err := history.Load(second.store.Path("sort"), "sort")
	require.NoError(t, err)
	require.Len(t, log.Entries, 2)
	require.NotNil(t, log.Baseline())
	assert.Equal(t, log.Entries[0].ID, log.Baseline().ID, "the baseline must stay on the first entry")
}

// Scenario: one unit panics; the others still run and are recorded.
func TestExecuteBenchmarks_IsolatesFailures(t *testing.T) {
	t.Parallel()

	f := newFixture(t, t.TempDir())
	reg := catalog.New()
	reg.MustAdd("a", f.clock.Work(time.Millisecond))
	reg.MustAdd("b", func() { panic("boom") })
	reg.MustAdd("c", f.clock.Work(time.Millisecond))

	results, err := f.orch.ExecuteBenchmarks(context.Background(), reg.Benchmarks(), runConfig())
	require.NoError(t, err)
	require.Len(t, results, 3)

	assert.True(t, results[0].Measured)
	assert.True(t, results[2].Measured)
	assert.False(t, results[1].Measured)
	var benchErr apperrors.BenchmarkError
	require.True(t, errors.As(results[1].Err, &benchErr), "error = %v", results[1].Err)
	assert.Contains(t, benchErr.Error(), "boom")

	for _, name := range []string{"a", "c"} {
		_, statErr := os.Stat(f.store.Path(name))
		assert.NoError(t, statErr, "%s must be recorded", name)
	}
	_, statErr := os.Stat(f.store.Path("b"))
	assert.True(t, errors.Is(statErr, fs.ErrNotExist), "a failed unit must not be recorded")

	out := f.output()
	assert.Contains(t, out, "b: benchmark run failed: ")
	assert.Contains(t, out, "c: 1,000 runs/sec")

	assert.Equal(t, apperrors.ExitErrorGeneric, AnalyzeResults(results, err, f.out))
	summary := f.output()
	assert.Contains(t, summary, "--- Summary ---")
	assert.Contains(t, summary, "Failure (")

	textfile := filepath.Join(t.TempDir(), "out.prom")
	require.NoError(t, f.metrics.WriteToTextfile(textfile))
	data, readErr := os.ReadFile(textfile)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), `highscore_failures_total{benchmark="b"} 1`)
	assert.Contains(t, string(data), `highscore_samples{benchmark="c"} 8`)
}

func TestExecuteBenchmarks_BrokenHistory(t *testing.T) {
	t.Parallel()

	f := newFixture(t, t.TempDir())
	broken := f.store.Path("old")
	require.NoError(t, os.WriteFile(broken, []byte(`{"logVersion":"0.0.1","name":"old","entries":[]}`), 0o644))

	reg := catalog.New()
	reg.MustAdd("old", f.clock.Work(time.Millisecond))
	reg.MustAdd("new", f.clock.Work(time.Millisecond))

	results, err := f.orch.ExecuteBenchmarks(context.Background(), reg.Benchmarks(), runConfig())
	require.NoError(t, err)
	require.Len(t, results, 2)

	var schemaErr apperrors.HistorySchemaError
	assert.True(t, errors.As(results[0].Err, &schemaErr))
	assert.NoError(t, results[1].Err)

	data, readErr := os.ReadFile(broken)
	require.NoError(t, readErr)
	assert.Contains(t, string(data), `"0.0.1"`, "a broken log must not be overwritten")
}

func TestExecuteBenchmarks_NoLogAndQuiet(t *testing.T) {
	t.Parallel()

	f := newFixture(t, t.TempDir())
	reg := catalog.New()
	reg.MustAdd("quiet", f.clock.Work(time.Millisecond))
	cfg := runConfig()
	cfg.NoLog = true
	cfg.Quiet = true

	results, err := f.orch.ExecuteBenchmarks(context.Background(), reg.Benchmarks(), cfg)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Measured)

	out := f.output()
	assert.NotContains(t, out, "collecting samples")
	assert.Contains(t, out, "quiet: 1,000 runs/sec")

	_, statErr := os.Stat(f.store.Path("quiet"))
	assert.True(t, errors.Is(statErr, fs.ErrNotExist), "--no-log must not write history")
}

func TestExecuteBenchmarks_NotATerminal(t *testing.T) {
	t.Parallel()

	f := newFixture(t, t.TempDir())
	reg := catalog.New()
	reg.MustAdd("plain", f.clock.Work(time.Millisecond))
	reg.MustAdd("broken", func() { panic("boom") })
	cfg := runConfig()
	cfg.Interactive = false

	results, err := f.orch.ExecuteBenchmarks(context.Background(), reg.Benchmarks(), cfg)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.True(t, results[0].Measured)

	raw := f.out.String()
	assert.NotContains(t, raw, "\r")
	assert.NotContains(t, raw, "\x1b[K")

	out := f.output()
	assert.NotContains(t, out, "initializing")
	assert.NotContains(t, out, "collecting samples")
	assert.Contains(t, out, "Running 2 benchmarks...\nplain:  1,000 runs/sec\n")
	assert.Contains(t, out, "broken: benchmark run failed: ")
}

func TestExecuteBenchmarks_PerBenchmarkOptions(t *testing.T) {
	t.Parallel()

	f := newFixture(t, t.TempDir())
	limit := benchmark.AtMost(4)
	reg := catalog.New()
	reg.MustAdd("short", f.clock.Work(time.Millisecond), catalog.WithOptions(benchmark.Options{
		MinSampleCount: 4,
		MaxSampleCount: &limit,
		RunsPerSample:  3,
	}))

	results, err := f.orch.ExecuteBenchmarks(context.Background(), reg.Benchmarks(), runConfig())
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, 4, results[0].Result.SampleCount)
	assert.Equal(t, 3, results[0].Result.RunsPerSample)
}

func TestExecuteBenchmarks_CanceledBeforeStart(t *testing.T) {
	t.Parallel()

	f := newFixture(t, t.TempDir())
	reg := catalog.New()
	reg.MustAdd("never", f.clock.Work(time.Millisecond))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	results, err := f.orch.ExecuteBenchmarks(ctx, reg.Benchmarks(), runConfig())
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, results)
	assert.Equal(t, apperrors.ExitErrorCanceled, AnalyzeResults(results, err, f.out))
}

func TestExecuteBenchmarks_InterruptedBetweenSamples(t *testing.T) {
	t.Parallel()

	f := newFixture(t, t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	work := f.clock.Work(time.Millisecond)
	reg := catalog.New()
	reg.MustAdd("interrupted", func() {
		work()
		cancel()
	})
	reg.MustAdd("skipped", f.clock.Work(time.Millisecond))

	results, err := f.orch.ExecuteBenchmarks(ctx, reg.Benchmarks(), runConfig())
	assert.ErrorIs(t, err, context.Canceled)
	require.Len(t, results, 1, "the suite must stop after the interrupted benchmark")
	assert.False(t, results[0].Measured)
	assert.Contains(t, f.output(), "interrupted: interrupted")

	_, statErr := os.Stat(f.store.Path("interrupted"))
	assert.True(t, errors.Is(statErr, fs.ErrNotExist))
	assert.Equal(t, apperrors.ExitErrorCanceled, AnalyzeResults(results, err, f.out))
}

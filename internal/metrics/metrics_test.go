package metrics

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/agbru/highscore/internal/benchmark"
)

func TestRecordResult(t *testing.T) {
	t.Parallel()

	m := New()
	res := benchmark.Result{SampleCount: 32, RunsPerSample: 64, Frequency: 1500, Aborted: benchmark.AbortMaxSampleCount}
	m.RecordResult("hash/xxhash", res, &benchmark.Baseline{Frequency: 1000})

	tests := []struct {
		name string
		got  float64
		want float64
	}{
		{"frequency", testutil.ToFloat64(m.frequency.WithLabelValues("hash/xxhash")), 1500},
		{"samples", testutil.ToFloat64(m.samples.WithLabelValues("hash/xxhash")), 32},
		{"runs per sample", testutil.ToFloat64(m.runsPerSample.WithLabelValues("hash/xxhash")), 64},
		{"delta", testutil.ToFloat64(m.delta.WithLabelValues("hash/xxhash")), 0.5},
		{"aborted", testutil.ToFloat64(m.aborted.WithLabelValues("hash/xxhash", "maxSampleCount")), 1},
	}
	for _, tt := range tests {
		if tt.got != tt.want {
			t.Errorf("%s = %v, want %v", tt.name, tt.got, tt.want)
		}
	}
}

func TestRecordResult_CleanRunWithoutBaseline(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordResult("sort", benchmark.Result{SampleCount: 8, RunsPerSample: 1, Frequency: 10}, nil)
	if n := testutil.CollectAndCount(m.delta); n != 0 {
		t.Errorf("delta series = %d, want 0 without a baseline", n)
	}
	if n := testutil.CollectAndCount(m.aborted); n != 0 {
		t.Errorf("aborted series = %d, want 0 for a clean stop", n)
	}
}

func TestObserverAndFailures(t *testing.T) {
	t.Parallel()

	m := New()
	obs := m.Observer("x")
	for i := 0; i < 5; i++ {
		obs.Update(benchmark.Progress{SampleCount: i})
	}
	m.RecordFailure("y")
	m.RecordFailure("y")

	if got := testutil.ToFloat64(m.progress.WithLabelValues("x")); got != 5 {
		t.Errorf("progress updates = %v, want 5", got)
	}
	if got := testutil.ToFloat64(m.failures.WithLabelValues("y")); got != 2 {
		t.Errorf("failures = %v, want 2", got)
	}
}

func TestWriteToTextfile(t *testing.T) {
	t.Parallel()

	m := New()
	m.RecordResult("strings/builder", benchmark.Result{SampleCount: 8, RunsPerSample: 2, Frequency: 42}, nil)
	path := filepath.Join(t.TempDir(), "highscore.prom")
	if err := m.WriteToTextfile(path); err != nil {
		t.Fatalf("WriteToTextfile() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	want := `highscore_frequency_runs_per_second{benchmark="strings/builder"} 42`
	if !strings.Contains(string(data), want) {
		t.Errorf("textfile missing %q:\n%s", want, data)
	}
}

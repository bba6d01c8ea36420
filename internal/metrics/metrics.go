// Package metrics exports benchmark results in the Prometheus text format so
// that a CI job can feed them to node_exporter's textfile collector.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/agbru/highscore/internal/benchmark"
	apperrors "github.com/agbru/highscore/internal/errors"
)

// Metrics holds the per-benchmark gauges of one process. It uses its own
// registry, so several instances never collide.
//
// It tracks:
//   - Frequency of each benchmark (gauge)
//   - Samples and batch size of each run (gauges)
//   - Change against the baseline (gauge)
//   - Aborted runs, by reason (gauge)
//   - Samples collected and failed units (counters)
type Metrics struct {
	registry *prometheus.Registry

	frequency     *prometheus.GaugeVec
	samples       *prometheus.GaugeVec
	runsPerSample *prometheus.GaugeVec
	delta         *prometheus.GaugeVec
	aborted       *prometheus.GaugeVec
	progress      *prometheus.CounterVec
	failures      *prometheus.CounterVec
}

// New creates the metrics and registers them on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	factory := promauto.With(reg)
	return &Metrics{
		registry: reg,
		frequency: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "highscore_frequency_runs_per_second",
			Help: "Invocations per second derived from the best sample",
		}, []string{"benchmark"}),
		samples: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "highscore_samples",
			Help: "Number of samples the run collected",
		}, []string{"benchmark"}),
		runsPerSample: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "highscore_runs_per_sample",
			Help: "Calibrated batch size",
		}, []string{"benchmark"}),
		delta: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "highscore_baseline_delta_ratio",
			Help: "Relative change of frequency against the baseline",
		}, []string{"benchmark"}),
		aborted: factory.NewGaugeVec(prometheus.GaugeOpts{
			Name: "highscore_aborted",
			Help: "1 when the run hit a hard bound before the heuristics were satisfied",
		}, []string{"benchmark", "reason"}),
		progress: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "highscore_progress_updates_total",
			Help: "Progress updates emitted, one per sample taken",
		}, []string{"benchmark"}),
		failures: factory.NewCounterVec(prometheus.CounterOpts{
			Name: "highscore_failures_total",
			Help: "Benchmarks that ended with an error",
		}, []string{"benchmark"}),
	}
}

// Registry returns the registry holding every metric.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Observer returns a progress observer counting the samples of name.
func (m *Metrics) Observer(name string) benchmark.ProgressObserver {
	counter := m.progress.WithLabelValues(name)
	return benchmark.ObserverFunc(func(benchmark.Progress) {
		counter.Inc()
	})
}

// RecordResult publishes a finished run.
//
// Parameters:
//   - name: The benchmark name.
//   - res: The run result.
//   - baseline: The baseline it was compared against, or nil.
func (m *Metrics) RecordResult(name string, res benchmark.Result, baseline *benchmark.Baseline) {
	m.frequency.WithLabelValues(name).Set(res.Frequency)
	m.samples.WithLabelValues(name).Set(float64(res.SampleCount))
	m.runsPerSample.WithLabelValues(name).Set(float64(res.RunsPerSample))
	if baseline != nil && baseline.Frequency > 0 {
		m.delta.WithLabelValues(name).Set(baseline.Delta(res.Frequency))
	}
	if res.Aborted != benchmark.NotAborted {
		m.aborted.WithLabelValues(name, string(res.Aborted)).Set(1)
	}
}

// RecordFailure counts a benchmark that ended with an error.
func (m *Metrics) RecordFailure(name string) {
	m.failures.WithLabelValues(name).Inc()
}

// WriteToTextfile writes every metric to path atomically, in the format
// read by node_exporter's textfile collector.
func (m *Metrics) WriteToTextfile(path string) error {
	return apperrors.WrapError(prometheus.WriteToTextfile(path, m.registry), "failed to write metrics %s", path)
}

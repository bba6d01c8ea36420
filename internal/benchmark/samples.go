package benchmark

import (
	"math"
	"slices"
)

// SampleSet holds per-invocation durations in ascending order. Index 0 is the
// best estimate: interference only ever slows a sample down.
type SampleSet struct {
	samples []float64
}

// Insert adds a sample, keeping the set sorted, and reports whether it beat
// every previous sample. The first sample always counts as a new best.
func (s *SampleSet) Insert(v float64) (newBest bool) {
	newBest = len(s.samples) == 0 || v < s.samples[0]
	i, _ := slices.BinarySearch(s.samples, v)
	s.samples = slices.Insert(s.samples, i, v)
	return newBest
}

// Len returns the number of samples.
func (s *SampleSet) Len() int { return len(s.samples) }

// Best returns the smallest sample, or NaN when the set is empty.
func (s *SampleSet) Best() float64 {
	if len(s.samples) == 0 {
		return math.NaN()
	}
	return s.samples[0]
}

// Values returns a copy of the sorted samples.
func (s *SampleSet) Values() []float64 { return slices.Clone(s.samples) }

// VarianceAt returns the relative distance of the k-th best sample
// (1-indexed) from the best one, or NaN if there is no such sample.
func (s *SampleSet) VarianceAt(k int) float64 {
	if k < 1 || k > len(s.samples) {
		return math.NaN()
	}
	return relativeVariance(s.samples[k-1], s.samples[0])
}

// ConfirmingSamples counts the samples following the best one that stay
// within variance of it, stopping at the first that does not.
func (s *SampleSet) ConfirmingSamples(variance float64) int {
	for i := 1; i < len(s.samples); i++ {
		if s.VarianceAt(i+1) > variance {
			return i - 1
		}
	}
	return max(len(s.samples)-1, 0)
}

// frequencyOf converts the best per-invocation duration into invocations per
// second. It equals runsPerSample divided by the best batch duration.
func frequencyOf(best float64) float64 {
	return 1 / best
}

func relativeVariance(current, target float64) float64 {
	return (current - target) / target
}

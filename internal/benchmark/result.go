package benchmark

import (
	"encoding/json"
	"math"
)

// AbortReason names the hard bound that ended a run early.
type AbortReason string

const (
	// NotAborted marks a run that stopped because every heuristic cleared.
	NotAborted AbortReason = ""
	// AbortTimeout marks a run stopped by the wall-clock timeout.
	AbortTimeout AbortReason = "timeout"
	// AbortMaxSampleCount marks a run that exhausted maxSampleCount.
	AbortMaxSampleCount AbortReason = "maxSampleCount"
)

// Kind identifies a stopping heuristic.
type Kind string

const (
	KindConfirmation Kind = "confirmation"
	KindCooldown     Kind = "cooldown"
	KindBaseline     Kind = "baseline"
)

// HeuristicStatus explains what a blocked heuristic is waiting for. Only the
// fields relevant to Heuristic are meaningful.
type HeuristicStatus struct {
	Heuristic Kind
	// ConfirmingSamples is set for confirmation.
	ConfirmingSamples int
	// SamplesSinceBest is set for cooldown.
	SamplesSinceBest int
	// CurrentVariance is set for confirmation (variance of the sample that
	// would complete the confirmation, NaN if not yet taken) and baseline
	// (relative distance of the best frequency from the baseline).
	CurrentVariance float64
}

type heuristicStatusJSON struct {
	Heuristic         Kind     `json:"heuristic"`
	ConfirmingSamples *int     `json:"confirmingSamples,omitempty"`
	SamplesSinceBest  *int     `json:"samplesSinceBest,omitempty"`
	CurrentVariance   *float64 `json:"currentVariance,omitempty"`
}

// MarshalJSON writes only the fields of the status's own heuristic. A NaN
// variance is omitted.
func (s HeuristicStatus) MarshalJSON() ([]byte, error) {
	doc := heuristicStatusJSON{Heuristic: s.Heuristic}
	variance := s.CurrentVariance
	withVariance := !math.IsNaN(variance) && !math.IsInf(variance, 0)
	switch s.Heuristic {
	case KindConfirmation:
		n := s.ConfirmingSamples
		doc.ConfirmingSamples = &n
		if withVariance {
			doc.CurrentVariance = &variance
		}
	case KindCooldown:
		n := s.SamplesSinceBest
		doc.SamplesSinceBest = &n
	case KindBaseline:
		if withVariance {
			doc.CurrentVariance = &variance
		}
	}
	return json.Marshal(doc)
}

// UnmarshalJSON reads a status written by MarshalJSON. A missing variance
// decodes as NaN.
func (s *HeuristicStatus) UnmarshalJSON(data []byte) error {
	var doc heuristicStatusJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	out := HeuristicStatus{Heuristic: doc.Heuristic, CurrentVariance: math.NaN()}
	if doc.ConfirmingSamples != nil {
		out.ConfirmingSamples = *doc.ConfirmingSamples
	}
	if doc.SamplesSinceBest != nil {
		out.SamplesSinceBest = *doc.SamplesSinceBest
	}
	if doc.CurrentVariance != nil {
		out.CurrentVariance = *doc.CurrentVariance
	}
	*s = out
	return nil
}

// Progress is emitted before every sample.
type Progress struct {
	// SampleCount is the number of samples collected so far.
	SampleCount int
	// RunsPerSample is the calibrated batch size.
	RunsPerSample int
	// Waiting is the heuristic the run is currently blocked on, if any.
	Waiting *HeuristicStatus
}

// Result is the outcome of a completed run.
type Result struct {
	SampleCount   int         `json:"sampleCount"`
	RunsPerSample int         `json:"runsPerSample"`
	Frequency     float64     `json:"frequency"`
	Aborted       AbortReason `json:"aborted,omitempty"`
	// FailedHeuristic is the last heuristic status reported before the run
	// ended, nil if none was blocked.
	FailedHeuristic *HeuristicStatus `json:"failedHeuristic,omitempty"`
	// Blocked lists every heuristic that was blocked at the last evaluation,
	// in evaluation order.
	Blocked []HeuristicStatus `json:"blocked,omitempty"`
}

// Baseline is the slice of a previous Result consulted by the baseline
// heuristic.
type Baseline struct {
	Frequency float64
}

// BaselineOf returns the baseline view of a previous result.
func BaselineOf(r Result) *Baseline {
	return &Baseline{Frequency: r.Frequency}
}

// Delta returns the relative change of frequency against the baseline.
func (b *Baseline) Delta(frequency float64) float64 {
	return relativeVariance(frequency, b.Frequency)
}

package benchmark

import (
	"encoding/json"
	"math"
	"testing"
)

func TestHeuristicStatus_JSON(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name   string
		status HeuristicStatus
		want   string
	}{
		{
			"confirmation",
			HeuristicStatus{Heuristic: KindConfirmation, ConfirmingSamples: 1, CurrentVariance: 0.5},
			`{"heuristic":"confirmation","confirmingSamples":1,"currentVariance":0.5}`,
		},
		{
			"confirmation without diagnostic sample",
			HeuristicStatus{Heuristic: KindConfirmation, CurrentVariance: math.NaN()},
			`{"heuristic":"confirmation","confirmingSamples":0}`,
		},
		{
			"cooldown ignores variance",
			HeuristicStatus{Heuristic: KindCooldown, SamplesSinceBest: 2, CurrentVariance: 0.3},
			`{"heuristic":"cooldown","samplesSinceBest":2}`,
		},
		{
			"baseline",
			HeuristicStatus{Heuristic: KindBaseline, CurrentVariance: -0.5},
			`{"heuristic":"baseline","currentVariance":-0.5}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			data, err := json.Marshal(tt.status)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			if string(data) != tt.want {
				t.Errorf("Marshal() = %s, want %s", data, tt.want)
			}
		})
	}

	var decoded HeuristicStatus
	if err := json.Unmarshal([]byte(`{"heuristic":"cooldown","samplesSinceBest":2}`), &decoded); err != nil {
		t.Fatalf("Unmarshal() error = %v", err)
	}
	if decoded.Heuristic != KindCooldown || decoded.SamplesSinceBest != 2 || !math.IsNaN(decoded.CurrentVariance) {
		t.Errorf("Unmarshal() = %+v", decoded)
	}
}

func TestResult_JSONOmitsCleanFields(t *testing.T) {
	t.Parallel()

	data, err := json.Marshal(Result{SampleCount: 8, RunsPerSample: 16, Frequency: 1000})
	if err != nil {
		t.Fatalf("Marshal() error = %v", err)
	}
	want := `{"sampleCount":8,"runsPerSample":16,"frequency":1000}`
	if string(data) != want {
		t.Errorf("Marshal() = %s, want %s", data, want)
	}
}

func TestBaseline_Delta(t *testing.T) {
	t.Parallel()

	b := BaselineOf(Result{Frequency: 1000})
	if got := b.Delta(1100); math.Abs(got-0.1) > 1e-12 {
		t.Errorf("Delta(1100) = %v, want 0.1", got)
	}
	if got := b.Delta(500); math.Abs(got+0.5) > 1e-12 {
		t.Errorf("Delta(500) = %v, want -0.5", got)
	}
}

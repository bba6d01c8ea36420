package benchmark

// state is what the heuristics see after each sample.
type state struct {
	samples          *SampleSet
	runsPerSample    int
	samplesSinceBest int
	timedOut         bool
}

func (s state) bestFrequency() float64 {
	return frequencyOf(s.samples.Best())
}

// check is one stopping heuristic. blocked means the heuristic is not
// satisfied and its status should be reported; hold means the run must keep
// collecting because of it.
type check interface {
	evaluate(s state) (status HeuristicStatus, blocked, hold bool)
}

type baselineCheck struct {
	cfg      BaselineHeuristic
	baseline *Baseline
}

// A run slower than its baseline is held for up to cfg.SampleCount samples
// so a regression is confirmed rather than blamed on one noisy sample.
func (c baselineCheck) evaluate(s state) (HeuristicStatus, bool, bool) {
	variance := c.baseline.Delta(s.bestFrequency())
	if variance >= -c.cfg.Variance {
		return HeuristicStatus{}, false, false
	}
	status := HeuristicStatus{Heuristic: KindBaseline, CurrentVariance: variance}
	hold := s.samples.Len() < c.cfg.SampleCount && !s.timedOut
	return status, true, hold
}

type cooldownCheck struct {
	cfg CooldownHeuristic
}

func (c cooldownCheck) evaluate(s state) (HeuristicStatus, bool, bool) {
	if s.samplesSinceBest >= c.cfg.SampleCount {
		return HeuristicStatus{}, false, false
	}
	return HeuristicStatus{Heuristic: KindCooldown, SamplesSinceBest: s.samplesSinceBest}, true, true
}

type confirmationCheck struct {
	cfg ConfirmationHeuristic
}

func (c confirmationCheck) evaluate(s state) (HeuristicStatus, bool, bool) {
	confirming := s.samples.ConfirmingSamples(c.cfg.Variance)
	if confirming >= c.cfg.SampleCount {
		return HeuristicStatus{}, false, false
	}
	return HeuristicStatus{
		Heuristic:         KindConfirmation,
		ConfirmingSamples: confirming,
		CurrentVariance:   s.samples.VarianceAt(c.cfg.SampleCount + 1),
	}, true, true
}

// heuristicSet evaluates the enabled heuristics in a fixed order: baseline,
// cooldown, confirmation. When several are blocked the last one is the
// reported status.
type heuristicSet struct {
	checks []check
}

func newHeuristicSet(opts RunOptions, baseline *Baseline) heuristicSet {
	var set heuristicSet
	if opts.Baseline != nil && baseline != nil && baseline.Frequency > 0 {
		set.checks = append(set.checks, baselineCheck{cfg: *opts.Baseline, baseline: baseline})
	}
	if opts.Cooldown != nil {
		set.checks = append(set.checks, cooldownCheck{cfg: *opts.Cooldown})
	}
	if opts.Confirmation != nil {
		set.checks = append(set.checks, confirmationCheck{cfg: *opts.Confirmation})
	}
	return set
}

// verdict is the combined outcome of one evaluation.
type verdict struct {
	waiting *HeuristicStatus
	blocked []HeuristicStatus
	hold    bool
}

func (h heuristicSet) evaluate(s state) verdict {
	var v verdict
	for _, c := range h.checks {
		status, blocked, hold := c.evaluate(s)
		if !blocked {
			continue
		}
		st := status
		v.waiting = &st
		v.blocked = append(v.blocked, status)
		v.hold = v.hold || hold
	}
	return v
}

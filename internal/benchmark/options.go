package benchmark

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	apperrors "github.com/agbru/highscore/internal/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Heuristic Configurations
// ─────────────────────────────────────────────────────────────────────────────

// ConfirmationHeuristic asks for SampleCount samples within Variance of the
// best one before the best sample is trusted.
type ConfirmationHeuristic struct {
	SampleCount int     `json:"sampleCount" yaml:"sampleCount" validate:"gte=0"`
	Variance    float64 `json:"variance" yaml:"variance" validate:"gte=0"`
}

// CooldownHeuristic asks for SampleCount consecutive samples that fail to
// improve on the best one.
type CooldownHeuristic struct {
	SampleCount int `json:"sampleCount" yaml:"sampleCount" validate:"gte=0"`
}

// BaselineHeuristic gives a run that is slower than its baseline by more than
// Variance up to SampleCount samples to recover.
type BaselineHeuristic struct {
	SampleCount int     `json:"sampleCount" yaml:"sampleCount" validate:"gte=0"`
	Variance    float64 `json:"variance" yaml:"variance" validate:"gte=0"`
}

// ─────────────────────────────────────────────────────────────────────────────
// Tri-state settings
// ─────────────────────────────────────────────────────────────────────────────

// SettingMode distinguishes an unset option from an explicitly disabled one.
type SettingMode uint8

const (
	// SettingDefault inherits the value from the layer below.
	SettingDefault SettingMode = iota
	// SettingDisabled turns the heuristic off.
	SettingDisabled
	// SettingConfigured uses Setting.Value.
	SettingConfigured
)

// Setting is an optional layered option, such as a heuristic or the run
// timeout: Default, Disabled, or Configured with a value. The zero value is
// Default.
//
// In JSON, an absent field or null is Default, false is Disabled and an
// object is Configured.
type Setting[T any] struct {
	Mode  SettingMode
	Value T
}

// Disabled returns a Setting that switches the heuristic off.
func Disabled[T any]() Setting[T] {
	return Setting[T]{Mode: SettingDisabled}
}

// Configured returns a Setting carrying v.
func Configured[T any](v T) Setting[T] {
	return Setting[T]{Mode: SettingConfigured, Value: v}
}

// Merge returns s unless it is Default, in which case base is returned.
func (s Setting[T]) Merge(base Setting[T]) Setting[T] {
	if s.Mode == SettingDefault {
		return base
	}
	return s
}

// Resolve collapses the setting into a pointer: nil when disabled or left at
// Default without a fallback.
func (s Setting[T]) Resolve() *T {
	if s.Mode != SettingConfigured {
		return nil
	}
	v := s.Value
	return &v
}

// MarshalJSON encodes Default as null and Disabled as false.
func (s Setting[T]) MarshalJSON() ([]byte, error) {
	switch s.Mode {
	case SettingDisabled:
		return []byte("false"), nil
	case SettingConfigured:
		return json.Marshal(s.Value)
	default:
		return []byte("null"), nil
	}
}

// UnmarshalJSON accepts null, false or an object.
func (s *Setting[T]) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "null":
		*s = Setting[T]{}
		return nil
	case "false":
		*s = Disabled[T]()
		return nil
	case "true":
		return errors.New("heuristic setting must be false or an object, not true")
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	*s = Configured(v)
	return nil
}

// Limit is a sample-count upper bound that may be unbounded. The zero value
// is unbounded.
type Limit struct {
	n       int
	bounded bool
}

// Unbounded returns a Limit that never stops the run.
func Unbounded() Limit { return Limit{} }

// AtMost returns a Limit of n samples.
func AtMost(n int) Limit { return Limit{n: n, bounded: true} }

// Value returns the bound and whether one is set.
func (l Limit) Value() (int, bool) { return l.n, l.bounded }

// Reached reports whether count samples exhaust the bound.
func (l Limit) Reached(count int) bool { return l.bounded && count >= l.n }

// String renders the limit for logs and usage text.
func (l Limit) String() string {
	if !l.bounded {
		return "unbounded"
	}
	return fmt.Sprintf("%d", l.n)
}

// MarshalJSON encodes an unbounded limit as false.
func (l Limit) MarshalJSON() ([]byte, error) {
	if !l.bounded {
		return []byte("false"), nil
	}
	return json.Marshal(l.n)
}

// UnmarshalJSON accepts false, null or a number.
func (l *Limit) UnmarshalJSON(data []byte) error {
	switch string(data) {
	case "false", "null":
		*l = Unbounded()
		return nil
	}
	var n int
	if err := json.Unmarshal(data, &n); err != nil {
		return fmt.Errorf("maxSampleCount must be a number or false: %w", err)
	}
	*l = AtMost(n)
	return nil
}

// ─────────────────────────────────────────────────────────────────────────────
// Options
// ─────────────────────────────────────────────────────────────────────────────

// Options is a layer of benchmark options. Zero-valued scalar fields and
// Default settings inherit from the layer below when merged.
type Options struct {
	MinSampleDuration time.Duration
	MinSampleCount    int
	MaxSampleCount    *Limit
	// Timeout is Disabled to drop a timeout set by a lower layer.
	Timeout           Setting[time.Duration]
	RunsPerSample     int

	Confirmation Setting[ConfirmationHeuristic]
	Cooldown     Setting[CooldownHeuristic]
	Baseline     Setting[BaselineHeuristic]
}

// RunOptions is the fully resolved, read-only configuration of one run.
// A nil heuristic pointer means the heuristic is disabled.
type RunOptions struct {
	MinSampleDuration time.Duration `validate:"gte=0"`
	MinSampleCount    int           `validate:"gte=0"`
	MaxSampleCount    Limit
	// Timeout of zero means no timeout.
	Timeout time.Duration `validate:"gte=0"`
	// RunsPerSample of zero means auto-calibrate.
	RunsPerSample int `validate:"gte=0"`

	Confirmation *ConfirmationHeuristic
	Cooldown     *CooldownHeuristic
	Baseline     *BaselineHeuristic
}

// DefaultOptions returns the defaults every run starts from.
func DefaultOptions() Options {
	limit := AtMost(DefaultMaxSampleCount)
	return Options{
		MinSampleDuration: DefaultMinSampleDuration,
		MinSampleCount:    DefaultMinSampleCount,
		MaxSampleCount:    &limit,
		Confirmation:      Configured(ConfirmationHeuristic{SampleCount: 2, Variance: 0.01}),
		Cooldown:          Configured(CooldownHeuristic{SampleCount: 3}),
		Baseline:          Configured(BaselineHeuristic{SampleCount: 32, Variance: 0.01}),
	}
}

// Default option values.
const (
	DefaultMinSampleDuration = time.Second
	DefaultMinSampleCount    = 8
	DefaultMaxSampleCount    = 32
)

// Merge layers o over base: every field o sets wins.
func (o Options) Merge(base Options) Options {
	out := base
	if o.MinSampleDuration != 0 {
		out.MinSampleDuration = o.MinSampleDuration
	}
	if o.MinSampleCount != 0 {
		out.MinSampleCount = o.MinSampleCount
	}
	if o.MaxSampleCount != nil {
		limit := *o.MaxSampleCount
		out.MaxSampleCount = &limit
	}
	if o.RunsPerSample != 0 {
		out.RunsPerSample = o.RunsPerSample
	}
	out.Timeout = o.Timeout.Merge(base.Timeout)
	out.Confirmation = o.Confirmation.Merge(base.Confirmation)
	out.Cooldown = o.Cooldown.Merge(base.Cooldown)
	out.Baseline = o.Baseline.Merge(base.Baseline)
	return out
}

// Resolve turns a merged layer into RunOptions.
func (o Options) Resolve() RunOptions {
	limit := Unbounded()
	if o.MaxSampleCount != nil {
		limit = *o.MaxSampleCount
	}
	var timeout time.Duration
	if p := o.Timeout.Resolve(); p != nil {
		timeout = *p
	}
	return RunOptions{
		MinSampleDuration: o.MinSampleDuration,
		MinSampleCount:    o.MinSampleCount,
		MaxSampleCount:    limit,
		Timeout:           timeout,
		RunsPerSample:     o.RunsPerSample,
		Confirmation:      o.Confirmation.Resolve(),
		Cooldown:          o.Cooldown.Resolve(),
		Baseline:          o.Baseline.Resolve(),
	}
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate rejects negative values, a maximum sample count below the minimum
// and a zero minimum sample duration when the batch size is calibrated. The
// first offending field is reported as an apperrors.ValidationError.
func (o RunOptions) Validate() error {
	if err := validate.Struct(o); err != nil {
		var fieldErrs validator.ValidationErrors
		if errors.As(err, &fieldErrs) && len(fieldErrs) > 0 {
			fe := fieldErrs[0]
			return apperrors.NewValidationError(fe.Namespace(), fmt.Sprintf("must be %s %s", fe.Tag(), fe.Param()), fe.Value())
		}
		return apperrors.NewValidationError("", err.Error(), nil)
	}
	if maxCount, ok := o.MaxSampleCount.Value(); ok {
		if maxCount < 0 {
			return apperrors.NewValidationError("RunOptions.MaxSampleCount", "must be gte 0", maxCount)
		}
		if maxCount < o.MinSampleCount {
			return apperrors.NewValidationError("RunOptions.MaxSampleCount",
				fmt.Sprintf("must not be below minSampleCount (%d)", o.MinSampleCount), maxCount)
		}
	}
	if o.RunsPerSample == 0 && o.MinSampleDuration == 0 {
		return apperrors.NewValidationError("RunOptions.MinSampleDuration",
			"must be gt 0 when runsPerSample is calibrated", o.MinSampleDuration)
	}
	return nil
}

// runOptionsJSON is the persisted shape of RunOptions. Durations are stored
// in seconds; disabled heuristics and a missing timeout are stored as false.
type runOptionsJSON struct {
	MinSampleDuration     float64                        `json:"minSampleDuration"`
	MinSampleCount        int                            `json:"minSampleCount"`
	MaxSampleCount        Limit                          `json:"maxSampleCount"`
	Timeout               json.RawMessage                `json:"timeout"`
	RunsPerSample         *int                           `json:"runsPerSample,omitempty"`
	ConfirmationHeuristic Setting[ConfirmationHeuristic] `json:"confirmationHeuristic"`
	CooldownHeuristic     Setting[CooldownHeuristic]     `json:"cooldownHeuristic"`
	BaselineHeuristic     Setting[BaselineHeuristic]     `json:"baselineHeuristic"`
}

func settingOf[T any](p *T) Setting[T] {
	if p == nil {
		return Disabled[T]()
	}
	return Configured(*p)
}

// MarshalJSON writes the effective options in the history log format.
func (o RunOptions) MarshalJSON() ([]byte, error) {
	doc := runOptionsJSON{
		MinSampleDuration:     o.MinSampleDuration.Seconds(),
		MinSampleCount:        o.MinSampleCount,
		MaxSampleCount:        o.MaxSampleCount,
		Timeout:               json.RawMessage("false"),
		ConfirmationHeuristic: settingOf(o.Confirmation),
		CooldownHeuristic:     settingOf(o.Cooldown),
		BaselineHeuristic:     settingOf(o.Baseline),
	}
	if o.Timeout > 0 {
		raw, err := json.Marshal(o.Timeout.Seconds())
		if err != nil {
			return nil, err
		}
		doc.Timeout = raw
	}
	if o.RunsPerSample > 0 {
		runs := o.RunsPerSample
		doc.RunsPerSample = &runs
	}
	return json.Marshal(doc)
}

// UnmarshalJSON reads options written by MarshalJSON.
func (o *RunOptions) UnmarshalJSON(data []byte) error {
	var doc runOptionsJSON
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	out := RunOptions{
		MinSampleDuration: secondsToDuration(doc.MinSampleDuration),
		MinSampleCount:    doc.MinSampleCount,
		MaxSampleCount:    doc.MaxSampleCount,
		Confirmation:      doc.ConfirmationHeuristic.Resolve(),
		Cooldown:          doc.CooldownHeuristic.Resolve(),
		Baseline:          doc.BaselineHeuristic.Resolve(),
	}
	if doc.RunsPerSample != nil {
		out.RunsPerSample = *doc.RunsPerSample
	}
	if len(doc.Timeout) > 0 && string(doc.Timeout) != "false" && string(doc.Timeout) != "null" {
		var seconds float64
		if err := json.Unmarshal(doc.Timeout, &seconds); err != nil {
			return fmt.Errorf("timeout must be a number of seconds or false: %w", err)
		}
		out.Timeout = secondsToDuration(seconds)
	}
	*o = out
	return nil
}

func secondsToDuration(seconds float64) time.Duration {
	return time.Duration(seconds * float64(time.Second))
}

// SecondsToDuration converts a (possibly fractional) number of seconds, as
// used in config files and flags, into a time.Duration.
func SecondsToDuration(seconds float64) time.Duration { return secondsToDuration(seconds) }

// Package catalog collects the benchmarks a program wants to measure.
//
// A Registry is built once, before anything is measured, and handed to
// highscore.Main. Benchmarks keep their registration order, and groups give
// them slash-joined hierarchical names:
//
//	reg := catalog.New()
//	reg.Group("strings", func(g *catalog.Registry) {
//		g.Add("builder", func() { ... })
//	})
//	// registers "strings/builder"
package catalog

import (
	"fmt"
	"regexp"
	"slices"
	"strings"
	"sync"

	"golang.org/x/mod/semver"

	"github.com/agbru/highscore/internal/benchmark"
	"github.com/agbru/highscore/internal/history"
)

// Benchmark is one registered unit of work with its metadata.
type Benchmark struct {
	// Name is the full, slash-joined name.
	Name string
	// Unit is the work to measure.
	Unit benchmark.Unit
	// Comment is free text stored with every history entry.
	Comment string
	// Version identifies the benchmark's code; it is stored with history
	// entries so results of different implementations can be told apart.
	Version string
	// Options override the global defaults for this benchmark only.
	Options benchmark.Options
}

// Option customises a benchmark at registration time.
type Option func(*Benchmark)

// WithComment attaches a free-text comment.
func WithComment(comment string) Option {
	return func(b *Benchmark) { b.Comment = comment }
}

// WithVersion attaches a semantic version such as "1.2.0" or "v1.2.0".
func WithVersion(version string) Option {
	return func(b *Benchmark) { b.Version = version }
}

// WithDivisor sets how many logical operations one invocation performs.
func WithDivisor(divisor float64) Option {
	return func(b *Benchmark) { b.Unit.Divisor = divisor }
}

// WithOptions overrides the global options for this benchmark.
func WithOptions(opts benchmark.Options) Option {
	return func(b *Benchmark) { b.Options = opts }
}

// Registry is an ordered set of uniquely named benchmarks. It is safe for
// concurrent use, though registration normally happens on one goroutine.
type Registry struct {
	mu      *sync.Mutex
	prefix  []string
	entries *[]Benchmark
	// names maps each history file name to the benchmark that owns it.
	names map[string]string
}

// New returns an empty registry.
func New() *Registry {
	return &Registry{
		mu:      &sync.Mutex{},
		entries: &[]Benchmark{},
		names:   make(map[string]string),
	}
}

// Add registers fn under name.
//
// Parameters:
//   - name: The benchmark name, relative to the enclosing groups.
//   - fn: The work to measure.
//   - opts: Optional metadata and option overrides.
//
// Returns:
//   - error: If the name is empty or taken, fn is nil, the version is not
//     a valid semantic version, or the name maps to the history file of
//     another benchmark ("a/b" and "a-b" do).
func (r *Registry) Add(name string, fn func(), opts ...Option) error {
	return r.AddWithSetup(name, nil, fn, opts...)
}

// AddWithSetup registers fn under name with a setup function that runs
// before every sample, outside the timed window, with the batch size.
func (r *Registry) AddWithSetup(name string, setup func(n int), fn func(), opts ...Option) error {
	if strings.TrimSpace(name) == "" {
		return fmt.Errorf("benchmark name must not be empty")
	}
	if fn == nil {
		return fmt.Errorf("benchmark %q: work function must not be nil", name)
	}
	b := Benchmark{
		Name: r.qualify(name),
		Unit: benchmark.Unit{Func: fn, Setup: setup},
	}
	for _, opt := range opts {
		opt(&b)
	}
	if b.Version != "" && !semver.IsValid(canonicalVersion(b.Version)) {
		return fmt.Errorf("benchmark %q: invalid version %q", b.Name, b.Version)
	}
	if b.Unit.Divisor < 0 {
		return fmt.Errorf("benchmark %q: divisor must not be negative", b.Name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	file := history.FileName(b.Name)
	if owner, exists := r.names[file]; exists {
		if owner == b.Name {
			return fmt.Errorf("benchmark %q is already registered", b.Name)
		}
		return fmt.Errorf("benchmark %q would share the history file %s with %q", b.Name, file, owner)
	}
	r.names[file] = b.Name
	*r.entries = append(*r.entries, b)
	return nil
}

// MustAdd is like Add but panics on error. It suits registration code
// where a bad name is a programming mistake.
func (r *Registry) MustAdd(name string, fn func(), opts ...Option) {
	if err := r.Add(name, fn, opts...); err != nil {
		panic(err)
	}
}

// Group runs build with a view of the registry in which every name is
// prefixed with name and a slash. Groups nest.
func (r *Registry) Group(name string, build func(g *Registry)) {
	child := *r
	child.prefix = append(slices.Clone(r.prefix), name)
	build(&child)
}

// Benchmarks returns the registered benchmarks in registration order.
func (r *Registry) Benchmarks() []Benchmark {
	r.mu.Lock()
	defer r.mu.Unlock()
	return slices.Clone(*r.entries)
}

// Filter returns the benchmarks whose full name matches pattern, in
// registration order. A nil pattern matches everything.
func (r *Registry) Filter(pattern *regexp.Regexp) []Benchmark {
	all := r.Benchmarks()
	if pattern == nil {
		return all
	}
	return slices.DeleteFunc(all, func(b Benchmark) bool {
		return !pattern.MatchString(b.Name)
	})
}

// Len returns the number of registered benchmarks.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(*r.entries)
}

func (r *Registry) qualify(name string) string {
	if len(r.prefix) == 0 {
		return name
	}
	return strings.Join(r.prefix, "/") + "/" + name
}

func canonicalVersion(v string) string {
	if strings.HasPrefix(v, "v") {
		return v
	}
	return "v" + v
}

package catalog

import (
	"regexp"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/agbru/highscore/internal/benchmark"
)

func names(benches []Benchmark) []string {
	out := make([]string, len(benches))
	for i, b := range benches {
		out[i] = b.Name
	}
	return out
}

func TestRegistry_GroupsAndOrder(t *testing.T) {
	t.Parallel()

	reg := New()
	noop := func() {}
	reg.MustAdd("top", noop)
	reg.Group("strings", func(g *Registry) {
		g.MustAdd("builder", noop)
		g.Group("join", func(g *Registry) {
			g.MustAdd("small", noop)
		})
		g.MustAdd("concat", noop)
	})
	reg.MustAdd("last", noop)

	want := []string{"top", "strings/builder", "strings/join/small", "strings/concat", "last"}
	if diff := cmp.Diff(want, names(reg.Benchmarks())); diff != "" {
		t.Errorf("Benchmarks() mismatch (-want +got):\n%s", diff)
	}
	if reg.Len() != len(want) {
		t.Errorf("Len() = %d, want %d", reg.Len(), len(want))
	}
}

func TestRegistry_Options(t *testing.T) {
	t.Parallel()

	reg := New()
	var setupCalls []int
	opts := benchmark.Options{MinSampleDuration: 100 * time.Millisecond}
	err := reg.AddWithSetup("sort", func(n int) { setupCalls = append(setupCalls, n) }, func() {},
		WithComment("pdqsort"),
		WithVersion("1.2.0"),
		WithDivisor(1000),
		WithOptions(opts),
	)
	if err != nil {
		t.Fatalf("AddWithSetup() error = %v", err)
	}

	b := reg.Benchmarks()[0]
	if b.Comment != "pdqsort" || b.Version != "1.2.0" || b.Unit.Divisor != 1000 {
		t.Errorf("metadata not applied: %+v", b)
	}
	if b.Options.MinSampleDuration != opts.MinSampleDuration {
		t.Errorf("Options = %+v, want %+v", b.Options, opts)
	}
	b.Unit.Setup(4)
	if len(setupCalls) != 1 || setupCalls[0] != 4 {
		t.Errorf("setup calls = %v", setupCalls)
	}
}

func TestRegistry_Rejects(t *testing.T) {
	t.Parallel()

	reg := New()
	reg.MustAdd("taken", func() {})
	reg.Group("g", func(g *Registry) { g.MustAdd("taken", func() {}) })

	tests := []struct {
		name string
		add  func() error
	}{
		{"duplicate", func() error { return reg.Add("taken", func() {}) }},
		{"duplicate in group", func() error {
			var err error
			reg.Group("g", func(g *Registry) { err = g.Add("taken", func() {}) })
			return err
		}},
		{"empty name", func() error { return reg.Add(" ", func() {}) }},
		{"nil func", func() error { return reg.Add("nil", nil) }},
		{"bad version", func() error { return reg.Add("v", func() {}, WithVersion("one")) }},
		{"negative divisor", func() error { return reg.Add("d", func() {}, WithDivisor(-1)) }},
		{"same history file", func() error { return reg.Add("g-taken", func() {}) }},
	}
	for _, tt := range tests {
		if err := tt.add(); err == nil {
			t.Errorf("%s: expected an error", tt.name)
		}
	}
	if reg.Len() != 2 {
		t.Errorf("rejected benchmarks were registered: Len() = %d", reg.Len())
	}
}

func TestRegistry_VersionPrefix(t *testing.T) {
	t.Parallel()

	reg := New()
	for _, v := range []string{"1.0.0", "v2.1.3", "0.1.0-rc.1"} {
		if err := reg.Add("bench-"+v, func() {}, WithVersion(v)); err != nil {
			t.Errorf("version %q rejected: %v", v, err)
		}
	}
}

func TestRegistry_Filter(t *testing.T) {
	t.Parallel()

	reg := New()
	for _, n := range []string{"hash/xxhash", "hash/fnv", "sort/ints"} {
		reg.MustAdd(n, func() {})
	}

	tests := []struct {
		pattern *regexp.Regexp
		want    []string
	}{
		{nil, []string{"hash/xxhash", "hash/fnv", "sort/ints"}},
		{regexp.MustCompile(`^hash/`), []string{"hash/xxhash", "hash/fnv"}},
		{regexp.MustCompile(`ints$`), []string{"sort/ints"}},
		{regexp.MustCompile(`nothing`), []string{}},
	}
	for _, tt := range tests {
		got := names(reg.Filter(tt.pattern))
		if diff := cmp.Diff(tt.want, got); diff != "" {
			t.Errorf("Filter(%v) mismatch (-want +got):\n%s", tt.pattern, diff)
		}
	}
	if reg.Len() != 3 {
		t.Error("Filter must not modify the registry")
	}
}

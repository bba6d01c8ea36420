// Command highscore runs a small bundled suite of benchmarks. It shows how a
// program registers its own benchmarks and serves as a smoke test of the
// runner on a new machine.
package main

import (
	"hash/crc32"
	"hash/fnv"
	"math/rand/v2"
	"os"
	"slices"
	"sort"
	"strings"

	"github.com/cespare/xxhash/v2"

	"github.com/agbru/highscore/pkg/catalog"
	"github.com/agbru/highscore/pkg/highscore"
)

const (
	stringParts = 64
	sortLength  = 1024
	hashLength  = 4 << 10
)

// sink keeps results alive so the compiler cannot drop the work.
var sink uint64

func main() {
	os.Exit(highscore.Main(suite(), os.Args))
}

func suite() *catalog.Registry {
	reg := catalog.New()
	reg.Group("strings", registerStrings)
	reg.Group("sort", registerSort)
	reg.Group("hash", registerHash)
	return reg
}

func registerStrings(g *catalog.Registry) {
	part := "highscore"
	g.MustAdd("concat", func() {
		s := ""
		for range stringParts {
			s += part
		}
		sink += uint64(len(s))
	}, catalog.WithComment("string += in a loop"))
	g.MustAdd("builder", func() {
		var b strings.Builder
		b.Grow(stringParts * len(part))
		for range stringParts {
			b.WriteString(part)
		}
		sink += uint64(b.Len())
	}, catalog.WithComment("preallocated strings.Builder"))
	g.MustAdd("join", func() {
		parts := make([]string, stringParts)
		for i := range parts {
			parts[i] = part
		}
		sink += uint64(len(strings.Join(parts, "")))
	})
}

// registerSort measures in-place sorts. The input is shuffled by the setup
// function, outside the timed window; a batch sorts one copy per run.
func registerSort(g *catalog.Registry) {
	rng := rand.New(rand.NewPCG(1, 2))
	var batch [][]int
	next := 0
	setup := func(n int) {
		batch = batch[:0]
		for range n {
			data := make([]int, sortLength)
			for i := range data {
				data[i] = rng.IntN(1 << 20)
			}
			batch = append(batch, data)
		}
		next = 0
	}
	take := func() []int {
		data := batch[next%len(batch)]
		next++
		return data
	}

	must(g.AddWithSetup("slices", setup, func() {
		slices.Sort(take())
	}, catalog.WithVersion("v1.0.0")))
	must(g.AddWithSetup("sort.Ints", setup, func() {
		sort.Ints(take())
	}, catalog.WithVersion("v1.0.0")))
}

// registerHash measures throughput over a fixed buffer; the divisor turns
// runs/sec into bytes/sec.
func registerHash(g *catalog.Registry) {
	data := make([]byte, hashLength)
	for i := range data {
		data[i] = byte(i * 31)
	}
	perByte := catalog.WithDivisor(hashLength)

	g.MustAdd("xxhash", func() {
		sink += xxhash.Sum64(data)
	}, perByte, catalog.WithComment("bytes/sec"))
	g.MustAdd("fnv64a", func() {
		h := fnv.New64a()
		_, _ = h.Write(data)
		sink += h.Sum64()
	}, perByte, catalog.WithComment("bytes/sec"))
	g.MustAdd("crc32", func() {
		sink += uint64(crc32.ChecksumIEEE(data))
	}, perByte, catalog.WithComment("bytes/sec"))
}

func must(err error) {
	if err != nil {
		panic(err)
	}
}

// Package cli renders the progress and results of benchmark runs on a
// terminal: a same-line status while samples are collected, a result line
// per benchmark and a summary table at the end.
package cli

import (
	"fmt"
	"io"
	"sync"
	"unicode/utf8"

	"github.com/briandowns/spinner"

	"github.com/agbru/highscore/internal/benchmark"
	"github.com/agbru/highscore/internal/ui"
)

const (
	// beginningOfLine moves the cursor back to column 0.
	beginningOfLine = "\r"
	// clearLine erases from the cursor to the end of the line.
	clearLine = "\x1b[K"
)

// spinnerFrames is the frame set used in front of the progress message. The
// frames are advanced once per progress update instead of by a ticker, so no
// goroutine runs while a batch is being timed.
var spinnerFrames = spinner.CharSets[11]

// printSameLine overwrites the current terminal line with msg.
func printSameLine(out io.Writer, msg string) {
	fmt.Fprint(out, beginningOfLine+clearLine+msg)
}

// PrintInitializing announces a benchmark before calibration starts.
func PrintInitializing(out io.Writer, name string) {
	fmt.Fprintf(out, "%s: initializing...", name)
}

// ProgressPrinter renders benchmark.Progress updates for one benchmark on a
// single terminal line. It implements benchmark.ProgressObserver.
type ProgressPrinter struct {
	out   io.Writer
	name  string
	width int

	mu    sync.Mutex
	frame int
}

// Compile-time check.
var _ benchmark.ProgressObserver = (*ProgressPrinter)(nil)

// NewProgressPrinter creates a printer for the benchmark called name.
//
// Parameters:
//   - out: The terminal to write to.
//   - name: The benchmark name shown in front of every message.
//
// Returns:
//   - *ProgressPrinter: The printer.
func NewProgressPrinter(out io.Writer, name string) *ProgressPrinter {
	return &ProgressPrinter{out: out, name: name, width: ui.Width(out)}
}

// Update replaces the progress line with the message for p.
func (pp *ProgressPrinter) Update(p benchmark.Progress) {
	pp.mu.Lock()
	defer pp.mu.Unlock()
	frame := spinnerFrames[pp.frame%len(spinnerFrames)]
	pp.frame++
	text := fmt.Sprintf("%s: %s", pp.name, ProgressMessage(p))
	// A wrapped line cannot be overwritten; leave room for the frame.
	if pp.width > 2 {
		text = truncate(text, pp.width-3)
	}
	printSameLine(pp.out, ui.Muted(frame)+" "+text)
}

// truncate cuts s to at most n runes.
func truncate(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}

// ProgressMessage describes what a run is doing at p.
//
// Parameters:
//   - p: The progress snapshot.
//
// Returns:
//   - string: e.g. "(12) waiting for cooldown (2)...".
func ProgressMessage(p benchmark.Progress) string {
	if p.SampleCount == 0 {
		return "collecting samples..."
	}
	count := formatCount(p.SampleCount)
	if p.Waiting == nil {
		return fmt.Sprintf("(%s) collecting samples...", count)
	}
	switch p.Waiting.Heuristic {
	case benchmark.KindCooldown:
		return fmt.Sprintf("(%s) waiting for cooldown (%d)...", count, p.Waiting.SamplesSinceBest)
	case benchmark.KindConfirmation:
		return fmt.Sprintf("(%s) waiting for confirmation (%d)...", count, p.Waiting.ConfirmingSamples)
	case benchmark.KindBaseline:
		return fmt.Sprintf("(%s) trying to meet the baseline (%s)...", count, formatPercentage(p.Waiting.CurrentVariance*100))
	default:
		return fmt.Sprintf("(%s) collecting samples...", count)
	}
}

// ClearLine erases a pending progress or "initializing" line.
func ClearLine(out io.Writer) {
	fmt.Fprint(out, beginningOfLine+clearLine)
}

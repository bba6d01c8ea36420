package cli

import (
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"github.com/agbru/highscore/internal/benchmark"
	apperrors "github.com/agbru/highscore/internal/errors"
	"github.com/agbru/highscore/internal/ui"
)

// CLIColorProvider implements apperrors.ColorProvider using the current
// theme.
type CLIColorProvider struct{}

var _ apperrors.ColorProvider = CLIColorProvider{}

func (CLIColorProvider) Yellow() string { return ui.ColorWarning() }
func (CLIColorProvider) Red() string    { return ui.ColorError() }
func (CLIColorProvider) Reset() string  { return ui.ColorReset() }

// PrintBanner announces how many benchmarks are about to run.
func PrintBanner(out io.Writer, count int) {
	plural := "s"
	if count == 1 {
		plural = ""
	}
	fmt.Fprintf(out, "Running %d benchmark%s...\n", count, plural)
}

// PrintResult writes the result line of one benchmark, replacing the
// progress line.
//
// The line reads "<name>: <frequency> runs/sec", followed by the change
// against the baseline when there is one and, for an aborted run, why it was
// aborted and which heuristic was still unsatisfied.
//
// Parameters:
//   - out: The terminal to write to.
//   - name: The benchmark name.
//   - width: The longest benchmark name, used to align the frequencies.
//   - res: The run result.
//   - baseline: The baseline the run was compared against, or nil.
func PrintResult(out io.Writer, name string, width int, res benchmark.Result, baseline *benchmark.Baseline) {
	printSameLine(out, resultLine(name, width, res, baseline)+"\n")
}

// WriteResult prints the same line as PrintResult without first erasing the
// current line. It is meant for output that is not a terminal.
func WriteResult(out io.Writer, name string, width int, res benchmark.Result, baseline *benchmark.Baseline) {
	fmt.Fprintln(out, resultLine(name, width, res, baseline))
}

func resultLine(name string, width int, res benchmark.Result, baseline *benchmark.Baseline) string {
	var b strings.Builder
	b.WriteString(padRight(name+":", width+1))
	b.WriteString(" ")
	b.WriteString(ui.Accent(formatFrequency(res.Frequency)))
	b.WriteString(" runs/sec")
	if baseline != nil && baseline.Frequency > 0 {
		b.WriteString(" ")
		b.WriteString(colorDelta(baseline.Delta(res.Frequency)))
	}
	if note := abortNote(res); note != "" {
		b.WriteString(" ")
		b.WriteString(ui.Warning(note))
	}
	return b.String()
}

// abortNote explains an aborted run, e.g. "(gave up, failed cooldown)".
func abortNote(res benchmark.Result) string {
	var reason string
	switch res.Aborted {
	case benchmark.AbortTimeout:
		reason = "timed out"
	case benchmark.AbortMaxSampleCount:
		reason = "gave up"
	default:
		return ""
	}
	if res.FailedHeuristic != nil {
		return fmt.Sprintf("(%s, failed %s)", reason, res.FailedHeuristic.Heuristic)
	}
	return fmt.Sprintf("(%s, not enough samples)", reason)
}

func colorDelta(delta float64) string {
	text := formatPercentage(delta * 100)
	if delta < 0 {
		return ui.Error(text)
	}
	return ui.Success(text)
}

func padRight(s string, width int) string {
	if len(s) >= width {
		return s
	}
	return s + strings.Repeat(" ", width-len(s))
}

// SummaryRow is one benchmark in the end-of-run summary.
type SummaryRow struct {
	Name     string
	Result   *benchmark.Result
	Baseline *benchmark.Baseline
	Err      error
}

// PrintSummary renders a table of every benchmark that ran.
//
// Parameters:
//   - out: The writer for the table.
//   - rows: The benchmarks, in run order.
func PrintSummary(out io.Writer, rows []SummaryRow) {
	if len(rows) == 0 {
		return
	}
	fmt.Fprintf(out, "\n--- Summary ---\n")
	tw := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintf(tw, "%sBenchmark%s\t%sRuns/sec%s\t%sDelta%s\t%sSamples%s\t%sStatus%s\n",
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset(), ui.ColorUnderline(), ui.ColorReset(),
		ui.ColorUnderline(), ui.ColorReset())

	for _, row := range rows {
		if row.Err != nil || row.Result == nil {
			fmt.Fprintf(tw, "%s%s%s\t-\t-\t-\t%sFailure (%v)%s\n",
				ui.ColorAccent(), row.Name, ui.ColorReset(),
				ui.ColorError(), row.Err, ui.ColorReset())
			continue
		}
		res := row.Result
		delta := "-"
		if row.Baseline != nil && row.Baseline.Frequency > 0 {
			delta = formatPercentage(row.Baseline.Delta(res.Frequency) * 100)
		}
		status := fmt.Sprintf("%sok%s", ui.ColorSuccess(), ui.ColorReset())
		if note := abortNote(*res); note != "" {
			status = fmt.Sprintf("%s%s%s", ui.ColorWarning(), strings.Trim(note, "()"), ui.ColorReset())
		}
		fmt.Fprintf(tw, "%s%s%s\t%s\t%s\t%s\t%s\n",
			ui.ColorAccent(), row.Name, ui.ColorReset(),
			formatFrequency(res.Frequency), delta, formatCount(res.SampleCount), status)
	}
	if err := tw.Flush(); err != nil {
		fmt.Fprintf(out, "Warning: failed to flush tabwriter: %v\n", err)
	}
}

// Package highscore is the entry point for programs that bundle their own
// benchmark suite. A program builds a catalog.Registry and hands it to Main:
//
//	func main() {
//		reg := catalog.New()
//		reg.Add("strings/builder", buildString)
//		os.Exit(highscore.Main(reg, os.Args))
//	}
//
// Main parses the highscore command line, runs the benchmarks that match
// --include, prints their frequencies compared with the stored baselines and
// appends them to the history logs.
package highscore

import (
	"context"
	"io"
	"os"

	"github.com/agbru/highscore/internal/app"
	"github.com/agbru/highscore/internal/benchmark"
	apperrors "github.com/agbru/highscore/internal/errors"
	"github.com/agbru/highscore/pkg/catalog"
)

// Option types, re-exported so that per-benchmark options can be written
// outside this module and passed to catalog.WithOptions.
type (
	Options               = benchmark.Options
	Limit                 = benchmark.Limit
	ConfirmationHeuristic = benchmark.ConfirmationHeuristic
	CooldownHeuristic     = benchmark.CooldownHeuristic
	BaselineHeuristic     = benchmark.BaselineHeuristic
)

// AtMost returns a sample count limit of n.
func AtMost(n int) Limit { return benchmark.AtMost(n) }

// Unbounded returns a limit that never stops a run.
func Unbounded() Limit { return benchmark.Unbounded() }

// Disabled switches a heuristic or the timeout off for one benchmark.
func Disabled[T any]() benchmark.Setting[T] { return benchmark.Disabled[T]() }

// Configured sets a heuristic or the timeout for one benchmark.
func Configured[T any](v T) benchmark.Setting[T] { return benchmark.Configured(v) }

// Main runs the highscore CLI over reg with os.Stdout and os.Stderr and
// returns the process exit code.
//
// Parameters:
//   - reg: The benchmarks to choose from.
//   - args: The command-line arguments including the program name.
//
// Returns:
//   - int: 0 on success, 1 if any benchmark failed, 4 for configuration
//     errors and 130 when interrupted.
func Main(reg *catalog.Registry, args []string) int {
	return run(context.Background(), reg, args, os.Stdout, os.Stderr)
}

func run(ctx context.Context, reg *catalog.Registry, args []string, out, errOut io.Writer) int {
	application, err := app.New(reg, args, errOut)
	if err != nil {
		if app.IsHelpError(err) {
			return apperrors.ExitSuccess
		}
		return apperrors.ExitErrorConfig
	}
	return application.Run(ctx, out)
}

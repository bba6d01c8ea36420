package app

import (
	"context"
	"errors"
	"fmt"
	"io"

	flag "github.com/spf13/pflag"

	"github.com/agbru/highscore/internal/benchmark"
	"github.com/agbru/highscore/internal/cli"
	"github.com/agbru/highscore/internal/config"
	apperrors "github.com/agbru/highscore/internal/errors"
	"github.com/agbru/highscore/internal/history"
	"github.com/agbru/highscore/internal/logging"
	"github.com/agbru/highscore/internal/metrics"
	"github.com/agbru/highscore/internal/orchestration"
	"github.com/agbru/highscore/internal/ui"
	"github.com/agbru/highscore/pkg/catalog"
)

// Application represents one highscore invocation. It encapsulates the
// configuration and the benchmarks registered by the caller.
type Application struct {
	// Config holds the parsed application configuration.
	Config config.AppConfig
	// Registry holds the benchmarks that may be run.
	Registry *catalog.Registry
	// ErrWriter is the writer for diagnostics (typically os.Stderr).
	ErrWriter io.Writer
	// ProgramName is the command name used in completion scripts.
	ProgramName string
}

// New creates a new Application instance by parsing command-line arguments.
// It validates the configuration and returns an error if parsing or
// validation fails.
//
// Parameters:
//   - reg: The benchmarks to choose from.
//   - args: The command-line arguments (typically os.Args).
//   - errWriter: The writer for error output.
//
// Returns:
//   - *Application: A new application instance.
//   - error: An error if configuration parsing or validation fails.
func New(reg *catalog.Registry, args []string, errWriter io.Writer) (*Application, error) {
	// args[0] is program name, args[1:] are the actual arguments
	programName := "highscore"
	var cmdArgs []string
	if len(args) > 0 {
		programName = args[0]
		cmdArgs = args[1:]
	}

	cfg, err := config.ParseConfig(programName, cmdArgs, errWriter)
	if err != nil {
		return nil, err
	}
	if reg == nil {
		reg = catalog.New()
	}

	return &Application{
		Config:      cfg,
		Registry:    reg,
		ErrWriter:   errWriter,
		ProgramName: programName,
	}, nil
}

// Run executes the selected benchmarks and returns the exit code.
//
// Parameters:
//   - ctx: The context for managing cancellation. SIGINT and SIGTERM
//     cancel it as well.
//   - out: The writer for progress and results.
//
// Returns:
//   - int: An exit code (0 for success, non-zero for errors).
func (a *Application) Run(ctx context.Context, out io.Writer) int {
	if a.Config.ShowVersion {
		PrintVersion(out)
		return apperrors.ExitSuccess
	}
	// Handle completion script generation
	if a.Config.Completion != "" {
		return a.runCompletion(out)
	}

	// Initialize CLI theme (respects --no-color flag and NO_COLOR env var)
	ui.InitTheme(a.Config.NoColor)
	logger := logging.NewConsoleLogger(a.ErrWriter, a.Config.LogLevel, a.Config.NoColor)

	ctx, stop := interruptible(ctx, logger)
	defer stop()

	benches := a.Registry.Filter(a.Config.Include)
	if len(benches) == 0 {
		fmt.Fprintln(out, "No benchmarks to run.")
		return apperrors.ExitSuccess
	}

	m := metrics.New()
	runner := benchmark.NewRunner(benchmark.WithLogger(logger))
	store := history.NewStore(a.Config.LogDir, logger)
	orch := orchestration.New(runner, store, m, logger, out)

	results, err := orch.ExecuteBenchmarks(ctx, benches, orchestration.RunConfig{
		Defaults:    a.Config.Defaults,
		NoLog:       a.Config.NoLog,
		SetBaseline: a.Config.SetBaseline,
		Quiet:       a.Config.Quiet,
		Interactive: ui.IsTerminal(out),
		Environment: history.CurrentEnvironment(Version, a.Config.ModuleName, a.Config.ModuleVersion),
	})
	exitCode := orchestration.AnalyzeResults(results, err, out)

	if a.Config.MetricsFile != "" {
		if werr := m.WriteToTextfile(a.Config.MetricsFile); werr != nil {
			logger.Error("metrics not written", werr, logging.String("path", a.Config.MetricsFile))
			fmt.Fprintf(a.ErrWriter, "Error writing metrics: %v\n", werr)
			if exitCode == apperrors.ExitSuccess {
				exitCode = apperrors.ExitErrorGeneric
			}
		}
	}
	return exitCode
}

// runCompletion generates shell completion scripts.
func (a *Application) runCompletion(out io.Writer) int {
	benches := a.Registry.Benchmarks()
	names := make([]string, len(benches))
	for i, b := range benches {
		names[i] = b.Name
	}
	if err := cli.GenerateCompletion(out, a.Config.Completion, a.ProgramName, names); err != nil {
		fmt.Fprintf(a.ErrWriter, "Error generating completion: %v\n", err)
		return apperrors.ExitErrorConfig
	}
	return apperrors.ExitSuccess
}

// IsHelpError checks if the error is a help flag error (--help was used).
// This is useful for determining if the application should exit with success
// after displaying help text.
//
// Parameters:
//   - err: The error to check.
//
// Returns:
//   - bool: True if the error indicates help was requested.
func IsHelpError(err error) bool {
	return errors.Is(err, flag.ErrHelp)
}

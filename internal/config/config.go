// Package config provides the configuration management for the highscore
// runner. It parses command-line flags, applies environment overrides, reads
// the optional config file and merges everything into an AppConfig.
package config

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"regexp"
	"time"

	flag "github.com/spf13/pflag"

	"github.com/agbru/highscore/internal/benchmark"
	apperrors "github.com/agbru/highscore/internal/errors"
)

const (
	// EnvPrefix is the prefix for all environment variables used by highscore.
	EnvPrefix = "HIGHSCORE_"
)

// Default configuration values.
const (
	// DefaultConfigFile is read from the working directory when no config
	// file is given.
	DefaultConfigFile = "highscore.json"
	// DefaultLogDir holds the history logs, relative to the config file.
	DefaultLogDir = "bench-log"
	// DefaultLogLevel keeps diagnostics quiet unless something goes wrong.
	DefaultLogLevel = "warn"
)

// AppConfig aggregates the runner's configuration after flags, environment
// and config file have been merged.
type AppConfig struct {
	// ConfigFile is the config file that was read, empty if none.
	ConfigFile string
	// LogDir is the directory holding the history logs.
	LogDir string
	// Include, if set, restricts the run to benchmarks whose name matches.
	Include *regexp.Regexp
	// NoLog disables writing results to the history.
	NoLog bool
	// SetBaseline marks the recorded results as the new baselines.
	SetBaseline bool
	// Quiet suppresses progress output; results are still printed.
	Quiet bool
	// NoColor disables colored output. NO_COLOR is honoured as well.
	NoColor bool
	// LogLevel is the diagnostic log level (debug, info, warn, error).
	LogLevel string
	// MetricsFile, if set, receives the results in Prometheus text format.
	MetricsFile string
	// ShowVersion prints the version and exits.
	ShowVersion bool
	// Completion, if set, names the shell to print a completion script for.
	Completion string

	// ModuleName and ModuleVersion identify the code under measurement in
	// the history environment.
	ModuleName    string
	ModuleVersion string

	// Defaults are the options every benchmark starts from before its own
	// options are layered on top.
	Defaults benchmark.Options
}

// flagValues holds the raw flag values before they are merged with the
// config file.
type flagValues struct {
	configFile        string
	logDir            string
	include           string
	minSampleDuration float64
	noLog             bool
	setBaseline       bool
	quiet             bool
	noColor           bool
	logLevel          string
	metricsFile       string
	showVersion       bool
	completion        string
}

// ParseConfig parses the command-line arguments and builds the AppConfig.
//
// Precedence, lowest first: built-in defaults, config file, environment
// variables, flags. Relative log directories are resolved against the
// directory of the config file.
//
// Parameters:
//   - programName: The name of the program, used in the usage message.
//   - args: The command-line arguments (typically os.Args[1:]).
//   - errorWriter: Where parsing errors and usage information are printed.
//
// Returns:
//   - AppConfig: The populated configuration.
//   - error: pflag.ErrHelp when help was requested, a ConfigError for bad
//     input, or a ValidationError for invalid benchmark options.
func ParseConfig(programName string, args []string, errorWriter io.Writer) (AppConfig, error) {
	fs := flag.NewFlagSet(programName, flag.ContinueOnError)
	fs.SetOutput(errorWriter)

	var v flagValues
	fs.StringVarP(&v.configFile, "config", "c", "", "Config file (JSON with comments or YAML, default: highscore.json).")
	fs.StringVar(&v.logDir, "log-dir", "", "Directory to put logs in (default: bench-log).")
	fs.StringVarP(&v.include, "include", "t", "", "Run only benchmarks matching a given regex.")
	fs.Float64Var(&v.minSampleDuration, "min-sample-duration", 0, "Ensure that each sample takes at least this many seconds.")
	fs.BoolVar(&v.noLog, "no-log", false, "Don't save the results to the log.")
	fs.BoolVar(&v.setBaseline, "set-baseline", false, "Mark these results as the baseline for future runs.")
	fs.BoolVarP(&v.quiet, "quiet", "q", false, "Print only the results of the benchmarks (no progress).")
	fs.BoolVar(&v.noColor, "no-color", false, "Disable colored output (also respects NO_COLOR env var).")
	fs.StringVar(&v.logLevel, "log-level", DefaultLogLevel, "Diagnostic log level: debug, info, warn or error.")
	fs.StringVar(&v.metricsFile, "metrics-file", "", "Write the results to this file in Prometheus text format.")
	fs.BoolVar(&v.showVersion, "version", false, "Print the version and exit.")
	fs.StringVar(&v.completion, "completion", "", "Print a completion script for bash, zsh or fish and exit.")

	setCustomUsage(fs)

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			return AppConfig{}, err
		}
		return AppConfig{}, apperrors.NewConfigError("%v", err)
	}
	if fs.NArg() > 0 {
		return AppConfig{}, apperrors.NewConfigError("unexpected arguments: %v", fs.Args())
	}

	// Apply environment variable overrides for flags not explicitly set
	if err := applyEnvOverrides(&v, fs); err != nil {
		return AppConfig{}, err
	}

	config, err := build(v)
	if err != nil {
		fmt.Fprintln(errorWriter, "Configuration error:", err)
		return AppConfig{}, err
	}
	return config, nil
}

// build merges the flag values with the config file.
func build(v flagValues) (AppConfig, error) {
	file, path, err := loadConfigFile(v.configFile)
	if err != nil {
		return AppConfig{}, err
	}
	baseDir, err := configDir(path)
	if err != nil {
		return AppConfig{}, err
	}

	config := AppConfig{
		ConfigFile:    path,
		NoLog:         v.noLog,
		SetBaseline:   v.setBaseline,
		Quiet:         v.quiet,
		NoColor:       v.noColor,
		LogLevel:      v.logLevel,
		MetricsFile:   v.metricsFile,
		ShowVersion:   v.showVersion,
		Completion:    v.completion,
		ModuleName:    file.ModuleName,
		ModuleVersion: file.ModuleVersion,
	}

	logDir := firstNonEmpty(v.logDir, file.LogDir, DefaultLogDir)
	if !filepath.IsAbs(logDir) {
		logDir = filepath.Join(baseDir, logDir)
	}
	config.LogDir = logDir

	if v.include != "" {
		re, err := regexp.Compile(v.include)
		if err != nil {
			return AppConfig{}, apperrors.NewConfigError("invalid include pattern %q: %v", v.include, err)
		}
		config.Include = re
	}

	if v.minSampleDuration < 0 {
		return AppConfig{}, apperrors.NewValidationError("min-sample-duration", "must not be negative", v.minSampleDuration)
	}
	overrides := benchmark.Options{MinSampleDuration: benchmark.SecondsToDuration(v.minSampleDuration)}
	config.Defaults = overrides.Merge(file.options().Merge(benchmark.DefaultOptions()))
	if err := config.Defaults.Resolve().Validate(); err != nil {
		return AppConfig{}, err
	}
	return config, nil
}

// configDir returns the directory relative paths are resolved against: the
// config file's directory, or the working directory without one.
func configDir(configFile string) (string, error) {
	if configFile != "" {
		return filepath.Dir(configFile), nil
	}
	wd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("cannot get working directory: %w", err)
	}
	return wd, nil
}

func firstNonEmpty(values ...string) string {
	for _, s := range values {
		if s != "" {
			return s
		}
	}
	return ""
}

// durationFlag renders a duration for usage text.
func durationFlag(d time.Duration) string {
	return fmt.Sprintf("%gs", d.Seconds())
}

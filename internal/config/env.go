package config

import (
	"os"
	"strconv"
	"strings"

	flag "github.com/spf13/pflag"

	apperrors "github.com/agbru/highscore/internal/errors"
)

// ─────────────────────────────────────────────────────────────────────────────
// Environment Variable Utilities
// ─────────────────────────────────────────────────────────────────────────────

// getEnvString returns the value of the environment variable with the given key
// (prefixed with EnvPrefix), or the default value if not set.
func getEnvString(key, defaultVal string) string {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		return val
	}
	return defaultVal
}

// getEnvFloat returns the environment variable parsed as float64. Unlike the
// other getters it reports a malformed value, since silently measuring with
// the wrong sample duration would skew every result.
func getEnvFloat(key string, defaultVal float64) (float64, error) {
	val := os.Getenv(EnvPrefix + key)
	if val == "" {
		return defaultVal, nil
	}
	parsed, err := strconv.ParseFloat(val, 64)
	if err != nil {
		return defaultVal, apperrors.NewConfigError("%s%s: not a number: %q", EnvPrefix, key, val)
	}
	return parsed, nil
}

// getEnvBool returns the value of the environment variable with the given key
// (prefixed with EnvPrefix) parsed as bool, or the default value if not set.
// Accepts "true", "1", "yes" as true; "false", "0", "no" as false (case-insensitive).
func getEnvBool(key string, defaultVal bool) bool {
	if val := os.Getenv(EnvPrefix + key); val != "" {
		switch strings.ToLower(val) {
		case "true", "1", "yes":
			return true
		case "false", "0", "no":
			return false
		}
	}
	return defaultVal
}

// isFlagSet checks if a flag was explicitly set on the command line.
func isFlagSet(fs *flag.FlagSet, name string) bool {
	return fs.Changed(name)
}

// applyEnvOverrides applies environment variable values for any flags that
// were not explicitly set on the command line.
// This implements the priority: CLI flags > Environment variables > config
// file > Defaults.
//
// Supported environment variables:
//   - HIGHSCORE_CONFIG: Config file path (string)
//   - HIGHSCORE_LOG_DIR: History directory (string)
//   - HIGHSCORE_INCLUDE: Benchmark name filter (regex)
//   - HIGHSCORE_MIN_SAMPLE_DURATION: Minimum sample duration (seconds, float)
//   - HIGHSCORE_NO_LOG: Disable history writes (bool: true/false, 1/0, yes/no)
//   - HIGHSCORE_SET_BASELINE: Record results as baselines (bool)
//   - HIGHSCORE_QUIET: Suppress progress output (bool)
//   - HIGHSCORE_NO_COLOR: Disable colored output (bool)
//   - HIGHSCORE_LOG_LEVEL: Diagnostic log level (string)
//   - HIGHSCORE_METRICS_FILE: Prometheus textfile path (string)
func applyEnvOverrides(v *flagValues, fs *flag.FlagSet) error {
	applyStringOverrides(v, fs)
	applyBooleanOverrides(v, fs)
	if !isFlagSet(fs, "min-sample-duration") {
		seconds, err := getEnvFloat("MIN_SAMPLE_DURATION", v.minSampleDuration)
		if err != nil {
			return err
		}
		v.minSampleDuration = seconds
	}
	return nil
}

func applyStringOverrides(v *flagValues, fs *flag.FlagSet) {
	if !isFlagSet(fs, "config") {
		v.configFile = getEnvString("CONFIG", v.configFile)
	}
	if !isFlagSet(fs, "log-dir") {
		v.logDir = getEnvString("LOG_DIR", v.logDir)
	}
	if !isFlagSet(fs, "include") {
		v.include = getEnvString("INCLUDE", v.include)
	}
	if !isFlagSet(fs, "log-level") {
		v.logLevel = getEnvString("LOG_LEVEL", v.logLevel)
	}
	if !isFlagSet(fs, "metrics-file") {
		v.metricsFile = getEnvString("METRICS_FILE", v.metricsFile)
	}
}

func applyBooleanOverrides(v *flagValues, fs *flag.FlagSet) {
	if !isFlagSet(fs, "no-log") {
		v.noLog = getEnvBool("NO_LOG", v.noLog)
	}
	if !isFlagSet(fs, "set-baseline") {
		v.setBaseline = getEnvBool("SET_BASELINE", v.setBaseline)
	}
	if !isFlagSet(fs, "quiet") {
		v.quiet = getEnvBool("QUIET", v.quiet)
	}
	if !isFlagSet(fs, "no-color") {
		v.noColor = getEnvBool("NO_COLOR", v.noColor)
	}
}

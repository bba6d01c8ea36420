package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tailscale/hujson"
	"gopkg.in/yaml.v3"

	"github.com/agbru/highscore/internal/benchmark"
	apperrors "github.com/agbru/highscore/internal/errors"
)

// FileConfig is the content of a config file.
//
// Example (highscore.json):
//
//	{
//	  // history next to the config file
//	  "logDir": "bench-log",
//	  "moduleName": "example.com/fastjson",
//	  "timeout": 30,
//	  "defaults": {"minSampleCount": 16, "cooldownHeuristic": false}
//	}
type FileConfig struct {
	LogDir        string `json:"logDir"`
	ModuleName    string `json:"moduleName"`
	ModuleVersion string `json:"moduleVersion"`
	// Timeout is in seconds; false or 0 means no timeout. When present it
	// wins over defaults.timeout.
	Timeout  json.RawMessage `json:"timeout"`
	Defaults *FileOptions    `json:"defaults"`

	timeout benchmark.Setting[time.Duration]
}

// FileOptions is the config file form of benchmark.Options. Durations are in
// seconds; absent fields inherit the built-in defaults.
type FileOptions struct {
	MinSampleDuration float64                                            `json:"minSampleDuration"`
	MinSampleCount    int                                                `json:"minSampleCount"`
	MaxSampleCount    *benchmark.Limit                                   `json:"maxSampleCount"`
	Timeout           json.RawMessage                                    `json:"timeout"`
	RunsPerSample     int                                                `json:"runsPerSample"`
	Confirmation      benchmark.Setting[benchmark.ConfirmationHeuristic] `json:"confirmationHeuristic"`
	Cooldown          benchmark.Setting[benchmark.CooldownHeuristic]     `json:"cooldownHeuristic"`
	Baseline          benchmark.Setting[benchmark.BaselineHeuristic]     `json:"baselineHeuristic"`

	timeout benchmark.Setting[time.Duration]
}

// options layers the file's defaults and timeout into benchmark.Options.
// The top-level timeout wins over defaults.timeout.
func (f FileConfig) options() benchmark.Options {
	var opts benchmark.Options
	if d := f.Defaults; d != nil {
		opts = benchmark.Options{
			MinSampleDuration: benchmark.SecondsToDuration(d.MinSampleDuration),
			MinSampleCount:    d.MinSampleCount,
			MaxSampleCount:    d.MaxSampleCount,
			RunsPerSample:     d.RunsPerSample,
			Confirmation:      d.Confirmation,
			Cooldown:          d.Cooldown,
			Baseline:          d.Baseline,
			Timeout:           d.timeout,
		}
	}
	opts.Timeout = f.timeout.Merge(opts.Timeout)
	return opts
}

// loadConfigFile reads the config file at path. An empty path looks for
// DefaultConfigFile in the working directory, which may be missing; an
// explicit path must exist.
//
// Returns the parsed file, its absolute path (empty when nothing was read)
// and any error.
func loadConfigFile(path string) (FileConfig, string, error) {
	mustExist := path != ""
	if path == "" {
		path = DefaultConfigFile
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return FileConfig{}, "", apperrors.NewConfigError("invalid config path %q: %v", path, err)
	}

	data, err := os.ReadFile(abs)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) && !mustExist {
			return FileConfig{}, "", nil
		}
		return FileConfig{}, "", apperrors.NewConfigError("cannot read config file %s: %v", path, err)
	}

	cfg, err := parseFile(abs, data)
	if err != nil {
		return FileConfig{}, "", apperrors.NewConfigError("invalid config file %s: %v", path, err)
	}
	return cfg, abs, nil
}

// parseFile decodes YAML (.yaml, .yml) or JSON with comments (anything
// else). YAML is converted to JSON first so both formats share the same
// decoding rules for tri-state heuristics and limits.
func parseFile(path string, data []byte) (FileConfig, error) {
	var standardized []byte
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		var doc any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return FileConfig{}, fmt.Errorf("invalid YAML: %w", err)
		}
		if doc == nil {
			doc = map[string]any{}
		}
		converted, err := json.Marshal(doc)
		if err != nil {
			return FileConfig{}, fmt.Errorf("unsupported YAML value: %w", err)
		}
		standardized = converted
	default:
		converted, err := hujson.Standardize(data)
		if err != nil {
			return FileConfig{}, fmt.Errorf("invalid JSONC: %w", err)
		}
		standardized = converted
	}

	dec := json.NewDecoder(bytes.NewReader(standardized))
	dec.DisallowUnknownFields()
	var cfg FileConfig
	if err := dec.Decode(&cfg); err != nil {
		return FileConfig{}, fmt.Errorf("invalid JSON: %w", err)
	}

	timeout, err := parseTimeout(cfg.Timeout)
	if err != nil {
		return FileConfig{}, fmt.Errorf("timeout: %w", err)
	}
	cfg.timeout = timeout
	if cfg.Defaults != nil {
		timeout, err := parseTimeout(cfg.Defaults.Timeout)
		if err != nil {
			return FileConfig{}, fmt.Errorf("defaults.timeout: %w", err)
		}
		cfg.Defaults.timeout = timeout
	}
	return cfg, nil
}

// parseTimeout reads a number of seconds. Absent or null inherits; false or
// 0 disables any timeout set below.
func parseTimeout(raw json.RawMessage) (benchmark.Setting[time.Duration], error) {
	switch strings.TrimSpace(string(raw)) {
	case "", "null":
		return benchmark.Setting[time.Duration]{}, nil
	case "false":
		return benchmark.Disabled[time.Duration](), nil
	}
	var seconds float64
	if err := json.Unmarshal(raw, &seconds); err != nil {
		return benchmark.Setting[time.Duration]{}, errors.New("must be a number of seconds or false")
	}
	if seconds < 0 {
		return benchmark.Setting[time.Duration]{}, errors.New("must not be negative")
	}
	if seconds == 0 {
		return benchmark.Disabled[time.Duration](), nil
	}
	return benchmark.Configured(benchmark.SecondsToDuration(seconds)), nil
}

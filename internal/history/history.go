// Package history persists benchmark results as one append-only JSON log per
// benchmark, and tracks which entry is the baseline for later runs.
package history

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/natefinch/atomic"

	"github.com/agbru/highscore/internal/benchmark"
	apperrors "github.com/agbru/highscore/internal/errors"
)

// LogVersion is the schema version written to and expected in every log.
// Logs with another version are rejected, never migrated.
const LogVersion = "0.1.0"

// fileSuffix is appended to the sanitised benchmark name.
const fileSuffix = ".log.json"

// Entry is one recorded run.
type Entry struct {
	ID          uuid.UUID            `json:"id"`
	Timestamp   time.Time            `json:"timestamp"`
	Result      benchmark.Result     `json:"result"`
	Options     benchmark.RunOptions `json:"options"`
	Environment Environment          `json:"environment"`
	Comment     string               `json:"comment,omitempty"`
	Version     string               `json:"version,omitempty"`
}

// NewEntry stamps a result with a fresh id and the current time, truncated
// to seconds as it is stored.
func NewEntry(result benchmark.Result, opts benchmark.RunOptions, env Environment, comment, version string) Entry {
	return Entry{
		ID:          uuid.New(),
		Timestamp:   time.Now().UTC().Truncate(time.Second),
		Result:      result,
		Options:     opts,
		Environment: env,
		Comment:     comment,
		Version:     version,
	}
}

// Log is the history of one benchmark.
type Log struct {
	LogVersion string  `json:"logVersion"`
	Name       string  `json:"name"`
	Entries    []Entry `json:"entries"`
	// BaselineIndex points into Entries; nil when no baseline was set.
	BaselineIndex *int `json:"baseline,omitempty"`
}

// NewLog returns an empty log for name.
func NewLog(name string) *Log {
	return &Log{LogVersion: LogVersion, Name: name, Entries: []Entry{}}
}

// Baseline returns the baseline entry, or nil when none is set or the index
// no longer points at an entry.
func (l *Log) Baseline() *Entry {
	if l.BaselineIndex == nil {
		return nil
	}
	i := *l.BaselineIndex
	if i < 0 || i >= len(l.Entries) {
		return nil
	}
	return &l.Entries[i]
}

// Latest returns the most recent entry, or nil for an empty log.
func (l *Log) Latest() *Entry {
	if len(l.Entries) == 0 {
		return nil
	}
	return &l.Entries[len(l.Entries)-1]
}

// Append adds e at the end of the log and, if markBaseline is set, makes it
// the baseline.
func (l *Log) Append(e Entry, markBaseline bool) {
	l.Entries = append(l.Entries, e)
	if markBaseline {
		i := len(l.Entries) - 1
		l.BaselineIndex = &i
	}
}

// clone returns a copy of l that can be appended to without touching l.
func (l *Log) clone() *Log {
	c := *l
	c.Entries = slices.Clone(l.Entries)
	if l.BaselineIndex != nil {
		i := *l.BaselineIndex
		c.BaselineIndex = &i
	}
	return &c
}

// FileName returns the log file name for a benchmark. Path separators and
// other characters that are unsafe in file names become dashes.
func FileName(name string) string {
	return fileNameReplacer.Replace(name) + fileSuffix
}

var fileNameReplacer = strings.NewReplacer(
	"/", "-", `\`, "-", "?", "-", "%", "-", "*", "-", ":", "-", "|", "-",
	`"`, "-", "<", "-", ">", "-", ".", "-", ",", "-", "=", "-", " ", "-",
)

// Load reads the log at path. A missing file yields an empty log for name.
//
// Parameters:
//   - path: The log file.
//   - name: The benchmark name, used for a new log.
//
// Returns:
//   - *Log: The loaded or new log.
//   - error: A read or parse error, an apperrors.HistorySchemaError when
//     the file was written with another schema version, or an error when
//     the file records another benchmark.
func Load(path, name string) (*Log, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return NewLog(name), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read history %s: %w", path, err)
	}

	var log Log
	if err := json.Unmarshal(data, &log); err != nil {
		return nil, fmt.Errorf("failed to parse history %s: %w", path, err)
	}
	if log.LogVersion != LogVersion {
		return nil, apperrors.HistorySchemaError{Path: path, Found: log.LogVersion, Want: LogVersion}
	}
	if log.Name != name {
		return nil, fmt.Errorf("history %s belongs to benchmark %q, not %q", path, log.Name, name)
	}
	if log.Entries == nil {
		log.Entries = []Entry{}
	}
	return &log, nil
}

// Save writes the log to path atomically, creating parent directories.
func (l *Log) Save(path string) error {
	data, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to encode history %s: %w", path, err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create history directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(append(data, '\n'))); err != nil {
		return fmt.Errorf("failed to write history %s: %w", path, err)
	}
	return nil
}

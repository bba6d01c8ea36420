package app

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/agbru/highscore/internal/errors"
	"github.com/agbru/highscore/internal/history"
	"github.com/agbru/highscore/internal/logging"
	"github.com/agbru/highscore/internal/testutil"
	"github.com/agbru/highscore/pkg/catalog"
)

// spin is a small deterministic workload.
func spin() {
	sum := 0
	for i := range 200 {
		sum += i * i
	}
	_ = sum
}

func testRegistry() *catalog.Registry {
	reg := catalog.New()
	reg.Group("math", func(g *catalog.Registry) {
		g.MustAdd("squares", spin)
	})
	reg.MustAdd("strings/repeat", func() { _ = strings.Repeat("ab", 32) })
	return reg
}

// fastArgs keeps real-clock runs short.
func fastArgs(extra ...string) []string {
	return append([]string{"highscore", "--min-sample-duration", "0.001", "--no-color"}, extra...)
}

// TestNew tests the New function for creating Application instances.
func TestNew(t *testing.T) {
	t.Parallel()
	t.Run("Valid args create application", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		app, err := New(testRegistry(), []string{"highscore", "-t", "^math/", "--no-log"}, &errBuf)

		if err != nil {
			t.Fatalf("New() returned unexpected error: %v", err)
		}
		if app == nil {
			t.Fatal("New() returned nil application")
		}
		if !app.Config.NoLog || app.Config.Include == nil {
			t.Errorf("flags not applied: %+v", app.Config)
		}
		if app.Registry.Len() != 2 {
			t.Errorf("Registry.Len() = %d, want 2", app.Registry.Len())
		}
	})

	t.Run("Invalid args return error", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		app, err := New(testRegistry(), []string{"highscore", "--invalid-flag"}, &errBuf)

		var cfgErr apperrors.ConfigError
		if !errors.As(err, &cfgErr) {
			t.Errorf("New() error = %v, want ConfigError", err)
		}
		if app != nil {
			t.Error("New() should return nil application on error")
		}
	})

	t.Run("Help flag returns error", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		_, err := New(testRegistry(), []string{"highscore", "-h"}, &errBuf)

		if !IsHelpError(err) {
			t.Errorf("Error should be a help error, got %v", err)
		}
		if !strings.Contains(errBuf.String(), "Usage:") {
			t.Errorf("usage not printed:\n%s", errBuf.String())
		}
	})

	t.Run("Empty args and nil registry", func(t *testing.T) {
		t.Parallel()
		app, err := New(nil, []string{}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New() should handle empty args without error, got: %v", err)
		}
		if app.Registry == nil || app.Registry.Len() != 0 {
			t.Error("a nil registry should be replaced by an empty one")
		}
	})
}

// TestApplicationRun runs real benchmarks on the wall clock with a short
// sample duration.
func TestApplicationRun(t *testing.T) {
	t.Parallel()

	t.Run("Suite is measured and recorded", func(t *testing.T) {
		t.Parallel()
		logDir := t.TempDir()
		metricsFile := filepath.Join(t.TempDir(), "highscore.prom")
		app, err := New(testRegistry(), fastArgs("--log-dir", logDir, "--metrics-file", metricsFile, "--set-baseline"), &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}

		var out bytes.Buffer
		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d, want %d. Output:\n%s", code, apperrors.ExitSuccess, out.String())
		}

		output := testutil.StripAnsiCodes(out.String())
		for _, want := range []string{"Running 2 benchmarks...", "math/squares", "strings/repeat", "runs/sec", "--- Summary ---"} {
			if !strings.Contains(output, want) {
				t.Errorf("output is missing %q:\n%s", want, output)
			}
		}

		store := history.NewStore(logDir, nil)
		for _, name := range []string{"math/squares", "strings/repeat"} {
			entry, err := store.Baseline(name)
			if err != nil {
				t.Fatalf("Baseline(%q) error: %v", name, err)
			}
			if entry == nil {
				t.Fatalf("Baseline(%q) = nil, want the recorded entry", name)
			}
			if entry.Environment.RunnerVersion != Version {
				t.Errorf("RunnerVersion = %q, want %q", entry.Environment.RunnerVersion, Version)
			}
		}

		data, err := os.ReadFile(metricsFile)
		if err != nil {
			t.Fatalf("metrics file not written: %v", err)
		}
		if !strings.Contains(string(data), `highscore_frequency_runs_per_second{benchmark="math/squares"}`) {
			t.Errorf("metrics file is missing the frequency gauge:\n%s", data)
		}
	})

	t.Run("Include filter leaves other histories untouched", func(t *testing.T) {
		t.Parallel()
		logDir := t.TempDir()
		app, err := New(testRegistry(), fastArgs("--log-dir", logDir, "-t", "^strings/", "-q"), &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}

		var out bytes.Buffer
		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d. Output:\n%s", code, out.String())
		}
		output := out.String()
		if strings.Contains(output, "math/squares") {
			t.Errorf("excluded benchmark was run:\n%s", output)
		}
		if strings.Contains(output, "collecting samples") {
			t.Errorf("--quiet must hide progress:\n%s", output)
		}

		store := history.NewStore(logDir, nil)
		if _, err := os.Stat(store.Path("math/squares")); !os.IsNotExist(err) {
			t.Errorf("excluded benchmark history exists (err = %v)", err)
		}
		if _, err := os.Stat(store.Path("strings/repeat")); err != nil {
			t.Errorf("included benchmark history missing: %v", err)
		}
	})

	t.Run("No matching benchmark", func(t *testing.T) {
		t.Parallel()
		app, err := New(testRegistry(), fastArgs("--no-log", "-t", "^nothing$"), &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		var out bytes.Buffer
		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitSuccess)
		}
		if !strings.Contains(out.String(), "No benchmarks to run.") {
			t.Errorf("unexpected output:\n%s", out.String())
		}
	})

	t.Run("Failing benchmark sets the exit code", func(t *testing.T) {
		t.Parallel()
		reg := testRegistry()
		reg.MustAdd("broken", func() { panic("broken unit") })
		var errBuf bytes.Buffer
		app, err := New(reg, fastArgs("--no-log"), &errBuf)
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}

		var out bytes.Buffer
		if code := app.Run(context.Background(), &out); code != apperrors.ExitErrorGeneric {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorGeneric)
		}
		output := testutil.StripAnsiCodes(out.String())
		if !strings.Contains(output, "broken: benchmark run failed") {
			t.Errorf("failure not reported:\n%s", output)
		}
		if !strings.Contains(output, "strings/repeat") {
			t.Errorf("the remaining benchmarks must still run:\n%s", output)
		}
		if !strings.Contains(errBuf.String(), "benchmark failed") {
			t.Errorf("failure not logged:\n%s", errBuf.String())
		}
	})

	t.Run("Canceled context", func(t *testing.T) {
		t.Parallel()
		app, err := New(testRegistry(), fastArgs("--no-log"), &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		var out bytes.Buffer
		if code := app.Run(ctx, &out); code != apperrors.ExitErrorCanceled {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorCanceled)
		}
	})

	t.Run("Version", func(t *testing.T) {
		t.Parallel()
		app, err := New(testRegistry(), []string{"highscore", "--version"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		var out bytes.Buffer
		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Errorf("exit code = %d", code)
		}
		if !strings.HasPrefix(out.String(), "highscore "+Version) {
			t.Errorf("unexpected version output:\n%s", out.String())
		}
	})
}

func TestRunCompletion(t *testing.T) {
	t.Parallel()

	t.Run("Script lists the registered benchmarks", func(t *testing.T) {
		t.Parallel()
		app, err := New(testRegistry(), []string{"highscore", "--completion", "bash"}, &bytes.Buffer{})
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		var out bytes.Buffer
		if code := app.Run(context.Background(), &out); code != apperrors.ExitSuccess {
			t.Fatalf("exit code = %d", code)
		}
		if !strings.Contains(out.String(), "'math/squares' 'strings/repeat'") {
			t.Errorf("benchmark names missing from the script:\n%s", out.String())
		}
	})

	t.Run("Unsupported shell", func(t *testing.T) {
		t.Parallel()
		var errBuf bytes.Buffer
		app, err := New(testRegistry(), []string{"highscore", "--completion", "tcsh"}, &errBuf)
		if err != nil {
			t.Fatalf("New() error: %v", err)
		}
		if code := app.Run(context.Background(), &bytes.Buffer{}); code != apperrors.ExitErrorConfig {
			t.Errorf("exit code = %d, want %d", code, apperrors.ExitErrorConfig)
		}
		if !strings.Contains(errBuf.String(), "unsupported shell") {
			t.Errorf("unexpected error output:\n%s", errBuf.String())
		}
	})
}

// TestIsHelpError tests the IsHelpError function.
func TestIsHelpError(t *testing.T) {
	t.Parallel()
	if IsHelpError(nil) {
		t.Error("IsHelpError(nil) should be false")
	}
	if IsHelpError(errors.New("other")) {
		t.Error("IsHelpError should be false for unrelated errors")
	}
}

func TestInterruptible(t *testing.T) {
	t.Parallel()

	t.Run("Parent cancellation is not reported as a signal", func(t *testing.T) {
		t.Parallel()
		var logs bytes.Buffer
		parent, cancel := context.WithCancel(context.Background())
		ctx, stop := interruptible(parent, logging.NewJSONLogger(&logs, "debug"))
		defer stop()

		if ctx.Err() != nil {
			t.Fatal("context should start live")
		}
		cancel()
		<-ctx.Done()
		if !errors.Is(ctx.Err(), context.Canceled) {
			t.Errorf("ctx.Err() = %v, want context.Canceled", ctx.Err())
		}
		stop()
		if strings.Contains(logs.String(), "interrupted") {
			t.Errorf("unexpected interrupt warning:\n%s", logs.String())
		}
	})

	t.Run("Stop releases the context", func(t *testing.T) {
		t.Parallel()
		ctx, stop := interruptible(context.Background(), logging.Nop())
		stop()
		<-ctx.Done()
	})
}

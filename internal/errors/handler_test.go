package apperrors

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"testing"
)

type MockColorProvider struct{}

func (m MockColorProvider) Yellow() string { return "[YELLOW]" }
func (m MockColorProvider) Red() string    { return "[RED]" }
func (m MockColorProvider) Reset() string  { return "[RESET]" }

func TestHandleUnitError(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name         string
		err          error
		colors       ColorProvider
		expectedCode int
		expectedMsg  string
	}{
		{
			name:         "No Error",
			err:          nil,
			expectedCode: ExitSuccess,
			expectedMsg:  "",
		},
		{
			name:         "Canceled",
			err:          fmt.Errorf("sample loop: %w", context.Canceled),
			colors:       MockColorProvider{},
			expectedCode: ExitErrorCanceled,
			expectedMsg:  "[YELLOW]sort/ints: interrupted[RESET]",
		},
		{
			name:         "Calibration",
			err:          CalibrationError{Benchmark: "sort/ints", Runs: 1 << 62},
			colors:       MockColorProvider{},
			expectedCode: ExitErrorGeneric,
			expectedMsg:  "[RED]sort/ints: unmeasurable: benchmark \"sort/ints\" is too fast",
		},
		{
			name:         "Callable failure",
			err:          BenchmarkError{Phase: "run", Cause: fmt.Errorf("boom")},
			expectedCode: ExitErrorGeneric,
			expectedMsg:  "sort/ints: benchmark run failed: boom",
		},
		{
			name:         "History schema",
			err:          fmt.Errorf("load: %w", HistorySchemaError{Path: "x.log.json", Found: "0.0.1", Want: "0.1.0"}),
			expectedCode: ExitErrorGeneric,
			expectedMsg:  "unexpected version \"0.0.1\" in history file x.log.json",
		},
		{
			name:         "Validation",
			err:          NewValidationError("MinSampleCount", "must be >= 0", -1),
			expectedCode: ExitErrorGeneric,
			expectedMsg:  "sort/ints: invalid options: validation error for 'MinSampleCount'",
		},
		{
			name:         "Generic",
			err:          fmt.Errorf("random error"),
			expectedCode: ExitErrorGeneric,
			expectedMsg:  "sort/ints: unexpected error: random error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			var buf bytes.Buffer
			code := HandleUnitError("sort/ints", tt.err, &buf, tt.colors)
			if code != tt.expectedCode {
				t.Errorf("expected exit code %d, got %d", tt.expectedCode, code)
			}
			output := buf.String()
			if tt.expectedMsg == "" {
				if output != "" {
					t.Errorf("expected no output, got %q", output)
				}
				return
			}
			if !strings.Contains(output, tt.expectedMsg) {
				t.Errorf("expected output to contain %q, got %q", tt.expectedMsg, output)
			}
		})
	}
}

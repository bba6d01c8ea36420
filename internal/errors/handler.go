package apperrors

import (
	"errors"
	"fmt"
	"io"
)

// ColorProvider defines the interface for obtaining terminal color codes.
// This abstraction breaks the import cycle with cli.
type ColorProvider interface {
	Yellow() string
	Red() string
	Reset() string
}

// DefaultColorProvider provides no color codes (for non-terminal output).
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Red() string    { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// HandleUnitError prints a one-line explanation of why a benchmark unit
// failed and returns the exit code the whole run should report for it.
// It distinguishes calibration, callable, history and configuration failures
// so the user knows which collaborator to look at.
//
// Parameters:
//   - name: The benchmark name.
//   - err: The error that occurred.
//   - out: The io.Writer to which the message will be written.
//   - colors: Provider for terminal color codes (can be nil for no colors).
//
// Returns:
//   - int: The appropriate exit code for the error type.
func HandleUnitError(name string, err error, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	var (
		calErr    CalibrationError
		benchErr  BenchmarkError
		schemaErr HistorySchemaError
		cfgErr    ConfigError
		valErr    ValidationError
	)
	switch {
	case IsContextError(err):
		fmt.Fprintf(out, "%s%s: interrupted%s\n", colors.Yellow(), name, colors.Reset())
		return ExitErrorCanceled
	case errors.As(err, &calErr):
		fmt.Fprintf(out, "%s%s: %v%s\n", colors.Red(), name, calErr, colors.Reset())
	case errors.As(err, &benchErr):
		fmt.Fprintf(out, "%s%s: %v%s\n", colors.Red(), name, benchErr, colors.Reset())
	case errors.As(err, &schemaErr):
		fmt.Fprintf(out, "%s%s: %v%s\n", colors.Red(), name, schemaErr, colors.Reset())
	case errors.As(err, &cfgErr), errors.As(err, &valErr):
		fmt.Fprintf(out, "%s%s: invalid options: %v%s\n", colors.Red(), name, err, colors.Reset())
	default:
		fmt.Fprintf(out, "%s%s: unexpected error: %v%s\n", colors.Red(), name, err, colors.Reset())
	}
	return ExitErrorGeneric
}

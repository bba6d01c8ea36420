// Package app provides the core application structure for the highscore
// runner. It wires configuration, output, history and metrics around the
// sampling engine and handles the process lifecycle.
package app

import (
	"fmt"
	"io"
	"runtime"
)

// Build-time variables set via -ldflags.
//
// Example build command:
//
//	go build -ldflags="-X github.com/agbru/highscore/internal/app.Version=v0.2.0 -X github.com/agbru/highscore/internal/app.Commit=abc123 -X github.com/agbru/highscore/internal/app.BuildDate=2025-01-01T00:00:00Z"
var (
	// Version is the semantic version of the runner. It is stored in every
	// history entry as the runner version.
	Version = "dev"
	// Commit is the short Git commit hash (e.g., "abc123").
	Commit = "unknown"
	// BuildDate is the ISO 8601 timestamp of the build (e.g., "2025-01-01T00:00:00Z").
	BuildDate = "unknown"
)

// PrintVersion outputs version information to the given writer.
func PrintVersion(out io.Writer) {
	fmt.Fprintf(out, "highscore %s\n", Version)
	fmt.Fprintf(out, "  Commit:     %s\n", Commit)
	fmt.Fprintf(out, "  Built:      %s\n", BuildDate)
	fmt.Fprintf(out, "  Go version: %s\n", runtime.Version())
	fmt.Fprintf(out, "  OS/Arch:    %s/%s\n", runtime.GOOS, runtime.GOARCH)
}

// Package testutil holds helpers shared by the package tests: a fake clock
// that moves only when simulated work runs, and output cleanup.
package testutil

import "regexp"

// csiSequence matches the color and line-erase sequences the CLI emits.
var csiSequence = regexp.MustCompile(`\x1b\[[0-9;]*[a-zA-Z]`)

// StripAnsiCodes returns s without terminal escape sequences, so that
// assertions can compare the visible text only.
func StripAnsiCodes(s string) string {
	return csiSequence.ReplaceAllString(s, "")
}

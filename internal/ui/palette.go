package ui

import "github.com/fatih/color"

// Escape codes of the current theme, for callers that interleave colors with
// their own formatting (tabwriter cells, the error handler).

func ColorReset() string {
	if GetCurrentTheme().Name == NoColorTheme.Name {
		return ""
	}
	return sgr([]color.Attribute{color.Reset})
}

func ColorAccent() string    { return sgr(GetCurrentTheme().Accent) }
func ColorMuted() string     { return sgr(GetCurrentTheme().Muted) }
func ColorSuccess() string   { return sgr(GetCurrentTheme().Success) }
func ColorWarning() string   { return sgr(GetCurrentTheme().Warning) }
func ColorError() string     { return sgr(GetCurrentTheme().Error) }
func ColorBold() string      { return sgr(GetCurrentTheme().Bold) }
func ColorUnderline() string { return sgr(GetCurrentTheme().Underline) }

// Accent paints s as a benchmark name.
func Accent(s string) string { return paint(GetCurrentTheme().Accent, s) }

// Muted paints s as secondary text.
func Muted(s string) string { return paint(GetCurrentTheme().Muted, s) }

// Success paints s as a good outcome.
func Success(s string) string { return paint(GetCurrentTheme().Success, s) }

// Warning paints s as a caution.
func Warning(s string) string { return paint(GetCurrentTheme().Warning, s) }

// Error paints s as a failure.
func Error(s string) string { return paint(GetCurrentTheme().Error, s) }

// Package ui holds the terminal palette shared by the progress renderer, the
// result printer and the error handler, and decides whether output goes to a
// terminal at all.
package ui

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/fatih/color"
)

// Theme maps the roles used by the renderers to SGR attributes. An empty
// attribute list renders without escape codes.
type Theme struct {
	Name string
	// Accent highlights benchmark names.
	Accent []color.Attribute
	// Muted is used for progress messages and table rules.
	Muted []color.Attribute
	// Success marks improvements and clean stops.
	Success []color.Attribute
	// Warning marks aborted runs and interruptions.
	Warning []color.Attribute
	// Error marks regressions and failed units.
	Error     []color.Attribute
	Bold      []color.Attribute
	Underline []color.Attribute
}

var (
	// DarkTheme uses the bright palette, readable on dark backgrounds.
	DarkTheme = Theme{
		Name:      "dark",
		Accent:    []color.Attribute{color.FgHiCyan},
		Muted:     []color.Attribute{color.FgHiBlack},
		Success:   []color.Attribute{color.FgHiGreen},
		Warning:   []color.Attribute{color.FgHiYellow},
		Error:     []color.Attribute{color.FgHiRed},
		Bold:      []color.Attribute{color.Bold},
		Underline: []color.Attribute{color.Underline},
	}

	// LightTheme uses the normal-intensity palette for light backgrounds.
	LightTheme = Theme{
		Name:      "light",
		Accent:    []color.Attribute{color.FgBlue},
		Muted:     []color.Attribute{color.FgBlack},
		Success:   []color.Attribute{color.FgGreen},
		Warning:   []color.Attribute{color.FgYellow},
		Error:     []color.Attribute{color.FgRed},
		Bold:      []color.Attribute{color.Bold},
		Underline: []color.Attribute{color.Underline},
	}

	// NoColorTheme produces plain text.
	NoColorTheme = Theme{Name: "none"}

	currentTheme = DarkTheme
	themeMutex   sync.RWMutex
)

// GetCurrentTheme returns the active theme.
func GetCurrentTheme() Theme {
	themeMutex.RLock()
	defer themeMutex.RUnlock()
	return currentTheme
}

// SetCurrentTheme replaces the active theme; tests use it to restore state.
func SetCurrentTheme(t Theme) {
	themeMutex.Lock()
	defer themeMutex.Unlock()
	currentTheme = t
}

// SetTheme activates a theme by name: "dark", "light" or "none". Unknown
// names select dark.
func SetTheme(name string) {
	switch name {
	case "light":
		SetCurrentTheme(LightTheme)
	case "none":
		SetCurrentTheme(NoColorTheme)
	default:
		SetCurrentTheme(DarkTheme)
	}
}

// InitTheme picks the theme for this process. Colors are off when noColor is
// set, when NO_COLOR is present in the environment, or when fatih/color has
// decided stdout is not a color terminal.
func InitTheme(noColor bool) {
	_, envNoColor := os.LookupEnv("NO_COLOR")
	if noColor || envNoColor || color.NoColor {
		SetCurrentTheme(NoColorTheme)
		return
	}
	SetCurrentTheme(DarkTheme)
}

// sgr renders attributes as one escape sequence, the way fatih/color
// formats them.
func sgr(attrs []color.Attribute) string {
	if len(attrs) == 0 {
		return ""
	}
	codes := make([]string, len(attrs))
	for i, a := range attrs {
		codes[i] = fmt.Sprint(int(a))
	}
	return "\x1b[" + strings.Join(codes, ";") + "m"
}

// paint wraps s in attrs using fatih/color, or returns it unchanged for an
// empty attribute list.
func paint(attrs []color.Attribute, s string) string {
	if len(attrs) == 0 {
		return s
	}
	c := color.New(attrs...)
	c.EnableColor()
	return c.Sprint(s)
}
